package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/service"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
	"github.com/suteetoe/tenant-auth-service/prometheus"
)

type tenantContextKey struct{}

const tenantKey = "tenant"

// TenantResolver resolves the tenant from the request host before any handler
// runs. Unknown subdomains end the request with 404.
func TenantResolver(resolver *service.TenantResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)
			req := c.Request()

			tenant, err := resolver.Resolve(req.Context(), req.Host)
			if err != nil {
				if errors.Is(err, service.ErrTenantNotFound) {
					prometheus.RecordTenantResolution("not_found")
					log.Info("Tenant not found", zap.String("host", req.Host))
					return c.JSON(http.StatusNotFound, echo.Map{"detail": service.ErrTenantNotFound.Error()})
				}
				prometheus.RecordTenantResolution("error")
				log.Error("Failed to resolve tenant", zap.String("host", req.Host), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Internal server error"})
			}

			if tenant == nil {
				prometheus.RecordTenantResolution("none")
				return next(c)
			}

			prometheus.RecordTenantResolution("resolved")
			c.Set(tenantKey, tenant)
			c.SetRequest(req.WithContext(WithTenant(req.Context(), tenant)))
			return next(c)
		}
	}
}

// TenantFromContext returns the tenant resolved for this request, or nil
func TenantFromContext(c echo.Context) *model.Tenant {
	if tenant, ok := c.Get(tenantKey).(*model.Tenant); ok {
		return tenant
	}
	return TenantFromStdContext(c.Request().Context())
}

// TenantFromStdContext returns the tenant stored in ctx, or nil
func TenantFromStdContext(ctx context.Context) *model.Tenant {
	tenant, _ := ctx.Value(tenantContextKey{}).(*model.Tenant)
	return tenant
}

// WithTenant returns a copy of ctx carrying tenant
func WithTenant(ctx context.Context, tenant *model.Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenant)
}
