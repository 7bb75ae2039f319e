package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/service"
	"github.com/suteetoe/tenant-auth-service/pkg/jwtutil"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
	"github.com/suteetoe/tenant-auth-service/prometheus"
)

const claimsKey = "claims"

// AuthMiddleware requires a valid access token taken from the Authorization
// header or, failing that, from the access cookie named cookieName.
func AuthMiddleware(tokens *service.TokenService, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			claims, err := tokens.Authenticate(accessToken(c, cookieName))
			if err != nil {
				if errors.Is(err, service.ErrNotAuthenticated) {
					prometheus.RecordAuthError("missing_token")
				} else {
					prometheus.RecordAuthError("invalid_token")
					log.Info("Rejected access token", zap.Error(err))
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"detail": err.Error()})
			}

			c.Set(claimsKey, claims)
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			if claims.TenantID != nil {
				c.Set("tenant_id", *claims.TenantID)
			}
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims of the authenticated caller, or nil
func ClaimsFromContext(c echo.Context) *jwtutil.UserClaims {
	claims, _ := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims
}

// accessToken prefers a Bearer Authorization header over the cookie
func accessToken(c echo.Context, cookieName string) string {
	parts := strings.Fields(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}

	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
