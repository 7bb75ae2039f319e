package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/middleware"
	"github.com/suteetoe/tenant-auth-service/internal/service"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
	"github.com/suteetoe/tenant-auth-service/pkg/metrics"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	Auth           *AuthHandler
	Health         *HealthHandler
	Resolver       *service.TenantResolver
	Tokens         *service.TokenService
	AccessCookie   string
	Logger         *zap.Logger
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	CORSOrigins    []string
}

// NewRouter builds the echo instance serving the API
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e.Use(echomw.Recover())
	e.Use(middleware.RequestIDMiddleware)
	if cfg.HTTPMetrics != nil {
		e.Use(cfg.HTTPMetrics.Middleware())
	}
	e.Use(logger.Middleware(log))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAccept,
				echo.HeaderAuthorization,
				middleware.RequestIDKey,
			},
		}))
	}
	// Every request is bound to its tenant before routing
	e.Use(middleware.TenantResolver(cfg.Resolver))

	if cfg.Health != nil {
		e.GET("/health", cfg.Health.HealthCheck)
	}
	if cfg.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.MetricsHandler))
	}

	api := e.Group("/api/v1/auth")
	cfg.Auth.RegisterRoutes(api, middleware.AuthMiddleware(cfg.Tokens, cfg.AccessCookie))

	return e
}
