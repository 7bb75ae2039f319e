package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/service"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
)

// respondError writes the JSON error response for err and returns the
// metric label describing it
func respondError(c echo.Context, err error) (string, error) {
	var verr *service.ValidationError
	var terr *service.TokenError

	switch {
	case errors.As(err, &verr):
		return "validation_error", c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.As(err, &terr):
		return "token_error", c.JSON(http.StatusBadRequest, echo.Map{"detail": terr.Detail})
	case errors.Is(err, service.ErrTenantMismatch):
		return "tenant_mismatch", c.JSON(http.StatusBadRequest, echo.Map{"detail": []string{err.Error()}})
	case errors.Is(err, service.ErrTenantMissing):
		return "tenant_missing", c.JSON(http.StatusBadRequest, echo.Map{"detail": err.Error()})
	case errors.Is(err, service.ErrAuthenticationFailed):
		return "invalid_credentials", c.JSON(http.StatusUnauthorized, echo.Map{"detail": err.Error()})
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, service.ErrInvalidCredentials):
		return "invalid_token", c.JSON(http.StatusUnauthorized, echo.Map{"detail": err.Error()})
	case errors.Is(err, service.ErrTenantNotFound):
		return "tenant_not_found", c.JSON(http.StatusNotFound, echo.Map{"detail": err.Error()})
	}

	logger.FromContext(c).Error("Request failed", zap.Error(err))
	return "internal_error", c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Internal server error"})
}

// bindError answers a request whose body could not be decoded
func bindError(c echo.Context, err error) error {
	logger.FromContext(c).Info("Failed to parse request", zap.Error(err))
	return c.JSON(http.StatusBadRequest, echo.Map{"detail": "JSON parse error"})
}
