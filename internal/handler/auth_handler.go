package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/internal/middleware"
	"github.com/suteetoe/tenant-auth-service/internal/service"
	"github.com/suteetoe/tenant-auth-service/pkg/config"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
	"github.com/suteetoe/tenant-auth-service/prometheus"
)

// AuthHandler serves registration, login, token refresh and logout
type AuthHandler struct {
	auth    *service.AuthService
	tokens  *service.TokenService
	cookies cookieJar
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(auth *service.AuthService, tokens *service.TokenService, cookieCfg config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		tokens:  tokens,
		cookies: cookieJar{cfg: cookieCfg},
	}
}

// RegisterRoutes mounts the auth endpoints on g
func (h *AuthHandler) RegisterRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh/token", h.Refresh)
	g.POST("/logout", h.Logout, requireAuth)
	g.GET("/me", h.Me, requireAuth)
}

// Register creates a user in the request's tenant
func (h *AuthHandler) Register(c echo.Context) error {
	log := logger.FromContext(c)

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		prometheus.RecordRegister("invalid_request")
		return bindError(c, err)
	}

	user, err := h.auth.Register(c.Request().Context(), middleware.TenantFromContext(c), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		label, werr := respondError(c, err)
		prometheus.RecordRegister(label)
		return werr
	}

	prometheus.RecordRegister("success")
	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"user":    user.Public(),
		"message": service.MsgUserRegistered,
	})
}

// Login checks credentials and issues a token pair in the body or as cookies
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		prometheus.RecordLogin("invalid_request")
		return bindError(c, err)
	}

	user, err := h.auth.Login(c.Request().Context(), middleware.TenantFromContext(c), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		label, werr := respondError(c, err)
		prometheus.RecordLogin(label)
		prometheus.RecordAuthError(label)
		return werr
	}

	pair, err := h.tokens.Issue(user)
	if err != nil {
		label, werr := respondError(c, err)
		prometheus.RecordLogin(label)
		return werr
	}

	cookieOnly := bool(req.IsHTTPCookieOnly)
	if cookieOnly {
		h.cookies.setTokens(c, pair)
	}

	prometheus.RecordLogin("success")
	log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.Bool("cookie_only", cookieOnly),
	)

	body := tokenBody(pair, cookieOnly)
	body["user"] = user.Public()
	return c.JSON(http.StatusOK, body)
}

// Refresh rotates the presented refresh token
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		prometheus.RecordRefresh("invalid_request")
		return bindError(c, err)
	}

	pair, _, err := h.tokens.Refresh(c.Request().Context(), h.cookies.refreshToken(c, req.Refresh))
	if err != nil {
		label, werr := respondError(c, err)
		prometheus.RecordRefresh(label)
		prometheus.RecordAuthError(label)
		return werr
	}

	cookieOnly := bool(req.IsHTTPCookieOnly)
	if cookieOnly {
		h.cookies.setTokens(c, pair)
	}

	prometheus.RecordRefresh("success")
	return c.JSON(http.StatusOK, tokenBody(pair, cookieOnly))
}

// Logout blacklists the refresh token and, in cookie mode, clears the cookies
func (h *AuthHandler) Logout(c echo.Context) error {
	log := logger.FromContext(c)

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		prometheus.RecordLogout("invalid_request")
		return bindError(c, err)
	}

	claims, err := h.tokens.Revoke(c.Request().Context(), h.cookies.refreshToken(c, req.Refresh))
	if err != nil {
		label, werr := respondError(c, err)
		prometheus.RecordLogout(label)
		return werr
	}

	if req.IsHTTPCookieOnly {
		h.cookies.clear(c)
	}

	prometheus.RecordLogout("success")
	log.Info("User logged out", zap.Uint("user_id", claims.UserID))
	return c.JSON(http.StatusOK, echo.Map{"detail": "Successfully logged out"})
}

// Me returns the authenticated caller
func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		_, werr := respondError(c, service.ErrNotAuthenticated)
		return werr
	}

	user, err := h.auth.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		_, werr := respondError(c, err)
		return werr
	}
	return c.JSON(http.StatusOK, user.Public())
}
