package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suteetoe/tenant-auth-service/internal/model"
	"github.com/suteetoe/tenant-auth-service/internal/repository"
	"github.com/suteetoe/tenant-auth-service/internal/service"
	"github.com/suteetoe/tenant-auth-service/internal/tokenstore"
	"github.com/suteetoe/tenant-auth-service/pkg/config"
	"github.com/suteetoe/tenant-auth-service/pkg/jwtutil"
)

type stubTenants struct {
	repository.TenantRepository
	tenants map[string]*model.Tenant
	err     error
}

func (s *stubTenants) GetBySubdomain(_ context.Context, subdomain string) (*model.Tenant, error) {
	if s.err != nil {
		return nil, s.err
	}
	if t, ok := s.tenants[subdomain]; ok {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

type noopBlacklist struct{}

func (noopBlacklist) Add(context.Context, string, uint, time.Time) error { return nil }
func (noopBlacklist) Contains(context.Context, string) (bool, error) { return false, nil }

var _ tokenstore.Blacklist = noopBlacklist{}

func newAcme() *model.Tenant {
	sub := "acme"
	t := &model.Tenant{Name: "Acme", Subdomain: &sub}
	t.ID = 5
	return t
}

func serveTenant(t *testing.T, repo *stubTenants, host string) (*httptest.ResponseRecorder, *model.Tenant, bool) {
	t.Helper()
	e := echo.New()
	resolver := service.NewTenantResolver(repo, "localhost")

	var seen *model.Tenant
	called := false
	h := TenantResolver(resolver)(func(c echo.Context) error {
		called = true
		seen = TenantFromContext(c)
		if std := TenantFromStdContext(c.Request().Context()); seen != nil {
			assert.Same(t, seen, std)
		}
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = host
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec, seen, called
}

func TestTenantResolver_Outcomes(t *testing.T) {
	repo := &stubTenants{tenants: map[string]*model.Tenant{"acme": newAcme()}}

	rec, tenant, called := serveTenant(t, repo, "localhost:8000")
	assert.True(t, called)
	assert.Nil(t, tenant)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, tenant, called = serveTenant(t, repo, "Acme.localhost")
	assert.True(t, called)
	require.NotNil(t, tenant)
	assert.Equal(t, uint(5), tenant.ID)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _, called = serveTenant(t, repo, "missing.localhost")
	assert.False(t, called)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail": "Tenant not found."}`, rec.Body.String())
}

func TestTenantResolver_LookupFailure(t *testing.T) {
	repo := &stubTenants{err: errors.New("db down")}

	rec, _, called := serveTenant(t, repo, "acme.localhost")
	assert.False(t, called)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTenantFromContext_Empty(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, TenantFromContext(c))
}

func newTokenService() (*service.TokenService, *jwtutil.JWTUtil) {
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{
		SigningKey:           "mw-test",
		Issuer:               "mw-test",
		AccessTokenLifetime:  time.Minute,
		RefreshTokenLifetime: time.Hour,
	})
	return service.NewTokenService(jwt, noopBlacklist{}, nil, nil), jwt
}

func serveAuth(t *testing.T, tokens *service.TokenService, prepare func(*http.Request)) (*httptest.ResponseRecorder, *jwtutil.UserClaims) {
	t.Helper()
	e := echo.New()

	var claims *jwtutil.UserClaims
	h := AuthMiddleware(tokens, "access_token")(func(c echo.Context) error {
		claims = ClaimsFromContext(c)
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	prepare(req)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec, claims
}

func TestAuthMiddleware(t *testing.T) {
	tokens, jwt := newTokenService()
	pair, err := jwt.GeneratePair(jwtutil.Subject{UserID: 3, Email: "a@b.com"})
	require.NoError(t, err)

	rec, claims := serveAuth(t, tokens, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.Access)
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, uint(3), claims.UserID)

	rec, claims = serveAuth(t, tokens, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "access_token", Value: pair.Access})
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, claims)

	rec, _ = serveAuth(t, tokens, func(*http.Request) {})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail": "Authentication credentials were not provided."}`, rec.Body.String())

	rec, _ = serveAuth(t, tokens, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.Refresh)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail": "Given token not valid for any token type"}`, rec.Body.String())
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	h := RequestIDMiddleware(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Len(t, rec.Header().Get(RequestIDKey), 36)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDKey, "abc-123")
	rec = httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDKey))
}
