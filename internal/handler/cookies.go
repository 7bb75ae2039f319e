package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/suteetoe/tenant-auth-service/pkg/config"
	"github.com/suteetoe/tenant-auth-service/pkg/jwtutil"
)

// cookieJar writes and clears the auth cookies
type cookieJar struct {
	cfg config.CookieConfig
}

func (j cookieJar) cookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   j.cfg.Domain,
		Expires:  expires,
		Secure:   j.cfg.Secure,
		HttpOnly: j.cfg.HTTPOnly,
		SameSite: j.cfg.SameSite,
	}
}

// setTokens stores both tokens as cookies expiring with the tokens themselves
func (j cookieJar) setTokens(c echo.Context, pair *jwtutil.TokenPair) {
	c.SetCookie(j.cookie(j.cfg.AccessName, pair.Access, "/", pair.AccessExpiresAt))
	c.SetCookie(j.cookie(j.cfg.RefreshName, pair.Refresh, j.cfg.RefreshPath, pair.RefreshExpiresAt))
}

// clear overwrites both cookies with empty values that have already expired
func (j cookieJar) clear(c echo.Context) {
	expired := time.Unix(0, 0).UTC()

	access := j.cookie(j.cfg.AccessName, "", "/", expired)
	access.MaxAge = -1
	c.SetCookie(access)

	refresh := j.cookie(j.cfg.RefreshName, "", j.cfg.RefreshPath, expired)
	refresh.MaxAge = -1
	c.SetCookie(refresh)
}

// refreshToken returns the refresh token from the body, falling back to the cookie
func (j cookieJar) refreshToken(c echo.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if cookie, err := c.Cookie(j.cfg.RefreshName); err == nil {
		return cookie.Value
	}
	return ""
}

// tokenBody shapes the token part of a response for the requested mode
func tokenBody(pair *jwtutil.TokenPair, cookieOnly bool) echo.Map {
	if cookieOnly {
		return echo.Map{
			"access_expiration":  pair.AccessExpiresAt.UTC().Format(time.RFC3339),
			"refresh_expiration": pair.RefreshExpiresAt.UTC().Format(time.RFC3339),
		}
	}
	return echo.Map{
		"access":  pair.Access,
		"refresh": pair.Refresh,
	}
}
