package authapi

import (
	"net/http"
	"time"
)

// Config controls the auth API surface and cookie transport.
type Config struct {
	// BasePath is the route prefix for all auth endpoints.
	BasePath string

	AccessCookieName  string
	RefreshCookieName string
	CookiePath        string
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite

	MaxBodyBytes int64
}

// DefaultConfig returns the endpoint and cookie defaults the service has
// always shipped with.
func DefaultConfig() Config {
	return Config{
		BasePath:          "/api/auth",
		AccessCookieName:  "accessToken",
		RefreshCookieName: "refreshToken",
		CookiePath:        "/",
		CookieSameSite:    http.SameSiteLaxMode,
		MaxBodyBytes:      1 << 20, // 1 MiB
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BasePath == "" {
		c.BasePath = def.BasePath
	}
	if c.AccessCookieName == "" {
		c.AccessCookieName = def.AccessCookieName
	}
	if c.RefreshCookieName == "" {
		c.RefreshCookieName = def.RefreshCookieName
	}
	if c.CookiePath == "" {
		c.CookiePath = def.CookiePath
	}
	if c.CookieSameSite == 0 {
		c.CookieSameSite = def.CookieSameSite
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	return c
}

// cookieMaxAge converts a token lifetime to the cookie Max-Age in seconds.
func cookieMaxAge(ttl time.Duration) int {
	return int(ttl / time.Second)
}
