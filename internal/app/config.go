package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all runtime configuration, loaded from environment
// variables. Token secret and durations are explicit here and handed to the
// token manager at construction; nothing reads the environment later.
type Config struct {
	HTTPAddr string `env:"AUTHGATE_HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel string `env:"AUTHGATE_LOG_LEVEL" envDefault:"info"`

	ReadHeaderTimeout time.Duration `env:"AUTHGATE_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"AUTHGATE_HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"AUTHGATE_HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"AUTHGATE_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"AUTHGATE_HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	// DatabaseURL selects the credential store: Postgres when set, the
	// in-memory dev store when empty.
	DatabaseURL string `env:"AUTHGATE_DATABASE_URL"`
	DBMaxConns  int32  `env:"AUTHGATE_DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"AUTHGATE_DB_MIN_CONNS" envDefault:"0"`

	JWTSecret       string        `env:"AUTHGATE_JWT_SECRET"`
	TokenIssuer     string        `env:"AUTHGATE_TOKEN_ISSUER" envDefault:"authgate"`
	AccessTokenTTL  time.Duration `env:"AUTHGATE_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"AUTHGATE_REFRESH_TOKEN_TTL" envDefault:"168h"`

	CookieDomain string `env:"AUTHGATE_COOKIE_DOMAIN"`
	CookieSecure bool   `env:"AUTHGATE_COOKIE_SECURE" envDefault:"false"`

	// If true, /readyz returns 503 unless the database is configured and
	// reachable.
	ReadinessRequireDB bool `env:"AUTHGATE_READINESS_REQUIRE_DB" envDefault:"false"`
}

// LoadConfig loads and validates Config from environment variables.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("AUTHGATE_JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return errors.New("refresh token TTL must not be shorter than access token TTL")
	}
	return nil
}
