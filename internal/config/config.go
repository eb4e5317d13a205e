// Package config loads runtime configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the full runtime configuration, populated from SECUREDOCS_*
// environment variables.
type Config struct {
	Addr     string `env:"SECUREDOCS_ADDR, default=:8080"`
	LogLevel string `env:"SECUREDOCS_LOG_LEVEL, default=info"`

	DatabaseDSN string `env:"SECUREDOCS_DATABASE_DSN, required"`
	RedisAddr   string `env:"SECUREDOCS_REDIS_ADDR, default=localhost:6379"`

	JWTSigningKey string        `env:"SECUREDOCS_JWT_SIGNING_KEY, required"`
	JWTIssuer     string        `env:"SECUREDOCS_JWT_ISSUER, default=securedocs"`
	JWTAudience   string        `env:"SECUREDOCS_JWT_AUDIENCE, default=securedocs-clients"`
	AccessTTL     time.Duration `env:"SECUREDOCS_ACCESS_TTL, default=1h"`
	RefreshTTL    time.Duration `env:"SECUREDOCS_REFRESH_TTL, default=720h"`

	LockoutThreshold int           `env:"SECUREDOCS_LOCKOUT_THRESHOLD, default=5"`
	LockoutDuration  time.Duration `env:"SECUREDOCS_LOCKOUT_DURATION, default=1h"`
	ThreatWindow     time.Duration `env:"SECUREDOCS_THREAT_WINDOW, default=15m"`

	NATSURL      string `env:"SECUREDOCS_NATS_URL"`
	OTLPEndpoint string `env:"SECUREDOCS_OTLP_ENDPOINT"`

	CORSAllowedOrigins []string `env:"SECUREDOCS_CORS_ORIGINS, default=*"`

	RequestTimeout  time.Duration `env:"SECUREDOCS_REQUEST_TIMEOUT, default=30s"`
	ShutdownTimeout time.Duration `env:"SECUREDOCS_SHUTDOWN_TIMEOUT, default=10s"`
}

// Load reads and validates configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSigningKey) < 32 {
		return errors.New("SECUREDOCS_JWT_SIGNING_KEY must be at least 32 bytes")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.LockoutThreshold < 1 {
		return errors.New("SECUREDOCS_LOCKOUT_THRESHOLD must be >= 1")
	}
	if c.LockoutDuration <= 0 || c.ThreatWindow <= 0 {
		return errors.New("lockout duration and threat window must be positive")
	}
	return nil
}
