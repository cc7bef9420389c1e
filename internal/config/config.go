// Package config loads the cart service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/utafrali/cartsvc/pkg/database"
	"github.com/utafrali/cartsvc/pkg/retry"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"CART_HTTP_PORT" envDefault:"8003"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Postgres
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"cartsvc"`
	DBPassword string `env:"DB_PASSWORD" envDefault:""`
	DBName     string `env:"DB_NAME" envDefault:"cart_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns int32  `env:"DB_MIN_CONNS" envDefault:"2"`

	// SlowQueryThreshold controls slow-query logging; zero disables it.
	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Optimistic-concurrency retry policy
	RetryMaxAttempts    int           `env:"SAVE_RETRY_MAX_ATTEMPTS" envDefault:"4"`
	RetryInitialBackoff time.Duration `env:"SAVE_RETRY_INITIAL_BACKOFF" envDefault:"100ms"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	OTLPEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	TraceSample    float64 `env:"OTEL_TRACE_SAMPLE_RATIO" envDefault:"1.0"`
	ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"dev"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("invalid retry max attempts: %d", c.RetryMaxAttempts)
	}
	if c.RetryInitialBackoff <= 0 {
		return fmt.Errorf("invalid retry initial backoff: %s", c.RetryInitialBackoff)
	}
	return nil
}

// Postgres maps the flat env fields onto a pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.DBHost
	pg.Port = c.DBPort
	pg.User = c.DBUser
	pg.Password = c.DBPassword
	pg.DBName = c.DBName
	pg.SSLMode = c.DBSSLMode
	pg.MaxConns = c.DBMaxConns
	pg.MinConns = c.DBMinConns
	return pg
}

// RetryPolicy builds the save retry policy from configuration. Multiplier and
// jitter are fixed; only the attempt bound and initial backoff are tunable.
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = c.RetryMaxAttempts
	p.InitialBackoff = c.RetryInitialBackoff
	return p
}
