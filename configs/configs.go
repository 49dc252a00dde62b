// Package configs parses the service configuration from the environment.
package configs

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "NIGHTSCOUTER_"

type Config struct {
	// -- Server --

	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"3000"`
	// Timeout for a single admin API request
	ServerRequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`

	// -- Logging --

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// -- Persistence backend --

	// One of "gorm", "redis" or "memory"
	BackendType string `env:"BACKEND_TYPE" envDefault:"gorm"`
	// Namespace all settings keys are stored under
	Namespace string `env:"NAMESPACE" envDefault:"group.com.nothingonline.nightscouter"`
	// Maximum number of backend flushes per second, 0 disables the limit
	FlushMaxRate int `env:"FLUSH_MAX_RATE" envDefault:"0"`

	DatabaseDSN  string `env:"DATABASE_DSN" envDefault:"nightscouter.db"`
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite"`

	RedisURL string `env:"REDIS_URL"`

	// -- Application --

	// Info document describing the host application bundle
	BundleInfoPath string `env:"BUNDLE_INFO_PATH" envDefault:"Info.yaml"`
	// Replace an empty site list with the demonstration site on startup
	LoadSampleSites bool `env:"LOAD_SAMPLE_SITES" envDefault:"false"`

	// -- Idempotency middleware --

	DisableIdempotencyMiddleware bool `env:"DISABLE_IDEMPOTENCY_MIDDLEWARE" envDefault:"false"`
	// One of "local", "shared" (the settings database) or "redis"
	IdempotencyMiddlewareDatabaseType string        `env:"IDEMPOTENCY_MIDDLEWARE_DATABASE_TYPE" envDefault:"local"`
	IdempotencyMiddlewareRedisURL     string        `env:"IDEMPOTENCY_MIDDLEWARE_REDIS_URL"`
	IdempotencyKeyExpiry              time.Duration `env:"IDEMPOTENCY_KEY_EXPIRY" envDefault:"1h"`

	// -- Tracing --

	TracingEnabled     bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingProjectID   string  `env:"TRACING_PROJECT_ID"`
	TracingSampleRatio float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"0.1"`
}

type Options struct {
	// Optional env file loaded before parsing; variables already present in
	// the environment take precedence.
	EnvFilePath string
}

// Parse parses the configuration from environment variables.
func Parse() (*Config, error) {
	return ParseConfig(nil)
}

// ParseConfig parses the configuration, loading opts.EnvFilePath first when
// given.
func ParseConfig(opts *Options) (*Config, error) {
	if opts != nil && opts.EnvFilePath != "" {
		if err := godotenv.Load(opts.EnvFilePath); err != nil {
			return nil, fmt.Errorf("load env file %q: %w", opts.EnvFilePath, err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ConfigureLogger sets the level of the standard logrus logger.
func ConfigureLogger(logLevel string) {
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		log.WithFields(log.Fields{"level": logLevel}).Warn("Invalid log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
