package infra

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Remote API
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:5000/api"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`

	// Profile store
	StoreDriver    string `env:"STORE_DRIVER" envDefault:"file"`
	StorePath      string `env:"STORE_PATH" envDefault:"data/profile.json"`
	StoreNamespace string `env:"STORE_NAMESPACE" envDefault:"miniapp"`

	// Redis
	RedisURL string `env:"REDIS_URL"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"miniapp.profile-changes"`

	// External services
	RandomOrgAPIKey string `env:"RANDOM_ORG_API_KEY"`

	// Bridge
	BridgePort         int    `env:"BRIDGE_PORT" envDefault:"3200"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`

	// Host platform theme, empty when the app runs outside a host.
	ColorScheme string `env:"COLOR_SCHEME"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects combinations the process cannot start with.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.BridgePort <= 0 || c.BridgePort > 65535 {
		return fmt.Errorf("BRIDGE_PORT out of range: %d", c.BridgePort)
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StoreFile:
		if c.StorePath == "" {
			return fmt.Errorf("STORE_PATH is required for the file store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.KafkaEnabled && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_ENABLED=true")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
