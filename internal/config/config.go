package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the binaries read from the environment. A .env
// file in the working directory is loaded first when present, so local runs
// do not need to export anything.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	PostgresURL string `envconfig:"POSTGRES_URL"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`

	APIServiceURL   string `envconfig:"API_SERVICE_URL"`
	AdminServiceURL string `envconfig:"ADMIN_SERVICE_URL"`

	DeliveryFee     int64         `envconfig:"DELIVERY_FEE" default:"2000"`
	CartTTL         time.Duration `envconfig:"CART_TTL" default:"72h"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	AdminSessionTTL time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"8h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// RequirePostgres guards the binaries that cannot run without a database.
func (c *Config) RequirePostgres() error {
	if c.PostgresURL == "" {
		return fmt.Errorf("POSTGRES_URL environment variable is required")
	}
	return nil
}
