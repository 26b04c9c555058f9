// Package config loads daemon configuration from environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all trustd settings.
type Config struct {
	// --- Database ---
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"trust"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"trustcore"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`

	// --- Decay sweep ---
	// Cron expression for the daily decay sweep.
	SweepSchedule string `envconfig:"SWEEP_SCHEDULE" default:"0 3 * * *"`
	// Whether fully-expired endorsements still count toward scores.
	ScoreCountExpired bool `envconfig:"SCORE_COUNT_EXPIRED" default:"true"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}
