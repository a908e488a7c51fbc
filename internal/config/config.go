package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings, populated from environment variables.
// A .env file in the working directory is loaded first when present.
type Config struct {
	LogLevel  string
	LogFormat string

	Database DatabaseConfig
}

// DatabaseConfig holds the Postgres connection settings used by `aqpipe ingest`.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnectionString renders the settings as a lib/pq DSN.
func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Load reads configuration from the environment, applying defaults where unset.
func Load() (*Config, error) {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	dbPort, err := envIntOrDefault("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "text"),
		Database: DatabaseConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     envOrDefault("DB_USER", "aqpipe"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   envOrDefault("DB_NAME", "aqpipe"),
			SSLMode:  envOrDefault("DB_SSLMODE", "disable"),
		},
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("LOG_FORMAT must be \"text\" or \"json\"")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
