package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	Port        int
	MetricsPort string

	// Cache configuration; caching is disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Ledger configuration
	StartingBalance int64

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, reading a .env file first
// if one exists
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		Port:        8080,
		MetricsPort: "9091",

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		StartingBalance: 100000,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if port := os.Getenv("PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			config.Port = parsed
		}
	}
	if port := os.Getenv("METRICS_PORT"); port != "" {
		config.MetricsPort = port
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if parsed, err := strconv.Atoi(db); err == nil {
			config.RedisDB = parsed
		}
	}
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return config, nil
}

// IsProduction returns true in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
