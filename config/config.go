package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP server
	ListenAddr string

	// Postback network shared secrets
	CPXSecret      string
	LootablySecret string

	// Environment
	Environment string // "development", "production", or "test"
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

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ListenAddr:     ":8080",
		CPXSecret:      os.Getenv("CPX_SECRET"),
		LootablySecret: os.Getenv("LOOTABLY_SECRET"),
		Environment:    os.Getenv("ENVIRONMENT"),
	}

	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return nil, fmt.Errorf("PORT must be numeric: %q", port)
		}
		config.ListenAddr = ":" + port
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.CPXSecret == "" {
			return nil, fmt.Errorf("CPX_SECRET is required")
		}
		if config.LootablySecret == "" {
			return nil, fmt.Errorf("LOOTABLY_SECRET is required")
		}
	}

	return config, nil
}
