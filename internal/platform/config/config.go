// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (store, reader) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends selectable via STORE_BACKEND.
const (
	StoreBackendFile   = "file"
	StoreBackendRedis  = "redis"
	StoreBackendMemory = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the Folio API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Library content
	//
	// LibraryPath is the catalog feed document (books, categories, tags).
	// BooksDir is the root directory all document paths resolve under.
	LibraryPath string `env:"LIBRARY_PATH" envDefault:"./data/library.json"`
	BooksDir    string `env:"BOOKS_DIR"    envDefault:"./data/books"`

	// Reader state persistence
	//
	// StoreBackend selects the key-value store implementation: "file"
	// keeps one JSON document per key under DataDir, "redis" uses the
	// shared Redis instance, "memory" is volatile (tests, demos).
	StoreBackend string `env:"STORE_BACKEND" envDefault:"file"`
	DataDir      string `env:"DATA_DIR"      envDefault:"./data/state"`
	RedisURL     string `env:"REDIS_URL"`

	// Reading-session timing
	IdleThreshold    time.Duration `env:"IDLE_THRESHOLD"    envDefault:"60s"`
	AutosaveInterval time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"30s"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	switch cfg.StoreBackend {
	case StoreBackendFile, StoreBackendRedis, StoreBackendMemory:
	default:
		return nil, fmt.Errorf("config: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.StoreBackend == StoreBackendRedis && cfg.RedisURL == "" {
		return nil, fmt.Errorf("config: REDIS_URL is required when STORE_BACKEND=redis")
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
