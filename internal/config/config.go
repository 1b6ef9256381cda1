package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

const (
	CacheBbolt  = "bbolt"
	CacheMemory = "memory"
)

type Config struct {
	DBFile         string
	FilesPath      string
	Cache          string
	RemoteURL      string
	RemoteWSURL    string
	RemoteToken    string
	CurrentUserID  string
	RequestTimeout time.Duration
	LogLevel       slog.Level
}

func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		DBFile:         getEnv("CHATSYNC_DB", "chatsync.db"),
		FilesPath:      getEnv("CHATSYNC_FILES", "files"),
		Cache:          getEnv("CHATSYNC_CACHE", CacheBbolt),
		RemoteURL:      os.Getenv("REMOTE_URL"),
		RemoteWSURL:    os.Getenv("REMOTE_WS_URL"),
		RemoteToken:    os.Getenv("REMOTE_TOKEN"),
		CurrentUserID:  os.Getenv("CURRENT_USER_ID"),
		RequestTimeout: timeout,
		LogLevel:       level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RemoteURL == "" {
		return fmt.Errorf("REMOTE_URL is required")
	}

	if c.CurrentUserID == "" {
		return fmt.Errorf("CURRENT_USER_ID is required")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be greater than 0")
	}

	if c.Cache != CacheBbolt && c.Cache != CacheMemory {
		return fmt.Errorf("CHATSYNC_CACHE must be %q or %q", CacheBbolt, CacheMemory)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
