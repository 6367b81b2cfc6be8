// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr       string
	DBPath           string // Empty disables the account database.
	SecretKey        []byte // 32-byte AES-256 key; nil when unset.
	CredentialsFiles []string
	DemoCredentials  bool
	ReloadInterval   time.Duration // Zero disables periodic reloads.
	LogLevel         slog.Level
	Banner           string // Markdown shown on the login page.
}

// HasAccountDB returns true when an account database path is configured.
func (c *Config) HasAccountDB() bool {
	return c.DBPath != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// Optional variables with defaults: CREDGATE_LISTEN_ADDR (127.0.0.1:8080),
// CREDGATE_RELOAD_INTERVAL (1m), CREDGATE_LOG_LEVEL (info), CREDGATE_DEMO_CREDENTIALS (false).
// CREDGATE_SECRET_KEY, when set, must be 64 hex characters.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("CREDGATE_LISTEN_ADDR"); ok && v != "" {
		listenAddr = v
	}

	reloadInterval := time.Minute
	if v, ok := os.LookupEnv("CREDGATE_RELOAD_INTERVAL"); ok && v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CREDGATE_RELOAD_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("CREDGATE_RELOAD_INTERVAL must not be negative, got %q", v)
		}
		reloadInterval = parsed
	}

	demo := false
	if v, ok := os.LookupEnv("CREDGATE_DEMO_CREDENTIALS"); ok && v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("CREDGATE_DEMO_CREDENTIALS has invalid boolean %q: %w", v, err)
		}
		demo = parsed
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("CREDGATE_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("CREDGATE_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("CREDGATE_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("CREDGATE_SECRET_KEY must be hex encoded: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("CREDGATE_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		secretKey = key
	}

	credentialsFiles := []string{}
	if v, ok := os.LookupEnv("CREDGATE_CREDENTIALS_FILES"); ok && v != "" {
		for _, path := range strings.Split(v, ",") {
			path = strings.TrimSpace(path)
			if path != "" {
				credentialsFiles = append(credentialsFiles, path)
			}
		}
	}

	return &Config{
		ListenAddr:       listenAddr,
		DBPath:           os.Getenv("CREDGATE_DB_PATH"),
		SecretKey:        secretKey,
		CredentialsFiles: credentialsFiles,
		DemoCredentials:  demo,
		ReloadInterval:   reloadInterval,
		LogLevel:         logLevel,
		Banner:           os.Getenv("CREDGATE_BANNER"),
	}, nil
}
