// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const insecureDefaultKey = "0000000000000000000000000000000000000000000000000000000000000000"

// GatewayConfig holds remote-platform client configuration.
type GatewayConfig struct {
	BaseURL string        // remote platform REST base URL
	Timeout time.Duration // per-call budget (default 10s)
	RPS     float64       // sustained requests per second (default 10)
	Burst   int           // burst capacity (default 20)
}

// Config holds the configuration for the querydesk control plane.
type Config struct {
	DBPath        string // path to the SQLite control-plane file
	ListenAddr    string // health listener address (default ":8080")
	EncryptionKey string // 64-char hex string (32-byte AES key) for SQL text at rest
	LogLevel      string // debug, info, warn, error (default "info")
	Env           string // "development" (default) or "production"

	Gateway GatewayConfig

	// DriftSweepSchedule is a cron spec for the periodic drift sweep.
	// Empty disables the monitor.
	DriftSweepSchedule string
	// DriftSweepScopes lists tenant:business-unit:user triples the sweep
	// runs under.
	DriftSweepScopes []string

	// FeatureTeamCollaboration gates shared folder visibility.
	FeatureTeamCollaboration bool

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
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

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:                   os.Getenv("QUERYDESK_DB_PATH"),
		ListenAddr:               os.Getenv("LISTEN_ADDR"),
		EncryptionKey:            os.Getenv("ENCRYPTION_KEY"),
		LogLevel:                 os.Getenv("LOG_LEVEL"),
		Env:                      os.Getenv("ENV"),
		DriftSweepSchedule:       os.Getenv("DRIFT_SWEEP_SCHEDULE"),
		FeatureTeamCollaboration: parseBoolEnvDefault("FEATURE_TEAM_COLLABORATION", false),
	}

	cfg.Gateway = GatewayConfig{
		BaseURL: os.Getenv("GATEWAY_BASE_URL"),
	}
	if v := os.Getenv("GATEWAY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Gateway.Timeout = d
		}
	}
	if v := os.Getenv("GATEWAY_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Gateway.RPS = f
		}
	}
	if v := os.Getenv("GATEWAY_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Burst = n
		}
	}

	if v := os.Getenv("DRIFT_SWEEP_SCOPES"); v != "" {
		scopes := strings.Split(v, ",")
		for i := range scopes {
			scopes[i] = strings.TrimSpace(scopes[i])
		}
		cfg.DriftSweepScopes = compactNonEmpty(scopes)
	}

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "querydesk.sqlite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Gateway.Timeout == 0 {
		cfg.Gateway.Timeout = 10 * time.Second
	}
	if cfg.Gateway.RPS == 0 {
		cfg.Gateway.RPS = 10
	}
	if cfg.Gateway.Burst == 0 {
		cfg.Gateway.Burst = 20
	}
	if cfg.EncryptionKey == "" {
		cfg.EncryptionKey = insecureDefaultKey
		cfg.Warnings = append(cfg.Warnings, "ENCRYPTION_KEY not set — using insecure default. Set ENCRYPTION_KEY in production!")
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Warnings = append(cfg.Warnings, "GATEWAY_BASE_URL not set — remote operations will fail until configured")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.EncryptionKey == insecureDefaultKey {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be set in production (ENV=production)")
		}
		if cfg.Gateway.BaseURL == "" {
			return nil, fmt.Errorf("GATEWAY_BASE_URL must be set in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars take precedence over .env entries.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
