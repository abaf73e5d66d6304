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

// Config holds the configuration for the query server.
type Config struct {
	// Warehouse is the database questions are answered against.
	WarehouseDriver string // sqlite3 (default), duckdb or postgres
	WarehouseDSN    string // file path for sqlite3, DSN otherwise

	// Language model backend.
	LLMProvider string // openai (default) or ollama
	LLMBaseURL  string // empty selects the provider default
	LLMAPIKey   string // bearer token for openai-compatible endpoints
	LLMModel    string // empty selects the provider default
	LLMTimeout  time.Duration

	QueryTimeout   time.Duration // bound on each generated statement
	ProfileTimeout time.Duration // bound on each min/max profiling query

	SchemaReloadCron string // cron spec for catalog reloads; empty disables
	HistoryDBPath    string // SQLite file for query history; empty disables

	ListenAddr string // HTTP listen address (default ":8000")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 10)
	RateLimitBurst int     // burst capacity (default 20)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

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

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// HistoryEnabled reports whether query outcomes are recorded.
func (c *Config) HistoryEnabled() bool {
	return c.HistoryDBPath != ""
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		WarehouseDriver:  strings.ToLower(strings.TrimSpace(os.Getenv("WAREHOUSE_DRIVER"))),
		WarehouseDSN:     os.Getenv("WAREHOUSE_DSN"),
		LLMProvider:      strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		LLMBaseURL:       os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:        os.Getenv("LLM_API_KEY"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		SchemaReloadCron: strings.TrimSpace(os.Getenv("SCHEMA_RELOAD_CRON")),
		HistoryDBPath:    os.Getenv("HISTORY_DB_PATH"),
		ListenAddr:       os.Getenv("LISTEN_ADDR"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Env:              os.Getenv("ENV"),
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("GROQ_API_KEY")
	}

	var err error
	if cfg.LLMTimeout, err = parseDurationEnv("LLM_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = parseDurationEnv("QUERY_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProfileTimeout, err = parseDurationEnv("PROFILE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("RATE_LIMIT_RPS=%q is not a number, using default", v))
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("RATE_LIMIT_BURST=%q is not an integer, using default", v))
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	switch cfg.WarehouseDriver {
	case "":
		cfg.WarehouseDriver = "sqlite3"
	case "sqlite":
		cfg.WarehouseDriver = "sqlite3"
	case "sqlite3", "duckdb", "postgres":
	default:
		return nil, fmt.Errorf("WAREHOUSE_DRIVER must be one of sqlite3, duckdb, postgres (got %q)", cfg.WarehouseDriver)
	}
	if cfg.WarehouseDSN == "" {
		if cfg.WarehouseDriver != "sqlite3" {
			return nil, fmt.Errorf("WAREHOUSE_DSN is required for the %s driver", cfg.WarehouseDriver)
		}
		cfg.WarehouseDSN = "data/northwind.db"
	}
	switch cfg.LLMProvider {
	case "":
		cfg.LLMProvider = "openai"
	case "openai", "ollama":
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be openai or ollama (got %q)", cfg.LLMProvider)
	}
	if cfg.LLMProvider == "openai" && cfg.LLMAPIKey == "" {
		cfg.Warnings = append(cfg.Warnings, "LLM_API_KEY not set; completion requests will be rejected by the provider")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.LLMProvider == "openai" && cfg.LLMAPIKey == "" {
			return nil, fmt.Errorf("LLM_API_KEY must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func parseDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive (got %s)", key, v)
	}
	return d, nil
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

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
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
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if _, set := os.LookupEnv(key); !set {
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
