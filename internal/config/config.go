// Package config provides client configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the client configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	API     APIConfig
	Session SessionConfig
	Bridge  BridgeConfig
	Search  SearchConfig
	Store   StoreConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// APIConfig describes the remote event backend.
type APIConfig struct {
	BaseURL           string        // e.g. http://localhost:8080/api
	Timeout           time.Duration // Per-request timeout (default: 30s)
	RequestsPerSecond float64       // Outbound rate limit (default: 10)
	Burst             int           // Outbound burst size (default: 20)
	UserAgent         string
}

// SessionConfig holds local session persistence configuration.
type SessionConfig struct {
	// DataPath is the badger directory holding the token and current user.
	DataPath string
	// InMemory keeps the session only for the lifetime of the process.
	InMemory bool
}

// BridgeConfig holds the loopback API the UI process talks to.
type BridgeConfig struct {
	Port           string   // default: 4300
	AllowedOrigins []string // CORS origins of the UI (default: http://localhost:4200)
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// SearchConfig holds search engine configuration.
type SearchConfig struct {
	// MinKeywordLength suppresses keyword searches shorter than this (default: 2).
	MinKeywordLength int
	// IndexPath persists the local cache index; empty keeps it in memory.
	IndexPath string
}

// StoreConfig holds event state store configuration.
type StoreConfig struct {
	// DisableStaleGuard applies results in resolve order instead of
	// discarding results older than the last applied one.
	DisableStaleGuard bool
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("eventdesk", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	// API flags
	apiURL := fs.String("api-url", "", "Base URL of the event backend")
	apiTimeout := fs.String("api-timeout", "", "Backend request timeout (default: 30s)")
	apiRPS := fs.String("api-rps", "", "Outbound requests per second (default: 10)")
	apiBurst := fs.String("api-burst", "", "Outbound request burst (default: 20)")

	// Session flags
	sessionPath := fs.String("session-path", "", "Directory for the persisted session")
	sessionInMemory := fs.String("session-in-memory", "", "Keep the session in memory only (default: false)")

	// Bridge flags
	bridgePort := fs.String("port", "", "Local bridge port (default: 4300)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma-separated UI origins allowed by CORS")
	readTimeout := fs.String("read-timeout", "", "Bridge read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "Bridge write timeout (default: 0, streaming)")
	idleTimeout := fs.String("idle-timeout", "", "Bridge idle timeout (default: 60s)")

	// Search / store flags
	minKeyword := fs.String("min-keyword-length", "", "Shortest keyword that triggers a search (default: 2)")
	indexPath := fs.String("index-path", "", "Path for the local search index (default: in memory)")
	disableStaleGuard := fs.String("disable-stale-guard", "", "Apply results in resolve order (default: false)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists. godotenv never overrides variables
	// already present in the environment.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		API: APIConfig{
			BaseURL:           strings.TrimRight(getConfigValue(*apiURL, "API_URL", "http://localhost:8080/api"), "/"),
			RequestsPerSecond: getFloatConfigValue(*apiRPS, "API_RPS", 10),
			Burst:             getIntConfigValue(*apiBurst, "API_BURST", 20),
			UserAgent:         getConfigValue("", "API_USER_AGENT", "eventdesk-client/1.0"),
		},
		Session: SessionConfig{
			DataPath: getConfigValue(*sessionPath, "SESSION_PATH", ""),
			InMemory: getBoolConfigValue(*sessionInMemory, "SESSION_IN_MEMORY", false),
		},
		Bridge: BridgeConfig{
			Port:           getConfigValue(*bridgePort, "BRIDGE_PORT", "4300"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "BRIDGE_ALLOWED_ORIGINS", "http://localhost:4200")),
		},
		Search: SearchConfig{
			MinKeywordLength: getIntConfigValue(*minKeyword, "SEARCH_MIN_KEYWORD_LENGTH", 2),
			IndexPath:        getConfigValue(*indexPath, "SEARCH_INDEX_PATH", ""),
		},
		Store: StoreConfig{
			DisableStaleGuard: getBoolConfigValue(*disableStaleGuard, "STORE_DISABLE_STALE_GUARD", false),
		},
	}

	var err error
	if cfg.API.Timeout, err = getDurationConfigValue(*apiTimeout, "API_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Bridge.ReadTimeout, err = getDurationConfigValue(*readTimeout, "BRIDGE_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	// Zero write timeout keeps the SSE stream open.
	if cfg.Bridge.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "BRIDGE_WRITE_TIMEOUT", "0s"); err != nil {
		return nil, err
	}
	if cfg.Bridge.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "BRIDGE_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.expandSessionPath(); err != nil {
		return nil, fmt.Errorf("invalid session path: %w", err)
	}

	if cfg.Search.IndexPath != "" {
		expanded, err := expandPath(cfg.Search.IndexPath, "")
		if err != nil {
			return nil, fmt.Errorf("invalid index path: %w", err)
		}
		cfg.Search.IndexPath = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid API base URL: %q (must be an absolute http or https URL)", c.API.BaseURL)
	}

	if c.API.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid API rate: %v (must be positive)", c.API.RequestsPerSecond)
	}
	if c.API.Burst < 1 {
		return fmt.Errorf("invalid API burst: %d (must be at least 1)", c.API.Burst)
	}

	if c.Search.MinKeywordLength < 1 {
		return fmt.Errorf("invalid minimum keyword length: %d (must be at least 1)", c.Search.MinKeywordLength)
	}

	if !c.Session.InMemory && c.Session.DataPath == "" {
		return errors.New("session data path cannot be empty after expansion")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandSessionPath defaults the session directory to ~/.eventdesk/session.
func (c *Config) expandSessionPath() error {
	if c.Session.InMemory {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, ".eventdesk", "session")

	expanded, err := expandPath(c.Session.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Session.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), s, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
