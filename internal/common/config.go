// Package common provides shared utilities for rulecheck
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Strategy names the check-planning strategy a pool is configured with.
type Strategy string

const (
	// StrategyDocumentPerCategory dispatches one job per matcher covering every block.
	StrategyDocumentPerCategory Strategy = "document_per_category"
	// StrategyBlockLevel dispatches one job per (matcher, block) pair.
	StrategyBlockLevel Strategy = "block_level"
)

// Config holds all configuration for rulecheck.
type Config struct {
	Environment string       `toml:"environment"`
	Server      ServerConfig `toml:"server"`
	Pool        PoolConfig   `toml:"pool"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PoolConfig holds matcher pool construction options (spec.md §6).
type PoolConfig struct {
	MaxCurrentJobs int      `toml:"max_current_jobs"`
	MaxQueuedJobs  int      `toml:"max_queued_jobs"`
	Strategy       Strategy `toml:"strategy"`
	CheckTimeout   string   `toml:"check_timeout"` // duration string, e.g. "10s"
}

// GetCheckTimeout parses and returns the per-job check timeout.
func (c *PoolConfig) GetCheckTimeout() time.Duration {
	d, err := time.ParseDuration(c.CheckTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ClientsConfig holds external matcher-collaborator configuration.
type ClientsConfig struct {
	GenAI  GenAIConfig  `toml:"genai"`
	Lookup LookupConfig `toml:"lookup"`
}

// GenAIConfig holds configuration for the genai-backed grammar matcher.
type GenAIConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the request timeout.
func (c *GenAIConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LookupConfig holds configuration for the name-lookup validator and its cache.
type LookupConfig struct {
	BaseURL       string `toml:"base_url"`
	RateLimit     int    `toml:"rate_limit"`
	Timeout       string `toml:"timeout"`
	CacheAddress  string `toml:"cache_address"`  // SurrealDB address for the resolved-name cache
	CacheUser     string `toml:"cache_user"`
	CachePass     string `toml:"cache_pass"`
	CacheNS       string `toml:"cache_namespace"`
	CacheDB       string `toml:"cache_database"`
}

// GetTimeout parses and returns the request timeout.
func (c *LookupConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Pool: PoolConfig{
			MaxCurrentJobs: 8,
			MaxQueuedJobs:  256,
			Strategy:       StrategyDocumentPerCategory,
			CheckTimeout:   "10s",
		},
		Clients: ClientsConfig{
			GenAI: GenAIConfig{
				Model:   "gemini-2.0-flash",
				Timeout: "30s",
			},
			Lookup: LookupConfig{
				BaseURL:      "https://names.example.internal",
				RateLimit:    10,
				Timeout:      "10s",
				CacheAddress: "ws://127.0.0.1:8000/rpc",
				CacheUser:    "root",
				CachePass:    "root",
				CacheNS:      "rulecheck",
				CacheDB:      "lookupcache",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console"},
			FilePath:   "./logs/rulecheck.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Missing files are skipped; later paths override earlier ones.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := validatePoolConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("RULECHECK_ENV"); env != "" {
		config.Environment = env
	}
	if host := os.Getenv("RULECHECK_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("RULECHECK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("RULECHECK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if v := os.Getenv("RULECHECK_MAX_CURRENT_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Pool.MaxCurrentJobs = n
		}
	}
	if v := os.Getenv("RULECHECK_MAX_QUEUED_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Pool.MaxQueuedJobs = n
		}
	}
	if v := os.Getenv("RULECHECK_STRATEGY"); v != "" {
		config.Pool.Strategy = Strategy(v)
	}
	if v := os.Getenv("RULECHECK_CHECK_TIMEOUT"); v != "" {
		config.Pool.CheckTimeout = v
	}
	if v := os.Getenv("GENAI_API_KEY"); v != "" {
		config.Clients.GenAI.APIKey = v
	}
}

// validatePoolConfig enforces the construction invariants of spec.md §6:
// both bounds must be positive and the strategy must be one of the two
// known values.
func validatePoolConfig(config *Config) error {
	if config.Pool.MaxCurrentJobs <= 0 {
		return fmt.Errorf("pool.max_current_jobs must be > 0, got %d", config.Pool.MaxCurrentJobs)
	}
	if config.Pool.MaxQueuedJobs <= 0 {
		return fmt.Errorf("pool.max_queued_jobs must be > 0, got %d", config.Pool.MaxQueuedJobs)
	}
	switch config.Pool.Strategy {
	case StrategyDocumentPerCategory, StrategyBlockLevel:
	default:
		return fmt.Errorf("pool.strategy must be %q or %q, got %q",
			StrategyDocumentPerCategory, StrategyBlockLevel, config.Pool.Strategy)
	}
	if _, err := time.ParseDuration(config.Pool.CheckTimeout); err != nil {
		return fmt.Errorf("pool.check_timeout is not a valid duration: %w", err)
	}
	return nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from environment variables, falling
// back to a config-supplied default.
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"genai_api_key": {"GENAI_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key %q not found in environment or config", name)
}
