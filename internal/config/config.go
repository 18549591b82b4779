// Package config loads sowaudit.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no path is given and SOWAUDIT_CONFIG is unset.
const DefaultPath = "sowaudit.yaml"

// Environment variables consulted by Load.
const (
	EnvConfig      = "SOWAUDIT_CONFIG"
	EnvRedisURL    = "SOWAUDIT_REDIS_URL"
	EnvDatabaseURL = "SOWAUDIT_DATABASE_URL"
	EnvHistoryURL  = "SOWAUDIT_HISTORY_URL"
	EnvLogLevel    = "SOWAUDIT_LOG_LEVEL"
)

// Catalog store kinds.
const (
	StoreNone     = "none"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the complete sowaudit configuration, one field per YAML section.
type Config struct {
	Judge   JudgeConfig   `yaml:"judge"`
	Catalog CatalogConfig `yaml:"catalog"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// JudgeConfig selects the judge provider and how it is called.
type JudgeConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Concurrency int     `yaml:"concurrency"`
}

// CatalogConfig says where the check override set is stored. Only the
// fields of the selected store are used.
type CatalogConfig struct {
	Store       string `yaml:"store"`
	Path        string `yaml:"path"`
	RedisURL    string `yaml:"redis_url"`
	RedisKey    string `yaml:"redis_key"`
	DatabaseURL string `yaml:"database_url"`
	Slot        string `yaml:"slot"`
}

// HistoryConfig points at the analysis service browsed by the history
// command.
type HistoryConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	YearsBack int           `yaml:"years_back"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a complete configuration: Anthropic judge, a local
// override file, and the analysis service on localhost.
func Default() *Config {
	return &Config{
		Judge: JudgeConfig{
			Provider:    "anthropic",
			MaxTokens:   2048,
			Temperature: 0,
			Concurrency: 4,
		},
		Catalog: CatalogConfig{
			Store:    StoreFile,
			Path:     ".sowaudit/checks.json",
			RedisKey: "sowaudit:default_checks",
			Slot:     "default_checks",
		},
		History: HistoryConfig{
			BaseURL:   "http://localhost:8080",
			Timeout:   30 * time.Second,
			YearsBack: 3,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path means SOWAUDIT_CONFIG,
// then DefaultPath; only an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvRedisURL); v != "" {
		c.Catalog.RedisURL = v
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		c.Catalog.DatabaseURL = v
	}
	if v := getenv(EnvHistoryURL); v != "" {
		c.History.BaseURL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch strings.ToLower(c.Judge.Provider) {
	case "anthropic", "openai", "google":
	default:
		bad("judge.provider: unknown provider %q", c.Judge.Provider)
	}
	if c.Judge.MaxTokens <= 0 {
		bad("judge.max_tokens: must be positive, got %d", c.Judge.MaxTokens)
	}
	if c.Judge.Temperature < 0 || c.Judge.Temperature > 2 {
		bad("judge.temperature: must be within [0, 2], got %v", c.Judge.Temperature)
	}
	if c.Judge.Concurrency < 1 {
		bad("judge.concurrency: must be at least 1, got %d", c.Judge.Concurrency)
	}

	switch c.Catalog.Store {
	case StoreNone:
	case StoreFile:
		if c.Catalog.Path == "" {
			bad("catalog.path: required for the file store")
		}
	case StoreRedis:
		if c.Catalog.RedisURL == "" {
			bad("catalog.redis_url: required for the redis store")
		}
	case StorePostgres:
		if c.Catalog.DatabaseURL == "" {
			bad("catalog.database_url: required for the postgres store")
		}
	default:
		bad("catalog.store: unknown store %q", c.Catalog.Store)
	}

	if c.History.Timeout < 0 {
		bad("history.timeout: must not be negative")
	}
	if c.History.YearsBack < 1 {
		bad("history.years_back: must be at least 1, got %d", c.History.YearsBack)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
