// Package config loads the analyst configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fwojciec/analyst"
	"gopkg.in/yaml.v3"
)

// Providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Store and log drivers.
const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json"
	DriverMemory = "memory"
)

// Config holds all analyst configuration.
type Config struct {
	LLM         LLMConfig        `yaml:"llm"`
	Store       StoreConfig      `yaml:"store"`
	Log         LogConfig        `yaml:"log"`
	Context     ContextConfig    `yaml:"context"`
	Specialists SpecialistConfig `yaml:"specialists"`
	Logging     LoggingConfig    `yaml:"logging"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	Provider        string     `yaml:"provider"` // gemini, anthropic
	Model           string     `yaml:"model"`
	AnthropicAPIKey string     `yaml:"anthropic_api_key"`
	GeminiAPIKey    string     `yaml:"gemini_api_key"`
	Timeout         string     `yaml:"timeout"`
	Classify        Completion `yaml:"classify"`
	Synthesize      Completion `yaml:"synthesize"`
	Chat            Completion `yaml:"chat"`
}

// Completion holds per-call sampling settings.
type Completion struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// StoreConfig configures the tabular data store.
type StoreConfig struct {
	Driver       string `yaml:"driver"` // sqlite, memory
	Path         string `yaml:"path"`
	QueryTimeout string `yaml:"query_timeout"`
	MaxLimit     int    `yaml:"max_limit"`
	DefaultLimit int    `yaml:"default_limit"`
}

// LogConfig configures the conversation log.
type LogConfig struct {
	Driver     string `yaml:"driver"` // sqlite, json, memory
	Path       string `yaml:"path"`
	Timeout    string `yaml:"timeout"`
	Retention  string `yaml:"retention"`
	MaxHistory int    `yaml:"max_history"`
}

// ContextConfig configures context assembly.
type ContextConfig struct {
	WindowSize    int `yaml:"window_size"`
	CacheSessions int `yaml:"cache_sessions"`
	CacheMessages int `yaml:"cache_messages"`
}

// SpecialistConfig toggles optional specialists.
type SpecialistConfig struct {
	PeriodEnabled bool `yaml:"period_enabled"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty means stderr
}

// Default returns a complete working configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:   ProviderGemini,
			Timeout:    "20s",
			Classify:   Completion{Temperature: 0.2, MaxTokens: 500},
			Synthesize: Completion{Temperature: 0.8, MaxTokens: 600},
			Chat:       Completion{Temperature: 0.7, MaxTokens: 300},
		},
		Store: StoreConfig{
			Driver:       DriverSQLite,
			Path:         filepath.Join(".analyst", "analyst.db"),
			QueryTimeout: "10s",
			MaxLimit:     1000,
			DefaultLimit: 10,
		},
		Log: LogConfig{
			Driver:     DriverSQLite,
			Path:       filepath.Join(".analyst", "analyst.db"),
			Timeout:    "3s",
			Retention:  "24h",
			MaxHistory: 50,
		},
		Context: ContextConfig{
			WindowSize:    6,
			CacheSessions: 100,
			CacheMessages: 50,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file over the defaults, applies
// environment overrides and validates the result. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.AnthropicAPIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.GeminiAPIKey = key
	}
	if p := os.Getenv("ANALYST_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
	if path := os.Getenv("ANALYST_DB"); path != "" {
		c.Store.Path = path
		if c.Log.Driver == DriverSQLite {
			c.Log.Path = path
		}
	}
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	switch c.LLM.Provider {
	case ProviderAnthropic:
		return c.LLM.AnthropicAPIKey
	case ProviderGemini:
		return c.LLM.GeminiAPIKey
	}
	return ""
}

// LLMTimeout returns the completion timeout.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 20*time.Second)
}

// QueryTimeout returns the store query timeout.
func (c *Config) QueryTimeout() time.Duration {
	return parseDuration(c.Store.QueryTimeout, 10*time.Second)
}

// LogTimeout returns the message log timeout.
func (c *Config) LogTimeout() time.Duration {
	return parseDuration(c.Log.Timeout, 3*time.Second)
}

// Retention returns how long idle sessions are kept.
func (c *Config) Retention() time.Duration {
	return parseDuration(c.Log.Retention, 24*time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ValidProviders lists the supported completion providers.
var ValidProviders = []string{ProviderGemini, ProviderAnthropic}

// Validate checks the configuration. API keys are not required here; the
// provider is resolved when a command needs one.
func (c *Config) Validate() error {
	if !slices.Contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid llm provider %q (valid: %v): %w", c.LLM.Provider, ValidProviders, analyst.ErrValidation)
	}
	if !slices.Contains([]string{DriverSQLite, DriverMemory}, c.Store.Driver) {
		return fmt.Errorf("invalid store driver %q: %w", c.Store.Driver, analyst.ErrValidation)
	}
	if !slices.Contains([]string{DriverSQLite, DriverJSON, DriverMemory}, c.Log.Driver) {
		return fmt.Errorf("invalid log driver %q: %w", c.Log.Driver, analyst.ErrValidation)
	}
	if c.Context.WindowSize <= 0 {
		return fmt.Errorf("context window_size must be positive: %w", analyst.ErrValidation)
	}
	if c.Store.MaxLimit <= 0 || c.Store.DefaultLimit <= 0 || c.Store.DefaultLimit > c.Store.MaxLimit {
		return fmt.Errorf("store limits must satisfy 0 < default_limit <= max_limit: %w", analyst.ErrValidation)
	}
	for name, cc := range map[string]Completion{"classify": c.LLM.Classify, "synthesize": c.LLM.Synthesize, "chat": c.LLM.Chat} {
		if cc.Temperature < 0 || cc.Temperature > 2 {
			return fmt.Errorf("llm %s temperature out of range: %w", name, analyst.ErrValidation)
		}
		if cc.MaxTokens <= 0 {
			return fmt.Errorf("llm %s max_tokens must be positive: %w", name, analyst.ErrValidation)
		}
	}
	return nil
}
