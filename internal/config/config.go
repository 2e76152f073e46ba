// Package config loads the agent daemon configuration. Configuration is
// read once at startup from a YAML file plus environment overrides and is
// immutable for the lifetime of the process; changing it requires a restart.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider selector values.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderLocal     = "local"
)

// Config holds all agent daemon configuration.
type Config struct {
	// Socket is the path of the unix socket the daemon listens on.
	Socket string `yaml:"socket"`

	// DataDir holds daemon state (conversation archive).
	DataDir string `yaml:"data_dir"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// History configures the in-memory conversation store.
	History HistoryConfig `yaml:"history"`

	// Archive configures the persistent conversation archive.
	Archive ArchiveConfig `yaml:"archive"`

	// Behavior
	ConfirmDangerous bool `yaml:"confirm_dangerous"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the remote completion provider.
type LLMConfig struct {
	Provider     string `yaml:"provider"` // openai, anthropic, local
	OpenAIKey    string `yaml:"openai_api_key"`
	AnthropicKey string `yaml:"anthropic_api_key"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
	Timeout      string `yaml:"timeout"`
}

// HistoryConfig configures the bounded conversation store.
type HistoryConfig struct {
	// Capacity is the maximum number of turns kept in memory. The oldest
	// turn is evicted first once the store is full.
	Capacity int `yaml:"capacity"`
}

// ArchiveConfig configures the SQLite conversation archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Socket:  "/run/aios/agent.sock",
		DataDir: "/var/lib/aios",

		LLM: LLMConfig{
			Provider: ProviderLocal,
			Model:    "",
			Timeout:  "30s",
		},

		History: HistoryConfig{
			Capacity: 20,
		},

		Archive: ArchiveConfig{
			Enabled: false,
			Path:    "/var/lib/aios/conversations.db",
		},

		ConfirmDangerous: true,

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an
// error; defaults plus environment overrides are returned instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. A credential
// in the environment also selects its provider unless one was configured
// explicitly.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.OpenAIKey = key
		if c.LLM.Provider == ProviderLocal {
			c.LLM.Provider = ProviderOpenAI
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.AnthropicKey = key
		if c.LLM.Provider == ProviderLocal {
			c.LLM.Provider = ProviderAnthropic
		}
	}
	if socket := os.Getenv("AIOS_SOCKET"); socket != "" {
		c.Socket = socket
	}
	if model := os.Getenv("AIOS_MODEL"); model != "" {
		c.LLM.Model = model
	}
}

// LLMTimeout returns the per-call provider timeout.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// AIConfigured reports whether the selected remote provider has a
// credential. The local provider never counts as configured.
func (c *Config) AIConfigured() bool {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		return c.LLM.OpenAIKey != ""
	case ProviderAnthropic:
		return c.LLM.AnthropicKey != ""
	default:
		return false
	}
}

// APIKey returns the credential for the selected provider.
func (c *Config) APIKey() string {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		return c.LLM.OpenAIKey
	case ProviderAnthropic:
		return c.LLM.AnthropicKey
	default:
		return ""
	}
}

// Validate checks the configuration for basic sanity.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderLocal:
	default:
		return fmt.Errorf("unknown provider: %s (valid: openai, anthropic, local)", c.LLM.Provider)
	}

	if c.Socket == "" {
		return fmt.Errorf("socket path required")
	}

	if c.History.Capacity <= 0 {
		return fmt.Errorf("history capacity must be positive, got %d", c.History.Capacity)
	}

	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm timeout %q: %w", c.LLM.Timeout, err)
	}

	return nil
}
