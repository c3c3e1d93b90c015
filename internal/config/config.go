package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CredentialEnv is the environment variable the walkthroughs look for
// before talking to a hosted model.
const CredentialEnv = "OPENAI_API_KEY"

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds all configuration for learn-dspy
type Config struct {
	LLM       LLMConfig       `json:"llm"`
	Logging   LoggingConfig   `json:"logging"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// LLMConfig holds model endpoint configuration
type LLMConfig struct {
	Provider    string  `json:"provider"` // "openai" or "ollama"
	URL         string  `json:"url"`      // empty means the provider default
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"` // seconds per model call
}

// LoggingConfig holds diagnostic log settings. Narration is not a log and
// always goes to stdout.
type LoggingConfig struct {
	Level string `json:"level"`
}

// TelemetryConfig holds tracing and metrics export settings
type TelemetryConfig struct {
	Tracing     bool   `json:"tracing"`
	MetricsFile string `json:"metrics_file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			URL:         "",
			APIKey:      "",
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Temperature: 0.0,
			Timeout:     120,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// DefaultURL returns the base URL used when none is configured
func DefaultURL(provider string) string {
	switch provider {
	case ProviderOllama:
		return "http://localhost:11434/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// DefaultModel returns the model used when switching provider without
// naming a model.
func DefaultModel(provider string) string {
	if provider == ProviderOllama {
		return "llama2"
	}
	return "gpt-4o-mini"
}

// envString loads a string environment variable into the target pointer if set
func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// envInt loads an integer environment variable into the target pointer if set and valid
func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

// envFloat loads a float64 environment variable into the target pointer if set and valid
func envFloat(key string, target *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// envBool loads a boolean environment variable into the target pointer if set and valid
func envBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

// Load loads configuration from the config file and environment variables.
// A missing credential is not an error: the walkthroughs report it themselves.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse config file %s: %v\n", configPath, err)
		}
	}

	providerBefore := cfg.LLM.Provider
	envString("LEARN_DSPY_LLM_PROVIDER", &cfg.LLM.Provider)
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Provider != providerBefore && os.Getenv("LEARN_DSPY_LLM_MODEL") == "" {
		cfg.LLM.Model = DefaultModel(cfg.LLM.Provider)
	}

	// OPENAI_API_KEY is the documented credential; the prefixed variable wins
	// so a second key can be used without touching the shell profile.
	envString(CredentialEnv, &cfg.LLM.APIKey)
	envString("LEARN_DSPY_LLM_API_KEY", &cfg.LLM.APIKey)
	envString("LEARN_DSPY_LLM_URL", &cfg.LLM.URL)
	envString("LEARN_DSPY_LLM_MODEL", &cfg.LLM.Model)
	envInt("LEARN_DSPY_LLM_MAX_TOKENS", &cfg.LLM.MaxTokens)
	envFloat("LEARN_DSPY_LLM_TEMPERATURE", &cfg.LLM.Temperature)
	envInt("LEARN_DSPY_LLM_TIMEOUT", &cfg.LLM.Timeout)

	envString("LEARN_DSPY_LOG_LEVEL", &cfg.Logging.Level)

	envBool("LEARN_DSPY_TRACING", &cfg.Telemetry.Tracing)
	envString("LEARN_DSPY_METRICS_FILE", &cfg.Telemetry.MetricsFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RequiresAPIKey reports whether the configured provider needs a credential
func (c *Config) RequiresAPIKey() bool {
	return c.LLM.Provider != ProviderOllama
}

// HasCredential returns true if a call can be attempted
func (c *Config) HasCredential() bool {
	return !c.RequiresAPIKey() || c.LLM.APIKey != ""
}

// BaseURL returns the configured URL or the provider default
func (c *Config) BaseURL() string {
	if c.LLM.URL != "" {
		return c.LLM.URL
	}
	return DefaultURL(c.LLM.Provider)
}

// isValidURL validates that a URL has proper format
func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	var errs []string

	if c.LLM.Provider != ProviderOpenAI && c.LLM.Provider != ProviderOllama {
		errs = append(errs, fmt.Sprintf("LLM provider must be %q or %q", ProviderOpenAI, ProviderOllama))
	}
	if c.LLM.URL != "" && !isValidURL(c.LLM.URL) {
		errs = append(errs, "LLM URL must be a valid URL")
	}
	if c.LLM.Model == "" {
		errs = append(errs, "LLM model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "LLM temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, "LLM max_tokens must be positive")
	}
	if c.LLM.Timeout < 1 {
		errs = append(errs, "LLM timeout must be at least 1 second")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, "log level must be one of debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	if path := os.Getenv("LEARN_DSPY_CONFIG"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}

	// Check ~/.config/learn-dspy/config.json first
	configPath := filepath.Join(homeDir, ".config", "learn-dspy", "config.json")
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	altPath := filepath.Join(homeDir, ".learn-dspy", "config.json")
	if _, err := os.Stat(altPath); err == nil {
		return altPath
	}

	return configPath
}
