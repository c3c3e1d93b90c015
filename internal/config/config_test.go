package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolateEnv points Load at a throwaway config file and clears every
// variable it reads so the developer's shell cannot leak into the test.
func isolateEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("LEARN_DSPY_CONFIG", path)
	for _, key := range []string{
		CredentialEnv,
		"LEARN_DSPY_LLM_PROVIDER",
		"LEARN_DSPY_LLM_API_KEY",
		"LEARN_DSPY_LLM_URL",
		"LEARN_DSPY_LLM_MODEL",
		"LEARN_DSPY_LLM_MAX_TOKENS",
		"LEARN_DSPY_LLM_TEMPERATURE",
		"LEARN_DSPY_LLM_TIMEOUT",
		"LEARN_DSPY_LOG_LEVEL",
		"LEARN_DSPY_TRACING",
		"LEARN_DSPY_METRICS_FILE",
	} {
		t.Setenv(key, "")
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens <= 0 {
		t.Error("LLM MaxTokens should be positive")
	}
	if cfg.LLM.Timeout <= 0 {
		t.Error("LLM Timeout should be positive")
	}
	if cfg.LLM.APIKey != "" {
		t.Error("API key must not have a default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEnvString(t *testing.T) {
	target := "original"

	t.Run("sets value when env var exists", func(t *testing.T) {
		t.Setenv("TEST_VAR", "new_value")
		envString("TEST_VAR", &target)
		if target != "new_value" {
			t.Errorf("expected 'new_value', got '%s'", target)
		}
	})

	t.Run("does not change value when env var is empty", func(t *testing.T) {
		t.Setenv("TEST_VAR", "")
		target = "original"
		envString("TEST_VAR", &target)
		if target != "original" {
			t.Errorf("expected 'original', got '%s'", target)
		}
	})
}

func TestEnvInt(t *testing.T) {
	target := 42

	t.Run("sets value when env var is valid int", func(t *testing.T) {
		t.Setenv("TEST_INT", "100")
		envInt("TEST_INT", &target)
		if target != 100 {
			t.Errorf("expected 100, got %d", target)
		}
	})

	t.Run("does not change value when env var is invalid", func(t *testing.T) {
		t.Setenv("TEST_INT", "not_a_number")
		target = 42
		envInt("TEST_INT", &target)
		if target != 42 {
			t.Errorf("expected 42, got %d", target)
		}
	})
}

func TestEnvFloat(t *testing.T) {
	target := 0.5

	t.Setenv("TEST_FLOAT", "0.8")
	envFloat("TEST_FLOAT", &target)
	if target != 0.8 {
		t.Errorf("expected 0.8, got %f", target)
	}

	t.Setenv("TEST_FLOAT", "warm")
	target = 0.5
	envFloat("TEST_FLOAT", &target)
	if target != 0.5 {
		t.Errorf("expected 0.5, got %f", target)
	}
}

func TestEnvBool(t *testing.T) {
	target := false

	t.Setenv("TEST_BOOL", "true")
	envBool("TEST_BOOL", &target)
	if !target {
		t.Error("expected true")
	}

	t.Setenv("TEST_BOOL", "maybe")
	envBool("TEST_BOOL", &target)
	if !target {
		t.Error("invalid bool should leave the value untouched")
	}
}

func TestLoad_CredentialFromEnvironment(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HasCredential() {
		t.Error("expected no credential with OPENAI_API_KEY unset")
	}

	t.Setenv(CredentialEnv, "sk-test")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("expected API key from %s, got %q", CredentialEnv, cfg.LLM.APIKey)
	}

	t.Setenv("LEARN_DSPY_LLM_API_KEY", "sk-override")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.APIKey != "sk-override" {
		t.Errorf("prefixed key should win, got %q", cfg.LLM.APIKey)
	}
}

func TestLoad_OllamaProvider(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LEARN_DSPY_LLM_PROVIDER", "Ollama")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Provider != ProviderOllama {
		t.Errorf("expected provider normalised to %q, got %q", ProviderOllama, cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "llama2" {
		t.Errorf("expected provider default model llama2, got %q", cfg.LLM.Model)
	}
	if cfg.BaseURL() != "http://localhost:11434/v1" {
		t.Errorf("unexpected base URL %q", cfg.BaseURL())
	}
	if !cfg.HasCredential() {
		t.Error("ollama needs no API key")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := isolateEnv(t)
	content := `{"llm": {"model": "gpt-4o", "max_tokens": 256}, "telemetry": {"tracing": true}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LEARN_DSPY_LLM_MAX_TOKENS", "512")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("expected model from file, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 512 {
		t.Errorf("environment should override file, got %d", cfg.LLM.MaxTokens)
	}
	if !cfg.Telemetry.Tracing {
		t.Error("expected tracing enabled from file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LEARN_DSPY_LLM_TEMPERATURE", "3.5")
	t.Setenv("LEARN_DSPY_LOG_LEVEL", "chatty")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "temperature") || !strings.Contains(err.Error(), "log level") {
		t.Errorf("expected every problem reported, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bard" }, "provider"},
		{"bad url", func(c *Config) { c.LLM.URL = "localhost:11434" }, "valid URL"},
		{"empty model", func(c *Config) { c.LLM.Model = "" }, "model is required"},
		{"negative temperature", func(c *Config) { c.LLM.Temperature = -0.1 }, "temperature"},
		{"zero max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, "max_tokens"},
		{"zero timeout", func(c *Config) { c.LLM.Timeout = 0 }, "timeout"},
		{"upper-case level", func(c *Config) { c.Logging.Level = "DEBUG" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"valid http", "http://localhost:11434/v1", true},
		{"valid https", "https://api.openai.com/v1", true},
		{"missing scheme", "localhost:8000", false},
		{"missing host", "http://", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidURL(tt.url); got != tt.want {
				t.Errorf("isValidURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	t.Run("uses LEARN_DSPY_CONFIG env var when set", func(t *testing.T) {
		t.Setenv("LEARN_DSPY_CONFIG", "/custom/path/config.json")
		if path := getConfigPath(); path != "/custom/path/config.json" {
			t.Errorf("expected custom path, got %s", path)
		}
	})

	t.Run("defaults to .config/learn-dspy when no env var", func(t *testing.T) {
		t.Setenv("LEARN_DSPY_CONFIG", "")
		path := getConfigPath()
		expected := filepath.Join(homeDir, ".config", "learn-dspy", "config.json")
		alt := filepath.Join(homeDir, ".learn-dspy", "config.json")
		if path != expected && path != alt {
			t.Errorf("expected %s, got %s", expected, path)
		}
	})
}
