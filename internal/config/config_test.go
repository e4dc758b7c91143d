package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minjae-lee/settlescan/internal/providers"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Providers) != 3 {
		t.Errorf("expected 3 providers, got %d", len(cfg.Providers))
	}
	if cfg.Providers["gemini"].APIKey != "${GEMINI_API_KEY}" {
		t.Error("expected gemini API key placeholder")
	}
	if cfg.Defaults.Provider != "gemini" {
		t.Errorf("default provider = %q", cfg.Defaults.Provider)
	}
	if cfg.Providers["upstage"].Model != "solar-pro" {
		t.Errorf("upstage model = %q", cfg.Providers["upstage"].Model)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestSelectedModel(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderCfg{
			"gemini":  {Model: "gemini-2.5-pro"},
			"openai":  {Model: "gpt-9-ultra"},
			"upstage": {},
		},
	}

	t.Run("returns configured model", func(t *testing.T) {
		if got := cfg.SelectedModel(providers.Gemini); got != "gemini-2.5-pro" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("stale selection resets to default", func(t *testing.T) {
		if got := cfg.SelectedModel(providers.OpenAI); got != "gpt-4o-mini" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("empty selection resets to default", func(t *testing.T) {
		if got := cfg.SelectedModel(providers.Upstage); got != "solar-pro" {
			t.Errorf("got %q", got)
		}
	})
}

func TestToRegistryConfig(t *testing.T) {
	os.Setenv("TEST_GEMINI_KEY", "g-123")
	defer os.Unsetenv("TEST_GEMINI_KEY")

	cfg := &Config{
		Providers: map[string]ProviderCfg{
			"gemini":  {APIKey: "${TEST_GEMINI_KEY}", Enabled: true, RateLimit: 90},
			"openai":  {APIKey: "literal-key", Enabled: false},
			"upstage": {APIKey: "u-key", Enabled: true},
		},
		Relay: RelayCfg{Enabled: true, URL: "http://localhost:8316"},
	}

	rc := cfg.ToRegistryConfig()
	if rc.GeminiAPIKey != "g-123" {
		t.Errorf("GeminiAPIKey = %q", rc.GeminiAPIKey)
	}
	if rc.OpenAIAPIKey != "" {
		t.Error("disabled provider should resolve to no key")
	}
	if rc.UpstageAPIKey != "u-key" {
		t.Errorf("UpstageAPIKey = %q", rc.UpstageAPIKey)
	}
	if rc.RelayURL != "http://localhost:8316" {
		t.Errorf("RelayURL = %q", rc.RelayURL)
	}
	if rc.RateLimit != 90 {
		t.Errorf("RateLimit = %d", rc.RateLimit)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, want := range []string{"GEMINI_API_KEY", "providers:", "relay:"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config missing %q", want)
		}
	}
}
