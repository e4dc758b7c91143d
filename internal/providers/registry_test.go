package providers

import "testing"

func TestRegistryFromConfig(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{
		GeminiAPIKey:  "g-key",
		UpstageAPIKey: "u-key",
	})

	if !r.Has(Gemini) || !r.Has(Upstage) {
		t.Error("expected gemini and upstage registered")
	}
	if r.Has(OpenAI) {
		t.Error("openai has no key and should not be registered")
	}

	list := r.List()
	if len(list) != 2 || list[0] != Gemini || list[1] != Upstage {
		t.Errorf("List() = %v", list)
	}

	if _, err := r.Get(OpenAI); err == nil {
		t.Error("Get(openai) should fail")
	}
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistryFromConfig(RegistryConfig{GeminiAPIKey: "g-key"})

	r.Reload(RegistryConfig{OpenAIAPIKey: "o-key"})

	if r.Has(Gemini) {
		t.Error("gemini key removed, adapter should be unregistered")
	}
	if !r.Has(OpenAI) {
		t.Error("openai key added, adapter should be registered")
	}
}

func TestTokenEstimates(t *testing.T) {
	// Every adapter's fallback accounting, and the only accounting for
	// providers whose SDK reports no usage counts.
	if got := estimateInputTokens(400); got != 1100 {
		t.Errorf("estimateInputTokens(400) = %d, want 1100", got)
	}
	if got := estimateOutputTokens(`{"date":"2024-03-05"}`); got != 5 {
		t.Errorf("estimateOutputTokens = %d, want 5", got)
	}
}

func TestProviderModels(t *testing.T) {
	tests := []struct {
		provider Provider
		def      string
		count    int
	}{
		{Gemini, "gemini-2.0-flash", 4},
		{OpenAI, "gpt-4o-mini", 3},
		{Upstage, "solar-pro", 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			if got := tt.provider.DefaultModel(); got != tt.def {
				t.Errorf("DefaultModel() = %q, want %q", got, tt.def)
			}
			if got := len(tt.provider.Models()); got != tt.count {
				t.Errorf("len(Models()) = %d, want %d", got, tt.count)
			}
			if !tt.provider.HasModel(tt.def) {
				t.Errorf("HasModel(%q) = false", tt.def)
			}
			if tt.provider.HasModel("made-up-model") {
				t.Error("HasModel(made-up-model) = true")
			}
		})
	}

	if Provider("anthropic").Valid() {
		t.Error("unknown provider should not be valid")
	}
}
