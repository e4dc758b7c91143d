package providers

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds the instantiated provider adapters. It supports
// config-driven instantiation, hot-reload and thread-safe access.
type Registry struct {
	mu         sync.RWMutex
	extractors map[Provider]Extractor
	logger     *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[Provider]Extractor),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers an adapter, replacing any previous one for the same
// provider.
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[e.Name()] = e
	if r.logger != nil {
		r.logger.Info("registered provider", "provider", e.Name())
	}
}

// Get returns the adapter for a provider.
func (r *Registry) Get(p Provider) (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[p]
	if !ok {
		return nil, fmt.Errorf("provider not configured: %s", p)
	}
	return e, nil
}

// Has checks whether an adapter is registered for a provider.
func (r *Registry) Has(p Provider) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extractors[p]
	return ok
}

// List returns the registered provider names in display order.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.extractors))
	for _, p := range All() {
		if _, ok := r.extractors[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// RegistryConfig defines the providers to instantiate from config. Keys are
// resolved before this struct is built; a provider with an empty key is
// simply not registered.
type RegistryConfig struct {
	GeminiAPIKey  string
	OpenAIAPIKey  string
	UpstageAPIKey string

	// RelayURL, when set, routes the HTTP-configurable adapters through
	// the local relay instead of the provider origins.
	RelayURL string

	// RateLimit is requests per minute applied to every adapter.
	RateLimit int
}

// NewRegistryFromConfig creates a registry with adapters for every provider
// that has a key.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.applyConfig(cfg)
	return r
}

// Reload rebuilds the adapter set from new configuration. Providers whose
// key disappeared are unregistered.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := buildExtractors(cfg)

	for p := range r.extractors {
		if _, ok := next[p]; !ok {
			delete(r.extractors, p)
			if r.logger != nil {
				r.logger.Info("unregistered provider", "provider", p)
			}
		}
	}
	for p, e := range next {
		_, existed := r.extractors[p]
		r.extractors[p] = e
		if r.logger != nil {
			if existed {
				r.logger.Info("updated provider", "provider", p)
			} else {
				r.logger.Info("registered provider", "provider", p)
			}
		}
	}
}

// applyConfig applies configuration without logging (used during init).
func (r *Registry) applyConfig(cfg RegistryConfig) {
	for p, e := range buildExtractors(cfg) {
		r.extractors[p] = e
	}
}

func buildExtractors(cfg RegistryConfig) map[Provider]Extractor {
	out := make(map[Provider]Extractor)

	if cfg.GeminiAPIKey != "" {
		gcfg := GeminiConfig{APIKey: cfg.GeminiAPIKey, RateLimit: cfg.RateLimit}
		if cfg.RelayURL != "" {
			gcfg.Endpoint = cfg.RelayURL + "/api/gemini"
		}
		out[Gemini] = NewGeminiClient(gcfg)
	}
	if cfg.OpenAIAPIKey != "" {
		ocfg := OpenAIConfig{APIKey: cfg.OpenAIAPIKey, RateLimit: cfg.RateLimit}
		if cfg.RelayURL != "" {
			ocfg.BaseURL = cfg.RelayURL + "/api/openai"
		}
		out[OpenAI] = NewOpenAIClient(ocfg)
	}
	if cfg.UpstageAPIKey != "" {
		ucfg := UpstageConfig{APIKey: cfg.UpstageAPIKey, RateLimit: cfg.RateLimit}
		if cfg.RelayURL != "" {
			ucfg.BaseURL = cfg.RelayURL + "/api/upstage"
		}
		out[Upstage] = NewUpstageClient(ucfg)
	}
	return out
}
