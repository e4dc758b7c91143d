package config

import (
	"net"

	"github.com/minjae-lee/settlescan/internal/providers"
)

// Config holds settlescan configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Defaults  DefaultsCfg            `mapstructure:"defaults" yaml:"defaults"`
	Server    ServerCfg              `mapstructure:"server" yaml:"server"`
	Relay     RelayCfg               `mapstructure:"relay" yaml:"relay"`
}

// ProviderCfg configures one extraction provider.
type ProviderCfg struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	Model     string `mapstructure:"model" yaml:"model"`           // Selected model
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies the provider picked when a run names none.
type DefaultsCfg struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
}

// ServerCfg holds HTTP server settings.
type ServerCfg struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// HostPort splits ListenAddr into its host and port parts.
func (s ServerCfg) HostPort() (host, port string) {
	host, port, err := net.SplitHostPort(s.ListenAddr)
	if err != nil {
		return "", ""
	}
	return host, port
}

// RelayCfg configures routing through a running relay.
type RelayCfg struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"gemini": {
				APIKey:    "${GEMINI_API_KEY}",
				Model:     providers.Gemini.DefaultModel(),
				RateLimit: 60,
				Enabled:   true,
			},
			"openai": {
				APIKey:    "${OPENAI_API_KEY}",
				Model:     providers.OpenAI.DefaultModel(),
				RateLimit: 60,
				Enabled:   true,
			},
			"upstage": {
				APIKey:    "${UPSTAGE_API_KEY}",
				Model:     providers.Upstage.DefaultModel(),
				RateLimit: 60,
				Enabled:   true,
			},
		},
		Defaults: DefaultsCfg{
			Provider: string(providers.Gemini),
		},
		Server: ServerCfg{
			ListenAddr: ":8315",
		},
		Relay: RelayCfg{
			Enabled: false,
			URL:     "http://localhost:8316",
		},
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled provider configs.
func (c *Config) EnabledProviders() map[string]ProviderCfg {
	result := make(map[string]ProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// SelectedModel returns the configured model for a provider, falling back to
// the provider default when unset or no longer in the model list.
func (c *Config) SelectedModel(p providers.Provider) string {
	cfg, ok := c.Providers[string(p)]
	if !ok || cfg.Model == "" || !p.HasModel(cfg.Model) {
		return p.DefaultModel()
	}
	return cfg.Model
}
