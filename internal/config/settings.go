package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/minjae-lee/settlescan/internal/providers"
)

// UpdateProviderModel selects a model for a provider and persists the
// change. A model outside the provider's fixed list is not an error: the
// selection resets to the provider default, mirroring what happens when a
// stored selection goes stale after a model list change.
func (cm *Manager) UpdateProviderModel(p providers.Provider, model string) (string, error) {
	if !p.Valid() {
		return "", fmt.Errorf("unknown provider %q", p)
	}
	if model == "" || !p.HasModel(model) {
		model = p.DefaultModel()
	}

	cm.mu.Lock()
	cfg := cm.config
	pc := cfg.Providers[string(p)]
	pc.Model = model
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderCfg)
	}
	cfg.Providers[string(p)] = pc
	cm.mu.Unlock()

	if err := cm.Save(); err != nil {
		return "", err
	}
	return model, nil
}

// SetDefaultProvider persists which provider a run uses when none is named.
func (cm *Manager) SetDefaultProvider(p providers.Provider) error {
	if !p.Valid() {
		return fmt.Errorf("unknown provider %q", p)
	}

	cm.mu.Lock()
	cm.config.Defaults.Provider = string(p)
	cm.mu.Unlock()

	return cm.Save()
}

// Save writes the current configuration back to the config file. When no
// config file is in use the call is a no-op, which keeps ephemeral setups
// (tests, env-only runs) working.
func (cm *Manager) Save() error {
	path := configFilePath()
	if path == "" {
		return nil
	}

	cm.mu.RLock()
	data, err := yaml.Marshal(cm.config)
	cm.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
