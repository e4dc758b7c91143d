package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/minjae-lee/settlescan/internal/api"
	"github.com/minjae-lee/settlescan/internal/providers"
	"github.com/minjae-lee/settlescan/internal/svcctx"
)

// ProviderSettings is the client view of one provider's configuration. The
// key itself never leaves the server, only whether one is present.
type ProviderSettings struct {
	Provider      string   `json:"provider"`
	Models        []string `json:"models"`
	SelectedModel string   `json:"selectedModel"`
	DefaultModel  string   `json:"defaultModel"`
	HasKey        bool     `json:"hasKey"`
	Enabled       bool     `json:"enabled"`
}

// SettingsResponse is the full settings view.
type SettingsResponse struct {
	DefaultProvider string             `json:"defaultProvider"`
	Providers       []ProviderSettings `json:"providers"`
	RelayEnabled    bool               `json:"relayEnabled"`
}

// ListSettingsEndpoint handles GET /api/settings.
type ListSettingsEndpoint struct{}

var _ api.Endpoint = (*ListSettingsEndpoint)(nil)

func (e *ListSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

func (e *ListSettingsEndpoint) RequiresInit() bool { return false }

func (e *ListSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cm := svcctx.ConfigManagerFrom(r.Context())
	if cm == nil {
		writeError(w, http.StatusServiceUnavailable, "config manager not initialized")
		return
	}
	cfg := cm.Get()

	resp := SettingsResponse{
		DefaultProvider: cfg.Defaults.Provider,
		RelayEnabled:    cfg.Relay.Enabled,
	}
	registry := svcctx.RegistryFrom(r.Context())
	for _, p := range providers.All() {
		pc, _ := cfg.GetProvider(string(p))
		resp.Providers = append(resp.Providers, ProviderSettings{
			Provider:      string(p),
			Models:        p.Models(),
			SelectedModel: cfg.SelectedModel(p),
			DefaultModel:  p.DefaultModel(),
			HasKey:        registry != nil && registry.Has(p),
			Enabled:       pc.Enabled,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show provider settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SettingsResponse
			if err := client.Get(cmd.Context(), "/api/settings", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// UpdateModelRequest selects a model for a provider.
type UpdateModelRequest struct {
	Model string `json:"model"`
}

// UpdateModelEndpoint handles PUT /api/settings/providers/{provider}/model.
// A model outside the provider's list silently resets to the default.
type UpdateModelEndpoint struct{}

var _ api.Endpoint = (*UpdateModelEndpoint)(nil)

func (e *UpdateModelEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/settings/providers/{provider}/model", e.handler
}

func (e *UpdateModelEndpoint) RequiresInit() bool { return false }

func (e *UpdateModelEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cm := svcctx.ConfigManagerFrom(r.Context())
	if cm == nil {
		writeError(w, http.StatusServiceUnavailable, "config manager not initialized")
		return
	}

	var req UpdateModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	p := providers.Provider(r.PathValue("provider"))
	model, err := cm.UpdateProviderModel(p, req.Model)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ProviderSettings{
		Provider:      string(p),
		Models:        p.Models(),
		SelectedModel: model,
		DefaultModel:  p.DefaultModel(),
	})
}

func (e *UpdateModelEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-model <provider> <model>",
		Short: "Select the model used by a provider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ProviderSettings
			path := "/api/settings/providers/" + args[0] + "/model"
			if err := client.Put(cmd.Context(), path, UpdateModelRequest{Model: args[1]}, &resp); err != nil {
				return err
			}
			fmt.Printf("%s model: %s\n", resp.Provider, resp.SelectedModel)
			return nil
		},
	}
}

// DefaultProviderRequest names the provider used when a run names none.
type DefaultProviderRequest struct {
	Provider string `json:"provider"`
}

// DefaultProviderEndpoint handles PUT /api/settings/default-provider.
type DefaultProviderEndpoint struct{}

var _ api.Endpoint = (*DefaultProviderEndpoint)(nil)

func (e *DefaultProviderEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/settings/default-provider", e.handler
}

func (e *DefaultProviderEndpoint) RequiresInit() bool { return false }

func (e *DefaultProviderEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cm := svcctx.ConfigManagerFrom(r.Context())
	if cm == nil {
		writeError(w, http.StatusServiceUnavailable, "config manager not initialized")
		return
	}

	var req DefaultProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := cm.SetDefaultProvider(providers.Provider(req.Provider)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"defaultProvider": req.Provider})
}

func (e *DefaultProviderEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <provider>",
		Short: "Set the default extraction provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := DefaultProviderRequest{Provider: args[0]}
			if err := client.Put(cmd.Context(), "/api/settings/default-provider", req, nil); err != nil {
				return err
			}
			fmt.Printf("Default provider: %s\n", args[0])
			return nil
		},
	}
}
