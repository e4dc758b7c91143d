package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/minjae-lee/settlescan/internal/api"
	"github.com/minjae-lee/settlescan/internal/extract"
	"github.com/minjae-lee/settlescan/internal/providers"
	"github.com/minjae-lee/settlescan/internal/svcctx"
)

// ExtractRequest chooses the provider and model for a run. Both are
// optional: the configured defaults fill the gaps.
type ExtractRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ExtractEndpoint handles POST /api/extract. It runs the selected pages
// through the chosen provider one page at a time and returns the full
// outcome, including per-page failures.
type ExtractEndpoint struct{}

var _ api.Endpoint = (*ExtractEndpoint)(nil)

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
	}

	store := svcctx.PagesFrom(r.Context())
	orch := svcctx.OrchestratorFrom(r.Context())
	if store == nil || orch == nil {
		writeError(w, http.StatusServiceUnavailable, "extraction services not initialized")
		return
	}

	provider := providers.Provider(req.Provider)
	model := req.Model
	if req.Provider == "" {
		if cm := svcctx.ConfigManagerFrom(r.Context()); cm != nil {
			cfg := cm.Get()
			provider = providers.Provider(cfg.Defaults.Provider)
			if model == "" {
				model = cfg.SelectedModel(provider)
			}
		}
	}

	outcome, err := orch.Run(r.Context(), store.Selected(), provider, model)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var provider, model string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run extraction over the selected pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var outcome extract.Outcome
			req := ExtractRequest{Provider: provider, Model: model}
			if err := client.Post(cmd.Context(), "/api/extract", req, &outcome); err != nil {
				return err
			}

			fmt.Printf("Extracted %d/%d pages with %s (%s)\n",
				outcome.SuccessCount, outcome.TotalCount, outcome.Provider, outcome.Model)
			for _, pe := range outcome.Errors {
				fmt.Printf("  failed: %s p.%d: %s\n", pe.SourceFile, pe.PageIndex, pe.Message)
			}
			return api.Output(outcome.Rows)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Extraction provider (gemini, openai, upstage)")
	cmd.Flags().StringVar(&model, "model", "", "Model id (defaults to the provider's configured model)")
	return cmd
}
