package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/minjae-lee/settlescan/internal/api"
	"github.com/minjae-lee/settlescan/internal/ledger"
	"github.com/minjae-lee/settlescan/internal/svcctx"
)

// ListUsageEndpoint handles GET /api/usage.
type ListUsageEndpoint struct{}

var _ api.Endpoint = (*ListUsageEndpoint)(nil)

func (e *ListUsageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/usage", e.handler
}

func (e *ListUsageEndpoint) RequiresInit() bool { return true }

func (e *ListUsageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	lgr := svcctx.LedgerFrom(r.Context())
	if lgr == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger not initialized")
		return
	}
	entries, err := lgr.Entries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (e *ListUsageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List usage log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var entries []ledger.Entry
			if err := client.Get(cmd.Context(), "/api/usage", &entries); err != nil {
				return err
			}
			return api.Output(entries)
		},
	}
}

// RateRequest carries a like or dislike for the most recent run.
type RateRequest struct {
	Rating string `json:"rating"`
}

// RateUsageEndpoint handles POST /api/usage/rate. Only the most recent
// entry can be rated; rating again replaces that entry's rating.
type RateUsageEndpoint struct{}

var _ api.Endpoint = (*RateUsageEndpoint)(nil)

func (e *RateUsageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/usage/rate", e.handler
}

func (e *RateUsageEndpoint) RequiresInit() bool { return true }

func (e *RateUsageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	lgr := svcctx.LedgerFrom(r.Context())
	if lgr == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger not initialized")
		return
	}

	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	entry, err := lgr.RateMostRecent(req.Rating)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (e *RateUsageEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <like|dislike>",
		Short: "Rate the most recent extraction run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var entry ledger.Entry
			if err := client.Post(cmd.Context(), "/api/usage/rate", RateRequest{Rating: args[0]}, &entry); err != nil {
				return err
			}
			fmt.Printf("Rated %s/%s: %s\n", entry.Provider, entry.Model, entry.Rating)
			return nil
		},
	}
}

// UsageStatsEndpoint handles GET /api/usage/stats.
type UsageStatsEndpoint struct{}

var _ api.Endpoint = (*UsageStatsEndpoint)(nil)

func (e *UsageStatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/usage/stats", e.handler
}

func (e *UsageStatsEndpoint) RequiresInit() bool { return true }

func (e *UsageStatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	lgr := svcctx.LedgerFrom(r.Context())
	if lgr == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger not initialized")
		return
	}
	entries, err := lgr.Entries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ledger.Aggregate(entries))
}

func (e *UsageStatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-model preference statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var stats []ledger.ModelStats
			if err := client.Get(cmd.Context(), "/api/usage/stats", &stats); err != nil {
				return err
			}
			return api.Output(stats)
		},
	}
}

// ExportUsageEndpoint handles GET /api/usage/export.{format}. Format is csv
// or xlsx.
type ExportUsageEndpoint struct {
	Format string
}

var _ api.Endpoint = (*ExportUsageEndpoint)(nil)

func (e *ExportUsageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/usage/export." + e.Format, e.handler
}

func (e *ExportUsageEndpoint) RequiresInit() bool { return true }

func (e *ExportUsageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	lgr := svcctx.LedgerFrom(r.Context())
	if lgr == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger not initialized")
		return
	}
	entries, err := lgr.Entries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var (
		data        []byte
		contentType string
	)
	switch e.Format {
	case "csv":
		data, err = ledger.ExportCSV(entries)
		contentType = "text/csv"
	case "xlsx":
		data, err = ledger.ExportXLSX(entries)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		writeError(w, http.StatusNotFound, "unknown export format")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="usage.`+e.Format+`"`)
	w.Write(data)
}

func (e *ExportUsageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-" + e.Format,
		Short: "Export the usage log as " + e.Format,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, err := client.GetRaw(cmd.Context(), "/api/usage/export."+e.Format)
			if err != nil {
				return err
			}
			if out == "" {
				out = "usage." + e.Format
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path")
	return cmd
}
