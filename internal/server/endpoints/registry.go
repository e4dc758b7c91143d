package endpoints

import (
	"github.com/spf13/cobra"

	"github.com/minjae-lee/settlescan/internal/api"
)

// All returns all endpoint instances in route registration order.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// File and page endpoints
		&UploadEndpoint{},
		&ListPagesEndpoint{},
		&SelectPageEndpoint{},
		&RemovePageEndpoint{},
		&UndoRemoveEndpoint{},
		&PageImageEndpoint{},
		&ResetPagesEndpoint{},

		// Extraction
		&ExtractEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&UpdateModelEndpoint{},
		&DefaultProviderEndpoint{},

		// Usage ledger endpoints
		&ListUsageEndpoint{},
		&RateUsageEndpoint{},
		&UsageStatsEndpoint{},
		&ExportUsageEndpoint{Format: "csv"},
		&ExportUsageEndpoint{Format: "xlsx"},

		// Embedded frontend, catches remaining GET requests
		&StaticEndpoint{},
	}
}

// BuildAPICommand assembles the `api` command tree. Page, settings and
// usage operations nest under their own subcommands so the short verbs
// (list, rate, ...) don't collide.
func BuildAPICommand(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running settlescan server via HTTP.

These commands require a running server (settlescan serve).
Use --server to specify a custom server URL.

Examples:
  settlescan api health                  # Check server health
  settlescan api upload statement.pdf    # Upload a settlement document
  settlescan api pages list              # List pages and selection state
  settlescan api extract --provider gemini
  settlescan api usage stats             # Model preference statistics`,
	}

	apiCmd.AddCommand(
		(&HealthEndpoint{}).Command(getServerURL),
		(&ReadyEndpoint{}).Command(getServerURL),
		(&StatusEndpoint{}).Command(getServerURL),
		(&UploadEndpoint{}).Command(getServerURL),
		(&ExtractEndpoint{}).Command(getServerURL),
	)

	pagesCmd := &cobra.Command{Use: "pages", Short: "Manage uploaded pages"}
	for _, ep := range []api.Endpoint{
		&ListPagesEndpoint{},
		&SelectPageEndpoint{},
		&RemovePageEndpoint{},
		&UndoRemoveEndpoint{},
		&PageImageEndpoint{},
		&ResetPagesEndpoint{},
	} {
		pagesCmd.AddCommand(ep.Command(getServerURL))
	}
	apiCmd.AddCommand(pagesCmd)

	settingsCmd := &cobra.Command{Use: "settings", Short: "Manage provider settings"}
	for _, ep := range []api.Endpoint{
		&ListSettingsEndpoint{},
		&UpdateModelEndpoint{},
		&DefaultProviderEndpoint{},
	} {
		settingsCmd.AddCommand(ep.Command(getServerURL))
	}
	apiCmd.AddCommand(settingsCmd)

	usageCmd := &cobra.Command{Use: "usage", Short: "Inspect and export the usage log"}
	for _, ep := range []api.Endpoint{
		&ListUsageEndpoint{},
		&RateUsageEndpoint{},
		&UsageStatsEndpoint{},
		&ExportUsageEndpoint{Format: "csv"},
		&ExportUsageEndpoint{Format: "xlsx"},
	} {
		usageCmd.AddCommand(ep.Command(getServerURL))
	}
	apiCmd.AddCommand(usageCmd)

	return apiCmd
}
