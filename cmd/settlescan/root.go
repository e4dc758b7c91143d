package main

import (
	"github.com/spf13/cobra"

	"github.com/minjae-lee/settlescan/internal/api"
	"github.com/minjae-lee/settlescan/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "settlescan",
	Short: "Settlement document extraction with AI providers",
	Long: `Settlescan extracts ledger rows from scanned brokerage settlement
documents using AI vision and document-parsing providers.

It provides:
  - PDF, image and HEIC upload with per-page selection
  - Extraction through Gemini, OpenAI or Upstage models
  - A usage log with per-run token cost and model ratings
  - CSV and XLSX export of the usage log
  - An API key relay so clients never hold provider credentials`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.settlescan/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "settlescan home directory (default: ~/.settlescan)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
