package main

import (
	"github.com/minjae-lee/settlescan/internal/server/endpoints"
)

var serverURL string

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	apiCmd := endpoints.BuildAPICommand(getServerURL)

	// --server is persistent so all subcommands inherit it
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8315", "Server URL",
	)

	rootCmd.AddCommand(apiCmd)
}
