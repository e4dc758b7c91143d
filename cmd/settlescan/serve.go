package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/minjae-lee/settlescan/internal/config"
	"github.com/minjae-lee/settlescan/internal/home"
	"github.com/minjae-lee/settlescan/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the settlescan server",
	Long: `Start the settlescan HTTP server.

On first run a commented default config file is written to the home
directory. Provider API keys are read from the config (with ${ENV_VAR}
expansion) and the config file is watched for changes, so keys and model
settings can be edited without a restart.

The server also mounts the provider relay at POST /api/<provider>, so
clients without their own credentials can forward requests through it.

Examples:
  settlescan serve                    # Start on default port 8315
  settlescan serve --port 3000        # Start on custom port
  settlescan serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Write a commented default config on first run
		if cfgFile == "" {
			if _, err := os.Stat(h.ConfigPath()); os.IsNotExist(err) {
				if err := config.WriteDefault(h.ConfigPath()); err != nil {
					return err
				}
				logger.Info("wrote default config", "path", h.ConfigPath())
			}
		}

		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()

		port := servePort
		if port == "" {
			_, port = cfgMgr.Get().Server.HostPort()
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          port,
			Home:          h,
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config, 8315)")

	rootCmd.AddCommand(serveCmd)
}
