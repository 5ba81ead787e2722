package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gonarrative/ui"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve narratives over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := initContainer()
		if err != nil {
			return err
		}
		defer c.Shutdown()

		port := cfg.Server.Port
		if servePort != "" {
			port = servePort
		}

		server := ui.NewServer(ui.ServerConfig{
			GinMode:        cfg.Server.GinMode,
			RequestsPerSec: cfg.Server.RateLimit,
			Burst:          cfg.Server.Burst,
		}, c.Narratives, c.Reports, c.Engine.Registry(), zap.L())
		return server.Start(ctx, ":"+port)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
