package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wizdraft/internal/app"
	"wizdraft/internal/config"
	"wizdraft/internal/server"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the wizdraft API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.DataDir == "" {
				return fmt.Errorf("data dir is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("opening data dir", "path", cfg.DataDir, "blob_backend", cfg.Blobs.Backend)
			a, err := app.Open(ctx, cfg, logger, app.WithBackgroundRehydration())
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Error("close stores", "error", err)
				}
			}()

			return server.New(addr, a, logger).ListenAndServe(ctx)
		},
	}
}
