package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"carpark-gate/internal/logging"
	"carpark-gate/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gate over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.shutdown()

		srv := server.NewServer(a.cfg.Port, a.cfg.OTelServiceName, a.processor)

		serverDone := make(chan error, 1)
		go func() {
			serverDone <- srv.Start()
		}()

		select {
		case err := <-serverDone:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
			logging.Logger().Info().Msg("received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Logger().Error().Err(err).Msg("server shutdown error")
		}
		return nil
	},
}
