package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"carpark-gate/internal/config"
	"carpark-gate/internal/gate"
	"carpark-gate/internal/logging"
	"carpark-gate/internal/telemetry"
)

var (
	capacityFlag int
	portFlag     string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "carpark-gate",
	Short:         "Entry gate controller for a single car park",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&capacityFlag, "capacity", 0, "car park capacity (overrides GATE_CAPACITY)")
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "HTTP port (overrides APP_PORT)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the wired gate shared by every subcommand.
type app struct {
	cfg       *config.Config
	telemetry *telemetry.Provider
	processor *gate.InstrumentedProcessor
}

func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("capacity") {
		cfg.Capacity = capacityFlag
	}
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Init(cfg.IsDevelopment(), cfg.LogLevel)

	tp, err := telemetry.New(ctx, telemetry.Config{
		ServiceName: cfg.OTelServiceName,
		Endpoint:    cfg.OTelEndpoint,
		Environment: cfg.Environment,
		Export:      cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	processor, err := gate.NewProcessor(cfg.Capacity,
		gate.WithLogger(*logging.Logger()),
		gate.WithJournalSize(cfg.JournalSize),
	)
	if err != nil {
		return nil, err
	}

	instrumented, err := gate.NewInstrumentedProcessor(processor, tp)
	if err != nil {
		return nil, fmt.Errorf("failed to instrument processor: %w", err)
	}
	instrumented.Init(ctx)

	return &app{cfg: cfg, telemetry: tp, processor: instrumented}, nil
}

func (a *app) shutdown() {
	logging.Logger().Info().Msg("shutting down telemetry")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.telemetry.Shutdown(ctx); err != nil {
		logging.Logger().Error().Err(err).Msg("error shutting down telemetry")
	}
}
