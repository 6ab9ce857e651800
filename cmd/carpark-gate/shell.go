package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"carpark-gate/internal/gate"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Read gate events from stdin, one command per line",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.shutdown()

		return gate.NewShell(a.processor, os.Stdin, os.Stdout).Run(ctx)
	},
}
