package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"carpark-gate/internal/gate"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Fill the car park, queue four cars and let three swap in",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.shutdown()

		out := cmd.OutOrStdout()
		for _, ev := range gate.TutorialScenario(a.cfg.Capacity) {
			transitions, err := a.processor.OnEvent(ctx, ev)
			if err != nil {
				return err
			}
			for _, t := range transitions {
				fmt.Fprintln(out, t.String())
			}
		}
		return nil
	},
}
