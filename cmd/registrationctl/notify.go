package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/app"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/services/registration/sweep"
)

func notifyCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification maintenance",
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Deliver notifications left unsent for paid orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			batchSize, _ := cmd.Flags().GetInt("batch-size")
			if batchSize <= 0 {
				batchSize = cfg.Sweep.BatchSize
			}
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			if concurrency <= 0 {
				concurrency = cfg.Sweep.Concurrency
			}

			backend, err := app.NewBackend(cmd.Context(), log, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			report, err := sweep.New(log, backend.Orders, backend.Notifier, batchSize, concurrency).Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scanned: %d\nfailed:  %d\n", report.Scanned, report.Failed)
			return nil
		},
	}
	sweepCmd.Flags().IntP("batch-size", "n", 0, "maximum orders per pass (default from config)")
	sweepCmd.Flags().Int("concurrency", 0, "orders notified in parallel (default from config)")

	cmd.AddCommand(sweepCmd)

	return cmd
}
