package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/repository/order"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/databases/postgres"
)

func orderCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Inspect registration orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [order-id]",
		Short: "Print an order with its notification state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			db, err := postgres.NewPostgresDB(cmd.Context(), log, cfg.Postgres.DSN(), cfg.Postgres.Pool())
			if err != nil {
				return err
			}
			defer db.Close()

			o, err := order.NewOrderRepository(log, db.GetDB()).Find(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("order %s: %w", args[0], err)
			}

			out, err := json.MarshalIndent(o, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	})

	return cmd
}
