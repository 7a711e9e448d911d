package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/repository/settings"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/databases/postgres"
)

func priceCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Read or change the registration fee",
	}

	withRepo := func(cmd *cobra.Command, fn func(repo *settings.Repository) error) error {
		cfg, log, err := load()
		if err != nil {
			return err
		}

		db, err := postgres.NewPostgresDB(cmd.Context(), log, cfg.Postgres.DSN(), cfg.Postgres.Pool())
		if err != nil {
			return err
		}
		defer db.Close()

		fallback := models.Price{Amount: cfg.Pricing.Amount, Currency: cfg.Pricing.Currency}
		return fn(settings.New(log, db.GetDB(), fallback))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the fee new registrations are charged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepo(cmd, func(repo *settings.Repository) error {
				price, err := repo.CurrentPrice(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", price.Amount, price.Currency)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [amount] [currency]",
		Short: "Change the fee; pending orders keep the amount they were created with",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("amount must be a positive integer, got %q", args[0])
			}

			price := models.Price{Amount: amount, Currency: strings.ToUpper(args[1])}
			return withRepo(cmd, func(repo *settings.Repository) error {
				return repo.SetPrice(cmd.Context(), price)
			})
		},
	})

	return cmd
}
