package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/config"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "registrationctl",
		Short:         "Operator tooling for the registration service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config file")

	load := func() (*config.Config, logger.Logger, error) {
		if configPath == "" {
			return nil, nil, fmt.Errorf("config path is not set, use --config or CONFIG_PATH")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		return &cfg, logger.NewSlogLogger(logger.SlogEnvironment(cfg.Env)), nil
	}

	rootCmd.AddCommand(notifyCmd(load))
	rootCmd.AddCommand(orderCmd(load))
	rootCmd.AddCommand(priceCmd(load))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type loader func() (*config.Config, logger.Logger, error)
