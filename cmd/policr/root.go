package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pp-cti/policr/internal/policr/config"
	"github.com/pp-cti/policr/internal/policr/logger"
	"github.com/pp-cti/policr/internal/policr/output"
	"github.com/pp-cti/policr/internal/policr/policy"
)

var (
	cfgFile string
	envFile string
	Version = "v0.1"
	rootCmd = &cobra.Command{
		Use:           "policr",
		Short:         "policr - privacy and hierarchy policy authoring for PP-CTI",
		Long:          "policr: build privacy policies and generalization hierarchies for captured events and submit them to the PP-CTI transformer.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(envFile); err != nil {
				return err
			}
			if cfgFile != "" {
				viper.SetConfigFile(cfgFile)
			} else {
				viper.SetConfigFile("config.yaml")
			}
			if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
				// an explicit --config must exist
				return fmt.Errorf("read config: %w", err)
			}
			if err := config.Load(viper.GetViper()); err != nil {
				return err
			}

			cfg := config.Get()
			if err := logger.InitLogger(logger.LogConfig{
				Level:       cfg.Logging.Level,
				Development: cfg.Logging.Development,
			}); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with POLICR_* overrides")
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}

func printWarnings(warnings []policy.Warning) {
	for _, w := range warnings {
		output.Warn("%s", w)
	}
}
