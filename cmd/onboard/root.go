package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/onboard/internal/cli"
	"github.com/aretw0/onboard/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "onboard drives business onboarding sessions",
	Long: `onboard retrieves the businesses a user may onboard, submits the chosen one
and confirms its onboarding status, keeping every session resumable.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default onboard.yaml if present)")
	rootCmd.PersistentFlags().Bool("mock", false, "Use the mock backend (same as USE_MOCK_BACKEND=true)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level")
}

// loadConfig resolves the configuration with command line overrides applied last.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	mock, _ := cmd.Flags().GetBool("mock")
	level, _ := cmd.Flags().GetString("log-level")

	return config.LoadWith(path, func(c *config.Config) {
		if mock {
			c.UseMockBackend = true
		}
		if level != "" {
			c.LogLevel = level
		}
	})
}

func loadLogger(cfg config.Config) (*slog.Logger, error) {
	return cli.NewLogger(cfg.LogLevel, false)
}
