package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/onboard/internal/cli"
	"github.com/aretw0/onboard/internal/config"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			return cli.ListSessions(cmd.Context(), store, cmd.OutOrStdout())
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		return withStore(cmd, func(store ports.SessionStore) error {
			return cli.InspectSession(cmd.Context(), store, args[0], raw, cmd.OutOrStdout())
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			var errs []error
			for _, id := range args {
				errs = append(errs, cli.RemoveSession(cmd.Context(), store, id, cmd.OutOrStdout()))
			}
			return errors.Join(errs...)
		})
	},
}

// withStore opens the configured store. No backend is contacted, so the
// backend settings are not validated.
func withStore(cmd *cobra.Command, fn func(ports.SessionStore) error) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWith(path, func(c *config.Config) { c.UseMockBackend = true })
	if err != nil {
		return err
	}
	if cfg.Store == config.StoreMemory {
		return fmt.Errorf("the memory store does not outlive the server process")
	}

	store, closeStore, err := cli.OpenStore(cfg)
	if err != nil {
		return err
	}
	return errors.Join(fn(store), closeStore())
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionInspectCmd.Flags().Bool("raw", false, "Show personal data unmasked")
}
