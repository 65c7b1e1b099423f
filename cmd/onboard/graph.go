package main

import (
	"fmt"

	"github.com/aretw0/onboard/internal/presentation/graph"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the onboarding state machine as a Mermaid flowchart",
	Long:  `With --session the steps that session visited are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(domain.Edges, nil))
			return nil
		}
		return withStore(cmd, func(store ports.SessionStore) error {
			h, err := store.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("failed to load session %q: %w", sessionID, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(domain.Edges, graph.OverlayFromHistory(h)))
			return nil
		})
	},
}


func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Highlight the path of this session")
}
