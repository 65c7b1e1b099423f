package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/onboard"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of onboard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "onboard version %s\n", strings.TrimSpace(onboard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
