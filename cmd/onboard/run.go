package main

import (
	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/internal/cli"
	"github.com/aretw0/onboard/internal/presentation/tui"
	"github.com/aretw0/onboard/pkg/adapters/mockbackend"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive one onboarding session from the terminal",
	Long: `Starts or resumes a session and, when --select is given, submits that
business with the --email contact. Without a live API use --mock.`,
	Example: `  onboard run --mock --session demo
  onboard run --mock --session demo --select 01113570442 --email pec@acme.it`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		logger, err := cli.NewLogger(cfg.LogLevel, quiet)
		if err != nil {
			return err
		}

		opts := cli.RunOptions{Quiet: quiet}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.TaxCode, _ = cmd.Flags().GetString("select")
		opts.Email, _ = cmd.Flags().GetString("email")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.User = mockbackend.LoggedUser
		if tc, _ := cmd.Flags().GetString("user-tax-code"); tc != "" {
			opts.User.TaxCode = tc
		}
		if manual, _ := cmd.Flags().GetString("manual"); manual != "" {
			opts.Manual = &domain.Business{BusinessTaxID: manual, BusinessName: manual}
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		rt, err := cli.Build(sigCtx, cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		if !quiet {
			tui.PrintBanner(cmd.OutOrStdout(), onboard.Version)
		}
		_, err = cli.Run(sigCtx, rt.Engine, opts, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("session", "s", "default", "Session id to start or resume")
	runCmd.Flags().String("select", "", "Tax code of the business to submit")
	runCmd.Flags().String("email", "", "Contact address sent with the submission")
	runCmd.Flags().String("manual", "", "Start from this business tax code instead of the registry lookup")
	runCmd.Flags().String("user-tax-code", "", "Tax code of the requesting user")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session first")
	runCmd.Flags().BoolP("quiet", "q", false, "Print nothing but errors")
}
