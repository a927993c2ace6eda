package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "perfscore",
		Short: "Employee performance and disciplinary-penalty scoring",
		Long: `perfscore computes per-employee component scores, applies decayed and
escalated warning penalties with a monthly cap, and ranks the cohort.

Configuration is read from PERFSCORE_CONFIG (YAML) and PERFSCORE_* environment
variables. Use "serve" for the HTTP API or "score" for a one-shot report.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newScoreCmd())
	return root
}
