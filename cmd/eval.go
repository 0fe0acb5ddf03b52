package cmd

import (
	"github.com/lehigh-university-libraries/incunabula/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Shelfmark detection evaluation tools",
		Long: `Evaluation tools for measuring how well shelfmark detection agrees with
a hand-labelled library index.

Supports scoring the matcher against CSV or Parquet index exports (local or
downloaded), tracking known errors, and reporting on saved runs.`,
	}

	// Add eval subcommands
	cmd.AddCommand(evalcmd.NewShelfmarksCmd())
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}
