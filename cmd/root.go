package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/incunabula/internal/config"
	"github.com/lehigh-university-libraries/incunabula/internal/evalcmd"
)

// rootOptions carries the persistent flags and the configuration loaded from
// them before any subcommand runs.
type rootOptions struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "incunabula",
		Short: "Catalogue entry extraction from OCR'd incunabula catalogue pages",
		Long: `Incunabula segments OCR output of the British Museum catalogue of
fifteenth-century books into one record per catalogue entry.

Page XML files go in; entries with shelfmark, heading, text, source pages and
word coordinates come out as CSV, Parquet, JSONL, headings XML or plain text.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(opts.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.LogLevel = "debug"
			}
			opts.cfg = cfg

			level, err := config.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "Config file (default ./incunabula.yaml or $HOME/.incunabula/incunabula.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(newExtractCmd(opts))
	cmd.AddCommand(newQualityCmd(opts))
	cmd.AddCommand(newInitConfigCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd(opts.loaded))
	cmd.AddCommand(newEvalCmd())

	return cmd
}

// loaded returns the configuration loaded in PersistentPreRunE.
func (o *rootOptions) loaded() *config.Config {
	if o.cfg == nil {
		return config.DefaultConfig()
	}
	return o.cfg
}
