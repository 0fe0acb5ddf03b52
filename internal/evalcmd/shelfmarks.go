package evalcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/incunabula/internal/eval/dataset"
	"github.com/lehigh-university-libraries/incunabula/internal/eval/metrics"
	resultsutil "github.com/lehigh-university-libraries/incunabula/internal/eval/results"
	"github.com/lehigh-university-libraries/incunabula/internal/shelfmark"
)

// shelfmarksOptions holds the flags of the shelfmarks command
type shelfmarksOptions struct {
	indexPath     string
	knownErrors   string
	utf8          bool
	outputJSON    string
	outputReport  string
	evalsDir      string
	writeKnown    string
	cacheDir      string
	forceDownload bool
}

// NewShelfmarksCmd creates the command that scores the shelfmark matcher
// against a hand-labelled index
func NewShelfmarksCmd() *cobra.Command {
	opts := &shelfmarksOptions{}

	cmd := &cobra.Command{
		Use:   "shelfmarks",
		Short: "Evaluate shelfmark detection against a labelled index",
		Long: `Run the shelfmark matcher over every shelfmark of a library index export
and compare, per shelfmark family (C, G and I), what it detects with what the
index labels as belonging to that family.

A family passes when the differences are exactly the documented known errors.
New differences and known errors that no longer occur both fail the run, so
the command can guard changes to the matching rules.`,
		Example: `  # Evaluate against a Latin-1 CSV export
  incunabula eval shelfmarks --index ./bll01_index.csv

  # Use a reviewed known-error list and a remote export
  incunabula eval shelfmarks --index https://example.org/bll01_index.csv --known-errors known.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.writeKnown != "" {
				if err := metrics.DefaultKnownErrors().Save(opts.writeKnown); err != nil {
					return err
				}
				fmt.Printf("Known errors written to: %s\n", opts.writeKnown)
				return nil
			}
			if opts.indexPath == "" {
				return fmt.Errorf("--index is required")
			}
			return executeShelfmarks(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.indexPath, "index", "", "Path or URL of the index export (.csv or .parquet)")
	cmd.Flags().StringVar(&opts.knownErrors, "known-errors", "", "YAML file of known differences per family (default: built-in list)")
	cmd.Flags().BoolVar(&opts.utf8, "utf8", false, "Read the CSV export as UTF-8 instead of Latin-1")
	cmd.Flags().StringVar(&opts.outputJSON, "output-json", "", "Path to output JSON results file")
	cmd.Flags().StringVar(&opts.outputReport, "output-report", "", "Path to output detailed report file")
	cmd.Flags().StringVar(&opts.evalsDir, "evals-dir", resultsutil.DefaultDir, "Directory for YAML result files (empty to skip)")
	cmd.Flags().StringVar(&opts.writeKnown, "write-known-errors", "", "Write the built-in known errors to this YAML file and exit")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", dataset.DefaultCacheDir, "Cache directory for downloaded index exports")
	cmd.Flags().BoolVar(&opts.forceDownload, "force-download", false, "Download the index again even if cached")

	return cmd
}

func executeShelfmarks(ctx context.Context, opts *shelfmarksOptions) error {
	slog.Info("Starting shelfmark evaluation", "index", opts.indexPath)

	var loaderOpts []dataset.LoaderOption
	if opts.utf8 {
		loaderOpts = append(loaderOpts, dataset.WithUTF8())
	}
	loader, err := dataset.LoadOrDownload(ctx, opts.indexPath, dataset.DownloadConfig{
		CacheDir:      opts.cacheDir,
		ForceDownload: opts.forceDownload,
		Token:         os.Getenv("INCUNABULA_INDEX_TOKEN"),
	}, loaderOpts...)
	if err != nil {
		return fmt.Errorf("failed to fetch index: %w", err)
	}

	records, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	slog.Info("Index loaded", "records", len(records))

	known := metrics.DefaultKnownErrors()
	if opts.knownErrors != "" {
		known, err = metrics.LoadKnownErrors(opts.knownErrors)
		if err != nil {
			return err
		}
	}

	m := shelfmark.New()
	aggregated := metrics.Evaluate(records, m, known, opts.indexPath)
	aggregated.PrintSummary(os.Stdout)

	if opts.outputJSON != "" {
		if err := aggregated.SaveToJSON(opts.outputJSON); err != nil {
			fmt.Printf("Warning: Failed to save JSON results: %v\n", err)
		} else {
			fmt.Printf("\nResults saved to: %s\n", opts.outputJSON)
		}
	}

	if opts.outputReport != "" {
		if err := aggregated.SaveDetailedReport(opts.outputReport); err != nil {
			fmt.Printf("Warning: Failed to save detailed report: %v\n", err)
		} else {
			fmt.Printf("Detailed report saved to: %s\n", opts.outputReport)
		}
	}

	if opts.evalsDir != "" {
		dialects := make([]string, 0, len(m.Dialects()))
		for _, d := range m.Dialects() {
			dialects = append(dialects, d.String())
		}
		spec := resultsutil.NewEvalSpec(aggregated, dialects, opts.knownErrors)
		if _, err := resultsutil.SaveToYAML(opts.evalsDir, spec); err != nil {
			fmt.Printf("Warning: Failed to save YAML results: %v\n", err)
		}
	}

	slog.Info("Evaluation complete", "passed", aggregated.Passed)
	if !aggregated.Passed {
		return fmt.Errorf("shelfmark evaluation failed: differences do not match the known errors")
	}
	return nil
}
