package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lehigh-university-libraries/incunabula/internal/config"
	"github.com/lehigh-university-libraries/incunabula/internal/pipeline"
)

// addPipelineFlags registers the flags shared by every command that reads
// page XML. Their names match the config keys they override.
func addPipelineFlags(flags *pflag.FlagSet) {
	d := config.DefaultConfig()
	flags.String("input", d.Input, "Volume directory, page XML file or glob")
	flags.String("reading-order", d.ReadingOrder, "Region reading order (interleaved, document)")
	flags.Uint("retries", d.Retry.Attempts, "Attempts per page file before giving up")
	flags.Float64("quality-threshold", d.Quality.Threshold, "Word-count z-score above which a line is an outlier")
	flags.Int("quality-max-outliers", d.Quality.MaxOutliers, "Outlier lines a page may have before it is flagged")
}

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "extract [volume-dir...]",
		Short: "Segment page XML into catalogue entries",
		Long: `Read every page XML file of one or more volumes, detect entry headings
and write one record per catalogue entry.

Each positional argument is a volume (directory, page file or glob); without
arguments the configured input is used. A manifest.json describing the run is
written to the output directory.`,
		Example: `  # One volume, CSV output
  incunabula extract ./bmc_volume_1

  # Several volumes in parallel, every format
  incunabula extract ./bmc_volume_* --format all --concurrency 4

  # Re-run whenever pages change
  incunabula extract ./bmc_volume_1 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loaded()

			inputs := args
			if len(inputs) == 0 {
				inputs = []string{cfg.Input}
			}
			if cfg.Volume != "" && len(inputs) > 1 {
				return fmt.Errorf("--volume names a single volume but %d inputs were given", len(inputs))
			}

			jobs := make([]pipeline.Job, 0, len(inputs))
			for _, in := range inputs {
				jobs = append(jobs, pipeline.Job{Input: in, Volume: cfg.Volume})
			}

			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if watch {
				if len(jobs) != 1 {
					return fmt.Errorf("--watch takes exactly one volume, got %d", len(jobs))
				}
				return executeWatch(ctx, p, jobs[0], cfg.Output)
			}
			return executeExtract(ctx, p, jobs, cfg.Output, cfg.Concurrency)
		},
	}

	d := config.DefaultConfig()
	addPipelineFlags(cmd.Flags())
	cmd.Flags().String("volume", "", "Volume name used in output file names (default: input directory name)")
	cmd.Flags().String("output", d.Output, "Output directory")
	cmd.Flags().StringSlice("format", d.Formats, "Output formats: csv, parquet, jsonl, xml, txt or all")
	cmd.Flags().Bool("bought-in", d.Corrections.BoughtIn, "Move misplaced 'Bought in' lines out of headings")
	cmd.Flags().Bool("quality", d.Quality.Enabled, "Also write the poorly-scanned page report")
	cmd.Flags().Int("concurrency", d.Concurrency, "Volumes processed in parallel")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and re-extract when page files change")

	return cmd
}

func executeExtract(ctx context.Context, p *pipeline.Processor, jobs []pipeline.Job, outputDir string, concurrency int) error {
	manifest := p.Run(ctx, jobs, outputDir, concurrency)

	if err := pipeline.SaveManifest(manifest, outputDir); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	printManifest(manifest)

	if failed := manifest.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d volumes failed", failed, len(manifest.Volumes))
	}
	return nil
}

func executeWatch(ctx context.Context, p *pipeline.Processor, job pipeline.Job, outputDir string) error {
	return p.Watch(ctx, job, outputDir, pipeline.DefaultSettle, func(s pipeline.Summary) {
		if err := pipeline.AppendSummary(s, outputDir); err != nil {
			slog.Error("Failed to update manifest", "error", err)
		}
		if s.Error != "" {
			fmt.Printf("%s: failed: %s\n", s.Volume, s.Error)
			return
		}
		fmt.Printf("%s: %d entries from %d pages\n", s.Volume, s.Entries, s.Pages)
	})
}

func printManifest(m *pipeline.Manifest) {
	fmt.Println("\n========================================")
	fmt.Println("Extraction Summary")
	fmt.Println("========================================")
	fmt.Printf("Run ID:   %s\n", m.RunID)
	fmt.Printf("Volumes:  %d (%d failed)\n", len(m.Volumes), m.Failed())
	fmt.Println()

	for _, v := range m.Volumes {
		if v.Error != "" {
			fmt.Printf("  %s: error: %s\n", v.Volume, v.Error)
			continue
		}
		fmt.Printf("  %s: %d entries, %d pages, %d lines (%d empty dropped)\n",
			v.Volume, v.Entries, v.Pages, v.Lines, v.Dropped)
		if len(v.Flagged) > 0 {
			fmt.Printf("    poorly scanned: %v\n", v.Flagged)
		}
		for _, f := range v.Files {
			fmt.Printf("    %s\n", f)
		}
	}
	fmt.Println("========================================")
}
