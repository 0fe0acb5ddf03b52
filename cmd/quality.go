package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/incunabula/internal/config"
	"github.com/lehigh-university-libraries/incunabula/internal/pipeline"
	"github.com/lehigh-university-libraries/incunabula/internal/quality"
)

func newQualityCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quality [volume-dir]",
		Short: "List pages whose OCR looks poorly scanned",
		Long: `Score every page of a volume by how many of its lines are unusually
long for the volume and write the page IDs that exceed the allowance to
poorlyscanned.txt in the output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loaded()
			input := cfg.Input
			if len(args) == 1 {
				input = args[0]
			}

			p, err := pipeline.New(cfg)
			if err != nil {
				return err
			}
			pages, err := p.Loader().LoadVolume(cmd.Context(), input)
			if err != nil {
				return err
			}

			report := quality.Assess(pages, p.Extractor(), cfg.QualityOptions())
			dir := cfg.Output
			if cfg.Volume != "" {
				dir = filepath.Join(dir, cfg.Volume)
			}
			path, err := quality.Save(dir, report)
			if err != nil {
				return err
			}

			fmt.Printf("Mean words per line: %.2f (std %.2f)\n", report.Mean, report.StdDev)
			flagged := report.Flagged()
			fmt.Printf("Flagged %d of %d pages\n", len(flagged), len(report.Pages))
			for _, id := range flagged {
				fmt.Printf("  %s\n", id)
			}
			fmt.Printf("\nReport saved to: %s\n", path)
			return nil
		},
	}

	d := config.DefaultConfig()
	addPipelineFlags(cmd.Flags())
	cmd.Flags().String("output", d.Output, "Output directory")
	cmd.Flags().String("volume", "", "Write the report into a sub-directory named after the volume")

	return cmd
}

func newInitConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "incunabula.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
