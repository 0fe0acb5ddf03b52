package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	resultsutil "github.com/lehigh-university-libraries/incunabula/internal/eval/results"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report on saved shelfmark evaluation runs",
		Long: `Summarise the YAML result files written by "eval shelfmarks", oldest run
first, so drift in the matcher can be followed across runs.`,
		Example: `  # Every run in ./evals
  incunabula eval report

  # One run as CSV
  incunabula eval report --results evals/shelfmarks-2024-03-01_12-30-00.yaml --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), resultsPath, format)
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", resultsutil.DefaultDir, "Result file or directory of result files")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, csv)")

	return cmd
}

func executeReport(w io.Writer, resultsPath, format string) error {
	specs, err := loadSpecs(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}
	if len(specs) == 0 {
		return fmt.Errorf("no evaluation results found in %s", resultsPath)
	}

	switch format {
	case "text":
		return printTextReport(w, specs)
	case "json":
		return printJSONReport(w, specs)
	case "csv":
		return printCSVReport(w, specs)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// loadSpecs reads one result file, or every shelfmarks-*.yaml in a directory
// ordered by run timestamp
func loadSpecs(resultsPath string) ([]*resultsutil.EvalSpec, error) {
	info, err := os.Stat(resultsPath)
	if err != nil {
		return nil, err
	}

	paths := []string{resultsPath}
	if info.IsDir() {
		paths, err = filepath.Glob(filepath.Join(resultsPath, "shelfmarks-*.yaml"))
		if err != nil {
			return nil, err
		}
	}

	specs := make([]*resultsutil.EvalSpec, 0, len(paths))
	for _, p := range paths {
		spec, err := resultsutil.LoadFromYAML(p)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].Config.Timestamp < specs[j].Config.Timestamp
	})
	return specs, nil
}

func printTextReport(w io.Writer, specs []*resultsutil.EvalSpec) error {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Shelfmark Evaluation Report")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Runs: %d\n", len(specs))

	for i, spec := range specs {
		status := "PASS"
		if !spec.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "\n[%d] %s  %s  (run %s)\n", i+1, spec.Config.Timestamp, status, spec.Config.RunID)
		fmt.Fprintf(w, "  Index:        %s (%d records)\n", spec.Config.IndexPath, spec.Config.Records)
		fmt.Fprintf(w, "  Known errors: %s\n", spec.Config.KnownErrors)
		if len(spec.Config.Dialects) > 0 {
			fmt.Fprintf(w, "  Dialects:     %s\n", strings.Join(spec.Config.Dialects, ", "))
		}

		for _, r := range spec.Results {
			fmt.Fprintf(w, "  %s: labelled %d, detected %d, %d differences\n",
				r.Category, r.Labelled, r.Detected, len(r.SymmetricDifference))
			for _, sm := range r.Unexpected {
				fmt.Fprintf(w, "    + %s\n", truncate(sm, 80))
			}
			for _, sm := range r.Resolved {
				fmt.Fprintf(w, "    - %s\n", truncate(sm, 80))
			}
		}
	}

	return nil
}

func printJSONReport(w io.Writer, specs []*resultsutil.EvalSpec) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(specs)
}

func printCSVReport(w io.Writer, specs []*resultsutil.EvalSpec) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"Run ID", "Timestamp", "Category", "Labelled", "Detected", "Differences", "Unexpected", "Resolved", "Passed"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, spec := range specs {
		for _, r := range spec.Results {
			row := []string{
				spec.Config.RunID,
				spec.Config.Timestamp,
				r.Category,
				strconv.Itoa(r.Labelled),
				strconv.Itoa(r.Detected),
				strconv.Itoa(len(r.SymmetricDifference)),
				strings.Join(r.Unexpected, " | "),
				strings.Join(r.Resolved, " | "),
				strconv.FormatBool(r.Passed),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
