package evalcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/incunabula/internal/config"
	"github.com/lehigh-university-libraries/incunabula/internal/entries"
	"github.com/lehigh-university-libraries/incunabula/internal/export"
	"github.com/lehigh-university-libraries/incunabula/internal/pipeline"
)

// inspectOptions controls what is printed per entry
type inspectOptions struct {
	limit       int
	interactive bool
	showText    bool
	showPages   bool
	maxChars    int
}

// NewInspectCmd creates the inspect command. cfg supplies the loaded
// configuration when entries are extracted on the fly.
func NewInspectCmd(cfg func() *config.Config) *cobra.Command {
	var entriesPath string
	opts := inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect [volume-dir]",
		Short: "Review detected entries one by one",
		Long: `Print catalogue entries for manual review, either from an exported
entries file (csv, parquet or jsonl) or by extracting a volume of page XML on
the fly.

Useful for checking heading detection and shelfmark assignment before a full
export.`,
		Example: `  # Review the first 5 entries of a volume interactively
  incunabula inspect ./bmc_volume_1 --limit 5 --interactive

  # Browse an exported file, headings only
  incunabula inspect --entries output/bmc_volume_1_entries.parquet --text=false

  # Every entry (no limit)
  incunabula inspect ./bmc_volume_1 --limit 0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create a context that gets canceled on an interrupt signal (Ctrl+C)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop() // Ensure the signal handler is cleaned up

			var (
				es     []*entries.Entry
				source string
				err    error
			)
			if entriesPath != "" {
				source = entriesPath
				es, err = export.ReadEntries(entriesPath)
			} else {
				c := cfg()
				source = c.Input
				if len(args) == 1 {
					source = args[0]
				}
				es, err = extractEntries(ctx, c, source)
			}
			if err != nil {
				return fmt.Errorf("failed to load entries: %w", err)
			}

			return executeInspect(ctx, cmd.OutOrStdout(), os.Stdin, source, es, opts)
		},
	}

	cmd.Flags().StringVar(&entriesPath, "entries", "", "Exported entries file to browse instead of extracting")
	cmd.Flags().String("reading-order", config.DefaultConfig().ReadingOrder, "Region reading order (interleaved, document)")
	cmd.Flags().IntVar(&opts.limit, "limit", 10, "Number of entries to inspect (0 for all)")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "Pause after each entry (press Enter to continue)")
	cmd.Flags().BoolVar(&opts.showText, "text", true, "Show entry text")
	cmd.Flags().BoolVar(&opts.showPages, "pages", true, "Show source pages and offsets")
	cmd.Flags().IntVar(&opts.maxChars, "max-chars", 500, "Truncate entry text after this many characters")

	return cmd
}

func extractEntries(ctx context.Context, cfg *config.Config, input string) ([]*entries.Entry, error) {
	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	res, err := p.ProcessVolume(ctx, input, cfg.Volume)
	if err != nil {
		return nil, err
	}
	return res.Entries, nil
}

func executeInspect(ctx context.Context, w io.Writer, in io.Reader, source string, es []*entries.Entry, opts inspectOptions) error {
	if opts.limit > 0 && len(es) > opts.limit {
		es = es[:opts.limit]
	}

	fmt.Fprintf(w, "Loaded %d entries from %s\n", len(es), source)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	reader := bufio.NewReader(in)

	for i, e := range es {
		// Check for context cancellation (e.g., Ctrl+C) at the start of each iteration
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil // Return nil for a clean exit
		default:
		}

		printEntry(w, i, len(es), e, opts)

		if opts.interactive {
			fmt.Fprint(w, "Press Enter to continue to next entry (or Ctrl+C to quit)...")

			// Channel to signal user input
			inputCh := make(chan struct{})
			go func() {
				_, _ = reader.ReadString('\n')
				close(inputCh)
			}()

			// Wait for either user input (Enter) or context cancellation (Ctrl+C)
			select {
			case <-ctx.Done():
				fmt.Fprintln(w, "\nInspection interrupted.")
				return nil
			case <-inputCh:
				fmt.Fprintln(w)
			}
		} else {
			fmt.Fprintln(w)
		}
	}

	return nil
}

func printEntry(w io.Writer, i, total int, e *entries.Entry, opts inspectOptions) {
	fmt.Fprintf(w, "ENTRY %d/%d (sequence %d)\n", i+1, total, e.Sequence)
	fmt.Fprintln(w, strings.Repeat("-", 80))

	shelfmark := e.ShelfmarkOrEmpty()
	if shelfmark == "" {
		shelfmark = "(none)"
	}
	fmt.Fprintf(w, "Shelfmark:      %s\n", shelfmark)
	fmt.Fprintf(w, "Heading:        %s\n", e.Heading)
	fmt.Fprintf(w, "Heading lines:  %v\n", e.HeadingIndices)
	fmt.Fprintf(w, "Lines:          %d (%d body)\n", len(e.Lines), e.BodyLen)

	if opts.showPages {
		fmt.Fprintf(w, "Pages:          %s\n", strings.Join(e.SourcePages, ", "))
		fmt.Fprintf(w, "Page offsets:   %v\n", e.PageStartOffsets)
	}

	if opts.showText {
		text := e.Text
		fmt.Fprintf(w, "Text Length:    %d characters, %d words (approx)\n", len(text), len(strings.Fields(text)))
		fmt.Fprintln(w)

		truncated := false
		if opts.maxChars > 0 && len(text) > opts.maxChars {
			text = text[:opts.maxChars]
			truncated = true
		}

		fmt.Fprintln(w, "ENTRY TEXT:")
		fmt.Fprintln(w, strings.Repeat("-", 80))
		fmt.Fprintln(w, text)
		if truncated {
			fmt.Fprintf(w, "\n[... truncated, showing first %d of %d characters ...]\n", opts.maxChars, len(e.Text))
		}
		fmt.Fprintln(w, strings.Repeat("-", 80))
	}
}
