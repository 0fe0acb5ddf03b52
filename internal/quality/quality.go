// Package quality flags pages whose recognised lines are unusually long, which
// is how a badly segmented scan shows up in the line output.
package quality

import (
	"bufio"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
)

// ReportFile is the name of the flagged-page listing.
const ReportFile = "poorlyscanned.txt"

const (
	DefaultThreshold   = 2.0
	DefaultMaxOutliers = 5
)

// Options tune the outlier test. A line is an outlier when the z-score of its
// word count exceeds Threshold; a page is flagged when it has more than
// MaxOutliers outlier lines.
type Options struct {
	Threshold   float64
	MaxOutliers int
}

// DefaultOptions returns the thresholds used for the printed catalogue.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, MaxOutliers: DefaultMaxOutliers}
}

// PageScore is the outcome for one page.
type PageScore struct {
	PageID   string `json:"page_id"`
	Lines    int    `json:"lines"`
	Outliers int    `json:"outliers"`
	Flagged  bool   `json:"flagged"`
}

// Report holds the volume statistics and per-page scores.
type Report struct {
	Mean   float64     `json:"mean"`
	StdDev float64     `json:"std_dev"`
	Pages  []PageScore `json:"pages"`
}

// Flagged returns the IDs of flagged pages in page order.
func (r *Report) Flagged() []string {
	var out []string
	for _, p := range r.Pages {
		if p.Flagged {
			out = append(out, p.PageID)
		}
	}
	return out
}

// Assess scores every page against the word-count distribution of the whole
// volume. Null lines are ignored.
func Assess(pages []*pagexml.Page, ex *pagexml.Extractor, opts Options) *Report {
	perPage := make([][]int, len(pages))
	var all []int
	for i, page := range pages {
		for _, line := range ex.Lines(page) {
			if !line.HasText() {
				continue
			}
			n := len(strings.Fields(*line.Text))
			perPage[i] = append(perPage[i], n)
			all = append(all, n)
		}
	}

	mean, std := meanStd(all)
	report := &Report{Mean: mean, StdDev: std, Pages: make([]PageScore, 0, len(pages))}

	for i, page := range pages {
		score := PageScore{PageID: page.ID, Lines: len(perPage[i])}
		if std > 0 {
			for _, n := range perPage[i] {
				if (float64(n)-mean)/std > opts.Threshold {
					score.Outliers++
				}
			}
		}
		score.Flagged = score.Outliers > opts.MaxOutliers
		if score.Flagged {
			slog.Debug("Page flagged as poorly scanned", "page", page.ID, "outliers", score.Outliers)
		}
		report.Pages = append(report.Pages, score)
	}

	slog.Info("Assessed scan quality", "pages", len(pages), "flagged", len(report.Flagged()), "mean_words", mean, "std_words", std)
	return report
}

// meanStd returns the mean and population standard deviation.
func meanStd(values []int) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// Save writes the flagged page IDs, one per line, to dir/poorlyscanned.txt.
func Save(dir string, report *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, ReportFile)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create quality report: %w", err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	for _, id := range report.Flagged() {
		if _, err := bw.WriteString(id + "\n"); err != nil {
			return "", fmt.Errorf("failed to write quality report: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("failed to write quality report: %w", err)
	}
	return path, nil
}
