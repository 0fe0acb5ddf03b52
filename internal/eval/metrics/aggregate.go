package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/incunabula/internal/eval/dataset"
	"github.com/lehigh-university-libraries/incunabula/internal/shelfmark"
)

// CategoryResult compares the labelled shelfmarks of one category with what
// the matcher finds across the whole index.
type CategoryResult struct {
	Category dataset.Category `json:"category"`
	// Expected is the number of records labelled with the category
	Expected int `json:"expected"`
	// Detected is the number of distinct shelfmarks the matcher returned
	Detected int `json:"detected"`

	SymmetricDifference []string `json:"symmetric_difference"`
	// Unexpected are differences not covered by the known errors
	Unexpected []string `json:"unexpected"`
	// Resolved are known errors that no longer occur
	Resolved []string `json:"resolved"`
	// Hints give the closest shelfmark for each unexpected difference
	Hints []Hint `json:"hints,omitempty"`

	Passed bool `json:"passed"`
}

// AggregateResults holds the evaluation of the matcher against an index
type AggregateResults struct {
	TotalRecords int              `json:"total_records"`
	Categories   []CategoryResult `json:"categories"`
	Passed       bool             `json:"passed"`

	// Metadata
	EvaluationDate time.Time `json:"evaluation_date"`
	IndexPath      string    `json:"index_path"`
}

// Detect runs the matcher the way each category is probed. C and G
// shelfmarks are catalogued inside parentheses, so the bare index value is
// prefixed with "(" to supply the opening boundary.
func Detect(m *shelfmark.Matcher, c dataset.Category, value string) (string, bool) {
	switch c {
	case dataset.CategoryC:
		return m.MatchAs(shelfmark.CForm, "("+value)
	case dataset.CategoryG:
		sm, ok := m.MatchAs(shelfmark.IGForm, "("+value)
		return sm, ok && strings.HasPrefix(sm, "G")
	case dataset.CategoryI:
		sm, ok := m.MatchAs(shelfmark.IGForm, value)
		return sm, ok && strings.HasPrefix(sm, "I")
	default:
		return "", false
	}
}

// Evaluate compares, per category, the set of labelled shelfmarks with the
// set of matcher outputs over every index record. A category passes when the
// symmetric difference equals its known errors exactly.
func Evaluate(records []dataset.IndexRecord, m *shelfmark.Matcher, known KnownErrors, indexPath string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(records),
		EvaluationDate: time.Now(),
		IndexPath:      indexPath,
		Passed:         true,
	}

	for _, c := range dataset.Categories {
		truth := make(map[string]bool)
		detected := make(map[string]bool)
		expected := 0

		for i := range records {
			rec := &records[i]
			if rec.In(c) {
				expected++
				truth[rec.Shelfmark] = true
			}
			if sm, ok := Detect(m, c, rec.Shelfmark); ok {
				detected[sm] = true
			}
		}

		result := CategoryResult{
			Category: c,
			Expected: expected,
			Detected: len(detected),
		}

		diff := make(map[string]bool)
		for sm := range truth {
			if !detected[sm] {
				diff[sm] = true
			}
		}
		for sm := range detected {
			if !truth[sm] {
				diff[sm] = true
			}
		}

		knownSet := make(map[string]bool, len(known[c]))
		for _, sm := range known[c] {
			knownSet[sm] = true
		}

		result.SymmetricDifference = sortedKeys(diff)
		truthList, detectedList := sortedKeys(truth), sortedKeys(detected)
		for _, sm := range result.SymmetricDifference {
			if knownSet[sm] {
				continue
			}
			result.Unexpected = append(result.Unexpected, sm)

			// compare against the side the shelfmark is missing from
			other := detectedList
			if detected[sm] {
				other = truthList
			}
			if near, score := nearest(sm, other); near != "" {
				result.Hints = append(result.Hints, Hint{Shelfmark: sm, Nearest: near, Similarity: score})
			}
		}
		for _, sm := range sortedKeys(knownSet) {
			if !diff[sm] {
				result.Resolved = append(result.Resolved, sm)
			}
		}

		result.Passed = len(result.Unexpected) == 0 && len(result.Resolved) == 0
		if !result.Passed {
			agg.Passed = false
		}
		agg.Categories = append(agg.Categories, result)
	}

	return agg
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PrintSummary prints a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "SHELFMARK EVALUATION SUMMARY")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Index: %s\n", a.IndexPath)
	fmt.Fprintf(w, "Total Records: %d\n", a.TotalRecords)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "CATEGORY RESULTS")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, c := range a.Categories {
		printCategory(w, c)
	}
	fmt.Fprintln(w)

	status := "PASS"
	if !a.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(w, "Overall: %s\n", status)
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

// printCategory prints statistics for a single category
func printCategory(w io.Writer, c CategoryResult) {
	status := "ok"
	if !c.Passed {
		status = "needs investigating"
	}
	fmt.Fprintf(w, "\n%s shelfmarks: %s\n", c.Category, status)
	fmt.Fprintf(w, "  Labelled: %d\n", c.Expected)
	fmt.Fprintf(w, "  Detected: %d\n", c.Detected)
	fmt.Fprintf(w, "  Differences: %d (%d unexpected, %d known errors resolved)\n",
		len(c.SymmetricDifference), len(c.Unexpected), len(c.Resolved))
	for _, sm := range c.Unexpected {
		fmt.Fprintf(w, "    + %s\n", sm)
	}
	for _, sm := range c.Resolved {
		fmt.Fprintf(w, "    - %s\n", sm)
	}
}

// SaveToJSON saves the aggregate results to a JSON file
func (a *AggregateResults) SaveToJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(a); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}

	return nil
}

// SaveDetailedReport saves every difference per category
func (a *AggregateResults) SaveDetailedReport(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "SHELFMARK EVALUATION DETAILED REPORT\n")
	fmt.Fprintf(file, "Generated: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Index: %s\n", a.IndexPath)
	separator := strings.Repeat("=", 80)
	fmt.Fprintf(file, "%s\n\n", separator)

	dash := strings.Repeat("-", 80)
	for _, c := range a.Categories {
		unexpected := make(map[string]bool, len(c.Unexpected))
		for _, sm := range c.Unexpected {
			unexpected[sm] = true
		}

		fmt.Fprintf(file, "CATEGORY %s (labelled %d, detected %d)\n", c.Category, c.Expected, c.Detected)
		fmt.Fprintf(file, "%s\n", dash)
		for _, sm := range c.SymmetricDifference {
			mark := "known"
			if unexpected[sm] {
				mark = "UNEXPECTED"
			}
			fmt.Fprintf(file, "  [%s] %s\n", mark, sm)
		}
		for _, sm := range c.Resolved {
			fmt.Fprintf(file, "  [resolved] %s\n", sm)
		}
		for _, h := range c.Hints {
			fmt.Fprintf(file, "  [hint] %s is closest to %s (%.0f%% similar)\n", h.Shelfmark, h.Nearest, h.Similarity*100)
		}
		fmt.Fprintf(file, "\n%s\n\n", separator)
	}

	return nil
}
