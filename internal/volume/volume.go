// Package volume flattens the pages of one catalogue volume into a single
// line sequence with page provenance.
package volume

import (
	"log/slog"

	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
)

// Provenance records which page produced a line of the sequence.
type Provenance struct {
	PageID string `json:"page_id"`
	Line   string `json:"line"`
}

// Sequence is the flat, 0-indexed line sequence of a volume. Lines and
// Provenance always have the same length and Provenance[i] names the page
// that produced Lines[i].
type Sequence struct {
	Lines      []pagexml.Line
	Provenance []Provenance
}

// Len returns the number of lines in the sequence.
func (s *Sequence) Len() int {
	return len(s.Lines)
}

// PageOf returns the page that produced line i.
func (s *Sequence) PageOf(i int) string {
	return s.Provenance[i].PageID
}

// Texts returns the line texts.
func (s *Sequence) Texts() []string {
	return pagexml.Texts(s.Lines)
}

// Aggregate extracts the lines of each page in the given order and
// concatenates them. Null lines are removed here, once, so that every
// position in the returned sequence is stable for heading detection; the
// number of dropped lines is returned alongside.
func Aggregate(pages []*pagexml.Page, ex *pagexml.Extractor) (*Sequence, int) {
	seq := &Sequence{}
	dropped := 0

	for _, page := range pages {
		lines := ex.Lines(page)
		kept := 0
		for _, line := range lines {
			if !line.HasText() {
				dropped++
				continue
			}
			seq.Lines = append(seq.Lines, line)
			seq.Provenance = append(seq.Provenance, Provenance{PageID: page.ID, Line: *line.Text})
			kept++
		}
		slog.Debug("Aggregated page", "page", page.ID, "lines", kept, "null_lines", len(lines)-kept)
	}

	return seq, dropped
}
