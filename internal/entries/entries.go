// Package entries turns detected heading windows into catalogue-entry records.
package entries

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/incunabula/internal/headings"
	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
	"github.com/lehigh-university-libraries/incunabula/internal/shelfmark"
	"github.com/lehigh-university-libraries/incunabula/internal/volume"
)

// Entry is one catalogue entry of a volume.
type Entry struct {
	Volume           string              `json:"volume,omitempty"`
	Sequence         int                 `json:"entry_sequence_number"`
	Shelfmark        *string             `json:"shelfmark"`
	Heading          string              `json:"heading"`
	Lines            []string            `json:"entry_lines"`
	Text             string              `json:"entry_text"`
	SourcePages      []string            `json:"source_pages"`
	PageStartOffsets []int               `json:"page_start_offsets"`
	HeadingIndices   []int               `json:"heading_window_indices"`
	WordLocations    [][][]pagexml.Point `json:"word_locations"`

	// BodyLen counts the lines before the next heading's shelfmark line.
	BodyLen int `json:"body_len"`
}

// Body returns the entry lines without the trailing heading line that closes
// the entry.
func (e *Entry) Body() []string {
	if e.BodyLen > len(e.Lines) {
		return e.Lines
	}
	return e.Lines[:e.BodyLen]
}

// ShelfmarkOrEmpty returns the shelfmark, or "" for an entry without one.
func (e *Entry) ShelfmarkOrEmpty() string {
	if e.Shelfmark == nil {
		return ""
	}
	return *e.Shelfmark
}

// FirstPage returns the page the entry starts on.
func (e *Entry) FirstPage() string {
	if len(e.SourcePages) == 0 {
		return ""
	}
	return e.SourcePages[0]
}

// SplitWordLocations slices the word locations per source page using the
// page start offsets. The result is parallel to SourcePages.
func (e *Entry) SplitWordLocations() [][][][]pagexml.Point {
	out := make([][][][]pagexml.Point, 0, len(e.PageStartOffsets))
	prev := 0
	for _, end := range e.PageStartOffsets {
		if end > len(e.WordLocations) {
			end = len(e.WordLocations)
		}
		if prev > end {
			prev = end
		}
		out = append(out, e.WordLocations[prev:end])
		prev = end
	}
	return out
}

// PageLines returns the entry lines that came from page i of SourcePages.
func (e *Entry) PageLines(i int) []string {
	start := 0
	if i > 0 {
		start = e.PageStartOffsets[i-1]
	}
	return e.Lines[start:e.PageStartOffsets[i]]
}

// Assembler builds entries from a detection result.
type Assembler struct {
	matcher *shelfmark.Matcher
}

// NewAssembler returns an assembler that uses matcher to name the final entry.
func NewAssembler(matcher *shelfmark.Matcher) *Assembler {
	return &Assembler{matcher: matcher}
}

// Assemble slices the corrected lines of res between consecutive heading
// windows. Entry i runs from window i's entry start up to window i+1's and
// takes window i+1's shelfmark; the last entry runs to the end of the volume
// and is named by matching its own text. seq provides page provenance for the
// uncorrected positions. No windows yields no entries.
func (a *Assembler) Assemble(volumeName string, seq *volume.Sequence, res *headings.Result) []*Entry {
	n := len(res.Windows)
	if n == 0 {
		return nil
	}

	out := make([]*Entry, 0, n)
	for i, w := range res.Windows {
		var (
			end int
			sm  *string
		)
		if i+1 < n {
			end = res.Windows[i+1].EntryStart
			s := res.Shelfmarks[i+1]
			sm = &s
		} else {
			end = len(res.Lines)
		}

		start := w.EntryStart
		if start > end {
			start = end
		}

		e := a.build(seq, res, start, end)
		e.BodyLen = len(e.Lines)
		if i+1 < n {
			e.BodyLen = max(0, res.Windows[i+1].Start-start)
		}
		e.Volume = volumeName
		e.Sequence = i
		e.Heading = res.HeadingText(i)
		e.HeadingIndices = w.Indices

		if sm == nil {
			if s, ok := a.matcher.Match(e.Text); ok {
				sm = &s
			} else {
				slog.Warn("Final entry has no shelfmark", "volume", volumeName, "sequence", i, "lines", len(e.Lines))
			}
		}
		e.Shelfmark = sm

		out = append(out, e)
	}

	slog.Debug("Assembled entries", "volume", volumeName, "entries", len(out))
	return out
}

func (a *Assembler) build(seq *volume.Sequence, res *headings.Result, start, end int) *Entry {
	e := &Entry{
		Lines:         make([]string, 0, end-start),
		WordLocations: make([][][]pagexml.Point, 0, end-start),
	}

	for pos := start; pos < end; pos++ {
		line := res.Lines[pos]
		e.Lines = append(e.Lines, line.String())
		e.WordLocations = append(e.WordLocations, line.Points)

		page := seq.PageOf(res.Origin[pos])
		last := len(e.SourcePages) - 1
		// A swapped heading line can step back onto an earlier page; it is
		// counted with the current run so pages stay distinct.
		if last >= 0 && slices.Contains(e.SourcePages, page) {
			e.PageStartOffsets[last]++
			continue
		}
		prev := 0
		if last >= 0 {
			prev = e.PageStartOffsets[last]
		}
		e.SourcePages = append(e.SourcePages, page)
		e.PageStartOffsets = append(e.PageStartOffsets, prev+1)
	}

	e.Text = strings.Join(e.Lines, "\n")
	return e
}
