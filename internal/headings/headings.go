// Package headings finds catalogue-entry headings in a volume's line
// sequence.
//
// A heading starts on a line carrying a shelfmark and ends on a line carrying
// a date (a year 1400-1599, or "Undated"), provided the heading text so far
// holds a run of capitals. A heading spans at most MaxWindowLines lines; a
// second shelfmark inside that span abandons the first candidate.
package headings

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
	"github.com/lehigh-university-libraries/incunabula/internal/shelfmark"
)

// MaxWindowLines is the start line plus seven lookahead lines.
const MaxWindowLines = 8

const undated = "Undated"

var (
	datePattern = regexp.MustCompile(`(?:^|\D)1[45]\d\d(?:\D|$)`)
	capsPattern = regexp.MustCompile(`[A-Z]+`)
)

// IsDateMarker reports whether a line can close a heading.
func IsDateMarker(text string) bool {
	return datePattern.MatchString(text) || strings.Contains(text, undated)
}

// HasCapitalRun reports whether text holds three or more consecutive capitals
// not directly followed by a lowercase "i".
func HasCapitalRun(text string) bool {
	for _, loc := range capsPattern.FindAllStringIndex(text, -1) {
		n := loc[1] - loc[0]
		if n >= 4 {
			return true
		}
		if n == 3 && (loc[1] == len(text) || text[loc[1]] != 'i') {
			return true
		}
	}
	return false
}

// Window is the run of lines judged to form one heading.
type Window struct {
	Shelfmark string `json:"shelfmark"`
	Start     int    `json:"start"`
	Indices   []int  `json:"indices"`
	// EntryStart is the first line after the heading's shelfmark line in the
	// corrected sequence. The shelfmark line itself closes the previous entry.
	EntryStart int `json:"entry_start"`
}

// Result is the outcome of one detection pass. Shelfmarks and Windows are
// parallel and in line order. Lines is the corrected copy of the input and
// Origin maps each corrected position back to its input position.
type Result struct {
	Shelfmarks []string
	Windows    []Window
	Lines      []pagexml.Line
	Origin     []int
}

// HeadingText joins the lines of window i.
func (r *Result) HeadingText(i int) string {
	w := r.Windows[i]
	parts := make([]string, 0, len(w.Indices))
	for _, idx := range w.Indices {
		parts = append(parts, r.Lines[idx].String())
	}
	return strings.Join(parts, "")
}

type scanState int

const (
	scanning scanState = iota
	terminatedByShelfmark
	terminatedByDate
	exhausted
)

func (s scanState) String() string {
	switch s {
	case scanning:
		return "scanning"
	case terminatedByShelfmark:
		return "terminated_by_shelfmark"
	case terminatedByDate:
		return "terminated_by_date"
	default:
		return "exhausted"
	}
}

// Detector runs the heading scan.
type Detector struct {
	matcher    *shelfmark.Matcher
	correctors []Corrector
}

// Option configures a Detector.
type Option func(*Detector)

// WithCorrectors replaces the default corrector list. Pass none to disable
// corrections.
func WithCorrectors(correctors ...Corrector) Option {
	return func(d *Detector) {
		d.correctors = correctors
	}
}

// NewDetector creates a detector that applies BoughtInSwap unless configured
// otherwise.
func NewDetector(matcher *shelfmark.Matcher, opts ...Option) *Detector {
	d := &Detector{
		matcher:    matcher,
		correctors: []Corrector{BoughtInSwap{}},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect scans lines forward once. The input slice is not modified.
func (d *Detector) Detect(lines []pagexml.Line) *Result {
	res := &Result{
		Lines:  make([]pagexml.Line, len(lines)),
		Origin: make([]int, len(lines)),
	}
	copy(res.Lines, lines)
	for i := range res.Origin {
		res.Origin[i] = i
	}

	counts := make(map[scanState]int)
	corrected := 0

	for i := 0; i < len(lines); {
		sm, ok := d.matcher.Match(lines[i].String())
		if !ok {
			i++
			continue
		}

		state, indices := d.scan(lines, i)
		counts[state]++

		if state == terminatedByDate {
			w := Window{
				Shelfmark:  sm,
				Start:      i,
				Indices:    indices,
				EntryStart: i + 1,
			}
			for _, c := range d.correctors {
				if c.Correct(res.Lines, res.Origin, &w) {
					corrected++
					slog.Debug("Corrected heading", "corrector", c.Name(), "shelfmark", sm, "start", i)
				}
			}
			res.Windows = append(res.Windows, w)
			res.Shelfmarks = append(res.Shelfmarks, sm)
		}

		// Lookahead lines hold no shelfmark, so none of them can start a
		// heading; an aborted scan resumes on the line that aborted it.
		i = indices[len(indices)-1] + 1
	}

	slog.Debug("Heading detection finished",
		"lines", len(lines),
		"windows", len(res.Windows),
		"aborted", counts[terminatedByShelfmark],
		"exhausted", counts[exhausted],
		"corrected", corrected)

	return res
}

// scan accumulates lookahead lines after start until a new shelfmark, a date
// marker with a capital run in the accumulated text, or the window bound.
func (d *Detector) scan(lines []pagexml.Line, start int) (scanState, []int) {
	indices := []int{start}
	text := lines[start].String()

	for j := 1; j < MaxWindowLines && start+j < len(lines); j++ {
		part := lines[start+j].String()
		if d.matcher.Contains(part) {
			return terminatedByShelfmark, indices
		}

		text += "\n" + part
		indices = append(indices, start+j)

		if IsDateMarker(part) && HasCapitalRun(text) {
			return terminatedByDate, indices
		}
	}

	return exhausted, indices
}
