package headings

import (
	"strings"

	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
)

// Corrector adjusts an accepted window. It may rearrange lines and origin in
// place but must keep them the same length and in step with each other.
type Corrector interface {
	Name() string
	Correct(lines []pagexml.Line, origin []int, w *Window) bool
}

const boughtIn = "Bought in"

// BoughtInSwap handles headings whose acquisition note ("Bought in ...") was
// recognised before the shelfmark line. The note is swapped ahead of the
// shelfmark and dropped from the heading, so the entry body starts after the
// shelfmark line.
type BoughtInSwap struct{}

func (BoughtInSwap) Name() string { return "bought_in" }

func (BoughtInSwap) Correct(lines []pagexml.Line, origin []int, w *Window) bool {
	if len(w.Indices) < 2 {
		return false
	}
	second := w.Indices[1]
	if !strings.Contains(lines[second].String(), boughtIn) {
		return false
	}

	lines[w.Start], lines[second] = lines[second], lines[w.Start]
	origin[w.Start], origin[second] = origin[second], origin[w.Start]

	indices := make([]int, 0, len(w.Indices)-1)
	indices = append(indices, w.Start)
	indices = append(indices, w.Indices[2:]...)
	w.Indices = indices
	w.EntryStart = second + 1
	return true
}
