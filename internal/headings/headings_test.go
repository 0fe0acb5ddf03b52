package headings

import (
	"reflect"
	"testing"

	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
	"github.com/lehigh-university-libraries/incunabula/internal/shelfmark"
)

func lines(texts ...string) []pagexml.Line {
	out := make([]pagexml.Line, len(texts))
	for i, t := range texts {
		out[i] = pagexml.NewLine(t)
	}
	return out
}

func TestIsDateMarker(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1409", true},
		{"c. 1480.", true},
		{"[Venice, 1502]", true},
		{"Undated", true},
		{"0300", false},
		{"14099", false},
		{"1890", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsDateMarker(tt.input); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestHasCapitalRun(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"ABC", true},
		{"ABC def", true},
		{"ABCi", false},
		{"ABCDi", true},
		{"AB", false},
		{"IA. 1", false},
		{"SECOND title", true},
		{"second title", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := HasCapitalRun(tt.input); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestDetectAbortsOnNewShelfmark(t *testing.T) {
	d := NewDetector(shelfmark.New())

	res := d.Detect(lines("title text", "more text", "IA. 456", "IA. 789", "SECOND title", "1506"))

	if len(res.Windows) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(res.Windows))
	}
	w := res.Windows[0]
	if w.Shelfmark != "IA. 789" || w.Start != 3 {
		t.Errorf("Expected window for IA. 789 at 3, got %q at %d", w.Shelfmark, w.Start)
	}
	if !reflect.DeepEqual(w.Indices, []int{3, 4, 5}) {
		t.Errorf("Expected indices [3 4 5], got %v", w.Indices)
	}
	if !reflect.DeepEqual(res.Shelfmarks, []string{"IA. 789"}) {
		t.Errorf("Expected shelfmarks [IA. 789], got %v", res.Shelfmarks)
	}
}

func TestDetectRequiresCapitalRun(t *testing.T) {
	d := NewDetector(shelfmark.New())

	res := d.Detect(lines("title text", "more text", "IA. 456", "IA. 789", "second title", "1506"))

	if len(res.Windows) != 0 {
		t.Errorf("Expected no windows without a capital run, got %v", res.Windows)
	}
}

func TestDetectCapitalRunDoesNotSpanLines(t *testing.T) {
	d := NewDetector(shelfmark.New())

	res := d.Detect(lines("IA. 1", "AB", "Cx 1490", "body"))
	if len(res.Windows) != 0 {
		t.Errorf("Expected capitals split across lines not to count, got %v", res.Windows)
	}

	res = d.Detect(lines("IA. 1", "ABC", "x 1490", "body"))
	if len(res.Windows) != 1 {
		t.Errorf("Expected a window when one line holds the run, got %v", res.Windows)
	}
}

func TestDetectDateWithoutCapitalsKeepsScanning(t *testing.T) {
	d := NewDetector(shelfmark.New())

	res := d.Detect(lines("IA. 1", "title 1490", "FOO bar", "1491", "body"))

	if len(res.Windows) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(res.Windows))
	}
	if !reflect.DeepEqual(res.Windows[0].Indices, []int{0, 1, 2, 3}) {
		t.Errorf("Expected indices [0 1 2 3], got %v", res.Windows[0].Indices)
	}
}

func TestDetectWindowBound(t *testing.T) {
	filler := []string{"a", "b", "c", "d", "e", "f"}

	t.Run("date on seventh lookahead line", func(t *testing.T) {
		in := append([]string{"IA. 1", "TITLE"}, filler...)
		in[7] = "1490"
		res := NewDetector(shelfmark.New()).Detect(lines(in...))
		if len(res.Windows) != 1 {
			t.Fatalf("Expected 1 window, got %d", len(res.Windows))
		}
		if len(res.Windows[0].Indices) != MaxWindowLines {
			t.Errorf("Expected %d indices, got %d", MaxWindowLines, len(res.Windows[0].Indices))
		}
	})

	t.Run("date beyond the window", func(t *testing.T) {
		in := append([]string{"IA. 1", "TITLE"}, filler...)
		in = append(in, "1490")
		res := NewDetector(shelfmark.New()).Detect(lines(in...))
		if len(res.Windows) != 0 {
			t.Errorf("Expected no windows, got %v", res.Windows)
		}
	})
}

func TestDetectConsecutiveHeadings(t *testing.T) {
	d := NewDetector(shelfmark.New())

	res := d.Detect(lines("IA. 1", "ALPHA", "1490", "body", "IB. 2", "BETA", "Undated", "more body"))

	if len(res.Windows) != 2 {
		t.Fatalf("Expected 2 windows, got %d", len(res.Windows))
	}
	if res.Windows[0].Start != 0 || res.Windows[1].Start != 4 {
		t.Errorf("Expected starts 0 and 4, got %d and %d", res.Windows[0].Start, res.Windows[1].Start)
	}
	for i, w := range res.Windows {
		if len(w.Indices) < 1 || len(w.Indices) > MaxWindowLines {
			t.Errorf("Window %d has %d indices", i, len(w.Indices))
		}
		if w.EntryStart != w.Start+1 {
			t.Errorf("Expected entry start %d, got %d", w.Start+1, w.EntryStart)
		}
	}
	if got := res.HeadingText(1); got != "IB. 2BETAUndated" {
		t.Errorf("Expected joined heading text, got %q", got)
	}
}

func TestDetectNoHeadings(t *testing.T) {
	d := NewDetector(shelfmark.New())

	for _, in := range [][]pagexml.Line{nil, lines("plain", "text", "only")} {
		res := d.Detect(in)
		if len(res.Windows) != 0 || len(res.Shelfmarks) != 0 {
			t.Errorf("Expected empty result, got %v", res.Windows)
		}
		if len(res.Lines) != len(in) {
			t.Errorf("Expected %d corrected lines, got %d", len(in), len(res.Lines))
		}
	}
}

func TestBoughtInSwap(t *testing.T) {
	in := lines("IA. 1", "Bought in 1890", "TITLE of book", "1490", "body")

	res := NewDetector(shelfmark.New()).Detect(in)

	if len(res.Windows) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(res.Windows))
	}
	w := res.Windows[0]
	if !reflect.DeepEqual(w.Indices, []int{0, 2, 3}) {
		t.Errorf("Expected indices [0 2 3], got %v", w.Indices)
	}
	if w.EntryStart != 2 {
		t.Errorf("Expected entry start 2, got %d", w.EntryStart)
	}
	if res.Lines[0].String() != "Bought in 1890" || res.Lines[1].String() != "IA. 1" {
		t.Errorf("Expected swapped lines, got %q %q", res.Lines[0].String(), res.Lines[1].String())
	}
	if !reflect.DeepEqual(res.Origin, []int{1, 0, 2, 3, 4}) {
		t.Errorf("Expected origin [1 0 2 3 4], got %v", res.Origin)
	}
	if in[0].String() != "IA. 1" {
		t.Errorf("Expected input to be left untouched, got %q", in[0].String())
	}
}

func TestBoughtInSwapDisabled(t *testing.T) {
	res := NewDetector(shelfmark.New(), WithCorrectors()).Detect(
		lines("IA. 1", "Bought in 1890", "TITLE of book", "1490"))

	if len(res.Windows) != 1 {
		t.Fatalf("Expected 1 window, got %d", len(res.Windows))
	}
	if !reflect.DeepEqual(res.Windows[0].Indices, []int{0, 1, 2, 3}) {
		t.Errorf("Expected untouched indices, got %v", res.Windows[0].Indices)
	}
	if res.Lines[0].String() != "IA. 1" {
		t.Errorf("Expected no swap, got %q", res.Lines[0].String())
	}
}
