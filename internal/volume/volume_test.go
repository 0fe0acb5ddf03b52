package volume

import (
	"testing"

	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
)

func strPtr(s string) *string { return &s }

func page(id string, texts ...*string) *pagexml.Page {
	lines := make([]pagexml.TextLine, 0, len(texts))
	for _, t := range texts {
		lines = append(lines, pagexml.TextLine{Text: t})
	}
	return &pagexml.Page{
		ID: id,
		Regions: []pagexml.Region{
			{ChildCount: len(lines) + 2, Lines: lines},
		},
	}
}

func TestAggregate(t *testing.T) {
	pages := []*pagexml.Page{
		page("p1", strPtr("Test line 1"), strPtr("Test line 2"), strPtr("Test line 3")),
		page("p2", strPtr("Test line 4"), nil, strPtr("Test line 5"), strPtr("Test line 6")),
	}

	seq, dropped := Aggregate(pages, pagexml.NewExtractor(nil))

	if seq.Len() != 6 {
		t.Fatalf("Expected 6 lines, got %d", seq.Len())
	}
	if dropped != 1 {
		t.Errorf("Expected 1 dropped line, got %d", dropped)
	}
	if len(seq.Provenance) != seq.Len() {
		t.Fatalf("Expected provenance length %d, got %d", seq.Len(), len(seq.Provenance))
	}
	if seq.Texts()[5] != "Test line 6" {
		t.Errorf("Expected last line 'Test line 6', got %q", seq.Texts()[5])
	}

	for i := 0; i < 3; i++ {
		if seq.PageOf(i) != "p1" {
			t.Errorf("Expected line %d on p1, got %s", i, seq.PageOf(i))
		}
	}
	for i := 3; i < 6; i++ {
		if seq.PageOf(i) != "p2" {
			t.Errorf("Expected line %d on p2, got %s", i, seq.PageOf(i))
		}
	}
	if seq.Provenance[3].Line != "Test line 4" {
		t.Errorf("Expected provenance line text, got %q", seq.Provenance[3].Line)
	}
}

func TestAggregateEmptyPages(t *testing.T) {
	pages := []*pagexml.Page{
		{ID: "blank"},
		page("p2", strPtr("only line")),
	}

	seq, dropped := Aggregate(pages, pagexml.NewExtractor(nil))

	if seq.Len() != 1 || dropped != 0 {
		t.Errorf("Expected 1 line and no drops, got %d lines and %d drops", seq.Len(), dropped)
	}
	if seq.PageOf(0) != "p2" {
		t.Errorf("Expected line on p2, got %s", seq.PageOf(0))
	}
}

func TestAggregateNoPages(t *testing.T) {
	seq, dropped := Aggregate(nil, pagexml.NewExtractor(nil))
	if seq.Len() != 0 || dropped != 0 {
		t.Errorf("Expected empty sequence, got %d lines", seq.Len())
	}
}
