package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/incunabula/internal/entries"
	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
)

func strPtr(s string) *string { return &s }

func sampleEntries() []*entries.Entry {
	return []*entries.Entry{
		{
			Volume:           "BMC_1",
			Sequence:         0,
			Shelfmark:        strPtr("IB. 2"),
			Heading:          "IA. 1ALPHA1490",
			Lines:            []string{"ALPHA", "1490", "first body", "IB. 2"},
			Text:             "ALPHA\n1490\nfirst body\nIB. 2",
			SourcePages:      []string{"p1", "p2"},
			PageStartOffsets: []int{3, 4},
			HeadingIndices:   []int{1, 2, 3},
			BodyLen:          3,
			WordLocations: [][][]pagexml.Point{
				{{{X: 1, Y: 2}, {X: 3, Y: 4}}},
				nil,
				{{{X: 5, Y: 6}}},
				nil,
			},
		},
		{
			Volume:           "BMC_1",
			Sequence:         1,
			Heading:          "IB. 2BETAUndated",
			Lines:            []string{"BETA", "Undated", "second body"},
			Text:             "BETA\nUndated\nsecond body",
			SourcePages:      []string{"p2"},
			PageStartOffsets: []int{3},
			HeadingIndices:   []int{5, 6, 7},
			BodyLen:          3,
			WordLocations:    [][][]pagexml.Point{nil, nil, nil},
		},
	}
}

func assertRoundTrip(t *testing.T, expected, got []*entries.Entry) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("Expected %d entries, got %d", len(expected), len(got))
	}
	for i := range expected {
		e, g := expected[i], got[i]
		if g.ShelfmarkOrEmpty() != e.ShelfmarkOrEmpty() {
			t.Errorf("Entry %d: expected shelfmark %q, got %q", i, e.ShelfmarkOrEmpty(), g.ShelfmarkOrEmpty())
		}
		if (g.Shelfmark == nil) != (e.Shelfmark == nil) {
			t.Errorf("Entry %d: expected nil shelfmark %v", i, e.Shelfmark == nil)
		}
		if !reflect.DeepEqual(g.Lines, e.Lines) {
			t.Errorf("Entry %d: expected lines %v, got %v", i, e.Lines, g.Lines)
		}
		if !reflect.DeepEqual(g.SourcePages, e.SourcePages) || !reflect.DeepEqual(g.PageStartOffsets, e.PageStartOffsets) {
			t.Errorf("Entry %d: expected pages %v %v, got %v %v", i, e.SourcePages, e.PageStartOffsets, g.SourcePages, g.PageStartOffsets)
		}
		if !reflect.DeepEqual(g.HeadingIndices, e.HeadingIndices) {
			t.Errorf("Entry %d: expected heading indices %v, got %v", i, e.HeadingIndices, g.HeadingIndices)
		}
		if g.Text != e.Text || g.Sequence != e.Sequence || g.BodyLen != e.BodyLen {
			t.Errorf("Entry %d: scalar fields differ: %+v", i, g)
		}
		if len(g.WordLocations) != len(e.WordLocations) {
			t.Errorf("Entry %d: expected %d word location lines, got %d", i, len(e.WordLocations), len(g.WordLocations))
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []Format
		wantErr  bool
	}{
		{name: "default", input: nil, expected: []Format{FormatCSV}},
		{name: "comma separated", input: []string{"csv, parquet"}, expected: []Format{FormatCSV, FormatParquet}},
		{name: "repeated and duplicated", input: []string{"jsonl", "XML", "jsonl"}, expected: []Format{FormatJSONL, FormatXML}},
		{name: "all", input: []string{"all"}, expected: AllFormats},
		{name: "unknown", input: []string{"xlsx"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormats(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleEntries()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][4] != `["p1","p2"]` {
		t.Errorf("Expected JSON list column, got %q", rows[1][4])
	}
	if rows[2][2] != "" {
		t.Errorf("Expected empty shelfmark cell, got %q", rows[2][2])
	}

	got, err := ReadCSV(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	assertRoundTrip(t, sampleEntries(), got)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("volume,shelfmark\nBMC_1,IA. 1\n"))
	if err == nil || !strings.Contains(err.Error(), "missing CSV column") {
		t.Errorf("Expected missing column error, got %v", err)
	}
}

func TestExportAndReadBack(t *testing.T) {
	dir := t.TempDir()

	paths, err := Export(dir, "BMC_1", []Format{FormatCSV, FormatParquet, FormatJSONL}, sampleEntries())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("Expected 3 paths, got %d", len(paths))
	}

	for _, path := range paths {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			got, err := ReadEntries(path)
			if err != nil {
				t.Fatalf("ReadEntries failed: %v", err)
			}
			assertRoundTrip(t, sampleEntries(), got)
		})
	}
}

func TestReadEntriesUnsupported(t *testing.T) {
	if _, err := ReadEntries("entries.xlsx"); err == nil {
		t.Error("Expected unsupported format error")
	}
}

func TestHeadingsXML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeadingsXML(&buf, sampleEntries()); err != nil {
		t.Fatalf("WriteHeadingsXML failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<text>",
		`<catalogue_entry SHELFMARK="IB. 2" HEADING="IA. 1ALPHA1490">`,
		`<line CONTENT="first body"></line>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, `CONTENT="IB. 2"`) {
		t.Errorf("Expected closing shelfmark line to be left out:\n%s", out)
	}
	if strings.Count(out, "<catalogue_entry") != 2 {
		t.Errorf("Expected 2 catalogue entries:\n%s", out)
	}
}

func TestTextWriter(t *testing.T) {
	dir := t.TempDir()

	outDir, err := TextWriter{}.Write(dir, "BMC_1", sampleEntries())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "p1_IB_2.txt"))
	if err != nil {
		t.Fatalf("Expected per-entry text file: %v", err)
	}
	if string(data) != "ALPHA\n1490\nfirst body\n" {
		t.Errorf("Unexpected text file content %q", string(data))
	}

	if _, err := os.Stat(filepath.Join(outDir, "p2_entry1.txt")); err != nil {
		t.Errorf("Expected file for entry without shelfmark: %v", err)
	}
}

func TestTextWriterKeepsRepeatedNames(t *testing.T) {
	sm := "IA. 7"
	es := []*entries.Entry{
		{Sequence: 0, Shelfmark: &sm, Lines: []string{"first"}, SourcePages: []string{"p1"}, BodyLen: 1},
		{Sequence: 1, Shelfmark: &sm, Lines: []string{"second"}, SourcePages: []string{"p1"}, BodyLen: 1},
	}

	outDir, err := TextWriter{}.Write(t.TempDir(), "BMC_1", es)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := map[string]string{
		"p1_IA_7.txt":   "first\n",
		"p1_IA_7_1.txt": "second\n",
	}
	for name, content := range expected {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
			continue
		}
		if string(data) != content {
			t.Errorf("%s: expected %q, got %q", name, content, string(data))
		}
	}
}

func TestCleanShelfmark(t *testing.T) {
	tests := map[string]string{
		"IA. 33":         "IA_33",
		"C. 1. d. 2":     "C_1_d_2",
		"IB. 22635/7":    "IB_22635-7",
		"G. 7726. (1. )": "G_7726_(1_)",
	}
	for in, expected := range tests {
		if got := CleanShelfmark(in); got != expected {
			t.Errorf("CleanShelfmark(%q): expected %q, got %q", in, expected, got)
		}
	}
}
