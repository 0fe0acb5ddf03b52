package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lehigh-university-libraries/incunabula/internal/entries"
)

var csvHeader = []string{
	"volume",
	"entry_sequence_number",
	"shelfmark",
	"heading",
	"source_pages",
	"page_start_offsets",
	"entry_lines",
	"heading_window_indices",
	"entry_text",
	"body_len",
	"word_locations",
}

// CSVWriter writes one row per entry. List columns hold JSON arrays and an
// entry without a shelfmark has an empty shelfmark cell.
type CSVWriter struct{}

func (CSVWriter) Format() Format { return FormatCSV }

func (CSVWriter) Write(dir, volume string, es []*entries.Entry) (string, error) {
	path := filepath.Join(dir, fileName(volume, FormatCSV))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, es); err != nil {
		return "", err
	}
	return path, nil
}

// WriteCSV writes es as CSV to w.
func WriteCSV(w io.Writer, es []*entries.Entry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range es {
		rec, err := NewRecord(e)
		if err != nil {
			return err
		}
		row, err := csvRow(rec)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(r Record) ([]string, error) {
	lists := make([]string, 0, 4)
	for _, v := range []any{r.SourcePages, r.PageStartOffsets, r.EntryLines, r.HeadingWindowIndices} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode CSV list column: %w", err)
		}
		lists = append(lists, string(data))
	}

	shelfmark := ""
	if r.Shelfmark != nil {
		shelfmark = *r.Shelfmark
	}

	return []string{
		r.Volume,
		strconv.FormatInt(r.EntrySequenceNumber, 10),
		shelfmark,
		r.Heading,
		lists[0],
		lists[1],
		lists[2],
		lists[3],
		r.EntryText,
		strconv.FormatInt(r.BodyLen, 10),
		r.WordLocations,
	}, nil
}

// ReadCSV reads entries written by WriteCSV.
func ReadCSV(r io.Reader) ([]*entries.Entry, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range csvHeader {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing CSV column: %s", name)
		}
	}

	var out []*entries.Entry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}

		rec, err := recordFromRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV row %d: %w", line, err)
		}
		e, err := rec.Entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func recordFromRow(row []string, cols map[string]int) (Record, error) {
	get := func(name string) string { return row[cols[name]] }

	seq, err := strconv.ParseInt(get("entry_sequence_number"), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid entry_sequence_number: %w", err)
	}
	bodyLen, err := strconv.ParseInt(get("body_len"), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid body_len: %w", err)
	}

	rec := Record{
		Volume:              get("volume"),
		EntrySequenceNumber: seq,
		Heading:             get("heading"),
		EntryText:           get("entry_text"),
		BodyLen:             bodyLen,
		WordLocations:       get("word_locations"),
	}
	if sm := get("shelfmark"); sm != "" {
		rec.Shelfmark = &sm
	}

	targets := map[string]any{
		"source_pages":           &rec.SourcePages,
		"page_start_offsets":     &rec.PageStartOffsets,
		"entry_lines":            &rec.EntryLines,
		"heading_window_indices": &rec.HeadingWindowIndices,
	}
	for name, target := range targets {
		if err := json.Unmarshal([]byte(get(name)), target); err != nil {
			return Record{}, fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return rec, nil
}
