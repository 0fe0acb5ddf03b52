package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"golang.org/x/text/encoding/charmap"
)

// Loader handles loading of the shelfmark ground-truth index
type Loader struct {
	datasetPath string
	latin1      bool
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithUTF8 reads CSV input as UTF-8 instead of Latin-1
func WithUTF8() LoaderOption {
	return func(l *Loader) {
		l.latin1 = false
	}
}

// NewLoader creates a new index loader. The index is exported from the
// library system as Latin-1 CSV, so that is the default encoding.
func NewLoader(datasetPath string, opts ...LoaderOption) *Loader {
	l := &Loader{
		datasetPath: datasetPath,
		latin1:      true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads records from an index file (CSV or Parquet)
func (l *Loader) Load() ([]IndexRecord, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".csv":
		return l.loadCSV()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .csv)", ext)
	}
}

// loadCSV loads records from a CSV file
func (l *Loader) loadCSV() ([]IndexRecord, error) {
	slog.Debug("Opening CSV file", "path", l.datasetPath, "latin1", l.latin1)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if l.latin1 {
		r = charmap.ISO8859_1.NewDecoder().Reader(file)
	}

	records, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}

	slog.Debug("Finished reading CSV file", "total_records", len(records))
	return records, nil
}

// ReadCSV reads index records from UTF-8 CSV. Both the library's column
// headings and the short names (bll01_shelfmark, record_id) are accepted.
func ReadCSV(r io.Reader) ([]IndexRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read index header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	alias(cols, ColumnShelfmark, "bll01_shelfmark")
	alias(cols, ColumnRecordID, "record_id")

	if _, ok := cols["bll01_shelfmark"]; !ok {
		return nil, fmt.Errorf("index has no shelfmark column (%q)", ColumnShelfmark)
	}

	var records []IndexRecord
	for lineNum := 2; ; lineNum++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read index row %d: %w", lineNum, err)
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		rec := IndexRecord{
			Shelfmark: get("bll01_shelfmark"),
			RecordID:  get("record_id"),
		}
		flags := []struct {
			name   string
			target *bool
		}{
			{"c_sm", &rec.CShelfmark},
			{"i_sm", &rec.IShelfmark},
			{"g_sm", &rec.GShelfmark},
			{"uncaptured_sm", &rec.Uncaptured},
		}
		for _, f := range flags {
			v, err := parseFlag(get(f.name))
			if err != nil {
				return nil, fmt.Errorf("invalid %s at row %d: %w", f.name, lineNum, err)
			}
			*f.target = v
		}

		records = append(records, rec)
	}

	return records, nil
}

func alias(cols map[string]int, from, to string) {
	if i, ok := cols[from]; ok {
		if _, exists := cols[to]; !exists {
			cols[to] = i
		}
	}
}

func parseFlag(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// loadParquet loads records from a Parquet file
func (l *Loader) loadParquet() ([]IndexRecord, error) {
	slog.Debug("Opening Parquet file", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[IndexRecord](pf)
	defer reader.Close()

	var records []IndexRecord
	rows := make([]IndexRecord, 128) // Read in batches

	batchNum := 0
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			batchNum++
			records = append(records, rows[:n]...)
			slog.Debug("Read batch from Parquet", "batch", batchNum, "rows_in_batch", n, "total_rows_read", len(records))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_records", len(records), "total_batches", batchNum)

	return records, nil
}

// SaveParquet writes records to a Parquet file, e.g. to cache a converted CSV
// index.
func SaveParquet(path string, records []IndexRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	w := parquet.NewGenericWriter[IndexRecord](file)
	if _, err := w.Write(records); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
