package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/incunabula/internal/entries"
)

// ReadEntries loads an entries file written by the CSV, Parquet or JSONL
// writer, picking the reader from the file extension.
func ReadEntries(path string) ([]*entries.Entry, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".parquet":
		return ReadParquet(path)
	case ".csv", ".jsonl", ".json":
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .csv, .jsonl)", ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open entries file: %w", err)
	}
	defer file.Close()

	if ext == ".csv" {
		return ReadCSV(file)
	}
	return ReadJSONL(file)
}
