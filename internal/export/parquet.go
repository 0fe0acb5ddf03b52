package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/incunabula/internal/entries"
)

// ParquetWriter writes one row per entry with list columns.
type ParquetWriter struct{}

func (ParquetWriter) Format() Format { return FormatParquet }

func (ParquetWriter) Write(dir, volume string, es []*entries.Entry) (string, error) {
	path := filepath.Join(dir, fileName(volume, FormatParquet))

	rows := make([]Record, 0, len(es))
	for _, e := range es {
		rec, err := NewRecord(e)
		if err != nil {
			return "", err
		}
		rows = append(rows, rec)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	w := parquet.NewGenericWriter[Record](file)
	if _, err := w.Write(rows); err != nil {
		return "", fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return path, nil
}

// ReadParquet reads entries written by ParquetWriter.
func ReadParquet(path string) ([]*entries.Entry, error) {
	slog.Debug("Opening Parquet file", "path", path)

	file, err := os.Open(path)
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

	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var out []*entries.Entry
	for {
		rows := make([]Record, 128)
		n, err := reader.Read(rows)
		for _, rec := range rows[:n] {
			e, convErr := rec.Entry()
			if convErr != nil {
				return nil, convErr
			}
			out = append(out, e)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "entries", len(out))
	return out, nil
}
