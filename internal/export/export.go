// Package export writes catalogue entries to disk and reads them back.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/incunabula/internal/entries"
)

// Format names an output format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatJSONL   Format = "jsonl"
	FormatXML     Format = "xml"
	FormatTXT     Format = "txt"
)

// AllFormats lists every supported format.
var AllFormats = []Format{FormatCSV, FormatParquet, FormatJSONL, FormatXML, FormatTXT}

// Writer writes the entries of one volume into dir and returns the path it
// wrote (a file, or a directory for per-entry formats).
type Writer interface {
	Format() Format
	Write(dir, volume string, es []*entries.Entry) (string, error)
}

// ParseFormats parses a comma separated or repeated list of format names.
// "all" selects every format.
func ParseFormats(values []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			if name == "all" {
				return AllFormats, nil
			}
			f := Format(name)
			if _, err := NewWriter(f); err != nil {
				return nil, err
			}
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}

	if len(out) == 0 {
		return []Format{FormatCSV}, nil
	}
	return out, nil
}

// NewWriter returns the writer for a format.
func NewWriter(f Format) (Writer, error) {
	switch f {
	case FormatCSV:
		return CSVWriter{}, nil
	case FormatParquet:
		return ParquetWriter{}, nil
	case FormatJSONL:
		return JSONLWriter{}, nil
	case FormatXML:
		return XMLWriter{}, nil
	case FormatTXT:
		return TextWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: csv, parquet, jsonl, xml, txt)", f)
	}
}

// Export writes es in every requested format and returns the written paths.
func Export(dir, volume string, formats []Format, es []*entries.Entry) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		w, err := NewWriter(f)
		if err != nil {
			return nil, err
		}
		path, err := w.Write(dir, volume, es)
		if err != nil {
			return nil, fmt.Errorf("failed to write %s output: %w", f, err)
		}
		slog.Info("Wrote entries", "format", f, "path", path, "entries", len(es))
		paths = append(paths, path)
	}
	return paths, nil
}

// fileName returns the base name for a volume's single-file outputs.
func fileName(volume string, f Format) string {
	if volume == "" {
		volume = "catalogue"
	}
	return fmt.Sprintf("%s_entries.%s", volume, f)
}
