package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/incunabula/internal/entries"
)

// JSONLWriter writes one JSON object per line, keeping word locations nested.
type JSONLWriter struct{}

func (JSONLWriter) Format() Format { return FormatJSONL }

func (JSONLWriter) Write(dir, volume string, es []*entries.Entry) (string, error) {
	path := filepath.Join(dir, fileName(volume, FormatJSONL))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create JSONL file: %w", err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	enc := json.NewEncoder(bw)
	for _, e := range es {
		if err := enc.Encode(e); err != nil {
			return "", fmt.Errorf("failed to encode entry %d: %w", e.Sequence, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush JSONL file: %w", err)
	}
	return path, nil
}

// ReadJSONL reads entries written by JSONLWriter.
func ReadJSONL(r io.Reader) ([]*entries.Entry, error) {
	scanner := bufio.NewScanner(r)

	// Entries with many word polygons make long lines
	const maxCapacity = 10 * 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	var out []*entries.Entry
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e entries.Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		out = append(out, &e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading entries: %w", err)
	}
	return out, nil
}
