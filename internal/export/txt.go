package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/incunabula/internal/entries"
)

// TextWriter writes each entry's body to <page>_<shelfmark>.txt inside a
// per-volume directory. A name already used in the same volume gets the
// entry's sequence number appended.
type TextWriter struct{}

func (TextWriter) Format() Format { return FormatTXT }

func (TextWriter) Write(dir, volume string, es []*entries.Entry) (string, error) {
	name := volume
	if name == "" {
		name = "catalogue"
	}
	outDir := filepath.Join(dir, name+"_txt")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create text directory: %w", err)
	}

	taken := make(map[string]bool, len(es))
	for _, e := range es {
		fileName := TextFileName(e)
		if taken[fileName] {
			// repeated heading on the same page
			fileName = fmt.Sprintf("%s_%d.txt", strings.TrimSuffix(fileName, ".txt"), e.Sequence)
		}
		taken[fileName] = true

		path := filepath.Join(outDir, fileName)
		if err := writeLines(path, e.Body()); err != nil {
			return "", err
		}
	}
	return outDir, nil
}

// TextFileName is the per-entry file name. Entries without a shelfmark are
// named by their sequence number.
func TextFileName(e *entries.Entry) string {
	sm := CleanShelfmark(e.ShelfmarkOrEmpty())
	if sm == "" {
		sm = fmt.Sprintf("entry%d", e.Sequence)
	}
	page := e.FirstPage()
	if page == "" {
		return sm + ".txt"
	}
	return page + "_" + sm + ".txt"
}

// CleanShelfmark makes a shelfmark usable in a file name: periods become
// underscores, whitespace is removed and path separators are replaced.
func CleanShelfmark(sm string) string {
	sm = strings.ReplaceAll(sm, ".", "_")
	sm = strings.Join(strings.Fields(sm), "")
	return strings.NewReplacer("/", "-", `\`, "-").Replace(sm)
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create text file: %w", err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
