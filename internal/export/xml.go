package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/incunabula/internal/entries"
)

// HeadingsFileName is the name of a volume's headings document.
func HeadingsFileName(volume string) string {
	if volume == "" {
		return "headings.xml"
	}
	return volume + "_headings.xml"
}

type headingsDoc struct {
	XMLName xml.Name       `xml:"text"`
	Entries []headingEntry `xml:"catalogue_entry"`
}

type headingEntry struct {
	Shelfmark string        `xml:"SHELFMARK,attr"`
	Heading   string        `xml:"HEADING,attr"`
	Lines     []headingLine `xml:"line"`
}

type headingLine struct {
	Content string `xml:"CONTENT,attr"`
}

// XMLWriter writes the headings document: one catalogue_entry element per
// entry carrying its shelfmark and heading, with the body lines as children.
type XMLWriter struct{}

func (XMLWriter) Format() Format { return FormatXML }

func (XMLWriter) Write(dir, volume string, es []*entries.Entry) (string, error) {
	path := filepath.Join(dir, HeadingsFileName(volume))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create headings file: %w", err)
	}
	defer file.Close()

	if err := WriteHeadingsXML(file, es); err != nil {
		return "", err
	}
	return path, nil
}

// WriteHeadingsXML writes the headings document for es to w.
func WriteHeadingsXML(w io.Writer, es []*entries.Entry) error {
	doc := headingsDoc{Entries: make([]headingEntry, 0, len(es))}
	for _, e := range es {
		he := headingEntry{
			Shelfmark: e.ShelfmarkOrEmpty(),
			Heading:   e.Heading,
		}
		for _, line := range e.Body() {
			he.Lines = append(he.Lines, headingLine{Content: line})
		}
		doc.Entries = append(doc.Entries, he)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode headings: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write headings: %w", err)
	}
	return nil
}
