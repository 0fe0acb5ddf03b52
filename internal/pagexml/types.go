package pagexml

import "strings"

// Point is a pixel coordinate on the scanned page image.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Coords is a polygon taken from a Coords element.
type Coords struct {
	Points []Point
}

// TextEquiv holds the literal Unicode content of a TextEquiv element.
// Unicode is nil when the recognition engine produced no text.
type TextEquiv struct {
	Unicode *string
}

// Word is a single recognised word. Only its geometry is kept; word-level
// text is ignored in favour of the line's own TextEquiv.
type Word struct {
	Points []Point
}

// TextLine is one TextLine element of a region.
type TextLine struct {
	ID    string
	Text  *string
	Words []Word
}

// Region is a TextRegion element. The recognition engine writes the region
// boundary as the first child and a summary TextEquiv as the last child;
// everything in between is a text line.
type Region struct {
	ID         string
	ChildCount int
	Boundary   *Coords
	Lines      []TextLine
	Summary    *TextEquiv
}

// Page is one parsed page document.
type Page struct {
	ID            string
	ImageFilename string
	Width         int
	Height        int
	Regions       []Region
}

// Line is a single text line of a page as it enters the volume sequence.
// Text is nil when the line carried no OCR content. Points holds one
// rectangle (two corner points) per word and is nil when the line had no
// word geometry.
type Line struct {
	Text   *string   `json:"text"`
	Points [][]Point `json:"points,omitempty"`
}

// String returns the line text, or "" for a null line.
func (l Line) String() string {
	if l.Text == nil {
		return ""
	}
	return *l.Text
}

// HasText reports whether the line carries OCR content.
func (l Line) HasText() bool {
	return l.Text != nil
}

// NewLine builds a line with text and no coordinates.
func NewLine(text string) Line {
	return Line{Text: &text}
}

// Texts returns the text of each line, null lines rendered as "".
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

// JoinText joins the line texts with sep, skipping null lines.
func JoinText(lines []Line, sep string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.HasText() {
			parts = append(parts, *l.Text)
		}
	}
	return strings.Join(parts, sep)
}
