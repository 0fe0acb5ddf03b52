package pagexml

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"golang.org/x/text/unicode/norm"
)

// Parse reads a PAGE-XML document and converts its generic element tree into
// a Page. The id is the caller's page identifier, usually the file stem.
func Parse(r io.Reader, id string) (*Page, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page xml: %w", err)
	}

	node, err := xmlquery.Query(doc, "//*[local-name()='Page']")
	if err != nil {
		return nil, fmt.Errorf("failed to query page element: %w", err)
	}
	if node == nil {
		return nil, fmt.Errorf("no Page element in %s", id)
	}

	page := &Page{
		ID:            id,
		ImageFilename: node.SelectAttr("imageFilename"),
		Width:         atoi(node.SelectAttr("imageWidth")),
		Height:        atoi(node.SelectAttr("imageHeight")),
	}

	for _, child := range elements(node) {
		if child.Data != "TextRegion" {
			continue
		}
		page.Regions = append(page.Regions, newRegion(child))
	}

	return page, nil
}

func newRegion(n *xmlquery.Node) Region {
	children := elements(n)
	region := Region{
		ID:         n.SelectAttr("id"),
		ChildCount: len(children),
	}
	if len(children) == 0 {
		return region
	}

	if first := children[0]; first.Data == "Coords" {
		region.Boundary = &Coords{Points: coordsPoints(first)}
	}
	if len(children) < 2 {
		return region
	}

	if last := children[len(children)-1]; last.Data == "TextEquiv" {
		te := newTextEquiv(last)
		region.Summary = &te
	}

	for _, child := range children[1 : len(children)-1] {
		if child.Data != "TextLine" {
			continue
		}
		region.Lines = append(region.Lines, newTextLine(child))
	}

	return region
}

func newTextLine(n *xmlquery.Node) TextLine {
	children := elements(n)
	line := TextLine{ID: n.SelectAttr("id")}

	// Only the terminal TextEquiv counts; Word elements carry their own.
	if len(children) > 0 {
		if last := children[len(children)-1]; last.Data == "TextEquiv" {
			line.Text = newTextEquiv(last).Unicode
		}
	}

	for _, child := range children {
		if child.Data != "Word" {
			continue
		}
		for _, wc := range elements(child) {
			if wc.Data == "Coords" {
				line.Words = append(line.Words, Word{Points: coordsPoints(wc)})
				break
			}
		}
	}

	return line
}

func newTextEquiv(n *xmlquery.Node) TextEquiv {
	children := elements(n)
	if len(children) == 0 {
		return TextEquiv{}
	}
	text := children[0].InnerText()
	if text == "" {
		return TextEquiv{}
	}
	text = norm.NFC.String(text)
	return TextEquiv{Unicode: &text}
}

// coordsPoints reads the points attribute of a Coords element, falling back
// to the Point children used by the 2010 schema.
func coordsPoints(n *xmlquery.Node) []Point {
	if attr := n.SelectAttr("points"); attr != "" {
		return ParsePoints(attr)
	}
	var points []Point
	for _, child := range elements(n) {
		if child.Data != "Point" {
			continue
		}
		points = append(points, Point{X: atoi(child.SelectAttr("x")), Y: atoi(child.SelectAttr("y"))})
	}
	return points
}

// ParsePoints parses a whitespace-separated list of "x,y" pairs. Malformed
// pairs are skipped.
func ParsePoints(s string) []Point {
	fields := strings.Fields(s)
	points := make([]Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			continue
		}
		x, errX := parseCoord(xs)
		y, errY := parseCoord(ys)
		if errX != nil || errY != nil {
			continue
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points
}

func parseCoord(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func elements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
