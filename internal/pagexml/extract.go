package pagexml

import "fmt"

// minRegionChildren is the child count at or below which a region holds
// only boundary and metadata elements.
const minRegionChildren = 2

// ReadingOrder arranges the surviving text regions of a page into the order
// their lines should be read.
type ReadingOrder interface {
	Name() string
	Order(regions []Region) []Region
}

// InterleavedRows is the reading order for the catalogue's layout model. The
// layout engine emits the top-row regions of a page before the bottom-row
// regions, so with an even region count the two halves are zipped together:
// [r0, r(h), r1, r(h+1), ...]. An odd count is a single full-width block and
// is left untouched.
//
// This heuristic has only been checked against the volumes processed so far.
type InterleavedRows struct{}

func (InterleavedRows) Name() string { return "interleaved" }

func (InterleavedRows) Order(regions []Region) []Region {
	if len(regions)%2 != 0 {
		return regions
	}
	half := len(regions) / 2
	ordered := make([]Region, 0, len(regions))
	for i := 0; i < half; i++ {
		ordered = append(ordered, regions[i], regions[i+half])
	}
	return ordered
}

// DocumentOrder reads regions in storage order.
type DocumentOrder struct{}

func (DocumentOrder) Name() string { return "document" }

func (DocumentOrder) Order(regions []Region) []Region { return regions }

// ReadingOrderByName resolves a configured reading order.
func ReadingOrderByName(name string) (ReadingOrder, error) {
	switch name {
	case "", "interleaved":
		return InterleavedRows{}, nil
	case "document":
		return DocumentOrder{}, nil
	default:
		return nil, fmt.Errorf("unknown reading order: %s (supported: interleaved, document)", name)
	}
}

// Extractor turns a parsed page into its ordered text lines.
type Extractor struct {
	order ReadingOrder
}

// NewExtractor creates an extractor. A nil order means InterleavedRows.
func NewExtractor(order ReadingOrder) *Extractor {
	if order == nil {
		order = InterleavedRows{}
	}
	return &Extractor{order: order}
}

// ReadingOrder returns the strategy in use.
func (e *Extractor) ReadingOrder() ReadingOrder {
	return e.order
}

// Lines returns the page's lines in reading order. Null lines are kept so
// that callers can filter them in one place.
func (e *Extractor) Lines(p *Page) []Line {
	regions := make([]Region, 0, len(p.Regions))
	for _, r := range p.Regions {
		if r.ChildCount > minRegionChildren {
			regions = append(regions, r)
		}
	}

	var lines []Line
	for _, r := range e.order.Order(regions) {
		for _, tl := range r.Lines {
			lines = append(lines, Line{
				Text:   tl.Text,
				Points: wordRectangles(tl.Words),
			})
		}
	}
	return lines
}

// wordRectangles keeps every other polygon vertex of each word, which for
// the engine's four-point word boxes leaves the two opposite corners.
func wordRectangles(words []Word) [][]Point {
	if len(words) == 0 {
		return nil
	}
	rects := make([][]Point, 0, len(words))
	for _, w := range words {
		corners := make([]Point, 0, (len(w.Points)+1)/2)
		for i := 0; i < len(w.Points); i += 2 {
			corners = append(corners, w.Points[i])
		}
		rects = append(rects, corners)
	}
	return rects
}
