package dataset

// Column names used by the British Library's incunabula index export.
const (
	ColumnShelfmark = "British Library shelfmark (852 $j)"
	ColumnRecordID  = "Record IDs (001)"
)

// Category is a shelfmark family in the ground-truth index.
type Category string

const (
	CategoryC Category = "C"
	CategoryG Category = "G"
	CategoryI Category = "I"
)

// Categories lists the families that are evaluated, in report order.
var Categories = []Category{CategoryC, CategoryG, CategoryI}

// IndexRecord is one row of the hand-labelled shelfmark index.
type IndexRecord struct {
	// Shelfmark as catalogued, e.g. "IB. 55144a" or "C. 1. d. 6 ; C. 1. d. 7"
	Shelfmark string `json:"bll01_shelfmark" parquet:"bll01_shelfmark"`
	RecordID  string `json:"record_id" parquet:"record_id"`

	// Labels: which family the shelfmark belongs to
	CShelfmark bool `json:"c_sm" parquet:"c_sm"`
	IShelfmark bool `json:"i_sm" parquet:"i_sm"`
	GShelfmark bool `json:"g_sm" parquet:"g_sm"`
	Uncaptured bool `json:"uncaptured_sm" parquet:"uncaptured_sm"`
}

// In reports whether the record is labelled with category c.
func (r *IndexRecord) In(c Category) bool {
	switch c {
	case CategoryC:
		return r.CShelfmark
	case CategoryG:
		return r.GShelfmark
	case CategoryI:
		return r.IShelfmark
	default:
		return false
	}
}

// Count returns the number of records labelled with category c.
func Count(records []IndexRecord, c Category) int {
	n := 0
	for i := range records {
		if records[i].In(c) {
			n++
		}
	}
	return n
}
