package export

import (
	"encoding/json"
	"fmt"

	"github.com/lehigh-university-libraries/incunabula/internal/entries"
	"github.com/lehigh-university-libraries/incunabula/internal/pagexml"
)

// Record is the flat, columnar form of an entry used by the CSV and Parquet
// writers. Word locations are carried as a JSON document since their nesting
// varies per line.
type Record struct {
	Volume               string   `json:"volume" parquet:"volume"`
	EntrySequenceNumber  int64    `json:"entry_sequence_number" parquet:"entry_sequence_number"`
	Shelfmark            *string  `json:"shelfmark" parquet:"shelfmark,optional"`
	Heading              string   `json:"heading" parquet:"heading"`
	SourcePages          []string `json:"source_pages" parquet:"source_pages,list"`
	PageStartOffsets     []int64  `json:"page_start_offsets" parquet:"page_start_offsets,list"`
	EntryLines           []string `json:"entry_lines" parquet:"entry_lines,list"`
	HeadingWindowIndices []int64  `json:"heading_window_indices" parquet:"heading_window_indices,list"`
	EntryText            string   `json:"entry_text" parquet:"entry_text"`
	BodyLen              int64    `json:"body_len" parquet:"body_len"`
	WordLocations        string   `json:"word_locations" parquet:"word_locations"`
}

// NewRecord flattens an entry.
func NewRecord(e *entries.Entry) (Record, error) {
	words, err := json.Marshal(e.WordLocations)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode word locations: %w", err)
	}

	return Record{
		Volume:               e.Volume,
		EntrySequenceNumber:  int64(e.Sequence),
		Shelfmark:            e.Shelfmark,
		Heading:              e.Heading,
		SourcePages:          e.SourcePages,
		PageStartOffsets:     toInt64(e.PageStartOffsets),
		EntryLines:           e.Lines,
		HeadingWindowIndices: toInt64(e.HeadingIndices),
		EntryText:            e.Text,
		BodyLen:              int64(e.BodyLen),
		WordLocations:        string(words),
	}, nil
}

// Entry rebuilds the entry a record was made from.
func (r Record) Entry() (*entries.Entry, error) {
	e := &entries.Entry{
		Volume:           r.Volume,
		Sequence:         int(r.EntrySequenceNumber),
		Shelfmark:        r.Shelfmark,
		Heading:          r.Heading,
		Lines:            r.EntryLines,
		Text:             r.EntryText,
		SourcePages:      r.SourcePages,
		PageStartOffsets: toInt(r.PageStartOffsets),
		HeadingIndices:   toInt(r.HeadingWindowIndices),
		BodyLen:          int(r.BodyLen),
	}
	if r.WordLocations != "" {
		var words [][][]pagexml.Point
		if err := json.Unmarshal([]byte(r.WordLocations), &words); err != nil {
			return nil, fmt.Errorf("failed to decode word locations for entry %d: %w", r.EntrySequenceNumber, err)
		}
		e.WordLocations = words
	}
	return e, nil
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func toInt(in []int64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
