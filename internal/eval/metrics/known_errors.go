package metrics

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/incunabula/internal/eval/dataset"
)

// KnownErrors lists, per category, the shelfmarks expected in the symmetric
// difference between the index and the matcher output. Anything outside
// these sets needs investigating.
type KnownErrors map[dataset.Category][]string

// DefaultKnownErrors returns the errors accepted for the BMC index: compound
// shelfmarks ("X ; Y", "X. &Y") of which only the first part is matched, and
// map-room shelfmarks that are matched although they should not be.
func DefaultKnownErrors() KnownErrors {
	return KnownErrors{
		dataset.CategoryC: {
			"C. 1. d. 2", // MAPS Maps C. 1. d. 2
			"C. 1. d. 3", // MAPS Maps C. 1. d. 3
			"C. 1. d. 6",
			"C. 1. d. 6 ; C. 1. d. 7",
		},
		dataset.CategoryG: {
			"G. 7726. (1. )",
			"G. 7726. (1. ) ; G. 7726. (2. )",
			"G. 8284",
			"G. 8284. ; G. 8285",
		},
		dataset.CategoryI: {
			"IA. 18772",
			"IA. 18772. ,73",
			"IA. 22",
			"OC IA. 22",
			"OC IA. 49865",
			"IA. 2879. A",
			"IA. 2879. A. ; IA. 2880. A",
			"IA. 42066,42069",
			"IA. 42066,42069. &42070",
			"IA. 55330",
			"IA. 55330. Fragment: Sheet q2-q6, much mutilated",
			"IB. 20307",
			"IB. 20307. ; IB. 20297",
			"IB. 22635-7",
			"IB. 22635-7. ; IB. 22639",
			"IB. 355", // MAPS IB. 355
			"IB. 55144a",
			"IB. 55144a. Fragment: 4 leaves of misimposed printer's waste",
			"IC. 17983",
			"IC. 17983. ; IC. 17950",
			"IC. 19562. &IC. 19543",
		},
	}
}

// LoadKnownErrors reads a YAML file keyed by category:
//
//	C:
//	  - "C. 1. d. 2"
//	I:
//	  - "IA. 22"
func LoadKnownErrors(path string) (KnownErrors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read known errors: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse known errors: %w", err)
	}

	known := make(KnownErrors, len(raw))
	for key, values := range raw {
		c := dataset.Category(key)
		switch c {
		case dataset.CategoryC, dataset.CategoryG, dataset.CategoryI:
			known[c] = values
		default:
			return nil, fmt.Errorf("unknown shelfmark category in known errors: %q", key)
		}
	}
	return known, nil
}

// Save writes the known errors as YAML.
func (k KnownErrors) Save(path string) error {
	out := make(map[string][]string, len(k))
	for c, values := range k {
		sorted := append([]string(nil), values...)
		sort.Strings(sorted)
		out[string(c)] = sorted
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}
