package metrics

import (
	"math"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2   string
		expected int
	}{
		{"", "", 0},
		{"IA. 1", "", 5},
		{"", "IB. 2", 5},
		{"IA. 22", "IA. 22", 0},
		{"IA. 22", "IB. 22", 1},
		{"IB. 55144a", "IB. 55144", 1},
		{"kitten", "sitting", 3},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"|"+tt.s2, func(t *testing.T) {
			if got := levenshteinDistance(tt.s1, tt.s2); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCalculateSimilarity(t *testing.T) {
	tests := []struct {
		s1, s2   string
		expected float64
	}{
		{"ia. 1", "ia. 1", 1.0},
		{"ia. 1", "", 0.0},
		{"ia. 22", "ib. 22", 1 - 1.0/6},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"|"+tt.s2, func(t *testing.T) {
			got := calculateSimilarity(tt.s1, tt.s2)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Expected %.4f, got %.4f", tt.expected, got)
			}
		})
	}
}

func TestNearest(t *testing.T) {
	candidates := []string{"IB. 55144a. Fragment: 4 leaves", "IA. 33", "IB. 55144"}

	got, score := nearest("IB. 55144a", candidates)
	if got != "IB. 55144" {
		t.Errorf("Expected IB. 55144, got %q (%.2f)", got, score)
	}

	if got, _ := nearest("IA. 1", nil); got != "" {
		t.Errorf("Expected no candidate, got %q", got)
	}

	// equal scores resolve to the smaller shelfmark
	if got, _ := nearest("IA. 5", []string{"IA. 7", "IA. 6"}); got != "IA. 6" {
		t.Errorf("Expected IA. 6 on a tie, got %q", got)
	}
}
