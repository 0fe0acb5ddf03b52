package metrics

import (
	"strings"
)

// Hint pairs an unexpected difference with the closest shelfmark on the
// other side of the comparison. Most drift is a boundary problem, such as a
// suffix dropped or kept, so the nearest neighbour usually shows the cause.
type Hint struct {
	Shelfmark  string  `json:"shelfmark"`
	Nearest    string  `json:"nearest"`
	Similarity float64 `json:"similarity"`
}

// nearest returns the candidate most similar to sm. Ties go to the
// lexically smaller candidate so reports are stable.
func nearest(sm string, candidates []string) (string, float64) {
	best, bestScore := "", 0.0
	norm := normalizeForComparison(sm)
	for _, c := range candidates {
		score := calculateSimilarity(norm, normalizeForComparison(c))
		if score > bestScore || (score == bestScore && best != "" && c < best) {
			best, bestScore = c, score
		}
	}
	return best, bestScore
}

// normalizeForComparison folds case and collapses whitespace. Punctuation is
// kept since it separates the parts of a shelfmark.
func normalizeForComparison(text string) string {
	text = strings.ToLower(text)
	return strings.Join(strings.Fields(text), " ")
}

// calculateSimilarity calculates similarity ratio (0.0 to 1.0) using Levenshtein distance
func calculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	distance := levenshteinDistance(s1, s2)
	maxLen := max(len(s1), len(s2))

	return 1.0 - (float64(distance) / float64(maxLen))
}

// levenshteinDistance calculates the Levenshtein distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	if len(s1) == 0 {
		return len(s2)
	}

	if len(s2) == 0 {
		return len(s1)
	}

	// two rows are enough for the distance alone
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
