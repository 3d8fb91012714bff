package analysis

import (
	"math"
	"regexp"
	"strings"
)

// Similarity verdict bands.
const (
	VerdictHigh     = "high"
	VerdictModerate = "moderate"
	VerdictLow      = "low"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonWordRun    = regexp.MustCompile(`\W+`)
)

// Similarity scores two texts from 0 to 100 by the weighted Jaccard index of
// their word counts, rounded to two decimals. It is symmetric and returns 0
// when neither text holds a word.
func Similarity(a, b string) float64 {
	ca, cb := wordCounts(a), wordCounts(b)

	var intersection, union int
	for w, na := range ca {
		nb := cb[w]
		intersection += min(na, nb)
		union += max(na, nb)
	}
	for w, nb := range cb {
		if _, ok := ca[w]; !ok {
			union += nb
		}
	}
	if union == 0 {
		return 0
	}
	score := float64(intersection) / float64(union) * 100
	return math.Round(score*100) / 100
}

// Verdict buckets a similarity score: above 80 is high, above 50 moderate.
func Verdict(score float64) string {
	switch {
	case score > 80:
		return VerdictHigh
	case score > 50:
		return VerdictModerate
	default:
		return VerdictLow
	}
}

func normalizeText(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.ToLower(s), " "))
}

func wordCounts(s string) map[string]int {
	counts := make(map[string]int)
	for _, w := range nonWordRun.Split(normalizeText(s), -1) {
		if w == "" {
			continue
		}
		counts[w]++
	}
	return counts
}
