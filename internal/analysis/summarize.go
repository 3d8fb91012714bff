package analysis

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNothingToSummarize is returned when the text holds no sentence.
var ErrNothingToSummarize = errors.New("nothing to summarize")

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// Sentences splits text on runs of '.', '!' and '?' and returns the trimmed,
// non-empty fragments.
func Sentences(text string) []string {
	parts := sentenceTerminators.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Summarize keeps the leading fifth of the sentences (at least one), joined
// with ". " and closed with a period.
func Summarize(text string) (string, error) {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return "", ErrNothingToSummarize
	}
	k := len(sentences) / 5
	if k < 1 {
		k = 1
	}
	return strings.Join(sentences[:k], ". ") + ".", nil
}
