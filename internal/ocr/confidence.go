package ocr

import "unicode"

// textConfidence is a rough 0..1 quality score for extracted text: the share
// of letters, digits, spaces and common punctuation, scaled down for very
// short output.
func textConfidence(txt string) float32 {
	var total, good int
	for _, r := range txt {
		total++
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			good++
		case r < unicode.MaxASCII && unicode.IsPunct(r), r == '$', r == '%', r == '+':
			good++
		}
	}
	if total == 0 {
		return 0
	}
	score := float32(good) / float32(total)
	if total < 40 {
		score *= 0.5
	}
	return score
}
