package analysis

import (
	"math/rand/v2"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

// Bounds of an anomaly confidence score.
const (
	MinConfidence = 70
	MaxConfidence = 100
)

// ConfidenceFunc yields the confidence attached to a detected anomaly.
type ConfidenceFunc func() int

// RandomConfidence draws uniformly from [MinConfidence, MaxConfidence].
func RandomConfidence() int {
	return MinConfidence + rand.IntN(MaxConfidence-MinConfidence+1)
}

// FixedConfidence always returns c.
func FixedConfidence(c int) ConfidenceFunc {
	return func() int { return c }
}

// Detector flags anomaly keywords in document text.
type Detector struct {
	rules      *RuleSet
	confidence ConfidenceFunc
}

type DetectorOption func(*Detector)

// WithConfidence replaces the random confidence source.
func WithConfidence(fn ConfidenceFunc) DetectorOption {
	return func(d *Detector) {
		if fn != nil {
			d.confidence = fn
		}
	}
}

// NewDetector returns a detector over rules. A nil rules uses DefaultRules.
func NewDetector(rules *RuleSet, opts ...DetectorOption) *Detector {
	if rules == nil {
		rules = DefaultRules()
	}
	d := &Detector{rules: rules, confidence: RandomConfidence}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect evaluates the category's rules in order and reports one item per
// matching rule. Unknown categories produce an empty report.
func (d *Detector) Detect(text string, category constants.Category) AnomalyReport {
	items := make([]AnomalyItem, 0)
	for _, rule := range d.rules.AnomalyRules(category) {
		if !rule.Matches(text) {
			continue
		}
		items = append(items, AnomalyItem{Type: rule.Label, Confidence: clampConfidence(d.confidence())})
	}
	return AnomalyReport{Detected: len(items) > 0, Items: items}
}

func clampConfidence(c int) int {
	switch {
	case c < MinConfidence:
		return MinConfidence
	case c > MaxConfidence:
		return MaxConfidence
	default:
		return c
	}
}
