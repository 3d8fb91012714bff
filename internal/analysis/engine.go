package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

// Values stored in a Record when a step fails.
const (
	SummaryErrorText       = "Error summarizing document"
	SummaryNothingText     = "Nothing to summarize."
	AnomalyDetectionFailed = "Error detecting anomalies"
)

// Step names used for logging and metrics.
const (
	StepExtract    = "extract"
	StepSummarize  = "summarize"
	StepAnomaly    = "anomaly"
	StepCompliance = "compliance"
)

// StepObserver is notified of every step outcome. err is nil on success.
type StepObserver func(step string, elapsed time.Duration, err error)

// Engine runs the analysis steps over already acquired text. It performs no
// I/O and is safe for concurrent use.
type Engine struct {
	detector *Detector
	checker  *Checker
	logger   *slog.Logger
	observe  StepObserver
}

type EngineOption func(*Engine)

func WithDetector(d *Detector) EngineOption {
	return func(e *Engine) {
		if d != nil {
			e.detector = d
		}
	}
}

func WithChecker(c *Checker) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.checker = c
		}
	}
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithStepObserver(fn StepObserver) EngineOption {
	return func(e *Engine) { e.observe = fn }
}

// NewEngine builds an engine over rules (DefaultRules when nil).
func NewEngine(rules *RuleSet, opts ...EngineOption) *Engine {
	e := &Engine{
		detector: NewDetector(rules),
		checker:  NewChecker(rules),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the enabled steps on text. A failing step is recorded with
// its error value and does not affect the other steps.
func (e *Engine) Run(text string, opts Options, category constants.Category) Record {
	var rec Record

	if opts.ExtractInfo {
		bag, err := guard(e, StepExtract, func() (EntityBag, error) {
			return ExtractEntities(text), nil
		})
		if err != nil {
			bag = EntityBag{}
		}
		rec.ExtractedData = bag
	}

	if opts.Summarize {
		summary, err := guard(e, StepSummarize, func() (string, error) {
			s, err := Summarize(text)
			if errors.Is(err, ErrNothingToSummarize) {
				return SummaryNothingText, nil
			}
			return s, err
		})
		if err != nil {
			summary = SummaryErrorText
		}
		rec.Summary = &summary
	}

	if opts.AnomalyDetection {
		report, err := guard(e, StepAnomaly, func() (AnomalyReport, error) {
			return e.detector.Detect(text, category), nil
		})
		if err != nil {
			report = AnomalyReport{Detected: false, Items: []AnomalyItem{}, Error: AnomalyDetectionFailed}
		}
		rec.Anomalies = &report
	}

	if opts.ComplianceCheck {
		status, _ := guard(e, StepCompliance, func() (constants.ComplianceStatus, error) {
			res := e.checker.Evaluate(text, category)
			return res.Status, res.Err
		})
		if status == "" {
			status = constants.ComplianceError
		}
		rec.ComplianceStatus = &status
	}

	return rec
}

// Compare scores the two texts and diffs their entities. Entities are
// extracted for both sides regardless of any stored analysis.
func (e *Engine) Compare(refA, refB, textA, textB string) ComparisonResult {
	start := time.Now()
	score := Similarity(textA, textB)
	diff := DiffEntities(ExtractEntities(textA), ExtractEntities(textB))
	e.logger.Debug("compared documents", "document_a", refA, "document_b", refB,
		"score", score, "categories_changed", len(diff), "elapsed", time.Since(start))
	return ComparisonResult{
		DocumentRefs:    [2]string{refA, refB},
		SimilarityScore: score,
		Verdict:         Verdict(score),
		Differences:     diff,
		ComparedAt:      time.Now().UTC(),
	}
}

// guard runs one step, converting a panic into an error and reporting the
// outcome.
func guard[T any](e *Engine, step string, fn func() (T, error)) (out T, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s step panicked: %v", step, r)
		}
		if err != nil {
			e.logger.Warn("analysis step failed", "step", step, "error", err)
		}
		if e.observe != nil {
			e.observe(step, time.Since(start), err)
		}
	}()
	return fn()
}
