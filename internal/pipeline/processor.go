// Package pipeline runs analyses end to end: fetch text, run the engine,
// optionally store the record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/extract"
	"github.com/joseph-ayodele/document-analyzer/internal/telemetry"
)

// Processor coordinates text acquisition, the analysis engine and the record
// sink.
type Processor struct {
	Logger  *slog.Logger
	Engine  *analysis.Engine
	Acquire *AcquireStage
	Store   *StoreStage
	Metrics *telemetry.Metrics
}

type Option func(*processorConfig)

type processorConfig struct {
	logger      *slog.Logger
	sink        analysis.RecordSink
	metrics     *telemetry.Metrics
	textTimeout time.Duration
	sinkTimeout time.Duration
}

func WithLogger(l *slog.Logger) Option {
	return func(c *processorConfig) { c.logger = l }
}

// WithSink enables AnalyzeAndStore.
func WithSink(s analysis.RecordSink) Option {
	return func(c *processorConfig) { c.sink = s }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *processorConfig) { c.metrics = m }
}

func WithTextTimeout(d time.Duration) Option {
	return func(c *processorConfig) { c.textTimeout = d }
}

func WithSinkTimeout(d time.Duration) Option {
	return func(c *processorConfig) { c.sinkTimeout = d }
}

func NewProcessor(engine *analysis.Engine, source extract.TextSource, opts ...Option) *Processor {
	cfg := processorConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if engine == nil {
		engine = analysis.NewEngine(nil, analysis.WithLogger(cfg.logger))
	}
	p := &Processor{
		Logger:  cfg.logger,
		Engine:  engine,
		Acquire: NewAcquireStage(source, cfg.textTimeout, cfg.logger),
		Metrics: cfg.metrics,
	}
	if cfg.sink != nil {
		p.Store = NewStoreStage(cfg.sink, cfg.sinkTimeout, cfg.logger)
	}
	return p
}

// Analyze fetches the text for ref and runs the enabled steps. An
// unsupported category is rejected before anything runs. When the text
// cannot be obtained the failure is logged and an empty record is returned
// without error.
func (p *Processor) Analyze(ctx context.Context, ref string, opts analysis.Options, category constants.Category) (analysis.Record, error) {
	if !category.IsValid() {
		return analysis.Record{}, common.NewValidationError(fmt.Sprintf("unsupported document category %q", category))
	}

	text, err := p.Acquire.Run(ctx, ref)
	if err != nil {
		p.Logger.Error("text acquisition failed", "document_ref", ref, "error", err)
		p.Metrics.RecordAcquisitionFailure()
		return analysis.Record{}, nil
	}

	rec := p.Engine.Run(text, opts, category)
	p.Metrics.RecordAnalysis(category.String())
	p.Logger.Info("analyzed document", "document_ref", ref, "category", category.String(),
		"extract", opts.ExtractInfo, "summarize", opts.Summarize,
		"anomaly", opts.AnomalyDetection, "compliance", opts.ComplianceCheck)
	return rec, nil
}

// AnalyzeAndStore runs Analyze and saves the record. The record is returned
// even when saving fails.
func (p *Processor) AnalyzeAndStore(ctx context.Context, ref, owner string, opts analysis.Options, category constants.Category) (analysis.StoredRecord, analysis.Record, error) {
	if p.Store == nil {
		return analysis.StoredRecord{}, analysis.Record{}, errors.New("processor has no record sink")
	}
	rec, err := p.Analyze(ctx, ref, opts, category)
	if err != nil {
		return analysis.StoredRecord{}, rec, err
	}

	stored, err := p.Store.Run(ctx, rec, analysis.RecordMeta{
		DocumentRef: ref,
		OwnerRef:    owner,
		Category:    category,
		Options:     opts,
	})
	if err != nil {
		p.Logger.Error("store record failed", "document_ref", ref, "error", err)
		p.Metrics.RecordStore("error")
		return analysis.StoredRecord{}, rec, err
	}
	p.Metrics.RecordStore("ok")
	return stored, rec, nil
}

// Compare fetches both texts concurrently and scores them. A missing or
// empty text on either side fails the comparison. Nothing is persisted.
func (p *Processor) Compare(ctx context.Context, refA, refB string) (analysis.ComparisonResult, error) {
	var textA, textB string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := p.Acquire.Run(gctx, refA)
		if err != nil {
			return fmt.Errorf("%s: %w", refA, err)
		}
		textA = t
		return nil
	})
	g.Go(func() error {
		t, err := p.Acquire.Run(gctx, refB)
		if err != nil {
			return fmt.Errorf("%s: %w", refB, err)
		}
		textB = t
		return nil
	})
	if err := g.Wait(); err != nil {
		p.Logger.Warn("comparison aborted", "document_a", refA, "document_b", refB, "error", err)
		return analysis.ComparisonResult{}, common.NewComparisonError("document text unavailable", err)
	}

	res := p.Engine.Compare(refA, refB, textA, textB)
	p.Metrics.RecordComparison(res.Verdict, res.SimilarityScore)
	p.Logger.Info("compared documents", "document_a", refA, "document_b", refB,
		"score", res.SimilarityScore, "verdict", res.Verdict)
	return res, nil
}
