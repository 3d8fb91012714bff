// Package app wires the configured stores, analysis engine and workers into
// one set of components shared by the daemon and the CLIs.
package app

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/async"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/export"
	"github.com/joseph-ayodele/document-analyzer/internal/extract"
	"github.com/joseph-ayodele/document-analyzer/internal/ingest"
	"github.com/joseph-ayodele/document-analyzer/internal/ocr"
	"github.com/joseph-ayodele/document-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/document-analyzer/internal/repository"
	"github.com/joseph-ayodele/document-analyzer/internal/storage"
	"github.com/joseph-ayodele/document-analyzer/internal/telemetry"
)

// App holds the wired components. Queue is nil unless WithQueue was given.
type App struct {
	Config    *common.Config
	DB        *repository.DBResult
	Docs      repository.DocumentRepository
	Analyses  repository.AnalysisRepository
	Blobs     storage.BlobStore
	Engine    *analysis.Engine
	Processor *pipeline.Processor
	Ingestor  *ingest.FSIngestor
	Exporter  *export.Service
	Queue     *async.ProcessorQueue
	Registry  *prometheus.Registry
	Metrics   *telemetry.Metrics

	logger *slog.Logger
}

type options struct {
	inmem     bool
	queue     bool
	extractor extract.TextExtractor
}

type Option func(*options)

// InMemory forces an in-memory SQLite database regardless of configuration.
func InMemory() Option { return func(o *options) { o.inmem = true } }

// WithQueue starts the background analysis workers.
func WithQueue() Option { return func(o *options) { o.queue = true } }

// WithTextExtractor replaces the OCR extractor.
func WithTextExtractor(x extract.TextExtractor) Option {
	return func(o *options) { o.extractor = x }
}

// New opens the database and storage named by cfg and builds every component
// on top of them. Close releases what New opened.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var rules *analysis.RuleSet
	if cfg.Analysis.RulesFile != "" {
		rs, err := analysis.LoadRulesFile(cfg.Analysis.RulesFile)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "load rules", err)
		}
		rules = rs
		logger.Info("loaded analysis rules", "path", cfg.Analysis.RulesFile, "version", rs.Version())
	}

	db, err := repository.InitDatabase(ctx, cfg, o.inmem, logger)
	if err != nil {
		return nil, err
	}
	if db.Pool != nil {
		if err := repository.HealthCheck(ctx, db.Pool, cfg.Database.DialTimeout, logger); err != nil {
			db.Cleanup()
			return nil, common.NewAppError(common.CodeDatabase, "database health check", err)
		}
	}

	blobs, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		db.Cleanup()
		return nil, common.NewAppError(common.CodeStorage, "open storage", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	a := &App{
		Config:   cfg,
		DB:       db,
		Docs:     repository.NewDocumentRepository(db.Driver, logger),
		Analyses: repository.NewAnalysisRepository(db.Driver, logger),
		Blobs:    blobs,
		Registry: reg,
		Metrics:  metrics,
		logger:   logger,
	}

	extractor := o.extractor
	if extractor == nil {
		extractor = extract.NewOCRAdapter(ocr.NewExtractor(ocr.Config{
			Pdftotext:     cfg.OCR.PDFToTextPath,
			Pdftoppm:      cfg.OCR.PDFToPPMPath,
			Tesseract:     cfg.OCR.TesseractPath,
			TesseractLang: cfg.OCR.TesseractLang,
			TessdataDir:   cfg.OCR.TessdataDir,
			DPI:           cfg.OCR.PDFRasterDPI,
			Timeout:       cfg.OCR.Timeout,
			PSM:           6,
		}, logger), logger)
	}

	a.Engine = analysis.NewEngine(rules,
		analysis.WithLogger(logger),
		analysis.WithStepObserver(metrics.ObserveStep),
	)
	a.Processor = pipeline.NewProcessor(a.Engine,
		extract.NewDocumentTextSource(a.Docs, a.Blobs, extractor, logger),
		pipeline.WithLogger(logger),
		pipeline.WithSink(a.Analyses),
		pipeline.WithMetrics(metrics),
		pipeline.WithTextTimeout(cfg.Analysis.TextSourceTimeout),
		pipeline.WithSinkTimeout(cfg.Analysis.RecordSinkTimeout),
	)

	a.Ingestor = ingest.NewFSIngestor(a.Docs, a.Blobs, logger)
	a.Ingestor.Metrics = metrics
	a.Exporter = export.NewService(a.Analyses, a.Docs, logger)

	if o.queue {
		a.Queue = async.NewProcessorQueue(a.Processor, a.Docs, logger,
			async.WithWorkers(cfg.Analysis.Workers),
			async.WithQueueSize(cfg.Analysis.QueueSize),
			async.WithProcessTimeout(cfg.Analysis.JobTimeout),
			async.WithMetrics(metrics),
		)
	}
	return a, nil
}

// Close drains the queue, then closes the database.
func (a *App) Close(ctx context.Context) {
	if a.Queue != nil {
		a.Queue.Shutdown(ctx)
	}
	a.DB.Cleanup()
	a.logger.Debug("app closed")
}
