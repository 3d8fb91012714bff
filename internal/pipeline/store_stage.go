package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
)

// DefaultSinkTimeout bounds a single record save.
const DefaultSinkTimeout = 10 * time.Second

// StoreStage validates a record against the record schema and hands it to a
// RecordSink. Saves are never retried.
type StoreStage struct {
	Sink    analysis.RecordSink
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewStoreStage(sink analysis.RecordSink, timeout time.Duration, logger *slog.Logger) *StoreStage {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultSinkTimeout
	}
	return &StoreStage{Sink: sink, Timeout: timeout, Logger: logger}
}

func (s *StoreStage) Run(ctx context.Context, rec analysis.Record, meta analysis.RecordMeta) (analysis.StoredRecord, error) {
	if err := analysis.ValidateRecord(rec); err != nil {
		return analysis.StoredRecord{}, common.NewAppError(common.CodeComponent, "record failed schema validation",
			fmt.Errorf("%w: %w", common.ErrComponent, err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	stored, err := s.Sink.Save(ctx, rec, meta)
	if err != nil {
		return analysis.StoredRecord{}, fmt.Errorf("save record: %w", err)
	}
	s.Logger.Info("stored analysis record",
		"record_id", stored.ID, "document_ref", meta.DocumentRef, "owner", meta.OwnerRef,
		"category", meta.Category.String())
	return stored, nil
}
