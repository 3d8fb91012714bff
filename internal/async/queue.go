// Package async runs analyses on a bounded worker pool.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
)

var (
	ErrQueueClosed = errors.New("analysis queue is shutting down")
	ErrInvalidJob  = errors.New("invalid analysis job")
)

// Job asks for one stored analysis of a document.
type Job struct {
	DocumentID  uuid.UUID
	OwnerID     string
	Category    constants.Category
	Options     analysis.Options
	SubmittedAt time.Time
	RequestID   string
}

func (j Job) validate() error {
	if j.DocumentID == uuid.Nil {
		return errors.Join(ErrInvalidJob, errors.New("document id is required"))
	}
	if !j.Category.IsValid() {
		return errors.Join(ErrInvalidJob, errors.New("unsupported category "+j.Category.String()))
	}
	return nil
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Analyzer is the part of the processor the workers need.
type Analyzer interface {
	AnalyzeAndStore(ctx context.Context, ref, owner string, opts analysis.Options, category constants.Category) (analysis.StoredRecord, analysis.Record, error)
}

// StatusUpdater records document lifecycle changes.
type StatusUpdater interface {
	SetStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, errMsg *string) error
}
