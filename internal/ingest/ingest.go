package ingest

import (
	"context"
	"io"
	"time"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	DocumentID   string
	Deduplicated bool
	HashHex      string
	FileExt      string
	Size         int64
	UploadedAt   time.Time
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the service depends on.
type Ingestor interface {
	// IngestPath stores one local file.
	IngestPath(ctx context.Context, ownerID string, category constants.Category, path string) (IngestionResult, error)
	// IngestReader stores an upload received under name.
	IngestReader(ctx context.Context, ownerID string, category constants.Category, name string, r io.Reader) (IngestionResult, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, ownerID string, category constants.Category, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
