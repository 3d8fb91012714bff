package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/entity"
	"github.com/joseph-ayodele/document-analyzer/internal/repository"
	"github.com/joseph-ayodele/document-analyzer/internal/storage"
	"github.com/joseph-ayodele/document-analyzer/internal/telemetry"
)

// FSIngestor stores file bytes in a BlobStore and catalogues them as
// documents, deduplicating per owner by content hash.
type FSIngestor struct {
	Docs     repository.DocumentRepository
	Blobs    storage.BlobStore
	Logger   *slog.Logger
	Metrics  *telemetry.Metrics
	MaxBytes int64
}

func NewFSIngestor(docs repository.DocumentRepository, blobs storage.BlobStore, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		Docs:     docs,
		Blobs:    blobs,
		Logger:   logger,
		MaxBytes: constants.MaxUploadBytes,
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, ownerID string, category constants.Category, path string) (IngestionResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return IngestionResult{SourcePath: path}, fmt.Errorf("abs path: %w", err)
	}

	f, err := os.Open(abs)
	if err != nil {
		i.Logger.Error("open error", "path", abs, "error", err)
		return IngestionResult{SourcePath: abs}, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.Logger.Warn("close file error", "path", abs, "error", err)
		}
	}(f)

	res, err := i.IngestReader(ctx, ownerID, category, abs, f)
	res.SourcePath = abs
	return res, err
}

func (i *FSIngestor) IngestReader(ctx context.Context, ownerID string, category constants.Category, name string, r io.Reader) (IngestionResult, error) {
	out := IngestionResult{SourcePath: name}

	ext := constants.NormalizeExt(filepath.Ext(name))
	format, ok := constants.MapExtToFormat(ext)
	if !ok {
		i.Metrics.RecordIngest("rejected")
		return out, common.NewValidationError(fmt.Sprintf("unsupported or missing extension %q", ext))
	}
	if strings.TrimSpace(ownerID) == "" {
		return out, common.NewValidationError("owner id is required")
	}
	if !category.IsValid() {
		i.Metrics.RecordIngest("rejected")
		return out, common.NewValidationError(fmt.Sprintf("unsupported document category %q", category))
	}

	var buf bytes.Buffer
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(&buf, h), io.LimitReader(r, i.MaxBytes+1))
	if err != nil {
		return out, fmt.Errorf("read upload: %w", err)
	}
	if n > i.MaxBytes {
		i.Metrics.RecordIngest("rejected")
		return out, common.NewValidationError(fmt.Sprintf("file exceeds %d bytes", i.MaxBytes))
	}
	if n == 0 {
		i.Metrics.RecordIngest("rejected")
		return out, common.NewValidationError("file is empty")
	}
	sum := h.Sum(nil)
	hashHex := hex.EncodeToString(sum)
	key := storage.DocumentKey(ownerID, hashHex, ext)

	if existing, err := i.Docs.GetByOwnerAndHash(ctx, ownerID, sum); err == nil {
		i.Metrics.RecordIngest("duplicate")
		return resultFor(name, existing, true), nil
	}

	if err := i.Blobs.Put(ctx, key, bytes.NewReader(buf.Bytes()), n, storage.ContentType(key)); err != nil {
		i.Metrics.RecordIngest("failed")
		return out, common.NewAppError(common.CodeStorage, "store upload", err)
	}

	doc, existed, err := i.Docs.UpsertByHash(ctx, &entity.Document{
		OwnerID:     ownerID,
		Name:        filepath.Base(name),
		StorageKey:  key,
		FileExt:     ext,
		Format:      format,
		FileSize:    n,
		ContentHash: sum,
		Category:    category,
		Status:      constants.DocumentStatusUploaded,
	})
	if err != nil {
		i.Metrics.RecordIngest("failed")
		return out, err
	}

	result := "stored"
	if existed {
		result = "duplicate"
	}
	i.Metrics.RecordIngest(result)
	i.Logger.Info("ingested document", "document_id", doc.ID, "owner", ownerID, "name", doc.Name,
		"bytes", n, "deduplicated", existed)
	return resultFor(name, doc, existed), nil
}

func resultFor(name string, doc *entity.Document, dedup bool) IngestionResult {
	return IngestionResult{
		SourcePath:   name,
		DocumentID:   doc.ID.String(),
		Deduplicated: dedup,
		HashHex:      hex.EncodeToString(doc.ContentHash),
		FileExt:      doc.FileExt,
		Size:         doc.FileSize,
		UploadedAt:   doc.UploadedAt,
	}
}
