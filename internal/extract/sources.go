package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/repository"
	"github.com/joseph-ayodele/document-analyzer/internal/storage"
)

// DocumentTextSource resolves document ids. Text cached on the document row
// is returned directly; otherwise the stored bytes are extracted and the
// result is cached.
type DocumentTextSource struct {
	docs      repository.DocumentRepository
	blobs     storage.BlobStore
	extractor TextExtractor
	logger    *slog.Logger
}

func NewDocumentTextSource(docs repository.DocumentRepository, blobs storage.BlobStore, extractor TextExtractor, logger *slog.Logger) *DocumentTextSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentTextSource{docs: docs, blobs: blobs, extractor: extractor, logger: logger}
}

func (s *DocumentTextSource) GetText(ctx context.Context, documentRef string) (string, error) {
	id, err := uuid.Parse(documentRef)
	if err != nil {
		return "", fmt.Errorf("%w: invalid document id %q", ErrTextNotFound, documentRef)
	}
	doc, err := s.docs.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrTextNotFound, documentRef)
	}
	if err != nil {
		return "", err
	}
	if doc.HasText() {
		return *doc.RawText, nil
	}

	rc, err := s.blobs.Get(ctx, doc.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return "", fmt.Errorf("%w: stored file missing for %s", ErrTextNotFound, documentRef)
	}
	if err != nil {
		return "", fmt.Errorf("fetch stored file: %w", err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "docanalyzer-*."+doc.FileExt)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to remove temp file", "path", tmp.Name(), "error", err)
		}
	}()
	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("copy stored file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	res, err := s.extractor.Extract(ctx, tmp.Name())
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	s.logger.Info("extracted document text", "document_id", id, "method", res.Method,
		"pages", res.Pages, "confidence", res.Confidence, "duration_ms", res.Duration.Milliseconds())

	if res.Text != "" {
		if err := s.docs.SetText(ctx, id, res.Text); err != nil {
			s.logger.Warn("failed to cache document text", "document_id", id, "error", err)
		}
	}
	return res.Text, nil
}

// FileTextSource treats references as local file paths.
type FileTextSource struct {
	extractor TextExtractor
}

func NewFileTextSource(extractor TextExtractor) *FileTextSource {
	return &FileTextSource{extractor: extractor}
}

func (s *FileTextSource) GetText(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTextNotFound, path)
		}
		return "", err
	}
	res, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return res.Text, nil
}
