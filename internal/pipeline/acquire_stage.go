package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/extract"
)

// DefaultTextTimeout bounds a single text fetch.
const DefaultTextTimeout = 30 * time.Second

// AcquireStage fetches document text through a TextSource.
type AcquireStage struct {
	Source  extract.TextSource
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewAcquireStage(src extract.TextSource, timeout time.Duration, logger *slog.Logger) *AcquireStage {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTextTimeout
	}
	return &AcquireStage{Source: src, Timeout: timeout, Logger: logger}
}

// Run returns the text for ref. Every failure, including a timeout or an
// empty (whitespace only) text, wraps common.ErrAcquisition.
func (s *AcquireStage) Run(ctx context.Context, ref string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	start := time.Now()
	text, err := s.Source.GetText(ctx, ref)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s: %w", common.ErrAcquisition, s.Timeout, err)
		}
		return "", fmt.Errorf("%w: %w", common.ErrAcquisition, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty text", common.ErrAcquisition)
	}
	s.Logger.Debug("acquired document text", "document_ref", ref, "bytes", len(text), "elapsed", time.Since(start))
	return text, nil
}
