package extract

import (
	"context"
	"errors"
	"time"
)

// ErrTextNotFound is returned by a TextSource when the referenced document
// does not exist.
var ErrTextNotFound = errors.New("document text not found")

// TextExtractor turns a local file into text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // "PDF" | "IMAGE" | "TXT"
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "plain-text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

// TextSource yields the raw text of a referenced document.
type TextSource interface {
	GetText(ctx context.Context, documentRef string) (string, error)
}

// TextSourceFunc adapts a function to TextSource.
type TextSourceFunc func(ctx context.Context, documentRef string) (string, error)

func (f TextSourceFunc) GetText(ctx context.Context, documentRef string) (string, error) {
	return f(ctx, documentRef)
}
