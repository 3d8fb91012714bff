package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

// Document represents an uploaded document for data transfer between layers.
type Document struct {
	ID           uuid.UUID                `json:"id"`
	OwnerID      string                   `json:"owner_id"`
	Name         string                   `json:"name"`
	StorageKey   string                   `json:"storage_key"`
	FileExt      string                   `json:"file_ext"`
	Format       string                   `json:"format"`
	FileSize     int64                    `json:"file_size"`
	ContentHash  []byte                   `json:"content_hash"`
	Category     constants.Category       `json:"category"`
	Status       constants.DocumentStatus `json:"status"`
	RawText      *string                  `json:"raw_text,omitempty"`
	ErrorMessage *string                  `json:"error_message,omitempty"`
	UploadedAt   time.Time                `json:"uploaded_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// HasText reports whether acquired text is cached on the document.
func (d *Document) HasText() bool {
	return d.RawText != nil && *d.RawText != ""
}
