package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
)

// StoredAnalysis is a persisted analysis record.
type StoredAnalysis struct {
	ID         uuid.UUID          `json:"id"`
	DocumentID uuid.UUID          `json:"document_id"`
	OwnerID    string             `json:"owner_id"`
	Category   constants.Category `json:"category"`
	Options    analysis.Options   `json:"options"`
	Record     analysis.Record    `json:"record"`
	CreatedAt  time.Time          `json:"created_at"`
}

// DocumentAnalysis joins a document with its analysis for listings and
// export. Analysis is nil for documents not analysed yet.
type DocumentAnalysis struct {
	Document Document        `json:"document"`
	Analysis *StoredAnalysis `json:"analysis,omitempty"`
}
