package analysis

import (
	"context"
	"time"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

// RecordMeta identifies what a record belongs to.
type RecordMeta struct {
	DocumentRef string
	OwnerRef    string
	Category    constants.Category
	Options     Options
}

// StoredRecord is the sink's receipt for a saved record.
type StoredRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecordSink persists analysis records. A record is saved at most once per
// document.
type RecordSink interface {
	Save(ctx context.Context, rec Record, meta RecordMeta) (StoredRecord, error)
}
