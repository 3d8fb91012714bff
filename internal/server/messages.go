package server

import (
	"time"

	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/entity"
)

// IngestFileRequest uploads one file, either by local Path (daemon side) or
// by Content with FileName.
type IngestFileRequest struct {
	OwnerID  string           `json:"ownerId"`
	Category string           `json:"category"`
	Path     string           `json:"path,omitempty"`
	FileName string           `json:"fileName,omitempty"`
	Content  []byte           `json:"content,omitempty"`
	Analyze  bool             `json:"analyze"`
	Options  analysis.Options `json:"options"`
}

type IngestResponse struct {
	DocumentID     string `json:"documentId"`
	Deduplicated   bool   `json:"deduplicated"`
	ContentHashHex string `json:"contentHashHex"`
	FileExt        string `json:"fileExt"`
	Size           int64  `json:"size"`
	UploadedAt     string `json:"uploadedAt"`
	SourcePath     string `json:"sourcePath"`
	Queued         bool   `json:"queued"`
	Error          string `json:"error,omitempty"`
}

type IngestDirectoryRequest struct {
	OwnerID    string           `json:"ownerId"`
	Category   string           `json:"category"`
	RootPath   string           `json:"rootPath"`
	SkipHidden bool             `json:"skipHidden"`
	Analyze    bool             `json:"analyze"`
	Options    analysis.Options `json:"options"`
}

type DirStats struct {
	Scanned      uint32 `json:"scanned"`
	Matched      uint32 `json:"matched"`
	Succeeded    uint32 `json:"succeeded"`
	Deduplicated uint32 `json:"deduplicated"`
	Failed       uint32 `json:"failed"`
}

type IngestDirectoryResponse struct {
	Results []*IngestResponse `json:"results"`
	Stats   DirStats          `json:"stats"`
}

// AnalyzeDocumentRequest is shared by AnalyzeDocument and EnqueueAnalysis.
// Options left out are false.
type AnalyzeDocumentRequest struct {
	OwnerID    string           `json:"ownerId"`
	DocumentID string           `json:"documentId"`
	Options    analysis.Options `json:"options"`
}

type AnalyzeDocumentResponse struct {
	DocumentID string          `json:"documentId"`
	RecordID   string          `json:"recordId"`
	CreatedAt  string          `json:"createdAt"`
	Record     analysis.Record `json:"record"`
}

type EnqueueAnalysisResponse struct {
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
}

type DocumentRequest struct {
	OwnerID    string `json:"ownerId"`
	DocumentID string `json:"documentId"`
}

type Document struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	FileExt      string `json:"fileExt"`
	Format       string `json:"format"`
	Size         int64  `json:"size"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	UploadedAt   string `json:"uploadedAt"`
}

type Analysis struct {
	ID        string           `json:"id"`
	Options   analysis.Options `json:"options"`
	Record    analysis.Record  `json:"record"`
	CreatedAt string           `json:"createdAt"`
}

type GetDocumentResponse struct {
	Document *Document `json:"document"`
	Analysis *Analysis `json:"analysis"`
}

type ListDocumentsRequest struct {
	OwnerID string `json:"ownerId"`
	Limit   int    `json:"limit"`
}

type ListDocumentsResponse struct {
	Documents []*Document `json:"documents"`
}

type DeleteDocumentResponse struct {
	Deleted bool `json:"deleted"`
}

type CompareDocumentsRequest struct {
	OwnerID   string `json:"ownerId"`
	DocumentA string `json:"documentA"`
	DocumentB string `json:"documentB"`
}

type CompareDocumentsResponse struct {
	Result analysis.ComparisonResult `json:"result"`
}

// ExportAnalysesRequest dates are YYYY-MM-DD and optional.
type ExportAnalysesRequest struct {
	OwnerID  string `json:"ownerId"`
	FromDate string `json:"fromDate,omitempty"`
	ToDate   string `json:"toDate,omitempty"`
}

type ExportAnalysesResponse struct {
	Xlsx []byte `json:"xlsx"`
}

func toDocument(d *entity.Document) *Document {
	out := &Document{
		ID:         d.ID.String(),
		Name:       d.Name,
		Category:   d.Category.String(),
		FileExt:    d.FileExt,
		Format:     d.Format,
		Size:       d.FileSize,
		Status:     string(d.Status),
		UploadedAt: d.UploadedAt.UTC().Format(time.RFC3339),
	}
	if d.ErrorMessage != nil {
		out.ErrorMessage = *d.ErrorMessage
	}
	return out
}

func toAnalysis(a *entity.StoredAnalysis) *Analysis {
	return &Analysis{
		ID:        a.ID.String(),
		Options:   a.Options,
		Record:    a.Record,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
