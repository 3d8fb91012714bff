package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/async"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/entity"
	"github.com/joseph-ayodele/document-analyzer/internal/export"
	"github.com/joseph-ayodele/document-analyzer/internal/ingest"
	"github.com/joseph-ayodele/document-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/document-analyzer/internal/repository"
	"github.com/joseph-ayodele/document-analyzer/internal/storage"
)

const defaultListLimit = 50

// Deps wires the document service.
type Deps struct {
	Docs      repository.DocumentRepository
	Analyses  repository.AnalysisRepository
	Blobs     storage.BlobStore
	Ingestor  ingest.Ingestor
	Processor *pipeline.Processor
	Queue     async.Queue // optional; EnqueueAnalysis is unavailable without it
	Exporter  *export.Service
	Logger    *slog.Logger
}

type DocumentServer struct {
	docs      repository.DocumentRepository
	analyses  repository.AnalysisRepository
	blobs     storage.BlobStore
	ingestor  ingest.Ingestor
	processor *pipeline.Processor
	queue     async.Queue
	exporter  *export.Service
	logger    *slog.Logger
}

func NewDocumentServer(d Deps) *DocumentServer {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &DocumentServer{
		docs:      d.Docs,
		analyses:  d.Analyses,
		blobs:     d.Blobs,
		ingestor:  d.Ingestor,
		processor: d.Processor,
		queue:     d.Queue,
		exporter:  d.Exporter,
		logger:    d.Logger,
	}
}

var _ DocumentServiceServer = (*DocumentServer)(nil)

func (s *DocumentServer) IngestFile(ctx context.Context, req *IngestFileRequest) (*IngestResponse, error) {
	path := strings.TrimSpace(req.Path)
	name := strings.TrimSpace(req.FileName)
	v := common.NewValidator().
		Field("owner_id", req.OwnerID, common.Required, common.MaxLength(128)).
		Field("category", req.Category, common.DocumentCategory)
	switch {
	case path == "" && len(req.Content) == 0:
		v.Field("path", path, common.Required)
	case path == "":
		v.Field("file_name", name, common.Required, common.FileExtension).
			Field("content", int64(len(req.Content)), common.MaxBytes(constants.MaxUploadBytes))
	default:
		v.Field("path", path, common.FileExtension)
	}
	if err := v.Error(); err != nil {
		s.logger.Warn("invalid ingest request", "error", err)
		return nil, common.ToStatus(err)
	}
	category, _ := constants.Canonicalize(req.Category)

	s.logger.Info("starting file ingest", "owner", req.OwnerID, "path", path, "file_name", name)
	var (
		r   ingest.IngestionResult
		err error
	)
	if path != "" {
		r, err = s.ingestor.IngestPath(ctx, req.OwnerID, category, path)
	} else {
		r, err = s.ingestor.IngestReader(ctx, req.OwnerID, category, name, bytes.NewReader(req.Content))
	}
	if err != nil {
		s.logger.Error("file ingest failed", "owner", req.OwnerID, "error", err)
		return nil, ingestStatus(err)
	}
	s.logger.Info("file ingest succeeded", "owner", req.OwnerID, "document_id", r.DocumentID, "deduplicated", r.Deduplicated)

	resp := toIngestResponse(r)
	if req.Analyze && !r.Deduplicated {
		resp.Queued = s.enqueue(ctx, req.OwnerID, r.DocumentID, category, req.Options)
	}
	return resp, nil
}

func (s *DocumentServer) IngestDirectory(ctx context.Context, req *IngestDirectoryRequest) (*IngestDirectoryResponse, error) {
	v := common.NewValidator().
		Field("owner_id", req.OwnerID, common.Required, common.MaxLength(128)).
		Field("category", req.Category, common.DocumentCategory).
		Field("root_path", req.RootPath, common.Required)
	if err := v.Error(); err != nil {
		return nil, common.ToStatus(err)
	}
	category, _ := constants.Canonicalize(req.Category)

	results, stats, err := s.ingestor.IngestDirectory(ctx, req.OwnerID, category, strings.TrimSpace(req.RootPath), req.SkipHidden)
	if err != nil {
		s.logger.Error("ingest directory failed", "root", req.RootPath, "error", err)
		return nil, status.Errorf(codes.InvalidArgument, "ingest directory: %v", err)
	}

	out := &IngestDirectoryResponse{
		Results: make([]*IngestResponse, 0, len(results)),
		Stats: DirStats{
			Scanned:      stats.Scanned,
			Matched:      stats.Matched,
			Succeeded:    stats.Succeeded,
			Deduplicated: stats.Deduplicated,
			Failed:       stats.Failed,
		},
	}
	for _, r := range results {
		resp := toIngestResponse(r)
		if req.Analyze && r.Err == "" && !r.Deduplicated {
			resp.Queued = s.enqueue(ctx, req.OwnerID, r.DocumentID, category, req.Options)
		}
		out.Results = append(out.Results, resp)
	}
	return out, nil
}

func (s *DocumentServer) enqueue(ctx context.Context, owner, documentID string, category constants.Category, opts analysis.Options) bool {
	if s.queue == nil {
		return false
	}
	id, err := uuid.Parse(documentID)
	if err != nil {
		return false
	}
	_, requestID := common.EnsureRequestID(ctx)
	err = s.queue.Enqueue(ctx, async.Job{
		DocumentID:  id,
		OwnerID:     owner,
		Category:    category,
		Options:     opts,
		SubmittedAt: time.Now(),
		RequestID:   requestID,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue analysis", "document_id", documentID, "error", err)
		return false
	}
	return true
}

func (s *DocumentServer) AnalyzeDocument(ctx context.Context, req *AnalyzeDocumentRequest) (*AnalyzeDocumentResponse, error) {
	doc, err := s.ownedDocument(ctx, req.OwnerID, req.DocumentID)
	if err != nil {
		return nil, err
	}

	if doc.Status == constants.DocumentStatusAnalyzed {
		return nil, status.Error(codes.AlreadyExists, "document already analyzed")
	}

	s.setStatus(ctx, doc.ID, constants.DocumentStatusRunning, nil)
	stored, rec, err := s.processor.AnalyzeAndStore(ctx, doc.ID.String(), doc.OwnerID, req.Options, doc.Category)
	if err != nil {
		if !errors.Is(err, common.ErrAlreadyAnalyzed) {
			msg := err.Error()
			s.setStatus(ctx, doc.ID, constants.DocumentStatusFailed, &msg)
		} else {
			s.setStatus(ctx, doc.ID, constants.DocumentStatusAnalyzed, nil)
		}
		s.logger.Error("analyze document failed", "document_id", doc.ID, "error", err)
		return nil, common.ToStatus(err)
	}
	s.setStatus(ctx, doc.ID, constants.DocumentStatusAnalyzed, nil)

	return &AnalyzeDocumentResponse{
		DocumentID: doc.ID.String(),
		RecordID:   stored.ID,
		CreatedAt:  stored.CreatedAt.UTC().Format(time.RFC3339Nano),
		Record:     rec,
	}, nil
}

func (s *DocumentServer) EnqueueAnalysis(ctx context.Context, req *AnalyzeDocumentRequest) (*EnqueueAnalysisResponse, error) {
	if s.queue == nil {
		return nil, status.Error(codes.Unavailable, "analysis queue is not running")
	}
	doc, err := s.ownedDocument(ctx, req.OwnerID, req.DocumentID)
	if err != nil {
		return nil, err
	}
	switch doc.Status {
	case constants.DocumentStatusAnalyzed:
		return nil, status.Error(codes.AlreadyExists, "document already analyzed")
	case constants.DocumentStatusQueued, constants.DocumentStatusRunning:
		return nil, status.Errorf(codes.FailedPrecondition, "document analysis is already %s", doc.Status)
	}
	_, requestID := common.EnsureRequestID(ctx)
	err = s.queue.Enqueue(ctx, async.Job{
		DocumentID:  doc.ID,
		OwnerID:     doc.OwnerID,
		Category:    doc.Category,
		Options:     req.Options,
		SubmittedAt: time.Now(),
		RequestID:   requestID,
	})
	switch {
	case errors.Is(err, async.ErrQueueClosed):
		return nil, status.Error(codes.Unavailable, err.Error())
	case err != nil:
		return nil, status.Error(codes.ResourceExhausted, err.Error())
	}
	return &EnqueueAnalysisResponse{DocumentID: doc.ID.String(), Status: string(constants.DocumentStatusQueued)}, nil
}

func (s *DocumentServer) GetDocument(ctx context.Context, req *DocumentRequest) (*GetDocumentResponse, error) {
	doc, err := s.ownedDocument(ctx, req.OwnerID, req.DocumentID)
	if err != nil {
		return nil, err
	}
	out := &GetDocumentResponse{Document: toDocument(doc)}
	a, err := s.analyses.GetByDocument(ctx, doc.ID)
	switch {
	case err == nil:
		out.Analysis = toAnalysis(a)
	case !errors.Is(err, common.ErrNotFound):
		s.logger.Error("get analysis failed", "document_id", doc.ID, "error", err)
		return nil, common.ToStatus(err)
	}
	return out, nil
}

func (s *DocumentServer) ListDocuments(ctx context.Context, req *ListDocumentsRequest) (*ListDocumentsResponse, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		s.logger.Error("list documents request missing owner_id")
		return nil, status.Error(codes.InvalidArgument, "owner_id is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	docs, err := s.docs.ListByOwner(ctx, req.OwnerID, limit)
	if err != nil {
		s.logger.Error("list documents failed", "owner", req.OwnerID, "error", err)
		return nil, status.Error(codes.Internal, "list documents failed")
	}
	out := &ListDocumentsResponse{Documents: make([]*Document, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, toDocument(d))
	}
	return out, nil
}

func (s *DocumentServer) DeleteDocument(ctx context.Context, req *DocumentRequest) (*DeleteDocumentResponse, error) {
	doc, err := s.ownedDocument(ctx, req.OwnerID, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		s.logger.Error("delete document failed", "document_id", doc.ID, "error", err)
		return nil, common.ToStatus(err)
	}
	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("failed to delete stored file", "document_id", doc.ID, "key", doc.StorageKey, "error", err)
	}
	s.logger.Info("deleted document", "document_id", doc.ID, "owner", doc.OwnerID)
	return &DeleteDocumentResponse{Deleted: true}, nil
}

func (s *DocumentServer) CompareDocuments(ctx context.Context, req *CompareDocumentsRequest) (*CompareDocumentsResponse, error) {
	a, err := s.ownedDocument(ctx, req.OwnerID, req.DocumentA)
	if err != nil {
		return nil, err
	}
	b, err := s.ownedDocument(ctx, req.OwnerID, req.DocumentB)
	if err != nil {
		return nil, err
	}
	res, err := s.processor.Compare(ctx, a.ID.String(), b.ID.String())
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return &CompareDocumentsResponse{Result: res}, nil
}

func (s *DocumentServer) ExportAnalyses(ctx context.Context, req *ExportAnalysesRequest) (*ExportAnalysesResponse, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, status.Error(codes.InvalidArgument, "owner_id is required")
	}
	from, err := parseDate(req.FromDate)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "from_date must be YYYY-MM-DD")
	}
	to, err := parseDate(req.ToDate)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "to_date must be YYYY-MM-DD")
	}
	xlsx, err := s.exporter.ExportAnalysesXLSX(ctx, req.OwnerID, from, to)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "owner", req.OwnerID, "err", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &ExportAnalysesResponse{Xlsx: xlsx}, nil
}

// ownedDocument loads a document and hides documents of other owners behind
// NotFound.
func (s *DocumentServer) ownedDocument(ctx context.Context, owner, documentID string) (*entity.Document, error) {
	v := common.NewValidator().
		Field("owner_id", owner, common.Required).
		Field("document_id", strings.TrimSpace(documentID), common.UUID)
	if err := v.Error(); err != nil {
		return nil, common.ToStatus(err)
	}
	id := uuid.MustParse(strings.TrimSpace(documentID))
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("get document failed", "document_id", id, "error", err)
		}
		return nil, common.ToStatus(err)
	}
	if doc.OwnerID != owner {
		s.logger.Warn("document requested by another owner", "document_id", id)
		return nil, status.Error(codes.NotFound, "document not found")
	}
	return doc, nil
}

func (s *DocumentServer) setStatus(ctx context.Context, id uuid.UUID, st constants.DocumentStatus, msg *string) {
	if err := s.docs.SetStatus(ctx, id, st, msg); err != nil {
		s.logger.Warn("failed to update document status", "document_id", id, "status", st, "error", err)
	}
}

func ingestStatus(err error) error {
	if errors.Is(err, common.ErrValidation) {
		return common.ToStatus(err)
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Code == common.CodeStorage {
		return status.Error(codes.Unavailable, appErr.Message)
	}
	return status.Errorf(codes.InvalidArgument, "ingest: %v", err)
}

func toIngestResponse(r ingest.IngestionResult) *IngestResponse {
	out := &IngestResponse{
		DocumentID:     r.DocumentID,
		Deduplicated:   r.Deduplicated,
		ContentHashHex: r.HashHex,
		FileExt:        r.FileExt,
		Size:           r.Size,
		SourcePath:     r.SourcePath,
		Error:          r.Err,
	}
	if !r.UploadedAt.IsZero() {
		out.UploadedAt = r.UploadedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
