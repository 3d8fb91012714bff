package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/entity"
)

const documentsTable = "documents"

var documentColumns = []string{
	"id", "owner_id", "name", "storage_key", "file_ext", "format", "file_size", "content_hash",
	"category", "status", "raw_text", "error_message", "uploaded_at", "updated_at",
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) (*entity.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByOwnerAndHash(ctx context.Context, ownerID string, hash []byte) (*entity.Document, error)
	UpsertByHash(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*entity.Document, error)
	SetText(ctx context.Context, id uuid.UUID, text string) error
	SetStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, errMsg *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

type documentRepo struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewDocumentRepository(drv *entsql.Driver, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{
		drv:    drv,
		logger: logger,
	}
}

func (r *documentRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) (*entity.Document, error) {
	row := *doc
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.UploadedAt.IsZero() {
		row.UploadedAt = now
	}
	row.UpdatedAt = now
	if row.Status == "" {
		row.Status = constants.DocumentStatusUploaded
	}

	q, args := r.builder().Insert(documentsTable).
		Columns(documentColumns...).
		Values(
			row.ID, row.OwnerID, row.Name, row.StorageKey, row.FileExt, row.Format, row.FileSize, row.ContentHash,
			string(row.Category), string(row.Status), nullable(row.RawText), nullable(row.ErrorMessage),
			row.UploadedAt, row.UpdatedAt,
		).Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("failed to create document", "owner_id", row.OwnerID, "name", row.Name, "error", err)
		return nil, common.NewAppError(common.CodeDatabase, "create document", errors.Join(common.ErrDatabase, err))
	}
	return &row, nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	q, args := r.builder().Select(documentColumns...).
		From(entsql.Table(documentsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	return r.queryOne(ctx, q, args, "document "+id.String())
}

func (r *documentRepo) GetByOwnerAndHash(ctx context.Context, ownerID string, hash []byte) (*entity.Document, error) {
	q, args := r.builder().Select(documentColumns...).
		From(entsql.Table(documentsTable)).
		Where(entsql.And(
			entsql.EQ("owner_id", ownerID),
			entsql.EQ("content_hash", hash),
		)).
		Query()
	return r.queryOne(ctx, q, args, "document by hash")
}

func (r *documentRepo) UpsertByHash(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error) {
	existing, err := r.GetByOwnerAndHash(ctx, doc.OwnerID, doc.ContentHash)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	row, err := r.Create(ctx, doc)
	if err != nil {
		r.logger.Error("failed to upsert document by hash", "owner_id", doc.OwnerID, "name", doc.Name, "error", err)
		return nil, false, err
	}
	return row, false, nil
}

func (r *documentRepo) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*entity.Document, error) {
	sel := r.builder().Select(documentColumns...).
		From(entsql.Table(documentsTable)).
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy(entsql.Desc("uploaded_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	q, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		r.logger.Error("failed to list documents", "owner_id", ownerID, "error", err)
		return nil, common.NewAppError(common.CodeDatabase, "list documents", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "list documents", errors.Join(common.ErrDatabase, err))
	}
	return out, nil
}

func (r *documentRepo) SetText(ctx context.Context, id uuid.UUID, text string) error {
	q, args := r.builder().Update(documentsTable).
		Set("raw_text", text).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id)).
		Query()
	return r.execOne(ctx, q, args, id, "set document text")
}

func (r *documentRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, errMsg *string) error {
	q, args := r.builder().Update(documentsTable).
		Set("status", string(status)).
		Set("error_message", nullable(errMsg)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id)).
		Query()
	return r.execOne(ctx, q, args, id, "set document status")
}

// Delete removes the document and its analysis in one transaction.
func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return common.NewAppError(common.CodeDatabase, "begin delete", errors.Join(common.ErrDatabase, err))
	}

	q, args := r.builder().Delete(analysesTable).Where(entsql.EQ("document_id", id)).Query()
	var res sql.Result
	if err := tx.Exec(ctx, q, args, &res); err != nil {
		_ = tx.Rollback()
		r.logger.Error("failed to delete analysis", "document_id", id, "error", err)
		return common.NewAppError(common.CodeDatabase, "delete analysis", errors.Join(common.ErrDatabase, err))
	}

	q, args = r.builder().Delete(documentsTable).Where(entsql.EQ("id", id)).Query()
	if err := tx.Exec(ctx, q, args, &res); err != nil {
		_ = tx.Rollback()
		r.logger.Error("failed to delete document", "document_id", id, "error", err)
		return common.NewAppError(common.CodeDatabase, "delete document", errors.Join(common.ErrDatabase, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		_ = tx.Rollback()
		return common.NewNotFoundError("document not found")
	}

	if err := tx.Commit(); err != nil {
		return common.NewAppError(common.CodeDatabase, "commit delete", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

func (r *documentRepo) Count(ctx context.Context) (int, error) {
	q, args := r.builder().Select(entsql.Count("*")).From(entsql.Table(documentsTable)).Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		return 0, common.NewAppError(common.CodeDatabase, "count documents", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("scan count: %w", err)
		}
	}
	return n, rows.Err()
}

func (r *documentRepo) queryOne(ctx context.Context, q string, args []any, what string) (*entity.Document, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		r.logger.Error("failed to query document", "what", what, "error", err)
		return nil, common.NewAppError(common.CodeDatabase, "query "+what, errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, common.NewAppError(common.CodeDatabase, "query "+what, errors.Join(common.ErrDatabase, err))
		}
		return nil, common.NewNotFoundError(what + " not found")
	}
	return scanDocument(&rows)
}

func (r *documentRepo) execOne(ctx context.Context, q string, args []any, id uuid.UUID, op string) error {
	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("failed to "+op, "document_id", id, "error", err)
		return common.NewAppError(common.CodeDatabase, op, errors.Join(common.ErrDatabase, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewNotFoundError("document not found")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*entity.Document, error) {
	var (
		doc      entity.Document
		category string
		status   string
		rawText  sql.NullString
		errMsg   sql.NullString
	)
	if err := s.Scan(
		&doc.ID, &doc.OwnerID, &doc.Name, &doc.StorageKey, &doc.FileExt, &doc.Format, &doc.FileSize, &doc.ContentHash,
		&category, &status, &rawText, &errMsg, &doc.UploadedAt, &doc.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	doc.Category = constants.Category(category)
	doc.Status = constants.DocumentStatus(status)
	doc.RawText = fromNullString(rawText)
	doc.ErrorMessage = fromNullString(errMsg)
	return &doc, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
