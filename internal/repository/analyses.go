package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/entity"
)

const analysesTable = "analyses"

var analysisColumns = []string{
	"id", "document_id", "owner_id", "category", "options",
	"summary", "extracted_data", "anomalies", "compliance_status", "created_at",
}

// AnalysisRepository stores analysis records. It satisfies analysis.RecordSink.
type AnalysisRepository interface {
	analysis.RecordSink
	GetByDocument(ctx context.Context, documentID uuid.UUID) (*entity.StoredAnalysis, error)
	ListByOwner(ctx context.Context, ownerID string, from, to *time.Time) ([]*entity.StoredAnalysis, error)
}

type analysisRepo struct {
	drv    *entsql.Driver
	logger *slog.Logger
	now    func() time.Time
}

func NewAnalysisRepository(drv *entsql.Driver, logger *slog.Logger) AnalysisRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &analysisRepo{
		drv:    drv,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *analysisRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

// Save inserts rec for meta.DocumentRef. A second save for the same document
// fails with common.ErrAlreadyAnalyzed.
func (r *analysisRepo) Save(ctx context.Context, rec analysis.Record, meta analysis.RecordMeta) (analysis.StoredRecord, error) {
	documentID, err := uuid.Parse(meta.DocumentRef)
	if err != nil {
		return analysis.StoredRecord{}, common.NewAppError(common.CodeValidation, "invalid document id", errors.Join(common.ErrInvalidInput, err))
	}

	options, err := json.Marshal(meta.Options)
	if err != nil {
		return analysis.StoredRecord{}, fmt.Errorf("marshal options: %w", err)
	}
	var extracted, anomalies any
	if rec.ExtractedData != nil {
		b, err := json.Marshal(rec.ExtractedData)
		if err != nil {
			return analysis.StoredRecord{}, fmt.Errorf("marshal extracted data: %w", err)
		}
		extracted = string(b)
	}
	if rec.Anomalies != nil {
		b, err := json.Marshal(rec.Anomalies)
		if err != nil {
			return analysis.StoredRecord{}, fmt.Errorf("marshal anomalies: %w", err)
		}
		anomalies = string(b)
	}
	var compliance any
	if rec.ComplianceStatus != nil {
		compliance = string(*rec.ComplianceStatus)
	}

	id := uuid.New()
	createdAt := r.now()
	q, args := r.builder().Insert(analysesTable).
		Columns(analysisColumns...).
		Values(id, documentID, meta.OwnerRef, string(meta.Category), string(options),
			nullable(rec.Summary), extracted, anomalies, compliance, createdAt).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		if isUniqueViolation(err) {
			return analysis.StoredRecord{}, common.NewAppError(common.CodeConflict, "document already analyzed", common.ErrAlreadyAnalyzed)
		}
		r.logger.Error("failed to save analysis", "document_id", documentID, "error", err)
		return analysis.StoredRecord{}, common.NewAppError(common.CodeDatabase, "save analysis", errors.Join(common.ErrDatabase, err))
	}
	r.logger.Debug("analysis saved", "analysis_id", id, "document_id", documentID)
	return analysis.StoredRecord{ID: id.String(), CreatedAt: createdAt}, nil
}

func (r *analysisRepo) GetByDocument(ctx context.Context, documentID uuid.UUID) (*entity.StoredAnalysis, error) {
	q, args := r.builder().Select(analysisColumns...).
		From(entsql.Table(analysesTable)).
		Where(entsql.EQ("document_id", documentID)).
		Query()
	out, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, common.NewNotFoundError("analysis not found")
	}
	return out[0], nil
}

// ListByOwner returns the owner's analyses, newest first. from and to bound
// created_at inclusively when set.
func (r *analysisRepo) ListByOwner(ctx context.Context, ownerID string, from, to *time.Time) ([]*entity.StoredAnalysis, error) {
	preds := []*entsql.Predicate{entsql.EQ("owner_id", ownerID)}
	if from != nil {
		preds = append(preds, entsql.GTE("created_at", *from))
	}
	if to != nil {
		preds = append(preds, entsql.LTE("created_at", *to))
	}
	q, args := r.builder().Select(analysisColumns...).
		From(entsql.Table(analysesTable)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("created_at")).
		Query()
	return r.query(ctx, q, args)
}

func (r *analysisRepo) query(ctx context.Context, q string, args []any) ([]*entity.StoredAnalysis, error) {
	var rows entsql.Rows
	if err := r.drv.Query(ctx, q, args, &rows); err != nil {
		r.logger.Error("failed to query analyses", "error", err)
		return nil, common.NewAppError(common.CodeDatabase, "query analyses", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*entity.StoredAnalysis
	for rows.Next() {
		a, err := scanAnalysis(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "query analyses", errors.Join(common.ErrDatabase, err))
	}
	return out, nil
}

func scanAnalysis(s scanner) (*entity.StoredAnalysis, error) {
	var (
		a          entity.StoredAnalysis
		category   string
		options    string
		summary    sql.NullString
		extracted  sql.NullString
		anomalies  sql.NullString
		compliance sql.NullString
	)
	if err := s.Scan(&a.ID, &a.DocumentID, &a.OwnerID, &category, &options,
		&summary, &extracted, &anomalies, &compliance, &a.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	a.Category = constants.Category(category)
	if err := json.Unmarshal([]byte(options), &a.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	a.Record.Summary = fromNullString(summary)
	if extracted.Valid {
		bag := analysis.EntityBag{}
		if err := json.Unmarshal([]byte(extracted.String), &bag); err != nil {
			return nil, fmt.Errorf("decode extracted data: %w", err)
		}
		a.Record.ExtractedData = bag
	}
	if anomalies.Valid {
		var report analysis.AnomalyReport
		if err := json.Unmarshal([]byte(anomalies.String), &report); err != nil {
			return nil, fmt.Errorf("decode anomalies: %w", err)
		}
		if report.Items == nil {
			report.Items = []analysis.AnomalyItem{}
		}
		a.Record.Anomalies = &report
	}
	if compliance.Valid {
		status := constants.ComplianceStatus(compliance.String)
		a.Record.ComplianceStatus = &status
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
