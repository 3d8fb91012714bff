// Package export renders stored analyses and comparisons as XLSX workbooks.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/entity"
	"github.com/joseph-ayodele/document-analyzer/internal/repository"
)

const (
	AnalysesSheet   = "Analyses"
	ComparisonSheet = "Comparison"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	analyses repository.AnalysisRepository
	docs     repository.DocumentRepository
	logger   *slog.Logger
}

func NewService(analyses repository.AnalysisRepository, docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{analyses: analyses, docs: docs, logger: logger}
}

// ExportAnalysesXLSX returns a workbook with one row per analysed document of
// owner within the date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all analyses of the owner.
func (s *Service) ExportAnalysesXLSX(ctx context.Context, ownerID string, from, to *time.Time) ([]byte, error) {
	start := time.Now()
	fromTS, toTS := window(from, to, start)

	recs, err := s.analyses.ListByOwner(ctx, ownerID, fromTS, toTS)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}

	f, err := newWorkbook(AnalysesSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	headers := []string{
		"Analyzed At",
		"Document",
		"Category",
		"Compliance",
		"Anomalies",
		"Summary",
		"Dates",
		"Amounts",
		"Percentages",
		"Emails",
		"Phones",
	}
	if err := writeRow(f, AnalysesSheet, 1, headers); err != nil {
		return nil, err
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(AnalysesSheet, 1, 1, bold)
	}
	_ = f.SetPanes(AnalysesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i, a := range recs {
		name := a.DocumentID.String()
		doc, err := s.docs.GetByID(ctx, a.DocumentID)
		switch {
		case err == nil:
			name = doc.Name
		case !errors.Is(err, common.ErrNotFound):
			s.logger.Warn("export: document lookup failed", "document_id", a.DocumentID, "error", err)
		}
		if err := writeRow(f, AnalysesSheet, i+2, analysisRow(a, name)); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(AnalysesSheet, "A", "A", 20) // date
	_ = f.SetColWidth(AnalysesSheet, "B", "B", 32) // document
	_ = f.SetColWidth(AnalysesSheet, "C", "D", 12)
	_ = f.SetColWidth(AnalysesSheet, "E", "E", 36) // anomalies
	_ = f.SetColWidth(AnalysesSheet, "F", "F", 60) // summary
	_ = f.SetColWidth(AnalysesSheet, "G", "K", 12) // counts

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"owner", ownerID,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func analysisRow(a *entity.StoredAnalysis, name string) []any {
	rec := a.Record
	compliance := ""
	if rec.ComplianceStatus != nil {
		compliance = string(*rec.ComplianceStatus)
	}
	anomalies := ""
	if rec.Anomalies != nil {
		labels := make([]string, 0, len(rec.Anomalies.Items))
		for _, it := range rec.Anomalies.Items {
			labels = append(labels, fmt.Sprintf("%s (%d)", it.Type, it.Confidence))
		}
		anomalies = strings.Join(labels, "; ")
		if anomalies == "" {
			anomalies = "none"
		}
		if rec.Anomalies.Error != "" {
			anomalies = rec.Anomalies.Error
		}
	}
	summary := ""
	if rec.Summary != nil {
		summary = truncate(*rec.Summary, 500)
	}
	return []any{
		a.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		name,
		a.Category.String(),
		compliance,
		anomalies,
		summary,
		len(rec.ExtractedData[analysis.EntityDate]),
		len(rec.ExtractedData[analysis.EntityMoney]),
		len(rec.ExtractedData[analysis.EntityPercentage]),
		len(rec.ExtractedData[analysis.EntityEmail]),
		len(rec.ExtractedData[analysis.EntityPhone]),
	}
}

// ComparisonXLSX renders a comparison: the score and verdict, then one row
// per added or removed entity value.
func ComparisonXLSX(res analysis.ComparisonResult) ([]byte, error) {
	f, err := newWorkbook(ComparisonSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := [][]any{
		{"Document A", res.DocumentRefs[0]},
		{"Document B", res.DocumentRefs[1]},
		{"Similarity Score", res.SimilarityScore},
		{"Verdict", res.Verdict},
		{"Compared At", res.ComparedAt.UTC().Format(time.RFC3339)},
	}
	row := 1
	for _, vals := range header {
		if err := writeRow(f, ComparisonSheet, row, vals); err != nil {
			return nil, err
		}
		row++
	}
	row++ // blank line
	if err := writeRow(f, ComparisonSheet, row, []any{"Category", "Change", "Value"}); err != nil {
		return nil, err
	}
	row++

	for _, cat := range orderedCategories(res.Differences) {
		d := res.Differences[cat]
		for _, v := range d.Additions {
			if err := writeRow(f, ComparisonSheet, row, []any{cat, "added", v}); err != nil {
				return nil, err
			}
			row++
		}
		for _, v := range d.Removals {
			if err := writeRow(f, ComparisonSheet, row, []any{cat, "removed", v}); err != nil {
				return nil, err
			}
			row++
		}
	}

	_ = f.SetColWidth(ComparisonSheet, "A", "A", 18)
	_ = f.SetColWidth(ComparisonSheet, "B", "C", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
