package repository

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/entity"
)

func newSQLite(t *testing.T) *entsql.Driver {
	t.Helper()
	ctx := context.Background()
	drv, err := OpenSQLite(ctx, "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = drv.Close() })
	require.NoError(t, Migrate(ctx, drv, nil))
	return drv
}

func newDocument(owner, content string) *entity.Document {
	sum := sha256.Sum256([]byte(content))
	return &entity.Document{
		OwnerID:     owner,
		Name:        "statement.txt",
		StorageKey:  owner + "/statement.txt",
		FileExt:     "txt",
		Format:      constants.FormatText,
		FileSize:    int64(len(content)),
		ContentHash: sum[:],
		Category:    constants.Financial,
	}
}

func TestDocumentRepository_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newSQLite(t), nil)

	created, err := repo.Create(ctx, newDocument("owner-1", "alpha"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, constants.DocumentStatusUploaded, created.Status)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "owner-1", got.OwnerID)
	assert.Equal(t, created.ContentHash, got.ContentHash)
	assert.Equal(t, constants.Financial, got.Category)
	assert.Nil(t, got.RawText)
	assert.False(t, got.HasText())

	again, existed, err := repo.UpsertByHash(ctx, newDocument("owner-1", "alpha"))
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, created.ID, again.ID)

	other, existed, err := repo.UpsertByHash(ctx, newDocument("owner-2", "alpha"))
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEqual(t, created.ID, other.ID)

	require.NoError(t, repo.SetText(ctx, created.ID, "Full text."))
	msg := "ocr failed"
	require.NoError(t, repo.SetStatus(ctx, created.ID, constants.DocumentStatusFailed, &msg))

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RawText)
	assert.Equal(t, "Full text.", *got.RawText)
	assert.Equal(t, constants.DocumentStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, msg, *got.ErrorMessage)

	list, err := repo.ListByOwner(ctx, "owner-1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), common.ErrNotFound)
	assert.ErrorIs(t, repo.SetText(ctx, uuid.New(), "x"), common.ErrNotFound)
}

func TestAnalysisRepository_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	drv := newSQLite(t)
	docs := NewDocumentRepository(drv, nil)
	analyses := NewAnalysisRepository(drv, nil)

	doc, err := docs.Create(ctx, newDocument("owner-1", "beta"))
	require.NoError(t, err)

	summary := "First sentence."
	status := constants.ComplianceWarning
	rec := analysis.Record{
		Summary:          &summary,
		ExtractedData:    analysis.EntityBag{analysis.EntityMoney: {"$5"}},
		Anomalies:        &analysis.AnomalyReport{Detected: true, Items: []analysis.AnomalyItem{{Type: "Overpayment", Confidence: 80}}},
		ComplianceStatus: &status,
	}
	meta := analysis.RecordMeta{
		DocumentRef: doc.ID.String(),
		OwnerRef:    "owner-1",
		Category:    constants.Financial,
		Options:     analysis.AllOptions(),
	}

	stored, err := analyses.Save(ctx, rec, meta)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	_, err = analyses.Save(ctx, rec, meta)
	assert.ErrorIs(t, err, common.ErrAlreadyAnalyzed)

	got, err := analyses.GetByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID.String())
	assert.Equal(t, rec, got.Record)
	assert.Equal(t, analysis.AllOptions(), got.Options)
	assert.Equal(t, constants.Financial, got.Category)

	list, err := analyses.ListByOwner(ctx, "owner-1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	future := time.Now().Add(24 * time.Hour)
	list, err = analyses.ListByOwner(ctx, "owner-1", &future, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, docs.Delete(ctx, doc.ID))
	_, err = analyses.GetByDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAnalysisRepository_NullFields(t *testing.T) {
	ctx := context.Background()
	drv := newSQLite(t)
	docs := NewDocumentRepository(drv, nil)
	analyses := NewAnalysisRepository(drv, nil)

	doc, err := docs.Create(ctx, newDocument("owner-1", "gamma"))
	require.NoError(t, err)

	_, err = analyses.Save(ctx, analysis.Record{}, analysis.RecordMeta{
		DocumentRef: doc.ID.String(), OwnerRef: "owner-1", Category: constants.Legal,
	})
	require.NoError(t, err)

	got, err := analyses.GetByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, got.Record.IsEmpty())
}

func TestAnalysisRepository_InvalidDocumentRef(t *testing.T) {
	analyses := NewAnalysisRepository(newSQLite(t), nil)
	_, err := analyses.Save(context.Background(), analysis.Record{}, analysis.RecordMeta{DocumentRef: "nope"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
