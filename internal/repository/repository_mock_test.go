package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
)

func newPostgresMock(t *testing.T) (*entsql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return entsql.OpenDB(dialect.Postgres, db), mock
}

func TestDocumentRepository_GetByID_Postgres(t *testing.T) {
	drv, mock := newPostgresMock(t)
	repo := NewDocumentRepository(drv, nil)
	id := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(documentColumns).AddRow(
		id.String(), "owner-1", "lease.pdf", "owner-1/abc.pdf", "pdf", constants.FormatPDF, int64(2048), []byte{0xab},
		"Legal", "ANALYZED", "text", nil, now, now,
	)
	mock.ExpectQuery(`SELECT .+ FROM "documents" WHERE "id" = \$1`).
		WithArgs(id).
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, constants.Legal, doc.Category)
	assert.Equal(t, constants.DocumentStatusAnalyzed, doc.Status)
	require.NotNil(t, doc.RawText)
	assert.Equal(t, "text", *doc.RawText)
	assert.Nil(t, doc.ErrorMessage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_GetByID_NotFound(t *testing.T) {
	drv, mock := newPostgresMock(t)
	repo := NewDocumentRepository(drv, nil)

	mock.ExpectQuery(`FROM "documents"`).WillReturnRows(sqlmock.NewRows(documentColumns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_SetStatus_NoRows(t *testing.T) {
	drv, mock := newPostgresMock(t)
	repo := NewDocumentRepository(drv, nil)

	mock.ExpectExec(`UPDATE "documents" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), uuid.New(), constants.DocumentStatusRunning, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_QueryError(t *testing.T) {
	drv, mock := newPostgresMock(t)
	repo := NewDocumentRepository(drv, nil)

	mock.ExpectQuery(`FROM "documents"`).WillReturnError(errors.New("connection reset"))

	_, err := repo.ListByOwner(context.Background(), "owner-1", 10)
	assert.ErrorIs(t, err, common.ErrDatabase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_Save_Postgres(t *testing.T) {
	drv, mock := newPostgresMock(t)
	repo := NewAnalysisRepository(drv, nil)
	docID := uuid.New()

	mock.ExpectExec(`INSERT INTO "analyses"`).
		WithArgs(sqlmock.AnyArg(), docID, "owner-1", "Financial", sqlmock.AnyArg(),
			nil, `{}`, nil, "Pass", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := constants.CompliancePass
	stored, err := repo.Save(context.Background(),
		analysis.Record{ExtractedData: analysis.EntityBag{}, ComplianceStatus: &status},
		analysis.RecordMeta{DocumentRef: docID.String(), OwnerRef: "owner-1", Category: constants.Financial},
	)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalysisRepository_Save_UniqueViolation(t *testing.T) {
	drv, mock := newPostgresMock(t)
	repo := NewAnalysisRepository(drv, nil)

	mock.ExpectExec(`INSERT INTO "analyses"`).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Save(context.Background(), analysis.Record{},
		analysis.RecordMeta{DocumentRef: uuid.NewString(), OwnerRef: "owner-1", Category: constants.Legal})
	assert.ErrorIs(t, err, common.ErrAlreadyAnalyzed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
