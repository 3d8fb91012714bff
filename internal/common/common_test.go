package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"validation", NewValidationError("category is required"), codes.InvalidArgument, "category is required"},
		{"not found", NewNotFoundError("document not found"), codes.NotFound, "document not found"},
		{"comparison", NewComparisonError("document text unavailable", nil), codes.FailedPrecondition, "document text unavailable"},
		{"conflict", fmt.Errorf("save: %w", ErrAlreadyAnalyzed), codes.AlreadyExists, "save: document already analyzed"},
		{"other", errors.New("boom"), codes.Internal, "boom"},
		{"status passthrough", status.Error(codes.Unavailable, "down"), codes.Unavailable, "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(ToStatus(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			assert.Equal(t, tt.msg, st.Message())
		})
	}
	assert.NoError(t, ToStatus(nil))
}

func TestComparisonErrorWrapsCause(t *testing.T) {
	cause := errors.New("object missing")
	err := NewComparisonError("document text unavailable", cause)
	assert.ErrorIs(t, err, ErrComparison)
	assert.ErrorIs(t, err, cause)
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("owner_id", "", Required).
		Field("document_id", "not-a-uuid", UUID).
		Field("category", "Medical", DocumentCategory).
		Field("file", "report.docx", FileExtension).
		Field("size", int64(11<<20), MaxBytes(10<<20)).
		Field("name", "abcdef", MaxLength(3))

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 6)
	err := v.Error()
	assert.ErrorIs(t, err, ErrValidation)

	ok := NewValidator().
		Field("category", "legal", Required, DocumentCategory).
		Field("file", "scan.PNG", FileExtension).
		Field("size", 1024, MaxBytes(10<<20))
	assert.False(t, ok.HasErrors())
	assert.NoError(t, ok.Error())
	assert.NoError(t, ValidateAndReturnError(ok))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_INMEM", "true")
	t.Setenv("STORAGE_BACKEND", "FS")
	t.Setenv("TEXT_SOURCE_TIMEOUT", "5s")
	t.Setenv("INBOX_DIRS", " /tmp/a, ,/tmp/b")
	t.Setenv("INBOX_OWNER", "owner-1")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()

	assert.True(t, cfg.Database.InMemory)
	assert.Equal(t, StorageFS, cfg.Storage.Backend)
	assert.Equal(t, 5*time.Second, cfg.Analysis.TextSourceTimeout)
	assert.Equal(t, 10*time.Second, cfg.Analysis.RecordSinkTimeout)
	assert.Equal(t, []string{"/tmp/a", "/tmp/b"}, cfg.Analysis.InboxDirs)
	assert.Equal(t, "DEBUG", cfg.LogLevel.String())
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("DB_INMEM", "")
	t.Setenv("SQLITE_PATH", "")
	cfg := LoadConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	cfg.Database.InMemory = true
	cfg.Storage.Backend = StorageMinio
	cfg.Storage.MinioEndpoint = ""
	assert.Error(t, cfg.Validate())

	cfg.Storage.Backend = "s3"
	assert.Error(t, cfg.Validate())
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, RequestIDFromContext(ctx))

	_, again := EnsureRequestID(ctx)
	assert.Equal(t, id, again)
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var text bytes.Buffer
	NewLogger(&text, false, slog.LevelInfo).Debug("hidden")
	slog.Info("ingested", "document_id", "abc")
	assert.NotContains(t, text.String(), "hidden")
	assert.Contains(t, text.String(), "document_id=abc")
	assert.False(t, strings.Contains(text.String(), "time="))

	var js bytes.Buffer
	NewLogger(&js, true, slog.LevelDebug).Debug("shown", "step", "summary")
	assert.Contains(t, js.String(), `"step":"summary"`)
	assert.Contains(t, js.String(), `"time"`)
}
