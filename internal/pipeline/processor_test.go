package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
	"github.com/joseph-ayodele/document-analyzer/internal/extract"
	"github.com/joseph-ayodele/document-analyzer/internal/telemetry"
)

const (
	legalText = "This agreement covers consent and liability. Termination requires notice. " +
		"Any unenforceable clause is severed. Signed 2023-05-01 by legal@firm.example."
	financialText = "Invoice dated 2023-05-01 for $500.00. Interest is 5% per month. " +
		"Contact billing@acme.example or 555-123-4567."
)

type memSource struct {
	mu    sync.Mutex
	texts map[string]string
	delay time.Duration
	calls int
}

func (s *memSource) GetText(ctx context.Context, ref string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	t, ok := s.texts[ref]
	if !ok {
		return "", extract.ErrTextNotFound
	}
	return t, nil
}

type memSink struct {
	mu    sync.Mutex
	saved []analysis.RecordMeta
	err   error
}

func (s *memSink) Save(_ context.Context, _ analysis.Record, meta analysis.RecordMeta) (analysis.StoredRecord, error) {
	if s.err != nil {
		return analysis.StoredRecord{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, meta)
	return analysis.StoredRecord{ID: "rec-1", CreatedAt: time.Now().UTC()}, nil
}

func newProcessor(src extract.TextSource, opts ...Option) *Processor {
	engine := analysis.NewEngine(nil,
		analysis.WithDetector(analysis.NewDetector(nil, analysis.WithConfidence(analysis.FixedConfidence(80)))))
	return NewProcessor(engine, src, opts...)
}

func TestAnalyze_AllOptions(t *testing.T) {
	p := newProcessor(&memSource{texts: map[string]string{"doc-1": legalText}})

	rec, err := p.Analyze(context.Background(), "doc-1", analysis.AllOptions(), constants.Legal)
	require.NoError(t, err)

	require.NotNil(t, rec.Summary)
	assert.Equal(t, "This agreement covers consent and liability.", *rec.Summary)
	assert.Equal(t, []string{"2023-05-01"}, rec.ExtractedData[analysis.EntityDate])
	require.NotNil(t, rec.Anomalies)
	assert.True(t, rec.Anomalies.Detected)
	assert.Equal(t, []analysis.AnomalyItem{{Type: "Unenforceable Clause", Confidence: 80}}, rec.Anomalies.Items)
	require.NotNil(t, rec.ComplianceStatus)
	assert.Equal(t, constants.ComplianceWarning, *rec.ComplianceStatus)
}

func TestAnalyze_NoOptions(t *testing.T) {
	p := newProcessor(&memSource{texts: map[string]string{"doc-1": financialText}})

	rec, err := p.Analyze(context.Background(), "doc-1", analysis.Options{}, constants.Financial)
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
}

func TestAnalyze_UnsupportedCategory(t *testing.T) {
	src := &memSource{texts: map[string]string{"doc-1": financialText}}
	p := newProcessor(src)

	_, err := p.Analyze(context.Background(), "doc-1", analysis.AllOptions(), constants.Category("Medical"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, 0, src.calls, "text must not be fetched for an invalid category")
}

func TestAnalyze_AcquisitionFailureIsAbsorbed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)
	p := newProcessor(&memSource{texts: map[string]string{"blank": "  \n "}}, WithMetrics(m))

	tests := []struct {
		name string
		ref  string
	}{
		{"missing", "nope"},
		{"empty text", "blank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := p.Analyze(context.Background(), tt.ref, analysis.AllOptions(), constants.Financial)
			require.NoError(t, err)
			assert.True(t, rec.IsEmpty())
		})
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AcquisitionFailures))
}

func TestAnalyze_TextTimeout(t *testing.T) {
	src := &memSource{texts: map[string]string{"slow": financialText}, delay: time.Second}
	p := newProcessor(src, WithTextTimeout(20*time.Millisecond))

	start := time.Now()
	rec, err := p.Analyze(context.Background(), "slow", analysis.AllOptions(), constants.Financial)
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAcquireStage_WrapsAcquisition(t *testing.T) {
	s := NewAcquireStage(&memSource{}, time.Second, nil)
	_, err := s.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrAcquisition)
	assert.ErrorIs(t, err, extract.ErrTextNotFound)
}

func TestAnalyzeAndStore(t *testing.T) {
	sink := &memSink{}
	p := newProcessor(&memSource{texts: map[string]string{"doc-1": financialText}}, WithSink(sink))

	stored, rec, err := p.AnalyzeAndStore(context.Background(), "doc-1", "owner-7",
		analysis.Options{ExtractInfo: true, ComplianceCheck: true}, constants.Financial)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", stored.ID)
	assert.Nil(t, rec.Summary)
	assert.Nil(t, rec.Anomalies)
	require.NotNil(t, rec.ComplianceStatus)
	assert.Equal(t, constants.ComplianceFail, *rec.ComplianceStatus)

	require.Len(t, sink.saved, 1)
	assert.Equal(t, analysis.RecordMeta{
		DocumentRef: "doc-1",
		OwnerRef:    "owner-7",
		Category:    constants.Financial,
		Options:     analysis.Options{ExtractInfo: true, ComplianceCheck: true},
	}, sink.saved[0])
}

func TestAnalyzeAndStore_StoresEmptyRecordOnAcquisitionFailure(t *testing.T) {
	sink := &memSink{}
	p := newProcessor(&memSource{}, WithSink(sink))

	_, rec, err := p.AnalyzeAndStore(context.Background(), "missing", "owner", analysis.AllOptions(), constants.Legal)
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
	assert.Len(t, sink.saved, 1)
}

func TestAnalyzeAndStore_SinkFailure(t *testing.T) {
	sink := &memSink{err: common.ErrAlreadyAnalyzed}
	p := newProcessor(&memSource{texts: map[string]string{"doc-1": legalText}}, WithSink(sink))

	_, rec, err := p.AnalyzeAndStore(context.Background(), "doc-1", "owner", analysis.Options{Summarize: true}, constants.Legal)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAlreadyAnalyzed)
	assert.NotNil(t, rec.Summary, "record is still returned")
}

func TestAnalyzeAndStore_NoSink(t *testing.T) {
	p := newProcessor(&memSource{})
	_, _, err := p.AnalyzeAndStore(context.Background(), "doc-1", "owner", analysis.AllOptions(), constants.Legal)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	src := &memSource{texts: map[string]string{
		"a": "Payment of $500.00 due on 2023-05-01.",
		"b": "Payment of $750.00 due on 2023-05-01.",
	}}
	p := newProcessor(src)

	res, err := p.Compare(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, [2]string{"a", "b"}, res.DocumentRefs)
	assert.Equal(t, analysis.Similarity(src.texts["a"], src.texts["b"]), res.SimilarityScore)
	assert.Equal(t, analysis.Verdict(res.SimilarityScore), res.Verdict)
	assert.Equal(t, analysis.CategoryDiff{Additions: []string{"$750.00"}, Removals: []string{"$500.00"}},
		res.Differences[analysis.EntityMoney])
	assert.NotContains(t, res.Differences, analysis.EntityDate)
	assert.Equal(t, 2, src.calls)
}

func TestCompare_Self(t *testing.T) {
	p := newProcessor(&memSource{texts: map[string]string{"a": financialText}})

	res, err := p.Compare(context.Background(), "a", "a")
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.SimilarityScore)
	assert.Equal(t, analysis.VerdictHigh, res.Verdict)
	assert.Empty(t, res.Differences)
}

func TestCompare_MissingText(t *testing.T) {
	p := newProcessor(&memSource{texts: map[string]string{"a": financialText, "blank": ""}})

	for _, ref := range []string{"missing", "blank"} {
		t.Run(ref, func(t *testing.T) {
			_, err := p.Compare(context.Background(), "a", ref)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrComparison)
			var appErr *common.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "document text unavailable", appErr.Message)
		})
	}
}

func TestCompare_ResultSerializes(t *testing.T) {
	p := newProcessor(&memSource{texts: map[string]string{"a": legalText, "b": financialText}})

	res, err := p.Compare(context.Background(), "a", "b")
	require.NoError(t, err)
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"similarityScore"`)
	assert.Contains(t, string(b), `"differences"`)
}
