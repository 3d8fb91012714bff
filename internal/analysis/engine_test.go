package analysis

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

const financialSample = "Quarterly statement dated 2024-03-31. An unauthorized debit of $1,250.00 was found. " +
	"Interest rose 4.5% year on year. Full disclosure and transparency are provided in compliance with RBI guidelines. " +
	"Contact audit@bank.example or 555-010-2000. Figures are final."

func TestEngine_NoOptions(t *testing.T) {
	rec := NewEngine(nil).Run(financialSample, Options{}, constants.Financial)

	assert.True(t, rec.IsEmpty())
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":null,"extractedData":null,"anomalies":null,"complianceStatus":null}`, string(b))
}

func TestEngine_AllOptions(t *testing.T) {
	e := NewEngine(nil, WithDetector(NewDetector(nil, WithConfidence(FixedConfidence(88)))))

	rec := e.Run(financialSample, AllOptions(), constants.Financial)

	require.NotNil(t, rec.Summary)
	assert.Equal(t, "Quarterly statement dated 2024-03-31.", *rec.Summary)

	assert.Equal(t, []string{"2024-03-31"}, rec.ExtractedData[EntityDate])
	assert.Equal(t, []string{"$1,250.00"}, rec.ExtractedData[EntityMoney])
	assert.Equal(t, []string{"4.5%"}, rec.ExtractedData[EntityPercentage])
	assert.Equal(t, []string{"audit@bank.example"}, rec.ExtractedData[EntityEmail])
	assert.Equal(t, []string{"555-010-2000"}, rec.ExtractedData[EntityPhone])

	require.NotNil(t, rec.Anomalies)
	assert.True(t, rec.Anomalies.Detected)
	assert.Equal(t, []AnomalyItem{{Type: "Unauthorized Transaction", Confidence: 88}}, rec.Anomalies.Items)

	require.NotNil(t, rec.ComplianceStatus)
	assert.Equal(t, constants.CompliancePass, *rec.ComplianceStatus)

	assert.NoError(t, ValidateRecord(rec))
}

func TestEngine_OnlySelectedSteps(t *testing.T) {
	rec := NewEngine(nil).Run(financialSample, Options{ComplianceCheck: true}, constants.Legal)

	assert.Nil(t, rec.Summary)
	assert.Nil(t, rec.ExtractedData)
	assert.Nil(t, rec.Anomalies)
	require.NotNil(t, rec.ComplianceStatus)
	assert.Equal(t, constants.ComplianceFail, *rec.ComplianceStatus)
}

func TestEngine_ExtractWithoutMatches(t *testing.T) {
	rec := NewEngine(nil).Run("plain words only", Options{ExtractInfo: true}, constants.Legal)

	require.NotNil(t, rec.ExtractedData)
	assert.Empty(t, rec.ExtractedData)
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"extractedData":{}`)
}

func TestEngine_NothingToSummarize(t *testing.T) {
	rec := NewEngine(nil).Run("?!...", Options{Summarize: true}, constants.Legal)

	require.NotNil(t, rec.Summary)
	assert.Equal(t, SummaryNothingText, *rec.Summary)
}

func TestEngine_StepFailureIsIsolated(t *testing.T) {
	var (
		mu     sync.Mutex
		failed []string
	)
	panicky := NewDetector(nil, WithConfidence(func() int { panic("confidence source exploded") }))
	e := NewEngine(nil,
		WithDetector(panicky),
		WithStepObserver(func(step string, _ time.Duration, err error) {
			if err != nil {
				mu.Lock()
				failed = append(failed, step)
				mu.Unlock()
			}
		}),
	)

	rec := e.Run(financialSample, AllOptions(), constants.Financial)

	require.NotNil(t, rec.Anomalies)
	assert.False(t, rec.Anomalies.Detected)
	assert.Equal(t, AnomalyDetectionFailed, rec.Anomalies.Error)
	assert.NotNil(t, rec.Summary)
	assert.NotEmpty(t, rec.ExtractedData)
	assert.Equal(t, constants.CompliancePass, *rec.ComplianceStatus)
	assert.Equal(t, []string{StepAnomaly}, failed)
}

func TestEngine_Compare(t *testing.T) {
	e := NewEngine(nil)

	self := e.Compare("doc-1", "doc-1", financialSample, financialSample)
	assert.Equal(t, [2]string{"doc-1", "doc-1"}, self.DocumentRefs)
	assert.Equal(t, 100.0, self.SimilarityScore)
	assert.Equal(t, VerdictHigh, self.Verdict)
	assert.Empty(t, self.Differences)

	res := e.Compare("a", "b", "Pay $100 by 01/02/2024.", "Pay $150 by 01/02/2024.")
	assert.Equal(t, [2]string{"a", "b"}, res.DocumentRefs)
	assert.Less(t, res.SimilarityScore, 100.0)
	assert.Equal(t, map[string]CategoryDiff{
		EntityMoney: {Additions: []string{"$150"}, Removals: []string{"$100"}},
	}, res.Differences)
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		in   string
		want Options
	}{
		{"", Options{}},
		{"all", AllOptions()},
		{"extract, Summarize", Options{ExtractInfo: true, Summarize: true}},
		{"anomaly,compliance", Options{AnomalyDetection: true, ComplianceCheck: true}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOptions(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseOptions("extract,translate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translate")
}
