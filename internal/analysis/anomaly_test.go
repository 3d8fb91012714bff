package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

func TestDetector_Financial(t *testing.T) {
	d := NewDetector(nil, WithConfidence(FixedConfidence(85)))

	report := d.Detect("Found a MISMATCHED total and an unauthorized transfer.", constants.Financial)

	assert.True(t, report.Detected)
	assert.Equal(t, []AnomalyItem{
		{Type: "Unauthorized Transaction", Confidence: 85},
		{Type: "Mismatched Figures", Confidence: 85},
	}, report.Items)
}

func TestDetector_Legal(t *testing.T) {
	d := NewDetector(nil, WithConfidence(FixedConfidence(90)))

	report := d.Detect("This clause is void and the terms are contradictory.", constants.Legal)

	assert.True(t, report.Detected)
	assert.Equal(t, []AnomalyItem{
		{Type: "Contradictory Terms", Confidence: 90},
		{Type: "Potentially Void Clause", Confidence: 90},
	}, report.Items)
}

func TestDetector_WholeWordsOnly(t *testing.T) {
	d := NewDetector(nil)

	report := d.Detect("The agreement is voidable and avoids illegality.", constants.Legal)

	assert.False(t, report.Detected)
	assert.NotNil(t, report.Items)
	assert.Empty(t, report.Items)
}

func TestDetector_CategoryScoped(t *testing.T) {
	d := NewDetector(nil)

	report := d.Detect("An illegal overpayment.", constants.Financial)
	assert.Equal(t, []string{"Overpayment"}, itemTypes(report))

	report = d.Detect("An illegal overpayment.", constants.Legal)
	assert.Equal(t, []string{"Potentially Illegal Terms"}, itemTypes(report))
}

func TestDetector_UnknownCategory(t *testing.T) {
	d := NewDetector(nil)

	report := d.Detect("unauthorized illegal", constants.Category("Medical"))

	assert.False(t, report.Detected)
	assert.Empty(t, report.Items)
}

func TestDetector_ConfidenceRange(t *testing.T) {
	d := NewDetector(nil)
	for i := 0; i < 200; i++ {
		report := d.Detect("unauthorized inconsistent overpayment underpayment mismatched", constants.Financial)
		assert.Len(t, report.Items, 5)
		for _, it := range report.Items {
			assert.GreaterOrEqual(t, it.Confidence, MinConfidence)
			assert.LessOrEqual(t, it.Confidence, MaxConfidence)
		}
	}
}

func TestDetector_ConfidenceClamped(t *testing.T) {
	high := NewDetector(nil, WithConfidence(FixedConfidence(150)))
	low := NewDetector(nil, WithConfidence(FixedConfidence(3)))

	assert.Equal(t, MaxConfidence, high.Detect("void", constants.Legal).Items[0].Confidence)
	assert.Equal(t, MinConfidence, low.Detect("void", constants.Legal).Items[0].Confidence)
}

func itemTypes(r AnomalyReport) []string {
	out := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, it.Type)
	}
	return out
}
