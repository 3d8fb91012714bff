package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

func TestDefaultRules(t *testing.T) {
	rs := DefaultRules()
	require.NotNil(t, rs)

	for _, cat := range constants.Categories() {
		assert.Len(t, rs.AnomalyRules(cat), 5, cat)
		assert.Len(t, rs.RequiredTerms(cat), 4, cat)
	}
	assert.Equal(t, "Unauthorized Transaction", rs.AnomalyRules(constants.Financial)[0].Label)
	assert.Nil(t, rs.AnomalyRules(constants.Category("Medical")))
}

func TestRuleSet_ReturnsCopies(t *testing.T) {
	rs := DefaultRules()
	rules := rs.AnomalyRules(constants.Legal)
	rules[0].Label = "changed"
	assert.Equal(t, "Unenforceable Clause", rs.AnomalyRules(constants.Legal)[0].Label)
}

func TestLoadRules_Custom(t *testing.T) {
	src := `
version: "test"
anomalies:
  Financial:
    - keyword: late fee
      label: Late Fee
  Legal: []
compliance:
  Financial:
    - term: audit
  Legal:
    - term: signature
`
	rs, err := LoadRules(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "test", rs.Version())

	d := NewDetector(rs, WithConfidence(FixedConfidence(77)))
	report := d.Detect("A LATE   FEE was charged", constants.Financial)
	assert.Equal(t, []AnomalyItem{{Type: "Late Fee", Confidence: 77}}, report.Items)
	assert.False(t, d.Detect("void", constants.Legal).Detected)

	c := NewChecker(rs)
	assert.Equal(t, constants.CompliancePass, c.Check("audit passed", constants.Financial))
	assert.Equal(t, constants.ComplianceWarning, c.Check("unsigned", constants.Legal))
}

func TestLoadRules_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing category": `
anomalies:
  Financial: []
compliance:
  Financial: []
  Legal: []
`,
		"unknown category": `
anomalies:
  Financial: []
  Legal: []
  Medical: []
compliance:
  Financial: []
  Legal: []
`,
		"empty keyword": `
anomalies:
  Financial:
    - keyword: ""
      label: Empty
  Legal: []
compliance:
  Financial: []
  Legal: []
`,
		"unknown field": `
anomalies:
  Financial: []
  Legal: []
compliance:
  Financial: []
  Legal: []
severity: high
`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRules(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}
