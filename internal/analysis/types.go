package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

// Entity categories produced by ExtractEntities.
const (
	EntityDate       = "date"
	EntityMoney      = "money"
	EntityPercentage = "percentage"
	EntityEmail      = "email"
	EntityPhone      = "phone"
)

// EntityCategories lists the entity categories in their canonical order.
var EntityCategories = []string{EntityDate, EntityMoney, EntityPercentage, EntityEmail, EntityPhone}

// EntityBag maps an entity category to the distinct values found for it.
// Categories without any match are absent. Value order carries no meaning.
type EntityBag map[string][]string

// Options selects which analysis steps run. A zero Options runs nothing.
type Options struct {
	ExtractInfo      bool `json:"extractInfo"`
	Summarize        bool `json:"summarize"`
	AnomalyDetection bool `json:"anomalyDetection"`
	ComplianceCheck  bool `json:"complianceCheck"`
}

// Any reports whether at least one step is enabled.
func (o Options) Any() bool {
	return o.ExtractInfo || o.Summarize || o.AnomalyDetection || o.ComplianceCheck
}

// AllOptions enables every step.
func AllOptions() Options {
	return Options{ExtractInfo: true, Summarize: true, AnomalyDetection: true, ComplianceCheck: true}
}

// ParseOptions reads a comma-separated step list such as
// "extract,summarize". "all" enables every step; an empty list enables none.
func ParseOptions(s string) (Options, error) {
	var o Options
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
		case "all":
			o = AllOptions()
		case "extract", "extract_info", "extractinfo":
			o.ExtractInfo = true
		case "summarize", "summary":
			o.Summarize = true
		case "anomaly", "anomalies", "anomaly_detection":
			o.AnomalyDetection = true
		case "compliance", "compliance_check":
			o.ComplianceCheck = true
		default:
			return Options{}, fmt.Errorf("unknown analysis step %q", strings.TrimSpace(part))
		}
	}
	return o, nil
}

type AnomalyItem struct {
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
}

// AnomalyReport is the detector output. Error is set only when detection
// itself failed.
type AnomalyReport struct {
	Detected bool          `json:"detected"`
	Items    []AnomalyItem `json:"items"`
	Error    string        `json:"error,omitempty"`
}

// Record is the analysis result for one document. A nil field means the step
// was disabled or the text could not be acquired; it serializes as null.
type Record struct {
	Summary          *string                     `json:"summary"`
	ExtractedData    EntityBag                   `json:"extractedData"`
	Anomalies        *AnomalyReport              `json:"anomalies"`
	ComplianceStatus *constants.ComplianceStatus `json:"complianceStatus"`
}

// IsEmpty reports whether no field was produced.
func (r Record) IsEmpty() bool {
	return r.Summary == nil && r.ExtractedData == nil && r.Anomalies == nil && r.ComplianceStatus == nil
}

// CategoryDiff holds the values of one entity category that appear only in
// the second document (Additions) or only in the first (Removals).
type CategoryDiff struct {
	Additions []string `json:"additions"`
	Removals  []string `json:"removals"`
}

type ComparisonResult struct {
	DocumentRefs    [2]string               `json:"documentRefs"`
	SimilarityScore float64                 `json:"similarityScore"`
	Verdict         string                  `json:"verdict"`
	Differences     map[string]CategoryDiff `json:"differences"`
	ComparedAt      time.Time               `json:"comparedAt"`
}
