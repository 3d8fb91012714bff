package analysis

import (
	"fmt"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

// ComplianceResult is the checker verdict together with the required terms
// the text did not mention, in rule order.
type ComplianceResult struct {
	Status  constants.ComplianceStatus `json:"status"`
	Missing []string                   `json:"missing"`
	Err     error                      `json:"-"`
}

// Checker verifies that a document mentions the required terms of its
// category.
type Checker struct {
	rules *RuleSet
}

// NewChecker returns a checker over rules. A nil rules uses DefaultRules.
func NewChecker(rules *RuleSet) *Checker {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Checker{rules: rules}
}

// Check returns Pass when every term is present, Warning when one is
// missing, Fail when two or more are missing and Error when the check could
// not be evaluated.
func (c *Checker) Check(text string, category constants.Category) constants.ComplianceStatus {
	return c.Evaluate(text, category).Status
}

func (c *Checker) Evaluate(text string, category constants.Category) (res ComplianceResult) {
	defer func() {
		if r := recover(); r != nil {
			res = ComplianceResult{Status: constants.ComplianceError, Err: fmt.Errorf("compliance check panicked: %v", r)}
		}
	}()

	terms := c.rules.RequiredTerms(category)
	if terms == nil {
		return ComplianceResult{Status: constants.ComplianceError, Err: fmt.Errorf("no compliance rules for category %q", category)}
	}

	missing := make([]string, 0)
	for _, t := range terms {
		if !t.Present(text) {
			missing = append(missing, t.Term)
		}
	}
	return ComplianceResult{Status: statusForMissing(len(missing)), Missing: missing}
}

func statusForMissing(n int) constants.ComplianceStatus {
	switch {
	case n == 0:
		return constants.CompliancePass
	case n == 1:
		return constants.ComplianceWarning
	default:
		return constants.ComplianceFail
	}
}
