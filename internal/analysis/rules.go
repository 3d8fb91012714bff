package analysis

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/document-analyzer/constants"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

type ruleFile struct {
	Version    string                       `yaml:"version"`
	Anomalies  map[string][]anomalyRuleDef `yaml:"anomalies"`
	Compliance map[string][]termDef        `yaml:"compliance"`
}

type anomalyRuleDef struct {
	Keyword string `yaml:"keyword"`
	Label   string `yaml:"label"`
}

type termDef struct {
	Term string `yaml:"term"`
}

// AnomalyRule flags Label when Keyword occurs as a whole word.
type AnomalyRule struct {
	Keyword string
	Label   string
	re      *regexp.Regexp
}

// RequiredTerm is a phrase a compliant document must mention.
type RequiredTerm struct {
	Term string
	re   *regexp.Regexp
}

// RuleSet holds the anomaly and compliance tables for every category. It is
// immutable once loaded and safe for concurrent use.
type RuleSet struct {
	version    string
	anomalies  map[constants.Category][]AnomalyRule
	compliance map[constants.Category][]RequiredTerm
}

var (
	defaultRulesOnce sync.Once
	defaultRules     *RuleSet
)

// DefaultRules returns the built-in rule tables.
func DefaultRules() *RuleSet {
	defaultRulesOnce.Do(func() {
		rs, err := LoadRules(bytes.NewReader(defaultRulesYAML))
		if err != nil {
			panic(fmt.Sprintf("analysis: built-in rules are invalid: %v", err))
		}
		defaultRules = rs
	})
	return defaultRules
}

// LoadRulesFile reads a rule table from path.
func LoadRulesFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return LoadRules(f)
}

// LoadRules parses a YAML rule table. Every supported category must have an
// anomaly list and a compliance list, and no other category may appear.
func LoadRules(r io.Reader) (*RuleSet, error) {
	var rf ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	rs := &RuleSet{
		version:    rf.Version,
		anomalies:  make(map[constants.Category][]AnomalyRule),
		compliance: make(map[constants.Category][]RequiredTerm),
	}

	for name, specs := range rf.Anomalies {
		cat, ok := categoryFromRules(name)
		if !ok {
			return nil, fmt.Errorf("anomalies: unknown category %q", name)
		}
		rules := make([]AnomalyRule, 0, len(specs))
		for i, s := range specs {
			if strings.TrimSpace(s.Keyword) == "" || strings.TrimSpace(s.Label) == "" {
				return nil, fmt.Errorf("anomalies.%s[%d]: keyword and label are required", name, i)
			}
			rules = append(rules, AnomalyRule{Keyword: s.Keyword, Label: s.Label, re: wordPattern(s.Keyword)})
		}
		rs.anomalies[cat] = rules
	}

	for name, specs := range rf.Compliance {
		cat, ok := categoryFromRules(name)
		if !ok {
			return nil, fmt.Errorf("compliance: unknown category %q", name)
		}
		terms := make([]RequiredTerm, 0, len(specs))
		for i, s := range specs {
			if strings.TrimSpace(s.Term) == "" {
				return nil, fmt.Errorf("compliance.%s[%d]: term is required", name, i)
			}
			terms = append(terms, RequiredTerm{Term: s.Term, re: wordPattern(s.Term)})
		}
		rs.compliance[cat] = terms
	}

	for _, cat := range constants.Categories() {
		if _, ok := rs.anomalies[cat]; !ok {
			return nil, fmt.Errorf("anomalies: missing category %q", cat)
		}
		if _, ok := rs.compliance[cat]; !ok {
			return nil, fmt.Errorf("compliance: missing category %q", cat)
		}
	}
	return rs, nil
}

func categoryFromRules(name string) (constants.Category, bool) {
	cat := constants.Category(name)
	return cat, cat.IsValid()
}

// wordPattern builds a case-insensitive whole-word matcher for phrase. Words
// of a multi-word phrase may be separated by any run of whitespace.
func wordPattern(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
}

func (rs *RuleSet) Version() string { return rs.version }

// AnomalyRules returns the ordered anomaly rules for category, or nil when
// the category is unknown.
func (rs *RuleSet) AnomalyRules(category constants.Category) []AnomalyRule {
	rules := rs.anomalies[category]
	if rules == nil {
		return nil
	}
	out := make([]AnomalyRule, len(rules))
	copy(out, rules)
	return out
}

// RequiredTerms returns the compliance terms for category, or nil when the
// category is unknown.
func (rs *RuleSet) RequiredTerms(category constants.Category) []RequiredTerm {
	terms := rs.compliance[category]
	if terms == nil {
		return nil
	}
	out := make([]RequiredTerm, len(terms))
	copy(out, terms)
	return out
}

// Matches reports whether the rule keyword occurs in text.
func (r AnomalyRule) Matches(text string) bool { return r.re.MatchString(text) }

// Present reports whether the term occurs in text.
func (t RequiredTerm) Present(text string) bool { return t.re.MatchString(text) }
