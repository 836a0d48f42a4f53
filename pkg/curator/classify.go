package curator

import (
	"strings"

	"github.com/XiaoConstantine/ace-go/pkg/playbook"
)

// Classifier assigns a section and bullet kind to a free-text insight.
// The engine never classifies on its own; classification is injected
// so an LLM-backed strategy can replace the keyword rules.
type Classifier interface {
	Classify(insight string) (section string, kind playbook.Kind)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(insight string) (string, playbook.Kind)

func (f ClassifierFunc) Classify(insight string) (string, playbook.Kind) { return f(insight) }

// KeywordClassifier buckets insights by keyword lookup. It is the
// default strategy; unmatched insights land in the general section.
type KeywordClassifier struct{}

type keywordRule struct {
	keywords []string
	section  string
	kind     playbook.Kind
}

var keywordRules = []keywordRule{
	{[]string{"error", "mistake", "wrong", "incorrect"}, "error_patterns", playbook.KindErrorPattern},
	{[]string{"strategy", "approach", "method", "technique"}, "strategies", playbook.KindStrategy},
	{[]string{"api", "function", "call", "interface"}, "api_guidelines", playbook.KindAPIGuideline},
	{[]string{"verify", "check", "validate", "test"}, "verification_checklist", playbook.KindVerificationCheck},
	{[]string{"formula", "calculation", "compute", "math"}, "formulas_and_calculations", playbook.KindFormula},
}

// Classify walks the rules in priority order and returns the first
// section whose keywords match.
func (KeywordClassifier) Classify(insight string) (string, playbook.Kind) {
	lower := strings.ToLower(insight)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.section, rule.kind
			}
		}
	}
	return playbook.DefaultSection, playbook.KindInsight
}
