package boundary

import (
	"github.com/seclens/seclens/extractor/facts"
)

// Input pairs raw source with the file's extraction result
type Input struct {
	Source []byte
	File   *facts.FileResult
}

// ScanResult is the aggregate output of one boundary scan
type ScanResult struct {
	Map         *Map
	Violations  []Violation
	Conventions []Convention
}

// Scanner drives boundary extraction across a file set and evaluates the
// configured rules. A Scanner holds no state between scans: every Scan call
// builds a fresh map.
type Scanner struct {
	registry   *Registry
	rules      *RuleSet
	learner    *Learner
	useLearned bool
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithRules sets the boundary rules evaluated after aggregation
func WithRules(rules *RuleSet) ScannerOption {
	return func(s *Scanner) { s.rules = rules }
}

// WithLearner enables convention learning with the given learner; learned
// tiers are applied to unmarked fields before rule evaluation
func WithLearner(learner *Learner) ScannerOption {
	return func(s *Scanner) {
		s.learner = learner
		s.useLearned = true
	}
}

// NewScanner creates a boundary scanner with all built-in extractors
func NewScanner(options ...ScannerOption) *Scanner {
	s := &Scanner{registry: NewRegistry()}
	for _, option := range options {
		option(s)
	}
	return s
}

// Scan extracts access points and field declarations from every input,
// aggregates them into a fresh data-access map, optionally applies learned
// conventions, and evaluates boundary rules. Inputs are processed in the
// given order; callers sort by path for deterministic output.
func (s *Scanner) Scan(inputs []Input) *ScanResult {
	result := &ScanResult{Map: NewMap()}
	for _, input := range inputs {
		if input.File == nil {
			continue
		}
		points, fields := s.registry.ExtractFile(input.Source, input.File)
		for _, f := range fields {
			result.Map.AddField(f)
		}
		for _, p := range points {
			result.Map.AddAccess(p)
		}
	}

	if s.useLearned && s.learner != nil {
		result.Conventions = s.learner.Learn(result.Map)
		s.learner.Apply(result.Map, result.Conventions)
	}
	if s.rules != nil {
		result.Violations = s.rules.Evaluate(result.Map)
	}
	return result
}
