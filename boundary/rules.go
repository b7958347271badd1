package boundary

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrBadRule marks boundary rule validation failures, checked with errors.Is
var ErrBadRule = errors.New("invalid boundary rule")

// Rule is a static boundary policy: data at or above a tier must not be
// accessed from files matching a location pattern
type Rule struct {
	ID          string   `yaml:"id" json:"id"`
	Tier        string   `yaml:"tier" json:"tier"`                                 // minimum tier the rule protects
	FromPattern string   `yaml:"fromPattern" json:"fromPattern"`                   // regexp over the accessing file path
	Operations  []string `yaml:"operations,omitempty" json:"operations,omitempty"` // empty matches any operation
	Severity    string   `yaml:"severity" json:"severity"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

type compiledRule struct {
	id          string
	tier        Tier
	from        *regexp.Regexp
	operations  map[Operation]bool
	severity    Severity
	description string
}

// RuleSet holds validated, compiled boundary rules
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet validates and compiles rules. Every valid rule is kept even
// when siblings fail; all failures are reported together in one error that
// wraps ErrBadRule, so configuration mistakes surface in a single pass.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	set := &RuleSet{}
	var problems []string
	for i, r := range rules {
		compiled, err := compileRule(r)
		if err != nil {
			problems = append(problems, fmt.Sprintf("rule %d (%s): %v", i, r.ID, err))
			continue
		}
		set.rules = append(set.rules, compiled)
	}
	if len(problems) > 0 {
		return set, fmt.Errorf("%w: %s", ErrBadRule, strings.Join(problems, "; "))
	}
	return set, nil
}

func compileRule(r Rule) (compiledRule, error) {
	if r.ID == "" {
		return compiledRule{}, fmt.Errorf("missing rule id")
	}
	tier, err := ParseTier(r.Tier)
	if err != nil {
		return compiledRule{}, err
	}
	severity, err := ParseSeverity(r.Severity)
	if err != nil {
		return compiledRule{}, err
	}
	if r.FromPattern == "" {
		return compiledRule{}, fmt.Errorf("missing fromPattern")
	}
	from, err := regexp.Compile(r.FromPattern)
	if err != nil {
		return compiledRule{}, fmt.Errorf("invalid fromPattern: %w", err)
	}
	var ops map[Operation]bool
	if len(r.Operations) > 0 {
		ops = map[Operation]bool{}
		for _, name := range r.Operations {
			ops[Operation(name)] = true
		}
	}
	return compiledRule{
		id:          r.ID,
		tier:        tier,
		from:        from,
		operations:  ops,
		severity:    severity,
		description: r.Description,
	}, nil
}

// Violation is one rule breach: an access point touching protected data from
// a forbidden location. Violations are advisory output and never mutate the
// data-access map.
type Violation struct {
	RuleID      string
	Severity    Severity
	Point       AccessPoint
	Field       string // the most sensitive field that triggered the match
	Tier        Tier
	Explanation string
}

// Evaluate checks every access point in the map against every rule
func (s *RuleSet) Evaluate(m *Map) []Violation {
	var out []Violation
	for _, point := range m.AccessPoints() {
		tier, field := m.HighestTier(point.Table, point.Fields)
		for _, rule := range s.rules {
			if tier.Rank() < rule.tier.Rank() {
				continue
			}
			if rule.operations != nil && !rule.operations[point.Operation] {
				continue
			}
			if !rule.from.MatchString(point.File) {
				continue
			}
			out = append(out, Violation{
				RuleID:   rule.id,
				Severity: rule.severity,
				Point:    point,
				Field:    field,
				Tier:     tier,
				Explanation: fmt.Sprintf("%s data (%s.%s) accessed as %s from %s:%d, forbidden by rule %s",
					tier, point.Table, field, point.Operation, point.File, point.Line, rule.id),
			})
		}
	}
	return out
}

// Len returns the number of compiled rules
func (s *RuleSet) Len() int {
	return len(s.rules)
}
