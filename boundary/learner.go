package boundary

import (
	"sort"
	"strings"
	"unicode"
)

// Convention is a learned naming pattern: fields whose name ends with the
// pattern token tend to carry the inferred tier. Confidence is the fraction
// of explicitly marked fields in the group that agree; Support counts them.
type Convention struct {
	Pattern    string
	Tier       Tier
	Confidence float64
	Support    int
}

// Learner infers unstated sensitivity conventions by frequency voting over
// explicitly declared fields. It only ever annotates fields that carry no
// declared tier; declared data is never overridden.
type Learner struct {
	// MinSupport is the minimum number of agreeing declared examples a
	// convention needs before it is applied. Defaults to 2.
	MinSupport int
}

// NewLearner creates a learner with the given support threshold; values
// below one fall back to the default
func NewLearner(minSupport int) *Learner {
	if minSupport < 1 {
		minSupport = 2
	}
	return &Learner{MinSupport: minSupport}
}

// Learn groups declared fields by name signature and votes on the dominant
// tier per group. The result is deterministic for identical input: groups
// are processed in sorted order and ties resolve to the more sensitive tier.
func (l *Learner) Learn(m *Map) []Convention {
	type vote struct {
		counts map[Tier]int
		total  int
	}
	votes := map[string]*vote{}

	for _, f := range m.Fields() {
		if f.Provenance != ProvenanceDeclared {
			continue
		}
		sig := signature(f.Name)
		if sig == "" {
			continue
		}
		v, ok := votes[sig]
		if !ok {
			v = &vote{counts: map[Tier]int{}}
			votes[sig] = v
		}
		v.counts[f.Tier]++
		v.total++
	}

	sigs := make([]string, 0, len(votes))
	for sig := range votes {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)

	var out []Convention
	for _, sig := range sigs {
		v := votes[sig]
		var winner Tier
		best := 0
		for _, tier := range []Tier{TierPublic, TierInternal, TierConfidential, TierRestricted} {
			if count := v.counts[tier]; count >= best && count > 0 {
				winner, best = tier, count
			}
		}
		if best < l.MinSupport {
			continue
		}
		out = append(out, Convention{
			Pattern:    sig,
			Tier:       winner,
			Confidence: float64(best) / float64(v.total),
			Support:    best,
		})
	}
	return out
}

// Apply annotates unmarked fields matching a convention's signature with the
// learned tier and returns how many fields were annotated. Declared and
// previously learned tiers are left untouched, so applying the same
// conventions twice is a no-op.
func (l *Learner) Apply(m *Map, conventions []Convention) int {
	bySig := map[string]Convention{}
	for _, c := range conventions {
		bySig[c.Pattern] = c
	}
	applied := 0
	for _, f := range m.Fields() {
		if f.Provenance != ProvenanceDefault {
			continue
		}
		c, ok := bySig[signature(f.Name)]
		if !ok {
			continue
		}
		f.Tier = c.Tier
		f.Provenance = ProvenanceLearned
		f.Confidence = c.Confidence
		applied++
	}
	return applied
}

// signature normalizes a field name to its trailing token: the last
// underscore segment or camel-case hump, lowercased. socialSecurityNumber
// and social_security_number share the signature "number".
func signature(name string) string {
	name = strings.Trim(name, "_")
	if name == "" {
		return ""
	}
	if idx := strings.LastIndex(name, "_"); idx >= 0 {
		return strings.ToLower(name[idx+1:])
	}
	last := 0
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			last = i
		}
	}
	return strings.ToLower(name[last:])
}
