// Package boundary discovers where sensitive data fields are declared and
// accessed: ORM model declarations, query calls and raw SQL, aggregated into
// a project-wide data-access map with sensitivity tiers.
package boundary

import (
	"fmt"
	"strings"
)

// Tier is an ordered sensitivity classification for a data field
type Tier string

const (
	TierPublic       Tier = "public"
	TierInternal     Tier = "internal"
	TierConfidential Tier = "confidential"
	TierRestricted   Tier = "restricted"
)

// Rank returns the tier's position in the sensitivity order, higher is more
// sensitive
func (t Tier) Rank() int {
	switch t {
	case TierPublic:
		return 0
	case TierInternal:
		return 1
	case TierConfidential:
		return 2
	case TierRestricted:
		return 3
	}
	return -1
}

// ParseTier validates a tier name
func ParseTier(value string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(value)))
	if t.Rank() < 0 {
		return "", fmt.Errorf("unknown sensitivity tier: %q", value)
	}
	return t, nil
}

// Provenance records how a field's tier was assigned
type Provenance string

const (
	ProvenanceDeclared Provenance = "declared" // explicit marker in source
	ProvenanceLearned  Provenance = "learned"  // inferred by the learner
	ProvenanceDefault  Provenance = "default"  // no evidence
)

// Operation classifies what a data-access point does
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpQuery  Operation = "query"
	OpDelete Operation = "delete"
	OpRawSQL Operation = "raw-sql"
	OpSchema Operation = "schema" // model/table declaration site
)

// Severity bands used by boundary rules and the security prioritizer
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// ParseSeverity validates a severity name
func ParseSeverity(value string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(value)))
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return s, nil
	}
	return "", fmt.Errorf("unknown severity: %q", value)
}

// AccessPoint is one discovered read/write/query site
type AccessPoint struct {
	File       string
	Line       int
	Operation  Operation
	Framework  string   // extractor tag, e.g. "prisma", "raw-sql"
	Table      string   // referenced table or model name
	Fields     []string // referenced field names, or ["*"] for whole-row access
	Function   string   // qualified name of the enclosing function, if known
	Confidence float64
}

// Field is a declared (table, field) pair with its assigned sensitivity
type Field struct {
	Table      string
	Name       string
	Type       string
	Tier       Tier
	Provenance Provenance
	Confidence float64
	File       string
	Line       int
	Marker     string // raw marker text when declared
}

// Wildcard marks whole-row access in AccessPoint.Fields
const Wildcard = "*"
