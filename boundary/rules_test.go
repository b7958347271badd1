package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleSet_InvalidRulesReported(t *testing.T) {
	set, err := NewRuleSet([]Rule{
		{ID: "ok", Tier: "restricted", FromPattern: `controllers/`, Severity: "high"},
		{ID: "bad-tier", Tier: "top-secret", FromPattern: `.*`, Severity: "high"},
		{ID: "bad-re", Tier: "internal", FromPattern: `([`, Severity: "low"},
		{Tier: "internal", FromPattern: `.*`, Severity: "low"}, // missing id
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRule)
	assert.Contains(t, err.Error(), "bad-tier")
	assert.Contains(t, err.Error(), "bad-re")
	// valid rules survive their siblings' failures
	require.NotNil(t, set)
	assert.Equal(t, 1, set.Len())
}

func TestRuleSet_Evaluate(t *testing.T) {
	m := NewMap()
	m.AddField(Field{Table: "users", Name: "ssn", Tier: TierRestricted, Provenance: ProvenanceDeclared})
	m.AddField(Field{Table: "users", Name: "bio", Tier: TierPublic, Provenance: ProvenanceDefault})
	m.AddAccess(AccessPoint{File: "src/controllers/user.ts", Line: 10, Table: "users",
		Fields: []string{"ssn"}, Operation: OpRead})
	m.AddAccess(AccessPoint{File: "src/controllers/user.ts", Line: 20, Table: "users",
		Fields: []string{"bio"}, Operation: OpRead})
	m.AddAccess(AccessPoint{File: "src/internal/audit.ts", Line: 5, Table: "users",
		Fields: []string{"ssn"}, Operation: OpRead})

	set, err := NewRuleSet([]Rule{{
		ID:          "no-restricted-in-controllers",
		Tier:        "restricted",
		FromPattern: `controllers/`,
		Severity:    "critical",
	}})
	require.NoError(t, err)

	violations := set.Evaluate(m)
	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, "no-restricted-in-controllers", v.RuleID)
	assert.Equal(t, SeverityCritical, v.Severity)
	assert.Equal(t, 10, v.Point.Line)
	assert.Equal(t, "ssn", v.Field)
	assert.Equal(t, TierRestricted, v.Tier)
	assert.Contains(t, v.Explanation, "users.ssn")
}

func TestRuleSet_OperationFilter(t *testing.T) {
	m := NewMap()
	m.AddField(Field{Table: "users", Name: "ssn", Tier: TierRestricted, Provenance: ProvenanceDeclared})
	m.AddAccess(AccessPoint{File: "src/a.ts", Line: 1, Table: "users", Fields: []string{"ssn"}, Operation: OpRead})
	m.AddAccess(AccessPoint{File: "src/a.ts", Line: 2, Table: "users", Fields: []string{"ssn"}, Operation: OpWrite})

	set, err := NewRuleSet([]Rule{{
		ID:          "no-restricted-writes",
		Tier:        "restricted",
		FromPattern: `.*`,
		Operations:  []string{"write"},
		Severity:    "high",
	}})
	require.NoError(t, err)

	violations := set.Evaluate(m)
	require.Len(t, violations, 1)
	assert.Equal(t, OpWrite, violations[0].Point.Operation)
}

func TestParseTierAndSeverity(t *testing.T) {
	tier, err := ParseTier("  Restricted ")
	require.NoError(t, err)
	assert.Equal(t, TierRestricted, tier)
	_, err = ParseTier("classified")
	assert.Error(t, err)

	severity, err := ParseSeverity("HIGH")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, severity)
	_, err = ParseSeverity("meh")
	assert.Error(t, err)

	assert.Greater(t, TierRestricted.Rank(), TierConfidential.Rank())
	assert.Greater(t, TierConfidential.Rank(), TierInternal.Rank())
	assert.Greater(t, TierInternal.Rank(), TierPublic.Rank())
}
