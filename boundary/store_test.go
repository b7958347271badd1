package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_ProvenancePrecedence(t *testing.T) {
	m := NewMap()
	m.AddField(Field{Table: "users", Name: "ssn", Tier: TierPublic, Provenance: ProvenanceDefault, Confidence: 0.9, File: "a.ts"})

	// learned beats default
	m.AddField(Field{Table: "users", Name: "ssn", Tier: TierConfidential, Provenance: ProvenanceLearned, Confidence: 0.6})
	tier, provenance := m.FieldTier("users", "ssn")
	assert.Equal(t, TierConfidential, tier)
	assert.Equal(t, ProvenanceLearned, provenance)

	// declared beats learned
	m.AddField(Field{Table: "users", Name: "ssn", Tier: TierRestricted, Provenance: ProvenanceDeclared, Confidence: 0.9})
	tier, provenance = m.FieldTier("users", "ssn")
	assert.Equal(t, TierRestricted, tier)
	assert.Equal(t, ProvenanceDeclared, provenance)

	// a later learned value never downgrades a declared one
	m.AddField(Field{Table: "users", Name: "ssn", Tier: TierPublic, Provenance: ProvenanceLearned, Confidence: 1})
	tier, provenance = m.FieldTier("users", "ssn")
	assert.Equal(t, TierRestricted, tier)
	assert.Equal(t, ProvenanceDeclared, provenance)

	// still a single field entry
	require.Len(t, m.Fields(), 1)
}

func TestMap_UnknownFieldDefaults(t *testing.T) {
	m := NewMap()
	tier, provenance := m.FieldTier("ghosts", "ectoplasm")
	assert.Equal(t, TierPublic, tier)
	assert.Equal(t, ProvenanceDefault, provenance)
}

func TestMap_HighestTier(t *testing.T) {
	m := NewMap()
	m.AddField(Field{Table: "users", Name: "email", Tier: TierInternal, Provenance: ProvenanceDeclared})
	m.AddField(Field{Table: "users", Name: "ssn", Tier: TierRestricted, Provenance: ProvenanceDeclared})
	m.AddField(Field{Table: "users", Name: "bio", Tier: TierPublic, Provenance: ProvenanceDefault})

	tier, field := m.HighestTier("users", []string{"email", "bio"})
	assert.Equal(t, TierInternal, tier)
	assert.Equal(t, "email", field)

	// wildcard considers every known field
	tier, field = m.HighestTier("users", []string{Wildcard})
	assert.Equal(t, TierRestricted, tier)
	assert.Equal(t, "ssn", field)

	tier, _ = m.HighestTier("missing", []string{Wildcard})
	assert.Equal(t, TierPublic, tier)
}

func TestMap_AccessPointsSorted(t *testing.T) {
	m := NewMap()
	m.AddAccess(AccessPoint{File: "b.ts", Line: 5, Table: "users"})
	m.AddAccess(AccessPoint{File: "a.ts", Line: 9, Table: "users"})
	m.AddAccess(AccessPoint{File: "a.ts", Line: 2})

	points := m.AccessPoints()
	require.Len(t, points, 3)
	assert.Equal(t, "a.ts", points[0].File)
	assert.Equal(t, 2, points[0].Line)
	assert.Equal(t, 9, points[1].Line)
	assert.Equal(t, "b.ts", points[2].File)

	// table-less points still appear in the flat list, not under any table
	require.NotNil(t, m.Table("users"))
	assert.Len(t, m.Table("users").Points, 2)
}

func TestMap_Summaries(t *testing.T) {
	m := NewMap()
	m.AddField(Field{Table: "users", Name: "ssn", File: "models.py"})
	m.AddAccess(AccessPoint{File: "views.py", Line: 3, Table: "users"})
	m.AddAccess(AccessPoint{File: "views.py", Line: 9, Table: "users"})

	summaries := m.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, "models.py", summaries[0].Path)
	assert.Equal(t, 1, summaries[0].Fields)
	assert.Equal(t, "views.py", summaries[1].Path)
	assert.Equal(t, 2, summaries[1].Points)
}
