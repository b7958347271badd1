package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seclens/seclens/extractor/facts"
)

func TestScanner_Scan(t *testing.T) {
	modelSrc := []byte(`from django.db import models

class Customer(models.Model):
    name = models.CharField(max_length=100)
    # sensitive: restricted
    tax_id = models.CharField(max_length=20)
`)
	viewSrc := []byte(`from .models import Customer

def export_customers(request):
    return Customer.objects.values('tax_id')
`)
	inputs := []Input{
		{
			Source: modelSrc,
			File:   &facts.FileResult{Path: "app/models.py", Language: facts.LangPython},
		},
		{
			Source: viewSrc,
			File: &facts.FileResult{
				Path:     "app/views/export.py",
				Language: facts.LangPython,
				Functions: []facts.Function{
					{Name: "export_customers", QualifiedName: "export_customers", StartLine: 3, EndLine: 4},
				},
			},
		},
	}

	rules, err := NewRuleSet([]Rule{{
		ID:          "no-restricted-in-views",
		Tier:        "restricted",
		FromPattern: `views/`,
		Severity:    "critical",
	}})
	require.NoError(t, err)

	scanner := NewScanner(WithRules(rules))
	result := scanner.Scan(inputs)

	tier, provenance := result.Map.FieldTier("Customer", "tax_id")
	assert.Equal(t, TierRestricted, tier)
	assert.Equal(t, ProvenanceDeclared, provenance)

	require.Len(t, result.Violations, 1)
	v := result.Violations[0]
	assert.Equal(t, "no-restricted-in-views", v.RuleID)
	assert.Equal(t, "app/views/export.py", v.Point.File)
	assert.Equal(t, "export_customers", v.Point.Function)
	assert.Equal(t, "tax_id", v.Field)
}

func TestScanner_FreshMapPerScan(t *testing.T) {
	input := []Input{{
		Source: []byte(`prisma.user.findMany()`),
		File:   &facts.FileResult{Path: "a.ts", Language: facts.LangTypeScript},
	}}
	scanner := NewScanner()

	first := scanner.Scan(input)
	second := scanner.Scan(input)
	assert.Len(t, first.Map.AccessPoints(), 1)
	assert.Len(t, second.Map.AccessPoints(), 1)
}

func TestScanner_NilFileSkipped(t *testing.T) {
	scanner := NewScanner()
	result := scanner.Scan([]Input{{Source: []byte("whatever")}})
	assert.Empty(t, result.Map.AccessPoints())
}
