package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seclens/seclens/extractor/facts"
)

func TestRegistry_ExtractFile_Grammar(t *testing.T) {
	registry := NewRegistry()

	source := `function greet(name: string) {
  return format(name);
}
`
	result := registry.ExtractFile(context.Background(), []byte(source), "greet.ts")

	assert.Equal(t, facts.LangTypeScript, result.Language)
	assert.Equal(t, facts.MethodGrammar, result.Quality.Method)
	require.NotNil(t, result.LookupFunction("greet"))
}

func TestRegistry_ExtractFile_Unsupported(t *testing.T) {
	registry := NewRegistry()

	result := registry.ExtractFile(context.Background(), []byte("package main"), "main.go")

	assert.Empty(t, result.Functions)
	assert.True(t, result.Quality.Low())
	assert.Equal(t, "unsupported file type", result.Quality.Reason)
}

func TestRegistry_FallbackWhenGrammarUnavailable(t *testing.T) {
	registry := NewRegistry(WithGrammarProbe(func(facts.Language) bool { return false }))

	source := `def list_users(request):
    return get_session()
`
	result := registry.ExtractFile(context.Background(), []byte(source), "views.py")

	assert.Equal(t, facts.MethodFallback, result.Quality.Method)
	assert.Contains(t, result.Quality.Reason, "grammar engine unavailable")
	require.NotNil(t, result.LookupFunction("list_users"))

	var callees []string
	for _, call := range result.Calls {
		callees = append(callees, call.Callee)
	}
	assert.Contains(t, callees, "get_session")
}

func TestRegistry_GrammarWinsInsideParsedSpans(t *testing.T) {
	registry := NewRegistry()

	source := `function alpha() {
  return beta();
}
`
	result := registry.ExtractFile(context.Background(), []byte(source), "alpha.ts")

	// hybrid merge must not duplicate facts both strategies found
	count := 0
	for _, fn := range result.Functions {
		if fn.Name == "alpha" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	calls := 0
	for _, call := range result.Calls {
		if call.Callee == "beta" {
			calls++
		}
	}
	assert.Equal(t, 1, calls)
}
