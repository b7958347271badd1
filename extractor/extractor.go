// Package extractor turns raw source text into per-file facts: function
// declarations, call sites and imports. A grammar-based strategy is attempted
// first, with a regular-expression fallback and a hybrid merge of both.
package extractor

import (
	"context"

	"github.com/seclens/seclens/extractor/facts"
	"github.com/seclens/seclens/extractor/grammar"
	"github.com/seclens/seclens/extractor/pattern"
)

// Extractor is the capability contract every extraction strategy satisfies
type Extractor interface {
	// Extract parses source code and returns extracted facts
	Extract(ctx context.Context, src []byte, path string) (*facts.FileResult, error)

	// Language returns the language the extractor handles
	Language() facts.Language
}

// Registry maps languages to their registered extraction strategies
type Registry struct {
	grammars  map[facts.Language]Extractor
	patterns  map[facts.Language]Extractor
	available func(facts.Language) bool
}

// Option configures a Registry
type Option func(*Registry)

// WithGrammarProbe overrides the grammar availability probe, used by tests to
// simulate a missing grammar engine
func WithGrammarProbe(probe func(facts.Language) bool) Option {
	return func(r *Registry) {
		r.available = probe
	}
}

// NewRegistry creates a registry with the default extractor set for all
// supported languages
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		grammars:  map[facts.Language]Extractor{},
		patterns:  map[facts.Language]Extractor{},
		available: grammar.Available,
	}
	for _, lang := range facts.Languages() {
		if g := grammar.ForLanguage(lang); g != nil {
			r.grammars[lang] = g
		}
		if p := pattern.ForLanguage(lang); p != nil {
			r.patterns[lang] = p
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtractFile detects the file's language and runs hybrid extraction.
// It never fails: unsupported or unparseable input yields an empty result
// with a low quality flag.
func (r *Registry) ExtractFile(ctx context.Context, src []byte, path string) *facts.FileResult {
	lang, ok := facts.DetectLanguage(path)
	if !ok {
		return &facts.FileResult{
			Path: path,
			Quality: facts.Quality{
				Method:       facts.MethodFallback,
				Completeness: 0,
				Reason:       "unsupported file type",
			},
		}
	}
	return r.Extract(ctx, src, path, lang)
}

// Extract runs grammar extraction when available, falls back to pattern
// extraction otherwise, and merges pattern facts into grammar results where
// the grammar left gaps
func (r *Registry) Extract(ctx context.Context, src []byte, path string, lang facts.Language) *facts.FileResult {
	grammarExtractor, hasGrammar := r.grammars[lang]
	patternExtractor, hasPattern := r.patterns[lang]

	var grammarResult *facts.FileResult
	reason := ""
	if hasGrammar && r.available(lang) {
		result, err := grammarExtractor.Extract(ctx, src, path)
		if err == nil {
			grammarResult = result
		} else {
			reason = err.Error()
		}
	} else {
		reason = "grammar engine unavailable for " + string(lang)
	}

	if !hasPattern {
		if grammarResult != nil {
			return grammarResult
		}
		return &facts.FileResult{
			Path:     path,
			Language: lang,
			Quality:  facts.Quality{Method: facts.MethodFallback, Completeness: 0, Reason: reason},
		}
	}

	patternResult, _ := patternExtractor.Extract(ctx, src, path)
	if grammarResult == nil {
		if reason != "" {
			patternResult.Quality.Reason = reason
		}
		return patternResult
	}
	return merge(grammarResult, patternResult)
}

// merge overlays pattern facts onto a grammar result: grammar facts win where
// both report a structure at the same position, pattern facts fill gaps.
// Deduplication is by (line, name) keeping the higher-confidence entry.
func merge(grammarResult, patternResult *facts.FileResult) *facts.FileResult {
	out := *grammarResult

	seenFns := map[fnKey]bool{}
	for _, fn := range grammarResult.Functions {
		seenFns[fnKey{fn.StartLine, fn.Name}] = true
	}
	added := false
	for _, fn := range patternResult.Functions {
		if seenFns[fnKey{fn.StartLine, fn.Name}] {
			continue
		}
		if covered(grammarResult, fn.StartLine) {
			// the grammar understood this region; trust its reading
			continue
		}
		out.Functions = append(out.Functions, fn)
		seenFns[fnKey{fn.StartLine, fn.Name}] = true
		added = true
	}

	seenCalls := map[callKey]bool{}
	for _, call := range grammarResult.Calls {
		seenCalls[callKey{call.Line, call.Callee}] = true
	}
	for _, call := range patternResult.Calls {
		if seenCalls[callKey{call.Line, call.Callee}] {
			continue
		}
		if covered(grammarResult, call.Line) {
			continue
		}
		out.Calls = append(out.Calls, call)
		seenCalls[callKey{call.Line, call.Callee}] = true
		added = true
	}

	if added {
		out.Quality.Method = facts.MethodHybrid
	}
	return &out
}

type fnKey struct {
	line int
	name string
}

type callKey struct {
	line   int
	callee string
}

// covered reports whether a line falls inside any grammar-extracted function
// span, meaning the grammar successfully parsed that region
func covered(result *facts.FileResult, line int) bool {
	return result.EnclosingFunction(line) != nil
}
