package grammar

import (
	"context"
	"sync"

	"github.com/seclens/seclens/extractor/facts"
)

// probe snippets: one trivially valid declaration per language
var probeSnippets = map[facts.Language]string{
	facts.LangTypeScript: "function probe(): void {}\n",
	facts.LangPython:     "def probe():\n    pass\n",
	facts.LangJava:       "class Probe { void probe() {} }\n",
	facts.LangCSharp:     "class Probe { void Run() {} }\n",
	facts.LangPHP:        "<?php function probe() {} ?>\n",
}

var (
	probeMu      sync.Mutex
	probeResults = map[facts.Language]bool{}
)

// Available reports whether the grammar engine works for the given language.
// The first call per language parses a trivial snippet and memoizes the
// outcome; a crashing or misbehaving grammar is treated as unavailable so
// callers can fall back to pattern extraction.
func Available(lang facts.Language) bool {
	probeMu.Lock()
	defer probeMu.Unlock()

	if result, ok := probeResults[lang]; ok {
		return result
	}
	probeResults[lang] = runProbe(lang)
	return probeResults[lang]
}

// ResetAvailability clears memoized probe results so tests can re-probe
func ResetAvailability() {
	probeMu.Lock()
	defer probeMu.Unlock()
	probeResults = map[facts.Language]bool{}
}

func runProbe(lang facts.Language) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	snippet, found := probeSnippets[lang]
	if !found {
		return false
	}
	extractor := ForLanguage(lang)
	if extractor == nil {
		return false
	}
	result, err := extractor.Extract(context.Background(), []byte(snippet), "probe")
	return err == nil && len(result.Functions) > 0
}

// ForLanguage returns the grammar extractor for a language, nil if unsupported
func ForLanguage(lang facts.Language) *Extractor {
	switch lang {
	case facts.LangTypeScript:
		return NewTypeScript()
	case facts.LangPython:
		return NewPython()
	case facts.LangJava:
		return NewJava()
	case facts.LangCSharp:
		return NewCSharp()
	case facts.LangPHP:
		return NewPHP()
	}
	return nil
}
