// Package pattern implements regular-expression fallback extraction used when
// a tree-sitter grammar is unavailable or fails on a file. Results are less
// precise than grammar extraction and carry a lower quality estimate.
package pattern

import (
	"context"
	"strings"

	"github.com/seclens/seclens/extractor/facts"
)

// Extractor extracts source facts from per-language regular-expression tables
type Extractor struct {
	lang  facts.Language
	table *table
}

// ForLanguage returns the pattern extractor for a language, nil if unsupported
func ForLanguage(lang facts.Language) *Extractor {
	t, ok := tables[lang]
	if !ok {
		return nil
	}
	return &Extractor{lang: lang, table: t}
}

// Language returns the language this extractor handles
func (e *Extractor) Language() facts.Language {
	return e.lang
}

// Extract scans source line by line for function signatures and call
// expressions. It never fails: unmatchable input yields an empty result with
// a low quality flag.
func (e *Extractor) Extract(_ context.Context, src []byte, path string) (*facts.FileResult, error) {
	result := &facts.FileResult{
		Path:     path,
		Language: e.lang,
	}

	lines := strings.Split(string(src), "\n")

	type pendingClass struct {
		name   string
		indent int
	}
	var classes []pendingClass
	var pendingAnnotations []string

	for idx, raw := range lines {
		lineNo := idx + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || isComment(trimmed) {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))

		// pop classes whose scope this line has left
		if e.table.indentScoped {
			for len(classes) > 0 && indent <= classes[len(classes)-1].indent {
				classes = classes[:len(classes)-1]
			}
		} else if isScopeCloser(trimmed) && len(classes) > 0 && indent <= classes[len(classes)-1].indent {
			classes = classes[:len(classes)-1]
		}

		if m := e.table.annotationRe.FindStringSubmatch(trimmed); m != nil {
			pendingAnnotations = append(pendingAnnotations, m[1])
			continue
		}

		if m := e.table.classRe.FindStringSubmatch(raw); m != nil {
			classes = append(classes, pendingClass{name: m[1], indent: indent})
			pendingAnnotations = nil
			continue
		}

		matchedDecl := ""
		for _, re := range e.table.functionRes {
			m := re.FindStringSubmatch(raw)
			if m == nil {
				continue
			}
			name := m[1]
			fn := facts.Function{
				Name:        name,
				StartLine:   lineNo,
				EndLine:     len(lines),
				Parameters:  splitParams(m[2]),
				Annotations: pendingAnnotations,
				Confidence:  0.6,
			}
			fn.QualifiedName = name
			if len(classes) > 0 && indent > classes[len(classes)-1].indent {
				cls := classes[len(classes)-1].name
				fn.QualifiedName = cls + "." + name
				fn.Parent = cls
			}
			fn.IsConstructor = e.table.constructorNames[name]
			result.Functions = append(result.Functions, fn)
			pendingAnnotations = nil
			matchedDecl = name
			break
		}

		for _, m := range e.table.callRe.FindAllStringSubmatch(raw, -1) {
			callee := normalizeCallee(m[1])
			base := callee
			if dot := strings.LastIndex(base, "."); dot >= 0 {
				base = base[dot+1:]
			}
			if keywords[base] || e.table.keywords[base] || base == matchedDecl {
				continue
			}
			result.Calls = append(result.Calls, facts.Call{Callee: callee, Line: lineNo})
		}
	}

	closeFunctionSpans(result.Functions, len(lines))
	attributeCallers(result)

	result.Quality = facts.Quality{Method: facts.MethodFallback, Completeness: 0.5}
	if len(result.Functions) == 0 && len(result.Calls) == 0 {
		result.Quality.Completeness = 0.2
		result.Quality.Reason = "no signatures matched pattern tables"
	}
	return result, nil
}

// closeFunctionSpans estimates end lines: a function extends to the line
// before the next function at the same or shallower nesting
func closeFunctionSpans(functions []facts.Function, lastLine int) {
	for i := range functions {
		end := lastLine
		for j := i + 1; j < len(functions); j++ {
			if functions[j].Parent != functions[i].QualifiedName {
				end = functions[j].StartLine - 1
				break
			}
		}
		functions[i].EndLine = end
	}
}

// attributeCallers assigns each call to the innermost function span containing it
func attributeCallers(result *facts.FileResult) {
	for i := range result.Calls {
		if fn := result.EnclosingFunction(result.Calls[i].Line); fn != nil {
			result.Calls[i].Caller = fn.QualifiedName
		}
	}
}

func normalizeCallee(callee string) string {
	callee = strings.ReplaceAll(callee, "->", ".")
	callee = strings.ReplaceAll(callee, "::", ".")
	callee = strings.ReplaceAll(callee, " ", "")
	return strings.TrimPrefix(callee, "$")
}

func splitParams(raw string) []facts.Parameter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []facts.Parameter
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, typ := paramNameType(part)
		if name != "" {
			out = append(out, facts.Parameter{Name: name, Type: typ})
		}
	}
	return out
}

// paramNameType handles "name: Type" (ts), "Type name" (java/c#), "$name" (php)
// and bare names; defaults and generics are trimmed best-effort
func paramNameType(part string) (string, string) {
	if eq := strings.Index(part, "="); eq >= 0 {
		part = strings.TrimSpace(part[:eq])
	}
	if colon := strings.Index(part, ":"); colon >= 0 {
		return strings.TrimPrefix(strings.TrimSpace(part[:colon]), "$"),
			strings.TrimSpace(part[colon+1:])
	}
	fields := strings.Fields(part)
	if len(fields) == 0 {
		return "", ""
	}
	name := strings.TrimPrefix(fields[len(fields)-1], "$")
	name = strings.TrimLeft(name, "*&")
	typ := ""
	if len(fields) > 1 {
		typ = strings.Join(fields[:len(fields)-1], " ")
	}
	return name, typ
}

func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "#[") ||
		strings.HasPrefix(trimmed, "*") ||
		strings.HasPrefix(trimmed, "/*")
}

func isScopeCloser(trimmed string) bool {
	return strings.HasPrefix(trimmed, "}")
}

// keywords shared across languages that look like calls but are not
var keywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "function": true, "def": true, "new": true, "else": true,
	"foreach": true, "elseif": true, "except": true, "with": true,
	"assert": true, "using": true, "lock": true, "match": true, "super": true,
	"throw": true, "typeof": true, "sizeof": true, "print": true,
}
