package facts

import (
	"path/filepath"
	"strings"
)

// Language identifies a supported source language
type Language string

const (
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangJava       Language = "java"
	LangCSharp     Language = "csharp"
	LangPHP        Language = "php"
)

// Languages returns all supported languages in a stable order
func Languages() []Language {
	return []Language{LangTypeScript, LangPython, LangJava, LangCSharp, LangPHP}
}

// DetectLanguage maps a file extension to a supported language
func DetectLanguage(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return LangTypeScript, true
	case ".py":
		return LangPython, true
	case ".java":
		return LangJava, true
	case ".cs":
		return LangCSharp, true
	case ".php":
		return LangPHP, true
	}
	return "", false
}

// Method identifies which extraction strategy produced a result
type Method string

const (
	MethodGrammar  Method = "grammar"
	MethodFallback Method = "fallback"
	MethodHybrid   Method = "hybrid"
)

// Parameter represents a function parameter with an optional type
type Parameter struct {
	Name string
	Type string
}

// Function represents a function or method discovered in a source file
type Function struct {
	Name          string
	QualifiedName string // Class.name for methods, name otherwise
	Parent        string // enclosing class or function qualified name
	StartLine     int
	EndLine       int
	Parameters    []Parameter
	Annotations   []string // decorator/annotation/attribute names
	IsConstructor bool
	Confidence    float64
}

// Call represents a call site discovered within a function body
type Call struct {
	Caller string // qualified name of the enclosing function, empty at top level
	Callee string // callee as written, possibly receiver-qualified ("repo.save")
	Line   int
}

// Import represents an imported module or namespace
type Import struct {
	Name string // local binding name
	Path string // module path as written
}

// Quality describes how an extraction result was obtained and how complete it is
type Quality struct {
	Method       Method
	Completeness float64 // 0..1 estimate
	Reason       string  // failure reason when degraded
}

// Low reports whether the result should be treated as low quality
func (q Quality) Low() bool {
	return q.Completeness < 0.5
}

// FileResult holds all facts extracted from a single source file
type FileResult struct {
	Path      string
	Language  Language
	Functions []Function
	Calls     []Call
	Imports   []Import
	Quality   Quality
}

// LookupFunction retrieves a function by qualified name
func (r *FileResult) LookupFunction(qualified string) *Function {
	for i := range r.Functions {
		if r.Functions[i].QualifiedName == qualified {
			return &r.Functions[i]
		}
	}
	return nil
}

// EnclosingFunction returns the innermost function whose line span contains line
func (r *FileResult) EnclosingFunction(line int) *Function {
	var best *Function
	for i := range r.Functions {
		fn := &r.Functions[i]
		if fn.StartLine > line || fn.EndLine < line {
			continue
		}
		if best == nil || fn.StartLine > best.StartLine {
			best = fn
		}
	}
	return best
}

// ImportPath resolves a local binding name to its import path
func (r *FileResult) ImportPath(name string) (string, bool) {
	for _, imp := range r.Imports {
		if imp.Name == name {
			return imp.Path, true
		}
	}
	return "", false
}
