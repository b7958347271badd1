package callgraph

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/seclens/seclens/extractor/facts"
)

// Builder accumulates per-file extraction results and assembles them into a
// Graph. Facts are stored per owning file, so a changed file can be swapped
// out without touching the rest; the built graph is invalidated lazily and
// recomputed on the next Graph call.
type Builder struct {
	files map[string]*facts.FileResult
	built *Graph
}

// NewBuilder creates an empty Builder
func NewBuilder() *Builder {
	return &Builder{files: map[string]*facts.FileResult{}}
}

// AddFile registers a file's extraction result, replacing any previous result
// for the same path
func (b *Builder) AddFile(result *facts.FileResult) {
	if result == nil || result.Path == "" {
		return
	}
	b.files[result.Path] = result
	b.built = nil
}

// UpdateFile replaces the facts owned by one file and invalidates the built
// graph. It is the incremental-rescan entry point.
func (b *Builder) UpdateFile(path string, result *facts.FileResult) {
	if result == nil {
		delete(b.files, path)
	} else {
		b.files[path] = result
	}
	b.built = nil
}

// RemoveFile drops all facts owned by a file
func (b *Builder) RemoveFile(path string) {
	delete(b.files, path)
	b.built = nil
}

// Graph assembles and returns the call graph, reusing the cached build when
// no file has changed since the previous call
func (b *Builder) Graph() *Graph {
	if b.built == nil {
		b.built = b.build()
	}
	return b.built
}

// resolution indexes built once per assembly
type indexes struct {
	perFile    map[string]map[string][]string // path -> name -> node ids
	global     map[string][]string            // simple name -> node ids
	qualified  map[string][]string            // qualified name -> node ids
	byFileName map[string]map[string][]string // path -> qualified name -> node ids
	ctors      map[string][]string            // class name -> constructor node ids
}

func (b *Builder) build() *Graph {
	paths := make([]string, 0, len(b.files))
	for path := range b.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	nodes := map[string]*FunctionNode{}
	idx := &indexes{
		perFile:    map[string]map[string][]string{},
		global:     map[string][]string{},
		qualified:  map[string][]string{},
		byFileName: map[string]map[string][]string{},
		ctors:      map[string][]string{},
	}
	skipped := 0

	for _, path := range paths {
		file := b.files[path]
		idx.perFile[path] = map[string][]string{}
		idx.byFileName[path] = map[string][]string{}
		for i := range file.Functions {
			fn := &file.Functions[i]
			if fn.Name == "" || fn.StartLine <= 0 {
				skipped++
				continue
			}
			id := NodeID(path, fn.QualifiedName, fn.StartLine)
			nodes[id] = &FunctionNode{
				ID:            id,
				Name:          fn.Name,
				QualifiedName: fn.QualifiedName,
				File:          path,
				StartLine:     fn.StartLine,
				EndLine:       fn.EndLine,
				Parameters:    fn.Parameters,
				Annotations:   fn.Annotations,
				IsConstructor: fn.IsConstructor,
				Language:      file.Language,
			}
			idx.perFile[path][fn.Name] = append(idx.perFile[path][fn.Name], id)
			idx.byFileName[path][fn.QualifiedName] = append(idx.byFileName[path][fn.QualifiedName], id)
			idx.global[fn.Name] = append(idx.global[fn.Name], id)
			idx.qualified[fn.QualifiedName] = append(idx.qualified[fn.QualifiedName], id)
			if fn.IsConstructor {
				if class := className(fn); class != "" {
					idx.ctors[class] = append(idx.ctors[class], id)
				}
			}
		}
	}

	var edges []*CallEdge
	for _, path := range paths {
		file := b.files[path]
		for _, call := range file.Calls {
			sources := idx.byFileName[path][call.Caller]
			if len(sources) == 0 {
				// top-level call or dangling caller reference
				skipped++
				continue
			}
			source := sources[0]
			targets, confidence := resolve(call.Callee, path, file, nodes, idx, source)
			if len(targets) == 0 {
				edges = append(edges, &CallEdge{
					Source:     source,
					TargetName: call.Callee,
					Line:       call.Line,
					Confidence: Unresolved,
				})
				continue
			}
			for _, target := range targets {
				edges = append(edges, &CallEdge{
					Source:     source,
					Target:     target,
					TargetName: call.Callee,
					Line:       call.Line,
					Confidence: confidence,
				})
			}
		}
	}

	return newGraph(nodes, edges, skipped)
}

// resolve attempts call-target resolution in order: same-file match, then
// import-qualified match, then project-wide name match. More than one
// surviving candidate downgrades confidence to ambiguous; all candidates are
// kept as separate edges.
func resolve(callee, path string, file *facts.FileResult, nodes map[string]*FunctionNode,
	idx *indexes, source string) ([]string, Confidence) {

	receiver, method := splitCallee(callee)

	if receiver == "this" || receiver == "self" {
		// a method call on the caller's own class
		if class := callerClass(nodes[source]); class != "" {
			if ids := idx.byFileName[path][class+"."+method]; len(ids) > 0 {
				return ids, confidenceFor(ids)
			}
			if ids := idx.qualified[class+"."+method]; len(ids) > 0 {
				return ids, confidenceFor(ids)
			}
		}
		receiver = ""
	}

	if receiver == "" {
		// same-file unqualified match
		if ids := idx.perFile[path][method]; len(ids) > 0 {
			return ids, confidenceFor(ids)
		}
		// named import: resolve in the imported module's file
		if importPath, ok := file.ImportPath(method); ok {
			if ids := matchInFiles(idx, importPath, method); len(ids) > 0 {
				return ids, confidenceFor(ids)
			}
		}
		// constructor call by class name
		if ids := idx.ctors[method]; len(ids) > 0 {
			return ids, confidenceFor(ids)
		}
		// project-wide unqualified match
		if ids := idx.global[method]; len(ids) > 0 {
			return ids, confidenceFor(ids)
		}
		return nil, Unresolved
	}

	// module-qualified call through an import binding
	if importPath, ok := file.ImportPath(receiver); ok {
		if ids := matchInFiles(idx, importPath, method); len(ids) > 0 {
			return ids, confidenceFor(ids)
		}
	}

	// receiver type unknown: fall back to qualified then project-wide name match
	if ids := idx.qualified[receiver+"."+method]; len(ids) > 0 {
		return ids, confidenceFor(ids)
	}
	if ids := idx.perFile[path][method]; len(ids) > 0 {
		return ids, confidenceFor(ids)
	}
	if ids := idx.global[method]; len(ids) > 0 {
		return ids, confidenceFor(ids)
	}
	return nil, Unresolved
}

func confidenceFor(ids []string) Confidence {
	if len(ids) == 1 {
		return Resolved
	}
	return Ambiguous
}

// matchInFiles finds functions with the given name in files whose path
// matches the import path by path-suffix
func matchInFiles(idx *indexes, importPath, name string) []string {
	norm := normalizeImport(importPath)
	if norm == "" {
		return nil
	}
	var out []string
	paths := make([]string, 0, len(idx.perFile))
	for path := range idx.perFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		base := strings.TrimSuffix(path, filepath.Ext(path))
		base = strings.ReplaceAll(base, "\\", "/")
		if base == norm || strings.HasSuffix(base, "/"+norm) {
			out = append(out, idx.perFile[path][name]...)
		}
	}
	return out
}

// normalizeImport converts an import path to a slash-separated path fragment
func normalizeImport(importPath string) string {
	norm := strings.ReplaceAll(importPath, "\\", "/")
	norm = strings.ReplaceAll(norm, ".", "/")
	for strings.HasPrefix(norm, "//") {
		norm = strings.TrimPrefix(norm, "/")
	}
	norm = strings.TrimPrefix(norm, "//")
	norm = strings.Trim(norm, "/")
	return norm
}

func splitCallee(callee string) (receiver, method string) {
	idx := strings.LastIndex(callee, ".")
	if idx < 0 {
		return "", callee
	}
	return callee[:idx], callee[idx+1:]
}

func className(fn *facts.Function) string {
	if idx := strings.LastIndex(fn.QualifiedName, "."); idx >= 0 {
		return fn.QualifiedName[:idx]
	}
	return fn.Parent
}

func callerClass(node *FunctionNode) string {
	if node == nil {
		return ""
	}
	if idx := strings.LastIndex(node.QualifiedName, "."); idx >= 0 {
		return node.QualifiedName[:idx]
	}
	return ""
}
