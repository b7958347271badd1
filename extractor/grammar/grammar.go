// Package grammar implements tree-sitter based fact extraction for the
// supported source languages. Each language contributes a spec (grammar and
// node-type tables) consumed by one shared walker.
package grammar

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/seclens/seclens/extractor/facts"
)

// spec describes how to read one language's syntax tree
type spec struct {
	language             func(path string) *sitter.Language
	functionTypes        map[string]bool
	classTypes           map[string]bool
	callTypes            map[string]bool
	annotationTypes      map[string]bool
	annotationContainers map[string]bool
	constructorTypes     map[string]bool
	constructorNames     map[string]bool
	valueFunctionTypes   map[string]bool // function-valued nodes bound via declarators
	calleeOf             func(n *sitter.Node, src []byte) string
	imports              func(root *sitter.Node, src []byte) []facts.Import
}

// Extractor extracts source facts using a tree-sitter grammar
type Extractor struct {
	lang facts.Language
	spec spec
}

// Language returns the language this extractor handles
func (e *Extractor) Language() facts.Language {
	return e.lang
}

// Extract parses source and collects function declarations, call sites and imports.
// Syntax errors degrade the quality estimate but do not fail the extraction;
// a nil tree or unparseable input returns an error so a fallback can take over.
func (e *Extractor) Extract(ctx context.Context, src []byte, path string) (*facts.FileResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.spec.language(path))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, errors.New("parser produced no syntax tree")
	}

	result := &facts.FileResult{
		Path:     path,
		Language: e.lang,
	}

	w := &walker{src: src, spec: &e.spec, result: result}
	w.walk(root)

	if e.spec.imports != nil {
		result.Imports = e.spec.imports(root, src)
	}

	result.Quality = facts.Quality{Method: facts.MethodGrammar, Completeness: 0.9}
	if root.HasError() {
		result.Quality.Completeness = 0.7
		result.Quality.Reason = "syntax errors in source; facts may be partial"
	}
	return result, nil
}

// walker carries traversal state: the class and function nesting stacks
type walker struct {
	src    []byte
	spec   *spec
	result *facts.FileResult

	classStack []string
	funcStack  []string
}

func (w *walker) walk(n *sitter.Node) {
	nodeType := n.Type()

	switch {
	case w.spec.classTypes[nodeType]:
		name := fieldContent(n, "name", w.src)
		if name != "" {
			w.classStack = append(w.classStack, name)
			w.walkChildren(n)
			w.classStack = w.classStack[:len(w.classStack)-1]
			return
		}

	case w.spec.functionTypes[nodeType]:
		name := fieldContent(n, "name", w.src)
		if name != "" {
			w.addFunction(n, name, nodeType)
			return
		}
		// anonymous function: keep walking its body in the current scope

	case nodeType == "variable_declarator" && len(w.spec.valueFunctionTypes) > 0:
		// const handler = (req) => {...} style bindings
		value := n.ChildByFieldName("value")
		name := fieldContent(n, "name", w.src)
		if value != nil && name != "" && w.spec.valueFunctionTypes[value.Type()] {
			w.addBoundFunction(n, value, name)
			return
		}

	case w.spec.callTypes[nodeType]:
		if callee := w.spec.calleeOf(n, w.src); callee != "" {
			w.result.Calls = append(w.result.Calls, facts.Call{
				Caller: w.currentFunction(),
				Callee: callee,
				Line:   line(n),
			})
		}
		// arguments may contain further calls and function expressions
	}

	w.walkChildren(n)
}

func (w *walker) walkChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i))
	}
}

func (w *walker) addFunction(n *sitter.Node, name, nodeType string) {
	fn := facts.Function{
		Name:        name,
		StartLine:   line(n),
		EndLine:     endLine(n),
		Parameters:  paramsOf(n, w.src),
		Annotations: w.annotationsOf(n),
		Confidence:  1,
	}
	fn.QualifiedName = w.qualify(name)
	fn.Parent = w.parentScope()
	fn.IsConstructor = w.spec.constructorTypes[nodeType] || w.spec.constructorNames[name]

	w.result.Functions = append(w.result.Functions, fn)

	w.funcStack = append(w.funcStack, fn.QualifiedName)
	if body := n.ChildByFieldName("body"); body != nil {
		w.walkChildren(body)
	} else {
		w.walkChildren(n)
	}
	w.funcStack = w.funcStack[:len(w.funcStack)-1]
}

// addBoundFunction records a function-valued declarator (arrow or function expression)
func (w *walker) addBoundFunction(declarator, value *sitter.Node, name string) {
	fn := facts.Function{
		Name:        name,
		StartLine:   line(declarator),
		EndLine:     endLine(value),
		Parameters:  paramsOf(value, w.src),
		Annotations: w.annotationsOf(declarator),
		Confidence:  1,
	}
	fn.QualifiedName = w.qualify(name)
	fn.Parent = w.parentScope()

	w.result.Functions = append(w.result.Functions, fn)

	w.funcStack = append(w.funcStack, fn.QualifiedName)
	w.walkChildren(value)
	w.funcStack = w.funcStack[:len(w.funcStack)-1]
}

func (w *walker) qualify(name string) string {
	if len(w.classStack) > 0 {
		return w.classStack[len(w.classStack)-1] + "." + name
	}
	return name
}

func (w *walker) parentScope() string {
	if len(w.funcStack) > 0 {
		return w.funcStack[len(w.funcStack)-1]
	}
	if len(w.classStack) > 0 {
		return w.classStack[len(w.classStack)-1]
	}
	return ""
}

func (w *walker) currentFunction() string {
	if len(w.funcStack) == 0 {
		return ""
	}
	return w.funcStack[len(w.funcStack)-1]
}

// annotationsOf collects decorator/annotation/attribute names attached to a
// declaration, looking at preceding siblings (python decorators, ts decorators,
// php attribute groups) and at modifier-style children (java, c#)
func (w *walker) annotationsOf(n *sitter.Node) []string {
	var out []string

	for prev := n.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		t := prev.Type()
		if w.spec.annotationTypes[t] {
			out = append([]string{annotationName(prev, w.src)}, out...)
			continue
		}
		if w.spec.annotationContainers[t] {
			out = append(collectAnnotations(prev, w.spec, w.src), out...)
			continue
		}
		break
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if w.spec.annotationTypes[c.Type()] {
			out = append(out, annotationName(c, w.src))
		} else if w.spec.annotationContainers[c.Type()] {
			out = append(out, collectAnnotations(c, w.spec, w.src)...)
		}
	}
	return out
}

func collectAnnotations(container *sitter.Node, s *spec, src []byte) []string {
	var out []string
	for i := 0; i < int(container.NamedChildCount()); i++ {
		c := container.NamedChild(i)
		if s.annotationTypes[c.Type()] {
			out = append(out, annotationName(c, src))
		} else if s.annotationContainers[c.Type()] {
			// php nests attribute groups inside attribute lists
			out = append(out, collectAnnotations(c, s, src)...)
		}
	}
	return out
}

func annotationName(n *sitter.Node, src []byte) string {
	text := n.Content(src)
	text = strings.TrimLeft(text, "@#[")
	if idx := strings.IndexAny(text, "(]"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// paramsOf extracts the parameter list from a function-like node
func paramsOf(n *sitter.Node, src []byte) []facts.Parameter {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []facts.Parameter
	for i := 0; i < int(params.NamedChildCount()); i++ {
		c := params.NamedChild(i)
		switch c.Type() {
		case "identifier", "variable_name":
			out = append(out, facts.Parameter{Name: paramName(c.Content(src))})
		default:
			var param facts.Parameter
			if nn := c.ChildByFieldName("name"); nn != nil {
				param.Name = nn.Content(src)
			} else if id := firstOfType(c, "identifier"); id != nil {
				param.Name = id.Content(src)
			} else if id := firstOfType(c, "variable_name"); id != nil {
				param.Name = id.Content(src)
			}
			if tn := c.ChildByFieldName("type"); tn != nil {
				param.Type = paramType(tn.Content(src))
			}
			param.Name = paramName(param.Name)
			if param.Name != "" {
				out = append(out, param)
			}
		}
	}
	return out
}

// paramName drops the php variable sigil
func paramName(name string) string {
	return strings.TrimPrefix(name, "$")
}

// paramType drops the leading colon of typescript type annotations
func paramType(t string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), ":"))
}

func firstOfType(n *sitter.Node, nodeType string) *sitter.Node {
	if n.Type() == nodeType {
		return n
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if found := firstOfType(n.NamedChild(i), nodeType); found != nil {
			return found
		}
	}
	return nil
}

func fieldContent(n *sitter.Node, field string, src []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(src)
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func endLine(n *sitter.Node) int {
	return int(n.EndPoint().Row) + 1
}

// lastSegment returns the trailing segment of a dotted name
func lastSegment(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
