package grammar

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/seclens/seclens/extractor/facts"
)

// NewPHP creates an extractor for PHP sources
func NewPHP() *Extractor {
	return &Extractor{
		lang: facts.LangPHP,
		spec: spec{
			language: func(string) *sitter.Language { return php.GetLanguage() },
			functionTypes: map[string]bool{
				"function_definition": true,
				"method_declaration":  true,
			},
			classTypes: map[string]bool{
				"class_declaration":     true,
				"interface_declaration": true,
				"trait_declaration":     true,
			},
			callTypes: map[string]bool{
				"function_call_expression":   true,
				"member_call_expression":     true,
				"scoped_call_expression":     true,
				"object_creation_expression": true,
			},
			annotationTypes: map[string]bool{
				"attribute": true,
			},
			annotationContainers: map[string]bool{
				"attribute_list":  true,
				"attribute_group": true,
			},
			constructorNames: map[string]bool{
				"__construct": true,
			},
			calleeOf: phpCallee,
			imports:  phpImports,
		},
	}
}

func phpCallee(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "function_call_expression":
		return phpName(fieldContent(n, "function", src))
	case "member_call_expression":
		object := phpName(fieldContent(n, "object", src))
		name := fieldContent(n, "name", src)
		if name == "" {
			return ""
		}
		if object == "" {
			return name
		}
		return object + "." + name
	case "scoped_call_expression":
		scope := phpName(fieldContent(n, "scope", src))
		name := fieldContent(n, "name", src)
		if name == "" {
			return ""
		}
		if scope == "" {
			return name
		}
		return scope + "." + name
	case "object_creation_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if t := child.Type(); t == "name" || t == "qualified_name" {
				return phpName(child.Content(src))
			}
		}
	}
	return ""
}

// phpName normalizes a PHP name: drops variable sigils and namespace prefixes
func phpName(name string) string {
	name = strings.TrimPrefix(name, "$")
	if idx := strings.LastIndex(name, "\\"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

func phpImports(root *sitter.Node, src []byte) []facts.Import {
	var imports []facts.Import
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "namespace_use_clause" {
			path := ""
			if qualified := firstOfType(n, "qualified_name"); qualified != nil {
				path = qualified.Content(src)
			} else if name := firstOfType(n, "name"); name != nil {
				path = name.Content(src)
			}
			if path != "" {
				imports = append(imports, facts.Import{Name: phpName(path), Path: path})
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(root)
	return imports
}
