package grammar

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/seclens/seclens/extractor/facts"
)

// NewCSharp creates an extractor for C# sources
func NewCSharp() *Extractor {
	return &Extractor{
		lang: facts.LangCSharp,
		spec: spec{
			language: func(string) *sitter.Language { return csharp.GetLanguage() },
			functionTypes: map[string]bool{
				"method_declaration":       true,
				"constructor_declaration":  true,
				"local_function_statement": true,
			},
			classTypes: map[string]bool{
				"class_declaration":     true,
				"struct_declaration":    true,
				"interface_declaration": true,
				"record_declaration":    true,
			},
			callTypes: map[string]bool{
				"invocation_expression":      true,
				"object_creation_expression": true,
			},
			annotationTypes: map[string]bool{
				"attribute": true,
			},
			annotationContainers: map[string]bool{
				"attribute_list": true,
			},
			constructorTypes: map[string]bool{
				"constructor_declaration": true,
			},
			calleeOf: csharpCallee,
			imports:  csharpImports,
		},
	}
}

func csharpCallee(n *sitter.Node, src []byte) string {
	if n.Type() == "object_creation_expression" {
		return fieldContent(n, "type", src)
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	return fn.Content(src)
}

func csharpImports(root *sitter.Node, src []byte) []facts.Import {
	var imports []facts.Import
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "using_directive" {
			continue
		}
		var path string
		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			child := stmt.NamedChild(j)
			if child.Type() == "qualified_name" || child.Type() == "identifier" {
				path = child.Content(src)
				break
			}
		}
		if path == "" {
			continue
		}
		imports = append(imports, facts.Import{Name: lastSegment(path), Path: path})
	}
	return imports
}
