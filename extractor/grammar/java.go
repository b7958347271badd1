package grammar

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/seclens/seclens/extractor/facts"
)

// NewJava creates an extractor for Java sources
func NewJava() *Extractor {
	return &Extractor{
		lang: facts.LangJava,
		spec: spec{
			language: func(string) *sitter.Language { return java.GetLanguage() },
			functionTypes: map[string]bool{
				"method_declaration":      true,
				"constructor_declaration": true,
			},
			classTypes: map[string]bool{
				"class_declaration":     true,
				"interface_declaration": true,
				"enum_declaration":      true,
				"record_declaration":    true,
			},
			callTypes: map[string]bool{
				"method_invocation":          true,
				"object_creation_expression": true,
			},
			annotationTypes: map[string]bool{
				"marker_annotation": true,
				"annotation":        true,
			},
			annotationContainers: map[string]bool{
				"modifiers": true,
			},
			constructorTypes: map[string]bool{
				"constructor_declaration": true,
			},
			calleeOf: javaCallee,
			imports:  javaImports,
		},
	}
}

func javaCallee(n *sitter.Node, src []byte) string {
	if n.Type() == "object_creation_expression" {
		return fieldContent(n, "type", src)
	}
	name := fieldContent(n, "name", src)
	if name == "" {
		return ""
	}
	if object := fieldContent(n, "object", src); object != "" {
		return object + "." + name
	}
	return name
}

func javaImports(root *sitter.Node, src []byte) []facts.Import {
	var imports []facts.Import
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "import_declaration" {
			continue
		}
		scoped := firstOfType(stmt, "scoped_identifier")
		if scoped == nil {
			continue
		}
		path := scoped.Content(src)
		imports = append(imports, facts.Import{Name: lastSegment(path), Path: path})
	}
	return imports
}
