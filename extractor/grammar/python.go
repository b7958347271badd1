package grammar

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/seclens/seclens/extractor/facts"
)

// NewPython creates an extractor for Python sources
func NewPython() *Extractor {
	return &Extractor{
		lang: facts.LangPython,
		spec: spec{
			language: func(string) *sitter.Language { return python.GetLanguage() },
			functionTypes: map[string]bool{
				"function_definition": true,
			},
			classTypes: map[string]bool{
				"class_definition": true,
			},
			callTypes: map[string]bool{
				"call": true,
			},
			annotationTypes: map[string]bool{
				"decorator": true,
			},
			constructorNames: map[string]bool{
				"__init__": true,
			},
			calleeOf: pythonCallee,
			imports:  pythonImports,
		},
	}
}

func pythonCallee(n *sitter.Node, src []byte) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	return fn.Content(src)
}

// pythonImports handles both plain imports and from-imports
func pythonImports(root *sitter.Node, src []byte) []facts.Import {
	var imports []facts.Import
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "import_statement":
			for j := 0; j < int(stmt.NamedChildCount()); j++ {
				child := stmt.NamedChild(j)
				switch child.Type() {
				case "dotted_name":
					module := child.Content(src)
					imports = append(imports, facts.Import{Name: lastSegment(module), Path: module})
				case "aliased_import":
					module := fieldContent(child, "name", src)
					alias := fieldContent(child, "alias", src)
					if alias == "" {
						alias = lastSegment(module)
					}
					imports = append(imports, facts.Import{Name: alias, Path: module})
				}
			}
		case "import_from_statement":
			moduleNode := stmt.ChildByFieldName("module_name")
			if moduleNode == nil {
				continue
			}
			module := moduleNode.Content(src)
			for j := 0; j < int(stmt.NamedChildCount()); j++ {
				child := stmt.NamedChild(j)
				if child == moduleNode {
					continue
				}
				switch child.Type() {
				case "dotted_name":
					imports = append(imports, facts.Import{Name: child.Content(src), Path: module})
				case "aliased_import":
					name := fieldContent(child, "name", src)
					alias := fieldContent(child, "alias", src)
					if alias == "" {
						alias = name
					}
					imports = append(imports, facts.Import{Name: alias, Path: module})
				}
			}
		}
	}
	return imports
}
