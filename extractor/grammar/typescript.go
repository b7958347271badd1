package grammar

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/seclens/seclens/extractor/facts"
)

// NewTypeScript creates an extractor for TypeScript and TSX sources
func NewTypeScript() *Extractor {
	return &Extractor{
		lang: facts.LangTypeScript,
		spec: spec{
			language: func(path string) *sitter.Language {
				if strings.EqualFold(filepath.Ext(path), ".tsx") {
					return tsx.GetLanguage()
				}
				return typescript.GetLanguage()
			},
			functionTypes: map[string]bool{
				"function_declaration":           true,
				"generator_function_declaration": true,
				"method_definition":              true,
			},
			classTypes: map[string]bool{
				"class_declaration":          true,
				"abstract_class_declaration": true,
			},
			callTypes: map[string]bool{
				"call_expression": true,
				"new_expression":  true,
			},
			annotationTypes: map[string]bool{
				"decorator": true,
			},
			constructorNames: map[string]bool{
				"constructor": true,
			},
			valueFunctionTypes: map[string]bool{
				"arrow_function":      true,
				"function_expression": true,
				"function":            true,
			},
			calleeOf: typescriptCallee,
			imports:  typescriptImports,
		},
	}
}

func typescriptCallee(n *sitter.Node, src []byte) string {
	if n.Type() == "new_expression" {
		if ctor := n.ChildByFieldName("constructor"); ctor != nil {
			return ctor.Content(src)
		}
		return ""
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	callee := fn.Content(src)
	return strings.ReplaceAll(callee, "?.", ".")
}

// typescriptImports extracts import bindings from import statements
func typescriptImports(root *sitter.Node, src []byte) []facts.Import {
	var imports []facts.Import
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "import_statement" {
			continue
		}
		var importPath string
		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			child := stmt.NamedChild(j)
			if child.Type() == "string" {
				importPath = strings.Trim(child.Content(src), "'\"")
				break
			}
		}
		if importPath == "" {
			continue
		}
		for j := 0; j < int(stmt.NamedChildCount()); j++ {
			child := stmt.NamedChild(j)
			if child.Type() != "import_clause" {
				continue
			}
			for k := 0; k < int(child.NamedChildCount()); k++ {
				clause := child.NamedChild(k)
				switch clause.Type() {
				case "identifier":
					imports = append(imports, facts.Import{Name: clause.Content(src), Path: importPath})
				case "namespace_import":
					if id := firstOfType(clause, "identifier"); id != nil {
						imports = append(imports, facts.Import{Name: id.Content(src), Path: importPath})
					}
				case "named_imports":
					for l := 0; l < int(clause.NamedChildCount()); l++ {
						specifier := clause.NamedChild(l)
						if specifier.Type() != "import_specifier" {
							continue
						}
						name := fieldContent(specifier, "alias", src)
						if name == "" {
							name = fieldContent(specifier, "name", src)
						}
						if name != "" {
							imports = append(imports, facts.Import{Name: name, Path: importPath})
						}
					}
				}
			}
		}
	}
	return imports
}
