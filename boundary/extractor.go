package boundary

import (
	"regexp"
	"sort"
	"strings"

	"github.com/seclens/seclens/extractor/facts"
)

// Extractor recognizes one (language, framework) data-access convention.
// Extract receives raw source plus the file's extraction result and returns
// the access points and field declarations it found. Extractors never fail:
// a file the convention does not apply to yields empty results.
type Extractor interface {
	Name() string
	Language() facts.Language // empty for language-independent extractors
	Extract(src []byte, file *facts.FileResult) ([]AccessPoint, []Field)
}

// Registry dispatches boundary extraction across all registered extractors
type Registry struct {
	byLanguage map[facts.Language][]Extractor
	always     []Extractor // language-independent, run on every file
}

// NewRegistry creates a registry with all built-in framework extractors and
// the language-agnostic raw-SQL safety net
func NewRegistry() *Registry {
	r := &Registry{byLanguage: map[facts.Language][]Extractor{}}
	r.Register(NewTypeScriptExtractor())
	r.Register(NewPythonExtractor())
	r.Register(NewJavaExtractor())
	r.Register(NewCSharpExtractor())
	r.Register(NewPHPExtractor())
	r.Register(NewRawSQLExtractor())
	return r
}

// Register adds an extractor; language-independent ones run on every file
func (r *Registry) Register(e Extractor) {
	if lang := e.Language(); lang != "" {
		r.byLanguage[lang] = append(r.byLanguage[lang], e)
	} else {
		r.always = append(r.always, e)
	}
}

// ExtractFile runs every applicable extractor and unions the results.
// Access points reported by different extractors at the same line are
// duplicates of one site; only the highest-confidence one survives. The
// enclosing function is attached from the file's extraction result.
func (r *Registry) ExtractFile(src []byte, file *facts.FileResult) ([]AccessPoint, []Field) {
	var points []AccessPoint
	var fields []Field
	for _, e := range append(append([]Extractor{}, r.byLanguage[file.Language]...), r.always...) {
		p, f := e.Extract(src, file)
		points = append(points, p...)
		fields = append(fields, f...)
	}

	points = dedupePoints(points)
	for i := range points {
		if points[i].File == "" {
			points[i].File = file.Path
		}
		if points[i].Function == "" {
			if fn := file.EnclosingFunction(points[i].Line); fn != nil {
				points[i].Function = fn.QualifiedName
			}
		}
	}
	for i := range fields {
		if fields[i].File == "" {
			fields[i].File = file.Path
		}
	}
	return points, fields
}

// dedupePoints keeps, per source line, the highest-confidence access point
func dedupePoints(points []AccessPoint) []AccessPoint {
	best := map[int]int{}
	var out []AccessPoint
	for _, p := range points {
		if i, ok := best[p.Line]; ok {
			if p.Confidence > out[i].Confidence {
				out[i] = p
			}
			continue
		}
		best[p.Line] = len(out)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// sourceLines splits raw source for line-oriented extractors
func sourceLines(src []byte) []string {
	return strings.Split(string(src), "\n")
}

// quotedNames extracts every quoted identifier from a fragment, used for
// column lists like values('ssn', 'email') or ['name', 'email']
var quotedNameRe = regexp.MustCompile(`['"](\w+)['"]`)

func quotedNames(fragment string) []string {
	var out []string
	for _, m := range quotedNameRe.FindAllStringSubmatch(fragment, -1) {
		out = append(out, m[1])
	}
	return out
}

// selectedKeys extracts the keys of an inline object literal such as
// select: { ssn: true, email: true }
var selectKeyRe = regexp.MustCompile(`(\w+)\s*:`)

func selectedKeys(fragment string) []string {
	var out []string
	for _, m := range selectKeyRe.FindAllStringSubmatch(fragment, -1) {
		out = append(out, m[1])
	}
	return out
}

// fieldsOrWildcard defaults an empty field list to whole-row access
func fieldsOrWildcard(fields []string) []string {
	if len(fields) == 0 {
		return []string{Wildcard}
	}
	return fields
}

func capitalize(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
