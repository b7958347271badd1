package boundary

import (
	"regexp"
	"strings"

	"github.com/seclens/seclens/extractor/facts"
)

// CSharpExtractor recognizes Entity Framework Core conventions: DbSet
// declarations, annotated entity properties and LINQ-style DbSet calls
type CSharpExtractor struct{}

// NewCSharpExtractor creates the C# boundary extractor
func NewCSharpExtractor() *CSharpExtractor {
	return &CSharpExtractor{}
}

func (e *CSharpExtractor) Name() string             { return "csharp-efcore" }
func (e *CSharpExtractor) Language() facts.Language { return facts.LangCSharp }

var (
	efDbSetRe = regexp.MustCompile(`\bDbSet<(\w+)>\s+(\w+)`)
	efClassRe = regexp.MustCompile(`\b(?:class|record)\s+(\w+)`)
	// data annotations that mark a property as a mapped column
	efAttrRe     = regexp.MustCompile(`\[\s*(Key|Required|Column|MaxLength|StringLength|PersonalData)\b`)
	efPropertyRe = regexp.MustCompile(`^\s*public\s+(?:virtual\s+)?([\w?<>,\[\] ]+?)\s+(\w+)\s*\{\s*get;`)

	// _context.Users.Where(...).ToListAsync()
	efContextCallRe = regexp.MustCompile(`\b_?(?:db|context|dbContext|_context)\.(\w+)\.` +
		`(Where|Select|First\w*|Single\w*|Find\w*|Any\w*|Count\w*|ToList\w*|ToArray\w*|` +
		`Add\w*|Update\w*|Remove\w*|Attach)\s*\(`)
	efRawSQLRe = regexp.MustCompile(`\.(FromSqlRaw|FromSqlInterpolated|ExecuteSqlRaw\w*|ExecuteSqlInterpolated\w*)\s*\(`)
)

func (e *CSharpExtractor) Extract(src []byte, file *facts.FileResult) ([]AccessPoint, []Field) {
	lines := sourceLines(src)
	var points []AccessPoint
	var fields []Field

	class := ""
	depth := 0
	opened := false
	pendingAttr := "" // last data annotation seen before a property

	for i, line := range lines {
		lineNo := i + 1

		if m := efClassRe.FindStringSubmatch(line); m != nil {
			class = m[1]
			depth = 0
			opened = false
			pendingAttr = ""
		}
		if class != "" {
			if strings.Contains(line, "{") {
				opened = true
			}
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if m := efAttrRe.FindStringSubmatch(line); m != nil {
				pendingAttr = m[1]
			}
			if m := efPropertyRe.FindStringSubmatch(line); m != nil {
				typ, name := strings.TrimSpace(m[1]), m[2]
				if sub := efDbSetRe.FindStringSubmatch(line); sub != nil {
					// DbSet<User> Users registers the entity, not a column
					points = append(points, AccessPoint{
						Line:       lineNo,
						Operation:  OpSchema,
						Framework:  "efcore",
						Table:      sub[1],
						Fields:     []string{Wildcard},
						Confidence: 0.9,
					})
				} else if pendingAttr != "" {
					f := Field{
						Table:      class,
						Name:       name,
						Type:       typ,
						Tier:       TierPublic,
						Provenance: ProvenanceDefault,
						Confidence: 0.9,
						Line:       lineNo,
					}
					if pendingAttr == "PersonalData" {
						// ASP.NET Identity marker for GDPR-covered data
						f.Tier, f.Provenance, f.Marker = TierConfidential, ProvenanceDeclared, "[PersonalData]"
					}
					if tier, marker, ok := markedTier(lines, i); ok {
						f.Tier, f.Provenance, f.Marker = tier, ProvenanceDeclared, marker
					}
					fields = append(fields, f)
				}
				pendingAttr = ""
			}
			if opened && depth <= 0 {
				class = ""
				pendingAttr = ""
			}
		}

		if m := efContextCallRe.FindStringSubmatch(line); m != nil {
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  efOperation(m[2]),
				Framework:  "efcore",
				Table:      singular(m[1]),
				Fields:     []string{Wildcard},
				Confidence: 0.8,
			})
		}
		if efRawSQLRe.MatchString(line) {
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  OpRawSQL,
				Framework:  "efcore",
				Fields:     []string{Wildcard},
				Confidence: 0.7,
			})
		}
	}
	return points, fields
}

func efOperation(method string) Operation {
	switch {
	case strings.HasPrefix(method, "Add"), strings.HasPrefix(method, "Update"),
		method == "Attach":
		return OpWrite
	case strings.HasPrefix(method, "Remove"):
		return OpDelete
	default:
		return OpRead
	}
}

// singular reduces a conventional plural DbSet name to the entity name,
// Users -> User, Addresses -> Address
func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ses"):
		return strings.TrimSuffix(name, "es")
	case strings.HasSuffix(name, "ies"):
		return strings.TrimSuffix(name, "ies") + "y"
	case strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss"):
		return strings.TrimSuffix(name, "s")
	}
	return name
}
