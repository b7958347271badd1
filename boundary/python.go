package boundary

import (
	"regexp"
	"strings"

	"github.com/seclens/seclens/extractor/facts"
)

// PythonExtractor recognizes Django model declarations and manager calls plus
// the SQLAlchemy declarative and session conventions
type PythonExtractor struct{}

// NewPythonExtractor creates the Python boundary extractor
func NewPythonExtractor() *PythonExtractor {
	return &PythonExtractor{}
}

func (e *PythonExtractor) Name() string             { return "python-orm" }
func (e *PythonExtractor) Language() facts.Language { return facts.LangPython }

var (
	djangoModelRe = regexp.MustCompile(`^class\s+(\w+)\s*\(.*models\.Model`)
	djangoFieldRe = regexp.MustCompile(`^\s+(\w+)\s*=\s*models\.(\w+)\(`)

	sqlalchemyModelRe = regexp.MustCompile(`^class\s+(\w+)\s*\(\s*(?:Base|db\.Model)`)
	sqlalchemyFieldRe = regexp.MustCompile(`^\s+(\w+)\s*=\s*(?:db\.)?(?:Column|mapped_column)\(\s*([\w.]*)`)

	// User.objects.filter(...).values('ssn', 'email')
	djangoManagerRe = regexp.MustCompile(`\b([A-Z]\w*)\.objects\.` +
		`(get|filter|exclude|all|values|values_list|only|create|get_or_create|update_or_create|` +
		`update|delete|count|first|last|exists|bulk_create|bulk_update)\s*\(`)

	// session.query(User) / db.session.query(User)
	sqlalchemyQueryRe = regexp.MustCompile(`\bsession\.query\(\s*(\w+)`)
	sqlalchemyAddRe   = regexp.MustCompile(`\bsession\.(add|add_all|merge|delete)\(\s*(\w*)`)
)

func (e *PythonExtractor) Extract(src []byte, file *facts.FileResult) ([]AccessPoint, []Field) {
	lines := sourceLines(src)
	var points []AccessPoint
	var fields []Field

	model := "" // current model class, empty outside one

	for i, line := range lines {
		lineNo := i + 1

		if m := djangoModelRe.FindStringSubmatch(line); m != nil {
			model = m[1]
		} else if m := sqlalchemyModelRe.FindStringSubmatch(line); m != nil {
			model = m[1]
		} else if model != "" && len(line) > 0 && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			// dedent back to module level ends the class body
			model = ""
		}

		if model != "" {
			var name, typ string
			if m := djangoFieldRe.FindStringSubmatch(line); m != nil {
				name, typ = m[1], m[2]
			} else if m := sqlalchemyFieldRe.FindStringSubmatch(line); m != nil {
				name, typ = m[1], m[2]
			}
			if name != "" {
				f := Field{
					Table:      model,
					Name:       name,
					Type:       typ,
					Tier:       TierPublic,
					Provenance: ProvenanceDefault,
					Confidence: 0.9,
					Line:       lineNo,
				}
				if tier, marker, ok := markedTier(lines, i); ok {
					f.Tier, f.Provenance, f.Marker = tier, ProvenanceDeclared, marker
				}
				fields = append(fields, f)
			}
		}

		if m := djangoManagerRe.FindStringSubmatch(line); m != nil {
			accessed := []string{}
			if strings.Contains(line, ".values") || strings.Contains(line, ".only") {
				accessed = quotedNames(line)
			}
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  djangoOperation(m[2]),
				Framework:  "django",
				Table:      m[1],
				Fields:     fieldsOrWildcard(accessed),
				Confidence: 0.9,
			})
		}
		if m := sqlalchemyQueryRe.FindStringSubmatch(line); m != nil {
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  OpRead,
				Framework:  "sqlalchemy",
				Table:      m[1],
				Fields:     []string{Wildcard},
				Confidence: 0.8,
			})
		}
		if m := sqlalchemyAddRe.FindStringSubmatch(line); m != nil {
			op := OpWrite
			if m[1] == "delete" {
				op = OpDelete
			}
			table := ""
			// session.add(User(...)) names the model inline
			if m[2] != "" && m[2][0] >= 'A' && m[2][0] <= 'Z' {
				table = m[2]
			}
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  op,
				Framework:  "sqlalchemy",
				Table:      table,
				Fields:     []string{Wildcard},
				Confidence: 0.7,
			})
		}
	}
	return points, fields
}

func djangoOperation(method string) Operation {
	switch method {
	case "delete":
		return OpDelete
	case "create", "get_or_create", "update_or_create", "update", "bulk_create", "bulk_update":
		return OpWrite
	default:
		return OpRead
	}
}
