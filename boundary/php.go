package boundary

import (
	"regexp"
	"strings"

	"github.com/seclens/seclens/extractor/facts"
)

// PHPExtractor recognizes Laravel Eloquent model declarations, static model
// calls and the DB facade query builder
type PHPExtractor struct{}

// NewPHPExtractor creates the PHP boundary extractor
func NewPHPExtractor() *PHPExtractor {
	return &PHPExtractor{}
}

func (e *PHPExtractor) Name() string             { return "php-eloquent" }
func (e *PHPExtractor) Language() facts.Language { return facts.LangPHP }

var (
	eloquentModelRe = regexp.MustCompile(`\bclass\s+(\w+)\s+extends\s+(?:Model|Authenticatable)\b`)
	eloquentListRe  = regexp.MustCompile(`(?:protected|public)\s+(?:array\s+)?\$(fillable|hidden|casts|guarded)\s*=\s*\[`)

	// User::where('ssn', ...)->get()
	eloquentStaticRe = regexp.MustCompile(`\b([A-Z]\w*)::` +
		`(where|find|findOrFail|all|first|firstWhere|get|pluck|create|updateOrCreate|firstOrCreate|insert|destroy|query)\s*\(`)

	// DB::table('users')->select('ssn')->get()
	dbTableRe  = regexp.MustCompile(`\bDB::table\(\s*['"](\w+)['"]\s*\)`)
	dbDirectRe = regexp.MustCompile(`\bDB::(select|insert|update|delete|statement)\s*\(`)
)

func (e *PHPExtractor) Extract(src []byte, file *facts.FileResult) ([]AccessPoint, []Field) {
	lines := sourceLines(src)
	var points []AccessPoint
	var fields []Field

	model := ""
	depth := 0
	opened := false
	listOpen := false // inside a $fillable/$hidden array literal

	for i, line := range lines {
		lineNo := i + 1

		if m := eloquentModelRe.FindStringSubmatch(line); m != nil {
			model = m[1]
			depth = 0
			opened = false
		}
		if model != "" {
			if strings.Contains(line, "{") {
				opened = true
			}
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if eloquentListRe.MatchString(line) {
				listOpen = true
			}
			if listOpen {
				for _, name := range quotedNames(line) {
					f := Field{
						Table:      model,
						Name:       name,
						Tier:       TierPublic,
						Provenance: ProvenanceDefault,
						Confidence: 0.8,
						Line:       lineNo,
					}
					if tier, marker, ok := markedTier(lines, i); ok {
						f.Tier, f.Provenance, f.Marker = tier, ProvenanceDeclared, marker
					}
					fields = append(fields, f)
				}
				if strings.Contains(line, "]") {
					listOpen = false
				}
			}
			if opened && depth <= 0 {
				model = ""
				listOpen = false
			}
		}

		if m := eloquentStaticRe.FindStringSubmatch(line); m != nil && m[1] != "DB" {
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  eloquentOperation(m[2]),
				Framework:  "eloquent",
				Table:      m[1],
				Fields:     []string{Wildcard},
				Confidence: 0.8,
			})
		}
		if m := dbTableRe.FindStringSubmatch(line); m != nil {
			accessed := []string{}
			if idx := strings.Index(line, "select("); idx >= 0 {
				accessed = quotedNames(line[idx:])
			}
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  builderOperation(line),
				Framework:  "laravel-db",
				Table:      m[1],
				Fields:     fieldsOrWildcard(accessed),
				Confidence: 0.8,
			})
		} else if dbDirectRe.MatchString(line) {
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  OpRawSQL,
				Framework:  "laravel-db",
				Fields:     []string{Wildcard},
				Confidence: 0.7,
			})
		}
	}
	return points, fields
}

func eloquentOperation(method string) Operation {
	switch method {
	case "create", "updateOrCreate", "firstOrCreate", "insert":
		return OpWrite
	case "destroy":
		return OpDelete
	default:
		return OpRead
	}
}

// builderOperation classifies a DB::table chain by its terminal verb
func builderOperation(line string) Operation {
	switch {
	case strings.Contains(line, "->insert("), strings.Contains(line, "->update("),
		strings.Contains(line, "->upsert("):
		return OpWrite
	case strings.Contains(line, "->delete("), strings.Contains(line, "->truncate("):
		return OpDelete
	default:
		return OpRead
	}
}
