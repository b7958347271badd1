package boundary

import (
	"regexp"
	"strings"

	"github.com/seclens/seclens/extractor/facts"
)

// TypeScriptExtractor recognizes the Prisma client call convention and
// TypeORM entity declarations
type TypeScriptExtractor struct{}

// NewTypeScriptExtractor creates the TypeScript boundary extractor
func NewTypeScriptExtractor() *TypeScriptExtractor {
	return &TypeScriptExtractor{}
}

func (e *TypeScriptExtractor) Name() string             { return "typescript-orm" }
func (e *TypeScriptExtractor) Language() facts.Language { return facts.LangTypeScript }

var (
	// prisma.user.findMany({ select: { ssn: true } })
	prismaCallRe = regexp.MustCompile(`\bprisma\.(\w+)\.` +
		`(findMany|findUnique|findUniqueOrThrow|findFirst|findFirstOrThrow|count|aggregate|groupBy|` +
		`create|createMany|update|updateMany|upsert|delete|deleteMany)\s*\(`)
	prismaSelectRe = regexp.MustCompile(`(?:select|data)\s*:\s*\{([^}]*)\}`)

	// getRepository(User).find(...) and injected repository.save(...)
	typeormRepoRe   = regexp.MustCompile(`getRepository\(\s*(\w+)\s*\)\s*\.(\w+)\s*\(`)
	typeormEntityRe = regexp.MustCompile(`@Entity\b`)
	typeormClassRe  = regexp.MustCompile(`\bclass\s+(\w+)`)
	typeormColumnRe = regexp.MustCompile(`@(?:Primary(?:Generated)?Column|Column|CreateDateColumn|UpdateDateColumn)\b`)
	typeormFieldRe  = regexp.MustCompile(`^\s*(?:readonly\s+)?(\w+)[?!]?\s*:\s*([\w<>\[\]| ]+?)\s*;?\s*$`)
)

func (e *TypeScriptExtractor) Extract(src []byte, file *facts.FileResult) ([]AccessPoint, []Field) {
	lines := sourceLines(src)
	var points []AccessPoint
	var fields []Field

	entity := "" // current @Entity class, empty outside one
	pendingEntity := false
	pendingColumn := false
	depth := 0
	opened := false

	for i, line := range lines {
		lineNo := i + 1

		if m := prismaCallRe.FindStringSubmatch(line); m != nil {
			accessed := selectedKeys(firstGroup(prismaSelectRe, line))
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  prismaOperation(m[2]),
				Framework:  "prisma",
				Table:      capitalize(m[1]),
				Fields:     fieldsOrWildcard(accessed),
				Confidence: 0.9,
			})
		}
		if m := typeormRepoRe.FindStringSubmatch(line); m != nil {
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  repositoryOperation(m[2]),
				Framework:  "typeorm",
				Table:      m[1],
				Fields:     []string{Wildcard},
				Confidence: 0.8,
			})
		}

		if typeormEntityRe.MatchString(line) {
			pendingEntity = true
		}
		if pendingEntity {
			if m := typeormClassRe.FindStringSubmatch(line); m != nil {
				entity = m[1]
				pendingEntity = false
				depth = 0
				opened = false
			}
		}
		if entity != "" {
			if strings.Contains(line, "{") {
				opened = true
			}
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if typeormColumnRe.MatchString(line) {
				pendingColumn = true
				continue
			}
			if pendingColumn {
				if m := typeormFieldRe.FindStringSubmatch(line); m != nil {
					f := Field{
						Table:      entity,
						Name:       m[1],
						Type:       strings.TrimSpace(m[2]),
						Tier:       TierPublic,
						Provenance: ProvenanceDefault,
						Confidence: 0.9,
						Line:       lineNo,
					}
					if tier, marker, ok := markedTier(lines, i); ok {
						f.Tier, f.Provenance, f.Marker = tier, ProvenanceDeclared, marker
					}
					fields = append(fields, f)
					pendingColumn = false
				}
			}
			if opened && depth <= 0 {
				entity = ""
				pendingColumn = false
			}
		}
	}
	return points, fields
}

func prismaOperation(method string) Operation {
	switch {
	case strings.HasPrefix(method, "find"), method == "count",
		method == "aggregate", method == "groupBy":
		return OpRead
	case strings.HasPrefix(method, "delete"):
		return OpDelete
	default:
		return OpWrite
	}
}

// repositoryOperation classifies generic repository method names shared by
// TypeORM and Spring Data style repositories
func repositoryOperation(method string) Operation {
	lower := strings.ToLower(method)
	switch {
	case strings.HasPrefix(lower, "find"), strings.HasPrefix(lower, "get"),
		strings.HasPrefix(lower, "count"), strings.HasPrefix(lower, "exists"):
		return OpRead
	case strings.HasPrefix(lower, "delete"), strings.HasPrefix(lower, "remove"),
		strings.HasPrefix(lower, "destroy"):
		return OpDelete
	case strings.HasPrefix(lower, "save"), strings.HasPrefix(lower, "insert"),
		strings.HasPrefix(lower, "create"), strings.HasPrefix(lower, "update"),
		strings.HasPrefix(lower, "upsert"), strings.HasPrefix(lower, "persist"),
		strings.HasPrefix(lower, "merge"), strings.HasPrefix(lower, "add"):
		return OpWrite
	default:
		return OpQuery
	}
}

func firstGroup(re *regexp.Regexp, line string) string {
	if m := re.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}
