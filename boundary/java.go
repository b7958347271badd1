package boundary

import (
	"regexp"
	"strings"

	"github.com/seclens/seclens/extractor/facts"
)

// JavaExtractor recognizes JPA entity declarations, Spring Data repository
// calls and EntityManager operations
type JavaExtractor struct{}

// NewJavaExtractor creates the Java boundary extractor
func NewJavaExtractor() *JavaExtractor {
	return &JavaExtractor{}
}

func (e *JavaExtractor) Name() string             { return "java-jpa" }
func (e *JavaExtractor) Language() facts.Language { return facts.LangJava }

var (
	jpaEntityRe = regexp.MustCompile(`@Entity\b`)
	jpaTableRe  = regexp.MustCompile(`@Table\s*\(\s*name\s*=\s*"(\w+)"`)
	jpaClassRe  = regexp.MustCompile(`\bclass\s+(\w+)`)
	jpaFieldRe  = regexp.MustCompile(`^\s*(?:private|protected|public)\s+(?:final\s+)?([\w.<>,\[\] ]+?)\s+(\w+)\s*(?:=[^;]*)?;`)

	// userRepository.findBySsn(...), repo.save(user)
	springRepoRe = regexp.MustCompile(`\b(\w*[Rr]epository)\.(\w+)\s*\(`)

	entityManagerRe = regexp.MustCompile(`\bentityManager\.(persist|merge|remove|find|getReference)\(\s*(\w*)`)
)

func (e *JavaExtractor) Extract(src []byte, file *facts.FileResult) ([]AccessPoint, []Field) {
	lines := sourceLines(src)
	var points []AccessPoint
	var fields []Field

	entity := ""
	tableName := ""
	pendingEntity := false
	depth := 0
	opened := false

	for i, line := range lines {
		lineNo := i + 1

		if jpaEntityRe.MatchString(line) {
			pendingEntity = true
			tableName = ""
		}
		if pendingEntity {
			if m := jpaTableRe.FindStringSubmatch(line); m != nil {
				tableName = m[1]
			}
			if m := jpaClassRe.FindStringSubmatch(line); m != nil {
				entity = m[1]
				if tableName != "" {
					entity = tableName
				}
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
			if m := jpaFieldRe.FindStringSubmatch(line); m != nil {
				f := Field{
					Table:      entity,
					Name:       m[2],
					Type:       strings.TrimSpace(m[1]),
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
			if opened && depth <= 0 {
				entity = ""
			}
		}

		if m := springRepoRe.FindStringSubmatch(line); m != nil {
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  repositoryOperation(m[2]),
				Framework:  "spring-data",
				Table:      repositoryEntity(m[1]),
				Fields:     []string{Wildcard},
				Confidence: 0.8,
			})
		}
		if m := entityManagerRe.FindStringSubmatch(line); m != nil {
			op := OpWrite
			switch m[1] {
			case "remove":
				op = OpDelete
			case "find", "getReference":
				op = OpRead
			}
			table := ""
			// entityManager.find(User.class, id) names the entity inline
			if m[2] != "" && m[2][0] >= 'A' && m[2][0] <= 'Z' {
				table = m[2]
			}
			points = append(points, AccessPoint{
				Line:       lineNo,
				Operation:  op,
				Framework:  "jpa",
				Table:      table,
				Fields:     []string{Wildcard},
				Confidence: 0.8,
			})
		}
	}
	return points, fields
}

// repositoryEntity derives the entity name from a repository variable name,
// userRepository -> User
func repositoryEntity(name string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(name, "Repository"), "repository")
	if base == "" {
		return ""
	}
	return capitalize(base)
}
