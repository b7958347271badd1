package boundary

import (
	"regexp"
	"strings"

	"github.com/seclens/seclens/extractor/facts"
)

// RawSQLExtractor is the language-agnostic safety net: it spots SQL verbs
// inside string literals, which catches dynamically built queries that the
// framework-specific extractors miss. String matching cannot see how the
// literal is used, so these points carry low confidence.
type RawSQLExtractor struct{}

// NewRawSQLExtractor creates the raw-SQL extractor
func NewRawSQLExtractor() *RawSQLExtractor {
	return &RawSQLExtractor{}
}

func (e *RawSQLExtractor) Name() string             { return "raw-sql" }
func (e *RawSQLExtractor) Language() facts.Language { return "" }

var (
	rawSQLRe = regexp.MustCompile("['\"`]\\s*(?i:(SELECT|INSERT|UPDATE|DELETE))\\b([^'\"`]*)")

	sqlFromRe   = regexp.MustCompile(`(?i)\bFROM\s+` + "`?" + `(\w+)`)
	sqlIntoRe   = regexp.MustCompile(`(?i)\bINTO\s+` + "`?" + `(\w+)`)
	sqlUpdateRe = regexp.MustCompile(`(?i)^\s*` + "`?" + `(\w+)`)
)

func (e *RawSQLExtractor) Extract(src []byte, file *facts.FileResult) ([]AccessPoint, []Field) {
	var points []AccessPoint
	for i, line := range sourceLines(src) {
		m := rawSQLRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		verb := strings.ToUpper(m[1])
		rest := m[2]

		table := ""
		var accessed []string
		switch verb {
		case "SELECT":
			table = firstGroup(sqlFromRe, rest)
			accessed = selectColumns(rest)
		case "INSERT":
			table = firstGroup(sqlIntoRe, rest)
		case "UPDATE":
			table = firstGroup(sqlUpdateRe, rest)
		case "DELETE":
			table = firstGroup(sqlFromRe, rest)
		}

		points = append(points, AccessPoint{
			Line:       i + 1,
			Operation:  OpRawSQL,
			Framework:  "raw-sql",
			Table:      table,
			Fields:     fieldsOrWildcard(accessed),
			Confidence: 0.5,
		})
	}
	return points, nil
}

// selectColumns parses the column list between SELECT and FROM; a star or an
// unparseable expression list yields whole-row access
func selectColumns(rest string) []string {
	end := len(rest)
	if m := sqlFromRe.FindStringIndex(rest); m != nil {
		end = m[0]
	}
	var out []string
	for _, part := range strings.Split(rest[:end], ",") {
		col := strings.TrimSpace(part)
		col = strings.Trim(col, "`\"")
		if col == "" || col == "*" {
			return nil
		}
		// strip a table qualifier, u.ssn -> ssn
		if idx := strings.LastIndex(col, "."); idx >= 0 {
			col = col[idx+1:]
		}
		if !isIdentifier(col) {
			return nil
		}
		out = append(out, col)
	}
	return out
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return false
		}
	}
	return true
}
