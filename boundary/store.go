package boundary

import (
	"sort"
)

// TableInfo aggregates everything known about one table or model
type TableInfo struct {
	Name   string
	Fields map[string]*Field
	Points []AccessPoint
}

// FileSummary counts what boundary extraction found in one file
type FileSummary struct {
	Path   string
	Points int
	Fields int
}

// Map is the project-wide data-access aggregate keyed by table name. It is
// built fresh per scan and superseded entirely by the next scan.
type Map struct {
	tables    map[string]*TableInfo
	points    []AccessPoint
	summaries map[string]*FileSummary
}

// NewMap creates an empty data-access map
func NewMap() *Map {
	return &Map{
		tables:    map[string]*TableInfo{},
		summaries: map[string]*FileSummary{},
	}
}

// AddField merges a field declaration into the map. Provenance is a strict
// precedence order: declared beats learned beats default; within equal
// provenance the higher-confidence declaration wins.
func (m *Map) AddField(f Field) {
	if f.Table == "" || f.Name == "" {
		return
	}
	table := m.table(f.Table)
	existing, ok := table.Fields[f.Name]
	if !ok {
		copied := f
		table.Fields[f.Name] = &copied
		m.summary(f.File).Fields++
		return
	}
	if provenanceRank(f.Provenance) > provenanceRank(existing.Provenance) ||
		(f.Provenance == existing.Provenance && f.Confidence > existing.Confidence) {
		// keep the original declaration site, upgrade the classification
		existing.Tier = f.Tier
		existing.Provenance = f.Provenance
		existing.Confidence = f.Confidence
		if f.Marker != "" {
			existing.Marker = f.Marker
		}
		if existing.Type == "" {
			existing.Type = f.Type
		}
	}
}

// AddAccess records an access point on its table (when named) and in the
// flat project-wide list
func (m *Map) AddAccess(p AccessPoint) {
	if p.Table != "" {
		m.table(p.Table).Points = append(m.table(p.Table).Points, p)
	}
	m.points = append(m.points, p)
	m.summary(p.File).Points++
}

// FieldTier looks up the sensitivity classification of one field. Unknown
// fields report the lowest tier with default provenance.
func (m *Map) FieldTier(table, field string) (Tier, Provenance) {
	if t, ok := m.tables[table]; ok {
		if f, ok := t.Fields[field]; ok {
			return f.Tier, f.Provenance
		}
	}
	return TierPublic, ProvenanceDefault
}

// HighestTier returns the most sensitive tier among the named fields of a
// table; wildcard access considers every known field
func (m *Map) HighestTier(table string, fields []string) (Tier, string) {
	info, ok := m.tables[table]
	if !ok {
		return TierPublic, ""
	}
	best, bestField := TierPublic, ""
	consider := fields
	if len(fields) == 0 || containsWildcard(fields) {
		consider = nil
		for name := range info.Fields {
			consider = append(consider, name)
		}
		sort.Strings(consider)
	}
	for _, name := range consider {
		if f, ok := info.Fields[name]; ok && f.Tier.Rank() > best.Rank() {
			best, bestField = f.Tier, name
		}
	}
	return best, bestField
}

// Table returns the aggregate for one table, nil when unknown
func (m *Map) Table(name string) *TableInfo {
	return m.tables[name]
}

// Tables returns all table aggregates sorted by name
func (m *Map) Tables() []*TableInfo {
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*TableInfo, 0, len(names))
	for _, name := range names {
		out = append(out, m.tables[name])
	}
	return out
}

// AccessPoints returns every recorded access point sorted by file then line
func (m *Map) AccessPoints() []AccessPoint {
	out := append([]AccessPoint{}, m.points...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// Fields returns every known field sorted by table then name
func (m *Map) Fields() []*Field {
	var out []*Field
	for _, table := range m.Tables() {
		names := make([]string, 0, len(table.Fields))
		for name := range table.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, table.Fields[name])
		}
	}
	return out
}

// Summaries returns per-file counts sorted by path
func (m *Map) Summaries() []FileSummary {
	paths := make([]string, 0, len(m.summaries))
	for path := range m.summaries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	out := make([]FileSummary, 0, len(paths))
	for _, path := range paths {
		out = append(out, *m.summaries[path])
	}
	return out
}

func (m *Map) table(name string) *TableInfo {
	t, ok := m.tables[name]
	if !ok {
		t = &TableInfo{Name: name, Fields: map[string]*Field{}}
		m.tables[name] = t
	}
	return t
}

func (m *Map) summary(path string) *FileSummary {
	s, ok := m.summaries[path]
	if !ok {
		s = &FileSummary{Path: path}
		m.summaries[path] = s
	}
	return s
}

func provenanceRank(p Provenance) int {
	switch p {
	case ProvenanceDeclared:
		return 2
	case ProvenanceLearned:
		return 1
	}
	return 0
}

func containsWildcard(fields []string) bool {
	for _, f := range fields {
		if f == Wildcard {
			return true
		}
	}
	return false
}
