// Package security ranks data-access points by exposure risk, joining call
// graph reachability from declared entry points with the sensitivity tiers
// of the data each point touches.
package security

import (
	"sort"

	"github.com/seclens/seclens/boundary"
	"github.com/seclens/seclens/callgraph"
)

// Weights parameterizes the risk formula. The formula itself is fixed and
// monotonic: risk = tierWeight / (1 + distanceDecay * distance), so a more
// sensitive tier or a shorter distance from an entry point always ranks
// higher. Unreachable access points score zero regardless of tier.
type Weights struct {
	Tier          map[boundary.Tier]float64 `yaml:"tier" json:"tier"`
	DistanceDecay float64                   `yaml:"distanceDecay" json:"distanceDecay"`
	Bands         Bands                     `yaml:"bands" json:"bands"`
}

// Bands maps risk scores to severity labels by descending threshold
type Bands struct {
	Critical float64 `yaml:"critical" json:"critical"`
	High     float64 `yaml:"high" json:"high"`
	Medium   float64 `yaml:"medium" json:"medium"`
	Low      float64 `yaml:"low" json:"low"`
}

// DefaultWeights returns the built-in risk weighting
func DefaultWeights() Weights {
	return Weights{
		Tier: map[boundary.Tier]float64{
			boundary.TierPublic:       1,
			boundary.TierInternal:     4,
			boundary.TierConfidential: 8,
			boundary.TierRestricted:   10,
		},
		DistanceDecay: 0.5,
		Bands: Bands{
			Critical: 8,
			High:     5,
			Medium:   2.5,
			Low:      0.5,
		},
	}
}

// severityFor buckets a risk score; scores below the low band, including
// every unreachable access point, are informational
func (b Bands) severityFor(risk float64) boundary.Severity {
	switch {
	case risk >= b.Critical:
		return boundary.SeverityCritical
	case risk >= b.High:
		return boundary.SeverityHigh
	case risk >= b.Medium:
		return boundary.SeverityMedium
	case risk >= b.Low:
		return boundary.SeverityLow
	}
	return boundary.SeverityInfo
}

// PrioritizedAccessPoint is one access point joined with its sensitivity and
// reachability evidence, reduced to a single risk score
type PrioritizedAccessPoint struct {
	Point     boundary.AccessPoint
	Table     string
	Field     string // the most sensitive field the point touches
	Tier      boundary.Tier
	Distance  int  // minimum edge count from an entry point, -1 when unreachable
	Reachable bool // false when no entry point reaches the enclosing function
	Risk      float64
	Severity  boundary.Severity
}

// Summary counts prioritized access points per severity band
type Summary struct {
	Counts map[boundary.Severity]int
	Total  int
}

// Prioritize ranks every access point in the map by exposure risk. An access
// point whose enclosing function cannot be located in the graph is treated
// as unreachable. The ranking is deterministic: descending risk, ties broken
// by file path then line.
func Prioritize(g *callgraph.Graph, entryPoints map[string]bool, m *boundary.Map, w Weights) ([]PrioritizedAccessPoint, Summary) {
	var out []PrioritizedAccessPoint
	for _, point := range m.AccessPoints() {
		tier, field := m.HighestTier(point.Table, point.Fields)

		item := PrioritizedAccessPoint{
			Point:    point,
			Table:    point.Table,
			Field:    field,
			Tier:     tier,
			Distance: -1,
		}
		if node := g.EnclosingNode(point.File, point.Line); node != nil {
			if distance, ok := g.Distance(entryPoints, node.ID); ok {
				item.Distance = distance
				item.Reachable = true
				item.Risk = w.Tier[tier] / (1 + w.DistanceDecay*float64(distance))
			}
		}
		item.Severity = w.Bands.severityFor(item.Risk)
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Risk != out[j].Risk {
			return out[i].Risk > out[j].Risk
		}
		if out[i].Point.File != out[j].Point.File {
			return out[i].Point.File < out[j].Point.File
		}
		return out[i].Point.Line < out[j].Point.Line
	})

	summary := Summary{Counts: map[boundary.Severity]int{}}
	for _, item := range out {
		summary.Counts[item.Severity]++
		summary.Total++
	}
	return out, summary
}
