// Package callgraph assembles per-file extraction results into a directed
// graph of functions and call edges and answers reachability and path
// queries over it.
package callgraph

import (
	"errors"
	"sort"

	"github.com/seclens/seclens/extractor/facts"
)

// ErrUnknownNode is returned by queries for a node id that was never
// registered, which indicates a caller bug rather than an empty result
var ErrUnknownNode = errors.New("unknown node id")

// Confidence classifies how a call edge's target was resolved
type Confidence string

const (
	Resolved   Confidence = "resolved"
	Ambiguous  Confidence = "ambiguous"
	Unresolved Confidence = "unresolved"
)

// FunctionNode is one discovered function or method
type FunctionNode struct {
	ID            string
	Name          string
	QualifiedName string
	File          string
	StartLine     int
	EndLine       int
	Parameters    []facts.Parameter
	Annotations   []string
	IsConstructor bool
	IsEntryPoint  bool
	Language      facts.Language
}

// CallEdge is a directed edge from a caller to a resolved or unresolved
// callee. Uniqueness is per call site: the same pair may be connected by
// multiple edges at different lines.
type CallEdge struct {
	Source     string // caller node id
	Target     string // callee node id, empty when unresolved
	TargetName string // callee as written, kept for diagnostics
	Line       int
	Confidence Confidence
}

// Stats summarizes graph completeness
type Stats struct {
	Nodes      int
	Resolved   int
	Ambiguous  int
	Unresolved int
	Skipped    int // malformed extraction entries dropped during build
}

// Graph is an immutable call graph built once from all edges
type Graph struct {
	nodes    map[string]*FunctionNode
	order    []string // node ids sorted by (file, start line) for determinism
	edges    []*CallEdge
	outgoing map[string][]*CallEdge
	incoming map[string][]*CallEdge
	skipped  int
}

func newGraph(nodes map[string]*FunctionNode, edges []*CallEdge, skipped int) *Graph {
	g := &Graph{
		nodes:    nodes,
		edges:    edges,
		outgoing: map[string][]*CallEdge{},
		incoming: map[string][]*CallEdge{},
		skipped:  skipped,
	}
	for id := range nodes {
		g.order = append(g.order, id)
	}
	sort.Slice(g.order, func(i, j int) bool {
		a, b := nodes[g.order[i]], nodes[g.order[j]]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return a.QualifiedName < b.QualifiedName
	})
	for _, edge := range edges {
		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], edge)
		if edge.Target != "" {
			g.incoming[edge.Target] = append(g.incoming[edge.Target], edge)
		}
	}
	return g
}

// Node returns the node with the given id, nil if absent
func (g *Graph) Node(id string) *FunctionNode {
	return g.nodes[id]
}

// Nodes returns all nodes in deterministic (file, line) order
func (g *Graph) Nodes() []*FunctionNode {
	out := make([]*FunctionNode, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges, including ambiguous and unresolved ones
func (g *Graph) Edges() []*CallEdge {
	return g.edges
}

// Outgoing returns edges whose source is the given node
func (g *Graph) Outgoing(id string) []*CallEdge {
	return g.outgoing[id]
}

// Incoming returns edges whose resolved target is the given node
func (g *Graph) Incoming(id string) []*CallEdge {
	return g.incoming[id]
}

// EnclosingNode returns the innermost function whose span contains the given
// file and line, nil when the location is outside any known function
func (g *Graph) EnclosingNode(file string, line int) *FunctionNode {
	var best *FunctionNode
	for _, id := range g.order {
		node := g.nodes[id]
		if node.File != file || node.StartLine > line || node.EndLine < line {
			continue
		}
		if best == nil || node.StartLine > best.StartLine {
			best = node
		}
	}
	return best
}

// Lookup returns node ids whose name or qualified name matches
func (g *Graph) Lookup(name string) []string {
	var out []string
	for _, id := range g.order {
		node := g.nodes[id]
		if node.Name == name || node.QualifiedName == name {
			out = append(out, id)
		}
	}
	return out
}

// Stats reports node and edge counts by resolution confidence
func (g *Graph) Stats() Stats {
	s := Stats{Nodes: len(g.nodes), Skipped: g.skipped}
	for _, edge := range g.edges {
		switch edge.Confidence {
		case Resolved:
			s.Resolved++
		case Ambiguous:
			s.Ambiguous++
		default:
			s.Unresolved++
		}
	}
	return s
}

// traversable reports whether an edge participates in graph traversal:
// only edges with a resolved or ambiguous target that exists as a node
func (g *Graph) traversable(edge *CallEdge) bool {
	if edge.Target == "" {
		return false
	}
	_, ok := g.nodes[edge.Target]
	return ok
}
