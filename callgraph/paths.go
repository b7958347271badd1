package callgraph

// Path is an ordered call chain between two nodes
type Path struct {
	Nodes []string    // node ids, source first
	Edges []*CallEdge // edges taken, len(Nodes)-1 entries
}

// Lines returns the call-site line of each edge on the path
func (p Path) Lines() []int {
	out := make([]int, 0, len(p.Edges))
	for _, edge := range p.Edges {
		out = append(out, edge.Line)
	}
	return out
}

// Len returns the path length in edges
func (p Path) Len() int {
	return len(p.Edges)
}

// PathOptions bounds path enumeration
type PathOptions struct {
	MaxDepth int // maximum path length in edges, default 25
	MaxPaths int // maximum number of paths returned, default 10
}

const (
	defaultMaxDepth = 25
	defaultMaxPaths = 10
)

// FindPaths enumerates call paths from one node to another by breadth-first
// search, so the first returned path is shortest by edge count. Nodes never
// repeat within a single path, which keeps cyclic graphs terminating.
// An empty list means no path exists within the bounds; an unknown id is a
// caller bug and returns ErrUnknownNode.
func (g *Graph) FindPaths(from, to string, opts PathOptions) ([]Path, error) {
	if _, ok := g.nodes[from]; !ok {
		return nil, ErrUnknownNode
	}
	if _, ok := g.nodes[to]; !ok {
		return nil, ErrUnknownNode
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	maxPaths := opts.MaxPaths
	if maxPaths <= 0 {
		maxPaths = defaultMaxPaths
	}

	var found []Path
	queue := []Path{{Nodes: []string{from}}}

	for len(queue) > 0 && len(found) < maxPaths {
		current := queue[0]
		queue = queue[1:]
		tail := current.Nodes[len(current.Nodes)-1]

		if tail == to && current.Len() > 0 {
			found = append(found, current)
			continue
		}
		if current.Len() >= maxDepth {
			continue
		}
		for _, edge := range g.outgoing[tail] {
			if !g.traversable(edge) {
				continue
			}
			if containsNode(current.Nodes, edge.Target) {
				continue
			}
			next := Path{
				Nodes: append(append([]string{}, current.Nodes...), edge.Target),
				Edges: append(append([]*CallEdge{}, current.Edges...), edge),
			}
			queue = append(queue, next)
		}
	}
	return found, nil
}

// CriticalPath returns, among the discovered paths between two nodes, the one
// maximizing the summed edge weight. The second result is false when no path
// exists.
func (g *Graph) CriticalPath(from, to string, weight func(*CallEdge) float64) (Path, bool, error) {
	paths, err := g.FindPaths(from, to, PathOptions{MaxPaths: 32})
	if err != nil {
		return Path{}, false, err
	}
	if len(paths) == 0 {
		return Path{}, false, nil
	}
	best := paths[0]
	bestWeight := pathWeight(best, weight)
	for _, candidate := range paths[1:] {
		if w := pathWeight(candidate, weight); w > bestWeight {
			best, bestWeight = candidate, w
		}
	}
	return best, true, nil
}

func pathWeight(p Path, weight func(*CallEdge) float64) float64 {
	total := 0.0
	for _, edge := range p.Edges {
		total += weight(edge)
	}
	return total
}

func containsNode(nodes []string, id string) bool {
	for _, node := range nodes {
		if node == id {
			return true
		}
	}
	return false
}
