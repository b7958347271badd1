package callgraph

// ForwardReachable returns the set of node ids reachable from the given node
// by following resolved and ambiguous edges. maxDepth caps traversal depth;
// zero or negative means unbounded. The start node itself is not included.
func (g *Graph) ForwardReachable(id string, maxDepth int) (map[string]bool, error) {
	return g.reachable(id, maxDepth, g.outgoing, func(e *CallEdge) string { return e.Target })
}

// BackwardReachable returns the set of node ids from which the given node is
// reachable. maxDepth caps traversal depth; zero or negative means unbounded.
func (g *Graph) BackwardReachable(id string, maxDepth int) (map[string]bool, error) {
	return g.reachable(id, maxDepth, g.incoming, func(e *CallEdge) string { return e.Source })
}

// reachable is a breadth-first traversal with visited tracking: each node is
// enqueued at most once, so cycles terminate and edge multiplicity does not
// inflate the result
func (g *Graph) reachable(id string, maxDepth int, adjacency map[string][]*CallEdge,
	next func(*CallEdge) string) (map[string]bool, error) {

	if _, ok := g.nodes[id]; !ok {
		return nil, ErrUnknownNode
	}

	visited := map[string]bool{id: true}
	result := map[string]bool{}

	type item struct {
		id    string
		depth int
	}
	queue := []item{{id: id}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if maxDepth > 0 && current.depth >= maxDepth {
			continue
		}
		for _, edge := range adjacency[current.id] {
			if !g.traversable(edge) {
				continue
			}
			neighbor := next(edge)
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			result[neighbor] = true
			queue = append(queue, item{id: neighbor, depth: current.depth + 1})
		}
	}
	return result, nil
}

// Distance returns the minimum edge count from any of the given source nodes
// to the target, following resolved edges backward from the target. The
// second result is false when no source reaches the target. A target that is
// itself a source has distance zero.
func (g *Graph) Distance(sources map[string]bool, target string) (int, bool) {
	if _, ok := g.nodes[target]; !ok {
		return 0, false
	}
	if sources[target] {
		return 0, true
	}

	visited := map[string]bool{target: true}
	type item struct {
		id    string
		depth int
	}
	queue := []item{{id: target}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, edge := range g.incoming[current.id] {
			if !g.traversable(edge) {
				continue
			}
			caller := edge.Source
			if visited[caller] {
				continue
			}
			visited[caller] = true
			if sources[caller] {
				return current.depth + 1, true
			}
			queue = append(queue, item{id: caller, depth: current.depth + 1})
		}
	}
	return 0, false
}
