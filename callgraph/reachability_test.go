package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seclens/seclens/extractor/facts"
)

// chainGraph builds main -> serviceCall -> repoCall, plus an isolated deadCode
func chainGraph(t *testing.T) (*Graph, map[string]string) {
	t.Helper()
	b := NewBuilder()
	b.AddFile(fileResult("src/app.ts",
		[]facts.Function{
			fn("main", "main", "", 1, 10),
			fn("serviceCall", "serviceCall", "", 12, 20),
			fn("repoCall", "repoCall", "", 22, 30),
			fn("deadCode", "deadCode", "", 32, 40),
		},
		[]facts.Call{
			{Caller: "main", Callee: "serviceCall", Line: 3},
			{Caller: "serviceCall", Callee: "repoCall", Line: 14},
			{Caller: "deadCode", Callee: "missing", Line: 34},
		},
		nil,
	))
	g := b.Graph()

	ids := map[string]string{}
	for _, name := range []string{"main", "serviceCall", "repoCall", "deadCode"} {
		found := g.Lookup(name)
		require.Len(t, found, 1, name)
		ids[name] = found[0]
	}
	return g, ids
}

func TestForwardReachable(t *testing.T) {
	g, ids := chainGraph(t)

	reachable, err := g.ForwardReachable(ids["main"], 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		ids["serviceCall"]: true,
		ids["repoCall"]:    true,
	}, reachable)

	// depth cap stops the traversal early
	capped, err := g.ForwardReachable(ids["main"], 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{ids["serviceCall"]: true}, capped)

	// unresolved edges are never traversed
	dead, err := g.ForwardReachable(ids["deadCode"], 0)
	require.NoError(t, err)
	assert.Empty(t, dead)
}

func TestBackwardReachable(t *testing.T) {
	g, ids := chainGraph(t)

	reachable, err := g.BackwardReachable(ids["repoCall"], 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		ids["serviceCall"]: true,
		ids["main"]:        true,
	}, reachable)

	none, err := g.BackwardReachable(ids["deadCode"], 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReachable_UnknownNode(t *testing.T) {
	g, _ := chainGraph(t)

	_, err := g.ForwardReachable("0000000000000000", 0)
	assert.ErrorIs(t, err, ErrUnknownNode)
	_, err = g.BackwardReachable("0000000000000000", 0)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestReachable_CycleTerminates(t *testing.T) {
	b := NewBuilder()
	b.AddFile(fileResult("src/cycle.ts",
		[]facts.Function{
			fn("ping", "ping", "", 1, 5),
			fn("pong", "pong", "", 7, 11),
		},
		[]facts.Call{
			{Caller: "ping", Callee: "pong", Line: 2},
			{Caller: "pong", Callee: "ping", Line: 8},
		},
		nil,
	))
	g := b.Graph()
	ping := g.Lookup("ping")
	require.Len(t, ping, 1)

	reachable, err := g.ForwardReachable(ping[0], 0)
	require.NoError(t, err)
	// terminates despite the cycle; the start node itself is excluded
	assert.Equal(t, map[string]bool{g.Lookup("pong")[0]: true}, reachable)
}

func TestDistance(t *testing.T) {
	g, ids := chainGraph(t)
	entries := map[string]bool{ids["main"]: true}

	d, ok := g.Distance(entries, ids["repoCall"])
	assert.True(t, ok)
	assert.Equal(t, 2, d)

	d, ok = g.Distance(entries, ids["serviceCall"])
	assert.True(t, ok)
	assert.Equal(t, 1, d)

	// an entry point is at distance zero from itself
	d, ok = g.Distance(entries, ids["main"])
	assert.True(t, ok)
	assert.Equal(t, 0, d)

	_, ok = g.Distance(entries, ids["deadCode"])
	assert.False(t, ok)

	_, ok = g.Distance(entries, "0000000000000000")
	assert.False(t, ok)
}
