package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type intV int

func (a intV) Less(other any) bool { return a < other.(intV) }

func TestTopologicalSortAcyclic(t *testing.T) {
	g := New[intV]()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(1, 3)

	require.True(t, g.IsAcyclic())
	order, ok := g.TopologicalSort()
	require.True(t, ok)
	require.Equal(t, []intV{1, 2, 3}, order)
}

func TestFindCycleEdge(t *testing.T) {
	g := New[intV]()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 1)

	require.False(t, g.IsAcyclic())
	e, ok := g.FindCycleEdge()
	require.True(t, ok)
	require.Contains(t, []Edge[intV]{{1, 2}, {2, 3}, {3, 1}}, e)
}

func TestClosure(t *testing.T) {
	g := New[intV]()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)

	closed, changed := g.ClosureWithChange()
	require.True(t, changed)
	require.True(t, closed.HasEdge(1, 3))
	require.True(t, closed.HasEdge(1, 2))
	require.True(t, closed.HasEdge(2, 3))

	_, changedAgain := closed.ClosureWithChange()
	require.False(t, changedAgain)
}

func TestIncrementalClosure(t *testing.T) {
	g := New[intV]()
	g.AddEdge(1, 2)
	g.AddEdge(3, 4)
	closed := g.Closure()

	added := closed.IncrementalClosure([]Edge[intV]{{2, 3}})
	require.NotEmpty(t, added)
	require.True(t, closed.HasEdge(1, 4))
	require.True(t, closed.HasEdge(2, 4))
	require.True(t, closed.HasEdge(1, 3))
}

func TestUnionAndToEdgeList(t *testing.T) {
	a := New[intV]()
	a.AddEdge(1, 2)
	b := New[intV]()
	b.AddEdge(2, 3)

	a.Union(b)
	require.ElementsMatch(t, []Edge[intV]{{1, 2}, {2, 3}}, a.ToEdgeList())
}
