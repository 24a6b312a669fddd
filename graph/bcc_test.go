package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBCCArticulationPoint(t *testing.T) {
	// Two triangles sharing vertex 3: 3 is an articulation point, and the
	// graph splits into exactly two biconnected components.
	g := NewUndirected[intV]()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 1)
	g.AddEdge(3, 4)
	g.AddEdge(4, 5)
	g.AddEdge(5, 3)

	res := BCC(g)
	require.Len(t, res.Components, 2)
	require.True(t, res.ArticulationPoints[intV(3)])
	require.False(t, res.ArticulationPoints[intV(1)])
}

func TestBCCNoArticulation(t *testing.T) {
	g := NewUndirected[intV]()
	g.AddEdge(1, 2)
	g.AddEdge(2, 3)
	g.AddEdge(3, 1)

	res := BCC(g)
	require.Len(t, res.Components, 1)
	require.Empty(t, res.ArticulationPoints)
}
