package graph

import "github.com/tidwall/btree"

// Undirected is a vertex-indexed adjacency-set undirected graph, used for
// the communication-graph decomposition (spec.md §4.6).
type Undirected[V Ordered] struct {
	vertices btree.Set[V]
	adj      *btree.Map[V, *btree.Set[V]]
}

// NewUndirected returns an empty undirected graph.
func NewUndirected[V Ordered]() *Undirected[V] {
	less := byLess[V]
	return &Undirected[V]{
		vertices: *btree.NewSet(less),
		adj:      btree.NewMap[V, *btree.Set[V]](0, less),
	}
}

// AddVertex inserts v if absent.
func (g *Undirected[V]) AddVertex(v V) {
	if g.vertices.Contains(v) {
		return
	}
	g.vertices.Insert(v)
	g.adj.Set(v, btree.NewSet(byLess[V]))
}

// AddEdge inserts the undirected edge {u, v}.
func (g *Undirected[V]) AddEdge(u, v V) {
	if u == v {
		return
	}
	g.AddVertex(u)
	g.AddVertex(v)
	au, _ := g.adj.Get(u)
	au.Insert(v)
	av, _ := g.adj.Get(v)
	av.Insert(u)
}

// HasEdge reports whether {u,v} is present.
func (g *Undirected[V]) HasEdge(u, v V) bool {
	au, ok := g.adj.Get(u)
	if !ok {
		return false
	}
	return au.Contains(v)
}

// Vertices returns all vertices in sorted order.
func (g *Undirected[V]) Vertices() []V {
	out := make([]V, 0, g.vertices.Len())
	iter := g.vertices.Iter()
	for ok := iter.First(); ok; ok = iter.Next() {
		out = append(out, iter.Key())
	}
	return out
}

// Neighbors returns the neighbors of v in sorted order.
func (g *Undirected[V]) Neighbors(v V) []V {
	return setSlice(g.adj, v)
}

// NumVertices returns the vertex count.
func (g *Undirected[V]) NumVertices() int {
	return g.vertices.Len()
}
