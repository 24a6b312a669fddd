// Package graph implements the adjacency-map digraph and undirected graph
// types that back the rest of isocheck: closure, incremental closure,
// topological sort, cycle-edge detection, and biconnected-component
// extraction.
//
// Vertex sets and adjacency lists are kept in tidwall/btree ordered
// containers throughout, following the teacher's own use of btree.Map and
// btree.Set for its transaction table and read/write sets. This buys the
// determinism spec.md demands: "iteration over sets is always sorted."
package graph

import (
	"github.com/tidwall/btree"
)

// Ordered is the constraint every vertex type in this package must satisfy.
type Ordered interface {
	comparable
	Less(other any) bool
}

// byLess adapts a Less-based ordering into the comparator btree wants.
func byLess[V Ordered](a, b V) bool {
	return a.Less(b)
}

// Edge is a single directed edge, used for flattened listings and witness
// serialization.
type Edge[V Ordered] struct {
	From V
	To   V
}

// DiGraph is an adjacency-map digraph: a vertex set plus, for each vertex,
// its out-neighborhood as an ordered set.
type DiGraph[V Ordered] struct {
	vertices btree.Set[V]
	out      *btree.Map[V, *btree.Set[V]]
	// in is a reverse-adjacency index, maintained alongside out so that
	// incremental_closure does not need repeated O(V·E) reverse scans.
	in *btree.Map[V, *btree.Set[V]]
}

// New returns an empty digraph.
func New[V Ordered]() *DiGraph[V] {
	less := byLess[V]
	return &DiGraph[V]{
		vertices: *btree.NewSet(less),
		out:      btree.NewMap[V, *btree.Set[V]](0, less),
		in:       btree.NewMap[V, *btree.Set[V]](0, less),
	}
}

func (g *DiGraph[V]) neighborSet() *btree.Set[V] {
	s := btree.NewSet(byLess[V])
	return s
}

// AddVertex inserts v if absent. Idempotent.
func (g *DiGraph[V]) AddVertex(v V) {
	if g.vertices.Contains(v) {
		return
	}
	g.vertices.Insert(v)
	g.out.Set(v, g.neighborSet())
	g.in.Set(v, g.neighborSet())
}

// AddEdge inserts the edge u -> v, adding either endpoint as a vertex if
// necessary. Self-loops are permitted — they are exactly what cycle
// detection is meant to report.
func (g *DiGraph[V]) AddEdge(u, v V) {
	g.AddVertex(u)
	g.AddVertex(v)
	outSet, _ := g.out.Get(u)
	outSet.Insert(v)
	inSet, _ := g.in.Get(v)
	inSet.Insert(u)
}

// AddEdges inserts one edge from u to each element of vs.
func (g *DiGraph[V]) AddEdges(u V, vs []V) {
	for _, v := range vs {
		g.AddEdge(u, v)
	}
}

// HasEdge reports whether u -> v is present.
func (g *DiGraph[V]) HasEdge(u, v V) bool {
	outSet, ok := g.out.Get(u)
	if !ok {
		return false
	}
	return outSet.Contains(v)
}

// HasVertex reports whether v has been added.
func (g *DiGraph[V]) HasVertex(v V) bool {
	return g.vertices.Contains(v)
}

// Vertices returns all vertices in sorted order.
func (g *DiGraph[V]) Vertices() []V {
	out := make([]V, 0, g.vertices.Len())
	iter := g.vertices.Iter()
	for ok := iter.First(); ok; ok = iter.Next() {
		out = append(out, iter.Key())
	}
	return out
}

// Out returns the out-neighborhood of v in sorted order.
func (g *DiGraph[V]) Out(v V) []V {
	return setSlice(g.out, v)
}

// In returns the in-neighborhood of v in sorted order.
func (g *DiGraph[V]) In(v V) []V {
	return setSlice(g.in, v)
}

func setSlice[V Ordered](m *btree.Map[V, *btree.Set[V]], v V) []V {
	s, ok := m.Get(v)
	if !ok {
		return nil
	}
	out := make([]V, 0, s.Len())
	iter := s.Iter()
	for ok := iter.First(); ok; ok = iter.Next() {
		out = append(out, iter.Key())
	}
	return out
}

// NumVertices returns the vertex count.
func (g *DiGraph[V]) NumVertices() int {
	return g.vertices.Len()
}

// ToEdgeList flattens the graph to a deterministic sequence of edges,
// sorted by (from, to).
func (g *DiGraph[V]) ToEdgeList() []Edge[V] {
	var edges []Edge[V]
	iter := g.vertices.Iter()
	for ok := iter.First(); ok; ok = iter.Next() {
		u := iter.Key()
		for _, v := range g.Out(u) {
			edges = append(edges, Edge[V]{From: u, To: v})
		}
	}
	return edges
}

// Union mutates g to include every vertex and edge of other.
func (g *DiGraph[V]) Union(other *DiGraph[V]) {
	for _, v := range other.Vertices() {
		g.AddVertex(v)
	}
	for _, e := range other.ToEdgeList() {
		g.AddEdge(e.From, e.To)
	}
}

// Clone returns a deep copy.
func (g *DiGraph[V]) Clone() *DiGraph[V] {
	c := New[V]()
	c.Union(g)
	return c
}

// topoPeel runs one Kahn peeling pass and returns the peel order and
// whether every vertex was peeled (i.e. the graph is acyclic).
func (g *DiGraph[V]) topoPeel() (order []V, acyclic bool) {
	indeg := make(map[V]int, g.vertices.Len())
	for _, v := range g.Vertices() {
		indeg[v] = len(g.In(v))
	}

	// explicit queue (stack-as-slice), never recursion: spec.md §9 demands
	// explicit-stack traversal for anything depth-dependent, and Kahn's
	// algorithm is naturally iterative besides.
	var queue []V
	for _, v := range g.Vertices() {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}

	order = make([]V, 0, g.vertices.Len())
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, w := range g.Out(v) {
			indeg[w]--
			if indeg[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	return order, len(order) == g.vertices.Len()
}

// IsAcyclic reports whether a Kahn topological pass consumes every vertex.
func (g *DiGraph[V]) IsAcyclic() bool {
	_, acyclic := g.topoPeel()
	return acyclic
}

// TopologicalSort returns a linear extension, failing if the graph has a
// cycle.
func (g *DiGraph[V]) TopologicalSort() ([]V, bool) {
	order, acyclic := g.topoPeel()
	if !acyclic {
		return nil, false
	}
	return order, true
}

// FindCycleEdge returns one edge lying on some cycle, or ok=false if the
// graph is acyclic. Cycle edges are found among the vertices that Kahn
// peeling never removed: an edge u -> v there lies on a cycle when v can
// reach u. We pick the lexicographically smallest such edge for
// determinism.
func (g *DiGraph[V]) FindCycleEdge() (e Edge[V], ok bool) {
	order, acyclic := g.topoPeel()
	if acyclic {
		return Edge[V]{}, false
	}
	peeled := make(map[V]bool, len(order))
	for _, v := range order {
		peeled[v] = true
	}
	reaches := func(from, to V) bool {
		seen := map[V]bool{from: true}
		stack := []V{from}
		for len(stack) > 0 {
			x := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if x == to {
				return true
			}
			for _, y := range g.Out(x) {
				if !seen[y] {
					seen[y] = true
					stack = append(stack, y)
				}
			}
		}
		return false
	}
	var found bool
	var best Edge[V]
	for _, u := range g.Vertices() {
		if peeled[u] {
			continue
		}
		for _, v := range g.Out(u) {
			if peeled[v] || !reaches(v, u) {
				continue
			}
			cand := Edge[V]{From: u, To: v}
			if !found || edgeLess(cand, best) {
				best, found = cand, true
			}
		}
	}
	return best, found
}

func edgeLess[V Ordered](a, b Edge[V]) bool {
	if a.From != b.From {
		return a.From.Less(b.From)
	}
	return a.To.Less(b.To)
}

// Closure returns the transitive closure, computed iteratively (explicit
// stack per source vertex) so that deep chains never recurse. No vertex
// gets an edge to itself, even one on a cycle or with a self-loop in g.
func (g *DiGraph[V]) Closure() *DiGraph[V] {
	c, _ := g.ClosureWithChange()
	return c
}

// ClosureWithChange computes the closure and also reports whether any edge
// was added relative to the input graph, fused into one pass to avoid a
// separate diff.
func (g *DiGraph[V]) ClosureWithChange() (*DiGraph[V], bool) {
	c := New[V]()
	for _, v := range g.Vertices() {
		c.AddVertex(v)
	}

	changed := false
	for _, src := range g.Vertices() {
		visited := map[V]bool{src: true}
		stack := append([]V{}, g.Out(src)...)
		for len(stack) > 0 {
			n := len(stack) - 1
			v := stack[n]
			stack = stack[:n]
			if visited[v] {
				continue
			}
			visited[v] = true
			if !g.HasEdge(src, v) {
				changed = true
			}
			c.AddEdge(src, v)
			stack = append(stack, g.Out(v)...)
		}
	}
	return c, changed
}

// IncrementalClosure extends an already-closed graph by newEdges, assuming
// g is already transitively closed. It takes the cross product of
// ancestors of each new edge's source (including the source itself) with
// descendants of the target (including the target itself). g is mutated
// in place; the return value is the set of edges actually added
// (deduplicated, excluding ones already present).
func (g *DiGraph[V]) IncrementalClosure(newEdges []Edge[V]) []Edge[V] {
	var added []Edge[V]
	for _, e := range newEdges {
		g.AddVertex(e.From)
		g.AddVertex(e.To)

		ancestors := g.ancestorsInclusive(e.From)
		descendants := g.descendantsInclusive(e.To)

		for _, a := range ancestors {
			for _, d := range descendants {
				if !g.HasEdge(a, d) {
					g.AddEdge(a, d)
					added = append(added, Edge[V]{From: a, To: d})
				}
			}
		}
	}
	return added
}

// ancestorsInclusive returns v and every vertex with an edge (direct, since
// g is assumed closed) into v, via the reverse-adjacency index.
func (g *DiGraph[V]) ancestorsInclusive(v V) []V {
	out := []V{v}
	out = append(out, g.In(v)...)
	return out
}

func (g *DiGraph[V]) descendantsInclusive(v V) []V {
	out := []V{v}
	out = append(out, g.Out(v)...)
	return out
}
