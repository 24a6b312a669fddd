package graph

// BCCResult is the outcome of biconnected-component extraction: a
// partition of edges into components, plus the set of articulation
// points (vertices shared by more than one component).
type BCCResult[V Ordered] struct {
	Components        [][]Edge[V]
	ArticulationPoints map[V]bool
}

// bccFrame is one level of the explicit DFS stack used by BCC below.
// Recursion is avoided throughout this package per spec.md §9 ("All
// traversals that depend on graph depth ... must use explicit stacks").
type bccFrame[V Ordered] struct {
	v          V
	parent     V
	hasParent  bool
	neighbors  []V
	childIndex int
}

// BCC computes the biconnected components and articulation points of g
// using the classical DFS-with-lowlinks (Tarjan/Hopcroft) construction,
// implemented with an explicit frame stack rather than recursion.
func BCC[V Ordered](g *Undirected[V]) BCCResult[V] {
	disc := map[V]int{}
	low := map[V]int{}
	visited := map[V]bool{}
	timer := 0

	var edgeStack []Edge[V]
	var components [][]Edge[V]
	articulation := map[V]bool{}

	popComponentThrough := func(u, v V) {
		var comp []Edge[V]
		for {
			n := len(edgeStack) - 1
			e := edgeStack[n]
			edgeStack = edgeStack[:n]
			comp = append(comp, e)
			if (e.From == u && e.To == v) || (e.From == v && e.To == u) {
				break
			}
		}
		components = append(components, comp)
	}

	for _, root := range g.Vertices() {
		if visited[root] {
			continue
		}

		var stack []*bccFrame[V]
		rootChildren := 0

		visited[root] = true
		disc[root] = timer
		low[root] = timer
		timer++
		stack = append(stack, &bccFrame[V]{v: root, neighbors: g.Neighbors(root)})

		for len(stack) > 0 {
			top := stack[len(stack)-1]

			if top.childIndex < len(top.neighbors) {
				w := top.neighbors[top.childIndex]
				top.childIndex++

				if top.hasParent && w == top.parent {
					// Skip exactly one occurrence of the edge back to the
					// immediate parent (guards parallel-free simple graphs;
					// self-loops are excluded by AddEdge already).
					top.parent = zeroValue[V]()
					top.hasParent = false
					continue
				}

				if !visited[w] {
					if len(stack) == 1 {
						rootChildren++
					}
					edgeStack = append(edgeStack, Edge[V]{From: top.v, To: w})
					visited[w] = true
					disc[w] = timer
					low[w] = timer
					timer++
					stack = append(stack, &bccFrame[V]{
						v: w, parent: top.v, hasParent: true, neighbors: g.Neighbors(w),
					})
					continue
				}

				if disc[w] < disc[top.v] {
					edgeStack = append(edgeStack, Edge[V]{From: top.v, To: w})
					if disc[w] < low[top.v] {
						low[top.v] = disc[w]
					}
				}
				continue
			}

			// All neighbors processed; pop this frame and fold its low
			// value into the parent's.
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parentFrame := stack[len(stack)-1]
				if low[top.v] < low[parentFrame.v] {
					low[parentFrame.v] = low[top.v]
				}
				isRootParent := len(stack) == 1
				if (isRootParent && rootChildren > 1) ||
					(!isRootParent && low[top.v] >= disc[parentFrame.v]) {
					articulation[parentFrame.v] = true
					popComponentThrough(parentFrame.v, top.v)
				}
			}
		}

		if len(edgeStack) > 0 {
			components = append(components, append([]Edge[V]{}, edgeStack...))
			edgeStack = edgeStack[:0]
		}
	}

	return BCCResult[V]{Components: components, ArticulationPoints: articulation}
}

func zeroValue[V Ordered]() V {
	var z V
	return z
}
