package linearize

import "github.com/arjunkc/isocheck/graph"

// moveOrdering accumulates the learned move-ordering heuristics of
// spec.md §4.7.4 across all attempts of one Search call (killer moves per
// depth, global history scores, a parent-move -> reply-move counter table)
// plus the principal variation carried across restarts.
type moveOrdering[V graph.Ordered] struct {
	killer  map[int]V
	history map[V]int
	counter map[V]V
	pv      []V

	lastMove    map[int]V // depth -> vertex placed there, this attempt
	deepestPath []V
}

func newMoveOrdering[V graph.Ordered]() *moveOrdering[V] {
	return &moveOrdering[V]{
		killer:   make(map[int]V),
		history:  make(map[V]int),
		counter:  make(map[V]V),
		lastMove: make(map[int]V),
	}
}

// recordCutoff is called when placing v at depth causes a cutoff (a
// nogood/dominance prune, or ultimately a dead end backtracked from): v
// becomes the killer move for depth, and if a parent move is known, the
// counter-move table learns parent -> v.
func (m *moveOrdering[V]) recordCutoff(depth int, v V) {
	m.killer[depth] = v
	if depth > 0 {
		if parent, ok := m.lastMove[depth-1]; ok {
			m.counter[parent] = v
		}
	}
}

// recordSuccessStep is called for every vertex along a path that
// eventually reached a full linearization: its history score is boosted.
func (m *moveOrdering[V]) recordSuccessStep(v V) {
	m.history[v]++
}

// recordPlaced tracks, for this attempt, which vertex sits at each depth
// (used to look up the "parent move" for counter-move learning and to
// extend the deepest-path record used as the next attempt's PV).
func (m *moveOrdering[V]) recordPlaced(depth int, v V) {
	m.lastMove[depth] = v
}

// noteDepthReached updates the deepest path seen so far across restarts,
// for principal-variation move ordering on subsequent attempts.
func (m *moveOrdering[V]) noteDepthReached(prefix []V) {
	if len(prefix) > len(m.deepestPath) {
		m.deepestPath = append([]V{}, prefix...)
	}
}

// pvAt returns the principal-variation vertex for depth, if the deepest
// path recorded so far reaches that far.
func (m *moveOrdering[V]) pvAt(depth int) (V, bool) {
	if depth < len(m.deepestPath) {
		return m.deepestPath[depth], true
	}
	var zero V
	return zero, false
}

// score combines history and killer/PV boosts into the single opaque
// ordering key the engine sorts candidates by, on top of whatever
// BranchScore the solver itself provides.
func (m *moveOrdering[V]) score(depth int, v V, solverScore float64, opts SearchOptions) float64 {
	s := solverScore
	if opts.PrincipalVariation {
		if pv, ok := m.pvAt(depth); ok && pv == v {
			s += 1e6
		}
	}
	if killer, ok := m.killer[depth]; ok && killer == v {
		s += 1e3
	}
	s += float64(m.history[v])
	if depth > 0 {
		if parent, ok := m.lastMove[depth-1]; ok {
			if reply, ok := m.counter[parent]; ok && reply == v {
				s += 1e2
			}
		}
	}
	return s
}
