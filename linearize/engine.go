package linearize

import (
	"math/rand/v2"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/arjunkc/isocheck/graph"
)

// Engine is the generic DFS linearization search of spec.md §4.7: a
// search over topological extensions of a partial order, driven entirely
// by a Solver's allow_next predicate, bookkeeping hooks, and ordering
// heuristics. It never itself knows which consistency level it is
// deciding.
type Engine[V graph.Ordered] struct {
	solver Solver[V]
	all    []V
	log    *logrus.Entry
}

// NewEngine builds an engine for solver, whose Vertices() defines the
// full vertex set to be placed.
func NewEngine[V graph.Ordered](solver Solver[V], log *logrus.Entry) *Engine[V] {
	return &Engine[V]{solver: solver, all: solver.Vertices(), log: log}
}

// frame is one level of the explicit DFS stack (spec.md §9: explicit
// stacks, never recursion, for depth-dependent traversal).
type frame[V graph.Ordered] struct {
	candidates []V
	idx        int
	placed     bool
	vertex     V
	sigChecked bool
}

// Search runs the restart policy of spec.md §4.7.5 and returns the
// completed linearization, or false if every attempt — including the
// mandatory final unbounded, non-randomized one — exhausted the search
// space (spec.md §8, testable property 10: "DFS completeness").
func (e *Engine[V]) Search() ([]V, bool) {
	opts := e.solver.SearchOptions()
	order := newMoveOrdering[V]()

	attempts := opts.RestartMaxAttempts
	if attempts < 0 {
		attempts = 0
	}

	// Portfolio of branch-order modes to rotate through when
	// AdaptivePortfolio is set; a per-mode score (raised on success,
	// lowered on failure) steers later attempts within the same Search
	// call toward whichever mode has fared best so far.
	modes := []BranchOrder{AsProvided, HighScoreFirst, LowScoreFirst}
	wins := map[BranchOrder]int{}

	for attempt := 0; attempt <= attempts; attempt++ {
		final := attempt == attempts
		budget := opts.RestartNodeBudget
		randomized := opts.TieBreak == Randomized && !final
		mode := opts.BranchOrder
		if final {
			budget = 0
			randomized = false
		} else if opts.AdaptivePortfolio {
			mode = bestMode(modes, wins)
		}

		var rng *rand.Rand
		if randomized {
			rng = rand.New(rand.NewPCG(opts.Seed+uint64(attempt), 0xA11CE))
		}

		attemptOpts := opts
		attemptOpts.BranchOrder = mode
		attemptOpts.RestartNodeBudget = budget

		result, exhaustedBudget := e.runAttempt(attemptOpts, order, rng)
		if result != nil {
			wins[mode]++
			if e.log != nil {
				e.log.WithFields(logrus.Fields{"attempt": attempt, "mode": mode}).Debug("linearization found")
			}
			return result, true
		}
		if e.log != nil {
			e.log.WithFields(logrus.Fields{
				"attempt": attempt, "mode": mode, "exhausted_budget": exhaustedBudget, "final": final,
			}).Debug("linearization attempt failed")
		}
		wins[mode]--
		if final && !exhaustedBudget {
			return nil, false
		}
	}
	return nil, false
}

// runAttempt performs one bounded (or, if nodeBudget == 0, unbounded) DFS
// attempt. It returns (order, exhaustedBudget): order is non-nil on
// success; exhaustedBudget is true if the attempt stopped only because it
// ran out of node budget, not because the search space was proven empty.
func (e *Engine[V]) runAttempt(opts SearchOptions, order *moveOrdering[V], rng *rand.Rand) (result []V, exhaustedBudget bool) {
	tbl := newTables(opts.MemoCapacity)

	prefix := make([]V, 0, len(e.all))
	placed := make(map[any]bool, len(e.all))

	var stack []*frame[V]
	nodeCount := 0

	pushFrame := func(depth int) *frame[V] {
		frontier := e.computeFrontier(prefix, placed)
		f := &frame[V]{}
		stack = append(stack, f)

		if e.solver.ShouldPrune(prefix, frontier) {
			f.candidates = nil
			return f
		}

		var sig Signature
		haveSig := opts.MemoizationEnabled || opts.NogoodsEnabled || opts.DominanceEnabled
		if haveSig {
			sig = e.solver.FrontierSignature(prefix, frontier)
		}
		if opts.MemoizationEnabled && tbl.isMemoized(sig) {
			f.candidates = nil
			return f
		}
		if opts.NogoodsEnabled {
			if _, failed := tbl.nogood(sig); failed {
				f.candidates = nil
				return f
			}
		}
		if opts.DominanceEnabled {
			set := frontierSet(frontier)
			if tbl.dominated(set) {
				f.candidates = nil
				return f
			}
		}

		f.candidates = e.orderCandidates(prefix, frontier, opts, order, depth, rng)
		return f
	}

	pushFrame(0)

	for len(stack) > 0 {
		depth := len(stack) - 1
		top := stack[depth]

		if top.placed {
			prefix = prefix[:len(prefix)-1]
			delete(placed, top.vertex)
			e.solver.BacktrackBookKeeping(prefix)
			top.placed = false
		}

		if top.idx >= len(top.candidates) {
			// This frontier is exhausted: record it as a nogood (also
			// when ShouldPrune rejected it, the signature is computed
			// here afresh) and pop, which lets the parent frame continue
			// via the top.placed undo above on the next loop iteration.
			stack = stack[:len(stack)-1]
			if depth > 0 && opts.NogoodsEnabled {
				frontier := e.computeFrontier(prefix, placed)
				sig := e.solver.FrontierSignature(prefix, frontier)
				tbl.recordNogood(sig, frontierSet(frontier), depth)
				order.recordCutoff(depth-1, lastOf(prefix))
			}
			if opts.MemoizationEnabled && depth > 0 {
				frontier := e.computeFrontier(prefix, placed)
				sig := e.solver.FrontierSignature(prefix, frontier)
				tbl.recordMemo(sig)
			}
			continue
		}

		v := top.candidates[top.idx]
		top.idx++

		if opts.RestartNodeBudget > 0 && nodeCount >= opts.RestartNodeBudget {
			return nil, true
		}
		nodeCount++

		prefix = append(prefix, v)
		placed[v] = true
		top.placed = true
		top.vertex = v
		e.solver.ForwardBookKeeping(prefix)
		order.recordPlaced(depth, v)
		order.noteDepthReached(prefix)

		if len(prefix) == len(e.all) {
			for _, p := range prefix {
				order.recordSuccessStep(p)
			}
			return append([]V{}, prefix...), false
		}

		pushFrame(depth + 1)
	}

	return nil, false
}

func lastOf[V any](s []V) V {
	if len(s) == 0 {
		var zero V
		return zero
	}
	return s[len(s)-1]
}

func frontierSet[V comparable](frontier []V) map[any]bool {
	m := make(map[any]bool, len(frontier))
	for _, v := range frontier {
		m[v] = true
	}
	return m
}

// computeFrontier returns every not-yet-placed vertex all of whose
// partial-order parents are already placed (spec.md §4.7.2), in the
// engine's fixed deterministic vertex order.
func (e *Engine[V]) computeFrontier(prefix []V, placed map[any]bool) []V {
	var frontier []V
	for _, v := range e.all {
		if placed[v] {
			continue
		}
		ready := true
		for _, p := range e.solver.ParentsOf(v) {
			if !placed[p] {
				ready = false
				break
			}
		}
		if ready {
			frontier = append(frontier, v)
		}
	}
	_ = prefix
	return frontier
}

// orderCandidates partitions the frontier into legal/illegal via
// AllowNext, drops the illegal ones if PreferAllowedFirst (otherwise keeps
// them, sorted after the legal ones), and sorts each bucket by the
// branch-ordering policy and learned move-ordering scores, with a
// deterministic (or randomized) tiebreak (spec.md §4.7.2).
func (e *Engine[V]) orderCandidates(prefix, frontier []V, opts SearchOptions, order *moveOrdering[V], depth int, rng *rand.Rand) []V {
	type scored struct {
		v      V
		legal  bool
		score  float64
		random float64
	}
	cand := make([]scored, 0, len(frontier))
	for _, v := range frontier {
		legal := e.solver.AllowNext(prefix, v)
		if !legal {
			// An illegal candidate can never be part of a valid
			// linearization (placing it would itself violate the level's
			// semantics), so — unlike a chess engine's pseudo-legal move
			// list — it is excluded outright rather than merely
			// deprioritized. PreferAllowedFirst only affects whether this
			// filtering step runs at all; disabling it is for solvers
			// whose AllowNext is always true (a pass-through) and who
			// rely purely on BranchScore for ordering.
			if opts.PreferAllowedFirst {
				continue
			}
		}
		base := e.solver.BranchScore(prefix, frontier, v)
		s := order.score(depth, v, base, opts)
		r := 0.0
		if rng != nil {
			r = rng.Float64()
		}
		cand = append(cand, scored{v: v, legal: legal, score: s, random: r})
	}

	sort.SliceStable(cand, func(i, j int) bool {
		a, b := cand[i], cand[j]
		if a.legal != b.legal {
			return a.legal
		}
		switch opts.BranchOrder {
		case HighScoreFirst:
			if a.score != b.score {
				return a.score > b.score
			}
		case LowScoreFirst:
			if a.score != b.score {
				return a.score < b.score
			}
		case AsProvided:
			return false
		}
		if opts.TieBreak == Randomized && a.random != b.random {
			return a.random > b.random
		}
		return a.v.Less(b.v)
	})

	out := make([]V, len(cand))
	for i, c := range cand {
		out[i] = c.v
	}
	return out
}

func bestMode(modes []BranchOrder, wins map[BranchOrder]int) BranchOrder {
	best := modes[0]
	for _, m := range modes[1:] {
		if wins[m] > wins[best] {
			best = m
		}
	}
	return best
}
