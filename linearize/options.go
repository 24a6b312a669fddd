// Package linearize implements the generic DFS search over topological
// extensions described in spec.md §4.7: a single engine, polymorphic over
// a per-level Solver, shared by every NP-complete consistency level.
//
// The teacher never needs a search engine — mvcc-isolation validates a
// single fixed commit order at commit time (database.go's hasConflict).
// This package keeps that same conflict vocabulary (readset/writeset
// overlap) but inverts the direction: instead of validating one given
// order, it searches for one, backtracking via an explicit frame stack
// per spec.md §9 ("All traversals that depend on graph depth ... must use
// explicit stacks").
package linearize

// BranchOrder selects how legal candidates at a frontier are ordered once
// partitioned ahead of illegal ones (spec.md §4.7.5).
type BranchOrder uint8

const (
	AsProvided BranchOrder = iota
	HighScoreFirst
	LowScoreFirst
)

// TieBreak selects how candidates with equal score/ordering key are
// resolved.
type TieBreak uint8

const (
	Deterministic TieBreak = iota
	Randomized
)

// SearchOptions is the per-call configuration record spec.md §4.7.5
// enumerates. It is always supplied by the caller, never read from a
// process-wide global (spec.md §9, "State that could have been global").
type SearchOptions struct {
	MemoizationEnabled bool
	NogoodsEnabled     bool
	DominanceEnabled   bool
	PreferAllowedFirst bool

	BranchOrder BranchOrder
	TieBreak    TieBreak

	RestartMaxAttempts int
	RestartNodeBudget  int // 0 means unbounded
	AdaptivePortfolio  bool
	PrincipalVariation bool

	// MemoCapacity bounds the memo/nogood LRU tables (spec.md §5:
	// "can be capped with an LRU eviction without affecting soundness").
	MemoCapacity int

	// Seed drives the restart PRNG. Fixing it makes Randomized tie-break
	// and adaptive-portfolio restarts reproducible (spec.md §5).
	Seed uint64
}

// DefaultSearchOptions returns a complete, correctness-preserving default:
// every pruning technique on, deterministic tie-breaking, a handful of
// bounded restarts followed by the mandatory final unbounded attempt
// (spec.md §4.7.5, "Completeness").
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MemoizationEnabled: true,
		NogoodsEnabled:     true,
		DominanceEnabled:   true,
		PreferAllowedFirst: true,
		BranchOrder:        HighScoreFirst,
		TieBreak:           Deterministic,
		RestartMaxAttempts: 4,
		RestartNodeBudget:  50_000,
		AdaptivePortfolio:  true,
		PrincipalVariation: true,
		MemoCapacity:       1 << 16,
		Seed:               0x5EED,
	}
}
