package linearize

import "github.com/arjunkc/isocheck/graph"

// Signature is a 128-bit state signature, used for memoization and
// nogood tables (spec.md §4.7.1: "a 128-bit integer"). Represented as two
// uint64 halves rather than a single big.Int for cheap, allocation-free
// XOR-based incremental maintenance.
type Signature struct {
	Hi, Lo uint64
}

// XOR returns the bitwise-XOR combination of two signatures — the
// operation Zobrist hashing is built from.
func (s Signature) XOR(o Signature) Signature {
	return Signature{Hi: s.Hi ^ o.Hi, Lo: s.Lo ^ o.Lo}
}

// Solver is the capability set spec.md §4.7.1 calls the "solver trait":
// the engine is polymorphic over it and never itself knows which
// consistency level it is deciding. V is the vertex type — TransactionId
// for Prefix/Serializable, (TransactionId, Phase) for Snapshot Isolation.
type Solver[V graph.Ordered] interface {
	// Vertices returns every vertex the search must place, in a fixed
	// deterministic order (used as the final tiebreak).
	Vertices() []V

	ChildrenOf(v V) []V
	ParentsOf(v V) []V

	// AllowNext reports whether appending v to prefix is permitted by the
	// level's semantic constraints.
	AllowNext(prefix []V, v V) bool

	// ForwardBookKeeping/BacktrackBookKeeping mutate and undo solver-
	// internal state (e.g. which write is "active" for a variable) as the
	// engine appends/removes the last element of prefix.
	ForwardBookKeeping(prefix []V)
	BacktrackBookKeeping(prefix []V)

	SearchOptions() SearchOptions

	// BranchScore heuristically ranks candidate for ordering purposes; the
	// engine treats it as an opaque number (spec.md §4.7.6).
	BranchScore(prefix, frontier []V, candidate V) float64

	// FrontierSignature must be a function of the frontier *and* any
	// solver-internal state that distinguishes otherwise-identical
	// frontiers (spec.md §4.7.1, and the Open Question in spec.md §9 about
	// transposition aliasing).
	FrontierSignature(prefix, frontier []V) Signature

	// ShouldPrune is an optional fast-reject hook; returning false always
	// is a valid (if weaker) implementation.
	ShouldPrune(prefix, frontier []V) bool

	// ZobristValue returns vertex's deterministic per-vertex random tag.
	ZobristValue(v V) Signature

	// ExtractWitness builds the solver's result type from a completed
	// linearization.
	ExtractWitness(order []V) any
}
