package linearize

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

type testVertex int

func (a testVertex) Less(other any) bool { return a < other.(testVertex) }

// freeSolver has no constraints at all: every vertex is always frontier-
// ready and AllowNext never rejects anything. Used to confirm the engine
// terminates with a full permutation when nothing forbids one.
type freeSolver struct {
	n int
}

func (s *freeSolver) Vertices() []testVertex {
	out := make([]testVertex, s.n)
	for i := range out {
		out[i] = testVertex(i + 1)
	}
	return out
}
func (s *freeSolver) ChildrenOf(testVertex) []testVertex { return nil }
func (s *freeSolver) ParentsOf(testVertex) []testVertex  { return nil }
func (s *freeSolver) AllowNext([]testVertex, testVertex) bool { return true }
func (s *freeSolver) ForwardBookKeeping([]testVertex)         {}
func (s *freeSolver) BacktrackBookKeeping([]testVertex)       {}
func (s *freeSolver) SearchOptions() SearchOptions            { return DefaultSearchOptions() }
func (s *freeSolver) BranchScore([]testVertex, []testVertex, testVertex) float64 { return 0 }
func (s *freeSolver) FrontierSignature(_ []testVertex, frontier []testVertex) Signature {
	var sig Signature
	for _, v := range frontier {
		sig = sig.XOR(s.ZobristValue(v))
	}
	return sig
}
func (s *freeSolver) ShouldPrune([]testVertex, []testVertex) bool { return false }
func (s *freeSolver) ZobristValue(v testVertex) Signature {
	return Signature{Hi: uint64(v), Lo: uint64(v) * 31}
}
func (s *freeSolver) ExtractWitness(order []testVertex) any { return order }

func TestEngineFindsFullPermutationWithNoConstraints(t *testing.T) {
	s := &freeSolver{n: 5}
	order, ok := NewEngine[testVertex](s, nil).Search()
	require.True(t, ok)
	require.Len(t, order, 5)

	sorted := append([]testVertex{}, order...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	require.Equal(t, s.Vertices(), sorted)
}

// deadlockSolver makes vertex 1 depend on vertex 2 and vice versa: neither
// can ever become frontier-ready, so the frontier is empty from the very
// first frame and the search must fail without consuming any node budget.
type deadlockSolver struct {
	freeSolver
}

func (s *deadlockSolver) ParentsOf(v testVertex) []testVertex {
	switch v {
	case 1:
		return []testVertex{2}
	case 2:
		return []testVertex{1}
	default:
		return nil
	}
}

func TestEngineFailsOnUnsatisfiableDependencyCycle(t *testing.T) {
	s := &deadlockSolver{freeSolver{n: 2}}
	order, ok := NewEngine[testVertex](s, nil).Search()
	require.False(t, ok)
	require.Nil(t, order)
}

// partialOrderSolver enforces 1 -> 2 -> 3 via ParentsOf, so the only valid
// linearization is [1, 2, 3].
type partialOrderSolver struct {
	freeSolver
}

func (s *partialOrderSolver) ParentsOf(v testVertex) []testVertex {
	switch v {
	case 2:
		return []testVertex{1}
	case 3:
		return []testVertex{2}
	default:
		return nil
	}
}

func TestEngineRespectsParentOrdering(t *testing.T) {
	s := &partialOrderSolver{freeSolver{n: 3}}
	order, ok := NewEngine[testVertex](s, nil).Search()
	require.True(t, ok)
	require.Equal(t, []testVertex{1, 2, 3}, order)
}
