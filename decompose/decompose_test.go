package decompose

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arjunkc/isocheck/history"
)

// buildTwoIndependentSessions has two sessions with no cross-session
// write-read edge at all: the communication graph has two isolated
// vertices and zero edges.
func buildTwoIndependentSessions() history.History {
	return history.History{Sessions: []history.Session{
		{Transactions: []history.Transaction{{Events: []history.Event{history.Write(0, 1)}, Committed: true}}},
		{Transactions: []history.Transaction{{Events: []history.Event{history.Write(1, 1)}, Committed: true}}},
	}}
}

// buildThreeSessionChain has session 1 write x, session 2 read x and
// write y, session 3 read y: a communication-graph path with no
// articulation point shared between more than two components (a path
// graph's biconnected components are its edges, and the only shared
// vertices are each a member of exactly two of them — still "shared",
// making this construction exercise the Unsafe fallback rather than
// independent partitions).
func buildThreeSessionChain() history.History {
	return history.History{Sessions: []history.Session{
		{Transactions: []history.Transaction{{Events: []history.Event{history.Write(0, 1)}, Committed: true}}},
		{Transactions: []history.Transaction{{Events: []history.Event{history.Read(0, 1), history.Write(1, 1)}, Committed: true}}},
		{Transactions: []history.Transaction{{Events: []history.Event{history.Read(1, 1)}, Committed: true}}},
	}}
}

func TestCommGraphIsolatedSessions(t *testing.T) {
	h := buildTwoIndependentSessions()
	po := history.BuildAtomicPO(h)
	g := CommGraph(h, po)
	require.Equal(t, 2, g.NumVertices())
	require.Empty(t, g.Neighbors(1))
}

func TestDecomposeIndependentSessions(t *testing.T) {
	h := buildTwoIndependentSessions()
	po := history.BuildAtomicPO(h)
	plan := Decompose(h, po)
	require.False(t, plan.Unsafe)
	require.Len(t, plan.Partitions, 2)
}

func TestDecomposeSharedArticulationFallsBackUnsafe(t *testing.T) {
	h := buildThreeSessionChain()
	po := history.BuildAtomicPO(h)
	plan := Decompose(h, po)
	require.True(t, plan.Unsafe)
}

func TestProjectKeepsOriginalNumbering(t *testing.T) {
	h := buildTwoIndependentSessions()
	sub := Project(h, map[uint64]bool{1: true})
	require.Len(t, sub.Sessions, 2)
	require.Len(t, sub.Sessions[0].Transactions, 1)
	require.Empty(t, sub.Sessions[1].Transactions)
}

func TestSingletonWitness(t *testing.T) {
	h := history.History{Sessions: []history.Session{
		{Transactions: []history.Transaction{
			{Events: []history.Event{history.Write(0, 1)}, Committed: true},
			{Events: []history.Event{history.Read(0, 1)}, Committed: true},
		}},
	}}
	order, ok := SingletonWitness(h)
	require.True(t, ok)
	require.Equal(t, []history.TransactionId{
		history.Root,
		{SessionId: 1, SessionHeight: 0},
		{SessionId: 1, SessionHeight: 1},
	}, order)
}

func TestMergeCommitOrdersDedupsRoot(t *testing.T) {
	t1 := history.TransactionId{SessionId: 1, SessionHeight: 0}
	t2 := history.TransactionId{SessionId: 2, SessionHeight: 0}
	merged := MergeCommitOrders([][]history.TransactionId{
		{history.Root, t1},
		{history.Root, t2},
	})
	want := []history.TransactionId{history.Root, t1, t2}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("MergeCommitOrders mismatch (-want +got):\n%s", diff)
	}
}
