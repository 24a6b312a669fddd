package history

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildS1 is spec.md §8 scenario S1: two sessions writing/reading variable
// 0, both committed.
func buildS1() History {
	return History{Sessions: []Session{
		{Transactions: []Transaction{
			{Events: []Event{Write(0, 1)}, Committed: true},
			{Events: []Event{Read(0, 1)}, Committed: true},
		}},
		{Transactions: []Transaction{
			{Events: []Event{Write(0, 2)}, Committed: true},
		}},
	}}
}

func TestBuildAtomicPOSessionOrder(t *testing.T) {
	h := buildS1()
	po := BuildAtomicPO(h)

	t10 := TransactionId{1, 0}
	t11 := TransactionId{1, 1}
	t20 := TransactionId{2, 0}

	require.True(t, po.SessionOrder.HasEdge(Root, t10))
	require.True(t, po.SessionOrder.HasEdge(t10, t11))
	require.True(t, po.SessionOrder.HasEdge(Root, t20))
	require.False(t, po.SessionOrder.HasEdge(t20, t10))
}

func TestBuildAtomicPOWriteReadRelation(t *testing.T) {
	h := buildS1()
	po := BuildAtomicPO(h)

	t10 := TransactionId{1, 0}
	t11 := TransactionId{1, 1}
	require.True(t, po.WRUnion.HasEdge(t10, t11))
	require.False(t, po.HasCycleEdge)
}

func TestBuildAtomicPORootIsImplicitWriter(t *testing.T) {
	h := History{Sessions: []Session{
		{Transactions: []Transaction{{Events: []Event{Read(0, NoVersion)}, Committed: true}}},
	}}
	po := BuildAtomicPO(h)
	t10 := TransactionId{1, 0}
	require.True(t, po.WRUnion.HasEdge(Root, t10))
}

// buildS4 is spec.md §8 scenario S4: a causal violation across three
// sessions forming a write-read/session-order cycle.
func buildS4() History {
	return History{Sessions: []Session{
		{Transactions: []Transaction{{Events: []Event{Write(0, 1), Write(1, 1)}, Committed: true}}},
		{Transactions: []Transaction{{Events: []Event{Read(0, 1), Write(1, 2)}, Committed: true}}},
		{Transactions: []Transaction{{Events: []Event{Read(1, 2), Read(0, NoVersion)}, Committed: true}}},
	}}
}

// S4's causal violation only surfaces once Causal's rw/ww saturation rules
// run (see saturate package tests); session_order ∪ wr_union alone is
// still acyclic at this layer.
func TestBuildAtomicPOS4IsAcyclicBeforeSaturation(t *testing.T) {
	po := BuildAtomicPO(buildS4())
	require.False(t, po.HasCycleEdge)
}
