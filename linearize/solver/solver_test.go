package solver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arjunkc/isocheck/history"
	"github.com/arjunkc/isocheck/linearize"
)

// buildS1 is spec.md §8 scenario S1.
func buildS1() history.History {
	return history.History{Sessions: []history.Session{
		{Transactions: []history.Transaction{
			{Events: []history.Event{history.Write(0, 1)}, Committed: true},
			{Events: []history.Event{history.Read(0, 1)}, Committed: true},
		}},
		{Transactions: []history.Transaction{
			{Events: []history.Event{history.Write(0, 2)}, Committed: true},
		}},
	}}
}

// buildWriteSkew is a minimal two-session write-skew anomaly: each session
// reads both variables at their initial version and writes a different
// one, with no cross-session write-read edge at all. Snapshot Isolation
// permits it (each transaction's read phase is satisfied before either
// writes); Serializable forbids it (whichever transaction is placed
// second can no longer observe both variables at their initial version,
// since the first's write has already landed).
func buildWriteSkew() history.History {
	return history.History{Sessions: []history.Session{
		{Transactions: []history.Transaction{{
			Events:    []history.Event{history.Read(0, history.NoVersion), history.Read(1, history.NoVersion), history.Write(0, 1)},
			Committed: true,
		}}},
		{Transactions: []history.Transaction{{
			Events:    []history.Event{history.Read(0, history.NoVersion), history.Read(1, history.NoVersion), history.Write(1, 1)},
			Committed: true,
		}}},
	}}
}

func TestSerializableAcceptsS1(t *testing.T) {
	po := history.BuildAtomicPO(buildS1())
	s := NewSerializable(po, linearize.DefaultSearchOptions())
	order, ok := linearize.NewEngine[history.TransactionId](s, nil).Search()
	require.True(t, ok)
	require.Equal(t, 3, len(order))
}

func TestPrefixAcceptsS1(t *testing.T) {
	po := history.BuildAtomicPO(buildS1())
	s := NewPrefix(po, linearize.DefaultSearchOptions())
	order, ok := linearize.NewEngine[history.TransactionId](s, nil).Search()
	require.True(t, ok)
	require.Equal(t, 3, len(order))
}

func TestSerializableRejectsWriteSkew(t *testing.T) {
	po := history.BuildAtomicPO(buildWriteSkew())
	s := NewSerializable(po, linearize.DefaultSearchOptions())
	_, ok := linearize.NewEngine[history.TransactionId](s, nil).Search()
	require.False(t, ok)
}

func TestSnapshotIsolationAcceptsWriteSkew(t *testing.T) {
	po := history.BuildAtomicPO(buildWriteSkew())
	s := NewSnapshotIsolation(po, linearize.DefaultSearchOptions())
	order, ok := linearize.NewEngine[PhaseVertex](s, nil).Search()
	require.True(t, ok)
	require.Equal(t, 4, len(order))

	w := s.ExtractWitness(order).(Witness)
	require.Len(t, w.CommitOrder, 2)
}

// TestFrontierSignatureDistinguishesActiveVariableState confirms
// FrontierSignature mixes in the active-variable bookkeeping and not just
// the frontier's vertex set: two identical frontiers that differ only in
// which transactions hold a variable active must hash differently,
// or memoization would wrongly treat them as the same search state.
func TestFrontierSignatureDistinguishesActiveVariableState(t *testing.T) {
	po := history.BuildAtomicPO(buildWriteSkew())
	s := NewSnapshotIsolation(po, linearize.DefaultSearchOptions())

	frontier := s.Vertices()
	base := s.FrontierSignature(nil, frontier)

	t1 := history.TransactionId{SessionId: 1, SessionHeight: 0}
	s.active[0] = map[history.TransactionId]bool{t1: true}
	withActive := s.FrontierSignature(nil, frontier)

	require.NotEqual(t, base, withActive)
}
