package saturate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arjunkc/isocheck/history"
)

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

// buildS4 is spec.md §8 scenario S4: a causal violation across three
// sessions.
func buildS4() history.History {
	return history.History{Sessions: []history.Session{
		{Transactions: []history.Transaction{{Events: []history.Event{history.Write(0, 1), history.Write(1, 1)}, Committed: true}}},
		{Transactions: []history.Transaction{{Events: []history.Event{history.Read(0, 1), history.Write(1, 2)}, Committed: true}}},
		{Transactions: []history.Transaction{{Events: []history.Event{history.Read(1, 2), history.Read(0, history.NoVersion)}, Committed: true}}},
	}}
}

func TestCommittedReadAcceptsS1(t *testing.T) {
	po := history.BuildAtomicPO(buildS1())
	res, cycleErr := Run(po, CommittedRead{}, nil)
	require.Nil(t, cycleErr)
	require.NotNil(t, res)
}

func TestCausalAcceptsS1(t *testing.T) {
	po := history.BuildAtomicPO(buildS1())
	res, cycleErr := Run(po, Causal{}, nil)
	require.Nil(t, cycleErr)
	require.NotNil(t, res)
}

// TestCausalRejectsS4 exercises spec.md §8 scenario S4: Causal must detect
// the violation via the rw rule (T3 reads x from Root, but T1 writes x and
// T1 -> T2 -> T3 puts T1 -> T3 in V, so T1 -> Root is derived, closing a
// cycle with Root -> T1).
func TestCausalRejectsS4(t *testing.T) {
	po := history.BuildAtomicPO(buildS4())
	_, cycleErr := Run(po, Causal{}, nil)
	require.NotNil(t, cycleErr)
}

// TestS2LostUpdatePassesCausal exercises spec.md §8 scenario S2: two
// sessions each reading the initial value and writing a new version.
// Causal must accept this (it is only forbidden at Snapshot Isolation and
// above).
func TestS2LostUpdatePassesCausal(t *testing.T) {
	h := history.History{Sessions: []history.Session{
		{Transactions: []history.Transaction{{Events: []history.Event{history.Read(0, history.NoVersion), history.Write(0, 1)}, Committed: true}}},
		{Transactions: []history.Transaction{{Events: []history.Event{history.Read(0, history.NoVersion), history.Write(0, 2)}, Committed: true}}},
	}}
	po := history.BuildAtomicPO(h)
	_, cycleErr := Run(po, Causal{}, nil)
	require.Nil(t, cycleErr)
}
