package history

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormedHistory(t *testing.T) {
	h := History{Sessions: []Session{
		{Transactions: []Transaction{
			{Events: []Event{Write(0, 1)}, Committed: true},
			{Events: []Event{Read(0, 1)}, Committed: true},
		}},
	}}
	require.NoError(t, Validate(h))
}

func TestValidateRejectsSameVersionWrite(t *testing.T) {
	h := History{Sessions: []Session{
		{Transactions: []Transaction{{Events: []Event{Write(0, 1)}, Committed: true}}},
		{Transactions: []Transaction{{Events: []Event{Write(0, 1)}, Committed: true}}},
	}}
	err := Validate(h)
	require.Error(t, err)
	var nae *NonAtomicError
	require.ErrorAs(t, err, &nae)
	require.Equal(t, SameVersionWrite, nae.Kind)
}

func TestValidateRejectsUnknownVersion(t *testing.T) {
	h := History{Sessions: []Session{
		{Transactions: []Transaction{{Events: []Event{Read(0, 7)}, Committed: true}}},
	}}
	err := Validate(h)
	require.Error(t, err)
	var nae *NonAtomicError
	require.ErrorAs(t, err, &nae)
	require.Equal(t, UnknownVersion, nae.Kind)
}

func TestValidateRejectsUncommittedRead(t *testing.T) {
	h := History{Sessions: []Session{
		{Transactions: []Transaction{
			{Events: []Event{Write(0, 1)}, Committed: false},
			{Events: []Event{Read(0, 1)}, Committed: true},
		}},
	}}
	err := Validate(h)
	require.Error(t, err)
	var nae *NonAtomicError
	require.ErrorAs(t, err, &nae)
	require.Equal(t, UncommittedRead, nae.Kind)
}

func TestValidateRejectsLocalReadInconsistentWithLocalWrite(t *testing.T) {
	h := History{Sessions: []Session{
		{Transactions: []Transaction{
			{Events: []Event{Write(0, 1), Read(0, 2)}, Committed: true},
		}},
	}}
	err := Validate(h)
	require.Error(t, err)
	var nae *NonAtomicError
	require.ErrorAs(t, err, &nae)
	require.Equal(t, LocalReadInconsistentWithLocalWrite, nae.Kind)
}

func TestValidateAllowsInitialRead(t *testing.T) {
	h := History{Sessions: []Session{
		{Transactions: []Transaction{{Events: []Event{Read(0, NoVersion)}, Committed: true}}},
	}}
	require.NoError(t, Validate(h))
}
