package mvcc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arjunkc/isocheck/history"
)

func TestReadUncommittedSeesUncommittedWrites(t *testing.T) {
	db := NewDatabase(ReadUncommittedIsolation)
	c1 := db.NewConnection()
	c1.Begin()
	c2 := db.NewConnection()
	c2.Begin()

	require.NoError(t, c1.Write("x", "hey"))

	v, ok := c1.Read("x")
	require.True(t, ok)
	require.Equal(t, "hey", v)

	// Read Uncommitted lets c2 see c1's uncommitted write.
	v, ok = c2.Read("x")
	require.True(t, ok)
	require.Equal(t, "hey", v)

	require.NoError(t, c1.Commit())
	require.NoError(t, c2.Commit())

	h := db.History()
	require.Len(t, h.Sessions, 2)
	require.True(t, h.Sessions[0].Transactions[0].Committed)
	require.True(t, h.Sessions[1].Transactions[0].Committed)

	x := db.variable("x")
	require.Equal(t, history.Write(x, 1), h.Sessions[0].Transactions[0].Events[0])
	require.Equal(t, history.Read(x, 1), h.Sessions[1].Transactions[0].Events[0])
}

func TestReadMissingKeyRecordsNoVersion(t *testing.T) {
	db := NewDatabase(ReadCommittedIsolation)
	c := db.NewConnection()
	c.Begin()

	_, ok := c.Read("nope")
	require.False(t, ok)
	require.NoError(t, c.Commit())

	h := db.History()
	x := db.variable("nope")
	require.Equal(t, history.Read(x, history.NoVersion), h.Sessions[0].Transactions[0].Events[0])
}

func TestSnapshotIsolationDetectsWriteWriteConflict(t *testing.T) {
	db := NewDatabase(SnapshotIsolation)
	c1 := db.NewConnection()
	c1.Begin()
	c2 := db.NewConnection()
	c2.Begin()

	require.NoError(t, c1.Write("x", "1"))
	require.NoError(t, c1.Commit())

	// c2 began before c1 committed, so under Snapshot Isolation it still
	// cannot see c1's write at Write time — but the two writesets
	// (both touching "x") collide at commit time (first-committer-wins).
	require.NoError(t, c2.Write("x", "2"))
	err := c2.Commit()
	require.Error(t, err)

	h := db.History()
	require.True(t, h.Sessions[0].Transactions[0].Committed)
	require.False(t, h.Sessions[1].Transactions[0].Committed)
}
