package isocheck_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arjunkc/isocheck"
	"github.com/arjunkc/isocheck/mvcc"
)

// TestRecordedSnapshotIsolationHistoryChecksOut runs the teacher's own
// transactional engine under its SnapshotIsolation enforcement, records
// what actually happened, and confirms the resulting history.History
// independently satisfies isocheck's SnapshotIsolation level — exercising
// the whole pipeline from live execution through to the static checker.
func TestRecordedSnapshotIsolationHistoryChecksOut(t *testing.T) {
	db := mvcc.NewDatabase(mvcc.SnapshotIsolation)

	c1 := db.NewConnection()
	c1.Begin()
	require.NoError(t, c1.Write("x", "1"))
	require.NoError(t, c1.Commit())

	c2 := db.NewConnection()
	c2.Begin()
	v, ok := c2.Read("x")
	require.True(t, ok)
	require.Equal(t, "1", v)
	require.NoError(t, c2.Commit())

	w, err := isocheck.Check(db.History(), isocheck.SnapshotIsolation)
	require.Nil(t, err)
	require.Equal(t, isocheck.KindSplitCommitOrder, w.Kind)
}

// TestRecordedWriteWriteConflictIsRecordedUncommitted confirms a
// Database-enforced write-write abort is recorded as an uncommitted
// transaction rather than silently dropped, and that the resulting
// history is still structurally valid (history.Validate accepts
// uncommitted transactions whose reads don't depend on their own
// uncommitted writes externally).
func TestRecordedWriteWriteConflictIsRecordedUncommitted(t *testing.T) {
	db := mvcc.NewDatabase(mvcc.SnapshotIsolation)

	c1 := db.NewConnection()
	c1.Begin()
	c2 := db.NewConnection()
	c2.Begin()

	require.NoError(t, c1.Write("x", "1"))
	require.NoError(t, c1.Commit())

	require.NoError(t, c2.Write("x", "2"))
	require.Error(t, c2.Commit())

	_, err := isocheck.Check(db.History(), isocheck.CommittedRead)
	require.Nil(t, err)
}
