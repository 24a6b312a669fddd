// Package mvcc is the teacher's own transactional key-value store
// (connections, transactions, isolation levels, MVCC version chains). It is
// kept and extended rather than discarded: every Begin/Read/Write/Commit it
// executes is recorded into a history.History, which the root isocheck
// package can then check against the levels of spec.md §2 — a different,
// and stricter, vocabulary than this package's own IsolationLevel, which
// only governs what a transaction is allowed to *see* while it runs.
package mvcc

import (
	"fmt"

	"github.com/tidwall/btree"

	"github.com/arjunkc/isocheck/history"
	"github.com/arjunkc/isocheck/internal/invariant"
	"github.com/arjunkc/isocheck/internal/tracelog"
)

// txState is where a transaction sits in its own lifecycle.
type txState uint8

const (
	txInProgress txState = iota
	txRolledBack
	txCommitted
)

// txEntry is the Database's own bookkeeping for one transaction: its
// isolation snapshot and the variables it touched, addressed by the same
// history.Variable identity every recorded Read/Write event carries. A
// *Connection only ever holds the id — every other connection's view of a
// transaction in flight or finished comes from this registry, which is why
// it has to survive independently of whichever Connection opened it.
type txEntry struct {
	isolation IsolationLevel
	id        uint64
	state     txState

	// inprogress is the set of transaction ids that had not yet
	// committed or rolled back when this one began. Used by Repeatable
	// Read and stricter.
	inprogress btree.Set[uint64]

	// writeset and readset are the variables this transaction has
	// touched, used by Snapshot Isolation and Serializable to detect
	// conflicts at commit time.
	writeset btree.Set[history.Variable]
	readset  btree.Set[history.Variable]
}

type Database struct {
	defaultIsolation  IsolationLevel
	store             map[history.Variable][]Value
	txs               btree.Map[uint64, *txEntry]
	nextTransactionId uint64

	vars       map[string]history.Variable
	nextVarId  uint64
	versionSeq map[history.Variable]history.Version

	nextSessionId uint64
	recorded      history.History
}

// NewDatabase builds an empty Database whose transactions inherit
// isolationLevel unless told otherwise. Transaction id 0 is reserved to
// mean "unset", so real ids start at 1.
//
// Note: store, txs, and the id/version counters are not guarded by a
// mutex; this package is single-threaded by design, matching spec.md's
// pure, sequential history model.
func NewDatabase(isolationLevel IsolationLevel) Database {
	return Database{
		defaultIsolation:  isolationLevel,
		store:             map[history.Variable][]Value{},
		nextTransactionId: 1,
		vars:              map[string]history.Variable{},
		versionSeq:        map[history.Variable]history.Version{},
	}
}

func (d *Database) NewConnection() *Connection {
	return &Connection{db: d}
}

// History returns the write/read history recorded across every
// transaction this Database has completed (committed or rolled back) so
// far, in the shape isocheck.Check expects. Session ids are assigned in
// the order each Connection first calls Begin.
func (d *Database) History() history.History {
	return d.recorded
}

// inprogressIds snapshots every transaction id not yet committed or
// rolled back, for a new transaction to carry as its own inprogress set.
func (d *Database) inprogressIds() btree.Set[uint64] {
	var ids btree.Set[uint64]
	iter := d.txs.Iter()
	for ok := iter.First(); ok; ok = iter.Next() {
		if iter.Value().state == txInProgress {
			ids.Insert(iter.Key())
		}
	}
	return ids
}

// begin allocates a new transaction, snapshots the currently in-progress
// ids, and registers it in d.txs, returning its id.
func (d *Database) begin() uint64 {
	t := &txEntry{
		isolation:  d.defaultIsolation,
		state:      txInProgress,
		id:         d.nextTransactionId,
		inprogress: d.inprogressIds(),
	}
	d.nextTransactionId++
	d.txs.Set(t.id, t)

	tracelog.Entry(nil).Debug("starting transaction ", t.id)
	return t.id
}

// entry fetches the live bookkeeping for an in-progress transaction id,
// asserting it is actually still in progress — a Connection is never
// expected to operate against a completed or unknown id.
func (d *Database) entry(id uint64) *txEntry {
	invariant.Assert(id > 0, "valid id")
	t, ok := d.txs.Get(id)
	invariant.Assert(ok, "valid transaction")
	invariant.Assert(t.state == txInProgress, "in progress")
	return t
}

// stateOf reports the lifecycle state of any registered transaction,
// in-progress or not.
func (d *Database) stateOf(id uint64) txState {
	t, ok := d.txs.Get(id)
	invariant.Assert(ok, "valid transaction")
	return t.state
}

// complete transitions t to state, aborting the commit if t's isolation
// level finds a conflict against another committed transaction.
//
// Snapshot Isolation: if another transaction committed a write to a key
// t also wrote, after t's snapshot began and before t's commit, t must
// abort (Snapshot Isolation is Repeatable Read plus: concurrent committed
// transactions' writesets must not overlap).
// https://jepsen.io/consistency/models/snapshot-isolation
//
// Serializable: must appear as if transactions ran one at a time, so any
// read/write or write/write overlap with a concurrent committed
// transaction aborts it. https://jepsen.io/consistency/models/serializable
func (d *Database) complete(id uint64, state txState) error {
	t := d.entry(id)
	tracelog.Entry(nil).Debug("completing transaction ", id)

	if state == txCommitted {
		if t.isolation == SnapshotIsolation && d.hasConflict(t, func(t1, t2 *txEntry) bool {
			return setsShareKeys(t1.writeset, t2.writeset)
		}) {
			t.state = txRolledBack
			return fmt.Errorf("write-write conflict")
		}

		if t.isolation == SerializableIsolation && d.hasConflict(t, func(t1, t2 *txEntry) bool {
			return setsShareKeys(t1.readset, t2.writeset) ||
				setsShareKeys(t1.writeset, t2.readset) ||
				setsShareKeys(t1.writeset, t2.writeset)
		}) {
			t.state = txRolledBack
			return fmt.Errorf("read-write or write-write conflict")
		}
	}

	t.state = state
	return nil
}

// isVisible reports whether value is visible to a transaction running
// under t's isolation level and snapshot.
//
// Read Uncommitted sees any non-deleted version regardless of who wrote
// or deleted it. https://jepsen.io/consistency/models/read-uncommitted
//
// Read Committed additionally requires the creating transaction to be
// committed (or be t itself), and treats a version deleted by a committed
// transaction as gone. https://jepsen.io/consistency/models/read-committed
//
// Repeatable Read and stricter add one more restriction on top of Read
// Committed: only versions whose creator/deleter had already finished by
// the time t's own snapshot was taken are visible — otherwise a
// mid-transaction read could see a value that committed after t started,
// a dirty read by Repeatable Read's own definition.
// https://jepsen.io/consistency/models/repeatable-read
func (d *Database) isVisible(t *txEntry, value Value) bool {
	if t.isolation == ReadUncommittedIsolation {
		return value.txEndId == 0
	}

	createdVisible := value.txStartId == t.id || d.stateOf(value.txStartId) == txCommitted
	if !createdVisible {
		return false
	}
	if value.txEndId == t.id {
		return false
	}
	deletedVisible := value.txEndId > 0 && d.stateOf(value.txEndId) == txCommitted

	if !t.isolation.snapshotBased() {
		return !deletedVisible
	}

	if value.txStartId > t.id || t.inprogress.Contains(value.txStartId) {
		return false
	}
	if deletedVisible && value.txEndId < t.id {
		return false
	}
	return true
}

// hasConflict runs conflictFn(t1, t2) against every committed transaction
// t2 that either was in progress when t1 began, or started after t1 did —
// the two populations a concurrent conflict can come from.
func (d *Database) hasConflict(t1 *txEntry, conflictFn func(t1, t2 *txEntry) bool) bool {
	iter := d.txs.Iter()

	inprogressIter := t1.inprogress.Iter()
	for ok := inprogressIter.First(); ok; ok = inprogressIter.Next() {
		if !iter.Seek(inprogressIter.Key()) {
			continue
		}
		t2 := iter.Value()
		if t2.state == txCommitted && conflictFn(t1, t2) {
			return true
		}
	}

	for id := t1.id; id < d.nextTransactionId; id++ {
		if !iter.Seek(id) {
			continue
		}
		t2 := iter.Value()
		if t2.state == txCommitted && conflictFn(t1, t2) {
			return true
		}
	}

	return false
}

func setsShareKeys(s1, s2 btree.Set[history.Variable]) bool {
	s1Iter := s1.Iter()
	s2Iter := s2.Iter()

	for ok := s1Iter.First(); ok; ok = s1Iter.Next() {
		if s2Iter.Seek(s1Iter.Key()) && s2Iter.Key() == s1Iter.Key() {
			return true
		}
	}
	return false
}

// variable interns key into the Variable id isocheck's history package
// expects, assigning ids in first-use order so recorded histories are
// deterministic across runs of the same schedule.
func (d *Database) variable(key string) history.Variable {
	if v, ok := d.vars[key]; ok {
		return v
	}
	v := history.Variable(d.nextVarId)
	d.nextVarId++
	d.vars[key] = v
	return v
}

// nextVersion returns the next monotonically increasing version for x:
// the position of a write in that variable's append-only version chain,
// independent of transaction id, matching the (Variable, Version) identity
// history.BuildAtomicPO resolves write-read edges against.
func (d *Database) nextVersion(x history.Variable) history.Version {
	d.versionSeq[x]++
	return d.versionSeq[x]
}

// newSession allocates the next session id and its placeholder in the
// recorded history, called the first time a Connection begins a
// transaction.
func (d *Database) newSession() uint64 {
	d.nextSessionId++
	d.recorded.Sessions = append(d.recorded.Sessions, history.Session{})
	return d.nextSessionId
}

// record appends tx to sessionId's transaction list in the recorded
// history; sessionId must already have been allocated by newSession.
func (d *Database) record(sessionId uint64, tx history.Transaction) {
	d.recorded.Sessions[sessionId-1].Transactions = append(d.recorded.Sessions[sessionId-1].Transactions, tx)
}
