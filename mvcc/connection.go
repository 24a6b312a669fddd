package mvcc

import (
	"fmt"

	"github.com/arjunkc/isocheck/history"
	"github.com/arjunkc/isocheck/internal/invariant"
)

// Connection is an abstraction for database connections. A connection has
// at most one associated in-progress transaction at a time, identified
// only by id — the transaction's own snapshot and read/write sets live in
// the owning Database, since other connections need to see them after this
// one moves on. Every Read/Write issued against the transaction is
// recorded, in order, so that once it completes the connection's owning
// Database can assemble a history.History out of everything that ran.
type Connection struct {
	txID uint64
	db   *Database

	sessionId uint64
	events    []history.Event
}

// Begin starts a new transaction on this connection. The connection's
// session id is assigned on its first Begin and reused for the rest of its
// lifetime, matching spec.md §3's "session" grouping one connection's
// sequence of transactions.
func (c *Connection) Begin() {
	invariant.Assert(c.txID == 0, "connection already has a transaction in progress")
	c.txID = c.db.begin()
	if c.sessionId == 0 {
		c.sessionId = c.db.newSession()
	}
	c.events = nil
}

// Read returns the value visible to this connection's transaction for key,
// or false if no version is visible.
func (c *Connection) Read(key string) (string, bool) {
	t := c.db.entry(c.txID)
	x := c.db.variable(key)
	t.readset.Insert(x)

	versions := c.db.store[x]
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		if c.db.isVisible(t, v) {
			c.events = append(c.events, history.Read(x, v.version))
			return v.value, true
		}
	}
	c.events = append(c.events, history.Read(x, history.NoVersion))
	return "", false
}

// Write installs a new version of key, marking whichever version was
// previously visible to this transaction as superseded. It reports a
// write-write conflict if another transaction has already overwritten the
// same visible version (first-committer-wins).
func (c *Connection) Write(key, value string) error {
	t := c.db.entry(c.txID)
	x := c.db.variable(key)

	versions := c.db.store[x]
	for i := len(versions) - 1; i >= 0; i-- {
		v := &versions[i]
		if c.db.isVisible(t, *v) {
			if v.txEndId != 0 {
				return fmt.Errorf("write-write conflict on key %q", key)
			}
			v.txEndId = t.id
			break
		}
	}

	version := c.db.nextVersion(x)
	c.db.store[x] = append(c.db.store[x], Value{txStartId: t.id, value: value, version: version})
	t.writeset.Insert(x)

	c.events = append(c.events, history.Write(x, version))
	return nil
}

// Commit attempts to commit this connection's transaction, recording it
// into the owning Database's history either way: a conflict rolls the
// transaction back and records it uncommitted (Committed: false) rather
// than dropping it, since spec.md's validator explicitly allows and
// reasons about uncommitted transactions' events.
func (c *Connection) Commit() error {
	id := c.assertInProgress()
	err := c.db.complete(id, txCommitted)
	c.db.record(c.sessionId, history.Transaction{Events: c.events, Committed: err == nil})
	c.txID = 0
	c.events = nil
	return err
}

// Abort rolls back this connection's transaction and records it as
// uncommitted.
func (c *Connection) Abort() {
	id := c.assertInProgress()
	_ = c.db.complete(id, txRolledBack)
	c.db.record(c.sessionId, history.Transaction{Events: c.events, Committed: false})
	c.txID = 0
	c.events = nil
}

func (c *Connection) assertInProgress() uint64 {
	invariant.Assert(c.txID != 0, "connection has no transaction in progress")
	return c.txID
}
