package mvcc

import "github.com/arjunkc/isocheck/history"

// Value is one entry in a key's MVCC version chain: the half-open
// transaction interval [txStartId, txEndId) during which it was the
// version visible under the rules in Database.isVisible, its payload, and
// the history.Version it was installed under — the (Variable, Version)
// identity history.BuildAtomicPO resolves every write-read edge against.
// version is assigned per key at write time, independent of the writing
// transaction's id.
type Value struct {
	txStartId uint64
	txEndId   uint64
	value     string
	version   history.Version
}
