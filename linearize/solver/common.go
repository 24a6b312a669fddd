// Package solver provides the three NP-complete consistency levels —
// Prefix, Snapshot Isolation, Serializable — as thin implementations of
// linearize.Solver (spec.md §4.7.7). Each is grounded on the teacher's
// conflict vocabulary: mvcc-isolation's database.go validates a
// transaction's readset/writeset against every concurrent committed
// transaction at commit time (hasConflict + setsShareKeys); these solvers
// check the same kind of conflict, but as an a priori AllowNext predicate
// the DFS engine asks about one candidate vertex at a time while building
// an order, rather than a commit-time validation of one fixed order.
package solver

import "github.com/arjunkc/isocheck/history"

// transactionIds returns every real TransactionId in po, sorted, the
// deterministic vertex order every solver's Vertices() returns.
func transactionIds(po *history.AtomicTransactionPO) []history.TransactionId {
	ids := make([]history.TransactionId, 0, len(po.Info))
	for id := range po.Info {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j].Less(ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}

// realParents filters the Root sentinel out of a parent list: Root is
// never itself placed by the search (it isn't a member of any solver's
// Vertices()), so treating it as a real parent would make every vertex's
// frontier-readiness check ("are all parents placed?") permanently false.
func realParents(ids []history.TransactionId) []history.TransactionId {
	out := ids[:0:0]
	for _, id := range ids {
		if !id.IsRoot() {
			out = append(out, id)
		}
	}
	return out
}

// activeWrite tracks, per variable, the most recently placed writer —
// Root standing for "nobody has written this yet, the initial version is
// still active" (spec.md §4.7.7: "active_write[x]"). It is an undo stack
// per variable so BacktrackBookKeeping can restore the prior writer
// without needing to know which vertex is being undone (the engine calls
// it with the prefix already shortened — spec.md §4.7.1).
type activeWrite struct {
	current map[history.Variable]history.TransactionId
	undo    []map[history.Variable]history.TransactionId // one snapshot delta per placed vertex
}

func newActiveWrite() *activeWrite {
	return &activeWrite{current: make(map[history.Variable]history.TransactionId)}
}

func (a *activeWrite) get(x history.Variable) history.TransactionId {
	if w, ok := a.current[x]; ok {
		return w
	}
	return history.Root
}

// push records this vertex's writes, remembering the prior writer for
// each so pop can restore it.
func (a *activeWrite) push(info history.AtomicTransactionInfo, v history.TransactionId) {
	delta := make(map[history.Variable]history.TransactionId, len(info.Writes))
	for x := range info.Writes {
		delta[x] = a.get(x)
		a.current[x] = v
	}
	a.undo = append(a.undo, delta)
}

func (a *activeWrite) pop() {
	n := len(a.undo) - 1
	delta := a.undo[n]
	a.undo = a.undo[:n]
	for x, prior := range delta {
		a.current[x] = prior
	}
}

// installedVersion returns the version writer installs for x, or
// NoVersion if writer is Root (the initial value).
func installedVersion(po *history.AtomicTransactionPO, writer history.TransactionId, x history.Variable) history.Version {
	if writer.IsRoot() {
		return history.NoVersion
	}
	return po.Info[writer].Writes[x]
}

// readSatisfied reports whether every read in info is satisfied by aw's
// current active-write state.
func readSatisfied(po *history.AtomicTransactionPO, aw *activeWrite, info history.AtomicTransactionInfo) bool {
	for x, observed := range info.Reads {
		writer := aw.get(x)
		if observed != installedVersion(po, writer, x) {
			return false
		}
	}
	return true
}
