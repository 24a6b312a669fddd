// Package decompose implements the communication-graph decomposition of
// spec.md §4.6: partitioning an NP-complete-level check into
// independently-solvable sub-problems via biconnected components of the
// session communication graph, projecting the atomic partial order onto
// each, and merging sub-witnesses back together. It is deliberately
// mechanical — it knows nothing about DFS search or any particular
// consistency level; the root package drives the recursive solve and
// hands this package only graphs and TransactionId sequences.
package decompose

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/arjunkc/isocheck/graph"
	"github.com/arjunkc/isocheck/history"
)

// Partition is one independently-solvable communication-graph component:
// the set of real session ids it contains.
type Partition struct {
	Sessions map[uint64]bool
}

// Plan is the result of attempting decomposition. Unsafe is set when the
// communication graph's biconnected components share an articulation
// session: projections would lose writer context, so the whole
// (undecomposed) problem must be solved instead (spec.md §4.6).
type Plan struct {
	Partitions []Partition
	Unsafe     bool

	// Diagnostics aggregates one entry per articulation session when
	// Unsafe is set, for tracelog; callers never need to inspect it to
	// decide what to do next (Unsafe alone is the complete decision).
	Diagnostics error
}

// Decompose builds the communication graph over h and reports how it
// splits into independent partitions, or that it is unsafe to split.
func Decompose(h history.History, po *history.AtomicTransactionPO) Plan {
	g := CommGraph(h, po)
	bcc := graph.BCC(g)

	if len(bcc.ArticulationPoints) > 0 {
		var merr *multierror.Error
		for v := range bcc.ArticulationPoints {
			merr = multierror.Append(merr, fmt.Errorf(
				"session %d is shared between biconnected components: decomposition unsafe", v))
		}
		return Plan{Unsafe: true, Diagnostics: merr.ErrorOrNil()}
	}

	seen := make(map[sessionVertex]bool)
	var partitions []Partition
	for _, comp := range bcc.Components {
		sessions := make(map[uint64]bool)
		for _, e := range comp {
			sessions[uint64(e.From)] = true
			sessions[uint64(e.To)] = true
			seen[e.From] = true
			seen[e.To] = true
		}
		partitions = append(partitions, Partition{Sessions: sessions})
	}
	for _, v := range g.Vertices() {
		if seen[v] {
			continue
		}
		partitions = append(partitions, Partition{Sessions: map[uint64]bool{uint64(v): true}})
	}

	sort.Slice(partitions, func(i, j int) bool {
		return minSession(partitions[i]) < minSession(partitions[j])
	})

	return Plan{Partitions: partitions}
}

func minSession(p Partition) uint64 {
	min := ^uint64(0)
	for s := range p.Sessions {
		if s < min {
			min = s
		}
	}
	return min
}

// Project returns the sub-history containing only sessions. Excluded
// sessions are kept as empty placeholders rather than removed, so every
// session keeps its original id — which makes "remapping a sub-witness's
// TransactionIds back to their original identities" (spec.md §4.6) the
// identity function; the recursive check on the projection produces
// TransactionIds already in the caller's numbering.
func Project(h history.History, sessions map[uint64]bool) history.History {
	out := history.History{Sessions: make([]history.Session, len(h.Sessions))}
	for i, sess := range h.Sessions {
		sid := uint64(i + 1)
		if sessions[sid] {
			out.Sessions[i] = sess
		}
	}
	return out
}

// MergeCommitOrders concatenates independent components' CommitOrder
// witnesses, prefixed by a single Root (spec.md §8, testable property 6:
// "Root precedes every other TransactionId in every returned witness").
// Callers must supply orders already in the Plan's partition order so the
// concatenation respects inter-component session independence.
func MergeCommitOrders(orders [][]history.TransactionId) []history.TransactionId {
	merged := []history.TransactionId{history.Root}
	for _, o := range orders {
		for _, id := range o {
			if id.IsRoot() {
				continue
			}
			merged = append(merged, id)
		}
	}
	return merged
}

// MergeSaturationOrders unions independent components' saturation-order
// visibility digraphs (spec.md §4.6: "merge by union, for SaturationOrder").
// Polynomial levels never decompose (§4.8 step 4 runs them directly), so
// this exists for the case a future caller composes a saturation result
// from sub-projections rather than because the current dispatcher calls it.
func MergeSaturationOrders(graphs []*graph.DiGraph[history.TransactionId]) *graph.DiGraph[history.TransactionId] {
	out := graph.New[history.TransactionId]()
	for _, g := range graphs {
		out.Union(g)
	}
	return out
}

// realSessions reports the ids of every session in h with at least one
// transaction.
func realSessions(h history.History) []uint64 {
	var ids []uint64
	for i, sess := range h.Sessions {
		if len(sess.Transactions) > 0 {
			ids = append(ids, uint64(i+1))
		}
	}
	return ids
}

// SingletonWitness synthesizes the trivial CommitOrder witness for a
// sub-history with exactly one real session directly from its session
// order — no DFS needed, since one session's own chain is already a valid
// total order (spec.md §4.6, "Singleton fast-path").
func SingletonWitness(h history.History) ([]history.TransactionId, bool) {
	ids := realSessions(h)
	if len(ids) != 1 {
		return nil, false
	}
	sid := ids[0]
	sess := h.Sessions[sid-1]
	order := make([]history.TransactionId, 0, len(sess.Transactions)+1)
	order = append(order, history.Root)
	for hi := range sess.Transactions {
		order = append(order, history.TransactionId{SessionId: sid, SessionHeight: uint64(hi)})
	}
	return order, true
}

// SingletonSplitEntry is one (TransactionId, writePhase) pair — the shape
// SplitCommitOrder serializes to (spec.md §6.4), kept local to avoid this
// package depending on the solver package for a two-field tuple.
type SingletonSplitEntry struct {
	Tx    history.TransactionId
	Write bool
}

// SingletonSplitWitness is SingletonWitness's Snapshot Isolation
// counterpart: each transaction's read phase immediately followed by its
// write phase, in session order.
func SingletonSplitWitness(h history.History) ([]SingletonSplitEntry, bool) {
	ids, ok := SingletonWitness(h)
	if !ok {
		return nil, false
	}
	out := make([]SingletonSplitEntry, 0, 2*len(ids))
	out = append(out, SingletonSplitEntry{Tx: history.Root, Write: true})
	for _, id := range ids {
		if id.IsRoot() {
			continue
		}
		out = append(out, SingletonSplitEntry{Tx: id, Write: false}, SingletonSplitEntry{Tx: id, Write: true})
	}
	return out, true
}
