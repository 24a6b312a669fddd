// Package isocheck decides whether a transactional history satisfies one
// of six consistency levels, per spec.md: Committed Read, Atomic Read,
// Causal (all polynomial-time, via saturation), and Prefix, Snapshot
// Isolation, Serializable (all NP-complete, via a constrained DFS
// linearization search, with communication-graph decomposition to shrink
// the search space where safe).
//
// Check is the single public entry point (spec.md §6.1/§4.8); it is pure
// and total over any input matching its type, returning NonAtomic for
// structurally invalid histories rather than panicking.
package isocheck

import (
	"github.com/arjunkc/isocheck/decompose"
	"github.com/arjunkc/isocheck/graph"
	"github.com/arjunkc/isocheck/history"
	"github.com/arjunkc/isocheck/internal/tracelog"
	"github.com/arjunkc/isocheck/linearize"
	"github.com/arjunkc/isocheck/linearize/solver"
	"github.com/arjunkc/isocheck/saturate"
)

// Check decides whether h satisfies level (spec.md §6.1).
func Check(h history.History, level Consistency) (*Witness, *Error) {
	return checkLevel(h, level)
}

// CheckCommittedRead is the narrower form of spec.md §6.1 that returns the
// committed-order graph directly rather than wrapped in a Witness.
func CheckCommittedRead(h history.History) (*graph.DiGraph[history.TransactionId], *Error) {
	w, err := Check(h, CommittedRead)
	if err != nil {
		return nil, err
	}
	return w.SaturationOrder, nil
}

// Result pairs one level's witness with its error for CheckAll.
type Result struct {
	Witness *Witness
	Err     *Error
}

// CheckAll runs Check for every level in hierarchy order (CommittedRead ≼
// AtomicRead ≼ Causal ≼ Prefix ≼ SnapshotIsolation ≼ Serializable),
// stopping as soon as one fails: spec.md §8 testable property 3 (Hierarchy)
// guarantees a failure at a weaker level forbids success at any stronger
// one, so running the remaining levels would only reproduce the same
// failure under a different name.
func CheckAll(h history.History) map[Consistency]Result {
	levels := []Consistency{CommittedRead, AtomicRead, Causal, Prefix, SnapshotIsolation, Serializable}
	out := make(map[Consistency]Result, len(levels))
	for _, lvl := range levels {
		w, err := Check(h, lvl)
		out[lvl] = Result{Witness: w, Err: err}
		if err != nil {
			break
		}
	}
	return out
}

// checkLevel implements spec.md §4.8's dispatcher, and is also what
// decomposition recurses into for each projected sub-history.
func checkLevel(h history.History, level Consistency) (*Witness, *Error) {
	if err := history.Validate(h); err != nil {
		return nil, nonAtomicError(err)
	}
	if emptyHistory(h) {
		return &Witness{Kind: KindCommitOrder, CommitOrder: []history.TransactionId{}}, nil
	}

	po := history.BuildAtomicPO(h)
	if po.HasCycleEdge {
		// session_order ∪ wr_union was already cyclic before any saturation
		// rule ran: every level fails on it identically (spec.md §4.4,
		// "Correctness check returned to caller").
		return nil, cycleError(level, po.CycleEdge.From, po.CycleEdge.To)
	}

	switch level {
	case CommittedRead:
		return runSaturation(po, saturate.CommittedRead{}, level)
	case AtomicRead:
		return runSaturation(po, saturate.AtomicRead{}, level)
	case Causal:
		return runSaturation(po, saturate.Causal{}, level)
	default:
		return checkNPComplete(h, po, level)
	}
}

func emptyHistory(h history.History) bool {
	for _, sess := range h.Sessions {
		if len(sess.Transactions) > 0 {
			return false
		}
	}
	return true
}

func runSaturation(po *history.AtomicTransactionPO, rules saturate.Rules, level Consistency) (*Witness, *Error) {
	res, cycleErr := saturate.Run(po, rules, tracelog.Entry(nil))
	if cycleErr != nil {
		return nil, cycleError(level, cycleErr.A, cycleErr.B)
	}
	return &Witness{Kind: KindSaturationOrder, SaturationOrder: res.Visibility}, nil
}

// checkNPComplete implements spec.md §4.8 step 5: the causal prerequisite,
// the singleton fast-path, communication-graph decomposition where safe,
// and the undecomposed DFS fallback otherwise.
func checkNPComplete(h history.History, po *history.AtomicTransactionPO, level Consistency) (*Witness, *Error) {
	if _, err := runSaturation(po, saturate.Causal{}, level); err != nil {
		return nil, err
	}

	if level == SnapshotIsolation {
		if entries, ok := decompose.SingletonSplitWitness(h); ok {
			return &Witness{Kind: KindSplitCommitOrder, SplitCommitOrder: fromSingletonSplit(entries)}, nil
		}
	} else if order, ok := decompose.SingletonWitness(h); ok {
		return &Witness{Kind: KindCommitOrder, CommitOrder: order}, nil
	}

	plan := decompose.Decompose(h, po)
	if plan.Unsafe || len(plan.Partitions) <= 1 {
		if plan.Unsafe && plan.Diagnostics != nil {
			tracelog.Entry(nil).WithError(plan.Diagnostics).Debug("decomposition unsafe, solving whole history")
		}
		return solveWhole(po, level)
	}

	if level == SnapshotIsolation {
		var parts [][]SplitEntry
		for _, part := range plan.Partitions {
			w, err := checkLevel(decompose.Project(h, part.Sessions), level)
			if err != nil {
				return nil, err
			}
			parts = append(parts, w.SplitCommitOrder)
		}
		return &Witness{Kind: KindSplitCommitOrder, SplitCommitOrder: mergeSplitEntries(parts)}, nil
	}

	var orders [][]history.TransactionId
	for _, part := range plan.Partitions {
		w, err := checkLevel(decompose.Project(h, part.Sessions), level)
		if err != nil {
			return nil, err
		}
		orders = append(orders, w.CommitOrder)
	}
	return &Witness{Kind: KindCommitOrder, CommitOrder: decompose.MergeCommitOrders(orders)}, nil
}

// solveWhole dispatches to the DFS engine over po (undecomposed), driven
// by the requested level's solver (spec.md §4.7.7).
func solveWhole(po *history.AtomicTransactionPO, level Consistency) (*Witness, *Error) {
	opts := linearize.DefaultSearchOptions()
	log := tracelog.Entry(nil)

	switch level {
	case Prefix:
		s := solver.NewPrefix(po, opts)
		order, ok := linearize.NewEngine[history.TransactionId](s, log).Search()
		if !ok {
			return nil, invalidError(level)
		}
		return &Witness{Kind: KindCommitOrder, CommitOrder: prependRoot(order)}, nil
	case Serializable:
		s := solver.NewSerializable(po, opts)
		order, ok := linearize.NewEngine[history.TransactionId](s, log).Search()
		if !ok {
			return nil, invalidError(level)
		}
		return &Witness{Kind: KindCommitOrder, CommitOrder: prependRoot(order)}, nil
	case SnapshotIsolation:
		s := solver.NewSnapshotIsolation(po, opts)
		order, ok := linearize.NewEngine[solver.PhaseVertex](s, log).Search()
		if !ok {
			return nil, invalidError(level)
		}
		w := s.ExtractWitness(order).(solver.Witness)
		return &Witness{Kind: KindSplitCommitOrder, SplitCommitOrder: fromPhaseVertices(w.Order)}, nil
	default:
		panic("isocheck: solveWhole called for a non-NP-complete level")
	}
}

func prependRoot(order []history.TransactionId) []history.TransactionId {
	out := make([]history.TransactionId, 0, len(order)+1)
	out = append(out, history.Root)
	out = append(out, order...)
	return out
}

func fromPhaseVertices(order []solver.PhaseVertex) []SplitEntry {
	out := make([]SplitEntry, 0, len(order)+1)
	out = append(out, SplitEntry{Tx: history.Root, Write: true})
	for _, v := range order {
		out = append(out, SplitEntry{Tx: v.Tx, Write: v.Phase == solver.WritePhase})
	}
	return out
}

func fromSingletonSplit(entries []decompose.SingletonSplitEntry) []SplitEntry {
	out := make([]SplitEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, SplitEntry{Tx: e.Tx, Write: e.Write})
	}
	return out
}

func mergeSplitEntries(parts [][]SplitEntry) []SplitEntry {
	merged := []SplitEntry{{Tx: history.Root, Write: true}}
	for _, p := range parts {
		for _, e := range p {
			if e.Tx.IsRoot() {
				continue
			}
			merged = append(merged, e)
		}
	}
	return merged
}
