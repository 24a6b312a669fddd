// Package saturate implements the three polynomial-time consistency
// checkers — Committed Read, Atomic Read, Causal — as iterative
// edge-closure-to-fixpoint over the visibility digraph (spec.md §4.5).
//
// All three share one skeleton (Run) and differ only in which edges a
// Rules implementation derives each iteration. This mirrors the teacher's
// database.go: complete/isVisible both cascade through the same
// isolation-level ladder, applying strictly more restriction at each tier;
// here AtomicRead's Rules literally reuse CommittedRead's per-variable
// check generalized across all variables, and Causal's Rules add the ww/rw
// axioms on top of AtomicRead's.
package saturate

import (
	"github.com/sirupsen/logrus"

	"github.com/arjunkc/isocheck/graph"
	"github.com/arjunkc/isocheck/history"
)

// CycleError reports that saturation closed the visibility graph into a
// cycle. It carries no level — the caller (the root check dispatcher)
// knows which level it asked for and attaches that to the public Error.
type CycleError struct {
	A, B history.TransactionId
}

func (e *CycleError) Error() string {
	return "saturation cycle: " + e.A.String() + " -> " + e.B.String()
}

// Rules derives new visibility edges from the current state each
// iteration of the fixpoint loop.
type Rules interface {
	DeriveEdges(v *graph.DiGraph[history.TransactionId], po *history.AtomicTransactionPO) []graph.Edge[history.TransactionId]
}

// Result is a successful saturation: the closed, acyclic visibility graph.
type Result struct {
	Visibility *graph.DiGraph[history.TransactionId]
}

// Run executes the shared fixpoint skeleton (spec.md §4.5) against po's
// visibility relation, using rules to derive new edges each pass. log may
// be nil (use tracelog.Entry(nil) upstream to get a discarding logger).
func Run(po *history.AtomicTransactionPO, rules Rules, log *logrus.Entry) (*Result, *CycleError) {
	v := graph.New[history.TransactionId]()
	v.Union(po.VisibilityRelation)

	for iteration := 0; ; iteration++ {
		candidates := rules.DeriveEdges(v, po)
		added := v.IncrementalClosure(candidates)

		if log != nil {
			log.WithFields(logrus.Fields{
				"iteration":  iteration,
				"candidates": len(candidates),
				"added":      len(added),
			}).Debug("saturation pass")
		}

		if e, ok := v.FindCycleEdge(); ok {
			return nil, &CycleError{A: e.From, B: e.To}
		}
		if len(added) == 0 {
			return &Result{Visibility: v}, nil
		}
	}
}

// allVariables returns every variable touched by po, sorted ascending.
func allVariables(po *history.AtomicTransactionPO) []history.Variable {
	vars := make([]history.Variable, 0, len(po.WriteReadRelation))
	for x := range po.WriteReadRelation {
		vars = append(vars, x)
	}
	for i := 1; i < len(vars); i++ {
		for j := i; j > 0 && vars[j] < vars[j-1]; j-- {
			vars[j], vars[j-1] = vars[j-1], vars[j]
		}
	}
	return vars
}

// committedWriters returns, for variable x, every committed transaction
// that installs a version of x (sorted by TransactionId for determinism).
func committedWriters(po *history.AtomicTransactionPO, x history.Variable) []history.TransactionId {
	var writers []history.TransactionId
	for id, info := range po.Info {
		if !info.Committed {
			continue
		}
		if _, wrote := info.Writes[x]; wrote {
			writers = append(writers, id)
		}
	}
	sortIds(writers)
	return writers
}

// readersOf returns every vertex with an incoming edge from writer in the
// per-variable write-read relation — i.e. every committed reader of the
// version writer installed for x.
func readersOf(po *history.AtomicTransactionPO, x history.Variable, writer history.TransactionId) []history.TransactionId {
	wr, ok := po.WriteReadRelation[x]
	if !ok {
		return nil
	}
	return wr.Out(writer)
}

func sortIds(ids []history.TransactionId) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j].Less(ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
