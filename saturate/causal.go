package saturate

import (
	"github.com/arjunkc/isocheck/graph"
	"github.com/arjunkc/isocheck/history"
)

// Causal implements spec.md §4.5's Causal level: Atomic Read's rule, plus
// the ww (write-write) and rw (read-write anti-dependency) axioms, applied
// to fixpoint against a visibility relation that Run keeps transitively
// closed throughout via IncrementalClosure.
//
// Only committed *writers* of a variable are eligible as t1/t2 in ww/rw —
// a reader-only vertex that merely appears as a write-read target must
// never be treated as if it wrote the variable, or the rules manufacture
// spurious cycles (spec.md §4.5).
type Causal struct{}

func (Causal) DeriveEdges(v *graph.DiGraph[history.TransactionId], po *history.AtomicTransactionPO) []graph.Edge[history.TransactionId] {
	vars := allVariables(po)
	var edges []graph.Edge[history.TransactionId]
	for _, x := range vars {
		for _, y := range vars {
			edges = append(edges, forbidStaleReadAcrossVariables(v, po, x, y)...)
		}
		edges = append(edges, wwEdges(v, po, x)...)
		edges = append(edges, rwEdges(v, po, x)...)
	}
	return edges
}

// wwEdges: if t1 -> t2 in V and both write x, then t1 must also precede
// every reader of t2's version of x (the write-write order is preserved
// forward onto the later write's readers).
func wwEdges(v *graph.DiGraph[history.TransactionId], po *history.AtomicTransactionPO, x history.Variable) []graph.Edge[history.TransactionId] {
	writers := committedWriters(po, x)
	var edges []graph.Edge[history.TransactionId]
	for _, t1 := range writers {
		for _, t2 := range writers {
			if t1 == t2 || !v.HasEdge(t1, t2) {
				continue
			}
			for _, r := range readersOf(po, x, t2) {
				if !v.HasEdge(t1, r) {
					edges = append(edges, graph.Edge[history.TransactionId]{From: t1, To: r})
				}
			}
		}
	}
	return edges
}

// rwEdges: if t1 reads x from w1 and another writer t2 of x has t2 -> t1
// in V, then t2 -> w1 (a write of x visible to t1 must precede the write
// t1 actually observed, or t1 would have read t2's version instead).
func rwEdges(v *graph.DiGraph[history.TransactionId], po *history.AtomicTransactionPO, x history.Variable) []graph.Edge[history.TransactionId] {
	var edges []graph.Edge[history.TransactionId]
	writers := committedWriters(po, x)

	// w1 ranges over Root plus every real committed writer of x: Root is
	// the implicit installer of x's initial version and participates in
	// WriteReadRelation[x] as such.
	candidates := append([]history.TransactionId{history.Root}, writers...)
	for _, w1 := range candidates {
		for _, t1 := range readersOf(po, x, w1) {
			for _, t2 := range writers {
				if t2 == w1 {
					continue
				}
				if v.HasEdge(t2, t1) && !v.HasEdge(t2, w1) {
					edges = append(edges, graph.Edge[history.TransactionId]{From: t2, To: w1})
				}
			}
		}
	}
	return edges
}
