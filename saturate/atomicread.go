package saturate

import (
	"github.com/arjunkc/isocheck/graph"
	"github.com/arjunkc/isocheck/history"
)

// AtomicRead implements spec.md §4.5's Atomic Read level: Committed Read's
// per-variable rule, generalized so that a wr edge t1 -> t2 on variable x
// also constrains every other committed writer of any variable y that t2
// reads — not only x. This is what makes "if t2 reads from t1, all of
// t1's writes are visible to t2": any committed writer of a different
// variable y that t2 observed is now in the same forbidden-cycle check
// that CommittedRead restricted to y == x.
type AtomicRead struct{}

func (AtomicRead) DeriveEdges(v *graph.DiGraph[history.TransactionId], po *history.AtomicTransactionPO) []graph.Edge[history.TransactionId] {
	vars := allVariables(po)
	var edges []graph.Edge[history.TransactionId]
	for _, x := range vars {
		for _, y := range vars {
			edges = append(edges, forbidStaleReadAcrossVariables(v, po, x, y)...)
		}
	}
	return edges
}

// forbidStaleReadAcrossVariables is forbidStaleRead, but restricted to wr
// edges on x whose reader t2 also reads y (so the cross-variable
// constraint only applies where it's actually meaningful).
func forbidStaleReadAcrossVariables(v *graph.DiGraph[history.TransactionId], po *history.AtomicTransactionPO, x, y history.Variable) []graph.Edge[history.TransactionId] {
	var edges []graph.Edge[history.TransactionId]
	for _, t1 := range committedWriters(po, x) {
		for _, t2 := range readersOf(po, x, t1) {
			if _, readsY := po.Info[t2].Reads[y]; !readsY {
				continue
			}
			for _, t3 := range committedWriters(po, y) {
				if t3 == t1 {
					continue
				}
				if v.HasEdge(t1, t3) && !v.HasEdge(t2, t3) {
					edges = append(edges, graph.Edge[history.TransactionId]{From: t2, To: t3})
				}
			}
		}
	}
	return edges
}
