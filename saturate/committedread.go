package saturate

import (
	"github.com/arjunkc/isocheck/graph"
	"github.com/arjunkc/isocheck/history"
)

// CommittedRead implements the Committed Read rule of spec.md §4.5: for
// each variable x, for each committed writer t1 of x and each committed
// reader t2 of the version t1 installed, any other committed writer t3 of
// x must end up ordered either before t1 or after t2. The rule only ever
// *derives* an edge — it never guesses — so it fires exactly when V
// already forces the "t3 after t1" side of that choice, in which case the
// only consistent remaining option is "t2 before t3", which it adds.
type CommittedRead struct{}

func (CommittedRead) DeriveEdges(v *graph.DiGraph[history.TransactionId], po *history.AtomicTransactionPO) []graph.Edge[history.TransactionId] {
	var edges []graph.Edge[history.TransactionId]
	for _, x := range allVariables(po) {
		edges = append(edges, forbidStaleRead(v, po, x, x)...)
	}
	return edges
}

// forbidStaleRead is CommittedRead's rule, called with y == x (AtomicRead
// and Causal use forbidStaleReadAcrossVariables, the variant restricted to
// readers that also read y): for each wr edge t1 -> t2 on x,
// and each other committed writer t3 of y (t3 != t1), derive t2 -> t3
// whenever V already has t1 -> t3 (see CommittedRead's doc comment for
// why that's the only sound direction to derive).
func forbidStaleRead(v *graph.DiGraph[history.TransactionId], po *history.AtomicTransactionPO, x, y history.Variable) []graph.Edge[history.TransactionId] {
	var edges []graph.Edge[history.TransactionId]
	for _, t1 := range committedWriters(po, x) {
		for _, t2 := range readersOf(po, x, t1) {
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
