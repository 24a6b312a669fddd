package decompose

import (
	"github.com/arjunkc/isocheck/graph"
	"github.com/arjunkc/isocheck/history"
)

// sessionVertex adapts a raw session id to graph.Ordered so the
// communication graph can reuse the same Undirected/BCC machinery as
// everything else in this module.
type sessionVertex uint64

func (s sessionVertex) Less(other any) bool {
	return s < other.(sessionVertex)
}

// CommGraph builds the undirected communication graph over h's sessions
// (spec.md §4.6): two distinct sessions are adjacent iff some write-read
// edge of po crosses between a transaction of one and a transaction of
// the other. Sessions with no cross-session reads are still added as
// isolated vertices, so they surface as their own singleton component.
func CommGraph(h history.History, po *history.AtomicTransactionPO) *graph.Undirected[sessionVertex] {
	g := graph.NewUndirected[sessionVertex]()
	for i := range h.Sessions {
		g.AddVertex(sessionVertex(i + 1))
	}
	for _, e := range po.WRUnion.ToEdgeList() {
		if e.From.IsRoot() || e.To.IsRoot() {
			continue
		}
		if e.From.SessionId == e.To.SessionId {
			continue
		}
		g.AddEdge(sessionVertex(e.From.SessionId), sessionVertex(e.To.SessionId))
	}
	return g
}
