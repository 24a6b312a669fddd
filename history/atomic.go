package history

import "github.com/arjunkc/isocheck/graph"

// AtomicTransactionInfo is the per-transaction summary the atomic partial
// order is built from: which variables were read (and the version
// observed, NoVersion meaning "initial") and which were written (and the
// version installed).
type AtomicTransactionInfo struct {
	Reads     map[Variable]Version
	Writes    map[Variable]Version
	Committed bool
}

// AtomicTransactionPO is the derived partial order: the four digraphs of
// spec.md §3 plus the per-transaction info they were built from.
type AtomicTransactionPO struct {
	Info map[TransactionId]AtomicTransactionInfo

	SessionOrder      *graph.DiGraph[TransactionId]
	WriteReadRelation map[Variable]*graph.DiGraph[TransactionId]
	WRUnion           *graph.DiGraph[TransactionId]
	VisibilityRelation *graph.DiGraph[TransactionId]

	// CycleEdge is set (HasCycleEdge=true) when closing session_order ∪
	// wr_union was already cyclic — the history is inconsistent at the
	// causal level before any saturation rule has even run (spec.md
	// §4.4, "Correctness check returned to caller").
	CycleEdge    graph.Edge[TransactionId]
	HasCycleEdge bool
}

// BuildAtomicPO translates h (assumed already validated by Validate) into
// its atomic partial order.
func BuildAtomicPO(h History) *AtomicTransactionPO {
	po := &AtomicTransactionPO{
		Info:              make(map[TransactionId]AtomicTransactionInfo),
		WriteReadRelation: make(map[Variable]*graph.DiGraph[TransactionId]),
	}

	ids := h.AllTransactionIds()
	writerOf := make(map[versionKey]TransactionId)

	for _, id := range ids {
		tx, _ := h.TransactionAt(id)
		info := AtomicTransactionInfo{
			Reads:     make(map[Variable]Version),
			Writes:    make(map[Variable]Version),
			Committed: tx.Committed,
		}
		for _, ev := range tx.Events {
			switch ev.Kind {
			case ReadEvent:
				info.Reads[ev.Variable] = ev.Version
			case WriteEvent:
				info.Writes[ev.Variable] = ev.Version
				if tx.Committed {
					writerOf[versionKey{ev.Variable, ev.Version}] = id
				}
			}
		}
		po.Info[id] = info
	}

	po.SessionOrder = buildSessionOrderChains(h)

	variables := allVariables(po.Info)
	for _, x := range variables {
		wr := graph.New[TransactionId]()
		wr.AddVertex(Root)
		for _, id := range ids {
			info := po.Info[id]
			if !info.Committed {
				continue
			}
			observed, read := info.Reads[x]
			if !read {
				continue
			}
			if observed == NoVersion {
				// Root is the implicit installer of every variable's
				// initial version (spec.md §3, TransactionId invariants).
				wr.AddEdge(Root, id)
				continue
			}
			writer, known := writerOf[versionKey{x, observed}]
			if !known {
				// Validator should have rejected this; defensive no-op
				// keeps the builder total over already-validated input.
				continue
			}
			wr.AddEdge(writer, id)
		}
		po.WriteReadRelation[x] = wr
	}

	po.WRUnion = graph.New[TransactionId]()
	po.WRUnion.AddVertex(Root)
	for _, id := range ids {
		po.WRUnion.AddVertex(id)
	}
	for _, wr := range po.WriteReadRelation {
		po.WRUnion.Union(wr)
	}

	visibility := graph.New[TransactionId]()
	visibility.Union(po.SessionOrder)
	visibility.Union(po.WRUnion)
	closed, _ := visibility.ClosureWithChange()
	po.VisibilityRelation = closed

	if e, ok := closed.FindCycleEdge(); ok {
		po.CycleEdge, po.HasCycleEdge = e, true
	}

	return po
}

// buildSessionOrderChains constructs session_order directly as its
// transitive closure: a forest of chains rooted at Root, where each
// chain's closure is exact in O(S·T²) (spec.md §4.4, "chain closure
// optimization" — mandatory for large histories instead of a generic
// closure pass).
func buildSessionOrderChains(h History) *graph.DiGraph[TransactionId] {
	so := graph.New[TransactionId]()
	so.AddVertex(Root)

	for si, sess := range h.Sessions {
		sessionId := uint64(si + 1)
		n := len(sess.Transactions)
		chain := make([]TransactionId, n)
		for hi := 0; hi < n; hi++ {
			chain[hi] = TransactionId{SessionId: sessionId, SessionHeight: uint64(hi)}
			so.AddVertex(chain[hi])
		}
		for i := 0; i < n; i++ {
			so.AddEdge(Root, chain[i])
			for j := i + 1; j < n; j++ {
				so.AddEdge(chain[i], chain[j])
			}
		}
	}
	return so
}

func allVariables(info map[TransactionId]AtomicTransactionInfo) []Variable {
	seen := make(map[Variable]bool)
	var out []Variable
	for _, i := range info {
		for v := range i.Reads {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
		for v := range i.Writes {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	// Deterministic order: sort ascending (Variable is a plain uint64).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
