package solver

import (
	"encoding/binary"

	"github.com/arjunkc/isocheck/history"
	"github.com/arjunkc/isocheck/linearize"
)

// Phase distinguishes the two halves of a transaction's lifetime under
// Snapshot Isolation: the point its snapshot is taken (Read) and the
// point its writes become visible to later snapshots (Write). Splitting
// each transaction into two vertices is what lets the DFS engine express
// "this transaction's writes happen later than its own snapshot, but
// other transactions may interleave between the two" (spec.md §4.7.7).
type Phase int

const (
	ReadPhase Phase = iota
	WritePhase
)

func (p Phase) String() string {
	if p == WritePhase {
		return "write"
	}
	return "read"
}

// PhaseVertex is one (transaction, phase) pair — the vertex type the
// Snapshot Isolation solver searches over.
type PhaseVertex struct {
	Tx    history.TransactionId
	Phase Phase
}

// Less orders by transaction id first, Read before Write within a
// transaction — the deterministic tiebreak graph.Ordered requires.
func (p PhaseVertex) Less(other any) bool {
	o := other.(PhaseVertex)
	if p.Tx != o.Tx {
		return p.Tx.Less(o.Tx)
	}
	return p.Phase < o.Phase
}

// SnapshotIsolation decides the Snapshot Isolation consistency level
// (spec.md §4.7.7): a transaction's snapshot (its Read phase) must be
// satisfied by whichever writes are active when the snapshot is taken,
// exactly like Serializable's read rule — but its Write phase may be
// delayed behind other transactions' Read phases, so long as no two
// transactions concurrently hold the same variable open for writing
// (first-committer-wins: write-write conflicts between concurrently
// active transactions are forbidden).
type SnapshotIsolation struct {
	po   *history.AtomicTransactionPO
	opts linearize.SearchOptions

	aw     *activeWrite
	active map[history.Variable]map[history.TransactionId]bool
	undo   []func()
}

// NewSnapshotIsolation builds a Snapshot Isolation solver over po.
func NewSnapshotIsolation(po *history.AtomicTransactionPO, opts linearize.SearchOptions) *SnapshotIsolation {
	return &SnapshotIsolation{
		po:     po,
		opts:   opts,
		aw:     newActiveWrite(),
		active: make(map[history.Variable]map[history.TransactionId]bool),
	}
}

func (s *SnapshotIsolation) Vertices() []PhaseVertex {
	ids := transactionIds(s.po)
	out := make([]PhaseVertex, 0, 2*len(ids))
	for _, id := range ids {
		out = append(out, PhaseVertex{id, ReadPhase}, PhaseVertex{id, WritePhase})
	}
	return out
}

func (s *SnapshotIsolation) ParentsOf(v PhaseVertex) []PhaseVertex {
	if v.Phase == WritePhase {
		return []PhaseVertex{{v.Tx, ReadPhase}}
	}
	seen := make(map[history.TransactionId]bool)
	var parents []PhaseVertex
	add := func(tx history.TransactionId) {
		if tx.IsRoot() || seen[tx] {
			return
		}
		seen[tx] = true
		parents = append(parents, PhaseVertex{tx, WritePhase})
	}
	for _, w := range s.po.WRUnion.In(v.Tx) {
		add(w)
	}
	for _, p := range s.po.SessionOrder.In(v.Tx) {
		add(p)
	}
	return parents
}

func (s *SnapshotIsolation) ChildrenOf(v PhaseVertex) []PhaseVertex {
	if v.Phase == ReadPhase {
		return []PhaseVertex{{v.Tx, WritePhase}}
	}
	seen := make(map[history.TransactionId]bool)
	var children []PhaseVertex
	add := func(tx history.TransactionId) {
		if tx.IsRoot() || seen[tx] {
			return
		}
		seen[tx] = true
		children = append(children, PhaseVertex{tx, ReadPhase})
	}
	for _, c := range s.po.WRUnion.Out(v.Tx) {
		add(c)
	}
	for _, c := range s.po.SessionOrder.Out(v.Tx) {
		add(c)
	}
	return children
}

func (s *SnapshotIsolation) AllowNext(_ []PhaseVertex, v PhaseVertex) bool {
	if v.Phase == ReadPhase {
		return readSatisfied(s.po, s.aw, s.po.Info[v.Tx])
	}
	info := s.po.Info[v.Tx]
	for x := range info.Writes {
		for other := range s.active[x] {
			if other != v.Tx {
				return false
			}
		}
	}
	return true
}

func (s *SnapshotIsolation) ForwardBookKeeping(prefix []PhaseVertex) {
	v := prefix[len(prefix)-1]
	tx := v.Tx

	if v.Phase == ReadPhase {
		info := s.po.Info[tx]
		vars := make([]history.Variable, 0, len(info.Writes))
		for x := range info.Writes {
			if s.active[x] == nil {
				s.active[x] = make(map[history.TransactionId]bool)
			}
			s.active[x][tx] = true
			vars = append(vars, x)
		}
		s.undo = append(s.undo, func() {
			for _, x := range vars {
				delete(s.active[x], tx)
			}
		})
		return
	}

	info := s.po.Info[tx]
	s.aw.push(info, tx)
	vars := make([]history.Variable, 0, len(info.Writes))
	for x := range info.Writes {
		delete(s.active[x], tx)
		vars = append(vars, x)
	}
	s.undo = append(s.undo, func() {
		s.aw.pop()
		for _, x := range vars {
			if s.active[x] == nil {
				s.active[x] = make(map[history.TransactionId]bool)
			}
			s.active[x][tx] = true
		}
	})
}

func (s *SnapshotIsolation) BacktrackBookKeeping(_ []PhaseVertex) {
	n := len(s.undo) - 1
	undo := s.undo[n]
	s.undo = s.undo[:n]
	undo()
}

func (s *SnapshotIsolation) SearchOptions() linearize.SearchOptions { return s.opts }

// BranchScore prefers placing a Write-phase vertex that will satisfy
// variables pending in other frontier transactions' Read phases. Every
// Read-phase vertex scores 0.
func (s *SnapshotIsolation) BranchScore(_ []PhaseVertex, frontier []PhaseVertex, candidate PhaseVertex) float64 {
	if candidate.Phase != WritePhase {
		return 0
	}
	var score float64
	cwrites := s.po.Info[candidate.Tx].Writes
	for _, other := range frontier {
		if other.Phase != ReadPhase || other.Tx == candidate.Tx {
			continue
		}
		for x, want := range s.po.Info[other.Tx].Reads {
			if installed, writes := cwrites[x]; writes && installed == want {
				score++
			}
		}
	}
	return score
}

func (s *SnapshotIsolation) FrontierSignature(_ []PhaseVertex, frontier []PhaseVertex) linearize.Signature {
	var acc linearize.Signature
	for _, v := range frontier {
		acc = acc.XOR(s.ZobristValue(v))
	}
	acc = acc.XOR(activeWriteSignature(s.opts.Seed, s.aw))
	acc = acc.XOR(activeVariableSignature(s.opts.Seed, s.active))
	return acc
}

func (s *SnapshotIsolation) ShouldPrune(_ []PhaseVertex, _ []PhaseVertex) bool { return false }

func (s *SnapshotIsolation) ZobristValue(v PhaseVertex) linearize.Signature {
	var b [17]byte
	binary.LittleEndian.PutUint64(b[0:8], v.Tx.SessionId)
	binary.LittleEndian.PutUint64(b[8:16], v.Tx.SessionHeight)
	b[16] = byte(v.Phase)
	return linearize.ZobristTag(s.opts.Seed, b[:])
}

// Witness is the Snapshot Isolation result: the full read/write-phase
// interleaving, plus the derived order its writes became visible in
// (the projection every other level's ExtractWitness already returns).
type Witness struct {
	Order       []PhaseVertex
	CommitOrder []history.TransactionId
}

func (s *SnapshotIsolation) ExtractWitness(order []PhaseVertex) any {
	w := Witness{Order: append([]PhaseVertex{}, order...)}
	for _, v := range order {
		if v.Phase == WritePhase {
			w.CommitOrder = append(w.CommitOrder, v.Tx)
		}
	}
	return w
}

func activeVariableSignature(seed uint64, active map[history.Variable]map[history.TransactionId]bool) linearize.Signature {
	vars := make([]history.Variable, 0, len(active))
	for x := range active {
		vars = append(vars, x)
	}
	for i := 1; i < len(vars); i++ {
		for j := i; j > 0 && vars[j] < vars[j-1]; j-- {
			vars[j], vars[j-1] = vars[j-1], vars[j]
		}
	}
	var acc linearize.Signature
	for _, x := range vars {
		txs := make([]history.TransactionId, 0, len(active[x]))
		for tx := range active[x] {
			txs = append(txs, tx)
		}
		for i := 1; i < len(txs); i++ {
			for j := i; j > 0 && txs[j].Less(txs[j-1]); j-- {
				txs[j], txs[j-1] = txs[j-1], txs[j]
			}
		}
		for _, tx := range txs {
			var b [24]byte
			binary.LittleEndian.PutUint64(b[0:8], uint64(x))
			binary.LittleEndian.PutUint64(b[8:16], tx.SessionId)
			binary.LittleEndian.PutUint64(b[16:24], tx.SessionHeight)
			acc = acc.XOR(linearize.ZobristTag(seed, b[:]))
		}
	}
	return acc
}
