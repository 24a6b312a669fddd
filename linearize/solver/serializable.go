package solver

import (
	"encoding/binary"

	"github.com/arjunkc/isocheck/history"
	"github.com/arjunkc/isocheck/linearize"
)

// Serializable decides the Serializable consistency level (spec.md
// §4.7.7): a transaction may be placed next only if every variable it
// reads still shows the version installed by the most recently placed
// writer of that variable (or the initial version, if none has been
// placed yet).
type Serializable struct {
	po   *history.AtomicTransactionPO
	opts linearize.SearchOptions
	aw   *activeWrite
}

// NewSerializable builds a Serializable solver over po.
func NewSerializable(po *history.AtomicTransactionPO, opts linearize.SearchOptions) *Serializable {
	return &Serializable{po: po, opts: opts, aw: newActiveWrite()}
}

func (s *Serializable) Vertices() []history.TransactionId { return transactionIds(s.po) }

func (s *Serializable) ParentsOf(v history.TransactionId) []history.TransactionId {
	return realParents(s.po.SessionOrder.In(v))
}

func (s *Serializable) ChildrenOf(v history.TransactionId) []history.TransactionId {
	return s.po.SessionOrder.Out(v)
}

func (s *Serializable) AllowNext(_ []history.TransactionId, v history.TransactionId) bool {
	return readSatisfied(s.po, s.aw, s.po.Info[v])
}

func (s *Serializable) ForwardBookKeeping(prefix []history.TransactionId) {
	v := prefix[len(prefix)-1]
	s.aw.push(s.po.Info[v], v)
}

func (s *Serializable) BacktrackBookKeeping(_ []history.TransactionId) {
	s.aw.pop()
}

func (s *Serializable) SearchOptions() linearize.SearchOptions { return s.opts }

// BranchScore prefers placing a transaction whose own writes will satisfy
// other, already-frontier transactions' reads — i.e. candidates that
// relieve outstanding dependency pressure (spec.md §4.7.6).
func (s *Serializable) BranchScore(_ []history.TransactionId, frontier []history.TransactionId, candidate history.TransactionId) float64 {
	var score float64
	cwrites := s.po.Info[candidate].Writes
	for _, other := range frontier {
		if other == candidate {
			continue
		}
		for x, want := range s.po.Info[other].Reads {
			if installed, writes := cwrites[x]; writes && installed == want {
				score++
			}
		}
	}
	return score
}

func (s *Serializable) FrontierSignature(_ []history.TransactionId, frontier []history.TransactionId) linearize.Signature {
	var acc linearize.Signature
	for _, v := range frontier {
		acc = acc.XOR(s.ZobristValue(v))
	}
	acc = acc.XOR(activeWriteSignature(s.opts.Seed, s.aw))
	return acc
}

func (s *Serializable) ShouldPrune(_ []history.TransactionId, _ []history.TransactionId) bool {
	return false
}

func (s *Serializable) ZobristValue(v history.TransactionId) linearize.Signature {
	return linearize.ZobristTag(s.opts.Seed, encodeTxId(v))
}

func (s *Serializable) ExtractWitness(order []history.TransactionId) any {
	return append([]history.TransactionId{}, order...)
}

func encodeTxId(v history.TransactionId) []byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], v.SessionId)
	binary.LittleEndian.PutUint64(b[8:16], v.SessionHeight)
	return b[:]
}

// activeWriteSignature deterministically hashes aw's current state —
// every solver's FrontierSignature must mix this in, or two frontiers
// that look identical as vertex sets but differ in which writer is
// "active" for some variable would alias in the memo/nogood tables
// (spec.md §9, Open Question on transposition aliasing).
func activeWriteSignature(seed uint64, aw *activeWrite) linearize.Signature {
	vars := make([]history.Variable, 0, len(aw.current))
	for x := range aw.current {
		vars = append(vars, x)
	}
	for i := 1; i < len(vars); i++ {
		for j := i; j > 0 && vars[j] < vars[j-1]; j-- {
			vars[j], vars[j-1] = vars[j-1], vars[j]
		}
	}

	var acc linearize.Signature
	for _, x := range vars {
		w := aw.current[x]
		var b [24]byte
		binary.LittleEndian.PutUint64(b[0:8], uint64(x))
		binary.LittleEndian.PutUint64(b[8:16], w.SessionId)
		binary.LittleEndian.PutUint64(b[16:24], w.SessionHeight)
		acc = acc.XOR(linearize.ZobristTag(seed, b[:]))
	}
	return acc
}
