package solver

import (
	"encoding/binary"

	"github.com/arjunkc/isocheck/history"
	"github.com/arjunkc/isocheck/linearize"
)

// writeRecord is one committed write to a variable, in the order it was
// placed by the search.
type writeRecord struct {
	writer   history.TransactionId
	version  history.Version
	placedAt int
}

// writeLog tracks, per variable, every write placed so far, in placement
// order, so Prefix can ask "during which span of placement indices was
// this version the active one for x" — Prefix allows a transaction's
// reads to reflect any single earlier snapshot, not only the
// immediately-preceding writer (spec.md §4.7.7).
type writeLog struct {
	records map[history.Variable][]writeRecord
}

func newWriteLog() *writeLog {
	return &writeLog{records: make(map[history.Variable][]writeRecord)}
}

func (w *writeLog) append(x history.Variable, writer history.TransactionId, version history.Version, placedAt int) {
	w.records[x] = append(w.records[x], writeRecord{writer: writer, version: version, placedAt: placedAt})
}

func (w *writeLog) truncate(x history.Variable, toLen int) {
	w.records[x] = w.records[x][:toLen]
}

const infinity = int(^uint(0) >> 1)

// activeSpan returns [low, high) — the span of placement indices during
// which version was the active write for x — or ok=false if version was
// never (yet) placed for x. NoVersion (the initial value) is active from
// 0 until the first real write.
func (w *writeLog) activeSpan(x history.Variable, version history.Version) (low, high int, ok bool) {
	recs := w.records[x]
	if version == history.NoVersion {
		high = infinity
		if len(recs) > 0 {
			high = recs[0].placedAt
		}
		return 0, high, true
	}
	for i, r := range recs {
		if r.version == version {
			high = infinity
			if i+1 < len(recs) {
				high = recs[i+1].placedAt
			}
			return r.placedAt, high, true
		}
	}
	return 0, 0, false
}

// Prefix decides the Prefix consistency level (spec.md §4.7.7): a
// transaction may be placed once there exists a single earlier point in
// the emerging order — the same point for every variable it reads — at
// which all of its observed versions were simultaneously the active
// write. This is strictly weaker than Serializable's "must match the
// single most-recently-placed writer" rule.
type Prefix struct {
	po   *history.AtomicTransactionPO
	opts linearize.SearchOptions
	log  *writeLog
}

// NewPrefix builds a Prefix solver over po.
func NewPrefix(po *history.AtomicTransactionPO, opts linearize.SearchOptions) *Prefix {
	return &Prefix{po: po, opts: opts, log: newWriteLog()}
}

func (p *Prefix) Vertices() []history.TransactionId { return transactionIds(p.po) }

func (p *Prefix) ParentsOf(v history.TransactionId) []history.TransactionId {
	return realParents(p.po.SessionOrder.In(v))
}

func (p *Prefix) ChildrenOf(v history.TransactionId) []history.TransactionId {
	return p.po.SessionOrder.Out(v)
}

func (p *Prefix) AllowNext(prefix []history.TransactionId, v history.TransactionId) bool {
	info := p.po.Info[v]
	low, high := 0, infinity
	for x, observed := range info.Reads {
		l, h, ok := p.log.activeSpan(x, observed)
		if !ok {
			return false
		}
		if l > low {
			low = l
		}
		if h < high {
			high = h
		}
		if low >= high {
			return false
		}
	}
	return low < high
}

func (p *Prefix) ForwardBookKeeping(prefix []history.TransactionId) {
	v := prefix[len(prefix)-1]
	placedAt := len(prefix) - 1
	for x, version := range p.po.Info[v].Writes {
		p.log.append(x, v, version, placedAt)
	}
}

func (p *Prefix) BacktrackBookKeeping(prefix []history.TransactionId) {
	// The vertex just undone was always the most recent writer appended
	// to each variable it wrote, since writes are appended in placement
	// order — truncating back to the placedAt index removes exactly it.
	placedAt := len(prefix)
	for x, recs := range p.log.records {
		n := len(recs)
		for n > 0 && recs[n-1].placedAt >= placedAt {
			n--
		}
		if n != len(recs) {
			p.log.truncate(x, n)
		}
	}
}

func (p *Prefix) SearchOptions() linearize.SearchOptions { return p.opts }

func (p *Prefix) BranchScore(_ []history.TransactionId, frontier []history.TransactionId, candidate history.TransactionId) float64 {
	var score float64
	cwrites := p.po.Info[candidate].Writes
	for _, other := range frontier {
		if other == candidate {
			continue
		}
		for x, want := range p.po.Info[other].Reads {
			if installed, writes := cwrites[x]; writes && installed == want {
				score++
			}
		}
	}
	return score
}

func (p *Prefix) FrontierSignature(_ []history.TransactionId, frontier []history.TransactionId) linearize.Signature {
	var acc linearize.Signature
	for _, v := range frontier {
		acc = acc.XOR(p.ZobristValue(v))
	}
	acc = acc.XOR(writeLogSignature(p.opts.Seed, p.log))
	return acc
}

func (p *Prefix) ShouldPrune(_ []history.TransactionId, _ []history.TransactionId) bool { return false }

func (p *Prefix) ZobristValue(v history.TransactionId) linearize.Signature {
	return linearize.ZobristTag(p.opts.Seed, encodeTxId(v))
}

func (p *Prefix) ExtractWitness(order []history.TransactionId) any {
	return append([]history.TransactionId{}, order...)
}

func writeLogSignature(seed uint64, log *writeLog) linearize.Signature {
	vars := make([]history.Variable, 0, len(log.records))
	for x := range log.records {
		vars = append(vars, x)
	}
	for i := 1; i < len(vars); i++ {
		for j := i; j > 0 && vars[j] < vars[j-1]; j-- {
			vars[j], vars[j-1] = vars[j-1], vars[j]
		}
	}
	var acc linearize.Signature
	for _, x := range vars {
		for _, r := range log.records[x] {
			var b [32]byte
			binary.LittleEndian.PutUint64(b[0:8], uint64(x))
			binary.LittleEndian.PutUint64(b[8:16], uint64(r.version))
			binary.LittleEndian.PutUint64(b[16:24], r.writer.SessionId)
			binary.LittleEndian.PutUint64(b[24:32], r.writer.SessionHeight)
			acc = acc.XOR(linearize.ZobristTag(seed, b[:]))
		}
	}
	return acc
}
