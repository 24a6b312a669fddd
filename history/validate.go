package history

import "fmt"

// NonAtomicKind distinguishes why a raw history failed structural
// validation (spec.md §7).
type NonAtomicKind uint8

const (
	// IncompleteHistory marks an internal validator invariant broken —
	// reachable only if a caller builds a History outside the
	// session/transaction-slice construction this package assumes (e.g. a
	// hand-rolled decoder that lets session heights skip or duplicate).
	IncompleteHistory NonAtomicKind = iota
	// UncommittedRead: a committed transaction reads a version whose
	// writer transaction is not committed.
	UncommittedRead
	// SameVersionWrite: two committed transactions install the same
	// (variable, version) pair.
	SameVersionWrite
	// LocalReadInconsistentWithLocalWrite: read-your-writes violated
	// within a single transaction.
	LocalReadInconsistentWithLocalWrite
	// UnknownVersion: a read references a version nobody ever committed.
	UnknownVersion
)

func (k NonAtomicKind) String() string {
	switch k {
	case IncompleteHistory:
		return "IncompleteHistory"
	case UncommittedRead:
		return "UncommittedRead"
	case SameVersionWrite:
		return "SameVersionWrite"
	case LocalReadInconsistentWithLocalWrite:
		return "LocalReadInconsistentWithLocalWrite"
	case UnknownVersion:
		return "UnknownVersion"
	default:
		return fmt.Sprintf("NonAtomicKind(%d)", uint8(k))
	}
}

// NonAtomicError reports why is_valid_history rejected a history.
type NonAtomicError struct {
	Kind NonAtomicKind
	// Transaction, and where applicable Variable/Version, pin the error to
	// a specific offending location for frontend diagnostics.
	Transaction TransactionId
	Variable    Variable
	Version     Version
}

func (e *NonAtomicError) Error() string {
	return fmt.Sprintf("non-atomic history: %s at %s (variable=%d, version=%d)",
		e.Kind, e.Transaction, e.Variable, e.Version)
}

type versionKey struct {
	variable Variable
	version  Version
}

// Validate implements is_valid_history: it walks every session once,
// enforcing write uniqueness, committed-read backing, and intra-transaction
// read-your-writes (spec.md §4.3). It returns nil if h is valid.
func Validate(h History) error {
	writerOf := make(map[versionKey]TransactionId)
	uncommittedWrites := make(map[versionKey]bool)

	// Pass 1: record every committed write's installer, detecting
	// SameVersionWrite as we go. Order doesn't matter for this pass since
	// we're only checking global uniqueness of (variable, version).
	// Versions installed only by uncommitted transactions are noted
	// separately so pass 2 can report UncommittedRead for them.
	for _, id := range h.AllTransactionIds() {
		tx, ok := h.TransactionAt(id)
		if !ok {
			return &NonAtomicError{Kind: IncompleteHistory, Transaction: id}
		}
		if !tx.Committed {
			for _, ev := range tx.Events {
				if ev.Kind == WriteEvent {
					uncommittedWrites[versionKey{ev.Variable, ev.Version}] = true
				}
			}
			continue
		}
		for _, ev := range tx.Events {
			if ev.Kind != WriteEvent {
				continue
			}
			key := versionKey{ev.Variable, ev.Version}
			if prior, exists := writerOf[key]; exists && prior != id {
				return &NonAtomicError{
					Kind: SameVersionWrite, Transaction: id,
					Variable: ev.Variable, Version: ev.Version,
				}
			}
			writerOf[key] = id
		}
	}

	// Pass 2: read-your-writes within each transaction, then committed
	// backing for external reads.
	for _, id := range h.AllTransactionIds() {
		tx, _ := h.TransactionAt(id)

		localWrite := make(map[Variable]Version)
		for _, ev := range tx.Events {
			switch ev.Kind {
			case WriteEvent:
				localWrite[ev.Variable] = ev.Version
			case ReadEvent:
				if installed, wrote := localWrite[ev.Variable]; wrote {
					if ev.Version != installed {
						return &NonAtomicError{
							Kind: LocalReadInconsistentWithLocalWrite, Transaction: id,
							Variable: ev.Variable, Version: ev.Version,
						}
					}
					continue
				}

				// External read: only committed transactions require
				// committed backing (spec.md invariant 2).
				if !tx.Committed {
					continue
				}
				if ev.Version == NoVersion {
					continue // backed by the root, always valid.
				}
				writer, known := writerOf[versionKey{ev.Variable, ev.Version}]
				if !known && uncommittedWrites[versionKey{ev.Variable, ev.Version}] {
					return &NonAtomicError{
						Kind: UncommittedRead, Transaction: id,
						Variable: ev.Variable, Version: ev.Version,
					}
				}
				if !known {
					return &NonAtomicError{
						Kind: UnknownVersion, Transaction: id,
						Variable: ev.Variable, Version: ev.Version,
					}
				}
				writerTx, _ := h.TransactionAt(writer)
				if !writerTx.Committed {
					return &NonAtomicError{
						Kind: UncommittedRead, Transaction: id,
						Variable: ev.Variable, Version: ev.Version,
					}
				}
			}
		}
	}

	return nil
}
