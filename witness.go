package isocheck

import (
	"fmt"

	"github.com/arjunkc/isocheck/graph"
	"github.com/arjunkc/isocheck/history"
)

// Consistency enumerates the six levels check accepts, ordered weakest to
// strongest (spec.md §8, testable property 3: "Hierarchy").
type Consistency uint8

const (
	CommittedRead Consistency = iota
	AtomicRead
	Causal
	Prefix
	SnapshotIsolation
	Serializable
)

func (c Consistency) String() string {
	switch c {
	case CommittedRead:
		return "CommittedRead"
	case AtomicRead:
		return "AtomicRead"
	case Causal:
		return "Causal"
	case Prefix:
		return "Prefix"
	case SnapshotIsolation:
		return "SnapshotIsolation"
	case Serializable:
		return "Serializable"
	default:
		return fmt.Sprintf("Consistency(%d)", uint8(c))
	}
}

// SplitEntry is one (TransactionId, writePhase) pair, the element type of
// a SplitCommitOrder witness (spec.md §6.4).
type SplitEntry struct {
	Tx    history.TransactionId
	Write bool
}

// Witness is the result algebra of spec.md §6.4. Exactly one of its
// fields is meaningful, selected by Kind.
type Witness struct {
	Kind WitnessKind

	CommitOrder      []history.TransactionId
	SplitCommitOrder []SplitEntry
	SaturationOrder  *graph.DiGraph[history.TransactionId]
}

// WitnessKind discriminates Witness's three variants.
type WitnessKind uint8

const (
	KindCommitOrder WitnessKind = iota
	KindSplitCommitOrder
	KindSaturationOrder
)

// Error is the three-case taxonomy of spec.md §7. Exactly one of
// NonAtomic, Invalid, or Cycle applies; inspect Kind.
type Error struct {
	Kind ErrorKind

	NonAtomic *history.NonAtomicError
	Invalid   Consistency
	Cycle     CycleError
}

// CycleError pins a saturation failure to a specific conflicting edge and
// the level that detected it (spec.md §7).
type CycleError struct {
	Level Consistency
	A, B  history.TransactionId
}

// ErrorKind discriminates Error's three variants.
type ErrorKind uint8

const (
	KindNonAtomic ErrorKind = iota
	KindInvalid
	KindCycle
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindNonAtomic:
		return e.NonAtomic.Error()
	case KindInvalid:
		return fmt.Sprintf("invalid: no linearization satisfies %s", e.Invalid)
	case KindCycle:
		return fmt.Sprintf("cycle at %s: %s -> %s", e.Cycle.Level, e.Cycle.A, e.Cycle.B)
	default:
		return "isocheck: unknown error"
	}
}

func nonAtomicError(err error) *Error {
	na, _ := err.(*history.NonAtomicError)
	return &Error{Kind: KindNonAtomic, NonAtomic: na}
}

func invalidError(level Consistency) *Error {
	return &Error{Kind: KindInvalid, Invalid: level}
}

func cycleError(level Consistency, a, b history.TransactionId) *Error {
	return &Error{Kind: KindCycle, Cycle: CycleError{Level: level, A: a, B: b}}
}
