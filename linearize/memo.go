package linearize

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// nogoodEntry records why a state failed: the set of frontier vertices in
// play (for dominance pruning) and the depth at which the failure was
// detected (for conflict-directed backjumping).
type nogoodEntry struct {
	frontier map[any]bool
	depth    int
}

// tables holds the memo set and nogood table for one search attempt,
// capped with LRU eviction so that unbounded search space exploration
// cannot exhaust memory — eviction affects only completeness of pruning,
// never soundness (spec.md §5).
type tables struct {
	memo    *lru.Cache[Signature, struct{}]
	nogoods *lru.Cache[Signature, nogoodEntry]
}

func newTables(capacity int) *tables {
	if capacity <= 0 {
		capacity = 1 << 16
	}
	memo, _ := lru.New[Signature, struct{}](capacity)
	nogoods, _ := lru.New[Signature, nogoodEntry](capacity)
	return &tables{memo: memo, nogoods: nogoods}
}

func (t *tables) isMemoized(sig Signature) bool {
	_, ok := t.memo.Get(sig)
	return ok
}

func (t *tables) recordMemo(sig Signature) {
	t.memo.Add(sig, struct{}{})
}

// nogood looks up a recorded failure and reports a learned backjump depth
// for conflict-directed backjumping.
func (t *tables) nogood(sig Signature) (nogoodEntry, bool) {
	e, ok := t.nogoods.Get(sig)
	return e, ok
}

func (t *tables) recordNogood(sig Signature, frontierSet map[any]bool, depth int) {
	t.nogoods.Add(sig, nogoodEntry{frontier: frontierSet, depth: depth})
}

// dominated reports whether any recorded nogood's frontier is a superset
// of current — if a previously failed frontier could reach everything the
// current, smaller frontier could, the current state is dominated and can
// be pruned without exploring it (spec.md §4.7.3).
func (t *tables) dominated(current map[any]bool) bool {
	for _, sig := range t.nogoods.Keys() {
		e, ok := t.nogoods.Peek(sig)
		if !ok {
			continue
		}
		if isSuperset(e.frontier, current) {
			return true
		}
	}
	return false
}

func isSuperset(super, sub map[any]bool) bool {
	if len(super) < len(sub) {
		return false
	}
	for k := range sub {
		if !super[k] {
			return false
		}
	}
	return true
}
