// Package invariant holds panic-on-impossible-state helpers.
//
// These are not used on any path a caller can reach through ordinary
// (even malformed) input — the validator in the history package turns
// every reachable malformed-input case into a returned Error value.
// Assert/AssertEq exist for conditions that construction has already
// ruled out; tripping one means a bug in this module, not bad input.
package invariant

import "fmt"

// Assert panics with msg if b is false.
func Assert(b bool, msg string, args ...any) {
	if !b {
		panic(fmt.Sprintf(msg, args...))
	}
}

// AssertEq panics if a != b.
func AssertEq[T comparable](a, b T, msg string) {
	if a != b {
		panic(fmt.Sprintf("%s: %v != %v", msg, a, b))
	}
}
