package linearize

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// ZobristTag deterministically derives a 128-bit per-vertex tag from a
// seed and a canonical byte encoding of the vertex, using two
// independently-salted xxhash digests for the two halves. Solvers use
// this to implement Solver.ZobristValue without hand-rolling a PRNG of
// their own; grounded on xxhash's use in AKJUS-bsc-erigon (see
// DESIGN.md).
func ZobristTag(seed uint64, encode []byte) Signature {
	var seedBuf [8]byte
	binary.LittleEndian.PutUint64(seedBuf[:], seed)

	hi := xxhash.New()
	hi.Write(seedBuf[:])
	hi.Write([]byte{0x01}) // domain-separate the two halves
	hi.Write(encode)

	lo := xxhash.New()
	lo.Write(seedBuf[:])
	lo.Write([]byte{0x02})
	lo.Write(encode)

	return Signature{Hi: hi.Sum64(), Lo: lo.Sum64()}
}
