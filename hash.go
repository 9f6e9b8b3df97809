// Segment name generation.
//
// Each new segment written by a SegmentWriter gets a name derived by
// hashing a monotonically increasing generation counter rather than
// just formatting the counter in decimal: a hash-derived name is fixed
// width and, with a strong algorithm, collision-resistant enough that
// independently-generated segment names (e.g. from a writer recovering
// after a crash without having seen every prior generation) are very
// unlikely to collide. Three algorithms are supported, selectable via
// Config.SegmentNameAlgorithm.
package irs

import (
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// Segment name hash algorithm constants.
const (
	AlgXXHash3 = 1 // Default, fastest
	AlgFNV1a   = 2 // No external dependencies
	AlgBlake2b = 3 // Best distribution
)

// segmentNameHash generates a 16 hex character segment name suffix from
// a generation counter using the specified algorithm.
func segmentNameHash(generation int64, alg int) string {
	seed := strconv.FormatInt(generation, 10)
	switch alg {
	case AlgXXHash3:
		h := xxh3.HashString(seed)
		return fmt.Sprintf("%016x", h)
	case AlgFNV1a:
		h := fnv.New64a()
		h.Write([]byte(seed))
		return fmt.Sprintf("%016x", h.Sum64())
	case AlgBlake2b:
		h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
		h.Write([]byte(seed))
		return fmt.Sprintf("%016x", h.Sum(nil))
	default:
		return ""
	}
}

// newSegmentName formats generation's hash-derived name with the "_"
// prefix that this package's segment file stems carry.
func newSegmentName(generation int64, alg int) string {
	return "_" + segmentNameHash(generation, alg)
}
