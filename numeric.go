// Numeric tokenization for range-queryable scalar fields (spec.md §4.1).
//
// A scalar value is decomposed into a handful of terms at decreasing
// precision (by right-shifting an increasing number of low bits away).
// A range query then reduces to a union of prefix scans over these terms
// at whichever precision keeps the union small — the classic Lucene
// "trie" numeric field trick.
//
// Terms are produced lazily via iter.Seq, following the teacher's use of
// the same stdlib iterator shape (iter.Seq2 in all.go) for lazy
// enumeration.
package irs

import (
	"iter"
	"math"
)

// DefaultNumericStep is the precision step used when a field doesn't
// specify one, matching spec.md §4.1's "default 16 for 32-bit, 16 for
// 64-bit".
const DefaultNumericStep = 16

// NumericToken is one term of a value's tokenization: Term is the
// encoded byte string, PosIncrement is 1 only at the second-lowest
// precision (shift == step) so that term dominates phrase ordering
// (spec.md §4.1.3).
type NumericToken struct {
	Term         []byte
	PosIncrement int
}

// encodeShift appends encode(value, shift) to the term buffer: shift as
// the first byte, followed by the big-endian high-order (width-shift)
// bits of value in ceil((width-shift)/8) bytes.
func encodeShift(value uint64, shift, width int) []byte {
	nbits := width - shift
	nbytes := (nbits + 7) / 8
	term := make([]byte, 1+nbytes)
	term[0] = byte(shift)
	shifted := value >> uint(shift)
	for i := nbytes - 1; i >= 0; i-- {
		term[1+i] = byte(shifted)
		shifted >>= 8
	}
	return term
}

// numericTokens is the shared driver for all four scalar types: it walks
// shift = 0, step, 2*step, ... while shift < width.
func numericTokens(value uint64, width, step int) iter.Seq[NumericToken] {
	return func(yield func(NumericToken) bool) {
		if step <= 0 {
			step = DefaultNumericStep
		}
		for shift := 0; shift < width; shift += step {
			tok := NumericToken{
				Term:         encodeShift(value, shift, width),
				PosIncrement: boolToInt(shift == step),
			}
			if !yield(tok) {
				return
			}
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Int32Tokens tokenizes a 32-bit integer. Per spec.md §4.1 step 1, the
// sign-preserving bit transform applies only to float/double conversion;
// plain integers are encoded from their raw two's-complement pattern
// reinterpreted as unsigned (see the worked example in spec.md §8: value
// 5 at shift 0 encodes as the plain bytes 00 00 00 05, not an
// offset-corrected pattern). This means ordering is not preserved across
// the positive/negative boundary — an inherited limitation of the spec,
// not something this implementation attempts to "fix".
func Int32Tokens(v int32, step int) iter.Seq[NumericToken] {
	return numericTokens(uint64(uint32(v)), 32, step)
}

// Int64Tokens tokenizes a 64-bit integer. See Int32Tokens for the
// sign-boundary caveat.
func Int64Tokens(v int64, step int) iter.Seq[NumericToken] {
	return numericTokens(uint64(v), 64, step)
}

// sortableFloat32Bits converts v's IEEE-754 bit pattern into one where
// unsigned-integer order matches float order: for non-negative values
// (sign bit clear) the sign bit is set, pushing them above all negative
// patterns; for negative values all bits are inverted, reversing their
// order so more-negative sorts lower (spec.md §4.1 step 1).
func sortableFloat32Bits(v float32) uint32 {
	bits := math.Float32bits(v)
	if bits&0x80000000 != 0 {
		return ^bits
	}
	return bits | 0x80000000
}

// sortableFloat64Bits is the 64-bit analogue of sortableFloat32Bits.
func sortableFloat64Bits(v float64) uint64 {
	bits := math.Float64bits(v)
	if bits&0x8000000000000000 != 0 {
		return ^bits
	}
	return bits | 0x8000000000000000
}

// Float32Tokens tokenizes a 32-bit float after sign-preserving
// conversion (spec.md §4.1 step 1).
func Float32Tokens(v float32, step int) iter.Seq[NumericToken] {
	return numericTokens(uint64(sortableFloat32Bits(v)), 32, step)
}

// Float64Tokens tokenizes a 64-bit float after sign-preserving
// conversion.
func Float64Tokens(v float64, step int) iter.Seq[NumericToken] {
	return numericTokens(sortableFloat64Bits(v), 64, step)
}
