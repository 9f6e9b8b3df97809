package irs

import (
	"bytes"
	"math"
	"testing"
)

func collectTokens(seq func(func(NumericToken) bool)) []NumericToken {
	var out []NumericToken
	seq(func(t NumericToken) bool {
		out = append(out, t)
		return true
	})
	return out
}

func TestInt32TokensShiftsDownToZero(t *testing.T) {
	toks := collectTokens(Int32Tokens(12345, 8))
	if len(toks) != 4 { // 0, 8, 16, 24 < 32
		t.Fatalf("got %d tokens, want 4", len(toks))
	}
	// First token (shift 0) carries the full value, unshifted.
	if toks[0].Term[0] != 0 {
		t.Errorf("first token shift byte = %d, want 0", toks[0].Term[0])
	}
}

func TestInt32TokensPosIncrementOnlyAtSecondPrecision(t *testing.T) {
	toks := collectTokens(Int32Tokens(100, 8))
	for i, tok := range toks {
		want := 0
		if i == 1 {
			want = 1
		}
		if tok.PosIncrement != want {
			t.Errorf("token %d PosIncrement = %d, want %d", i, tok.PosIncrement, want)
		}
	}
}

func TestInt32TokensDefaultStep(t *testing.T) {
	a := collectTokens(Int32Tokens(42, 0))
	b := collectTokens(Int32Tokens(42, DefaultNumericStep))
	if len(a) != len(b) {
		t.Fatalf("default step produced %d tokens, explicit default step produced %d", len(a), len(b))
	}
}

func TestInt64TokensRoundTripsRawBytesAtShiftZero(t *testing.T) {
	toks := collectTokens(Int64Tokens(5, 16))
	// Per the worked example in spec.md: value 5 at shift 0 is the plain
	// big-endian pattern, not an offset-corrected one.
	want := []byte{0, 0, 0, 0, 0, 0, 0, 5}
	if !bytes.Equal(toks[0].Term[1:], want) {
		t.Errorf("shift-0 term = %x, want %x", toks[0].Term[1:], want)
	}
}

func TestSortableFloat32BitsPreservesOrder(t *testing.T) {
	values := []float32{-100.5, -1, -0.001, 0, 0.001, 1, 100.5}
	var prev uint32
	for i, v := range values {
		bits := sortableFloat32Bits(v)
		if i > 0 && bits <= prev {
			t.Errorf("order not preserved at %v: bits=%d <= prev=%d", v, bits, prev)
		}
		prev = bits
	}
}

func TestSortableFloat64BitsPreservesOrder(t *testing.T) {
	values := []float64{-1e10, -1, -1e-10, 0, 1e-10, 1, 1e10}
	var prev uint64
	for i, v := range values {
		bits := sortableFloat64Bits(v)
		if i > 0 && bits <= prev {
			t.Errorf("order not preserved at %v: bits=%d <= prev=%d", v, bits, prev)
		}
		prev = bits
	}
}

func TestSortableFloatBitsNaNAndInf(t *testing.T) {
	// Just verify these don't panic and produce deterministic values.
	a := sortableFloat64Bits(math.Inf(1))
	b := sortableFloat64Bits(math.Inf(-1))
	if a == b {
		t.Error("+Inf and -Inf should map to distinct sortable bits")
	}
}

func TestFloat32TokensShiftCount(t *testing.T) {
	toks := collectTokens(Float32Tokens(3.14, 8))
	if len(toks) != 4 {
		t.Fatalf("got %d tokens, want 4", len(toks))
	}
}
