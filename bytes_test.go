package irs

import (
	"bytes"
	"math"
	"testing"
)

// buf adapts bytes.Buffer to ByteWriter/ByteReader for round-trip tests.
type buf struct{ bytes.Buffer }

func TestVIntRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 16383, 16384, 1 << 20, math.MaxUint32}
	for _, v := range values {
		var b buf
		if err := WriteVInt(&b, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		got, err := ReadVInt(&b)
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Errorf("got %d, want %d", got, v)
		}
	}
}

func TestVIntSmallValuesFitOneByte(t *testing.T) {
	for _, v := range []uint32{0, 63, 127} {
		var b buf
		if err := WriteVInt(&b, v); err != nil {
			t.Fatal(err)
		}
		if b.Len() != 1 {
			t.Errorf("WriteVInt(%d) used %d bytes, want 1", v, b.Len())
		}
	}
}

func TestVIntOverflow(t *testing.T) {
	// Five continuation bytes encode more than 32 bits of payload.
	var b buf
	for i := 0; i < 5; i++ {
		b.WriteByte(0xff)
	}
	b.WriteByte(0x7f)
	if _, err := ReadVInt(&b); err == nil {
		t.Error("expected overflow error")
	}
}

func TestVLongRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, math.MaxUint64, 1 << 40}
	for _, v := range values {
		var b buf
		if err := WriteVLong(&b, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		got, err := ReadVLong(&b)
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Errorf("got %d, want %d", got, v)
		}
	}
}

func TestZVIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 127, -127, math.MaxInt32, math.MinInt32}
	for _, v := range values {
		var b buf
		if err := WriteZVInt(&b, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		got, err := ReadZVInt(&b)
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Errorf("got %d, want %d", got, v)
		}
	}
}

func TestZVIntSmallMagnitudeSmallEncoding(t *testing.T) {
	var pos, neg buf
	WriteZVInt(&pos, 5)
	WriteZVInt(&neg, -5)
	if pos.Len() != 1 || neg.Len() != 1 {
		t.Errorf("small zigzag values should fit in one byte: pos=%d neg=%d", pos.Len(), neg.Len())
	}
}

func TestWriteLongRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, math.MaxInt64, math.MinInt64}
	for _, v := range values {
		var b bytes.Buffer
		if err := WriteLong(&b, v); err != nil {
			t.Fatal(err)
		}
		if b.Len() != 8 {
			t.Fatalf("WriteLong produced %d bytes, want 8", b.Len())
		}
		got, err := ReadLong(&b)
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Errorf("got %d, want %d", got, v)
		}
	}
}

func TestBitsRequired(t *testing.T) {
	cases := []struct {
		max  uint64
		bits uint
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{255, 8},
		{256, 9},
		{math.MaxUint64, 64},
	}
	for _, c := range cases {
		if got := bitsRequired(c.max); got != c.bits {
			t.Errorf("bitsRequired(%d) = %d, want %d", c.max, got, c.bits)
		}
	}
}

func TestPackUnpackBlockRoundTrip(t *testing.T) {
	for _, bits := range []uint{1, 2, 3, 5, 7, 8, 13, 20, 32, 63, 64} {
		max := uint64(1)<<bits - 1
		if bits == 64 {
			max = math.MaxUint64
		}
		values := make([]uint64, BlockSize)
		for i := range values {
			values[i] = uint64(i) & max // i mod 2^bits, without max+1 wrapping to 0 at 64 bits
			if bits == 64 && i%7 == 0 {
				values[i] = max
			}
		}
		packed := packBlock(values, bits)
		if len(packed) != packedByteLen(len(values), bits) {
			t.Fatalf("bits=%d: packed length %d != packedByteLen %d", bits, len(packed), packedByteLen(len(values), bits))
		}
		unpacked := unpackBlock(packed, len(values), bits)
		for i := range values {
			if unpacked[i] != values[i] {
				t.Fatalf("bits=%d: value %d: got %d, want %d", bits, i, unpacked[i], values[i])
			}
		}
	}
}

func TestPackBlockAllZeros(t *testing.T) {
	values := make([]uint64, BlockSize)
	packed := packBlock(values, bitsRequired(0))
	unpacked := unpackBlock(packed, len(values), bitsRequired(0))
	for _, v := range unpacked {
		if v != 0 {
			t.Fatalf("expected all zeros, got %d", v)
		}
	}
}
