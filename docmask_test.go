package irs

import (
	"io"
	"testing"
)

type memOutput struct {
	buf []byte
}

func (o *memOutput) Write(p []byte) (int, error) {
	o.buf = append(o.buf, p...)
	return len(p), nil
}
func (o *memOutput) WriteByte(b byte) error { o.buf = append(o.buf, b); return nil }
func (o *memOutput) FilePointer() int64     { return int64(len(o.buf)) }
func (o *memOutput) Close() error           { return nil }

type memInput struct {
	data []byte
	off  int64
}

func newMemInput(data []byte) *memInput { return &memInput{data: data} }

func (in *memInput) Read(p []byte) (int, error) {
	if in.off >= int64(len(in.data)) {
		return 0, io.EOF
	}
	n := copy(p, in.data[in.off:])
	in.off += int64(n)
	return n, nil
}
func (in *memInput) ReadByte() (byte, error) {
	if in.off >= int64(len(in.data)) {
		return 0, io.EOF
	}
	b := in.data[in.off]
	in.off++
	return b, nil
}
func (in *memInput) Seek(offset int64) error { in.off = offset; return nil }
func (in *memInput) FilePointer() int64      { return in.off }
func (in *memInput) Length() int64           { return int64(len(in.data)) }
func (in *memInput) Clone() (IndexInput, error) {
	return &memInput{data: in.data, off: in.off}, nil
}
func (in *memInput) Close() error { return nil }

func TestDocMaskAddContains(t *testing.T) {
	m := NewDocMask()
	m.Add(3)
	m.Add(7)
	m.Add(1000)
	if !m.Contains(3) || !m.Contains(7) || !m.Contains(1000) {
		t.Fatal("expected masked docs to be contained")
	}
	if m.Contains(4) {
		t.Error("unmasked doc should not be contained")
	}
	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}
}

func TestDocMaskWriteReadRoundTrip(t *testing.T) {
	m := NewDocMask()
	for _, d := range []DocID{0, 1, 2, 100, 101, 5000} {
		m.Add(d)
	}

	out := &memOutput{}
	if err := m.Write(out); err != nil {
		t.Fatalf("write: %v", err)
	}

	in := newMemInput(out.buf)
	got, err := ReadDocMask(in)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, d := range []DocID{0, 1, 2, 100, 101, 5000} {
		if !got.Contains(d) {
			t.Errorf("doc %d should be masked after round trip", d)
		}
	}
	if got.Contains(3) {
		t.Error("doc 3 should not be masked")
	}
	if got.Count() != m.Count() {
		t.Errorf("Count() = %d, want %d", got.Count(), m.Count())
	}
}

func TestDocMaskEmpty(t *testing.T) {
	m := NewDocMask()
	if m.Count() != 0 {
		t.Errorf("empty mask Count() = %d, want 0", m.Count())
	}
	out := &memOutput{}
	if err := m.Write(out); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadDocMask(newMemInput(out.buf))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Count() != 0 {
		t.Errorf("round-tripped empty mask Count() = %d, want 0", got.Count())
	}
}

func TestDocMaskCorruptBody(t *testing.T) {
	m := NewDocMask()
	m.Add(1)
	out := &memOutput{}
	if err := m.Write(out); err != nil {
		t.Fatal(err)
	}
	corrupt := append([]byte(nil), out.buf...)
	corrupt[len(corrupt)/2] ^= 0xff
	_, err := ReadDocMask(newMemInput(corrupt))
	if err == nil {
		t.Error("expected an error reading a corrupted doc mask")
	}
}
