package irs

import (
	"bytes"
	"testing"
)

func TestColumnWriterReaderSingleValuePerDoc(t *testing.T) {
	raw := &memOutput{}
	cw, err := newColumnWriter(raw)
	if err != nil {
		t.Fatalf("newColumnWriter: %v", err)
	}
	col := cw.Column("title")
	values := map[DocID]string{0: "alpha", 3: "bravo", 4: "charlie", 200: "delta"}
	for _, doc := range []DocID{0, 3, 4, 200} { // AddValue needs non-decreasing doc ids
		if err := cw.AddValue(col, doc, []byte(values[doc])); err != nil {
			t.Fatalf("AddValue(%d): %v", doc, err)
		}
	}
	if err := cw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	cr, err := PrepareColumnStore(newMemInput(raw.buf))
	if err != nil {
		t.Fatalf("PrepareColumnStore: %v", err)
	}
	defer cr.Close()

	values2 := map[DocID]string{0: "alpha", 3: "bravo", 4: "charlie", 200: "delta"}
	get, ok := cr.Values("title")
	if !ok {
		t.Fatal("column 'title' not found")
	}
	for doc, want := range values2 {
		got, found, err := get(doc)
		if err != nil {
			t.Fatalf("get(%d): %v", doc, err)
		}
		if !found {
			t.Fatalf("doc %d not found in column", doc)
		}
		if string(got) != want {
			t.Errorf("doc %d = %q, want %q", doc, got, want)
		}
	}
	if _, found, err := get(1); err != nil || found {
		t.Error("doc 1 has no value and should not be found")
	}
}

func TestColumnWriterReaderMissingColumn(t *testing.T) {
	raw := &memOutput{}
	cw, err := newColumnWriter(raw)
	if err != nil {
		t.Fatal(err)
	}
	if err := cw.Close(); err != nil {
		t.Fatal(err)
	}
	cr, err := PrepareColumnStore(newMemInput(raw.buf))
	if err != nil {
		t.Fatal(err)
	}
	defer cr.Close()
	if _, ok := cr.Values("nonexistent"); ok {
		t.Error("expected column not found")
	}
}

func TestColumnWriterMultiBlockFlush(t *testing.T) {
	raw := &memOutput{}
	cw, err := newColumnWriter(raw)
	if err != nil {
		t.Fatal(err)
	}
	col := cw.Column("body")
	// Values large enough to cross DataBlockSize multiple times.
	chunk := bytes.Repeat([]byte("x"), 512)
	const n = 40
	for i := DocID(0); i < n; i++ {
		if err := cw.AddValue(col, i, chunk); err != nil {
			t.Fatal(err)
		}
	}
	if err := cw.Close(); err != nil {
		t.Fatal(err)
	}

	cr, err := PrepareColumnStore(newMemInput(raw.buf))
	if err != nil {
		t.Fatal(err)
	}
	defer cr.Close()

	seen := make(map[DocID]bool)
	if err := cr.Visit("body", func(doc DocID, value []byte) bool {
		if !bytes.Equal(value, chunk) {
			t.Errorf("doc %d: value mismatch", doc)
		}
		seen[doc] = true
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != n {
		t.Fatalf("visited %d docs, want %d", len(seen), n)
	}
}

func TestColumnValueRejectsOutOfOrderDoc(t *testing.T) {
	raw := &memOutput{}
	cw, err := newColumnWriter(raw)
	if err != nil {
		t.Fatal(err)
	}
	col := cw.Column("x")
	if err := cw.AddValue(col, 5, []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := cw.AddValue(col, 3, []byte("b")); err == nil {
		t.Fatal("expected error for decreasing doc id")
	}
}

func TestColumnStrongChecksumVariant(t *testing.T) {
	raw := &memOutput{}
	cw, err := newColumnWriterWithChecksum(raw, checksumBlake2b)
	if err != nil {
		t.Fatal(err)
	}
	col := cw.Column("x")
	if err := cw.AddValue(col, 0, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := cw.Close(); err != nil {
		t.Fatal(err)
	}
	cr, err := PrepareColumnStore(newMemInput(raw.buf))
	if err != nil {
		t.Fatal(err)
	}
	defer cr.Close()
	get, ok := cr.Values("x")
	if !ok {
		t.Fatal("column not found")
	}
	got, found, err := get(0)
	if err != nil || !found {
		t.Fatalf("get(0): found=%v err=%v", found, err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}
