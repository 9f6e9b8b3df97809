package irs

import "testing"

func TestSkipListWriterReaderRoundTrip(t *testing.T) {
	features := FeatureSet(FeatureFreq | FeaturePosition)
	w := newSkipListWriter(features)

	var entries []skipEntry
	for i := 0; i < SkipN*SkipN+3; i++ {
		e := skipEntry{
			doc:        DocID((i + 1) * BlockSize),
			docPtr:     int64(i * 100),
			posPending: i % 5,
			posPtr:     int64(i * 40),
		}
		entries = append(entries, e)
		if err := w.record(e); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	var out memOutput
	skipStart, err := w.flush(&out)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if skipStart != 0 {
		t.Fatalf("skipStart = %d, want 0 (fresh buffer)", skipStart)
	}

	in := newMemInput(out.buf)
	r := newSkipListReader(in, features, int64(len(entries))*BlockSize)

	// skipTo the last entry should return it directly.
	last := entries[len(entries)-1]
	entry, skipped, ok, err := r.skipTo(0, last.doc)
	if err != nil {
		t.Fatalf("skipTo: %v", err)
	}
	if !ok {
		t.Fatal("expected a skip entry at-or-before the last doc")
	}
	if entry.doc != last.doc || entry.docPtr != last.docPtr {
		t.Errorf("got %+v, want doc=%d docPtr=%d", entry, last.doc, last.docPtr)
	}
	if skipped != int64(len(entries))*BlockSize {
		t.Errorf("skipped = %d, want %d", skipped, int64(len(entries))*BlockSize)
	}

	// skipTo a target before the first entry should report not found.
	_, _, ok, err = r.skipTo(0, entries[0].doc-1)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no entry before the first skip point")
	}

	// skipTo a target between two entries returns the lower one.
	target := entries[3].doc + 1
	entry, _, ok, err = r.skipTo(0, target)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || entry.doc != entries[3].doc {
		t.Errorf("skipTo(%d) = %+v ok=%v, want entry %d", target, entry, ok, entries[3].doc)
	}
}

func TestSkipListEmptyReader(t *testing.T) {
	w := newSkipListWriter(FeatureSet(FeatureFreq))
	var out memOutput
	if _, err := w.flush(&out); err != nil {
		t.Fatal(err)
	}
	r := newSkipListReader(newMemInput(out.buf), FeatureSet(FeatureFreq), 0)
	_, _, ok, err := r.skipTo(0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no skip entries when writer never recorded any")
	}
}

func TestIntPow(t *testing.T) {
	cases := []struct {
		base, exp int
		want      int64
	}{
		{8, 0, 1},
		{8, 1, 8},
		{8, 2, 64},
		{2, 10, 1024},
	}
	for _, c := range cases {
		if got := intPow(c.base, c.exp); got != c.want {
			t.Errorf("intPow(%d,%d) = %d, want %d", c.base, c.exp, got, c.want)
		}
	}
}
