package irs

import (
	"errors"
	"testing"
)

func writeTestSegment(t *testing.T, dir Directory, cfg Config) (SegmentMeta, TermMeta, []DocID) {
	t.Helper()
	w, err := NewSegmentWriter(dir, 1, cfg)
	if err != nil {
		t.Fatalf("NewSegmentWriter: %v", err)
	}

	if _, err := w.BeginField("title", FeatureSet(FeatureFreq|FeaturePosition), -1); err != nil {
		t.Fatalf("BeginField: %v", err)
	}
	docIDs := []DocID{0, 1, 2, 5, 9}
	tm, err := w.WriteTerm(func(yield func(PostingDoc) bool) {
		for _, d := range docIDs {
			pd := PostingDoc{Doc: d, Freq: 1, Positions: []Position{{Pos: 0}}}
			if !yield(pd) {
				return
			}
		}
	})
	if err != nil {
		t.Fatalf("WriteTerm: %v", err)
	}

	for _, d := range docIDs {
		if _, err := w.AddStoredDocument([]byte("h"), []byte("body"+string(rune('0'+int(d))))); err != nil {
			t.Fatalf("AddStoredDocument: %v", err)
		}
	}

	col := w.Column("len")
	for _, d := range docIDs {
		if err := w.AddColumnValue(col, d, []byte{byte(d)}); err != nil {
			t.Fatalf("AddColumnValue: %v", err)
		}
	}

	meta, err := w.Commit(nil)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return meta, tm, docIDs
}

func TestSegmentWriterReaderRoundTrip(t *testing.T) {
	dir, err := NewDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	meta, tm, docIDs := writeTestSegment(t, dir, Config{})

	if meta.Codec != CodecName {
		t.Errorf("Codec = %q, want %q", meta.Codec, CodecName)
	}
	if meta.DocsCount != int64(len(docIDs)) {
		t.Errorf("DocsCount = %d, want %d", meta.DocsCount, len(docIDs))
	}

	r, err := OpenSegment(dir, meta)
	if err != nil {
		t.Fatalf("OpenSegment: %v", err)
	}
	defer r.Close()

	if len(r.Fields) != 1 || r.Fields[0].Name != "title" {
		t.Fatalf("Fields = %+v", r.Fields)
	}

	it, err := r.Postings.Iterator(tm, FeatureSet(FeatureFreq|FeaturePosition))
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	defer it.Close()
	var gotDocs []DocID
	for {
		d, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if d == NoMoreDocs {
			break
		}
		gotDocs = append(gotDocs, d)
	}
	if len(gotDocs) != len(docIDs) {
		t.Fatalf("got %d docs from postings, want %d", len(gotDocs), len(docIDs))
	}
	for i := range docIDs {
		if gotDocs[i] != docIDs[i] {
			t.Errorf("doc[%d] = %d, want %d", i, gotDocs[i], docIDs[i])
		}
	}

	found, err := r.Stored.Visit(docIDs[2], func(header, body []byte) bool { return true })
	if err != nil {
		t.Fatalf("Stored.Visit: %v", err)
	}
	if !found {
		t.Error("expected stored doc to be found")
	}

	get, ok := r.Columns.Values("len")
	if !ok {
		t.Fatal("column 'len' not found")
	}
	for _, d := range docIDs {
		v, found, err := get(d)
		if err != nil || !found {
			t.Fatalf("get(%d): found=%v err=%v", d, found, err)
		}
		if v[0] != byte(d) {
			t.Errorf("doc %d: column value = %d, want %d", d, v[0], d)
		}
	}
}

func TestSegmentWriterDoubleCommitFails(t *testing.T) {
	dir, err := NewDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewSegmentWriter(dir, 1, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.BeginField("f", FeatureSet(FeatureFreq), -1); err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteTerm(docsOf(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := w.AddStoredDocument([]byte("h"), []byte("b")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Commit(nil); err != nil {
		t.Fatalf("first Commit: %v", err)
	}
	if _, err := w.Commit(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("second Commit: got %v, want ErrClosed", err)
	}
}

func TestSegmentWithDeletesWritesDocMask(t *testing.T) {
	dir, err := NewDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewSegmentWriter(dir, 2, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.BeginField("f", FeatureSet(FeatureFreq), -1); err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteTerm(docsOf(0, 1, 2)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := w.AddStoredDocument([]byte("h"), []byte("b")); err != nil {
			t.Fatal(err)
		}
	}

	deletes := NewDocMask()
	deletes.Add(1)
	meta, err := w.Commit(deletes)
	if err != nil {
		t.Fatal(err)
	}

	r, err := OpenSegment(dir, meta)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Mask == nil {
		t.Fatal("expected a non-nil doc mask")
	}
	if !r.Mask.Contains(1) {
		t.Error("doc 1 should be masked")
	}
}

func TestOpenSegmentByCodecUnknownCodec(t *testing.T) {
	_, err := OpenSegmentByCodec(nil, SegmentMeta{Codec: "nonexistent"})
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("got %v, want ErrNotSupported", err)
	}
}

func TestOpenSegmentByCodecKnownCodec(t *testing.T) {
	dir, err := NewDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	meta, _, _ := writeTestSegment(t, dir, Config{})
	r, err := OpenSegmentByCodec(dir, meta)
	if err != nil {
		t.Fatalf("OpenSegmentByCodec: %v", err)
	}
	defer r.Close()
	if len(r.Fields) == 0 {
		t.Error("expected fields to be populated")
	}
}

func TestSegmentWriterRespectsSyncWrites(t *testing.T) {
	dir, err := NewDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	meta, _, _ := writeTestSegment(t, dir, Config{SyncWrites: true})
	if meta.Name == "" {
		t.Error("expected a non-empty segment name")
	}
}
