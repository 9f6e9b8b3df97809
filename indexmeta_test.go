package irs

import "testing"

func TestIndexMetaWriteReadRoundTrip(t *testing.T) {
	dir, err := NewDirectory(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	meta := IndexMeta{Generation: 1, Segments: []string{"_abc.sm", "_def.sm"}}
	if err := WriteIndexMeta(dir, meta); err != nil {
		t.Fatalf("WriteIndexMeta: %v", err)
	}

	got, err := ReadLatestIndexMeta(dir)
	if err != nil {
		t.Fatalf("ReadLatestIndexMeta: %v", err)
	}
	if got.Generation != meta.Generation {
		t.Errorf("Generation = %d, want %d", got.Generation, meta.Generation)
	}
	if len(got.Segments) != len(meta.Segments) {
		t.Fatalf("Segments = %v, want %v", got.Segments, meta.Segments)
	}
	for i := range meta.Segments {
		if got.Segments[i] != meta.Segments[i] {
			t.Errorf("Segments[%d] = %q, want %q", i, got.Segments[i], meta.Segments[i])
		}
	}
}

func TestIndexMetaReadsHighestGeneration(t *testing.T) {
	dir, err := NewDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteIndexMeta(dir, IndexMeta{Generation: 1, Segments: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteIndexMeta(dir, IndexMeta{Generation: 5, Segments: []string{"b", "c"}}); err != nil {
		t.Fatal(err)
	}
	if err := WriteIndexMeta(dir, IndexMeta{Generation: 3, Segments: []string{"d"}}); err != nil {
		t.Fatal(err)
	}

	got, err := ReadLatestIndexMeta(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Generation != 5 {
		t.Errorf("Generation = %d, want 5 (highest)", got.Generation)
	}
	if len(got.Segments) != 2 || got.Segments[0] != "b" || got.Segments[1] != "c" {
		t.Errorf("Segments = %v, want [b c]", got.Segments)
	}
}

func TestIndexMetaNoSegmentsFile(t *testing.T) {
	dir, err := NewDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadLatestIndexMeta(dir); err == nil {
		t.Fatal("expected an error when no segments_N file exists")
	}
}

func TestIndexMetaPendingFileRenamedOnCommit(t *testing.T) {
	dir, err := NewDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// WriteIndexMeta should leave no pending_segments_N file behind after
	// a successful rename to segments_N.
	if err := WriteIndexMeta(dir, IndexMeta{Generation: 1}); err != nil {
		t.Fatal(err)
	}
	exists, err := dir.Exists(pendingSegmentsFileName(1))
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("pending file should have been renamed away, not left behind")
	}
	exists, err = dir.Exists(segmentsFileName(1))
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("committed segments_N file should exist")
	}
}

func TestSegmentMetaWriteReadRoundTrip(t *testing.T) {
	meta := SegmentMeta{
		Name:      "_abc123",
		Codec:     CodecName,
		Version:   1,
		DocsCount: 42,
		Files:     []string{"_abc123.doc", "_abc123.sd", "_abc123.si"},
	}
	raw := &memOutput{}
	if err := WriteSegmentMeta(raw, meta); err != nil {
		t.Fatalf("WriteSegmentMeta: %v", err)
	}
	got, err := ReadSegmentMeta(newMemInput(raw.buf))
	if err != nil {
		t.Fatalf("ReadSegmentMeta: %v", err)
	}
	if got.Name != meta.Name || got.Codec != meta.Codec || got.Version != meta.Version || got.DocsCount != meta.DocsCount {
		t.Errorf("got %+v, want %+v", got, meta)
	}
	if len(got.Files) != len(meta.Files) {
		t.Fatalf("Files = %v, want %v", got.Files, meta.Files)
	}
	for i := range meta.Files {
		if got.Files[i] != meta.Files[i] {
			t.Errorf("Files[%d] = %q, want %q", i, got.Files[i], meta.Files[i])
		}
	}
}

func TestFieldMetaWriteReadRoundTrip(t *testing.T) {
	fields := []FieldInfo{
		{Name: "title", ID: 0, Features: FeatureSet(FeatureFreq | FeaturePosition), NormColumnID: -1},
		{Name: "body", ID: 1, Features: FeatureSet(FeatureFreq), NormColumnID: 3},
	}
	raw := &memOutput{}
	if err := WriteFieldMeta(raw, fields); err != nil {
		t.Fatalf("WriteFieldMeta: %v", err)
	}
	got, err := ReadFieldMeta(newMemInput(raw.buf))
	if err != nil {
		t.Fatalf("ReadFieldMeta: %v", err)
	}
	if len(got) != len(fields) {
		t.Fatalf("got %d fields, want %d", len(got), len(fields))
	}
	for i := range fields {
		if got[i] != fields[i] {
			t.Errorf("field %d: got %+v, want %+v", i, got[i], fields[i])
		}
	}
}
