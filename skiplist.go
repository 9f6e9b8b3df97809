// Skip list writer/reader used by the postings stream to support
// seek(target) without a full linear scan (spec.md §4.4).
//
// Level 0 gets one entry per flushed BLOCK_SIZE-doc block; level L>=1
// gets an entry once every SkipN^L level-0 entries land (so level L has
// one entry per BLOCK_SIZE*SkipN^L documents). Entries within a level are delta-encoded against the
// previous entry at that same level, mirroring the doc/pos/pay streams'
// own delta convention.
package irs

import (
	"bytes"
	"fmt"
	"sort"
)

type skipEntry struct {
	doc        DocID
	docPtr     int64
	posPending int
	posPtr     int64
	payBufPos  int
	payPtr     int64
}

// skipListWriter accumulates entries for one term and flushes them to the
// doc stream at end_term (spec.md §4.2 step 4).
type skipListWriter struct {
	features  FeatureSet
	count0    int64
	numLevels int
	bufs      [MaxSkipLevels]bytes.Buffer
	last      [MaxSkipLevels]skipEntry
}

func newSkipListWriter(features FeatureSet) *skipListWriter {
	return &skipListWriter{features: features}
}

func (w *skipListWriter) reset() {
	w.count0 = 0
	w.numLevels = 0
	for i := range w.bufs {
		w.bufs[i].Reset()
		w.last[i] = skipEntry{}
	}
}

func intPow(base, exp int) int64 {
	r := int64(1)
	for i := 0; i < exp; i++ {
		r *= int64(base)
	}
	return r
}

// record buffers a new skip point, cascading it into every level that is
// due an entry at this count.
func (w *skipListWriter) record(e skipEntry) error {
	w.count0++
	if err := w.writeLevelEntry(0, e); err != nil {
		return err
	}
	levels := 1
	for l := 1; l < MaxSkipLevels; l++ {
		if w.count0%intPow(SkipN, l) != 0 {
			break
		}
		if err := w.writeLevelEntry(l, e); err != nil {
			return err
		}
		levels = l + 1
	}
	if levels > w.numLevels {
		w.numLevels = levels
	}
	return nil
}

func (w *skipListWriter) writeLevelEntry(level int, e skipEntry) error {
	buf := &w.bufs[level]
	prev := w.last[level]

	if err := WriteVInt(buf, uint32(int64(e.doc)-int64(prev.doc))); err != nil {
		return err
	}
	if err := WriteZVInt(buf, int32(e.docPtr-prev.docPtr)); err != nil {
		return err
	}
	if w.features.Has(FeaturePosition) {
		if err := WriteVInt(buf, uint32(e.posPending)); err != nil {
			return err
		}
		if err := WriteZVInt(buf, int32(e.posPtr-prev.posPtr)); err != nil {
			return err
		}
	}
	if w.features.Has(FeaturePayload) {
		if err := WriteVInt(buf, uint32(e.payBufPos)); err != nil {
			return err
		}
		if err := WriteZVInt(buf, int32(e.payPtr-prev.payPtr)); err != nil {
			return err
		}
	}
	w.last[level] = e
	return nil
}

// flush writes the buffered levels (highest first) to out and returns the
// offset the skip list begins at, for storage in TermMeta.SkipStart.
func (w *skipListWriter) flush(out ByteWriter) (int64, error) {
	fp, ok := out.(interface{ FilePointer() int64 })
	var start int64
	if ok {
		start = fp.FilePointer()
	}
	if err := out.WriteByte(byte(w.numLevels)); err != nil {
		return 0, err
	}
	for level := w.numLevels - 1; level >= 0; level-- {
		data := w.bufs[level].Bytes()
		if level > 0 {
			if err := WriteVInt(out, uint32(len(data))); err != nil {
				return 0, err
			}
		}
		if _, err := out.Write(data); err != nil {
			return 0, err
		}
	}
	return start, nil
}

// skipListReader decodes a skip list written by skipListWriter, lazily,
// the first time seek() needs it.
type skipListReader struct {
	in       IndexInput
	features FeatureSet
	docsCount int64
	loaded   bool
	levels   [][]skipEntry // levels[0] is the finest level
}

func newSkipListReader(in IndexInput, features FeatureSet, docsCount int64) *skipListReader {
	return &skipListReader{in: in, features: features, docsCount: docsCount}
}

func (r *skipListReader) load(skipStart int64) error {
	if r.loaded {
		return nil
	}
	r.loaded = true

	if err := r.in.Seek(skipStart); err != nil {
		return err
	}
	numLevelsByte, err := r.in.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: read skip level count: %v", ErrIndexCorrupt, err)
	}
	numLevels := int(numLevelsByte)
	if numLevels == 0 {
		return nil // a writer that recorded no entries flushes zero levels
	}
	if numLevels > MaxSkipLevels {
		return fmt.Errorf("%w: implausible skip level count %d", ErrIndexCorrupt, numLevels)
	}

	level0Count := r.docsCount / BlockSize
	counts := make([]int64, numLevels)
	counts[0] = level0Count
	for l := 1; l < numLevels; l++ {
		counts[l] = level0Count / intPow(SkipN, l)
	}

	r.levels = make([][]skipEntry, numLevels)
	for level := numLevels - 1; level >= 0; level-- {
		var levelLen uint32
		if level > 0 {
			levelLen, err = ReadVInt(r.in)
			if err != nil {
				return fmt.Errorf("%w: read skip level length: %v", ErrIndexCorrupt, err)
			}
		}
		entries, err := r.decodeLevel(int(counts[level]))
		if err != nil {
			return err
		}
		_ = levelLen // the length prefix is redundant with counts[level]; kept for forward-compat skipping
		r.levels[level] = entries
	}
	return nil
}

func (r *skipListReader) decodeLevel(count int) ([]skipEntry, error) {
	entries := make([]skipEntry, 0, count)
	var prev skipEntry
	for i := 0; i < count; i++ {
		docDelta, err := ReadVInt(r.in)
		if err != nil {
			return nil, fmt.Errorf("%w: read skip doc delta: %v", ErrIndexCorrupt, err)
		}
		docPtrDelta, err := ReadZVInt(r.in)
		if err != nil {
			return nil, err
		}
		e := skipEntry{
			doc:    DocID(int64(prev.doc) + int64(docDelta)),
			docPtr: prev.docPtr + int64(docPtrDelta),
		}
		if r.features.Has(FeaturePosition) {
			posPending, err := ReadVInt(r.in)
			if err != nil {
				return nil, err
			}
			posPtrDelta, err := ReadZVInt(r.in)
			if err != nil {
				return nil, err
			}
			e.posPending = int(posPending)
			e.posPtr = prev.posPtr + int64(posPtrDelta)
		}
		if r.features.Has(FeaturePayload) {
			payBufPos, err := ReadVInt(r.in)
			if err != nil {
				return nil, err
			}
			payPtrDelta, err := ReadZVInt(r.in)
			if err != nil {
				return nil, err
			}
			e.payBufPos = int(payBufPos)
			e.payPtr = prev.payPtr + int64(payPtrDelta)
		}
		entries = append(entries, e)
		prev = e
	}
	return entries, nil
}

// skipTo returns the last level-0 entry at or before target, and the
// number of docs it lets the caller skip past. The writer still builds
// the full SkipN-ary hierarchy on disk (spec.md §4.4), but since load
// decodes every level eagerly, the higher levels exist for format
// fidelity and forward compatibility with a streaming reader; this
// reader resolves seeks with a binary search over the fully-materialized
// finest level, which is already in memory and strictly more precise.
// ok is false if no entry in the skip list is at or before target.
func (r *skipListReader) skipTo(skipStart int64, target DocID) (entry skipEntry, skippedDocs int64, ok bool, err error) {
	if err := r.load(skipStart); err != nil {
		return skipEntry{}, 0, false, err
	}
	if len(r.levels) == 0 || len(r.levels[0]) == 0 {
		return skipEntry{}, 0, false, nil
	}

	entries := r.levels[0]
	idx := sort.Search(len(entries), func(i int) bool { return entries[i].doc > target }) - 1
	if idx < 0 {
		return skipEntry{}, 0, false, nil
	}
	return entries[idx], (int64(idx) + 1) * BlockSize, true, nil
}
