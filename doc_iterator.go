// doc_iterator walks one term's doc stream, refilling packed blocks (or
// the v-int tail) on demand and optionally jumping ahead via the term's
// skip list (spec.md §4.3).
package irs

import "fmt"

// docIterator is the concrete iterator Iterator returns. A nil *DocMask
// means "no masking" (every decoded doc is live); otherwise deleted docs
// are silently skipped by Next/Seek (spec.md §4.3's "masked variant").
type docIterator struct {
	in       IndexInput
	features FeatureSet
	meta     TermMeta
	mask     *DocMask

	blockDeltas []uint64
	blockFreqs  []uint64
	blockLen    int
	blockIdx    int

	consumed int64
	value    DocID
	freq     uint32
	started  bool

	skip *skipListReader
	pos  *posIterator
}

// Doc returns the current document, or NoMoreDocs before the first
// Next/Seek call or after exhaustion.
func (it *docIterator) Doc() DocID {
	if !it.started {
		return NoMoreDocs
	}
	return it.value
}

// Freq returns the current document's term frequency (1 if the field
// does not track frequencies).
func (it *docIterator) Freq() uint32 { return it.freq }

// Positions returns the position iterator for the current document, or
// nil if the field has no position feature.
func (it *docIterator) Positions() *posIterator { return it.pos }

// Close releases the iterator's private file cursors.
func (it *docIterator) Close() error {
	var err error
	if e := it.in.Close(); e != nil {
		err = e
	}
	if it.pos != nil {
		if e := it.pos.Close(); e != nil {
			err = e
		}
	}
	return err
}

// Next advances to the next live document, returning NoMoreDocs once the
// term is exhausted.
func (it *docIterator) Next() (DocID, error) {
	for {
		doc, err := it.nextRaw()
		if err != nil {
			return 0, err
		}
		if doc == NoMoreDocs || !it.masked(doc) {
			return doc, nil
		}
	}
}

func (it *docIterator) masked(doc DocID) bool {
	return it.mask != nil && it.mask.Contains(doc)
}

func (it *docIterator) nextRaw() (DocID, error) {
	it.started = true
	if it.consumed >= it.meta.DocsCount {
		it.value = NoMoreDocs
		return NoMoreDocs, nil
	}
	if it.blockIdx >= it.blockLen {
		if err := it.refill(); err != nil {
			return 0, err
		}
	}

	it.value += DocID(it.blockDeltas[it.blockIdx])
	if it.features.Has(FeatureFreq) {
		it.freq = uint32(it.blockFreqs[it.blockIdx])
	} else {
		it.freq = 1
	}
	it.blockIdx++
	it.consumed++

	if it.pos != nil {
		it.pos.onDocAdvance(it.freq)
	}
	return it.value, nil
}

func (it *docIterator) refill() error {
	if it.meta.HasSingle {
		it.blockDeltas = []uint64{uint64(it.meta.SingleDoc)}
		it.blockFreqs = []uint64{uint64(it.meta.SingleFreq)}
		it.blockLen, it.blockIdx = 1, 0
		return nil
	}

	remaining := it.meta.DocsCount - it.consumed
	if remaining >= BlockSize {
		deltas, err := readPackedBlock(it.in, BlockSize)
		if err != nil {
			return err
		}
		it.blockDeltas = deltas
		if it.features.Has(FeatureFreq) {
			freqs, err := readPackedBlock(it.in, BlockSize)
			if err != nil {
				return err
			}
			it.blockFreqs = freqs
		}
		it.blockLen, it.blockIdx = BlockSize, 0
		return nil
	}
	return it.refillTail(int(remaining))
}

func (it *docIterator) refillTail(count int) error {
	deltas := make([]uint64, count)
	freqs := make([]uint64, count)
	for i := 0; i < count; i++ {
		v, err := ReadVInt(it.in)
		if err != nil {
			return fmt.Errorf("%w: read doc tail entry: %v", ErrIndexCorrupt, err)
		}
		if it.features.Has(FeatureFreq) {
			if v&1 != 0 {
				deltas[i] = uint64(v >> 1)
				freqs[i] = 1
			} else {
				deltas[i] = uint64(v >> 1)
				freq, err := ReadVInt(it.in)
				if err != nil {
					return err
				}
				freqs[i] = uint64(freq)
			}
		} else {
			deltas[i] = uint64(v)
			freqs[i] = 1
		}
	}
	it.blockDeltas, it.blockFreqs = deltas, freqs
	it.blockLen, it.blockIdx = count, 0
	return nil
}

// Seek advances to the first live document >= target, using the skip
// list (if any) to jump ahead before falling back to linear Next calls
// (spec.md §4.3's seek).
func (it *docIterator) Seek(target DocID) (DocID, error) {
	if it.started && it.value >= target {
		return it.value, nil
	}

	if it.meta.HasSkip && target > 0 {
		if it.skip == nil {
			skipIn, err := it.in.Clone()
			if err != nil {
				return 0, err
			}
			it.skip = newSkipListReader(skipIn, it.features, it.meta.DocsCount)
		}
		// An entry's doc counts as consumed after the jump, so look up the
		// last entry strictly before target.
		entry, skipped, ok, err := it.skip.skipTo(it.meta.SkipStart, target-1)
		if err != nil {
			return 0, err
		}
		if ok && skipped > it.consumed {
			if err := it.in.Seek(entry.docPtr); err != nil {
				return 0, err
			}
			it.value = entry.doc
			it.consumed = skipped
			it.blockLen, it.blockIdx = 0, 0
			it.started = true
			if it.pos != nil {
				if err := it.pos.seekTo(entry.posPtr, entry.posPending, entry.payPtr); err != nil {
					return 0, err
				}
			}
		}
	}

	for {
		doc, err := it.Next()
		if err != nil {
			return 0, err
		}
		if doc == NoMoreDocs || doc >= target {
			return doc, nil
		}
	}
}
