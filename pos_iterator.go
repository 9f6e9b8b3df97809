// pos_iterator decodes a term's position stream (and, when enabled, its
// offsets and payloads) one document's worth at a time, refilling packed
// blocks from the pos/pay streams the same way doc_iterator refills the
// doc stream (spec.md §4.3).
//
// Usage: after docIterator.Next/Seek lands on a document, the caller
// calls Next() up to Freq() times to retrieve that document's positions.
// onDocAdvance (called internally by docIterator) resets the per-doc
// position/offset accumulators to 0, matching the writer resetting them
// per doc.
package irs

import "fmt"

type posIterator struct {
	posIn, payIn IndexInput
	features     FeatureSet
	meta         TermMeta

	consumed int64 // total positions consumed across the whole term
	pending  int   // positions remaining for the current document

	blockDeltas    []uint64
	offsStartBlock []uint64
	offsLenBlock   []uint64
	payLenBlock    []uint64
	blockLen       int
	blockIdx       int

	payBytes    []byte
	payBytesOff int

	curPos   uint32
	curStart uint32
	curEnd   uint32
	curPay   []byte

	// tail-mode running state (mirrors the writer's same-as-previous
	// flag scheme in flushPosTail)
	tailPrevPayLen  uint64
	tailPrevOffsLen uint64
	tailPrevValid   bool
}

func newPosIterator(posIn, payIn IndexInput, features FeatureSet, meta TermMeta) *posIterator {
	return &posIterator{posIn: posIn, payIn: payIn, features: features, meta: meta}
}

// onDocAdvance is called by docIterator each time it lands on a new
// document: it makes freq more positions available and resets the
// per-doc position/offset origins to 0.
func (it *posIterator) onDocAdvance(freq uint32) {
	it.pending += int(freq)
	it.curPos = 0
	it.curEnd = 0
}

// Pos returns the current position's token offset.
func (it *posIterator) Pos() uint32 { return it.curPos }

// StartOffset/EndOffset return the current position's character offsets
// (only meaningful if the field has the offset feature).
func (it *posIterator) StartOffset() uint32 { return it.curStart }
func (it *posIterator) EndOffset() uint32   { return it.curEnd }

// Payload returns the current position's payload bytes (nil if the
// field has no payload feature, or the payload was empty).
func (it *posIterator) Payload() []byte { return it.curPay }

// Close releases the iterator's private file cursors.
func (it *posIterator) Close() error {
	var err error
	if e := it.posIn.Close(); e != nil {
		err = e
	}
	if it.payIn != nil {
		if e := it.payIn.Close(); e != nil {
			err = e
		}
	}
	return err
}

// Next decodes the next pending position for the current document. ok
// is false once the current document's positions are exhausted
// (spec.md §4.3's "if pending positions depleted -> no_more").
func (it *posIterator) Next() (ok bool, err error) {
	if it.pending == 0 {
		return false, nil
	}
	it.pending--

	if it.blockIdx >= it.blockLen {
		if err := it.refill(); err != nil {
			return false, err
		}
	}

	it.curPos += uint32(it.blockDeltas[it.blockIdx])

	if it.features.Has(FeatureOffset) {
		it.curStart = it.curEnd + uint32(it.offsStartBlock[it.blockIdx])
		it.curEnd = it.curStart + uint32(it.offsLenBlock[it.blockIdx])
	}
	if it.features.Has(FeaturePayload) {
		n := int(it.payLenBlock[it.blockIdx])
		if n == 0 {
			it.curPay = nil
		} else {
			it.curPay = it.payBytes[it.payBytesOff : it.payBytesOff+n]
			it.payBytesOff += n
		}
	}

	it.blockIdx++
	it.consumed++
	return true, nil
}

func (it *posIterator) refill() error {
	remaining := it.meta.PosCount - it.consumed
	if remaining >= BlockSize {
		return it.refillBlock()
	}
	return it.refillTail(int(remaining))
}

func (it *posIterator) refillBlock() error {
	deltas, err := readPackedBlock(it.posIn, BlockSize)
	if err != nil {
		return err
	}
	it.blockDeltas = deltas

	if it.features.Has(FeatureOffset) {
		starts, err := readPackedBlock(it.payIn, BlockSize)
		if err != nil {
			return err
		}
		lens, err := readPackedBlock(it.payIn, BlockSize)
		if err != nil {
			return err
		}
		it.offsStartBlock, it.offsLenBlock = starts, lens
	}
	if it.features.Has(FeaturePayload) {
		lens, err := readPackedBlock(it.payIn, BlockSize)
		if err != nil {
			return err
		}
		it.payLenBlock = lens
		total := 0
		for _, l := range lens {
			total += int(l)
		}
		buf := make([]byte, total)
		if err := readFull(it.payIn, buf); err != nil {
			return err
		}
		it.payBytes, it.payBytesOff = buf, 0
	}

	it.blockLen, it.blockIdx = BlockSize, 0
	return nil
}

func (it *posIterator) refillTail(count int) error {
	hasPay := it.features.Has(FeaturePayload)
	hasOffs := it.features.Has(FeatureOffset)

	deltas := make([]uint64, count)
	var offsStart, offsLen, payLen []uint64
	var payBuf []byte
	if hasOffs {
		offsStart = make([]uint64, count)
		offsLen = make([]uint64, count)
	}
	if hasPay {
		payLen = make([]uint64, count)
	}

	for i := 0; i < count; i++ {
		v, err := ReadVInt(it.posIn)
		if err != nil {
			return fmt.Errorf("%w: read pos tail entry: %v", ErrIndexCorrupt, err)
		}
		nflags := uint(0)
		if hasPay {
			nflags++
		}
		if hasOffs {
			nflags++
		}
		deltas[i] = uint64(v >> nflags)
		flags := v & ((1 << nflags) - 1)
		bit := uint32(0)

		if hasPay {
			same := flags&(1<<bit) != 0
			bit++
			var l uint64
			if same && it.tailPrevValid {
				l = it.tailPrevPayLen
			} else {
				lv, err := ReadVInt(it.payIn)
				if err != nil {
					return err
				}
				l = uint64(lv)
			}
			payLen[i] = l
			it.tailPrevPayLen = l
			if l > 0 {
				b := make([]byte, l)
				if err := readFull(it.payIn, b); err != nil {
					return err
				}
				payBuf = append(payBuf, b...)
			}
		}
		if hasOffs {
			same := flags&(1<<bit) != 0
			bit++
			sd, err := ReadVInt(it.payIn)
			if err != nil {
				return err
			}
			offsStart[i] = uint64(sd)
			var l uint64
			if same && it.tailPrevValid {
				l = it.tailPrevOffsLen
			} else {
				lv, err := ReadVInt(it.payIn)
				if err != nil {
					return err
				}
				l = uint64(lv)
			}
			offsLen[i] = l
			it.tailPrevOffsLen = l
		}
		it.tailPrevValid = true
	}

	it.blockDeltas = deltas
	it.offsStartBlock, it.offsLenBlock = offsStart, offsLen
	it.payLenBlock = payLen
	it.payBytes, it.payBytesOff = payBuf, 0
	it.blockLen, it.blockIdx = count, 0
	return nil
}

// seekTo is called by docIterator.Seek after a successful skip-list
// jump: it repositions the pos/pay inputs and primes pending/origin
// state so the next onDocAdvance+Next calls resume correctly.
func (it *posIterator) seekTo(posPtr int64, pending int, payPtr int64) error {
	if err := it.posIn.Seek(posPtr); err != nil {
		return err
	}
	if it.payIn != nil {
		if err := it.payIn.Seek(payPtr); err != nil {
			return err
		}
	}
	it.blockLen, it.blockIdx = 0, 0
	it.pending = 0 // onDocAdvance (called by the doc iterator's next Next) will set this from freq
	_ = pending     // the skip entry's pending count describes the skipped-to block's carry-over, already reflected in the stream position
	it.curPos, it.curEnd = 0, 0
	it.tailPrevValid = false
	return nil
}
