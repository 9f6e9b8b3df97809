// Document mask: the per-segment tombstone set, backed by a Roaring
// bitmap (spec.md §4.7). This is the teacher's pack contributing a
// library the teacher itself never needed — RoaringBitmap/roaring is
// used elsewhere in the retrieval pack for dense id sets and is a
// better fit here than a plain bitset/map: segments are typically
// mostly-live, so a mask is usually sparse, and roaring's run-length
// containers compress that well while still answering Contains in O(1)
// amortized.
package irs

import (
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
)

const docMaskFormat = "irs_doc_mask"
const docMaskFormatVersion = 1

// DocMask is a segment's set of deleted document ids.
type DocMask struct {
	bitmap *roaring.Bitmap
}

// NewDocMask returns an empty mask (no deletions).
func NewDocMask() *DocMask {
	return &DocMask{bitmap: roaring.New()}
}

// Add marks doc as deleted.
func (m *DocMask) Add(doc DocID) { m.bitmap.Add(uint32(doc)) }

// Contains reports whether doc is masked (deleted).
func (m *DocMask) Contains(doc DocID) bool { return m.bitmap.Contains(uint32(doc)) }

// Count returns the number of masked documents.
func (m *DocMask) Count() int64 { return int64(m.bitmap.GetCardinality()) }

// Write serializes the mask as [header | roaring-serialized bitmap |
// footer(crc)] (spec.md §4.7's "small self-describing files").
func (m *DocMask) Write(out IndexOutput) error {
	cw := newCRC32Writer(out)
	if err := WriteHeader(cw, docMaskFormat, docMaskFormatVersion); err != nil {
		return err
	}
	body, err := m.bitmap.ToBytes()
	if err != nil {
		return fmt.Errorf("irs: serialize doc mask: %w", err)
	}
	if err := WriteVInt(cw, uint32(len(body))); err != nil {
		return err
	}
	if _, err := cw.Write(body); err != nil {
		return err
	}
	return cw.Close()
}

// ReadDocMask deserializes a mask written by Write, verifying the header
// and footer first (spec.md §4.7).
func ReadDocMask(in IndexInput) (*DocMask, error) {
	if err := VerifyFooter(in); err != nil {
		return nil, err
	}
	if _, err := ReadHeader(in, docMaskFormat); err != nil {
		return nil, err
	}
	n, err := ReadVInt(in)
	if err != nil {
		return nil, fmt.Errorf("%w: read doc mask body length: %v", ErrIndexCorrupt, err)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(in, body); err != nil {
		return nil, fmt.Errorf("%w: read doc mask body: %v", ErrIndexCorrupt, err)
	}
	bm := roaring.New()
	if err := bm.UnmarshalBinary(body); err != nil {
		return nil, fmt.Errorf("%w: decode doc mask bitmap: %v", ErrIndexCorrupt, err)
	}
	return &DocMask{bitmap: bm}, nil
}
