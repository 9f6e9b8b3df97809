// Postings reader: opens the doc/pos/pay files a postingsWriter produced,
// decodes term meta deltas, and hands back doc/position iterators
// (spec.md §4.3).
package irs

import "fmt"

const (
	postingsDocFormat = "irs_postings_doc"
	postingsPosFormat = "irs_postings_pos"
	postingsPayFormat = "irs_postings_pay"
)

// postingsReader holds the template inputs for one field's postings.
// Each returned iterator clones docIn/posIn/payIn so concurrent
// iterators never share a seek position (spec.md §5).
type postingsReader struct {
	docIn, posIn, payIn IndexInput
	features            FeatureSet
	mask                *DocMask
}

// PreparePostings opens a field's postings for reading: validates each
// file's header/footer and that BLOCK_SIZE matches (spec.md §4.3's
// prepare). posIn/payIn may be nil if the field has no position feature.
func PreparePostings(docIn, posIn, payIn IndexInput, features FeatureSet, mask *DocMask) (*postingsReader, error) {
	if err := features.Validate(); err != nil {
		return nil, err
	}
	if err := verifyPostingsFile(docIn, postingsDocFormat); err != nil {
		return nil, fmt.Errorf("doc stream: %w", err)
	}
	if features.Has(FeaturePosition) {
		if posIn == nil {
			return nil, fmt.Errorf("%w: position feature set but no pos stream given", ErrIndexCorrupt)
		}
		if err := verifyPostingsFile(posIn, postingsPosFormat); err != nil {
			return nil, fmt.Errorf("pos stream: %w", err)
		}
	}
	if features.Has(FeaturePayload) || features.Has(FeatureOffset) {
		if payIn == nil {
			return nil, fmt.Errorf("%w: payload/offset feature set but no pay stream given", ErrIndexCorrupt)
		}
		if err := verifyPostingsFile(payIn, postingsPayFormat); err != nil {
			return nil, fmt.Errorf("pay stream: %w", err)
		}
	}
	return &postingsReader{docIn: docIn, posIn: posIn, payIn: payIn, features: features, mask: mask}, nil
}

func verifyPostingsFile(in IndexInput, format string) error {
	return verifyBlockStreamFile(in, format)
}

// verifyBlockStreamFile validates the header/footer/BLOCK_SIZE framing
// of the postings doc/pos/pay files. The stored-fields data file uses
// verifyBlockStreamFileNoBlockMarker instead, and the columnstore file
// carries a plain header with no BLOCK_SIZE marker.
func verifyBlockStreamFile(in IndexInput, format string) error {
	if err := VerifyFooter(in); err != nil {
		return err
	}
	hdr, err := ReadHeader(in, format)
	if err != nil {
		return err
	}
	if hdr.Version != blockStreamFormatVersion {
		return fmt.Errorf("%w: postings format version %d, want %d", ErrIndexCorrupt, hdr.Version, blockStreamFormatVersion)
	}
	blockSizeByte, err := in.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: read block size marker: %v", ErrIndexCorrupt, err)
	}
	if int(blockSizeByte) != BlockSize {
		return fmt.Errorf("%w: BLOCK_SIZE %d in file, expected %d", ErrIndexCorrupt, blockSizeByte, BlockSize)
	}
	return nil
}

const blockStreamFormatVersion = 1

// WriteBlockStreamHeader writes the fixed header+BLOCK_SIZE marker the
// postings and stored-fields data files begin with (the columnstore file
// is framed with WriteHeader alone). Pair it with WriteFooter (via a crc32Writer) at close.
func WriteBlockStreamHeader(w ByteWriter, format string) error {
	if err := WriteHeader(w, format, blockStreamFormatVersion); err != nil {
		return err
	}
	return w.WriteByte(byte(BlockSize))
}

// Iterator returns a doc_iterator for one term (spec.md §4.3). If the
// reader was given a document mask, the returned iterator silently skips
// masked (deleted) docs.
func (r *postingsReader) Iterator(meta TermMeta, requested FeatureSet) (*docIterator, error) {
	docClone, err := r.docIn.Clone()
	if err != nil {
		return nil, err
	}
	it := &docIterator{
		in:       docClone,
		features: r.features,
		meta:     meta,
		mask:     r.mask,
	}
	if !meta.HasSingle {
		if err := it.in.Seek(meta.DocStart); err != nil {
			return nil, err
		}
	}

	if requested.Has(FeaturePosition) && r.features.Has(FeaturePosition) {
		posClone, err := r.posIn.Clone()
		if err != nil {
			return nil, err
		}
		if err := posClone.Seek(meta.PosStart); err != nil {
			return nil, err
		}
		var payClone IndexInput
		if r.features.Has(FeaturePayload) || r.features.Has(FeatureOffset) {
			payClone, err = r.payIn.Clone()
			if err != nil {
				return nil, err
			}
			if err := payClone.Seek(meta.PayStart); err != nil {
				return nil, err
			}
		}
		it.pos = newPosIterator(posClone, payClone, r.features, meta)
	}
	return it, nil
}

// EncodeTermMeta writes meta into the caller's term dictionary stream as
// deltas against last (spec.md §4.2's encode); the caller resets last to
// a zero TermMeta at the start of each new block of its dictionary
// (spec.md §4.2: "the writer resets last_state at begin_block").
func EncodeTermMeta(w ByteWriter, features FeatureSet, meta TermMeta, last *TermMeta) error {
	if err := WriteVInt(w, uint32(meta.DocsCount)); err != nil {
		return err
	}

	flags := byte(0)
	if meta.HasSingle {
		flags |= 1
	}
	if meta.HasSkip {
		flags |= 2
	}
	if err := w.WriteByte(flags); err != nil {
		return err
	}

	if meta.HasSingle {
		if err := WriteVInt(w, uint32(meta.SingleDoc)); err != nil {
			return err
		}
		if features.Has(FeatureFreq) {
			if err := WriteVInt(w, meta.SingleFreq); err != nil {
				return err
			}
		}
	} else {
		if err := WriteZVInt(w, int32(meta.DocStart-last.DocStart)); err != nil {
			return err
		}
		if meta.HasSkip {
			if err := WriteVInt(w, uint32(meta.SkipStart-meta.DocStart)); err != nil {
				return err
			}
		}
	}

	if features.Has(FeaturePosition) {
		if err := WriteZVInt(w, int32(meta.PosStart-last.PosStart)); err != nil {
			return err
		}
		if err := WriteVInt(w, uint32(meta.PosCount)); err != nil {
			return err
		}
		if err := WriteVInt(w, uint32(meta.PosEnd-meta.PosStart)); err != nil {
			return err
		}
	}
	if features.Has(FeaturePayload) || features.Has(FeatureOffset) {
		if err := WriteZVInt(w, int32(meta.PayStart-last.PayStart)); err != nil {
			return err
		}
	}

	*last = meta
	last.HasSingle, last.HasSkip = false, false
	return nil
}

// DecodeTermMeta is EncodeTermMeta's inverse (spec.md §4.3's decode).
func DecodeTermMeta(r ByteReader, features FeatureSet, last *TermMeta) (TermMeta, error) {
	docsCount, err := ReadVInt(r)
	if err != nil {
		return TermMeta{}, fmt.Errorf("%w: read term docs_count: %v", ErrIndexCorrupt, err)
	}
	flags, err := r.ReadByte()
	if err != nil {
		return TermMeta{}, fmt.Errorf("%w: read term flags: %v", ErrIndexCorrupt, err)
	}

	var meta TermMeta
	meta.DocsCount = int64(docsCount)
	meta.HasSingle = flags&1 != 0
	meta.HasSkip = flags&2 != 0

	if meta.HasSingle {
		singleDoc, err := ReadVInt(r)
		if err != nil {
			return TermMeta{}, err
		}
		meta.SingleDoc = DocID(singleDoc)
		if features.Has(FeatureFreq) {
			singleFreq, err := ReadVInt(r)
			if err != nil {
				return TermMeta{}, err
			}
			meta.SingleFreq = singleFreq
		} else {
			meta.SingleFreq = 1
		}
	} else {
		docStartDelta, err := ReadZVInt(r)
		if err != nil {
			return TermMeta{}, err
		}
		meta.DocStart = last.DocStart + int64(docStartDelta)
		if meta.HasSkip {
			skipOff, err := ReadVInt(r)
			if err != nil {
				return TermMeta{}, err
			}
			meta.SkipStart = meta.DocStart + int64(skipOff)
		}
	}

	if features.Has(FeaturePosition) {
		posStartDelta, err := ReadZVInt(r)
		if err != nil {
			return TermMeta{}, err
		}
		meta.PosStart = last.PosStart + int64(posStartDelta)
		posCount, err := ReadVInt(r)
		if err != nil {
			return TermMeta{}, err
		}
		meta.PosCount = int64(posCount)
		posEndLen, err := ReadVInt(r)
		if err != nil {
			return TermMeta{}, err
		}
		meta.PosEnd = meta.PosStart + int64(posEndLen)
	}
	if features.Has(FeaturePayload) || features.Has(FeatureOffset) {
		payStartDelta, err := ReadZVInt(r)
		if err != nil {
			return TermMeta{}, err
		}
		meta.PayStart = last.PayStart + int64(payStartDelta)
	}

	*last = meta
	last.HasSingle, last.HasSkip = false, false
	return meta, nil
}
