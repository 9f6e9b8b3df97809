// Postings writer: the doc/pos/pay three-file layout described in
// spec.md §4.2. Doc ids and frequencies go to the doc stream; position
// deltas to the pos stream; payload lengths, payload bytes, and offset
// deltas all share the pay stream (the same doc/pos/pay split the
// stormgo/vasth reference sources and mainstream Lucene postings formats
// use, so a downstream term dictionary built against this package needs
// only three file handles per field).
package irs

import (
	"fmt"
	"iter"
)

// Position is one token position within a document's postings for a
// term: Pos is always present; Payload/StartOffset/EndOffset are only
// meaningful when the field enables the corresponding feature.
type Position struct {
	Pos         uint32
	Payload     []byte
	StartOffset uint32
	EndOffset   uint32
}

// PostingDoc is one document's postings for a term, in increasing Doc
// order (spec.md §4.2/§4.3: "doc ids in the writer must be >= 0 and
// strictly increase").
type PostingDoc struct {
	Doc       DocID
	Freq      uint32
	Positions []Position
}

// postingsWriter implements spec.md §4.2: prepare/begin_field/write/end.
type postingsWriter struct {
	docOut, posOut, payOut IndexOutput

	features FeatureSet
	skip     *skipListWriter

	docDeltas []uint64
	freqs     []uint64

	posDeltas        []uint64
	offsStartDeltas  []uint64
	offsLens         []uint64
	payloads         [][]byte // nil entries mean "no payload for this position"

	docsCount int64
	posCount  int64
	lastDoc   DocID
	firstDoc  bool

	pendingPosCount int // positions produced but not yet block-flushed, for skip bookkeeping
}

// newPostingsWriter opens a postings writer over three already-created
// field outputs (spec.md §4.2's prepare).
func newPostingsWriter(docOut, posOut, payOut IndexOutput) *postingsWriter {
	return &postingsWriter{docOut: docOut, posOut: posOut, payOut: payOut}
}

// BeginField resets per-field state for a new field's terms (spec.md
// §4.2's begin_field).
func (w *postingsWriter) BeginField(features FeatureSet) error {
	if err := features.Validate(); err != nil {
		return err
	}
	w.features = features
	w.skip = newSkipListWriter(features)
	return nil
}

// WriteTerm consumes one term's postings and returns the TermMeta that
// encode will later delta-encode into the term dictionary (spec.md
// §4.2's write).
func (w *postingsWriter) WriteTerm(docs iter.Seq[PostingDoc]) (TermMeta, error) {
	w.resetTerm()

	var meta TermMeta
	meta.DocStart = w.docOut.FilePointer()
	if w.features.Has(FeaturePosition) {
		meta.PosStart = w.posOut.FilePointer()
	}
	if w.features.Has(FeaturePayload) || w.features.Has(FeatureOffset) {
		meta.PayStart = w.payOut.FilePointer()
	}

	var singleDoc DocID
	var singleFreq uint32 = 1
	for pd := range docs {
		if !w.firstDoc && pd.Doc <= w.lastDoc {
			return TermMeta{}, fmt.Errorf("%w: doc ids must strictly increase (got %d after %d)", ErrIndexCorrupt, pd.Doc, w.lastDoc)
		}
		delta := uint64(pd.Doc)
		if !w.firstDoc {
			delta = uint64(pd.Doc) - uint64(w.lastDoc)
		}
		w.firstDoc = false
		w.lastDoc = pd.Doc
		w.docsCount++
		if w.docsCount == 1 {
			singleDoc = pd.Doc
			if w.features.Has(FeatureFreq) {
				singleFreq = pd.Freq
			}
		}

		w.docDeltas = append(w.docDeltas, delta)
		if w.features.Has(FeatureFreq) {
			w.freqs = append(w.freqs, uint64(pd.Freq))
		}

		if w.features.Has(FeaturePosition) {
			if err := w.writePositions(pd.Positions); err != nil {
				return TermMeta{}, err
			}
		}

		if len(w.docDeltas) >= BlockSize {
			if err := w.flushDocBlock(); err != nil {
				return TermMeta{}, err
			}
			e := skipEntry{
				doc:        pd.Doc,
				docPtr:     w.docOut.FilePointer(),
				posPending: w.pendingPosCount,
				payBufPos:  len(w.payloads),
			}
			if w.features.Has(FeaturePosition) {
				e.posPtr = w.posOut.FilePointer()
			}
			if w.features.Has(FeaturePayload) || w.features.Has(FeatureOffset) {
				e.payPtr = w.payOut.FilePointer()
			}
			if err := w.skip.record(e); err != nil {
				return TermMeta{}, err
			}
		}
	}

	if w.docsCount == 0 {
		return TermMeta{}, fmt.Errorf("%w: write_term called with no postings", ErrIndexCorrupt)
	}

	meta.DocsCount = w.docsCount
	meta.PosCount = w.posCount
	if w.docsCount == 1 {
		meta.HasSingle = true
		meta.SingleDoc = singleDoc
		meta.SingleFreq = singleFreq
	} else {
		// Doc stream gets nothing for singleton terms (spec.md §4.2 step
		// 4); everything else below still applies.
		if err := w.flushDocTail(); err != nil {
			return TermMeta{}, err
		}
		if w.docsCount > BlockSize {
			skipStart, err := w.skip.flush(w.docOut)
			if err != nil {
				return TermMeta{}, err
			}
			meta.HasSkip = true
			meta.SkipStart = skipStart
		}
	}

	if w.features.Has(FeaturePosition) {
		meta.PosEnd = w.posOut.FilePointer()
		if err := w.flushPosTail(); err != nil {
			return TermMeta{}, err
		}
	}
	return meta, nil
}

func (w *postingsWriter) resetTerm() {
	w.docDeltas = w.docDeltas[:0]
	w.freqs = w.freqs[:0]
	w.posDeltas = w.posDeltas[:0]
	w.offsStartDeltas = w.offsStartDeltas[:0]
	w.offsLens = w.offsLens[:0]
	w.payloads = w.payloads[:0]
	w.docsCount = 0
	w.posCount = 0
	w.lastDoc = 0
	w.firstDoc = true
	w.pendingPosCount = 0
	if w.skip != nil {
		w.skip.reset()
	}
}

func (w *postingsWriter) writePositions(positions []Position) error {
	var prevPos uint32
	var prevEnd uint32
	for _, p := range positions {
		w.posDeltas = append(w.posDeltas, uint64(p.Pos-prevPos))
		prevPos = p.Pos
		if w.features.Has(FeaturePayload) {
			w.payloads = append(w.payloads, p.Payload)
		}
		if w.features.Has(FeatureOffset) {
			w.offsStartDeltas = append(w.offsStartDeltas, uint64(p.StartOffset-prevEnd))
			w.offsLens = append(w.offsLens, uint64(p.EndOffset-p.StartOffset))
			prevEnd = p.EndOffset
		}
		w.pendingPosCount++
		w.posCount++
		if len(w.posDeltas) >= BlockSize {
			if err := w.flushPosBlock(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *postingsWriter) flushDocBlock() error {
	if err := flushPackedBlock(w.docOut, w.docDeltas); err != nil {
		return err
	}
	if w.features.Has(FeatureFreq) {
		if err := flushPackedBlock(w.docOut, w.freqs); err != nil {
			return err
		}
	}
	w.docDeltas = w.docDeltas[:0]
	w.freqs = w.freqs[:0]
	return nil
}

func (w *postingsWriter) flushPosBlock() error {
	if err := flushPackedBlock(w.posOut, w.posDeltas); err != nil {
		return err
	}
	n := len(w.posDeltas)
	w.pendingPosCount -= n

	if w.features.Has(FeatureOffset) {
		if err := flushPackedBlock(w.payOut, w.offsStartDeltas); err != nil {
			return err
		}
		if err := flushPackedBlock(w.payOut, w.offsLens); err != nil {
			return err
		}
	}
	if w.features.Has(FeaturePayload) {
		lens := make([]uint64, n)
		for i, p := range w.payloads {
			lens[i] = uint64(len(p))
		}
		if err := flushPackedBlock(w.payOut, lens); err != nil {
			return err
		}
		for _, p := range w.payloads {
			if len(p) == 0 {
				continue
			}
			if _, err := w.payOut.Write(p); err != nil {
				return err
			}
		}
	}

	w.posDeltas = w.posDeltas[:0]
	w.offsStartDeltas = w.offsStartDeltas[:0]
	w.offsLens = w.offsLens[:0]
	w.payloads = w.payloads[:0]
	return nil
}

// flushDocTail writes the docs_count mod BLOCK_SIZE leftover entries
// with the combined-flag v-int encoding from spec.md §4.2 step 4.
func (w *postingsWriter) flushDocTail() error {
	for i, delta := range w.docDeltas {
		if w.features.Has(FeatureFreq) {
			freq := w.freqs[i]
			if freq == 1 {
				if err := WriteVInt(w.docOut, uint32(delta<<1|1)); err != nil {
					return err
				}
				continue
			}
			if err := WriteVInt(w.docOut, uint32(delta<<1)); err != nil {
				return err
			}
			if err := WriteVInt(w.docOut, uint32(freq)); err != nil {
				return err
			}
			continue
		}
		if err := WriteVInt(w.docOut, uint32(delta)); err != nil {
			return err
		}
	}
	w.docDeltas = w.docDeltas[:0]
	w.freqs = w.freqs[:0]
	return nil
}

// flushPosTail writes the leftover positions with the same-as-previous
// flag bits for payload length and offset length described in spec.md
// §4.2 step 4 / §4.3.
func (w *postingsWriter) flushPosTail() error {
	hasPay := w.features.Has(FeaturePayload)
	hasOffs := w.features.Has(FeatureOffset)

	var prevPayLen uint64 = ^uint64(0)
	var prevOffsLen uint64 = ^uint64(0)

	for i, delta := range w.posDeltas {
		var payLen uint64
		if hasPay {
			payLen = uint64(len(w.payloads[i]))
		}
		samePayLen := hasPay && payLen == prevPayLen
		sameOffsLen := hasOffs && w.offsLens[i] == prevOffsLen

		flags := uint64(0)
		nflags := uint(0)
		if hasPay {
			if samePayLen {
				flags |= 1 << nflags
			}
			nflags++
		}
		if hasOffs {
			if sameOffsLen {
				flags |= 1 << nflags
			}
			nflags++
		}
		if err := WriteVInt(w.posOut, uint32(delta<<nflags|flags)); err != nil {
			return err
		}

		if hasPay {
			if !samePayLen {
				if err := WriteVInt(w.payOut, uint32(payLen)); err != nil {
					return err
				}
			}
			if payLen > 0 {
				if _, err := w.payOut.Write(w.payloads[i]); err != nil {
					return err
				}
			}
			prevPayLen = payLen
		}
		if hasOffs {
			if err := WriteVInt(w.payOut, uint32(w.offsStartDeltas[i])); err != nil {
				return err
			}
			if !sameOffsLen {
				if err := WriteVInt(w.payOut, uint32(w.offsLens[i])); err != nil {
					return err
				}
			}
			prevOffsLen = w.offsLens[i]
		}
	}

	w.posDeltas = w.posDeltas[:0]
	w.offsStartDeltas = w.offsStartDeltas[:0]
	w.offsLens = w.offsLens[:0]
	w.payloads = w.payloads[:0]
	return nil
}

// End finalizes the field's streams (spec.md §4.2's end). The three
// outputs are owned by the caller (typically a segment writer closing
// all of a field's files together), so End does not close them; it has
// nothing left to flush either, since WriteTerm writes each term's tails.
func (w *postingsWriter) End() error {
	return nil
}

// flushPackedBlock writes a full BLOCK_SIZE block: one byte giving the
// bits-per-value width, followed by the big-endian bit-packed values
// (spec.md §4.2: "flush it as a bit-packed block using the narrowest
// fixed-width packing that fits the block's max value").
func flushPackedBlock(w ByteWriter, vals []uint64) error {
	var max uint64
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	bits := bitsRequired(max)
	if err := w.WriteByte(byte(bits)); err != nil {
		return err
	}
	_, err := w.Write(packBlock(vals, bits))
	return err
}

// readPackedBlock is flushPackedBlock's inverse.
func readPackedBlock(r ByteReader, count int) ([]uint64, error) {
	bitsByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: read block width: %v", ErrIndexCorrupt, err)
	}
	bits := uint(bitsByte)
	if bits > 64 {
		return nil, fmt.Errorf("%w: implausible block width %d", ErrIndexCorrupt, bits)
	}
	byteLen := packedByteLen(count, bits)
	buf := make([]byte, byteLen)
	if err := readFull(r, buf); err != nil {
		return nil, err
	}
	return unpackBlock(buf, count, bits), nil
}
