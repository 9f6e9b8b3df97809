// Segment writer/reader: the orchestrator tying the per-component codecs
// (postings, stored fields, columnstore, doc mask, field meta) into one
// named unit of commit (spec.md §2's "Segment" and §4.7's file set).
//
// A segment's files all share one hash-derived name stem (hash.go) with
// per-component extensions, mirroring the teacher's single-data-file
// layout generalized to this format's multi-file-per-segment design:
// "<name>.doc"/".pos"/".pay" (postings), ".sd"/".si" (stored fields),
// ".cs" (columnstore), ".dm" (doc mask), ".fm" (field meta).
package irs

import "fmt"

const (
	extDoc      = ".doc"
	extPos      = ".pos"
	extPay      = ".pay"
	extStoredD  = ".sd"
	extStoredI  = ".si"
	extColumn   = ".cs"
	extDocMask  = ".dm"
	extFieldMeta = ".fm"
)

// SegmentWriter builds one segment: a shared postings writer across all
// of a segment's fields (each field's term postings land at whatever
// offset the shared doc/pos/pay streams are at when its terms are
// written, per TermMeta's absolute-offset design), one stored-fields
// writer, and one columnstore writer.
type SegmentWriter struct {
	dir    Directory
	name   string
	config Config

	docOut, posOut, payOut *crc32Writer
	storedDataOut          IndexOutput
	storedIndexOut         IndexOutput
	columnOut              IndexOutput

	postings *postingsWriter
	stored   *storedWriter
	columns  *columnWriter

	fields     []FieldInfo
	usedPos    bool
	usedPayOff bool
	nextFieldID uint32
	docsCount  DocID
	closed     bool
}

// NewSegmentWriter creates a new segment's files under dir, named by
// hashing generation with cfg.SegmentNameAlgorithm (hash.go).
func NewSegmentWriter(dir Directory, generation int64, cfg Config) (*SegmentWriter, error) {
	cfg, err0 := cfg.normalize()
	if err0 != nil {
		return nil, err0
	}
	name := newSegmentName(generation, cfg.SegmentNameAlgorithm)

	docRaw, err := dir.Create(name + extDoc)
	if err != nil {
		return nil, err
	}
	posRaw, err := dir.Create(name + extPos)
	if err != nil {
		return nil, err
	}
	payRaw, err := dir.Create(name + extPay)
	if err != nil {
		return nil, err
	}
	// Every byte of a postings stream (header included) must fall under
	// its footer's CRC, so the crc32Writer wraps the raw file from the
	// very first byte rather than being introduced only at Commit.
	docOut := newCRC32Writer(docRaw)
	posOut := newCRC32Writer(posRaw)
	payOut := newCRC32Writer(payRaw)
	if err := WriteBlockStreamHeader(docOut, postingsDocFormat); err != nil {
		return nil, err
	}
	if err := WriteBlockStreamHeader(posOut, postingsPosFormat); err != nil {
		return nil, err
	}
	if err := WriteBlockStreamHeader(payOut, postingsPayFormat); err != nil {
		return nil, err
	}

	storedDataOut, err := dir.Create(name + extStoredD)
	if err != nil {
		return nil, err
	}
	storedIndexOut, err := dir.Create(name + extStoredI)
	if err != nil {
		return nil, err
	}
	stored, err := newStoredWriter(storedDataOut)
	if err != nil {
		return nil, err
	}

	columnOut, err := dir.Create(name + extColumn)
	if err != nil {
		return nil, err
	}
	columns, err := newColumnWriterWithChecksum(columnOut, cfg.checksumAlgorithm())
	if err != nil {
		return nil, err
	}

	return &SegmentWriter{
		dir: dir, name: name, config: cfg,
		docOut: docOut, posOut: posOut, payOut: payOut,
		storedDataOut: storedDataOut, storedIndexOut: storedIndexOut,
		columnOut: columnOut,
		postings:  newPostingsWriter(docOut, posOut, payOut),
		stored:    stored,
		columns:   columns,
	}, nil
}

// Name returns this segment's file-name stem.
func (w *SegmentWriter) Name() string { return w.name }

// BeginField starts a new field's terms, returning its assigned field id
// (spec.md §4.2's begin_field, lifted to segment scope). normColumnID is
// the columnstore column id backing the field's norms, or -1 if none.
func (w *SegmentWriter) BeginField(name string, features FeatureSet, normColumnID int32) (uint32, error) {
	if err := w.postings.BeginField(features); err != nil {
		return 0, err
	}
	if features.Has(FeaturePosition) {
		w.usedPos = true
	}
	if features.Has(FeaturePayload) || features.Has(FeatureOffset) {
		w.usedPayOff = true
	}
	id := w.nextFieldID
	w.nextFieldID++
	w.fields = append(w.fields, FieldInfo{Name: name, ID: id, Features: features, NormColumnID: normColumnID})
	return id, nil
}

// WriteTerm writes one term's postings for the current field (spec.md
// §4.2's write).
func (w *SegmentWriter) WriteTerm(docs func(yield func(PostingDoc) bool)) (TermMeta, error) {
	return w.postings.WriteTerm(docs)
}

// AddStoredDocument appends a document's stored header/body bytes,
// advancing the segment's document count (spec.md §4.5's write).
func (w *SegmentWriter) AddStoredDocument(header, body []byte) (DocID, error) {
	doc, err := w.stored.AddDocument(header, body)
	if err != nil {
		return 0, err
	}
	if doc+1 > w.docsCount {
		w.docsCount = doc + 1
	}
	return doc, nil
}

// Column returns the columnstore builder for name, creating it on first
// use (spec.md §4.6).
func (w *SegmentWriter) Column(name string) *columnBuilder {
	return w.columns.Column(name)
}

// AddColumnValue appends value to doc's row in column (spec.md §4.6's
// write).
func (w *SegmentWriter) AddColumnValue(column *columnBuilder, doc DocID, value []byte) error {
	return w.columns.AddValue(column, doc, value)
}

// Commit finalizes every component stream, writes field meta and (if
// non-empty) a doc mask, writes segment meta, and returns the SegmentMeta
// describing the committed file set (spec.md §4.7). deletes may be nil.
func (w *SegmentWriter) Commit(deletes *DocMask) (SegmentMeta, error) {
	if w.closed {
		return SegmentMeta{}, fmt.Errorf("%w: segment %q already committed", ErrClosed, w.name)
	}
	w.closed = true

	if err := w.postings.End(); err != nil {
		return SegmentMeta{}, err
	}
	if err := w.docOut.Close(); err != nil {
		return SegmentMeta{}, err
	}
	if err := w.posOut.Close(); err != nil {
		return SegmentMeta{}, err
	}
	if err := w.payOut.Close(); err != nil {
		return SegmentMeta{}, err
	}

	if err := w.stored.Close(w.storedIndexOut); err != nil {
		return SegmentMeta{}, err
	}
	if err := w.storedDataOut.Close(); err != nil {
		return SegmentMeta{}, err
	}
	if err := w.storedIndexOut.Close(); err != nil {
		return SegmentMeta{}, err
	}

	if err := w.columns.Close(); err != nil {
		return SegmentMeta{}, err
	}

	files := []string{w.name + extStoredD, w.name + extStoredI, w.name + extColumn, w.name + extFieldMeta}
	if w.usedPos {
		files = append(files, w.name+extPos)
	}
	if w.usedPayOff {
		files = append(files, w.name+extPay)
	}
	files = append([]string{w.name + extDoc}, files...)

	fmOut, err := w.dir.Create(w.name + extFieldMeta)
	if err != nil {
		return SegmentMeta{}, err
	}
	if err := WriteFieldMeta(fmOut, w.fields); err != nil { // closes fmOut
		return SegmentMeta{}, err
	}

	if deletes != nil && deletes.Count() > 0 {
		dmOut, err := w.dir.Create(w.name + extDocMask)
		if err != nil {
			return SegmentMeta{}, err
		}
		if err := deletes.Write(dmOut); err != nil {
			return SegmentMeta{}, err
		}
		files = append(files, w.name+extDocMask)
	}

	meta := SegmentMeta{Name: w.name, Codec: CodecName, Version: 1, DocsCount: int64(w.docsCount), Files: files}
	smOut, err := w.dir.Create(w.name + ".sm")
	if err != nil {
		return SegmentMeta{}, err
	}
	if err := WriteSegmentMeta(smOut, meta); err != nil { // closes smOut
		return SegmentMeta{}, err
	}

	if w.config.SyncWrites {
		allFiles := append(append([]string{}, files...), w.name+".sm")
		for _, f := range allFiles {
			if err := w.dir.Sync(f); err != nil {
				return SegmentMeta{}, err
			}
		}
	}
	return meta, nil
}

// SegmentReader opens a committed segment's component readers (spec.md
// §4.3/§4.5/§4.6's prepare, lifted to segment scope).
type SegmentReader struct {
	dir  Directory
	meta SegmentMeta

	docIn, posIn, payIn        IndexInput
	storedDataIn, storedIndexIn IndexInput
	columnIn                    IndexInput

	Fields   []FieldInfo
	Mask     *DocMask
	Postings *postingsReader
	Stored   *storedReader
	Columns  *columnReader
}

// OpenSegment opens every file meta names and wires up the per-component
// readers, applying a doc mask if the segment's file set includes one.
func OpenSegment(dir Directory, meta SegmentMeta) (*SegmentReader, error) {
	r := &SegmentReader{dir: dir, meta: meta}

	hasFile := func(ext string) bool {
		for _, f := range meta.Files {
			if f == meta.Name+ext {
				return true
			}
		}
		return false
	}

	var err error
	if r.docIn, err = dir.Open(meta.Name + extDoc); err != nil {
		return nil, err
	}
	if hasFile(extPos) {
		if r.posIn, err = dir.Open(meta.Name + extPos); err != nil {
			return nil, err
		}
	}
	if hasFile(extPay) {
		if r.payIn, err = dir.Open(meta.Name + extPay); err != nil {
			return nil, err
		}
	}

	fmIn, err := dir.Open(meta.Name + extFieldMeta)
	if err != nil {
		return nil, err
	}
	defer fmIn.Close()
	if r.Fields, err = ReadFieldMeta(fmIn); err != nil {
		return nil, err
	}

	if hasFile(extDocMask) {
		dmIn, err := dir.Open(meta.Name + extDocMask)
		if err != nil {
			return nil, err
		}
		defer dmIn.Close()
		if r.Mask, err = ReadDocMask(dmIn); err != nil {
			return nil, err
		}
	}

	var fields FeatureSet
	for _, f := range r.Fields {
		fields |= f.Features
	}
	if r.Postings, err = PreparePostings(r.docIn, r.posIn, r.payIn, fields, r.Mask); err != nil {
		return nil, err
	}

	if r.storedDataIn, err = dir.Open(meta.Name + extStoredD); err != nil {
		return nil, err
	}
	if r.storedIndexIn, err = dir.Open(meta.Name + extStoredI); err != nil {
		return nil, err
	}
	if r.Stored, err = PrepareStored(r.storedDataIn, r.storedIndexIn); err != nil {
		return nil, err
	}

	if r.columnIn, err = dir.Open(meta.Name + extColumn); err != nil {
		return nil, err
	}
	if r.Columns, err = PrepareColumnStore(r.columnIn); err != nil {
		return nil, err
	}

	return r, nil
}

// Close releases every component reader's input.
func (r *SegmentReader) Close() error {
	var firstErr error
	closers := []IndexInput{r.docIn, r.posIn, r.payIn, r.storedDataIn, r.storedIndexIn, r.columnIn}
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
