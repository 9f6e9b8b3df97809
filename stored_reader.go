// Stored-fields reader: visit(doc, visitor) locates doc's block via a
// lower_bound on the in-memory compressing index, decompresses it if it
// isn't already the cached "current" block, and hands the doc's
// header/body slices to the visitor in a single call (spec.md §4.5).
package irs

import (
	"fmt"
	"sort"
)

type storedReader struct {
	dataIn IndexInput
	index  []storedIndexEntry

	totalBlocks      int
	incompleteBlocks int
	maxBlockSize     int

	curBlockOffset int64
	curLoaded      bool
	curFirstDoc    DocID
	curCount       int
	curBodyLens    []uint64
	curHeaderLens  []uint64
	curBodies      []byte
	curHeaders     []byte
}

// PrepareStored opens a stored-fields store for reading (spec.md §4.5).
func PrepareStored(dataIn, indexIn IndexInput) (*storedReader, error) {
	if err := verifyBlockStreamFileNoBlockMarker(dataIn, storedDataFormat); err != nil {
		return nil, fmt.Errorf("stored data: %w", err)
	}
	if err := VerifyFooter(indexIn); err != nil {
		return nil, err
	}
	if _, err := ReadHeader(indexIn, storedIndexFormat); err != nil {
		return nil, err
	}

	n, err := ReadVInt(indexIn)
	if err != nil {
		return nil, fmt.Errorf("%w: read stored index entry count: %v", ErrIndexCorrupt, err)
	}
	entries := make([]storedIndexEntry, n)
	var lastDoc DocID
	var lastOffset int64
	for i := range entries {
		docDelta, err := ReadVInt(indexIn)
		if err != nil {
			return nil, err
		}
		offDelta, err := ReadZVInt(indexIn)
		if err != nil {
			return nil, err
		}
		lastDoc += DocID(docDelta)
		lastOffset += int64(offDelta)
		entries[i] = storedIndexEntry{firstDoc: lastDoc, offset: lastOffset}
	}

	totalBlocks, err := ReadVInt(indexIn)
	if err != nil {
		return nil, err
	}
	incompleteBlocks, err := ReadVInt(indexIn)
	if err != nil {
		return nil, err
	}
	maxBlockSize, err := ReadVInt(indexIn)
	if err != nil {
		return nil, err
	}

	return &storedReader{
		dataIn:           dataIn,
		index:            entries,
		totalBlocks:      int(totalBlocks),
		incompleteBlocks: int(incompleteBlocks),
		maxBlockSize:     int(maxBlockSize),
		curBlockOffset:   -1,
	}, nil
}

// verifyBlockStreamFileNoBlockMarker is verifyBlockStreamFile without
// the BLOCK_SIZE byte check: the stored-fields data file packs per-block
// variable-length arrays rather than fixed BLOCK_SIZE postings blocks.
func verifyBlockStreamFileNoBlockMarker(in IndexInput, format string) error {
	if err := VerifyFooter(in); err != nil {
		return err
	}
	hdr, err := ReadHeader(in, format)
	if err != nil {
		return err
	}
	if hdr.Version != blockStreamFormatVersion {
		return fmt.Errorf("%w: format version %d, want %d", ErrIndexCorrupt, hdr.Version, blockStreamFormatVersion)
	}
	if _, err := in.ReadByte(); err != nil { // discard the BLOCK_SIZE marker byte, unused here
		return fmt.Errorf("%w: read header trailer byte: %v", ErrIndexCorrupt, err)
	}
	return nil
}

// Visit calls visitor(header, body) for doc if it is present in the
// store. A document's stored fields are a single header/body blob pair
// in this format (spec.md §4.5's writer takes one header and one body
// per AddDocument call, not a sequence of sub-records), so the blob is
// always exhausted after one call; visitor's return value is ignored,
// since there is nothing left to hand it either way. found is false if doc has no
// stored fields (it was never added, or the caller should treat this as
// "nothing stored").
func (r *storedReader) Visit(doc DocID, visitor func(header, body []byte) bool) (found bool, err error) {
	if len(r.index) == 0 {
		return false, nil
	}
	i := sort.Search(len(r.index), func(i int) bool { return r.index[i].firstDoc > doc }) - 1
	if i < 0 {
		return false, nil
	}
	entry := r.index[i]

	if !r.curLoaded || r.curBlockOffset != entry.offset {
		if err := r.loadBlock(entry); err != nil {
			return false, err
		}
	}

	localIdx := int(doc - r.curFirstDoc)
	if localIdx < 0 || localIdx >= r.curCount {
		return false, nil
	}

	var bodyOff, headerOff int
	for i := 0; i < localIdx; i++ {
		bodyOff += int(r.curBodyLens[i])
		headerOff += int(r.curHeaderLens[i])
	}
	body := r.curBodies[bodyOff : bodyOff+int(r.curBodyLens[localIdx])]
	header := r.curHeaders[headerOff : headerOff+int(r.curHeaderLens[localIdx])]
	visitor(header, body) // return value has nothing left to gate: one blob pair per doc, already exhausted
	return true, nil
}

func (r *storedReader) loadBlock(entry storedIndexEntry) error {
	if err := r.dataIn.Seek(entry.offset); err != nil {
		return err
	}
	firstDoc, err := ReadVInt(r.dataIn)
	if err != nil {
		return fmt.Errorf("%w: read block first doc: %v", ErrIndexCorrupt, err)
	}
	count, err := ReadVInt(r.dataIn)
	if err != nil {
		return fmt.Errorf("%w: read block doc count: %v", ErrIndexCorrupt, err)
	}
	bodyLens, err := readPackedBlock(r.dataIn, int(count))
	if err != nil {
		return err
	}
	headerLens, err := readPackedBlock(r.dataIn, int(count))
	if err != nil {
		return err
	}

	var total int
	for _, l := range bodyLens {
		total += int(l)
	}
	for _, l := range headerLens {
		total += int(l)
	}
	concat, err := decompressBlock(r.dataIn, total+1)
	if err != nil {
		return err
	}

	var bodyTotal int
	for _, l := range bodyLens {
		bodyTotal += int(l)
	}
	if bodyTotal > len(concat) {
		return fmt.Errorf("%w: stored block body length exceeds payload", ErrIndexCorrupt)
	}

	r.curBlockOffset = entry.offset
	r.curLoaded = true
	r.curFirstDoc = DocID(firstDoc)
	r.curCount = int(count)
	r.curBodyLens = bodyLens
	r.curHeaderLens = headerLens
	r.curBodies = concat[:bodyTotal]
	r.curHeaders = concat[bodyTotal:]
	return nil
}

