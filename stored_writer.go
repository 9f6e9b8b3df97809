// Stored-fields writer: documents accumulate in a sliding byte buffer
// and are flushed in blocks of up to MaxBufferedDocs (or StoredBufSize
// bytes, whichever comes first), each block header/body-length-packed
// and then zstd-compressed as one payload (spec.md §4.5).
package irs

const (
	// MaxBufferedDocs bounds a stored-fields block by document count.
	MaxBufferedDocs = 128
	// StoredBufSize bounds a stored-fields block by buffered byte size.
	StoredBufSize = 16 << 10
)

type storedIndexEntry struct {
	firstDoc DocID
	offset   int64
}

// storedWriter implements spec.md §4.5's writer.
type storedWriter struct {
	dataOut *crc32Writer

	headers  [][]byte
	bodies   [][]byte
	bufBytes int

	nextDoc      DocID
	firstInBlock DocID

	index            []storedIndexEntry
	totalBlocks      int
	incompleteBlocks int
	maxBlockSize     int
}

func newStoredWriter(raw IndexOutput) (*storedWriter, error) {
	dataOut := newCRC32Writer(raw)
	if err := WriteBlockStreamHeader(dataOut, storedDataFormat); err != nil {
		return nil, err
	}
	return &storedWriter{dataOut: dataOut}, nil
}

// AddDocument appends one document's header/body bytes to the pending
// block, flushing if the block is now full.
func (w *storedWriter) AddDocument(header, body []byte) (DocID, error) {
	if len(w.bodies) == 0 {
		w.firstInBlock = w.nextDoc
	}
	doc := w.nextDoc
	w.nextDoc++

	w.headers = append(w.headers, header)
	w.bodies = append(w.bodies, body)
	w.bufBytes += len(header) + len(body)

	if w.bufBytes >= StoredBufSize || len(w.bodies) >= MaxBufferedDocs {
		if err := w.flush(); err != nil {
			return 0, err
		}
	}
	return doc, nil
}

func (w *storedWriter) flush() error {
	if len(w.bodies) == 0 {
		return nil
	}
	blockOffset := w.dataOut.FilePointer()
	count := len(w.bodies)

	if err := WriteVInt(w.dataOut, uint32(w.firstInBlock)); err != nil {
		return err
	}
	if err := WriteVInt(w.dataOut, uint32(count)); err != nil {
		return err
	}

	headerLens := make([]uint64, count)
	bodyLens := make([]uint64, count)
	var concat []byte
	for i := range w.bodies {
		headerLens[i] = uint64(len(w.headers[i]))
		bodyLens[i] = uint64(len(w.bodies[i]))
	}
	for i := range w.bodies {
		concat = append(concat, w.bodies[i]...)
	}
	for i := range w.headers {
		concat = append(concat, w.headers[i]...)
	}

	if err := flushPackedBlock(w.dataOut, bodyLens); err != nil {
		return err
	}
	if err := flushPackedBlock(w.dataOut, headerLens); err != nil {
		return err
	}
	if err := compressBlock(w.dataOut, concat); err != nil {
		return err
	}

	blockSize := int(w.dataOut.FilePointer() - blockOffset)
	if blockSize > w.maxBlockSize {
		w.maxBlockSize = blockSize
	}
	w.totalBlocks++
	if count < MaxBufferedDocs {
		w.incompleteBlocks++
	}
	w.index = append(w.index, storedIndexEntry{firstDoc: w.firstInBlock, offset: blockOffset})

	w.headers = w.headers[:0]
	w.bodies = w.bodies[:0]
	w.bufBytes = 0
	return nil
}

// Close flushes any pending block, writes the data file's footer, and
// writes the full compressing index (entries + trailer stats + footer)
// to indexOut (spec.md §4.5: "at close the writer writes a footer and
// records total blocks, number of incomplete blocks, and max block size
// into the index file").
func (w *storedWriter) Close(indexOut IndexOutput) error {
	if err := w.flush(); err != nil {
		return err
	}
	if err := WriteFooter(w.dataOut); err != nil {
		return err
	}

	idxCRC := newCRC32Writer(indexOut)
	if err := WriteHeader(idxCRC, storedIndexFormat, blockStreamFormatVersion); err != nil {
		return err
	}
	if err := WriteVInt(idxCRC, uint32(len(w.index))); err != nil {
		return err
	}
	var lastDoc DocID
	var lastOffset int64
	for _, e := range w.index {
		if err := WriteVInt(idxCRC, uint32(e.firstDoc-lastDoc)); err != nil {
			return err
		}
		if err := WriteZVInt(idxCRC, int32(e.offset-lastOffset)); err != nil {
			return err
		}
		lastDoc, lastOffset = e.firstDoc, e.offset
	}
	if err := WriteVInt(idxCRC, uint32(w.totalBlocks)); err != nil {
		return err
	}
	if err := WriteVInt(idxCRC, uint32(w.incompleteBlocks)); err != nil {
		return err
	}
	if err := WriteVInt(idxCRC, uint32(w.maxBlockSize)); err != nil {
		return err
	}
	return WriteFooter(idxCRC)
}

const (
	storedDataFormat  = "irs_stored_data"
	storedIndexFormat = "irs_stored_index"
)
