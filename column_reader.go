// Columnstore reader: values(field) resolves a single doc's bytes via a
// lower_bound on that column's blocks-index, then an LRU-ish block
// cache so repeat lookups in the same block skip decompression
// (spec.md §4.6). The cache is guarded by a mutex and, per
// SPEC_FULL.md, a bloom filter fast-paths cold (never-before-seen)
// blocks straight to disk without a cache-map lookup; the loaded block
// is then inserted into the cache under the mutex.
package irs

import (
	"container/list"
	"fmt"
	"sort"
	"sync"
)

type columnMeta struct {
	id                uint32
	name              string
	maxDoc            DocID
	blocksIndexOffset int64

	loadOnce    sync.Once
	loadErr     error
	blocksIndex []columnBlockEntry
}

type cacheKey struct {
	columnID uint32
	offset   int64
}

type cachedColumnBlock struct {
	key        cacheKey
	firstDoc   DocID
	rowDocs    []DocID
	rowOffsets []int
	data       []byte
}

// columnCacheCapacity bounds how many decompressed blocks the reader
// keeps resident at once.
const columnCacheCapacity = 64

// columnReader implements spec.md §4.6's reader.
type columnReader struct {
	in      IndexInput
	columns map[string]*columnMeta
	byID    []*columnMeta

	mu         sync.Mutex
	cache      *list.List // of *cachedColumnBlock, front = most recently used
	cacheIndex map[cacheKey]*list.Element
	filter     *bloom
}

// PrepareColumnStore opens a columnstore file for reading (spec.md
// §4.6): validates the header/footer, then reads the trailing directory.
func PrepareColumnStore(in IndexInput) (*columnReader, error) {
	if err := VerifyFooter(in); err != nil {
		return nil, err
	}

	headerClone, err := in.Clone()
	if err != nil {
		return nil, err
	}
	defer headerClone.Close()
	if err := headerClone.Seek(0); err != nil {
		return nil, err
	}
	if _, err := ReadHeader(headerClone, columnStoreFormat); err != nil {
		return nil, err
	}

	tail, err := in.Clone()
	if err != nil {
		return nil, err
	}
	defer tail.Close()
	if err := tail.Seek(in.Length() - 12); err != nil {
		return nil, err
	}
	directoryOffset, err := ReadLong(tail)
	if err != nil {
		return nil, fmt.Errorf("%w: read directory offset: %v", ErrIndexCorrupt, err)
	}

	dir, err := in.Clone()
	if err != nil {
		return nil, err
	}
	defer dir.Close()
	if err := dir.Seek(directoryOffset); err != nil {
		return nil, err
	}

	count, err := ReadVInt(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read column count: %v", ErrIndexCorrupt, err)
	}

	r := &columnReader{
		in:         in,
		columns:    make(map[string]*columnMeta, count),
		cache:      list.New(),
		cacheIndex: make(map[cacheKey]*list.Element),
		filter:     newBloom(),
	}
	for i := uint32(0); i < count; i++ {
		id, err := ReadVInt(dir)
		if err != nil {
			return nil, err
		}
		nameLen, err := ReadVInt(dir)
		if err != nil {
			return nil, err
		}
		nameBuf := make([]byte, nameLen)
		if err := readFull(dir, nameBuf); err != nil {
			return nil, err
		}
		maxDoc, err := ReadVInt(dir)
		if err != nil {
			return nil, err
		}
		blocksIndexOffset, err := ReadVLong(dir)
		if err != nil {
			return nil, err
		}
		cm := &columnMeta{id: id, name: string(nameBuf), maxDoc: DocID(maxDoc), blocksIndexOffset: int64(blocksIndexOffset)}
		r.columns[cm.name] = cm
		r.byID = append(r.byID, cm)
	}
	return r, nil
}

func (r *columnReader) loadBlocksIndex(c *columnMeta) error {
	c.loadOnce.Do(func() {
		clone, err := r.in.Clone()
		if err != nil {
			c.loadErr = err
			return
		}
		defer clone.Close()
		if err := clone.Seek(c.blocksIndexOffset); err != nil {
			c.loadErr = err
			return
		}
		n, err := ReadVInt(clone)
		if err != nil {
			c.loadErr = fmt.Errorf("%w: read column blocks-index count: %v", ErrIndexCorrupt, err)
			return
		}
		entries := make([]columnBlockEntry, n)
		var lastDoc DocID
		var lastOffset int64
		for i := range entries {
			docDelta, err := ReadVInt(clone)
			if err != nil {
				c.loadErr = err
				return
			}
			offDelta, err := ReadZVInt(clone)
			if err != nil {
				c.loadErr = err
				return
			}
			lastDoc += DocID(docDelta)
			lastOffset += int64(offDelta)
			entries[i] = columnBlockEntry{lastDoc: lastDoc, offset: lastOffset}
		}
		c.blocksIndex = entries
	})
	return c.loadErr
}

func (r *columnReader) getBlock(c *columnMeta, entry columnBlockEntry) (*cachedColumnBlock, error) {
	key := cacheKey{columnID: c.id, offset: entry.offset}

	if r.filter.Contains(c.id, entry.offset) {
		r.mu.Lock()
		if el, ok := r.cacheIndex[key]; ok {
			r.cache.MoveToFront(el)
			blk := el.Value.(*cachedColumnBlock)
			r.mu.Unlock()
			return blk, nil
		}
		r.mu.Unlock()
	}

	blk, err := r.loadBlock(c, entry)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.cacheIndex[key]; ok {
		r.cache.MoveToFront(el)
		return el.Value.(*cachedColumnBlock), nil
	}
	el := r.cache.PushFront(blk)
	r.cacheIndex[key] = el
	r.filter.Add(c.id, entry.offset)
	if r.cache.Len() > columnCacheCapacity {
		back := r.cache.Back()
		r.cache.Remove(back)
		delete(r.cacheIndex, back.Value.(*cachedColumnBlock).key)
	}
	return blk, nil
}

func (r *columnReader) loadBlock(c *columnMeta, entry columnBlockEntry) (*cachedColumnBlock, error) {
	clone, err := r.in.Clone()
	if err != nil {
		return nil, err
	}
	defer clone.Close()
	if err := clone.Seek(entry.offset); err != nil {
		return nil, err
	}

	count, err := ReadVInt(clone)
	if err != nil {
		return nil, fmt.Errorf("%w: read column block row count: %v", ErrIndexCorrupt, err)
	}
	rowDocs := make([]DocID, count)
	rowOffsets := make([]int, count)
	var lastDoc DocID
	for i := range rowDocs {
		docDelta, err := ReadVInt(clone)
		if err != nil {
			return nil, err
		}
		off, err := ReadVInt(clone)
		if err != nil {
			return nil, err
		}
		lastDoc += DocID(docDelta)
		rowDocs[i] = lastDoc
		rowOffsets[i] = int(off)
	}
	totalLen, err := ReadVInt(clone)
	if err != nil {
		return nil, fmt.Errorf("%w: read column block payload length: %v", ErrIndexCorrupt, err)
	}
	data, err := decompressBlock(clone, int(totalLen)+1)
	if err != nil {
		return nil, err
	}

	algByte, err := clone.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: read column block checksum algorithm: %v", ErrIndexCorrupt, err)
	}
	wantSum, err := ReadLong(clone)
	if err != nil {
		return nil, fmt.Errorf("%w: read column block checksum: %v", ErrIndexCorrupt, err)
	}
	if got := blockChecksum(checksumAlgorithm(algByte), data); got != uint64(wantSum) {
		return nil, fmt.Errorf("%w: column block checksum mismatch", ErrIndexCorrupt)
	}

	return &cachedColumnBlock{key: cacheKey{c.id, entry.offset}, firstDoc: rowDocs[0], rowDocs: rowDocs, rowOffsets: rowOffsets, data: data}, nil
}

// Values returns a lookup function for column name's values: calling it
// with a doc returns that doc's bytes and true, or (nil, false) if the
// column has no row for that doc (spec.md §4.6's values(field)).
func (r *columnReader) Values(name string) (func(doc DocID) ([]byte, bool, error), bool) {
	c, ok := r.columns[name]
	if !ok {
		return nil, false
	}
	return func(doc DocID) ([]byte, bool, error) {
		if err := r.loadBlocksIndex(c); err != nil {
			return nil, false, err
		}
		idx := sort.Search(len(c.blocksIndex), func(i int) bool { return c.blocksIndex[i].lastDoc >= doc })
		if idx == len(c.blocksIndex) {
			return nil, false, nil
		}
		blk, err := r.getBlock(c, c.blocksIndex[idx])
		if err != nil {
			return nil, false, err
		}
		ri := sort.Search(len(blk.rowDocs), func(i int) bool { return blk.rowDocs[i] >= doc })
		if ri == len(blk.rowDocs) || blk.rowDocs[ri] != doc {
			return nil, false, nil
		}
		start := blk.rowOffsets[ri]
		end := len(blk.data)
		if ri+1 < len(blk.rowOffsets) {
			end = blk.rowOffsets[ri+1]
		}
		return blk.data[start:end], true, nil
	}, true
}

// Visit iterates every (doc, value) pair in column name, in increasing
// doc order, until f returns false (spec.md §4.6's visit(field, f)).
func (r *columnReader) Visit(name string, f func(doc DocID, value []byte) bool) error {
	c, ok := r.columns[name]
	if !ok {
		return fmt.Errorf("%w: column %q", ErrNotFound, name)
	}
	if err := r.loadBlocksIndex(c); err != nil {
		return err
	}
	for _, entry := range c.blocksIndex {
		blk, err := r.getBlock(c, entry)
		if err != nil {
			return err
		}
		for i, doc := range blk.rowDocs {
			start := blk.rowOffsets[i]
			end := len(blk.data)
			if i+1 < len(blk.rowOffsets) {
				end = blk.rowOffsets[i+1]
			}
			if !f(doc, blk.data[start:end]) {
				return nil
			}
		}
	}
	return nil
}

// Close releases the reader's template input.
func (r *columnReader) Close() error {
	return r.in.Close()
}
