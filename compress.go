// Block compression wrapper for the stored-fields and columnstore
// payloads.
//
// Both stores write many independent blocks rather than one compressed
// stream, so encoder/decoder construction cost (internal state tables)
// would dominate per-block overhead if paid per call. As in the teacher's
// compress.go, a single shared encoder/decoder pair is built once at
// package init and reused — both are documented by klauspost/compress as
// safe for concurrent use.
//
// Unlike the teacher (which ascii85-encodes to embed compressed bytes in
// a JSON string), segment files are raw binary: compressBlock writes the
// zvint length prefix directly against the output stream with no text
// encoding. zvint's sign carries the compressed/uncompressed decision
// (spec.md §6): n<0 means "uncompressed |n| bytes follow" — used when
// compression would not shrink the block — n>0 means "compressed n bytes
// follow, decoding to at most the caller's allocated buffer".
package irs

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// SpeedFastest mirrors the teacher's choice: block compression runs on
// every writer flush (hot path) while decompression only runs on reads
// that actually touch a given block (cold, and only once the block is
// cached). The ratio gain from SpeedDefault is marginal for the
// page-sized blocks this codec writes; don't "improve" this without
// benchmarking flush throughput.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// compressBlock compresses data and writes it as a zvint-framed block:
// the zvint length prefix followed by the payload. If compression does
// not shrink the data, the uncompressed bytes are written instead (with
// a negative zvint) so a worst-case block never costs more than data
// plus one varint.
func compressBlock(w ByteWriter, data []byte) error {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) < len(data) {
		if err := WriteZVInt(w, int32(len(compressed))); err != nil {
			return err
		}
		_, err := w.Write(compressed)
		return err
	}
	if err := WriteZVInt(w, -int32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// decompressBlock reads a block written by compressBlock. maxSize bounds
// the allocation so a corrupted length prefix cannot trigger an
// unbounded allocation.
func decompressBlock(r ByteReader, maxSize int) ([]byte, error) {
	n, err := ReadZVInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read block length: %v", ErrIndexCorrupt, err)
	}
	if n < 0 {
		size := int(-n)
		if size > maxSize {
			return nil, fmt.Errorf("%w: uncompressed block size %d exceeds limit %d", ErrIndexCorrupt, size, maxSize)
		}
		buf := make([]byte, size)
		if err := readFull(r, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	size := int(n)
	if size > maxSize {
		return nil, fmt.Errorf("%w: compressed block size %d exceeds limit %d", ErrIndexCorrupt, size, maxSize)
	}
	buf := make([]byte, size)
	if err := readFull(r, buf); err != nil {
		return nil, err
	}
	out, err := zstdDecoder.DecodeAll(buf, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decode: %v", ErrIndexCorrupt, err)
	}
	return out, nil
}

func readFull(r ByteReader, buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := r.Read(buf[read:])
		read += n
		if err != nil {
			if n > 0 && read == len(buf) {
				break
			}
			return fmt.Errorf("%w: short block read: %v", ErrIndexCorrupt, err)
		}
	}
	return nil
}
