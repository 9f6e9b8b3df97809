// Writer configuration: a Config struct with sane zero-value defaults
// applied in the constructor, mirroring the teacher's Config in db.go
// (HashAlgorithm, ReadBuffer, MaxRecordSize, SyncWrites).
package irs

import "fmt"

// Config tunes a SegmentWriter's behavior. The zero value is valid; any
// field left unset gets the documented default.
type Config struct {
	// BlockSize and SkipN exist for visibility/validation only: the
	// on-disk format fixes both (BlockSize, SkipN in model.go), so a
	// non-zero value here must match the compiled-in constant.
	BlockSize int
	SkipN     int

	// ReadBufferSize is a hint a Directory implementation may use when
	// opening files for reading. osDirectory (directory.go) does not
	// currently buffer reads, so this only matters to callers supplying
	// their own Directory.
	ReadBufferSize int

	// SyncWrites calls Directory.Sync on every file a SegmentWriter
	// creates as part of Commit, in addition to the Sync WriteIndexMeta
	// always performs on the pending generation file.
	SyncWrites bool

	// CompressionLevel is reserved for a future per-writer zstd level
	// override; 0 means the package's shared SpeedFastest encoder
	// (compress.go).
	CompressionLevel int

	// StrongChecksums selects blake2b instead of xxh3 for the
	// columnstore's per-block checksum (checksum.go's
	// checksumAlgorithm registry).
	StrongChecksums bool

	// SegmentNameAlgorithm selects the hash algorithm (hash.go) used to
	// derive a new segment's file-name stem; 0 defaults to AlgXXHash3.
	SegmentNameAlgorithm int
}

// normalize fills zero-valued fields with their defaults and validates
// the fields that must match a compiled-in constant, the same pattern
// as the teacher's Open applying config.ReadBuffer/config.MaxRecordSize
// defaults inline before use.
func (c Config) normalize() (Config, error) {
	if c.BlockSize == 0 {
		c.BlockSize = BlockSize
	} else if c.BlockSize != BlockSize {
		return Config{}, fmt.Errorf("%w: configured block size %d, format requires %d", ErrNotSupported, c.BlockSize, BlockSize)
	}
	if c.SkipN == 0 {
		c.SkipN = SkipN
	} else if c.SkipN != SkipN {
		return Config{}, fmt.Errorf("%w: configured skip fan-out %d, format requires %d", ErrNotSupported, c.SkipN, SkipN)
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = 64 << 10
	}
	if c.SegmentNameAlgorithm == 0 {
		c.SegmentNameAlgorithm = AlgXXHash3
	}
	return c, nil
}

func (c Config) checksumAlgorithm() checksumAlgorithm {
	if c.StrongChecksums {
		return checksumBlake2b
	}
	return checksumXXH3
}
