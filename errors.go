// Package irs implements the segment codec of an inverted-index full-text
// search engine in the Lucene/IResearch family: postings, positions,
// payloads, offsets, skip lists, a columnstore, a stored-fields store, and
// the small self-describing meta files that tie a segment together.
//
// Index-writer orchestration, merge policy, directory locking policy,
// query parsing, and analysis chains are out of scope; they are consumed
// as interfaces (Directory, IndexInput/IndexOutput) by the types in this
// package.
package irs

import "errors"

// Error taxonomy (spec.md §7).
var (
	// ErrIndexCorrupt is returned when on-disk structure violates a
	// format invariant: wrong magic, unsupported version, wrong block
	// size, corrupted length, non-monotone doc id during write,
	// negative doc count, or an invalid field id.
	ErrIndexCorrupt = errors.New("irs: index corrupt")

	// ErrIO is returned when a directory/stream I/O call fails. It is
	// rarely returned bare — callers see it wrapped with %w alongside
	// the operation that failed.
	ErrIO = errors.New("irs: io error")

	// ErrNotSupported is returned when a feature combination is not
	// representable by the current format, e.g. offset without
	// position.
	ErrNotSupported = errors.New("irs: not supported")

	// ErrNotFound is returned by lookups that find nothing at the given
	// key: ReadLatestIndexMeta with no segments_N file, and a columnstore
	// Visit of an unknown column.
	ErrNotFound = errors.New("irs: not found")

	// ErrClosed is returned when operating on a writer that has already
	// finished: a second SegmentWriter.Commit.
	ErrClosed = errors.New("irs: closed")
)
