// Format registry: a named codec factory readers use to instantiate the
// right reader for a segment (spec.md §2 "Format registry", 3% of
// scope). REDESIGN FLAGS (spec.md §"Factory + singleton codec registry")
// asks for the original's runtime factory/singleton lookup to become a
// static table mapping codec name to constructor, assembled once at
// package init rather than mutated while serving requests; RegisterCodec
// exists for a downstream package adding a codec version from its own
// init(), not for per-request registration.
package irs

import "fmt"

// CodecName is the format name this package's SegmentWriter stamps into
// every SegmentMeta it produces.
const CodecName = "irs_v1"

// SegmentOpener constructs a SegmentReader for one committed segment.
type SegmentOpener func(dir Directory, meta SegmentMeta) (*SegmentReader, error)

var codecRegistry = map[string]SegmentOpener{
	CodecName: OpenSegment,
}

// RegisterCodec adds (or replaces) the opener for name. Call it from an
// init() function; the registry is a static table by the time any index
// I/O happens, not a request-time mutable singleton.
func RegisterCodec(name string, open SegmentOpener) {
	codecRegistry[name] = open
}

// OpenSegmentByCodec looks up meta.Codec in the registry and opens it,
// so a reader scanning a directory never needs to know in advance which
// codec version wrote a given segment.
func OpenSegmentByCodec(dir Directory, meta SegmentMeta) (*SegmentReader, error) {
	open, ok := codecRegistry[meta.Codec]
	if !ok {
		return nil, fmt.Errorf("%w: unknown segment codec %q", ErrNotSupported, meta.Codec)
	}
	return open(dir, meta)
}
