// Segment meta: (name, version, docs_count, file_set) (spec.md §4.7).
package irs

import "fmt"

const (
	segmentMetaFormat  = "irs_segment_meta"
	segmentMetaVersion = 1
)

// SegmentMeta describes one committed segment.
type SegmentMeta struct {
	Name      string
	Codec     string // format registry key naming the codec that wrote this segment
	Version   int32
	DocsCount int64
	Files     []string
}

// WriteSegmentMeta writes name+".sm" style segment meta content to out.
func WriteSegmentMeta(out IndexOutput, meta SegmentMeta) error {
	cw := newCRC32Writer(out)
	if err := WriteHeader(cw, segmentMetaFormat, segmentMetaVersion); err != nil {
		return err
	}
	if err := WriteVInt(cw, uint32(len(meta.Name))); err != nil {
		return err
	}
	if _, err := cw.Write([]byte(meta.Name)); err != nil {
		return err
	}
	if err := WriteVInt(cw, uint32(len(meta.Codec))); err != nil {
		return err
	}
	if _, err := cw.Write([]byte(meta.Codec)); err != nil {
		return err
	}
	if err := WriteVInt(cw, uint32(meta.Version)); err != nil {
		return err
	}
	if err := WriteVLong(cw, uint64(meta.DocsCount)); err != nil {
		return err
	}
	if err := WriteVInt(cw, uint32(len(meta.Files))); err != nil {
		return err
	}
	for _, f := range meta.Files {
		if err := WriteVInt(cw, uint32(len(f))); err != nil {
			return err
		}
		if _, err := cw.Write([]byte(f)); err != nil {
			return err
		}
	}
	return cw.Close()
}

// ReadSegmentMeta reads a segment meta file written by WriteSegmentMeta.
func ReadSegmentMeta(in IndexInput) (*SegmentMeta, error) {
	if err := VerifyFooter(in); err != nil {
		return nil, err
	}
	if _, err := ReadHeader(in, segmentMetaFormat); err != nil {
		return nil, err
	}
	nameLen, err := ReadVInt(in)
	if err != nil {
		return nil, fmt.Errorf("%w: read segment name length: %v", ErrIndexCorrupt, err)
	}
	nameBuf := make([]byte, nameLen)
	if err := readFull(in, nameBuf); err != nil {
		return nil, err
	}
	codecLen, err := ReadVInt(in)
	if err != nil {
		return nil, fmt.Errorf("%w: read segment codec length: %v", ErrIndexCorrupt, err)
	}
	codecBuf := make([]byte, codecLen)
	if err := readFull(in, codecBuf); err != nil {
		return nil, err
	}
	version, err := ReadVInt(in)
	if err != nil {
		return nil, err
	}
	docsCount, err := ReadVLong(in)
	if err != nil {
		return nil, err
	}
	fileCount, err := ReadVInt(in)
	if err != nil {
		return nil, err
	}
	files := make([]string, fileCount)
	for i := range files {
		l, err := ReadVInt(in)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, l)
		if err := readFull(in, buf); err != nil {
			return nil, err
		}
		files[i] = string(buf)
	}
	return &SegmentMeta{
		Name:      string(nameBuf),
		Codec:     string(codecBuf),
		Version:   int32(version),
		DocsCount: int64(docsCount),
		Files:     files,
	}, nil
}
