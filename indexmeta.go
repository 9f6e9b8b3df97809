// Index meta: a generation-numbered commit point (spec.md §4.7).
// Publishing is two-phase: write "pending_segments_<gen>", fsync and
// rename it to "segments_<gen>" so a crash between write and rename
// leaves the previous generation intact (the rename is the only visible,
// atomic step). Opening scans the directory for the highest generation.
package irs

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	indexMetaFormat  = "irs_index_meta"
	indexMetaVersion = 1

	segmentsFilePrefix        = "segments_"
	pendingSegmentsFilePrefix = "pending_segments_"
)

// IndexMeta is one commit's segment list.
type IndexMeta struct {
	Generation int64
	Segments   []string
}

func segmentsFileName(gen int64) string        { return segmentsFilePrefix + strconv.FormatInt(gen, 10) }
func pendingSegmentsFileName(gen int64) string  { return pendingSegmentsFilePrefix + strconv.FormatInt(gen, 10) }

// WriteIndexMeta commits meta via the pending-then-rename two-phase
// publish described above.
func WriteIndexMeta(dir Directory, meta IndexMeta) error {
	pendingName := pendingSegmentsFileName(meta.Generation)
	out, err := dir.Create(pendingName)
	if err != nil {
		return err
	}

	cw := newCRC32Writer(out)
	if err := WriteHeader(cw, indexMetaFormat, indexMetaVersion); err != nil {
		out.Close()
		return err
	}
	if err := WriteVLong(cw, uint64(meta.Generation)); err != nil {
		out.Close()
		return err
	}
	if err := WriteVInt(cw, uint32(len(meta.Segments))); err != nil {
		out.Close()
		return err
	}
	for _, s := range meta.Segments {
		if err := WriteVInt(cw, uint32(len(s))); err != nil {
			out.Close()
			return err
		}
		if _, err := cw.Write([]byte(s)); err != nil {
			out.Close()
			return err
		}
	}
	if err := cw.Close(); err != nil {
		return err
	}

	if err := dir.Sync(pendingName); err != nil {
		return err
	}
	return dir.Rename(pendingName, segmentsFileName(meta.Generation))
}

// ReadLatestIndexMeta scans dir for the highest-generation "segments_N"
// file and reads it.
func ReadLatestIndexMeta(dir Directory) (*IndexMeta, error) {
	var latestGen int64 = -1
	var latestName string
	err := dir.Visit(func(name string) error {
		if !strings.HasPrefix(name, segmentsFilePrefix) {
			return nil
		}
		genStr := strings.TrimPrefix(name, segmentsFilePrefix)
		gen, err := strconv.ParseInt(genStr, 10, 64)
		if err != nil {
			return nil // not a well-formed generation file; ignore
		}
		if gen > latestGen {
			latestGen = gen
			latestName = name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if latestName == "" {
		return nil, fmt.Errorf("%w: no segments_N file in directory", ErrNotFound)
	}

	in, err := dir.Open(latestName)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if err := VerifyFooter(in); err != nil {
		return nil, err
	}
	if _, err := ReadHeader(in, indexMetaFormat); err != nil {
		return nil, err
	}
	gen, err := ReadVLong(in)
	if err != nil {
		return nil, err
	}
	count, err := ReadVInt(in)
	if err != nil {
		return nil, err
	}
	segs := make([]string, count)
	for i := range segs {
		l, err := ReadVInt(in)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, l)
		if err := readFull(in, buf); err != nil {
			return nil, err
		}
		segs[i] = string(buf)
	}
	return &IndexMeta{Generation: int64(gen), Segments: segs}, nil
}
