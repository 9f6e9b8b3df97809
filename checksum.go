// File framing shared by every meta file: a fixed header (magic, format
// name, version) and a CRC32 footer (spec.md §6). Large postings/
// stored-fields/columnstore files reuse the same header, and their
// readers call VerifyFooter unconditionally when they open a file, just
// as the meta-file readers do.
//
// The "cheap checksum probe" mentioned in spec.md §4.3's prepare is a
// xxh3 hash of the header's fixed fields only — fast enough to run on
// every open without reading the whole file, catching a damaged header
// even when the footer is never reached.
package irs

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// fileMagic is the fixed 32-bit sentinel that opens every file this
// package writes (spec.md §6).
const fileMagic uint32 = 0x69725331 // "irS1"

// WriteHeader writes {magic, format_name (length-prefixed), version} per
// spec.md §6, followed by a probe (the xxh3 hash of the format name XORed
// with the version) so a reader can
// cheaply distinguish "wrong file" from "right file, corrupt body".
func WriteHeader(w ByteWriter, formatName string, version int32) error {
	var magicBuf [4]byte
	binary.BigEndian.PutUint32(magicBuf[:], fileMagic)
	if _, err := w.Write(magicBuf[:]); err != nil {
		return err
	}
	if err := WriteVInt(w, uint32(len(formatName))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, formatName); err != nil {
		return err
	}
	var verBuf [4]byte
	binary.BigEndian.PutUint32(verBuf[:], uint32(version))
	if _, err := w.Write(verBuf[:]); err != nil {
		return err
	}

	probe := xxh3.HashString(formatName) ^ uint64(version)
	var probeBuf [8]byte
	binary.BigEndian.PutUint64(probeBuf[:], probe)
	_, err := w.Write(probeBuf[:])
	return err
}

// Header is the decoded result of ReadHeader.
type Header struct {
	FormatName string
	Version    int32
}

// ReadHeader reads and validates a header written by WriteHeader,
// checking the magic, the xxh3 probe, and (if expectedFormat is
// non-empty) that the format name matches.
func ReadHeader(r ByteReader, expectedFormat string) (*Header, error) {
	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, fmt.Errorf("irs: read header magic: %w", err)
	}
	if binary.BigEndian.Uint32(magicBuf[:]) != fileMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrIndexCorrupt)
	}

	nameLen, err := ReadVInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read format name length: %v", ErrIndexCorrupt, err)
	}
	if nameLen > 256 {
		return nil, fmt.Errorf("%w: implausible format name length %d", ErrIndexCorrupt, nameLen)
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, fmt.Errorf("%w: read format name: %v", ErrIndexCorrupt, err)
	}
	name := string(nameBuf)

	var verBuf [4]byte
	if _, err := io.ReadFull(r, verBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: read version: %v", ErrIndexCorrupt, err)
	}
	version := int32(binary.BigEndian.Uint32(verBuf[:]))

	var probeBuf [8]byte
	if _, err := io.ReadFull(r, probeBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: read checksum probe: %v", ErrIndexCorrupt, err)
	}
	wantProbe := xxh3.HashString(name) ^ uint64(version)
	if binary.BigEndian.Uint64(probeBuf[:]) != wantProbe {
		return nil, fmt.Errorf("%w: header checksum probe mismatch", ErrIndexCorrupt)
	}

	if expectedFormat != "" && name != expectedFormat {
		return nil, fmt.Errorf("%w: format name %q, want %q", ErrIndexCorrupt, name, expectedFormat)
	}

	return &Header{FormatName: name, Version: version}, nil
}

// crc32Writer wraps an IndexOutput, accumulating a running CRC32 of
// everything written through it so WriteFooter can finalize it. It
// implements IndexOutput itself so it can be dropped in anywhere a
// writer expects one (spec.md §6's universal footer framing).
type crc32Writer struct {
	w   IndexOutput
	crc uint32
}

func newCRC32Writer(w IndexOutput) *crc32Writer {
	return &crc32Writer{w: w, crc: 0}
}

func (c *crc32Writer) Write(p []byte) (int, error) {
	c.crc = crc32.Update(c.crc, crc32.IEEETable, p)
	return c.w.Write(p)
}

func (c *crc32Writer) WriteByte(b byte) error {
	c.crc = crc32.Update(c.crc, crc32.IEEETable, []byte{b})
	return c.w.WriteByte(b)
}

func (c *crc32Writer) FilePointer() int64 { return c.w.FilePointer() }

// Close flushes the footer and closes the underlying output. Callers
// that need to write more than the footer after the last data byte
// should call WriteFooter themselves and Close the underlying output
// directly instead.
func (c *crc32Writer) Close() error {
	if err := WriteFooter(c); err != nil {
		c.w.Close()
		return err
	}
	return c.w.Close()
}

// WriteFooter writes the running CRC32 of everything previously written
// through c (spec.md §6 "footer: CRC32").
func WriteFooter(c *crc32Writer) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], c.crc)
	_, err := c.w.Write(buf[:])
	return err
}

// VerifyFooter reads the trailing 4-byte CRC32 from r (an IndexInput
// positioned so that Length()-4 is the footer's offset) and compares it
// against the CRC32 of bytes [0, Length()-4). This is the footer-
// verification helper supplemented from original_source's format_utils:
// applied to every reader's prepare, not just meta files (SPEC_FULL.md).
func VerifyFooter(in IndexInput) error {
	total := in.Length()
	if total < 4 {
		return fmt.Errorf("%w: file too short for footer", ErrIndexCorrupt)
	}
	clone, err := in.Clone()
	if err != nil {
		return err
	}
	defer clone.Close()

	if err := clone.Seek(0); err != nil {
		return err
	}
	h := crc32.NewIEEE()
	if _, err := io.CopyN(h, clone, total-4); err != nil {
		return fmt.Errorf("%w: read body for footer check: %v", ErrIndexCorrupt, err)
	}

	var want [4]byte
	if _, err := io.ReadFull(clone, want[:]); err != nil {
		return fmt.Errorf("%w: read footer: %v", ErrIndexCorrupt, err)
	}
	if binary.BigEndian.Uint32(want[:]) != h.Sum32() {
		return fmt.Errorf("%w: footer CRC32 mismatch", ErrIndexCorrupt)
	}
	return nil
}

// checksumAlgorithm selects the strong per-block checksum used by the
// columnstore when Config.StrongChecksums is set (SPEC_FULL.md's
// DOMAIN STACK: blake2b as the second registry entry, mirroring the
// teacher's hash.go multi-algorithm registry).
type checksumAlgorithm int

const (
	checksumXXH3 checksumAlgorithm = iota
	checksumBlake2b
)

// blockChecksum computes an 8-byte checksum of a columnstore block
// payload using the configured algorithm. xxh3 is the
// default (fast, matches the header probe); blake2b trades speed for a
// cryptographic-strength digest when Config.StrongChecksums is set.
func blockChecksum(alg checksumAlgorithm, data []byte) uint64 {
	switch alg {
	case checksumBlake2b:
		h, _ := blake2b.New(8, nil)
		h.Write(data)
		sum := h.Sum(nil)
		return binary.BigEndian.Uint64(sum)
	default:
		return xxh3.Hash(data)
	}
}
