// Directory and byte-stream contracts consumed by this package (spec.md
// §6). These are external collaborators: a real index writer supplies its
// own directory implementation (mmap-backed, in-memory for tests, a
// network-backed store, ...). osDirectory is a minimal, sandboxed default
// so the codec is independently testable without a mock.
package irs

import (
	"io"
	"os"
)

// Directory is the filesystem abstraction every writer/reader in this
// package consumes. It never exposes paths outside its root.
type Directory interface {
	Create(name string) (IndexOutput, error)
	Open(name string) (IndexInput, error)
	Exists(name string) (bool, error)
	Rename(from, to string) error
	Remove(name string) error
	Sync(name string) error
	Visit(cb func(name string) error) error
	Length(name string) (int64, error)
	Close() error

	// OpenLock opens (creating if absent) name as an OS-level advisory
	// lock file and returns a handle for acquiring shared/exclusive
	// locks over it (spec.md §5's single-writer guarantee).
	OpenLock(name string) (*fileLock, error)
}

// IndexOutput is the write half of the byte-stream contract.
type IndexOutput interface {
	io.Writer
	io.ByteWriter
	io.Closer
	FilePointer() int64
}

// IndexInput is the read half. Clone returns an independent cursor over
// the same underlying data — postings/columnstore iterators each clone
// their reader's input so concurrent iterators never share a seek
// position (spec.md §5's "readers ... clone it to get private cursors").
type IndexInput interface {
	io.Reader
	io.ByteReader
	io.Closer
	Seek(offset int64) error
	FilePointer() int64
	Length() int64
	Clone() (IndexInput, error)
}

// osDirectory is a Directory backed by a sandboxed os.Root, following the
// teacher's Open (db.go) which opens its data file through os.Root rather
// than a bare path join.
type osDirectory struct {
	root *os.Root
}

// NewDirectory opens dir as a sandboxed Directory. All names passed to
// the returned Directory's methods are resolved relative to dir and can
// never escape it.
func NewDirectory(dir string) (Directory, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	return &osDirectory{root: root}, nil
}

func (d *osDirectory) Create(name string) (IndexOutput, error) {
	f, err := d.root.Create(name)
	if err != nil {
		return nil, err
	}
	return &fileOutput{f: f}, nil
}

func (d *osDirectory) Open(name string) (IndexInput, error) {
	f, err := d.root.OpenFile(name, os.O_RDONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileInput{f: f, length: info.Size(), owned: true}, nil
}

func (d *osDirectory) Exists(name string) (bool, error) {
	_, err := d.root.Stat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (d *osDirectory) Rename(from, to string) error {
	return d.root.Rename(from, to)
}

func (d *osDirectory) Remove(name string) error {
	err := d.root.Remove(name)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (d *osDirectory) Sync(name string) error {
	f, err := d.root.OpenFile(name, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

func (d *osDirectory) Visit(cb func(name string) error) error {
	entries, err := os.ReadDir(d.root.Name())
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := cb(e.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (d *osDirectory) Length(name string) (int64, error) {
	info, err := d.root.Stat(name)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (d *osDirectory) Close() error {
	return d.root.Close()
}

func (d *osDirectory) OpenLock(name string) (*fileLock, error) {
	f, err := d.root.OpenFile(name, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	l := &fileLock{}
	l.setFile(f)
	return l, nil
}

// fileOutput adapts *os.File to IndexOutput via sequential writes.
type fileOutput struct {
	f   *os.File
	off int64
}

func (o *fileOutput) Write(p []byte) (int, error) {
	n, err := o.f.Write(p)
	o.off += int64(n)
	return n, err
}

func (o *fileOutput) WriteByte(b byte) error {
	_, err := o.Write([]byte{b})
	return err
}

func (o *fileOutput) FilePointer() int64 { return o.off }

func (o *fileOutput) Close() error {
	if err := o.f.Sync(); err != nil {
		o.f.Close()
		return err
	}
	return o.f.Close()
}

// fileInput adapts *os.File to IndexInput via a private read cursor.
type fileInput struct {
	f      *os.File
	off    int64
	length int64
	owned  bool // true for the handle opened by Directory.Open; false for clones
}

func (in *fileInput) Read(p []byte) (int, error) {
	n, err := in.f.ReadAt(p, in.off)
	in.off += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (in *fileInput) ReadByte() (byte, error) {
	var buf [1]byte
	_, err := in.Read(buf[:])
	return buf[0], err
}

func (in *fileInput) Seek(offset int64) error {
	in.off = offset
	return nil
}

func (in *fileInput) FilePointer() int64 { return in.off }
func (in *fileInput) Length() int64      { return in.length }

func (in *fileInput) Clone() (IndexInput, error) {
	return &fileInput{f: in.f, off: in.off, length: in.length}, nil
}

func (in *fileInput) Close() error {
	if !in.owned {
		return nil
	}
	return in.f.Close()
}
