// OS-level file locking for spec.md §5's single-writer guarantee: one
// writer per directory, unlimited concurrent readers. No writer in this
// package takes the lock itself; the caller driving the writers does.
//
// fileLock wraps flock(2) / LockFileEx with a mutex that guards the file
// handle's lifetime. The mutex is held for the entire duration of the flock
// syscall so that Fd() cannot race with Close() on the same *os.File.
//
// Callers use setFile(nil) before closing the underlying file. This blocks
// until any in-flight flock completes, then makes subsequent Lock/Unlock
// calls no-ops. After reopening, setFile(f) restores normal operation.
package irs

import (
	"os"
	"sync"
)

// LockMode selects shared (read) or exclusive (write) locking. SegmentWriter
// does not lock; a caller holds LockExclusive on the directory's write.lock
// file for a writing session. Readers never lock at all, since every
// segment file this package writes is immutable once its footer is in place.
type LockMode int

const (
	LockShared LockMode = iota
	LockExclusive
)

// writeLockName is the well-known name of the exclusive writer lock file
// (spec.md §5); no code in this package outside its tests opens it.
const writeLockName = "write.lock"

// fileLock coordinates OS-level file locks with safe handle teardown.
// The mu field serialises flock syscalls against setFile so that a
// concurrent Close cannot invalidate the fd mid-syscall.
type fileLock struct {
	mu sync.Mutex
	f  *os.File
}

// Lock acquires a shared or exclusive flock. Returns nil immediately
// if the handle has been cleared via setFile(nil).
func (l *fileLock) Lock(mode LockMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.lock(mode)
}

// Unlock releases the flock. Returns nil immediately if the handle
// has been cleared via setFile(nil).
func (l *fileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.unlock()
}

// setFile swaps the underlying file handle. Passing nil drains any
// in-flight flock (blocks until the mutex is available) and disables
// further locking. OpenLock uses it to install the lock file's handle;
// Close clears the handle itself.
func (l *fileLock) setFile(f *os.File) {
	l.mu.Lock()
	l.f = f
	l.mu.Unlock()
}

// Close releases the lock's file handle. Safe to call after Unlock.
func (l *fileLock) Close() error {
	l.mu.Lock()
	f := l.f
	l.f = nil
	l.mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}
