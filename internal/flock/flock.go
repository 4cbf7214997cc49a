//go:build unix

// Package flock provides advisory, cross-process file locking used to
// enforce that exactly one handle owns a given array file at a time, per
// the owning ArrayFile's single-writer invariant.
package flock

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
)

// ErrWouldBlock is returned by TryLock when another process already holds
// the lock.
var ErrWouldBlock = errors.New("flock: lock would block")

// Lock represents a held advisory lock on a dedicated lock file. Call Close
// to release it.
type Lock struct {
	mu   sync.Mutex
	file *os.File
}

// TryLock attempts to acquire an exclusive lock on a dedicated lock file
// derived from path (path + ".lock"), creating it if necessary. It does not
// block: if another process holds the lock, it returns ErrWouldBlock
// immediately.
func TryLock(path string) (*Lock, error) {
	lockPath := path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("flock: opening lock file: %w", err)
	}

	if err := flockRetryEINTR(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrWouldBlock
		}
		return nil, fmt.Errorf("flock: acquiring lock: %w", err)
	}

	return &Lock{file: f}, nil
}

// Close releases the lock and closes the underlying file descriptor.
// Idempotent.
func (l *Lock) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	fd := int(l.file.Fd())
	unlockErr := flockRetryEINTR(fd, syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("flock: unlocking: %w", unlockErr)
	}
	return closeErr
}

func flockRetryEINTR(fd int, how int) error {
	for {
		err := syscall.Flock(fd, how)
		if err == syscall.EINTR {
			continue
		}
		return err
	}
}
