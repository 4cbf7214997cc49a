//go:build !unix

package flock

import "errors"

// ErrWouldBlock mirrors the unix variant's sentinel for platforms without
// flock(2).
var ErrWouldBlock = errors.New("flock: lock would block")

// Lock is a no-op placeholder on platforms without flock(2) support.
type Lock struct{}

// TryLock always succeeds without actually locking anything outside this
// process; ArrayFile's single-writer invariant then relies purely on
// in-process discipline on these platforms.
func TryLock(path string) (*Lock, error) {
	return &Lock{}, nil
}

func (l *Lock) Close() error { return nil }
