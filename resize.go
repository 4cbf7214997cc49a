package arrayfile

import (
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// SetArrayLength changes the element count to newLength. A no-op if
// unchanged. Negative lengths fail with ErrInvalidLength.
//
// The algorithm: flush outstanding writes, truncate the file to the new
// body size (growing zero-fills, shrinking discards the tail), write and
// flush the new array_length, then refresh the writer so any mapped region
// reflects the new size - via Remap if the backend supports it, otherwise a
// close/reopen cycle.
//
// A partial failure between the truncate and the header rewrite leaves the
// file physically resized but with a stale header; recovery outside this
// package must observe the size mismatch and reconcile from the redo log.
func (af *ArrayFile) SetArrayLength(newLength int32) error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if err := af.checkOpen(); err != nil {
		return err
	}
	if newLength < 0 {
		return ErrInvalidLength
	}
	if newLength == af.hdr.arrayLength {
		return nil
	}
	return af.resizeLocked(newLength, "")
}

// SetArrayLengthAndRename behaves like SetArrayLength, and additionally
// attempts to atomically move the file to renameTo afterward. A rename
// failure is logged and degraded to a no-rename continuation: the resize
// still succeeds against the original path. This is the only error the
// core recovers from rather than propagating.
func (af *ArrayFile) SetArrayLengthAndRename(newLength int32, renameTo string) error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if err := af.checkOpen(); err != nil {
		return err
	}
	if newLength < 0 {
		return ErrInvalidLength
	}
	if newLength == af.hdr.arrayLength && renameTo == af.path {
		return nil
	}
	return af.resizeLocked(newLength, renameTo)
}

func (af *ArrayFile) resizeLocked(newLength int32, renameTo string) error {
	if err := af.w.Flush(); err != nil {
		return fmt.Errorf("%w: pre-resize flush: %v", ErrIO, err)
	}

	newSize := HeaderSize + int64(newLength)*int64(af.hdr.elementSize)
	if err := af.w.Truncate(newSize); err != nil {
		return fmt.Errorf("%w: truncating to %d bytes: %v", ErrIO, newSize, err)
	}

	if err := af.w.WriteI32At(offArrayLength, newLength); err != nil {
		return fmt.Errorf("%w: writing array_length: %v", ErrIO, err)
	}
	if err := af.w.Flush(); err != nil {
		return fmt.Errorf("%w: flushing array_length: %v", ErrIO, err)
	}
	af.hdr.arrayLength = newLength

	if renameTo != "" {
		if err := af.w.Close(); err != nil {
			return fmt.Errorf("%w: closing writer before rename: %v", ErrIO, err)
		}
		if err := atomic.ReplaceFile(af.path, renameTo); err != nil {
			// Degrade: keep serving the original path rather than failing
			// the whole resize. The caller observes af.path unchanged.
			fmt.Fprintf(os.Stderr, "arrayfile: rename %s -> %s failed, continuing on original path: %v\n", af.path, renameTo, err)
			w, reopenErr := newWriter(af.io, af.path, newSize)
			if reopenErr != nil {
				return fmt.Errorf("%w: reopening %s after failed rename: %v", ErrIO, af.path, reopenErr)
			}
			af.w = w
			return nil
		}
		af.path = renameTo
		w, err := newWriter(af.io, af.path, newSize)
		if err != nil {
			return fmt.Errorf("%w: reopening %s after rename: %v", ErrIO, af.path, err)
		}
		af.w = w
		return nil
	}

	if remapper, ok := af.w.(Remapper); ok {
		if err := remapper.Remap(newSize); err != nil {
			return fmt.Errorf("%w: remapping: %v", ErrIO, err)
		}
		return nil
	}

	if err := af.w.Close(); err != nil {
		return fmt.Errorf("%w: closing writer for reopen: %v", ErrIO, err)
	}
	w, err := newWriter(af.io, af.path, newSize)
	if err != nil {
		return fmt.Errorf("%w: reopening writer: %v", ErrIO, err)
	}
	af.w = w
	return nil
}
