//go:build unix

package ioengine

import (
	"encoding/binary"
	"fmt"
	"syscall"
)

// MappedWriter implements Writer and Remapper using a raw mmap'd region.
// Positional writes go directly into the mapping; Flush is a no-op (the
// mapping is MAP_SHARED, so the OS sees writes immediately) and Force calls
// msync to guarantee durability on stable storage.
type MappedWriter struct {
	fd     int
	data   []byte
	cursor int64
}

func NewMappedWriter(path string, size int64) (*MappedWriter, error) {
	w := &MappedWriter{}
	if err := w.Open(path, size); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *MappedWriter) Open(path string, size int64) error {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_CREAT, 0o644)
	if err != nil {
		return err
	}
	if err := syscall.Ftruncate(fd, size); err != nil {
		_ = syscall.Close(fd)
		return err
	}
	data, err := mmapFile(fd, size)
	if err != nil {
		_ = syscall.Close(fd)
		return err
	}
	w.fd = fd
	w.data = data
	w.cursor = 0
	return nil
}

func mmapFile(fd int, size int64) ([]byte, error) {
	if size == 0 {
		// A zero-length mapping is not representable; give the caller an
		// empty slice without touching mmap.
		return []byte{}, nil
	}
	return syscall.Mmap(fd, 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
}

func (w *MappedWriter) Close() error {
	var err error
	if w.data != nil {
		if uerr := syscall.Munmap(w.data); uerr != nil {
			err = uerr
		}
		w.data = nil
	}
	if w.fd != 0 {
		if cerr := syscall.Close(w.fd); cerr != nil && err == nil {
			err = cerr
		}
		w.fd = 0
	}
	return err
}

func (w *MappedWriter) Position(offset int64) error {
	w.cursor = offset
	return nil
}

func (w *MappedWriter) WriteI16(v int16) error {
	if err := w.WriteI16At(w.cursor, v); err != nil {
		return err
	}
	w.cursor += 2
	return nil
}

func (w *MappedWriter) WriteI32(v int32) error {
	if err := w.WriteI32At(w.cursor, v); err != nil {
		return err
	}
	w.cursor += 4
	return nil
}

func (w *MappedWriter) WriteI64(v int64) error {
	if err := w.WriteI64At(w.cursor, v); err != nil {
		return err
	}
	w.cursor += 8
	return nil
}

func (w *MappedWriter) WriteI16At(offset int64, v int16) error {
	if err := w.checkBounds(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(w.data[offset:], uint16(v))
	return nil
}

func (w *MappedWriter) WriteI32At(offset int64, v int32) error {
	if err := w.checkBounds(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w.data[offset:], uint32(v))
	return nil
}

func (w *MappedWriter) WriteI64At(offset int64, v int64) error {
	if err := w.checkBounds(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(w.data[offset:], uint64(v))
	return nil
}

func (w *MappedWriter) checkBounds(offset int64, width int) error {
	if offset < 0 || offset+int64(width) > int64(len(w.data)) {
		return fmt.Errorf("mapped write at %d+%d exceeds mapping of %d bytes", offset, width, len(w.data))
	}
	return nil
}

// Flush is a no-op: writes into a MAP_SHARED mapping are visible to the OS
// immediately. Durability still requires Force.
func (w *MappedWriter) Flush() error { return nil }

// Force msyncs the entire mapping, guaranteeing durability on return.
func (w *MappedWriter) Force() error {
	if len(w.data) == 0 {
		return nil
	}
	return msync(w.data)
}

func (w *MappedWriter) Truncate(newSize int64) error {
	return syscall.Ftruncate(w.fd, newSize)
}

// Remap unmaps the current region and remaps newSize bytes, used by
// SetArrayLength after the file has already been truncated.
func (w *MappedWriter) Remap(newSize int64) error {
	if w.data != nil && len(w.data) > 0 {
		if err := syscall.Munmap(w.data); err != nil {
			return err
		}
		w.data = nil
	}
	data, err := mmapFile(w.fd, newSize)
	if err != nil {
		return err
	}
	w.data = data
	return nil
}
