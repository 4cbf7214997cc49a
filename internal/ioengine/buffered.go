// Package ioengine implements the concrete Writer/Reader backends that drive
// an on-disk array file: a conventional buffered backend usable on any
// platform, and a memory-mapped backend for unix-like systems that also
// supports in-place remapping on resize.
package ioengine

import (
	"encoding/binary"
	"os"
)

// BufferedWriter implements a Writer backend using conventional
// pread/pwrite-style positional I/O through the OS page cache. It does not
// implement a Remapper; callers resizing a buffered-backed handle always
// fall through to a close/reopen cycle.
type BufferedWriter struct {
	f      *os.File
	cursor int64
}

// NewBufferedWriter opens path for read/write, creating it if the file does
// not already exist, and truncating it to size bytes.
func NewBufferedWriter(path string, size int64) (*BufferedWriter, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &BufferedWriter{f: f}, nil
}

func (w *BufferedWriter) Open(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.cursor = 0
	return nil
}

func (w *BufferedWriter) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *BufferedWriter) Position(offset int64) error {
	w.cursor = offset
	return nil
}

func (w *BufferedWriter) WriteI16(v int16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	n, err := w.f.WriteAt(buf[:], w.cursor)
	w.cursor += int64(n)
	return err
}

func (w *BufferedWriter) WriteI32(v int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	n, err := w.f.WriteAt(buf[:], w.cursor)
	w.cursor += int64(n)
	return err
}

func (w *BufferedWriter) WriteI64(v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	n, err := w.f.WriteAt(buf[:], w.cursor)
	w.cursor += int64(n)
	return err
}

func (w *BufferedWriter) WriteI16At(offset int64, v int16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	_, err := w.f.WriteAt(buf[:], offset)
	return err
}

func (w *BufferedWriter) WriteI32At(offset int64, v int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	_, err := w.f.WriteAt(buf[:], offset)
	return err
}

func (w *BufferedWriter) WriteI64At(offset int64, v int64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.f.WriteAt(buf[:], offset)
	return err
}

func (w *BufferedWriter) Flush() error {
	// WriteAt already goes through the OS page cache; nothing to do beyond
	// that until Force is called.
	return nil
}

func (w *BufferedWriter) Force() error {
	return w.f.Sync()
}

func (w *BufferedWriter) Truncate(newSize int64) error {
	return w.f.Truncate(newSize)
}

// BufferedReader implements a Reader backend over a plain *os.File.
type BufferedReader struct {
	f      *os.File
	cursor int64
}

func NewBufferedReader(path string) (*BufferedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &BufferedReader{f: f}, nil
}

func (r *BufferedReader) Open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	r.f = f
	r.cursor = 0
	return nil
}

func (r *BufferedReader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

func (r *BufferedReader) Position(offset int64) error {
	r.cursor = offset
	return nil
}

func (r *BufferedReader) ReadI16() (int16, error) {
	var buf [2]byte
	n, err := r.f.ReadAt(buf[:], r.cursor)
	r.cursor += int64(n)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(buf[:])), nil
}

func (r *BufferedReader) ReadI32() (int32, error) {
	var buf [4]byte
	n, err := r.f.ReadAt(buf[:], r.cursor)
	r.cursor += int64(n)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func (r *BufferedReader) ReadI64() (int64, error) {
	var buf [8]byte
	n, err := r.f.ReadAt(buf[:], r.cursor)
	r.cursor += int64(n)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}
