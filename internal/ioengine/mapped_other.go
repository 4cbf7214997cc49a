//go:build !unix

package ioengine

import "errors"

// ErrMappedUnsupported is returned by NewMappedWriter on platforms without a
// unix-style mmap implementation.
var ErrMappedUnsupported = errors.New("ioengine: mapped backend not supported on this platform")

// MappedWriter is unavailable outside unix-like platforms; use
// BufferedWriter there instead.
type MappedWriter struct{}

func NewMappedWriter(path string, size int64) (*MappedWriter, error) {
	return nil, ErrMappedUnsupported
}

func (w *MappedWriter) Open(path string, size int64) error   { return ErrMappedUnsupported }
func (w *MappedWriter) Close() error                         { return nil }
func (w *MappedWriter) Position(offset int64) error          { return ErrMappedUnsupported }
func (w *MappedWriter) WriteI16(v int16) error                { return ErrMappedUnsupported }
func (w *MappedWriter) WriteI32(v int32) error                { return ErrMappedUnsupported }
func (w *MappedWriter) WriteI64(v int64) error                { return ErrMappedUnsupported }
func (w *MappedWriter) WriteI16At(offset int64, v int16) error { return ErrMappedUnsupported }
func (w *MappedWriter) WriteI32At(offset int64, v int32) error { return ErrMappedUnsupported }
func (w *MappedWriter) WriteI64At(offset int64, v int64) error { return ErrMappedUnsupported }
func (w *MappedWriter) Flush() error                           { return ErrMappedUnsupported }
func (w *MappedWriter) Force() error                           { return ErrMappedUnsupported }
func (w *MappedWriter) Truncate(newSize int64) error           { return ErrMappedUnsupported }
func (w *MappedWriter) Remap(newSize int64) error              { return ErrMappedUnsupported }
