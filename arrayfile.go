package arrayfile

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/arrayfile/arrayfile/internal/flock"
)

// Options configures Create and Open.
type Options struct {
	// Path is the file to create or open.
	Path string

	// ArrayLength is the element count for a newly created file. Ignored by
	// Open.
	ArrayLength int32

	// ElementSize is the per-element width, in bytes, for a newly created
	// file. Ignored by Open (the on-disk value wins).
	ElementSize ElementSize

	// IO selects the backend. Defaults to Buffered.
	IO IOType
}

// ArrayFile is a handle over a single on-disk array file. Exactly one handle
// should own a given file at a time (see the package doc for the
// concurrency model).
type ArrayFile struct {
	path string
	io   IOType

	w    Writer
	lock *flock.Lock

	// mu serialises Update, the Reset family, and SetArrayLength against
	// each other. It is held across I/O flushes intentionally: a resize
	// racing a batched update would corrupt computed offsets.
	mu sync.Mutex

	hdr header

	closed bool
}

// Create makes a new array file with a zeroed body and header
// (version=0, lwm=0, hwm=0), and returns a handle to it.
func Create(opts Options) (*ArrayFile, error) {
	if opts.ArrayLength < 0 {
		return nil, ErrInvalidLength
	}
	if !opts.ElementSize.valid() {
		return nil, fmt.Errorf("%w: element size must be 2, 4, or 8", ErrIO)
	}

	lock, err := flock.TryLock(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring file lock: %v", ErrIO, err)
	}

	h := header{
		storageVersion: StorageVersion,
		lwmSCN:         0,
		hwmSCN:         0,
		arrayLength:    opts.ArrayLength,
		elementSize:    int32(opts.ElementSize),
	}
	size := HeaderSize + int64(h.arrayLength)*int64(h.elementSize)

	w, err := newWriter(opts.IO, opts.Path, size)
	if err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	buf := make([]byte, HeaderSize)
	h.encodeFixedFields(buf)
	if err := writeAt(w, 0, buf); err != nil {
		_ = w.Close()
		_ = lock.Close()
		return nil, fmt.Errorf("%w: writing header: %v", ErrIO, err)
	}
	if err := w.Force(); err != nil {
		_ = w.Close()
		_ = lock.Close()
		return nil, fmt.Errorf("%w: forcing header: %v", ErrIO, err)
	}

	return &ArrayFile{path: opts.Path, io: opts.IO, w: w, lock: lock, hdr: h}, nil
}

// Open loads an existing array file, validating its header. Files smaller
// than HeaderSize fail with ErrIO; a header with an incompatible version or
// hwm < lwm fails with ErrCorruptHeader.
func Open(opts Options) (*ArrayFile, error) {
	lock, err := flock.TryLock(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring file lock: %v", ErrIO, err)
	}

	r, err := newReader(opts.Path)
	if err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	h, _, err := loadHeader(r)
	_ = r.Close()
	if err != nil {
		_ = lock.Close()
		return nil, err
	}

	size := HeaderSize + h.bodySize()
	w, err := newWriter(opts.IO, opts.Path, size)
	if err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	return &ArrayFile{path: opts.Path, io: opts.IO, w: w, lock: lock, hdr: h}, nil
}

// Close flushes and releases the underlying Writer. Subsequent operations on
// the handle return ErrClosed. Close is safe to call more than once.
func (af *ArrayFile) Close() error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if af.closed {
		return nil
	}
	af.closed = true
	if err := af.w.Flush(); err != nil {
		_ = af.w.Close()
		_ = af.lock.Close()
		return fmt.Errorf("%w: flushing on close: %v", ErrIO, err)
	}
	closeErr := af.w.Close()
	lockErr := af.lock.Close()
	if closeErr != nil {
		return fmt.Errorf("%w: closing writer: %v", ErrIO, closeErr)
	}
	if lockErr != nil {
		return fmt.Errorf("%w: releasing lock: %v", ErrIO, lockErr)
	}
	return nil
}

// ArrayLength returns the cached element count.
func (af *ArrayFile) ArrayLength() int32 { return af.hdr.arrayLength }

// ElementSize returns the cached per-element width in bytes.
func (af *ArrayFile) ElementSize() ElementSize { return ElementSize(af.hdr.elementSize) }

// LWM returns the cached low water mark SCN.
func (af *ArrayFile) LWM() uint64 { return af.hdr.lwmSCN }

// HWM returns the cached high water mark SCN.
func (af *ArrayFile) HWM() uint64 { return af.hdr.hwmSCN }

// StorageVersion returns the cached storage version.
func (af *ArrayFile) StorageVersion() uint64 { return af.hdr.storageVersion }

func (af *ArrayFile) checkOpen() error {
	if af.closed {
		return ErrClosed
	}
	return nil
}

// SetWaterMarks rewrites lwm_scn and hwm_scn directly, bypassing the batched
// update protocol. It rejects lwm > hwm without touching the file
// (ErrInvalidWaterMarks), and otherwise writes hwm first (flush), then lwm
// (flush) - the same ordering §4.3 relies on, so a crash mid-call leaves the
// same well-defined "replay from lwm" state.
func (af *ArrayFile) SetWaterMarks(lwm, hwm uint64) error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if err := af.checkOpen(); err != nil {
		return err
	}
	return af.setWaterMarksLocked(lwm, hwm)
}

func (af *ArrayFile) setWaterMarksLocked(lwm, hwm uint64) error {
	if lwm > hwm {
		return ErrInvalidWaterMarks
	}
	if err := af.w.WriteI64At(offHWM, int64(hwm)); err != nil {
		return fmt.Errorf("%w: writing hwm: %v", ErrIO, err)
	}
	if err := af.w.Flush(); err != nil {
		return fmt.Errorf("%w: flushing hwm: %v", ErrIO, err)
	}
	if err := af.w.WriteI64At(offLWM, int64(lwm)); err != nil {
		return fmt.Errorf("%w: writing lwm: %v", ErrIO, err)
	}
	if err := af.w.Flush(); err != nil {
		return fmt.Errorf("%w: flushing lwm: %v", ErrIO, err)
	}
	af.hdr.lwmSCN = lwm
	af.hdr.hwmSCN = hwm
	return nil
}

// elementOffset computes the byte offset of element index within the body.
func (af *ArrayFile) elementOffset(index int32) int64 {
	return HeaderSize + int64(index)*int64(af.hdr.elementSize)
}

// writeAt writes buf at offset via w's cursor interface, 8 bytes at a time.
// Callers only ever pass multiples of 8 bytes (the header is 1024 bytes).
func writeAt(w Writer, offset int64, buf []byte) error {
	if len(buf)%8 != 0 {
		return fmt.Errorf("writeAt: length %d not a multiple of 8", len(buf))
	}
	if err := w.Position(offset); err != nil {
		return err
	}
	for i := 0; i < len(buf); i += 8 {
		v := binary.LittleEndian.Uint64(buf[i:])
		if err := w.WriteI64(int64(v)); err != nil {
			return err
		}
	}
	return nil
}
