package arrayfile

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size, in bytes, of the region preceding the body.
// The body always starts at this offset regardless of storage version, so
// mapped implementations can align the body to page boundaries.
const HeaderSize = 1024

// StorageVersion is the only storage_version this implementation understands.
// A file with any other value fails to load with ErrCorruptHeader.
const StorageVersion = 0

const (
	offStorageVersion = 0
	offLWM            = 8
	offHWM            = 16
	offArrayLength    = 24
	offElementSize    = 28
	offReservedStart  = 32
)

// ElementSize enumerates the supported element widths, in bytes.
type ElementSize int32

const (
	ElementSize2 ElementSize = 2
	ElementSize4 ElementSize = 4
	ElementSize8 ElementSize = 8
)

func (es ElementSize) valid() bool {
	return es == ElementSize2 || es == ElementSize4 || es == ElementSize8
}

// header holds the cached copy of the five fixed header fields. It never
// touches the reserved region directly; that region is preserved verbatim by
// every code path that rewrites the header (only the first 32 bytes are ever
// written).
type header struct {
	storageVersion uint64
	lwmSCN         uint64
	hwmSCN         uint64
	arrayLength    int32
	elementSize    int32
}

func (h *header) check() error {
	if h.storageVersion != StorageVersion {
		return fmt.Errorf("%w: storage_version %d unsupported", ErrCorruptHeader, h.storageVersion)
	}
	if h.hwmSCN < h.lwmSCN {
		return fmt.Errorf("%w: hwm_scn %d < lwm_scn %d", ErrCorruptHeader, h.hwmSCN, h.lwmSCN)
	}
	if h.arrayLength < 0 {
		return fmt.Errorf("%w: negative array_length %d", ErrCorruptHeader, h.arrayLength)
	}
	if !ElementSize(h.elementSize).valid() {
		return fmt.Errorf("%w: element_size %d unsupported", ErrCorruptHeader, h.elementSize)
	}
	return nil
}

// bodySize returns the number of bytes the body occupies for the cached
// array_length/element_size pair.
func (h *header) bodySize() int64 {
	return int64(h.arrayLength) * int64(h.elementSize)
}

// encodeFixedFields writes the five fixed fields into the first 32 bytes of
// buf. buf must be at least offReservedStart bytes; callers that hold a full
// HeaderSize buffer with a preserved reserved region should pass a slice of
// just the first 32 bytes, or the full buffer - either way only [0,32) is
// touched.
func (h *header) encodeFixedFields(buf []byte) {
	binary.LittleEndian.PutUint64(buf[offStorageVersion:], h.storageVersion)
	binary.LittleEndian.PutUint64(buf[offLWM:], h.lwmSCN)
	binary.LittleEndian.PutUint64(buf[offHWM:], h.hwmSCN)
	binary.LittleEndian.PutUint32(buf[offArrayLength:], uint32(h.arrayLength))
	binary.LittleEndian.PutUint32(buf[offElementSize:], uint32(h.elementSize))
}

func decodeHeader(buf []byte) header {
	return header{
		storageVersion: binary.LittleEndian.Uint64(buf[offStorageVersion:]),
		lwmSCN:         binary.LittleEndian.Uint64(buf[offLWM:]),
		hwmSCN:         binary.LittleEndian.Uint64(buf[offHWM:]),
		arrayLength:    int32(binary.LittleEndian.Uint32(buf[offArrayLength:])),
		elementSize:    int32(binary.LittleEndian.Uint32(buf[offElementSize:])),
	}
}

// loadHeader reads the first HeaderSize bytes via r, validates them, and
// returns the parsed header together with the raw HeaderSize bytes read
// (reserved region included, copied verbatim). It never writes anything.
func loadHeader(r Reader) (header, []byte, error) {
	buf := make([]byte, HeaderSize)
	if err := r.Position(0); err != nil {
		return header{}, nil, fmt.Errorf("%w: seeking header: %v", ErrIO, err)
	}
	if err := readFull(r, buf); err != nil {
		return header{}, nil, fmt.Errorf("%w: reading header: %v", ErrIO, err)
	}
	h := decodeHeader(buf)
	if err := h.check(); err != nil {
		return header{}, nil, err
	}
	return h, buf, nil
}

// readFull fills buf using successive int64 reads via r's cursor, finishing
// any remainder shorter than 8 bytes with int16 reads. Reader only exposes
// fixed-width reads, so the header (which is not element-width-aligned in the
// general sense, but is a flat byte region here) is read with an 8-byte
// stride where possible.
func readFull(r Reader, buf []byte) error {
	n := len(buf)
	i := 0
	for i+8 <= n {
		v, err := r.ReadI64()
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(buf[i:], uint64(v))
		i += 8
	}
	for i < n {
		v, err := r.ReadI16()
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint16(buf[i:], uint16(v))
		i += 2
	}
	return nil
}
