package arrayfile

import "fmt"

// WriteI16 writes a 2-byte element at index, unconditionally, without
// touching water marks or flushing. The caller owns bounds discipline; index
// is not validated against array_length.
func (af *ArrayFile) WriteI16(index int32, v int16) error {
	if err := af.checkOpen(); err != nil {
		return err
	}
	if err := af.w.WriteI16At(af.elementOffset(index), v); err != nil {
		return fmt.Errorf("%w: write_i16(%d): %v", ErrIO, index, err)
	}
	return nil
}

// WriteI32 writes a 4-byte element at index. See WriteI16 for the contract.
func (af *ArrayFile) WriteI32(index int32, v int32) error {
	if err := af.checkOpen(); err != nil {
		return err
	}
	if err := af.w.WriteI32At(af.elementOffset(index), v); err != nil {
		return fmt.Errorf("%w: write_i32(%d): %v", ErrIO, index, err)
	}
	return nil
}

// WriteI64 writes an 8-byte element at index. See WriteI16 for the contract.
func (af *ArrayFile) WriteI64(index int32, v int64) error {
	if err := af.checkOpen(); err != nil {
		return err
	}
	if err := af.w.WriteI64At(af.elementOffset(index), v); err != nil {
		return fmt.Errorf("%w: write_i64(%d): %v", ErrIO, index, err)
	}
	return nil
}

// LoadInt16Array reads the body sequentially into a newly-allocated []int16.
// If the file's array_length is zero, it returns an empty slice without
// error, enabling lazy initialisation on first use.
func (af *ArrayFile) LoadInt16Array() ([]int16, error) {
	if err := af.checkOpen(); err != nil {
		return nil, err
	}
	n := af.hdr.arrayLength
	out := make([]int16, n)
	r, err := newReader(af.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer r.Close()
	if err := r.Position(HeaderSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	for i := int32(0); i < n; i++ {
		v, err := r.ReadI16()
		if err != nil {
			return nil, fmt.Errorf("%w: loading element %d: %v", ErrIO, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// LoadInt32Array reads the body sequentially into a newly-allocated []int32.
func (af *ArrayFile) LoadInt32Array() ([]int32, error) {
	if err := af.checkOpen(); err != nil {
		return nil, err
	}
	n := af.hdr.arrayLength
	out := make([]int32, n)
	r, err := newReader(af.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer r.Close()
	if err := r.Position(HeaderSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	for i := int32(0); i < n; i++ {
		v, err := r.ReadI32()
		if err != nil {
			return nil, fmt.Errorf("%w: loading element %d: %v", ErrIO, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// LoadInt64Array reads the body sequentially into a newly-allocated []int64.
func (af *ArrayFile) LoadInt64Array() ([]int64, error) {
	if err := af.checkOpen(); err != nil {
		return nil, err
	}
	n := af.hdr.arrayLength
	out := make([]int64, n)
	r, err := newReader(af.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer r.Close()
	if err := r.Position(HeaderSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	for i := int32(0); i < n; i++ {
		v, err := r.ReadI64()
		if err != nil {
			return nil, fmt.Errorf("%w: loading element %d: %v", ErrIO, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Reset overwrites the body from offset HeaderSize with values, flushing
// before and after. It does not touch the water marks, and only writes as
// many elements as len(values); the rest of the body is left untouched.
func (af *ArrayFile) Reset(values []int64) error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if err := af.checkOpen(); err != nil {
		return err
	}
	return af.resetLocked(values)
}

// ResetWithSCN behaves like Reset, and additionally sets lwm_scn = hwm_scn =
// scn and flushes - a non-atomic convenience for offline reinitialisation.
func (af *ArrayFile) ResetWithSCN(values []int64, scn uint64) error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if err := af.checkOpen(); err != nil {
		return err
	}
	if err := af.resetLocked(values); err != nil {
		return err
	}
	if err := af.w.WriteI64At(offHWM, int64(scn)); err != nil {
		return fmt.Errorf("%w: writing hwm: %v", ErrIO, err)
	}
	if err := af.w.WriteI64At(offLWM, int64(scn)); err != nil {
		return fmt.Errorf("%w: writing lwm: %v", ErrIO, err)
	}
	if err := af.w.Flush(); err != nil {
		return fmt.Errorf("%w: flushing water marks: %v", ErrIO, err)
	}
	af.hdr.lwmSCN = scn
	af.hdr.hwmSCN = scn
	return nil
}

func (af *ArrayFile) resetLocked(values []int64) error {
	if err := af.w.Flush(); err != nil {
		return fmt.Errorf("%w: pre-reset flush: %v", ErrIO, err)
	}
	if err := af.w.Position(HeaderSize); err != nil {
		return fmt.Errorf("%w: positioning for reset: %v", ErrIO, err)
	}
	for i, v := range values {
		switch ElementSize(af.hdr.elementSize) {
		case ElementSize2:
			if err := af.w.WriteI16(int16(v)); err != nil {
				return fmt.Errorf("%w: resetting element %d: %v", ErrIO, i, err)
			}
		case ElementSize4:
			if err := af.w.WriteI32(int32(v)); err != nil {
				return fmt.Errorf("%w: resetting element %d: %v", ErrIO, i, err)
			}
		default:
			if err := af.w.WriteI64(v); err != nil {
				return fmt.Errorf("%w: resetting element %d: %v", ErrIO, i, err)
			}
		}
	}
	if err := af.w.Flush(); err != nil {
		return fmt.Errorf("%w: post-reset flush: %v", ErrIO, err)
	}
	return nil
}

// ResetAll fills every element with value. Only valid when element_size ==
// 8; otherwise returns ErrElementSizeMismatch.
func (af *ArrayFile) ResetAll(value int64) error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if err := af.checkOpen(); err != nil {
		return err
	}
	if ElementSize(af.hdr.elementSize) != ElementSize8 {
		return ErrElementSizeMismatch
	}
	values := make([]int64, af.hdr.arrayLength)
	for i := range values {
		values[i] = value
	}
	return af.resetLocked(values)
}
