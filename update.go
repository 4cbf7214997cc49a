package arrayfile

import (
	"fmt"
	"sort"
)

// EntryValue is one positional write inside an Entry. Exactly one of the
// Int16/Int32/Int64 fields is meaningful, selected by the owning
// ArrayFile's element size at apply time.
type EntryValue struct {
	Pos   int32
	Int16 int16
	Int32 int32
	Int64 int64
}

// Entry is a caller-supplied batch of positional writes sharing a single
// governing SCN.
type Entry struct {
	MaxSCN uint64
	Values []EntryValue
}

// Update applies a batch of entries using the HWM->data->LWM durable
// protocol: it sorts all EntryValues by position
// ascending for sequential I/O, publishes intent by writing and flushing
// hwm_scn, applies the sorted writes and flushes, then commits by writing
// and flushing lwm_scn.
//
// If any step fails, the on-disk state stays well-defined: lwm still denotes
// the last durable batch, hwm denotes the most recent attempt. An empty or
// nil batch is a no-op.
//
// Update is mutually exclusive with Reset, ResetWithSCN, ResetAll, and
// SetArrayLength.
func (af *ArrayFile) Update(entries []Entry) error {
	af.mu.Lock()
	defer af.mu.Unlock()
	if err := af.checkOpen(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	maxSCNBatch := af.hdr.hwmSCN
	var flat []EntryValue
	for _, e := range entries {
		if e.MaxSCN > maxSCNBatch {
			maxSCNBatch = e.MaxSCN
		}
		flat = append(flat, e.Values...)
	}

	sort.Slice(flat, func(i, j int) bool { return flat[i].Pos < flat[j].Pos })

	// Publish intent: a crash after this point but before the commit step
	// leaves lwm_scn < hwm_scn, which external recovery interprets as "a
	// batch was in flight; replay up to hwm_scn". hwm_scn is rewritten
	// unconditionally, even when a batch carries no Values, so that the
	// ordering is uniform and recovery never has to special-case "no advance
	// happened".
	if err := af.w.WriteI64At(offHWM, int64(maxSCNBatch)); err != nil {
		return fmt.Errorf("%w: publishing hwm: %v", ErrIO, err)
	}
	if err := af.w.Flush(); err != nil {
		return fmt.Errorf("%w: flushing hwm: %v", ErrIO, err)
	}

	if len(flat) > 0 {
		es := ElementSize(af.hdr.elementSize)
		for _, ev := range flat {
			offset := af.elementOffset(ev.Pos)
			var err error
			switch es {
			case ElementSize2:
				err = af.w.WriteI16At(offset, ev.Int16)
			case ElementSize4:
				err = af.w.WriteI32At(offset, ev.Int32)
			default:
				err = af.w.WriteI64At(offset, ev.Int64)
			}
			if err != nil {
				return fmt.Errorf("%w: applying entry at pos %d: %v", ErrIO, ev.Pos, err)
			}
		}
		if err := af.w.Flush(); err != nil {
			return fmt.Errorf("%w: flushing data: %v", ErrIO, err)
		}
	}

	// Commit.
	if err := af.w.WriteI64At(offLWM, int64(maxSCNBatch)); err != nil {
		return fmt.Errorf("%w: committing lwm: %v", ErrIO, err)
	}
	if err := af.w.Flush(); err != nil {
		return fmt.Errorf("%w: flushing lwm: %v", ErrIO, err)
	}

	af.hdr.lwmSCN = maxSCNBatch
	af.hdr.hwmSCN = maxSCNBatch
	return nil
}
