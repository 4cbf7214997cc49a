// Package arrayfile implements a fixed-element-size, append-ordered, durably
// persisted flat array file.
//
// An ArrayFile is the storage primitive for higher-level key/value engines: a
// flat sequence of fixed-width elements (2, 4, or 8 bytes each) preceded by a
// 1024-byte header carrying a storage version and a pair of water marks used
// for crash recovery.
//
// # Basic usage
//
//	af, err := arrayfile.Create(arrayfile.Options{
//	    Path:        "/tmp/my.arr",
//	    ArrayLength: 1000,
//	    ElementSize: arrayfile.ElementSize8,
//	})
//	if err != nil {
//	    // handle error
//	}
//	defer af.Close()
//
//	err = af.Update([]arrayfile.Entry{{
//	    MaxSCN: 1,
//	    Values: []arrayfile.EntryValue{{Pos: 0, Int64: 42}},
//	}})
//
// # Concurrency
//
// ArrayFile is not safe for arbitrary concurrent use. Update, the Reset
// family, and SetArrayLength are mutually exclusive with each other (an
// internal mutex serialises them); positional single-element writes and
// simple accessors are left unsynchronised and are the caller's
// responsibility to sequence.
//
// # Error handling
//
// Errors are classified with sentinel values (ErrCorruptHeader,
// ErrInvalidWaterMarks, ErrIO, and so on) meant to be tested with
// [errors.Is]. A corrupt header or an incompatible storage version means the
// file must be rebuilt from an external redo log; ArrayFile does not attempt
// repair on its own.
package arrayfile
