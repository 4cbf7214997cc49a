package arrayfile

// IOType selects the backend an ArrayFile uses to talk to its underlying
// file. Both variants must honour the same semantic contract; only Mapped
// additionally satisfies Remapper.
type IOType int

const (
	// Buffered uses conventional positional reads/writes (pread/pwrite)
	// through the OS page cache. Available on every platform.
	Buffered IOType = iota

	// Mapped memory-maps the file and writes directly into the mapping.
	// Resize can use Remap instead of a close/reopen cycle.
	Mapped
)

func (t IOType) String() string {
	switch t {
	case Buffered:
		return "buffered"
	case Mapped:
		return "mapped"
	default:
		return "unknown"
	}
}

// Writer is the abstract write side of the backend an ArrayFile drives.
// Implementations do not need to be safe for concurrent use; the ArrayFile
// serialises access to the operations that matter (see the package doc).
type Writer interface {
	// Open prepares the writer to operate against size bytes of an
	// already-created file at path.
	Open(path string, size int64) error

	// Close releases any resources (file descriptors, mappings) held by the
	// writer. Close is idempotent.
	Close() error

	// Position seeks the writer's cursor to the given absolute byte offset.
	// Only meaningful for the cursor-style WriteI* methods below.
	Position(offset int64) error

	// WriteI16, WriteI32, WriteI64 write a value at the writer's current
	// cursor position and advance the cursor by the element width.
	WriteI16(v int16) error
	WriteI32(v int32) error
	WriteI64(v int64) error

	// WriteI16At, WriteI32At, WriteI64At write a value at an absolute byte
	// offset without disturbing the writer's cursor.
	WriteI16At(offset int64, v int16) error
	WriteI32At(offset int64, v int32) error
	WriteI64At(offset int64, v int64) error

	// Flush propagates buffered writes to the OS (not necessarily to stable
	// storage).
	Flush() error

	// Force fsyncs the underlying file; on return, all prior writes are
	// durable on stable storage.
	Force() error

	// Truncate resizes the underlying file to newSize bytes, zero-filling
	// on growth and discarding the tail on shrink.
	Truncate(newSize int64) error
}

// Reader is the abstract read side used for header loads and bulk loads. It
// is acquired for the duration of a single operation and released on every
// exit path, including error.
type Reader interface {
	Open(path string) error
	Close() error
	Position(offset int64) error
	ReadI16() (int16, error)
	ReadI32() (int32, error)
	ReadI64() (int64, error)
}

// Remapper is an optional capability satisfied by mapped-file Writer
// implementations. SetArrayLength type-asserts for it rather than branching
// on the IOType tag, so a future backend can opt in without touching the
// resize algorithm.
type Remapper interface {
	// Remap refreshes the memory mapping after the backing file's size has
	// changed to newSize. The old mapping must not be used afterward.
	Remap(newSize int64) error
}
