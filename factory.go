package arrayfile

import "github.com/arrayfile/arrayfile/internal/ioengine"

// newWriter constructs the concrete Writer for the requested IOType. The
// Mapped backend additionally satisfies Remapper; SetArrayLength discovers
// that via a type assertion rather than branching on ioType again.
func newWriter(ioType IOType, path string, size int64) (Writer, error) {
	switch ioType {
	case Mapped:
		return ioengine.NewMappedWriter(path, size)
	default:
		return ioengine.NewBufferedWriter(path, size)
	}
}

// newReader always constructs a buffered reader. Header and bulk loads are
// transient, sequential-or-random-access operations for which a mmap'd
// region buys nothing over pread; both IOTypes share this one Reader
// implementation.
func newReader(path string) (Reader, error) {
	return ioengine.NewBufferedReader(path)
}
