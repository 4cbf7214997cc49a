//go:build unix

package arrayfile_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arrayfile/arrayfile"
)

// Exercises the memory-mapped backend end to end: raw mmap on Create, an
// Update through the mapping, SetArrayLength's in-place Remap path (as
// opposed to the close/reopen fallback the buffered backend always takes),
// and a reopen that reads back what the mapping wrote.
func Test_Mapped_IO_Survives_Update_Resize_And_Reopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mapped.dat")
	af, err := arrayfile.Create(arrayfile.Options{
		Path:        path,
		ArrayLength: 4,
		ElementSize: arrayfile.ElementSize8,
		IO:          arrayfile.Mapped,
	})
	require.NoError(t, err)

	require.NoError(t, af.WriteI64(1, 0x1122334455667788))

	err = af.Update([]arrayfile.Entry{{
		MaxSCN: 7,
		Values: []arrayfile.EntryValue{{Pos: 3, Int64: 99}, {Pos: 0, Int64: 1}},
	}})
	require.NoError(t, err)
	require.EqualValues(t, 7, af.LWM())
	require.EqualValues(t, 7, af.HWM())

	// Grow through Remap (the mapped Writer satisfies Remapper, so this never
	// falls through to the buffered close/reopen cycle).
	require.NoError(t, af.SetArrayLength(6))
	require.EqualValues(t, 6, af.ArrayLength())
	require.NoError(t, af.WriteI64(5, 42))

	// Shrink through Remap as well.
	require.NoError(t, af.SetArrayLength(4))
	require.EqualValues(t, 4, af.ArrayLength())

	require.NoError(t, af.Close())

	reopened, err := arrayfile.Open(arrayfile.Options{Path: path, IO: arrayfile.Mapped})
	require.NoError(t, err)
	defer reopened.Close()

	require.EqualValues(t, 7, reopened.LWM())
	require.EqualValues(t, 7, reopened.HWM())

	body, err := reopened.LoadInt64Array()
	require.NoError(t, err)
	require.True(t, cmp.Equal(body, []int64{1, 0x1122334455667788, 0, 99}))
}
