package arrayfile_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/arrayfile/arrayfile"
)

// deadBeef holds the 32-bit pattern 0xDEADBEEF; converting it to int32 at run
// time reinterprets those bits as a 4-byte element value.
var deadBeef uint32 = 0xDEADBEEF

func newTestFile(t *testing.T, arrayLength int32, es arrayfile.ElementSize) (*arrayfile.ArrayFile, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.dat")
	af, err := arrayfile.Create(arrayfile.Options{
		Path:        path,
		ArrayLength: arrayLength,
		ElementSize: es,
	})
	require.NoError(t, err)
	return af, path
}

// S1 - new file, single write, reopen.
func Test_ArrayFile_Survives_Reopen_After_Single_Positional_Write(t *testing.T) {
	t.Parallel()

	af, path := newTestFile(t, 4, arrayfile.ElementSize4)
	require.NoError(t, af.WriteI32(2, int32(deadBeef)))
	require.NoError(t, af.Close())

	reopened, err := arrayfile.Open(arrayfile.Options{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LoadInt32Array()
	require.NoError(t, err)
	require.True(t, cmp.Equal(got, []int32{0, 0, int32(deadBeef), 0}))

	require.EqualValues(t, 0, reopened.LWM())
	require.EqualValues(t, 0, reopened.HWM())
	require.EqualValues(t, 4, reopened.ArrayLength())
	require.EqualValues(t, 4, reopened.ElementSize())
}

// S2 - batched update publishes SCN.
func Test_Update_Publishes_Max_SCN_And_Applies_Sorted_Writes(t *testing.T) {
	t.Parallel()

	af, path := newTestFile(t, 4, arrayfile.ElementSize4)
	require.NoError(t, af.WriteI32(2, int32(deadBeef)))
	require.NoError(t, af.Close())

	reopened, err := arrayfile.Open(arrayfile.Options{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	err = reopened.Update([]arrayfile.Entry{{
		MaxSCN: 42,
		Values: []arrayfile.EntryValue{
			{Pos: 3, Int32: 0x3333},
			{Pos: 0, Int32: 0x1111},
		},
	}})
	require.NoError(t, err)
	require.EqualValues(t, 42, reopened.LWM())
	require.EqualValues(t, 42, reopened.HWM())

	require.NoError(t, reopened.Close())

	again, err := arrayfile.Open(arrayfile.Options{Path: path})
	require.NoError(t, err)
	defer again.Close()

	require.EqualValues(t, 42, again.LWM())
	require.EqualValues(t, 42, again.HWM())

	body, err := again.LoadInt32Array()
	require.NoError(t, err)
	require.True(t, cmp.Equal(body, []int32{0x1111, 0, int32(deadBeef), 0x3333}))
}

// S3 - crash between HWM and LWM is tolerated on reopen, not reported as
// corruption; it is the redo log's job to notice lwm < hwm and replay.
func Test_Open_Tolerates_HWM_Ahead_Of_LWM(t *testing.T) {
	t.Parallel()

	af, path := newTestFile(t, 2, arrayfile.ElementSize8)
	require.NoError(t, af.Close())

	// Simulate a crash between the HWM-publish and LWM-commit steps of
	// Update by poking hwm_scn directly at its fixed offset, leaving
	// lwm_scn at 0.
	writeUint64At(t, path, 16, 99)

	reopened, err := arrayfile.Open(arrayfile.Options{Path: path})
	require.NoError(t, err)
	defer reopened.Close()
	require.EqualValues(t, 0, reopened.LWM())
	require.EqualValues(t, 99, reopened.HWM())
}

func writeUint64At(t *testing.T, path string, offset int64, v uint64) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err = f.WriteAt(buf[:], offset)
	require.NoError(t, err)
}

// S4 - invalid water marks are rejected and the header is left untouched.
func Test_SetWaterMarks_Rejects_LWM_Greater_Than_HWM(t *testing.T) {
	t.Parallel()

	af, _ := newTestFile(t, 2, arrayfile.ElementSize4)
	defer af.Close()

	err := af.SetWaterMarks(10, 5)
	require.ErrorIs(t, err, arrayfile.ErrInvalidWaterMarks)
	require.EqualValues(t, 0, af.LWM())
	require.EqualValues(t, 0, af.HWM())
}

// S5 - grow then shrink.
func Test_SetArrayLength_Grows_Then_Shrinks(t *testing.T) {
	t.Parallel()

	af, path := newTestFile(t, 4, arrayfile.ElementSize8)
	for i, v := range []int64{1, 2, 3, 4} {
		require.NoError(t, af.WriteI64(int32(i), v))
	}
	require.NoError(t, af.Close())

	reopened, err := arrayfile.Open(arrayfile.Options{Path: path})
	require.NoError(t, err)

	require.NoError(t, reopened.SetArrayLength(6))
	require.EqualValues(t, 6, reopened.ArrayLength())
	body, err := reopened.LoadInt64Array()
	require.NoError(t, err)
	require.True(t, cmp.Equal(body, []int64{1, 2, 3, 4, 0, 0}))

	require.NoError(t, reopened.SetArrayLength(2))
	require.EqualValues(t, 2, reopened.ArrayLength())
	body, err = reopened.LoadInt64Array()
	require.NoError(t, err)
	require.True(t, cmp.Equal(body, []int64{1, 2}))

	require.NoError(t, reopened.Close())
}

// S6 - reset_all is only valid for 8-byte elements.
func Test_ResetAll_Requires_Element_Size_8(t *testing.T) {
	t.Parallel()

	af4, _ := newTestFile(t, 3, arrayfile.ElementSize4)
	defer af4.Close()
	err := af4.ResetAll(0)
	require.ErrorIs(t, err, arrayfile.ErrElementSizeMismatch)

	af8, _ := newTestFile(t, 3, arrayfile.ElementSize8)
	defer af8.Close()
	require.NoError(t, af8.ResetAll(0x7))
	body, err := af8.LoadInt64Array()
	require.NoError(t, err)
	require.True(t, cmp.Equal(body, []int64{0x7, 0x7, 0x7}))
}

func Test_Open_Rejects_File_Smaller_Than_Header(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tiny.dat")
	require.NoError(t, writeShortFile(path, 100))

	_, err := arrayfile.Open(arrayfile.Options{Path: path})
	require.ErrorIs(t, err, arrayfile.ErrIO)
}

func Test_Update_With_Empty_Batch_Is_NoOp(t *testing.T) {
	t.Parallel()

	af, _ := newTestFile(t, 4, arrayfile.ElementSize4)
	defer af.Close()

	require.NoError(t, af.Update(nil))
	require.EqualValues(t, 0, af.HWM())
}

// An entry with a real MaxSCN but no Values still publishes that SCN: only a
// wholly empty/nil batch of entries is a no-op, not an entry whose Values
// happen to be empty.
func Test_Update_Publishes_SCN_Even_When_Entry_Has_No_Values(t *testing.T) {
	t.Parallel()

	af, _ := newTestFile(t, 4, arrayfile.ElementSize4)
	defer af.Close()

	require.NoError(t, af.Update([]arrayfile.Entry{{MaxSCN: 100}}))
	require.EqualValues(t, 100, af.LWM())
	require.EqualValues(t, 100, af.HWM())
}

func Test_SetArrayLength_With_Current_Length_Is_NoOp(t *testing.T) {
	t.Parallel()

	af, _ := newTestFile(t, 4, arrayfile.ElementSize4)
	defer af.Close()

	require.NoError(t, af.SetArrayLength(4))
	require.EqualValues(t, 4, af.ArrayLength())
}

func Test_Operations_After_Close_Return_ErrClosed(t *testing.T) {
	t.Parallel()

	af, _ := newTestFile(t, 2, arrayfile.ElementSize4)
	require.NoError(t, af.Close())

	require.ErrorIs(t, af.WriteI32(0, 1), arrayfile.ErrClosed)
	require.ErrorIs(t, af.Update([]arrayfile.Entry{{MaxSCN: 1}}), arrayfile.ErrClosed)
	require.ErrorIs(t, af.SetArrayLength(3), arrayfile.ErrClosed)
}

func writeShortFile(path string, n int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(make([]byte, n))
	return err
}
