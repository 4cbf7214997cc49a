package arrayfile_test

import (
	"bytes"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arrayfile/arrayfile"
)

func reservedBytes(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), arrayfile.HeaderSize)
	out := make([]byte, arrayfile.HeaderSize-32)
	copy(out, data[32:arrayfile.HeaderSize])
	return out
}

// Invariant 5: the reserved header region is never disturbed by any
// operation.
func Test_Reserved_Header_Region_Is_Never_Touched(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.dat")
	af, err := arrayfile.Create(arrayfile.Options{Path: path, ArrayLength: 4, ElementSize: arrayfile.ElementSize4})
	require.NoError(t, err)

	// Poke the reserved region with a recognisable pattern that no
	// operation is allowed to disturb.
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	require.NoError(t, err)
	pattern := bytes.Repeat([]byte{0xAB}, arrayfile.HeaderSize-32)
	_, err = f.WriteAt(pattern, 32)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	before := reservedBytes(t, path)
	require.True(t, bytes.Equal(before, pattern))

	require.NoError(t, af.WriteI32(1, 7))
	require.NoError(t, af.Update([]arrayfile.Entry{{MaxSCN: 1, Values: []arrayfile.EntryValue{{Pos: 2, Int32: 9}}}}))
	require.NoError(t, af.SetArrayLength(6))
	require.NoError(t, af.Close())

	after := reservedBytes(t, path)
	require.True(t, bytes.Equal(before, after))
}

// Invariant 6: applying SetWaterMarks twice with the same arguments is
// equivalent to applying it once.
func Test_SetWaterMarks_Is_Idempotent(t *testing.T) {
	t.Parallel()

	af, _ := newTestFile(t, 2, arrayfile.ElementSize4)
	defer af.Close()

	require.NoError(t, af.SetWaterMarks(3, 8))
	require.NoError(t, af.SetWaterMarks(3, 8))
	require.EqualValues(t, 3, af.LWM())
	require.EqualValues(t, 8, af.HWM())
}

// Invariant 3: lwm == hwm == max(max_scn(batch), pre_hwm) after Update,
// regardless of how the batch's entries are ordered or how many entries it
// contains.
func Test_Update_Result_SCN_Matches_Max_Of_Batch_And_Prior_HWM(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))

	for trial := 0; trial < 20; trial++ {
		af, _ := newTestFile(t, 16, arrayfile.ElementSize8)

		preHWM := uint64(rng.IntN(50))
		require.NoError(t, af.SetWaterMarks(preHWM, preHWM))

		numEntries := 1 + rng.IntN(4)
		entries := make([]arrayfile.Entry, numEntries)
		maxSCN := uint64(0)
		for i := range entries {
			scn := uint64(rng.IntN(100))
			if scn > maxSCN {
				maxSCN = scn
			}
			numValues := 1 + rng.IntN(4)
			values := make([]arrayfile.EntryValue, numValues)
			for j := range values {
				values[j] = arrayfile.EntryValue{Pos: int32(rng.IntN(16)), Int64: rng.Int64()}
			}
			entries[i] = arrayfile.Entry{MaxSCN: scn, Values: values}
		}

		require.NoError(t, af.Update(entries))

		want := maxSCN
		if preHWM > want {
			want = preHWM
		}
		require.EqualValues(t, want, af.LWM())
		require.EqualValues(t, want, af.HWM())
		require.NoError(t, af.Close())
	}
}
