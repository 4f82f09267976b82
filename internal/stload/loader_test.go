package stload

import (
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaclassing/exllamav2/internal/device"
)

// writeTestFile creates a file of n random bytes and returns its path
// and contents.
func writeTestFile(t *testing.T, n int) (string, []byte) {
	t.Helper()

	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "segment.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, data
}

func TestLoadSegment_HostZeroCopy(t *testing.T) {
	path, data := writeTestFile(t, 1<<20)

	offset, length := uint64(4096), uint64(700_000)
	dst := make([]byte, length)
	err := LoadSegment(path, offset, length, device.NewHostTarget(dst), Config{})
	require.NoError(t, err)

	assert.Equal(t, data[offset:offset+length], dst)
}

func TestLoadSegment_WholeFile(t *testing.T) {
	path, data := writeTestFile(t, 123_457) // not block aligned

	dst := make([]byte, len(data))
	err := LoadSegment(path, 0, uint64(len(data)), device.NewHostTarget(dst), Config{BlockSize: 4096})
	require.NoError(t, err)
	assert.Equal(t, data, dst)
}

func TestLoadSegment_WorkerMatrix(t *testing.T) {
	path, data := writeTestFile(t, 4<<20)
	offset, length := uint64(513), uint64(3<<20+77)
	want := data[offset : offset+length]

	for _, readers := range []int{1, 2, 8} {
		for _, copiers := range []int{1, 8} {
			cfg := Config{ReadWorkers: readers, CopyWorkers: copiers, BlockSize: 64 * 1024}

			dst := make([]byte, length)
			err := LoadSegment(path, offset, length, device.NewHostTarget(dst), cfg)
			require.NoError(t, err)
			assert.Equal(t, want, dst, "host path: %d readers", readers)

			sim := device.NewAsyncTarget(length)
			err = LoadSegment(path, offset, length, sim, cfg)
			require.NoError(t, err)
			assert.Equal(t, want, sim.Bytes(), "staged path: %d readers, %d copiers", readers, copiers)
		}
	}
}

func TestLoadSegment_StagedCopiesEveryBlockOnce(t *testing.T) {
	path, _ := writeTestFile(t, 256*1024)
	length := uint64(256 * 1024)
	blockSize := 16 * 1024

	sim := device.NewAsyncTarget(length)
	err := LoadSegment(path, 0, length, sim, Config{ReadWorkers: 4, CopyWorkers: 3, BlockSize: blockSize})
	require.NoError(t, err)

	// One asynchronous copy per block, never coalesced.
	assert.EqualValues(t, int(length)/blockSize, sim.Copies())
}

func TestLoadSegment_SmallSegments(t *testing.T) {
	path, data := writeTestFile(t, 1000)

	tests := []struct {
		name           string
		offset, length uint64
	}{
		{"single byte", 999, 1},
		{"shorter than one block", 0, 100},
		{"fewer bytes than workers", 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Block size 1 with 8 workers: most workers must not spawn.
			cfg := Config{ReadWorkers: 8, CopyWorkers: 2, BlockSize: 1}
			dst := make([]byte, tt.length)
			err := LoadSegment(path, tt.offset, tt.length, device.NewHostTarget(dst), cfg)
			require.NoError(t, err)
			assert.Equal(t, data[tt.offset:tt.offset+tt.length], dst)
		})
	}
}

func TestLoadSegment_ZeroLength(t *testing.T) {
	path, _ := writeTestFile(t, 10)
	err := LoadSegment(path, 5, 0, device.NewHostTarget(nil), Config{})
	require.NoError(t, err)
}

func TestLoadSegment_TargetTooSmall(t *testing.T) {
	path, _ := writeTestFile(t, 10)
	err := LoadSegment(path, 0, 10, device.NewHostTarget(make([]byte, 5)), Config{})
	require.ErrorIs(t, err, ErrTargetTooSmall)
}

func TestLoadSegment_TruncatedFile(t *testing.T) {
	path, _ := writeTestFile(t, 64 * 1024)

	// Request more bytes than the file holds: some worker must hit a
	// short read and the whole load must fail.
	dst := make([]byte, 128*1024)
	err := LoadSegment(path, 0, uint64(len(dst)), device.NewHostTarget(dst), Config{ReadWorkers: 4, BlockSize: 4096})
	require.Error(t, err)
}

func TestLoadSegment_TruncatedFileStaged(t *testing.T) {
	path, _ := writeTestFile(t, 64 * 1024)

	sim := device.NewAsyncTarget(128 * 1024)
	err := LoadSegment(path, 0, 128*1024, sim, Config{ReadWorkers: 4, CopyWorkers: 4, BlockSize: 4096})
	require.Error(t, err)
}

func TestLoadSegment_MissingFile(t *testing.T) {
	dst := make([]byte, 16)
	err := LoadSegment(filepath.Join(t.TempDir(), "nope.bin"), 0, 16, device.NewHostTarget(dst), Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadSegment_CopyFailure(t *testing.T) {
	path, _ := writeTestFile(t, 256 * 1024)

	sim := device.NewAsyncTarget(256 * 1024).FailAfterCopies(2)
	err := LoadSegment(path, 0, 256*1024, sim, Config{ReadWorkers: 2, CopyWorkers: 2, BlockSize: 4096})
	require.ErrorIs(t, err, device.ErrCopyInjected)
}

func TestLoadSegment_CopyFailureDoesNotHang(t *testing.T) {
	// Failure with a single copy worker and many pending chunks: the
	// readers and the remaining pops must all observe the flag and
	// terminate. The test passes by returning at all.
	path, _ := writeTestFile(t, 1 << 20)

	sim := device.NewAsyncTarget(1 << 20).FailAfterCopies(1)
	err := LoadSegment(path, 0, 1<<20, sim, Config{ReadWorkers: 8, CopyWorkers: 1, BlockSize: 1024})
	require.ErrorIs(t, err, device.ErrCopyInjected)
}
