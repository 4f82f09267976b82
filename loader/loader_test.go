package loader_test

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaclassing/exllamav2/loader"
)

func TestLoadSegment_PublicAPI(t *testing.T) {
	data := make([]byte, 300_000)
	_, err := rand.Read(data)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "segment.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	dst := make([]byte, 100_000)
	err = loader.LoadSegment(path, 50_000, 100_000, loader.NewHostTarget(dst), loader.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, data[50_000:150_000], dst)
}
