package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaclassing/exllamav2/internal/stload"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "read_workers: 3\ncopy_workers: 2\nblock_size_kb: 128\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ReadWorkers)
	assert.Equal(t, 2, cfg.CopyWorkers)
	assert.Equal(t, 128*1024, cfg.BlockSize)
}

func TestLoad_PartialFallsBackToDefaults(t *testing.T) {
	path := writeConfig(t, "read_workers: 2\n")
	def := stload.DefaultConfig()

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.ReadWorkers)
	assert.Equal(t, def.CopyWorkers, cfg.CopyWorkers)
	assert.Equal(t, def.BlockSize, cfg.BlockSize)
}

func TestLoad_RejectsNegativeValues(t *testing.T) {
	path := writeConfig(t, "read_workers: -1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "read_workers: [nope\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
