// Package config reads the optional loader tuning file used by the
// CLI. Library callers pass an stload.Config directly instead.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/metaclassing/exllamav2/internal/stload"
)

// File is the YAML schema of a tuning file. Zero fields fall back to
// the runtime defaults.
type File struct {
	ReadWorkers int `yaml:"read_workers"`
	CopyWorkers int `yaml:"copy_workers"`
	BlockSizeKB int `yaml:"block_size_kb"`
}

// Load reads a tuning file and merges it over the defaults.
func Load(path string) (stload.Config, error) {
	cfg := stload.DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: config path comes from the CLI user
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if f.ReadWorkers < 0 || f.CopyWorkers < 0 || f.BlockSizeKB < 0 {
		return cfg, fmt.Errorf("config: %s: worker counts and block size must not be negative", path)
	}
	if f.ReadWorkers > 0 {
		cfg.ReadWorkers = f.ReadWorkers
	}
	if f.CopyWorkers > 0 {
		cfg.CopyWorkers = f.CopyWorkers
	}
	if f.BlockSizeKB > 0 {
		cfg.BlockSize = f.BlockSizeKB * 1024
	}
	return cfg, nil
}
