package stload

import "runtime"

// Default block size: the unit of read and transfer work. Tuning knob
// only; correctness never depends on it.
const DefaultBlockSize = 512 * 1024

// Config controls the loader's worker pools. Worker counts and block
// size trade throughput and fairness, never correctness: any positive
// combination covers the segment exactly once.
type Config struct {
	ReadWorkers int // Number of file reader threads, each with its own handle.
	CopyWorkers int // Number of transfer threads, each with its own stream.
	BlockSize   int // Bytes per block; the last block of a segment may be shorter.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		ReadWorkers: min(n, 8),
		CopyWorkers: min(n, 4),
		BlockSize:   DefaultBlockSize,
	}
}

// withDefaults fills non-positive fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ReadWorkers <= 0 {
		c.ReadWorkers = def.ReadWorkers
	}
	if c.CopyWorkers <= 0 {
		c.CopyWorkers = def.CopyWorkers
	}
	if c.BlockSize <= 0 {
		c.BlockSize = def.BlockSize
	}
	return c
}
