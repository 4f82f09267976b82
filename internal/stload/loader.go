// Package stload loads contiguous byte segments of large files into
// destination buffers at full disk bandwidth, overlapping parallel
// positioned reads with parallel asynchronous transfers into non-host
// memory domains.
//
// A pool of read workers covers the segment in a strided block
// partition (worker i owns blocks i, i+T, i+2T, ...), publishing each
// completed block into a shared FIFO. When the destination is not
// CPU-addressable, a second pool of transfer workers drains the FIFO,
// each issuing non-blocking copies on its own stream. Every byte of
// the segment is read and transferred exactly once, in no particular
// order; any worker error aborts the whole load.
package stload

import (
	"fmt"
	"sync"

	"github.com/metaclassing/exllamav2/internal/device"
)

// LoadSegment reads file bytes [offset, offset+length) into dst.
//
// CPU-addressable destinations are written in place with no staging
// copy. Other destinations are staged through a host buffer owned by
// the call; the buffer is released on every exit path and a device
// barrier guarantees all asynchronous copies are visible on return.
//
// The call is synchronous and all-or-nothing: on error the destination
// holds an unspecified mixture of old and new bytes and must not be
// treated as loaded.
func LoadSegment(path string, offset, length uint64, dst device.Target, cfg Config) error {
	cfg = cfg.withDefaults()

	if dst.ByteSize() < length {
		return fmt.Errorf("stload: %w: %d < %d", ErrTargetTooSmall, dst.ByteSize(), length)
	}
	if length == 0 {
		return nil
	}

	staging := dst.HostBytes()
	staged := staging == nil
	if staged {
		staging = make([]byte, length)
	} else {
		staging = staging[:length]
	}

	q := newChunkQueue()
	block := uint64(cfg.BlockSize)

	// Readers whose first block already starts beyond the segment are
	// not spawned; the stride still uses the configured pool width so
	// the partition stays exact.
	var readers sync.WaitGroup
	for i := 0; i < cfg.ReadWorkers && uint64(i)*block < length; i++ {
		readers.Add(1)
		go func(id int) {
			defer readers.Done()
			readWorker(path, offset, staging, id, cfg.ReadWorkers, block, q)
		}(i)
	}

	var copiers sync.WaitGroup
	if staged {
		for i := 0; i < cfg.CopyWorkers; i++ {
			copiers.Add(1)
			go func() {
				defer copiers.Done()
				copyWorker(dst, staging, q)
			}()
		}
	}

	// Transfers start consuming while reads are still producing; only
	// the joins are sequential.
	readers.Wait()
	q.finish()
	copiers.Wait()

	if err := q.err(); err != nil {
		return err
	}
	if staged {
		if err := dst.Synchronize(); err != nil {
			return fmt.Errorf("stload: device synchronize: %w", err)
		}
	}
	return nil
}
