package stload

import (
	"fmt"

	"github.com/metaclassing/exllamav2/internal/device"
)

// copyWorker drains the queue, issuing one asynchronous copy per pop
// on its own stream. One chunk per wakeup, never a coalesced run:
// spreading blocks across workers beats batching them onto whichever
// worker wakes first. Chunks are disjoint, so copy issuance needs no
// lock of its own.
//
// The stream is created at worker start and synchronized and released
// on every exit path, so copies this worker issued are complete before
// it returns.
func copyWorker(dst device.Target, staging []byte, q *chunkQueue) {
	s, err := dst.NewStream()
	if err != nil {
		q.fail(fmt.Errorf("stload: transfer stream: %w", err))
		return
	}
	defer s.Release()

	for {
		c, ok := q.pop()
		if !ok {
			break // failed, or drained with no more producers
		}
		if err := s.CopyFromHost(c.a, staging[c.a:c.b]); err != nil {
			q.fail(fmt.Errorf("stload: transfer: block [%d,%d): %w", c.a, c.b, err))
			break
		}
	}

	if err := s.Synchronize(); err != nil {
		q.fail(fmt.Errorf("stload: stream synchronize: %w", err))
	}
}
