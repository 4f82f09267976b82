package stload

import (
	"fmt"
	"os"
)

// readWorker reads the strided block partition owned by worker id:
// blocks starting at id*B, id*B + T*B, id*B + 2*T*B, ... below
// len(staging). Each worker opens its own handle — positioned reads on
// a shared handle are not independent — and writes into staging at the
// block's own offset, so worker writes are disjoint by construction
// and the buffer needs no lock.
//
// Every completed block is published to the queue. On any open error
// or short read the worker records the failure and returns; it never
// retries.
func readWorker(path string, base uint64, staging []byte, id, workers int, blockSize uint64, q *chunkQueue) {
	f, err := os.Open(path) //nolint:gosec // G304: loading caller-named files is the point
	if err != nil {
		q.fail(fmt.Errorf("stload: read worker %d: %w", id, err))
		return
	}
	defer f.Close()

	size := uint64(len(staging))
	stride := uint64(workers) * blockSize
	for a := uint64(id) * blockSize; a < size; a += stride {
		if q.failed.Load() {
			return
		}
		b := a + blockSize
		if b > size {
			b = size
		}
		n, err := f.ReadAt(staging[a:b], int64(base+a)) //nolint:gosec // G115: file offsets fit int64
		if err != nil {
			q.fail(fmt.Errorf("stload: read worker %d: block [%d,%d): %w", id, a, b, err))
			return
		}
		if uint64(n) != b-a {
			q.fail(fmt.Errorf("stload: read worker %d: block [%d,%d): got %d bytes: %w", id, a, b, n, ErrShortRead))
			return
		}
		q.push(chunk{a, b})
	}
}
