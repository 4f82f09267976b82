package stload

import (
	"sync"
	"sync/atomic"
)

// chunk is one ready byte range [a, b) of the segment, produced by a
// read worker and consumed exactly once by a copy worker.
type chunk struct {
	a, b uint64
}

// chunkQueue is the FIFO of ready chunks shared by all workers. One
// mutex and one condition variable serialize every access; the failure
// flag is additionally an atomic so producers can poll it between
// blocks without taking the lock.
type chunkQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	chunks []chunk
	done   bool // set once, after all read workers have joined
	failed atomic.Bool
	cause  error // first failure, guarded by mu
}

func newChunkQueue() *chunkQueue {
	q := &chunkQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a ready chunk and wakes one waiting consumer.
func (q *chunkQueue) push(c chunk) {
	q.mu.Lock()
	q.chunks = append(q.chunks, c)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a chunk is ready, the queue has failed, or it is
// drained with no more producers. ok reports whether a chunk was
// returned; false means the consumer must exit.
func (q *chunkQueue) pop() (chunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.failed.Load() {
			return chunk{}, false
		}
		if len(q.chunks) > 0 {
			c := q.chunks[0]
			q.chunks = q.chunks[1:]
			return c, true
		}
		if q.done {
			return chunk{}, false
		}
		q.cond.Wait()
	}
}

// fail sets the monotonic failure flag, records the first cause, and
// wakes every waiter. Later causes are dropped: the operation surfaces
// one failure.
func (q *chunkQueue) fail(err error) {
	q.mu.Lock()
	if !q.failed.Load() {
		q.failed.Store(true)
		q.cause = err
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

// finish marks the producer side complete and wakes every waiter so
// consumers blocked on an empty queue can drain and exit.
func (q *chunkQueue) finish() {
	q.mu.Lock()
	q.done = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// err returns the first recorded failure, or nil.
func (q *chunkQueue) err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.failed.Load() {
		return nil
	}
	if q.cause != nil {
		return q.cause
	}
	return ErrLoadFailed
}
