package device

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrCopyInjected is the error returned by an AsyncTarget stream once
// its configured failure point is reached.
var ErrCopyInjected = errors.New("device: injected copy failure")

// AsyncTarget simulates a non-host memory domain. Each stream runs its
// own goroutine draining a copy queue, so copies issued on a stream
// complete in issue order while becoming visible to Bytes only after a
// synchronize, the way an accelerator copy engine behaves. It backs the
// loader tests and the CLI bench mode on machines without a GPU.
type AsyncTarget struct {
	mem []byte
	mu  sync.Mutex

	streams sync.WaitGroup

	copies    atomic.Int64
	failAfter int64 // inject a copy error after this many copies; 0 disables
}

var _ Target = (*AsyncTarget)(nil)

// NewAsyncTarget allocates a simulated device buffer of size bytes.
func NewAsyncTarget(size uint64) *AsyncTarget {
	return &AsyncTarget{mem: make([]byte, size)}
}

// FailAfterCopies arms failure injection: the n+1th CopyFromHost across
// all streams returns ErrCopyInjected.
func (t *AsyncTarget) FailAfterCopies(n int) *AsyncTarget {
	t.failAfter = int64(n)
	return t
}

// ByteSize returns the capacity of the simulated device buffer.
func (t *AsyncTarget) ByteSize() uint64 {
	return uint64(len(t.mem))
}

// HostBytes returns nil: the buffer is only reachable through streams.
func (t *AsyncTarget) HostBytes() []byte {
	return nil
}

// Bytes returns the device buffer contents for verification. Only
// meaningful after Synchronize.
func (t *AsyncTarget) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, len(t.mem))
	copy(out, t.mem)
	return out
}

// Copies returns the number of copies issued across all streams.
func (t *AsyncTarget) Copies() int64 {
	return t.copies.Load()
}

type copyOp struct {
	off uint64
	src []byte
}

type asyncStream struct {
	target *AsyncTarget
	ops    chan copyOp
	done   chan struct{}
	closed sync.Once
	err    error
}

// NewStream creates an independent simulated copy queue.
func (t *AsyncTarget) NewStream() (Stream, error) {
	s := &asyncStream{
		target: t,
		ops:    make(chan copyOp, 64),
		done:   make(chan struct{}),
	}
	t.streams.Add(1)
	go s.run()
	return s, nil
}

// Synchronize waits for every stream created on this target to be
// released. The loader releases each stream before calling this; a
// leaked stream would block here, which is the bug it should surface.
func (t *AsyncTarget) Synchronize() error {
	t.streams.Wait()
	return nil
}

func (s *asyncStream) run() {
	defer close(s.done)
	for op := range s.ops {
		if op.off+uint64(len(op.src)) > uint64(len(s.target.mem)) {
			if s.err == nil {
				s.err = fmt.Errorf("device: copy out of bounds: [%d,%d) > %d",
					op.off, op.off+uint64(len(op.src)), len(s.target.mem))
			}
			continue
		}
		s.target.mu.Lock()
		copy(s.target.mem[op.off:], op.src)
		s.target.mu.Unlock()
	}
}

// CopyFromHost enqueues one copy. The enqueue itself does not wait for
// the copy to land; backpressure only applies when the stream's queue
// is full.
func (s *asyncStream) CopyFromHost(dstOff uint64, src []byte) error {
	n := s.target.copies.Add(1)
	if s.target.failAfter > 0 && n > s.target.failAfter {
		return ErrCopyInjected
	}
	s.ops <- copyOp{off: dstOff, src: src}
	return nil
}

// Synchronize drains the stream's queue and reports the first copy
// error observed by its worker.
func (s *asyncStream) Synchronize() error {
	s.closed.Do(func() { close(s.ops) })
	<-s.done
	return s.err
}

// Release shuts the stream down. Safe after Synchronize.
func (s *asyncStream) Release() {
	s.closed.Do(func() { close(s.ops) })
	<-s.done
	s.target.streams.Done()
}
