package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/metaclassing/exllamav2/internal/device"
)

// Target is a GPU-resident destination buffer. HostBytes is nil: the
// loader stages through host memory and moves bytes in with
// asynchronous queue writes.
//
// WebGPU exposes a single hardware queue per device, so streams share
// it; each stream is still an independent issue context owned by one
// transfer worker, and queue writes are safe to issue concurrently.
type Target struct {
	backend *Backend
	buffer  *wgpu.Buffer
	size    uint64
}

var _ device.Target = (*Target)(nil)

// NewTarget allocates a GPU buffer of size bytes usable as a load
// destination (and as a copy source for ReadBack).
func (b *Backend) NewTarget(size uint64) (*Target, error) {
	buffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
		Size:  size,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to create target buffer: %w", err)
	}
	return &Target{backend: b, buffer: buffer, size: size}, nil
}

// ByteSize returns the GPU buffer capacity.
func (t *Target) ByteSize() uint64 {
	return t.size
}

// HostBytes returns nil: GPU memory is not host addressable.
func (t *Target) HostBytes() []byte {
	return nil
}

// NewStream creates a transfer stream into the GPU buffer.
func (t *Target) NewStream() (device.Stream, error) {
	return &stream{target: t}, nil
}

// Synchronize blocks until all queued transfers into this target have
// completed on the device.
func (t *Target) Synchronize() error {
	t.backend.device.Poll(true, nil)
	return nil
}

// ReadBack copies the GPU buffer to host memory for verification.
// Expensive; use sparingly.
func (t *Target) ReadBack() ([]byte, error) {
	stagingBuffer, err := t.backend.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  t.size,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to create staging buffer: %w", err)
	}
	defer stagingBuffer.Release()

	encoder, err := t.backend.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(t.buffer, 0, stagingBuffer, 0, t.size)
	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to finish command buffer: %w", err)
	}
	t.backend.queue.Submit(cmdBuffer)

	if err := stagingBuffer.MapAsync(wgpu.MapModeRead, 0, t.size, func(wgpu.BufferMapAsyncStatus) {}); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}
	t.backend.device.Poll(true, nil)

	mappedSlice := stagingBuffer.GetMappedRange(0, uint(t.size))
	result := make([]byte, t.size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// Release frees the GPU buffer.
func (t *Target) Release() {
	if t.buffer != nil {
		t.buffer.Release()
		t.buffer = nil
	}
}

// stream issues queue writes into the target buffer. WriteBuffer
// enqueues an internal copy of src, so the write is non-blocking for
// the issuing worker and completes in queue order.
type stream struct {
	target *Target
}

func (s *stream) CopyFromHost(dstOff uint64, src []byte) error {
	if err := s.target.backend.queue.WriteBuffer(s.target.buffer, dstOff, src); err != nil {
		return fmt.Errorf("webgpu: write buffer at %d: %w", dstOff, err)
	}
	return nil
}

func (s *stream) Synchronize() error {
	s.target.backend.device.Poll(true, nil)
	return nil
}

func (s *stream) Release() {}
