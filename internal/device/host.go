package device

import (
	"errors"

	"github.com/metaclassing/exllamav2/internal/tensor"
)

// ErrNotHostAddressable is returned when a CPU-domain target is
// requested for a tensor living in another memory domain.
var ErrNotHostAddressable = errors.New("device: tensor memory is not host addressable")

// HostTarget is a CPU-addressable destination. Loads into it take the
// zero-copy path: the destination buffer doubles as the staging buffer
// and no transfer streams are ever created.
type HostTarget struct {
	buf []byte
}

var _ Target = (*HostTarget)(nil)

// NewHostTarget wraps a caller-owned byte slice as a load destination.
func NewHostTarget(buf []byte) *HostTarget {
	return &HostTarget{buf: buf}
}

// ForTensor wraps a host tensor's buffer as a load destination.
// Tensors in non-CPU domains need a backend-specific Target instead.
func ForTensor(t *tensor.RawTensor) (*HostTarget, error) {
	if !t.Device().HostAddressable() {
		return nil, ErrNotHostAddressable
	}
	return &HostTarget{buf: t.Data()}, nil
}

// ByteSize returns the capacity of the destination buffer.
func (t *HostTarget) ByteSize() uint64 {
	return uint64(len(t.buf))
}

// HostBytes returns the destination buffer itself.
func (t *HostTarget) HostBytes() []byte {
	return t.buf
}

// NewStream is never called for host targets; the loader writes the
// destination directly.
func (t *HostTarget) NewStream() (Stream, error) {
	return nil, errors.New("device: host target has no transfer streams")
}

// Synchronize is a no-op: host writes are immediately visible.
func (t *HostTarget) Synchronize() error {
	return nil
}
