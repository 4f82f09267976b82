// Package device abstracts the memory domains a segment load can write
// into. A Target is the destination buffer; targets whose memory the
// CPU can address directly are written in place (zero-copy), all
// others receive their bytes through asynchronous transfer streams.
package device

// Target is the destination buffer for a segment load.
type Target interface {
	// ByteSize returns the capacity of the destination buffer in bytes.
	ByteSize() uint64

	// HostBytes returns the CPU-addressable bytes of the target, or nil
	// when the target lives in another memory domain and must be
	// written through transfer streams.
	HostBytes() []byte

	// NewStream creates an independent asynchronous transfer stream
	// into the target. Copies issued on one stream complete in issue
	// order; streams have no ordering relative to each other. Only
	// called when HostBytes returns nil.
	NewStream() (Stream, error)

	// Synchronize blocks until every copy issued on every stream of
	// this target is visible in target memory.
	Synchronize() error
}

// Stream is one asynchronous copy queue into a Target. A stream is
// owned by exactly one worker: created at worker start, synchronized
// and released on every worker exit path.
type Stream interface {
	// CopyFromHost enqueues a copy of src into the target at dstOff and
	// returns without waiting for it to complete. src must stay valid
	// until Synchronize returns.
	CopyFromHost(dstOff uint64, src []byte) error

	// Synchronize blocks until all copies issued on this stream have
	// completed.
	Synchronize() error

	// Release frees the stream's resources. The stream must not be
	// used afterwards.
	Release()
}
