package stload

import "errors"

// Common errors.
var (
	// ErrShortRead reports that a positioned read returned fewer bytes
	// than the block it was asked for.
	ErrShortRead = errors.New("short read")

	// ErrTargetTooSmall reports that the destination buffer cannot hold
	// the requested segment. Detected before any worker starts.
	ErrTargetTooSmall = errors.New("target buffer smaller than segment")

	// ErrLoadFailed is the aggregate outcome when any worker failed and
	// no more specific cause was recorded.
	ErrLoadFailed = errors.New("segment load failed")
)
