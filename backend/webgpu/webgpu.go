// Copyright 2025 The exllamav2 Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu exports the WebGPU memory domain: GPU-resident load
// targets written through asynchronous queue transfers.
//
// Example:
//
//	backend, err := webgpu.New()
//	if err != nil {
//	    // no GPU or native library available
//	}
//	defer backend.Release()
//
//	dst, err := backend.NewTarget(length)
//	defer dst.Release()
//	err = loader.LoadSegment(path, offset, length, dst, loader.DefaultConfig())
package webgpu

import "github.com/metaclassing/exllamav2/internal/backend/webgpu"

// Backend owns the WebGPU instance, adapter, device and queue.
type Backend = webgpu.Backend

// Target is a GPU-resident destination buffer for segment loads.
type Target = webgpu.Target

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New() (*Backend, error) {
	return webgpu.New()
}
