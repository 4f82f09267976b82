// Copyright 2025 The exllamav2 Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader exports the parallel segment loader and the
// SafeTensors reader built on top of it.
//
// Example usage:
//
//	import "github.com/metaclassing/exllamav2/loader"
//
//	// Load a raw byte range into caller-owned host memory.
//	buf := make([]byte, length)
//	err := loader.LoadSegment(path, offset, length,
//	    loader.NewHostTarget(buf), loader.DefaultConfig())
//
//	// Or open a SafeTensors file and load tensors by name.
//	st, err := loader.OpenSafeTensors("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	weight, err := st.LoadTensor("model.layers.0.attn.q_proj.weight")
package loader

import (
	"github.com/metaclassing/exllamav2/internal/device"
	"github.com/metaclassing/exllamav2/internal/safetensors"
	"github.com/metaclassing/exllamav2/internal/stload"
	"github.com/metaclassing/exllamav2/internal/tensor"
)

// Config controls the loader's worker pools: reader count, transfer
// worker count, and block size. All three affect throughput and
// fairness, never correctness.
type Config = stload.Config

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	return stload.DefaultConfig()
}

// Target is the destination buffer of a segment load, tagged with the
// memory domain it lives in.
type Target = device.Target

// Stream is one asynchronous copy queue into a Target.
type Stream = device.Stream

// HostTarget is a CPU-addressable destination; loads into it take the
// zero-copy path.
type HostTarget = device.HostTarget

// NewHostTarget wraps a caller-owned byte slice as a load destination.
func NewHostTarget(buf []byte) *HostTarget {
	return device.NewHostTarget(buf)
}

// ForTensor wraps a host tensor's buffer as a load destination.
func ForTensor(t *tensor.RawTensor) (*HostTarget, error) {
	return device.ForTensor(t)
}

// LoadSegment reads file bytes [offset, offset+length) into dst using
// parallel positioned reads overlapped with parallel asynchronous
// transfers. The call is synchronous and all-or-nothing.
func LoadSegment(path string, offset, length uint64, dst Target, cfg Config) error {
	return stload.LoadSegment(path, offset, length, dst, cfg)
}

// SafeTensors reads SafeTensors files, loading tensor data through the
// segment loader.
type SafeTensors = safetensors.Reader

// TensorInfo describes one tensor in a SafeTensors file.
type TensorInfo = safetensors.TensorInfo

// OpenSafeTensors parses the header of a SafeTensors file.
func OpenSafeTensors(path string) (*SafeTensors, error) {
	return safetensors.Open(path)
}
