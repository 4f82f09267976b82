// Copyright 2025 The exllamav2 Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package remap exports row remapping: applying a column permutation
// to every row of an integer matrix, with a variant for matrices whose
// columns are 4-bit values packed eight per 32-bit word.
package remap

import (
	"github.com/metaclassing/exllamav2/internal/remap"
	"github.com/metaclassing/exllamav2/internal/tensor"
)

// Errors reported by the remap operations.
var (
	ErrShapeMismatch = remap.ErrShapeMismatch
	ErrIndexRange    = remap.ErrIndexRange
)

// Rows applies a column permutation to every row of a rows x cols
// uint32 matrix in place: output column c receives original column
// index[c].
func Rows(data []uint32, rows, cols int, index []uint32) error {
	return remap.Rows(data, rows, cols, index)
}

// RowsPacked4 permutes the 4-bit logical elements of a packed matrix
// (eight elements per uint32 word, packedCols words per row) in place.
// index has one entry per logical element: len(index) == packedCols*8.
func RowsPacked4(data []uint32, rows, packedCols int, index []uint32) error {
	return remap.RowsPacked4(data, rows, packedCols, index)
}

// Tensor remaps a 2-D uint32 tensor in place using its own shape.
func Tensor(t *tensor.RawTensor, index []uint32) error {
	shape := t.Shape()
	if len(shape) != 2 {
		return ErrShapeMismatch
	}
	return remap.Rows(t.AsUint32(), shape[0], shape[1], index)
}

// TensorPacked4 remaps a 2-D uint32 tensor holding packed 4-bit
// elements in place. index addresses logical elements: its length must
// be eight times the tensor's column count.
func TensorPacked4(t *tensor.RawTensor, index []uint32) error {
	shape := t.Shape()
	if len(shape) != 2 {
		return ErrShapeMismatch
	}
	return remap.RowsPacked4(t.AsUint32(), shape[0], shape[1], index)
}
