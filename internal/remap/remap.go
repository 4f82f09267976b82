// Package remap reorders the columns of integer matrices according to
// an index permutation, row by row and in place. A packed variant
// permutes 4-bit logical elements across their 32-bit storage words
// without unpacking the row.
package remap

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrShapeMismatch reports an index whose length does not match the
	// matrix columns, or a data slice that does not hold rows*cols.
	ErrShapeMismatch = errors.New("remap: shape mismatch")

	// ErrIndexRange reports an index entry addressing a column outside
	// the matrix. Checked up front; no row is touched when it fires.
	ErrIndexRange = errors.New("remap: index entry out of range")
)

// Rows applies a column permutation to every row of a rows x cols
// uint32 matrix in place: output column c of each row receives the
// row's original column index[c]. Rows are independent; the transform
// is synchronous and single-threaded.
//
// index need not be a bijection: repeated entries duplicate source
// values and omitted entries are discarded. That is a caller contract;
// only out-of-range entries are rejected.
func Rows(data []uint32, rows, cols int, index []uint32) error {
	if len(index) != cols {
		return fmt.Errorf("%w: %d index entries for %d columns", ErrShapeMismatch, len(index), cols)
	}
	if len(data) != rows*cols {
		return fmt.Errorf("%w: %d elements for %dx%d matrix", ErrShapeMismatch, len(data), rows, cols)
	}
	if err := checkIndex(index, cols); err != nil {
		return err
	}

	scratch := make([]uint32, cols)
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]
		copy(scratch, row)
		for c, i := range index {
			row[c] = scratch[i]
		}
	}
	return nil
}

// RowsPacked4 permutes the 4-bit logical elements of a matrix stored
// eight per uint32 word, rows x packedCols words. index has one entry
// per logical element (packedCols*8) and addresses logical elements of
// the original packed row: entry i lives in word i/8 at nibble i%8.
// Each output word is assembled nibble by nibble from the scratch copy
// of the row, so the permutation never materializes an unpacked row.
func RowsPacked4(data []uint32, rows, packedCols int, index []uint32) error {
	cols := packedCols * 8
	if len(index) != cols {
		return fmt.Errorf("%w: %d index entries for %d logical columns", ErrShapeMismatch, len(index), cols)
	}
	if len(data) != rows*packedCols {
		return fmt.Errorf("%w: %d words for %dx%d packed matrix", ErrShapeMismatch, len(data), rows, packedCols)
	}
	if err := checkIndex(index, cols); err != nil {
		return err
	}

	scratch := make([]uint32, packedCols)
	for r := 0; r < rows; r++ {
		row := data[r*packedCols : (r+1)*packedCols]
		copy(scratch, row)
		c := 0
		for w := 0; w < packedCols; w++ {
			var rv uint32
			for b := 0; b < 8; b++ {
				i := index[c]
				c++
				v := (scratch[i/8] >> ((i & 7) * 4)) & 0xF
				rv |= v << (uint32(b) * 4) //nolint:gosec // b < 8
			}
			row[w] = rv
		}
	}
	return nil
}

func checkIndex(index []uint32, cols int) error {
	for c, i := range index {
		if int(i) >= cols {
			return fmt.Errorf("%w: index[%d] = %d, have %d columns", ErrIndexRange, c, i, cols)
		}
	}
	return nil
}
