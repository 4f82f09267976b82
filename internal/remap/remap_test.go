package remap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(n int) []uint32 {
	idx := make([]uint32, n)
	for i := range idx {
		idx[i] = uint32(i)
	}
	return idx
}

func TestRows_Identity(t *testing.T) {
	data := []uint32{1, 2, 3, 4, 5, 6}
	want := append([]uint32(nil), data...)

	require.NoError(t, Rows(data, 2, 3, identity(3)))
	assert.Equal(t, want, data)
}

func TestRows_Reverse(t *testing.T) {
	data := []uint32{10, 11, 12, 13, 14, 15, 16, 17}
	index := []uint32{7, 6, 5, 4, 3, 2, 1, 0}

	require.NoError(t, Rows(data, 1, 8, index))
	assert.Equal(t, []uint32{17, 16, 15, 14, 13, 12, 11, 10}, data)
}

func TestRows_RowsAreIndependent(t *testing.T) {
	// Swap the two columns of every row.
	data := []uint32{1, 2, 3, 4, 5, 6}
	require.NoError(t, Rows(data, 3, 2, []uint32{1, 0}))
	assert.Equal(t, []uint32{2, 1, 4, 3, 6, 5}, data)
}

func TestRows_RepeatsAreTolerated(t *testing.T) {
	// Not a bijection: column 0 is duplicated, column 2 discarded.
	data := []uint32{7, 8, 9}
	require.NoError(t, Rows(data, 1, 3, []uint32{0, 0, 1}))
	assert.Equal(t, []uint32{7, 7, 8}, data)
}

func TestRows_ShapeMismatch(t *testing.T) {
	data := []uint32{1, 2, 3, 4}

	err := Rows(data, 2, 2, identity(3))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	err = Rows(data, 3, 2, identity(2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRows_IndexOutOfRange(t *testing.T) {
	data := []uint32{1, 2, 3, 4}
	err := Rows(data, 2, 2, []uint32{0, 2})
	require.ErrorIs(t, err, ErrIndexRange)

	// No row may be touched when validation fails.
	assert.Equal(t, []uint32{1, 2, 3, 4}, data)
}

func TestRowsPacked4_Identity(t *testing.T) {
	data := []uint32{0x87654321, 0x0FEDCBA9}
	want := append([]uint32(nil), data...)

	require.NoError(t, RowsPacked4(data, 1, 2, identity(16)))
	assert.Equal(t, want, data)
}

func TestRowsPacked4_ReverseNibbles(t *testing.T) {
	// One word packing nibbles 1..8: logical element i holds i+1.
	data := []uint32{0x87654321}
	index := []uint32{7, 6, 5, 4, 3, 2, 1, 0}

	require.NoError(t, RowsPacked4(data, 1, 1, index))
	assert.Equal(t, []uint32{0x12345678}, data)
}

func TestRowsPacked4_CrossWord(t *testing.T) {
	// Two words per row; swap the words at nibble granularity.
	data := []uint32{0x87654321, 0x0FEDCBA9}
	index := make([]uint32, 16)
	for i := 0; i < 8; i++ {
		index[i] = uint32(i + 8)
		index[i+8] = uint32(i)
	}

	require.NoError(t, RowsPacked4(data, 1, 2, index))
	assert.Equal(t, []uint32{0x0FEDCBA9, 0x87654321}, data)
}

func TestRowsPacked4_MultiRow(t *testing.T) {
	data := []uint32{0x87654321, 0x11112222}
	index := []uint32{7, 6, 5, 4, 3, 2, 1, 0}

	require.NoError(t, RowsPacked4(data, 2, 1, index))
	assert.Equal(t, []uint32{0x12345678, 0x22221111}, data)
}

func TestRowsPacked4_ShapeMismatch(t *testing.T) {
	data := []uint32{0x87654321}
	err := RowsPacked4(data, 1, 1, identity(8)[:4])
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRowsPacked4_IndexOutOfRange(t *testing.T) {
	data := []uint32{0x87654321}
	index := identity(8)
	index[3] = 8
	err := RowsPacked4(data, 1, 1, index)
	assert.ErrorIs(t, err, ErrIndexRange)
}
