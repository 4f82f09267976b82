package remap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metaclassing/exllamav2/remap"
	"github.com/metaclassing/exllamav2/tensor"
)

func TestTensor(t *testing.T) {
	m, err := tensor.NewRaw(tensor.Shape{1, 8}, tensor.Uint32, tensor.CPU)
	require.NoError(t, err)

	data := m.AsUint32()
	for i := range data {
		data[i] = uint32(10 + i)
	}

	require.NoError(t, remap.Tensor(m, []uint32{7, 6, 5, 4, 3, 2, 1, 0}))
	assert.Equal(t, []uint32{17, 16, 15, 14, 13, 12, 11, 10}, m.AsUint32())
}

func TestTensor_RequiresMatrix(t *testing.T) {
	v, err := tensor.NewRaw(tensor.Shape{8}, tensor.Uint32, tensor.CPU)
	require.NoError(t, err)
	assert.ErrorIs(t, remap.Tensor(v, []uint32{0}), remap.ErrShapeMismatch)
}

func TestTensorPacked4(t *testing.T) {
	m, err := tensor.NewRaw(tensor.Shape{1, 1}, tensor.Uint32, tensor.CPU)
	require.NoError(t, err)
	m.AsUint32()[0] = 0x87654321

	require.NoError(t, remap.TensorPacked4(m, []uint32{7, 6, 5, 4, 3, 2, 1, 0}))
	assert.Equal(t, uint32(0x12345678), m.AsUint32()[0])
}
