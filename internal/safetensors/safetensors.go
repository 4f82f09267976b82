// Package safetensors reads SafeTensors model files and loads their
// tensors through the parallel segment loader.
//
// SafeTensors layout:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw bytes]
package safetensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/metaclassing/exllamav2/internal/device"
	"github.com/metaclassing/exllamav2/internal/stload"
	"github.com/metaclassing/exllamav2/internal/tensor"
)

// Headers larger than this are rejected as corrupt.
const maxHeaderSize = 100 * 1024 * 1024

// ErrTensorNotFound reports a lookup of a tensor name absent from the
// file's header.
var ErrTensorNotFound = errors.New("safetensors: tensor not found")

// DType represents a SafeTensors data type tag.
type DType string

// Supported SafeTensors dtypes.
const (
	F16  DType = "F16"
	BF16 DType = "BF16"
	F32  DType = "F32"
	I32  DType = "I32"
	I64  DType = "I64"
	U8   DType = "U8"
	U32  DType = "U32"
)

// DataType maps the tag to the runtime tensor data type.
func (d DType) DataType() (tensor.DataType, error) {
	switch d {
	case F16:
		return tensor.Float16, nil
	case BF16:
		return tensor.BFloat16, nil
	case F32:
		return tensor.Float32, nil
	case I32:
		return tensor.Int32, nil
	case I64:
		return tensor.Int64, nil
	case U8:
		return tensor.Uint8, nil
	case U32:
		return tensor.Uint32, nil
	default:
		return 0, fmt.Errorf("safetensors: unsupported dtype: %s", d)
	}
}

// TensorInfo describes one tensor in the file.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end), relative to the data section
}

// header is the parsed JSON header.
type header struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

func (h *header) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap["__metadata__"]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	// Every other key describes a tensor.
	h.Tensors = make(map[string]TensorInfo)
	for key, value := range rawMap {
		if key == "__metadata__" {
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}

	return nil
}

// Reader reads SafeTensors files. It keeps the path rather than an
// open handle for tensor data: the segment loader's workers each open
// their own handle when a tensor is loaded.
type Reader struct {
	path       string
	header     header
	dataOffset int64 // where the tensor data section starts
	cfg        stload.Config
}

// Open parses the header of a SafeTensors file.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path) //nolint:gosec // G304: model paths come from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		return nil, fmt.Errorf("invalid header size: %d (too large)", headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var h header
	if err := json.Unmarshal(headerBytes, &h); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	return &Reader{
		path:       path,
		header:     h,
		dataOffset: int64(8 + headerSize), //nolint:gosec // G115: header size capped above
		cfg:        stload.DefaultConfig(),
	}, nil
}

// SetConfig overrides the loader tuning used for tensor loads.
func (r *Reader) SetConfig(cfg stload.Config) {
	r.cfg = cfg
}

// Path returns the underlying file path.
func (r *Reader) Path() string {
	return r.path
}

// Metadata returns the metadata map from the header.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns a list of all tensor names in the file.
func (r *Reader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *Reader) TensorInfo(name string) (*TensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	return &info, nil
}

// segment resolves a tensor's absolute byte range within the file.
func (r *Reader) segment(name string) (offset, length uint64, err error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return 0, 0, err
	}
	start, end := info.DataOffsets[0], info.DataOffsets[1]
	if start < 0 || end < start {
		return 0, 0, fmt.Errorf("safetensors: invalid data offsets for tensor %s: [%d, %d]", name, start, end)
	}
	return uint64(r.dataOffset + start), uint64(end - start), nil
}

// LoadTensorInto loads a tensor's bytes into dst, which may live in
// any memory domain. dst must be at least the tensor's byte size.
func (r *Reader) LoadTensorInto(name string, dst device.Target) error {
	offset, length, err := r.segment(name)
	if err != nil {
		return err
	}
	if err := stload.LoadSegment(r.path, offset, length, dst, r.cfg); err != nil {
		return fmt.Errorf("safetensors: tensor %s: %w", name, err)
	}
	return nil
}

// LoadTensor loads a tensor into newly allocated host memory.
func (r *Reader) LoadTensor(name string) (*tensor.RawTensor, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	dtype, err := info.DType.DataType()
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	shape := tensor.Shape(info.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", name, err)
	}

	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}

	_, length, err := r.segment(name)
	if err != nil {
		return nil, err
	}
	if int(length) != raw.ByteSize() { //nolint:gosec // G115: tensor sizes fit int
		return nil, fmt.Errorf("safetensors: tensor %s: %d data bytes for shape %v (%s)",
			name, length, shape, dtype)
	}

	dst, err := device.ForTensor(raw)
	if err != nil {
		return nil, err
	}
	if err := r.LoadTensorInto(name, dst); err != nil {
		return nil, err
	}
	return raw, nil
}
