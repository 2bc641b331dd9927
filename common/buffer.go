package common

import (
	"encoding/binary"
	"fmt"
	"math"
)

// UniversalBuffer is a CPU-side byte buffer made of fixed-size elements. It stores vertex and
// index data in exactly the layout the GPU expects, so a buffer (or a single element of it)
// can be handed to a backend without conversion.
type UniversalBuffer struct {
	data   []byte
	stride int
}

// NewUniversalBuffer creates an empty buffer whose elements are stride bytes long.
//
// Parameters:
//   - stride: the element size in bytes (must be > 0)
//
// Returns:
//   - *UniversalBuffer: the new buffer
func NewUniversalBuffer(stride int) *UniversalBuffer {
	if stride <= 0 {
		stride = 1
	}
	return &UniversalBuffer{stride: stride}
}

// Stride returns the size of a single element in bytes.
func (b *UniversalBuffer) Stride() int {
	return b.stride
}

// SetStride changes the element size. Existing data is kept and reinterpreted.
func (b *UniversalBuffer) SetStride(stride int) {
	if stride > 0 {
		b.stride = stride
	}
}

// Count returns the number of complete elements in the buffer.
func (b *UniversalBuffer) Count() int {
	if b == nil || b.stride == 0 {
		return 0
	}
	return len(b.data) / b.stride
}

// Size returns the buffer size in bytes.
func (b *UniversalBuffer) Size() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Empty reports whether the buffer holds no data.
func (b *UniversalBuffer) Empty() bool {
	return b == nil || len(b.data) == 0
}

// Bytes returns the underlying storage. The slice aliases the buffer.
func (b *UniversalBuffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// SetBytes replaces the content of the buffer with a copy of data.
func (b *UniversalBuffer) SetBytes(data []byte) {
	b.data = append(b.data[:0], data...)
}

// Resize grows or shrinks the buffer to count elements. New elements are zeroed.
func (b *UniversalBuffer) Resize(count int) {
	n := count * b.stride
	if n <= cap(b.data) {
		old := len(b.data)
		b.data = b.data[:n]
		clear(b.data[min(old, n):])
		return
	}
	grown := make([]byte, n)
	copy(grown, b.data)
	b.data = grown
}

// Append adds one element. The element must be exactly Stride bytes.
//
// Parameters:
//   - element: the raw element bytes
//
// Returns:
//   - error: an error if the element size does not match the stride
func (b *UniversalBuffer) Append(element []byte) error {
	if len(element) != b.stride {
		return fmt.Errorf("element size %d does not match stride %d", len(element), b.stride)
	}
	b.data = append(b.data, element...)
	return nil
}

// Element returns the bytes of element i, i.e. the range [stride*i, stride*(i+1)).
// The slice aliases the buffer. Out of range indices yield nil.
func (b *UniversalBuffer) Element(i int) []byte {
	if i < 0 || i >= b.Count() {
		return nil
	}
	return b.data[i*b.stride : (i+1)*b.stride]
}

// Clear removes all elements.
func (b *UniversalBuffer) Clear() {
	b.data = b.data[:0]
}

// PutFloat32 writes a little-endian float32 at byte offset off within element i.
func (b *UniversalBuffer) PutFloat32(i, off int, v float32) {
	binary.LittleEndian.PutUint32(b.data[i*b.stride+off:], math.Float32bits(v))
}

// Float32 reads a little-endian float32 at byte offset off within element i.
func (b *UniversalBuffer) Float32(i, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b.data[i*b.stride+off:]))
}

// PutUint32 writes a little-endian uint32 at byte offset off within element i.
func (b *UniversalBuffer) PutUint32(i, off int, v uint32) {
	binary.LittleEndian.PutUint32(b.data[i*b.stride+off:], v)
}

// Uint32 reads a little-endian uint32 at byte offset off within element i.
func (b *UniversalBuffer) Uint32(i, off int) uint32 {
	return binary.LittleEndian.Uint32(b.data[i*b.stride+off:])
}

// PutUint16 writes a little-endian uint16 at byte offset off within element i.
func (b *UniversalBuffer) PutUint16(i, off int, v uint16) {
	binary.LittleEndian.PutUint16(b.data[i*b.stride+off:], v)
}

// Uint16 reads a little-endian uint16 at byte offset off within element i.
func (b *UniversalBuffer) Uint16(i, off int) uint16 {
	return binary.LittleEndian.Uint16(b.data[i*b.stride+off:])
}
