package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniversalBufferElements(t *testing.T) {
	b := NewUniversalBuffer(8)
	require.NoError(t, b.Append([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	require.NoError(t, b.Append([]byte{9, 10, 11, 12, 13, 14, 15, 16}))
	assert.Error(t, b.Append([]byte{1, 2, 3}))

	assert.Equal(t, 2, b.Count())
	assert.Equal(t, 16, b.Size())
	assert.Equal(t, []byte{9, 10, 11, 12, 13, 14, 15, 16}, b.Element(1))
	assert.Nil(t, b.Element(2))
	assert.Nil(t, b.Element(-1))
}

func TestUniversalBufferResizeZeroesNewElements(t *testing.T) {
	b := NewUniversalBuffer(4)
	b.Resize(4)
	b.PutUint32(3, 0, 0xdeadbeef)
	b.Resize(2)
	b.Resize(4)

	assert.Equal(t, 4, b.Count())
	assert.Equal(t, uint32(0), b.Uint32(3, 0))
}

func TestUniversalBufferTypedAccess(t *testing.T) {
	b := NewUniversalBuffer(12)
	b.Resize(2)
	b.PutFloat32(1, 4, 2.5)
	b.PutUint16(0, 8, 7)

	assert.Equal(t, float32(2.5), b.Float32(1, 4))
	assert.Equal(t, uint16(7), b.Uint16(0, 8))
}

func TestNilUniversalBufferIsEmpty(t *testing.T) {
	var b *UniversalBuffer
	assert.True(t, b.Empty())
	assert.Equal(t, 0, b.Count())
	assert.Nil(t, b.Bytes())
}
