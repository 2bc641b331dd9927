package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNative struct {
	id   int
	size int
}

func TestResourceTableLookupAndRemove(t *testing.T) {
	table := NewResourceTable[fakeNative](HandleTexture)

	h := table.Insert(fakeNative{id: 7})
	require.True(t, h.Valid())
	assert.Equal(t, HandleTexture, h.Kind())

	n, ok := table.Lookup(h)
	require.True(t, ok)
	assert.Equal(t, 7, n.id)

	removed, ok := table.Remove(h)
	assert.True(t, ok)
	assert.Equal(t, 7, removed.id)

	_, ok = table.Lookup(h)
	assert.False(t, ok, "removed handle must not resolve")
	_, ok = table.Remove(h)
	assert.False(t, ok, "second remove is a no-op")
	assert.Equal(t, 0, table.Len())
}

func TestResourceTableReusedSlotRejectsStaleHandle(t *testing.T) {
	table := NewResourceTable[fakeNative](HandleVertexBuffer)

	old := table.Insert(fakeNative{id: 1})
	table.Remove(old)
	fresh := table.Insert(fakeNative{id: 2})

	_, ok := table.Lookup(old)
	assert.False(t, ok)
	n, ok := table.Lookup(fresh)
	assert.True(t, ok)
	assert.Equal(t, 2, n.id)
}

func TestResourceTableRejectsForeignKind(t *testing.T) {
	vb := NewResourceTable[fakeNative](HandleVertexBuffer)
	ib := NewResourceTable[fakeNative](HandleIndexBuffer)

	h := vb.Insert(fakeNative{id: 1})
	ib.Insert(fakeNative{id: 2})

	_, ok := ib.Lookup(h)
	assert.False(t, ok)
	_, ok = vb.Lookup(InvalidHandle)
	assert.False(t, ok)
}

func TestResourceTableReleaseAndRecreate(t *testing.T) {
	table := NewResourceTable[fakeNative](HandleVertexBuffer)
	a := table.Insert(fakeNative{id: 1, size: 4})
	b := table.Insert(fakeNative{id: 2, size: 8})
	table.SetShadow(a, []byte{1, 2, 3, 4})
	table.SetShadow(b, []byte{5, 6, 7, 8, 9, 10, 11, 12})

	var released []int
	table.ReleaseAll(func(_ Handle, n fakeNative) fakeNative {
		released = append(released, n.id)
		n.id = 0
		return n
	})
	assert.ElementsMatch(t, []int{1, 2}, released)
	_, ok := table.Lookup(a)
	assert.False(t, ok, "released objects do not resolve")
	assert.True(t, table.Contains(a), "released entries stay alive")

	next := 100
	restored := map[Handle][]byte{}
	err := table.RecreateAll(func(h Handle, retained fakeNative, shadow []byte) (fakeNative, error) {
		next++
		restored[h] = append([]byte(nil), shadow...)
		return fakeNative{id: next, size: retained.size}, nil
	})
	require.NoError(t, err)

	na, ok := table.Lookup(a)
	require.True(t, ok)
	assert.Equal(t, 4, na.size)
	assert.Equal(t, []byte{1, 2, 3, 4}, restored[a])
	assert.Equal(t, []byte{5, 6, 7, 8, 9, 10, 11, 12}, restored[b])
}

func TestResourceTableRecreateReportsFailures(t *testing.T) {
	table := NewResourceTable[fakeNative](HandleTexture)
	h := table.Insert(fakeNative{id: 1})
	table.ReleaseAll(func(_ Handle, n fakeNative) fakeNative { return n })

	boom := errors.New("out of memory")
	err := table.RecreateAll(func(Handle, fakeNative, []byte) (fakeNative, error) {
		return fakeNative{}, boom
	})
	assert.ErrorIs(t, err, boom)
	_, ok := table.Lookup(h)
	assert.False(t, ok)
}

func TestResourceTablePatchShadow(t *testing.T) {
	table := NewResourceTable[fakeNative](HandleVertexBuffer)
	h := table.Insert(fakeNative{})
	table.SetShadow(h, []byte{0, 0, 0, 0})
	table.PatchShadow(h, 2, []byte{9, 9, 9})
	assert.Equal(t, []byte{0, 0, 9, 9, 9}, table.Shadow(h))
}
