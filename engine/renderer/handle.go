package renderer

import (
	"errors"
	"fmt"
)

// ErrInvalidHandle is reported when a handle does not refer to a live native object: it was
// never created, it was deleted, or its native object is released during device loss.
var ErrInvalidHandle = errors.New("invalid resource handle")

// HandleKind tags a Handle with the resource type it refers to.
type HandleKind uint8

const (
	HandleInvalid HandleKind = iota
	HandleVertexBuffer
	HandleIndexBuffer
	HandleTexture
	HandleShader
	HandleShaderClass
	HandleQuery
)

func (k HandleKind) String() string {
	switch k {
	case HandleVertexBuffer:
		return "vertex buffer"
	case HandleIndexBuffer:
		return "index buffer"
	case HandleTexture:
		return "texture"
	case HandleShader:
		return "shader"
	case HandleShaderClass:
		return "shader class"
	case HandleQuery:
		return "query"
	}
	return "invalid"
}

// Handle is an opaque reference to a native GPU object owned by a backend ResourceTable.
// The generation tag makes handles of deleted objects fail lookups even when their slot is reused.
// The zero value is the invalid handle.
type Handle struct {
	kind       HandleKind
	index      uint32
	generation uint32
}

// InvalidHandle is the null handle returned by failed creation calls.
var InvalidHandle = Handle{}

// Valid reports whether the handle was produced by a successful creation. It does not guarantee
// that the object is still alive; backends verify that through their tables.
func (h Handle) Valid() bool {
	return h.kind != HandleInvalid
}

// Kind returns the resource type tag.
func (h Handle) Kind() HandleKind {
	return h.kind
}

func (h Handle) String() string {
	if !h.Valid() {
		return "handle(invalid)"
	}
	return fmt.Sprintf("handle(%s #%d gen %d)", h.kind, h.index, h.generation)
}

type resourceSlot[T any] struct {
	native     T
	shadow     []byte
	generation uint32
	live       bool
	present    bool
}

// ResourceTable maps handles to native objects of one resource type. It is not safe for
// concurrent use; tables are owned by the render thread.
type ResourceTable[T any] struct {
	kind  HandleKind
	slots []resourceSlot[T]
	free  []uint32
	count int
}

// NewResourceTable creates an empty table issuing handles of the given kind.
//
// Parameters:
//   - kind: the kind tag of every handle issued by this table
//
// Returns:
//   - *ResourceTable[T]: the new table
func NewResourceTable[T any](kind HandleKind) *ResourceTable[T] {
	return &ResourceTable[T]{kind: kind}
}

// Insert stores a native object and returns a new handle for it.
//
// Parameters:
//   - native: the native object, now owned by the table
//
// Returns:
//   - Handle: a handle referring to the stored object
func (t *ResourceTable[T]) Insert(native T) Handle {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, resourceSlot[T]{})
		idx = uint32(len(t.slots) - 1)
	}
	s := &t.slots[idx]
	s.generation++
	s.native = native
	s.live = true
	s.present = true
	s.shadow = nil
	t.count++
	return Handle{kind: t.kind, index: idx, generation: s.generation}
}

func (t *ResourceTable[T]) slot(h Handle) *resourceSlot[T] {
	if h.kind != t.kind || int(h.index) >= len(t.slots) {
		return nil
	}
	s := &t.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil
	}
	return s
}

// Lookup returns the native object of a handle. It fails for stale handles, handles of a
// different kind and objects whose native part is released.
//
// Parameters:
//   - h: the handle to resolve
//
// Returns:
//   - T: the native object
//   - bool: false if the handle is not usable
func (t *ResourceTable[T]) Lookup(h Handle) (T, bool) {
	var zero T
	s := t.slot(h)
	if s == nil || !s.present {
		return zero, false
	}
	return s.native, true
}

// Contains reports whether the handle refers to a live entry, released or not.
func (t *ResourceTable[T]) Contains(h Handle) bool {
	return t.slot(h) != nil
}

// Replace swaps the native object of a live, present entry, e.g. after a buffer was reallocated
// with a larger size.
//
// Parameters:
//   - h: the handle whose object is replaced
//   - native: the new native object
//
// Returns:
//   - bool: false if the handle is not usable
func (t *ResourceTable[T]) Replace(h Handle, native T) bool {
	s := t.slot(h)
	if s == nil || !s.present {
		return false
	}
	s.native = native
	return true
}

// Remove deletes the entry and invalidates every copy of its handle.
//
// Parameters:
//   - h: the handle to remove
//
// Returns:
//   - T: the native object, for the caller to release
//   - bool: true if a present native object was returned
func (t *ResourceTable[T]) Remove(h Handle) (T, bool) {
	var zero T
	s := t.slot(h)
	if s == nil {
		return zero, false
	}
	native, present := s.native, s.present
	s.native = zero
	s.shadow = nil
	s.live = false
	s.present = false
	t.free = append(t.free, h.index)
	t.count--
	return native, present
}

// SetShadow stores a copy of the CPU-side content of a resource, used to restore it on recreation.
//
// Parameters:
//   - h: the resource handle
//   - data: the content to copy
func (t *ResourceTable[T]) SetShadow(h Handle, data []byte) {
	if s := t.slot(h); s != nil {
		s.shadow = append(s.shadow[:0], data...)
	}
}

// PatchShadow overwrites part of the stored CPU-side copy, growing it when needed.
//
// Parameters:
//   - h: the resource handle
//   - offset: the byte offset of the patch
//   - data: the patch content
func (t *ResourceTable[T]) PatchShadow(h Handle, offset int, data []byte) {
	s := t.slot(h)
	if s == nil {
		return
	}
	if end := offset + len(data); end > len(s.shadow) {
		grown := make([]byte, end)
		copy(grown, s.shadow)
		s.shadow = grown
	}
	copy(s.shadow[offset:], data)
}

// Shadow returns the stored CPU-side copy of a resource.
func (t *ResourceTable[T]) Shadow(h Handle) []byte {
	if s := t.slot(h); s != nil {
		return s.shadow
	}
	return nil
}

// Len returns the number of live entries.
func (t *ResourceTable[T]) Len() int {
	return t.count
}

// Each calls fn for every live entry whose native object is present.
func (t *ResourceTable[T]) Each(fn func(h Handle, native T)) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.live && s.present {
			fn(Handle{kind: t.kind, index: uint32(i), generation: s.generation}, s.native)
		}
	}
}

// ReleaseAll releases the native part of every live entry while keeping the entries (and
// therefore all handles) alive. release receives the native object and returns the value to keep
// in the slot, typically the same descriptor with its native reference cleared.
//
// Parameters:
//   - release: frees one native object and returns the retained descriptor
func (t *ResourceTable[T]) ReleaseAll(release func(h Handle, native T) T) {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.live || !s.present {
			continue
		}
		s.native = release(Handle{kind: t.kind, index: uint32(i), generation: s.generation}, s.native)
		s.present = false
	}
}

// RecreateAll re-allocates the native part of every released entry. create receives the retained
// descriptor and the stored CPU-side copy. Entries whose recreation fails stay released.
//
// Parameters:
//   - create: allocates one native object
//
// Returns:
//   - error: the joined errors of all failed recreations, or nil
func (t *ResourceTable[T]) RecreateAll(create func(h Handle, retained T, shadow []byte) (T, error)) error {
	var errs []error
	for i := range t.slots {
		s := &t.slots[i]
		if !s.live || s.present {
			continue
		}
		h := Handle{kind: t.kind, index: uint32(i), generation: s.generation}
		native, err := create(h, s.native, s.shadow)
		if err != nil {
			errs = append(errs, fmt.Errorf("recreate %s: %w", h, err))
			continue
		}
		s.native = native
		s.present = true
	}
	return errors.Join(errs...)
}
