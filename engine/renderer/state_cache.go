package renderer

// Cached holds the last value submitted to the native API for one piece of render state. A backend
// keeps one Cached per state in a private cache struct and routes every state change through Set,
// so that redundant driver calls are elided.
//
// The zero value is an invalid cache: the first Set always reaches the native API.
type Cached[T comparable] struct {
	value T
	valid bool
}

// Set submits v through apply unless it equals the cached value. The value is recorded only after
// apply returned, so the cache never holds a value the native API did not receive.
//
// Parameters:
//   - v: the requested value
//   - apply: issues the native call for v
//
// Returns:
//   - bool: true if apply was called, false if the call was elided
func (c *Cached[T]) Set(v T, apply func(T)) bool {
	if c.valid && c.value == v {
		return false
	}
	apply(v)
	c.value = v
	c.valid = true
	return true
}

// Force submits v through apply regardless of the cached value and then records it.
//
// Parameters:
//   - v: the value to submit
//   - apply: issues the native call for v
func (c *Cached[T]) Force(v T, apply func(T)) {
	apply(v)
	c.value = v
	c.valid = true
}

// Value returns the cached value and whether it is valid.
func (c *Cached[T]) Value() (T, bool) {
	return c.value, c.valid
}

// Invalidate forgets the cached value so the next Set reaches the native API. Backends call this
// after a context switch or device reset, where the native state is unknown.
func (c *Cached[T]) Invalidate() {
	var zero T
	c.value = zero
	c.valid = false
}
