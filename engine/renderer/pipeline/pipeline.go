// Package pipeline caches immutable render pipelines by the render state they were created for.
// WebGPU bakes blending, depth-stencil, rasterization and the vertex layout into one pipeline object;
// the render system derives a Key from its current state before every draw and looks the pipeline up
// here instead of creating one per draw.
package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// State is the fixed-function part of a render pipeline. It is comparable so it can key a map.
type State struct {
	Topology wgpu.PrimitiveTopology
	// StripIndexFormat must be set for indexed strip topologies and undefined otherwise.
	StripIndexFormat wgpu.IndexFormat
	FrontFace        wgpu.FrontFace
	CullMode         wgpu.CullMode

	BlendEnabled bool
	Blend        wgpu.BlendState
	WriteMask    wgpu.ColorWriteMask

	DepthTest           bool
	DepthWrite          bool
	DepthCompare        wgpu.CompareFunction
	DepthBias           int32
	DepthBiasSlopeScale float32

	StencilEnabled   bool
	Stencil          wgpu.StencilFaceState
	StencilReadMask  uint32
	StencilWriteMask uint32

	SampleCount uint32
	ColorFormat wgpu.TextureFormat
	DepthFormat wgpu.TextureFormat
}

// DepthStencil returns the depth-stencil state of s. A disabled depth test passes every fragment
// and writes nothing, a disabled stencil test keeps the stencil buffer.
//
// Returns:
//   - *wgpu.DepthStencilState: the depth-stencil state, or nil without a depth format
func (s State) DepthStencil() *wgpu.DepthStencilState {
	if s.DepthFormat == wgpu.TextureFormatUndefined {
		return nil
	}
	ds := &wgpu.DepthStencilState{
		Format:              s.DepthFormat,
		DepthWriteEnabled:   s.DepthTest && s.DepthWrite,
		DepthCompare:        wgpu.CompareFunctionAlways,
		DepthBias:           s.DepthBias,
		DepthBiasSlopeScale: s.DepthBiasSlopeScale,
		StencilFront:        keepStencil,
		StencilBack:         keepStencil,
	}
	if s.DepthTest {
		ds.DepthCompare = s.DepthCompare
	}
	if s.StencilEnabled {
		ds.StencilFront = s.Stencil
		ds.StencilBack = s.Stencil
		ds.StencilReadMask = s.StencilReadMask
		ds.StencilWriteMask = s.StencilWriteMask
	}
	return ds
}

// ColorTarget returns the color target state of s.
func (s State) ColorTarget() wgpu.ColorTargetState {
	target := wgpu.ColorTargetState{Format: s.ColorFormat, WriteMask: s.WriteMask}
	if s.BlendEnabled {
		blend := s.Blend
		target.Blend = &blend
	}
	return target
}

// Primitive returns the primitive state of s.
func (s State) Primitive() wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:         s.Topology,
		StripIndexFormat: s.StripIndexFormat,
		FrontFace:        s.FrontFace,
		CullMode:         s.CullMode,
	}
}

var keepStencil = wgpu.StencilFaceState{
	Compare:     wgpu.CompareFunctionAlways,
	FailOp:      wgpu.StencilOperationKeep,
	DepthFailOp: wgpu.StencilOperationKeep,
	PassOp:      wgpu.StencilOperationKeep,
}

// Key identifies a pipeline: its state, the shaders it runs and the vertex layout it reads.
// Program and Layout must hold comparable values, usually pointers.
type Key struct {
	State   State
	Program any
	Layout  any
}

// Releaser is a native pipeline.
type Releaser interface {
	Release()
}

// Cache owns the pipelines created for each Key.
type Cache[P Releaser] struct {
	entries map[Key]P
	create  func(Key) (P, error)
	hits    int
	misses  int
}

// NewCache creates an empty cache.
//
// Parameters:
//   - create: creates the native pipeline of a key on a cache miss
//
// Returns:
//   - *Cache[P]: the cache
func NewCache[P Releaser](create func(Key) (P, error)) *Cache[P] {
	return &Cache[P]{entries: make(map[Key]P), create: create}
}

// Get returns the pipeline of k, creating it on first use. Failed creations are not cached.
//
// Parameters:
//   - k: the pipeline key
//
// Returns:
//   - P: the pipeline
//   - error: the creation error
func (c *Cache[P]) Get(k Key) (P, error) {
	if p, ok := c.entries[k]; ok {
		c.hits++
		return p, nil
	}
	c.misses++
	p, err := c.create(k)
	if err != nil {
		var zero P
		return zero, err
	}
	c.entries[k] = p
	return p, nil
}

// Len returns the number of cached pipelines.
func (c *Cache[P]) Len() int {
	return len(c.entries)
}

// Stats returns the number of lookups served from the cache and the number of creations.
func (c *Cache[P]) Stats() (hits, misses int) {
	return c.hits, c.misses
}

// Purge releases the pipelines whose key matches.
//
// Parameters:
//   - match: reports whether a key's pipeline should be released
//
// Returns:
//   - int: the number of released pipelines
func (c *Cache[P]) Purge(match func(Key) bool) int {
	n := 0
	for k, p := range c.entries {
		if match(k) {
			p.Release()
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Release releases every cached pipeline.
func (c *Cache[P]) Release() {
	c.Purge(func(Key) bool { return true })
}
