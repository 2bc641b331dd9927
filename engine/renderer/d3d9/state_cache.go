package d3d9

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// d3dState mirrors the device state last submitted by the backend. Render states, sampler states
// and texture stage states are keyed by their native enumerant.
type d3dState struct {
	renderStates  map[uint32]*renderer.Cached[uint32]
	stageStates   [maxTextureStages]map[uint32]*renderer.Cached[uint32]
	samplerStates [maxTextureStages]map[uint32]*renderer.Cached[uint32]
	textures      [maxTextureStages]renderer.Cached[Texture]

	material renderer.Cached[Material]
	viewport renderer.Cached[Viewport]
	scissor  renderer.Cached[common.Rect]

	vertexBuffer renderer.Cached[VertexBuffer]
	indexBuffer  renderer.Cached[IndexBuffer]
	declaration  renderer.Cached[VertexDeclaration]
	fvf          renderer.Cached[uint32]
	vertexShader renderer.Cached[VertexShader]
	pixelShader  renderer.Cached[PixelShader]
}

func cachedEntry(m *map[uint32]*renderer.Cached[uint32], key uint32) *renderer.Cached[uint32] {
	if *m == nil {
		*m = make(map[uint32]*renderer.Cached[uint32])
	}
	c, ok := (*m)[key]
	if !ok {
		c = &renderer.Cached[uint32]{}
		(*m)[key] = c
	}
	return c
}

func (s *d3dState) renderState(state uint32) *renderer.Cached[uint32] {
	return cachedEntry(&s.renderStates, state)
}

func (s *d3dState) stageState(stage int, state uint32) *renderer.Cached[uint32] {
	return cachedEntry(&s.stageStates[stage], state)
}

func (s *d3dState) samplerState(stage int, state uint32) *renderer.Cached[uint32] {
	return cachedEntry(&s.samplerStates[stage], state)
}

// materialStates are the render states SetupMaterialStates writes.
var materialStates = []uint32{
	rsAlphaBlendEnable, rsSrcBlend, rsDestBlend,
	rsZEnable, rsZFunc, rsZWriteEnable,
	rsCullMode, rsShadeMode, rsFillMode,
	rsLighting, rsFogEnable, rsColorVertex, rsDiffuseMaterialSource, rsAmbientMaterialSource,
	rsMultisampleAntialias,
	rsStencilEnable, rsStencilFunc, rsStencilRef, rsStencilMask,
	rsStencilFail, rsStencilZFail, rsStencilPass, rsStencilWriteMask,
}

// invalidateMaterial forgets every entry SetupMaterialStates writes.
func (s *d3dState) invalidateMaterial() {
	for _, state := range materialStates {
		s.renderState(state).Invalidate()
	}
	s.material.Invalidate()
}

// forgetTexture drops cached bindings of a texture about to be released.
func (s *d3dState) forgetTexture(t Texture) {
	for stage := range s.textures {
		if v, ok := s.textures[stage].Value(); ok && v == t {
			s.textures[stage].Invalidate()
		}
	}
}

// reset forgets everything, used after the device was reset.
func (s *d3dState) reset() {
	*s = d3dState{}
}
