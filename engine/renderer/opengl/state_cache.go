package opengl

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

const maxTextureUnits = 8

type blendFunc struct {
	src, dst uint32
}

type stencilFunc struct {
	fn   uint32
	ref  int32
	mask uint32
}

type stencilOp struct {
	fail, zfail, zpass uint32
}

type materialColors struct {
	diffuse, ambient, specular, emission common.Color
	shininess                            float32
}

// glState mirrors the GL state last submitted by the backend.
type glState struct {
	caps map[uint32]*renderer.Cached[bool]

	blend        renderer.Cached[blendFunc]
	depthFunc    renderer.Cached[uint32]
	depthMask    renderer.Cached[bool]
	depthRange   renderer.Cached[[2]float32]
	colorMask    renderer.Cached[[4]bool]
	cullFace     renderer.Cached[uint32]
	frontFace    renderer.Cached[uint32]
	shadeModel   renderer.Cached[uint32]
	polygonMode  renderer.Cached[uint32]
	lineWidth    renderer.Cached[float32]
	pointSize    renderer.Cached[float32]
	stencilMask  renderer.Cached[uint32]
	stencilFunc  renderer.Cached[stencilFunc]
	stencilOp    renderer.Cached[stencilOp]
	clearColor   renderer.Cached[common.Color]
	clearStencil renderer.Cached[int32]
	material     renderer.Cached[materialColors]

	viewport renderer.Cached[common.Rect]
	scissor  renderer.Cached[common.Rect]

	arrayBuffer   renderer.Cached[uint32]
	elementBuffer renderer.Cached[uint32]
	program       renderer.Cached[uint32]
	framebuffer   renderer.Cached[uint32]
	activeTexture renderer.Cached[uint32]
	textures      [maxTextureUnits]renderer.Cached[uint32]
	matrixMode    renderer.Cached[uint32]
}

func (s *glState) capability(cap uint32) *renderer.Cached[bool] {
	if s.caps == nil {
		s.caps = make(map[uint32]*renderer.Cached[bool])
	}
	c, ok := s.caps[cap]
	if !ok {
		c = &renderer.Cached[bool]{}
		s.caps[cap] = c
	}
	return c
}

// invalidateMaterial forgets every entry SetupMaterialStates writes.
func (s *glState) invalidateMaterial() {
	for _, cap := range []uint32{glBlend, glDepthTest, glCullFace, glLighting, glFog, glColorMaterial, glMultisample, glStencilTest} {
		s.capability(cap).Invalidate()
	}
	s.blend.Invalidate()
	s.depthFunc.Invalidate()
	s.depthMask.Invalidate()
	s.cullFace.Invalidate()
	s.shadeModel.Invalidate()
	s.polygonMode.Invalidate()
	s.stencilMask.Invalidate()
	s.stencilFunc.Invalidate()
	s.stencilOp.Invalidate()
	s.material.Invalidate()
}

// reset forgets everything, used after the context lost its state.
func (s *glState) reset() {
	*s = glState{}
}
