package d3d11

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// targets is an output merger binding.
type targets struct {
	color RenderTargetView
	depth DepthStencilView
}

// depthStencilBinding is a depth-stencil state object together with its reference value.
type depthStencilBinding struct {
	state StateObject
	ref   uint32
}

// d3dState mirrors the pipeline state last submitted to the immediate context. State objects are
// created once per description and cached in stateObjects; the bound ones are tracked here.
type d3dState struct {
	blend        renderer.Cached[StateObject]
	depthStencil renderer.Cached[depthStencilBinding]
	rasterizer   renderer.Cached[StateObject]
	samplers     [maxTextureSlots]renderer.Cached[StateObject]
	textures     [maxTextureSlots]renderer.Cached[ShaderResourceView]

	viewport renderer.Cached[Viewport]
	scissor  renderer.Cached[common.Rect]
	targets  renderer.Cached[targets]

	inputLayout    renderer.Cached[InputLayout]
	vertexBuffer   renderer.Cached[vertexBinding]
	indexBuffer    renderer.Cached[indexBinding]
	topology       renderer.Cached[uint32]
	vertexShader   renderer.Cached[Shader]
	pixelShader    renderer.Cached[Shader]
	geometryShader renderer.Cached[Shader]
	vsConstants    renderer.Cached[Buffer]
	psConstants    renderer.Cached[Buffer]
}

// stateObjects owns the immutable state objects, keyed by their description.
type stateObjects struct {
	blend        map[BlendDesc]StateObject
	depthStencil map[DepthStencilDesc]StateObject
	rasterizer   map[RasterizerDesc]StateObject
	sampler      map[SamplerDesc]StateObject
}

func newStateObjects() stateObjects {
	return stateObjects{
		blend:        make(map[BlendDesc]StateObject),
		depthStencil: make(map[DepthStencilDesc]StateObject),
		rasterizer:   make(map[RasterizerDesc]StateObject),
		sampler:      make(map[SamplerDesc]StateObject),
	}
}

func (o stateObjects) len() int {
	return len(o.blend) + len(o.depthStencil) + len(o.rasterizer) + len(o.sampler)
}

func releaseAll[K comparable](m map[K]StateObject) {
	for k, s := range m {
		s.Release()
		delete(m, k)
	}
}

func (o stateObjects) release() {
	releaseAll(o.blend)
	releaseAll(o.depthStencil)
	releaseAll(o.rasterizer)
	releaseAll(o.sampler)
}

// stateObject returns the cached object of desc, creating it on first use.
func stateObject[K comparable](m map[K]StateObject, desc K, create func(K) (StateObject, error)) (StateObject, error) {
	if s, ok := m[desc]; ok {
		return s, nil
	}
	s, err := create(desc)
	if err != nil {
		return nil, err
	}
	m[desc] = s
	return s, nil
}

// forgetTexture drops cached bindings of a view about to be released.
func (s *d3dState) forgetTexture(v ShaderResourceView) {
	for slot := range s.textures {
		if cur, ok := s.textures[slot].Value(); ok && cur == v {
			s.textures[slot].Invalidate()
		}
	}
}

// reset forgets everything, used after the device was replaced.
func (s *d3dState) reset() {
	*s = d3dState{}
}
