package d3d9

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// saved2DState holds the render states BeginDrawing2D overrides.
type saved2DState struct {
	states   map[renderer.RenderState]int32
	src, dst uint32
	hasBlend bool
}

var states2D = map[renderer.RenderState]int32{
	renderer.RenderStateDepthTest: 0,
	renderer.RenderStateCullFace:  0,
	renderer.RenderStateLighting:  0,
	renderer.RenderStateFog:       0,
	renderer.RenderStateBlending:  1,
}

const vertex2DStride = int(unsafe.Sizeof(renderer.Vertex2D{}))

func (r *renderSystem) BeginDrawing2D() {
	if r.Drawing2D() {
		return
	}
	saved := saved2DState{states: make(map[renderer.RenderState]int32, len(states2D))}
	for state, value := range states2D {
		saved.states[state] = r.RenderState(state)
		r.SetRenderState(state, value)
	}
	src, okSrc := r.state.renderState(rsSrcBlend).Value()
	dst, okDst := r.state.renderState(rsDestBlend).Value()
	saved.src, saved.dst, saved.hasBlend = src, dst, okSrc && okDst
	r.SetBlending(material.BlendSrcAlpha, material.BlendInvSrcAlpha)
	r.saved2D = saved

	r.setTransform(tsProjection, r.Projection2D())
	r.setTransform(tsView, common.IdentityMatrix())
	r.setTransform(tsWorld, common.IdentityMatrix())
	r.StoreDrawing2D(true)
}

func (r *renderSystem) EndDrawing2D() {
	if !r.Drawing2D() {
		return
	}
	r.StoreDrawing2D(false)
	for state, value := range r.saved2D.states {
		r.SetRenderState(state, value)
	}
	if r.saved2D.hasBlend {
		r.setRenderState(rsSrcBlend, r.saved2D.src)
		r.setRenderState(rsDestBlend, r.saved2D.dst)
	}
	r.saved2D = saved2DState{}

	r.setTransform(tsProjection, r.Matrix(renderer.MatrixProjection))
	r.setTransform(tsView, r.Matrix(renderer.MatrixView))
	r.setTransform(tsWorld, r.Matrix(renderer.MatrixWorld))
	if class := r.BoundShaderClass(); class != nil {
		if vs, ps, err := r.stageShaders(class); err == nil {
			r.setVertexShader(vs)
			r.setPixelShader(ps)
		}
	}
}

// vertices2D converts 2D vertices to the FVF layout: D3DCOLOR colors and positions moved by half a
// pixel so texels map onto pixels.
func vertices2D(vertices []renderer.Vertex2D) []byte {
	data := append([]byte(nil), common.SliceToBytes(vertices)...)
	for i := 0; i < len(vertices); i++ {
		v := data[i*vertex2DStride:]
		for axis := 0; axis < 2; axis++ {
			f := math.Float32frombits(binary.LittleEndian.Uint32(v[axis*4:]))
			binary.LittleEndian.PutUint32(v[axis*4:], math.Float32bits(f-0.5))
		}
		v[12], v[14] = v[14], v[12]
	}
	return data
}

// DrawPrimitive2D draws user-pointer 2D vertices. Calls outside BeginDrawing2D/EndDrawing2D switch
// into 2D mode for the duration of the call.
func (r *renderSystem) DrawPrimitive2D(primitive renderer.PrimitiveType, vertices []renderer.Vertex2D, tex *renderer.Texture) {
	primitives := primitive.PrimitiveCount(len(vertices))
	if primitives == 0 {
		return
	}
	if !r.Drawing2D() {
		r.BeginDrawing2D()
		defer r.EndDrawing2D()
	}

	var native Texture
	if tex != nil {
		if t, ok := r.textures.Lookup(tex.Handle()); ok {
			native = t.native
			r.applySampler(0, tex)
		}
	}
	r.setTexture(0, native)
	r.boundTextures = 0
	if native != nil {
		r.boundTextures = 1
	}
	r.applyTextureStages()
	r.setVertexShader(nil)
	r.setPixelShader(nil)
	r.setFVF(fvf2D)

	data := vertices2D(vertices)
	r.check("DrawPrimitiveUP", r.dev.DrawPrimitiveUP(primitiveTypes[primitive], primitives, data, vertex2DStride))
	// DrawPrimitiveUP unbinds stream 0
	r.state.vertexBuffer.Invalidate()
	r.bound = nil
	r.CountBufferUpload(len(data))
	r.CountDraw(primitive, len(vertices))
}
