package d3d11

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// saved2DState holds the render states and blend factors BeginDrawing2D overrides.
type saved2DState struct {
	states   map[renderer.RenderState]int32
	src, dst uint32
}

var states2D = map[renderer.RenderState]int32{
	renderer.RenderStateDepthTest: 0,
	renderer.RenderStateCullFace:  0,
	renderer.RenderStateLighting:  0,
	renderer.RenderStateFog:       0,
	renderer.RenderStateBlending:  1,
}

const vertex2DStride = int(unsafe.Sizeof(renderer.Vertex2D{}))

// minSpriteVertices is the initial capacity of the 2D vertex buffer.
const minSpriteVertices = 1024

func (r *renderSystem) BeginDrawing2D() {
	if r.Drawing2D() {
		return
	}
	saved := saved2DState{states: make(map[renderer.RenderState]int32, len(states2D))}
	for state, value := range states2D {
		saved.states[state] = r.RenderState(state)
		r.SetRenderState(state, value)
	}
	saved.src, saved.dst = r.blend.Src, r.blend.Dst
	r.SetBlending(material.BlendSrcAlpha, material.BlendInvSrcAlpha)
	r.saved2D = saved
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
	r.blend.Src, r.blend.Dst = r.saved2D.src, r.saved2D.dst
	r.saved2D = saved2DState{}

	if class := r.BoundShaderClass(); class != nil {
		r.BindShaderClass(class)
	}
}

// spriteConstants lays out the SpriteConstants buffer.
func spriteConstants(projection [16]float32, textured bool) []byte {
	m := common.Transpose4(projection)
	params := [4]float32{}
	if textured {
		params[0] = 1
	}
	data := make([]byte, 0, spriteConstantsSize)
	data = append(data, common.SliceToBytes(m[:])...)
	return append(data, common.SliceToBytes(params[:])...)
}

// ensureSpriteBuffer grows the 2D vertex buffer to hold size bytes.
func (r *renderSystem) ensureSpriteBuffer(size int) bool {
	b := &r.builtin
	if b.spriteBuffer != nil && size <= b.spriteBufferSize {
		return true
	}
	capacity := max(size, minSpriteVertices*vertex2DStride, 2*b.spriteBufferSize)
	vb, err := r.createBuffer(capacity, true, bindVertexBuffer)
	if err != nil {
		common.Logger().Error("could not allocate 2D vertex buffer", "error", err)
		return false
	}
	if b.spriteBuffer != nil {
		r.forgetVertexBuffer(b.spriteBuffer)
		b.spriteBuffer.Release()
	}
	b.spriteBuffer, b.spriteBufferSize = vb, capacity
	return true
}

// DrawPrimitive2D draws 2D vertices through the sprite shaders. Calls outside
// BeginDrawing2D/EndDrawing2D switch into 2D mode for the duration of the call.
func (r *renderSystem) DrawPrimitive2D(primitive renderer.PrimitiveType, vertices []renderer.Vertex2D, tex *renderer.Texture) {
	if primitive.PrimitiveCount(len(vertices)) == 0 {
		return
	}
	if !r.Drawing2D() {
		r.BeginDrawing2D()
		defer r.EndDrawing2D()
	}
	if !r.setTopology(primitive) {
		return
	}

	var view ShaderResourceView
	if tex != nil {
		if t, ok := r.textures.Lookup(tex.Handle()); ok && t.view != nil {
			view = t.view
			r.applySampler(0, tex)
		}
	}
	textured := view != nil
	if view == nil {
		view = r.builtin.whiteView
	}
	r.setTexture(0, view)

	// a whole-buffer write discards the previous batch instead of waiting for it
	data := common.SliceToBytes(vertices)
	if !r.ensureSpriteBuffer(len(data)) {
		return
	}
	batch := make([]byte, r.builtin.spriteBufferSize)
	copy(batch, data)
	r.check("Buffer.Write", r.builtin.spriteBuffer.Write(0, batch))
	r.check("Buffer.Write", r.builtin.spriteConstants.Write(0, spriteConstants(r.Projection2D(), textured)))

	r.setInputLayout(r.builtin.spriteLayout)
	r.setVertexShader(r.builtin.spriteVS)
	r.setPixelShader(r.builtin.spritePS)
	r.setGeometryShader(nil)
	r.setVertexBuffer(r.builtin.spriteBuffer, vertex2DStride)
	r.setConstantBuffer(r.builtin.spriteConstants)
	r.flushStates()
	r.dev.Draw(len(vertices), 0)

	r.bound = nil
	r.CountBufferUpload(len(data))
	r.CountDraw(primitive, len(vertices))
}
