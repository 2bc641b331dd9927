package opengl

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// saved2DState holds the render states BeginDrawing2D overrides.
type saved2DState struct {
	states   map[renderer.RenderState]int32
	blend    blendFunc
	hasBlend bool
}

var states2D = map[renderer.RenderState]int32{
	renderer.RenderStateDepthTest: 0,
	renderer.RenderStateCullFace:  0,
	renderer.RenderStateLighting:  0,
	renderer.RenderStateFog:       0,
	renderer.RenderStateBlending:  1,
}

const vertex2DStride = int32(unsafe.Sizeof(renderer.Vertex2D{}))

func (r *renderSystem) BeginDrawing2D() {
	if r.Drawing2D() {
		return
	}
	saved := saved2DState{states: make(map[renderer.RenderState]int32, len(states2D))}
	for state, value := range states2D {
		saved.states[state] = r.RenderState(state)
		r.SetRenderState(state, value)
	}
	saved.blend, saved.hasBlend = r.state.blend.Value()
	r.SetBlending(material.BlendSrcAlpha, material.BlendInvSrcAlpha)
	r.saved2D = saved

	if r.fixedFunction() {
		r.loadMatrix(glProjection, r.Projection2D())
		r.loadMatrix(glModelview, common.IdentityMatrix())
	}
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
		r.Track(r.state.blend.Set(r.saved2D.blend, func(b blendFunc) {
			r.gl.BlendFunc(b.src, b.dst)
		}))
	}
	r.saved2D = saved2DState{}

	if r.fixedFunction() {
		r.loadMatrix(glProjection, r.Matrix(renderer.MatrixProjection))
		r.loadModelView()
	}
	if class := r.BoundShaderClass(); class != nil {
		if p, ok := r.programs.Lookup(class.Handle()); ok {
			r.useProgram(p.id)
		}
	} else if r.fixedFunction() {
		r.useProgram(0)
	}
}

// DrawPrimitive2D streams 2D vertices through the stream buffer. Calls outside
// BeginDrawing2D/EndDrawing2D switch into 2D mode for the duration of the call.
func (r *renderSystem) DrawPrimitive2D(primitive renderer.PrimitiveType, vertices []renderer.Vertex2D, tex *renderer.Texture) {
	if len(vertices) == 0 || r.streamBuffer == 0 {
		return
	}
	if !r.Drawing2D() {
		r.BeginDrawing2D()
		defer r.EndDrawing2D()
	}
	// the stream buffer replaces the mesh's vertex bindings
	r.bound = nil

	data := common.SliceToBytes(vertices)
	r.bindBuffer(glArrayBuffer, r.streamBuffer)
	r.gl.BufferData(glArrayBuffer, data, glStreamDraw)
	r.CountBufferUpload(len(data))

	var id uint32
	if tex != nil {
		if native, ok := r.textures.Lookup(tex.Handle()); ok {
			id = native.id
		}
	}
	r.bindTexture(0, id)
	textured := id != 0

	if r.fixedFunction() {
		if r.BoundShaderClass() != nil {
			r.useProgram(0)
		}
		mask := uint32(clientVertex | clientColor)
		r.gl.VertexPointer(3, glFloat, vertex2DStride, 0)
		r.gl.ColorPointer(4, glUnsignedByte, vertex2DStride, 12)
		if textured {
			mask |= clientTexCoord0
			r.gl.ClientActiveTexture(glTexture0)
			r.gl.TexCoordPointer(2, glFloat, vertex2DStride, 16)
		}
		r.setAttribArrays(0)
		r.setClientArrays(mask)
		r.setCap(glTexture2D, textured)
	} else {
		p := r.spriteProgram
		r.useProgram(p.id)
		r.gl.VertexAttribPointer(locPosition, 3, glFloat, false, vertex2DStride, 0)
		r.gl.VertexAttribPointer(locColor, 4, glUnsignedByte, true, vertex2DStride, 12)
		r.gl.VertexAttribPointer(locTexCoord, 2, glFloat, false, vertex2DStride, 16)
		r.setAttribArrays(1<<locPosition | 1<<locColor | 1<<locTexCoord)
		r.gl.UniformMatrix4fv(p.uniforms.projection, r.Projection2D())
		r.gl.Uniform1i(p.uniforms.textured, boolInt(textured))
	}

	r.gl.DrawArrays(primitiveModes[primitive], 0, int32(len(vertices)))
	r.CountDraw(primitive, len(vertices))
}
