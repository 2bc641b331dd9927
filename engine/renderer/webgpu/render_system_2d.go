package webgpu

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// saved2DState holds the render states and blend factors BeginDrawing2D overrides.
type saved2DState struct {
	states   map[renderer.RenderState]int32
	src, dst wgpu.BlendFactor
}

var states2D = map[renderer.RenderState]int32{
	renderer.RenderStateDepthTest: 0,
	renderer.RenderStateCullFace:  0,
	renderer.RenderStateLighting:  0,
	renderer.RenderStateFog:       0,
	renderer.RenderStateBlending:  1,
}

const vertex2DStride = int(unsafe.Sizeof(renderer.Vertex2D{}))

// minSpriteVertices is the initial capacity of the 2D vertex ring.
const minSpriteVertices = 1024

// constants2DKey identifies the constant block of 2D draws.
type constants2DKey struct {
	proj     [16]float32
	textured bool
}

func (r *renderSystem) BeginDrawing2D() {
	if r.Drawing2D() {
		return
	}
	saved := saved2DState{states: make(map[renderer.RenderState]int32, len(states2D))}
	for state, value := range states2D {
		saved.states[state] = r.RenderState(state)
		r.SetRenderState(state, value)
	}
	saved.src, saved.dst = r.blendSrc, r.blendDst
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
	r.blendSrc, r.blendDst = r.saved2D.src, r.saved2D.dst
	r.saved2D = saved2DState{}
}

// upload2DConstants writes the constant block of 2D draws: the fixed block with the 2D projection,
// identity world and view matrices and every fixed-function stage off but texturing.
func (r *renderSystem) upload2DConstants(textured bool) {
	key := constants2DKey{proj: r.Projection2D(), textured: textured}
	if r.frame.has2D && r.frame.last2D == key {
		return
	}
	fc, _ := r.FixedConstants()
	block := *fc
	block.World = common.IdentityMatrix()
	block.View = common.IdentityMatrix()
	block.Projection = key.proj
	block.Flags = [4]float32{}
	if textured {
		block.Flags[3] = 1
	}
	r.writeConstants(block.Bytes()[:constantsSize])
	r.frame.last2D = key
	r.frame.has2D = true
}

// reserve2D flushes when the constants ring or the sprite ring cannot take the next 2D draw, so
// that neither write has to flush once the other one happened.
func (r *renderSystem) reserve2D(size int) bool {
	b := &r.builtin
	if r.frame.ringSlot == constantsRingSlots || (b.sprites != nil && r.frame.spriteOffset+size > b.spriteSize) {
		r.flush()
	}
	if b.sprites != nil && size <= b.spriteSize {
		return true
	}
	capacity := max(size, minSpriteVertices*vertex2DStride, 2*b.spriteSize)
	vb, err := r.createBuffer("2D Vertices", capacity, wgpu.BufferUsageVertex)
	if err != nil {
		common.Logger().Error("could not allocate 2D vertex buffer", "error", err)
		return false
	}
	if b.sprites != nil {
		r.forgetBuffer(b.sprites)
		b.sprites.Release()
	}
	b.sprites, b.spriteSize = vb, align4(capacity)
	r.frame.spriteOffset = 0
	return true
}

// DrawPrimitive2D draws 2D vertices with the built-in shader. Batches are appended to the sprite
// ring, which starts over on every submission. Calls outside BeginDrawing2D/EndDrawing2D switch
// into 2D mode for the duration of the call.
func (r *renderSystem) DrawPrimitive2D(primitive renderer.PrimitiveType, vertices []renderer.Vertex2D, tex *renderer.Texture) {
	if primitive.PrimitiveCount(len(vertices)) == 0 {
		return
	}
	topology, ok := topologies[primitive]
	if !ok {
		common.Logger().Warn("primitive type not supported by WebGPU", "primitive", primitive)
		return
	}
	if !r.Drawing2D() {
		r.BeginDrawing2D()
		defer r.EndDrawing2D()
	}
	prog, layout, err := r.builtinProgram(renderer.VertexFormat2D)
	if err != nil {
		common.Logger().Error("could not draw 2D primitives", "error", err)
		return
	}

	textured := r.setSlot(0, tex)
	for slot := 1; slot < maxTextureSlots; slot++ {
		r.setSlot(slot, nil)
	}
	data := common.SliceToBytes(vertices)
	if !r.reserve2D(len(data)) {
		return
	}
	offset := r.frame.spriteOffset
	r.dev.WriteBuffer(r.builtin.sprites, uint64(offset), padded(data))
	r.frame.spriteOffset = align4(offset + len(data))
	r.CountBufferUpload(len(data))
	r.upload2DConstants(textured)

	strip := wgpu.IndexFormatUndefined
	if !r.prepareDraw(prog, layout, topology, strip) {
		return
	}
	size := uint64(len(data))
	r.Track(r.pass.vertexBuffer.Set(vertexBinding{buffer: r.builtin.sprites, offset: uint64(offset)}, func(v vertexBinding) {
		r.dev.SetVertexBuffer(v.buffer, v.offset, size)
	}))
	r.frame.use(r.builtin.sprites)
	r.dev.Draw(uint32(len(vertices)), 0)

	// the slot bindings changed, meshes have to be bound again
	r.bound = nil
	r.CountDraw(primitive, len(vertices))
}
