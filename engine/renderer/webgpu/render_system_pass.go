package webgpu

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// vertexBinding is the vertex buffer of slot 0 with the offset of its first vertex.
type vertexBinding struct {
	buffer Buffer
	offset uint64
}

// indexBinding is the index buffer with its format.
type indexBinding struct {
	buffer Buffer
	format wgpu.IndexFormat
	size   uint64
}

// viewportState is a viewport with its depth range.
type viewportState struct {
	x, y, width, height float32
	minDepth, maxDepth  float32
}

// textureGroupKey identifies the texture bind group of a set of slot bindings.
type textureGroupKey struct {
	views    [maxTextureSlots]TextureView
	samplers [maxTextureSlots]Sampler
}

// passState mirrors the bindings of the open render pass. A pass starts without bindings, so the
// state is reset whenever a pass begins.
type passState struct {
	open   bool
	target *renderer.Texture

	pipeline     renderer.Cached[Pipeline]
	constants    renderer.Cached[uint32]
	textures     renderer.Cached[BindGroup]
	vertexBuffer renderer.Cached[vertexBinding]
	indexBuffer  renderer.Cached[indexBinding]
	viewport     renderer.Cached[viewportState]
	scissor      renderer.Cached[common.Rect]
	stencilRef   renderer.Cached[uint32]
}

func (p *passState) invalidate() {
	p.pipeline.Invalidate()
	p.constants.Invalidate()
	p.textures.Invalidate()
	p.vertexBuffer.Invalidate()
	p.indexBuffer.Invalidate()
	p.viewport.Invalidate()
	p.scissor.Invalidate()
	p.stencilRef.Invalidate()
}

// pendingClear is a clear recorded by ClearBuffers for the next pass on its target.
type pendingClear struct {
	target  *renderer.Texture
	flags   renderer.ClearFlags
	color   [4]float64
	stencil uint32
}

// frameState is the state of the submission being recorded.
type frameState struct {
	clear        pendingClear
	surfaceDrawn bool
	// used holds the buffers and textures the recorded commands read. Queue writes execute before
	// the pending submission, so writing one of them flushes first.
	used map[Object]struct{}

	ringSlot        int
	constantsOffset uint32
	fixedSerial     uint64
	uploadedSerial  uint64
	last2D          constants2DKey
	has2D           bool

	spriteOffset int
}

func (f *frameState) use(o Object) {
	if f.used == nil {
		f.used = make(map[Object]struct{})
	}
	f.used[o] = struct{}{}
}

func (f *frameState) inUse(o Object) bool {
	_, ok := f.used[o]
	return ok
}

// ensurePass opens a pass on the current target, applying a pending clear of that target.
func (r *renderSystem) ensurePass() bool {
	target := r.RenderTarget()
	if r.pass.open {
		if r.pass.target == target {
			return true
		}
		r.endPass()
	}

	var desc PassDesc
	if target != nil {
		native, ok := r.textures.Lookup(target.Handle())
		if !ok || native.view == nil {
			return false
		}
		desc.Color, desc.Depth = native.view, native.depthView
	} else if err := r.dev.AcquireFrame(); err != nil {
		common.Logger().Warn("could not acquire the surface texture", "error", err)
		return false
	}

	if c := r.frame.clear; c.flags != 0 && c.target == target {
		desc.ClearColor = c.flags&renderer.ClearColor != 0
		desc.ColorValue = c.color
		desc.ClearDepth = c.flags&renderer.ClearDepth != 0
		desc.DepthValue = 1
		desc.ClearStencil = c.flags&renderer.ClearStencil != 0
		desc.StencilValue = c.stencil
	}

	if err := r.dev.BeginPass(desc); err != nil {
		r.check("BeginPass", err)
		return false
	}
	r.frame.clear = pendingClear{}
	r.pass = passState{open: true, target: target}
	if target == nil {
		r.frame.surfaceDrawn = true
	}
	return true
}

// endPass ends the open pass. Its commands stay recorded until flush.
func (r *renderSystem) endPass() {
	if !r.pass.open {
		return
	}
	r.dev.EndPass()
	r.pass = passState{}
}

// flushClear runs the pending clear of the current target before the target changes.
func (r *renderSystem) flushClear() {
	if r.frame.clear.flags == 0 {
		return
	}
	if r.frame.clear.target == r.RenderTarget() && r.ensurePass() {
		r.endPass()
		return
	}
	r.frame.clear = pendingClear{}
}

// flush submits the recorded commands. Afterwards the constants ring and the sprite buffer start
// over, since queue writes now execute after everything recorded so far.
func (r *renderSystem) flush() {
	r.endPass()
	r.check("Submit", r.dev.Submit())
	clear(r.frame.used)
	r.frame.ringSlot = 0
	r.frame.uploadedSerial = 0
	r.frame.has2D = false
	r.frame.spriteOffset = 0
}

// writeBuffer writes data to b, flushing first when recorded commands read b.
func (r *renderSystem) writeBuffer(b Buffer, offset int, data []byte) {
	if r.frame.inUse(b) {
		r.flush()
	}
	r.dev.WriteBuffer(b, uint64(offset), data)
	r.CountBufferUpload(len(data))
}

// writeConstants writes a constant block into the next slot of the constants ring.
func (r *renderSystem) writeConstants(data []byte) {
	if r.frame.ringSlot == constantsRingSlots {
		r.flush()
	}
	offset := r.frame.ringSlot * constantsStride
	r.dev.WriteBuffer(r.builtin.constants, uint64(offset), data)
	r.frame.constantsOffset = uint32(offset)
	r.frame.ringSlot++
	r.CountBufferUpload(len(data))
}

// uploadConstants writes the fixed-function block when it changed since its last upload in this
// submission.
func (r *renderSystem) uploadConstants() {
	fc, dirty := r.FixedConstants()
	if dirty {
		r.frame.fixedSerial++
		r.MarkFixedClean()
	}
	if r.frame.uploadedSerial == r.frame.fixedSerial && !r.frame.has2D {
		return
	}
	r.writeConstants(fc.Bytes()[:constantsSize])
	r.frame.uploadedSerial = r.frame.fixedSerial
	r.frame.has2D = false
}

// prepareDraw opens a pass and binds the pipeline of the current state together with the constants,
// the textures, the viewport and the scissor rectangle. Constants must be uploaded before, since
// the upload may flush.
func (r *renderSystem) prepareDraw(prog *shaderProgram, layout *VertexLayout, topology wgpu.PrimitiveTopology, strip wgpu.IndexFormat) bool {
	vp, ok := r.nativeViewport()
	if !ok {
		return false
	}
	p, err := r.pipelines.Get(pipeline.Key{State: r.pipelineState(topology, strip), Program: prog, Layout: layout})
	if err != nil {
		common.Logger().Error("could not create pipeline", "error", err)
		return false
	}
	group := r.textureGroup()
	if !r.ensurePass() {
		return false
	}
	r.Track(r.pass.pipeline.Set(p, r.dev.SetPipeline))
	r.Track(r.pass.constants.Set(r.frame.constantsOffset, func(offset uint32) {
		r.dev.SetBindGroup(0, r.builtin.constantsGroup, []uint32{offset})
	}))
	r.Track(r.pass.textures.Set(group, func(g BindGroup) {
		r.dev.SetBindGroup(1, g, nil)
	}))
	for _, t := range r.slotTextures {
		if t != nil {
			r.frame.use(t)
		}
	}
	r.Track(r.pass.viewport.Set(vp, func(v viewportState) {
		r.dev.SetViewport(v.x, v.y, v.width, v.height, v.minDepth, v.maxDepth)
	}))
	r.Track(r.pass.scissor.Set(r.nativeScissor(), func(rc common.Rect) {
		r.dev.SetScissorRect(uint32(rc.Left), uint32(rc.Top), uint32(rc.Width()), uint32(rc.Height()))
	}))
	if r.RenderState(renderer.RenderStateStencil) != 0 {
		r.Track(r.pass.stencilRef.Set(r.stencilRef, r.dev.SetStencilReference))
	}
	return true
}

func (r *renderSystem) nativeViewport() (viewportState, bool) {
	rc := r.NativeRect(r.viewport)
	if rc.Width() <= 0 || rc.Height() <= 0 {
		return viewportState{}, false
	}
	return viewportState{
		x:        float32(rc.Left),
		y:        float32(rc.Top),
		width:    float32(rc.Width()),
		height:   float32(rc.Height()),
		minDepth: r.depthRange[0],
		maxDepth: r.depthRange[1],
	}, true
}

// nativeScissor returns the scissor rectangle clamped to the target. Without the scissor test it
// covers the whole target.
func (r *renderSystem) nativeScissor() common.Rect {
	full := common.NewRect(common.Point2{}, r.TargetSize())
	if r.RenderState(renderer.RenderStateScissor) == 0 {
		return full
	}
	rc := r.scissor
	rc.Left = min(max(rc.Left, 0), full.Right)
	rc.Top = min(max(rc.Top, 0), full.Bottom)
	rc.Right = min(max(rc.Right, rc.Left), full.Right)
	rc.Bottom = min(max(rc.Bottom, rc.Top), full.Bottom)
	return rc
}

// textureGroup returns the bind group of the current slot bindings, creating it on first use.
func (r *renderSystem) textureGroup() BindGroup {
	if g, ok := r.textureGroups[r.slots]; ok {
		return g
	}
	g, err := r.dev.CreateTextureBindGroup(TextureBindGroupDesc{Views: r.slots.views, Samplers: r.slots.samplers})
	if err != nil {
		r.check("CreateTextureBindGroup", err)
		return r.builtin.whiteGroup
	}
	r.textureGroups[r.slots] = g
	return g
}

// purgeTextureGroups releases the bind groups referencing v.
func (r *renderSystem) purgeTextureGroups(v TextureView) {
	for key, g := range r.textureGroups {
		for _, view := range key.views {
			if view == v {
				if cur, _ := r.pass.textures.Value(); cur == g {
					r.pass.textures.Invalidate()
				}
				g.Release()
				delete(r.textureGroups, key)
				break
			}
		}
	}
}
