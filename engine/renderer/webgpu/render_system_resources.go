package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// CreateVertexBuffer reserves a handle. The native buffer is allocated on the first upload since
// WebGPU fixes its size at creation.
func (r *renderSystem) CreateVertexBuffer() renderer.Handle {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return renderer.InvalidHandle
	}
	return r.vertexBuffers.Insert(gpuVertexBuffer{})
}

func (r *renderSystem) CreateIndexBuffer() renderer.Handle {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return renderer.InvalidHandle
	}
	return r.indexBuffers.Insert(gpuIndexBuffer{})
}

func (r *renderSystem) forgetBuffer(b Buffer) {
	if v, _ := r.pass.vertexBuffer.Value(); v.buffer == b {
		r.pass.vertexBuffer.Invalidate()
	}
	if i, _ := r.pass.indexBuffer.Value(); i.buffer == b {
		r.pass.indexBuffer.Invalidate()
	}
}

func (r *renderSystem) DeleteVertexBuffer(h *renderer.Handle) {
	if h == nil || !h.Valid() {
		return
	}
	if buf, ok := r.vertexBuffers.Remove(*h); ok && buf.native != nil {
		r.forgetBuffer(buf.native)
		buf.native.Release()
	}
	*h = renderer.InvalidHandle
}

func (r *renderSystem) DeleteIndexBuffer(h *renderer.Handle) {
	if h == nil || !h.Valid() {
		return
	}
	if buf, ok := r.indexBuffers.Remove(*h); ok && buf.native != nil {
		r.forgetBuffer(buf.native)
		buf.native.Release()
	}
	*h = renderer.InvalidHandle
}

func (r *renderSystem) createBuffer(label string, size int, usage wgpu.BufferUsage) (Buffer, error) {
	b, err := r.dev.CreateBuffer(BufferDesc{Label: label, Size: uint64(align4(size)), Usage: usage | wgpu.BufferUsageCopyDst})
	if err != nil {
		return nil, fmt.Errorf("CreateBuffer(%d): %w", size, err)
	}
	return b, nil
}

// padded returns data extended with zeros to the copy alignment.
func padded(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, align4(len(data)))
	copy(out, data)
	return out
}

// alignedWindow returns the aligned range of shadow around [offset, offset+n).
func alignedWindow(shadow []byte, offset, n int) (int, []byte) {
	start := offset &^ 3
	end := align4(offset + n)
	out := make([]byte, end-start)
	copy(out, shadow[start:min(end, len(shadow))])
	return start, out
}

// UpdateVertexBuffer uploads the whole content. The usage hint is ignored: WebGPU buffers are all
// written through the queue.
func (r *renderSystem) UpdateVertexBuffer(h renderer.Handle, data *common.UniversalBuffer, format *renderer.VertexFormat, usage renderer.BufferUsage) {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) || data.Empty() {
		return
	}
	if format != nil && format.Stride() != data.Stride() {
		common.Logger().Warn("vertex data stride does not match its format", "format", format.Name(), "stride", data.Stride())
		return
	}
	buf, ok := r.vertexBuffers.Lookup(h)
	if !ok {
		common.Logger().Warn("update of invalid buffer", "handle", h)
		return
	}
	bytes := data.Bytes()
	if buf.native == nil || align4(len(bytes)) > buf.size {
		vb, err := r.createBuffer("Vertex Buffer", len(bytes), wgpu.BufferUsageVertex)
		if err != nil {
			common.Logger().Error("could not allocate vertex buffer", "handle", h, "error", err)
			return
		}
		if buf.native != nil {
			r.forgetBuffer(buf.native)
			buf.native.Release()
		}
		buf.native, buf.size = vb, align4(len(bytes))
	}
	buf.format = format
	r.vertexBuffers.Replace(h, buf)
	r.writeBuffer(buf.native, 0, padded(bytes))
	r.vertexBuffers.SetShadow(h, bytes)
}

func (r *renderSystem) UpdateIndexBuffer(h renderer.Handle, data *common.UniversalBuffer, format renderer.IndexFormat, usage renderer.BufferUsage) {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) || data.Empty() {
		return
	}
	if format.Size() != data.Stride() {
		common.Logger().Warn("index data stride does not match its format", "stride", data.Stride())
		return
	}
	buf, ok := r.indexBuffers.Lookup(h)
	if !ok {
		common.Logger().Warn("update of invalid buffer", "handle", h)
		return
	}
	bytes := data.Bytes()
	if buf.native == nil || align4(len(bytes)) > buf.size {
		ib, err := r.createBuffer("Index Buffer", len(bytes), wgpu.BufferUsageIndex)
		if err != nil {
			common.Logger().Error("could not allocate index buffer", "handle", h, "error", err)
			return
		}
		if buf.native != nil {
			r.forgetBuffer(buf.native)
			buf.native.Release()
		}
		buf.native, buf.size = ib, align4(len(bytes))
	}
	if format != buf.format {
		// the format is part of the binding, not of the buffer
		r.forgetBuffer(buf.native)
		buf.format = format
	}
	r.indexBuffers.Replace(h, buf)
	r.writeBuffer(buf.native, 0, padded(bytes))
	r.indexBuffers.SetShadow(h, bytes)
}

// updateElement patches the shadow copy and uploads the aligned window around the element.
func (r *renderSystem) updateElement(native Buffer, shadow func() []byte, patch func(offset int, elem []byte), offset int, elem []byte) bool {
	if native == nil || offset+len(elem) > len(shadow()) {
		return false
	}
	patch(offset, elem)
	start, window := alignedWindow(shadow(), offset, len(elem))
	r.writeBuffer(native, start, window)
	return true
}

func (r *renderSystem) UpdateVertexBufferElement(h renderer.Handle, data *common.UniversalBuffer, index int) {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return
	}
	elem := data.Element(index)
	if elem == nil {
		return
	}
	buf, ok := r.vertexBuffers.Lookup(h)
	if !ok || buf.native == nil {
		common.Logger().Warn("update of invalid buffer", "handle", h)
		return
	}
	shadow := func() []byte { return r.vertexBuffers.Shadow(h) }
	patch := func(offset int, elem []byte) { r.vertexBuffers.PatchShadow(h, offset, elem) }
	if !r.updateElement(buf.native, shadow, patch, index*data.Stride(), elem) {
		common.Logger().Warn("element update outside of buffer", "handle", h, "index", index)
	}
}

func (r *renderSystem) UpdateIndexBufferElement(h renderer.Handle, data *common.UniversalBuffer, index int) {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return
	}
	elem := data.Element(index)
	if elem == nil {
		return
	}
	buf, ok := r.indexBuffers.Lookup(h)
	if !ok || buf.native == nil {
		common.Logger().Warn("update of invalid buffer", "handle", h)
		return
	}
	shadow := func() []byte { return r.indexBuffers.Shadow(h) }
	patch := func(offset int, elem []byte) { r.indexBuffers.PatchShadow(h, offset, elem) }
	if !r.updateElement(buf.native, shadow, patch, index*data.Stride(), elem) {
		common.Logger().Warn("element update outside of buffer", "handle", h, "index", index)
	}
}

// resolveProgram returns the program and vertex layout a mesh of format is drawn with: the bound
// shader class, or the built-in mesh shader.
func (r *renderSystem) resolveProgram(format *renderer.VertexFormat) (*shaderProgram, *VertexLayout, error) {
	if class := r.BoundShaderClass(); class != nil {
		p, ok := r.programs.Lookup(class.Handle())
		if !ok || p.program == nil {
			return nil, nil, fmt.Errorf("shader class is not linked")
		}
		return p.program, p.layout, nil
	}
	return r.builtinProgram(format)
}

func (r *renderSystem) BindMeshBuffer(mb *renderer.MeshBuffer) bool {
	if mb == nil || !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return false
	}
	vb, ok := r.vertexBuffers.Lookup(mb.VertexBuffer)
	if !ok || vb.native == nil {
		return false
	}
	if mb.Indexed() {
		if ib, ok := r.indexBuffers.Lookup(mb.IndexBuffer); !ok || ib.native == nil {
			return false
		}
	}
	if !r.InputLayoutCompatible(mb) {
		common.Logger().Warn("mesh vertex format is incompatible with the bound shader class", "format", mb.Format.Name())
		return false
	}
	if _, _, err := r.resolveProgram(mb.Format); err != nil {
		common.Logger().Warn("could not bind mesh buffer", "error", err)
		return false
	}
	r.bindTextures(mb.Textures)
	r.bound = mb
	return true
}

func (r *renderSystem) UnbindMeshBuffer(mb *renderer.MeshBuffer) {
	if mb == nil || r.bound != mb {
		return
	}
	r.bound = nil
}

// DrawMeshBufferPart resolves the program at draw time, so a shader class bound after the mesh
// still applies.
func (r *renderSystem) DrawMeshBufferPart(mb *renderer.MeshBuffer, start, count int) {
	if mb == nil || count <= 0 {
		return
	}
	if r.bound != mb {
		common.Logger().Warn("draw of a mesh buffer that is not bound")
		return
	}
	if mb.Primitive.PrimitiveCount(count) == 0 {
		return
	}
	topology, ok := topologies[mb.Primitive]
	if !ok {
		common.Logger().Warn("primitive type not supported by WebGPU", "primitive", mb.Primitive)
		return
	}
	vb, ok := r.vertexBuffers.Lookup(mb.VertexBuffer)
	if !ok || vb.native == nil {
		return
	}
	var ib gpuIndexBuffer
	strip := wgpu.IndexFormatUndefined
	if mb.Indexed() {
		if ib, ok = r.indexBuffers.Lookup(mb.IndexBuffer); !ok || ib.native == nil {
			return
		}
		if stripTopology(topology) {
			strip = indexFormat(ib.format)
		}
	}
	prog, layout, err := r.resolveProgram(mb.Format)
	if err != nil {
		common.Logger().Warn("could not draw mesh buffer", "error", err)
		return
	}

	r.uploadConstants()
	if !r.prepareDraw(prog, layout, topology, strip) {
		return
	}
	r.Track(r.pass.vertexBuffer.Set(vertexBinding{buffer: vb.native}, func(v vertexBinding) {
		r.dev.SetVertexBuffer(v.buffer, v.offset, uint64(vb.size)-v.offset)
	}))
	r.frame.use(vb.native)
	if mb.Indexed() {
		r.Track(r.pass.indexBuffer.Set(indexBinding{buffer: ib.native, format: indexFormat(ib.format), size: uint64(ib.size)}, func(i indexBinding) {
			r.dev.SetIndexBuffer(i.buffer, i.format, i.size)
		}))
		r.frame.use(ib.native)
		r.dev.DrawIndexed(uint32(count), uint32(start))
	} else {
		r.dev.Draw(uint32(count), uint32(start))
	}
	r.CountDraw(mb.Primitive, count)
}

func (r *renderSystem) DrawMeshBuffer(mb *renderer.MeshBuffer) {
	if mb == nil {
		return
	}
	r.DrawMeshBufferPart(mb, 0, mb.ElementCount())
}

// sampler returns the sampler of desc, creating it on first use.
func (r *renderSystem) sampler(desc SamplerDesc) Sampler {
	if s, ok := r.samplers[desc]; ok {
		return s
	}
	s, err := r.dev.CreateSampler(desc)
	if err != nil {
		r.check("CreateSampler", err)
		return r.builtin.sampler
	}
	r.samplers[desc] = s
	return s
}

// setSlot binds a texture to a slot, or the white fallback texture for nil.
func (r *renderSystem) setSlot(slot int, tex *renderer.Texture) bool {
	r.slots.views[slot] = r.builtin.whiteView
	r.slots.samplers[slot] = r.builtin.sampler
	r.slotTextures[slot] = nil
	if tex == nil {
		return false
	}
	t, ok := r.textures.Lookup(tex.Handle())
	if !ok || t.view == nil || tex == r.RenderTarget() {
		return false
	}
	caps := r.Caps()
	r.slots.views[slot] = t.view
	r.slots.samplers[slot] = r.sampler(samplerDesc(tex, caps.MaxAnisotropy, caps.Supports(renderer.FeatureAnisotropicFilter)))
	r.slotTextures[slot] = t.native
	return true
}

// bindTextures binds the texture layers of a mesh to consecutive slots. Empty slots sample the
// white fallback texture, since a WebGPU bind group has no empty entries. A texture bound as render
// target is never sampled.
func (r *renderSystem) bindTextures(textures []*renderer.Texture) {
	r.boundTextures = 0
	for slot := 0; slot < maxTextureSlots; slot++ {
		var tex *renderer.Texture
		if slot < len(textures) {
			tex = textures[slot]
		}
		if r.setSlot(slot, tex) {
			r.boundTextures++
		}
	}
	fc, _ := r.FixedConstants()
	textured := float32(0)
	if r.boundTextures > 0 && r.RenderState(renderer.RenderStateTexture) != 0 {
		textured = 1
	}
	if fc.Flags[3] != textured {
		fc.Flags[3] = textured
		r.MarkFixedDirty()
	}
}

func (r *renderSystem) CreateTexture(flags renderer.TextureCreationFlags) *renderer.Texture {
	tex, err := r.PrepareTexture(flags)
	if err != nil {
		common.Logger().Error("could not create texture", "name", flags.Filename, "error", err)
		return nil
	}
	native, err := r.createNativeTexture(tex)
	if err != nil {
		common.Logger().Error("could not create texture", "name", flags.Filename, "error", err)
		return nil
	}
	tex.SetHandle(r.textures.Insert(native))
	r.Registry().Add(tex)
	return tex
}

// createNativeTexture allocates a texture with its view. Render targets get a depth-stencil texture
// of their size, have no mip chain and no image content to upload.
func (r *renderSystem) createNativeTexture(tex *renderer.Texture) (native gpuTexture, err error) {
	size := tex.Size()
	format, _ := textureFormat(tex.Format())
	desc := TextureDesc{
		Label:       tex.Filename(),
		Width:       uint32(size.Width),
		Height:      uint32(size.Height),
		MipLevels:   uint32(tex.MipLevels()),
		SampleCount: 1,
		Format:      format,
		Usage:       wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	}
	if tex.RenderTarget() {
		desc.Format = wgpu.TextureFormatRGBA8Unorm
		desc.MipLevels = 1
		desc.Usage |= wgpu.TextureUsageRenderAttachment
	}
	native.tex = tex
	defer func() {
		if err != nil {
			r.releaseNativeTexture(native)
			native = gpuTexture{}
		}
	}()
	if native.native, err = r.dev.CreateTexture(desc); err != nil {
		return native, fmt.Errorf("CreateTexture(%s): %w", size, err)
	}
	if native.view, err = r.dev.CreateView(native.native); err != nil {
		return native, fmt.Errorf("texture view: %w", err)
	}
	if !tex.RenderTarget() {
		r.uploadImage(native)
		return native, nil
	}
	native.depth, err = r.dev.CreateTexture(TextureDesc{
		Label:       tex.Filename() + " depth",
		Width:       uint32(size.Width),
		Height:      uint32(size.Height),
		MipLevels:   1,
		SampleCount: 1,
		Format:      surfaceDepthFormat,
		Usage:       wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return native, fmt.Errorf("render target depth texture: %w", err)
	}
	if native.depthView, err = r.dev.CreateView(native.depth); err != nil {
		return native, fmt.Errorf("render target depth view: %w", err)
	}
	return native, nil
}

// uploadImage writes the image and its mip chain. WebGPU has no mip generation, so every level is
// rescaled from the base image on the CPU.
func (r *renderSystem) uploadImage(native gpuTexture) {
	if r.frame.inUse(native.native) {
		r.flush()
	}
	img := native.tex.Image()
	if _, upload := textureFormat(img.Format()); upload != img.Format() {
		img = img.Clone()
		img.Convert(upload)
	}
	size := img.Size()
	for level := 0; level < native.tex.MipLevels(); level++ {
		mip := img
		if level > 0 {
			mip = img.Clone()
			mip.Rescale(common.Size2{Width: max(size.Width>>level, 1), Height: max(size.Height>>level, 1)})
		}
		ms := mip.Size()
		r.dev.WriteTexture(native.native, uint32(level), uint32(ms.Width), uint32(ms.Height), uint32(mip.Pitch()), mip.Pixels())
	}
	r.CountTextureUpload()
}

func (r *renderSystem) UpdateTexture(tex *renderer.Texture) bool {
	if tex == nil {
		return false
	}
	native, ok := r.textures.Lookup(tex.Handle())
	if !ok || native.native == nil {
		return false
	}
	if tex.RenderTarget() {
		return true
	}
	r.uploadImage(native)
	return true
}

func (r *renderSystem) releaseNativeTexture(native gpuTexture) {
	if native.depthView != nil {
		native.depthView.Release()
	}
	if native.depth != nil {
		native.depth.Release()
	}
	if native.view != nil {
		r.purgeTextureGroups(native.view)
		for slot, v := range r.slots.views {
			if v == native.view {
				r.slots.views[slot] = r.builtin.whiteView
				r.slots.samplers[slot] = r.builtin.sampler
				r.slotTextures[slot] = nil
			}
		}
		native.view.Release()
	}
	if native.native != nil {
		native.native.Release()
	}
}

func (r *renderSystem) DeleteTexture(tex *renderer.Texture) {
	if !tex.Valid() {
		return
	}
	if r.RenderTarget() == tex {
		r.SetRenderTarget(nil)
	}
	if native, ok := r.textures.Remove(tex.Handle()); ok {
		r.releaseNativeTexture(native)
	}
	tex.SetHandle(renderer.InvalidHandle)
	r.Registry().Remove(tex)
}

// SetRenderTarget switches the target of the next pass. A pending clear of the old target runs
// first.
func (r *renderSystem) SetRenderTarget(tex *renderer.Texture) bool {
	prev := r.RenderTarget()
	if tex == prev {
		return true
	}
	if tex == nil {
		r.flushClear()
		r.endPass()
		r.StoreRenderTarget(nil)
		r.viewport = r.mainViewport
		return true
	}

	if !r.QueryVideoSupport(renderer.FeatureRenderTarget) || !tex.RenderTarget() {
		common.Logger().Warn("texture is not a render target", "name", tex.Filename())
		return false
	}
	native, ok := r.textures.Lookup(tex.Handle())
	if !ok || native.view == nil || native.depthView == nil {
		return false
	}
	r.flushClear()
	r.endPass()
	// a texture cannot be sampled while it is bound as render target
	for slot, v := range r.slots.views {
		if v == native.view {
			r.setSlot(slot, nil)
		}
	}
	r.StoreRenderTarget(tex)
	r.viewport = common.NewRect(common.Point2{}, tex.Size())
	return true
}
