package d3d11

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// vertexBinding is the vertex buffer of input slot 0 with its stride.
type vertexBinding struct {
	buffer Buffer
	stride int
}

// indexBinding is the index buffer with its format.
type indexBinding struct {
	buffer Buffer
	format uint32
}

// CreateVertexBuffer reserves a handle. The native buffer is allocated on the first upload since
// Direct3D 11 fixes its size at creation.
func (r *renderSystem) CreateVertexBuffer() renderer.Handle {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return renderer.InvalidHandle
	}
	return r.vertexBuffers.Insert(d3dVertexBuffer{})
}

func (r *renderSystem) CreateIndexBuffer() renderer.Handle {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return renderer.InvalidHandle
	}
	return r.indexBuffers.Insert(d3dIndexBuffer{})
}

func (r *renderSystem) forgetVertexBuffer(b Buffer) {
	if v, _ := r.state.vertexBuffer.Value(); v.buffer == b {
		r.state.vertexBuffer.Invalidate()
	}
}

func (r *renderSystem) forgetIndexBuffer(b Buffer) {
	if v, _ := r.state.indexBuffer.Value(); v.buffer == b {
		r.state.indexBuffer.Invalidate()
	}
}

func (r *renderSystem) DeleteVertexBuffer(h *renderer.Handle) {
	if h == nil || !h.Valid() {
		return
	}
	if buf, ok := r.vertexBuffers.Remove(*h); ok && buf.native != nil {
		r.forgetVertexBuffer(buf.native)
		buf.native.Release()
	}
	*h = renderer.InvalidHandle
}

func (r *renderSystem) DeleteIndexBuffer(h *renderer.Handle) {
	if h == nil || !h.Valid() {
		return
	}
	if buf, ok := r.indexBuffers.Remove(*h); ok && buf.native != nil {
		r.forgetIndexBuffer(buf.native)
		buf.native.Release()
	}
	*h = renderer.InvalidHandle
}

func bufferUsage(dynamic bool) uint32 {
	if dynamic {
		return usageDynamic
	}
	return usageDefault
}

func (r *renderSystem) createBuffer(size int, dynamic bool, bind uint32) (Buffer, error) {
	b, err := r.dev.CreateBuffer(BufferDesc{Size: size, Usage: bufferUsage(dynamic), Bind: bind}, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateBuffer(%d): %w", size, err)
	}
	return b, nil
}

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
	dynamic := usage == renderer.UsageDynamic
	if buf.native == nil || len(bytes) > buf.size || dynamic != buf.dynamic {
		vb, err := r.createBuffer(len(bytes), dynamic, bindVertexBuffer)
		if err != nil {
			common.Logger().Error("could not allocate vertex buffer", "handle", h, "error", err)
			return
		}
		if buf.native != nil {
			r.forgetVertexBuffer(buf.native)
			buf.native.Release()
		}
		buf.native, buf.size, buf.dynamic = vb, len(bytes), dynamic
	}
	buf.format = format
	r.vertexBuffers.Replace(h, buf)
	r.check("Buffer.Write", buf.native.Write(0, bytes))
	r.vertexBuffers.SetShadow(h, bytes)
	r.CountBufferUpload(len(bytes))
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
	dynamic := usage == renderer.UsageDynamic
	if buf.native == nil || len(bytes) > buf.size || dynamic != buf.dynamic {
		ib, err := r.createBuffer(len(bytes), dynamic, bindIndexBuffer)
		if err != nil {
			common.Logger().Error("could not allocate index buffer", "handle", h, "error", err)
			return
		}
		if buf.native != nil {
			r.forgetIndexBuffer(buf.native)
			buf.native.Release()
		}
		buf.native, buf.size, buf.dynamic = ib, len(bytes), dynamic
	}
	if format != buf.format {
		// the format is part of the binding, not of the buffer
		r.forgetIndexBuffer(buf.native)
		buf.format = format
	}
	r.indexBuffers.Replace(h, buf)
	r.check("Buffer.Write", buf.native.Write(0, bytes))
	r.indexBuffers.SetShadow(h, bytes)
	r.CountBufferUpload(len(bytes))
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
	offset := index * data.Stride()
	if offset+len(elem) > buf.size {
		common.Logger().Warn("element update outside of buffer", "handle", h, "index", index)
		return
	}
	r.check("Buffer.Write", buf.native.Write(offset, elem))
	r.vertexBuffers.PatchShadow(h, offset, elem)
	r.CountBufferUpload(len(elem))
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
	offset := index * data.Stride()
	if offset+len(elem) > buf.size {
		common.Logger().Warn("element update outside of buffer", "handle", h, "index", index)
		return
	}
	r.check("Buffer.Write", buf.native.Write(offset, elem))
	r.indexBuffers.PatchShadow(h, offset, elem)
	r.CountBufferUpload(len(elem))
}

// builtinLayout returns the input layout of format for the built-in mesh shader, creating the
// shader variant and the layout on first use.
func (r *renderSystem) builtinLayout(format *renderer.VertexFormat) (InputLayout, Shader, error) {
	mask, ok := builtinMask(format)
	if !ok {
		return nil, nil, fmt.Errorf("vertex format %s has no position", format.Name())
	}
	variant, err := r.meshVariant(mask)
	if err != nil {
		return nil, nil, err
	}
	key := layoutKey{format: format, mask: mask}
	if layout, ok := r.layouts[key]; ok {
		return layout, variant.shader, nil
	}
	elements, ok := builtinElements(format, mask)
	if !ok {
		return nil, nil, fmt.Errorf("vertex format %s has attributes without a DXGI format", format.Name())
	}
	layout, err := r.dev.CreateInputLayout(elements, variant.bytecode)
	if err != nil {
		return nil, nil, fmt.Errorf("CreateInputLayout(%s): %w", format.Name(), err)
	}
	r.layouts[key] = layout
	return layout, variant.shader, nil
}

func (r *renderSystem) setInputLayout(l InputLayout) {
	r.Track(r.state.inputLayout.Set(l, r.dev.IASetInputLayout))
}

func (r *renderSystem) setVertexBuffer(b Buffer, stride int) {
	r.Track(r.state.vertexBuffer.Set(vertexBinding{buffer: b, stride: stride}, func(v vertexBinding) {
		r.dev.IASetVertexBuffer(v.buffer, v.stride)
	}))
}

func (r *renderSystem) setTopology(primitive renderer.PrimitiveType) bool {
	topology, ok := topologies[primitive]
	if !ok {
		common.Logger().Warn("primitive type not supported by Direct3D 11", "primitive", primitive)
		return false
	}
	r.Track(r.state.topology.Set(topology, r.dev.IASetPrimitiveTopology))
	return true
}

func (r *renderSystem) BindMeshBuffer(mb *renderer.MeshBuffer) bool {
	if mb == nil || !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return false
	}
	vb, ok := r.vertexBuffers.Lookup(mb.VertexBuffer)
	if !ok || vb.native == nil {
		return false
	}
	var ib d3dIndexBuffer
	if mb.Indexed() {
		if ib, ok = r.indexBuffers.Lookup(mb.IndexBuffer); !ok || ib.native == nil {
			return false
		}
	}
	if !r.InputLayoutCompatible(mb) {
		common.Logger().Warn("mesh vertex format is incompatible with the bound shader class", "format", mb.Format.Name())
		return false
	}

	if class := r.BoundShaderClass(); class != nil {
		p, ok := r.programs.Lookup(class.Handle())
		if !ok || p.layout == nil {
			return false
		}
		r.setInputLayout(p.layout)
	} else {
		layout, vs, err := r.builtinLayout(mb.Format)
		if err != nil {
			common.Logger().Warn("could not bind mesh buffer", "error", err)
			return false
		}
		r.setInputLayout(layout)
		r.setVertexShader(vs)
		r.setPixelShader(r.builtin.meshPS)
		r.setGeometryShader(nil)
	}

	r.setVertexBuffer(vb.native, mb.Format.Stride())
	if mb.Indexed() {
		r.Track(r.state.indexBuffer.Set(indexBinding{buffer: ib.native, format: indexFormat(ib.format)}, func(i indexBinding) {
			r.dev.IASetIndexBuffer(i.buffer, i.format)
		}))
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

func (r *renderSystem) DrawMeshBufferPart(mb *renderer.MeshBuffer, start, count int) {
	if mb == nil || count <= 0 {
		return
	}
	if r.bound != mb {
		common.Logger().Warn("draw of a mesh buffer that is not bound")
		return
	}
	if mb.Primitive.PrimitiveCount(count) == 0 || !r.setTopology(mb.Primitive) {
		return
	}
	r.prepareDraw()
	if mb.Indexed() {
		r.dev.DrawIndexed(count, start)
	} else {
		r.dev.Draw(count, start)
	}
	r.CountDraw(mb.Primitive, count)
}

func (r *renderSystem) DrawMeshBuffer(mb *renderer.MeshBuffer) {
	if mb == nil {
		return
	}
	r.DrawMeshBufferPart(mb, 0, mb.ElementCount())
}

// prepareDraw binds the pending state objects and the fixed-function constants.
func (r *renderSystem) prepareDraw() {
	r.flushStates()
	r.uploadConstants()
	r.setConstantBuffer(r.builtin.constants)
}

func (r *renderSystem) setConstantBuffer(b Buffer) {
	r.Track(r.state.vsConstants.Set(b, func(b Buffer) {
		r.dev.VSSetConstantBuffer(0, b)
	}))
	r.Track(r.state.psConstants.Set(b, func(b Buffer) {
		r.dev.PSSetConstantBuffer(0, b)
	}))
}

func (r *renderSystem) setTexture(slot int, v ShaderResourceView) {
	r.Track(r.state.textures[slot].Set(v, func(v ShaderResourceView) {
		r.dev.PSSetShaderResource(slot, v)
	}))
}

func (r *renderSystem) samplerDesc(tex *renderer.Texture) SamplerDesc {
	s := tex.Sampler()
	desc := SamplerDesc{Filter: filterMinMagLinearMipPoint, Address: addressWrap, MaxAnisotropy: 1}
	switch {
	case s.Filter == renderer.FilterNearest && s.MipMap != renderer.MipMapBilinear && tex.MipMaps():
		desc.Filter = filterMinMagPointMipLinear
	case s.Filter == renderer.FilterNearest:
		desc.Filter = filterMinMagMipPoint
	case tex.MipMaps() && s.MipMap == renderer.MipMapAnisotropic && r.QueryVideoSupport(renderer.FeatureAnisotropicFilter):
		desc.Filter = filterAnisotropic
		desc.MaxAnisotropy = uint32(min(max(s.Anisotropy, 1), r.Caps().MaxAnisotropy))
	case tex.MipMaps() && s.MipMap != renderer.MipMapBilinear:
		desc.Filter = filterMinMagMipLinear
	}
	switch s.Wrap {
	case renderer.WrapMirror:
		desc.Address = addressMirror
	case renderer.WrapClamp:
		desc.Address = addressClamp
	}
	return desc
}

func (r *renderSystem) applySampler(slot int, tex *renderer.Texture) {
	s, err := stateObject(r.objects.sampler, r.samplerDesc(tex), r.dev.CreateSamplerState)
	if err != nil {
		r.check("CreateSamplerState", err)
		return
	}
	r.Track(r.state.samplers[slot].Set(s, func(s StateObject) {
		r.dev.PSSetSampler(slot, s)
	}))
}

// bindTextures binds the texture layers of a mesh to consecutive slots and unbinds the rest. Slot 0
// falls back to a white texel so the built-in pixel shader can always sample.
func (r *renderSystem) bindTextures(textures []*renderer.Texture) {
	r.boundTextures = 0
	for slot := 0; slot < maxTextureSlots; slot++ {
		var view ShaderResourceView
		if slot < len(textures) && textures[slot] != nil {
			if t, ok := r.textures.Lookup(textures[slot].Handle()); ok && t.view != nil {
				view = t.view
				r.boundTextures++
				r.applySampler(slot, textures[slot])
			}
		}
		if view == nil && slot == 0 {
			view = r.builtin.whiteView
		}
		if cur, _ := r.state.textures[slot].Value(); view != nil || cur != nil {
			r.setTexture(slot, view)
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

// createNativeTexture allocates a texture with its shader resource view. Mip mapped textures are
// render-target bindable so the device can generate their chain; render targets get a
// depth-stencil texture of their size and have no image content to upload.
func (r *renderSystem) createNativeTexture(tex *renderer.Texture) (native d3dTexture, err error) {
	size := tex.Size()
	format, _ := textureFormat(tex.Format(), r.level)
	desc := TextureDesc{Width: size.Width, Height: size.Height, MipLevels: 1, Format: format, Bind: bindShaderResource}
	if tex.MipMaps() {
		desc.MipLevels = 0
		desc.Bind |= bindRenderTarget
		desc.Misc = miscGenerateMips
	}
	if tex.RenderTarget() {
		desc.Format = formatR8G8B8A8Unorm
		desc.Bind |= bindRenderTarget
	}
	native.tex = tex
	defer func() {
		if err != nil {
			r.releaseNativeTexture(native)
			native = d3dTexture{}
		}
	}()
	if native.native, err = r.dev.CreateTexture2D(desc); err != nil {
		return native, fmt.Errorf("CreateTexture2D(%s): %w", size, err)
	}
	if native.view, err = r.dev.CreateShaderResourceView(native.native); err != nil {
		return native, fmt.Errorf("shader resource view: %w", err)
	}
	if !tex.RenderTarget() {
		r.uploadImage(native)
		return native, nil
	}
	if native.target, err = r.dev.CreateRenderTargetView(native.native); err != nil {
		return native, fmt.Errorf("render target view: %w", err)
	}
	native.depthTex, err = r.dev.CreateTexture2D(TextureDesc{
		Width:     size.Width,
		Height:    size.Height,
		MipLevels: 1,
		Format:    formatD24UnormS8Uint,
		Bind:      bindDepthStencil,
	})
	if err != nil {
		return native, fmt.Errorf("render target depth texture: %w", err)
	}
	if native.depth, err = r.dev.CreateDepthStencilView(native.depthTex); err != nil {
		return native, fmt.Errorf("render target depth view: %w", err)
	}
	return native, nil
}

func (r *renderSystem) uploadImage(native d3dTexture) {
	img := native.tex.Image()
	if _, upload := textureFormat(img.Format(), r.level); upload != img.Format() {
		img = img.Clone()
		img.Convert(upload)
	}
	r.check("Texture.WriteLevel", native.native.WriteLevel(0, img.Pixels(), img.Pitch()))
	if native.tex.MipMaps() {
		native.view.GenerateMips()
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

func (r *renderSystem) releaseNativeTexture(native d3dTexture) {
	if native.depth != nil {
		native.depth.Release()
	}
	if native.depthTex != nil {
		native.depthTex.Release()
	}
	if native.target != nil {
		if cur, _ := r.state.targets.Value(); cur.color == native.target {
			r.state.targets.Invalidate()
		}
		native.target.Release()
	}
	if native.view != nil {
		r.state.forgetTexture(native.view)
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

func (r *renderSystem) regenerateMipMaps(tex *renderer.Texture) {
	if tex == nil || !tex.MipMaps() {
		return
	}
	if native, ok := r.textures.Lookup(tex.Handle()); ok && native.view != nil {
		native.view.GenerateMips()
	}
}

func (r *renderSystem) SetRenderTarget(tex *renderer.Texture) bool {
	prev := r.RenderTarget()
	if tex == nil {
		if prev == nil {
			return true
		}
		r.StoreRenderTarget(nil)
		r.bindTargets(r.currentTargets())
		r.viewport = r.mainViewport
		r.applyViewport()
		r.regenerateMipMaps(prev)
		return true
	}

	if !r.QueryVideoSupport(renderer.FeatureRenderTarget) || !tex.RenderTarget() {
		common.Logger().Warn("texture is not a render target", "name", tex.Filename())
		return false
	}
	native, ok := r.textures.Lookup(tex.Handle())
	if !ok || native.target == nil {
		return false
	}
	if prev != nil && prev != tex {
		r.regenerateMipMaps(prev)
	}
	// a texture cannot be sampled while it is bound as render target
	r.unbindTexture(native.view)
	r.StoreRenderTarget(tex)
	r.bindTargets(targets{color: native.target, depth: native.depth})
	r.viewport = common.NewRect(common.Point2{}, tex.Size())
	r.applyViewport()
	return true
}

// unbindTexture clears every slot that samples v.
func (r *renderSystem) unbindTexture(v ShaderResourceView) {
	for slot := 0; slot < maxTextureSlots; slot++ {
		if cur, ok := r.state.textures[slot].Value(); ok && cur == v {
			r.setTexture(slot, nil)
		}
	}
}
