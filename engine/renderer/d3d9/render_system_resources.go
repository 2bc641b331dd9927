package d3d9

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// CreateVertexBuffer reserves a handle. The native buffer is allocated on the first upload since
// D3D9 fixes its size at creation.
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

func (r *renderSystem) DeleteVertexBuffer(h *renderer.Handle) {
	if h == nil || !h.Valid() {
		return
	}
	if buf, ok := r.vertexBuffers.Remove(*h); ok && buf.native != nil {
		if v, _ := r.state.vertexBuffer.Value(); v == buf.native {
			r.state.vertexBuffer.Invalidate()
		}
		buf.native.Release()
	}
	*h = renderer.InvalidHandle
}

func (r *renderSystem) DeleteIndexBuffer(h *renderer.Handle) {
	if h == nil || !h.Valid() {
		return
	}
	if buf, ok := r.indexBuffers.Remove(*h); ok && buf.native != nil {
		if v, _ := r.state.indexBuffer.Value(); v == buf.native {
			r.state.indexBuffer.Invalidate()
		}
		buf.native.Release()
	}
	*h = renderer.InvalidHandle
}

func bufferUsage(dynamic bool) uint32 {
	if dynamic {
		return usageWriteOnly | usageDynamic
	}
	return usageWriteOnly
}

func indexFormat(f renderer.IndexFormat) uint32 {
	if f == renderer.IndexUint32 {
		return fmtIndex32
	}
	return fmtIndex16
}

// deviceVertices returns data in device byte order: vertex colors become D3DCOLOR. The shadow copy
// keeps the engine order.
func deviceVertices(data []byte, format *renderer.VertexFormat) []byte {
	if format == nil {
		return data
	}
	out := append([]byte(nil), data...)
	swizzleColors(out, format)
	return out
}

func (r *renderSystem) createVertexBuffer(size int, dynamic bool) (VertexBuffer, error) {
	vb, err := r.dev.CreateVertexBuffer(size, bufferUsage(dynamic))
	if err != nil {
		return nil, fmt.Errorf("CreateVertexBuffer(%d): %w", size, err)
	}
	return vb, nil
}

func (r *renderSystem) createIndexBuffer(size int, dynamic bool, format renderer.IndexFormat) (IndexBuffer, error) {
	ib, err := r.dev.CreateIndexBuffer(size, bufferUsage(dynamic), indexFormat(format))
	if err != nil {
		return nil, fmt.Errorf("CreateIndexBuffer(%d): %w", size, err)
	}
	return ib, nil
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
		vb, err := r.createVertexBuffer(len(bytes), dynamic)
		if err != nil {
			common.Logger().Error("could not allocate vertex buffer", "handle", h, "error", err)
			return
		}
		if buf.native != nil {
			r.state.vertexBuffer.Invalidate()
			buf.native.Release()
		}
		buf.native, buf.size, buf.dynamic = vb, len(bytes), dynamic
	}
	buf.format = format
	r.vertexBuffers.Replace(h, buf)
	r.check("VertexBuffer.Write", buf.native.Write(0, deviceVertices(bytes, format)))
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
	if buf.native == nil || len(bytes) > buf.size || dynamic != buf.dynamic || format != buf.format {
		ib, err := r.createIndexBuffer(len(bytes), dynamic, format)
		if err != nil {
			common.Logger().Error("could not allocate index buffer", "handle", h, "error", err)
			return
		}
		if buf.native != nil {
			r.state.indexBuffer.Invalidate()
			buf.native.Release()
		}
		buf.native, buf.size, buf.dynamic, buf.format = ib, len(bytes), dynamic, format
		r.indexBuffers.Replace(h, buf)
	}
	r.check("IndexBuffer.Write", buf.native.Write(0, bytes))
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
	r.check("VertexBuffer.Write", buf.native.Write(offset, deviceVertices(elem, buf.format)))
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
	r.check("IndexBuffer.Write", buf.native.Write(offset, elem))
	r.indexBuffers.PatchShadow(h, offset, elem)
	r.CountBufferUpload(len(elem))
}

// declarationFor returns the cached vertex declaration of a format, creating it on first use.
func (r *renderSystem) declarationFor(format *renderer.VertexFormat) (VertexDeclaration, error) {
	if decl, ok := r.declarations[format]; ok {
		return decl, nil
	}
	elements, ok := vertexElements(format)
	if !ok {
		return nil, fmt.Errorf("vertex format %s has attributes without a D3D9 type", format.Name())
	}
	decl, err := r.dev.CreateVertexDeclaration(elements)
	if err != nil {
		return nil, fmt.Errorf("CreateVertexDeclaration(%s): %w", format.Name(), err)
	}
	r.declarations[format] = decl
	return decl, nil
}

func (r *renderSystem) setDeclaration(decl VertexDeclaration) {
	r.Track(r.state.declaration.Set(decl, func(d VertexDeclaration) {
		r.check("SetVertexDeclaration", r.dev.SetVertexDeclaration(d))
	}))
	// a declaration replaces the FVF and vice versa
	r.state.fvf.Invalidate()
}

func (r *renderSystem) setFVF(fvf uint32) {
	r.Track(r.state.fvf.Set(fvf, func(v uint32) {
		r.check("SetFVF", r.dev.SetFVF(v))
	}))
	r.state.declaration.Invalidate()
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

	decl, err := r.declarationFor(mb.Format)
	if err != nil {
		common.Logger().Warn("could not bind mesh buffer", "error", err)
		return false
	}
	if class := r.BoundShaderClass(); class != nil {
		if p, ok := r.programs.Lookup(class.Handle()); ok && p.decl != nil {
			decl = p.decl
		}
	}
	r.setDeclaration(decl)

	stride := mb.Format.Stride()
	r.Track(r.state.vertexBuffer.Set(vb.native, func(v VertexBuffer) {
		r.check("SetStreamSource", r.dev.SetStreamSource(v, stride))
	}))
	if mb.Indexed() {
		r.Track(r.state.indexBuffer.Set(ib.native, func(i IndexBuffer) {
			r.check("SetIndices", r.dev.SetIndices(i))
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
	primitives := mb.Primitive.PrimitiveCount(count)
	if primitives == 0 {
		return
	}
	r.prepareDraw()
	pt := primitiveTypes[mb.Primitive]
	if mb.Indexed() {
		r.check("DrawIndexedPrimitive", r.dev.DrawIndexedPrimitive(pt, mb.VertexCount(), start, primitives))
	} else {
		r.check("DrawPrimitive", r.dev.DrawPrimitive(pt, start, primitives))
	}
	r.CountDraw(mb.Primitive, count)
}

func (r *renderSystem) DrawMeshBuffer(mb *renderer.MeshBuffer) {
	if mb == nil {
		return
	}
	r.DrawMeshBufferPart(mb, 0, mb.ElementCount())
}

// prepareDraw uploads the constants of the bound shader class.
func (r *renderSystem) prepareDraw() {
	class := r.BoundShaderClass()
	if class == nil {
		return
	}
	if p, ok := r.programs.Lookup(class.Handle()); ok {
		r.uploadConstants(p)
	}
}

func (r *renderSystem) setStageState(stage int, state, value uint32) {
	r.Track(r.state.stageState(stage, state).Set(value, func(v uint32) {
		r.check("SetTextureStageState", r.dev.SetTextureStageState(uint32(stage), state, v))
	}))
}

func (r *renderSystem) setSamplerState(stage int, state, value uint32) {
	r.Track(r.state.samplerState(stage, state).Set(value, func(v uint32) {
		r.check("SetSamplerState", r.dev.SetSamplerState(uint32(stage), state, v))
	}))
}

func (r *renderSystem) setTexture(stage int, tex Texture) {
	r.Track(r.state.textures[stage].Set(tex, func(t Texture) {
		r.check("SetTexture", r.dev.SetTexture(stage, t))
	}))
}

// applyTextureStages modulates the diffuse color with each bound layer. Stage 0 passes the
// diffuse color through when texturing is off.
func (r *renderSystem) applyTextureStages() {
	textured := r.boundTextures > 0 && r.RenderState(renderer.RenderStateTexture) != 0
	op := uint32(topSelectArg2)
	if textured {
		op = topModulate
	}
	r.setStageState(0, tssColorArg1, taTexture)
	r.setStageState(0, tssColorArg2, taDiffuse)
	r.setStageState(0, tssColorOp, op)
	r.setStageState(0, tssAlphaArg1, taTexture)
	r.setStageState(0, tssAlphaArg2, taDiffuse)
	r.setStageState(0, tssAlphaOp, op)
	for stage := 1; stage < r.Caps().MaxTextureLayers; stage++ {
		op := uint32(topDisable)
		if textured && stage < r.boundTextures {
			op = topModulate
			r.setStageState(stage, tssColorArg1, taTexture)
			r.setStageState(stage, tssColorArg2, taCurrent)
			r.setStageState(stage, tssAlphaArg1, taTexture)
			r.setStageState(stage, tssAlphaArg2, taCurrent)
		}
		r.setStageState(stage, tssColorOp, op)
		r.setStageState(stage, tssAlphaOp, op)
		if op == topDisable {
			break
		}
	}
}

func (r *renderSystem) applySampler(stage int, tex *renderer.Texture) {
	s := tex.Sampler()
	filter := uint32(texfLinear)
	if s.Filter == renderer.FilterNearest {
		filter = texfPoint
	}
	minFilter, mipFilter := filter, uint32(texfNone)
	if tex.MipMaps() {
		mipFilter = texfLinear
		if s.MipMap == renderer.MipMapBilinear {
			mipFilter = texfPoint
		}
		if s.MipMap == renderer.MipMapAnisotropic && r.QueryVideoSupport(renderer.FeatureAnisotropicFilter) {
			minFilter = texfAnisotropic
			r.setSamplerState(stage, sampMaxAnisotropy, uint32(min(max(s.Anisotropy, 1), r.Caps().MaxAnisotropy)))
		}
	}
	wrap := uint32(taddressWrap)
	switch s.Wrap {
	case renderer.WrapMirror:
		wrap = taddressMirror
	case renderer.WrapClamp:
		wrap = taddressClamp
	}
	r.setSamplerState(stage, sampMagFilter, filter)
	r.setSamplerState(stage, sampMinFilter, minFilter)
	r.setSamplerState(stage, sampMipFilter, mipFilter)
	r.setSamplerState(stage, sampAddressU, wrap)
	r.setSamplerState(stage, sampAddressV, wrap)
}

// bindTextures binds the texture layers of a mesh to consecutive stages and unbinds the rest.
func (r *renderSystem) bindTextures(textures []*renderer.Texture) {
	stages := max(r.Caps().MaxTextureLayers, 1)
	r.boundTextures = 0
	for stage := 0; stage < stages; stage++ {
		var native Texture
		if stage < len(textures) && textures[stage] != nil {
			if t, ok := r.textures.Lookup(textures[stage].Handle()); ok && t.native != nil {
				native = t.native
				r.boundTextures++
				r.applySampler(stage, textures[stage])
			}
		}
		if cur, _ := r.state.textures[stage].Value(); native != nil || cur != nil {
			r.setTexture(stage, native)
		}
	}
	r.applyTextureStages()
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

// createNativeTexture allocates a managed texture, or a default pool texture with a depth-stencil
// surface for render targets. Render targets have no image content to upload.
func (r *renderSystem) createNativeTexture(tex *renderer.Texture) (d3dTexture, error) {
	size := tex.Size()
	format, _ := textureFormat(tex.Format())
	levels, usage, pool := 1, uint32(0), uint32(poolManaged)
	if tex.MipMaps() {
		levels, usage = 0, usageAutoGenMipMap
	}
	if tex.RenderTarget() {
		usage |= usageRenderTarget
		pool = poolDefault
	}
	t, err := r.dev.CreateTexture(size.Width, size.Height, levels, usage, format, pool)
	if err != nil {
		return d3dTexture{}, fmt.Errorf("CreateTexture(%s): %w", size, err)
	}
	native := d3dTexture{native: t, tex: tex}
	if !tex.RenderTarget() {
		r.uploadImage(native)
		return native, nil
	}
	if native.surface, err = t.Surface(); err != nil {
		t.Release()
		return d3dTexture{}, fmt.Errorf("render target surface: %w", err)
	}
	if native.depth, err = r.dev.CreateDepthStencilSurface(size.Width, size.Height, fmtD24S8); err != nil {
		native.surface.Release()
		t.Release()
		return d3dTexture{}, fmt.Errorf("render target depth surface: %w", err)
	}
	return native, nil
}

func (r *renderSystem) uploadImage(native d3dTexture) {
	img := native.tex.Image()
	if _, upload := textureFormat(img.Format()); upload != img.Format() {
		img = img.Clone()
		img.Convert(upload)
	}
	r.check("Texture.WriteLevel", native.native.WriteLevel(0, img.Pixels(), img.Pitch()))
	if native.tex.MipMaps() {
		native.native.GenerateMipSubLevels()
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
	if native.surface != nil {
		native.surface.Release()
	}
	if native.native != nil {
		r.state.forgetTexture(native.native)
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
	if native, ok := r.textures.Lookup(tex.Handle()); ok && native.native != nil {
		native.native.GenerateMipSubLevels()
	}
}

// bindTarget sets color and depth surfaces. D3D9 resets the viewport to the full target when the
// render target changes.
func (r *renderSystem) bindTarget(color, depth Surface) {
	r.check("SetRenderTarget", r.dev.SetRenderTarget(color))
	r.check("SetDepthStencilSurface", r.dev.SetDepthStencilSurface(depth))
	r.state.viewport.Invalidate()
}

func (r *renderSystem) SetRenderTarget(tex *renderer.Texture) bool {
	prev := r.RenderTarget()
	if tex == nil {
		if prev == nil {
			return true
		}
		r.bindTarget(r.backBuffer, r.backDepth)
		r.StoreRenderTarget(nil)
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
	if !ok || native.surface == nil {
		return false
	}
	if prev != nil && prev != tex {
		r.regenerateMipMaps(prev)
	}
	// the render target may still be bound as a texture
	r.unbindTexture(native.native)
	r.bindTarget(native.surface, native.depth)
	r.StoreRenderTarget(tex)
	r.viewport = common.NewRect(common.Point2{}, tex.Size())
	r.applyViewport()
	return true
}

// unbindTexture clears every stage that samples t.
func (r *renderSystem) unbindTexture(t Texture) {
	for stage := 0; stage < r.Caps().MaxTextureLayers; stage++ {
		if cur, ok := r.state.textures[stage].Value(); ok && cur == t {
			r.setTexture(stage, nil)
		}
	}
}
