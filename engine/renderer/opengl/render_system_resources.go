package opengl

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// client array bits of renderSystem.clientArrays; texture coordinate units follow clientTexCoord0
const (
	clientVertex = 1 << iota
	clientNormal
	clientColor
	clientTexCoord0
)

func (r *renderSystem) bindBuffer(target, id uint32) {
	cache := &r.state.arrayBuffer
	if target == glElementArrayBuffer {
		cache = &r.state.elementBuffer
	}
	r.Track(cache.Set(id, func(id uint32) {
		r.gl.BindBuffer(target, id)
	}))
}

func (r *renderSystem) forgetBuffer(id uint32) {
	if v, ok := r.state.arrayBuffer.Value(); ok && v == id {
		r.state.arrayBuffer.Invalidate()
	}
	if v, ok := r.state.elementBuffer.Value(); ok && v == id {
		r.state.elementBuffer.Invalidate()
	}
}

func (r *renderSystem) createBuffer(table *renderer.ResourceTable[glBuffer], target uint32) renderer.Handle {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return renderer.InvalidHandle
	}
	id := r.gl.GenBuffer()
	if id == 0 {
		common.Logger().Error("could not create OpenGL buffer", "target", target)
		return renderer.InvalidHandle
	}
	return table.Insert(glBuffer{id: id, target: target, usage: glStaticDraw})
}

func (r *renderSystem) CreateVertexBuffer() renderer.Handle {
	return r.createBuffer(r.vertexBuffers, glArrayBuffer)
}

func (r *renderSystem) CreateIndexBuffer() renderer.Handle {
	return r.createBuffer(r.indexBuffers, glElementArrayBuffer)
}

func (r *renderSystem) deleteBuffer(table *renderer.ResourceTable[glBuffer], h *renderer.Handle) {
	if h == nil || !h.Valid() {
		return
	}
	if buf, ok := table.Remove(*h); ok && buf.id != 0 {
		r.forgetBuffer(buf.id)
		r.gl.DeleteBuffer(buf.id)
	}
	*h = renderer.InvalidHandle
}

func (r *renderSystem) DeleteVertexBuffer(h *renderer.Handle) {
	r.deleteBuffer(r.vertexBuffers, h)
}

func (r *renderSystem) DeleteIndexBuffer(h *renderer.Handle) {
	r.deleteBuffer(r.indexBuffers, h)
}

func (r *renderSystem) uploadBuffer(table *renderer.ResourceTable[glBuffer], h renderer.Handle, data *common.UniversalBuffer, usage renderer.BufferUsage) {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) || data.Empty() {
		return
	}
	buf, ok := table.Lookup(h)
	if !ok {
		common.Logger().Warn("update of invalid buffer", "handle", h)
		return
	}
	bytes := data.Bytes()
	glUsage := bufferUsage(usage)
	r.bindBuffer(buf.target, buf.id)
	if len(bytes) > buf.size || glUsage != buf.usage {
		r.gl.BufferData(buf.target, bytes, glUsage)
		buf.size, buf.usage = len(bytes), glUsage
		table.Replace(h, buf)
	} else {
		r.gl.BufferSubData(buf.target, 0, bytes)
	}
	table.SetShadow(h, bytes)
	r.CountBufferUpload(len(bytes))
}

func (r *renderSystem) UpdateVertexBuffer(h renderer.Handle, data *common.UniversalBuffer, format *renderer.VertexFormat, usage renderer.BufferUsage) {
	if format != nil && data != nil && format.Stride() != data.Stride() {
		common.Logger().Warn("vertex data stride does not match its format", "format", format.Name(), "stride", data.Stride())
		return
	}
	r.uploadBuffer(r.vertexBuffers, h, data, usage)
}

func (r *renderSystem) UpdateIndexBuffer(h renderer.Handle, data *common.UniversalBuffer, format renderer.IndexFormat, usage renderer.BufferUsage) {
	if data != nil && format.Size() != data.Stride() {
		common.Logger().Warn("index data stride does not match its format", "stride", data.Stride())
		return
	}
	r.uploadBuffer(r.indexBuffers, h, data, usage)
}

// uploadElement transmits the bytes of a single element and patches the shadow copy.
func (r *renderSystem) uploadElement(table *renderer.ResourceTable[glBuffer], h renderer.Handle, data *common.UniversalBuffer, index int) {
	if !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return
	}
	elem := data.Element(index)
	if elem == nil {
		return
	}
	buf, ok := table.Lookup(h)
	if !ok {
		common.Logger().Warn("update of invalid buffer", "handle", h)
		return
	}
	offset := index * data.Stride()
	if offset+len(elem) > buf.size {
		common.Logger().Warn("element update outside of buffer", "handle", h, "index", index)
		return
	}
	r.bindBuffer(buf.target, buf.id)
	r.gl.BufferSubData(buf.target, offset, elem)
	table.PatchShadow(h, offset, elem)
	r.CountBufferUpload(len(elem))
}

func (r *renderSystem) UpdateVertexBufferElement(h renderer.Handle, data *common.UniversalBuffer, index int) {
	r.uploadElement(r.vertexBuffers, h, data, index)
}

func (r *renderSystem) UpdateIndexBufferElement(h renderer.Handle, data *common.UniversalBuffer, index int) {
	r.uploadElement(r.indexBuffers, h, data, index)
}

func (r *renderSystem) BindMeshBuffer(mb *renderer.MeshBuffer) bool {
	if mb == nil || !r.QueryVideoSupport(renderer.FeatureHardwareMeshBuffer) {
		return false
	}
	vb, ok := r.vertexBuffers.Lookup(mb.VertexBuffer)
	if !ok {
		return false
	}
	var ib glBuffer
	if mb.Indexed() {
		if ib, ok = r.indexBuffers.Lookup(mb.IndexBuffer); !ok {
			return false
		}
	}
	if !r.InputLayoutCompatible(mb) {
		common.Logger().Warn("mesh vertex format is incompatible with the bound shader class", "format", mb.Format.Name())
		return false
	}

	r.bindBuffer(glArrayBuffer, vb.id)
	if mb.Indexed() {
		r.bindBuffer(glElementArrayBuffer, ib.id)
	}
	switch {
	case r.BoundShaderClass() != nil:
		r.bindAttributes(mb.Format, false)
	case r.fixedFunction():
		r.bindClientArrays(mb.Format)
	default:
		r.useProgram(r.meshProgram.id)
		r.bindAttributes(mb.Format, true)
	}
	r.bindTextures(mb.Textures)
	r.bound = mb
	return true
}

func (r *renderSystem) UnbindMeshBuffer(mb *renderer.MeshBuffer) {
	if mb == nil || r.bound != mb {
		return
	}
	r.setAttribArrays(0)
	r.setClientArrays(0)
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
	r.prepareDraw()
	mode := primitiveModes[mb.Primitive]
	if mb.Indexed() {
		r.gl.DrawElements(mode, int32(count), indexType(mb.IndexFormat), start*mb.IndexFormat.Size())
	} else {
		r.gl.DrawArrays(mode, int32(start), int32(count))
	}
	r.CountDraw(mb.Primitive, count)
}

func (r *renderSystem) DrawMeshBuffer(mb *renderer.MeshBuffer) {
	if mb == nil {
		return
	}
	r.DrawMeshBufferPart(mb, 0, mb.ElementCount())
}

// prepareDraw uploads the uniforms of the current program.
func (r *renderSystem) prepareDraw() {
	var p *glProgram
	if class := r.BoundShaderClass(); class != nil {
		p, _ = r.programs.Lookup(class.Handle())
	} else if !r.fixedFunction() {
		p = r.meshProgram
	}
	if p == nil {
		return
	}
	r.uploadFixed(p)
	if p.uniforms.textured >= 0 {
		textured := r.boundTexture > 0 && r.RenderState(renderer.RenderStateTexture) != 0
		r.gl.Uniform1i(p.uniforms.textured, boolInt(textured))
	}
}

func builtinLocation(a renderer.VertexAttribute) (uint32, bool) {
	switch a.Usage {
	case renderer.UsageCoord:
		return locPosition, true
	case renderer.UsageNormal:
		return locNormal, true
	case renderer.UsageColor:
		return locColor, true
	case renderer.UsageTexCoord:
		return locTexCoord, a.Index == 0
	}
	return 0, false
}

// bindAttributes sets the generic attribute pointers of a vertex format. Built-in programs use
// fixed locations per usage; shader classes bind the attribute at position i to location i.
func (r *renderSystem) bindAttributes(format *renderer.VertexFormat, builtin bool) {
	stride := int32(format.Stride())
	var mask uint32
	for i, a := range format.Attributes() {
		loc := uint32(i)
		if builtin {
			var ok bool
			if loc, ok = builtinLocation(a); !ok {
				continue
			}
		}
		mask |= 1 << loc
		r.gl.VertexAttribPointer(loc, int32(a.Components), attributeType(a.Type), a.Normalized, stride, a.Offset)
	}
	r.setAttribArrays(mask)
	r.setClientArrays(0)
	if builtin {
		// constant values for missing attributes
		if mask&(1<<locNormal) == 0 {
			r.gl.VertexAttrib4f(locNormal, 0, 0, 1, 0)
		}
		if mask&(1<<locColor) == 0 {
			r.gl.VertexAttrib4f(locColor, 1, 1, 1, 1)
		}
	}
}

func (r *renderSystem) setAttribArrays(mask uint32) {
	for loc := uint32(0); loc < 32; loc++ {
		bit := uint32(1) << loc
		switch {
		case mask&bit != 0 && r.attribs&bit == 0:
			r.gl.EnableVertexAttribArray(loc)
		case mask&bit == 0 && r.attribs&bit != 0:
			r.gl.DisableVertexAttribArray(loc)
		}
	}
	r.attribs = mask
}

func (r *renderSystem) bindClientArrays(format *renderer.VertexFormat) {
	stride := int32(format.Stride())
	var mask uint32
	for _, a := range format.Attributes() {
		switch a.Usage {
		case renderer.UsageCoord:
			mask |= clientVertex
			r.gl.VertexPointer(int32(a.Components), attributeType(a.Type), stride, a.Offset)
		case renderer.UsageNormal:
			mask |= clientNormal
			r.gl.NormalPointer(attributeType(a.Type), stride, a.Offset)
		case renderer.UsageColor:
			mask |= clientColor
			r.gl.ColorPointer(int32(a.Components), attributeType(a.Type), stride, a.Offset)
		case renderer.UsageTexCoord:
			if a.Index >= maxTextureUnits {
				continue
			}
			mask |= clientTexCoord0 << uint(a.Index)
			r.gl.ClientActiveTexture(glTexture0 + uint32(a.Index))
			r.gl.TexCoordPointer(int32(a.Components), attributeType(a.Type), stride, a.Offset)
		}
	}
	r.setClientArrays(mask)
	r.setAttribArrays(0)
}

func (r *renderSystem) setClientArrays(mask uint32) {
	toggle := func(array uint32, on bool) {
		if on {
			r.gl.EnableClientState(array)
		} else {
			r.gl.DisableClientState(array)
		}
	}
	changed := mask ^ r.clientArrays
	for bit, array := range map[uint32]uint32{clientVertex: glVertexArray, clientNormal: glNormalArray, clientColor: glColorArray} {
		if changed&bit != 0 {
			toggle(array, mask&bit != 0)
		}
	}
	for unit := uint32(0); unit < maxTextureUnits; unit++ {
		bit := uint32(clientTexCoord0) << unit
		if changed&bit != 0 {
			r.gl.ClientActiveTexture(glTexture0 + unit)
			toggle(glTextureCoordArray, mask&bit != 0)
		}
	}
	r.clientArrays = mask
}

func (r *renderSystem) bindTexture(unit int, id uint32) {
	r.Track(r.state.activeTexture.Set(uint32(unit), func(unit uint32) {
		r.gl.ActiveTexture(glTexture0 + unit)
	}))
	r.Track(r.state.textures[unit].Set(id, func(id uint32) {
		r.gl.BindTexture(glTexture2D, id)
	}))
}

// bindTextures binds the texture layers of a mesh to consecutive units and unbinds the rest.
func (r *renderSystem) bindTextures(textures []*renderer.Texture) {
	units := r.Caps().MaxTextureLayers
	if units <= 0 {
		units = 1
	}
	r.boundTexture = 0
	for unit := 0; unit < units; unit++ {
		var id uint32
		if unit < len(textures) {
			if native, ok := r.textures.Lookup(textures[unit].Handle()); ok {
				id = native.id
				r.boundTexture++
			}
		}
		if cur, _ := r.state.textures[unit].Value(); id != 0 || cur != 0 {
			r.bindTexture(unit, id)
		}
	}
	r.setCap(glTexture2D, r.boundTexture > 0 && r.RenderState(renderer.RenderStateTexture) != 0)
}

func (r *renderSystem) forgetTexture(id uint32) {
	for unit := range r.state.textures {
		if v, ok := r.state.textures[unit].Value(); ok && v == id {
			r.state.textures[unit].Invalidate()
		}
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

func (r *renderSystem) createNativeTexture(tex *renderer.Texture) (glTexture, error) {
	id := r.gl.GenTexture()
	if id == 0 {
		return glTexture{}, errors.New("glGenTextures returned no name")
	}
	native := glTexture{id: id, tex: tex}
	r.bindTexture(0, id)
	r.uploadImage(tex)
	r.applySampler(tex)
	if tex.RenderTarget() {
		fbo, depth, err := r.createFramebuffer(id, tex.Size())
		if err != nil {
			r.forgetTexture(id)
			r.gl.DeleteTexture(id)
			return glTexture{}, err
		}
		native.fbo, native.depth = fbo, depth
	}
	return native, nil
}

func (r *renderSystem) uploadImage(tex *renderer.Texture) {
	img := tex.Image()
	size := img.Size()
	internal, format := textureFormat(img.Format(), r.profile)
	r.gl.TexImage2D(glTexture2D, 0, internal, int32(size.Width), int32(size.Height), format, glUnsignedByte, img.Pixels())
	if tex.MipMaps() {
		r.gl.GenerateMipmap(glTexture2D)
	}
	r.CountTextureUpload()
}

func (r *renderSystem) applySampler(tex *renderer.Texture) {
	s := tex.Sampler()
	mag := int32(glLinearFilter)
	if s.Filter == renderer.FilterNearest {
		mag = glNearest
	}
	minFilter := mag
	if tex.MipMaps() {
		switch {
		case s.MipMap == renderer.MipMapBilinear && s.Filter == renderer.FilterNearest:
			minFilter = glNearestMipmapNearest
		case s.MipMap == renderer.MipMapBilinear:
			minFilter = glLinearMipmapNearest
		case s.Filter == renderer.FilterNearest:
			minFilter = glNearestMipmapLinear
		default:
			minFilter = glLinearMipmapLinear
		}
	}
	wrap := int32(glRepeat)
	switch s.Wrap {
	case renderer.WrapMirror:
		wrap = glMirroredRepeat
	case renderer.WrapClamp:
		wrap = glClampToEdge
	}
	r.gl.TexParameteri(glTexture2D, glTexMagFilter, mag)
	r.gl.TexParameteri(glTexture2D, glTexMinFilter, minFilter)
	r.gl.TexParameteri(glTexture2D, glTexWrapS, wrap)
	r.gl.TexParameteri(glTexture2D, glTexWrapT, wrap)
	if s.MipMap == renderer.MipMapAnisotropic && r.QueryVideoSupport(renderer.FeatureAnisotropicFilter) {
		r.gl.TexParameterf(glTexture2D, glTexMaxAnisotropy, float32(min(max(s.Anisotropy, 1), r.Caps().MaxAnisotropy)))
	}
}

func (r *renderSystem) createFramebuffer(texture uint32, size common.Size2) (uint32, uint32, error) {
	fbo := r.gl.GenFramebuffer()
	depth := r.gl.GenRenderbuffer()
	if fbo == 0 || depth == 0 {
		r.gl.DeleteFramebuffer(fbo)
		r.gl.DeleteRenderbuffer(depth)
		return 0, 0, errors.New("could not create framebuffer objects")
	}
	r.gl.BindFramebuffer(glFramebuffer, fbo)
	r.gl.FramebufferTexture2D(glFramebuffer, glColorAttachment0, glTexture2D, texture, 0)
	r.gl.BindRenderbuffer(glRenderbuffer, depth)
	r.gl.RenderbufferStorage(glRenderbuffer, glDepth24Stencil, int32(size.Width), int32(size.Height))
	r.gl.FramebufferRenderbuffer(glFramebuffer, glDepthStencilAttachment, glRenderbuffer, depth)
	status := r.gl.CheckFramebufferStatus(glFramebuffer)

	prev, _ := r.state.framebuffer.Value()
	r.gl.BindFramebuffer(glFramebuffer, prev)
	if status != glFramebufferComplete {
		r.gl.DeleteFramebuffer(fbo)
		r.gl.DeleteRenderbuffer(depth)
		return 0, 0, fmt.Errorf("framebuffer incomplete: status 0x%X", status)
	}
	return fbo, depth, nil
}

func (r *renderSystem) UpdateTexture(tex *renderer.Texture) bool {
	if tex == nil {
		return false
	}
	native, ok := r.textures.Lookup(tex.Handle())
	if !ok {
		return false
	}
	r.bindTexture(0, native.id)
	r.uploadImage(tex)
	return true
}

func (r *renderSystem) deleteNativeTexture(native glTexture) {
	if native.fbo != 0 {
		if v, _ := r.state.framebuffer.Value(); v == native.fbo {
			r.state.framebuffer.Invalidate()
		}
		r.gl.DeleteFramebuffer(native.fbo)
	}
	if native.depth != 0 {
		r.gl.DeleteRenderbuffer(native.depth)
	}
	if native.id != 0 {
		r.forgetTexture(native.id)
		r.gl.DeleteTexture(native.id)
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
		r.deleteNativeTexture(native)
	}
	tex.SetHandle(renderer.InvalidHandle)
	r.Registry().Remove(tex)
}

func (r *renderSystem) bindFramebuffer(fbo uint32) {
	r.Track(r.state.framebuffer.Set(fbo, func(fbo uint32) {
		r.gl.BindFramebuffer(glFramebuffer, fbo)
	}))
}

func (r *renderSystem) regenerateMipMaps(tex *renderer.Texture) {
	if tex == nil || !tex.MipMaps() {
		return
	}
	if native, ok := r.textures.Lookup(tex.Handle()); ok {
		r.bindTexture(0, native.id)
		r.gl.GenerateMipmap(glTexture2D)
	}
}

func (r *renderSystem) SetRenderTarget(tex *renderer.Texture) bool {
	prev := r.RenderTarget()
	if tex == nil {
		if prev == nil {
			return true
		}
		r.bindFramebuffer(0)
		r.StoreRenderTarget(nil)
		r.SetInvertScreen(false)
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
	if !ok || native.fbo == 0 {
		return false
	}
	if prev != nil && prev != tex {
		r.regenerateMipMaps(prev)
	}
	r.bindFramebuffer(native.fbo)
	r.StoreRenderTarget(tex)
	r.SetInvertScreen(true)
	r.viewport = common.NewRect(common.Point2{}, tex.Size())
	r.applyViewport()
	return true
}
