// Package opengl implements renderer.RenderSystem on top of desktop OpenGL (compatibility or core
// profile) and OpenGL ES 3.0. Compatibility contexts drive the fixed-function pipeline natively;
// core and ES contexts emulate it with built-in programs fed from renderer.FixedFunctionConstants.
package opengl

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// Profile selects the OpenGL flavour the render system drives.
type Profile int

const (
	// ProfileCompatibility uses the fixed-function pipeline of a compatibility context.
	ProfileCompatibility Profile = iota
	// ProfileCore emulates fixed-function state with built-in programs.
	ProfileCore
	// ProfileES targets OpenGL ES 3.0.
	ProfileES
)

func (p Profile) String() string {
	switch p {
	case ProfileCompatibility:
		return "compatibility"
	case ProfileCore:
		return "core"
	case ProfileES:
		return "es"
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

type glBuffer struct {
	id     uint32
	target uint32
	size   int
	usage  uint32
}

type glTexture struct {
	id    uint32
	fbo   uint32
	depth uint32
	tex   *renderer.Texture
}

type glShader struct {
	id     uint32
	stage  uint32
	source string
}

type programUniforms struct {
	world, view, projection int32
	fixed                   int32
	texture, textured       int32
}

type glProgram struct {
	id       uint32
	class    *renderer.ShaderClass
	uniforms programUniforms
	// serial is the fixed-function constant revision last uploaded to this program.
	serial uint64
}

type glQuery struct {
	id     uint32
	target uint32
}

type glInfo struct {
	renderer, vendor, version string
}

type renderSystem struct {
	*renderer.Base

	gl      Functions
	profile Profile
	state   glState
	info    glInfo

	vertexBuffers *renderer.ResourceTable[glBuffer]
	indexBuffers  *renderer.ResourceTable[glBuffer]
	textures      *renderer.ResourceTable[glTexture]
	shaders       *renderer.ResourceTable[glShader]
	programs      *renderer.ResourceTable[*glProgram]
	queries       *renderer.ResourceTable[glQuery]

	// built-ins, only present on core and ES contexts
	meshProgram   *glProgram
	spriteProgram *glProgram
	vao           uint32
	streamBuffer  uint32

	fixedSerial  uint64
	clearColor   common.Color
	viewport     common.Rect
	mainViewport common.Rect
	bound        *renderer.MeshBuffer
	boundTexture int
	attribs      uint32
	clientArrays uint32
	saved2D      saved2DState
	closed       bool
}

var _ renderer.RenderSystem = &renderSystem{}

// NewRenderSystem creates an OpenGL render system on the current context.
//
// Parameters:
//   - fns: the GL function table of the current context
//   - profile: the context profile; ignored for ES function tables, which force ProfileES
//   - options: variadic list of RenderSystemBuilderOption functions
//
// Returns:
//   - renderer.RenderSystem: the render system
//   - error: an error if the functions could not be loaded or the built-in programs failed
func NewRenderSystem(fns Functions, profile Profile, options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	if fns == nil {
		return nil, errors.New("opengl: nil function table")
	}
	if err := fns.Init(); err != nil {
		return nil, fmt.Errorf("failed to load OpenGL functions: %w", err)
	}
	backend := renderer.BackendOpenGL
	if fns.ES() {
		profile = ProfileES
		backend = renderer.BackendOpenGLES
	}

	r := &renderSystem{
		gl:            fns,
		profile:       profile,
		vertexBuffers: renderer.NewResourceTable[glBuffer](renderer.HandleVertexBuffer),
		indexBuffers:  renderer.NewResourceTable[glBuffer](renderer.HandleIndexBuffer),
		textures:      renderer.NewResourceTable[glTexture](renderer.HandleTexture),
		shaders:       renderer.NewResourceTable[glShader](renderer.HandleShader),
		programs:      renderer.NewResourceTable[*glProgram](renderer.HandleShaderClass),
		queries:       renderer.NewResourceTable[glQuery](renderer.HandleQuery),
	}
	r.Base = renderer.NewBase(backend, renderer.ApplyOptions(options...), r)
	r.info = glInfo{
		renderer: fns.GetString(glRenderer),
		vendor:   fns.GetString(glVendor),
		version:  fns.GetString(glVersion),
	}
	r.SetCaps(r.queryCaps())

	if err := r.createBuiltins(); err != nil {
		r.deleteBuiltins()
		return nil, fmt.Errorf("failed to create built-in programs: %w", err)
	}
	r.mainViewport = common.NewRect(common.Point2{}, r.ScreenSize())
	r.viewport = r.mainViewport
	r.clearColor = r.Settings().ClearColor
	r.restoreState(material.NewMaterial())

	caps := r.Caps()
	common.Logger().Info("OpenGL render system created",
		"renderer", r.info.renderer,
		"version", r.info.version,
		"profile", profile,
		"maxTextureSize", caps.MaxTextureSize,
	)
	return r, nil
}

func (r *renderSystem) fixedFunction() bool {
	return r.profile == ProfileCompatibility
}

func (r *renderSystem) queryCaps() renderer.Caps {
	var c renderer.Caps
	c.BottomLeftOrigin = true
	c.MaxTextureSize = int(r.gl.GetInteger(glMaxTexSize))
	c.MaxTextureLayers = min(int(r.gl.GetInteger(glMaxTexImageUnits)), maxTextureUnits)
	c.MaxMultiSamples = int(r.gl.GetInteger(glMaxSamples))
	c.MaxAnisotropy = int(r.gl.GetInteger(glMaxTexMaxAnisotropy))
	c.Enable(
		renderer.FeatureHardwareMeshBuffer,
		renderer.FeatureRenderTarget,
		renderer.FeatureMultiTexture,
		renderer.FeatureQuery,
		renderer.FeatureShader,
		renderer.FeatureMipMaps,
		renderer.FeatureStencilBuffer,
		renderer.FeatureTriangleFan,
	)
	if c.MaxAnisotropy > 1 {
		c.Enable(renderer.FeatureAnisotropicFilter)
	}

	switch r.profile {
	case ProfileES:
		c.Substitution = renderer.SubstituteAlways
		c.RequiresPowerOfTwo = true
		c.MaxLights = renderer.MaxFixedLights
		c.MaxClipPlanes = renderer.MaxFixedClipPlanes
	case ProfileCore:
		c.Enable(renderer.FeatureNonPowerOfTwo, renderer.FeatureClipPlanes)
		c.Substitution = renderer.SubstituteNonPowerOfTwo
		c.MaxLights = renderer.MaxFixedLights
		c.MaxClipPlanes = int(r.gl.GetInteger(glMaxClipPlanes))
	default:
		c.Enable(renderer.FeatureNonPowerOfTwo, renderer.FeatureClipPlanes, renderer.FeatureFixedFunction)
		c.Substitution = renderer.SubstituteNonPowerOfTwo
		c.MaxLights = int(r.gl.GetInteger(glMaxLights))
		c.MaxClipPlanes = int(r.gl.GetInteger(glMaxClipPlanes))
	}
	return c
}

// restoreState submits the complete engine-side state to a fresh context.
func (r *renderSystem) restoreState(m material.Material) {
	r.gl.PixelStorei(glUnpackAlign, 1)
	if r.vao != 0 {
		r.gl.BindVertexArray(r.vao)
	}
	r.SetClearColor(r.clearColor)
	r.SetClearStencil(0)
	r.SetColorMask(true, true, true, true)
	r.SetDepthRange(0, 1)
	r.SetFrontFace(renderer.FrontFaceCounterClockwise)
	r.SetupMaterialStates(m, true)
	r.applyViewport()
	r.MarkFixedDirty()

	if !r.fixedFunction() {
		return
	}
	r.gl.ColorMaterial(glFrontAndBack, glAmbientAndDiffuse)
	r.gl.LightModelfv(glLightModelAmb, r.GlobalAmbient().Float4())
	r.loadMatrix(glProjection, r.Matrix(renderer.MatrixProjection))
	r.loadMatrix(glTextureMatrix, r.Matrix(renderer.MatrixTexture))
	for i := 0; i < r.MaxLightCount(); i++ {
		r.applyLight(i)
	}
	for i := 0; i < renderer.MaxFixedClipPlanes; i++ {
		if plane, enabled := r.ClipPlane(i); enabled {
			r.applyClipPlane(i, plane, enabled)
		}
	}
	r.applyFog()
	r.loadModelView()
}

func (r *renderSystem) Renderer() string {
	return r.info.renderer
}

func (r *renderSystem) Vendor() string {
	return r.info.vendor
}

func (r *renderSystem) Version() string {
	return r.info.version
}

func (r *renderSystem) Resize(size common.Size2) {
	if !size.Valid() {
		return
	}
	r.SetScreenSize(size)
	r.mainViewport = common.NewRect(common.Point2{}, size)
	if r.RenderTarget() == nil {
		r.viewport = r.mainViewport
		r.applyViewport()
	}
}

func (r *renderSystem) BeginFrame() {
	if r.RenderTarget() == nil {
		r.applyViewport()
	}
}

func (r *renderSystem) EndFrame() {
	if r.Drawing2D() {
		r.EndDrawing2D()
	}
	r.gl.Flush()
	r.CountFrame()
}

func (r *renderSystem) ClearBuffers(flags renderer.ClearFlags) {
	var mask uint32
	if flags&renderer.ClearColor != 0 {
		mask |= glColorBufferBit
	}
	if flags&renderer.ClearStencil != 0 {
		mask |= glStencilBufferBit
	}
	if flags&renderer.ClearDepth != 0 {
		mask |= glDepthBufferBit
		// glClear honours the depth mask
		if write, _ := r.state.depthMask.Value(); !write {
			r.SetDepthMask(true)
			defer r.SetDepthMask(false)
		}
	}
	if mask != 0 {
		r.gl.Clear(mask)
	}
}

func (r *renderSystem) SetClearColor(c common.Color) {
	r.clearColor = c
	r.Track(r.state.clearColor.Set(c, func(c common.Color) {
		f := c.Float4()
		r.gl.ClearColor(f[0], f[1], f[2], f[3])
	}))
}

func (r *renderSystem) SetClearStencil(stencil uint32) {
	r.Track(r.state.clearStencil.Set(int32(stencil), r.gl.ClearStencil))
}

func (r *renderSystem) SetColorMask(red, green, blue, alpha bool) {
	r.Track(r.state.colorMask.Set([4]bool{red, green, blue, alpha}, func(m [4]bool) {
		r.gl.ColorMask(m[0], m[1], m[2], m[3])
	}))
}

func (r *renderSystem) SetDepthMask(write bool) {
	r.Track(r.state.depthMask.Set(write, r.gl.DepthMask))
}

func (r *renderSystem) SetDepthRange(near, far float32) {
	r.Track(r.state.depthRange.Set([2]float32{near, far}, func(v [2]float32) {
		r.gl.DepthRange(float64(v[0]), float64(v[1]))
	}))
}

func (r *renderSystem) SetAntiAlias(enable bool) {
	r.StoreRenderState(renderer.RenderStateMultisample, boolInt(enable))
	r.setCap(glMultisample, enable)
}

func (r *renderSystem) SetShadeMode(mode material.ShadeMode) {
	if !r.fixedFunction() {
		return
	}
	value := uint32(glSmooth)
	if mode == material.ShadeFlat {
		value = glFlat
	}
	r.Track(r.state.shadeModel.Set(value, r.gl.ShadeModel))
}

func (r *renderSystem) SetFrontFace(face renderer.FrontFace) {
	value := uint32(glCCW)
	if face == renderer.FrontFaceClockwise {
		value = glCW
	}
	r.Track(r.state.frontFace.Set(value, r.gl.FrontFace))
}

func (r *renderSystem) SetLineSize(size float32) {
	r.Track(r.state.lineWidth.Set(size, r.gl.LineWidth))
}

func (r *renderSystem) SetPointSize(size float32) {
	r.Track(r.state.pointSize.Set(size, r.gl.PointSize))
}

func (r *renderSystem) SetStencilMask(mask uint32) {
	r.Track(r.state.stencilMask.Set(mask, r.gl.StencilMask))
}

func (r *renderSystem) SetStencilMethod(fn material.CompareFunc, ref int32, mask uint32) {
	r.Track(r.state.stencilFunc.Set(stencilFunc{fn: compareFuncs[fn], ref: ref, mask: mask}, func(s stencilFunc) {
		r.gl.StencilFunc(s.fn, s.ref, s.mask)
	}))
}

func (r *renderSystem) SetStencilOperation(fail, zfail, zpass material.StencilOp) {
	op := stencilOp{fail: stencilOps[fail], zfail: stencilOps[zfail], zpass: stencilOps[zpass]}
	r.Track(r.state.stencilOp.Set(op, func(s stencilOp) {
		r.gl.StencilOp(s.fail, s.zfail, s.zpass)
	}))
}

// setCap toggles a capability through the cache, skipping capabilities the context lacks.
func (r *renderSystem) setCap(cap uint32, on bool) {
	if fixedFunctionCaps[cap] && !r.fixedFunction() {
		return
	}
	if desktopCaps[cap] && r.profile == ProfileES {
		return
	}
	r.Track(r.state.capability(cap).Set(on, func(on bool) {
		if on {
			r.gl.Enable(cap)
		} else {
			r.gl.Disable(cap)
		}
	}))
}

func (r *renderSystem) SetRenderState(state renderer.RenderState, value int32) {
	if !r.StoreRenderState(state, value) {
		return
	}
	if state == renderer.RenderStateFog {
		r.setCap(glFog, r.FogActive())
		return
	}
	if cap, ok := renderStateCaps[state]; ok {
		r.setCap(cap, value != 0)
	}
}

func (r *renderSystem) SetBlending(src, dst material.BlendFactor) {
	r.Track(r.state.blend.Set(blendFunc{src: blendFactors[src], dst: blendFactors[dst]}, func(b blendFunc) {
		r.gl.BlendFunc(b.src, b.dst)
	}))
}

func (r *renderSystem) SetupMaterialStates(m material.Material, forced bool) {
	if m == nil {
		return
	}
	if forced {
		r.state.invalidateMaterial()
	}
	st := m.States()

	r.SetRenderState(renderer.RenderStateBlending, boolInt(st.BlendEnabled))
	r.SetBlending(st.BlendSource, st.BlendTarget)

	r.SetRenderState(renderer.RenderStateDepthTest, boolInt(st.DepthTest))
	r.Track(r.state.depthFunc.Set(compareFuncs[st.DepthFunc], r.gl.DepthFunc))
	r.SetDepthMask(st.DepthWrite)

	r.SetRenderState(renderer.RenderStateCullFace, boolInt(st.Culling != material.CullNone))
	if st.Culling != material.CullNone {
		face := uint32(glBack)
		if st.Culling == material.CullFront {
			face = glFront
		}
		r.Track(r.state.cullFace.Set(face, r.gl.CullFace))
	}

	r.SetShadeMode(st.Shading)
	if r.profile != ProfileES {
		mode := uint32(glFill)
		switch st.PolygonMode {
		case material.PolygonWireframe:
			mode = glLine
		case material.PolygonPoints:
			mode = glPoint
		}
		r.Track(r.state.polygonMode.Set(mode, func(mode uint32) {
			r.gl.PolygonMode(glFrontAndBack, mode)
		}))
	}

	r.SetRenderState(renderer.RenderStateLighting, boolInt(st.Lighting))
	r.SetRenderState(renderer.RenderStateFog, boolInt(st.Fog))
	r.SetRenderState(renderer.RenderStateColorMaterial, boolInt(st.ColorMaterial))
	r.SetAntiAlias(st.AntiAlias)

	r.SetRenderState(renderer.RenderStateStencil, boolInt(st.Stencil.Enabled))
	r.SetStencilMethod(st.Stencil.Func, st.Stencil.Ref, st.Stencil.ReadMask)
	r.SetStencilOperation(st.Stencil.Fail, st.Stencil.ZFail, st.Stencil.ZPass)
	r.SetStencilMask(st.Stencil.WriteMask)

	r.StoreMaterial(m)
	if r.fixedFunction() {
		r.applyMaterialColors(m)
	}
}

func (r *renderSystem) SetClipping(enable bool, pos common.Point2, size common.Size2) {
	r.SetRenderState(renderer.RenderStateScissor, boolInt(enable))
	if !enable {
		return
	}
	rect := r.NativeRect(common.NewRect(pos, size))
	r.Track(r.state.scissor.Set(rect, func(rc common.Rect) {
		r.gl.Scissor(int32(rc.Left), int32(rc.Top), int32(rc.Width()), int32(rc.Height()))
	}))
}

func (r *renderSystem) SetViewport(pos common.Point2, size common.Size2) {
	r.viewport = common.NewRect(pos, size)
	if r.RenderTarget() == nil {
		r.mainViewport = r.viewport
	}
	r.applyViewport()
}

func (r *renderSystem) Viewport() common.Rect {
	return r.viewport
}

func (r *renderSystem) applyViewport() {
	rect := r.NativeRect(r.viewport)
	r.Track(r.state.viewport.Set(rect, func(rc common.Rect) {
		r.gl.Viewport(int32(rc.Left), int32(rc.Top), int32(rc.Width()), int32(rc.Height()))
	}))
}

// Close deletes every native object. The registered textures are unregistered and their handles
// invalidated.
func (r *renderSystem) Close() {
	if r.closed {
		return
	}
	r.ReleaseAllResources()
	for _, tex := range r.Registry().Clear() {
		tex.SetHandle(renderer.InvalidHandle)
	}
	r.closed = true
	common.Logger().Info("OpenGL render system closed")
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
