// Package d3d9 implements renderer.RenderSystem on top of Direct3D 9. The fixed-function pipeline
// is driven natively; shader classes accept HLSL shader models 2 and 3.
package d3d9

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

type d3dVertexBuffer struct {
	native  VertexBuffer
	size    int
	dynamic bool
	format  *renderer.VertexFormat
}

type d3dIndexBuffer struct {
	native  IndexBuffer
	size    int
	dynamic bool
	format  renderer.IndexFormat
}

type d3dTexture struct {
	native  Texture
	surface Surface
	depth   Surface
	tex     *renderer.Texture
}

type d3dShader struct {
	vs       VertexShader
	ps       PixelShader
	stage    renderer.ShaderType
	bytecode []byte
}

type d3dProgram struct {
	class *renderer.ShaderClass
	decl  VertexDeclaration
	// serial is the fixed-function constant revision last uploaded for this class.
	serial uint64
}

type d3dQuery struct {
	typ  renderer.QueryType
	main Query
	// end and freq are only used by timestamp based elapsed time queries
	end  Query
	freq Query
}

type renderSystem struct {
	*renderer.Base

	dev     Device
	info    AdapterInfo
	devCaps DeviceCaps
	state   d3dState

	vertexBuffers *renderer.ResourceTable[d3dVertexBuffer]
	indexBuffers  *renderer.ResourceTable[d3dIndexBuffer]
	textures      *renderer.ResourceTable[d3dTexture]
	shaders       *renderer.ResourceTable[d3dShader]
	programs      *renderer.ResourceTable[*d3dProgram]
	queries       *renderer.ResourceTable[d3dQuery]
	declarations  map[*renderer.VertexFormat]VertexDeclaration

	backBuffer Surface
	backDepth  Surface

	fixedSerial   uint64
	clearColor    common.Color
	clearStencil  uint32
	depthRange    [2]float32
	viewport      common.Rect
	mainViewport  common.Rect
	culling       material.FaceCulling
	frontFace     renderer.FrontFace
	bound         *renderer.MeshBuffer
	boundTextures int
	inScene       bool
	saved2D       saved2DState
	closed        bool
}

var _ renderer.RenderSystem = &renderSystem{}

// NewRenderSystem creates a Direct3D 9 render system on a created device.
//
// Parameters:
//   - dev: the device
//   - options: variadic list of RenderSystemBuilderOption functions
//
// Returns:
//   - renderer.RenderSystem: the render system
//   - error: an error if the default render target could not be acquired
func NewRenderSystem(dev Device, options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	if dev == nil {
		return nil, errors.New("d3d9: nil device")
	}
	r := &renderSystem{
		dev:           dev,
		vertexBuffers: renderer.NewResourceTable[d3dVertexBuffer](renderer.HandleVertexBuffer),
		indexBuffers:  renderer.NewResourceTable[d3dIndexBuffer](renderer.HandleIndexBuffer),
		textures:      renderer.NewResourceTable[d3dTexture](renderer.HandleTexture),
		shaders:       renderer.NewResourceTable[d3dShader](renderer.HandleShader),
		programs:      renderer.NewResourceTable[*d3dProgram](renderer.HandleShaderClass),
		queries:       renderer.NewResourceTable[d3dQuery](renderer.HandleQuery),
		declarations:  make(map[*renderer.VertexFormat]VertexDeclaration),
		depthRange:    [2]float32{0, 1},
		culling:       material.CullBack,
	}
	r.Base = renderer.NewBase(renderer.BackendDirect3D9, renderer.ApplyOptions(options...), r)
	r.info = dev.Adapter()
	r.devCaps = dev.Caps()
	r.SetCaps(r.queryCaps())

	if err := r.acquireBackBuffer(); err != nil {
		return nil, err
	}
	r.mainViewport = common.NewRect(common.Point2{}, r.ScreenSize())
	r.viewport = r.mainViewport
	r.clearColor = r.Settings().ClearColor
	r.restoreState(material.NewMaterial())

	caps := r.Caps()
	common.Logger().Info("Direct3D 9 render system created",
		"adapter", r.info.Description,
		"driver", r.info.Driver,
		"shaders", r.QueryVideoSupport(renderer.FeatureShader),
		"maxTextureSize", caps.MaxTextureSize,
	)
	return r, nil
}

func (r *renderSystem) acquireBackBuffer() error {
	rt, err := r.dev.RenderTarget()
	if err != nil {
		return fmt.Errorf("failed to get the back buffer: %w", err)
	}
	r.backBuffer = rt
	// devices created without an automatic depth buffer have none
	if depth, err := r.dev.DepthStencilSurface(); err == nil {
		r.backDepth = depth
	}
	return nil
}

func (r *renderSystem) releaseBackBuffer() {
	if r.backBuffer != nil {
		r.backBuffer.Release()
		r.backBuffer = nil
	}
	if r.backDepth != nil {
		r.backDepth.Release()
		r.backDepth = nil
	}
}

func (r *renderSystem) queryCaps() renderer.Caps {
	d := r.devCaps
	var c renderer.Caps
	c.MaxTextureSize = min(d.MaxTextureWidth, d.MaxTextureHeight)
	c.MaxTextureLayers = min(max(d.MaxSimultaneousTextures, 1), maxTextureStages)
	c.MaxLights = min(d.MaxActiveLights, renderer.MaxFixedLights)
	c.MaxClipPlanes = min(d.MaxUserClipPlanes, renderer.MaxFixedClipPlanes)
	c.MaxAnisotropy = d.MaxAnisotropy
	c.MaxMultiSamples = d.MultiSamples
	c.Substitution = renderer.SubstituteAlways
	c.RequiresPowerOfTwo = !d.NonPowerOfTwo
	c.Enable(
		renderer.FeatureHardwareMeshBuffer,
		renderer.FeatureRenderTarget,
		renderer.FeatureFixedFunction,
		renderer.FeatureStencilBuffer,
		renderer.FeatureTriangleFan,
	)
	if c.MaxTextureLayers > 1 {
		c.Enable(renderer.FeatureMultiTexture)
	}
	if d.NonPowerOfTwo {
		c.Enable(renderer.FeatureNonPowerOfTwo)
	}
	if d.AutoGenMipMap {
		c.Enable(renderer.FeatureMipMaps)
	}
	if d.VertexShaderVersion&0xFFFF >= 0x0200 && d.PixelShaderVersion&0xFFFF >= 0x0200 {
		c.Enable(renderer.FeatureShader)
	}
	if d.Occlusion {
		c.Enable(renderer.FeatureQuery)
	}
	if c.MaxClipPlanes > 0 {
		c.Enable(renderer.FeatureClipPlanes)
	}
	if c.MaxAnisotropy > 1 {
		c.Enable(renderer.FeatureAnisotropicFilter)
	}
	return c
}

// restoreState submits the complete engine-side state to a fresh device.
func (r *renderSystem) restoreState(m material.Material) {
	r.setRenderState(rsSpecularEnable, 1)
	r.SetColorMask(true, true, true, true)
	r.SetDepthRange(r.depthRange[0], r.depthRange[1])
	r.SetFrontFace(r.frontFace)
	r.SetupMaterialStates(m, true)
	r.applyViewport()

	r.setRenderState(rsAmbient, r.GlobalAmbient().ARGB())
	r.setTransform(tsProjection, r.Matrix(renderer.MatrixProjection))
	r.setTransform(tsView, r.Matrix(renderer.MatrixView))
	r.setTransform(tsWorld, r.Matrix(renderer.MatrixWorld))
	r.setTransform(tsTexture0, r.Matrix(renderer.MatrixTexture))
	for i := 0; i < r.MaxLightCount(); i++ {
		r.applyLight(i)
	}
	for i := 0; i < r.Caps().MaxClipPlanes; i++ {
		if plane, enabled := r.ClipPlane(i); enabled {
			r.check("SetClipPlane", r.dev.SetClipPlane(i, plane.Normalized().Equation()))
		}
	}
	r.applyClipPlaneMask()
	r.applyFog()
	r.applyTextureStages()
	r.MarkFixedDirty()
}

// check logs a failed device call. Device calls only fail on invalid arguments or a lost device,
// which the render context detects at Present.
func (r *renderSystem) check(call string, err error) {
	if err != nil {
		common.Logger().Debug("Direct3D 9 call failed", "call", call, "error", err)
	}
}

// setRenderState changes one D3DRENDERSTATETYPE through the cache.
func (r *renderSystem) setRenderState(state, value uint32) {
	r.Track(r.state.renderState(state).Set(value, func(v uint32) {
		r.check("SetRenderState", r.dev.SetRenderState(state, v))
	}))
}

func (r *renderSystem) Renderer() string {
	return r.info.Description
}

func (r *renderSystem) Vendor() string {
	return r.info.Vendor
}

func (r *renderSystem) Version() string {
	return r.info.Version
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
	if !r.inScene {
		err := r.dev.BeginScene()
		r.check("BeginScene", err)
		r.inScene = err == nil
	}
	if r.RenderTarget() == nil {
		r.applyViewport()
	}
}

func (r *renderSystem) EndFrame() {
	if r.Drawing2D() {
		r.EndDrawing2D()
	}
	if r.inScene {
		r.check("EndScene", r.dev.EndScene())
		r.inScene = false
	}
	r.CountFrame()
}

func (r *renderSystem) ClearBuffers(flags renderer.ClearFlags) {
	var mask uint32
	if flags&renderer.ClearColor != 0 {
		mask |= clearTarget
	}
	if flags&renderer.ClearDepth != 0 {
		mask |= clearZBuffer
	}
	if flags&renderer.ClearStencil != 0 {
		mask |= clearStencil
	}
	if mask == 0 {
		return
	}
	r.check("Clear", r.dev.Clear(mask, r.clearColor.ARGB(), 1, r.clearStencil))
}

// SetClearColor records the clear color. D3D9 passes it with every Clear.
func (r *renderSystem) SetClearColor(c common.Color) {
	r.clearColor = c
}

func (r *renderSystem) SetClearStencil(stencil uint32) {
	r.clearStencil = stencil
}

func (r *renderSystem) SetColorMask(red, green, blue, alpha bool) {
	var mask uint32
	for i, on := range [4]bool{red, green, blue, alpha} {
		if on {
			mask |= 1 << uint(i)
		}
	}
	r.setRenderState(rsColorWriteEnable, mask)
}

func (r *renderSystem) SetDepthMask(write bool) {
	r.setRenderState(rsZWriteEnable, boolValue(write))
}

func (r *renderSystem) SetDepthRange(near, far float32) {
	r.depthRange = [2]float32{near, far}
	r.applyViewport()
}

func (r *renderSystem) SetAntiAlias(enable bool) {
	r.StoreRenderState(renderer.RenderStateMultisample, boolInt(enable))
	r.setRenderState(rsMultisampleAntialias, boolValue(enable))
}

func (r *renderSystem) SetShadeMode(mode material.ShadeMode) {
	value := uint32(shadeGouraud)
	if mode == material.ShadeFlat {
		value = shadeFlat
	}
	r.setRenderState(rsShadeMode, value)
}

func (r *renderSystem) SetFrontFace(face renderer.FrontFace) {
	r.frontFace = face
	r.applyCulling()
}

// SetLineSize is a no-op: Direct3D 9 rasterizes lines one pixel wide.
func (r *renderSystem) SetLineSize(float32) {}

func (r *renderSystem) SetPointSize(size float32) {
	if limit := r.devCaps.MaxPointSize; limit > 0 {
		size = min(size, limit)
	}
	r.setRenderState(rsPointSize, floatBits(size))
}

func (r *renderSystem) SetStencilMask(mask uint32) {
	r.setRenderState(rsStencilWriteMask, mask)
}

func (r *renderSystem) SetStencilMethod(fn material.CompareFunc, ref int32, mask uint32) {
	r.setRenderState(rsStencilFunc, compareFuncs[fn])
	r.setRenderState(rsStencilRef, uint32(ref))
	r.setRenderState(rsStencilMask, mask)
}

func (r *renderSystem) SetStencilOperation(fail, zfail, zpass material.StencilOp) {
	r.setRenderState(rsStencilFail, stencilOps[fail])
	r.setRenderState(rsStencilZFail, stencilOps[zfail])
	r.setRenderState(rsStencilPass, stencilOps[zpass])
}

// applyCulling derives D3DRS_CULLMODE from the cull-face state, the culled face and the winding.
func (r *renderSystem) applyCulling() {
	culling := r.culling
	if r.RenderState(renderer.RenderStateCullFace) == 0 {
		culling = material.CullNone
	}
	r.setRenderState(rsCullMode, cullMode(culling, r.frontFace))
}

func (r *renderSystem) SetRenderState(state renderer.RenderState, value int32) {
	if !r.StoreRenderState(state, value) {
		return
	}
	switch state {
	case renderer.RenderStateFog:
		r.setRenderState(rsFogEnable, boolValue(r.FogActive()))
	case renderer.RenderStateDepthTest:
		r.setRenderState(rsZEnable, boolValue(value != 0))
	case renderer.RenderStateScissor:
		r.setRenderState(rsScissorTestEnable, boolValue(value != 0))
	case renderer.RenderStateCullFace:
		r.applyCulling()
	case renderer.RenderStateTexture:
		r.applyTextureStages()
	case renderer.RenderStateColorMaterial:
		source := uint32(mcsMaterial)
		if value != 0 {
			source = mcsColor1
		}
		r.setRenderState(rsColorVertex, boolValue(value != 0))
		r.setRenderState(rsDiffuseMaterialSource, source)
		r.setRenderState(rsAmbientMaterialSource, source)
	default:
		if rs, ok := booleanStates[state]; ok {
			r.setRenderState(rs, boolValue(value != 0))
		}
	}
}

func (r *renderSystem) SetBlending(src, dst material.BlendFactor) {
	r.setRenderState(rsSrcBlend, blendFactors[src])
	r.setRenderState(rsDestBlend, blendFactors[dst])
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
	r.setRenderState(rsZFunc, compareFuncs[st.DepthFunc])
	r.SetDepthMask(st.DepthWrite)

	if st.Culling != material.CullNone {
		r.culling = st.Culling
	}
	r.SetRenderState(renderer.RenderStateCullFace, boolInt(st.Culling != material.CullNone))
	r.applyCulling()

	r.SetShadeMode(st.Shading)
	r.setRenderState(rsFillMode, fillMode(st.PolygonMode))

	r.SetRenderState(renderer.RenderStateLighting, boolInt(st.Lighting))
	r.SetRenderState(renderer.RenderStateFog, boolInt(st.Fog))
	r.SetRenderState(renderer.RenderStateColorMaterial, boolInt(st.ColorMaterial))
	r.SetAntiAlias(st.AntiAlias)

	r.SetRenderState(renderer.RenderStateStencil, boolInt(st.Stencil.Enabled))
	r.SetStencilMethod(st.Stencil.Func, st.Stencil.Ref, st.Stencil.ReadMask)
	r.SetStencilOperation(st.Stencil.Fail, st.Stencil.ZFail, st.Stencil.ZPass)
	r.SetStencilMask(st.Stencil.WriteMask)

	r.StoreMaterial(m)
	r.applyMaterialColors(m)
}

func (r *renderSystem) SetClipping(enable bool, pos common.Point2, size common.Size2) {
	r.SetRenderState(renderer.RenderStateScissor, boolInt(enable))
	if !enable {
		return
	}
	rect := r.NativeRect(common.NewRect(pos, size))
	r.Track(r.state.scissor.Set(rect, func(rc common.Rect) {
		r.check("SetScissorRect", r.dev.SetScissorRect(rc))
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
	rc := r.NativeRect(r.viewport)
	vp := Viewport{
		X:      rc.Left,
		Y:      rc.Top,
		Width:  rc.Width(),
		Height: rc.Height(),
		MinZ:   r.depthRange[0],
		MaxZ:   r.depthRange[1],
	}
	r.Track(r.state.viewport.Set(vp, func(v Viewport) {
		r.check("SetViewport", r.dev.SetViewport(v))
	}))
}

// Close releases every native object. The registered textures are unregistered and their handles
// invalidated.
func (r *renderSystem) Close() {
	if r.closed {
		return
	}
	if r.inScene {
		r.check("EndScene", r.dev.EndScene())
		r.inScene = false
	}
	r.ReleaseAllResources()
	for _, tex := range r.Registry().Clear() {
		tex.SetHandle(renderer.InvalidHandle)
	}
	r.closed = true
	common.Logger().Info("Direct3D 9 render system closed")
}
