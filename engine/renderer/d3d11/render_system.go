// Package d3d11 implements renderer.RenderSystem on top of Direct3D 11 at feature levels 9_3 to 11_0.
// Direct3D 11 has no fixed-function pipeline: meshes drawn without a shader class use built-in HLSL
// shaders that read the fixed-function state from a constant buffer.
package d3d11

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

type d3dVertexBuffer struct {
	native  Buffer
	size    int
	dynamic bool
	format  *renderer.VertexFormat
}

type d3dIndexBuffer struct {
	native  Buffer
	size    int
	dynamic bool
	format  renderer.IndexFormat
}

type d3dTexture struct {
	native   Texture
	view     ShaderResourceView
	target   RenderTargetView
	depthTex Texture
	depth    DepthStencilView
	tex      *renderer.Texture
}

type d3dShader struct {
	native   Shader
	stage    renderer.ShaderType
	bytecode []byte
}

type d3dProgram struct {
	class  *renderer.ShaderClass
	layout InputLayout
}

type d3dQuery struct {
	typ  renderer.QueryType
	main Query
	// end and disjoint are only used by timestamp based elapsed time queries
	end      Query
	disjoint Query
}

// layoutKey identifies an input layout of the built-in mesh shader.
type layoutKey struct {
	format *renderer.VertexFormat
	mask   uint8
}

// DeviceReplacer is implemented by the Direct3D 11 render system. A removed device cannot be reset:
// the render context releases all resources, creates a new device, hands it over with
// ReplaceDevice and then calls RecreateAllResources.
type DeviceReplacer interface {
	ReplaceDevice(dev Device)
}

type renderSystem struct {
	*renderer.Base

	dev     Device
	info    AdapterInfo
	level   uint32
	state   d3dState
	objects stateObjects
	builtin builtins

	vertexBuffers *renderer.ResourceTable[d3dVertexBuffer]
	indexBuffers  *renderer.ResourceTable[d3dIndexBuffer]
	textures      *renderer.ResourceTable[d3dTexture]
	shaders       *renderer.ResourceTable[d3dShader]
	programs      *renderer.ResourceTable[*d3dProgram]
	queries       *renderer.ResourceTable[d3dQuery]
	layouts       map[layoutKey]InputLayout

	backBuffer RenderTargetView
	backDepth  DepthStencilView

	// pending state objects, bound before the next draw
	blend        BlendDesc
	depthStencil DepthStencilDesc
	stencilRef   uint32
	rasterizer   RasterizerDesc

	fixedSerial    uint64
	uploadedSerial uint64
	clearColor     common.Color
	clearStencil   uint32
	depthRange     [2]float32
	viewport       common.Rect
	mainViewport   common.Rect
	culling        material.FaceCulling
	frontFace      renderer.FrontFace
	bound          *renderer.MeshBuffer
	boundTextures  int
	saved2D        saved2DState
	closed         bool
}

var (
	_ renderer.RenderSystem = &renderSystem{}
	_ DeviceReplacer        = &renderSystem{}
)

// NewRenderSystem creates a Direct3D 11 render system on a created device.
//
// Parameters:
//   - dev: the device
//   - options: variadic list of RenderSystemBuilderOption functions
//
// Returns:
//   - renderer.RenderSystem: the render system
//   - error: an error if the built-in shaders could not be created
func NewRenderSystem(dev Device, options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	if dev == nil {
		return nil, errors.New("d3d11: nil device")
	}
	r := &renderSystem{
		dev:           dev,
		objects:       newStateObjects(),
		vertexBuffers: renderer.NewResourceTable[d3dVertexBuffer](renderer.HandleVertexBuffer),
		indexBuffers:  renderer.NewResourceTable[d3dIndexBuffer](renderer.HandleIndexBuffer),
		textures:      renderer.NewResourceTable[d3dTexture](renderer.HandleTexture),
		shaders:       renderer.NewResourceTable[d3dShader](renderer.HandleShader),
		programs:      renderer.NewResourceTable[*d3dProgram](renderer.HandleShaderClass),
		queries:       renderer.NewResourceTable[d3dQuery](renderer.HandleQuery),
		layouts:       make(map[layoutKey]InputLayout),
		depthRange:    [2]float32{0, 1},
		culling:       material.CullBack,
	}
	r.Base = renderer.NewBase(renderer.BackendDirect3D11, renderer.ApplyOptions(options...), r)
	r.adoptDevice(dev)

	if err := r.createBuiltins(); err != nil {
		r.releaseBuiltins()
		return nil, fmt.Errorf("d3d11: %w", err)
	}
	r.mainViewport = common.NewRect(common.Point2{}, r.ScreenSize())
	r.viewport = r.mainViewport
	r.clearColor = r.Settings().ClearColor
	r.restoreState(material.NewMaterial())

	caps := r.Caps()
	common.Logger().Info("Direct3D 11 render system created",
		"adapter", r.info.Description,
		"featureLevel", r.info.Version,
		"maxTextureSize", caps.MaxTextureSize,
	)
	return r, nil
}

// adoptDevice reads the adapter, capabilities and back buffer of dev.
func (r *renderSystem) adoptDevice(dev Device) {
	r.dev = dev
	r.info = dev.Adapter()
	r.level = dev.FeatureLevel()
	r.SetCaps(r.queryCaps())
	r.backBuffer, r.backDepth = dev.BackBuffer()
}

// ReplaceDevice switches to a new device after the previous one was removed. Call it between
// ReleaseAllResources and RecreateAllResources.
func (r *renderSystem) ReplaceDevice(dev Device) {
	if dev == nil {
		return
	}
	r.adoptDevice(dev)
	r.state.reset()
}

func (r *renderSystem) queryCaps() renderer.Caps {
	var c renderer.Caps
	switch {
	case r.level >= FeatureLevel11_0:
		c.MaxTextureSize = 16384
	case r.level >= FeatureLevel10_0:
		c.MaxTextureSize = 8192
	default:
		c.MaxTextureSize = 4096
	}
	c.MaxTextureLayers = maxTextureSlots
	c.MaxLights = renderer.MaxFixedLights
	c.MaxAnisotropy = 16
	c.MaxMultiSamples = 4
	if r.level >= FeatureLevel10_1 {
		c.MaxMultiSamples = 8
	}
	c.Substitution = renderer.SubstituteAlways
	c.RequiresPowerOfTwo = r.level < FeatureLevel10_0
	c.Enable(
		renderer.FeatureHardwareMeshBuffer,
		renderer.FeatureRenderTarget,
		renderer.FeatureMultiTexture,
		renderer.FeatureShader,
		renderer.FeatureMipMaps,
		renderer.FeatureStencilBuffer,
		renderer.FeatureQuery,
		renderer.FeatureAnisotropicFilter,
	)
	if r.level >= FeatureLevel10_0 {
		c.MaxClipPlanes = renderer.MaxFixedClipPlanes
		c.Enable(renderer.FeatureNonPowerOfTwo, renderer.FeatureClipPlanes)
	}
	return c
}

// restoreState submits the complete engine-side state to a fresh device.
func (r *renderSystem) restoreState(m material.Material) {
	r.blend = BlendDesc{WriteMask: colorWriteAll}
	r.depthStencil = DepthStencilDesc{}
	r.rasterizer = RasterizerDesc{Fill: fillSolid, DepthClip: true}
	r.SetColorMask(true, true, true, true)
	r.SetDepthRange(r.depthRange[0], r.depthRange[1])
	r.SetFrontFace(r.frontFace)
	r.SetupMaterialStates(m, true)
	r.bindTargets(r.currentTargets())
	r.applyViewport()
	r.MarkFixedDirty()
}

// check logs a failed device call. Device calls only fail on invalid arguments or a removed device,
// which the render context detects at Present.
func (r *renderSystem) check(call string, err error) {
	if err != nil {
		common.Logger().Debug("Direct3D 11 call failed", "call", call, "error", err)
	}
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

// Resize picks up the back buffer views of the resized swap chain.
func (r *renderSystem) Resize(size common.Size2) {
	if !size.Valid() {
		return
	}
	r.SetScreenSize(size)
	r.mainViewport = common.NewRect(common.Point2{}, size)
	r.backBuffer, r.backDepth = r.dev.BackBuffer()
	// resizing the swap chain unbinds the old views
	r.state.targets.Invalidate()
	if r.RenderTarget() == nil {
		r.viewport = r.mainViewport
		r.bindTargets(r.currentTargets())
		r.applyViewport()
	}
}

func (r *renderSystem) BeginFrame() {
	if r.RenderTarget() == nil {
		r.bindTargets(r.currentTargets())
		r.applyViewport()
	}
}

func (r *renderSystem) EndFrame() {
	if r.Drawing2D() {
		r.EndDrawing2D()
	}
	r.CountFrame()
}

// currentTargets returns the views of the active render target texture or the back buffer.
func (r *renderSystem) currentTargets() targets {
	if tex := r.RenderTarget(); tex != nil {
		if native, ok := r.textures.Lookup(tex.Handle()); ok && native.target != nil {
			return targets{color: native.target, depth: native.depth}
		}
	}
	return targets{color: r.backBuffer, depth: r.backDepth}
}

func (r *renderSystem) bindTargets(t targets) {
	r.Track(r.state.targets.Set(t, func(t targets) {
		r.dev.OMSetRenderTarget(t.color, t.depth)
	}))
}

// ClearBuffers clears the bound targets. Direct3D 11 clears ignore the viewport and scissor rectangle.
func (r *renderSystem) ClearBuffers(flags renderer.ClearFlags) {
	t := r.currentTargets()
	if flags&renderer.ClearColor != 0 && t.color != nil {
		r.dev.ClearRenderTargetView(t.color, r.clearColor.Float4())
	}
	var mask uint32
	if flags&renderer.ClearDepth != 0 {
		mask |= clearDepth
	}
	if flags&renderer.ClearStencil != 0 {
		mask |= clearStencil
	}
	if mask != 0 && t.depth != nil {
		r.dev.ClearDepthStencilView(t.depth, mask, 1, uint8(r.clearStencil))
	}
}

func (r *renderSystem) SetClearColor(c common.Color) {
	r.clearColor = c
}

func (r *renderSystem) SetClearStencil(stencil uint32) {
	r.clearStencil = stencil
}

func (r *renderSystem) SetColorMask(red, green, blue, alpha bool) {
	var mask uint8
	for i, on := range [4]bool{red, green, blue, alpha} {
		if on {
			mask |= 1 << uint(i)
		}
	}
	r.blend.WriteMask = mask
}

func (r *renderSystem) SetDepthMask(write bool) {
	r.depthStencil.DepthWrite = write
}

func (r *renderSystem) SetDepthRange(near, far float32) {
	r.depthRange = [2]float32{near, far}
	r.applyViewport()
}

func (r *renderSystem) SetAntiAlias(enable bool) {
	r.SetRenderState(renderer.RenderStateMultisample, boolInt(enable))
}

// SetShadeMode is a no-op: the built-in shaders interpolate colors.
func (r *renderSystem) SetShadeMode(material.ShadeMode) {}

func (r *renderSystem) SetFrontFace(face renderer.FrontFace) {
	r.frontFace = face
	r.rasterizer.FrontCounterClockwise = face == renderer.FrontFaceCounterClockwise
}

// SetLineSize is a no-op: Direct3D 11 rasterizes lines one pixel wide.
func (r *renderSystem) SetLineSize(float32) {}

// SetPointSize is a no-op: Direct3D 11 rasterizes points one pixel wide.
func (r *renderSystem) SetPointSize(float32) {}

func (r *renderSystem) SetStencilMask(mask uint32) {
	r.depthStencil.WriteMask = uint8(mask)
}

func (r *renderSystem) SetStencilMethod(fn material.CompareFunc, ref int32, mask uint32) {
	r.depthStencil.StencilFunc = compareFuncs[fn]
	r.depthStencil.ReadMask = uint8(mask)
	r.stencilRef = uint32(ref)
}

func (r *renderSystem) SetStencilOperation(fail, zfail, zpass material.StencilOp) {
	r.depthStencil.Fail = stencilOps[fail]
	r.depthStencil.DepthFail = stencilOps[zfail]
	r.depthStencil.Pass = stencilOps[zpass]
}

func (r *renderSystem) applyCulling() {
	culling := r.culling
	if r.RenderState(renderer.RenderStateCullFace) == 0 {
		culling = material.CullNone
	}
	r.rasterizer.Cull = cullMode(culling)
}

func (r *renderSystem) SetRenderState(state renderer.RenderState, value int32) {
	if !r.StoreRenderState(state, value) {
		return
	}
	on := value != 0
	switch state {
	case renderer.RenderStateBlending:
		r.blend.Enable = on
	case renderer.RenderStateDepthTest:
		r.depthStencil.DepthEnable = on
	case renderer.RenderStateStencil:
		r.depthStencil.StencilEnable = on
	case renderer.RenderStateCullFace:
		r.applyCulling()
	case renderer.RenderStateScissor:
		r.rasterizer.Scissor = on
	case renderer.RenderStateMultisample:
		r.rasterizer.Multisample = on
	case renderer.RenderStateLineSmooth:
		r.rasterizer.AntialiasedLines = on
	case renderer.RenderStateColorMaterial:
		fc, _ := r.FixedConstants()
		fc.MaterialParams[1] = float32(value)
		r.MarkFixedDirty()
	}
}

func (r *renderSystem) SetBlending(src, dst material.BlendFactor) {
	r.blend.Src = blendFactors[src]
	r.blend.Dst = blendFactors[dst]
}

func (r *renderSystem) SetupMaterialStates(m material.Material, forced bool) {
	if m == nil {
		return
	}
	if forced {
		r.state.blend.Invalidate()
		r.state.depthStencil.Invalidate()
		r.state.rasterizer.Invalidate()
	}
	st := m.States()

	r.SetRenderState(renderer.RenderStateBlending, boolInt(st.BlendEnabled))
	r.SetBlending(st.BlendSource, st.BlendTarget)

	r.SetRenderState(renderer.RenderStateDepthTest, boolInt(st.DepthTest))
	r.depthStencil.DepthFunc = compareFuncs[st.DepthFunc]
	r.SetDepthMask(st.DepthWrite)

	if st.Culling != material.CullNone {
		r.culling = st.Culling
	}
	r.SetRenderState(renderer.RenderStateCullFace, boolInt(st.Culling != material.CullNone))
	r.applyCulling()

	r.SetShadeMode(st.Shading)
	r.rasterizer.Fill = fillMode(st.PolygonMode)

	r.SetRenderState(renderer.RenderStateLighting, boolInt(st.Lighting))
	r.SetRenderState(renderer.RenderStateFog, boolInt(st.Fog))
	r.SetAntiAlias(st.AntiAlias)

	r.SetRenderState(renderer.RenderStateStencil, boolInt(st.Stencil.Enabled))
	r.SetStencilMethod(st.Stencil.Func, st.Stencil.Ref, st.Stencil.ReadMask)
	r.SetStencilOperation(st.Stencil.Fail, st.Stencil.ZFail, st.Stencil.ZPass)
	r.SetStencilMask(st.Stencil.WriteMask)

	// StoreMaterial also mirrors the color material flag
	r.StoreMaterial(m)
	r.StoreRenderState(renderer.RenderStateColorMaterial, boolInt(st.ColorMaterial))
}

// flushStates binds the state objects of the pending descriptions.
func (r *renderSystem) flushStates() {
	if s, err := stateObject(r.objects.blend, r.blend, r.dev.CreateBlendState); err == nil {
		r.Track(r.state.blend.Set(s, r.dev.OMSetBlendState))
	} else {
		r.check("CreateBlendState", err)
	}
	if s, err := stateObject(r.objects.depthStencil, r.depthStencil, r.dev.CreateDepthStencilState); err == nil {
		r.Track(r.state.depthStencil.Set(depthStencilBinding{state: s, ref: r.stencilRef}, func(b depthStencilBinding) {
			r.dev.OMSetDepthStencilState(b.state, b.ref)
		}))
	} else {
		r.check("CreateDepthStencilState", err)
	}
	if s, err := stateObject(r.objects.rasterizer, r.rasterizer, r.dev.CreateRasterizerState); err == nil {
		r.Track(r.state.rasterizer.Set(s, r.dev.RSSetState))
	} else {
		r.check("CreateRasterizerState", err)
	}
}

func (r *renderSystem) SetClipping(enable bool, pos common.Point2, size common.Size2) {
	r.SetRenderState(renderer.RenderStateScissor, boolInt(enable))
	if !enable {
		return
	}
	rect := r.NativeRect(common.NewRect(pos, size))
	r.Track(r.state.scissor.Set(rect, r.dev.RSSetScissorRect))
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
		X:        float32(rc.Left),
		Y:        float32(rc.Top),
		Width:    float32(rc.Width()),
		Height:   float32(rc.Height()),
		MinDepth: r.depthRange[0],
		MaxDepth: r.depthRange[1],
	}
	r.Track(r.state.viewport.Set(vp, r.dev.RSSetViewport))
}

// Close releases every native object. The registered textures are unregistered and their handles
// invalidated. The device itself stays owned by the render context.
func (r *renderSystem) Close() {
	if r.closed {
		return
	}
	r.ReleaseAllResources()
	for _, tex := range r.Registry().Clear() {
		tex.SetHandle(renderer.InvalidHandle)
	}
	r.closed = true
	common.Logger().Info("Direct3D 11 render system closed")
}
