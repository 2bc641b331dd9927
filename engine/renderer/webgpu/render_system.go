// Package webgpu implements renderer.RenderSystem on top of WebGPU. WebGPU bakes blending,
// depth-stencil and rasterization state into immutable pipelines: the render system keeps the
// engine-side state in plain fields and looks the matching pipeline up in a pipeline.Cache before
// every draw. Meshes drawn without a shader class use a built-in WGSL shader that reads the
// fixed-function state from a uniform buffer.
package webgpu

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

type gpuVertexBuffer struct {
	native Buffer
	size   int
	format *renderer.VertexFormat
}

type gpuIndexBuffer struct {
	native Buffer
	size   int
	format renderer.IndexFormat
}

type gpuTexture struct {
	native    Texture
	view      TextureView
	depth     Texture
	depthView TextureView
	tex       *renderer.Texture
}

type gpuShader struct {
	module ShaderModule
	stage  renderer.ShaderType
	source string
	entry  string
}

// shaderProgram is the pair of shader stages a pipeline runs.
type shaderProgram struct {
	label         string
	vertex        ShaderModule
	vertexEntry   string
	fragment      ShaderModule
	fragmentEntry string
}

type gpuProgram struct {
	class   *renderer.ShaderClass
	program *shaderProgram
	layout  *VertexLayout
}

// layoutKey identifies a vertex layout of the built-in mesh shader.
type layoutKey struct {
	format *renderer.VertexFormat
	mask   uint8
}

// DeviceReplacer is implemented by the WebGPU render system. A lost device cannot be recovered: the
// render context releases all resources, requests a new device, hands it over with ReplaceDevice and
// then calls RecreateAllResources.
type DeviceReplacer interface {
	ReplaceDevice(dev Device)
}

type renderSystem struct {
	*renderer.Base

	dev     Device
	info    AdapterInfo
	builtin builtins

	vertexBuffers *renderer.ResourceTable[gpuVertexBuffer]
	indexBuffers  *renderer.ResourceTable[gpuIndexBuffer]
	textures      *renderer.ResourceTable[gpuTexture]
	shaders       *renderer.ResourceTable[gpuShader]
	programs      *renderer.ResourceTable[*gpuProgram]

	pipelines     *pipeline.Cache[Pipeline]
	layouts       map[layoutKey]*VertexLayout
	samplers      map[SamplerDesc]Sampler
	textureGroups map[textureGroupKey]BindGroup

	pass  passState
	frame frameState

	// engine-side pipeline state, baked into a pipeline at draw time
	blendSrc     wgpu.BlendFactor
	blendDst     wgpu.BlendFactor
	writeMask    wgpu.ColorWriteMask
	depthWrite   bool
	depthFunc    wgpu.CompareFunction
	stencil      wgpu.StencilFaceState
	stencilRead  uint32
	stencilWrite uint32
	stencilRef   uint32
	culling      material.FaceCulling
	frontFace    renderer.FrontFace

	clearColor   common.Color
	clearStencil uint32
	depthRange   [2]float32
	viewport     common.Rect
	mainViewport common.Rect
	scissor      common.Rect

	slots         textureGroupKey
	slotTextures  [maxTextureSlots]Texture
	boundTextures int
	bound         *renderer.MeshBuffer
	saved2D       saved2DState
	closed        bool
}

var (
	_ renderer.RenderSystem = &renderSystem{}
	_ DeviceReplacer        = &renderSystem{}
)

// NewRenderSystem creates a WebGPU render system on a created device.
//
// Parameters:
//   - dev: the device
//   - options: variadic list of RenderSystemBuilderOption functions
//
// Returns:
//   - renderer.RenderSystem: the render system
//   - error: an error if the built-in resources could not be created
func NewRenderSystem(dev Device, options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	if dev == nil {
		return nil, errors.New("webgpu: nil device")
	}
	r := &renderSystem{
		dev:           dev,
		vertexBuffers: renderer.NewResourceTable[gpuVertexBuffer](renderer.HandleVertexBuffer),
		indexBuffers:  renderer.NewResourceTable[gpuIndexBuffer](renderer.HandleIndexBuffer),
		textures:      renderer.NewResourceTable[gpuTexture](renderer.HandleTexture),
		shaders:       renderer.NewResourceTable[gpuShader](renderer.HandleShader),
		programs:      renderer.NewResourceTable[*gpuProgram](renderer.HandleShaderClass),
		layouts:       make(map[layoutKey]*VertexLayout),
		samplers:      make(map[SamplerDesc]Sampler),
		textureGroups: make(map[textureGroupKey]BindGroup),
		depthRange:    [2]float32{0, 1},
		culling:       material.CullBack,
	}
	r.Base = renderer.NewBase(renderer.BackendWebGPU, renderer.ApplyOptions(options...), r)
	r.pipelines = pipeline.NewCache(r.createPipeline)
	r.adoptDevice(dev)

	if err := r.createBuiltins(); err != nil {
		r.releaseBuiltins()
		return nil, fmt.Errorf("webgpu: %w", err)
	}
	r.mainViewport = common.NewRect(common.Point2{}, r.ScreenSize())
	r.viewport = r.mainViewport
	r.clearColor = r.Settings().ClearColor
	r.restoreState(material.NewMaterial())

	caps := r.Caps()
	common.Logger().Info("WebGPU render system created",
		"adapter", r.info.Name,
		"backend", r.info.Backend,
		"samples", dev.SampleCount(),
		"maxTextureSize", caps.MaxTextureSize,
	)
	return r, nil
}

// adoptDevice reads the adapter and capabilities of dev.
func (r *renderSystem) adoptDevice(dev Device) {
	r.dev = dev
	r.info = dev.Adapter()
	r.SetCaps(r.queryCaps())
}

// ReplaceDevice switches to a new device after the previous one was lost. Call it between
// ReleaseAllResources and RecreateAllResources.
func (r *renderSystem) ReplaceDevice(dev Device) {
	if dev == nil {
		return
	}
	r.adoptDevice(dev)
	r.pass = passState{}
	r.frame = frameState{}
}

func (r *renderSystem) queryCaps() renderer.Caps {
	var c renderer.Caps
	c.MaxTextureSize = int(r.info.MaxTexture)
	if c.MaxTextureSize == 0 {
		c.MaxTextureSize = 8192
	}
	c.MaxTextureLayers = maxTextureSlots
	c.MaxLights = renderer.MaxFixedLights
	c.MaxClipPlanes = renderer.MaxFixedClipPlanes
	c.MaxMultiSamples = int(max(r.info.MaxSamples, 1))
	c.MaxAnisotropy = 1
	if r.info.Anisotropic {
		c.MaxAnisotropy = 16
	}
	c.Substitution = renderer.SubstituteAlways
	c.Enable(
		renderer.FeatureHardwareMeshBuffer,
		renderer.FeatureNonPowerOfTwo,
		renderer.FeatureRenderTarget,
		renderer.FeatureMultiTexture,
		renderer.FeatureShader,
		renderer.FeatureMipMaps,
		renderer.FeatureStencilBuffer,
		renderer.FeatureClipPlanes,
	)
	if r.info.Anisotropic {
		c.Enable(renderer.FeatureAnisotropicFilter)
	}
	return c
}

// restoreState resets the engine-side pipeline state to the state of m.
func (r *renderSystem) restoreState(m material.Material) {
	r.writeMask = wgpu.ColorWriteMaskAll
	r.stencil = wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
	r.stencilRead, r.stencilWrite = 0xff, 0xff
	r.SetDepthRange(r.depthRange[0], r.depthRange[1])
	r.SetupMaterialStates(m, true)
	r.MarkFixedDirty()
}

// check logs a failed device call. WebGPU reports validation errors per call; a lost device
// surfaces at Present, where the render context handles it.
func (r *renderSystem) check(call string, err error) {
	if err != nil {
		common.Logger().Debug("WebGPU call failed", "call", call, "error", err)
	}
}

func (r *renderSystem) Renderer() string {
	return r.info.Name
}

func (r *renderSystem) Vendor() string {
	return r.info.Vendor
}

func (r *renderSystem) Version() string {
	return "WebGPU (" + r.info.Backend + ")"
}

// Resize submits the recorded work for the old surface size. The render context reconfigures the
// surface afterwards.
func (r *renderSystem) Resize(size common.Size2) {
	if !size.Valid() {
		return
	}
	r.flush()
	r.SetScreenSize(size)
	r.mainViewport = common.NewRect(common.Point2{}, size)
	if r.RenderTarget() == nil {
		r.viewport = r.mainViewport
	}
}

func (r *renderSystem) BeginFrame() {
	r.frame.surfaceDrawn = false
}

// EndFrame submits the frame. A frame that never drew to the surface still runs one surface pass
// so that pending clears reach the presented texture.
func (r *renderSystem) EndFrame() {
	if r.Drawing2D() {
		r.EndDrawing2D()
	}
	if r.RenderTarget() == nil && (!r.frame.surfaceDrawn || r.frame.clear.flags != 0) {
		r.ensurePass()
	}
	r.flush()
	r.frame.surfaceDrawn = false
	r.CountFrame()
}

// ClearBuffers records a clear of the current target. WebGPU clears when a pass begins, so the open
// pass is ended and the next pass on this target loads with a clear.
func (r *renderSystem) ClearBuffers(flags renderer.ClearFlags) {
	if flags&renderer.ClearAll == 0 {
		return
	}
	r.endPass()
	c := &r.frame.clear
	c.target = r.RenderTarget()
	c.flags |= flags & renderer.ClearAll
	if flags&renderer.ClearColor != 0 {
		f := r.clearColor.Float4()
		c.color = [4]float64{float64(f[0]), float64(f[1]), float64(f[2]), float64(f[3])}
	}
	if flags&renderer.ClearStencil != 0 {
		c.stencil = r.clearStencil
	}
}

func (r *renderSystem) SetClearColor(c common.Color) {
	r.clearColor = c
}

func (r *renderSystem) SetClearStencil(stencil uint32) {
	r.clearStencil = stencil
}

func (r *renderSystem) SetColorMask(red, green, blue, alpha bool) {
	var mask wgpu.ColorWriteMask
	if red {
		mask |= wgpu.ColorWriteMaskRed
	}
	if green {
		mask |= wgpu.ColorWriteMaskGreen
	}
	if blue {
		mask |= wgpu.ColorWriteMaskBlue
	}
	if alpha {
		mask |= wgpu.ColorWriteMaskAlpha
	}
	r.writeMask = mask
}

func (r *renderSystem) SetDepthMask(write bool) {
	r.depthWrite = write
}

// SetDepthRange maps depth through the viewport, which carries the depth range in WebGPU.
func (r *renderSystem) SetDepthRange(near, far float32) {
	near = min(max(near, 0), 1)
	far = min(max(far, near), 1)
	r.depthRange = [2]float32{near, far}
}

// SetAntiAlias only records the state: the sample count of a WebGPU target is fixed at creation.
func (r *renderSystem) SetAntiAlias(enable bool) {
	r.SetRenderState(renderer.RenderStateMultisample, boolInt(enable))
}

// SetShadeMode is a no-op: the built-in shader interpolates colors.
func (r *renderSystem) SetShadeMode(material.ShadeMode) {}

func (r *renderSystem) SetFrontFace(face renderer.FrontFace) {
	r.frontFace = face
}

// SetLineSize is a no-op: WebGPU rasterizes lines one pixel wide.
func (r *renderSystem) SetLineSize(float32) {}

// SetPointSize is a no-op: WebGPU rasterizes points one pixel wide.
func (r *renderSystem) SetPointSize(float32) {}

func (r *renderSystem) SetStencilMask(mask uint32) {
	r.stencilWrite = mask
}

func (r *renderSystem) SetStencilMethod(fn material.CompareFunc, ref int32, mask uint32) {
	r.stencil.Compare = compareFuncs[fn]
	r.stencilRead = mask
	r.stencilRef = uint32(ref)
}

func (r *renderSystem) SetStencilOperation(fail, zfail, zpass material.StencilOp) {
	r.stencil.FailOp = stencilOps[fail]
	r.stencil.DepthFailOp = stencilOps[zfail]
	r.stencil.PassOp = stencilOps[zpass]
}

func (r *renderSystem) SetRenderState(state renderer.RenderState, value int32) {
	if !r.StoreRenderState(state, value) {
		return
	}
	if state == renderer.RenderStateColorMaterial {
		fc, _ := r.FixedConstants()
		fc.MaterialParams[1] = float32(value)
		r.MarkFixedDirty()
	}
}

func (r *renderSystem) SetBlending(src, dst material.BlendFactor) {
	r.blendSrc = blendFactors[src]
	r.blendDst = blendFactors[dst]
}

// SetupMaterialStates stores the states of m. Nothing reaches the device until the next draw picks
// its pipeline, so forced only resynchronizes the per-pass bindings.
func (r *renderSystem) SetupMaterialStates(m material.Material, forced bool) {
	if m == nil {
		return
	}
	if forced {
		r.pass.invalidate()
	}
	st := m.States()

	r.SetRenderState(renderer.RenderStateBlending, boolInt(st.BlendEnabled))
	r.SetBlending(st.BlendSource, st.BlendTarget)

	r.SetRenderState(renderer.RenderStateDepthTest, boolInt(st.DepthTest))
	r.depthFunc = compareFuncs[st.DepthFunc]
	r.SetDepthMask(st.DepthWrite)

	if st.Culling != material.CullNone {
		r.culling = st.Culling
	}
	r.SetRenderState(renderer.RenderStateCullFace, boolInt(st.Culling != material.CullNone))

	r.SetShadeMode(st.Shading)
	if st.PolygonMode != material.PolygonSolid {
		common.Logger().Debug("WebGPU has no polygon fill modes, drawing solid", "mode", st.PolygonMode)
	}

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

// targetFormats returns the attachment formats of the current target.
func (r *renderSystem) targetFormats() (color, depth wgpu.TextureFormat, samples uint32) {
	if r.RenderTarget() != nil {
		return wgpu.TextureFormatRGBA8Unorm, surfaceDepthFormat, 1
	}
	return r.dev.SurfaceFormat(), r.dev.DepthFormat(), r.dev.SampleCount()
}

// pipelineState derives the pipeline state of the next draw from the stored render states.
func (r *renderSystem) pipelineState(topology wgpu.PrimitiveTopology, strip wgpu.IndexFormat) pipeline.State {
	culling := r.culling
	if r.RenderState(renderer.RenderStateCullFace) == 0 {
		culling = material.CullNone
	}
	color, depth, samples := r.targetFormats()
	component := wgpu.BlendComponent{SrcFactor: r.blendSrc, DstFactor: r.blendDst, Operation: wgpu.BlendOperationAdd}
	return pipeline.NewState(
		pipeline.WithTopology(topology, strip),
		pipeline.WithCulling(cullMode(culling), frontFace(r.frontFace)),
		pipeline.WithBlend(r.RenderState(renderer.RenderStateBlending) != 0, wgpu.BlendState{Color: component, Alpha: component}),
		pipeline.WithWriteMask(r.writeMask),
		pipeline.WithDepth(r.RenderState(renderer.RenderStateDepthTest) != 0, r.depthWrite, r.depthFunc),
		pipeline.WithStencil(r.RenderState(renderer.RenderStateStencil) != 0, r.stencil, r.stencilRead, r.stencilWrite),
		pipeline.WithTarget(color, depth, samples),
	)
}

func (r *renderSystem) createPipeline(k pipeline.Key) (Pipeline, error) {
	prog := k.Program.(*shaderProgram)
	p, err := r.dev.CreatePipeline(PipelineDesc{
		Label:         prog.label,
		Vertex:        prog.vertex,
		VertexEntry:   prog.vertexEntry,
		Fragment:      prog.fragment,
		FragmentEntry: prog.fragmentEntry,
		Layout:        *k.Layout.(*VertexLayout),
		State:         k.State,
	})
	if err != nil {
		return nil, fmt.Errorf("CreatePipeline(%s): %w", prog.label, err)
	}
	return p, nil
}

// purgePipelines releases the pipelines running prog.
func (r *renderSystem) purgePipelines(prog *shaderProgram) {
	if prog == nil {
		return
	}
	if r.pipelines.Purge(func(k pipeline.Key) bool { return k.Program == prog }) > 0 {
		r.pass.pipeline.Invalidate()
	}
}

func (r *renderSystem) SetClipping(enable bool, pos common.Point2, size common.Size2) {
	r.SetRenderState(renderer.RenderStateScissor, boolInt(enable))
	if enable {
		r.scissor = r.NativeRect(common.NewRect(pos, size))
	}
}

func (r *renderSystem) SetViewport(pos common.Point2, size common.Size2) {
	r.viewport = common.NewRect(pos, size)
	if r.RenderTarget() == nil {
		r.mainViewport = r.viewport
	}
}

func (r *renderSystem) Viewport() common.Rect {
	return r.viewport
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
	common.Logger().Info("WebGPU render system closed")
}
