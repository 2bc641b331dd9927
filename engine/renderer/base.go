package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// Primitive2DDrawer is implemented by backends to submit the vertices generated by Base's 2D
// drawing functions.
type Primitive2DDrawer interface {
	// DrawPrimitive2D draws vertices in engine screen coordinates.
	//
	// Parameters:
	//   - primitive: the topology
	//   - vertices: the vertices
	//   - tex: the texture, or nil for untextured drawing
	DrawPrimitive2D(primitive PrimitiveType, vertices []Vertex2D, tex *Texture)
}

type lightSlot struct {
	desc    LightDesc
	enabled bool
}

type clipPlaneSlot struct {
	plane   common.Plane
	enabled bool
}

// Base carries the backend-independent part of a RenderSystem: the texture registry, stored
// matrices, fog, lights and clip planes, frame statistics and the 2D vertex generators. Backends
// embed *Base and implement the native half of the contract.
type Base struct {
	backend  BackendType
	settings Settings
	caps     Caps
	drawer   Primitive2DDrawer
	textures *TextureRegistry

	screen       common.Size2
	invertScreen bool
	renderTarget *Texture
	shaderClass  *ShaderClass
	drawing2D    bool

	matrices      [matrixTypeCount][16]float32
	renderStates  [renderStateCount]int32
	fog           FogState
	globalAmbient common.Color
	lights        [MaxFixedLights]lightSlot
	clipPlanes    [MaxFixedClipPlanes]clipPlaneSlot

	fixed      FixedFunctionConstants
	fixedDirty bool

	stats FrameStats
}

// NewBase creates the shared part of a backend.
//
// Parameters:
//   - backend: the backend type reported by Backend
//   - settings: the construction settings
//   - drawer: the backend's 2D primitive submission hook
//
// Returns:
//   - *Base: the initialized base
func NewBase(backend BackendType, settings Settings, drawer Primitive2DDrawer) *Base {
	b := &Base{
		backend:       backend,
		settings:      settings,
		drawer:        drawer,
		textures:      NewTextureRegistry(),
		screen:        settings.Screen,
		fog:           DefaultFog(),
		globalAmbient: common.Color{R: 51, G: 51, B: 51, A: 255},
		fixedDirty:    true,
	}
	for i := range b.matrices {
		b.matrices[i] = common.IdentityMatrix()
	}
	b.fixed.World = common.IdentityMatrix()
	b.fixed.View = common.IdentityMatrix()
	b.fixed.Projection = common.IdentityMatrix()
	for i := range b.lights {
		b.lights[i].desc = DefaultLight()
		b.fixed.SetLight(i, b.lights[i].desc, false)
	}
	b.fixed.SetFog(b.fog)
	b.fixed.GlobalAmbient = b.globalAmbient.Float4()
	b.StoreMaterial(material.NewMaterial())
	b.renderStates[RenderStateDepthTest] = 1
	b.renderStates[RenderStateBlending] = 1
	b.renderStates[RenderStateCullFace] = 1
	b.renderStates[RenderStateTexture] = 1
	return b
}

// Backend returns the backend type.
func (b *Base) Backend() BackendType {
	return b.backend
}

// Settings returns the construction settings.
func (b *Base) Settings() Settings {
	return b.settings
}

// Caps returns the negotiated capabilities.
func (b *Base) Caps() Caps {
	return b.caps
}

// SetCaps stores the capabilities queried by the backend.
func (b *Base) SetCaps(c Caps) {
	b.caps = c
}

// QueryVideoSupport reports whether a feature is available.
func (b *Base) QueryVideoSupport(f Feature) bool {
	return b.caps.Supports(f)
}

// ScreenSize returns the size of the main render target.
func (b *Base) ScreenSize() common.Size2 {
	return b.screen
}

// SetScreenSize stores the size of the main render target.
func (b *Base) SetScreenSize(size common.Size2) {
	if size.Valid() {
		b.screen = size
	}
}

// TargetSize returns the size of the current render target.
func (b *Base) TargetSize() common.Size2 {
	if b.renderTarget != nil {
		return b.renderTarget.Size()
	}
	return b.screen
}

// InvertScreen reports whether drawing currently happens upside down.
func (b *Base) InvertScreen() bool {
	return b.invertScreen
}

// SetInvertScreen toggles upside-down drawing, used by bottom-left-origin APIs while a texture
// render target is bound.
func (b *Base) SetInvertScreen(invert bool) {
	b.invertScreen = invert
}

// NativeRect converts a rectangle in engine coordinates for the current render target.
func (b *Base) NativeRect(r common.Rect) common.Rect {
	return NativeRect(r, b.TargetSize().Height, b.caps.BottomLeftOrigin, b.invertScreen)
}

// Projection2D returns the 2D projection for the current render target.
func (b *Base) Projection2D() [16]float32 {
	return Projection2D(b.TargetSize(), b.caps.BottomLeftOrigin, b.invertScreen)
}

// Registry returns the texture registry.
func (b *Base) Registry() *TextureRegistry {
	return b.textures
}

// Textures returns a snapshot of the registered textures.
func (b *Base) Textures() []*Texture {
	return b.textures.Snapshot()
}

// TextureCount returns the number of registered textures.
func (b *Base) TextureCount() int {
	return b.textures.Len()
}

// PrepareTexture validates creation flags and builds the texture wrapper with its final CPU image:
// power-of-two rescaling when the backend requires it, then format substitution.
//
// Parameters:
//   - flags: the requested creation parameters
//
// Returns:
//   - *Texture: the wrapper, not yet registered and without a native handle
//   - error: an error if the flags are invalid
func (b *Base) PrepareTexture(flags TextureCreationFlags) (*Texture, error) {
	var img *ImageBuffer
	if flags.Image != nil {
		img = flags.Image.Clone()
	} else {
		if !flags.Size.Valid() {
			return nil, fmt.Errorf("invalid texture size %s", flags.Size)
		}
		img = NewImageBuffer(flags.Size, flags.Format, nil)
	}
	if !img.Size().Valid() {
		return nil, fmt.Errorf("invalid texture size %s", img.Size())
	}
	if limit := b.caps.MaxTextureSize; limit > 0 && (img.Size().Width > limit || img.Size().Height > limit) {
		return nil, fmt.Errorf("texture size %s exceeds the maximum of %d", img.Size(), limit)
	}
	if b.caps.RequiresPowerOfTwo {
		img.ScaleToPowerOfTwo()
	}
	img.Convert(SubstituteFormat(img.Format(), img.Size(), b.caps.Substitution))

	flags.Image = img
	flags.Size = img.Size()
	flags.Format = img.Format()
	if flags.MipMaps && !b.caps.Supports(FeatureMipMaps) {
		flags.MipMaps = false
	}
	return NewTexture(flags), nil
}

// RenderTarget returns the bound render-target texture.
func (b *Base) RenderTarget() *Texture {
	return b.renderTarget
}

// StoreRenderTarget records the bound render-target texture.
func (b *Base) StoreRenderTarget(tex *Texture) {
	b.renderTarget = tex
}

// BoundShaderClass returns the bound shader class.
func (b *Base) BoundShaderClass() *ShaderClass {
	return b.shaderClass
}

// StoreShaderClass records the bound shader class.
func (b *Base) StoreShaderClass(c *ShaderClass) {
	b.shaderClass = c
}

// InputLayoutCompatible reports whether the mesh's vertex format can feed the bound shader class.
// It is always true without a bound class.
func (b *Base) InputLayoutCompatible(mb *MeshBuffer) bool {
	if b.shaderClass == nil || b.shaderClass.InputLayout() == nil {
		return true
	}
	return mb.Format.Compatible(b.shaderClass.InputLayout())
}

// Matrix returns a stored matrix.
func (b *Base) Matrix(t MatrixType) [16]float32 {
	if t < 0 || t >= matrixTypeCount {
		return common.IdentityMatrix()
	}
	return b.matrices[t]
}

// StoreMatrix records a matrix and mirrors it into the fixed-function constant block.
func (b *Base) StoreMatrix(t MatrixType, m [16]float32) {
	if t < 0 || t >= matrixTypeCount {
		return
	}
	b.matrices[t] = m
	switch t {
	case MatrixWorld:
		b.fixed.World = m
	case MatrixView:
		b.fixed.View = m
	case MatrixProjection:
		b.fixed.Projection = m
	default:
		return
	}
	b.fixedDirty = true
}

// RenderState returns the last value stored for a generic render state.
func (b *Base) RenderState(state RenderState) int32 {
	if state < 0 || state >= renderStateCount {
		return 0
	}
	return b.renderStates[state]
}

// StoreRenderState records a generic render state.
//
// Returns:
//   - bool: false if the state is unknown
func (b *Base) StoreRenderState(state RenderState, value int32) bool {
	if state < 0 || state >= renderStateCount {
		return false
	}
	b.renderStates[state] = value
	if state == RenderStateLighting {
		b.fixed.Flags[1] = float32(value)
		b.fixedDirty = true
	}
	if state == RenderStateTexture {
		b.fixed.Flags[3] = float32(value)
		b.fixedDirty = true
	}
	if state == RenderStateFog {
		b.syncFogFlag()
	}
	return true
}

// Fog returns the current fog technique.
func (b *Base) Fog() FogType {
	return b.fog.Type
}

// FogState returns the full fog configuration.
func (b *Base) FogState() FogState {
	return b.fog
}

// StoreFog records the fog configuration.
func (b *Base) StoreFog(fog FogState) {
	b.fog = fog
	b.fixed.SetFog(fog)
	b.syncFogFlag()
}

// FogActive reports whether fog is both configured and enabled by the render state.
func (b *Base) FogActive() bool {
	return b.fog.Type != FogNone && b.renderStates[RenderStateFog] != 0
}

func (b *Base) syncFogFlag() {
	b.fixed.Flags[0] = 0
	if b.FogActive() {
		b.fixed.Flags[0] = float32(b.fog.Type)
	}
	b.fixedDirty = true
}

// MaxLightCount returns the number of light slots.
func (b *Base) MaxLightCount() int {
	if b.caps.MaxLights > 0 {
		return min(b.caps.MaxLights, MaxFixedLights)
	}
	return MaxFixedLights
}

// Light returns a stored light and whether it is enabled.
func (b *Base) Light(index int) (LightDesc, bool) {
	if index < 0 || index >= MaxFixedLights {
		return LightDesc{}, false
	}
	return b.lights[index].desc, b.lights[index].enabled
}

// StoreLight records a light description.
//
// Returns:
//   - bool: false if index is out of range
func (b *Base) StoreLight(index int, desc LightDesc) bool {
	if index < 0 || index >= b.MaxLightCount() {
		return false
	}
	b.lights[index].desc = desc
	b.fixed.SetLight(index, desc, b.lights[index].enabled)
	b.fixedDirty = true
	return true
}

// StoreLightEnabled records whether a light is enabled.
//
// Returns:
//   - bool: false if index is out of range
func (b *Base) StoreLightEnabled(index int, enabled bool) bool {
	if index < 0 || index >= b.MaxLightCount() {
		return false
	}
	b.lights[index].enabled = enabled
	b.fixed.SetLight(index, b.lights[index].desc, enabled)
	b.fixedDirty = true
	return true
}

// GlobalAmbient returns the scene ambient color.
func (b *Base) GlobalAmbient() common.Color {
	return b.globalAmbient
}

// StoreGlobalAmbient records the scene ambient color.
func (b *Base) StoreGlobalAmbient(c common.Color) {
	b.globalAmbient = c
	b.fixed.GlobalAmbient = c.Float4()
	b.fixedDirty = true
}

// ClipPlane returns a stored clip plane and whether it is enabled.
func (b *Base) ClipPlane(index int) (common.Plane, bool) {
	if index < 0 || index >= MaxFixedClipPlanes {
		return common.Plane{}, false
	}
	return b.clipPlanes[index].plane, b.clipPlanes[index].enabled
}

// StoreClipPlane records a clip plane.
//
// Returns:
//   - bool: false if index is out of range
func (b *Base) StoreClipPlane(index int, plane common.Plane, enabled bool) bool {
	limit := MaxFixedClipPlanes
	if b.caps.MaxClipPlanes > 0 {
		limit = min(limit, b.caps.MaxClipPlanes)
	}
	if index < 0 || index >= limit {
		return false
	}
	b.clipPlanes[index] = clipPlaneSlot{plane: plane, enabled: enabled}
	b.fixed.SetClipPlane(index, plane, enabled)
	b.fixedDirty = true
	return true
}

// StoreMaterial mirrors the surface colors of a material into the fixed-function constant block.
func (b *Base) StoreMaterial(m material.Material) {
	b.fixed.MaterialDiffuse = m.DiffuseColor().Float4()
	b.fixed.MaterialAmbient = m.AmbientColor().Float4()
	b.fixed.MaterialSpecular = m.SpecularColor().Float4()
	b.fixed.MaterialEmission = m.EmissionColor().Float4()
	st := m.States()
	b.fixed.MaterialParams = [4]float32{m.Shininess(), boolFloat(st.ColorMaterial), 0, 0}
	b.fixed.Flags[1] = boolFloat(st.Lighting)
	b.fixedDirty = true
}

// FixedConstants returns the fixed-function constant block and whether it changed since the last
// MarkFixedClean.
func (b *Base) FixedConstants() (*FixedFunctionConstants, bool) {
	return &b.fixed, b.fixedDirty
}

// MarkFixedClean records that the constant block was uploaded.
func (b *Base) MarkFixedClean() {
	b.fixedDirty = false
}

// MarkFixedDirty forces the next draw to upload the constant block, e.g. after device recreation.
func (b *Base) MarkFixedDirty() {
	b.fixedDirty = true
}

// Stats returns the counters accumulated since the last ResetStats.
func (b *Base) Stats() FrameStats {
	return b.stats
}

// ResetStats zeroes the counters.
func (b *Base) ResetStats() {
	b.stats = FrameStats{}
}

// Track counts one state change request; applied tells whether it reached the native API.
func (b *Base) Track(applied bool) {
	if applied {
		b.stats.NativeStateChanges++
	} else {
		b.stats.ElidedStateChanges++
	}
}

// CountDraw counts one draw call of count elements.
func (b *Base) CountDraw(primitive PrimitiveType, count int) {
	b.stats.DrawCalls++
	b.stats.Primitives += uint64(primitive.PrimitiveCount(count))
}

// CountBufferUpload counts one buffer upload of n bytes.
func (b *Base) CountBufferUpload(n int) {
	b.stats.BufferUploads++
	b.stats.UploadedBytes += uint64(n)
}

// CountTextureUpload counts one texture upload.
func (b *Base) CountTextureUpload() {
	b.stats.TextureUploads++
}

// CountFrame counts one finished frame.
func (b *Base) CountFrame() {
	b.stats.Frames++
}

// Drawing2D reports whether BeginDrawing2D is in effect.
func (b *Base) Drawing2D() bool {
	return b.drawing2D
}

// StoreDrawing2D records whether BeginDrawing2D is in effect.
func (b *Base) StoreDrawing2D(on bool) {
	b.drawing2D = on
}

// Draw2DImage draws a texture at its own size.
func (b *Base) Draw2DImage(tex *Texture, pos common.Point2, color common.Color) {
	if !tex.Valid() {
		return
	}
	b.Draw2DImageRect(tex, common.NewRect(pos, tex.Size()), common.Rect{}, color)
}

// Draw2DImageRect draws the clip rectangle (in texels) of a texture into rect.
func (b *Base) Draw2DImageRect(tex *Texture, rect, clip common.Rect, color common.Color) {
	if !tex.Valid() || rect.Empty() {
		return
	}
	uv := [4]float32{0, 0, 1, 1}
	if !clip.Empty() {
		w, h := float32(tex.Size().Width), float32(tex.Size().Height)
		uv = [4]float32{float32(clip.Left) / w, float32(clip.Top) / h, float32(clip.Right) / w, float32(clip.Bottom) / h}
	}
	b.drawer.DrawPrimitive2D(PrimitiveTriangleStrip, quadVertices(rect, uv, color.RGBA()), tex)
}

// Draw2DRectangle draws a filled or outlined rectangle.
func (b *Base) Draw2DRectangle(rect common.Rect, color common.Color, solid bool) {
	if rect.Empty() {
		return
	}
	c := color.RGBA()
	if solid {
		b.drawer.DrawPrimitive2D(PrimitiveTriangleStrip, quadVertices(rect, [4]float32{}, c), nil)
		return
	}
	l, t := float32(rect.Left), float32(rect.Top)
	r, bt := float32(rect.Right-1), float32(rect.Bottom-1)
	b.drawer.DrawPrimitive2D(PrimitiveLineStrip, []Vertex2D{
		{Position: [3]float32{l, t, 0}, Color: c},
		{Position: [3]float32{r, t, 0}, Color: c},
		{Position: [3]float32{r, bt, 0}, Color: c},
		{Position: [3]float32{l, bt, 0}, Color: c},
		{Position: [3]float32{l, t, 0}, Color: c},
	}, nil)
}

// Draw2DLine draws a line.
func (b *Base) Draw2DLine(a, c common.Point2, color common.Color) {
	col := color.RGBA()
	b.drawer.DrawPrimitive2D(PrimitiveLines, []Vertex2D{
		{Position: [3]float32{float32(a.X), float32(a.Y), 0}, Color: col},
		{Position: [3]float32{float32(c.X), float32(c.Y), 0}, Color: col},
	}, nil)
}

// Draw2DPoint draws a point.
func (b *Base) Draw2DPoint(p common.Point2, color common.Color) {
	b.drawer.DrawPrimitive2D(PrimitivePoints, []Vertex2D{
		{Position: [3]float32{float32(p.X), float32(p.Y), 0}, Color: color.RGBA()},
	}, nil)
}
