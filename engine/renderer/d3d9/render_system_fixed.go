package d3d9

import (
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// Vertex shader constant registers of shader classes. The fixed-function block follows the three
// matrices and mirrors renderer.FixedFunctionConstants after its matrices.
const (
	regWorld      = 0
	regView       = 4
	regProjection = 8
	regFixed      = 12

	fixedVec4Count = 73
)

// maxLightRange is the largest range D3D9 accepts, sqrt(FLT_MAX).
var maxLightRange = float32(math.Sqrt(math.MaxFloat32))

func (r *renderSystem) setTransform(state uint32, m [16]float32) {
	r.check("SetTransform", r.dev.SetTransform(state, m))
}

func (r *renderSystem) SetMatrix(t renderer.MatrixType, m [16]float32) {
	r.StoreMatrix(t, m)
	// 2D drawing owns the transforms until EndDrawing2D reloads them
	if r.Drawing2D() {
		return
	}
	switch t {
	case renderer.MatrixProjection:
		r.setTransform(tsProjection, m)
	case renderer.MatrixView:
		r.setTransform(tsView, m)
	case renderer.MatrixWorld:
		r.setTransform(tsWorld, m)
	case renderer.MatrixTexture:
		r.setTransform(tsTexture0, m)
	}
}

// SetClipPlane sets a world space plane. D3D9 expects fixed-function clip planes in world space.
func (r *renderSystem) SetClipPlane(index int, plane common.Plane, enable bool) {
	if index >= r.Caps().MaxClipPlanes || !r.StoreClipPlane(index, plane, enable) {
		return
	}
	if enable {
		r.check("SetClipPlane", r.dev.SetClipPlane(index, plane.Normalized().Equation()))
	}
	r.applyClipPlaneMask()
}

func (r *renderSystem) applyClipPlaneMask() {
	var mask uint32
	for i := 0; i < r.Caps().MaxClipPlanes; i++ {
		if _, enabled := r.ClipPlane(i); enabled {
			mask |= 1 << uint(i)
		}
	}
	r.setRenderState(rsClipPlaneEnable, mask)
}

func (r *renderSystem) SetFog(fog renderer.FogType) {
	state := r.FogState()
	state.Type = fog
	r.StoreFog(state)
	r.applyFog()
}

func (r *renderSystem) SetFogColor(c common.Color) {
	state := r.FogState()
	state.Color = c
	r.StoreFog(state)
	r.applyFog()
}

func (r *renderSystem) SetFogRange(density, near, far float32, mode renderer.FogMode) {
	state := r.FogState()
	state.Density, state.Near, state.Far, state.Mode = density, near, far, mode
	r.StoreFog(state)
	r.applyFog()
}

// applyFog uses pixel (table) fog for static fog and range based vertex fog for volumetric fog.
func (r *renderSystem) applyFog() {
	r.setRenderState(rsFogEnable, boolValue(r.FogActive()))
	fog := r.FogState()
	table, vertex := fogModes[fog.Mode], uint32(fogNone)
	if fog.Type == renderer.FogVolumetric {
		table, vertex = fogNone, fogModes[fog.Mode]
	}
	r.setRenderState(rsFogTableMode, table)
	r.setRenderState(rsFogVertexMode, vertex)
	r.setRenderState(rsRangeFogEnable, boolValue(fog.Type == renderer.FogVolumetric))
	r.setRenderState(rsFogColor, fog.Color.ARGB())
	r.setRenderState(rsFogStart, floatBits(fog.Near))
	r.setRenderState(rsFogEnd, floatBits(fog.Far))
	r.setRenderState(rsFogDensity, floatBits(fog.Density))
}

func (r *renderSystem) SetGlobalAmbient(c common.Color) {
	r.StoreGlobalAmbient(c)
	r.setRenderState(rsAmbient, c.ARGB())
}

func (r *renderSystem) SetLight(index int, desc renderer.LightDesc) {
	if !r.StoreLight(index, desc) {
		common.Logger().Warn("light index out of range", "index", index, "max", r.MaxLightCount())
		return
	}
	r.applyLight(index)
}

func (r *renderSystem) SetLightEnabled(index int, enable bool) {
	if !r.StoreLightEnabled(index, enable) {
		return
	}
	r.check("LightEnable", r.dev.LightEnable(index, enable))
}

func nativeLight(desc renderer.LightDesc) Light {
	l := Light{
		Diffuse:      colorValue(desc.Diffuse),
		Specular:     colorValue(desc.Specular),
		Ambient:      colorValue(desc.Ambient),
		Position:     desc.Position.Array(),
		Direction:    desc.Direction.Array(),
		Range:        maxLightRange,
		Falloff:      1,
		Attenuation0: desc.Attenuation.Constant,
		Attenuation1: desc.Attenuation.Linear,
		Attenuation2: desc.Attenuation.Quadratic,
	}
	switch desc.Model {
	case renderer.LightPoint:
		l.Type = lightPoint
	case renderer.LightSpot:
		l.Type = lightSpot
		// D3D9 cone angles are full angles
		l.Theta = 2 * desc.SpotInnerCone
		l.Phi = 2 * desc.SpotOuterCone
	default:
		l.Type = lightDirectional
	}
	return l
}

func (r *renderSystem) applyLight(index int) {
	desc, enabled := r.Light(index)
	r.check("SetLight", r.dev.SetLight(index, nativeLight(desc)))
	r.check("LightEnable", r.dev.LightEnable(index, enabled))
}

func (r *renderSystem) applyMaterialColors(m material.Material) {
	mat := Material{
		Diffuse:  colorValue(m.DiffuseColor()),
		Ambient:  colorValue(m.AmbientColor()),
		Specular: colorValue(m.SpecularColor()),
		Emissive: colorValue(m.EmissionColor()),
		Power:    m.Shininess(),
	}
	r.Track(r.state.material.Set(mat, func(mat Material) {
		r.check("SetMaterial", r.dev.SetMaterial(mat))
	}))
}

// fixedFloats views the constant block after its three matrices as consecutive float4 registers.
func fixedFloats(c *renderer.FixedFunctionConstants) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&c.Lights[0].Position[0])), fixedVec4Count*4)
}

// uploadConstants brings the vertex shader constants of a shader class up to date. Matrices are
// transposed to the row vector convention of mul(v, M).
func (r *renderSystem) uploadConstants(p *d3dProgram) {
	fc, dirty := r.FixedConstants()
	if dirty {
		r.fixedSerial++
		r.MarkFixedClean()
	}
	if p == nil || p.serial == r.fixedSerial {
		return
	}
	p.serial = r.fixedSerial
	world := common.Transpose4(fc.World)
	view := common.Transpose4(fc.View)
	projection := common.Transpose4(fc.Projection)
	r.check("SetVertexShaderConstantF", r.dev.SetVertexShaderConstantF(regWorld, world[:]))
	r.check("SetVertexShaderConstantF", r.dev.SetVertexShaderConstantF(regView, view[:]))
	r.check("SetVertexShaderConstantF", r.dev.SetVertexShaderConstantF(regProjection, projection[:]))
	r.check("SetVertexShaderConstantF", r.dev.SetVertexShaderConstantF(regFixed, fixedFloats(fc)))
}
