package opengl

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/chewxy/math32"
)

var fogModes = [...]int32{
	renderer.FogLinear: glLinear,
	renderer.FogExp:    glExp,
	renderer.FogExp2:   glExp2,
}

func (r *renderSystem) SetMatrix(t renderer.MatrixType, m [16]float32) {
	r.StoreMatrix(t, m)
	// 2D drawing owns the fixed-function matrices until EndDrawing2D reloads them
	if !r.fixedFunction() || r.Drawing2D() {
		return
	}
	switch t {
	case renderer.MatrixProjection:
		r.loadMatrix(glProjection, m)
	case renderer.MatrixWorld, renderer.MatrixView:
		r.loadModelView()
	case renderer.MatrixTexture:
		r.loadMatrix(glTextureMatrix, m)
	}
}

func (r *renderSystem) loadMatrix(mode uint32, m [16]float32) {
	r.Track(r.state.matrixMode.Set(mode, r.gl.MatrixMode))
	r.gl.LoadMatrix(m)
}

// loadModelView loads view * world, the GL modelview matrix.
func (r *renderSystem) loadModelView() {
	var mv [16]float32
	view, world := r.Matrix(renderer.MatrixView), r.Matrix(renderer.MatrixWorld)
	common.Mul4(mv[:], view[:], world[:])
	r.loadMatrix(glModelview, mv)
}

// withViewMatrix runs fn with the view matrix as modelview. GL transforms light positions and clip
// planes by the modelview when they are set, so loading the view matrix keeps them in world
// space.
func (r *renderSystem) withViewMatrix(fn func()) {
	r.loadMatrix(glModelview, r.Matrix(renderer.MatrixView))
	fn()
	r.loadModelView()
}

func (r *renderSystem) SetClipPlane(index int, plane common.Plane, enable bool) {
	if !r.StoreClipPlane(index, plane, enable) {
		return
	}
	r.applyClipPlane(index, plane, enable)
}

func (r *renderSystem) applyClipPlane(index int, plane common.Plane, enable bool) {
	cap := uint32(glClipPlane0 + index)
	switch r.profile {
	case ProfileCompatibility:
		r.withViewMatrix(func() {
			r.gl.ClipPlane(cap, plane.Normalized().Equation64())
		})
		r.setCap(cap, enable)
	case ProfileCore:
		// CLIP_DISTANCEi shares the enumerant of CLIP_PLANEi; the built-in program writes the distances
		r.setCap(cap, enable)
	}
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

func (r *renderSystem) applyFog() {
	r.setCap(glFog, r.FogActive())
	if !r.fixedFunction() {
		return
	}
	fog := r.FogState()
	r.gl.Fogi(glFogMode, fogModes[fog.Mode])
	r.gl.Fogf(glFogDensity, fog.Density)
	r.gl.Fogf(glFogStart, fog.Near)
	r.gl.Fogf(glFogEnd, fog.Far)
	r.gl.Fogfv(glFogColor, fog.Color.Float4())
}

func (r *renderSystem) SetGlobalAmbient(c common.Color) {
	r.StoreGlobalAmbient(c)
	if r.fixedFunction() {
		r.gl.LightModelfv(glLightModelAmb, c.Float4())
	}
}

func (r *renderSystem) SetLight(index int, desc renderer.LightDesc) {
	if !r.StoreLight(index, desc) {
		common.Logger().Warn("light index out of range", "index", index, "max", r.MaxLightCount())
		return
	}
	r.applyLight(index)
}

func (r *renderSystem) SetLightEnabled(index int, enable bool) {
	if !r.StoreLightEnabled(index, enable) || !r.fixedFunction() {
		return
	}
	r.setCap(uint32(glLight0+index), enable)
}

func (r *renderSystem) applyLight(index int) {
	if !r.fixedFunction() {
		return
	}
	desc, enabled := r.Light(index)
	light := uint32(glLight0 + index)
	r.withViewMatrix(func() {
		position := [4]float32{desc.Position.X, desc.Position.Y, desc.Position.Z, 1}
		if desc.Model == renderer.LightDirectional {
			position = [4]float32{-desc.Direction.X, -desc.Direction.Y, -desc.Direction.Z, 0}
		}
		r.gl.Lightfv(light, glPosition, position)
		r.gl.Lightfv(light, glSpotDirection, [4]float32{desc.Direction.X, desc.Direction.Y, desc.Direction.Z, 0})
	})
	r.gl.Lightfv(light, glDiffuse, desc.Diffuse.Float4())
	r.gl.Lightfv(light, glAmbient, desc.Ambient.Float4())
	r.gl.Lightfv(light, glSpecular, desc.Specular.Float4())

	cutoff, exponent := float32(180), float32(0)
	if desc.Model == renderer.LightSpot {
		cutoff = desc.SpotOuterCone * 180 / math32.Pi
		if desc.SpotOuterCone > 0 {
			exponent = min(128, 128*(1-desc.SpotInnerCone/desc.SpotOuterCone))
		}
	}
	r.gl.Lightf(light, glSpotCutoff, cutoff)
	r.gl.Lightf(light, glSpotExponent, exponent)
	r.gl.Lightf(light, glConstantAttenuation, desc.Attenuation.Constant)
	r.gl.Lightf(light, glLinearAttenuation, desc.Attenuation.Linear)
	r.gl.Lightf(light, glQuadraticAttenuation, desc.Attenuation.Quadratic)
	r.setCap(light, enabled)
}

func (r *renderSystem) applyMaterialColors(m material.Material) {
	colors := materialColors{
		diffuse:   m.DiffuseColor(),
		ambient:   m.AmbientColor(),
		specular:  m.SpecularColor(),
		emission:  m.EmissionColor(),
		shininess: m.Shininess(),
	}
	r.Track(r.state.material.Set(colors, func(c materialColors) {
		r.gl.Materialfv(glFrontAndBack, glDiffuse, c.diffuse.Float4())
		r.gl.Materialfv(glFrontAndBack, glAmbient, c.ambient.Float4())
		r.gl.Materialfv(glFrontAndBack, glSpecular, c.specular.Float4())
		r.gl.Materialfv(glFrontAndBack, glEmission, c.emission.Float4())
		r.gl.Materialf(glFrontAndBack, glShininess, min(c.shininess, 128))
	}))
}

// fixedFloats views the constant block after its three matrices as the vec4 array uFixed.
func fixedFloats(c *renderer.FixedFunctionConstants) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&c.Lights[0].Position[0])), fixedVec4Count*4)
}

// uploadFixed brings the fixed-function uniforms of a program up to date.
func (r *renderSystem) uploadFixed(p *glProgram) {
	fc, dirty := r.FixedConstants()
	if dirty {
		r.fixedSerial++
		r.MarkFixedClean()
	}
	if p == nil || p.serial == r.fixedSerial {
		return
	}
	p.serial = r.fixedSerial
	u := p.uniforms
	if u.world >= 0 {
		r.gl.UniformMatrix4fv(u.world, fc.World)
	}
	if u.view >= 0 {
		r.gl.UniformMatrix4fv(u.view, fc.View)
	}
	if u.projection >= 0 {
		r.gl.UniformMatrix4fv(u.projection, fc.Projection)
	}
	if u.fixed >= 0 {
		r.gl.Uniform4fv(u.fixed, fixedFloats(fc))
	}
}
