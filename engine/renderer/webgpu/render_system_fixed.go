package webgpu

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// SetMatrix stores a matrix. The built-in shader reads it from the constants ring on the next draw.
func (r *renderSystem) SetMatrix(t renderer.MatrixType, m [16]float32) {
	r.StoreMatrix(t, m)
}

// SetClipPlane sets a world space plane. The built-in fragment shader discards the fragments
// behind enabled planes.
func (r *renderSystem) SetClipPlane(index int, plane common.Plane, enable bool) {
	if index >= r.Caps().MaxClipPlanes {
		return
	}
	r.StoreClipPlane(index, plane, enable)
}

func (r *renderSystem) SetFog(fog renderer.FogType) {
	state := r.FogState()
	state.Type = fog
	r.StoreFog(state)
}

func (r *renderSystem) SetFogColor(c common.Color) {
	state := r.FogState()
	state.Color = c
	r.StoreFog(state)
}

func (r *renderSystem) SetFogRange(density, near, far float32, mode renderer.FogMode) {
	state := r.FogState()
	state.Density, state.Near, state.Far, state.Mode = density, near, far, mode
	r.StoreFog(state)
}

func (r *renderSystem) SetGlobalAmbient(c common.Color) {
	r.StoreGlobalAmbient(c)
}

func (r *renderSystem) SetLight(index int, desc renderer.LightDesc) {
	if !r.StoreLight(index, desc) {
		common.Logger().Warn("light index out of range", "index", index, "max", r.MaxLightCount())
	}
}

func (r *renderSystem) SetLightEnabled(index int, enable bool) {
	r.StoreLightEnabled(index, enable)
}
