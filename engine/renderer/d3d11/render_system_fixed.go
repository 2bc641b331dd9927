package d3d11

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// SetMatrix stores a matrix. The built-in shaders read it from the constant buffer on the next draw;
// 2D drawing uses its own constants and leaves the stored matrices alone.
func (r *renderSystem) SetMatrix(t renderer.MatrixType, m [16]float32) {
	r.StoreMatrix(t, m)
}

// SetClipPlane sets a world space plane. The built-in vertex shader writes clip distances from
// feature level 10_0 on.
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

// constantsBytes lays out the FixedConstants buffer. Matrices are transposed to the row vector
// convention of mul(v, M).
func constantsBytes(fc *renderer.FixedFunctionConstants) []byte {
	world := common.Transpose4(fc.World)
	view := common.Transpose4(fc.View)
	projection := common.Transpose4(fc.Projection)
	data := make([]byte, 0, constantsSize)
	data = append(data, common.SliceToBytes(world[:])...)
	data = append(data, common.SliceToBytes(view[:])...)
	data = append(data, common.SliceToBytes(projection[:])...)
	return append(data, common.SliceToBytes(fixedFloats(fc))...)
}

// uploadConstants rewrites the FixedConstants buffer when the block changed since the last upload.
func (r *renderSystem) uploadConstants() {
	fc, dirty := r.FixedConstants()
	if dirty {
		r.fixedSerial++
		r.MarkFixedClean()
	}
	if r.uploadedSerial == r.fixedSerial || r.builtin.constants == nil {
		return
	}
	data := constantsBytes(fc)
	r.check("Buffer.Write", r.builtin.constants.Write(0, data))
	r.uploadedSerial = r.fixedSerial
	r.CountBufferUpload(len(data))
}
