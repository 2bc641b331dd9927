package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/chewxy/math32"
)

const (
	// MaxFixedLights is the number of lights emulated by shader-based backends.
	MaxFixedLights = 8
	// MaxFixedClipPlanes is the number of user clip planes emulated by shader-based backends.
	MaxFixedClipPlanes = 8
)

// LightModel is the type of a fixed-function light source.
type LightModel int

const (
	LightDirectional LightModel = iota
	LightPoint
	LightSpot
)

// Attenuation is the distance falloff of point and spot lights.
type Attenuation struct {
	Constant, Linear, Quadratic float32
}

// LightDesc describes one fixed-function light.
type LightDesc struct {
	Model       LightModel
	Position    common.Vec3
	Direction   common.Vec3
	Diffuse     common.Color
	Ambient     common.Color
	Specular    common.Color
	Attenuation Attenuation
	// SpotInnerCone and SpotOuterCone are half-angles in radians.
	SpotInnerCone float32
	SpotOuterCone float32
}

// DefaultLight returns a white directional light pointing down the negative Z axis.
func DefaultLight() LightDesc {
	return LightDesc{
		Model:         LightDirectional,
		Direction:     common.Vec3{Z: -1},
		Diffuse:       common.ColorWhite,
		Ambient:       common.ColorBlack,
		Specular:      common.ColorWhite,
		Attenuation:   Attenuation{Constant: 1},
		SpotInnerCone: math32.Pi / 8,
		SpotOuterCone: math32.Pi / 4,
	}
}

// FogType selects the fog technique.
type FogType int

const (
	FogNone FogType = iota
	FogStatic
	FogVolumetric
)

// FogMode selects the fog falloff.
type FogMode int

const (
	FogLinear FogMode = iota
	FogExp
	FogExp2
)

// FogState is the complete fog configuration of a RenderSystem.
type FogState struct {
	Type    FogType
	Mode    FogMode
	Color   common.Color
	Density float32
	Near    float32
	Far     float32
}

// DefaultFog returns disabled linear fog between 0 and 1000.
func DefaultFog() FogState {
	return FogState{Type: FogNone, Mode: FogLinear, Color: common.ColorWhite, Density: 0.001, Near: 1, Far: 1000}
}

// GPULight is the packed form of a light inside FixedFunctionConstants. Every member is a vec4 so
// the block has the same layout in HLSL constant buffers, GLSL std140 blocks and WGSL uniforms.
type GPULight struct {
	Position    [4]float32 // w: 0 directional, 1 positional
	Direction   [4]float32 // w: 1 enabled
	Diffuse     [4]float32
	Ambient     [4]float32
	Specular    [4]float32
	Attenuation [4]float32 // constant, linear, quadratic, model
	Spot        [4]float32 // cos inner, cos outer
}

// FixedFunctionConstants is the constant block backends without fixed-function hardware upload to
// their built-in shaders.
type FixedFunctionConstants struct {
	World      [16]float32
	View       [16]float32
	Projection [16]float32

	Lights        [MaxFixedLights]GPULight
	GlobalAmbient [4]float32
	FogColor      [4]float32
	FogParams     [4]float32 // density, near, far, mode
	Flags         [4]float32 // fog type, lighting enabled, clip plane mask, texture enabled
	ClipPlanes    [MaxFixedClipPlanes][4]float32

	MaterialDiffuse  [4]float32
	MaterialAmbient  [4]float32
	MaterialSpecular [4]float32
	MaterialEmission [4]float32
	MaterialParams   [4]float32 // shininess, color material
}

// Bytes returns the block as raw bytes. The slice aliases the struct.
func (c *FixedFunctionConstants) Bytes() []byte {
	return common.StructToBytes(c)
}

// SetLight packs a light into slot index.
func (c *FixedFunctionConstants) SetLight(index int, desc LightDesc, enabled bool) {
	if index < 0 || index >= MaxFixedLights {
		return
	}
	l := &c.Lights[index]
	w := float32(1)
	if desc.Model == LightDirectional {
		w = 0
	}
	l.Position = [4]float32{desc.Position.X, desc.Position.Y, desc.Position.Z, w}
	l.Direction = [4]float32{desc.Direction.X, desc.Direction.Y, desc.Direction.Z, boolFloat(enabled)}
	l.Diffuse = desc.Diffuse.Float4()
	l.Ambient = desc.Ambient.Float4()
	l.Specular = desc.Specular.Float4()
	l.Attenuation = [4]float32{desc.Attenuation.Constant, desc.Attenuation.Linear, desc.Attenuation.Quadratic, float32(desc.Model)}
	l.Spot = [4]float32{math32.Cos(desc.SpotInnerCone), math32.Cos(desc.SpotOuterCone), 0, 0}
}

// SetFog packs the fog configuration.
func (c *FixedFunctionConstants) SetFog(fog FogState) {
	c.FogColor = fog.Color.Float4()
	c.FogParams = [4]float32{fog.Density, fog.Near, fog.Far, float32(fog.Mode)}
	c.Flags[0] = float32(fog.Type)
}

// SetClipPlane packs a clip plane and updates the enable mask.
func (c *FixedFunctionConstants) SetClipPlane(index int, plane common.Plane, enabled bool) {
	if index < 0 || index >= MaxFixedClipPlanes {
		return
	}
	c.ClipPlanes[index] = plane.Normalized().Equation()
	mask := uint32(c.Flags[2])
	if enabled {
		mask |= 1 << uint(index)
	} else {
		mask &^= 1 << uint(index)
	}
	c.Flags[2] = float32(mask)
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
