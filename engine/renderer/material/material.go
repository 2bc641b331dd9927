package material

import (
	"github.com/Carmen-Shannon/oxy-render/common"
)

// material is the implementation of the Material interface.
type material struct {
	name      string
	states    States
	diffuse   common.Color
	ambient   common.Color
	specular  common.Color
	emission  common.Color
	shininess float32
}

// Material defines the interface for a render material: the per-draw bundle of render states
// that a RenderSystem applies atomically, plus the fixed-function surface colors.
//
// The state bundle is a plain comparable value. Backends compare it against their cache and
// only forward the members that actually changed to the native API.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// States retrieves the render state bundle of the material.
	//
	// Returns:
	//   - States: the current state bundle
	States() States

	// SetStates replaces the whole render state bundle.
	//
	// Parameters:
	//   - s: the new state bundle
	SetStates(s States)

	// SetBlending enables blending with the given source and destination factors.
	//
	// Parameters:
	//   - src: the source blend factor
	//   - dst: the destination blend factor
	SetBlending(src, dst BlendFactor)

	// SetDepth configures depth testing.
	//
	// Parameters:
	//   - test: whether the depth test is enabled
	//   - fn: the depth comparison function
	//   - write: whether depth writes are enabled
	SetDepth(test bool, fn CompareFunc, write bool)

	// SetCulling sets the face culling mode.
	//
	// Parameters:
	//   - c: the face culling mode
	SetCulling(c FaceCulling)

	// SetLighting toggles fixed-function lighting for this material.
	//
	// Parameters:
	//   - enable: whether lighting is enabled
	SetLighting(enable bool)

	// SetFog toggles fog for this material.
	//
	// Parameters:
	//   - enable: whether fog is enabled
	SetFog(enable bool)

	// DiffuseColor retrieves the diffuse surface color.
	//
	// Returns:
	//   - common.Color: the diffuse color
	DiffuseColor() common.Color

	// AmbientColor retrieves the ambient surface color.
	//
	// Returns:
	//   - common.Color: the ambient color
	AmbientColor() common.Color

	// SpecularColor retrieves the specular surface color.
	//
	// Returns:
	//   - common.Color: the specular color
	SpecularColor() common.Color

	// EmissionColor retrieves the emissive surface color.
	//
	// Returns:
	//   - common.Color: the emission color
	EmissionColor() common.Color

	// Shininess retrieves the specular exponent.
	//
	// Returns:
	//   - float32: the shininess in [0, 128]
	Shininess() float32
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		states:   DefaultStates(),
		diffuse:  common.ColorWhite,
		ambient:  common.Color{R: 51, G: 51, B: 51, A: 255},
		specular: common.ColorWhite,
		emission: common.ColorBlack,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) States() States {
	return m.states
}

func (m *material) SetStates(s States) {
	m.states = s
}

func (m *material) SetBlending(src, dst BlendFactor) {
	m.states.BlendEnabled = true
	m.states.BlendSource = src
	m.states.BlendTarget = dst
}

func (m *material) SetDepth(test bool, fn CompareFunc, write bool) {
	m.states.DepthTest = test
	m.states.DepthFunc = fn
	m.states.DepthWrite = write
}

func (m *material) SetCulling(c FaceCulling) {
	m.states.Culling = c
}

func (m *material) SetLighting(enable bool) {
	m.states.Lighting = enable
}

func (m *material) SetFog(enable bool) {
	m.states.Fog = enable
}

func (m *material) DiffuseColor() common.Color {
	return m.diffuse
}

func (m *material) AmbientColor() common.Color {
	return m.ambient
}

func (m *material) SpecularColor() common.Color {
	return m.specular
}

func (m *material) EmissionColor() common.Color {
	return m.emission
}

func (m *material) Shininess() float32 {
	return m.shininess
}
