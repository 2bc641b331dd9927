package material

import (
	"github.com/Carmen-Shannon/oxy-render/common"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithStates is an option builder that replaces the default render state bundle.
//
// Parameters:
//   - s: the state bundle
//
// Returns:
//   - MaterialBuilderOption: a function that applies the states option to a material
func WithStates(s States) MaterialBuilderOption {
	return func(m *material) {
		m.states = s
	}
}

// WithBlending is an option builder that enables blending with the given factors.
//
// Parameters:
//   - src: the source blend factor
//   - dst: the destination blend factor
//
// Returns:
//   - MaterialBuilderOption: a function that applies the blending option to a material
func WithBlending(src, dst BlendFactor) MaterialBuilderOption {
	return func(m *material) {
		m.SetBlending(src, dst)
	}
}

// WithoutBlending is an option builder that disables blending.
//
// Returns:
//   - MaterialBuilderOption: a function that disables blending on a material
func WithoutBlending() MaterialBuilderOption {
	return func(m *material) {
		m.states.BlendEnabled = false
	}
}

// WithDepth is an option builder that configures depth testing.
//
// Parameters:
//   - test: whether the depth test is enabled
//   - fn: the depth comparison function
//   - write: whether depth writes are enabled
//
// Returns:
//   - MaterialBuilderOption: a function that applies the depth option to a material
func WithDepth(test bool, fn CompareFunc, write bool) MaterialBuilderOption {
	return func(m *material) {
		m.SetDepth(test, fn, write)
	}
}

// WithCulling is an option builder that sets the face culling mode.
//
// Parameters:
//   - c: the face culling mode
//
// Returns:
//   - MaterialBuilderOption: a function that applies the culling option to a material
func WithCulling(c FaceCulling) MaterialBuilderOption {
	return func(m *material) {
		m.states.Culling = c
	}
}

// WithShading is an option builder that sets the shade mode.
//
// Parameters:
//   - s: the shade mode
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shading option to a material
func WithShading(s ShadeMode) MaterialBuilderOption {
	return func(m *material) {
		m.states.Shading = s
	}
}

// WithPolygonMode is an option builder that sets the rasterization mode.
//
// Parameters:
//   - p: the polygon mode
//
// Returns:
//   - MaterialBuilderOption: a function that applies the polygon mode option to a material
func WithPolygonMode(p PolygonMode) MaterialBuilderOption {
	return func(m *material) {
		m.states.PolygonMode = p
	}
}

// WithLighting is an option builder that toggles fixed-function lighting.
//
// Parameters:
//   - enable: whether lighting is enabled
//
// Returns:
//   - MaterialBuilderOption: a function that applies the lighting option to a material
func WithLighting(enable bool) MaterialBuilderOption {
	return func(m *material) {
		m.states.Lighting = enable
	}
}

// WithFog is an option builder that toggles fog.
//
// Parameters:
//   - enable: whether fog is enabled
//
// Returns:
//   - MaterialBuilderOption: a function that applies the fog option to a material
func WithFog(enable bool) MaterialBuilderOption {
	return func(m *material) {
		m.states.Fog = enable
	}
}

// WithAntiAlias is an option builder that toggles multisample anti-aliasing for the material.
//
// Parameters:
//   - enable: whether anti-aliasing is enabled
//
// Returns:
//   - MaterialBuilderOption: a function that applies the anti-aliasing option to a material
func WithAntiAlias(enable bool) MaterialBuilderOption {
	return func(m *material) {
		m.states.AntiAlias = enable
	}
}

// WithColors is an option builder that sets the fixed-function surface colors.
//
// Parameters:
//   - diffuse: the diffuse color
//   - ambient: the ambient color
//   - specular: the specular color
//   - emission: the emissive color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the colors option to a material
func WithColors(diffuse, ambient, specular, emission common.Color) MaterialBuilderOption {
	return func(m *material) {
		m.diffuse = diffuse
		m.ambient = ambient
		m.specular = specular
		m.emission = emission
	}
}

// WithShininess is an option builder that sets the specular exponent.
//
// Parameters:
//   - shininess: the exponent, clamped to [0, 128]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shininess option to a material
func WithShininess(shininess float32) MaterialBuilderOption {
	return func(m *material) {
		m.shininess = common.Clamp(shininess, 0, 128)
	}
}

// WithStencil sets the stencil test of the material.
//
// Parameters:
//   - st: the stencil configuration
//
// Returns:
//   - MaterialBuilderOption: a function that applies the stencil configuration
func WithStencil(st StencilState) MaterialBuilderOption {
	return func(m *material) {
		m.states.Stencil = st
	}
}
