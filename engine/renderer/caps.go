package renderer

// Feature is a capability a caller may query through RenderSystem.QueryVideoSupport.
type Feature int

const (
	FeatureHardwareMeshBuffer Feature = iota
	FeatureNonPowerOfTwo
	FeatureRenderTarget
	FeatureMultiTexture
	FeatureQuery
	FeatureShader
	FeatureFixedFunction
	FeatureAnisotropicFilter
	FeatureMipMaps
	FeatureStencilBuffer
	FeatureClipPlanes
	FeatureTriangleFan
)

// Caps describes what the active backend and device support. Backends fill it in during
// construction after querying the native API.
type Caps struct {
	features uint64

	MaxTextureSize   int
	MaxTextureLayers int
	MaxAnisotropy    int
	MaxLights        int
	MaxClipPlanes    int
	MaxMultiSamples  int

	// BottomLeftOrigin is true for APIs whose window coordinates grow upwards (OpenGL).
	BottomLeftOrigin bool

	// Substitution selects when RGB/BGR textures are replaced by their alpha variants.
	Substitution SubstitutionPolicy

	// RequiresPowerOfTwo forces texture images to be rescaled to power-of-two sizes.
	RequiresPowerOfTwo bool
}

// Supports reports whether the feature is available.
func (c *Caps) Supports(f Feature) bool {
	return c.features&(1<<uint(f)) != 0
}

// Enable marks the given features as available.
func (c *Caps) Enable(features ...Feature) {
	for _, f := range features {
		c.features |= 1 << uint(f)
	}
}

// Disable marks the given features as unavailable.
func (c *Caps) Disable(features ...Feature) {
	for _, f := range features {
		c.features &^= 1 << uint(f)
	}
}
