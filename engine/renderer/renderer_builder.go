package renderer

import "github.com/Carmen-Shannon/oxy-render/common"

// Settings holds the construction parameters shared by all backends.
type Settings struct {
	Screen       common.Size2
	Sampler      SamplerDesc
	MipMaps      bool
	MultiSamples int
	ClearColor   common.Color
}

// RenderSystemBuilderOption is a functional option used to configure a RenderSystem during construction.
type RenderSystemBuilderOption func(*Settings)

// DefaultSettings returns the settings used when no option overrides them.
func DefaultSettings() Settings {
	return Settings{
		Screen:     common.Size2{Width: 1280, Height: 720},
		Sampler:    SamplerDesc{Filter: FilterLinear, MipMap: MipMapTrilinear, Anisotropy: 1, Wrap: WrapRepeat},
		MipMaps:    true,
		ClearColor: common.Color{R: 25, G: 25, B: 38, A: 255},
	}
}

// ApplyOptions returns DefaultSettings modified by the given options.
//
// Parameters:
//   - options: the options to apply in order
//
// Returns:
//   - Settings: the resulting settings
func ApplyOptions(options ...RenderSystemBuilderOption) Settings {
	s := DefaultSettings()
	for _, opt := range options {
		opt(&s)
	}
	return s
}

// WithScreenSize sets the initial screen size in pixels.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - RenderSystemBuilderOption: a function that applies the screen size
func WithScreenSize(width, height int) RenderSystemBuilderOption {
	return func(s *Settings) {
		if width > 0 && height > 0 {
			s.Screen = common.Size2{Width: width, Height: height}
		}
	}
}

// WithSampler sets the default sampling parameters of new textures.
//
// Parameters:
//   - sampler: the sampler description
//
// Returns:
//   - RenderSystemBuilderOption: a function that applies the sampler
func WithSampler(sampler SamplerDesc) RenderSystemBuilderOption {
	return func(s *Settings) {
		s.Sampler = sampler
	}
}

// WithMipMaps enables or disables mip map generation for new textures.
//
// Parameters:
//   - enabled: whether to generate mip maps
//
// Returns:
//   - RenderSystemBuilderOption: a function that applies the setting
func WithMipMaps(enabled bool) RenderSystemBuilderOption {
	return func(s *Settings) {
		s.MipMaps = enabled
	}
}

// WithMultiSamples sets the multisample count the context was created with.
//
// Parameters:
//   - samples: the sample count, 0 or 1 to disable
//
// Returns:
//   - RenderSystemBuilderOption: a function that applies the sample count
func WithMultiSamples(samples int) RenderSystemBuilderOption {
	return func(s *Settings) {
		s.MultiSamples = max(samples, 0)
	}
}

// WithClearColor sets the initial clear color.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RenderSystemBuilderOption: a function that applies the clear color
func WithClearColor(c common.Color) RenderSystemBuilderOption {
	return func(s *Settings) {
		s.ClearColor = c
	}
}
