package loader

import "github.com/Carmen-Shannon/oxy-render/engine/renderer"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithRenderSystem is an option builder that sets the render system textures are created with.
//
// Parameters:
//   - target: the render system
//
// Returns:
//   - LoaderBuilderOption: a function that applies the render system option to a loader
func WithRenderSystem(target TextureCreator) LoaderBuilderOption {
	return func(l *loader) {
		l.target = target
	}
}

// WithWorkers is an option builder that sets the number of decode workers.
//
// Parameters:
//   - n: the number of workers, at least 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithSampler is an option builder that sets the sampling parameters of loaded textures.
func WithSampler(sampler renderer.SamplerDesc) LoaderBuilderOption {
	return func(l *loader) {
		l.sampler = sampler
	}
}

// WithMipMaps is an option builder that enables or disables mip maps of loaded textures.
func WithMipMaps(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.mipMaps = enabled
	}
}

// WithTexture is an option builder that pre-populates the texture cache.
//
// Parameters:
//   - path: the cache key
//   - tex: the texture
//
// Returns:
//   - LoaderBuilderOption: a function that applies the texture option to a loader
func WithTexture(path string, tex *renderer.Texture) LoaderBuilderOption {
	return func(l *loader) {
		l.textureCache[path] = tex
	}
}
