package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/common"
)

// TextureFilter is the magnification/minification filter of a texture.
type TextureFilter int

const (
	FilterLinear TextureFilter = iota
	FilterNearest
)

// MipMapFilter selects how mip levels are sampled.
type MipMapFilter int

const (
	MipMapBilinear MipMapFilter = iota
	MipMapTrilinear
	MipMapAnisotropic
)

// TextureWrap is the addressing mode outside [0, 1].
type TextureWrap int

const (
	WrapRepeat TextureWrap = iota
	WrapMirror
	WrapClamp
)

// SamplerDesc groups the sampling parameters of a texture.
type SamplerDesc struct {
	Filter     TextureFilter
	MipMap     MipMapFilter
	Anisotropy int
	Wrap       TextureWrap
}

// TextureCreationFlags describes a texture to create.
type TextureCreationFlags struct {
	// Filename is informational and used in logs.
	Filename string
	Size     common.Size2
	Format   PixelFormat
	// Image is the initial content. When nil the texture starts zeroed with Size and Format.
	Image        *ImageBuffer
	MipMaps      bool
	Sampler      SamplerDesc
	RenderTarget bool
}

// SubstitutionPolicy selects when a backend replaces a pixel format it cannot store natively.
type SubstitutionPolicy int

const (
	// SubstituteNever keeps every format.
	SubstituteNever SubstitutionPolicy = iota
	// SubstituteNonPowerOfTwo substitutes only for textures with a non power-of-two dimension.
	SubstituteNonPowerOfTwo
	// SubstituteAlways substitutes every listed format.
	SubstituteAlways
)

// formatSubstitution lists the formats that are stored as a wider format.
var formatSubstitution = map[PixelFormat]PixelFormat{
	PixelRGB: PixelRGBA,
	PixelBGR: PixelBGRA,
}

// SubstituteFormat returns the format a texture of the given size is stored with.
//
// Parameters:
//   - format: the requested format
//   - size: the texture size
//   - policy: the backend's substitution policy
//
// Returns:
//   - PixelFormat: the stored format
func SubstituteFormat(format PixelFormat, size common.Size2, policy SubstitutionPolicy) PixelFormat {
	sub, ok := formatSubstitution[format]
	if !ok {
		return format
	}
	switch policy {
	case SubstituteAlways:
		return sub
	case SubstituteNonPowerOfTwo:
		if !common.IsPowerOfTwo(size.Width) || !common.IsPowerOfTwo(size.Height) {
			return sub
		}
	}
	return format
}

// Texture is the engine-side wrapper of a native texture. It keeps the CPU image for updates and
// device-loss recreation. The native object lives in the creating backend's resource table.
type Texture struct {
	handle  Handle
	flags   TextureCreationFlags
	image   *ImageBuffer
	mipMaps bool
}

// NewTexture wraps prepared creation flags. Backends call it after format substitution.
//
// Parameters:
//   - flags: the final creation flags; flags.Image must be set
//
// Returns:
//   - *Texture: the wrapper, without a native handle
func NewTexture(flags TextureCreationFlags) *Texture {
	t := &Texture{flags: flags, image: flags.Image, mipMaps: flags.MipMaps}
	t.flags.Image = nil
	return t
}

// Handle returns the native texture handle. It is invalid after DeleteTexture.
func (t *Texture) Handle() Handle {
	if t == nil {
		return InvalidHandle
	}
	return t.handle
}

// SetHandle attaches the native handle. Only backends call this.
func (t *Texture) SetHandle(h Handle) {
	t.handle = h
}

// Valid reports whether the texture has a native handle.
func (t *Texture) Valid() bool {
	return t != nil && t.handle.Valid()
}

// Size returns the stored size, which may differ from the requested one on power-of-two backends.
func (t *Texture) Size() common.Size2 {
	return t.image.Size()
}

// Format returns the stored pixel format.
func (t *Texture) Format() PixelFormat {
	return t.image.Format()
}

// Image returns the CPU image. Modify its pixels and call RenderSystem.UpdateTexture to upload.
func (t *Texture) Image() *ImageBuffer {
	return t.image
}

// Filename returns the informational file name.
func (t *Texture) Filename() string {
	return t.flags.Filename
}

// Sampler returns the sampling parameters.
func (t *Texture) Sampler() SamplerDesc {
	return t.flags.Sampler
}

// MipMaps reports whether the texture has a mip chain.
func (t *Texture) MipMaps() bool {
	return t.mipMaps
}

// RenderTarget reports whether the texture can be bound with SetRenderTarget.
func (t *Texture) RenderTarget() bool {
	return t.flags.RenderTarget
}

// MipLevels returns the number of mip levels for the stored size.
func (t *Texture) MipLevels() int {
	if !t.mipMaps {
		return 1
	}
	levels := 1
	for s := max(t.Size().Width, t.Size().Height); s > 1; s >>= 1 {
		levels++
	}
	return levels
}
