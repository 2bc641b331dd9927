package renderer

import (
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-render/common"
	"golang.org/x/image/draw"
)

// PixelFormat is the channel layout of 8-bit texture image data.
type PixelFormat int

const (
	PixelAlpha PixelFormat = iota
	PixelGray
	PixelGrayAlpha
	PixelRGB
	PixelBGR
	PixelRGBA
	PixelBGRA
)

// Channels returns the number of 8-bit channels per pixel.
func (f PixelFormat) Channels() int {
	switch f {
	case PixelAlpha, PixelGray:
		return 1
	case PixelGrayAlpha:
		return 2
	case PixelRGB, PixelBGR:
		return 3
	}
	return 4
}

func (f PixelFormat) String() string {
	switch f {
	case PixelAlpha:
		return "alpha"
	case PixelGray:
		return "gray"
	case PixelGrayAlpha:
		return "gray-alpha"
	case PixelRGB:
		return "rgb"
	case PixelBGR:
		return "bgr"
	case PixelRGBA:
		return "rgba"
	case PixelBGRA:
		return "bgra"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

func (f PixelFormat) decode(p []byte) [4]uint8 {
	switch f {
	case PixelAlpha:
		return [4]uint8{255, 255, 255, p[0]}
	case PixelGray:
		return [4]uint8{p[0], p[0], p[0], 255}
	case PixelGrayAlpha:
		return [4]uint8{p[0], p[0], p[0], p[1]}
	case PixelRGB:
		return [4]uint8{p[0], p[1], p[2], 255}
	case PixelBGR:
		return [4]uint8{p[2], p[1], p[0], 255}
	case PixelBGRA:
		return [4]uint8{p[2], p[1], p[0], p[3]}
	}
	return [4]uint8{p[0], p[1], p[2], p[3]}
}

func (f PixelFormat) encode(c [4]uint8, p []byte) {
	switch f {
	case PixelAlpha:
		p[0] = c[3]
	case PixelGray:
		p[0] = luminance(c)
	case PixelGrayAlpha:
		p[0], p[1] = luminance(c), c[3]
	case PixelRGB:
		p[0], p[1], p[2] = c[0], c[1], c[2]
	case PixelBGR:
		p[0], p[1], p[2] = c[2], c[1], c[0]
	case PixelBGRA:
		p[0], p[1], p[2], p[3] = c[2], c[1], c[0], c[3]
	default:
		p[0], p[1], p[2], p[3] = c[0], c[1], c[2], c[3]
	}
}

func luminance(c [4]uint8) uint8 {
	return uint8((uint32(c[0])*299 + uint32(c[1])*587 + uint32(c[2])*114) / 1000)
}

// ImageBuffer is a tightly packed CPU image. Textures retain their ImageBuffer so the native
// texture can be restored after device loss.
type ImageBuffer struct {
	pixels []byte
	size   common.Size2
	format PixelFormat
}

// NewImageBuffer creates an image of the given size and format. pixels is copied when it holds
// enough data, otherwise the image starts zeroed.
//
// Parameters:
//   - size: the image size
//   - format: the pixel format
//   - pixels: optional initial content, tightly packed
//
// Returns:
//   - *ImageBuffer: the new image
func NewImageBuffer(size common.Size2, format PixelFormat, pixels []byte) *ImageBuffer {
	b := &ImageBuffer{size: size, format: format}
	b.pixels = make([]byte, size.Area()*format.Channels())
	if len(pixels) >= len(b.pixels) {
		copy(b.pixels, pixels)
	}
	return b
}

// ImageBufferFromImage converts a decoded image into an RGBA image buffer.
//
// Parameters:
//   - img: the decoded image
//
// Returns:
//   - *ImageBuffer: the converted image
func ImageBufferFromImage(img image.Image) *ImageBuffer {
	bounds := img.Bounds()
	rgba, ok := img.(*image.NRGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 {
		rgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &ImageBuffer{
		pixels: rgba.Pix,
		size:   common.Size2{Width: bounds.Dx(), Height: bounds.Dy()},
		format: PixelRGBA,
	}
}

// Size returns the image size in pixels.
func (b *ImageBuffer) Size() common.Size2 {
	return b.size
}

// Format returns the pixel format.
func (b *ImageBuffer) Format() PixelFormat {
	return b.format
}

// Pixels returns the pixel data. The slice aliases the image.
func (b *ImageBuffer) Pixels() []byte {
	return b.pixels
}

// Pitch returns the size of one row in bytes.
func (b *ImageBuffer) Pitch() int {
	return b.size.Width * b.format.Channels()
}

// Clone returns a deep copy.
func (b *ImageBuffer) Clone() *ImageBuffer {
	return &ImageBuffer{pixels: append([]byte(nil), b.pixels...), size: b.size, format: b.format}
}

// Convert changes the pixel format in place. Missing alpha becomes opaque.
//
// Parameters:
//   - format: the target format
func (b *ImageBuffer) Convert(format PixelFormat) {
	if format == b.format {
		return
	}
	src, dst := b.format.Channels(), format.Channels()
	out := make([]byte, b.size.Area()*dst)
	for i := 0; i < b.size.Area(); i++ {
		format.encode(b.format.decode(b.pixels[i*src:]), out[i*dst:])
	}
	b.pixels = out
	b.format = format
}

// Rescale resizes the image with bilinear filtering.
//
// Parameters:
//   - size: the new size
func (b *ImageBuffer) Rescale(size common.Size2) {
	if size == b.size || !size.Valid() {
		return
	}
	format := b.format
	b.Convert(PixelRGBA)
	src := &image.NRGBA{Pix: b.pixels, Stride: b.size.Width * 4, Rect: image.Rect(0, 0, b.size.Width, b.size.Height)}
	dst := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	b.pixels = dst.Pix
	b.size = size
	b.Convert(format)
}

// ScaleToPowerOfTwo rescales the image to the next power-of-two size in each dimension.
//
// Returns:
//   - bool: true if the image was rescaled
func (b *ImageBuffer) ScaleToPowerOfTwo() bool {
	pot := common.Size2{
		Width:  common.NextPowerOfTwo(b.size.Width),
		Height: common.NextPowerOfTwo(b.size.Height),
	}
	if pot == b.size {
		return false
	}
	b.Rescale(pot)
	return true
}
