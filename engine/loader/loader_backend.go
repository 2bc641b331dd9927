package loader

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// LoaderBackendType identifies the image file format backend to use.
type LoaderBackendType int

const (
	BackendTypePNG LoaderBackendType = iota
	BackendTypeJPEG
	BackendTypeGIF
	BackendTypeBMP
	BackendTypeTIFF
	BackendTypeWebP
)

var backendNames = map[LoaderBackendType]string{
	BackendTypePNG:  "png",
	BackendTypeJPEG: "jpeg",
	BackendTypeGIF:  "gif",
	BackendTypeBMP:  "bmp",
	BackendTypeTIFF: "tiff",
	BackendTypeWebP: "webp",
}

func (t LoaderBackendType) String() string {
	if name, ok := backendNames[t]; ok {
		return name
	}
	return fmt.Sprintf("LoaderBackendType(%d)", int(t))
}

var extensions = map[string]LoaderBackendType{
	".png":  BackendTypePNG,
	".jpg":  BackendTypeJPEG,
	".jpeg": BackendTypeJPEG,
	".gif":  BackendTypeGIF,
	".bmp":  BackendTypeBMP,
	".tif":  BackendTypeTIFF,
	".tiff": BackendTypeTIFF,
	".webp": BackendTypeWebP,
}

// BackendForPath selects the backend from the file extension.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - LoaderBackendType: the backend decoding the file
//   - error: an error if the extension is not supported
func BackendForPath(path string) (LoaderBackendType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	t, ok := extensions[ext]
	if !ok {
		return 0, fmt.Errorf("unsupported image format %q", ext)
	}
	return t, nil
}

// loaderBackend decodes one image file format.
type loaderBackend interface {
	// Decode reads one image.
	//
	// Parameters:
	//   - r: the reader providing the encoded image
	//
	// Returns:
	//   - image.Image: the decoded image
	//   - error: error if decoding fails
	Decode(r io.Reader) (image.Image, error)
}

type decodeFunc func(io.Reader) (image.Image, error)

func (f decodeFunc) Decode(r io.Reader) (image.Image, error) {
	return f(r)
}

func newLoaderBackend(t LoaderBackendType) loaderBackend {
	switch t {
	case BackendTypePNG:
		return decodeFunc(png.Decode)
	case BackendTypeJPEG:
		return decodeFunc(jpeg.Decode)
	case BackendTypeGIF:
		return decodeFunc(gif.Decode)
	case BackendTypeBMP:
		return decodeFunc(bmp.Decode)
	case BackendTypeTIFF:
		return decodeFunc(tiff.Decode)
	case BackendTypeWebP:
		return decodeFunc(webp.Decode)
	}
	return nil
}

// Decode decodes an image into an image buffer. Opaque images are stored as RGB, all others as
// RGBA.
//
// Parameters:
//   - t: the format of the encoded image
//   - r: the reader providing the encoded image
//
// Returns:
//   - *renderer.ImageBuffer: the decoded image
//   - error: error if decoding fails
func Decode(t LoaderBackendType, r io.Reader) (*renderer.ImageBuffer, error) {
	backend := newLoaderBackend(t)
	if backend == nil {
		return nil, fmt.Errorf("unknown loader backend %s", t)
	}
	img, err := backend.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", t, err)
	}
	buf := renderer.ImageBufferFromImage(img)
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		buf.Convert(renderer.PixelRGB)
	}
	return buf, nil
}
