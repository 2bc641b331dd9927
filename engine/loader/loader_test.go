package loader

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

type fakeCreator struct {
	mu      sync.Mutex
	created []renderer.TextureCreationFlags
	deleted []*renderer.Texture
	reject  bool
}

func (c *fakeCreator) CreateTexture(flags renderer.TextureCreationFlags) *renderer.Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reject {
		return nil
	}
	c.created = append(c.created, flags)
	return renderer.NewTexture(flags)
}

func (c *fakeCreator) DeleteTexture(tex *renderer.Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, tex)
}

func testImage(w, h int, alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: alpha})
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func writeBMP(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestBackendForPath(t *testing.T) {
	for path, want := range map[string]LoaderBackendType{
		"a.png":     BackendTypePNG,
		"b.JPG":     BackendTypeJPEG,
		"c.jpeg":    BackendTypeJPEG,
		"dir/d.bmp": BackendTypeBMP,
		"e.tif":     BackendTypeTIFF,
		"f.webp":    BackendTypeWebP,
		"g.GIF":     BackendTypeGIF,
		"h.tiff":    BackendTypeTIFF,
	} {
		got, err := BackendForPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := BackendForPath("model.gltf")
	assert.Error(t, err)
}

func TestDecodeFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(4, 2, 128)))
	img, err := Decode(BackendTypePNG, &buf)
	require.NoError(t, err)
	assert.Equal(t, common.Size2{Width: 4, Height: 2}, img.Size())
	assert.Equal(t, renderer.PixelRGBA, img.Format())

	buf.Reset()
	require.NoError(t, bmp.Encode(&buf, testImage(3, 3, 255)))
	img, err = Decode(BackendTypeBMP, &buf)
	require.NoError(t, err)
	assert.Equal(t, renderer.PixelRGB, img.Format())
	assert.Len(t, img.Pixels(), 3*3*3)

	_, err = Decode(BackendTypeWebP, bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestLoadCreatesAndCachesTexture(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "wall.png", testImage(16, 8, 255))
	creator := &fakeCreator{}
	sampler := renderer.SamplerDesc{Filter: renderer.FilterNearest, Anisotropy: 1, Wrap: renderer.WrapClamp}
	l := NewLoader(WithRenderSystem(creator), WithSampler(sampler), WithMipMaps(false), WithWorkers(2))

	tex, err := l.Load(path)
	require.NoError(t, err)
	require.NotNil(t, tex)
	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, tex, again)

	require.Len(t, creator.created, 1)
	flags := creator.created[0]
	assert.Equal(t, path, flags.Filename)
	assert.Equal(t, common.Size2{Width: 16, Height: 8}, flags.Size)
	assert.Equal(t, renderer.PixelRGB, flags.Format)
	assert.Equal(t, sampler, flags.Sampler)
	assert.False(t, flags.MipMaps)

	assert.True(t, l.Release(path))
	assert.False(t, l.Release(path))
	assert.Equal(t, []*renderer.Texture{tex}, creator.deleted)
	assert.Nil(t, l.Get(path))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "wall.png", testImage(2, 2, 255))

	l := NewLoader()
	_, err := l.Load(path)
	assert.ErrorIs(t, err, ErrNoRenderSystem)

	l.SetRenderSystem(&fakeCreator{reject: true})
	_, err = l.Load(path)
	assert.ErrorIs(t, err, ErrCreateTexture)

	_, err = l.Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
	_, err = l.Load(filepath.Join(dir, "scene.obj"))
	assert.Error(t, err)
}

func pollAll(t *testing.T, l Loader, want int) []Result {
	t.Helper()
	var results []Result
	require.Eventually(t, func() bool {
		results = append(results, l.Poll()...)
		return len(results) >= want
	}, 5*time.Second, 5*time.Millisecond)
	return results
}

func TestLoadAsync(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png", testImage(8, 8, 90))
	other := writeBMP(t, dir, "other.bmp", testImage(5, 3, 255))
	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("garbage"), 0o644))

	creator := &fakeCreator{}
	l := NewLoader(WithRenderSystem(creator))
	assert.True(t, l.LoadAsync(good))
	assert.False(t, l.LoadAsync(good))
	assert.True(t, l.LoadAsync(other))
	assert.True(t, l.LoadAsync(broken))

	results := pollAll(t, l, 3)
	require.Len(t, results, 3)
	assert.Zero(t, l.Pending())

	byPath := map[string]Result{}
	for _, r := range results {
		byPath[r.Path] = r
	}
	assert.NoError(t, byPath[good].Err)
	assert.Same(t, byPath[good].Texture, l.Get(good))
	assert.NoError(t, byPath[other].Err)
	assert.Error(t, byPath[broken].Err)
	assert.Nil(t, byPath[broken].Texture)
	assert.Len(t, l.Textures(), 2)

	// cached textures are not queued again
	assert.False(t, l.LoadAsync(good))
}

func TestDecodeAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "a.png", testImage(2, 2, 255)),
		writeBMP(t, dir, "b.bmp", testImage(4, 1, 255)),
		writePNG(t, dir, "c.png", testImage(1, 3, 10)),
	}
	l := NewLoader()

	images, err := l.DecodeAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, common.Size2{Width: 2, Height: 2}, images[0].Size())
	assert.Equal(t, common.Size2{Width: 4, Height: 1}, images[1].Size())
	assert.Equal(t, renderer.PixelRGBA, images[2].Format())

	_, err = l.DecodeAll(context.Background(), append(paths, filepath.Join(dir, "missing.png")))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.DecodeAll(ctx, paths)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
