package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	primitive PrimitiveType
	vertices  []Vertex2D
	tex       *Texture
}

type recordingDrawer struct {
	calls []drawCall
}

func (d *recordingDrawer) DrawPrimitive2D(primitive PrimitiveType, vertices []Vertex2D, tex *Texture) {
	d.calls = append(d.calls, drawCall{primitive: primitive, vertices: vertices, tex: tex})
}

func validTexture(size common.Size2) *Texture {
	tex := NewTexture(TextureCreationFlags{Image: NewImageBuffer(size, PixelRGBA, nil)})
	tex.SetHandle(Handle{kind: HandleTexture, generation: 1})
	return tex
}

func TestDraw2DImageRect(t *testing.T) {
	d := &recordingDrawer{}
	b := NewBase(BackendOpenGL, DefaultSettings(), d)
	tex := validTexture(common.Size2{Width: 64, Height: 32})

	b.Draw2DImageRect(tex,
		common.Rect{Left: 10, Top: 10, Right: 42, Bottom: 26},
		common.Rect{Left: 32, Top: 0, Right: 64, Bottom: 16},
		common.ColorWhite)

	require.Len(t, d.calls, 1)
	call := d.calls[0]
	assert.Equal(t, PrimitiveTriangleStrip, call.primitive)
	assert.Same(t, tex, call.tex)
	require.Len(t, call.vertices, 4)
	assert.Equal(t, [3]float32{10, 10, 0}, call.vertices[0].Position)
	assert.Equal(t, [2]float32{0.5, 0}, call.vertices[0].TexCoord)
	assert.Equal(t, [2]float32{1, 0.5}, call.vertices[3].TexCoord)
	assert.Equal(t, common.ColorWhite.RGBA(), call.vertices[0].Color)
}

func TestDraw2DImageSkipsInvalidTexture(t *testing.T) {
	d := &recordingDrawer{}
	b := NewBase(BackendOpenGL, DefaultSettings(), d)

	b.Draw2DImage(nil, common.Point2{}, common.ColorWhite)
	b.Draw2DImage(NewTexture(TextureCreationFlags{Image: NewImageBuffer(common.Size2{Width: 1, Height: 1}, PixelRGBA, nil)}), common.Point2{}, common.ColorWhite)
	assert.Empty(t, d.calls)
}

func TestDraw2DRectangleOutline(t *testing.T) {
	d := &recordingDrawer{}
	b := NewBase(BackendDirect3D9, DefaultSettings(), d)

	b.Draw2DRectangle(common.Rect{Right: 10, Bottom: 10}, common.ColorBlack, false)
	b.Draw2DRectangle(common.Rect{Right: 10, Bottom: 10}, common.ColorBlack, true)
	b.Draw2DLine(common.Point2{}, common.Point2{X: 5, Y: 5}, common.ColorBlack)
	b.Draw2DPoint(common.Point2{X: 1, Y: 2}, common.ColorBlack)

	require.Len(t, d.calls, 4)
	assert.Equal(t, PrimitiveLineStrip, d.calls[0].primitive)
	assert.Len(t, d.calls[0].vertices, 5)
	assert.Equal(t, d.calls[0].vertices[0], d.calls[0].vertices[4])
	assert.Equal(t, PrimitiveTriangleStrip, d.calls[1].primitive)
	assert.Equal(t, PrimitiveLines, d.calls[2].primitive)
	assert.Equal(t, PrimitivePoints, d.calls[3].primitive)
}

func TestBaseNativeRectFollowsRenderTarget(t *testing.T) {
	b := NewBase(BackendOpenGL, DefaultSettings(), &recordingDrawer{})
	b.SetCaps(Caps{BottomLeftOrigin: true})
	b.SetScreenSize(common.Size2{Width: 800, Height: 600})

	r := common.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}
	assert.Equal(t, 500, b.NativeRect(r).Top)

	b.StoreRenderTarget(validTexture(common.Size2{Width: 256, Height: 256}))
	assert.Equal(t, 156, b.NativeRect(r).Top)
	b.SetInvertScreen(true)
	assert.Equal(t, 0, b.NativeRect(r).Top)
}

func TestBaseStatsAndFixedConstants(t *testing.T) {
	b := NewBase(BackendDirect3D11, DefaultSettings(), &recordingDrawer{})
	b.Track(true)
	b.Track(false)
	b.Track(false)
	b.CountDraw(PrimitiveTriangles, 6)
	b.CountBufferUpload(128)

	s := b.Stats()
	assert.Equal(t, uint64(1), s.NativeStateChanges)
	assert.Equal(t, uint64(2), s.ElidedStateChanges)
	assert.Equal(t, uint64(2), s.Primitives)
	assert.Equal(t, uint64(128), s.UploadedBytes)
	b.ResetStats()
	assert.Equal(t, FrameStats{}, b.Stats())

	b.MarkFixedClean()
	assert.True(t, b.StoreLightEnabled(2, true))
	assert.False(t, b.StoreLight(MaxFixedLights, DefaultLight()))
	fixed, dirty := b.FixedConstants()
	assert.True(t, dirty)
	assert.Equal(t, float32(1), fixed.Lights[2].Direction[3])

	assert.True(t, b.StoreClipPlane(1, common.Plane{Normal: common.Vec3{Y: 2}, Distance: 4}, true))
	assert.Equal(t, float32(2), fixed.Flags[2])
	assert.Equal(t, [4]float32{0, 1, 0, 2}, fixed.ClipPlanes[1])
	assert.Len(t, fixed.Bytes(), 1360)
}

func TestMeshBufferBuildsVertices(t *testing.T) {
	mb := NewMeshBuffer(VertexFormatDefault, IndexUint16)
	mb.AppendVertex(Vertex{Position: common.Vec3{X: 1, Y: 2, Z: 3}, Color: common.Color{R: 9, A: 255}})
	mb.AppendVertex(Vertex{})
	mb.AppendVertex(Vertex{})
	mb.AppendIndices(0, 1, 2)

	require.NoError(t, mb.Validate())
	assert.Equal(t, 36, VertexFormatDefault.Stride())
	assert.Equal(t, 3, mb.VertexCount())
	assert.Equal(t, 3, mb.ElementCount())
	assert.Equal(t, float32(2), mb.Vertices.Float32(0, 4))
	assert.Equal(t, uint8(9), mb.Vertices.Element(0)[24])
	assert.Equal(t, uint16(2), mb.Indices.Uint16(2, 0))
}

func TestVertexFormatCompatibility(t *testing.T) {
	same := NewVertexFormat("copy", VertexFormatDefault.Attributes()...)
	assert.True(t, same.Compatible(VertexFormatDefault))
	assert.False(t, VertexFormat2D.Compatible(VertexFormatDefault))
	assert.Equal(t, 24, VertexFormat2D.Stride())

	a, ok := VertexFormatDefault.Attribute(UsageTexCoord, 0)
	require.True(t, ok)
	assert.Equal(t, 28, a.Offset)
	assert.Equal(t, "TexCoord", a.SemanticName())
}

func TestBaseMatrices(t *testing.T) {
	b := NewBase(BackendOpenGL, DefaultSettings(), &recordingDrawer{})
	assert.Equal(t, common.IdentityMatrix(), b.Matrix(MatrixView))

	view := common.IdentityMatrix()
	view[12] = 5
	b.fixedDirty = false
	b.StoreMatrix(MatrixView, view)
	assert.Equal(t, view, b.Matrix(MatrixView))
	assert.Equal(t, view, b.fixed.View)
	assert.True(t, b.fixedDirty)

	b.StoreMatrix(MatrixType(-1), view)
	assert.Equal(t, common.IdentityMatrix(), b.Matrix(MatrixType(-1)))
}
