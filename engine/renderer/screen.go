package renderer

import "github.com/Carmen-Shannon/oxy-render/common"

// NativeRect converts a rectangle from the engine's top-left screen convention into the native
// convention of the active API. APIs with a bottom-left origin need the Y axis flipped unless the
// screen is already inverted, which is the case while a texture render target is bound.
//
// Parameters:
//   - r: the rectangle in engine coordinates
//   - screenHeight: the height of the current render target
//   - bottomLeftOrigin: whether the API's window origin is bottom-left
//   - invertScreen: whether the target is already rendered upside down
//
// Returns:
//   - common.Rect: the rectangle in native coordinates
func NativeRect(r common.Rect, screenHeight int, bottomLeftOrigin, invertScreen bool) common.Rect {
	if !bottomLeftOrigin || invertScreen {
		return r
	}
	h := r.Height()
	top := screenHeight - r.Top - h
	return common.Rect{Left: r.Left, Top: top, Right: r.Right, Bottom: top + h}
}

// Projection2D returns the orthographic projection used for 2D drawing in engine coordinates.
//
// Parameters:
//   - size: the size of the current render target
//   - bottomLeftOrigin: whether the API's window origin is bottom-left
//   - invertScreen: whether the target is rendered upside down
//
// Returns:
//   - [16]float32: a column-major projection matrix
func Projection2D(size common.Size2, bottomLeftOrigin, invertScreen bool) [16]float32 {
	var m [16]float32
	w, h := float32(size.Width), float32(size.Height)
	if bottomLeftOrigin && invertScreen {
		common.Ortho(m[:], 0, w, 0, h, -1, 1)
	} else {
		common.Ortho(m[:], 0, w, h, 0, -1, 1)
	}
	return m
}

// Vertex2D is the vertex layout of VertexFormat2D.
type Vertex2D struct {
	Position [3]float32
	// Color is packed with Color.RGBA, i.e. R in the lowest byte.
	Color    uint32
	TexCoord [2]float32
}

func quadVertices(r common.Rect, uv [4]float32, color uint32) []Vertex2D {
	l, t := float32(r.Left), float32(r.Top)
	rt, b := float32(r.Right), float32(r.Bottom)
	return []Vertex2D{
		{Position: [3]float32{l, t, 0}, Color: color, TexCoord: [2]float32{uv[0], uv[1]}},
		{Position: [3]float32{rt, t, 0}, Color: color, TexCoord: [2]float32{uv[2], uv[1]}},
		{Position: [3]float32{l, b, 0}, Color: color, TexCoord: [2]float32{uv[0], uv[3]}},
		{Position: [3]float32{rt, b, 0}, Color: color, TexCoord: [2]float32{uv[2], uv[3]}},
	}
}
