// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// Point2 is an integer screen-space position. The engine's screen convention has its origin in the
// top-left corner with Y growing downwards.
type Point2 struct {
	X, Y int
}

// Size2 is an integer extent in pixels.
type Size2 struct {
	Width, Height int
}

// Area returns Width * Height.
func (s Size2) Area() int {
	return s.Width * s.Height
}

// Valid reports whether both dimensions are strictly positive.
func (s Size2) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size2) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Rect is an integer rectangle in screen space. Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// NewRect builds a Rect from a position and a size.
//
// Parameters:
//   - pos: the top-left corner
//   - size: the width and height
//
// Returns:
//   - Rect: the resulting rectangle
func NewRect(pos Point2, size Size2) Rect {
	return Rect{Left: pos.X, Top: pos.Y, Right: pos.X + size.Width, Bottom: pos.Y + size.Height}
}

// Width returns Right - Left.
func (r Rect) Width() int {
	return r.Right - r.Left
}

// Height returns Bottom - Top.
func (r Rect) Height() int {
	return r.Bottom - r.Top
}

// Position returns the top-left corner.
func (r Rect) Position() Point2 {
	return Point2{X: r.Left, Y: r.Top}
}

// Size returns the rectangle's extent.
func (r Rect) Size() Size2 {
	return Size2{Width: r.Width(), Height: r.Height()}
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Color is an 8-bit per channel RGBA color.
type Color struct {
	R, G, B, A uint8
}

var (
	ColorWhite = Color{255, 255, 255, 255}
	ColorBlack = Color{0, 0, 0, 255}
)

// Float4 returns the color as normalized RGBA floats.
func (c Color) Float4() [4]float32 {
	return [4]float32{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

// ARGB packs the color into a 32-bit A8R8G8B8 value as used by Direct3D9.
func (c Color) ARGB() uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// RGBA packs the color into a 32-bit value with R in the lowest byte, matching the memory
// layout of an R8G8B8A8 vertex attribute on little-endian hosts.
func (c Color) RGBA() uint32 {
	return uint32(c.A)<<24 | uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R)
}

// Vec3 is a three component float vector.
type Vec3 struct {
	X, Y, Z float32
}

// Array returns the vector as a fixed-size array.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}
