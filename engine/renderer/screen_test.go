package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/stretchr/testify/assert"
)

func TestNativeRectFlipsForBottomLeftOrigin(t *testing.T) {
	r := common.NewRect(common.Point2{X: 10, Y: 20}, common.Size2{Width: 100, Height: 50})

	got := NativeRect(r, 600, true, false)
	assert.Equal(t, 10, got.Left)
	assert.Equal(t, 530, got.Top)
	assert.Equal(t, 50, got.Height())

	assert.Equal(t, r, NativeRect(r, 600, true, true))
	assert.Equal(t, r, NativeRect(r, 600, false, false))
	assert.Equal(t, r, NativeRect(r, 600, false, true))
}

func TestProjection2DMapsScreenCorners(t *testing.T) {
	size := common.Size2{Width: 800, Height: 600}
	project := func(m [16]float32, x, y float32) (float32, float32) {
		return m[0]*x + m[4]*y + m[12], m[1]*x + m[5]*y + m[13]
	}

	m := Projection2D(size, false, false)
	x, y := project(m, 0, 0)
	assert.InDelta(t, -1, x, 1e-5)
	assert.InDelta(t, 1, y, 1e-5, "top-left of the screen is NDC top")

	m = Projection2D(size, true, true)
	_, y = project(m, 0, 0)
	assert.InDelta(t, -1, y, 1e-5, "inverted targets put row 0 at the bottom")
}
