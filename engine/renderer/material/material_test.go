package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial(WithName("default"))

	assert.Equal(t, "default", m.Name())
	assert.Equal(t, DefaultStates(), m.States())
	assert.Equal(t, CompareLessEqual, m.States().DepthFunc)
}

func TestMaterialOptions(t *testing.T) {
	m := NewMaterial(
		WithoutBlending(),
		WithDepth(false, CompareAlways, false),
		WithCulling(CullNone),
		WithShininess(500),
	)

	s := m.States()
	assert.False(t, s.BlendEnabled)
	assert.False(t, s.DepthTest)
	assert.Equal(t, CullNone, s.Culling)
	assert.Equal(t, float32(128), m.Shininess())

	m.SetBlending(BlendOne, BlendOne)
	assert.True(t, m.States().BlendEnabled)
	assert.Equal(t, BlendOne, m.States().BlendTarget)
}

func TestStatesAreComparable(t *testing.T) {
	a := DefaultStates()
	b := DefaultStates()
	assert.Equal(t, a, b)
	b.Fog = true
	assert.NotEqual(t, a, b)
}

func TestStencilOption(t *testing.T) {
	st := DefaultStencil()
	st.Enabled = true
	st.Func = CompareEqual
	st.Ref = 1

	m := NewMaterial(WithStencil(st))
	assert.True(t, m.States().Stencil.Enabled)
	assert.Equal(t, CompareEqual, m.States().Stencil.Func)
	assert.False(t, DefaultStates().Stencil.Enabled)
	assert.Equal(t, StencilKeep, DefaultStates().Stencil.ZPass)
}
