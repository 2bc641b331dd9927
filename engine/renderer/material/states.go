package material

// BlendFactor selects a source or destination factor of the color blending equation.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstColor
	BlendInvDstColor
	BlendDstAlpha
	BlendInvDstAlpha
)

// CompareFunc is the comparison used by depth, stencil and alpha tests.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareEqual
	CompareNotEqual
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual
	CompareAlways
)

// StencilOp is the action taken on the stencil buffer after a stencil or depth test.
type StencilOp int

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncr
	StencilIncrWrap
	StencilDecr
	StencilDecrWrap
	StencilInvert
)

// FaceCulling selects which polygon faces are discarded.
type FaceCulling int

const (
	// CullNone draws both faces.
	CullNone FaceCulling = iota
	// CullFront discards front faces.
	CullFront
	// CullBack discards back faces. This is the default.
	CullBack
)

// ShadeMode selects between interpolated and per-face shading.
type ShadeMode int

const (
	ShadeSmooth ShadeMode = iota
	ShadeFlat
)

// PolygonMode selects how polygons are rasterized.
type PolygonMode int

const (
	PolygonSolid PolygonMode = iota
	PolygonWireframe
	PolygonPoints
)

// States is the bundle of render states a material applies per draw call. It is a comparable
// value so that backends can use it directly as a cache or pipeline key.
type States struct {
	BlendEnabled bool
	BlendSource  BlendFactor
	BlendTarget  BlendFactor

	DepthTest  bool
	DepthFunc  CompareFunc
	DepthWrite bool

	Culling     FaceCulling
	Shading     ShadeMode
	PolygonMode PolygonMode

	Lighting      bool
	Fog           bool
	ColorMaterial bool
	AntiAlias     bool

	Stencil StencilState
}

// StencilState configures the stencil test. It is part of States so that materials can mask
// geometry, e.g. for portals or outlines.
type StencilState struct {
	Enabled   bool
	Func      CompareFunc
	Ref       int32
	ReadMask  uint32
	WriteMask uint32
	Fail      StencilOp
	ZFail     StencilOp
	ZPass     StencilOp
}

// DefaultStencil returns a disabled stencil test that always passes and keeps the buffer.
func DefaultStencil() StencilState {
	return StencilState{
		Func:      CompareAlways,
		ReadMask:  0xFFFFFFFF,
		WriteMask: 0xFFFFFFFF,
		Fail:      StencilKeep,
		ZFail:     StencilKeep,
		ZPass:     StencilKeep,
	}
}

// DefaultStates returns the states a freshly initialized backend starts with: alpha blending,
// less-or-equal depth testing with depth writes, back-face culling and smooth shading.
//
// Returns:
//   - States: the default state bundle
func DefaultStates() States {
	return States{
		BlendEnabled:  true,
		BlendSource:   BlendSrcAlpha,
		BlendTarget:   BlendInvSrcAlpha,
		DepthTest:     true,
		DepthFunc:     CompareLessEqual,
		DepthWrite:    true,
		Culling:       CullBack,
		Shading:       ShadeSmooth,
		PolygonMode:   PolygonSolid,
		ColorMaterial: true,
		Stencil:       DefaultStencil(),
	}
}
