package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// StateOption is a functional option used to configure a State during construction.
type StateOption func(*State)

// DefaultBlend is source-alpha blending, with the destination alpha accumulated.
var DefaultBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// NewState creates a pipeline state: triangle lists with counter-clockwise front faces, no culling,
// depth test and writes on, blending off.
//
// Parameters:
//   - opts: variadic list of StateOption functions
//
// Returns:
//   - State: the state
func NewState(opts ...StateOption) State {
	s := State{
		Topology:     wgpu.PrimitiveTopologyTriangleList,
		FrontFace:    wgpu.FrontFaceCCW,
		CullMode:     wgpu.CullModeNone,
		Blend:        DefaultBlend,
		WriteMask:    wgpu.ColorWriteMaskAll,
		DepthTest:    true,
		DepthWrite:   true,
		DepthCompare: wgpu.CompareFunctionLess,
		Stencil:      keepStencil,
		SampleCount:  1,
		ColorFormat:  wgpu.TextureFormatRGBA8Unorm,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithTopology sets the primitive topology and the strip index format.
//
// Parameters:
//   - topology: the primitive topology
//   - stripIndexFormat: the index format of indexed strips, undefined otherwise
//
// Returns:
//   - StateOption: a function that sets the topology
func WithTopology(topology wgpu.PrimitiveTopology, stripIndexFormat wgpu.IndexFormat) StateOption {
	return func(s *State) {
		s.Topology = topology
		s.StripIndexFormat = stripIndexFormat
	}
}

// WithCulling sets the culled face and the front face winding.
//
// Parameters:
//   - mode: the culled face
//   - front: the winding of front faces
//
// Returns:
//   - StateOption: a function that sets the culling
func WithCulling(mode wgpu.CullMode, front wgpu.FrontFace) StateOption {
	return func(s *State) {
		s.CullMode = mode
		s.FrontFace = front
	}
}

// WithBlend enables blending with the given state.
func WithBlend(enabled bool, blend wgpu.BlendState) StateOption {
	return func(s *State) {
		s.BlendEnabled = enabled
		s.Blend = blend
	}
}

// WithWriteMask sets the color write mask.
func WithWriteMask(mask wgpu.ColorWriteMask) StateOption {
	return func(s *State) {
		s.WriteMask = mask
	}
}

// WithDepth sets the depth test.
//
// Parameters:
//   - test: whether the depth test is enabled
//   - write: whether depth writes are enabled, only effective with the test enabled
//   - compare: the comparison of the depth test
//
// Returns:
//   - StateOption: a function that sets the depth test
func WithDepth(test, write bool, compare wgpu.CompareFunction) StateOption {
	return func(s *State) {
		s.DepthTest = test
		s.DepthWrite = write
		s.DepthCompare = compare
	}
}

// WithDepthBias sets the depth bias parameters.
//
// Parameters:
//   - bias: the constant depth bias to apply
//   - slopeScale: the slope scale depth bias to apply
//
// Returns:
//   - StateOption: a function that sets the depth bias
func WithDepthBias(bias int32, slopeScale float32) StateOption {
	return func(s *State) {
		s.DepthBias = bias
		s.DepthBiasSlopeScale = slopeScale
	}
}

// WithStencil sets the stencil test used for both faces.
//
// Parameters:
//   - enabled: whether the stencil test is enabled
//   - face: the comparison and operations
//   - readMask: the stencil read mask
//   - writeMask: the stencil write mask
//
// Returns:
//   - StateOption: a function that sets the stencil test
func WithStencil(enabled bool, face wgpu.StencilFaceState, readMask, writeMask uint32) StateOption {
	return func(s *State) {
		s.StencilEnabled = enabled
		s.Stencil = face
		s.StencilReadMask = readMask
		s.StencilWriteMask = writeMask
	}
}

// WithTarget sets the attachment formats and the sample count.
//
// Parameters:
//   - color: the color attachment format
//   - depth: the depth-stencil attachment format, undefined without one
//   - samples: the sample count of the attachments
//
// Returns:
//   - StateOption: a function that sets the target formats
func WithTarget(color, depth wgpu.TextureFormat, samples uint32) StateOption {
	return func(s *State) {
		s.ColorFormat = color
		s.DepthFormat = depth
		s.SampleCount = max(samples, 1)
	}
}
