package renderer

import (
	"fmt"
	"strings"
)

// BackendType identifies the graphics API implementation behind a RenderSystem. It is chosen
// once at startup from configuration.
type BackendType int

const (
	// BackendOpenGL selects the desktop OpenGL backend.
	BackendOpenGL BackendType = iota

	// BackendOpenGLES selects the OpenGL ES variant of the OpenGL backend. Textures are
	// restricted to power-of-two sizes.
	BackendOpenGLES

	// BackendDirect3D9 selects the Direct3D 9 backend (Windows only).
	BackendDirect3D9

	// BackendDirect3D11 selects the Direct3D 11 backend (Windows only).
	BackendDirect3D11

	// BackendWebGPU selects the WebGPU backend.
	BackendWebGPU
)

var backendNames = map[BackendType]string{
	BackendOpenGL:     "opengl",
	BackendOpenGLES:   "opengles",
	BackendDirect3D9:  "direct3d9",
	BackendDirect3D11: "direct3d11",
	BackendWebGPU:     "webgpu",
}

func (b BackendType) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BackendType(%d)", int(b))
}

// ParseBackendType converts a configuration string into a BackendType. Matching is case-insensitive.
//
// Parameters:
//   - s: the backend name, e.g. "opengl" or "direct3d11"
//
// Returns:
//   - BackendType: the parsed backend
//   - error: an error if the name is unknown
func ParseBackendType(s string) (BackendType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for b, n := range backendNames {
		if n == name {
			return b, nil
		}
	}
	return BackendOpenGL, fmt.Errorf("unknown render system backend %q", s)
}

// MarshalText implements encoding.TextMarshaler so BackendType can be stored in TOML.
func (b BackendType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so BackendType can be loaded from TOML.
func (b *BackendType) UnmarshalText(text []byte) error {
	v, err := ParseBackendType(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// RenderState is a generic, numerically valued state addressed through SetRenderState and
// RenderState. Boolean states use 0 and 1.
type RenderState int

const (
	RenderStateBlending RenderState = iota
	RenderStateDepthTest
	RenderStateCullFace
	RenderStateDither
	RenderStateFog
	RenderStateLighting
	RenderStateLineSmooth
	RenderStateMultisample
	RenderStateNormalize
	RenderStatePointSmooth
	RenderStateScissor
	RenderStateStencil
	RenderStateTexture
	RenderStateColorMaterial

	renderStateCount
)

// PrimitiveType is the topology used to assemble vertices.
type PrimitiveType int

const (
	PrimitivePoints PrimitiveType = iota
	PrimitiveLines
	PrimitiveLineStrip
	PrimitiveTriangles
	PrimitiveTriangleStrip
	// PrimitiveTriangleFan is only available on backends with fixed-function heritage
	// (OpenGL, Direct3D9).
	PrimitiveTriangleFan
)

// PrimitiveCount returns the number of primitives formed by count vertices (or indices).
//
// Parameters:
//   - count: the number of vertices or indices
//
// Returns:
//   - int: the number of primitives
func (p PrimitiveType) PrimitiveCount(count int) int {
	switch p {
	case PrimitivePoints:
		return count
	case PrimitiveLines:
		return count / 2
	case PrimitiveLineStrip:
		return max(count-1, 0)
	case PrimitiveTriangles:
		return count / 3
	case PrimitiveTriangleStrip, PrimitiveTriangleFan:
		return max(count-2, 0)
	}
	return 0
}

// BufferUsage hints how often buffer contents change.
type BufferUsage int

const (
	UsageStatic BufferUsage = iota
	UsageDynamic
)

// ClearFlags selects which buffers ClearBuffers clears.
type ClearFlags uint32

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil

	ClearAll = ClearColor | ClearDepth | ClearStencil
)

// MatrixType selects one of the transformation matrices tracked by a RenderSystem.
type MatrixType int

const (
	MatrixProjection MatrixType = iota
	MatrixView
	MatrixWorld
	MatrixTexture

	matrixTypeCount
)

// FrontFace selects the winding order of front-facing triangles.
type FrontFace int

const (
	FrontFaceCounterClockwise FrontFace = iota
	FrontFaceClockwise
)
