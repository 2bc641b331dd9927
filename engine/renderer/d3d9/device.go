package d3d9

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-render/common"
)

// ErrDeviceLost is returned by Device calls while the device is lost and cannot be reset yet.
var ErrDeviceLost = errors.New("direct3d9 device lost")

// ErrDeviceNotReset is returned by TestCooperativeLevel when the device is lost but can be reset.
var ErrDeviceNotReset = errors.New("direct3d9 device not reset")

// Object is a COM object owned by the render system.
type Object interface {
	Release()
}

// VertexBuffer is a native vertex buffer.
type VertexBuffer interface {
	Object
	// Write copies data to the byte offset. A write at offset 0 may discard the previous content.
	Write(offset int, data []byte) error
}

// IndexBuffer is a native index buffer.
type IndexBuffer interface {
	Object
	Write(offset int, data []byte) error
}

// Surface is a render target or depth-stencil surface.
type Surface interface {
	Object
}

// Texture is a native 2D texture.
type Texture interface {
	Object
	// WriteLevel copies tightly packed rows of pitch bytes into a mip level.
	WriteLevel(level int, pixels []byte, pitch int) error
	// Surface returns the top level surface, used to bind render targets.
	Surface() (Surface, error)
	// GenerateMipSubLevels regenerates the mip chain of an AUTOGENMIPMAP texture.
	GenerateMipSubLevels()
}

// Query is a native query object.
type Query interface {
	Object
	Issue(flags uint32) error
	// Data polls the result, flushing pending commands to the GPU.
	Data() (value uint64, available bool, err error)
}

// VertexShader is a created vertex shader.
type VertexShader interface {
	Object
}

// PixelShader is a created pixel shader.
type PixelShader interface {
	Object
}

// VertexDeclaration is a created input layout.
type VertexDeclaration interface {
	Object
}

// AdapterInfo identifies the adapter the device was created on.
type AdapterInfo struct {
	Description string
	Driver      string
	Vendor      string
	Version     string
}

// DeviceCaps is the subset of D3DCAPS9 the render system negotiates against.
type DeviceCaps struct {
	MaxTextureWidth         int
	MaxTextureHeight        int
	MaxSimultaneousTextures int
	MaxActiveLights         int
	MaxUserClipPlanes       int
	MaxAnisotropy           int
	MaxPointSize            float32
	// VertexShaderVersion and PixelShaderVersion are encoded like D3DVS_VERSION, e.g. 0xFFFE0300.
	VertexShaderVersion uint32
	PixelShaderVersion  uint32
	NonPowerOfTwo       bool
	ScissorTest         bool
	Occlusion           bool
	Timestamp           bool
	AutoGenMipMap       bool
	MultiSamples        int
}

// ColorValue is a D3DCOLORVALUE.
type ColorValue struct {
	R, G, B, A float32
}

func colorValue(c common.Color) ColorValue {
	f := c.Float4()
	return ColorValue{R: f[0], G: f[1], B: f[2], A: f[3]}
}

// Light is a D3DLIGHT9.
type Light struct {
	Type         uint32
	Diffuse      ColorValue
	Specular     ColorValue
	Ambient      ColorValue
	Position     [3]float32
	Direction    [3]float32
	Range        float32
	Falloff      float32
	Attenuation0 float32
	Attenuation1 float32
	Attenuation2 float32
	Theta        float32
	Phi          float32
}

// Material is a D3DMATERIAL9.
type Material struct {
	Diffuse  ColorValue
	Ambient  ColorValue
	Specular ColorValue
	Emissive ColorValue
	Power    float32
}

// Viewport is a D3DVIEWPORT9.
type Viewport struct {
	X, Y, Width, Height int
	MinZ, MaxZ          float32
}

// VertexElement is a D3DVERTEXELEMENT9. The terminating D3DDECL_END element is added by the
// Device implementation.
type VertexElement struct {
	Stream     uint16
	Offset     uint16
	Type       uint8
	Method     uint8
	Usage      uint8
	UsageIndex uint8
}

// Device is the slice of IDirect3DDevice9 the render system drives. The windows build implements
// it on top of github.com/gonutz/d3d9; tests use a recording fake. Enumerations use the native
// D3D9 values.
type Device interface {
	Adapter() AdapterInfo
	Caps() DeviceCaps

	SetRenderState(state, value uint32) error
	SetSamplerState(sampler, state, value uint32) error
	SetTextureStageState(stage, state, value uint32) error
	SetTransform(state uint32, m [16]float32) error
	SetLight(index int, light Light) error
	LightEnable(index int, enable bool) error
	SetMaterial(m Material) error
	SetClipPlane(index int, plane [4]float32) error
	SetViewport(v Viewport) error
	SetScissorRect(r common.Rect) error
	Clear(flags, color uint32, z float32, stencil uint32) error

	BeginScene() error
	EndScene() error

	CreateVertexBuffer(size int, usage uint32) (VertexBuffer, error)
	CreateIndexBuffer(size int, usage, format uint32) (IndexBuffer, error)
	SetStreamSource(vb VertexBuffer, stride int) error
	SetIndices(ib IndexBuffer) error
	CreateVertexDeclaration(elements []VertexElement) (VertexDeclaration, error)
	SetVertexDeclaration(decl VertexDeclaration) error
	SetFVF(fvf uint32) error
	DrawPrimitive(primitive uint32, startVertex, primitiveCount int) error
	DrawIndexedPrimitive(primitive uint32, numVertices, startIndex, primitiveCount int) error
	DrawPrimitiveUP(primitive uint32, primitiveCount int, data []byte, stride int) error

	CreateTexture(width, height, levels int, usage, format, pool uint32) (Texture, error)
	SetTexture(stage int, tex Texture) error

	RenderTarget() (Surface, error)
	DepthStencilSurface() (Surface, error)
	CreateDepthStencilSurface(width, height int, format uint32) (Surface, error)
	SetRenderTarget(s Surface) error
	SetDepthStencilSurface(s Surface) error

	CreateQuery(typ uint32) (Query, error)

	CompileShader(source, entryPoint, profile string) ([]byte, error)
	CreateVertexShader(bytecode []byte) (VertexShader, error)
	CreatePixelShader(bytecode []byte) (PixelShader, error)
	SetVertexShader(s VertexShader) error
	SetPixelShader(s PixelShader) error
	SetVertexShaderConstantF(register int, data []float32) error
	SetPixelShaderConstantF(register int, data []float32) error
}
