package d3d11

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
)

// Feature levels the render system can run on.
const (
	FeatureLevel9_3  uint32 = 0x9300
	FeatureLevel10_0 uint32 = 0xa000
	FeatureLevel10_1 uint32 = 0xa100
	FeatureLevel11_0 uint32 = 0xb000
)

// featureLevelName formats a feature level the way the render system reports its version.
func featureLevelName(level uint32) string {
	return fmt.Sprintf("Direct3D 11 (feature level %d_%d)", level>>12, (level>>8)&0xF)
}

// FeatureLevels lists the feature levels in the order devices are requested.
var FeatureLevels = []uint32{FeatureLevel11_0, FeatureLevel10_1, FeatureLevel10_0, FeatureLevel9_3}

// ErrDeviceLost is returned by Device calls after the device was removed or reset by the driver
// (DXGI_ERROR_DEVICE_REMOVED, DXGI_ERROR_DEVICE_RESET).
var ErrDeviceLost = errors.New("direct3d11 device removed")

// Object is a COM object owned by the render system.
type Object interface {
	Release()
}

// Buffer is a vertex, index or constant buffer.
type Buffer interface {
	Object
	// Write copies data to the byte offset. Dynamic buffers are mapped, default buffers are updated
	// with UpdateSubresource. A write of the whole buffer may discard the previous content.
	Write(offset int, data []byte) error
}

// Texture is a 2D texture, a render target or a depth-stencil texture.
type Texture interface {
	Object
	// WriteLevel copies tightly packed rows of pitch bytes into a mip level.
	WriteLevel(level int, pixels []byte, pitch int) error
}

// ShaderResourceView is a view used to sample a texture. Views of textures created with
// miscGenerateMips can regenerate the mip chain.
type ShaderResourceView interface {
	Object
	GenerateMips()
}

// RenderTargetView is a color attachment.
type RenderTargetView interface {
	Object
}

// DepthStencilView is a depth-stencil attachment.
type DepthStencilView interface {
	Object
}

// InputLayout is a created input layout.
type InputLayout interface {
	Object
}

// Shader is a created vertex, pixel or geometry shader.
type Shader interface {
	Object
}

// StateObject is an immutable blend, depth-stencil, rasterizer or sampler state.
type StateObject interface {
	Object
}

// Query is a native query or predicate.
type Query interface {
	Object
	// Data polls the result without blocking. Timestamp disjoint queries report the timestamp
	// frequency, or 0 when the interval was disjoint.
	Data() (value uint64, available bool, err error)
}

// AdapterInfo identifies the adapter the device was created on.
type AdapterInfo struct {
	Description string
	Vendor      string
	Version     string
	// VideoMemory is the dedicated video memory in bytes.
	VideoMemory uint64
}

// BufferDesc describes a buffer. Usage and Bind use the native D3D11_USAGE and D3D11_BIND_FLAG
// values.
type BufferDesc struct {
	Size  int
	Usage uint32
	Bind  uint32
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Width, Height int
	// MipLevels of 0 allocates the full chain.
	MipLevels int
	Format    uint32
	Bind      uint32
	Misc      uint32
	Samples   int
}

// InputElement is a D3D11_INPUT_ELEMENT_DESC of slot 0 with per-vertex data.
type InputElement struct {
	Semantic string
	Index    int
	Format   uint32
	Offset   int
}

// BlendDesc is the render target 0 part of a D3D11_BLEND_DESC. Source and destination factors are
// used for color and alpha.
type BlendDesc struct {
	Enable    bool
	Src, Dst  uint32
	WriteMask uint8
}

// DepthStencilDesc is a D3D11_DEPTH_STENCIL_DESC with identical front and back face operations.
type DepthStencilDesc struct {
	DepthEnable   bool
	DepthWrite    bool
	DepthFunc     uint32
	StencilEnable bool
	ReadMask      uint8
	WriteMask     uint8
	Fail          uint32
	DepthFail     uint32
	Pass          uint32
	StencilFunc   uint32
}

// RasterizerDesc is a D3D11_RASTERIZER_DESC.
type RasterizerDesc struct {
	Fill                  uint32
	Cull                  uint32
	FrontCounterClockwise bool
	DepthClip             bool
	Scissor               bool
	Multisample           bool
	AntialiasedLines      bool
}

// SamplerDesc is a D3D11_SAMPLER_DESC with the same address mode on every axis.
type SamplerDesc struct {
	Filter        uint32
	Address       uint32
	MaxAnisotropy uint32
}

// Viewport is a D3D11_VIEWPORT.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Device is the slice of ID3D11Device and its immediate context the render system drives. The
// windows build implements it with the COM binding in internal/dx; tests use a recording fake.
// Enumerations use the native values.
type Device interface {
	Adapter() AdapterInfo
	FeatureLevel() uint32

	// BackBuffer returns the views of the swap chain. They stay owned by the device.
	BackBuffer() (RenderTargetView, DepthStencilView)

	CreateBuffer(desc BufferDesc, data []byte) (Buffer, error)
	CreateTexture2D(desc TextureDesc) (Texture, error)
	CreateShaderResourceView(t Texture) (ShaderResourceView, error)
	CreateRenderTargetView(t Texture) (RenderTargetView, error)
	CreateDepthStencilView(t Texture) (DepthStencilView, error)
	CreateInputLayout(elements []InputElement, bytecode []byte) (InputLayout, error)
	CreateBlendState(desc BlendDesc) (StateObject, error)
	CreateDepthStencilState(desc DepthStencilDesc) (StateObject, error)
	CreateRasterizerState(desc RasterizerDesc) (StateObject, error)
	CreateSamplerState(desc SamplerDesc) (StateObject, error)
	CreateQuery(typ uint32) (Query, error)

	CompileShader(source, entryPoint, profile string) ([]byte, error)
	CreateVertexShader(bytecode []byte) (Shader, error)
	CreatePixelShader(bytecode []byte) (Shader, error)
	CreateGeometryShader(bytecode []byte) (Shader, error)

	IASetInputLayout(l InputLayout)
	IASetVertexBuffer(b Buffer, stride int)
	IASetIndexBuffer(b Buffer, format uint32)
	IASetPrimitiveTopology(topology uint32)
	VSSetShader(s Shader)
	PSSetShader(s Shader)
	GSSetShader(s Shader)
	VSSetConstantBuffer(slot int, b Buffer)
	PSSetConstantBuffer(slot int, b Buffer)
	PSSetShaderResource(slot int, v ShaderResourceView)
	PSSetSampler(slot int, s StateObject)
	OMSetBlendState(s StateObject)
	OMSetDepthStencilState(s StateObject, ref uint32)
	OMSetRenderTarget(rt RenderTargetView, ds DepthStencilView)
	RSSetState(s StateObject)
	RSSetViewport(v Viewport)
	RSSetScissorRect(r common.Rect)

	ClearRenderTargetView(rt RenderTargetView, color [4]float32)
	ClearDepthStencilView(ds DepthStencilView, flags uint32, depth float32, stencil uint8)
	Draw(count, start int)
	DrawIndexed(count, start int)

	Begin(q Query)
	End(q Query)
	Flush()
}
