package webgpu

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrSurfaceLost is returned when the surface texture cannot be acquired or presented because
	// the surface is outdated or lost. Reconfiguring the surface recovers it.
	ErrSurfaceLost = errors.New("webgpu: surface lost")

	// ErrDeviceLost is returned once the device was lost. The render context has to create a new
	// device and recreate every resource on it.
	ErrDeviceLost = errors.New("webgpu: device lost")
)

// maxTextureSlots is the number of texture/sampler pairs in bind group 1.
const maxTextureSlots = 4

// Object is a native WebGPU object. The binding's object pointers implement it directly.
type Object interface {
	Release()
}

type (
	Buffer       interface{ Object }
	Texture      interface{ Object }
	TextureView  interface{ Object }
	Sampler      interface{ Object }
	ShaderModule interface{ Object }
	Pipeline     interface{ Object }
	BindGroup    interface{ Object }
)

// AdapterInfo describes the adapter a device was requested from.
type AdapterInfo struct {
	Name        string
	Vendor      string
	Backend     string
	Driver      string
	MaxTexture  uint32
	MaxSamples  uint32
	Anisotropic bool
}

// BufferDesc describes a buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage wgpu.BufferUsage
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label       string
	Width       uint32
	Height      uint32
	MipLevels   uint32
	SampleCount uint32
	Format      wgpu.TextureFormat
	Usage       wgpu.TextureUsage
}

// SamplerDesc describes a sampler. It is comparable so samplers can be cached per description.
type SamplerDesc struct {
	Address       wgpu.AddressMode
	MagFilter     wgpu.FilterMode
	MinFilter     wgpu.FilterMode
	MipFilter     wgpu.MipmapFilterMode
	LodMaxClamp   float32
	MaxAnisotropy uint16
}

// VertexLayout is the layout of vertex buffer slot 0.
type VertexLayout struct {
	Stride     uint64
	Attributes []wgpu.VertexAttribute
}

// PipelineDesc describes a render pipeline. Every pipeline uses the device's shared pipeline layout:
// group 0 holds the constants uniform with a dynamic offset, group 1 the texture/sampler pairs.
type PipelineDesc struct {
	Label         string
	Vertex        ShaderModule
	VertexEntry   string
	Fragment      ShaderModule
	FragmentEntry string
	Layout        VertexLayout
	State         pipeline.State
}

// ConstantsBindGroupDesc describes bind group 0: a window of Size bytes into a uniform buffer,
// positioned with a dynamic offset at SetBindGroup.
type ConstantsBindGroupDesc struct {
	Buffer Buffer
	Size   uint64
}

// TextureBindGroupDesc describes bind group 1. Slot i binds Views[i] at binding 2i and Samplers[i]
// at binding 2i+1.
type TextureBindGroupDesc struct {
	Views    [maxTextureSlots]TextureView
	Samplers [maxTextureSlots]Sampler
}

// PassDesc describes a render pass. Attachments without a clear are loaded.
type PassDesc struct {
	// Color is the color attachment, nil for the surface.
	Color TextureView
	// Depth is the depth-stencil attachment, nil for the surface depth buffer.
	Depth TextureView

	ClearColor   bool
	ColorValue   [4]float64
	ClearDepth   bool
	DepthValue   float32
	ClearStencil bool
	StencilValue uint32
}

// Device is the part of WebGPU the render system records commands through. The render context owns
// the device and its surface; the render system only records passes and submits them.
type Device interface {
	Adapter() AdapterInfo
	// SurfaceFormat returns the color format of the configured surface.
	SurfaceFormat() wgpu.TextureFormat
	// SampleCount returns the sample count of the surface attachments.
	SampleCount() uint32
	// DepthFormat returns the format of the surface depth-stencil buffer.
	DepthFormat() wgpu.TextureFormat

	CreateBuffer(desc BufferDesc) (Buffer, error)
	WriteBuffer(b Buffer, offset uint64, data []byte)
	CreateTexture(desc TextureDesc) (Texture, error)
	CreateView(t Texture) (TextureView, error)
	WriteTexture(t Texture, level, width, height, bytesPerRow uint32, pixels []byte)
	CreateSampler(desc SamplerDesc) (Sampler, error)
	CreateShaderModule(label, source string) (ShaderModule, error)
	CreatePipeline(desc PipelineDesc) (Pipeline, error)
	CreateConstantsBindGroup(desc ConstantsBindGroupDesc) (BindGroup, error)
	CreateTextureBindGroup(desc TextureBindGroupDesc) (BindGroup, error)

	// AcquireFrame acquires the next surface texture.
	AcquireFrame() error
	BeginPass(desc PassDesc) error
	SetPipeline(p Pipeline)
	SetBindGroup(group uint32, bg BindGroup, offsets []uint32)
	SetVertexBuffer(b Buffer, offset, size uint64)
	SetIndexBuffer(b Buffer, format wgpu.IndexFormat, size uint64)
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
	SetScissorRect(x, y, width, height uint32)
	SetStencilReference(ref uint32)
	Draw(count, first uint32)
	DrawIndexed(count, first uint32)
	EndPass()
	// Submit finishes the recorded commands and submits them to the queue.
	Submit() error
}
