// Package renderer defines the RenderSystem contract shared by all graphics backends together with
// the backend-independent resource wrappers, handle tables and state caching primitives.
package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// RenderSystem is the polymorphic drawing contract of the engine. Exactly one implementation is
// constructed per render context, selected by BackendType from configuration.
//
// All methods must be called from the render thread that owns the active render context. Creation
// methods never panic: they return an invalid Handle or nil on failure and log the reason.
type RenderSystem interface {
	// Backend returns the backend type.
	Backend() BackendType

	// Renderer returns the native renderer description, e.g. the GPU name.
	Renderer() string

	// Vendor returns the native vendor description.
	Vendor() string

	// Version returns the native API version description.
	Version() string

	// Caps returns the negotiated capabilities.
	Caps() Caps

	// QueryVideoSupport reports whether a feature is available.
	//
	// Parameters:
	//   - f: the feature to query
	//
	// Returns:
	//   - bool: true if the feature is supported
	QueryVideoSupport(f Feature) bool

	// ScreenSize returns the size of the main render target.
	ScreenSize() common.Size2

	// Resize informs the render system that the main render target changed size.
	//
	// Parameters:
	//   - size: the new size in pixels
	Resize(size common.Size2)

	// Stats returns the counters accumulated since the last ResetStats.
	Stats() FrameStats

	// ResetStats zeroes the counters.
	ResetStats()

	// BeginFrame prepares a new frame.
	BeginFrame()

	// EndFrame finishes the frame. Presentation is done by the render context.
	EndFrame()

	// ClearBuffers clears the selected buffers of the current render target.
	//
	// Parameters:
	//   - flags: the buffers to clear
	ClearBuffers(flags ClearFlags)

	// SetClearColor sets the color used by ClearBuffers.
	SetClearColor(c common.Color)

	// SetClearStencil sets the stencil value used by ClearBuffers.
	SetClearStencil(stencil uint32)

	// SetColorMask enables or disables writes to the color channels.
	SetColorMask(r, g, b, a bool)

	// SetDepthMask enables or disables depth writes.
	SetDepthMask(write bool)

	// SetDepthRange maps normalized depth to the [near, far] window range.
	SetDepthRange(near, far float32)

	// SetAntiAlias toggles multisample rasterization.
	SetAntiAlias(enable bool)

	// SetShadeMode selects flat or smooth shading.
	SetShadeMode(mode material.ShadeMode)

	// SetFrontFace selects the winding of front faces.
	SetFrontFace(face FrontFace)

	// SetLineSize sets the rasterized line width.
	SetLineSize(size float32)

	// SetPointSize sets the rasterized point size.
	SetPointSize(size float32)

	// SetStencilMask sets the stencil write mask.
	SetStencilMask(mask uint32)

	// SetStencilMethod sets the stencil comparison.
	//
	// Parameters:
	//   - fn: the comparison function
	//   - ref: the reference value
	//   - mask: the read mask
	SetStencilMethod(fn material.CompareFunc, ref int32, mask uint32)

	// SetStencilOperation sets the stencil buffer updates.
	//
	// Parameters:
	//   - fail: the operation when the stencil test fails
	//   - zfail: the operation when the depth test fails
	//   - zpass: the operation when both tests pass
	SetStencilOperation(fail, zfail, zpass material.StencilOp)

	// SetRenderState sets a generic render state. Boolean states use 0 and 1.
	SetRenderState(state RenderState, value int32)

	// RenderState returns the last value set for a generic render state.
	RenderState(state RenderState) int32

	// SetBlending sets the blend factors.
	SetBlending(src, dst material.BlendFactor)

	// SetupMaterialStates applies the states of a material through the state cache.
	//
	// Parameters:
	//   - m: the material to apply
	//   - forced: bypass the cache once and resynchronize it, used after a context switch
	SetupMaterialStates(m material.Material, forced bool)

	// SetClipping enables a scissor rectangle given in engine coordinates.
	//
	// Parameters:
	//   - enable: whether to enable the scissor test
	//   - pos: the top-left corner
	//   - size: the rectangle size
	SetClipping(enable bool, pos common.Point2, size common.Size2)

	// SetViewport sets the viewport in engine coordinates.
	//
	// Parameters:
	//   - pos: the top-left corner
	//   - size: the viewport size
	SetViewport(pos common.Point2, size common.Size2)

	// Viewport returns the current viewport in engine coordinates.
	Viewport() common.Rect

	// SetClipPlane sets and toggles a user clip plane.
	//
	// Parameters:
	//   - index: the clip plane slot
	//   - plane: the plane in world space
	//   - enable: whether the plane clips
	SetClipPlane(index int, plane common.Plane, enable bool)

	// SetFog selects the fog technique; FogNone disables fog.
	SetFog(fog FogType)

	// Fog returns the current fog technique.
	Fog() FogType

	// SetFogColor sets the fog color.
	SetFogColor(c common.Color)

	// SetFogRange sets the fog falloff.
	//
	// Parameters:
	//   - density: the density for exponential modes
	//   - near: the start distance for linear mode
	//   - far: the end distance for linear mode
	//   - mode: the falloff mode
	SetFogRange(density, near, far float32, mode FogMode)

	// MaxLightCount returns the number of light slots.
	MaxLightCount() int

	// SetGlobalAmbient sets the scene ambient color.
	SetGlobalAmbient(c common.Color)

	// SetLight configures a light slot.
	//
	// Parameters:
	//   - index: the light slot, below MaxLightCount
	//   - desc: the light description
	SetLight(index int, desc LightDesc)

	// SetLightEnabled toggles a light slot.
	SetLightEnabled(index int, enable bool)

	// SetMatrix sets one of the transformation matrices (column-major).
	SetMatrix(t MatrixType, m [16]float32)

	// Matrix returns one of the transformation matrices.
	Matrix(t MatrixType) [16]float32

	// CreateVertexBuffer creates an empty hardware vertex buffer.
	//
	// Returns:
	//   - Handle: the buffer handle, invalid on failure
	CreateVertexBuffer() Handle

	// CreateIndexBuffer creates an empty hardware index buffer.
	//
	// Returns:
	//   - Handle: the buffer handle, invalid on failure
	CreateIndexBuffer() Handle

	// DeleteVertexBuffer deletes a vertex buffer and nulls the caller's handle. Deleting an
	// invalid handle is a no-op.
	DeleteVertexBuffer(h *Handle)

	// DeleteIndexBuffer deletes an index buffer and nulls the caller's handle. Deleting an invalid
	// handle is a no-op.
	DeleteIndexBuffer(h *Handle)

	// UpdateVertexBuffer uploads the whole buffer content, reallocating the native buffer when it grows.
	// It is a no-op when hardware buffers are unsupported or data is empty.
	//
	// Parameters:
	//   - h: the vertex buffer
	//   - data: the vertex data
	//   - format: the vertex format of data
	//   - usage: the usage hint
	UpdateVertexBuffer(h Handle, data *common.UniversalBuffer, format *VertexFormat, usage BufferUsage)

	// UpdateIndexBuffer uploads the whole index buffer content.
	//
	// Parameters:
	//   - h: the index buffer
	//   - data: the index data
	//   - format: the index type
	//   - usage: the usage hint
	UpdateIndexBuffer(h Handle, data *common.UniversalBuffer, format IndexFormat, usage BufferUsage)

	// UpdateVertexBufferElement uploads only the bytes [stride*index, stride*(index+1)) of data.
	UpdateVertexBufferElement(h Handle, data *common.UniversalBuffer, index int)

	// UpdateIndexBufferElement uploads only the bytes [stride*index, stride*(index+1)) of data.
	UpdateIndexBufferElement(h Handle, data *common.UniversalBuffer, index int)

	// BindMeshBuffer binds the hardware buffers of a mesh.
	//
	// Parameters:
	//   - mb: the mesh buffer
	//
	// Returns:
	//   - bool: false if hardware buffers are unsupported, the handles are invalid or the mesh's
	//     vertex format is incompatible with the bound shader class
	BindMeshBuffer(mb *MeshBuffer) bool

	// UnbindMeshBuffer releases the bindings made by BindMeshBuffer.
	UnbindMeshBuffer(mb *MeshBuffer)

	// DrawMeshBufferPart draws count elements starting at start of a bound mesh buffer.
	DrawMeshBufferPart(mb *MeshBuffer, start, count int)

	// DrawMeshBuffer draws all elements of a bound mesh buffer.
	DrawMeshBuffer(mb *MeshBuffer)

	// CreateTexture creates a texture and registers it.
	//
	// Parameters:
	//   - flags: the creation parameters
	//
	// Returns:
	//   - *Texture: the texture, or nil on failure
	CreateTexture(flags TextureCreationFlags) *Texture

	// UpdateTexture uploads the texture's CPU image.
	//
	// Returns:
	//   - bool: false if the texture has no native object
	UpdateTexture(tex *Texture) bool

	// DeleteTexture deletes the native texture, invalidates its handle and unregisters it. Deleting
	// twice is a no-op.
	DeleteTexture(tex *Texture)

	// Textures returns a snapshot of the registered textures.
	Textures() []*Texture

	// TextureCount returns the number of registered textures.
	TextureCount() int

	// CreateShaderClass creates an empty shader class.
	//
	// Parameters:
	//   - inputLayout: the vertex format the shaders consume
	//
	// Returns:
	//   - *ShaderClass: the class, or nil if shaders are unsupported
	CreateShaderClass(inputLayout *VertexFormat) *ShaderClass

	// CreateShader compiles a shader and attaches it to a class.
	//
	// Parameters:
	//   - class: the owning class
	//   - t: the pipeline stage
	//   - version: the shading language version
	//   - source: the source lines
	//   - entryPoint: the entry point function (ignored by GLSL, which always uses main)
	//
	// Returns:
	//   - *Shader: the shader, or nil if compilation failed
	CreateShader(class *ShaderClass, t ShaderType, version ShaderVersion, source []string, entryPoint string) *Shader

	// LinkShaderClass links the attached shaders into a program.
	//
	// Returns:
	//   - bool: true on success
	LinkShaderClass(class *ShaderClass) bool

	// BindShaderClass makes a linked class current. nil restores the built-in pipeline.
	BindShaderClass(class *ShaderClass)

	// DeleteShaderClass deletes a class and its shaders.
	DeleteShaderClass(class *ShaderClass)

	// SetRenderTarget redirects drawing into a render-target texture. nil restores the main target
	// with its viewport and depth-stencil binding.
	//
	// Returns:
	//   - bool: false if the texture is not a valid render target
	SetRenderTarget(tex *Texture) bool

	// RenderTarget returns the bound render-target texture, or nil for the main target.
	RenderTarget() *Texture

	// CreateQuery creates a query.
	//
	// Returns:
	//   - Query: the query, or nil if the type is unsupported
	CreateQuery(t QueryType) Query

	// DeleteQuery deletes the native query.
	DeleteQuery(q Query)

	// BeginDrawing2D switches to 2D drawing state: orthographic projection in engine coordinates,
	// no depth test, alpha blending.
	BeginDrawing2D()

	// EndDrawing2D restores the state saved by BeginDrawing2D.
	EndDrawing2D()

	// Draw2DImage draws a texture at its own size.
	Draw2DImage(tex *Texture, pos common.Point2, color common.Color)

	// Draw2DImageRect draws the clip rectangle (in texels) of a texture into rect. An empty clip
	// rectangle selects the whole texture.
	Draw2DImageRect(tex *Texture, rect, clip common.Rect, color common.Color)

	// Draw2DRectangle draws a filled or outlined rectangle.
	Draw2DRectangle(rect common.Rect, color common.Color, solid bool)

	// Draw2DLine draws a line.
	Draw2DLine(a, b common.Point2, color common.Color)

	// Draw2DPoint draws a point.
	Draw2DPoint(p common.Point2, color common.Color)

	// ReleaseAllResources releases every native object while keeping all wrappers and handles.
	ReleaseAllResources()

	// RecreateAllResources re-allocates every released native object and restores its content.
	//
	// Returns:
	//   - error: the joined errors of resources that could not be restored
	RecreateAllResources() error

	// Close deletes all resources. The render system must not be used afterwards.
	Close()
}
