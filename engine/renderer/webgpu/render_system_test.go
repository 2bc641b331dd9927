package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T, f *fakeDevice) *renderSystem {
	t.Helper()
	rs, err := NewRenderSystem(f, renderer.WithScreenSize(800, 600))
	require.NoError(t, err)
	f.reset()
	return rs.(*renderSystem)
}

func newTestMesh(t *testing.T, rs renderer.RenderSystem, vertices int, indices ...uint32) *renderer.MeshBuffer {
	t.Helper()
	mb := renderer.NewMeshBuffer(renderer.VertexFormatDefault, renderer.IndexUint16)
	for i := 0; i < vertices; i++ {
		mb.AppendVertex(renderer.Vertex{Position: common.Vec3{X: float32(i)}, Color: common.Color{R: 1, G: 2, B: 3, A: 4}})
	}
	mb.AppendIndices(indices...)
	require.True(t, mb.CreateHardwareBuffers(rs))
	return mb
}

const testVertexShader = `@vertex fn main(@location(0) p: vec3<f32>) -> @builtin(position) vec4<f32> { return vec4<f32>(p, 1.0); }`

const testFragmentShader = `@fragment fn main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }`

func newTestClass(t *testing.T, rs *renderSystem) *renderer.ShaderClass {
	t.Helper()
	class := rs.CreateShaderClass(renderer.VertexFormatDefault)
	require.NotNil(t, class)
	require.NotNil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.WGSL, []string{testVertexShader}, ""))
	require.NotNil(t, rs.CreateShader(class, renderer.ShaderPixel, renderer.WGSL, []string{testFragmentShader}, ""))
	require.True(t, rs.LinkShaderClass(class))
	return class
}

// constantFloat decodes the float at byte offset of a constants block.
func constantFloat(data []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
}

// texturedFlagOffset is the offset of the texture flag in the constants block.
const texturedFlagOffset = 3*64 + 59*16 + 12

func TestNewRenderSystemCreatesBuiltins(t *testing.T) {
	f := newFakeDevice()
	rs, err := NewRenderSystem(f, renderer.WithScreenSize(800, 600))
	require.NoError(t, err)

	assert.Equal(t, renderer.BackendWebGPU, rs.Backend())
	assert.Equal(t, "fake adapter", rs.Renderer())
	assert.Equal(t, "fake vendor", rs.Vendor())
	assert.Equal(t, "WebGPU (Vulkan)", rs.Version())
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateBuffer(Fixed Constants,%d)", constantsStride*constantsRingSlots)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateConstantsBindGroup(uniformBuffer#1,%d)", constantsSize)))
	assert.Equal(t, 1, f.count("CreateShaderModule(Mesh Shader 110)"))
	assert.Equal(t, 1, f.count("CreateTextureBindGroup("))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, f.writesOf("textureLevel")[0].data)
	assert.Zero(t, f.count("BeginPass("), "nothing is recorded before the first draw")

	caps := rs.Caps()
	assert.Equal(t, 16384, caps.MaxTextureSize)
	assert.Equal(t, maxTextureSlots, caps.MaxTextureLayers)
	assert.Equal(t, 8, caps.MaxClipPlanes)
	assert.Equal(t, 4, caps.MaxMultiSamples)
	assert.Equal(t, 16, caps.MaxAnisotropy)
	assert.False(t, caps.BottomLeftOrigin)
	for _, feature := range []renderer.Feature{
		renderer.FeatureShader,
		renderer.FeatureRenderTarget,
		renderer.FeatureNonPowerOfTwo,
		renderer.FeatureClipPlanes,
		renderer.FeatureAnisotropicFilter,
	} {
		assert.True(t, rs.QueryVideoSupport(feature), "feature %v", feature)
	}
	assert.False(t, rs.QueryVideoSupport(renderer.FeatureFixedFunction))
	assert.False(t, rs.QueryVideoSupport(renderer.FeatureQuery))
}

func TestNewRenderSystemWithoutAnisotropy(t *testing.T) {
	f := newFakeDevice()
	f.anisotropic = false
	rs := newTestSystem(t, f)
	assert.Equal(t, 1, rs.Caps().MaxAnisotropy)
	assert.False(t, rs.QueryVideoSupport(renderer.FeatureAnisotropicFilter))
}

func TestNewRenderSystemRejectsNilDevice(t *testing.T) {
	_, err := NewRenderSystem(nil)
	assert.Error(t, err)
}

func TestNewRenderSystemFailsOnBuiltinShader(t *testing.T) {
	f := newFakeDevice()
	f.failShader = true
	_, err := NewRenderSystem(f)
	require.Error(t, err)
	// the partial builtins are released again
	assert.Equal(t, 1, f.released["uniformBuffer"])
	assert.Equal(t, 1, f.released["texture"])
	assert.Equal(t, 1, f.released["sampler"])
}

func TestBuffersAllocatedOnUploadAndPadded(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)

	h := rs.CreateIndexBuffer()
	require.True(t, h.Valid())
	assert.Zero(t, f.count("CreateBuffer("))

	data := common.NewUniversalBuffer(2)
	data.SetBytes([]byte{1, 0, 2, 0, 3, 0})
	rs.UpdateIndexBuffer(h, data, renderer.IndexUint16, renderer.UsageStatic)
	assert.Equal(t, 1, f.count("CreateBuffer(Index Buffer,8)"))
	writes := f.writesOf("indexBuffer")
	require.Len(t, writes, 1)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 0, 0}, writes[0].data)

	// a smaller upload reuses the buffer, a larger one replaces it
	small := common.NewUniversalBuffer(2)
	small.SetBytes([]byte{4, 0})
	rs.UpdateIndexBuffer(h, small, renderer.IndexUint16, renderer.UsageStatic)
	assert.Equal(t, 1, f.count("CreateBuffer(Index Buffer"))
	large := common.NewUniversalBuffer(2)
	large.SetBytes(make([]byte, 40))
	rs.UpdateIndexBuffer(h, large, renderer.IndexUint16, renderer.UsageStatic)
	assert.Equal(t, 2, f.count("CreateBuffer(Index Buffer"))
	assert.Equal(t, 1, f.released["indexBuffer"])

	rs.DeleteIndexBuffer(&h)
	assert.False(t, h.Valid())
	assert.Equal(t, 2, f.released["indexBuffer"])
}

func TestElementUpdateWritesAlignedWindow(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3, 0, 1, 2)
	f.reset()

	mb.Indices.PutUint16(1, 0, 9)
	mb.UpdateIndexElement(rs, 1)
	writes := f.writesOf("indexBuffer")
	require.Len(t, writes, 1)
	// index 1 lives at bytes 2..4, which is covered by the word at 0
	assert.Equal(t, uint64(0), writes[0].offset)
	assert.Equal(t, []byte{0, 0, 9, 0}, writes[0].data)
	assert.Equal(t, []byte{0, 0, 9, 0, 2, 0}, rs.indexBuffers.Shadow(mb.IndexBuffer))
}

func TestDrawMeshBufferRecordsPass(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3, 0, 1, 2)
	f.reset()

	require.True(t, rs.BindMeshBuffer(mb))
	assert.Equal(t, 1, f.count("CreateShaderModule(Mesh Shader 111)"))
	rs.DrawMeshBuffer(mb)

	assert.Equal(t, 1, f.count("AcquireFrame"))
	assert.Equal(t, 1, f.count("BeginPass(<nil>,false,false,false)"))
	assert.Equal(t, 1, f.count("CreatePipeline(Mesh Shader 111,vs_main,fs_main,36)"))
	assert.Equal(t, 1, f.count("SetPipeline(pipeline#"))
	assert.Equal(t, 1, f.count("SetBindGroup(0,constantsGroup#"))
	assert.Equal(t, 1, f.count("SetBindGroup(1,textureGroup#"))
	assert.Equal(t, 1, f.count("SetViewport(0,0,800,600,0,1)"))
	assert.Equal(t, 1, f.count("SetScissorRect(0,0,800,600)"))
	assert.Equal(t, 1, f.count("SetVertexBuffer(vertexBuffer#"))
	assert.Equal(t, 1, f.count("SetIndexBuffer(indexBuffer#"))
	assert.Equal(t, 1, f.count("DrawIndexed(3,0)"))
	require.Len(t, f.writesOf("uniformBuffer"), 1)
	assert.Len(t, f.writesOf("uniformBuffer")[0].data, constantsSize)

	// a second draw with the same state only records the draw
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("SetPipeline("))
	assert.Equal(t, 1, f.count("CreatePipeline("))
	assert.Equal(t, 2, f.count("DrawIndexed(3,0)"))
	assert.Len(t, f.writesOf("uniformBuffer"), 1)

	assert.Equal(t, uint64(2), rs.Stats().DrawCalls)
	assert.Equal(t, uint64(2), rs.Stats().Primitives)

	rs.EndFrame()
	assert.Equal(t, 1, f.submits)
	assert.Equal(t, 1, f.count("BeginPass("), "the surface was drawn, no extra pass")
}

func TestPipelinesFollowRenderState(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)

	rs.SetRenderState(renderer.RenderStateDepthTest, 0)
	rs.DrawMeshBuffer(mb)
	rs.SetRenderState(renderer.RenderStateDepthTest, 1)
	rs.DrawMeshBuffer(mb)

	require.Len(t, f.pipelines, 2)
	assert.Equal(t, wgpu.CompareFunctionAlways, f.pipelines[1].State.DepthStencil().DepthCompare)
	assert.False(t, f.pipelines[1].State.DepthStencil().DepthWriteEnabled)
	assert.Equal(t, 3, f.count("SetPipeline("))
	hits, misses := rs.pipelines.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)

	rs.SetRenderState(renderer.RenderStateBlending, 0)
	rs.DrawMeshBuffer(mb)
	assert.Nil(t, f.pipelines[len(f.pipelines)-1].State.ColorTarget().Blend)
}

func TestTriangleFansAreSkipped(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 4)
	mb.Primitive = renderer.PrimitiveTriangleFan
	require.True(t, rs.BindMeshBuffer(mb))
	f.reset()
	rs.DrawMeshBuffer(mb)
	assert.Zero(t, f.count("Draw("))
	assert.Zero(t, f.count("BeginPass("))
}

func TestDrawWithoutBindIsRejected(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	f.reset()
	rs.DrawMeshBuffer(mb)
	assert.Zero(t, f.count("Draw("))
}

func TestWriteOfUsedBufferFlushesFirst(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	require.Zero(t, f.submits)
	f.reset()

	mb.UpdateVertexBuffer(rs)
	assert.Equal(t, 1, f.submits)
	require.GreaterOrEqual(t, len(f.calls), 3)
	assert.Equal(t, "EndPass()", f.calls[0])
	assert.Equal(t, "Submit()", f.calls[1])
	assert.Contains(t, f.calls[2], "WriteBuffer(vertexBuffer#")

	// the next draw opens a new pass and binds everything again
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("BeginPass("))
	assert.Equal(t, 1, f.count("SetPipeline("))
	assert.Equal(t, 1, f.count("SetBindGroup(0,"))
}

func TestConstantsRing(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	f.reset()

	for i := 0; i < 3; i++ {
		m := common.IdentityMatrix()
		m[12] = float32(i)
		rs.SetMatrix(renderer.MatrixWorld, m)
		rs.DrawMeshBuffer(mb)
	}
	writes := f.writesOf("uniformBuffer")
	require.Len(t, writes, 3)
	for i, w := range writes {
		assert.Equal(t, uint64(i*constantsStride), w.offset)
		assert.Equal(t, float32(i), constantFloat(w.data, 12*4))
	}
	assert.Equal(t, 1, f.count(fmt.Sprintf("SetBindGroup(0,constantsGroup#%d,[%d])", rs.builtin.constantsGroup.(*fakeObject).id, 2*constantsStride)))

	// a full ring is submitted before it wraps
	for i := 3; i < constantsRingSlots+1; i++ {
		rs.SetMatrix(renderer.MatrixWorld, common.IdentityMatrix())
		rs.DrawMeshBuffer(mb)
	}
	assert.Equal(t, 1, f.submits)
	assert.Equal(t, uint64(0), f.writesOf("uniformBuffer")[constantsRingSlots].offset)
}

func TestClearIsDeferredToNextPass(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)

	rs.BeginFrame()
	rs.SetClearColor(common.Color{R: 255, A: 255})
	rs.SetClearStencil(3)
	rs.ClearBuffers(renderer.ClearAll)
	assert.Zero(t, f.count("BeginPass("))

	rs.EndFrame()
	require.Len(t, f.passes, 1)
	p := f.passes[0]
	assert.True(t, p.ClearColor)
	assert.True(t, p.ClearDepth)
	assert.True(t, p.ClearStencil)
	assert.Equal(t, [4]float64{1, 0, 0, 1}, p.ColorValue)
	assert.Equal(t, float32(1), p.DepthValue)
	assert.Equal(t, uint32(3), p.StencilValue)
	assert.Equal(t, 1, f.submits)

	// an empty frame still reaches the surface once
	f.reset()
	rs.BeginFrame()
	rs.EndFrame()
	require.Len(t, f.passes, 1)
	assert.False(t, f.passes[0].ClearColor)
}

func TestClearAppliesToDrawPass(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	f.reset()

	rs.BeginFrame()
	rs.ClearBuffers(renderer.ClearColor | renderer.ClearDepth)
	rs.DrawMeshBuffer(mb)
	rs.DrawMeshBuffer(mb)
	rs.EndFrame()
	require.Len(t, f.passes, 1)
	assert.True(t, f.passes[0].ClearColor)
	assert.False(t, f.passes[0].ClearStencil)
}

func TestAcquireFailureSkipsDraw(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	f.failAcquire = true
	f.reset()
	rs.DrawMeshBuffer(mb)
	assert.Zero(t, f.count("Draw("))
	assert.Zero(t, f.count("BeginPass("))
}

func TestScissorAndViewport(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))

	rs.SetViewport(common.Point2{X: 10, Y: 20}, common.Size2{Width: 100, Height: 50})
	rs.SetClipping(true, common.Point2{X: 700, Y: 500}, common.Size2{Width: 200, Height: 200})
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("SetViewport(10,20,100,50,0,1)"))
	assert.Equal(t, 1, f.count("SetScissorRect(700,500,100,100)"), "the scissor is clamped to the target")

	rs.SetViewport(common.Point2{}, common.Size2{})
	f.reset()
	rs.DrawMeshBuffer(mb)
	assert.Zero(t, f.count("Draw"), "an empty viewport draws nothing")
}

func TestTexturesUploadMipChain(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)

	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 64, Height: 32}, Format: renderer.PixelRGB, MipMaps: true})
	require.NotNil(t, tex)
	assert.Equal(t, 7, tex.MipLevels())
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture(,64,32,7,%d)", wgpu.TextureFormatRGBA8Unorm)))
	assert.Equal(t, 7, f.count("WriteTexture("))
	assert.Len(t, f.writesOf("textureLevel")[6].data, 4, "the last level is 1x1 RGBA")
	assert.Equal(t, uint64(1), rs.Stats().TextureUploads)

	bgra := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 8, Height: 8}, Format: renderer.PixelBGRA})
	require.NotNil(t, bgra)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture(,8,8,1,%d)", wgpu.TextureFormatBGRA8Unorm)))

	f.reset()
	require.True(t, rs.UpdateTexture(bgra))
	assert.Equal(t, 1, f.count("WriteTexture("))

	rs.DeleteTexture(tex)
	assert.False(t, tex.Valid())
	assert.Equal(t, 1, rs.TextureCount())
}

func TestMeshTexturesBindGroupAndSampler(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 16, Height: 16}, Format: renderer.PixelRGBA})
	require.NotNil(t, tex)
	mb := newTestMesh(t, rs, 3)
	mb.Textures = []*renderer.Texture{tex}
	f.reset()

	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("CreateSampler("))
	assert.Equal(t, 1, f.count("CreateTextureBindGroup("))
	writes := f.writesOf("uniformBuffer")
	require.Len(t, writes, 1)
	assert.Equal(t, float32(1), constantFloat(writes[0].data, texturedFlagOffset))

	// the group is cached per binding set
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("CreateTextureBindGroup("))

	// deleting the texture releases the groups sampling it
	released := f.released["textureGroup"]
	rs.DeleteTexture(tex)
	assert.Equal(t, released+1, f.released["textureGroup"])
}

func TestRenderTargetPasses(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	rt := rs.CreateTexture(renderer.TextureCreationFlags{
		Size:         common.Size2{Width: 128, Height: 64},
		Format:       renderer.PixelRGBA,
		RenderTarget: true,
		MipMaps:      true,
	})
	require.NotNil(t, rt)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture(,128,64,1,%d)", wgpu.TextureFormatRGBA8Unorm)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture( depth,128,64,1,%d)", surfaceDepthFormat)))
	assert.Zero(t, f.count("WriteTexture("))
	native, ok := rs.textures.Lookup(rt.Handle())
	require.True(t, ok)

	mb := newTestMesh(t, rs, 3)
	mb.Textures = []*renderer.Texture{rt}
	require.True(t, rs.BindMeshBuffer(mb))
	f.reset()

	require.True(t, rs.SetRenderTarget(rt))
	assert.Equal(t, common.Size2{Width: 128, Height: 64}, rs.TargetSize())
	rs.ClearBuffers(renderer.ClearColor)
	rs.DrawMeshBuffer(mb)
	require.Len(t, f.passes, 1)
	assert.Equal(t, native.view, f.passes[0].Color)
	assert.Equal(t, native.depthView, f.passes[0].Depth)
	assert.True(t, f.passes[0].ClearColor)
	assert.Equal(t, 1, f.count("SetViewport(0,0,128,64,0,1)"))
	assert.Zero(t, f.count("CreateTextureBindGroup("), "the target is not sampled while bound")
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, f.pipelines[0].State.ColorFormat)

	require.True(t, rs.SetRenderTarget(nil))
	assert.Equal(t, 1, f.count("EndPass("))
	assert.Nil(t, rs.RenderTarget())
	assert.False(t, rs.SetRenderTarget(rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 4, Height: 4}, Format: renderer.PixelRGBA})))
}

func TestPendingClearOfTargetRunsOnSwitch(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	rt := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 32, Height: 32}, Format: renderer.PixelRGBA, RenderTarget: true})
	require.NotNil(t, rt)
	f.reset()

	require.True(t, rs.SetRenderTarget(rt))
	rs.ClearBuffers(renderer.ClearColor)
	require.True(t, rs.SetRenderTarget(nil))
	require.Len(t, f.passes, 1)
	assert.True(t, f.passes[0].ClearColor)
	assert.NotNil(t, f.passes[0].Color)
	assert.Equal(t, 1, f.count("EndPass("))
}

func TestDrawing2D(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	depthTest := rs.RenderState(renderer.RenderStateDepthTest)
	cullFace := rs.RenderState(renderer.RenderStateCullFace)

	rs.Draw2DRectangle(common.Rect{Left: 0, Top: 0, Right: 10, Bottom: 10}, common.Color{R: 1, G: 2, B: 3, A: 4}, true)
	assert.False(t, rs.Drawing2D())
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateBuffer(2D Vertices,%d)", minSpriteVertices*vertex2DStride)))
	assert.Equal(t, 1, f.count("CreatePipeline(Mesh Shader 110,vs_main,fs_main,24)"))
	assert.Equal(t, 1, f.count("Draw(4,0)"))
	require.Len(t, f.pipelines, 1)
	state := f.pipelines[0].State
	assert.True(t, state.BlendEnabled)
	assert.False(t, state.DepthTest)
	assert.Equal(t, wgpu.CullModeNone, state.CullMode)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, state.Topology)

	constants := f.writesOf("uniformBuffer")
	require.Len(t, constants, 1)
	projection := rs.Projection2D()
	for i := range projection {
		assert.Equal(t, projection[i], constantFloat(constants[0].data, 128+i*4))
	}
	assert.Zero(t, constantFloat(constants[0].data, texturedFlagOffset))

	// batches append to the ring and share the constants
	rs.BeginDrawing2D()
	rs.Draw2DRectangle(common.Rect{Left: 0, Top: 0, Right: 10, Bottom: 10}, common.ColorWhite, true)
	rs.Draw2DRectangle(common.Rect{Left: 5, Top: 5, Right: 10, Bottom: 10}, common.ColorWhite, true)
	rs.EndDrawing2D()
	sprites := f.writesOf("vertexBuffer")
	require.Len(t, sprites, 3)
	assert.Equal(t, uint64(0), sprites[0].offset)
	assert.Equal(t, uint64(4*vertex2DStride), sprites[1].offset)
	assert.Equal(t, uint64(8*vertex2DStride), sprites[2].offset)
	assert.Len(t, f.writesOf("uniformBuffer"), 1)
	assert.Equal(t, 3, f.count("SetVertexBuffer("))

	// render states are restored
	assert.Equal(t, depthTest, rs.RenderState(renderer.RenderStateDepthTest))
	assert.Equal(t, cullFace, rs.RenderState(renderer.RenderStateCullFace))
}

func TestDrawing2DIgnoresBoundShaderClassAndRebinds3D(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	class := newTestClass(t, rs)
	rs.BindShaderClass(class)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	f.reset()

	rs.Draw2DPoint(common.Point2{X: 1, Y: 1}, common.ColorWhite)
	require.Len(t, f.pipelines, 1)
	assert.Equal(t, "Mesh Shader 110", f.pipelines[0].Label)

	// the slots changed, so the mesh has to be bound again
	rs.DrawMeshBuffer(mb)
	assert.Zero(t, f.count("DrawIndexed(")+f.count("Draw(3"))
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("Draw(3,0)"))
	assert.Equal(t, "main", f.pipelines[len(f.pipelines)-1].VertexEntry)

	// the 3D draw after 2D uploads the fixed block again
	writes := f.writesOf("uniformBuffer")
	require.Len(t, writes, 2)
	assert.Equal(t, uint64(constantsStride), writes[1].offset)
}

func TestShaderClassesTakeWGSLOnly(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	class := rs.CreateShaderClass(renderer.VertexFormatDefault)
	require.NotNil(t, class)

	assert.Nil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.HLSL4, []string{"float4 main() : SV_Position { return 0; }"}, ""))
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderGeometry, renderer.WGSL, []string{"gs"}, ""))
	assert.Zero(t, f.count("CreateShaderModule("))

	vs := rs.CreateShader(class, renderer.ShaderVertex, renderer.WGSL, []string{testVertexShader}, "")
	require.NotNil(t, vs)
	assert.Equal(t, "main", vs.EntryPoint())
	assert.False(t, rs.LinkShaderClass(class), "the fragment stage is missing")
	require.NotNil(t, rs.CreateShader(class, renderer.ShaderPixel, renderer.WGSL, []string{testFragmentShader}, "fs"))
	require.True(t, rs.LinkShaderClass(class))

	p, ok := rs.programs.Lookup(class.Handle())
	require.True(t, ok)
	assert.Equal(t, "fs", p.program.fragmentEntry)
	require.Len(t, p.layout.Attributes, 4)
	for i, a := range p.layout.Attributes {
		assert.Equal(t, uint32(i), a.ShaderLocation)
	}
	assert.Equal(t, wgpu.VertexFormatUnorm8x4, p.layout.Attributes[2].Format)

	f.failShader = true
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.WGSL, []string{"broken"}, ""))
	assert.True(t, class.Linked(), "a failed replacement keeps the linked stages")
}

func TestDeleteShaderClassReleasesPipelines(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	class := newTestClass(t, rs)
	rs.BindShaderClass(class)
	assert.Equal(t, class, rs.BoundShaderClass())
	mb := newTestMesh(t, rs, 3, 0, 1, 2)
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	require.Equal(t, 1, rs.pipelines.Len())

	rs.DeleteShaderClass(class)
	assert.Nil(t, rs.BoundShaderClass())
	assert.False(t, class.Handle().Valid())
	assert.Zero(t, rs.pipelines.Len())
	assert.Equal(t, 1, f.released["pipeline"])
	assert.Equal(t, 2, f.released["shaderModule"])

	// drawing falls back to the built-in shader
	f.reset()
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("CreatePipeline(Mesh Shader 111"))
	assert.Equal(t, 1, f.count("SetPipeline("))
}

func TestQueriesAreNotSupported(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	assert.False(t, rs.QueryVideoSupport(renderer.FeatureQuery))

	for _, typ := range []renderer.QueryType{
		renderer.QuerySamplesPassed,
		renderer.QueryAnySamplesPassed,
		renderer.QueryPrimitivesGenerated,
		renderer.QueryTimeElapsed,
	} {
		assert.Nil(t, rs.CreateQuery(typ), "query type %v", typ)
	}
	rs.DeleteQuery(nil)

	// draws record no query commands
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	f.reset()
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("BeginPass(<nil>,false,false,false)"))
	for _, call := range f.calls {
		assert.NotContains(t, call, "Query")
	}
}

func TestDeviceLossRecreatesResources(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3, 0, 1, 2)
	vertices := append([]byte(nil), rs.vertexBuffers.Shadow(mb.VertexBuffer)...)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 32, Height: 32}, Format: renderer.PixelRGBA})
	require.NotNil(t, tex)
	class := newTestClass(t, rs)
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)

	rs.ReleaseAllResources()
	assert.False(t, rs.BindMeshBuffer(mb))
	assert.True(t, mb.VertexBuffer.Valid(), "handles stay valid")
	assert.Zero(t, rs.pipelines.Len())

	next := newFakeDevice()
	rs.ReplaceDevice(next)
	require.NoError(t, rs.RecreateAllResources())

	writes := next.writesOf("vertexBuffer")
	require.Len(t, writes, 1)
	assert.Equal(t, padded(vertices), writes[0].data)
	assert.Len(t, next.writesOf("indexBuffer"), 1)
	assert.Equal(t, 1, next.count("CreateTexture(,32,32,1,"))
	assert.Equal(t, 3, next.count("CreateShaderModule("), "built-in 2D variant plus both class stages")
	assert.True(t, class.Linked())

	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, next.count("DrawIndexed(3,0)"))
}

func TestCloseReleasesEverything(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 8, Height: 8}, Format: renderer.PixelRGBA})
	require.NotNil(t, tex)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)

	rs.Close()
	assert.False(t, tex.Valid())
	assert.Zero(t, rs.TextureCount())
	for _, kind := range []string{"texture", "view", "vertexBuffer", "uniformBuffer", "pipeline", "shaderModule", "sampler"} {
		assert.Equal(t, f.created[kind], f.released[kind], kind)
	}
	rs.Close()
}

func TestShaderEntryPointFromSource(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	class := rs.CreateShaderClass(renderer.VertexFormatDefault)
	require.NotNil(t, class)

	src := "// @vertex fn commented()\n@vertex\nfn vs_main(@location(0) p: vec3<f32>) -> @builtin(position) vec4<f32> { return vec4<f32>(p, 1.0); }"
	vs := rs.CreateShader(class, renderer.ShaderVertex, renderer.WGSL, []string{src}, "")
	require.NotNil(t, vs)
	assert.Equal(t, "vs_main", vs.EntryPoint())
}
