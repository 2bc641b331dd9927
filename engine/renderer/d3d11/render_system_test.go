package d3d11

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
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

func newTestClass(t *testing.T, rs *renderSystem) *renderer.ShaderClass {
	t.Helper()
	class := rs.CreateShaderClass(renderer.VertexFormatDefault)
	require.NotNil(t, class)
	require.NotNil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.HLSL4, []string{"float4 main(float4 p : POSITION) : SV_Position { return p; }"}, ""))
	require.NotNil(t, rs.CreateShader(class, renderer.ShaderPixel, renderer.HLSL4, []string{"float4 main() : SV_Target { return 1; }"}, ""))
	require.True(t, rs.LinkShaderClass(class))
	return class
}

// colorOffset is the offset of the color attribute in VertexFormatDefault.
const colorOffset = 24

func TestNewRenderSystemCompilesBuiltins(t *testing.T) {
	f := newFakeDevice()
	rs, err := NewRenderSystem(f, renderer.WithScreenSize(800, 600))
	require.NoError(t, err)

	assert.Equal(t, renderer.BackendDirect3D11, rs.Backend())
	assert.Equal(t, "fake adapter", rs.Renderer())
	assert.Equal(t, "fake vendor", rs.Vendor())
	assert.Equal(t, "Direct3D 11 (feature level 11_0)", rs.Version())
	assert.Equal(t, 2, f.count("CompileShader(main,ps_4_0)"))
	assert.Equal(t, 1, f.count("CompileShader(main,vs_4_0)"))
	assert.Equal(t, 1, f.count("CreateInputLayout(POSITION0+COLOR0+TEXCOORD0,vs_4_0:main)"))
	assert.Equal(t, 2, f.count(fmt.Sprintf("CreateBuffer(%d,%d,%d)", constantsSize, usageDynamic, bindConstantBuffer))+
		f.count(fmt.Sprintf("CreateBuffer(%d,%d,%d)", spriteConstantsSize, usageDynamic, bindConstantBuffer)))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, f.writesOf("textureLevel")[0].data)
	assert.Equal(t, 1, f.count("OMSetRenderTarget(backBuffer#"))
	assert.Equal(t, 1, f.count("RSSetViewport(0,0,800,600,0,1)"))

	caps := rs.Caps()
	assert.Equal(t, 16384, caps.MaxTextureSize)
	assert.Equal(t, 8, caps.MaxTextureLayers)
	assert.Equal(t, 8, caps.MaxClipPlanes)
	assert.Equal(t, 8, caps.MaxMultiSamples)
	assert.False(t, caps.RequiresPowerOfTwo)
	assert.False(t, rs.QueryVideoSupport(renderer.FeatureFixedFunction))
	for _, feature := range []renderer.Feature{
		renderer.FeatureShader,
		renderer.FeatureQuery,
		renderer.FeatureRenderTarget,
		renderer.FeatureNonPowerOfTwo,
		renderer.FeatureClipPlanes,
		renderer.FeatureAnisotropicFilter,
	} {
		assert.True(t, rs.QueryVideoSupport(feature), "feature %v", feature)
	}
}

func TestFeatureLevel9_3(t *testing.T) {
	f := newFakeDevice()
	f.level = FeatureLevel9_3
	rs, err := NewRenderSystem(f, renderer.WithScreenSize(800, 600))
	require.NoError(t, err)
	assert.Equal(t, 2, f.count("CompileShader(main,ps_4_0_level_9_3)"))
	assert.Equal(t, 1, f.count("CompileShader(main,vs_4_0_level_9_3)"))

	caps := rs.Caps()
	assert.Equal(t, 4096, caps.MaxTextureSize)
	assert.Equal(t, 4, caps.MaxMultiSamples)
	assert.Zero(t, caps.MaxClipPlanes)
	assert.True(t, caps.RequiresPowerOfTwo)
	assert.False(t, rs.QueryVideoSupport(renderer.FeatureNonPowerOfTwo))
	assert.Nil(t, rs.CreateQuery(renderer.QueryPrimitivesGenerated))

	class := rs.CreateShaderClass(renderer.VertexFormatDefault)
	require.NotNil(t, class)
	assert.NotNil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.HLSL4, []string{"vs"}, ""))
	assert.Equal(t, 2, f.count("CompileShader(main,vs_4_0_level_9_3)"))
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.HLSL5, []string{"vs"}, ""))
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderGeometry, renderer.HLSL4, []string{"gs"}, ""))

	npot := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 100, Height: 60}, Format: renderer.PixelAlpha})
	require.NotNil(t, npot)
	assert.Equal(t, common.Size2{Width: 128, Height: 64}, npot.Size())
	// no single channel alpha format below 10_0
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture2D(128,64,1,%d,", formatR8G8B8A8Unorm)))

	mb := newTestMesh(t, rs, 3)
	f.reset()
	require.True(t, rs.BindMeshBuffer(mb))
	require.Len(t, f.sources, 1)
	assert.NotContains(t, f.sources[0], "#define CLIP_DISTANCES")
}

func TestNewRenderSystemRejectsNilDevice(t *testing.T) {
	_, err := NewRenderSystem(nil)
	assert.Error(t, err)
}

func TestNewRenderSystemFailsOnBuiltinCompile(t *testing.T) {
	f := newFakeDevice()
	f.failCompile = true
	_, err := NewRenderSystem(f)
	assert.Error(t, err)
}

func TestBuffersAllocatedOnUploadAndGrowth(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	h := rs.CreateVertexBuffer()
	require.True(t, h.Valid())
	assert.Zero(t, f.count("CreateBuffer("))

	mb := newTestMesh(t, rs, 2)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateBuffer(72,%d,%d)", usageDefault, bindVertexBuffer)))
	writes := f.writesOf("vertexBuffer")
	require.Len(t, writes, 1)
	// R8G8B8A8 matches the engine color layout
	assert.Equal(t, []byte{1, 2, 3, 4}, writes[0].data[colorOffset:colorOffset+4])
	assert.Equal(t, mb.Vertices.Bytes(), rs.vertexBuffers.Shadow(mb.VertexBuffer))
	f.reset()

	mb.UpdateVertexBuffer(rs)
	assert.Zero(t, f.count("CreateBuffer("))
	mb.AppendVertex(renderer.Vertex{})
	mb.UpdateVertexBuffer(rs)
	assert.Equal(t, 1, f.count("CreateBuffer(108,"))
	assert.Equal(t, 1, f.released["vertexBuffer"])

	mb.Usage = renderer.UsageDynamic
	mb.UpdateVertexBuffer(rs)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateBuffer(108,%d,%d)", usageDynamic, bindVertexBuffer)))
	assert.Equal(t, 2, f.released["vertexBuffer"])

	rs.DeleteVertexBuffer(&h)
	assert.False(t, h.Valid())
	mb.DeleteHardwareBuffers(rs)
	assert.Equal(t, 3, f.released["vertexBuffer"])
}

func TestElementUpdateTransmitsOnlyThatElement(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 10)
	stride := renderer.VertexFormatDefault.Stride()
	f.reset()

	mb.WriteVertex(5, renderer.Vertex{Position: common.Vec3{X: 42}, Color: common.Color{R: 9, G: 8, B: 7, A: 6}})
	mb.UpdateVertexElement(rs, 5)

	writes := f.writesOf("vertexBuffer")
	require.Len(t, writes, 1)
	assert.Equal(t, 5*stride, writes[0].offset)
	assert.Len(t, writes[0].data, stride)
	assert.Equal(t, []byte{9, 8, 7, 6}, writes[0].data[colorOffset:colorOffset+4])
	assert.Zero(t, f.count("CreateBuffer("))
	assert.Equal(t, mb.Vertices.Bytes(), rs.vertexBuffers.Shadow(mb.VertexBuffer))

	f.reset()
	mb.UpdateVertexElement(rs, 10)
	assert.Empty(t, f.writes)
}

func TestDrawMeshBufferWithBuiltinShader(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 4, 0, 1, 2, 2, 1, 3)
	f.reset()

	require.True(t, rs.BindMeshBuffer(mb))
	require.Len(t, f.sources, 1)
	for _, define := range []string{"HAS_NORMAL", "HAS_COLOR", "HAS_TEXCOORD", "CLIP_DISTANCES"} {
		assert.Contains(t, f.sources[0], "#define "+define)
	}
	assert.Equal(t, 1, f.count("CreateInputLayout(POSITION0+NORMAL0+COLOR0+TEXCOORD0,vs_4_0:main)"))
	assert.Equal(t, 1, f.count("IASetVertexBuffer(vertexBuffer#"))
	assert.Equal(t, 1, f.count(fmt.Sprintf("IASetIndexBuffer(indexBuffer#%d,%d)", rs.mustIndexID(t, mb), formatR16Uint)))
	assert.Equal(t, 1, f.count("PSSetShaderResource(0,view#"))

	rs.DrawMeshBuffer(mb)
	rs.DrawMeshBufferPart(mb, 3, 3)
	assert.Equal(t, 1, f.count(fmt.Sprintf("IASetPrimitiveTopology(%d)", topologyTriangleList)))
	assert.Equal(t, 1, f.count("DrawIndexed(6,0)"))
	assert.Equal(t, 1, f.count("DrawIndexed(3,3)"))
	assert.Equal(t, 1, f.count("CreateBlendState("))
	assert.Equal(t, 1, f.count("OMSetBlendState("))
	assert.Equal(t, 1, f.count("VSSetConstantBuffer(0,constantBuffer#"))
	assert.Equal(t, 1, f.count("PSSetConstantBuffer(0,constantBuffer#"))
	constants := f.writesOf("constantBuffer")
	require.Len(t, constants, 1)
	assert.Len(t, constants[0].data, constantsSize)
	assert.Equal(t, uint64(2), rs.Stats().DrawCalls)
	assert.Equal(t, uint64(3), rs.Stats().Primitives)

	// the variant and its layout are compiled once per vertex format
	f.reset()
	rs.UnbindMeshBuffer(mb)
	rs.DrawMeshBuffer(mb)
	assert.Zero(t, f.count("DrawIndexed("))
	require.True(t, rs.BindMeshBuffer(mb))
	assert.Zero(t, f.count("CompileShader("))
	assert.Zero(t, f.count("CreateInputLayout("))
	assert.Zero(t, f.count("IASetVertexBuffer("))

	var invalid renderer.MeshBuffer
	assert.False(t, rs.BindMeshBuffer(&invalid))
}

// mustIndexID returns the fake object id of the index buffer of mb.
func (r *renderSystem) mustIndexID(t *testing.T, mb *renderer.MeshBuffer) int {
	t.Helper()
	ib, ok := r.indexBuffers.Lookup(mb.IndexBuffer)
	require.True(t, ok)
	return ib.native.(*fakeObject).id
}

func TestTriangleFansAreRejected(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 4)
	mb.Primitive = renderer.PrimitiveTriangleFan
	require.True(t, rs.BindMeshBuffer(mb))
	f.reset()

	rs.DrawMeshBuffer(mb)
	assert.Zero(t, f.count("Draw("))
	assert.Zero(t, rs.Stats().DrawCalls)
}

func TestMeshWithoutPositionCannotUseBuiltinShader(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	format := renderer.NewVertexFormat("colors", renderer.VertexAttribute{Usage: renderer.UsageColor, Type: renderer.AttributeUint8, Components: 4, Normalized: true})
	mb := renderer.NewMeshBuffer(format, renderer.IndexUint16)
	require.NoError(t, mb.Vertices.Append(make([]byte, 4)))
	require.True(t, mb.CreateHardwareBuffers(rs))

	assert.False(t, rs.BindMeshBuffer(mb))
}

func TestConstantsUploadedPerRevision(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	f.reset()

	rs.DrawMeshBuffer(mb)
	assert.Empty(t, f.writesOf("constantBuffer"))

	world := common.IdentityMatrix()
	world[12] = 5
	rs.SetMatrix(renderer.MatrixWorld, world)
	rs.DrawMeshBuffer(mb)
	constants := f.writesOf("constantBuffer")
	require.Len(t, constants, 1)
	// matrices are transposed for mul(v, M): the translation ends up in the last column
	assert.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(constants[0].data[3*4:])))

	rs.SetClipPlane(8, common.Plane{Normal: common.Vec3{Y: 1}}, true)
	assert.Empty(t, f.writesOf("constantBuffer")[1:])
	rs.SetClipPlane(1, common.Plane{Normal: common.Vec3{Y: 1}}, true)
	fc, _ := rs.FixedConstants()
	assert.Equal(t, float32(2), fc.Flags[2])
	rs.DrawMeshBuffer(mb)
	assert.Len(t, f.writesOf("constantBuffer"), 2)
}

func TestStateObjectsCachedPerDescription(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	objects := rs.objects.len()
	f.reset()

	rs.SetRenderState(renderer.RenderStateBlending, 0)
	rs.SetRenderState(renderer.RenderStateCullFace, 0)
	assert.Zero(t, f.count("CreateBlendState("), "descriptions are only turned into objects at draw time")
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("CreateBlendState(false,"))
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateRasterizerState(%d,%d,", fillSolid, cullNone)))
	assert.Equal(t, 1, f.count("OMSetBlendState("))
	assert.Zero(t, f.count("OMSetDepthStencilState("))
	f.reset()

	rs.SetRenderState(renderer.RenderStateBlending, 1)
	rs.SetRenderState(renderer.RenderStateCullFace, 1)
	rs.DrawMeshBuffer(mb)
	assert.Zero(t, f.count("CreateBlendState("))
	assert.Zero(t, f.count("CreateRasterizerState("))
	assert.Equal(t, 1, f.count("OMSetBlendState("))
	assert.Equal(t, 1, f.count("RSSetState("))
	assert.Equal(t, objects+2, rs.objects.len())

	f.reset()
	rs.DrawMeshBuffer(mb)
	assert.Zero(t, f.count("OMSetBlendState("))
	assert.Zero(t, f.count("RSSetState("))
}

func TestStencilReferenceRebindsDepthStencilState(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	f.reset()

	rs.SetStencilMethod(material.CompareAlways, 7, 0xff)
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("OMSetDepthStencilState("))
	i := slices.IndexFunc(f.calls, func(c string) bool { return strings.HasPrefix(c, "OMSetDepthStencilState(") })
	require.GreaterOrEqual(t, i, 0)
	assert.True(t, strings.HasSuffix(f.calls[i], ",7)"))
}

func TestShaderClassLifecycle(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	class := rs.CreateShaderClass(renderer.VertexFormatDefault)
	require.NotNil(t, class)

	vs := rs.CreateShader(class, renderer.ShaderVertex, renderer.HLSL5, []string{"float4 main() : SV_Position { return 0; }"}, "")
	require.NotNil(t, vs)
	assert.Equal(t, 1, f.count("CompileShader(main,vs_5_0)"))
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.HLSL3, []string{"float4 main() {}"}, "main"))
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.GLSL330, []string{"void main() {}"}, "main"))
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderCompute, renderer.HLSL5, []string{"void main() {}"}, "main"))

	f.failCompile = true
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderPixel, renderer.HLSL4, []string{"broken"}, "main"))
	f.failCompile = false
	assert.False(t, rs.LinkShaderClass(class))

	ps := rs.CreateShader(class, renderer.ShaderPixel, renderer.HLSL4_1, []string{"float4 main() : SV_Target { return 1; }"}, "main")
	require.NotNil(t, ps)
	gs := rs.CreateShader(class, renderer.ShaderGeometry, renderer.HLSL4, []string{"[maxvertexcount(3)] void main() {}"}, "main")
	require.NotNil(t, gs)
	assert.Equal(t, 1, f.count("CompileShader(main,ps_4_1)"))
	assert.Equal(t, 1, f.count("CreateGeometryShader(gs_4_0:main)"))
	require.True(t, rs.LinkShaderClass(class))
	assert.Equal(t, 1, f.count("CreateInputLayout(POSITION0+NORMAL0+COLOR0+TEXCOORD0,vs_5_0:main)"))
	f.reset()

	rs.BindShaderClass(class)
	assert.Same(t, class, rs.BoundShaderClass())
	assert.Equal(t, 1, f.count("VSSetShader(vertexShader#"))
	assert.Equal(t, 1, f.count("PSSetShader(pixelShader#"))
	assert.Equal(t, 1, f.count("GSSetShader(geometryShader#"))
	assert.Equal(t, 1, f.count("IASetInputLayout(inputLayout#"))

	// a bound class replaces the built-in shaders
	mb := newTestMesh(t, rs, 3)
	f.reset()
	require.True(t, rs.BindMeshBuffer(mb))
	assert.Zero(t, f.count("CompileShader("))
	assert.Zero(t, f.count("VSSetShader("))

	rs.DeleteShaderClass(class)
	assert.Nil(t, rs.BoundShaderClass())
	assert.Equal(t, 1, f.count("GSSetShader(<nil>)"))
	assert.False(t, class.Handle().Valid())
	assert.False(t, vs.Handle().Valid())
	assert.False(t, ps.Handle().Valid())
	assert.Equal(t, 1, f.released["vertexShader"])
	assert.Equal(t, 1, f.released["geometryShader"])
	assert.Equal(t, 1, f.released["inputLayout"])

	// without a class the built-in variant takes over again
	f.reset()
	require.True(t, rs.BindMeshBuffer(mb))
	assert.Equal(t, 1, f.count("CompileShader(main,vs_4_0)"))
}

func TestTextureCreationAndUpload(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)

	img := renderer.NewImageBuffer(common.Size2{Width: 1, Height: 1}, renderer.PixelRGBA, []byte{1, 2, 3, 4})
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Image: img})
	require.NotNil(t, tex)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture2D(1,1,1,%d,%d,0)", formatR8G8B8A8Unorm, bindShaderResource)))
	uploads := f.writesOf("textureLevel")
	require.Len(t, uploads, 1)
	assert.Equal(t, []byte{1, 2, 3, 4}, uploads[0].data)
	assert.Equal(t, 1, rs.TextureCount())

	rgb := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 64, Height: 32}, Format: renderer.PixelRGB, MipMaps: true})
	require.NotNil(t, rgb)
	assert.Equal(t, renderer.PixelRGBA, rgb.Format())
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture2D(64,32,0,%d,%d,%d)", formatR8G8B8A8Unorm, bindShaderResource|bindRenderTarget, miscGenerateMips)))
	assert.Equal(t, 1, f.count("GenerateMips("))

	gray := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 8, Height: 8}, Format: renderer.PixelGray})
	require.NotNil(t, gray)
	assert.Equal(t, renderer.PixelGray, gray.Format())
	assert.Equal(t, 1, f.count("WriteLevel(texture#"+fmt.Sprint(f.nextID-1)+",0,256,32)"))

	alpha := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 8, Height: 8}, Format: renderer.PixelAlpha})
	require.NotNil(t, alpha)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture2D(8,8,1,%d,", formatA8Unorm)))

	assert.Nil(t, rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 20000, Height: 16}, Format: renderer.PixelRGBA}))
	assert.Nil(t, rs.CreateTexture(renderer.TextureCreationFlags{}))

	f.reset()
	assert.True(t, rs.UpdateTexture(tex))
	assert.Equal(t, 1, f.count("WriteLevel("))

	rs.DeleteTexture(tex)
	assert.False(t, tex.Valid())
	assert.False(t, rs.UpdateTexture(tex))
	rs.DeleteTexture(tex)
	assert.Equal(t, 1, f.released["texture"])
	assert.Equal(t, 1, f.released["view"])
	assert.Equal(t, 3, rs.TextureCount())
}

func TestSamplerStates(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{
		Size:    common.Size2{Width: 16, Height: 16},
		Format:  renderer.PixelRGBA,
		MipMaps: true,
		Sampler: renderer.SamplerDesc{MipMap: renderer.MipMapAnisotropic, Anisotropy: 32, Wrap: renderer.WrapClamp},
	})
	require.NotNil(t, tex)
	mb := newTestMesh(t, rs, 3)
	mb.Textures = []*renderer.Texture{tex}
	f.reset()

	require.True(t, rs.BindMeshBuffer(mb))
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateSamplerState(%#x,%d,16)", filterAnisotropic, addressClamp)))
	assert.Equal(t, 1, f.count("PSSetSampler(0,samplerState#"))
	assert.Equal(t, 1, f.count("PSSetShaderResource(0,view#"))
	fc, _ := rs.FixedConstants()
	assert.Equal(t, float32(1), fc.Flags[3])

	other := newTestMesh(t, rs, 3)
	other.Textures = []*renderer.Texture{tex}
	f.reset()
	require.True(t, rs.BindMeshBuffer(other))
	assert.Zero(t, f.count("CreateSamplerState("))
	assert.Zero(t, f.count("PSSetSampler("))
}

func TestRenderTargets(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)

	rt := rs.CreateTexture(renderer.TextureCreationFlags{
		Size:         common.Size2{Width: 128, Height: 128},
		Format:       renderer.PixelRGBA,
		RenderTarget: true,
		MipMaps:      true,
	})
	require.NotNil(t, rt)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture2D(128,128,0,%d,%d,%d)", formatR8G8B8A8Unorm, bindShaderResource|bindRenderTarget, miscGenerateMips)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateTexture2D(128,128,1,%d,%d,0)", formatD24UnormS8Uint, bindDepthStencil)))
	assert.Equal(t, 1, f.count("CreateRenderTargetView("))
	assert.Equal(t, 1, f.count("CreateDepthStencilView("))
	assert.Zero(t, f.count("WriteLevel("))

	// sampling the target while rendering to it is not allowed
	mb := newTestMesh(t, rs, 3)
	mb.Textures = []*renderer.Texture{rt}
	require.True(t, rs.BindMeshBuffer(mb))
	f.reset()

	assert.True(t, rs.UpdateTexture(rt))
	assert.Zero(t, f.count("WriteLevel("))

	require.True(t, rs.SetRenderTarget(rt))
	assert.Same(t, rt, rs.RenderTarget())
	assert.Equal(t, 1, f.count("PSSetShaderResource(0,<nil>)"))
	assert.Equal(t, 1, f.count("OMSetRenderTarget(targetView#"))
	assert.Equal(t, 1, f.count("RSSetViewport(0,0,128,128,0,1)"))
	f.reset()

	rs.ClearBuffers(renderer.ClearColor)
	assert.Equal(t, 1, f.count("ClearRenderTargetView(targetView#"))

	require.True(t, rs.SetRenderTarget(nil))
	assert.Nil(t, rs.RenderTarget())
	assert.Equal(t, 1, f.count("OMSetRenderTarget(backBuffer#"))
	assert.Equal(t, 1, f.count("RSSetViewport(0,0,800,600,0,1)"))
	assert.Equal(t, 1, f.count("GenerateMips("))

	plain := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 16, Height: 16}, Format: renderer.PixelRGBA})
	require.NotNil(t, plain)
	assert.False(t, rs.SetRenderTarget(plain))
	assert.Nil(t, rs.RenderTarget())

	require.True(t, rs.SetRenderTarget(rt))
	rs.DeleteTexture(rt)
	assert.Nil(t, rs.RenderTarget())
	assert.Equal(t, 1, f.released["targetView"])
	assert.Equal(t, 1, f.released["depthView"])
}

func TestClearAndViewport(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)

	rs.SetClearColor(common.Color{R: 255, G: 0, B: 0, A: 255})
	rs.SetClearStencil(3)
	rs.ClearBuffers(renderer.ClearColor | renderer.ClearDepth | renderer.ClearStencil)
	assert.Equal(t, 1, f.count("ClearRenderTargetView(backBuffer#1,[1 0 0 1])"))
	assert.Equal(t, 1, f.count(fmt.Sprintf("ClearDepthStencilView(backDepth#2,%d,1,3)", clearDepth|clearStencil)))
	rs.ClearBuffers(0)
	assert.Equal(t, 1, f.count("ClearRenderTargetView("))

	rs.SetClipping(true, common.Point2{X: 10, Y: 20}, common.Size2{Width: 100, Height: 50})
	assert.Equal(t, 1, f.count("RSSetScissorRect(10,20,110,70)"))
	assert.True(t, rs.rasterizer.Scissor)

	rs.SetDepthRange(0.25, 0.75)
	assert.Equal(t, 1, f.count("RSSetViewport(0,0,800,600,0.25,0.75)"))

	rs.SetViewport(common.Point2{X: 5, Y: 6}, common.Size2{Width: 10, Height: 20})
	assert.Equal(t, common.Rect{Left: 5, Top: 6, Right: 15, Bottom: 26}, rs.Viewport())
	assert.Equal(t, 1, f.count("RSSetViewport(5,6,10,20,0.25,0.75)"))
}

func TestResizePicksUpBackBuffer(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	f.backBuffer = f.object("backBuffer")
	f.backDepth = f.object("backDepth")

	rs.Resize(common.Size2{Width: 1024, Height: 768})
	assert.Equal(t, common.Size2{Width: 1024, Height: 768}, rs.ScreenSize())
	assert.Equal(t, 1, f.count(fmt.Sprintf("OMSetRenderTarget(backBuffer#%d,backDepth#%d)", f.backBuffer.id, f.backDepth.id)))
	assert.Equal(t, 1, f.count("RSSetViewport(0,0,1024,768,0,1)"))

	rs.Resize(common.Size2{})
	assert.Equal(t, common.Size2{Width: 1024, Height: 768}, rs.ScreenSize())
}

func TestQueries(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)

	q := rs.CreateQuery(renderer.QuerySamplesPassed)
	require.NotNil(t, q)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateQuery(%d)", queryOcclusion)))
	q.Begin()
	q.End()
	assert.Equal(t, 1, f.count("Begin(query#"))
	assert.Equal(t, 1, f.count("End(query#"))
	f.samples = 42
	assert.True(t, q.Available())
	assert.Equal(t, uint64(42), q.Result())

	anyQ := rs.CreateQuery(renderer.QueryAnySamplesPassed)
	require.NotNil(t, anyQ)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateQuery(%d)", queryOcclusionPredicate)))
	anyQ.Begin()
	anyQ.End()
	assert.Equal(t, uint64(1), anyQ.Result())

	prims := rs.CreateQuery(renderer.QueryPrimitivesGenerated)
	require.NotNil(t, prims)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateQuery(%d)", querySOStatistics)))
	f.primitives = 12
	prims.Begin()
	prims.End()
	assert.Equal(t, uint64(12), prims.Result())

	f.available = false
	q.Begin()
	q.End()
	assert.False(t, q.Available())
	// a removed device reports an empty result instead of blocking
	f.removed = true
	assert.True(t, q.Available())
	assert.Zero(t, q.Result())

	rs.DeleteQuery(q)
	assert.False(t, q.Handle().Valid())
	assert.Equal(t, 1, f.released["query"])
}

func TestTimeElapsedQuery(t *testing.T) {
	f := newFakeDevice()
	f.clock, f.tick, f.frequency = 1000, 500, 1_000_000
	rs := newTestSystem(t, f)

	q := rs.CreateQuery(renderer.QueryTimeElapsed)
	require.NotNil(t, q)
	assert.Equal(t, 2, f.count(fmt.Sprintf("CreateQuery(%d)", queryTimestamp)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateQuery(%d)", queryTimestampDisjoint)))

	q.Begin()
	q.End()
	assert.Equal(t, 1, f.count("Begin(query#"))
	assert.Equal(t, 3, f.count("End(query#"))
	assert.Equal(t, uint64(500_000), q.Result())

	// a disjoint interval reports zero
	q.Begin()
	q.End()
	f.frequency = 0
	assert.Zero(t, q.Result())

	rs.DeleteQuery(q)
	assert.Equal(t, 3, f.released["query"])
}

func TestDraw2DUsesSpritePipeline(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 3)
	require.True(t, rs.BindMeshBuffer(mb))
	depth := rs.RenderState(renderer.RenderStateDepthTest)
	f.reset()

	rs.Draw2DRectangle(common.Rect{Left: 0, Top: 0, Right: 10, Bottom: 10}, common.Color{R: 1, G: 2, B: 3, A: 4}, true)

	size := minSpriteVertices * vertex2DStride
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateBuffer(%d,%d,%d)", size, usageDynamic, bindVertexBuffer)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("IASetPrimitiveTopology(%d)", topologyTriangleStrip)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("IASetVertexBuffer(vertexBuffer#%d,%d)", rs.builtin.spriteBuffer.(*fakeObject).id, vertex2DStride)))
	assert.Equal(t, 1, f.count("Draw(4,0)"))
	assert.Equal(t, 1, f.count("VSSetConstantBuffer(0,constantBuffer#"))
	assert.Equal(t, 1, f.count("CreateDepthStencilState(false,"))

	data := f.writesOf("vertexBuffer")
	require.Len(t, data, 1)
	// the whole buffer is written so the device may discard the previous batch
	assert.Len(t, data[0].data, size)
	assert.Equal(t, []byte{1, 2, 3, 4}, data[0].data[12:16])
	constants := f.writesOf("constantBuffer")
	require.Len(t, constants, 1)
	assert.Len(t, constants[0].data, spriteConstantsSize)

	assert.Equal(t, depth, rs.RenderState(renderer.RenderStateDepthTest))
	assert.False(t, rs.Drawing2D())

	// the mesh is bound again with the built-in mesh shader and constants
	f.reset()
	require.True(t, rs.BindMeshBuffer(mb))
	assert.Equal(t, 1, f.count("IASetVertexBuffer("))
	assert.Equal(t, 1, f.count("VSSetShader(vertexShader#"))
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, 1, f.count("VSSetConstantBuffer(0,constantBuffer#"))

	// larger batches grow the buffer
	f.reset()
	big := make([]renderer.Vertex2D, minSpriteVertices+1)
	rs.DrawPrimitive2D(renderer.PrimitivePoints, big, nil)
	assert.Equal(t, 1, f.count(fmt.Sprintf("CreateBuffer(%d,", 2*size)))
	assert.Equal(t, 1, f.released["vertexBuffer"])
}

func TestReplaceDeviceRoundTrip(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	mb := newTestMesh(t, rs, 10)
	shadow := append([]byte(nil), rs.vertexBuffers.Shadow(mb.VertexBuffer)...)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 32, Height: 32}, Format: renderer.PixelRGBA})
	require.NotNil(t, tex)
	q := rs.CreateQuery(renderer.QueryAnySamplesPassed)
	require.NotNil(t, q)
	class := newTestClass(t, rs)
	rs.BindShaderClass(class)
	vbHandle, texHandle := mb.VertexBuffer, tex.Handle()

	rs.ReleaseAllResources()
	assert.False(t, rs.BindMeshBuffer(mb))
	assert.False(t, rs.UpdateTexture(tex))
	assert.Equal(t, 1, rs.TextureCount())
	assert.Equal(t, 1, f.released["vertexBuffer"])
	assert.Equal(t, 1, f.released["query"])
	// the texture and the white fallback texture
	assert.Equal(t, 2, f.released["texture"])
	assert.Equal(t, 2, f.released["vertexShader"])
	assert.Equal(t, 3, f.released["pixelShader"])
	assert.Equal(t, 2, f.released["constantBuffer"])
	assert.Zero(t, f.released["backBuffer"])

	g := newFakeDevice()
	rs.ReplaceDevice(g)
	require.NoError(t, rs.RecreateAllResources())
	assert.Equal(t, vbHandle, mb.VertexBuffer)
	assert.Equal(t, texHandle, tex.Handle())
	assert.True(t, rs.BindMeshBuffer(mb))
	assert.True(t, rs.UpdateTexture(tex))
	assert.Empty(t, f.writesOf("vertexBuffer")[1:])

	writes := g.writesOf("vertexBuffer")
	require.Len(t, writes, 1)
	assert.Equal(t, shadow, writes[0].data)
	assert.Equal(t, shadow, rs.vertexBuffers.Shadow(mb.VertexBuffer))

	// class shaders come back from their bytecode, only the built-ins are compiled
	assert.Equal(t, 3, g.count("CompileShader("))
	assert.Equal(t, 2, g.count("CreateVertexShader("))
	assert.True(t, class.Linked())
	assert.Same(t, class, rs.BoundShaderClass())
	assert.Equal(t, 1, g.count("VSSetShader(vertexShader#"))
	assert.Equal(t, 1, g.count("OMSetRenderTarget(backBuffer#1,backDepth#2)"))
}

func TestCloseInvalidatesTextures(t *testing.T) {
	f := newFakeDevice()
	rs := newTestSystem(t, f)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 8, Height: 8}, Format: renderer.PixelRGBA})
	require.NotNil(t, tex)

	rs.Close()
	assert.False(t, tex.Valid())
	assert.Zero(t, rs.TextureCount())
	rs.Close()
	assert.Equal(t, 2, f.released["texture"])
}
