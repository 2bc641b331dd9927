package opengl

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T, f *fakeFunctions, profile Profile) *renderSystem {
	t.Helper()
	rs, err := NewRenderSystem(f, profile, renderer.WithScreenSize(800, 600))
	require.NoError(t, err)
	f.reset()
	return rs.(*renderSystem)
}

func newTestMesh(t *testing.T, rs renderer.RenderSystem, vertices int) *renderer.MeshBuffer {
	t.Helper()
	mb := renderer.NewMeshBuffer(renderer.VertexFormatDefault, renderer.IndexUint16)
	for i := 0; i < vertices; i++ {
		mb.AppendVertex(renderer.Vertex{Position: common.Vec3{X: float32(i)}, Color: common.ColorWhite})
	}
	require.True(t, mb.CreateHardwareBuffers(rs))
	return mb
}

func TestCapsPerProfile(t *testing.T) {
	compat := newTestSystem(t, newFakeFunctions(), ProfileCompatibility)
	assert.Equal(t, renderer.BackendOpenGL, compat.Backend())
	assert.True(t, compat.QueryVideoSupport(renderer.FeatureFixedFunction))
	assert.True(t, compat.QueryVideoSupport(renderer.FeatureNonPowerOfTwo))
	assert.True(t, compat.Caps().BottomLeftOrigin)
	assert.Equal(t, 6, compat.Caps().MaxClipPlanes)
	assert.Equal(t, "fake renderer", compat.Renderer())

	core := newTestSystem(t, newFakeFunctions(), ProfileCore)
	assert.False(t, core.QueryVideoSupport(renderer.FeatureFixedFunction))
	assert.NotNil(t, core.meshProgram)
	assert.NotNil(t, core.spriteProgram)

	es := newFakeFunctions()
	es.es = true
	esSystem := newTestSystem(t, es, ProfileCore)
	assert.Equal(t, ProfileES, esSystem.profile)
	assert.Equal(t, renderer.BackendOpenGLES, esSystem.Backend())
	assert.False(t, esSystem.QueryVideoSupport(renderer.FeatureNonPowerOfTwo))
	assert.False(t, esSystem.QueryVideoSupport(renderer.FeatureClipPlanes))
	assert.True(t, esSystem.Caps().RequiresPowerOfTwo)
	assert.Equal(t, renderer.SubstituteAlways, esSystem.Caps().Substitution)
}

func TestNewRenderSystemFailsWhenBuiltinsDoNotCompile(t *testing.T) {
	f := newFakeFunctions()
	f.failCompile = true
	_, err := NewRenderSystem(f, ProfileCore)
	assert.Error(t, err)

	// compatibility contexts need no built-in programs
	_, err = NewRenderSystem(f, ProfileCompatibility)
	assert.NoError(t, err)
}

func TestRedundantStateChangesAreElided(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	rs.ResetStats()

	rs.SetBlending(material.BlendOne, material.BlendOne)
	rs.SetBlending(material.BlendOne, material.BlendOne)
	rs.SetDepthMask(false)
	rs.SetDepthMask(false)
	rs.SetRenderState(renderer.RenderStateScissor, 1)
	rs.SetRenderState(renderer.RenderStateScissor, 1)

	assert.Equal(t, 1, f.count("BlendFunc("))
	assert.Equal(t, 1, f.count("DepthMask("))
	assert.Equal(t, 1, f.count(fmt.Sprintf("Enable(%d)", glScissorTest)))
	stats := rs.Stats()
	assert.Equal(t, uint64(3), stats.NativeStateChanges)
	assert.Equal(t, uint64(3), stats.ElidedStateChanges)
}

func TestSetupMaterialStatesForcedResubmits(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCompatibility)
	m := material.NewMaterial(material.WithBlending(material.BlendOne, material.BlendZero))

	rs.SetupMaterialStates(m, false)
	assert.Equal(t, 1, f.count("BlendFunc("))
	f.reset()

	rs.SetupMaterialStates(m, false)
	assert.Zero(t, f.count("BlendFunc("))
	assert.Zero(t, f.count("Materialfv("))

	rs.SetupMaterialStates(m, true)
	assert.Equal(t, 1, f.count("BlendFunc("))
	assert.Equal(t, 1, f.count("DepthFunc("))
	assert.Equal(t, 4, f.count("Materialfv("))
	assert.Equal(t, 1, f.count("StencilFunc("))
}

func TestElementUpdateTransmitsOnlyThatElement(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	mb := newTestMesh(t, rs, 100)
	stride := renderer.VertexFormatDefault.Stride()
	f.reset()

	mb.WriteVertex(5, renderer.Vertex{Position: common.Vec3{X: 42, Y: 1, Z: 2}, Color: common.ColorBlack})
	mb.UpdateVertexElement(rs, 5)

	require.Len(t, f.uploads, 1)
	assert.Equal(t, 5*stride, f.uploads[0].offset)
	assert.Len(t, f.uploads[0].data, stride)
	assert.Equal(t, mb.Vertices.Element(5), f.uploads[0].data)

	shadow := rs.vertexBuffers.Shadow(mb.VertexBuffer)
	assert.Equal(t, mb.Vertices.Bytes(), shadow)

	f.reset()
	mb.UpdateVertexElement(rs, 100)
	assert.Empty(t, f.uploads)
}

func TestBufferDeleteIsIdempotent(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	h := rs.CreateVertexBuffer()
	require.True(t, h.Valid())

	copyOfHandle := h
	rs.DeleteVertexBuffer(&h)
	assert.False(t, h.Valid())
	rs.DeleteVertexBuffer(&h)
	rs.DeleteVertexBuffer(&copyOfHandle)
	assert.Equal(t, 1, f.deleted["buffer"])
}

func TestDrawMeshBuffer(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	mb := newTestMesh(t, rs, 4)
	mb.AppendIndices(0, 1, 2, 2, 1, 3)
	require.True(t, mb.CreateHardwareBuffers(rs))
	f.reset()

	require.True(t, rs.BindMeshBuffer(mb))
	rs.DrawMeshBuffer(mb)
	rs.DrawMeshBufferPart(mb, 3, 3)

	assert.Equal(t, 1, f.count(fmt.Sprintf("DrawElements(%d,6,%d,0)", glTriangles, glUnsignedShort)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("DrawElements(%d,3,%d,6)", glTriangles, glUnsignedShort)))
	// the constant block is uploaded once for both draws
	assert.Equal(t, 1, f.count("Uniform4fv("))
	assert.Equal(t, uint64(2), rs.Stats().DrawCalls)
	assert.Equal(t, uint64(3), rs.Stats().Primitives)

	rs.UnbindMeshBuffer(mb)
	rs.DrawMeshBuffer(mb)
	assert.Equal(t, uint64(2), rs.Stats().DrawCalls)
}

func TestBindMeshBufferRejectsIncompatibleLayout(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	mb := newTestMesh(t, rs, 3)

	class := rs.CreateShaderClass(renderer.VertexFormat2D)
	require.NotNil(t, class)
	require.NotNil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.GLSL330, []string{"void main() {}"}, "main"))
	require.NotNil(t, rs.CreateShader(class, renderer.ShaderPixel, renderer.GLSL330, []string{"void main() {}"}, "main"))
	require.True(t, rs.LinkShaderClass(class))
	rs.BindShaderClass(class)

	assert.False(t, rs.BindMeshBuffer(mb))
	rs.BindShaderClass(nil)
	assert.True(t, rs.BindMeshBuffer(mb))

	var invalid renderer.MeshBuffer
	assert.False(t, rs.BindMeshBuffer(&invalid))
}

func TestShaderClassLifecycle(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	class := rs.CreateShaderClass(renderer.VertexFormatDefault)
	require.NotNil(t, class)

	vs := rs.CreateShader(class, renderer.ShaderVertex, renderer.GLSL330, []string{"void main() {}"}, "main")
	require.NotNil(t, vs)
	assert.Contains(t, vs.Source(), "#version 330")
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderVertex, renderer.HLSL4, []string{"float4 main() {}"}, "main"))

	f.failCompile = true
	assert.Nil(t, rs.CreateShader(class, renderer.ShaderPixel, renderer.GLSL330, []string{"broken"}, "main"))
	f.failCompile = false

	require.True(t, rs.LinkShaderClass(class))
	p, ok := rs.programs.Lookup(class.Handle())
	require.True(t, ok)
	assert.Equal(t, 4, f.count(fmt.Sprintf("BindAttribLocation(%d,", p.id)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("BindAttribLocation(%d,2,Color)", p.id)))
	rs.BindShaderClass(class)
	assert.Same(t, class, rs.BoundShaderClass())

	rs.DeleteShaderClass(class)
	assert.Nil(t, rs.BoundShaderClass())
	assert.False(t, class.Handle().Valid())
	assert.False(t, vs.Handle().Valid())
	assert.Equal(t, 1, f.deleted["program"])
}

func TestTextureRegistryRoundTrip(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)

	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 64, Height: 64}, Format: renderer.PixelRGBA})
	require.NotNil(t, tex)
	assert.True(t, tex.Valid())
	assert.Equal(t, 1, rs.TextureCount())
	assert.Contains(t, rs.Textures(), tex)

	rs.DeleteTexture(tex)
	assert.False(t, tex.Valid())
	assert.Zero(t, rs.TextureCount())
	rs.DeleteTexture(tex)
	assert.Equal(t, 1, f.deleted["texture"])
	assert.False(t, rs.UpdateTexture(tex))

	assert.Nil(t, rs.CreateTexture(renderer.TextureCreationFlags{}))
}

func TestESTextureSubstitutedAndPowerOfTwo(t *testing.T) {
	f := newFakeFunctions()
	f.es = true
	rs := newTestSystem(t, f, ProfileES)

	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 256, Height: 256}, Format: renderer.PixelRGB})
	require.NotNil(t, tex)
	assert.Equal(t, renderer.PixelRGBA, tex.Format())
	assert.Equal(t, common.Size2{Width: 256, Height: 256}, tex.Size())
	assert.Equal(t, 1, f.count(fmt.Sprintf("TexImage2D(%d,0,%d,256,256,%d,%d,%d)", glTexture2D, glRGBA, glRGBA, glUnsignedByte, 256*256*4)))

	npot := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 100, Height: 60}, Format: renderer.PixelRGB})
	require.NotNil(t, npot)
	assert.Equal(t, common.Size2{Width: 128, Height: 64}, npot.Size())
	assert.Equal(t, renderer.PixelRGBA, npot.Format())
}

func TestDesktopKeepsRGBForPowerOfTwo(t *testing.T) {
	rs := newTestSystem(t, newFakeFunctions(), ProfileCore)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 64, Height: 64}, Format: renderer.PixelRGB})
	require.NotNil(t, tex)
	assert.Equal(t, renderer.PixelRGB, tex.Format())

	npot := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 100, Height: 60}, Format: renderer.PixelRGB})
	require.NotNil(t, npot)
	assert.Equal(t, renderer.PixelRGBA, npot.Format())
	assert.Equal(t, common.Size2{Width: 100, Height: 60}, npot.Size())
}

func TestClippingFlipsOnMainTarget(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)

	rs.SetClipping(true, common.Point2{X: 10, Y: 20}, common.Size2{Width: 100, Height: 50})
	assert.Equal(t, 1, f.count("Scissor(10,530,100,50)"))

	rt := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 128, Height: 128}, Format: renderer.PixelRGBA, RenderTarget: true})
	require.NotNil(t, rt)
	require.True(t, rs.SetRenderTarget(rt))
	assert.True(t, rs.InvertScreen())
	assert.Equal(t, 1, f.count("Viewport(0,0,128,128)"))

	rs.SetClipping(true, common.Point2{X: 10, Y: 20}, common.Size2{Width: 100, Height: 50})
	assert.Equal(t, 1, f.count("Scissor(10,20,100,50)"))
	f.reset()

	require.True(t, rs.SetRenderTarget(nil))
	assert.False(t, rs.InvertScreen())
	assert.Nil(t, rs.RenderTarget())
	assert.Equal(t, 1, f.count(fmt.Sprintf("BindFramebuffer(%d,0)", glFramebuffer)))
	assert.Equal(t, 1, f.count("Viewport(0,0,800,600)"))
}

func TestSetRenderTargetRejectsPlainTexture(t *testing.T) {
	rs := newTestSystem(t, newFakeFunctions(), ProfileCore)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 16, Height: 16}, Format: renderer.PixelRGBA})
	require.NotNil(t, tex)
	assert.False(t, rs.SetRenderTarget(tex))
	assert.Nil(t, rs.RenderTarget())
}

func TestRenderTargetMipMapsRegeneratedOnRestore(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	rt := rs.CreateTexture(renderer.TextureCreationFlags{
		Size:         common.Size2{Width: 64, Height: 64},
		Format:       renderer.PixelRGBA,
		RenderTarget: true,
		MipMaps:      true,
	})
	require.NotNil(t, rt)
	require.True(t, rs.SetRenderTarget(rt))
	f.reset()

	rs.SetRenderTarget(nil)
	assert.Equal(t, 1, f.count("GenerateMipmap("))
}

func TestQueryProtocol(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)

	q := rs.CreateQuery(renderer.QuerySamplesPassed)
	require.NotNil(t, q)
	assert.Zero(t, q.Result())

	q.Begin()
	q.Begin()
	assert.Equal(t, 1, f.count(fmt.Sprintf("BeginQuery(%d,", glSamplesPassed)))
	q.End()
	assert.Equal(t, renderer.QueryEnded, q.State())

	f.result = 42
	assert.True(t, q.Available())
	assert.Equal(t, uint64(42), q.Result())
	assert.Equal(t, renderer.QueryIdle, q.State())

	rs.DeleteQuery(q)
	assert.False(t, q.Handle().Valid())
	assert.Equal(t, 1, f.deleted["query"])
}

func TestESQueryTypes(t *testing.T) {
	f := newFakeFunctions()
	f.es = true
	rs := newTestSystem(t, f, ProfileES)
	assert.Nil(t, rs.CreateQuery(renderer.QuerySamplesPassed))
	assert.Nil(t, rs.CreateQuery(renderer.QueryTimeElapsed))
	assert.NotNil(t, rs.CreateQuery(renderer.QueryAnySamplesPassed))
}

func TestReleaseAndRecreateRoundTrip(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	mb := newTestMesh(t, rs, 10)
	shadow := append([]byte(nil), rs.vertexBuffers.Shadow(mb.VertexBuffer)...)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 32, Height: 32}, Format: renderer.PixelRGBA})
	require.NotNil(t, tex)
	q := rs.CreateQuery(renderer.QueryAnySamplesPassed)
	require.NotNil(t, q)
	q.Begin()
	q.End()
	vbHandle, texHandle := mb.VertexBuffer, tex.Handle()

	rs.ReleaseAllResources()
	assert.False(t, rs.BindMeshBuffer(mb))
	assert.False(t, rs.UpdateTexture(tex))
	// released queries report an empty result instead of blocking
	assert.True(t, q.Available())
	assert.Equal(t, 1, rs.TextureCount())
	f.reset()

	require.NoError(t, rs.RecreateAllResources())
	assert.Equal(t, vbHandle, mb.VertexBuffer)
	assert.Equal(t, texHandle, tex.Handle())
	assert.True(t, rs.BindMeshBuffer(mb))
	assert.True(t, rs.UpdateTexture(tex))

	var restored []byte
	for _, u := range f.uploads {
		if u.target == glArrayBuffer && len(u.data) == len(shadow) {
			restored = u.data
		}
	}
	assert.Equal(t, shadow, restored)
	assert.Equal(t, shadow, rs.vertexBuffers.Shadow(mb.VertexBuffer))
	assert.NotNil(t, rs.meshProgram)
}

func TestRecreateRelinksShaderClasses(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	class := rs.CreateShaderClass(renderer.VertexFormatDefault)
	rs.CreateShader(class, renderer.ShaderVertex, renderer.GLSL330, []string{"void main() {}"}, "main")
	require.True(t, rs.LinkShaderClass(class))

	rs.ReleaseAllResources()
	f.reset()
	require.NoError(t, rs.RecreateAllResources())
	assert.True(t, class.Linked())
	p, ok := rs.programs.Lookup(class.Handle())
	require.True(t, ok)
	assert.Equal(t, 1, f.count(fmt.Sprintf("LinkProgram(%d)", p.id)))
}

func TestDraw2DRestoresStates(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	require.Equal(t, int32(1), rs.RenderState(renderer.RenderStateDepthTest))

	rs.Draw2DRectangle(common.Rect{Left: 0, Top: 0, Right: 10, Bottom: 10}, common.ColorWhite, true)

	assert.Equal(t, 1, f.count(fmt.Sprintf("DrawArrays(%d,0,4)", glTriangleStrip)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("Disable(%d)", glDepthTest)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("Enable(%d)", glDepthTest)))
	assert.Equal(t, int32(1), rs.RenderState(renderer.RenderStateDepthTest))
	assert.False(t, rs.Drawing2D())
}

func TestFixedFunctionLightingAndFog(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCompatibility)

	light := renderer.DefaultLight()
	light.Direction = common.Vec3{X: 1, Y: -2, Z: -1}
	rs.SetLight(0, light)
	assert.Equal(t, 1, f.count(fmt.Sprintf("Lightfv(%d,%d,[-1 2 1 0])", glLight0, glPosition)))
	rs.SetLightEnabled(0, true)
	assert.Equal(t, 1, f.count(fmt.Sprintf("Enable(%d)", glLight0)))

	rs.SetFog(renderer.FogStatic)
	assert.Zero(t, f.count(fmt.Sprintf("Enable(%d)", glFog)))
	rs.SetRenderState(renderer.RenderStateFog, 1)
	assert.Equal(t, 1, f.count(fmt.Sprintf("Enable(%d)", glFog)))
	rs.SetFog(renderer.FogNone)
	assert.Equal(t, 1, f.count(fmt.Sprintf("Disable(%d)", glFog)))

	rs.SetClipPlane(7, common.Plane{Normal: common.Vec3{Y: 1}}, true)
	assert.Zero(t, f.count("ClipPlane("))
	rs.SetClipPlane(1, common.Plane{Normal: common.Vec3{Y: 2}, Distance: 2}, true)
	assert.Equal(t, 1, f.count(fmt.Sprintf("ClipPlane(%d,[0 1 0 1])", glClipPlane0+1)))
}

func TestTextureMatrixUsesTextureMatrixMode(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCompatibility)

	m := common.IdentityMatrix()
	m[12] = 0.5
	rs.SetMatrix(renderer.MatrixTexture, m)
	assert.Equal(t, 1, f.count(fmt.Sprintf("MatrixMode(%d)", glTextureMatrix)))
	assert.Equal(t, 1, f.count(fmt.Sprintf("LoadMatrix(%v)", m)))
	assert.Equal(t, m, rs.Matrix(renderer.MatrixTexture))

	rs.SetMatrix(renderer.MatrixTexture, common.IdentityMatrix())
	assert.Equal(t, 1, f.count(fmt.Sprintf("MatrixMode(%d)", glTextureMatrix)))
	assert.Equal(t, 2, f.count("LoadMatrix("))
}

func TestCloseInvalidatesTextures(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	tex := rs.CreateTexture(renderer.TextureCreationFlags{Size: common.Size2{Width: 8, Height: 8}, Format: renderer.PixelRGBA})
	require.NotNil(t, tex)

	rs.Close()
	assert.False(t, tex.Valid())
	assert.Zero(t, rs.TextureCount())
	rs.Close()
	assert.Equal(t, 1, f.deleted["texture"])
}

func TestHLSLComputeShaderIsTranslated(t *testing.T) {
	f := newFakeFunctions()
	rs := newTestSystem(t, f, ProfileCore)
	class := rs.CreateShaderClass(renderer.VertexFormatDefault)
	require.NotNil(t, class)

	src := "[numthreads(8, 8, 1)]\nvoid CS(uint3 id : SV_DispatchThreadID)\n{\n}\n"
	cs := rs.CreateShader(class, renderer.ShaderCompute, renderer.HLSL5, []string{src}, "CS")
	require.NotNil(t, cs)
	assert.Equal(t, renderer.GLSL430, cs.Version())
	assert.Equal(t, "main", cs.EntryPoint())
	assert.Contains(t, cs.Source(), "#version 430")
	assert.Contains(t, cs.Source(), "layout(local_size_x = 8, local_size_y = 8, local_size_z = 1) in;")
	assert.Contains(t, cs.Source(), "uvec3 id = gl_GlobalInvocationID;")

	assert.Nil(t, rs.CreateShader(class, renderer.ShaderCompute, renderer.HLSL5, []string{"void CS(uint3 id : SV_DispatchThreadID) {"}, "CS"))
}
