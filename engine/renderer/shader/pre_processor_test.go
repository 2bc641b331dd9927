package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizePositions(t *testing.T) {
	tokens := Tokenize("float4 a = 1.5f;\n\tb[2] /* c\nd */ \"s\" 0x1F")
	var types []TokenType
	for _, tkn := range tokens {
		types = append(types, tkn.Type)
	}
	assert.Equal(t, []TokenType{
		TokenName, TokenSpace, TokenName, TokenSpace, TokenOther, TokenSpace, TokenNumberFloat, TokenSemicolon, TokenNewline,
		TokenTab, TokenName, TokenSquaredBracketLeft, TokenNumberInt, TokenSquaredBracketRight, TokenSpace, TokenComment,
		TokenSpace, TokenString, TokenSpace, TokenNumberInt,
	}, types)

	assert.Equal(t, "1.5f", tokens[6].Str)
	assert.Equal(t, "1:12", tokens[6].Position())
	assert.Equal(t, "2:2", tokens[10].Position())
	assert.Equal(t, "/* c\nd */", tokens[15].Str)
	assert.Equal(t, "3:5", tokens[16].Position())

	var rebuilt string
	for _, tkn := range tokens {
		rebuilt += tkn.Str
	}
	assert.Equal(t, "float4 a = 1.5f;\n\tb[2] /* c\nd */ \"s\" 0x1F", rebuilt)
}

func TestValidateBrackets(t *testing.T) {
	assert.NoError(t, ValidateBrackets(Tokenize("void f(int a[2]) { g((a)); }")))

	err := ValidateBrackets(Tokenize("void f()\n{ a[1); }"))
	var be *BracketError
	require.ErrorAs(t, err, &be)
	assert.EqualError(t, err, "unexpected bracket token at 2:6")

	err = ValidateBrackets(Tokenize("void f() { if (a) {"))
	require.ErrorAs(t, err, &be)
	assert.True(t, be.Unclosed)
	assert.EqualError(t, err, "unclosed brackets")
}

func TestSolveMacro(t *testing.T) {
	for in, want := range map[string]string{
		"float":              "float",
		"float1":             "float",
		"float3":             "vec3",
		"float4x4":           "mat4",
		"float2x3":           "mat2x3",
		"float1x3":           "vec3",
		"float3x1":           "vec3",
		"half":               "float",
		"half1x1":            "float",
		"half4":              "vec4",
		"double2":            "dvec2",
		"int3":               "ivec3",
		"uint2":              "uvec2",
		"bool4":              "bvec4",
		"int4x4":             "imat4",
		"floatValue":         "floatValue",
		"float5":             "float5",
		"integer":            "integer",
		"groupshared":        "shared",
		"GroupMemoryBarrier": "groupMemoryBarrier",
		"ddx":                "dFdx",
		"ddy":                "dFdy",
		"frac":               "fract",
		"lerp":               "mix",
		"saturate":           "saturate",
	} {
		assert.Equal(t, want, solveMacro(in), in)
	}
}

const computeShader = `[numthreads(8, 8, 1)]
void CS(uint3 groupID : SV_GroupID, uint3 id : SV_DispatchThreadID, uint index : SV_GroupIndex)
{
    [unroll]
    for (int i = 0; i < 4; i++) { data[i] = lerp(a, b, frac(t)); }
}
`

func TestProcessComputeShaderForGLSL(t *testing.T) {
	p := NewPreProcessor()
	out, err := p.Process(computeShader, renderer.ShaderCompute, renderer.GLSL430, "CS", SolveMacros)
	require.NoError(t, err)
	assert.Equal(t, "layout(local_size_x = 8, local_size_y = 8, local_size_z = 1) in;\n"+
		"void main()\n{\n"+
		"    uvec3 groupID = gl_WorkGroupID;\n"+
		"    uvec3 id = gl_GlobalInvocationID;\n"+
		"    uint index = gl_LocalInvocationIndex;\n"+
		"\n    \n"+
		"    for (int i = 0; i < 4; i++) { data[i] = mix(a, b, fract(t)); }\n"+
		"}\n", out)
}

func TestProcessKeepsHLSLTargets(t *testing.T) {
	p := NewPreProcessor()
	out, err := p.Process(computeShader, renderer.ShaderCompute, renderer.HLSL5, "CS", SolveMacros)
	require.NoError(t, err)
	assert.Equal(t, computeShader, out)
}

func TestProcessOptions(t *testing.T) {
	p := NewPreProcessor()
	src := "void main()\n{\n\n\n\tfloat a;\n\t\tfloat b;\n}\n"

	out, err := p.Process(src, renderer.ShaderPixel, renderer.HLSL4, "main", NoTabs)
	require.NoError(t, err)
	assert.Equal(t, "void main()\n{\n\n\n    float a;\n        float b;\n}\n", out)

	out, err = p.Process(src, renderer.ShaderPixel, renderer.HLSL4, "main", SkipBlanks)
	require.NoError(t, err)
	assert.Equal(t, "void main()\n{\nfloat a;\nfloat b;\n}\n", out)
}

func TestProcessEntryPointWithoutArguments(t *testing.T) {
	p := NewPreProcessor()
	out, err := p.Process("float4 color;\nvoid PS() { gl_FragColor = color; }", renderer.ShaderPixel, renderer.GLSL330, "PS", SolveMacros)
	require.NoError(t, err)
	assert.Equal(t, "vec4 color;\nvoid main()\n{\n gl_FragColor = color; }", out)
}

func TestProcessMaxVertexCount(t *testing.T) {
	p := NewPreProcessor()
	src := "[maxvertexcount(6)]\nvoid GS(float4 p : SV_Position) { }"
	out, err := p.Process(src, renderer.ShaderGeometry, renderer.GLSL330, "GS", SolveMacros)
	require.NoError(t, err)
	assert.Equal(t, 6, p.MaxVertexCount())
	assert.Equal(t, "\nvoid main()\n{\n }", out)

	_, err = p.Process("void GS() {}", renderer.ShaderGeometry, renderer.GLSL330, "GS", 0)
	require.NoError(t, err)
	assert.Zero(t, p.MaxVertexCount())
}

func TestProcessErrors(t *testing.T) {
	p := NewPreProcessor()

	_, err := p.Process("void main() {}", renderer.ShaderVertex, renderer.GLSL330, "", 0)
	assert.ErrorIs(t, err, ErrInvalidEntryPoint)

	_, err = p.Process("void main() { a[0); }", renderer.ShaderVertex, renderer.GLSL330, "main", 0)
	assert.EqualError(t, err, "unexpected bracket token at 1:18")

	_, err = p.Process("void main() {", renderer.ShaderVertex, renderer.GLSL330, "main", 0)
	assert.EqualError(t, err, "unclosed brackets")

	_, err = p.Process("[numthreads(1, 2, 3, 4)]\nvoid CS() {}", renderer.ShaderCompute, renderer.GLSL430, "CS", 0)
	assert.EqualError(t, err, `too many arguments for "numthreads" attribute at 1:22`)

	_, err = p.Process("[ 5 ]\nvoid CS() {}", renderer.ShaderCompute, renderer.GLSL430, "CS", 0)
	assert.EqualError(t, err, "unexpected token while processing HLSL attribute at 1:3")

	_, err = p.Process("void CS(uint3 id SV_DispatchThreadID) {}", renderer.ShaderCompute, renderer.GLSL430, "CS", 0)
	assert.EqualError(t, err, "unexpected token in entry-point argument-list (expected ':' character) at 1:18")
}

func TestWGSLEntryPoint(t *testing.T) {
	src := `/* @vertex fn hidden() */
@vertex
fn vs_main(@location(0) p: vec3<f32>) -> @builtin(position) vec4<f32> { return vec4<f32>(p, 1.0); }
// @fragment fn commented() {}
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
@compute @workgroup_size(64, 2) fn cs_main() {}
`
	assert.Equal(t, "vs_main", WGSLEntryPoint(src, renderer.ShaderVertex))
	assert.Equal(t, "fs_main", WGSLEntryPoint(src, renderer.ShaderPixel))
	assert.Equal(t, "cs_main", WGSLEntryPoint(src, renderer.ShaderCompute))
	assert.Empty(t, WGSLEntryPoint(src, renderer.ShaderGeometry))
	assert.Empty(t, WGSLEntryPoint("fn helper() {}", renderer.ShaderVertex))

	assert.Equal(t, [3]uint32{64, 2, 1}, WGSLWorkgroupSize(src))
	assert.Equal(t, [3]uint32{1, 1, 1}, WGSLWorkgroupSize("fn f() {}"))
}
