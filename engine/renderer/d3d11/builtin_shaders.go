package d3d11

import (
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// fixedVec4Count is the length of the uFixed array, which mirrors renderer.FixedFunctionConstants
// after its three matrices.
const fixedVec4Count = 73

// constantsSize is the size of the FixedConstants buffer: three matrices and uFixed.
const constantsSize = 3*64 + fixedVec4Count*16

// spriteConstantsSize is the size of the SpriteConstants buffer: the 2D projection and a flags vector.
const spriteConstantsSize = 64 + 16

// The constant buffer declaration is shared by shader classes, which may bind it at b0 to read the
// engine matrices and fixed-function state. Matrices are stored for the row vector convention
// mul(v, M).
const fixedConstantsSource = `cbuffer FixedConstants : register(b0) {
	float4x4 uWorld;
	float4x4 uView;
	float4x4 uProjection;
	float4 uFixed[73];
};

#define GLOBAL_AMBIENT 56
#define FOG_COLOR 57
#define FOG_PARAMS 58
#define FLAGS 59
#define CLIP_BASE 60
#define MAT_BASE 68
`

const meshVertexSource = `struct VSInput {
	float3 Position : POSITION;
#ifdef HAS_NORMAL
	float3 Normal : NORMAL;
#endif
#ifdef HAS_COLOR
	float4 Color : COLOR;
#endif
#ifdef HAS_TEXCOORD
	float2 TexCoord : TEXCOORD0;
#endif
};

struct VSOutput {
	float4 Position : SV_Position;
	float4 Color : COLOR;
	float2 TexCoord : TEXCOORD0;
	float FogFactor : TEXCOORD1;
#ifdef CLIP_DISTANCES
	float4 Clip0 : SV_ClipDistance0;
	float4 Clip1 : SV_ClipDistance1;
#endif
};

float4 lightVertex(float3 pos, float3 normal, float4 vertexColor, float3 eye) {
	float4 matDiffuse = uFixed[MAT_BASE];
	float4 matAmbient = uFixed[MAT_BASE + 1];
	float4 matSpecular = uFixed[MAT_BASE + 2];
	float4 matEmission = uFixed[MAT_BASE + 3];
	float shininess = uFixed[MAT_BASE + 4].x;
	if (uFixed[MAT_BASE + 4].y > 0.5) {
		matDiffuse = vertexColor;
		matAmbient = vertexColor;
	}
	float3 color = matEmission.rgb + uFixed[GLOBAL_AMBIENT].rgb * matAmbient.rgb;
	float3 V = normalize(eye - pos);
	[unroll]
	for (int i = 0; i < 8; i++) {
		int b = i * 7;
		if (uFixed[b + 1].w < 0.5) {
			continue;
		}
		float3 L;
		float att = 1.0;
		if (uFixed[b].w < 0.5) {
			L = normalize(-uFixed[b + 1].xyz);
		} else {
			float3 d = uFixed[b].xyz - pos;
			float dist = length(d);
			L = d / max(dist, 0.0001);
			float3 k = uFixed[b + 5].xyz;
			att = 1.0 / max(k.x + k.y * dist + k.z * dist * dist, 0.0001);
			if (uFixed[b + 5].w > 1.5) {
				float cosAngle = dot(-L, normalize(uFixed[b + 1].xyz));
				att *= smoothstep(uFixed[b + 6].y, uFixed[b + 6].x, cosAngle);
			}
		}
		float ndotl = max(dot(normal, L), 0.0);
		color += att * (uFixed[b + 3].rgb * matAmbient.rgb + ndotl * uFixed[b + 2].rgb * matDiffuse.rgb);
		if (ndotl > 0.0 && shininess > 0.0) {
			float3 H = normalize(L + V);
			color += att * pow(max(dot(normal, H), 0.0), shininess) * uFixed[b + 4].rgb * matSpecular.rgb;
		}
	}
	return float4(color, matDiffuse.a);
}

VSOutput main(VSInput input) {
	VSOutput output;
	float4 world = mul(float4(input.Position, 1.0), uWorld);
	float4 viewPos = mul(world, uView);
	output.Position = mul(viewPos, uProjection);

	float4 color = float4(1.0, 1.0, 1.0, 1.0);
#ifdef HAS_COLOR
	color = input.Color;
#endif
	float3 normal = float3(0.0, 0.0, 1.0);
#ifdef HAS_NORMAL
	normal = normalize(mul(input.Normal, (float3x3)uWorld));
#endif
	output.Color = color;
	if (uFixed[FLAGS].y > 0.5) {
		float3 eye = -mul((float3x3)uView, uView[3].xyz);
		output.Color = lightVertex(world.xyz, normal, color, eye);
	}
	output.TexCoord = float2(0.0, 0.0);
#ifdef HAS_TEXCOORD
	output.TexCoord = input.TexCoord;
#endif

	float4 fp = uFixed[FOG_PARAMS];
	float dist = length(viewPos.xyz);
	output.FogFactor = 1.0;
	if (uFixed[FLAGS].x > 0.5) {
		if (fp.w < 0.5) {
			output.FogFactor = saturate((fp.z - dist) / max(fp.z - fp.y, 0.0001));
		} else if (fp.w < 1.5) {
			output.FogFactor = exp(-fp.x * dist);
		} else {
			output.FogFactor = exp(-(fp.x * dist) * (fp.x * dist));
		}
	}
#ifdef CLIP_DISTANCES
	uint mask = (uint)uFixed[FLAGS].z;
	float clip[8];
	[unroll]
	for (int i = 0; i < 8; i++) {
		clip[i] = (mask & (1u << i)) != 0 ? dot(uFixed[CLIP_BASE + i], world) : 1.0;
	}
	output.Clip0 = float4(clip[0], clip[1], clip[2], clip[3]);
	output.Clip1 = float4(clip[4], clip[5], clip[6], clip[7]);
#endif
	return output;
}
`

const meshPixelSource = `Texture2D uTexture : register(t0);
SamplerState uSampler : register(s0);

struct PSInput {
	float4 Position : SV_Position;
	float4 Color : COLOR;
	float2 TexCoord : TEXCOORD0;
	float FogFactor : TEXCOORD1;
};

float4 main(PSInput input) : SV_Target {
	float4 c = input.Color;
	if (uFixed[FLAGS].w > 0.5) {
		c *= uTexture.Sample(uSampler, input.TexCoord);
	}
	c.rgb = lerp(uFixed[FOG_COLOR].rgb, c.rgb, input.FogFactor);
	return c;
}
`

const spriteVertexSource = `cbuffer SpriteConstants : register(b0) {
	float4x4 uProjection;
	float4 uParams;
};

struct VSInput {
	float3 Position : POSITION;
	float4 Color : COLOR;
	float2 TexCoord : TEXCOORD0;
};

struct VSOutput {
	float4 Position : SV_Position;
	float4 Color : COLOR;
	float2 TexCoord : TEXCOORD0;
};

VSOutput main(VSInput input) {
	VSOutput output;
	output.Position = mul(float4(input.Position, 1.0), uProjection);
	output.Color = input.Color;
	output.TexCoord = input.TexCoord;
	return output;
}
`

const spritePixelSource = `cbuffer SpriteConstants : register(b0) {
	float4x4 uProjection;
	float4 uParams;
};

Texture2D uTexture : register(t0);
SamplerState uSampler : register(s0);

struct PSInput {
	float4 Position : SV_Position;
	float4 Color : COLOR;
	float2 TexCoord : TEXCOORD0;
};

float4 main(PSInput input) : SV_Target {
	float4 c = input.Color;
	if (uParams.x > 0.5) {
		c *= uTexture.Sample(uSampler, input.TexCoord);
	}
	return c;
}
`

// meshVariantSource returns the built-in mesh vertex shader reading the optional attributes of
// mask.
func meshVariantSource(mask uint8, clipDistances bool) string {
	var b strings.Builder
	if mask&builtinNormal != 0 {
		b.WriteString("#define HAS_NORMAL\n")
	}
	if mask&builtinColor != 0 {
		b.WriteString("#define HAS_COLOR\n")
	}
	if mask&builtinTexCoord != 0 {
		b.WriteString("#define HAS_TEXCOORD\n")
	}
	if clipDistances {
		b.WriteString("#define CLIP_DISTANCES\n")
	}
	b.WriteString(fixedConstantsSource)
	b.WriteString(meshVertexSource)
	return b.String()
}

// builtinProfile returns the compile target of the built-in shaders. Devices below feature level
// 10_0 need the level_9_3 variant of shader model 4.
func builtinProfile(t renderer.ShaderType, level uint32) string {
	profile := renderer.HLSL4.Profile(t)
	if level < FeatureLevel10_0 {
		profile += "_level_9_3"
	}
	return profile
}

// fixedFloats views the constant block after its three matrices as consecutive float4 registers.
func fixedFloats(c *renderer.FixedFunctionConstants) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&c.Lights[0].Position[0])), fixedVec4Count*4)
}
