package opengl

import (
	"strings"
)

// Attribute locations shared by the built-in programs.
const (
	locPosition = 0
	locNormal   = 1
	locColor    = 2
	locTexCoord = 3
)

// fixedVec4Count is the length of the uFixed array, which mirrors renderer.FixedFunctionConstants
// after its three matrices.
const fixedVec4Count = 73

const meshVertexSource = `{{VERSION}}
{{PRECISION}}
in vec3 Position;
in vec3 Normal;
in vec4 Color;
in vec2 TexCoord;

uniform mat4 uWorld;
uniform mat4 uView;
uniform mat4 uProjection;
uniform vec4 uFixed[73];

out vec4 vColor;
out vec2 vTexCoord;
out float vFogFactor;

const int GLOBAL_AMBIENT = 56;
const int FOG_PARAMS = 58;
const int FLAGS = 59;
const int CLIP_BASE = 60;
const int MAT_BASE = 68;

vec4 lightVertex(vec3 pos, vec3 normal, vec4 vertexColor, vec3 eye) {
	vec4 matDiffuse = uFixed[MAT_BASE];
	vec4 matAmbient = uFixed[MAT_BASE + 1];
	vec4 matSpecular = uFixed[MAT_BASE + 2];
	vec4 matEmission = uFixed[MAT_BASE + 3];
	float shininess = uFixed[MAT_BASE + 4].x;
	if (uFixed[MAT_BASE + 4].y > 0.5) {
		matDiffuse = vertexColor;
		matAmbient = vertexColor;
	}
	vec3 color = matEmission.rgb + uFixed[GLOBAL_AMBIENT].rgb * matAmbient.rgb;
	vec3 V = normalize(eye - pos);
	for (int i = 0; i < 8; i++) {
		int b = i * 7;
		if (uFixed[b + 1].w < 0.5) {
			continue;
		}
		vec3 L;
		float att = 1.0;
		if (uFixed[b].w < 0.5) {
			L = normalize(-uFixed[b + 1].xyz);
		} else {
			vec3 d = uFixed[b].xyz - pos;
			float dist = length(d);
			L = d / max(dist, 0.0001);
			vec3 k = uFixed[b + 5].xyz;
			att = 1.0 / max(k.x + k.y * dist + k.z * dist * dist, 0.0001);
			if (uFixed[b + 5].w > 1.5) {
				float cosAngle = dot(-L, normalize(uFixed[b + 1].xyz));
				att *= smoothstep(uFixed[b + 6].y, uFixed[b + 6].x, cosAngle);
			}
		}
		float ndotl = max(dot(normal, L), 0.0);
		color += att * (uFixed[b + 3].rgb * matAmbient.rgb + ndotl * uFixed[b + 2].rgb * matDiffuse.rgb);
		if (ndotl > 0.0 && shininess > 0.0) {
			vec3 H = normalize(L + V);
			color += att * pow(max(dot(normal, H), 0.0), shininess) * uFixed[b + 4].rgb * matSpecular.rgb;
		}
	}
	return vec4(color, matDiffuse.a);
}

void main() {
	vec4 world = uWorld * vec4(Position, 1.0);
	vec4 viewPos = uView * world;
	gl_Position = uProjection * viewPos;

	vec3 eye = -(transpose(mat3(uView)) * uView[3].xyz);
	vec3 normal = normalize(mat3(uWorld) * Normal);
	vColor = Color;
	if (uFixed[FLAGS].y > 0.5) {
		vColor = lightVertex(world.xyz, normal, Color, eye);
	}
	vTexCoord = TexCoord;

	vec4 fp = uFixed[FOG_PARAMS];
	float dist = length(viewPos.xyz);
	vFogFactor = 1.0;
	if (uFixed[FLAGS].x > 0.5) {
		if (fp.w < 0.5) {
			vFogFactor = clamp((fp.z - dist) / max(fp.z - fp.y, 0.0001), 0.0, 1.0);
		} else if (fp.w < 1.5) {
			vFogFactor = exp(-fp.x * dist);
		} else {
			vFogFactor = exp(-(fp.x * dist) * (fp.x * dist));
		}
	}
{{CLIP}}}
`

const meshClipSource = `	for (int i = 0; i < 8; i++) {
		gl_ClipDistance[i] = dot(uFixed[CLIP_BASE + i], world);
	}
`

const meshFragmentSource = `{{VERSION}}
{{PRECISION}}
in vec4 vColor;
in vec2 vTexCoord;
in float vFogFactor;

uniform sampler2D uTexture;
uniform int uTextured;
uniform vec4 uFixed[73];

out vec4 FragColor;

void main() {
	vec4 c = vColor;
	if (uTextured != 0) {
		c *= texture(uTexture, vTexCoord);
	}
	c.rgb = mix(uFixed[57].rgb, c.rgb, vFogFactor);
	FragColor = c;
}
`

const spriteVertexSource = `{{VERSION}}
{{PRECISION}}
in vec3 Position;
in vec4 Color;
in vec2 TexCoord;

uniform mat4 uProjection;

out vec4 vColor;
out vec2 vTexCoord;

void main() {
	gl_Position = uProjection * vec4(Position, 1.0);
	gl_PointSize = 1.0;
	vColor = Color;
	vTexCoord = TexCoord;
}
`

const spriteFragmentSource = `{{VERSION}}
{{PRECISION}}
in vec4 vColor;
in vec2 vTexCoord;

uniform sampler2D uTexture;
uniform int uTextured;

out vec4 FragColor;

void main() {
	vec4 c = vColor;
	if (uTextured != 0) {
		c *= texture(uTexture, vTexCoord);
	}
	FragColor = c;
}
`

// expandBuiltin fills in the version header of a built-in shader for the profile.
func expandBuiltin(source string, profile Profile) string {
	version, precision, clip := "#version 330 core", "", meshClipSource
	if profile == ProfileES {
		version, precision, clip = "#version 300 es", "precision highp float;", ""
	}
	return strings.NewReplacer("{{VERSION}}", version, "{{PRECISION}}", precision, "{{CLIP}}", clip).Replace(source)
}
