package webgpu

import (
	"fmt"
	"strings"
)

// fixedVec4Count is the length of the fixed array, which mirrors renderer.FixedFunctionConstants
// after its three matrices.
const fixedVec4Count = 73

// constantsSize is the size of the FixedConstants uniform: three matrices and the fixed array.
const constantsSize = 3*64 + fixedVec4Count*16

// constantsStride is constantsSize rounded up to the dynamic offset alignment of uniform buffers.
const constantsStride = (constantsSize + 255) &^ 255

// constantsRingSlots is the number of constant blocks one submission can hold before it is flushed.
const constantsRingSlots = 128

// FixedConstantsWGSL declares the uniform the render system binds at group 0. Shader classes may
// include it to read the engine matrices and fixed-function state; the matrices are column-major
// and combine as projection * view * world * position. Texture layer i is bound at group 1, binding
// 2i, with its sampler at binding 2i+1.
const FixedConstantsWGSL = `struct FixedConstants {
	world: mat4x4<f32>,
	view: mat4x4<f32>,
	projection: mat4x4<f32>,
	fixed: array<vec4<f32>, 73>,
};

@group(0) @binding(0) var<uniform> u: FixedConstants;

const GLOBAL_AMBIENT: u32 = 56u;
const FOG_COLOR: u32 = 57u;
const FOG_PARAMS: u32 = 58u;
const FLAGS: u32 = 59u;
const CLIP_BASE: u32 = 60u;
const MAT_BASE: u32 = 68u;
`

const meshShaderSource = `
@group(1) @binding(0) var texture0: texture_2d<f32>;
@group(1) @binding(1) var sampler0: sampler;

struct VertexOutput {
	@builtin(position) position: vec4<f32>,
	@location(0) color: vec4<f32>,
	@location(1) texcoord: vec2<f32>,
	@location(2) fog: f32,
	@location(3) world: vec3<f32>,
};

fn lightVertex(pos: vec3<f32>, normal: vec3<f32>, vertexColor: vec4<f32>, eye: vec3<f32>) -> vec4<f32> {
	var matDiffuse = u.fixed[MAT_BASE];
	var matAmbient = u.fixed[MAT_BASE + 1u];
	let matSpecular = u.fixed[MAT_BASE + 2u];
	let matEmission = u.fixed[MAT_BASE + 3u];
	let shininess = u.fixed[MAT_BASE + 4u].x;
	if (u.fixed[MAT_BASE + 4u].y > 0.5) {
		matDiffuse = vertexColor;
		matAmbient = vertexColor;
	}
	var color = matEmission.rgb + u.fixed[GLOBAL_AMBIENT].rgb * matAmbient.rgb;
	let V = normalize(eye - pos);
	for (var i = 0u; i < 8u; i++) {
		let b = i * 7u;
		if (u.fixed[b + 1u].w < 0.5) {
			continue;
		}
		var L: vec3<f32>;
		var att = 1.0;
		if (u.fixed[b].w < 0.5) {
			L = normalize(-u.fixed[b + 1u].xyz);
		} else {
			let d = u.fixed[b].xyz - pos;
			let dist = length(d);
			L = d / max(dist, 0.0001);
			let k = u.fixed[b + 5u].xyz;
			att = 1.0 / max(k.x + k.y * dist + k.z * dist * dist, 0.0001);
			if (u.fixed[b + 5u].w > 1.5) {
				let cosAngle = dot(-L, normalize(u.fixed[b + 1u].xyz));
				att *= smoothstep(u.fixed[b + 6u].y, u.fixed[b + 6u].x, cosAngle);
			}
		}
		let ndotl = max(dot(normal, L), 0.0);
		color += att * (u.fixed[b + 3u].rgb * matAmbient.rgb + ndotl * u.fixed[b + 2u].rgb * matDiffuse.rgb);
		if (ndotl > 0.0 && shininess > 0.0) {
			let H = normalize(L + V);
			color += att * pow(max(dot(normal, H), 0.0), shininess) * u.fixed[b + 4u].rgb * matSpecular.rgb;
		}
	}
	return vec4<f32>(color, matDiffuse.a);
}

fn fogFactor(dist: f32) -> f32 {
	let fp = u.fixed[FOG_PARAMS];
	if (u.fixed[FLAGS].x < 0.5) {
		return 1.0;
	}
	if (fp.w < 0.5) {
		return clamp((fp.z - dist) / max(fp.z - fp.y, 0.0001), 0.0, 1.0);
	}
	if (fp.w < 1.5) {
		return exp(-fp.x * dist);
	}
	return exp(-(fp.x * dist) * (fp.x * dist));
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
	var out: VertexOutput;
	let world = u.world * vec4<f32>(in.position, 1.0);
	let viewPos = u.view * world;
	out.position = u.projection * viewPos;
	out.world = world.xyz;

	var color = vec4<f32>(1.0, 1.0, 1.0, 1.0);
	var normal = vec3<f32>(0.0, 0.0, 1.0);
	out.texcoord = vec2<f32>(0.0, 0.0);
%s
	out.color = color;
	if (u.fixed[FLAGS].y > 0.5) {
		let rotation = mat3x3<f32>(u.view[0].xyz, u.view[1].xyz, u.view[2].xyz);
		let eye = -(transpose(rotation) * u.view[3].xyz);
		out.color = lightVertex(world.xyz, normal, color, eye);
	}
	out.fog = fogFactor(length(viewPos.xyz));
	return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
	let sampled = textureSample(texture0, sampler0, in.texcoord);
	let mask = u32(u.fixed[FLAGS].z);
	for (var i = 0u; i < 8u; i++) {
		if ((mask & (1u << i)) != 0u && dot(u.fixed[CLIP_BASE + i], vec4<f32>(in.world, 1.0)) < 0.0) {
			discard;
		}
	}
	var c = in.color;
	if (u.fixed[FLAGS].w > 0.5) {
		c *= sampled;
	}
	return vec4<f32>(mix(u.fixed[FOG_COLOR].rgb, c.rgb, in.fog), c.a);
}
`

// Entry points of the built-in mesh shader.
const (
	meshVertexEntry   = "vs_main"
	meshFragmentEntry = "fs_main"
)

// meshVariantSource returns the built-in mesh shader reading the optional attributes of mask. WGSL
// has no preprocessor, so the vertex input struct and the attribute reads are generated.
func meshVariantSource(mask uint8) string {
	var input, reads strings.Builder
	input.WriteString("struct VertexInput {\n")
	fmt.Fprintf(&input, "\t@location(%d) position: vec3<f32>,\n", locationPosition)
	if mask&builtinNormal != 0 {
		fmt.Fprintf(&input, "\t@location(%d) normal: vec3<f32>,\n", locationNormal)
		reads.WriteString("\tnormal = normalize((u.world * vec4<f32>(in.normal, 0.0)).xyz);\n")
	}
	if mask&builtinColor != 0 {
		fmt.Fprintf(&input, "\t@location(%d) color: vec4<f32>,\n", locationColor)
		reads.WriteString("\tcolor = in.color;\n")
	}
	if mask&builtinTexCoord != 0 {
		fmt.Fprintf(&input, "\t@location(%d) texcoord: vec2<f32>,\n", locationTexCoord)
		reads.WriteString("\tout.texcoord = in.texcoord;\n")
	}
	input.WriteString("};\n")
	return FixedConstantsWGSL + "\n" + input.String() + fmt.Sprintf(meshShaderSource, reads.String())
}
