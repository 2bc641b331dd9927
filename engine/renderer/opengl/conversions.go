package opengl

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

var blendFactors = [...]uint32{
	material.BlendZero:        glZero,
	material.BlendOne:         glOne,
	material.BlendSrcColor:    glSrcColor,
	material.BlendInvSrcColor: glOneMinusSrcColor,
	material.BlendSrcAlpha:    glSrcAlpha,
	material.BlendInvSrcAlpha: glOneMinusSrcAlpha,
	material.BlendDstColor:    glDstColor,
	material.BlendInvDstColor: glOneMinusDstColor,
	material.BlendDstAlpha:    glDstAlpha,
	material.BlendInvDstAlpha: glOneMinusDstAlpha,
}

var compareFuncs = [...]uint32{
	material.CompareNever:        glNever,
	material.CompareEqual:        glEqual,
	material.CompareNotEqual:     glNotequal,
	material.CompareLess:         glLess,
	material.CompareLessEqual:    glLequal,
	material.CompareGreater:      glGreater,
	material.CompareGreaterEqual: glGequal,
	material.CompareAlways:       glAlways,
}

var stencilOps = [...]uint32{
	material.StencilKeep:     glKeep,
	material.StencilZero:     glZero,
	material.StencilReplace:  glReplace,
	material.StencilIncr:     glIncr,
	material.StencilIncrWrap: glIncrWrap,
	material.StencilDecr:     glDecr,
	material.StencilDecrWrap: glDecrWrap,
	material.StencilInvert:   glInvert,
}

var primitiveModes = [...]uint32{
	renderer.PrimitivePoints:        glPoints,
	renderer.PrimitiveLines:         glLines,
	renderer.PrimitiveLineStrip:     glLineStrip,
	renderer.PrimitiveTriangles:     glTriangles,
	renderer.PrimitiveTriangleStrip: glTriangleStrip,
	renderer.PrimitiveTriangleFan:   glTriangleFan,
}

var renderStateCaps = map[renderer.RenderState]uint32{
	renderer.RenderStateBlending:      glBlend,
	renderer.RenderStateDepthTest:     glDepthTest,
	renderer.RenderStateCullFace:      glCullFace,
	renderer.RenderStateDither:        glDither,
	renderer.RenderStateFog:           glFog,
	renderer.RenderStateLighting:      glLighting,
	renderer.RenderStateLineSmooth:    glLineSmooth,
	renderer.RenderStateMultisample:   glMultisample,
	renderer.RenderStateNormalize:     glNormalize,
	renderer.RenderStatePointSmooth:   glPointSmooth,
	renderer.RenderStateScissor:       glScissorTest,
	renderer.RenderStateStencil:       glStencilTest,
	renderer.RenderStateTexture:       glTexture2D,
	renderer.RenderStateColorMaterial: glColorMaterial,
}

// fixedFunctionCaps are capabilities that only exist in compatibility contexts.
var fixedFunctionCaps = map[uint32]bool{
	glFog:           true,
	glLighting:      true,
	glNormalize:     true,
	glPointSmooth:   true,
	glTexture2D:     true,
	glColorMaterial: true,
}

// desktopCaps are capabilities missing from GL ES.
var desktopCaps = map[uint32]bool{
	glLineSmooth:  true,
	glMultisample: true,
}

func attributeType(t renderer.AttributeType) uint32 {
	switch t {
	case renderer.AttributeUint8:
		return glUnsignedByte
	case renderer.AttributeUint16:
		return glUnsignedShort
	case renderer.AttributeInt32:
		return glInt
	}
	return glFloat
}

func indexType(f renderer.IndexFormat) uint32 {
	if f == renderer.IndexUint16 {
		return glUnsignedShort
	}
	return glUnsignedInt
}

func bufferUsage(u renderer.BufferUsage) uint32 {
	if u == renderer.UsageDynamic {
		return glDynamicDraw
	}
	return glStaticDraw
}

func shaderStage(t renderer.ShaderType) (uint32, bool) {
	switch t {
	case renderer.ShaderVertex:
		return glVertexShader, true
	case renderer.ShaderPixel:
		return glFragmentShader, true
	case renderer.ShaderGeometry:
		return glGeometryShader, true
	case renderer.ShaderTessControl:
		return glTessControlShader, true
	case renderer.ShaderTessEvaluation:
		return glTessEvaluationShader, true
	case renderer.ShaderCompute:
		return glComputeShader, true
	}
	return 0, false
}

func queryTarget(t renderer.QueryType, es bool) (uint32, bool) {
	switch t {
	case renderer.QuerySamplesPassed:
		return glSamplesPassed, !es
	case renderer.QueryAnySamplesPassed:
		return glAnySamplesPassed, true
	case renderer.QueryPrimitivesGenerated:
		return glPrimitivesGenerated, !es
	case renderer.QueryTimeElapsed:
		return glTimeElapsed, !es
	}
	return 0, false
}

// textureFormat returns the internal format and the pixel transfer format of a pixel format.
func textureFormat(f renderer.PixelFormat, profile Profile) (int32, uint32) {
	legacy := profile != ProfileCore
	switch f {
	case renderer.PixelAlpha:
		if legacy {
			return glAlpha, glAlpha
		}
		return glR8, glRed
	case renderer.PixelGray:
		if legacy {
			return glLuminance, glLuminance
		}
		return glR8, glRed
	case renderer.PixelGrayAlpha:
		if legacy {
			return glLuminanceAlpha, glLuminanceAlpha
		}
		return glRG8, glRG
	case renderer.PixelRGB:
		if profile == ProfileES {
			return glRGB, glRGB
		}
		return glRGB8, glRGB
	case renderer.PixelBGR:
		return glRGB8, glBGR
	case renderer.PixelBGRA:
		return glRGBA8, glBGRA
	}
	if profile == ProfileES {
		return glRGBA, glRGBA
	}
	return glRGBA8, glRGBA
}
