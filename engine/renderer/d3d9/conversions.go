package d3d9

import (
	"math"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

var blendFactors = [...]uint32{
	material.BlendZero:        blendZero,
	material.BlendOne:         blendOne,
	material.BlendSrcColor:    blendSrcColor,
	material.BlendInvSrcColor: blendInvSrcColor,
	material.BlendSrcAlpha:    blendSrcAlpha,
	material.BlendInvSrcAlpha: blendInvSrcAlpha,
	material.BlendDstColor:    blendDestColor,
	material.BlendInvDstColor: blendInvDestColor,
	material.BlendDstAlpha:    blendDestAlpha,
	material.BlendInvDstAlpha: blendInvDestAlpha,
}

var compareFuncs = [...]uint32{
	material.CompareNever:        cmpNever,
	material.CompareEqual:        cmpEqual,
	material.CompareNotEqual:     cmpNotEqual,
	material.CompareLess:         cmpLess,
	material.CompareLessEqual:    cmpLessEqual,
	material.CompareGreater:      cmpGreater,
	material.CompareGreaterEqual: cmpGreaterEqual,
	material.CompareAlways:       cmpAlways,
}

var stencilOps = [...]uint32{
	material.StencilKeep:     stencilOpKeep,
	material.StencilZero:     stencilOpZero,
	material.StencilReplace:  stencilOpReplace,
	material.StencilIncr:     stencilOpIncrSat,
	material.StencilIncrWrap: stencilOpIncr,
	material.StencilDecr:     stencilOpDecrSat,
	material.StencilDecrWrap: stencilOpDecr,
	material.StencilInvert:   stencilOpInvert,
}

var primitiveTypes = [...]uint32{
	renderer.PrimitivePoints:        ptPointList,
	renderer.PrimitiveLines:         ptLineList,
	renderer.PrimitiveLineStrip:     ptLineStrip,
	renderer.PrimitiveTriangles:     ptTriangleList,
	renderer.PrimitiveTriangleStrip: ptTriangleStrip,
	renderer.PrimitiveTriangleFan:   ptTriangleFan,
}

var fogModes = [...]uint32{
	renderer.FogLinear: fogLinear,
	renderer.FogExp:    fogExp,
	renderer.FogExp2:   fogExp2,
}

// booleanStates maps the generic boolean render states to D3DRENDERSTATETYPE. Fog, scissor and
// texturing are handled separately.
var booleanStates = map[renderer.RenderState]uint32{
	renderer.RenderStateBlending:      rsAlphaBlendEnable,
	renderer.RenderStateDither:        rsDitherEnable,
	renderer.RenderStateLighting:      rsLighting,
	renderer.RenderStateLineSmooth:    rsAntialiasedLineEnable,
	renderer.RenderStateMultisample:   rsMultisampleAntialias,
	renderer.RenderStateNormalize:     rsNormalizeNormals,
	renderer.RenderStateStencil:       rsStencilEnable,
	renderer.RenderStateColorMaterial: rsColorVertex,
}

// cullMode combines the culled face with the front-face winding. D3D9 names the winding of the
// faces it discards.
func cullMode(culling material.FaceCulling, front renderer.FrontFace) uint32 {
	if culling == material.CullNone {
		return cullNone
	}
	discardCW := culling == material.CullBack
	if front == renderer.FrontFaceClockwise {
		discardCW = !discardCW
	}
	if discardCW {
		return cullCW
	}
	return cullCCW
}

func fillMode(mode material.PolygonMode) uint32 {
	switch mode {
	case material.PolygonWireframe:
		return fillWireframe
	case material.PolygonPoints:
		return fillPoint
	}
	return fillSolid
}

func floatBits(f float32) uint32 {
	return math.Float32bits(f)
}

func boolValue(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// textureFormat returns the D3DFORMAT of a stored pixel format and the format the image must be
// converted to before upload. RGB layouts never reach the device because D3D9 substitutes them.
func textureFormat(f renderer.PixelFormat) (uint32, renderer.PixelFormat) {
	switch f {
	case renderer.PixelAlpha:
		return fmtA8, renderer.PixelAlpha
	case renderer.PixelGray:
		return fmtL8, renderer.PixelGray
	case renderer.PixelGrayAlpha:
		return fmtA8L8, renderer.PixelGrayAlpha
	}
	return fmtA8R8G8B8, renderer.PixelBGRA
}

func declType(a renderer.VertexAttribute) (uint8, bool) {
	switch a.Type {
	case renderer.AttributeFloat32:
		switch a.Components {
		case 1:
			return declFloat1, true
		case 2:
			return declFloat2, true
		case 3:
			return declFloat3, true
		case 4:
			return declFloat4, true
		}
	case renderer.AttributeUint8:
		if a.Components != 4 {
			return 0, false
		}
		if a.Usage == renderer.UsageColor && a.Normalized {
			return declD3DColor, true
		}
		if a.Normalized {
			return declUByte4N, true
		}
		return declUByte4, true
	case renderer.AttributeUint16:
		if !a.Normalized {
			return 0, false
		}
		switch a.Components {
		case 2:
			return declUShort2N, true
		case 4:
			return declUShort4N, true
		}
	}
	return 0, false
}

var declUsages = map[renderer.AttributeUsage]uint8{
	renderer.UsageCoord:        declUsagePosition,
	renderer.UsageColor:        declUsageColor,
	renderer.UsageNormal:       declUsageNormal,
	renderer.UsageTexCoord:     declUsageTexCoord,
	renderer.UsageTangent:      declUsageTangent,
	renderer.UsageBinormal:     declUsageBinormal,
	renderer.UsageBlendWeights: declUsageBlendWeight,
	renderer.UsageBlendIndices: declUsageBlendIndices,
	renderer.UsageCustom:       declUsageTexCoord,
}

// vertexElements builds the declaration of a vertex format. Custom attributes are passed as
// texture coordinates after the regular layers.
func vertexElements(format *renderer.VertexFormat) ([]VertexElement, bool) {
	elements := make([]VertexElement, 0, len(format.Attributes()))
	custom := 0
	for _, a := range format.Attributes() {
		typ, ok := declType(a)
		if !ok {
			return nil, false
		}
		index := a.Index
		if a.Usage == renderer.UsageCustom {
			index = maxTextureStages + custom
			custom++
		}
		elements = append(elements, VertexElement{
			Offset:     uint16(a.Offset),
			Type:       typ,
			Usage:      declUsages[a.Usage],
			UsageIndex: uint8(index),
		})
	}
	return elements, true
}

// swizzleColors swaps the red and blue bytes of every RGBA8 color attribute in data, which holds
// whole vertices of format. D3DCOLOR stores blue in the lowest byte.
func swizzleColors(data []byte, format *renderer.VertexFormat) {
	stride := format.Stride()
	if stride == 0 {
		return
	}
	for _, a := range format.Attributes() {
		if a.Usage != renderer.UsageColor || a.Type != renderer.AttributeUint8 || a.Components != 4 || !a.Normalized {
			continue
		}
		for v := a.Offset; v+2 < len(data); v += stride {
			data[v], data[v+2] = data[v+2], data[v]
		}
	}
}
