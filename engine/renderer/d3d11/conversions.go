package d3d11

import (
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

// topologies has no entry for triangle fans, which Direct3D 10 dropped.
var topologies = map[renderer.PrimitiveType]uint32{
	renderer.PrimitivePoints:        topologyPointList,
	renderer.PrimitiveLines:         topologyLineList,
	renderer.PrimitiveLineStrip:     topologyLineStrip,
	renderer.PrimitiveTriangles:     topologyTriangleList,
	renderer.PrimitiveTriangleStrip: topologyTriangleStrip,
}

// cullMode selects the discarded face. The winding is part of the rasterizer state.
func cullMode(culling material.FaceCulling) uint32 {
	switch culling {
	case material.CullFront:
		return cullFront
	case material.CullBack:
		return cullBack
	}
	return cullNone
}

// fillMode maps point rendering to wireframe, the closest mode Direct3D 11 has.
func fillMode(mode material.PolygonMode) uint32 {
	if mode == material.PolygonSolid {
		return fillSolid
	}
	return fillWireframe
}

func indexFormat(f renderer.IndexFormat) uint32 {
	if f == renderer.IndexUint32 {
		return formatR32Uint
	}
	return formatR16Uint
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// textureFormat returns the DXGI format of a stored pixel format and the format the image must be
// converted to before upload. DXGI has no luminance formats; alpha textures keep one byte per texel
// from feature level 10_0 on.
func textureFormat(f renderer.PixelFormat, level uint32) (uint32, renderer.PixelFormat) {
	switch f {
	case renderer.PixelAlpha:
		if level >= FeatureLevel10_0 {
			return formatA8Unorm, renderer.PixelAlpha
		}
	case renderer.PixelBGRA:
		return formatB8G8R8A8Unorm, renderer.PixelBGRA
	}
	return formatR8G8B8A8Unorm, renderer.PixelRGBA
}

func elementFormat(a renderer.VertexAttribute) (uint32, bool) {
	switch a.Type {
	case renderer.AttributeFloat32:
		switch a.Components {
		case 1:
			return formatR32Float, true
		case 2:
			return formatR32G32Float, true
		case 3:
			return formatR32G32B32Float, true
		case 4:
			return formatR32G32B32A32Float, true
		}
	case renderer.AttributeUint8:
		if a.Components != 4 {
			return 0, false
		}
		if a.Normalized {
			return formatR8G8B8A8Unorm, true
		}
		return formatR8G8B8A8Uint, true
	case renderer.AttributeUint16:
		if !a.Normalized {
			return 0, false
		}
		switch a.Components {
		case 2:
			return formatR16G16Unorm, true
		case 4:
			return formatR16G16B16A16Unorm, true
		}
	}
	return 0, false
}

var semantics = map[renderer.AttributeUsage]string{
	renderer.UsageCoord:        "POSITION",
	renderer.UsageColor:        "COLOR",
	renderer.UsageNormal:       "NORMAL",
	renderer.UsageTexCoord:     "TEXCOORD",
	renderer.UsageTangent:      "TANGENT",
	renderer.UsageBinormal:     "BINORMAL",
	renderer.UsageBlendWeights: "BLENDWEIGHT",
	renderer.UsageBlendIndices: "BLENDINDICES",
	renderer.UsageCustom:       "TEXCOORD",
}

// inputElements builds the input layout of a vertex format. Custom attributes are passed as
// texture coordinates after the regular layers.
func inputElements(format *renderer.VertexFormat) ([]InputElement, bool) {
	elements := make([]InputElement, 0, len(format.Attributes()))
	custom := 0
	for _, a := range format.Attributes() {
		f, ok := elementFormat(a)
		if !ok {
			return nil, false
		}
		index := a.Index
		if a.Usage == renderer.UsageCustom {
			index = maxTextureSlots + custom
			custom++
		}
		elements = append(elements, InputElement{
			Semantic: semantics[a.Usage],
			Index:    index,
			Format:   f,
			Offset:   a.Offset,
		})
	}
	return elements, true
}

// Attribute bits of the built-in mesh shader variants.
const (
	builtinNormal uint8 = 1 << iota
	builtinColor
	builtinTexCoord
)

// builtinMask returns the optional attributes of format the built-in mesh shader reads, and false
// if the format has no position.
func builtinMask(format *renderer.VertexFormat) (uint8, bool) {
	if _, ok := format.Attribute(renderer.UsageCoord, 0); !ok {
		return 0, false
	}
	var mask uint8
	if _, ok := format.Attribute(renderer.UsageNormal, 0); ok {
		mask |= builtinNormal
	}
	if _, ok := format.Attribute(renderer.UsageColor, 0); ok {
		mask |= builtinColor
	}
	if _, ok := format.Attribute(renderer.UsageTexCoord, 0); ok {
		mask |= builtinTexCoord
	}
	return mask, true
}

// builtinElements returns the elements of format the built-in mesh shader variant of mask reads.
func builtinElements(format *renderer.VertexFormat, mask uint8) ([]InputElement, bool) {
	usages := []renderer.AttributeUsage{renderer.UsageCoord}
	if mask&builtinNormal != 0 {
		usages = append(usages, renderer.UsageNormal)
	}
	if mask&builtinColor != 0 {
		usages = append(usages, renderer.UsageColor)
	}
	if mask&builtinTexCoord != 0 {
		usages = append(usages, renderer.UsageTexCoord)
	}
	elements := make([]InputElement, 0, len(usages))
	for _, usage := range usages {
		a, _ := format.Attribute(usage, 0)
		f, ok := elementFormat(a)
		if !ok {
			return nil, false
		}
		elements = append(elements, InputElement{Semantic: semantics[usage], Format: f, Offset: a.Offset})
	}
	return elements, true
}
