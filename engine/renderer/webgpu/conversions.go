package webgpu

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

var blendFactors = [...]wgpu.BlendFactor{
	material.BlendZero:        wgpu.BlendFactorZero,
	material.BlendOne:         wgpu.BlendFactorOne,
	material.BlendSrcColor:    wgpu.BlendFactorSrc,
	material.BlendInvSrcColor: wgpu.BlendFactorOneMinusSrc,
	material.BlendSrcAlpha:    wgpu.BlendFactorSrcAlpha,
	material.BlendInvSrcAlpha: wgpu.BlendFactorOneMinusSrcAlpha,
	material.BlendDstColor:    wgpu.BlendFactorDst,
	material.BlendInvDstColor: wgpu.BlendFactorOneMinusDst,
	material.BlendDstAlpha:    wgpu.BlendFactorDstAlpha,
	material.BlendInvDstAlpha: wgpu.BlendFactorOneMinusDstAlpha,
}

var compareFuncs = [...]wgpu.CompareFunction{
	material.CompareNever:        wgpu.CompareFunctionNever,
	material.CompareEqual:        wgpu.CompareFunctionEqual,
	material.CompareNotEqual:     wgpu.CompareFunctionNotEqual,
	material.CompareLess:         wgpu.CompareFunctionLess,
	material.CompareLessEqual:    wgpu.CompareFunctionLessEqual,
	material.CompareGreater:      wgpu.CompareFunctionGreater,
	material.CompareGreaterEqual: wgpu.CompareFunctionGreaterEqual,
	material.CompareAlways:       wgpu.CompareFunctionAlways,
}

var stencilOps = [...]wgpu.StencilOperation{
	material.StencilKeep:     wgpu.StencilOperationKeep,
	material.StencilZero:     wgpu.StencilOperationZero,
	material.StencilReplace:  wgpu.StencilOperationReplace,
	material.StencilIncr:     wgpu.StencilOperationIncrementClamp,
	material.StencilIncrWrap: wgpu.StencilOperationIncrementWrap,
	material.StencilDecr:     wgpu.StencilOperationDecrementClamp,
	material.StencilDecrWrap: wgpu.StencilOperationDecrementWrap,
	material.StencilInvert:   wgpu.StencilOperationInvert,
}

// topologies has no entry for triangle fans, which WebGPU does not have.
var topologies = map[renderer.PrimitiveType]wgpu.PrimitiveTopology{
	renderer.PrimitivePoints:        wgpu.PrimitiveTopologyPointList,
	renderer.PrimitiveLines:         wgpu.PrimitiveTopologyLineList,
	renderer.PrimitiveLineStrip:     wgpu.PrimitiveTopologyLineStrip,
	renderer.PrimitiveTriangles:     wgpu.PrimitiveTopologyTriangleList,
	renderer.PrimitiveTriangleStrip: wgpu.PrimitiveTopologyTriangleStrip,
}

func stripTopology(t wgpu.PrimitiveTopology) bool {
	return t == wgpu.PrimitiveTopologyLineStrip || t == wgpu.PrimitiveTopologyTriangleStrip
}

func cullMode(culling material.FaceCulling) wgpu.CullMode {
	switch culling {
	case material.CullFront:
		return wgpu.CullModeFront
	case material.CullBack:
		return wgpu.CullModeBack
	}
	return wgpu.CullModeNone
}

func frontFace(face renderer.FrontFace) wgpu.FrontFace {
	if face == renderer.FrontFaceClockwise {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func indexFormat(f renderer.IndexFormat) wgpu.IndexFormat {
	if f == renderer.IndexUint32 {
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUint16
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// textureFormat returns the texture format of a stored pixel format and the format the image must be
// converted to before upload. WebGPU has no luminance or alpha-only formats that sample like the
// fixed-function ones, so everything but BGRA is expanded to RGBA.
func textureFormat(f renderer.PixelFormat) (wgpu.TextureFormat, renderer.PixelFormat) {
	if f == renderer.PixelBGRA {
		return wgpu.TextureFormatBGRA8Unorm, renderer.PixelBGRA
	}
	return wgpu.TextureFormatRGBA8Unorm, renderer.PixelRGBA
}

func attributeFormat(a renderer.VertexAttribute) (wgpu.VertexFormat, bool) {
	switch a.Type {
	case renderer.AttributeFloat32:
		switch a.Components {
		case 1:
			return wgpu.VertexFormatFloat32, true
		case 2:
			return wgpu.VertexFormatFloat32x2, true
		case 3:
			return wgpu.VertexFormatFloat32x3, true
		case 4:
			return wgpu.VertexFormatFloat32x4, true
		}
	case renderer.AttributeUint8:
		if a.Components != 4 {
			return 0, false
		}
		if a.Normalized {
			return wgpu.VertexFormatUnorm8x4, true
		}
		return wgpu.VertexFormatUint8x4, true
	case renderer.AttributeUint16:
		if !a.Normalized {
			return 0, false
		}
		switch a.Components {
		case 2:
			return wgpu.VertexFormatUnorm16x2, true
		case 4:
			return wgpu.VertexFormatUnorm16x4, true
		}
	case renderer.AttributeInt32:
		switch a.Components {
		case 1:
			return wgpu.VertexFormatSint32, true
		case 2:
			return wgpu.VertexFormatSint32x2, true
		case 3:
			return wgpu.VertexFormatSint32x3, true
		case 4:
			return wgpu.VertexFormatSint32x4, true
		}
	}
	return 0, false
}

// vertexLayout builds the layout of a vertex format for shader classes. Attributes get consecutive
// locations in memory order.
func vertexLayout(format *renderer.VertexFormat) (VertexLayout, bool) {
	layout := VertexLayout{Stride: uint64(format.Stride())}
	for i, a := range format.Attributes() {
		f, ok := attributeFormat(a)
		if !ok {
			return VertexLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         f,
			Offset:         uint64(a.Offset),
			ShaderLocation: uint32(i),
		})
	}
	return layout, true
}

// Attribute bits of the built-in mesh shader variants.
const (
	builtinNormal uint8 = 1 << iota
	builtinColor
	builtinTexCoord
)

// Shader locations of the built-in mesh shader inputs.
const (
	locationPosition = iota
	locationNormal
	locationColor
	locationTexCoord
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

// builtinLayoutOf returns the layout of the attributes of format the built-in mesh shader variant
// of mask reads.
func builtinLayoutOf(format *renderer.VertexFormat, mask uint8) (VertexLayout, bool) {
	type input struct {
		usage    renderer.AttributeUsage
		location uint32
	}
	inputs := []input{{renderer.UsageCoord, locationPosition}}
	if mask&builtinNormal != 0 {
		inputs = append(inputs, input{renderer.UsageNormal, locationNormal})
	}
	if mask&builtinColor != 0 {
		inputs = append(inputs, input{renderer.UsageColor, locationColor})
	}
	if mask&builtinTexCoord != 0 {
		inputs = append(inputs, input{renderer.UsageTexCoord, locationTexCoord})
	}
	layout := VertexLayout{Stride: uint64(format.Stride())}
	for _, in := range inputs {
		a, _ := format.Attribute(in.usage, 0)
		f, ok := attributeFormat(a)
		if !ok {
			return VertexLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         f,
			Offset:         uint64(a.Offset),
			ShaderLocation: in.location,
		})
	}
	return layout, true
}

// samplerDesc maps the sampling parameters of a texture. Anisotropic filtering needs linear
// filters on every axis.
func samplerDesc(tex *renderer.Texture, maxAnisotropy int, anisotropic bool) SamplerDesc {
	s := tex.Sampler()
	desc := SamplerDesc{
		Address:       wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipFilter:     wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   float32(tex.MipLevels()),
		MaxAnisotropy: 1,
	}
	switch {
	case s.Filter == renderer.FilterNearest:
		desc.MagFilter, desc.MinFilter = wgpu.FilterModeNearest, wgpu.FilterModeNearest
		if tex.MipMaps() && s.MipMap != renderer.MipMapBilinear {
			desc.MipFilter = wgpu.MipmapFilterModeLinear
		}
	case tex.MipMaps() && s.MipMap == renderer.MipMapAnisotropic && anisotropic:
		desc.MipFilter = wgpu.MipmapFilterModeLinear
		desc.MaxAnisotropy = uint16(min(max(s.Anisotropy, 1), maxAnisotropy))
	case tex.MipMaps() && s.MipMap != renderer.MipMapBilinear:
		desc.MipFilter = wgpu.MipmapFilterModeLinear
	}
	switch s.Wrap {
	case renderer.WrapMirror:
		desc.Address = wgpu.AddressModeMirrorRepeat
	case renderer.WrapClamp:
		desc.Address = wgpu.AddressModeClampToEdge
	}
	return desc
}

// align4 rounds n up to the copy alignment of WebGPU buffer writes.
func align4(n int) int {
	return (n + 3) &^ 3
}
