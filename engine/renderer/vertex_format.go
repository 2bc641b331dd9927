package renderer

import "fmt"

// AttributeUsage is the semantic of a vertex attribute.
type AttributeUsage int

const (
	UsageCoord AttributeUsage = iota
	UsageColor
	UsageNormal
	UsageTexCoord
	UsageTangent
	UsageBinormal
	UsageBlendWeights
	UsageBlendIndices
	UsageCustom
)

// AttributeType is the scalar component type of a vertex attribute.
type AttributeType int

const (
	AttributeFloat32 AttributeType = iota
	AttributeUint8
	AttributeUint16
	AttributeInt32
)

// Size returns the byte size of one component.
func (t AttributeType) Size() int {
	switch t {
	case AttributeUint8:
		return 1
	case AttributeUint16:
		return 2
	}
	return 4
}

// VertexAttribute is one attribute of a VertexFormat. Offset is computed by NewVertexFormat.
type VertexAttribute struct {
	Usage      AttributeUsage
	Name       string
	Type       AttributeType
	Components int
	Normalized bool
	// Index distinguishes attributes with the same usage, e.g. texture coordinate layers.
	Index  int
	Offset int
}

// ByteSize returns the size of the attribute in bytes.
func (a VertexAttribute) ByteSize() int {
	return a.Type.Size() * a.Components
}

var defaultAttributeNames = map[AttributeUsage]string{
	UsageCoord:        "Position",
	UsageColor:        "Color",
	UsageNormal:       "Normal",
	UsageTexCoord:     "TexCoord",
	UsageTangent:      "Tangent",
	UsageBinormal:     "Binormal",
	UsageBlendWeights: "BlendWeights",
	UsageBlendIndices: "BlendIndices",
	UsageCustom:       "Custom",
}

// SemanticName returns the shader-facing name of the attribute. Unnamed attributes use the default
// name of their usage.
func (a VertexAttribute) SemanticName() string {
	if a.Name != "" {
		return a.Name
	}
	return defaultAttributeNames[a.Usage]
}

// VertexFormat is an ordered list of vertex attributes with computed offsets and stride. It is
// used both to interpret CPU vertex data and to build native input layouts.
type VertexFormat struct {
	name       string
	attributes []VertexAttribute
	stride     int
}

// NewVertexFormat builds a format from attributes in memory order.
//
// Parameters:
//   - name: a descriptive name used in logs and input-layout caches
//   - attributes: the attributes in memory order; offsets are overwritten
//
// Returns:
//   - *VertexFormat: the new format
func NewVertexFormat(name string, attributes ...VertexAttribute) *VertexFormat {
	f := &VertexFormat{name: name, attributes: make([]VertexAttribute, len(attributes))}
	offset := 0
	for i, a := range attributes {
		if a.Components < 1 {
			a.Components = 1
		}
		a.Offset = offset
		offset += a.ByteSize()
		f.attributes[i] = a
	}
	f.stride = offset
	return f
}

// Name returns the format's name.
func (f *VertexFormat) Name() string {
	return f.name
}

// Stride returns the size of one vertex in bytes.
func (f *VertexFormat) Stride() int {
	if f == nil {
		return 0
	}
	return f.stride
}

// Attributes returns the attributes in memory order.
func (f *VertexFormat) Attributes() []VertexAttribute {
	return f.attributes
}

// Attribute looks up the attribute with the given usage and index.
func (f *VertexFormat) Attribute(usage AttributeUsage, index int) (VertexAttribute, bool) {
	for _, a := range f.attributes {
		if a.Usage == usage && a.Index == index {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

// Compatible reports whether vertices of f can feed a pipeline built for other: same stride and
// identical attributes in the same order. Names are ignored.
func (f *VertexFormat) Compatible(other *VertexFormat) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f == other {
		return true
	}
	if f.stride != other.stride || len(f.attributes) != len(other.attributes) {
		return false
	}
	for i, a := range f.attributes {
		b := other.attributes[i]
		if a.Usage != b.Usage || a.Type != b.Type || a.Components != b.Components ||
			a.Normalized != b.Normalized || a.Index != b.Index {
			return false
		}
	}
	return true
}

func (f *VertexFormat) String() string {
	return fmt.Sprintf("VertexFormat(%s, %d attributes, stride %d)", f.name, len(f.attributes), f.stride)
}

var (
	// VertexFormatDefault is the format of Vertex: position, normal, RGBA8 color and one texture
	// coordinate layer. 36 bytes per vertex.
	VertexFormatDefault = NewVertexFormat("default",
		VertexAttribute{Usage: UsageCoord, Type: AttributeFloat32, Components: 3},
		VertexAttribute{Usage: UsageNormal, Type: AttributeFloat32, Components: 3},
		VertexAttribute{Usage: UsageColor, Type: AttributeUint8, Components: 4, Normalized: true},
		VertexAttribute{Usage: UsageTexCoord, Type: AttributeFloat32, Components: 2},
	)

	// VertexFormat2D is the format of Vertex2D. 24 bytes per vertex.
	VertexFormat2D = NewVertexFormat("2d",
		VertexAttribute{Usage: UsageCoord, Type: AttributeFloat32, Components: 3},
		VertexAttribute{Usage: UsageColor, Type: AttributeUint8, Components: 4, Normalized: true},
		VertexAttribute{Usage: UsageTexCoord, Type: AttributeFloat32, Components: 2},
	)
)

// IndexFormat is the integer type of mesh indices.
type IndexFormat int

const (
	IndexUint16 IndexFormat = iota
	IndexUint32
)

// Size returns the size of one index in bytes.
func (f IndexFormat) Size() int {
	if f == IndexUint16 {
		return 2
	}
	return 4
}
