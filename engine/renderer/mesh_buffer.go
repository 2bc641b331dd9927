package renderer

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-render/common"
)

// Vertex is a convenience vertex covering the usages of VertexFormatDefault. MeshBuffer.WriteVertex
// stores whichever of its fields the mesh's format declares.
type Vertex struct {
	Position common.Vec3
	Normal   common.Vec3
	Color    common.Color
	TexCoord [2]float32
}

// MeshBuffer holds the CPU-side vertex and index data of a mesh together with the handles of its
// hardware buffers. It does not own the hardware buffers; the RenderSystem that created them does.
type MeshBuffer struct {
	Format      *VertexFormat
	IndexFormat IndexFormat
	Vertices    *common.UniversalBuffer
	Indices     *common.UniversalBuffer
	Primitive   PrimitiveType
	Usage       BufferUsage

	VertexBuffer Handle
	IndexBuffer  Handle

	// Textures are bound to consecutive layers before drawing.
	Textures []*Texture
}

// NewMeshBuffer creates an empty mesh buffer whose buffers use the strides of the given formats.
//
// Parameters:
//   - format: the vertex format
//   - indexFormat: the index type
//
// Returns:
//   - *MeshBuffer: the new mesh buffer, drawn as a triangle list by default
func NewMeshBuffer(format *VertexFormat, indexFormat IndexFormat) *MeshBuffer {
	return &MeshBuffer{
		Format:      format,
		IndexFormat: indexFormat,
		Vertices:    common.NewUniversalBuffer(format.Stride()),
		Indices:     common.NewUniversalBuffer(indexFormat.Size()),
		Primitive:   PrimitiveTriangles,
	}
}

// Validate checks that the buffers' strides match the formats.
func (m *MeshBuffer) Validate() error {
	if m.Format == nil {
		return fmt.Errorf("mesh buffer has no vertex format")
	}
	if m.Vertices.Stride() != m.Format.Stride() {
		return fmt.Errorf("vertex buffer stride %d does not match format stride %d", m.Vertices.Stride(), m.Format.Stride())
	}
	if !m.Indices.Empty() && m.Indices.Stride() != m.IndexFormat.Size() {
		return fmt.Errorf("index buffer stride %d does not match index size %d", m.Indices.Stride(), m.IndexFormat.Size())
	}
	return nil
}

// Indexed reports whether the mesh is drawn with indices.
func (m *MeshBuffer) Indexed() bool {
	return !m.Indices.Empty()
}

// VertexCount returns the number of vertices.
func (m *MeshBuffer) VertexCount() int {
	return m.Vertices.Count()
}

// IndexCount returns the number of indices.
func (m *MeshBuffer) IndexCount() int {
	return m.Indices.Count()
}

// ElementCount returns the number of elements DrawMeshBuffer submits: indices for indexed meshes,
// vertices otherwise.
func (m *MeshBuffer) ElementCount() int {
	if m.Indexed() {
		return m.IndexCount()
	}
	return m.VertexCount()
}

// AppendVertex adds one vertex at the end of the vertex buffer.
func (m *MeshBuffer) AppendVertex(v Vertex) {
	i := m.Vertices.Count()
	m.Vertices.Resize(i + 1)
	m.WriteVertex(i, v)
}

// WriteVertex stores v at index i, writing only the attributes the mesh's format declares.
func (m *MeshBuffer) WriteVertex(i int, v Vertex) {
	for _, a := range m.Format.Attributes() {
		switch a.Usage {
		case UsageCoord:
			m.putVec(i, a, []float32{v.Position.X, v.Position.Y, v.Position.Z})
		case UsageNormal:
			m.putVec(i, a, []float32{v.Normal.X, v.Normal.Y, v.Normal.Z})
		case UsageTexCoord:
			if a.Index == 0 {
				m.putVec(i, a, v.TexCoord[:])
			}
		case UsageColor:
			if a.Type == AttributeUint8 {
				c := [4]uint8{v.Color.R, v.Color.G, v.Color.B, v.Color.A}
				copy(m.Vertices.Element(i)[a.Offset:a.Offset+min(a.Components, 4)], c[:])
			} else {
				c := v.Color.Float4()
				m.putVec(i, a, c[:])
			}
		}
	}
}

func (m *MeshBuffer) putVec(i int, a VertexAttribute, values []float32) {
	if a.Type != AttributeFloat32 {
		return
	}
	for c := 0; c < a.Components && c < len(values); c++ {
		m.Vertices.PutFloat32(i, a.Offset+c*4, values[c])
	}
}

// AppendIndices adds indices at the end of the index buffer.
func (m *MeshBuffer) AppendIndices(indices ...uint32) {
	start := m.Indices.Count()
	m.Indices.Resize(start + len(indices))
	for i, idx := range indices {
		if m.IndexFormat == IndexUint16 {
			m.Indices.PutUint16(start+i, 0, uint16(min(idx, math.MaxUint16)))
		} else {
			m.Indices.PutUint32(start+i, 0, idx)
		}
	}
}

// CreateHardwareBuffers creates and fills the hardware buffers of the mesh on the given render
// system. Existing handles are reused.
//
// Parameters:
//   - rs: the render system that will own the buffers
//
// Returns:
//   - bool: true if the vertex buffer (and the index buffer of indexed meshes) are valid
func (m *MeshBuffer) CreateHardwareBuffers(rs RenderSystem) bool {
	if !rs.QueryVideoSupport(FeatureHardwareMeshBuffer) {
		return false
	}
	if !m.VertexBuffer.Valid() {
		m.VertexBuffer = rs.CreateVertexBuffer()
	}
	if m.Indexed() && !m.IndexBuffer.Valid() {
		m.IndexBuffer = rs.CreateIndexBuffer()
	}
	m.UpdateVertexBuffer(rs)
	m.UpdateIndexBuffer(rs)
	return m.VertexBuffer.Valid() && (!m.Indexed() || m.IndexBuffer.Valid())
}

// UpdateVertexBuffer uploads the whole vertex buffer.
func (m *MeshBuffer) UpdateVertexBuffer(rs RenderSystem) {
	rs.UpdateVertexBuffer(m.VertexBuffer, m.Vertices, m.Format, m.Usage)
}

// UpdateIndexBuffer uploads the whole index buffer.
func (m *MeshBuffer) UpdateIndexBuffer(rs RenderSystem) {
	if m.Indexed() {
		rs.UpdateIndexBuffer(m.IndexBuffer, m.Indices, m.IndexFormat, m.Usage)
	}
}

// UpdateVertexElement uploads the single vertex at index.
func (m *MeshBuffer) UpdateVertexElement(rs RenderSystem, index int) {
	rs.UpdateVertexBufferElement(m.VertexBuffer, m.Vertices, index)
}

// UpdateIndexElement uploads the single index at index.
func (m *MeshBuffer) UpdateIndexElement(rs RenderSystem, index int) {
	rs.UpdateIndexBufferElement(m.IndexBuffer, m.Indices, index)
}

// DeleteHardwareBuffers deletes the hardware buffers and nulls the handles.
func (m *MeshBuffer) DeleteHardwareBuffers(rs RenderSystem) {
	rs.DeleteVertexBuffer(&m.VertexBuffer)
	rs.DeleteIndexBuffer(&m.IndexBuffer)
}
