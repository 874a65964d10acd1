package meshlet

import "github.com/Faultbox/sol/pkg/geometry"

// Triangles reconstructs the source-mesh triangles of meshlet m, in the
// order they were packed.
func (buf *Buffers) Triangles(m geometry.Meshlet) [][3]uint32 {
	vertices := buf.VertexIndices[m.VertexOffset : m.VertexOffset+m.VertexCount]
	prims := buf.PrimIndices[m.PrimitiveOffset : m.PrimitiveOffset+m.PrimitiveCount]

	out := make([][3]uint32, len(prims))
	for i, p := range prims {
		a, b, c := geometry.UnpackPrim(p)
		out[i] = [3]uint32{vertices[a], vertices[b], vertices[c]}
	}
	return out
}

// MeshletVertices returns the unique source-vertex indices of meshlet m.
func (buf *Buffers) MeshletVertices(m geometry.Meshlet) []uint32 {
	return buf.VertexIndices[m.VertexOffset : m.VertexOffset+m.VertexCount]
}

// MeshletPrims returns the packed primitives of meshlet m.
func (buf *Buffers) MeshletPrims(m geometry.Meshlet) []uint32 {
	return buf.PrimIndices[m.PrimitiveOffset : m.PrimitiveOffset+m.PrimitiveCount]
}
