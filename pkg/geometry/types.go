// Package geometry provides the vertex, bounding volume and meshlet types
// shared by the meshlet pipeline, along with the generators that derive
// bounding volumes from vertex streams.
//
// All types that end up in GPU buffers keep a fixed binary layout: no Go
// field reordering, no padding, little-endian when serialised.
package geometry

import "github.com/go-gl/mathgl/mgl32"

// Vertex is a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
}

// Mesh is a triangle list ready for meshlet building.
// Indices holds three entries per triangle and addresses Vertices.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns the number of complete triangles in the index list.
func (m Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Face is an imported polygon. Only faces with exactly three indices are
// treated as triangles; anything else is skipped by consumers.
type Face struct {
	Indices []uint32
}

// IsTriangle reports whether the face has exactly three corners.
func (f Face) IsTriangle() bool {
	return len(f.Indices) == 3
}

// AABB is an axis-aligned bounding box. The w component of both corners is 1.
type AABB struct {
	MaxAxes mgl32.Vec4
	MinAxes mgl32.Vec4
}

// Centre returns the midpoint of the box.
func (b AABB) Centre() mgl32.Vec3 {
	return b.MaxAxes.Add(b.MinAxes).Mul(0.5).Vec3()
}

// Extents returns the half-size of the box along each axis.
func (b AABB) Extents() mgl32.Vec3 {
	return b.MaxAxes.Sub(b.MinAxes).Mul(0.5).Vec3()
}

// Contains reports whether p lies inside the box, boundaries included.
func (b AABB) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.MinAxes[i] || p[i] > b.MaxAxes[i] {
			return false
		}
	}
	return true
}

// SphereBV is a bounding sphere packed as xyz = centre, w = radius.
type SphereBV struct {
	Sphere mgl32.Vec4
}

// Centre returns the sphere centre.
func (s SphereBV) Centre() mgl32.Vec3 {
	return s.Sphere.Vec3()
}

// Radius returns the sphere radius.
func (s SphereBV) Radius() float32 {
	return s.Sphere.W()
}

// ClusterNormalCone bounds the normals of a cluster for backface culling.
//
// PackedCone holds four bytes, low to high: axis x, y, z as SNORM8 values
// biased by +128, then the UNORM8 spread sin(half angle), which equals
// -cos(angle + 90°). ApexOffset is the distance from the bounding sphere
// centre back along the axis to the cone apex.
type ClusterNormalCone struct {
	PackedCone uint32
	ApexOffset float32
}

// Axis returns the dequantized cone axis bytes as a direction.
// A degenerate cone returns the zero vector.
func (c ClusterNormalCone) Axis() mgl32.Vec3 {
	return mgl32.Vec3{
		dequantizeSNorm8(uint8(c.PackedCone)),
		dequantizeSNorm8(uint8(c.PackedCone >> 8)),
		dequantizeSNorm8(uint8(c.PackedCone >> 16)),
	}
}

// Cutoff returns the dequantized spread term.
func (c ClusterNormalCone) Cutoff() float32 {
	return float32(uint8(c.PackedCone>>24)) / 255
}

// IsDegenerate reports whether the cone disables culling for its cluster.
func (c ClusterNormalCone) IsDegenerate() bool {
	return c.PackedCone == DegenerateCone
}

// Meshlet describes one cluster. Offsets index the bundle-wide unique vertex
// index array and packed primitive array, not the source mesh.
type Meshlet struct {
	VertexCount     uint32
	VertexOffset    uint32
	PrimitiveCount  uint32
	PrimitiveOffset uint32
}

// MeshletDetails is a meshlet with its culling volumes.
type MeshletDetails struct {
	Meshlet    Meshlet
	SphereB    SphereBV
	ConeNormal ClusterNormalCone
}
