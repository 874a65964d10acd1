// Package scene imports triangle meshes from glTF files into flat,
// world-space meshes with face arrays.
package scene

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/sol/pkg/geometry"
)

// Import errors.
var (
	ErrNoMeshes          = errors.New("scene contains no triangle meshes")
	ErrMissingPositions  = errors.New("primitive has no POSITION attribute")
	ErrIndexOutOfRange   = errors.New("primitive index out of range")
	ErrAttributeMismatch = errors.New("primitive attribute count differs from position count")
)

// Mesh is one imported primitive with its node transform baked in.
// Normals and TexCoords are either empty or as long as Positions.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Faces     []geometry.Face
}

// Scene is a flattened list of meshes.
type Scene struct {
	Meshes []Mesh
}

// TriangleCount returns the number of triangle faces across all meshes.
func (s *Scene) TriangleCount() int {
	n := 0
	for i := range s.Meshes {
		n += s.Meshes[i].TriangleCount()
	}
	return n
}

// TriangleCount returns the number of triangle faces.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		if f.IsTriangle() {
			n++
		}
	}
	return n
}

// Vertices interleaves the attribute streams. Missing attributes are zero.
func (m *Mesh) Vertices() []geometry.Vertex {
	out := make([]geometry.Vertex, len(m.Positions))
	for i, p := range m.Positions {
		out[i].Position = p
		if i < len(m.Normals) {
			out[i].Normal = m.Normals[i]
		}
		if i < len(m.TexCoords) {
			out[i].TexCoord = m.TexCoords[i]
		}
	}
	return out
}

// NormalStream returns a normal per position, zero-filled when absent.
func (m *Mesh) NormalStream() []mgl32.Vec3 {
	if len(m.Normals) == len(m.Positions) {
		return m.Normals
	}
	out := make([]mgl32.Vec3, len(m.Positions))
	copy(out, m.Normals)
	return out
}

// TriangleIndices flattens the triangle faces into a triangle list.
func (m *Mesh) TriangleIndices() []uint32 {
	out := make([]uint32, 0, 3*len(m.Faces))
	for _, f := range m.Faces {
		if f.IsTriangle() {
			out = append(out, f.Indices...)
		}
	}
	return out
}

// FromMesh wraps an in-memory mesh as a scene mesh.
func FromMesh(mesh geometry.Mesh) Mesh {
	out := Mesh{
		Name:      mesh.Name,
		Positions: make([]mgl32.Vec3, len(mesh.Vertices)),
		Normals:   make([]mgl32.Vec3, len(mesh.Vertices)),
		TexCoords: make([]mgl32.Vec2, len(mesh.Vertices)),
		Faces:     make([]geometry.Face, 0, mesh.TriangleCount()),
	}
	for i, v := range mesh.Vertices {
		out.Positions[i] = v.Position
		out.Normals[i] = v.Normal
		out.TexCoords[i] = v.TexCoord
	}
	for i := 0; i+3 <= len(mesh.Indices); i += 3 {
		out.Faces = append(out.Faces, geometry.Face{Indices: mesh.Indices[i : i+3 : i+3]})
	}
	return out
}
