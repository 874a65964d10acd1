// Package bundle assembles meshes into bundle-wide vertex, index and
// meshlet buffers ready for GPU upload.
package bundle

import (
	"fmt"

	"github.com/Faultbox/sol/pkg/geometry"
)

// Mode selects how meshes are prepared for drawing.
type Mode int

const (
	// VertexShader keeps plain triangle lists.
	VertexShader Mode = iota
	// MeshShader splits every mesh into meshlets with culling volumes.
	MeshShader
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case VertexShader:
		return "vertex"
	case MeshShader:
		return "mesh"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a config name to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "vertex":
		return VertexShader, true
	case "mesh":
		return MeshShader, true
	default:
		return 0, false
	}
}

// MeshDetails locates one mesh of a vertex-shader bundle.
// Offsets are relative to the bundle arrays.
type MeshDetails struct {
	IndexCount  uint32
	IndexOffset uint32
	AABB        geometry.AABB
}

// MeshletMeshDetails locates one mesh of a mesh-shader bundle.
// Offsets are relative to the bundle arrays. The mesh's unique vertex
// indices address its own vertices, which start at VertexOffset.
type MeshletMeshDetails struct {
	MeshletCount    uint32
	MeshletOffset   uint32
	IndexOffset     uint32
	PrimitiveOffset uint32
	VertexOffset    uint32
	AABB            geometry.AABB
}

// TemporaryData is the assembled bundle. It is built once and handed to the
// upload layer; the assembler keeps no reference to it.
type TemporaryData struct {
	Mode Mode

	Vertices []geometry.Vertex

	// Indices holds rebased triangle indices in vertex-shader mode and the
	// meshlets' unique vertex indices in mesh-shader mode.
	Indices []uint32

	// PrimIndices holds packed primitives (mesh-shader mode only).
	PrimIndices []uint32

	MeshletDetails []geometry.MeshletDetails

	// Exactly one of these is filled, depending on Mode.
	BundleDetails        []MeshDetails
	MeshletBundleDetails []MeshletMeshDetails
}

// MeshCount returns the number of meshes in the bundle.
func (d *TemporaryData) MeshCount() int {
	if d.Mode == MeshShader {
		return len(d.MeshletBundleDetails)
	}
	return len(d.BundleDetails)
}

// Stats summarises a bundle for logs and tools.
type Stats struct {
	Meshes          int
	Vertices        int
	Triangles       int
	Meshlets        int
	DegenerateCones int

	// Fill ratios average over meshlets, in [0, 1].
	VertexFill    float64
	PrimitiveFill float64
}

// Stats computes summary figures. Fill ratios are measured against limits.
func (d *TemporaryData) Stats(vertexLimit, primitiveLimit int) Stats {
	s := Stats{
		Meshes:   d.MeshCount(),
		Vertices: len(d.Vertices),
		Meshlets: len(d.MeshletDetails),
	}
	if d.Mode == VertexShader {
		s.Triangles = len(d.Indices) / 3
		return s
	}

	s.Triangles = len(d.PrimIndices)
	if s.Meshlets == 0 {
		return s
	}
	var vertexSum, primSum uint64
	for _, md := range d.MeshletDetails {
		vertexSum += uint64(md.Meshlet.VertexCount)
		primSum += uint64(md.Meshlet.PrimitiveCount)
		if md.ConeNormal.IsDegenerate() {
			s.DegenerateCones++
		}
	}
	s.VertexFill = float64(vertexSum) / float64(s.Meshlets*vertexLimit)
	s.PrimitiveFill = float64(primSum) / float64(s.Meshlets*primitiveLimit)
	return s
}
