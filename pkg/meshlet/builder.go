// Package meshlet partitions triangle lists into mesh-shader clusters.
//
// A Builder packs triangles greedily, in input order, into meshlets that
// reference at most VertexLimit unique vertices and hold at most
// PrimitiveLimit triangles. The first triangle that would overflow either
// limit closes the current meshlet and opens the next one. No reordering or
// backtracking is attempted.
package meshlet

import (
	"github.com/Faultbox/sol/internal/invariant"
	"github.com/Faultbox/sol/pkg/geometry"
)

// GPU limits for one mesh-shader workgroup.
const (
	VertexLimit    = 64
	PrimitiveLimit = 126
)

// Buffers receives meshlets and their index data. The offsets stored in each
// meshlet are positions in VertexIndices and PrimIndices, so one Buffers may
// accumulate the meshlets of many meshes.
type Buffers struct {
	Meshlets []geometry.MeshletDetails

	// VertexIndices maps each meshlet's local vertex indices to indices into
	// the source mesh's vertex array.
	VertexIndices []uint32

	// PrimIndices holds packed primitives (see geometry.PackPrim).
	PrimIndices []uint32
}

// Builder builds meshlets. The zero value is not usable; call NewBuilder.
// A Builder is not safe for concurrent use.
type Builder struct {
	vertexLimit    int
	primitiveLimit int

	localIndex    map[uint32]uint32
	localVertices []uint32
	localPrims    []uint32
}

// NewBuilder returns a builder with the given limits. Limits outside
// [3, VertexLimit] and [1, PrimitiveLimit] are clamped.
func NewBuilder(vertexLimit, primitiveLimit int) *Builder {
	vertexLimit = min(max(vertexLimit, 3), VertexLimit)
	primitiveLimit = min(max(primitiveLimit, 1), PrimitiveLimit)
	return &Builder{
		vertexLimit:    vertexLimit,
		primitiveLimit: primitiveLimit,
		localVertices:  make([]uint32, 0, vertexLimit),
		localPrims:     make([]uint32, 0, primitiveLimit),
	}
}

// NewDefaultBuilder returns a builder with the GPU limits.
func NewDefaultBuilder() *Builder {
	return NewBuilder(VertexLimit, PrimitiveLimit)
}

// VertexLimit returns the per-meshlet unique vertex limit.
func (b *Builder) VertexLimit() int { return b.vertexLimit }

// PrimitiveLimit returns the per-meshlet triangle limit.
func (b *Builder) PrimitiveLimit() int { return b.primitiveLimit }

// Build splits a whole triangle list into meshlets appended to buf and
// returns how many meshlets were added. A trailing partial triangle is ignored.
func (b *Builder) Build(buf *Buffers, indices []uint32) int {
	count := 0
	end := len(indices) - len(indices)%3
	for start := 0; start < end; {
		start = b.MakeMeshlet(buf, indices[:end], start)
		count++
	}
	return count
}

// BuildFromFaces is Build for imported face arrays. Faces that are not
// triangles are skipped.
func (b *Builder) BuildFromFaces(buf *Buffers, faces []geometry.Face) int {
	count := 0
	for start := skipNonTriangles(faces, 0); start < len(faces); {
		start = b.MakeMeshletFromFaces(buf, faces, start)
		start = skipNonTriangles(faces, start)
		count++
	}
	return count
}

// MakeMeshlet builds one meshlet from the triangle list, starting at index
// startingIndex (a multiple of three), and appends it to buf. It returns
// the index one past the last consumed triangle.
func (b *Builder) MakeMeshlet(buf *Buffers, indices []uint32, startingIndex int) int {
	b.reset()

	next := startingIndex
	for next+3 <= len(indices) && len(b.localPrims) < b.primitiveLimit {
		tri := [3]uint32{indices[next], indices[next+1], indices[next+2]}
		if !b.addTriangle(tri) {
			break
		}
		next += 3
	}

	b.emit(buf)
	return next
}

// MakeMeshletFromFaces is MakeMeshlet over an imported face array. It
// returns the index of the first face not consumed. Non-triangle faces
// are stepped over without counting against the primitive limit.
func (b *Builder) MakeMeshletFromFaces(buf *Buffers, faces []geometry.Face, startingFace int) int {
	b.reset()

	next := startingFace
	for next < len(faces) && len(b.localPrims) < b.primitiveLimit {
		face := faces[next]
		if !face.IsTriangle() {
			next++
			continue
		}
		if !b.addTriangle([3]uint32{face.Indices[0], face.Indices[1], face.Indices[2]}) {
			break
		}
		next++
	}

	b.emit(buf)
	return next
}

// reset clears the per-meshlet state. The index map is replaced rather than
// reused: entries from an earlier meshlet must never leak into local
// indices of the next one.
func (b *Builder) reset() {
	b.localIndex = make(map[uint32]uint32, b.vertexLimit)
	b.localVertices = b.localVertices[:0]
	b.localPrims = b.localPrims[:0]
}

// addTriangle appends tri to the current meshlet if its new vertices fit.
func (b *Builder) addTriangle(tri [3]uint32) bool {
	if len(b.localVertices)+b.extraIndexCount(tri) > b.vertexLimit {
		return false
	}
	b.localPrims = append(b.localPrims, geometry.PackPrim(
		b.primIndex(tri[0]),
		b.primIndex(tri[1]),
		b.primIndex(tri[2]),
	))
	return true
}

// extraIndexCount returns how many vertices of tri the meshlet lacks.
// Repeated indices within tri count once.
func (b *Builder) extraIndexCount(tri [3]uint32) int {
	extra := 0
	for i, idx := range tri {
		if _, ok := b.localIndex[idx]; ok {
			continue
		}
		dup := false
		for j := 0; j < i; j++ {
			if tri[j] == idx {
				dup = true
				break
			}
		}
		if !dup {
			extra++
		}
	}
	return extra
}

// primIndex returns the local index of a source vertex, adding it on first use.
func (b *Builder) primIndex(idx uint32) uint32 {
	if local, ok := b.localIndex[idx]; ok {
		return local
	}
	local := uint32(len(b.localVertices))
	b.localIndex[idx] = local
	b.localVertices = append(b.localVertices, idx)
	return local
}

// emit appends the current meshlet and its local lists to buf.
func (b *Builder) emit(buf *Buffers) {
	invariant.Check(len(b.localVertices) <= b.vertexLimit, "meshlet has %d vertices", len(b.localVertices))
	invariant.Check(len(b.localPrims) <= b.primitiveLimit, "meshlet has %d primitives", len(b.localPrims))

	buf.Meshlets = append(buf.Meshlets, geometry.MeshletDetails{
		Meshlet: geometry.Meshlet{
			VertexCount:     uint32(len(b.localVertices)),
			VertexOffset:    uint32(len(buf.VertexIndices)),
			PrimitiveCount:  uint32(len(b.localPrims)),
			PrimitiveOffset: uint32(len(buf.PrimIndices)),
		},
	})
	buf.VertexIndices = append(buf.VertexIndices, b.localVertices...)
	buf.PrimIndices = append(buf.PrimIndices, b.localPrims...)
}

func skipNonTriangles(faces []geometry.Face, i int) int {
	for i < len(faces) && !faces[i].IsTriangle() {
		i++
	}
	return i
}
