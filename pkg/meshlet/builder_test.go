package meshlet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/sol/pkg/geometry"
	"github.com/Faultbox/sol/pkg/procedural"
)

// checkBuffers verifies capacity, coverage and non-overlap of the meshlets
// built from indices.
func checkBuffers(t *testing.T, buf *Buffers, indices []uint32, vertexLimit, primitiveLimit int) {
	t.Helper()

	var rebuilt []uint32
	var nextVertex, nextPrim uint32
	for i, md := range buf.Meshlets {
		m := md.Meshlet
		assert.LessOrEqual(t, int(m.VertexCount), vertexLimit, "meshlet %d vertices", i)
		assert.LessOrEqual(t, int(m.PrimitiveCount), primitiveLimit, "meshlet %d primitives", i)
		assert.NotZero(t, m.PrimitiveCount, "meshlet %d is empty", i)

		// Ranges are laid out back to back, so they cannot overlap.
		assert.Equal(t, nextVertex, m.VertexOffset, "meshlet %d vertex offset", i)
		assert.Equal(t, nextPrim, m.PrimitiveOffset, "meshlet %d primitive offset", i)
		nextVertex += m.VertexCount
		nextPrim += m.PrimitiveCount

		// Local vertex lists hold no duplicates.
		seen := make(map[uint32]bool)
		for _, v := range buf.MeshletVertices(m) {
			assert.False(t, seen[v], "meshlet %d repeats vertex %d", i, v)
			seen[v] = true
		}

		for _, tri := range buf.Triangles(m) {
			rebuilt = append(rebuilt, tri[0], tri[1], tri[2])
		}
	}
	assert.Equal(t, int(nextVertex), len(buf.VertexIndices))
	assert.Equal(t, int(nextPrim), len(buf.PrimIndices))
	assert.Equal(t, indices, rebuilt, "triangles must be reproduced in order")
}

func TestBuildSingleTriangle(t *testing.T) {
	var buf Buffers
	n := NewDefaultBuilder().Build(&buf, []uint32{0, 1, 2})

	require.Equal(t, 1, n)
	require.Len(t, buf.Meshlets, 1)
	m := buf.Meshlets[0].Meshlet
	assert.Equal(t, geometry.Meshlet{VertexCount: 3, VertexOffset: 0, PrimitiveCount: 1, PrimitiveOffset: 0}, m)
	assert.Equal(t, []uint32{0, 1, 2}, buf.VertexIndices)
	assert.Equal(t, []uint32{geometry.PackPrim(0, 1, 2)}, buf.PrimIndices)
}

func TestBuildCube(t *testing.T) {
	cube := procedural.Cube()
	var buf Buffers
	n := NewDefaultBuilder().Build(&buf, cube.Indices)

	require.Equal(t, 1, n)
	m := buf.Meshlets[0].Meshlet
	assert.Equal(t, uint32(24), m.VertexCount)
	assert.Equal(t, uint32(12), m.PrimitiveCount)
	checkBuffers(t, &buf, cube.Indices, VertexLimit, PrimitiveLimit)
}

func TestBuildOversizedGrid(t *testing.T) {
	// 40x40 cells: 1681 vertices, 3200 triangles.
	grid := procedural.Grid(40, 40)
	var buf Buffers
	n := NewDefaultBuilder().Build(&buf, grid.Indices)

	assert.GreaterOrEqual(t, n, 2)
	assert.Len(t, buf.Meshlets, n)
	checkBuffers(t, &buf, grid.Indices, VertexLimit, PrimitiveLimit)
}

func TestBuildVertexLimitSplits(t *testing.T) {
	// A strip of disjoint triangles: 22 triangles need 66 vertices, so the
	// 22nd triangle must start a second meshlet.
	var indices []uint32
	for i := uint32(0); i < 22; i++ {
		indices = append(indices, 3*i, 3*i+1, 3*i+2)
	}

	var buf Buffers
	n := NewDefaultBuilder().Build(&buf, indices)

	require.Equal(t, 2, n)
	assert.Equal(t, uint32(63), buf.Meshlets[0].Meshlet.VertexCount)
	assert.Equal(t, uint32(21), buf.Meshlets[0].Meshlet.PrimitiveCount)
	assert.Equal(t, uint32(3), buf.Meshlets[1].Meshlet.VertexCount)
	assert.Equal(t, uint32(1), buf.Meshlets[1].Meshlet.PrimitiveCount)
	checkBuffers(t, &buf, indices, VertexLimit, PrimitiveLimit)
}

func TestBuildPrimitiveLimitSplits(t *testing.T) {
	// Fan around vertex 0 sharing few vertices: the primitive limit binds
	// before the vertex limit does.
	var indices []uint32
	for i := uint32(0); i < 200; i++ {
		indices = append(indices, 0, 1+i%8, 1+(i+1)%8)
	}

	var buf Buffers
	n := NewDefaultBuilder().Build(&buf, indices)

	require.Equal(t, 2, n)
	assert.Equal(t, uint32(PrimitiveLimit), buf.Meshlets[0].Meshlet.PrimitiveCount)
	assert.Equal(t, uint32(200-PrimitiveLimit), buf.Meshlets[1].Meshlet.PrimitiveCount)
	checkBuffers(t, &buf, indices, VertexLimit, PrimitiveLimit)
}

func TestBuildFreshLocalIndicesPerMeshlet(t *testing.T) {
	// A mesh that revisits early vertices after the first meshlet closes.
	// Local indices of the second meshlet must start again at zero.
	var indices []uint32
	for i := uint32(0); i < 30; i++ {
		indices = append(indices, 3*i, 3*i+1, 3*i+2)
	}
	indices = append(indices, 0, 1, 2)

	var buf Buffers
	NewDefaultBuilder().Build(&buf, indices)
	require.Len(t, buf.Meshlets, 2)

	second := buf.Meshlets[1].Meshlet
	for _, p := range buf.MeshletPrims(second) {
		a, b, c := geometry.UnpackPrim(p)
		assert.Less(t, a, second.VertexCount)
		assert.Less(t, b, second.VertexCount)
		assert.Less(t, c, second.VertexCount)
	}
	checkBuffers(t, &buf, indices, VertexLimit, PrimitiveLimit)
}

func TestBuildRandomMeshes(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	limits := []struct{ vertices, prims int }{
		{VertexLimit, PrimitiveLimit},
		{32, 64},
		{3, 1},
		{16, 126},
	}

	for _, lim := range limits {
		for trial := 0; trial < 5; trial++ {
			vertexCount := 10 + r.Intn(2000)
			indices := make([]uint32, 3*(1+r.Intn(3000)))
			for i := range indices {
				indices[i] = uint32(r.Intn(vertexCount))
			}

			var buf Buffers
			b := NewBuilder(lim.vertices, lim.prims)
			b.Build(&buf, indices)
			checkBuffers(t, &buf, indices, lim.vertices, lim.prims)
		}
	}
}

func TestBuildIgnoresTrailingPartialTriangle(t *testing.T) {
	var buf Buffers
	n := NewDefaultBuilder().Build(&buf, []uint32{0, 1, 2, 3, 4})
	assert.Equal(t, 1, n)
	assert.Equal(t, uint32(1), buf.Meshlets[0].Meshlet.PrimitiveCount)

	var empty Buffers
	assert.Zero(t, NewDefaultBuilder().Build(&empty, nil))
	assert.Empty(t, empty.Meshlets)
}

func TestMakeMeshletResumesAfterLastTriangle(t *testing.T) {
	var indices []uint32
	for i := uint32(0); i < 25; i++ {
		indices = append(indices, 3*i, 3*i+1, 3*i+2)
	}

	var buf Buffers
	b := NewDefaultBuilder()
	next := b.MakeMeshlet(&buf, indices, 0)
	assert.Equal(t, 21*3, next)

	next = b.MakeMeshlet(&buf, indices, next)
	assert.Equal(t, len(indices), next)
	assert.Equal(t, uint32(63), buf.Meshlets[1].Meshlet.VertexOffset)
	assert.Equal(t, uint32(21), buf.Meshlets[1].Meshlet.PrimitiveOffset)
}

func TestBuildFromFaces(t *testing.T) {
	grid := procedural.Grid(12, 12)

	var faces []geometry.Face
	var triangles []uint32
	for i := 0; i < grid.TriangleCount(); i++ {
		tri := grid.Indices[3*i : 3*i+3]
		faces = append(faces, geometry.Face{Indices: tri})
		triangles = append(triangles, tri...)
		if i%7 == 0 {
			// Points and lines mixed into the face stream are skipped.
			faces = append(faces, geometry.Face{Indices: []uint32{tri[0]}})
			faces = append(faces, geometry.Face{Indices: []uint32{tri[0], tri[1]}})
		}
	}
	faces = append([]geometry.Face{{Indices: []uint32{0, 1}}}, faces...)

	var fromFaces, fromIndices Buffers
	NewDefaultBuilder().BuildFromFaces(&fromFaces, faces)
	NewDefaultBuilder().Build(&fromIndices, triangles)

	assert.Equal(t, fromIndices, fromFaces)
	checkBuffers(t, &fromFaces, triangles, VertexLimit, PrimitiveLimit)
}

func TestNewBuilderClampsLimits(t *testing.T) {
	b := NewBuilder(1000, 0)
	assert.Equal(t, VertexLimit, b.VertexLimit())
	assert.Equal(t, 1, b.PrimitiveLimit())

	b = NewBuilder(1, 500)
	assert.Equal(t, 3, b.VertexLimit())
	assert.Equal(t, PrimitiveLimit, b.PrimitiveLimit())
}

func TestBuffersAccumulateAcrossMeshes(t *testing.T) {
	var buf Buffers
	b := NewDefaultBuilder()
	b.Build(&buf, procedural.Cube().Indices)
	b.Build(&buf, procedural.Quad().Indices)

	require.Len(t, buf.Meshlets, 2)
	second := buf.Meshlets[1].Meshlet
	assert.Equal(t, uint32(24), second.VertexOffset)
	assert.Equal(t, uint32(12), second.PrimitiveOffset)
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {0, 2, 3}}, buf.Triangles(second))
}
