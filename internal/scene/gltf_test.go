package scene

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/sol/pkg/geometry"
)

// quadDocument returns a document holding one indexed quad facing +Z,
// with normals and UVs, attached to the given nodes.
func quadDocument(nodes ...*gltf.Node) *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})

	doc.Meshes = []*gltf.Mesh{{
		Name: "Quad",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{
				gltf.POSITION:   pos,
				gltf.NORMAL:     nrm,
				gltf.TEXCOORD_0: uv,
			},
			Indices: gltf.Index(idx),
		}},
	}}
	doc.Nodes = nodes
	if len(nodes) > 0 {
		roots := make([]int, 0, len(nodes))
		for i := range nodes {
			roots = append(roots, i)
		}
		doc.Scenes = []*gltf.Scene{{Nodes: roots}}
		doc.Scene = gltf.Index(0)
	}
	return doc
}

func TestFromDocumentQuad(t *testing.T) {
	doc := quadDocument(&gltf.Node{Name: "QuadNode", Mesh: gltf.Index(0)})

	s, err := FromDocument(doc, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, s.Meshes, 1)

	m := s.Meshes[0]
	assert.Equal(t, "QuadNode#0", m.Name)
	assert.Len(t, m.Positions, 4)
	assert.Len(t, m.Normals, 4)
	assert.Len(t, m.TexCoords, 4)
	assert.Equal(t, []geometry.Face{
		{Indices: []uint32{0, 1, 2}},
		{Indices: []uint32{0, 2, 3}},
	}, m.Faces)
	assert.Equal(t, mgl32.Vec2{1, 0}, m.TexCoords[2])
	assert.Equal(t, 2, s.TriangleCount())
}

func TestFromDocumentBakesTransform(t *testing.T) {
	doc := quadDocument(&gltf.Node{
		Mesh:        gltf.Index(0),
		Translation: [3]float64{10, 0, 0},
		Scale:       [3]float64{2, 2, 2},
		Rotation:    [4]float64{0, 0, 0, 1},
	})

	s, err := FromDocument(doc, DefaultOptions())
	require.NoError(t, err)

	m := s.Meshes[0]
	assert.Equal(t, mgl32.Vec3{10, 0, 0}, m.Positions[0])
	assert.Equal(t, mgl32.Vec3{12, 2, 0}, m.Positions[2])
	assert.InDelta(t, 1, m.Normals[0].Z(), 1e-6)
}

func TestFromDocumentMirrorReversesWinding(t *testing.T) {
	doc := quadDocument(&gltf.Node{
		Mesh:     gltf.Index(0),
		Scale:    [3]float64{-1, 1, 1},
		Rotation: [4]float64{0, 0, 0, 1},
	})

	s, err := FromDocument(doc, DefaultOptions())
	require.NoError(t, err)

	m := s.Meshes[0]
	assert.Equal(t, []uint32{0, 2, 1}, m.Faces[0].Indices)

	// Winding and normal must still agree after mirroring.
	f := m.Faces[0].Indices
	geo := m.Positions[f[1]].Sub(m.Positions[f[0]]).Cross(m.Positions[f[2]].Sub(m.Positions[f[0]]))
	assert.Greater(t, geo.Dot(m.Normals[f[0]]), float32(0))
}

func TestFromDocumentNodeHierarchy(t *testing.T) {
	parent := &gltf.Node{Name: "Parent", Translation: [3]float64{0, 5, 0}, Children: []int{1}}
	child := &gltf.Node{Name: "Child", Mesh: gltf.Index(0), Translation: [3]float64{1, 0, 0}}
	doc := quadDocument(parent, child)
	doc.Scenes = []*gltf.Scene{{Nodes: []int{0}}}

	s, err := FromDocument(doc, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, s.Meshes, 1)
	assert.Equal(t, "Child#0", s.Meshes[0].Name)
	assert.Equal(t, mgl32.Vec3{1, 5, 0}, s.Meshes[0].Positions[0])
}

func TestFromDocumentWithoutNodes(t *testing.T) {
	doc := quadDocument()

	s, err := FromDocument(doc, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, s.Meshes, 1)
	assert.Equal(t, "Quad#0", s.Meshes[0].Name)
}

func TestFromDocumentSkipsLines(t *testing.T) {
	doc := quadDocument(&gltf.Node{Mesh: gltf.Index(0)})
	lines := &gltf.Primitive{
		Attributes: map[string]int{gltf.POSITION: doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION]},
		Mode:       gltf.PrimitiveLines,
	}
	doc.Meshes[0].Primitives = append(doc.Meshes[0].Primitives, lines)

	s, err := FromDocument(doc, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, s.Meshes, 1)

	doc.Meshes[0].Primitives = []*gltf.Primitive{lines}
	_, err = FromDocument(doc, DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoMeshes))
}

func TestFromDocumentGeneratesNormals(t *testing.T) {
	doc := quadDocument(&gltf.Node{Mesh: gltf.Index(0)})
	delete(doc.Meshes[0].Primitives[0].Attributes, gltf.NORMAL)

	s, err := FromDocument(doc, DefaultOptions())
	require.NoError(t, err)
	for _, n := range s.Meshes[0].Normals {
		assert.InDelta(t, 1, n.Z(), 1e-6)
	}

	s, err = FromDocument(doc, Options{})
	require.NoError(t, err)
	assert.Empty(t, s.Meshes[0].Normals)
	assert.Len(t, s.Meshes[0].NormalStream(), 4)
}

func TestFromDocumentErrors(t *testing.T) {
	t.Run("missing positions", func(t *testing.T) {
		doc := quadDocument(&gltf.Node{Mesh: gltf.Index(0)})
		delete(doc.Meshes[0].Primitives[0].Attributes, gltf.POSITION)
		_, err := FromDocument(doc, DefaultOptions())
		assert.True(t, errors.Is(err, ErrMissingPositions))
	})

	t.Run("index out of range", func(t *testing.T) {
		doc := quadDocument(&gltf.Node{Mesh: gltf.Index(0)})
		bad := modeler.WriteIndices(doc, []uint16{0, 1, 9})
		doc.Meshes[0].Primitives[0].Indices = gltf.Index(bad)
		_, err := FromDocument(doc, DefaultOptions())
		assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := FromDocument(gltf.NewDocument(), DefaultOptions())
		assert.True(t, errors.Is(err, ErrNoMeshes))
	})
}

func TestLoadRoundTripFile(t *testing.T) {
	doc := quadDocument(&gltf.Node{Mesh: gltf.Index(0)})
	path := filepath.Join(t.TempDir(), "quad.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))

	s, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, s.TriangleCount())

	_, err = Load(filepath.Join(t.TempDir(), "missing.glb"), DefaultOptions())
	assert.Error(t, err)
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name string
		mode gltf.PrimitiveMode
		in   []uint32
		flip bool
		want [][]uint32
	}{
		{"list", gltf.PrimitiveTriangles, []uint32{0, 1, 2, 3, 4, 5, 6}, false, [][]uint32{{0, 1, 2}, {3, 4, 5}}},
		{"list flipped", gltf.PrimitiveTriangles, []uint32{0, 1, 2}, true, [][]uint32{{0, 2, 1}}},
		{"strip", gltf.PrimitiveTriangleStrip, []uint32{0, 1, 2, 3, 4}, false, [][]uint32{{0, 1, 2}, {1, 3, 2}, {2, 3, 4}}},
		{"fan", gltf.PrimitiveTriangleFan, []uint32{0, 1, 2, 3}, false, [][]uint32{{1, 2, 0}, {2, 3, 0}}},
		{"short strip", gltf.PrimitiveTriangleStrip, []uint32{0, 1}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces := Triangulate(tt.mode, tt.in, tt.flip)
			var got [][]uint32
			for _, f := range faces {
				got = append(got, f.Indices)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSmoothNormals(t *testing.T) {
	// Two triangles folded 90° along the x axis share vertices 0 and 1.
	positions := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	faces := []geometry.Face{
		{Indices: []uint32{0, 1, 2}}, // normal +Z
		{Indices: []uint32{0, 3, 1}}, // normal +Y
	}
	normals := SmoothNormals(positions, faces)

	shared := mgl32.Vec3{0, 1, 1}.Normalize()
	assert.InDelta(t, shared.Y(), normals[0].Y(), 1e-6)
	assert.InDelta(t, shared.Z(), normals[0].Z(), 1e-6)
	assert.InDelta(t, 1, normals[2].Z(), 1e-6)
	assert.InDelta(t, 1, normals[3].Y(), 1e-6)

	lonely := SmoothNormals([]mgl32.Vec3{{}}, nil)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, lonely[0])
}

func TestFromMesh(t *testing.T) {
	m := geometry.Mesh{
		Name: "tri",
		Vertices: []geometry.Vertex{
			{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}},
			{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 1}},
			{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
	sm := FromMesh(m)
	assert.Equal(t, m.Vertices, sm.Vertices())
	assert.Equal(t, m.Indices, sm.TriangleIndices())
}
