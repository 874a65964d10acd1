package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/sol/pkg/geometry"
)

// Options controls glTF import.
type Options struct {
	// FlipWinding reverses every triangle, on top of the automatic reversal
	// applied under mirroring transforms.
	FlipWinding bool

	// GenerateNormals computes smooth normals for primitives without them.
	GenerateNormals bool

	// Logger receives skipped-primitive warnings. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns import options with normal generation enabled.
func DefaultOptions() Options {
	return Options{GenerateNormals: true}
}

// Load reads a .gltf or .glb file and flattens it into a Scene.
func Load(path string, opts Options) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	s, err := FromDocument(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	return s, nil
}

// FromDocument flattens the default scene of doc. Node transforms are baked
// into positions and normals. Documents without scenes use their root nodes,
// and documents without nodes import every mesh untransformed.
func FromDocument(doc *gltf.Document, opts Options) (*Scene, error) {
	imp := &importer{
		doc:     doc,
		opts:    opts,
		log:     opts.Logger,
		visited: make(map[int]bool),
	}
	if imp.log == nil {
		imp.log = zap.NewNop()
	}

	if len(doc.Nodes) == 0 {
		for i := range doc.Meshes {
			if err := imp.addMesh(i, "", mgl32.Ident4()); err != nil {
				return nil, err
			}
		}
	} else {
		for _, root := range sceneRoots(doc) {
			if err := imp.walk(root, mgl32.Ident4()); err != nil {
				return nil, err
			}
		}
	}

	if len(imp.scene.Meshes) == 0 {
		return nil, ErrNoMeshes
	}
	imp.log.Debug("scene imported",
		zap.Int("meshes", len(imp.scene.Meshes)),
		zap.Int("triangles", imp.scene.TriangleCount()),
		zap.Int("skipped_primitives", imp.skipped))
	return &imp.scene, nil
}

type importer struct {
	doc     *gltf.Document
	opts    Options
	log     *zap.Logger
	scene   Scene
	visited map[int]bool
	skipped int
}

// sceneRoots returns the root nodes of the default scene.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

func (imp *importer) walk(idx int, parent mgl32.Mat4) error {
	if idx < 0 || idx >= len(imp.doc.Nodes) || imp.visited[idx] {
		return nil
	}
	imp.visited[idx] = true

	node := imp.doc.Nodes[idx]
	world := parent.Mul4(nodeMatrix(node))
	if node.Mesh != nil {
		if err := imp.addMesh(*node.Mesh, node.Name, world); err != nil {
			return err
		}
	}
	for _, child := range node.Children {
		if err := imp.walk(child, world); err != nil {
			return err
		}
	}
	return nil
}

var identity = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// nodeMatrix returns the local transform of a node, either its explicit
// matrix or its composed translation * rotation * scale.
func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	if m := n.MatrixOrDefault(); m != identity {
		var out mgl32.Mat4
		for i, v := range m {
			out[i] = float32(v)
		}
		return out
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := mgl32.Quat{
		W: float32(r[3]),
		V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])},
	}.Normalize()

	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

func (imp *importer) addMesh(meshIdx int, nodeName string, world mgl32.Mat4) error {
	if meshIdx < 0 || meshIdx >= len(imp.doc.Meshes) {
		return fmt.Errorf("mesh %d: %w", meshIdx, ErrIndexOutOfRange)
	}
	src := imp.doc.Meshes[meshIdx]

	name := src.Name
	if nodeName != "" {
		name = nodeName
	}
	if name == "" {
		name = fmt.Sprintf("mesh%d", meshIdx)
	}

	for pi, prim := range src.Primitives {
		primName := fmt.Sprintf("%s#%d", name, pi)
		if !isTriangleMode(prim.Mode) {
			imp.skipped++
			imp.log.Warn("skipping non-triangle primitive",
				zap.String("mesh", primName),
				zap.Int("mode", int(prim.Mode)))
			continue
		}

		mesh, err := imp.readPrimitive(prim, primName)
		if err != nil {
			return fmt.Errorf("%s: %w", primName, err)
		}
		bakeTransform(&mesh, world)
		if imp.opts.GenerateNormals && len(mesh.Normals) == 0 {
			mesh.Normals = SmoothNormals(mesh.Positions, mesh.Faces)
		}
		imp.scene.Meshes = append(imp.scene.Meshes, mesh)
	}
	return nil
}

func isTriangleMode(mode gltf.PrimitiveMode) bool {
	switch mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
		return true
	default:
		return false
	}
}

// readPrimitive decodes attribute streams and triangulates the index list.
func (imp *importer) readPrimitive(prim *gltf.Primitive, name string) (Mesh, error) {
	mesh := Mesh{Name: name}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return mesh, ErrMissingPositions
	}
	acr, err := imp.accessor(posIdx)
	if err != nil {
		return mesh, err
	}
	positions, err := modeler.ReadPosition(imp.doc, acr, nil)
	if err != nil {
		return mesh, fmt.Errorf("reading positions: %w", err)
	}
	mesh.Positions = toVec3(positions)

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err = imp.accessor(idx); err != nil {
			return mesh, err
		}
		normals, err := modeler.ReadNormal(imp.doc, acr, nil)
		if err != nil {
			return mesh, fmt.Errorf("reading normals: %w", err)
		}
		if len(normals) != len(positions) {
			return mesh, fmt.Errorf("normals: %w", ErrAttributeMismatch)
		}
		mesh.Normals = toVec3(normals)
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = imp.accessor(idx); err != nil {
			return mesh, err
		}
		uvs, err := modeler.ReadTextureCoord(imp.doc, acr, nil)
		if err != nil {
			return mesh, fmt.Errorf("reading texcoords: %w", err)
		}
		if len(uvs) != len(positions) {
			return mesh, fmt.Errorf("texcoords: %w", ErrAttributeMismatch)
		}
		mesh.TexCoords = make([]mgl32.Vec2, len(uvs))
		for i, uv := range uvs {
			mesh.TexCoords[i] = mgl32.Vec2(uv)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if acr, err = imp.accessor(*prim.Indices); err != nil {
			return mesh, err
		}
		if indices, err = modeler.ReadIndices(imp.doc, acr, nil); err != nil {
			return mesh, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return mesh, fmt.Errorf("index %d of %d vertices: %w", idx, len(positions), ErrIndexOutOfRange)
		}
	}

	mesh.Faces = Triangulate(prim.Mode, indices, imp.opts.FlipWinding)
	return mesh, nil
}

func (imp *importer) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(imp.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", idx, ErrIndexOutOfRange)
	}
	return imp.doc.Accessors[idx], nil
}

// Triangulate converts a triangle list, strip or fan into triangle faces.
func Triangulate(mode gltf.PrimitiveMode, indices []uint32, flip bool) []geometry.Face {
	var faces []geometry.Face
	add := func(a, b, c uint32) {
		if flip {
			b, c = c, b
		}
		faces = append(faces, geometry.Face{Indices: []uint32{a, b, c}})
	}

	switch mode {
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				add(indices[i], indices[i+1], indices[i+2])
			} else {
				add(indices[i], indices[i+2], indices[i+1])
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			add(indices[i], indices[i+1], indices[0])
		}
	default:
		for i := 0; i+3 <= len(indices); i += 3 {
			add(indices[i], indices[i+1], indices[i+2])
		}
	}
	return faces
}

// bakeTransform moves the mesh into world space. Normals use the inverse
// transpose; mirroring transforms also reverse the winding.
func bakeTransform(mesh *Mesh, world mgl32.Mat4) {
	if world == mgl32.Ident4() {
		return
	}
	for i, p := range mesh.Positions {
		mesh.Positions[i] = world.Mul4x1(p.Vec4(1)).Vec3()
	}

	upper := world.Mat3()
	normalMat := upper.Inv().Transpose()
	for i, n := range mesh.Normals {
		n = normalMat.Mul3x1(n)
		if n.Len() > 0 {
			n = n.Normalize()
		}
		mesh.Normals[i] = n
	}

	if upper.Det() < 0 {
		for _, f := range mesh.Faces {
			f.Indices[1], f.Indices[2] = f.Indices[2], f.Indices[1]
		}
	}
}

// SmoothNormals computes area-weighted vertex normals from triangle faces.
// Vertices touched by no face, or only by degenerate faces, point up.
func SmoothNormals(positions []mgl32.Vec3, faces []geometry.Face) []mgl32.Vec3 {
	normals := make([]mgl32.Vec3, len(positions))
	for _, f := range faces {
		if !f.IsTriangle() {
			continue
		}
		a, b, c := f.Indices[0], f.Indices[1], f.Indices[2]
		// The unnormalised cross product weights by twice the area.
		n := positions[b].Sub(positions[a]).Cross(positions[c].Sub(positions[a]))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if n.Len() < 1e-12 {
			normals[i] = mgl32.Vec3{0, 1, 0}
			continue
		}
		normals[i] = n.Normalize()
	}
	return normals
}

func toVec3(in [][3]float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(in))
	for i, v := range in {
		out[i] = mgl32.Vec3(v)
	}
	return out
}
