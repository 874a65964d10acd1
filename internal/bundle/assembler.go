package bundle

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/sol/internal/scene"
	"github.com/Faultbox/sol/pkg/geometry"
	"github.com/Faultbox/sol/pkg/meshlet"
)

// Options configures an Assembler.
type Options struct {
	Mode Mode

	// Per-meshlet limits, clamped to the GPU maximums.
	VertexLimit    int
	PrimitiveLimit int

	// OriginSeededAABB makes every box include the origin, matching boxes
	// and normal cones produced by earlier tooling.
	OriginSeededAABB bool

	// Logger receives per-mesh debug output. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns mesh-shader mode with the GPU limits.
func DefaultOptions() Options {
	return Options{
		Mode:           MeshShader,
		VertexLimit:    meshlet.VertexLimit,
		PrimitiveLimit: meshlet.PrimitiveLimit,
	}
}

// Assembler concatenates meshes into one TemporaryData. An Assembler may be
// reused for many bundles but not concurrently.
type Assembler struct {
	opts    Options
	builder *meshlet.Builder
	log     *zap.Logger
}

// NewAssembler returns an assembler for opts.
func NewAssembler(opts Options) *Assembler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{
		opts:    opts,
		builder: meshlet.NewBuilder(opts.VertexLimit, opts.PrimitiveLimit),
		log:     log,
	}
}

// Mode returns the processing mode.
func (a *Assembler) Mode() Mode { return a.opts.Mode }

// Limits returns the effective per-meshlet vertex and primitive limits.
func (a *Assembler) Limits() (vertices, primitives int) {
	return a.builder.VertexLimit(), a.builder.PrimitiveLimit()
}

// Assemble builds a bundle from procedural or otherwise in-memory meshes.
func (a *Assembler) Assemble(meshes []geometry.Mesh) *TemporaryData {
	data := &TemporaryData{Mode: a.opts.Mode}
	for i := range meshes {
		mesh := &meshes[i]
		indices := mesh.Indices[:len(mesh.Indices)-len(mesh.Indices)%3]
		if a.opts.Mode == MeshShader {
			a.appendMeshlets(data, mesh.Name, mesh.Vertices, func(buf *meshlet.Buffers) {
				a.builder.Build(buf, indices)
			}, func(vertexIndices, prims []uint32, sphere geometry.SphereBV) geometry.ClusterNormalCone {
				return geometry.NormalCone(mesh.Vertices, vertexIndices, prims, sphere, a.opts.OriginSeededAABB)
			})
		} else {
			a.appendTriangles(data, mesh.Name, mesh.Vertices, indices)
		}
	}
	a.logBundle(data)
	return data
}

// AssembleScene builds a bundle from an imported scene. Meshlets are built
// straight from the face arrays; non-triangle faces are skipped.
func (a *Assembler) AssembleScene(s *scene.Scene) *TemporaryData {
	data := &TemporaryData{Mode: a.opts.Mode}
	for i := range s.Meshes {
		mesh := &s.Meshes[i]
		vertices := mesh.Vertices()
		if a.opts.Mode == MeshShader {
			normals := mesh.NormalStream()
			a.appendMeshlets(data, mesh.Name, vertices, func(buf *meshlet.Buffers) {
				a.builder.BuildFromFaces(buf, mesh.Faces)
			}, func(vertexIndices, prims []uint32, sphere geometry.SphereBV) geometry.ClusterNormalCone {
				return geometry.NormalConeFromStreams(mesh.Positions, normals, vertexIndices, prims, sphere, a.opts.OriginSeededAABB)
			})
		} else {
			a.appendTriangles(data, mesh.Name, vertices, mesh.TriangleIndices())
		}
	}
	a.logBundle(data)
	return data
}

// appendTriangles adds one mesh in vertex-shader mode, rebasing its indices
// onto the bundle vertex array.
func (a *Assembler) appendTriangles(data *TemporaryData, name string, vertices []geometry.Vertex, indices []uint32) {
	base := uint32(len(data.Vertices))
	data.BundleDetails = append(data.BundleDetails, MeshDetails{
		IndexCount:  uint32(len(indices)),
		IndexOffset: uint32(len(data.Indices)),
		AABB:        a.meshAABB(vertices),
	})
	for _, idx := range indices {
		data.Indices = append(data.Indices, idx+base)
	}
	data.Vertices = append(data.Vertices, vertices...)

	a.log.Debug("mesh added",
		zap.String("name", name),
		zap.Int("vertices", len(vertices)),
		zap.Int("triangles", len(indices)/3))
}

// appendMeshlets adds one mesh in mesh-shader mode. build fills the
// meshlet buffers; cone derives each meshlet's normal cone.
func (a *Assembler) appendMeshlets(
	data *TemporaryData,
	name string,
	vertices []geometry.Vertex,
	build func(buf *meshlet.Buffers),
	cone func(vertexIndices, prims []uint32, sphere geometry.SphereBV) geometry.ClusterNormalCone,
) {
	details := MeshletMeshDetails{
		MeshletOffset:   uint32(len(data.MeshletDetails)),
		IndexOffset:     uint32(len(data.Indices)),
		PrimitiveOffset: uint32(len(data.PrimIndices)),
		VertexOffset:    uint32(len(data.Vertices)),
		AABB:            a.meshAABB(vertices),
	}

	buf := meshlet.Buffers{
		Meshlets:      data.MeshletDetails,
		VertexIndices: data.Indices,
		PrimIndices:   data.PrimIndices,
	}
	build(&buf)

	for i := int(details.MeshletOffset); i < len(buf.Meshlets); i++ {
		md := &buf.Meshlets[i]
		vertexIndices := buf.MeshletVertices(md.Meshlet)

		box := a.newAABBGenerator()
		for _, vi := range vertexIndices {
			box.ProcessVertex(vertices[vi].Position)
		}
		sphere := geometry.NewSphereBVGenerator(box.GenerateAABB())
		for _, vi := range vertexIndices {
			sphere.ProcessVertex(vertices[vi].Position)
		}

		md.SphereB = sphere.GenerateBV()
		md.ConeNormal = cone(vertexIndices, buf.MeshletPrims(md.Meshlet), md.SphereB)
	}

	data.MeshletDetails = buf.Meshlets
	data.Indices = buf.VertexIndices
	data.PrimIndices = buf.PrimIndices
	details.MeshletCount = uint32(len(data.MeshletDetails)) - details.MeshletOffset
	data.MeshletBundleDetails = append(data.MeshletBundleDetails, details)
	data.Vertices = append(data.Vertices, vertices...)

	a.log.Debug("mesh added",
		zap.String("name", name),
		zap.Int("vertices", len(vertices)),
		zap.Uint32("meshlets", details.MeshletCount),
		zap.Int("triangles", len(data.PrimIndices)-int(details.PrimitiveOffset)))
}

func (a *Assembler) meshAABB(vertices []geometry.Vertex) geometry.AABB {
	g := a.newAABBGenerator()
	for i := range vertices {
		g.ProcessVertex(vertices[i].Position)
	}
	return g.GenerateAABB()
}

func (a *Assembler) newAABBGenerator() *geometry.AABBGenerator {
	if a.opts.OriginSeededAABB {
		return geometry.NewOriginSeededAABBGenerator()
	}
	return geometry.NewAABBGenerator()
}

func (a *Assembler) logBundle(data *TemporaryData) {
	vl, pl := a.Limits()
	s := data.Stats(vl, pl)
	a.log.Debug("bundle assembled",
		zap.Stringer("mode", data.Mode),
		zap.Int("meshes", s.Meshes),
		zap.Int("vertices", s.Vertices),
		zap.Int("triangles", s.Triangles),
		zap.Int("meshlets", s.Meshlets),
		zap.Int("degenerate_cones", s.DegenerateCones))
}

// MeshletPositions resolves the vertex positions of meshlet m, which
// belongs to mesh, through the bundle arrays.
func (d *TemporaryData) MeshletPositions(mesh MeshletMeshDetails, m geometry.Meshlet) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, m.VertexCount)
	for i := uint32(0); i < m.VertexCount; i++ {
		out[i] = d.Vertices[mesh.VertexOffset+d.Indices[m.VertexOffset+i]].Position
	}
	return out
}
