package bundle

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/sol/pkg/geometry"
)

// ErrEmptyBundle is returned when exporting a bundle without triangles.
var ErrEmptyBundle = errors.New("bundle has no triangles")

// DebugDocument builds a glTF document that paints every meshlet (or, in
// vertex-shader mode, every mesh) in its own colour. Vertices are duplicated
// per cluster so colours do not bleed across seams.
func (d *TemporaryData) DebugDocument() (*gltf.Document, error) {
	var positions [][3]float32
	var normals [][3]float32
	var colors [][4]uint8
	var indices []uint32

	addCluster := func(cluster int, vertexIndices []uint32, triangles [][3]uint32) {
		base := uint32(len(positions))
		color := clusterColor(cluster)
		for _, vi := range vertexIndices {
			v := d.Vertices[vi]
			positions = append(positions, v.Position)
			normals = append(normals, v.Normal)
			colors = append(colors, color)
		}
		for _, tri := range triangles {
			indices = append(indices, base+tri[0], base+tri[1], base+tri[2])
		}
	}

	if d.Mode == MeshShader {
		cluster := 0
		for _, mesh := range d.MeshletBundleDetails {
			for i := uint32(0); i < mesh.MeshletCount; i++ {
				m := d.MeshletDetails[mesh.MeshletOffset+i].Meshlet
				local := d.Indices[m.VertexOffset : m.VertexOffset+m.VertexCount]
				vertexIndices := make([]uint32, len(local))
				for j, vi := range local {
					vertexIndices[j] = mesh.VertexOffset + vi
				}
				var triangles [][3]uint32
				for _, p := range d.PrimIndices[m.PrimitiveOffset : m.PrimitiveOffset+m.PrimitiveCount] {
					a, b, c := geometry.UnpackPrim(p)
					triangles = append(triangles, [3]uint32{a, b, c})
				}
				addCluster(cluster, vertexIndices, triangles)
				cluster++
			}
		}
	} else {
		for i, mesh := range d.BundleDetails {
			tris := d.Indices[mesh.IndexOffset : mesh.IndexOffset+mesh.IndexCount]
			// Compact the mesh's vertex range so local indices start at zero.
			remap := make(map[uint32]uint32)
			var vertexIndices []uint32
			var triangles [][3]uint32
			for t := 0; t+3 <= len(tris); t += 3 {
				var tri [3]uint32
				for k := 0; k < 3; k++ {
					local, ok := remap[tris[t+k]]
					if !ok {
						local = uint32(len(vertexIndices))
						remap[tris[t+k]] = local
						vertexIndices = append(vertexIndices, tris[t+k])
					}
					tri[k] = local
				}
				triangles = append(triangles, tri)
			}
			addCluster(i, vertexIndices, triangles)
		}
	}

	if len(indices) == 0 {
		return nil, ErrEmptyBundle
	}

	doc := gltf.NewDocument()
	prim := &gltf.Primitive{
		Attributes: map[string]int{
			gltf.POSITION: modeler.WritePosition(doc, positions),
			gltf.NORMAL:   modeler.WriteNormal(doc, normals),
			gltf.COLOR_0:  modeler.WriteColor(doc, colors),
		},
		Indices:  gltf.Index(modeler.WriteIndices(doc, indices)),
		Material: gltf.Index(0),
	}
	doc.Materials = []*gltf.Material{{
		Name: "Clusters",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
	}}
	doc.Meshes = []*gltf.Mesh{{Name: "Clusters", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: "Clusters", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// ExportDebugGLB writes DebugDocument to path as binary glTF.
func (d *TemporaryData) ExportDebugGLB(path string) error {
	doc, err := d.DebugDocument()
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// clusterColor spreads hues with the golden ratio so neighbouring clusters
// differ clearly.
func clusterColor(i int) [4]uint8 {
	const golden = 0.618033988749895
	h := float64(i) * golden
	h -= float64(int(h))
	r, g, b := hsvToRGB(h, 0.65, 0.95)
	return [4]uint8{r, g, b, 255}
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(r * 255), uint8(g * 255), uint8(b * 255)
}
