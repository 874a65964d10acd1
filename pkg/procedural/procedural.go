// Package procedural generates simple meshes: triangle, quad, cube, UV
// sphere, and flat grid.
package procedural

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/sol/internal/invariant"
	"github.com/Faultbox/sol/pkg/geometry"
)

// Triangle returns a single counter-clockwise triangle facing +Z.
func Triangle() geometry.Mesh {
	n := mgl32.Vec3{0, 0, 1}
	return geometry.Mesh{
		Name: "triangle",
		Vertices: []geometry.Vertex{
			{Position: mgl32.Vec3{-0.5, -0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{0, 1}},
			{Position: mgl32.Vec3{0.5, -0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{1, 1}},
			{Position: mgl32.Vec3{0, 0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{0.5, 0}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

// Quad returns a unit quad facing +Z made of two triangles.
func Quad() geometry.Mesh {
	n := mgl32.Vec3{0, 0, 1}
	return geometry.Mesh{
		Name: "quad",
		Vertices: []geometry.Vertex{
			{Position: mgl32.Vec3{-0.5, -0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{0, 1}},
			{Position: mgl32.Vec3{0.5, -0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{1, 1}},
			{Position: mgl32.Vec3{0.5, 0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{1, 0}},
			{Position: mgl32.Vec3{-0.5, 0.5, 0}, Normal: n, TexCoord: mgl32.Vec2{0, 0}},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// cubeFace describes one face of the unit cube by its normal and the two
// in-plane axes spanning it.
type cubeFace struct {
	normal, u, v mgl32.Vec3
}

var cubeFaces = [6]cubeFace{
	{normal: mgl32.Vec3{0, 0, 1}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 0, -1}, u: mgl32.Vec3{-1, 0, 0}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{1, 0, 0}, u: mgl32.Vec3{0, 0, -1}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{-1, 0, 0}, u: mgl32.Vec3{0, 0, 1}, v: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, -1}},
	{normal: mgl32.Vec3{0, -1, 0}, u: mgl32.Vec3{1, 0, 0}, v: mgl32.Vec3{0, 0, 1}},
}

// Cube returns a unit cube centred on the origin. Each face has its own four
// vertices so normals and UVs stay per-face: 24 vertices, 12 triangles.
func Cube() geometry.Mesh {
	mesh := geometry.Mesh{
		Name:     "cube",
		Vertices: make([]geometry.Vertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}

	corners := [4]mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	uvs := [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	for _, f := range cubeFaces {
		base := uint32(len(mesh.Vertices))
		for i, c := range corners {
			pos := f.normal.Add(f.u.Mul(c.X())).Add(f.v.Mul(c.Y())).Mul(0.5)
			mesh.Vertices = append(mesh.Vertices, geometry.Vertex{
				Position: pos,
				Normal:   f.normal,
				TexCoord: uvs[i],
			})
		}
		mesh.Indices = append(mesh.Indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
	}
	return mesh
}

// Sphere returns a UV sphere of radius 0.5. Both divisions must exceed 2.
func Sphere(latitudeDivision, longitudeDivision int) geometry.Mesh {
	invariant.Check(latitudeDivision > 2 && longitudeDivision > 2,
		"sphere divisions %dx%d", latitudeDivision, longitudeDivision)

	mesh := geometry.Mesh{Name: "sphere"}
	const radius = 0.5

	for lat := 0; lat <= latitudeDivision; lat++ {
		v := float32(lat) / float32(latitudeDivision)
		theta := v * math32.Pi
		sinT, cosT := math32.Sincos(theta)

		for lon := 0; lon <= longitudeDivision; lon++ {
			u := float32(lon) / float32(longitudeDivision)
			phi := u * 2 * math32.Pi
			sinP, cosP := math32.Sincos(phi)

			n := mgl32.Vec3{cosP * sinT, cosT, sinP * sinT}
			mesh.Vertices = append(mesh.Vertices, geometry.Vertex{
				Position: n.Mul(radius),
				Normal:   n,
				TexCoord: mgl32.Vec2{u, v},
			})
		}
	}

	stride := uint32(longitudeDivision + 1)
	for lat := uint32(0); lat < uint32(latitudeDivision); lat++ {
		for lon := uint32(0); lon < uint32(longitudeDivision); lon++ {
			a := lat*stride + lon
			b := a + stride
			mesh.Indices = append(mesh.Indices,
				a, a+1, b,
				a+1, b+1, b,
			)
		}
	}
	return mesh
}

// Grid returns a flat grid in the XZ plane facing +Y, with cols x rows cells
// of unit size and (cols+1) x (rows+1) shared vertices.
func Grid(cols, rows int) geometry.Mesh {
	cols = max(cols, 1)
	rows = max(rows, 1)

	mesh := geometry.Mesh{Name: "grid"}
	up := mgl32.Vec3{0, 1, 0}

	for z := 0; z <= rows; z++ {
		for x := 0; x <= cols; x++ {
			mesh.Vertices = append(mesh.Vertices, geometry.Vertex{
				Position: mgl32.Vec3{float32(x), 0, float32(z)},
				Normal:   up,
				TexCoord: mgl32.Vec2{float32(x) / float32(cols), float32(z) / float32(rows)},
			})
		}
	}

	stride := uint32(cols + 1)
	for z := uint32(0); z < uint32(rows); z++ {
		for x := uint32(0); x < uint32(cols); x++ {
			a := z*stride + x
			b := a + stride
			mesh.Indices = append(mesh.Indices,
				a, b, a+1,
				a+1, b, b+1,
			)
		}
	}
	return mesh
}

// ByName returns a generated mesh for one of: triangle, quad, cube, sphere,
// grid. The sphere uses 16x32 divisions and the grid 32x32 cells.
func ByName(name string) (geometry.Mesh, bool) {
	switch name {
	case "triangle":
		return Triangle(), true
	case "quad":
		return Quad(), true
	case "cube":
		return Cube(), true
	case "sphere":
		return Sphere(16, 32), true
	case "grid":
		return Grid(32, 32), true
	default:
		return geometry.Mesh{}, false
	}
}
