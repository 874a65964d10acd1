package geometry

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/sol/internal/invariant"
)

// minConeDot is the smallest cos(half angle) a cone may have before it stops
// being useful for culling. Below it the normals span more than ~84°.
const minConeDot = 0.1

// axisEpsilon guards normalisation of a vanishing cone axis.
const axisEpsilon = 1e-6

// NormalCone computes the normal cone of one meshlet.
//
// vertexIndices is the meshlet's unique vertex list mapping local indices
// into vertices, prims its packed primitives, and sphere its spatial bounds.
// Each triangle is represented by the normal of its first vertex. With
// originSeeded the box around the normals also contains the origin, matching
// cones baked alongside origin-seeded spatial boxes.
func NormalCone(vertices []Vertex, vertexIndices, prims []uint32, sphere SphereBV, originSeeded bool) ClusterNormalCone {
	return normalCone(len(prims), func(i int) (mgl32.Vec3, mgl32.Vec3) {
		a, _, _ := UnpackPrim(prims[i])
		v := &vertices[vertexIndices[a]]
		return v.Position, v.Normal
	}, sphere.Centre(), originSeeded)
}

// NormalConeFromStreams is NormalCone for meshes that keep positions and
// normals in separate arrays, as imported scenes do.
func NormalConeFromStreams(positions, normals []mgl32.Vec3, vertexIndices, prims []uint32, sphere SphereBV, originSeeded bool) ClusterNormalCone {
	return normalCone(len(prims), func(i int) (mgl32.Vec3, mgl32.Vec3) {
		a, _, _ := UnpackPrim(prims[i])
		idx := vertexIndices[a]
		return positions[idx], normals[idx]
	}, sphere.Centre(), originSeeded)
}

// normalCone derives the cone from count representative (position, normal)
// pairs returned by at.
func normalCone(count int, at func(i int) (mgl32.Vec3, mgl32.Vec3), centre mgl32.Vec3, originSeeded bool) ClusterNormalCone {
	degenerate := ClusterNormalCone{PackedCone: DegenerateCone}
	if count == 0 {
		return degenerate
	}

	normalBox := NewAABBGenerator()
	if originSeeded {
		normalBox = NewOriginSeededAABBGenerator()
	}
	for i := 0; i < count; i++ {
		_, n := at(i)
		normalBox.ProcessVertex(n)
	}

	mid := normalBox.GenerateAABB().Centre()
	length := mid.Len()
	if length < axisEpsilon {
		return degenerate
	}
	axis := mid.Mul(1 / length)

	minimumDot := float32(1)
	for i := 0; i < count; i++ {
		_, n := at(i)
		minimumDot = math32.Min(minimumDot, axis.Dot(n))
	}
	if minimumDot < minConeDot {
		return degenerate
	}

	var apexOffset float32
	for i := 0; i < count; i++ {
		p, n := at(i)
		dotNormal := axis.Dot(n)
		invariant.Check(dotNormal > 0, "normal cone: dot(axis, normal) = %v", dotNormal)
		if dotNormal <= 0 {
			continue
		}
		apexOffset = math32.Max(apexOffset, centre.Sub(p).Dot(n)/dotNormal)
	}

	coneCutoff := math32.Sqrt(math32.Max(0, 1-minimumDot*minimumDot))

	qx := quantizeSNorm8(axis[0])
	qy := quantizeSNorm8(axis[1])
	qz := quantizeSNorm8(axis[2])
	quantized := mgl32.Vec3{dequantizeSNorm8(qx), dequantizeSNorm8(qy), dequantizeSNorm8(qz)}
	coneCutoff += quantized.Sub(axis).Len()

	return ClusterNormalCone{
		PackedCone: PackCone(qx, qy, qz, quantizeUNorm8(coneCutoff)),
		ApexOffset: apexOffset,
	}
}
