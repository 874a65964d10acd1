package geometry

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABBGenerator accumulates an axis-aligned box over a stream of positions.
type AABBGenerator struct {
	positiveAxes mgl32.Vec4
	negativeAxes mgl32.Vec4
	seeded       bool
}

// NewAABBGenerator returns a generator that seeds its extrema from the
// first processed position, so the result bounds exactly the input.
func NewAABBGenerator() *AABBGenerator {
	return &AABBGenerator{}
}

// NewOriginSeededAABBGenerator returns a generator whose extrema start at
// the origin. Every box it produces contains the origin. This reproduces the
// boxes baked into existing culling data.
func NewOriginSeededAABBGenerator() *AABBGenerator {
	return &AABBGenerator{
		positiveAxes: mgl32.Vec4{0, 0, 0, 1},
		negativeAxes: mgl32.Vec4{0, 0, 0, 1},
		seeded:       true,
	}
}

// ProcessVertex grows the box to include position.
func (g *AABBGenerator) ProcessVertex(position mgl32.Vec3) {
	p := position.Vec4(1)
	if !g.seeded {
		g.positiveAxes = p
		g.negativeAxes = p
		g.seeded = true
		return
	}
	for i := 0; i < 3; i++ {
		g.positiveAxes[i] = math32.Max(g.positiveAxes[i], p[i])
		g.negativeAxes[i] = math32.Min(g.negativeAxes[i], p[i])
	}
}

// GenerateAABB returns the accumulated box. A generator that saw no
// positions and was not origin-seeded returns a zero-size box at the origin.
func (g *AABBGenerator) GenerateAABB() AABB {
	box := AABB{MaxAxes: g.positiveAxes, MinAxes: g.negativeAxes}
	box.MaxAxes[3] = 1
	box.MinAxes[3] = 1
	return box
}

// SphereBVGenerator measures the radius of a sphere around a fixed centre.
// SetCentre must be called before ProcessVertex, with a box that covers
// every position that will be processed.
type SphereBVGenerator struct {
	centre mgl32.Vec3
	radius float32
}

// NewSphereBVGenerator returns a generator centred on box.
func NewSphereBVGenerator(box AABB) *SphereBVGenerator {
	g := &SphereBVGenerator{}
	g.SetCentre(box)
	return g
}

// SetCentre centres the sphere on the midpoint of box and resets the radius.
func (g *SphereBVGenerator) SetCentre(box AABB) {
	g.centre = box.Centre()
	g.radius = 0
}

// ProcessVertex grows the radius to reach position.
func (g *SphereBVGenerator) ProcessVertex(position mgl32.Vec3) {
	g.radius = math32.Max(g.radius, g.centre.Sub(position).Len())
}

// GenerateBV returns the sphere.
func (g *SphereBVGenerator) GenerateBV() SphereBV {
	return SphereBV{Sphere: g.centre.Vec4(g.radius)}
}

// BoundPositions returns the exact box and the box-centred sphere of positions.
func BoundPositions(positions []mgl32.Vec3) (AABB, SphereBV) {
	ag := NewAABBGenerator()
	for _, p := range positions {
		ag.ProcessVertex(p)
	}
	box := ag.GenerateAABB()

	sg := NewSphereBVGenerator(box)
	for _, p := range positions {
		sg.ProcessVertex(p)
	}
	return box, sg.GenerateBV()
}
