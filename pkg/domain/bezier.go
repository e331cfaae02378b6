package domain

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// BezierPlane is a plane on which Bezier path vertices are drawn. Plane
// coordinates are x along orientation·Z and y along orientation·Y.
type BezierPlane struct {
	Position    Vec3  `json:"position"`
	Orientation Rotor `json:"orientation"`
}

// PlaneIntersection is the hit of a ray on a plane.
type PlaneIntersection struct {
	Point Vec2
	Depth float64
}

// RayIntersection intersects the ray (origin, direction) with p. Rays almost
// parallel to the plane miss it.
func (p BezierPlane) RayIntersection(origin, direction Vec3) (PlaneIntersection, bool) {
	normal := p.Orientation.Rotate(UnitX)
	denom := r3.Dot(direction, normal)
	if math.Abs(denom) < 1e-3 {
		return PlaneIntersection{}, false
	}
	depth := r3.Dot(r3.Sub(p.Position, origin), normal) / denom
	v := r3.Sub(r3.Add(origin, r3.Scale(depth, direction)), p.Position)
	return PlaneIntersection{
		Point: Vec2{X: r3.Dot(v, p.Orientation.Rotate(UnitZ)), Y: r3.Dot(v, p.Orientation.Rotate(UnitY))},
		Depth: depth,
	}, true
}

// Space returns the 3D point of plane coordinates v.
func (p BezierPlane) Space(v Vec2) Vec3 {
	return r3.Add(p.Position, p.Orientation.Rotate(Vec3{Y: v.Y, Z: v.X}))
}

// ClosestPlaneIntersection returns the nearest plane hit by the ray.
func ClosestPlaneIntersection(planes *BezierPlaneMap, origin, direction Vec3) (BezierPlaneID, PlaneIntersection, bool) {
	var (
		bestID BezierPlaneID
		best   PlaneIntersection
		found  bool
	)
	for id, plane := range planes.All() {
		hit, ok := plane.RayIntersection(origin, direction)
		if !ok {
			continue
		}
		if !found || hit.Depth < best.Depth {
			bestID, best, found = id, hit, true
		}
	}
	return bestID, best, found
}

// BezierVertex is a control point of a Bezier path.
type BezierVertex struct {
	Plane    BezierPlaneID `json:"plane_id"`
	Position Vec2          `json:"position"`
}

// BezierPath is a sequence of vertices drawn on Bezier planes. Every vertex
// carries a square grid orthogonal to the path.
type BezierPath struct {
	Vertices []BezierVertex `json:"vertices"`
	Cyclic   bool           `json:"cyclic,omitempty"`
}

// Clone returns a copy of p.
func (p *BezierPath) Clone() *BezierPath {
	return &BezierPath{Vertices: slices.Clone(p.Vertices), Cyclic: p.Cyclic}
}

// AddVertex appends v and returns its index.
func (p *BezierPath) AddVertex(v BezierVertex) int {
	p.Vertices = append(p.Vertices, v)
	return len(p.Vertices) - 1
}

// VertexPosition returns the 3D position of vertex i.
func (p *BezierPath) VertexPosition(i int, planes *BezierPlaneMap) (Vec3, bool) {
	if i < 0 || i >= len(p.Vertices) {
		return Vec3{}, false
	}
	v := p.Vertices[i]
	plane, ok := planes.Get(v.Plane)
	if !ok {
		return Vec3{}, false
	}
	return plane.Space(v.Position), true
}

// tangent is the direction of the path at vertex i, from the previous to the
// next vertex.
func (p *BezierPath) tangent(i int, planes *BezierPlaneMap) (Vec3, bool) {
	n := len(p.Vertices)
	prev, next := i-1, i+1
	if p.Cyclic {
		prev, next = (i-1+n)%n, (i+1)%n
	}
	prev = max(prev, 0)
	next = min(next, n-1)
	if prev == next {
		return UnitX, true
	}
	a, ok1 := p.VertexPosition(prev, planes)
	b, ok2 := p.VertexPosition(next, planes)
	if !ok1 || !ok2 {
		return Vec3{}, false
	}
	d := r3.Sub(b, a)
	if r3.Norm(d) < 1e-9 {
		return UnitX, true
	}
	return r3.Unit(d), true
}

// vertexGrid is the square grid centred on vertex i, its helices running
// along the path.
func (p *BezierPath) vertexGrid(i int, planes *BezierPlaneMap, params Parameters) (Grid, bool) {
	origin, ok := p.VertexPosition(i, planes)
	if !ok {
		return Grid{}, false
	}
	t, ok := p.tangent(i, planes)
	if !ok {
		return Grid{}, false
	}
	return NewGrid(origin, RotorBetween(UnitX, t), params, Square{}), true
}
