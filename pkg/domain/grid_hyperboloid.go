package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Hyperboloid arranges Radius helices on a circle. Every helix joins a point of
// a first circular sheet to a point of a second sheet rotated by Shift and
// placed Length bases further along the axis.
type Hyperboloid struct {
	Radius int     `json:"radius"`
	Shift  float64 `json:"shift"`
	Length float64 `json:"length"`
	// Difference between the sheet radius and the radius for which helices
	// touch at the tightest point.
	RadiusShift float64 `json:"radius_shift"`
	// Radius kept constant at the centre after the shift was modified.
	ForcedRadius *float64 `json:"forced_radius,omitempty"`
	NbTurn       float64  `json:"nb_turn,omitempty"`
}

func (Hyperboloid) Kind() GridKind { return GridHyperboloid }

func (h Hyperboloid) index(i int) int {
	if h.Radius <= 0 {
		return 0
	}
	return i % h.Radius
}

func (h Hyperboloid) angle() float64 {
	if h.Radius <= 0 {
		return math.Pi
	}
	return math.Pi / float64(h.Radius)
}

// sheetRadii returns the sheet radius and the radius at the centre of the
// hyperboloid for which helices fit exactly.
func (h Hyperboloid) sheetRadii(p Parameters) (float64, float64) {
	center := (p.HelixRadius + p.InterHelixGap/2) / math.Sin(h.angle())
	return 2 * center / math.Sqrt(2+2*math.Cos(h.Shift)), center
}

func (h Hyperboloid) sheetRadius(p Parameters) float64 {
	r, _ := h.sheetRadii(p)
	return r
}

// GridRadius is the radius of the disc containing the whole grid.
func (h Hyperboloid) GridRadius(p Parameters) float64 {
	r := h.sheetRadius(p) / 2 * math.Sqrt(2+2*math.Cos(h.Shift))
	if h.ForcedRadius != nil {
		r = *h.ForcedRadius
	}
	return r + p.HelixRadius + p.InterHelixGap/2
}

// ContainsPoint reports whether the plane point (x, y) lies on the grid.
func (h Hyperboloid) ContainsPoint(p Parameters, x, y float64) bool {
	r := h.GridRadius(p)
	return math.Abs(x) <= r && math.Abs(y) <= r
}

func (h Hyperboloid) origin(i int, p Parameters) Vec3 {
	theta := 2 * float64(h.index(i)) * h.angle()
	r := h.sheetRadius(p)
	return Vec3{Y: r * math.Sin(theta), Z: r * math.Cos(theta)}
}

func (h Hyperboloid) destination(i int, p Parameters) Vec3 {
	theta := 2*float64(h.index(i))*h.angle() + h.Shift
	r := h.sheetRadius(p)
	return Vec3{X: h.Length * p.ZStep, Y: r * math.Sin(theta), Z: r * math.Cos(theta)}
}

func (h Hyperboloid) OriginHelix(p Parameters, x, _ int) Vec2 {
	mid := r3.Scale(0.5, r3.Add(h.origin(x, p), h.destination(x, p)))
	return Vec2{X: mid.Z, Y: mid.Y}
}

func (h Hyperboloid) OrientationHelix(p Parameters, x, _ int) Rotor {
	return RotorBetween(UnitX, r3.Sub(h.destination(x, p), h.origin(x, p)))
}

func (h Hyperboloid) Interpolate(_ Parameters, u, v float64) (int, int) {
	planeAngle := math.Atan2(v, u)
	return int(math.Round(planeAngle / h.angle() / 2)), 0
}

func (h Hyperboloid) TranslationToEdge(x1, _, x2, _ int) Edge {
	return CircleEdge{Shift: h.mod(x2 - x1)}
}

// TranslateByEdge only understands CircleEdge; other edges are rejected
// without error.
func (h Hyperboloid) TranslateByEdge(x1, y1 int, e Edge) (int, int, bool) {
	ce, ok := e.(CircleEdge)
	if !ok {
		return 0, 0, false
	}
	return h.mod(x1 + ce.Shift), y1, true
}

func (h Hyperboloid) mod(x int) int {
	if h.Radius <= 0 {
		return x
	}
	m := x % h.Radius
	if m < 0 {
		m += h.Radius
	}
	return m
}

func (h Hyperboloid) Descriptor() GridTypeDescr {
	c := h
	return GridTypeDescr{Kind: GridHyperboloid, Hyperboloid: &c}
}

// ModifyShift changes the twist while keeping the centre radius fixed.
func (h *Hyperboloid) ModifyShift(shift float64, p Parameters) {
	r := h.sheetRadius(p)
	h.Shift = shift
	if h.ForcedRadius == nil {
		h.ForcedRadius = &r
	}
}

// MakeHelices generates the helices of the grid in its local frame and returns
// them with the number of nucleotides each should carry.
func (h Hyperboloid) MakeHelices(p Parameters) ([]*Helix, int) {
	helices := make([]*Helix, 0, h.Radius)
	for i := 0; i < h.Radius; i++ {
		o := h.origin(i, p)
		d := h.destination(i, p)
		mid := r3.Scale(0.5, r3.Add(o, d))
		helices = append(helices, NewHelix(mid, RotorBetween(UnitX, r3.Sub(d, o))))
	}
	return helices, int(h.Length)
}
