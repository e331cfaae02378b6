package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Logger receives diagnostics emitted by domain routines. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoopLogger returns a Logger discarding every message.
func NoopLogger() Logger { return noopLogger{} }

// Edge is a lattice displacement between two grid vertices. Edges are plain
// comparable values; an edge computed on one grid variant is only meaningful
// on a grid of the same variant.
type Edge interface {
	edgeKind() GridKind
}

// SquareEdge is the displacement between two vertices of a square grid.
type SquareEdge struct {
	X, Y int
}

// HoneyEdge is the displacement between two vertices of a honeycomb grid.
// StartParity records whether the source vertex sat on the upper sub-lattice.
type HoneyEdge struct {
	X, Y        int
	StartParity bool
}

// CircleEdge is a rotation by Shift helices around a hyperboloid grid.
type CircleEdge struct {
	Shift int
}

func (SquareEdge) edgeKind() GridKind { return GridSquare }
func (HoneyEdge) edgeKind() GridKind  { return GridHoneycomb }
func (CircleEdge) edgeKind() GridKind { return GridHyperboloid }

func (e SquareEdge) String() string { return fmt.Sprintf("square(%d, %d)", e.X, e.Y) }
func (e HoneyEdge) String() string {
	return fmt.Sprintf("honeycomb(%d, %d, parity=%t)", e.X, e.Y, e.StartParity)
}
func (e CircleEdge) String() string { return fmt.Sprintf("circle(%d)", e.Shift) }

// GridKind names a grid variant.
type GridKind string

const (
	GridSquare      GridKind = "Square"
	GridHoneycomb   GridKind = "Honeycomb"
	GridHyperboloid GridKind = "Hyperboloid"
)

// GridType maps lattice vertices to the grid plane and supplies the edge
// algebra used when translating patterns across a lattice.
type GridType interface {
	Kind() GridKind
	// OriginHelix maps vertex (x, y) to a point of the grid plane.
	OriginHelix(p Parameters, x, y int) Vec2
	// OrientationHelix is the orientation of a helix at (x, y) relative to the grid.
	OrientationHelix(p Parameters, x, y int) Rotor
	// Interpolate returns the vertex closest to the plane point (u, v).
	Interpolate(p Parameters, u, v float64) (int, int)
	TranslationToEdge(x1, y1, x2, y2 int) Edge
	// TranslateByEdge applies e at (x1, y1). The boolean is false when e
	// belongs to another grid variant.
	TranslateByEdge(x1, y1 int, e Edge) (int, int, bool)
	Descriptor() GridTypeDescr
}

// Square is the square lattice.
type Square struct{}

func (Square) Kind() GridKind { return GridSquare }

func (Square) OriginHelix(p Parameters, x, y int) Vec2 {
	d := p.HelixDistance()
	return Vec2{X: float64(x) * d, Y: -float64(y) * d}
}

func (Square) OrientationHelix(Parameters, int, int) Rotor { return IdentityRotor() }

func (Square) Interpolate(p Parameters, u, v float64) (int, int) {
	d := p.HelixDistance()
	return int(math.Round(u / d)), int(math.Round(v / -d))
}

func (Square) TranslationToEdge(x1, y1, x2, y2 int) Edge {
	return SquareEdge{X: x2 - x1, Y: y2 - y1}
}

func (Square) TranslateByEdge(x1, y1 int, e Edge) (int, int, bool) {
	se, ok := e.(SquareEdge)
	if !ok {
		return 0, 0, false
	}
	return x1 + se.X, y1 + se.Y, true
}

func (Square) Descriptor() GridTypeDescr { return GridTypeDescr{Kind: GridSquare} }

// Honeycomb is the hexagonal lattice used by honeycomb origami. Vertices whose
// |x| and |y| parities differ sit on the lower sub-lattice.
type Honeycomb struct{}

func (Honeycomb) Kind() GridKind { return GridHoneycomb }

func honeyUpper(x, y int) bool {
	return abs(x)%2 == abs(y)%2
}

func (Honeycomb) OriginHelix(p Parameters, x, y int) Vec2 {
	r := p.InterHelixGap/2 + p.HelixRadius
	upper := -3 * r * float64(y)
	v := upper
	if !honeyUpper(x, y) {
		v = upper - r
	}
	return Vec2{X: float64(x) * r * math.Sqrt(3), Y: v}
}

func (Honeycomb) OrientationHelix(Parameters, int, int) Rotor { return IdentityRotor() }

func (h Honeycomb) Interpolate(p Parameters, u, v float64) (int, int) {
	r := p.InterHelixGap/2 + p.HelixRadius
	gx := int(math.Round(u / (r * math.Sqrt(3))))
	gy := int(math.Floor(v / (-3 * r)))
	target := Vec2{X: u, Y: v}
	bestX, bestY := gx, gy
	best := r2.Norm2(r2.Sub(h.OriginHelix(p, gx, gy), target))
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			d := r2.Norm2(r2.Sub(h.OriginHelix(p, gx+dx, gy+dy), target))
			if d < best {
				best = d
				bestX, bestY = gx+dx, gy+dy
			}
		}
	}
	return bestX, bestY
}

func (Honeycomb) TranslationToEdge(x1, y1, x2, y2 int) Edge {
	return HoneyEdge{X: x2 - x1, Y: y2 - y1, StartParity: honeyUpper(x1, y1)}
}

// TranslateByEdge reproduces the planar shape of the recorded displacement.
// The two sub-lattices are exchanged by a half turn, so when the start vertex
// lies on the other sub-lattice than the recorded one the displacement is
// applied point-reflected.
func (Honeycomb) TranslateByEdge(x1, y1 int, e Edge) (int, int, bool) {
	he, ok := e.(HoneyEdge)
	if !ok {
		return 0, 0, false
	}
	if honeyUpper(x1, y1) == he.StartParity {
		return x1 + he.X, y1 + he.Y, true
	}
	return x1 - he.X, y1 - he.Y, true
}

func (Honeycomb) Descriptor() GridTypeDescr { return GridTypeDescr{Kind: GridHoneycomb} }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// GridTypeDescr is the serialisable form of a GridType. It encodes as
// "Square", "Honeycomb" or {"Hyperboloid": {...}}.
type GridTypeDescr struct {
	Kind        GridKind
	Hyperboloid *Hyperboloid
}

func (d GridTypeDescr) String() string { return string(d.Kind) }

// Concrete instantiates the grid variant described by d.
func (d GridTypeDescr) Concrete() GridType {
	switch d.Kind {
	case GridHoneycomb:
		return Honeycomb{}
	case GridHyperboloid:
		if d.Hyperboloid == nil {
			return Hyperboloid{}
		}
		return *d.Hyperboloid
	default:
		return Square{}
	}
}

func (d GridTypeDescr) MarshalJSON() ([]byte, error) {
	if d.Kind == GridHyperboloid {
		h := Hyperboloid{}
		if d.Hyperboloid != nil {
			h = *d.Hyperboloid
		}
		return json.Marshal(map[string]Hyperboloid{string(GridHyperboloid): h})
	}
	if d.Kind == "" {
		return json.Marshal(string(GridSquare))
	}
	return json.Marshal(string(d.Kind))
}

func (d *GridTypeDescr) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch GridKind(name) {
		case GridSquare, GridHoneycomb:
			*d = GridTypeDescr{Kind: GridKind(name)}
			return nil
		}
		return fmt.Errorf("unknown grid type %q", name)
	}
	var obj map[string]Hyperboloid
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode grid type: %w", err)
	}
	h, ok := obj[string(GridHyperboloid)]
	if !ok {
		return fmt.Errorf("unknown grid type %s", string(data))
	}
	*d = GridTypeDescr{Kind: GridHyperboloid, Hyperboloid: &h}
	return nil
}

// GridDescriptor is a grid placed in space, as stored in a design.
type GridDescriptor struct {
	Position    Vec3          `json:"position"`
	Orientation Rotor         `json:"orientation"`
	Type        GridTypeDescr `json:"grid_type"`
	Invisible   bool          `json:"invisible,omitempty"`
}

// ToGrid instantiates the descriptor with the design parameters.
func (d GridDescriptor) ToGrid(p Parameters) Grid {
	return Grid{
		Position:    d.Position,
		Orientation: d.Orientation.orIdentity(),
		Parameters:  p,
		Type:        d.Type.Concrete(),
		Invisible:   d.Invisible,
	}
}

// Grid is a GridDescriptor bound to design parameters.
type Grid struct {
	Position    Vec3
	Orientation Rotor
	Parameters  Parameters
	Type        GridType
	Invisible   bool
}

// NewGrid returns a visible grid of the given type.
func NewGrid(position Vec3, orientation Rotor, p Parameters, t GridType) Grid {
	return Grid{Position: position, Orientation: orientation, Parameters: p, Type: t}
}

// Descriptor returns the serialisable form of g.
func (g Grid) Descriptor() GridDescriptor {
	return GridDescriptor{
		Position:    g.Position,
		Orientation: g.Orientation,
		Type:        g.Type.Descriptor(),
		Invisible:   g.Invisible,
	}
}

func (g Grid) zVec() Vec3 { return g.Orientation.Rotate(UnitZ) }
func (g Grid) yVec() Vec3 { return g.Orientation.Rotate(UnitY) }

// AxisHelix is the axis direction of helices standing on g, which is also the
// normal of the grid plane.
func (g Grid) AxisHelix() Vec3 {
	return g.Orientation.Rotate(UnitX)
}

// AngleAxis returns the angle between the grid plane and axis.
func (g Grid) AngleAxis(axis Vec3) float64 {
	if r3.Norm(axis) == 0 {
		return 0
	}
	return math.Asin(math.Abs(r3.Dot(r3.Unit(axis), g.AxisHelix())))
}

// RayIntersection returns d such that origin + d·direction lies on the grid
// plane. It reports false when the line is (nearly) parallel to the plane.
func (g Grid) RayIntersection(origin, direction Vec3) (float64, bool) {
	normal := g.AxisHelix()
	denom := r3.Dot(direction, normal)
	if math.Abs(denom) < 1e-3 {
		return 0, false
	}
	return r3.Dot(r3.Sub(g.Position, origin), normal) / denom, true
}

// RealIntersection returns the 3D point where the line meets the grid plane.
func (g Grid) RealIntersection(origin, direction Vec3) (Vec3, bool) {
	d, ok := g.RayIntersection(origin, direction)
	if !ok {
		return Vec3{}, false
	}
	return r3.Add(origin, r3.Scale(d, direction)), true
}

// LineIntersection returns the plane coordinates of the point where the line
// meets the grid plane.
func (g Grid) LineIntersection(origin, direction Vec3) (Vec2, bool) {
	p, ok := g.RealIntersection(origin, direction)
	if !ok {
		return Vec2{}, false
	}
	rel := r3.Sub(p, g.Position)
	return Vec2{X: r3.Dot(rel, g.zVec()), Y: r3.Dot(rel, g.yVec())}, true
}

func (g Grid) projectPoint(p Vec3) Vec3 {
	normal := g.AxisHelix()
	return r3.Add(p, r3.Scale(r3.Dot(r3.Sub(g.Position, p), normal), normal))
}

// PositionHelix is the world position of the helix standing on vertex (x, y).
func (g Grid) PositionHelix(x, y int) Vec3 {
	o := g.Type.OriginHelix(g.Parameters, x, y)
	return r3.Add(g.Position, r3.Add(r3.Scale(o.X, g.zVec()), r3.Scale(o.Y, g.yVec())))
}

// OrientationHelix is the world orientation of the helix standing on (x, y).
func (g Grid) OrientationHelix(x, y int) Rotor {
	return g.Orientation.Mul(g.Type.OrientationHelix(g.Parameters, x, y))
}

// InterpolateHelix returns the vertex closest to the intersection of the line
// with the grid plane.
func (g Grid) InterpolateHelix(origin, axis Vec3) (int, int, bool) {
	uv, ok := g.LineIntersection(origin, axis)
	if !ok {
		return 0, 0, false
	}
	x, y := g.Type.Interpolate(g.Parameters, uv.X, uv.Y)
	return x, y, true
}

// FindHelixPosition computes where a straight helix would dock on g: the
// closest vertex, the axis index crossing the plane and the roll that keeps
// its nucleotides in place.
func (g Grid) FindHelixPosition(h *Helix, id GridID) (HelixGridPosition, bool) {
	axis := h.Axis(g.Parameters)
	if axis.Curve != nil {
		return HelixGridPosition{}, false
	}
	x, y, ok := g.InterpolateHelix(axis.Origin, axis.Direction)
	if !ok {
		return HelixGridPosition{}, false
	}
	intersection := g.PositionHelix(x, y)
	axisPos := int(math.Round(r3.Dot(r3.Sub(intersection, axis.Origin), axis.Direction) / r3.Norm2(axis.Direction)))
	nucl := h.SpacePos(g.Parameters, axisPos, false)
	proj := r3.Sub(g.projectPoint(nucl), intersection)
	u := r3.Dot(proj, g.zVec()) / -g.Parameters.HelixRadius
	v := r3.Dot(proj, g.yVec()) / -g.Parameters.HelixRadius
	roll := math.Atan2(u, v) - math.Pi - float64(axisPos)*2*math.Pi/g.Parameters.BasesPerTurn
	roll = remEuclid(roll+math.Pi, 2*math.Pi) - math.Pi
	return HelixGridPosition{Grid: id, X: x, Y: y, AxisPos: axisPos, Roll: roll}, true
}

// Shift returns the twist of a hyperboloid grid.
func (g Grid) Shift() (float64, bool) {
	h, ok := g.Type.(Hyperboloid)
	if !ok {
		return 0, false
	}
	return h.Shift, true
}

// NbTurn returns the number of turns of a hyperboloid grid.
func (g Grid) NbTurn() (float64, bool) {
	h, ok := g.Type.(Hyperboloid)
	if !ok {
		return 0, false
	}
	return h.NbTurn, true
}

// SetShift changes the twist of a hyperboloid grid. Other variants have no
// twist; the call is reported to log and ignored.
func (g *Grid) SetShift(shift float64, log Logger) {
	h, ok := g.Type.(Hyperboloid)
	if !ok {
		if log != nil {
			log.Warn("ignoring shift change on non hyperboloid grid", "grid_type", g.Type.Kind(), "shift", shift)
		}
		return
	}
	h.ModifyShift(shift, g.Parameters)
	g.Type = h
}

func remEuclid(a, b float64) float64 {
	r := math.Mod(a, b)
	if r < 0 {
		r += math.Abs(b)
	}
	return r
}
