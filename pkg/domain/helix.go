package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	sin = math.Sin
	cos = math.Cos
)

// Helix is a double helix carrier. A straight helix runs along the x axis of
// its own frame; a curved helix follows its instantiated curve.
type Helix struct {
	Position    Vec3  `json:"position"`
	Orientation Rotor `json:"orientation"`
	Visible     bool  `json:"visible"`
	// Excluded from physical simulations.
	LockedForSimulations bool               `json:"locked_for_simulations,omitempty"`
	GridPosition         *HelixGridPosition `json:"grid_position,omitempty"`
	Isometry2D           *Isometry2         `json:"isometry2d,omitempty"`
	Roll                 float64            `json:"roll"`
	Curve                *CurveDescriptor   `json:"curve,omitempty"`
	// Correction to the number of bases per turn.
	DeltaBBPT      float64  `json:"delta_bbpt,omitempty"`
	InitialNtIndex int      `json:"initial_nt_index,omitempty"`
	SupportHelix   *HelixID `json:"support_helix,omitempty"`

	instantiated *InstantiatedCurve
}

// NewHelix returns a visible straight helix.
func NewHelix(position Vec3, orientation Rotor) *Helix {
	return &Helix{Position: position, Orientation: orientation, Visible: true}
}

// NewOnGrid returns a helix standing on vertex (x, y) of g.
func NewOnGrid(g Grid, x, y int, id GridID) *Helix {
	gp := HelixGridPositionAt(id, x, y)
	return &Helix{
		Position:     g.PositionHelix(x, y),
		Orientation:  g.Orientation,
		Visible:      true,
		GridPosition: &gp,
	}
}

// Clone returns a copy of h that can be modified without affecting h. The
// instantiated curve stays shared.
func (h *Helix) Clone() *Helix {
	c := *h
	if h.GridPosition != nil {
		gp := *h.GridPosition
		c.GridPosition = &gp
	}
	if h.Isometry2D != nil {
		iso := *h.Isometry2D
		c.Isometry2D = &iso
	}
	if h.SupportHelix != nil {
		s := *h.SupportHelix
		c.SupportHelix = &s
	}
	return &c
}

// SetCurve attaches desc to h and samples it. A nil desc makes h straight.
func (h *Helix) SetCurve(desc *CurveDescriptor, p Parameters) {
	h.Curve = desc
	h.instantiated = nil
	if desc != nil {
		h.instantiated = InstantiateCurve(desc, p)
	}
}

// InstantiatedCurve returns the sampled curve of h, if any.
func (h *Helix) InstantiatedCurve() *InstantiatedCurve { return h.instantiated }

// ensureCurve instantiates a curve decoded from a document.
func (h *Helix) ensureCurve(p Parameters) {
	if h.Curve != nil && (h.instantiated == nil || h.instantiated.Source != h.Curve) {
		h.instantiated = InstantiateCurve(h.Curve, p)
	}
}

// CurveRange returns the sampled index range of a curved helix.
func (h *Helix) CurveRange() (int, int, bool) {
	if h.instantiated == nil {
		return 0, 0, false
	}
	lo, hi := h.instantiated.Range()
	return lo, hi, true
}

// RollAt is the roll of the helix frame at index n.
func (h *Helix) RollAt(n int, p Parameters) float64 {
	return h.Roll - float64(n)*2*math.Pi/(p.BasesPerTurn+h.DeltaBBPT)
}

// Theta is the angle of nucleotide n around the axis. A zero roll puts the
// backward nucleotide of index 0 vertically above the axis.
func (h *Helix) Theta(n int, forward bool, p Parameters) float64 {
	shift := 0.0
	if forward {
		shift = p.GrooveAngle
	}
	return h.RollAt(n, p) + shift + math.Pi/2
}

// SpacePos is the position of the backbone of nucleotide (n, forward).
func (h *Helix) SpacePos(p Parameters, n int, forward bool) Vec3 {
	return h.ShiftedSpacePos(p, n, forward, 0)
}

// ShiftedSpacePos is SpacePos with an extra angle added to theta.
func (h *Helix) ShiftedSpacePos(p Parameters, n int, forward bool, shift float64) Vec3 {
	n += h.InitialNtIndex
	theta := h.Theta(n, forward, p) + shift
	if h.instantiated != nil {
		if pt, ok := h.instantiated.NuclPos(n, forward, theta, p); ok {
			return r3.Add(h.Orientation.Rotate(pt), h.Position)
		}
	}
	local := Vec3{X: float64(n) * p.ZStep, Y: sin(theta) * p.HelixRadius, Z: cos(theta) * p.HelixRadius}
	return r3.Add(h.Orientation.Rotate(local), h.Position)
}

// AxisPosition is the point of the axis at index n.
func (h *Helix) AxisPosition(p Parameters, n int) Vec3 {
	n += h.InitialNtIndex
	if h.instantiated != nil {
		if pt, ok := h.instantiated.AxisPos(n); ok {
			return r3.Add(h.Orientation.Rotate(pt), h.Position)
		}
	}
	return r3.Add(h.Orientation.Rotate(Vec3{X: float64(n) * p.ZStep}), h.Position)
}

// Axis describes the axis of a helix: a line through Origin advancing by
// Direction per nucleotide, or a sampled curve.
type Axis struct {
	Origin    Vec3
	Direction Vec3
	Curve     *InstantiatedCurve
}

// Axis returns the axis of h.
func (h *Helix) Axis(p Parameters) Axis {
	if h.instantiated != nil {
		return Axis{Origin: h.Position, Curve: h.instantiated}
	}
	return Axis{
		Origin:    h.Position,
		Direction: h.Orientation.Rotate(Vec3{X: p.ZStep}),
	}
}

// IdealNeighbour returns a free helix in contact with h whose nucleotide 0 on
// the same strand direction faces nucleotide n of h.
func (h *Helix) IdealNeighbour(n int, forward bool, p Parameters) *Helix {
	axis := h.AxisPosition(p, n)
	dir := r3.Unit(r3.Sub(h.SpacePos(p, n, forward), axis))
	other := NewHelix(r3.Add(axis, r3.Scale(p.HelixDistance(), dir)), h.Orientation)
	current := other.Theta(0, forward, p)
	target := h.Theta(n, forward, p) + math.Pi
	other.Roll = target - current
	return other
}

// Translate moves h by v.
func (h *Helix) Translate(v Vec3) {
	h.Position = r3.Add(h.Position, v)
}

func (h *Helix) appendRotation(r Rotor) {
	h.Orientation = r.Mul(h.Orientation).Normalized()
	h.Position = r.Rotate(h.Position)
}

// RotateAround rotates h by r around origin.
func (h *Helix) RotateAround(r Rotor, origin Vec3) {
	h.Translate(r3.Scale(-1, origin))
	h.appendRotation(r)
	h.Translate(origin)
}

// NormalAt is the axis direction at index n.
func (h *Helix) NormalAt(n int, p Parameters) Vec3 {
	if h.instantiated != nil {
		if _, ok := h.instantiated.AxisPos(n + h.InitialNtIndex); ok {
			return h.Orientation.Rotate(h.instantiated.tangent(n + h.InitialNtIndex))
		}
	}
	return h.Orientation.Rotate(UnitX)
}
