package domain

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Curve is the axis of a curved helix, sampled once per nucleotide. Points are
// expressed in the frame of the helix carrying the curve.
type Curve interface {
	// AxisPos returns the axis point of nucleotide n.
	AxisPos(n int) (Vec3, bool)
	// NuclPos returns the backbone position of nucleotide n at angle theta.
	NuclPos(n int, forward bool, theta float64, p Parameters) (Vec3, bool)
	// Range returns the first and last sampled nucleotide indices.
	Range() (int, int)
}

// CurveKind names a curve descriptor variant.
type CurveKind string

const (
	CurveBezier   CurveKind = "Bezier"
	CurvePolyline CurveKind = "Polyline"
)

// CubicBezier is a cubic Bezier segment.
type CubicBezier struct {
	Start    Vec3 `json:"start"`
	Control1 Vec3 `json:"control1"`
	Control2 Vec3 `json:"control2"`
	End      Vec3 `json:"end"`
}

// Point evaluates the segment at t in [0, 1].
func (b CubicBezier) Point(t float64) Vec3 {
	u := 1 - t
	p := r3.Scale(u*u*u, b.Start)
	p = r3.Add(p, r3.Scale(3*u*u*t, b.Control1))
	p = r3.Add(p, r3.Scale(3*u*t*t, b.Control2))
	return r3.Add(p, r3.Scale(t*t*t, b.End))
}

// CurveDescriptor describes the shape of a curved helix. It encodes as
// {"Bezier": {...}} or {"Polyline": [...]}.
type CurveDescriptor struct {
	Kind     CurveKind
	Bezier   CubicBezier
	Polyline []Vec3
}

// BezierCurve returns a descriptor for a cubic Bezier axis.
func BezierCurve(b CubicBezier) *CurveDescriptor {
	return &CurveDescriptor{Kind: CurveBezier, Bezier: b}
}

// PolylineCurve returns a descriptor for an axis through explicit points.
func PolylineCurve(points []Vec3) *CurveDescriptor {
	return &CurveDescriptor{Kind: CurvePolyline, Polyline: append([]Vec3(nil), points...)}
}

func (c CurveDescriptor) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CurveBezier:
		return json.Marshal(map[string]CubicBezier{string(CurveBezier): c.Bezier})
	case CurvePolyline:
		return json.Marshal(map[string][]Vec3{string(CurvePolyline): c.Polyline})
	}
	return nil, fmt.Errorf("unknown curve kind %q", c.Kind)
}

func (c *CurveDescriptor) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode curve: %w", err)
	}
	if payload, ok := raw[string(CurveBezier)]; ok {
		c.Kind = CurveBezier
		return json.Unmarshal(payload, &c.Bezier)
	}
	if payload, ok := raw[string(CurvePolyline)]; ok {
		c.Kind = CurvePolyline
		return json.Unmarshal(payload, &c.Polyline)
	}
	return fmt.Errorf("decode curve: unknown variant in %s", string(data))
}

// dense evaluation of the descriptor, before resampling at constant arc length
func (c CurveDescriptor) dense() []Vec3 {
	switch c.Kind {
	case CurveBezier:
		const steps = 2000
		pts := make([]Vec3, 0, steps+1)
		for i := 0; i <= steps; i++ {
			pts = append(pts, c.Bezier.Point(float64(i)/steps))
		}
		return pts
	default:
		return c.Polyline
	}
}

// InstantiatedCurve is a curve descriptor sampled for given parameters.
// Helices share it by pointer so that snapshots do not copy point clouds.
type InstantiatedCurve struct {
	Source *CurveDescriptor
	points []Vec3
	frames [][2]Vec3
}

// InstantiateCurve samples desc every ZStep of arc length and computes a
// rotation minimising frame along the samples.
func InstantiateCurve(desc *CurveDescriptor, p Parameters) *InstantiatedCurve {
	dense := desc.dense()
	ic := &InstantiatedCurve{Source: desc}
	if len(dense) == 0 {
		return ic
	}
	step := p.ZStep
	ic.points = append(ic.points, dense[0])
	travelled := 0.0
	for i := 1; i < len(dense); i++ {
		prev, cur := dense[i-1], dense[i]
		seg := r3.Norm(r3.Sub(cur, prev))
		for seg > 0 && travelled+seg >= step {
			t := (step - travelled) / seg
			prev = r3.Add(prev, r3.Scale(t, r3.Sub(cur, prev)))
			ic.points = append(ic.points, prev)
			seg = r3.Norm(r3.Sub(cur, prev))
			travelled = 0
		}
		travelled += seg
	}
	ic.computeFrames()
	return ic
}

func (ic *InstantiatedCurve) tangent(i int) Vec3 {
	n := len(ic.points)
	if n < 2 {
		return UnitX
	}
	a, b := i-1, i+1
	if a < 0 {
		a = 0
	}
	if b >= n {
		b = n - 1
	}
	return r3.Unit(r3.Sub(ic.points[b], ic.points[a]))
}

func (ic *InstantiatedCurve) computeFrames() {
	ic.frames = make([][2]Vec3, len(ic.points))
	if len(ic.points) == 0 {
		return
	}
	t := ic.tangent(0)
	y := r3.Sub(UnitY, r3.Scale(r3.Dot(UnitY, t), t))
	if r3.Norm(y) < 1e-6 {
		y = r3.Sub(UnitZ, r3.Scale(r3.Dot(UnitZ, t), t))
	}
	y = r3.Unit(y)
	ic.frames[0] = [2]Vec3{y, r3.Cross(t, y)}
	for i := 1; i < len(ic.points); i++ {
		t = ic.tangent(i)
		y = r3.Sub(y, r3.Scale(r3.Dot(y, t), t))
		if r3.Norm(y) < 1e-9 {
			y = ic.frames[i-1][1]
		}
		y = r3.Unit(y)
		ic.frames[i] = [2]Vec3{y, r3.Cross(t, y)}
	}
}

// NbPoints returns the number of sampled nucleotides.
func (ic *InstantiatedCurve) NbPoints() int { return len(ic.points) }

// Points returns the sampled axis.
func (ic *InstantiatedCurve) Points() []Vec3 { return ic.points }

func (ic *InstantiatedCurve) Range() (int, int) { return 0, len(ic.points) - 1 }

func (ic *InstantiatedCurve) AxisPos(n int) (Vec3, bool) {
	if n < 0 || n >= len(ic.points) {
		return Vec3{}, false
	}
	return ic.points[n], true
}

func (ic *InstantiatedCurve) NuclPos(n int, _ bool, theta float64, p Parameters) (Vec3, bool) {
	axis, ok := ic.AxisPos(n)
	if !ok {
		return Vec3{}, false
	}
	f := ic.frames[n]
	offset := r3.Add(r3.Scale(sin(theta)*p.HelixRadius, f[0]), r3.Scale(cos(theta)*p.HelixRadius, f[1]))
	return r3.Add(axis, offset), true
}
