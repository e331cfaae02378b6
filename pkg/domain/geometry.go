package domain

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a point or direction in model space.
type Vec3 = r3.Vec

// Vec2 is a point in a 2D layout plane.
type Vec2 = r2.Vec

var (
	UnitX = Vec3{X: 1}
	UnitY = Vec3{Y: 1}
	UnitZ = Vec3{Z: 1}
)

// Rotor is a unit quaternion describing an orientation.
type Rotor quat.Number

// IdentityRotor returns the rotor that leaves every vector unchanged.
func IdentityRotor() Rotor {
	return Rotor{Real: 1}
}

// RotorFromAngleAxis returns the rotation of angle radians around axis.
func RotorFromAngleAxis(angle float64, axis Vec3) Rotor {
	if r3.Norm(axis) == 0 {
		return IdentityRotor()
	}
	return Rotor(r3.NewRotation(angle, r3.Unit(axis)))
}

// RotorBetween returns the shortest rotation mapping from onto to. Both
// vectors need not be normalised.
func RotorBetween(from, to Vec3) Rotor {
	if r3.Norm(from) == 0 || r3.Norm(to) == 0 {
		return IdentityRotor()
	}
	f := r3.Unit(from)
	t := r3.Unit(to)
	dot := r3.Dot(f, t)
	if dot < -1+1e-9 {
		// antiparallel: any axis orthogonal to from works
		axis := r3.Cross(UnitX, f)
		if r3.Norm(axis) < 1e-6 {
			axis = r3.Cross(UnitY, f)
		}
		return RotorFromAngleAxis(math.Pi, axis)
	}
	c := r3.Cross(f, t)
	q := quat.Number{Real: 1 + dot, Imag: c.X, Jmag: c.Y, Kmag: c.Z}
	return Rotor(quat.Scale(1/quat.Abs(q), q))
}

// Rotate applies r to v.
func (r Rotor) Rotate(v Vec3) Vec3 {
	if r == (Rotor{}) {
		return v
	}
	return r3.Rotation(r).Rotate(v)
}

// Mul returns the rotor applying o first and then r.
func (r Rotor) Mul(o Rotor) Rotor {
	return Rotor(quat.Mul(quat.Number(r.orIdentity()), quat.Number(o.orIdentity())))
}

// Inverse returns the reverse rotation.
func (r Rotor) Inverse() Rotor {
	return Rotor(quat.Conj(quat.Number(r.orIdentity())))
}

// Normalized rescales r to unit length, absorbing floating point drift after
// long chains of compositions.
func (r Rotor) Normalized() Rotor {
	q := quat.Number(r.orIdentity())
	n := quat.Abs(q)
	if n == 0 {
		return IdentityRotor()
	}
	return Rotor(quat.Scale(1/n, q))
}

func (r Rotor) orIdentity() Rotor {
	if r == (Rotor{}) {
		return IdentityRotor()
	}
	return r
}

// MarshalJSON encodes the rotor as [s, i, j, k].
func (r Rotor) MarshalJSON() ([]byte, error) {
	r = r.orIdentity()
	return json.Marshal([4]float64{r.Real, r.Imag, r.Jmag, r.Kmag})
}

// UnmarshalJSON decodes the [s, i, j, k] form.
func (r *Rotor) UnmarshalJSON(data []byte) error {
	var raw [4]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Rotor{Real: raw[0], Imag: raw[1], Jmag: raw[2], Kmag: raw[3]}
	return nil
}

// Isometry2 places a helix in the 2D layout view: a rotation by Angle followed
// by a translation.
type Isometry2 struct {
	Translation Vec2    `json:"translation"`
	Angle       float64 `json:"angle"`
}

// TransformPoint maps a local layout point to layout space.
func (i Isometry2) TransformPoint(p Vec2) Vec2 {
	return r2.Add(r2.Rotate(p, i.Angle, Vec2{}), i.Translation)
}

// AppendTranslation composes i with a translation applied afterwards.
func (i *Isometry2) AppendTranslation(t Vec2) {
	i.Translation = r2.Add(i.Translation, t)
}

// AppendRotation composes i with a rotation around the origin applied afterwards.
func (i *Isometry2) AppendRotation(angle float64) {
	i.Angle += angle
	i.Translation = r2.Rotate(i.Translation, angle, Vec2{})
}

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
