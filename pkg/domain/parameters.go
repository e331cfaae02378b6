package domain

import "math"

// Parameters holds the DNA geometry constants shared by every geometry routine.
// Lengths are in nanometres, angles in radians.
type Parameters struct {
	// Rise per base pair along the helix axis.
	ZStep float64 `json:"z_step"`
	// Distance from the helix axis to a nucleotide backbone.
	HelixRadius float64 `json:"helix_radius"`
	BasesPerTurn float64 `json:"bases_per_turn"`
	// Angle between the forward and backward nucleotide of a base pair.
	GrooveAngle float64 `json:"groove_angle"`
	// Gap between the surfaces of two neighbouring helices.
	InterHelixGap float64 `json:"inter_helix_gap"`
}

// DefaultParameters returns the literature constants used when a document does
// not specify its own.
func DefaultParameters() Parameters {
	return Parameters{
		ZStep:         0.332,
		HelixRadius:   1.0,
		BasesPerTurn:  10.44,
		GrooveAngle:   -24. * math.Pi / 34.,
		InterHelixGap: 0.65,
	}
}

// HelixDistance is the axis-to-axis distance of two helices in contact.
func (p Parameters) HelixDistance() float64 {
	return 2*p.HelixRadius + p.InterHelixGap
}

// IsZero reports whether p is the zero value, i.e. unset in a document.
func (p Parameters) IsZero() bool {
	return p == Parameters{}
}

// OrDefault returns p, or the default parameters when p is unset.
func (p Parameters) OrDefault() Parameters {
	if p.IsZero() {
		return DefaultParameters()
	}
	return p
}
