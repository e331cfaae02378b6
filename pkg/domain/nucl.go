package domain

import "fmt"

// HelixID identifies a helix within a design.
type HelixID int

// StrandID identifies a strand within a design.
type StrandID int

// BezierPathID identifies a Bezier path within a design.
type BezierPathID int

// BezierPlaneID identifies a Bezier plane within a design.
type BezierPlaneID int

// Nucl addresses a nucleotide: a position on one of the two strands of a helix.
type Nucl struct {
	Helix    HelixID `json:"helix"`
	Position int     `json:"position"`
	Forward  bool    `json:"forward"`
}

func (n Nucl) String() string {
	dir := "bwd"
	if n.Forward {
		dir = "fwd"
	}
	return fmt.Sprintf("(%d, %d, %s)", n.Helix, n.Position, dir)
}

// Prime3 returns the next nucleotide in the 5' to 3' direction.
func (n Nucl) Prime3() Nucl {
	if n.Forward {
		n.Position++
	} else {
		n.Position--
	}
	return n
}

// Prime5 returns the previous nucleotide in the 5' to 3' direction.
func (n Nucl) Prime5() Nucl {
	if n.Forward {
		n.Position--
	} else {
		n.Position++
	}
	return n
}

// Left returns the nucleotide at Position-1 on the same half-helix.
func (n Nucl) Left() Nucl {
	n.Position--
	return n
}

// Right returns the nucleotide at Position+1 on the same half-helix.
func (n Nucl) Right() Nucl {
	n.Position++
	return n
}

// Compl returns the paired nucleotide on the other strand of the helix.
func (n Nucl) Compl() Nucl {
	n.Forward = !n.Forward
	return n
}

// IsNeighbour reports whether n and other are consecutive on the same half-helix.
func (n Nucl) IsNeighbour(other Nucl) bool {
	d := n.Position - other.Position
	return n.Helix == other.Helix && n.Forward == other.Forward && (d == 1 || d == -1)
}

// Less orders nucleotides by helix, then backward before forward, then along
// the 5' to 3' direction.
func (n Nucl) Less(other Nucl) bool {
	if n.Helix != other.Helix {
		return n.Helix < other.Helix
	}
	if n.Forward != other.Forward {
		return !n.Forward
	}
	if n.Forward {
		return n.Position < other.Position
	}
	return n.Position > other.Position
}

// Compare returns -1, 0 or 1 following Less.
func (n Nucl) Compare(other Nucl) int {
	switch {
	case n == other:
		return 0
	case n.Less(other):
		return -1
	default:
		return 1
	}
}

// VirtualNucl is the canonical address of a nucleotide once its helix has been
// coalesced with its support helix. Two concrete nucleotides denote the same
// physical base iff their virtual nucleotides are equal.
type VirtualNucl Nucl

// VirtualNuclOf maps n onto its support helix. When the support helix is not
// present in helices, n's own helix is used.
func VirtualNuclOf(n Nucl, helices *HelixMap) VirtualNucl {
	h, ok := helices.Get(n.Helix)
	if !ok {
		return VirtualNucl(n)
	}
	support := n.Helix
	if h.SupportHelix != nil {
		if _, ok := helices.Get(*h.SupportHelix); ok {
			support = *h.SupportHelix
		}
	}
	return VirtualNucl{
		Helix:    support,
		Position: n.Position + h.InitialNtIndex,
		Forward:  n.Forward,
	}
}
