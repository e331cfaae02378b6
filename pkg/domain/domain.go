package domain

import (
	"encoding/json"
	"fmt"
)

// DomainKind discriminates helix intervals from insertions.
type DomainKind int

const (
	// DomainHelix is an interval of nucleotides on one half of a helix.
	DomainHelix DomainKind = iota
	// DomainInsertion is a loopout of nucleotides that are not on any helix.
	DomainInsertion
)

// HalfHelix is one of the two strands of a helix.
type HalfHelix struct {
	Helix   HelixID
	Forward bool
}

// Domain is a helix interval or an insertion. A helix interval covers the
// positions Start..End-1 of the half-helix (Helix, Forward); its 5' end is Start
// when Forward and End-1 otherwise.
type Domain struct {
	Kind     DomainKind
	Helix    HelixID
	Start    int
	End      int
	Forward  bool
	Sequence string
	// Insertion only.
	NbNucl int
	// An insertion in first position of a strand hangs on the 3' side of the
	// strand's first nucleotide instead of its 5' side.
	AttachedToPrime3 bool
}

// HelixDomain returns the interval [start, end) on half-helix (helix, forward).
func HelixDomain(helix HelixID, start, end int, forward bool) Domain {
	return Domain{Kind: DomainHelix, Helix: helix, Start: start, End: end, Forward: forward}
}

// NewInsertion returns an insertion of n nucleotides.
func NewInsertion(n int) Domain {
	return Domain{Kind: DomainInsertion, NbNucl: n}
}

// NewPrime5Insertion returns an insertion of n nucleotides meant to start a
// strand.
func NewPrime5Insertion(n int) Domain {
	return Domain{Kind: DomainInsertion, NbNucl: n, AttachedToPrime3: true}
}

func (d Domain) IsInsertion() bool { return d.Kind == DomainInsertion }

func (d Domain) String() string {
	if d.IsInsertion() {
		return fmt.Sprintf("@%d", d.NbNucl)
	}
	dir := "bwd"
	if d.Forward {
		dir = "fwd"
	}
	return fmt.Sprintf("H%d:%d->%d %s", d.Helix, d.Start, d.End, dir)
}

// Length is the number of nucleotides of d.
func (d Domain) Length() int {
	if d.IsInsertion() {
		return d.NbNucl
	}
	return max(d.End-d.Start, 0)
}

// HalfHelix returns the half-helix carrying d.
func (d Domain) HalfHelix() (HalfHelix, bool) {
	if d.IsInsertion() {
		return HalfHelix{}, false
	}
	return HalfHelix{Helix: d.Helix, Forward: d.Forward}, true
}

// Prime5End returns the first nucleotide of d.
func (d Domain) Prime5End() (Nucl, bool) {
	if d.IsInsertion() {
		return Nucl{}, false
	}
	pos := d.End - 1
	if d.Forward {
		pos = d.Start
	}
	return Nucl{Helix: d.Helix, Position: pos, Forward: d.Forward}, true
}

// Prime3End returns the last nucleotide of d.
func (d Domain) Prime3End() (Nucl, bool) {
	if d.IsInsertion() {
		return Nucl{}, false
	}
	pos := d.Start
	if d.Forward {
		pos = d.End - 1
	}
	return Nucl{Helix: d.Helix, Position: pos, Forward: d.Forward}, true
}

// OtherEnd returns the position of the end of d opposite to n, when n is an
// end of d.
func (d Domain) OtherEnd(n Nucl) (int, bool) {
	if d.IsInsertion() || d.Helix != n.Helix || d.Forward != n.Forward {
		return 0, false
	}
	switch n.Position {
	case d.Start:
		return d.End - 1, true
	case d.End - 1:
		return d.Start, true
	}
	return 0, false
}

// HasNucl returns the index of n within d, counted from the 5' end.
func (d Domain) HasNucl(n Nucl) (int, bool) {
	if d.IsInsertion() || d.Helix != n.Helix || d.Forward != n.Forward {
		return 0, false
	}
	return d.indexOf(n.Position, d.Start, d.End)
}

func (d Domain) indexOf(pos, start, end int) (int, bool) {
	if pos < start || pos > end-1 {
		return 0, false
	}
	if d.Forward {
		return pos - start, true
	}
	return end - 1 - pos, true
}

// HasVirtualNucl is HasNucl after coalescing d's helix with its support helix.
func (d Domain) HasVirtualNucl(v VirtualNucl, helices *HelixMap) (int, bool) {
	if d.IsInsertion() {
		return 0, false
	}
	helix, shift := d.Helix, 0
	if h, ok := helices.Get(d.Helix); ok {
		shift = h.InitialNtIndex
		if h.SupportHelix != nil {
			helix = *h.SupportHelix
		}
	}
	if helix != v.Helix || d.Forward != v.Forward {
		return 0, false
	}
	return d.indexOf(v.Position, d.Start+shift, d.End+shift)
}

// Positions lists the positions covered by d in 5' to 3' order.
func (d Domain) Positions() []int {
	if d.IsInsertion() {
		return nil
	}
	out := make([]int, 0, d.Length())
	if d.Forward {
		for p := d.Start; p < d.End; p++ {
			out = append(out, p)
		}
		return out
	}
	for p := d.End - 1; p >= d.Start; p-- {
		out = append(out, p)
	}
	return out
}

// Nucls lists the nucleotides of d in 5' to 3' order.
func (d Domain) Nucls() []Nucl {
	positions := d.Positions()
	out := make([]Nucl, len(positions))
	for i, p := range positions {
		out[i] = Nucl{Helix: d.Helix, Position: p, Forward: d.Forward}
	}
	return out
}

// Split cuts d after its n-th nucleotide (counted from the 5' end) and
// returns the 5' and 3' halves. The 3' half is empty when n is the last index.
func (d Domain) Split(n int) (Domain, Domain, bool) {
	if d.IsInsertion() || n < 0 || d.End-1-d.Start < n {
		return Domain{}, Domain{}, false
	}
	seq5, seq3 := splitSequence(d.Sequence, n+1)
	if d.Forward {
		p5 := HelixDomain(d.Helix, d.Start, d.Start+n+1, true)
		p3 := HelixDomain(d.Helix, d.Start+n+1, d.End, true)
		p5.Sequence, p3.Sequence = seq5, seq3
		return p5, p3, true
	}
	p5 := HelixDomain(d.Helix, d.End-1-n, d.End, false)
	p3 := HelixDomain(d.Helix, d.Start, d.End-1-n, false)
	p5.Sequence, p3.Sequence = seq5, seq3
	return p5, p3, true
}

func splitSequence(seq string, n int) (string, string) {
	if seq == "" {
		return "", ""
	}
	runes := []rune(seq)
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n]), string(runes[n:])
}

// CanMerge reports whether other directly continues d on the same half-helix,
// or whether both are insertions.
func (d Domain) CanMerge(other Domain) bool {
	switch {
	case d.IsInsertion() && other.IsInsertion():
		return true
	case d.IsInsertion() || other.IsInsertion():
		return false
	case d.Helix != other.Helix || d.Forward != other.Forward:
		return false
	case d.Forward:
		return d.End == other.Start
	default:
		return d.Start == other.End
	}
}

// Merge extends d with other. Insertions add their lengths and concatenate
// their sequences; intervals on the same helix take the union of their bounds.
// Other combinations leave d unchanged.
func (d *Domain) Merge(other Domain) {
	switch {
	case d.IsInsertion() && other.IsInsertion():
		d.NbNucl += other.NbNucl
		d.Sequence += other.Sequence
	case !d.IsInsertion() && !other.IsInsertion() && d.Helix == other.Helix:
		d.Start = min(d.Start, other.Start)
		d.End = max(d.End, other.End)
	}
}

// Intersect reports whether d and other share a nucleotide.
func (d Domain) Intersect(other Domain) bool {
	if d.IsInsertion() || other.IsInsertion() {
		return false
	}
	return d.Helix == other.Helix && d.Forward == other.Forward &&
		d.Start < other.End && other.Start < d.End
}

// IsNeighbour reports whether d and other lie on the same half-helix with one
// of them starting at position 0. Such domains are counted as one when a
// cyclic scaffold wraps around position 0.
func (d Domain) IsNeighbour(other Domain) bool {
	h1, ok1 := d.HalfHelix()
	h2, ok2 := other.HalfHelix()
	return ok1 && ok2 && h1 == h2 && (d.Start == 0 || other.Start == 0)
}

type helixDomainJSON struct {
	Helix    HelixID `json:"helix"`
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Forward  bool    `json:"forward"`
	Sequence *string `json:"sequence,omitempty"`
}

type insertionJSON struct {
	Loopout          int     `json:"loopout"`
	Sequence         *string `json:"sequence,omitempty"`
	AttachedToPrime3 bool    `json:"attached_to_prime3,omitempty"`
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MarshalJSON writes insertions as {"loopout": n} and intervals with their
// helix fields.
func (d Domain) MarshalJSON() ([]byte, error) {
	if d.IsInsertion() {
		return json.Marshal(insertionJSON{Loopout: d.NbNucl, Sequence: optString(d.Sequence), AttachedToPrime3: d.AttachedToPrime3})
	}
	return json.Marshal(helixDomainJSON{Helix: d.Helix, Start: d.Start, End: d.End, Forward: d.Forward, Sequence: optString(d.Sequence)})
}

func (d *Domain) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode domain: %w", err)
	}
	if _, ok := probe["loopout"]; ok {
		var ins insertionJSON
		if err := json.Unmarshal(data, &ins); err != nil {
			return fmt.Errorf("decode insertion: %w", err)
		}
		*d = Domain{Kind: DomainInsertion, NbNucl: ins.Loopout, AttachedToPrime3: ins.AttachedToPrime3}
		if ins.Sequence != nil {
			d.Sequence = *ins.Sequence
		}
		return nil
	}
	var hd helixDomainJSON
	if err := json.Unmarshal(data, &hd); err != nil {
		return fmt.Errorf("decode helix domain: %w", err)
	}
	*d = HelixDomain(hd.Helix, hd.Start, hd.End, hd.Forward)
	if hd.Sequence != nil {
		d.Sequence = *hd.Sequence
	}
	return nil
}
