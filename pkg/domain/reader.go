package domain

import (
	"fmt"
	"strings"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Referential selects the frame in which positions are expressed.
type Referential int

const (
	// Model is the frame of the design itself.
	Model Referential = iota
	// World is the model frame moved by the reader's model pose.
	World
)

// Pose is a rigid motion applied to the whole design when it is displayed.
type Pose struct {
	Rotation    Rotor
	Translation Vec3
}

func (p Pose) apply(v Vec3) Vec3 {
	return r3.Add(p.Rotation.Rotate(v), p.Translation)
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithModelPose sets the pose used for the World referential.
func WithModelPose(p Pose) ReaderOption {
	return func(r *Reader) { r.pose = p }
}

const defaultStrandName = "Unnamed strand"

// Reader is a read-only view of a design snapshot for renderers and
// exporters. Every method returns values that the caller may keep.
type Reader struct {
	d    *Design
	pose Pose

	once        sync.Once
	identifiers map[Nucl]int
}

// NewReader returns a reader over d. d must not be modified afterwards.
func NewReader(d *Design, opts ...ReaderOption) *Reader {
	r := &Reader{d: d, pose: Pose{Rotation: IdentityRotor()}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Design returns the snapshot read by r.
func (r *Reader) Design() *Design { return r.d }

func (r *Reader) params() Parameters { return r.d.Parameters.OrDefault() }

// AllStrandIDs lists the strands in id order.
func (r *Reader) AllStrandIDs() []StrandID { return r.d.Strands.Keys() }

// StrandPoints returns the backbone positions of the nucleotides of strand s,
// from 5' to 3'. Insertions have no position.
func (r *Reader) StrandPoints(s StrandID) ([]Vec3, bool) {
	strand, ok := r.d.Strand(s)
	if !ok {
		return nil, false
	}
	p := r.params()
	var out []Vec3
	for _, n := range strand.Nucls() {
		h, ok := r.d.Helix(n.Helix)
		if !ok {
			continue
		}
		out = append(out, h.SpacePos(p, n.Position, n.Forward))
	}
	return out, true
}

// StrandColor returns the colour of strand s as 0xAARRGGBB.
func (r *Reader) StrandColor(s StrandID) (uint32, bool) {
	strand, ok := r.d.Strand(s)
	if !ok {
		return 0, false
	}
	return strand.Color, true
}

// StrandLength returns the number of nucleotides of strand s.
func (r *Reader) StrandLength(s StrandID) (int, bool) {
	strand, ok := r.d.Strand(s)
	if !ok {
		return 0, false
	}
	return strand.Length(), true
}

// IsScaffold reports whether s is the scaffold.
func (r *Reader) IsScaffold(s StrandID) bool { return r.d.IsScaffold(s) }

// StrandName returns the name of strand s, or a placeholder for unnamed and
// unknown strands.
func (r *Reader) StrandName(s StrandID) string {
	if strand, ok := r.d.Strand(s); ok && strand.Name != "" {
		return strand.Name
	}
	return defaultStrandName
}

// Insertions returns the nucleotides on which the insertions of s hang.
func (r *Reader) Insertions(s StrandID) ([]Nucl, bool) {
	strand, ok := r.d.Strand(s)
	if !ok {
		return nil, false
	}
	return strand.Insertions(), true
}

// Helices returns the helix map of the snapshot. It is shared and must not be
// modified.
func (r *Reader) Helices() *HelixMap { return r.d.Helices }

// HelixGridPosition returns the grid attachment of helix h.
func (r *Reader) HelixGridPosition(h HelixID) (HelixGridPosition, bool) {
	helix, ok := r.d.Helix(h)
	if !ok || helix.GridPosition == nil {
		return HelixGridPosition{}, false
	}
	return *helix.GridPosition, true
}

// HelixVisibility reports whether helix h is visible.
func (r *Reader) HelixVisibility(h HelixID) (bool, bool) {
	helix, ok := r.d.Helix(h)
	if !ok {
		return false, false
	}
	return helix.Visible, true
}

// IdentifierNucl returns a dense identifier of n, stable for the lifetime of
// the reader. Nucleotides are numbered strand after strand from 5' to 3'.
func (r *Reader) IdentifierNucl(n Nucl) (int, bool) {
	r.once.Do(func() {
		r.identifiers = make(map[Nucl]int)
		for _, s := range r.d.Strands.All() {
			for _, nucl := range s.Nucls() {
				if _, seen := r.identifiers[nucl]; !seen {
					r.identifiers[nucl] = len(r.identifiers)
				}
			}
		}
	})
	id, ok := r.identifiers[n]
	return id, ok
}

// PositionOfNuclOnHelix returns the position of n, or of the axis point at
// n's index when onAxis is set. n need not belong to a strand.
func (r *Reader) PositionOfNuclOnHelix(n Nucl, ref Referential, onAxis bool) (Vec3, bool) {
	h, ok := r.d.Helix(n.Helix)
	if !ok {
		return Vec3{}, false
	}
	p := r.params()
	var pos Vec3
	if onAxis {
		pos = h.AxisPosition(p, n.Position)
	} else {
		pos = h.SpacePos(p, n.Position, n.Forward)
	}
	if ref == World {
		pos = r.pose.apply(pos)
	}
	return pos, true
}

// BasisMap returns the base carried by each nucleotide whose sequence is
// known: the scaffold sequence shifted by the scaffold shift, explicit strand
// and domain sequences, and the complements of those on paired nucleotides.
func (r *Reader) BasisMap() map[Nucl]byte {
	out := make(map[Nucl]byte)
	paired := make(map[Nucl]byte)
	assign := func(n Nucl, b byte) {
		c, ok := complementBase(b)
		if !ok {
			return
		}
		out[n] = b
		paired[n.Compl()] = c
	}
	for id, s := range r.d.Strands.All() {
		if r.d.IsScaffold(id) {
			continue
		}
		r.strandBases(s, assign)
	}
	if s, ok := r.scaffold(); ok {
		seq := bases(r.d.ScaffoldSequence)
		if len(seq) > 0 {
			i := len(seq) - r.d.ScaffoldShift%len(seq)
			for _, dom := range s.Domains {
				if dom.IsInsertion() {
					i += dom.NbNucl
					continue
				}
				for _, n := range dom.Nucls() {
					assign(n, seq[i%len(seq)])
					i++
				}
			}
		}
	}
	for n, b := range paired {
		if _, known := out[n]; known {
			continue
		}
		if _, onStrand := r.d.StrandOfNucl(n); onStrand {
			out[n] = b
		}
	}
	return out
}

func (r *Reader) strandBases(s *Strand, assign func(Nucl, byte)) {
	seq := bases(s.Sequence)
	i := 0
	for _, dom := range s.Domains {
		own := bases(dom.Sequence)
		if dom.IsInsertion() {
			i += dom.NbNucl
			continue
		}
		for k, n := range dom.Nucls() {
			switch {
			case k < len(own):
				assign(n, own[k])
			case i < len(seq):
				assign(n, seq[i])
			}
			i++
		}
	}
}

func (r *Reader) scaffold() (*Strand, bool) {
	if r.d.Scaffold == nil {
		return nil, false
	}
	return r.d.Strand(*r.d.Scaffold)
}

func bases(seq string) []byte {
	out := make([]byte, 0, len(seq))
	for i := 0; i < len(seq); i++ {
		c := seq[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			out = append(out, c)
		}
	}
	return out
}

func complementBase(b byte) (byte, bool) {
	switch b {
	case 'A':
		return 'T', true
	case 'T':
		return 'A', true
	case 'G':
		return 'C', true
	case 'C':
		return 'G', true
	case 'a':
		return 't', true
	case 't':
		return 'a', true
	case 'g':
		return 'c', true
	case 'c':
		return 'g', true
	}
	return 0, false
}

// XoverID returns the id of crossover (n5, n3).
func (r *Reader) XoverID(n5, n3 Nucl) (XoverID, bool) { return r.d.Xovers().ID(n5, n3) }

// XoverWithID returns the ends of crossover id.
func (r *Reader) XoverWithID(id XoverID) (Nucl, Nucl, bool) { return r.d.Xovers().Xover(id) }

// XoversListWithID lists every crossover ordered by id.
func (r *Reader) XoversListWithID() []XoverWithID { return r.d.Xovers().List() }

// XoverLength is the distance between the ends of a crossover. Neighbour is
// set when a crossover joins the nucleotides next to its ends.
type XoverLength struct {
	Length    float64
	Neighbour *float64
}

// XoverLength measures crossover id and its neighbour, if any.
func (r *Reader) XoverLength(id XoverID) (XoverLength, bool) {
	reg := r.d.Xovers()
	n1, n2, ok := reg.Xover(id)
	if !ok {
		return XoverLength{}, false
	}
	l, ok := r.nuclDistance(n1, n2)
	if !ok {
		return XoverLength{}, false
	}
	out := XoverLength{Length: l}
	candidates := [][2]Nucl{
		{n1.Prime3(), n2.Prime5()},
		{n1.Prime5(), n2.Prime3()},
		{n2.Prime5(), n1.Prime3()},
		{n2.Prime3(), n1.Prime5()},
	}
	for _, c := range candidates {
		other, ok := reg.ID(c[0], c[1])
		if !ok || other == id {
			continue
		}
		if a, b, ok := reg.Xover(other); ok {
			if nl, ok := r.nuclDistance(a, b); ok {
				out.Neighbour = &nl
				break
			}
		}
	}
	return out, true
}

func (r *Reader) nuclDistance(a, b Nucl) (float64, bool) {
	pa, ok1 := r.PositionOfNuclOnHelix(a, Model, false)
	pb, ok2 := r.PositionOfNuclOnHelix(b, Model, false)
	if !ok1 || !ok2 {
		return 0, false
	}
	return r3.Norm(r3.Sub(pa, pb)), true
}

// IsXoverEnd reports whether n is the end of a crossover.
func (r *Reader) IsXoverEnd(n Nucl) bool { return r.d.Xovers().IsEnd(n) }

// IsStrandEnd reports whether n ends its strand.
func (r *Reader) IsStrandEnd(n Nucl) Extremity {
	s, ok := r.d.StrandOfNucl(n)
	if !ok {
		return NotAnEnd
	}
	strand, _ := r.d.Strand(s)
	return strand.IsStrandEnd(n)
}

// GridObjectAt returns the helix standing on pos.
func (r *Reader) GridObjectAt(pos GridPosition) (HelixID, bool) {
	return r.d.GridData().PosToHelix(pos)
}

// GetEdge returns the edge from one vertex to another of the same grid.
func (r *Reader) GetEdge(from, to GridPosition) (Edge, bool) {
	return r.d.GridData().GetEdge(from, to)
}

// TranslateByEdge applies e at pos.
func (r *Reader) TranslateByEdge(pos GridPosition, e Edge) (GridPosition, bool) {
	out, ok := r.d.GridData().TranslateByEdge(pos, e)
	return out.Light(), ok
}

// PosToHelix returns the helix at vertex (x, y) of grid g.
func (r *Reader) PosToHelix(g GridID, x, y int) (HelixID, bool) {
	return r.d.GridData().PosToHelix(GridPosition{Grid: g, X: x, Y: y})
}

// GridHasPersistentPhantom reports whether phantom helices stay displayed on g.
func (r *Reader) GridHasPersistentPhantom(g GridID) bool {
	return r.d.GridData().HasPersistentPhantom(g)
}

// GridHasSmallSpheres reports whether the helices of g use small spheres.
func (r *Reader) GridHasSmallSpheres(g GridID) bool {
	return r.d.GridData().HasSmallSpheres(g)
}

// GridNbTurn returns the number of turns of hyperboloid grid g.
func (r *Reader) GridNbTurn(g GridID) (float64, bool) {
	grid, ok := r.d.GridData().Grid(g)
	if !ok {
		return 0, false
	}
	return grid.NbTurn()
}

// ScaffoldID returns the scaffold strand.
func (r *Reader) ScaffoldID() (StrandID, bool) {
	if r.d.Scaffold == nil {
		return 0, false
	}
	return *r.d.Scaffold, true
}

// LengthDecomposition renders the length of strand s as a sum of domain
// lengths.
func (r *Reader) LengthDecomposition(s StrandID) (string, bool) {
	strand, ok := r.d.Strand(s)
	if !ok {
		return "", false
	}
	return strand.LengthDecomposition(), true
}

// NuclIsAnchor reports whether n is an anchor.
func (r *Reader) NuclIsAnchor(n Nucl) bool { return r.d.Anchors.Has(n) }

// Summary describes a design in a few lines: element counts and, for every
// strand, its name and length decomposition.
func (r *Reader) Summary() string {
	var b strings.Builder
	name := r.d.Name
	if name == "" {
		name = "(unnamed design)"
	}
	fmt.Fprintf(&b, "%s\n", name)
	fmt.Fprintf(&b, "helices: %d\nstrands: %d\ngrids: %d\nxovers: %d\n",
		r.d.Helices.Len(), r.d.Strands.Len(), len(r.d.GridData().GridIDs()), r.d.Xovers().Len())
	for _, id := range r.AllStrandIDs() {
		decomposition, _ := r.LengthDecomposition(id)
		marker := ""
		if r.IsScaffold(id) {
			marker = " (scaffold)"
		}
		fmt.Fprintf(&b, "  strand %d%s: %s, %s\n", id, marker, r.StrandName(id), decomposition)
	}
	return b.String()
}
