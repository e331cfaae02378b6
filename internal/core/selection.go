package core

import (
	"slices"

	"origamicore/pkg/domain"
)

// Selection is one element picked by the user. A controller edits a single
// design so selections carry no design index.
type Selection interface {
	selection()
}

type (
	// SelectNothing is the empty selection.
	SelectNothing struct{}
	// SelectDesign selects the whole design.
	SelectDesign struct{}
	SelectGrid   struct {
		Grid domain.GridID
	}
	SelectHelix struct {
		Helix domain.HelixID
	}
	SelectStrand struct {
		Strand domain.StrandID
	}
	SelectNucl struct {
		Nucl domain.Nucl
	}
	// SelectBound selects the link between two consecutive nucleotides.
	SelectBound struct {
		Prime5 domain.Nucl
		Prime3 domain.Nucl
	}
	SelectXover struct {
		Xover domain.XoverID
	}
	// SelectPhantom selects a position of a helix where no strand lies.
	SelectPhantom struct {
		Phantom PhantomElement
	}
	SelectBezierVertex struct {
		Vertex domain.BezierVertexID
	}
)

// PhantomElement addresses a nucleotide, or the bound following it, on a
// helix whether or not a strand goes through it.
type PhantomElement struct {
	Helix    domain.HelixID
	Position int
	Forward  bool
	Bound    bool
}

// Nucl returns the nucleotide under p.
func (p PhantomElement) Nucl() domain.Nucl {
	return domain.Nucl{Helix: p.Helix, Position: p.Position, Forward: p.Forward}
}

func (SelectNothing) selection()      {}
func (SelectDesign) selection()       {}
func (SelectGrid) selection()         {}
func (SelectHelix) selection()        {}
func (SelectStrand) selection()       {}
func (SelectNucl) selection()         {}
func (SelectBound) selection()        {}
func (SelectXover) selection()        {}
func (SelectPhantom) selection()      {}
func (SelectBezierVertex) selection() {}

// CoreIDs gathers the design objects designated by a selection.
type CoreIDs struct {
	Strands  []domain.StrandID
	Helices  []domain.HelixID
	Grids    []domain.GridID
	Xovers   []domain.XoverID
	Nucls    []domain.Nucl
	Vertices []domain.BezierVertexID
}

// SelectionToCoreIDs resolves sel against d. Nucleotides and bounds also
// designate the strands going through them; a bound between two domains of
// a strand designates the matching crossover. Results are sorted and free of
// duplicates.
func SelectionToCoreIDs(sel []Selection, d *domain.Design) CoreIDs {
	var ids CoreIDs
	xovers := d.Xovers()
	for _, s := range sel {
		switch s := s.(type) {
		case SelectDesign:
			ids.Strands = append(ids.Strands, d.Strands.Keys()...)
			ids.Helices = append(ids.Helices, d.Helices.Keys()...)
			ids.Grids = append(ids.Grids, d.GridData().GridIDs()...)
		case SelectGrid:
			ids.Grids = append(ids.Grids, s.Grid)
		case SelectHelix:
			ids.Helices = append(ids.Helices, s.Helix)
		case SelectStrand:
			ids.Strands = append(ids.Strands, s.Strand)
		case SelectNucl:
			ids.Nucls = append(ids.Nucls, s.Nucl)
			if id, ok := d.StrandOfNucl(s.Nucl); ok {
				ids.Strands = append(ids.Strands, id)
			}
		case SelectBound:
			if id, ok := xovers.ID(s.Prime5, s.Prime3); ok {
				ids.Xovers = append(ids.Xovers, id)
			}
			if id, ok := d.StrandOfNucl(s.Prime5); ok {
				ids.Strands = append(ids.Strands, id)
			}
		case SelectXover:
			if _, _, ok := xovers.Xover(s.Xover); ok {
				ids.Xovers = append(ids.Xovers, s.Xover)
			}
		case SelectPhantom:
			ids.Helices = append(ids.Helices, s.Phantom.Helix)
		case SelectBezierVertex:
			ids.Vertices = append(ids.Vertices, s.Vertex)
		}
	}
	ids.Strands = sortedUnique(ids.Strands)
	ids.Helices = sortedUnique(ids.Helices)
	ids.Xovers = sortedUnique(ids.Xovers)
	slices.SortFunc(ids.Grids, domain.GridID.Compare)
	ids.Grids = slices.Compact(ids.Grids)
	slices.SortFunc(ids.Nucls, domain.Nucl.Compare)
	ids.Nucls = slices.Compact(ids.Nucls)
	return ids
}

// ListOfStrands returns the strands of a selection made only of strands and
// nucleotides.
func ListOfStrands(sel []Selection, d *domain.Design) ([]domain.StrandID, bool) {
	var out []domain.StrandID
	for _, s := range sel {
		switch s := s.(type) {
		case SelectStrand:
			out = append(out, s.Strand)
		case SelectNucl:
			id, ok := d.StrandOfNucl(s.Nucl)
			if !ok {
				return nil, false
			}
			out = append(out, id)
		default:
			return nil, false
		}
	}
	return sortedUnique(out), len(out) > 0
}

// ListOfXovers returns the crossovers of a selection made only of crossovers
// and bounds. Bounds that are not crossovers are skipped.
func ListOfXovers(sel []Selection, d *domain.Design) ([]domain.XoverID, bool) {
	xovers := d.Xovers()
	var out []domain.XoverID
	for _, s := range sel {
		switch s := s.(type) {
		case SelectXover:
			out = append(out, s.Xover)
		case SelectBound:
			if id, ok := xovers.ID(s.Prime5, s.Prime3); ok {
				out = append(out, id)
			}
		default:
			return nil, false
		}
	}
	return sortedUnique(out), len(sel) > 0
}

// ListOfHelices returns the helices of sel, ignoring other kinds.
func ListOfHelices(sel []Selection) ([]domain.HelixID, bool) {
	var out []domain.HelixID
	for _, s := range sel {
		if h, ok := s.(SelectHelix); ok {
			out = append(out, h.Helix)
		}
	}
	return sortedUnique(out), len(out) > 0
}

// ExtractNucls returns the nucleotides and phantom nucleotides of sel.
func ExtractNucls(sel []Selection) []domain.Nucl {
	var out []domain.Nucl
	for _, s := range sel {
		switch s := s.(type) {
		case SelectNucl:
			out = append(out, s.Nucl)
		case SelectPhantom:
			if !s.Phantom.Bound {
				out = append(out, s.Phantom.Nucl())
			}
		}
	}
	return out
}

func sortedUnique[T interface{ ~int }](in []T) []T {
	slices.Sort(in)
	return slices.Compact(in)
}
