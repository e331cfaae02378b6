package core

import (
	"gonum.org/v1/gonum/spatial/r3"

	"origamicore/pkg/domain"
)

// Clipboard is the content of the last copy. It lives in the controller and
// is not restored by undo.
type Clipboard interface {
	clipboard()
}

// TemplateOrigin is the lattice anchor of a strand template: the grid
// position of the first helix domain and its 5' position.
type TemplateOrigin struct {
	Position domain.GridPosition
	Start    int
	Forward  bool
}

// DomainTemplate is a domain stripped of its helix. Insertion is the length
// of an insertion domain and zero for a helix interval.
type DomainTemplate struct {
	Insertion int
	Start     int
	End       int
	Forward   bool
}

// StrandTemplate records a strand relative to the lattice. Edges[i] leads
// from the grid position of helix domain i to that of helix domain i+1.
type StrandTemplate struct {
	Origin  TemplateOrigin
	Domains []DomainTemplate
	Edges   []domain.Edge
}

// DuplicationEdge moves a pasting point to the next copy: the helix moves
// along Edge and the position by Shift.
type DuplicationEdge struct {
	Edge  domain.Edge
	Shift int
}

// StrandClipboard holds copied strands. TemplateEdges[i] leads from the 5'
// end of the first strand to the 5' end of strand i+1.
type StrandClipboard struct {
	Templates     []StrandTemplate
	TemplateEdges []DuplicationEdge
}

// XoverClipboard holds copied crossovers as (5', 3') pairs.
type XoverClipboard struct {
	Xovers [][2]domain.Nucl
}

// HelixClipboard holds the grid positions of copied helices.
type HelixClipboard struct {
	Positions []domain.HelixGridPosition
}

// GridClipboard holds copied free grids.
type GridClipboard struct {
	Grids []domain.FreeGridID
}

func (*StrandClipboard) clipboard() {}
func (*XoverClipboard) clipboard()  {}
func (*HelixClipboard) clipboard()  {}
func (*GridClipboard) clipboard()   {}

// PastedStrand is the preview of one pasted strand. Positions are the
// space positions of its nucleotides.
type PastedStrand struct {
	Domains   []domain.Domain
	Positions []domain.Vec3
	Pastable  bool
}

func helixGridPosition(d *domain.Design, h domain.HelixID) (domain.GridPosition, error) {
	helix, ok := d.Helix(h)
	if !ok {
		return domain.GridPosition{}, HelixDoesNotExistError{Helix: h}
	}
	if helix.GridPosition == nil {
		return domain.GridPosition{}, HelixHasNoGridPositionError{Helix: h}
	}
	return helix.GridPosition.Light(), nil
}

func strandToTemplate(d *domain.Design, gd *domain.GridData, s *domain.Strand) (StrandTemplate, error) {
	var t StrandTemplate
	var previous *domain.GridPosition
	for _, dom := range s.Domains {
		if dom.IsInsertion() {
			t.Domains = append(t.Domains, DomainTemplate{Insertion: dom.NbNucl})
			continue
		}
		pos, err := helixGridPosition(d, dom.Helix)
		if err != nil {
			return StrandTemplate{}, err
		}
		if previous == nil {
			start := dom.Start
			if !dom.Forward {
				start = dom.End
			}
			t.Origin = TemplateOrigin{Position: pos, Start: start, Forward: dom.Forward}
		} else {
			e, ok := gd.GetEdge(*previous, pos)
			if !ok {
				return StrandTemplate{}, CouldNotMakeEdgeError{From: *previous, To: pos}
			}
			t.Edges = append(t.Edges, e)
		}
		previous = &pos
		t.Domains = append(t.Domains, DomainTemplate{Start: dom.Start, End: dom.End, Forward: dom.Forward})
	}
	if previous == nil {
		return StrandTemplate{}, ErrEmptyOrigin
	}
	return t, nil
}

// edgeBetweenStrands locates the 5' end of b relative to the 5' end of a.
func edgeBetweenStrands(d *domain.Design, gd *domain.GridData, a, b *domain.Strand) (DuplicationEdge, bool) {
	n1, ok1 := a.Get5Prime()
	n2, ok2 := b.Get5Prime()
	if !ok1 || !ok2 {
		return DuplicationEdge{}, false
	}
	p1, err1 := helixGridPosition(d, n1.Helix)
	p2, err2 := helixGridPosition(d, n2.Helix)
	if err1 != nil || err2 != nil {
		return DuplicationEdge{}, false
	}
	e, ok := gd.GetEdge(p1, p2)
	if !ok {
		return DuplicationEdge{}, false
	}
	return DuplicationEdge{Edge: e, Shift: n2.Position - n1.Position}, true
}

func copyStrands(d *domain.Design, ids []domain.StrandID) (*StrandClipboard, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	gd := d.GridData()
	cb := &StrandClipboard{}
	strands := make([]*domain.Strand, 0, len(ids))
	for _, id := range ids {
		s, ok := d.Strand(id)
		if !ok {
			return nil, StrandDoesNotExistError{Strand: id}
		}
		t, err := strandToTemplate(d, gd, s)
		if err != nil {
			return nil, err
		}
		cb.Templates = append(cb.Templates, t)
		strands = append(strands, s)
	}
	for _, s := range strands[1:] {
		e, ok := edgeBetweenStrands(d, gd, strands[0], s)
		if !ok {
			return nil, ErrCouldNotCreateEdges
		}
		cb.TemplateEdges = append(cb.TemplateEdges, e)
	}
	return cb, nil
}

func copyXovers(d *domain.Design, ids []domain.XoverID) (*XoverClipboard, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	reg := d.Xovers()
	cb := &XoverClipboard{}
	for _, id := range ids {
		n5, n3, ok := reg.Xover(id)
		if !ok {
			return nil, ErrBadSelection
		}
		cb.Xovers = append(cb.Xovers, [2]domain.Nucl{n5, n3})
	}
	return cb, nil
}

func copyHelices(d *domain.Design, ids []domain.HelixID) (*HelixClipboard, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cb := &HelixClipboard{}
	for _, id := range ids {
		h, ok := d.Helix(id)
		if !ok {
			return nil, HelixDoesNotExistError{Helix: id}
		}
		if h.GridPosition == nil {
			return nil, HelixHasNoGridPositionError{Helix: id}
		}
		cb.Positions = append(cb.Positions, *h.GridPosition)
	}
	return cb, nil
}

func copyGrids(d *domain.Design, ids []domain.FreeGridID) (*GridClipboard, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	for _, id := range ids {
		if !d.Grids.Has(id) {
			return nil, GridDoesNotExistError{Grid: domain.FreeGrid(id)}
		}
	}
	return &GridClipboard{Grids: ids}, nil
}

// translateNucl moves n along e on the lattice and by shift along the helix.
func translateNucl(d *domain.Design, gd *domain.GridData, n domain.Nucl, e DuplicationEdge) (domain.Nucl, bool) {
	pos, err := helixGridPosition(d, n.Helix)
	if err != nil {
		return domain.Nucl{}, false
	}
	moved, ok := gd.TranslateByEdge(pos, e.Edge)
	if !ok {
		return domain.Nucl{}, false
	}
	h, ok := gd.PosToHelix(moved.Light())
	if !ok {
		return domain.Nucl{}, false
	}
	return domain.Nucl{Helix: h, Position: n.Position + e.Shift, Forward: n.Forward}, true
}

// templateToDomains instantiates t so that its 5' end lies on n. It also
// returns the edge leading from the template origin to n.
func templateToDomains(d *domain.Design, gd *domain.GridData, t StrandTemplate, n domain.Nucl) ([]domain.Domain, DuplicationEdge, bool) {
	shift := n.Position - t.Origin.Start
	if !t.Origin.Forward {
		shift++
	}
	var out []domain.Domain
	var dup DuplicationEdge
	var previous *domain.GridPosition
	edges := t.Edges
	for _, dt := range t.Domains {
		if dt.Insertion > 0 {
			out = append(out, domain.NewInsertion(dt.Insertion))
			continue
		}
		var pos domain.GridPosition
		if previous == nil {
			target, err := helixGridPosition(d, n.Helix)
			if err != nil {
				return nil, DuplicationEdge{}, false
			}
			e, ok := gd.GetEdge(t.Origin.Position, target)
			if !ok {
				return nil, DuplicationEdge{}, false
			}
			dup = DuplicationEdge{Edge: e, Shift: shift}
			pos = target
		} else {
			if len(edges) == 0 {
				return nil, DuplicationEdge{}, false
			}
			moved, ok := gd.TranslateByEdge(*previous, edges[0])
			if !ok {
				return nil, DuplicationEdge{}, false
			}
			edges = edges[1:]
			pos = moved.Light()
		}
		h, ok := gd.PosToHelix(pos)
		if !ok {
			return nil, DuplicationEdge{}, false
		}
		out = append(out, domain.HelixDomain(h, dt.Start+shift, dt.End+shift, dt.Forward))
		previous = &pos
	}
	return out, dup, true
}

func canAddDomains(d *domain.Design, domains []domain.Domain) bool {
	for _, s := range d.Strands.All() {
		if s.IntersectDomains(domains) {
			return false
		}
	}
	return true
}

func pastedStrand(d *domain.Design, domains []domain.Domain) PastedStrand {
	p := d.Parameters.OrDefault()
	ps := PastedStrand{Domains: domains, Pastable: canAddDomains(d, domains)}
	for _, dom := range domains {
		if dom.IsInsertion() {
			continue
		}
		h, _ := d.Helix(dom.Helix)
		for _, n := range dom.Nucls() {
			ps.Positions = append(ps.Positions, h.SpacePos(p, n.Position, n.Forward))
		}
	}
	return ps
}

// positionStrandCopies previews cb pasted at n. The edge is nil when the
// first strand cannot be placed.
func positionStrandCopies(d *domain.Design, cb *StrandClipboard, n domain.Nucl) ([]PastedStrand, *DuplicationEdge) {
	if len(cb.Templates) == 0 {
		return nil, nil
	}
	gd := d.GridData()
	first, dup, ok := templateToDomains(d, gd, cb.Templates[0], n)
	if !ok {
		return nil, nil
	}
	pasted := []PastedStrand{pastedStrand(d, first)}
	for i, t := range cb.Templates[1:] {
		if i >= len(cb.TemplateEdges) {
			break
		}
		start, ok := translateNucl(d, gd, n, cb.TemplateEdges[i])
		if !ok {
			continue
		}
		domains, _, ok := templateToDomains(d, gd, t, start)
		if !ok {
			continue
		}
		pasted = append(pasted, pastedStrand(d, domains))
	}
	return pasted, &dup
}

// addPastedStrands commits the pastable strands of a preview.
func addPastedStrands(d *domain.Design, pasted []PastedStrand, colors *ColorAllocator) error {
	if len(pasted) == 0 || !pasted[0].Pastable {
		return ErrCannotPasteHere
	}
	for _, ps := range pasted {
		color := colors.Next()
		if !ps.Pastable {
			continue
		}
		s := &domain.Strand{Domains: append([]domain.Domain(nil), ps.Domains...), Color: color}
		s.Sanitize()
		d.AddStrand(s)
	}
	return nil
}

// pasteXovers makes the crossovers of cb at n. Crossovers reaching a
// nucleotide that already ends a crossover are skipped.
func pasteXovers(d *domain.Design, cb *XoverClipboard, n domain.Nucl) (DuplicationEdge, error) {
	if len(cb.Xovers) == 0 {
		return DuplicationEdge{}, ErrEmptyClipboard
	}
	gd := d.GridData()
	origin := cb.Xovers[0][0]
	from, err := helixGridPosition(d, origin.Helix)
	if err != nil {
		return DuplicationEdge{}, ErrCannotPasteHere
	}
	to, err := helixGridPosition(d, n.Helix)
	if err != nil {
		return DuplicationEdge{}, ErrCannotPasteHere
	}
	e, ok := gd.GetEdge(from, to)
	if !ok {
		return DuplicationEdge{}, ErrCannotPasteHere
	}
	dup := DuplicationEdge{Edge: e, Shift: n.Position - origin.Position}
	type pair struct{ n5, n3 domain.Nucl }
	var pairs []pair
	for i, x := range cb.Xovers {
		n5, ok5 := translateNucl(d, gd, x[0], dup)
		n3, ok3 := translateNucl(d, gd, x[1], dup)
		if !ok5 || !ok3 {
			if i == 0 {
				return DuplicationEdge{}, ErrCannotPasteHere
			}
			continue
		}
		pairs = append(pairs, pair{n5, n3})
	}
	applied := 0
	for _, p := range pairs {
		if d.IsTrueXoverEnd(p.n5) || d.IsTrueXoverEnd(p.n3) {
			continue
		}
		if _, ok := d.StrandOfNucl(p.n5); !ok {
			continue
		}
		if _, ok := d.StrandOfNucl(p.n3); !ok {
			continue
		}
		if err := generalXover(d, p.n5, p.n3); err != nil {
			return DuplicationEdge{}, err
		}
		applied++
	}
	if applied == 0 {
		return DuplicationEdge{}, ErrCannotPasteHere
	}
	return dup, nil
}

// pasteHelices adds a helix for every copied position moved along the edge
// from the first copied position to target.
func pasteHelices(d *domain.Design, cb *HelixClipboard, target domain.GridPosition) (domain.Edge, error) {
	if len(cb.Positions) == 0 {
		return nil, ErrEmptyClipboard
	}
	gd := d.GridData()
	e, ok := gd.GetEdge(cb.Positions[0].Light(), target)
	if !ok {
		return nil, ErrCannotPasteHere
	}
	if err := pasteHelicesAlong(d, gd, cb, e); err != nil {
		return nil, err
	}
	return e, nil
}

func pasteHelicesAlong(d *domain.Design, gd *domain.GridData, cb *HelixClipboard, e domain.Edge) error {
	taken := make(map[domain.GridPosition]bool)
	var placed []domain.HelixGridPosition
	for _, src := range cb.Positions {
		moved, ok := gd.TranslateByEdge(src.Light(), e)
		if !ok {
			return ErrCannotPasteHere
		}
		if _, used := gd.PosToHelix(moved.Light()); used || taken[moved.Light()] {
			return ErrCannotPasteHere
		}
		taken[moved.Light()] = true
		moved.Roll = src.Roll
		moved.AxisPos = src.AxisPos
		placed = append(placed, moved)
	}
	for _, pos := range placed {
		g, ok := gd.Grid(pos.Grid)
		if !ok {
			return GridDoesNotExistError{Grid: pos.Grid}
		}
		h := domain.NewOnGrid(g, pos.X, pos.Y, pos.Grid)
		gp := pos
		h.GridPosition = &gp
		gd.PlaceHelix(h)
		d.AddHelix(h)
	}
	return nil
}

// pasteGrids copies the grids of cb, the first one at point and the others
// at the same offset from it as in the source.
func pasteGrids(d *domain.Design, cb *GridClipboard, point domain.Vec3) error {
	if len(cb.Grids) == 0 {
		return ErrEmptyClipboard
	}
	first, ok := d.Grids.Get(cb.Grids[0])
	if !ok {
		return GridCopyError{Err: GridDoesNotExistError{Grid: domain.FreeGrid(cb.Grids[0])}}
	}
	for _, id := range cb.Grids {
		desc, ok := d.Grids.Get(id)
		if !ok {
			return GridCopyError{Err: GridDoesNotExistError{Grid: domain.FreeGrid(id)}}
		}
		position := r3.Add(point, r3.Sub(desc.Position, first.Position))
		if _, err := d.CopyGrid(id, position, desc.Orientation); err != nil {
			return err
		}
	}
	return nil
}
