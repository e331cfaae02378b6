package core

import (
	"slices"

	"origamicore/pkg/domain"
)

// forceEnd says on which side of a cut a nucleotide must end up.
type forceEnd int

const (
	// forceNone keeps the nucleotide on the 5' half unless it is the 3' end
	// of a crossover.
	forceNone forceEnd = iota
	forcePrime5
	forcePrime3
)

// splitStrand cuts the strand going through n. The half holding n keeps the
// strand id and the other half gets a fresh id, which is returned along with
// whether a second strand was created. A cyclic strand is opened instead.
func splitStrand(d *domain.Design, n domain.Nucl, force forceEnd) (domain.StrandID, bool, error) {
	id, ok := d.StrandOfNucl(n)
	if !ok {
		return 0, false, ErrCutNonExistingStrand
	}
	s, _ := d.Strand(id)
	if !s.Cyclic && s.Length() <= 1 {
		return 0, false, ErrCutNonExistingStrand
	}
	nucls := s.Nucls()
	j := slices.Index(nucls, n)
	onPrime3 := force == forcePrime3 || (force == forceNone && startsXover(s, n))
	cutAfter := n
	if onPrime3 {
		switch {
		case j > 0:
			cutAfter = nucls[j-1]
		case s.Cyclic:
			cutAfter = nucls[len(nucls)-1]
		default:
			return id, false, nil
		}
	}
	first, second, ok := s.SplitAt(cutAfter)
	if !ok {
		return 0, false, ErrCutNonExistingStrand
	}
	if s.Cyclic {
		d.SetStrand(id, first)
		return id, false, nil
	}
	if second == nil {
		return id, false, nil
	}
	if s.Sequence != "" {
		cut := min(first.Length(), len(s.Sequence))
		first.Sequence, second.Sequence = s.Sequence[:cut], s.Sequence[cut:]
	}
	top, _ := d.Strands.MaxKey()
	newID := max(top, id) + 1
	if onPrime3 {
		d.SetStrand(newID, first)
		d.SetStrand(id, second)
	} else {
		d.SetStrand(id, first)
		d.SetStrand(newID, second)
	}
	return newID, true, nil
}

// startsXover reports whether n is the 5' end of a domain that does not
// continue the previous domain's helix.
func startsXover(s *domain.Strand, n domain.Nucl) bool {
	for i, dom := range s.Domains {
		p5, ok := dom.Prime5End()
		if !ok || p5 != n {
			continue
		}
		if i == 0 {
			return true
		}
		prev := s.Domains[i-1]
		return prev.IsInsertion() || prev.Helix != dom.Helix
	}
	return false
}

// mergeStrands links the 3' end of prime5 to the 5' end of prime3. The
// result keeps the id and colour of prime5. Merging a strand with itself
// makes it cyclic.
func mergeStrands(d *domain.Design, prime5, prime3 domain.StrandID) error {
	a, ok := d.StrandMut(prime5)
	if !ok {
		return StrandDoesNotExistError{Strand: prime5}
	}
	if prime5 == prime3 {
		if a.Cyclic {
			return ErrBadSelection
		}
		a.Join(a)
		return nil
	}
	b, ok := d.Strand(prime3)
	if !ok {
		return StrandDoesNotExistError{Strand: prime3}
	}
	if a.Cyclic || b.Cyclic {
		return ErrBadSelection
	}
	wasScaffold := d.IsScaffold(prime3)
	a.Join(b)
	d.RemoveStrand(prime3)
	if wasScaffold {
		d.Scaffold = &prime5
	}
	return nil
}

// swapStrands exchanges the ids of two strands. The scaffold follows its
// strand.
func swapStrands(d *domain.Design, a, b domain.StrandID) {
	sa, _ := d.Strand(a)
	sb, _ := d.Strand(b)
	d.SetStrand(a, sb)
	d.SetStrand(b, sa)
	switch {
	case d.IsScaffold(a):
		d.Scaffold = &b
	case d.IsScaffold(b):
		d.Scaffold = &a
	}
}

// crossCut cuts target at n and links source to the half holding n:
// source is on the 5' side of the new crossover when target3Prime is set.
func crossCut(d *domain.Design, source, target domain.StrandID, n domain.Nucl, target3Prime bool) error {
	t, ok := d.Strand(target)
	if !ok {
		return StrandDoesNotExistError{Strand: target}
	}
	if _, ok := d.Strand(source); !ok {
		return StrandDoesNotExistError{Strand: source}
	}
	if owner, ok := d.StrandOfNucl(n); !ok || owner != target {
		return NuclDoesNotExistError{Nucl: n}
	}
	wasCyclic := t.Cyclic
	force := forcePrime5
	if target3Prime {
		force = forcePrime3
	}
	newID, split, err := splitStrand(d, n, force)
	if err != nil {
		return err
	}
	switch {
	case source == target:
		s, _ := d.StrandMut(source)
		if s.Cyclic {
			return ErrBadSelection
		}
		s.Join(s)
		return nil
	case !wasCyclic && split && target3Prime:
		swapStrands(d, target, newID)
		return mergeStrands(d, source, newID)
	case !wasCyclic && split:
		swapStrands(d, source, newID)
		return mergeStrands(d, target, newID)
	case target3Prime:
		return mergeStrands(d, source, target)
	default:
		return mergeStrands(d, target, source)
	}
}

// generalXover makes a crossover from source to target, cutting the
// strands going through them as needed. Ends decide the orientation: a
// crossover always leaves a 3' end and reaches a 5' end.
func generalXover(d *domain.Design, source, target domain.Nucl) error {
	if source.Helix == target.Helix {
		return ErrBadSelection
	}
	sourceID, ok := d.StrandOfNucl(source)
	if !ok {
		return NuclDoesNotExistError{Nucl: source}
	}
	targetID, ok := d.StrandOfNucl(target)
	if !ok {
		return NuclDoesNotExistError{Nucl: target}
	}
	src, _ := d.Strand(sourceID)
	tgt, _ := d.Strand(targetID)
	srcEnd := src.IsStrandEnd(source)
	tgtEnd := tgt.IsStrandEnd(target)

	switch {
	case srcEnd.IsEnd() && tgtEnd.IsEnd():
		if srcEnd == tgtEnd {
			return ErrBadSelection
		}
		if srcEnd.Is3Prime() {
			return mergeStrands(d, sourceID, targetID)
		}
		return mergeStrands(d, targetID, sourceID)
	case srcEnd.IsEnd():
		return crossCut(d, sourceID, targetID, target, srcEnd.Is3Prime())
	case tgtEnd.IsEnd():
		return crossCut(d, targetID, sourceID, source, tgtEnd.Is3Prime())
	case sourceID != targetID:
		if _, _, err := splitStrand(d, source, forcePrime5); err != nil {
			return err
		}
		return crossCut(d, sourceID, targetID, target, true)
	case src.Cyclic:
		if _, _, err := splitStrand(d, source, forcePrime5); err != nil {
			return err
		}
		return crossCut(d, sourceID, targetID, target, true)
	}
	nucls := src.Nucls()
	pos1, pos2 := slices.Index(nucls, source), slices.Index(nucls, target)
	if pos1 > pos2 {
		if _, _, err := splitStrand(d, source, forcePrime5); err != nil {
			return err
		}
		return crossCut(d, sourceID, targetID, target, true)
	}
	newID, split, err := splitStrand(d, source, forcePrime5)
	if err != nil {
		return err
	}
	if !split {
		return ErrBadSelection
	}
	return crossCut(d, sourceID, newID, target, true)
}

func makeStrand(d *domain.Design, op MakeStrand, colors *ColorAllocator) error {
	if _, ok := d.Helix(op.Nucl.Helix); !ok {
		return HelixDoesNotExistError{Helix: op.Nucl.Helix}
	}
	if _, taken := d.StrandOfNucl(op.Nucl); taken {
		return CannotBuildOnError{Nucl: op.Nucl}
	}
	color := op.Color
	if color == 0 {
		color = colors.Next()
	}
	d.AddStrand(domain.NewStrand(op.Nucl.Helix, op.Nucl.Position, op.Nucl.Forward, color))
	return nil
}

func cut(d *domain.Design, op Cut) error {
	owner, ok := d.StrandOfNucl(op.Nucl)
	if !ok || owner != op.Strand {
		return ErrCutNonExistingStrand
	}
	_, _, err := splitStrand(d, op.Nucl, forceNone)
	return err
}

func removeStrands(d *domain.Design, ids []domain.StrandID) error {
	for _, id := range ids {
		if _, ok := d.Strand(id); !ok {
			return StrandDoesNotExistError{Strand: id}
		}
		d.RemoveStrand(id)
	}
	return nil
}

func removeHelix(d *domain.Design, h domain.HelixID) error {
	if _, ok := d.Helix(h); !ok {
		return HelixDoesNotExistError{Helix: h}
	}
	if len(d.StrandsOnHelix(h)) > 0 {
		return HelixNotEmptyError{Helix: h}
	}
	d.RemoveHelix(h)
	return nil
}

func removeGrid(d *domain.Design, g domain.FreeGridID) error {
	id := domain.FreeGrid(g)
	helices, ok := d.GridData().HelicesOnGrid(id)
	if !ok {
		return GridDoesNotExistError{Grid: id}
	}
	if len(helices) > 0 {
		return GridNotEmptyError{Grid: id}
	}
	d.RemoveGrid(g)
	return nil
}

// addGridHelix puts a helix on a free grid vertex, with two complementary
// strands over [start, start+length) when length is positive.
func addGridHelix(d *domain.Design, op AddGridHelix, colors *ColorAllocator) error {
	gd := d.GridData()
	if _, taken := gd.PosToHelix(op.Position); taken {
		return ErrGridPositionAlreadyUsed
	}
	g, ok := gd.Grid(op.Position.Grid)
	if !ok {
		return GridDoesNotExistError{Grid: op.Position.Grid}
	}
	h := d.AddHelix(domain.NewOnGrid(g, op.Position.X, op.Position.Y, op.Position.Grid))
	if op.Length <= 0 {
		return nil
	}
	for _, forward := range []bool{false, true} {
		s := &domain.Strand{
			Domains: []domain.Domain{domain.HelixDomain(h, op.Start, op.Start+op.Length, forward)},
			Color:   colors.Next(),
		}
		s.Sanitize()
		d.AddStrand(s)
	}
	return nil
}

func toggleCyclic(d *domain.Design, id domain.StrandID) error {
	s, ok := d.StrandMut(id)
	if !ok {
		return StrandDoesNotExistError{Strand: id}
	}
	if !s.Cyclic {
		s.Join(s)
		return nil
	}
	nucls := s.Nucls()
	if len(nucls) == 0 {
		return ErrBadSelection
	}
	opened, _, _ := s.SplitAt(nucls[len(nucls)-1])
	d.SetStrand(id, opened)
	return nil
}

func setInsertionLength(d *domain.Design, op SetInsertionLength) error {
	id, ok := d.StrandOfNucl(op.Nucl)
	if !ok {
		return NuclDoesNotExistError{Nucl: op.Nucl}
	}
	s, _ := d.StrandMut(id)
	if !s.SetInsertionLength(op.Nucl, !op.Prime5, op.Length) && op.Length > 0 {
		return ErrBadSelection
	}
	return nil
}

func recolorStaples(d *domain.Design, colors *ColorAllocator) {
	for _, id := range d.Strands.Keys() {
		if d.IsScaffold(id) {
			continue
		}
		s, _ := d.StrandMut(id)
		s.Color = colors.Next()
	}
}
