package core

import (
	"origamicore/pkg/domain"
)

// DomainEnd says which end of a domain a builder moves.
type DomainEnd int

const (
	// DomainEndAny is used for one nucleotide domains, which grow either way.
	DomainEndAny DomainEnd = iota
	DomainEndStart
	DomainEndEnd
)

// DomainIdentifier addresses a domain of a strand and the end being edited.
type DomainIdentifier struct {
	Strand domain.StrandID
	Domain int
	End    DomainEnd
}

// SameDomain reports whether i and o designate the same domain.
func (i DomainIdentifier) SameDomain(o DomainIdentifier) bool {
	return i.Strand == o.Strand && i.Domain == o.Domain
}

// EditDirection restricts where the end of an attached neighbour may go.
type EditDirection int

const (
	EditNone EditDirection = iota
	EditBoth
	// EditNegative allows positions below the initial one.
	EditNegative
	// EditPositive allows positions above the initial one.
	EditPositive
)

// NeighbourDescriptor describes the end of a domain that a builder may drag
// along.
type NeighbourDescriptor struct {
	Identifier       DomainIdentifier
	InitialMovingEnd int
	MovingEnd        int
	FixedEnd         int
}

// NeighbourAt returns the domain whose end is n.
func NeighbourAt(d *domain.Design, n domain.Nucl) (NeighbourDescriptor, bool) {
	for id, s := range d.Strands.All() {
		for i, dom := range s.Domains {
			other, ok := dom.OtherEnd(n)
			if !ok {
				continue
			}
			end := DomainEndAny
			if dom.Length() > 1 {
				end = DomainEndEnd
				if dom.Start == n.Position {
					end = DomainEndStart
				}
			}
			return NeighbourDescriptor{
				Identifier:       DomainIdentifier{Strand: id, Domain: i, End: end},
				InitialMovingEnd: n.Position,
				MovingEnd:        n.Position,
				FixedEnd:         other,
			}, true
		}
	}
	return NeighbourDescriptor{}, false
}

// StrandBuilder drags one end of a domain along its helix. Moving the end
// next to another domain attaches that domain, whose end then follows the
// builder.
type StrandBuilder struct {
	MovingEnd       domain.Nucl
	InitialPosition int
	Axis            domain.Axis

	identifier DomainIdentifier
	fixedEnd   *int
	neighbour  *NeighbourDescriptor
	direction  EditDirection
	minPos     *int
	maxPos     *int
	detached   *NeighbourDescriptor
	deNovo     bool
}

// newEmptyBuilder builds a domain that starts at n and may grow both ways.
func newEmptyBuilder(id DomainIdentifier, n domain.Nucl, axis domain.Axis, neighbour *NeighbourDescriptor, deNovo bool) *StrandBuilder {
	b := &StrandBuilder{
		MovingEnd:       n,
		InitialPosition: n.Position,
		Axis:            axis,
		identifier:      id,
		deNovo:          deNovo,
	}
	if neighbour != nil {
		desc := *neighbour
		b.neighbour = &desc
		if desc.InitialMovingEnd < n.Position {
			b.minPos = intPtr(desc.FixedEnd + 1)
			b.direction = EditNegative
		} else {
			b.maxPos = intPtr(desc.FixedEnd - 1)
			b.direction = EditPositive
		}
	}
	return b
}

// newExistingBuilder edits the end n of an existing domain whose other end
// is at otherEnd. A neighbour of the same strand sticks to the builder.
func newExistingBuilder(id DomainIdentifier, n domain.Nucl, axis domain.Axis, otherEnd int, neighbour *NeighbourDescriptor, stick bool) *StrandBuilder {
	b := &StrandBuilder{
		MovingEnd:       n,
		InitialPosition: n.Position,
		Axis:            axis,
		identifier:      id,
		fixedEnd:        intPtr(otherEnd),
	}
	if n.Position < otherEnd {
		b.maxPos = intPtr(otherEnd)
	} else {
		b.minPos = intPtr(otherEnd)
	}
	if neighbour != nil {
		desc := *neighbour
		b.neighbour = &desc
		switch {
		case stick:
			b.direction = EditBoth
		case desc.MovingEnd > n.Position:
			b.direction = EditPositive
		default:
			b.direction = EditNegative
		}
		if desc.InitialMovingEnd > n.Position {
			if b.maxPos == nil {
				b.maxPos = intPtr(desc.FixedEnd - 1)
			}
		} else if b.minPos == nil {
			b.minPos = intPtr(desc.FixedEnd + 1)
		}
	}
	return b
}

// Identifier returns the domain edited by b.
func (b *StrandBuilder) Identifier() DomainIdentifier { return b.identifier }

// DeNovo reports whether b builds a strand that did not exist before.
func (b *StrandBuilder) DeNovo() bool { return b.deNovo }

// InitialNucl returns the nucleotide where the gesture started.
func (b *StrandBuilder) InitialNucl() domain.Nucl {
	n := b.MovingEnd
	n.Position = b.InitialPosition
	return n
}

// Neighbour returns the domain currently dragged along.
func (b *StrandBuilder) Neighbour() (NeighbourDescriptor, bool) {
	if b.neighbour == nil {
		return NeighbourDescriptor{}, false
	}
	return *b.neighbour, true
}

// Bounds returns the hard limits of the moving end.
func (b *StrandBuilder) Bounds() (lo, hi *int) { return b.minPos, b.maxPos }

func (b *StrandBuilder) clone() *StrandBuilder {
	c := *b
	if b.neighbour != nil {
		n := *b.neighbour
		c.neighbour = &n
	}
	if b.detached != nil {
		n := *b.detached
		c.detached = &n
	}
	return &c
}

func (b *StrandBuilder) detachNeighbour() {
	b.direction = EditNone
	b.detached = b.neighbour
	b.neighbour = nil
}

func (b *StrandBuilder) attachNeighbour(desc NeighbourDescriptor) bool {
	if b.identifier.SameDomain(desc.Identifier) || b.neighbour != nil {
		return false
	}
	if b.maxPos != nil && desc.MovingEnd > *b.maxPos {
		return false
	}
	if b.minPos != nil && desc.MovingEnd < *b.minPos {
		return false
	}
	if b.MovingEnd.Position < desc.InitialMovingEnd {
		b.direction = EditPositive
	} else {
		b.direction = EditNegative
	}
	if b.detached != nil && b.detached.Identifier.SameDomain(desc.Identifier) {
		b.detached = nil
	}
	b.neighbour = &desc
	return true
}

func (b *StrandBuilder) incrPosition(d *domain.Design, ignored []DomainIdentifier) {
	if b.neighbour != nil {
		if b.neighbour.InitialMovingEnd == b.MovingEnd.Position-1 && b.direction == EditNegative {
			b.detachNeighbour()
		} else {
			b.neighbour.MovingEnd++
		}
	}
	b.MovingEnd.Position++
	if desc, ok := neighbourNotIgnored(d, b.MovingEnd.Right(), ignored); ok {
		if b.attachNeighbour(desc) && b.maxPos == nil {
			b.maxPos = intPtr(desc.FixedEnd - 1)
		}
	}
}

func (b *StrandBuilder) decrPosition(d *domain.Design, ignored []DomainIdentifier) {
	if b.neighbour != nil {
		if b.neighbour.InitialMovingEnd == b.MovingEnd.Position+1 && b.direction == EditPositive {
			b.detachNeighbour()
		} else {
			b.neighbour.MovingEnd--
		}
	}
	b.MovingEnd.Position--
	if desc, ok := neighbourNotIgnored(d, b.MovingEnd.Left(), ignored); ok {
		if b.attachNeighbour(desc) && b.minPos == nil {
			b.minPos = intPtr(desc.FixedEnd + 1)
		}
	}
}

func neighbourNotIgnored(d *domain.Design, n domain.Nucl, ignored []DomainIdentifier) (NeighbourDescriptor, bool) {
	desc, ok := NeighbourAt(d, n)
	if !ok {
		return desc, false
	}
	for _, id := range ignored {
		if id == desc.Identifier {
			return desc, false
		}
	}
	return desc, true
}

// MoveTo moves the end towards objective, stopping at the first bound, and
// writes the result into d.
func (b *StrandBuilder) MoveTo(objective int, d *domain.Design, ignored []DomainIdentifier) {
	switch {
	case objective > b.MovingEnd.Position:
		target := objective
		if b.maxPos != nil {
			target = min(target, *b.maxPos)
		}
		for b.MovingEnd.Position < target {
			b.incrPosition(d, ignored)
		}
	case objective < b.MovingEnd.Position:
		target := objective
		if b.minPos != nil {
			target = max(target, *b.minPos)
		}
		for b.MovingEnd.Position > target {
			b.decrPosition(d, ignored)
		}
	}
	b.update(d)
}

// TryIncr moves the end one step up unless a bound forbids it.
func (b *StrandBuilder) TryIncr(d *domain.Design, ignored []DomainIdentifier) bool {
	if b.maxPos != nil && b.MovingEnd.Position >= *b.maxPos {
		return false
	}
	b.incrPosition(d, ignored)
	return true
}

// TryDecr moves the end one step down unless a bound forbids it.
func (b *StrandBuilder) TryDecr(d *domain.Design, ignored []DomainIdentifier) bool {
	if b.minPos != nil && b.MovingEnd.Position <= *b.minPos {
		return false
	}
	b.decrPosition(d, ignored)
	return true
}

func (b *StrandBuilder) update(d *domain.Design) {
	fixed := b.InitialPosition
	if b.fixedEnd != nil {
		fixed = *b.fixedEnd
	}
	updateDomain(d, b.identifier, b.MovingEnd.Position, fixed)
	// The detached domain goes first so a neighbour attached since wins.
	if b.detached != nil {
		updateDomain(d, b.detached.Identifier, b.detached.MovingEnd, b.detached.FixedEnd)
	}
	if b.neighbour != nil {
		updateDomain(d, b.neighbour.Identifier, b.neighbour.MovingEnd, b.neighbour.FixedEnd)
	}
}

func updateDomain(d *domain.Design, id DomainIdentifier, position, fixed int) {
	s, ok := d.StrandMut(id.Strand)
	if !ok || id.Domain >= len(s.Domains) {
		return
	}
	dom := &s.Domains[id.Domain]
	if dom.IsInsertion() {
		return
	}
	switch id.End {
	case DomainEndAny:
		dom.Start = min(position, fixed)
		dom.End = max(position, fixed) + 1
	case DomainEndEnd:
		dom.End = position + 1
	case DomainEndStart:
		dom.Start = position
	}
}

// requestBuilder starts a builder at n, creating a one nucleotide strand
// coloured by colors when no strand goes through n.
func requestBuilder(d *domain.Design, n domain.Nucl, colors *ColorAllocator) (*StrandBuilder, error) {
	helix, ok := d.Helix(n.Helix)
	if !ok {
		return nil, HelixDoesNotExistError{Helix: n.Helix}
	}
	axis := helix.Axis(d.Parameters.OrDefault())
	left, hasLeft := NeighbourAt(d, n.Left())
	right, hasRight := NeighbourAt(d, n.Right())
	if _, onStrand := d.StrandOfNucl(n); !onStrand {
		if hasLeft && hasRight {
			return nil, CannotBuildOnError{Nucl: n}
		}
		id := d.AddStrand(domain.NewStrand(n.Helix, n.Position, n.Forward, colors.Next()))
		var neighbour *NeighbourDescriptor
		if hasLeft {
			neighbour = &left
		} else if hasRight {
			neighbour = &right
		}
		return newEmptyBuilder(DomainIdentifier{Strand: id}, n, axis, neighbour, true), nil
	}

	desc, ok := NeighbourAt(d, n)
	if !ok {
		return nil, CannotBuildOnError{Nucl: n}
	}
	hasLeft = hasLeft && left.Identifier != desc.Identifier
	hasRight = hasRight && right.Identifier != desc.Identifier
	if hasLeft && hasRight {
		return nil, CannotBuildOnError{Nucl: n}
	}
	var neighbour *NeighbourDescriptor
	if hasLeft {
		neighbour = &left
	} else if hasRight {
		neighbour = &right
	}
	stick := neighbour != nil && neighbour.Identifier.Strand == desc.Identifier.Strand
	s, _ := d.Strand(desc.Identifier.Strand)
	if s.Length() > 1 {
		return newExistingBuilder(desc.Identifier, n, axis, desc.FixedEnd, neighbour, stick), nil
	}
	return newEmptyBuilder(DomainIdentifier{Strand: desc.Identifier.Strand}, n, axis, neighbour, false), nil
}

func intPtr(v int) *int { return &v }
