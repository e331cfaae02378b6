package core

import (
	"origamicore/pkg/domain"
)

func (c *Controller) requestBuilders(op RequestStrandBuilders, colors *ColorAllocator) (transition, error) {
	if len(op.Nucls) == 0 {
		return transition{}, ErrBadSelection
	}
	d := c.current.Clone()
	builders := make([]*StrandBuilder, 0, len(op.Nucls))
	ignored := make([]DomainIdentifier, 0, len(op.Nucls))
	for _, n := range op.Nucls {
		b, err := requestBuilder(d, n, colors)
		if err != nil {
			return transition{}, err
		}
		builders = append(builders, b)
		ignored = append(ignored, b.Identifier())
	}
	return transition{
		design:  d,
		state:   StateBuildingStrand{Builders: builders, InitialDesign: d, Ignored: ignored},
		gesture: &gesture{kind: MoveBuilders{}.Kind(), base: c.current},
	}, nil
}

// whileBuilding accepts the builder moves and the end of the gesture only.
// Every move is replayed on the design the builders were requested on and
// replaces the current design.
func (c *Controller) whileBuilding(s StateBuildingStrand, op Operation) (transition, error) {
	switch op := op.(type) {
	case MoveBuilders:
		d := s.InitialDesign.Clone()
		builders := make([]*StrandBuilder, len(s.Builders))
		for i, b := range s.Builders {
			builders[i] = b.clone()
			builders[i].MoveTo(op.Objective, d, s.Ignored)
		}
		return transition{
			design:  d,
			state:   StateBuildingStrand{Builders: builders, InitialDesign: s.InitialDesign, Ignored: s.Ignored},
			replace: true,
		}, nil
	case FinishBuilders:
		return transition{state: StateNormal{}}, nil
	}
	return transition{}, IncompatibleStateError{State: s.StateName()}
}

// asClipboard keeps a nil clipboard pointer from becoming a non-nil
// interface.
func asClipboard[T any, P interface {
	*T
	Clipboard
}](p P) Clipboard {
	if p == nil {
		return nil
	}
	return p
}

func (c *Controller) copy(op Operation) (transition, error) {
	d := c.current
	switch op := op.(type) {
	case CopyStrands:
		cb, err := copyStrands(d, op.Strands)
		if err != nil {
			return transition{}, err
		}
		return transition{state: StateNormal{}, clipboard: asClipboard(cb), setClipboard: true}, nil
	case CopyXovers:
		cb, err := copyXovers(d, op.Xovers)
		if err != nil {
			return transition{}, err
		}
		return transition{state: StateNormal{}, clipboard: asClipboard(cb), setClipboard: true}, nil
	case CopyHelices:
		cb, err := copyHelices(d, op.Helices)
		if err != nil {
			return transition{}, err
		}
		return transition{state: StateNormal{}, clipboard: asClipboard(cb), setClipboard: true}, nil
	case CopyGrids:
		cb, err := copyGrids(d, op.Grids)
		if err != nil {
			return transition{}, err
		}
		return transition{state: StateNormal{}, clipboard: asClipboard(cb), setClipboard: true}, nil
	case InitStrandsDuplication:
		cb, err := copyStrands(d, op.Strands)
		if err != nil {
			return transition{}, err
		}
		if cb == nil {
			return transition{}, ErrEmptyClipboard
		}
		return transition{
			state:        StatePositioningStrandDuplicationPoint{Clipboard: cb},
			clipboard:    cb,
			setClipboard: true,
		}, nil
	case InitXoverDuplication:
		cb, err := copyXovers(d, op.Xovers)
		if err != nil {
			return transition{}, err
		}
		if cb == nil {
			return transition{}, ErrEmptyClipboard
		}
		return transition{
			state:        StateDoingFirstXoversDuplication{Clipboard: cb},
			clipboard:    cb,
			setClipboard: true,
		}, nil
	case InitHelicesDuplication:
		cb, err := copyHelices(d, op.Helices)
		if err != nil {
			return transition{}, err
		}
		if cb == nil {
			return transition{}, ErrEmptyClipboard
		}
		return transition{
			state:        StatePositioningHelicesPastingPoint{Duplication: true, Clipboard: cb},
			clipboard:    cb,
			setClipboard: true,
		}, nil
	}
	return transition{}, ErrNotImplemented
}

// pastingState returns the positioning state matching the clipboard.
func (c *Controller) pastingState() (ControllerState, error) {
	switch cb := c.clipboard.(type) {
	case nil:
		return nil, ErrEmptyClipboard
	case *StrandClipboard:
		return StatePositioningStrandPastingPoint{Clipboard: cb}, nil
	case *XoverClipboard:
		return StatePastingXovers{Clipboard: cb}, nil
	case *HelixClipboard:
		return StatePositioningHelicesPastingPoint{Clipboard: cb}, nil
	case *GridClipboard:
		return StatePositioningGridsPastingPoint{Clipboard: cb}, nil
	}
	return nil, ErrWrongClipboard
}

// positionPastingPoint moves the anchor of the pending paste, starting a
// paste of the clipboard when none is pending.
func (c *Controller) positionPastingPoint(target PastingTarget) (transition, error) {
	state := c.state
	switch state.(type) {
	case StatePositioningStrandPastingPoint, StatePositioningStrandDuplicationPoint,
		StatePastingXovers, StateDoingFirstXoversDuplication,
		StatePositioningHelicesPastingPoint, StatePositioningGridsPastingPoint:
	default:
		var err error
		if state, err = c.pastingState(); err != nil {
			return transition{}, err
		}
	}
	wrong := func(want bool) error {
		if !target.IsZero() && !want {
			return ErrWrongClipboard
		}
		return nil
	}
	switch s := state.(type) {
	case StatePositioningStrandPastingPoint:
		if err := wrong(target.Nucl != nil); err != nil {
			return transition{}, err
		}
		s.PastingPoint, s.Pasted, s.DuplicationEdge = c.strandPreview(s.Clipboard, target.Nucl)
		return transition{state: s}, nil
	case StatePositioningStrandDuplicationPoint:
		if err := wrong(target.Nucl != nil); err != nil {
			return transition{}, err
		}
		s.PastingPoint, s.Pasted, s.DuplicationEdge = c.strandPreview(s.Clipboard, target.Nucl)
		return transition{state: s}, nil
	case StatePastingXovers:
		if err := wrong(target.Nucl != nil); err != nil {
			return transition{}, err
		}
		s.PastingPoint = target.Nucl
		return transition{state: s}, nil
	case StateDoingFirstXoversDuplication:
		if err := wrong(target.Nucl != nil); err != nil {
			return transition{}, err
		}
		s.PastingPoint = target.Nucl
		return transition{state: s}, nil
	case StatePositioningHelicesPastingPoint:
		if err := wrong(target.Grid != nil); err != nil {
			return transition{}, err
		}
		s.PastingPoint = target.Grid
		return transition{state: s}, nil
	case StatePositioningGridsPastingPoint:
		if err := wrong(target.Point != nil); err != nil {
			return transition{}, err
		}
		s.PastingPoint = target.Point
		return transition{state: s}, nil
	}
	return transition{}, IncompatibleStateError{State: c.state.StateName()}
}

func (c *Controller) strandPreview(cb *StrandClipboard, n *domain.Nucl) (*domain.Nucl, []PastedStrand, *DuplicationEdge) {
	if n == nil {
		return nil, nil, nil
	}
	point := *n
	pasted, edge := positionStrandCopies(c.current, cb, point)
	return &point, pasted, edge
}

// applyPaste commits the pending paste and goes back to Normal.
func (c *Controller) applyPaste(colors *ColorAllocator) (transition, error) {
	d := c.current.Clone()
	var err error
	switch s := c.state.(type) {
	case StatePositioningStrandPastingPoint:
		err = c.pasteStrandsAt(d, s.Clipboard, s.PastingPoint, colors)
	case StatePositioningStrandDuplicationPoint:
		err = c.pasteStrandsAt(d, s.Clipboard, s.PastingPoint, colors)
	case StatePastingXovers:
		err = pasteXoversAt(d, s.Clipboard, s.PastingPoint)
	case StateDoingFirstXoversDuplication:
		err = pasteXoversAt(d, s.Clipboard, s.PastingPoint)
	case StatePositioningHelicesPastingPoint:
		if s.PastingPoint == nil {
			return transition{}, ErrCannotPasteHere
		}
		_, err = pasteHelices(d, s.Clipboard, *s.PastingPoint)
	case StatePositioningGridsPastingPoint:
		if s.PastingPoint == nil {
			return transition{}, ErrCannotPasteHere
		}
		err = pasteGrids(d, s.Clipboard, *s.PastingPoint)
	default:
		if c.clipboard == nil {
			return transition{}, ErrEmptyClipboard
		}
		return transition{}, IncompatibleStateError{State: c.state.StateName()}
	}
	if err != nil {
		return transition{}, err
	}
	return transition{design: d, state: StateNormal{}}, nil
}

func (c *Controller) pasteStrandsAt(d *domain.Design, cb *StrandClipboard, n *domain.Nucl, colors *ColorAllocator) error {
	if n == nil {
		return ErrCannotPasteHere
	}
	pasted, _ := positionStrandCopies(c.current, cb, *n)
	return addPastedStrands(d, pasted, colors)
}

func pasteXoversAt(d *domain.Design, cb *XoverClipboard, n *domain.Nucl) error {
	if n == nil {
		return ErrCannotPasteHere
	}
	_, err := pasteXovers(d, cb, *n)
	return err
}

// applyDuplication pastes the first copy of a duplication, or the next one
// when a duplication is pending.
func (c *Controller) applyDuplication(colors *ColorAllocator) (transition, error) {
	d := c.current.Clone()
	switch s := c.state.(type) {
	case StatePositioningStrandDuplicationPoint:
		if s.PastingPoint == nil {
			return transition{}, ErrCannotPasteHere
		}
		pasted, edge := positionStrandCopies(c.current, s.Clipboard, *s.PastingPoint)
		if edge == nil {
			return transition{}, ErrCannotPasteHere
		}
		if err := addPastedStrands(d, pasted, colors); err != nil {
			return transition{}, err
		}
		return transition{design: d, state: StateWithPendingStrandDuplication{
			PastingPoints:   []domain.Nucl{*s.PastingPoint},
			DuplicationEdge: *edge,
			Clipboard:       s.Clipboard,
		}}, nil
	case StateWithPendingStrandDuplication:
		last := s.PastingPoints[len(s.PastingPoints)-1]
		next, ok := translateNucl(c.current, c.current.GridData(), last, s.DuplicationEdge)
		if !ok {
			return transition{}, ErrCannotPasteHere
		}
		pasted, _ := positionStrandCopies(c.current, s.Clipboard, next)
		if err := addPastedStrands(d, pasted, colors); err != nil {
			return transition{}, err
		}
		s.PastingPoints = append(s.PastingPoints[:len(s.PastingPoints):len(s.PastingPoints)], next)
		return transition{design: d, state: s}, nil
	case StateDoingFirstXoversDuplication:
		if s.PastingPoint == nil {
			return transition{}, ErrCannotPasteHere
		}
		edge, err := pasteXovers(d, s.Clipboard, *s.PastingPoint)
		if err != nil {
			return transition{}, err
		}
		return transition{design: d, state: StateWithPendingXoverDuplication{
			PastingPoints:   []domain.Nucl{*s.PastingPoint},
			DuplicationEdge: edge,
			Clipboard:       s.Clipboard,
		}}, nil
	case StateWithPendingXoverDuplication:
		last := s.PastingPoints[len(s.PastingPoints)-1]
		next, ok := translateNucl(c.current, c.current.GridData(), last, s.DuplicationEdge)
		if !ok {
			return transition{}, ErrCannotPasteHere
		}
		if _, err := pasteXovers(d, s.Clipboard, next); err != nil {
			return transition{}, err
		}
		s.PastingPoints = append(s.PastingPoints[:len(s.PastingPoints):len(s.PastingPoints)], next)
		return transition{design: d, state: s}, nil
	case StatePositioningHelicesPastingPoint:
		if !s.Duplication {
			break
		}
		if s.PastingPoint == nil {
			return transition{}, ErrCannotPasteHere
		}
		edge, err := pasteHelices(d, s.Clipboard, *s.PastingPoint)
		if err != nil {
			return transition{}, err
		}
		return transition{design: d, state: StateWithPendingHelicesDuplication{
			PastingPoints:   []domain.GridPosition{*s.PastingPoint},
			DuplicationEdge: edge,
			Clipboard:       s.Clipboard,
		}}, nil
	case StateWithPendingHelicesDuplication:
		last := s.PastingPoints[len(s.PastingPoints)-1]
		next, ok := c.current.GridData().TranslateByEdge(last, s.DuplicationEdge)
		if !ok {
			return transition{}, ErrCannotPasteHere
		}
		if _, err := pasteHelices(d, s.Clipboard, next.Light()); err != nil {
			return transition{}, err
		}
		s.PastingPoints = append(s.PastingPoints[:len(s.PastingPoints):len(s.PastingPoints)], next.Light())
		return transition{design: d, state: s}, nil
	}
	return transition{}, IncompatibleStateError{State: c.state.StateName()}
}
