package core

import (
	"context"
	"errors"
	"fmt"

	"origamicore/pkg/domain"
)

// Controller applies operations to a design and keeps its history. It is not
// safe for concurrent use; designs it hands out are immutable snapshots.
type Controller struct {
	current   *domain.Design
	undo      []*domain.Design
	redo      []redoEntry
	state     ControllerState
	clipboard Clipboard
	colors    ColorAllocator
	engine    *RulesEngine
	logger    Logger
	gesture   gesture
}

// redoEntry is an undone design. resume is the pending duplication that the
// undo left when it removed the first copy.
type redoEntry struct {
	design *domain.Design
	resume ControllerState
}

// gesture is an interactive operation continued by replacing operations of
// the same kind. base is the design before the gesture started.
type gesture struct {
	kind   OperationKind
	base   *domain.Design
	pushed bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets the logger receiving rule warnings.
func WithControllerLogger(l Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithControllerRules sets the engine every committed design goes through.
// A nil engine disables the checks.
func WithControllerRules(e *RulesEngine) ControllerOption {
	return func(c *Controller) { c.engine = e }
}

// WithColorIndex starts the palette cursor at idx.
func WithColorIndex(idx int) ControllerOption {
	return func(c *Controller) { c.colors = ColorAllocator{idx: idx} }
}

// NewController returns an idle controller on d. A nil design starts empty.
func NewController(d *domain.Design, opts ...ControllerOption) *Controller {
	if d == nil {
		d = domain.NewDesign()
	}
	c := &Controller{
		current: d,
		state:   StateNormal{},
		engine:  NewDefaultRulesEngine(),
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Design returns the current snapshot.
func (c *Controller) Design() *domain.Design { return c.current }

// State returns the interaction state.
func (c *Controller) State() ControllerState { return c.state }

// CanUndo reports whether Undo would succeed.
func (c *Controller) CanUndo() bool { return len(c.undo) > 0 }

// CanRedo reports whether Redo would succeed.
func (c *Controller) CanRedo() bool { return len(c.redo) > 0 }

// Duplicating reports whether ApplyDuplication would repeat a previous
// duplication.
func (c *Controller) Duplicating() bool { return pendingDuplication(c.state) }

// Clipboard returns the content of the last copy, or nil.
func (c *Controller) Clipboard() Clipboard { return c.clipboard }

// ColorIndex returns the palette cursor.
func (c *Controller) ColorIndex() int { return c.colors.Index() }

// transition is the outcome of an operation, applied only once the new
// design passed the rules.
type transition struct {
	design       *domain.Design
	state        ControllerState
	clipboard    Clipboard
	setClipboard bool
	replace      bool
	gesture      *gesture
}

// Apply runs op. On error the design, the history and the clipboard are left
// untouched; the state goes back to Normal unless the error lets the user
// retry, such as a paste at an unreachable place.
func (c *Controller) Apply(ctx context.Context, op Operation) error {
	if op == nil {
		return ErrBadSelection
	}
	switch op.(type) {
	case Undo:
		return c.applyUndo()
	case Redo:
		return c.applyRedo()
	case SuspendOp:
		c.gesture = gesture{}
		return nil
	}
	colors := c.colors
	t, err := c.dispatch(op, &colors)
	if err == nil {
		err = c.commit(ctx, op, t)
	}
	if err != nil {
		if !recoverable(err) {
			c.state = StateNormal{}
			c.gesture = gesture{}
		}
		return fmt.Errorf("%s: %w", op.Kind(), err)
	}
	c.colors = colors
	return nil
}

func (c *Controller) dispatch(op Operation, colors *ColorAllocator) (transition, error) {
	if s, ok := c.state.(StateBuildingStrand); ok {
		return c.whileBuilding(s, op)
	}
	switch op := op.(type) {
	case RequestStrandBuilders:
		return c.requestBuilders(op, colors)
	case MoveBuilders, FinishBuilders:
		return transition{}, IncompatibleStateError{State: c.state.StateName()}
	case CopyStrands, CopyXovers, CopyGrids, CopyHelices,
		InitStrandsDuplication, InitXoverDuplication, InitHelicesDuplication:
		return c.copy(op)
	case PositionPastingPoint:
		return c.positionPastingPoint(op.Target)
	case ApplyPaste:
		return c.applyPaste(colors)
	case ApplyDuplication:
		return c.applyDuplication(colors)
	}
	return c.edit(op, colors)
}

// edit applies an operation changing the design only. A pending paste is
// abandoned.
func (c *Controller) edit(op Operation, colors *ColorAllocator) (transition, error) {
	base := c.current
	replace := false
	var g *gesture
	if continues(op) {
		if c.gesture.base != nil && c.gesture.kind == op.Kind() {
			base = c.gesture.base
			replace = true
		} else {
			g = &gesture{kind: op.Kind(), base: c.current}
		}
	}
	d, err := c.editDesign(base, op, colors)
	if err != nil {
		return transition{}, err
	}
	return transition{design: d, state: StateNormal{}, replace: replace, gesture: g}, nil
}

// continues reports whether op carries the gesture continuation flag.
func continues(op Operation) bool {
	switch op := op.(type) {
	case Translation:
		return op.Replace
	case Rotation:
		return op.Replace
	case SnapHelices:
		return op.Replace
	case RotateHelices2D:
		return op.Replace
	case SetBezierVertex:
		return op.Replace
	}
	return false
}

func (c *Controller) editDesign(base *domain.Design, op Operation, colors *ColorAllocator) (*domain.Design, error) {
	switch op := op.(type) {
	case Translation:
		return translate(base, op)
	case Rotation:
		return rotate(base, op)
	}
	d := base.Clone()
	var err error
	switch op := op.(type) {
	case MakeStrand:
		err = makeStrand(d, op, colors)
	case Cut:
		err = cut(d, op)
	case Xover:
		err = mergeStrands(d, op.Prime5, op.Prime3)
	case GeneralXover:
		err = generalXover(d, op.Source, op.Target)
	case CrossCut:
		err = crossCut(d, op.Source, op.Target, op.Nucl, op.Target3Prime)
	case RemoveStrands:
		err = removeStrands(d, op.Strands)
	case AddHelix:
		d.AddHelix(domain.NewHelix(op.Position, op.Orientation))
	case RemoveHelix:
		err = removeHelix(d, op.Helix)
	case AddGrid:
		d.AddGrid(op.Descriptor)
	case RemoveGrid:
		err = removeGrid(d, op.Grid)
	case AddGridHelix:
		err = addGridHelix(d, op, colors)
	case SetSequence:
		err = setSequence(d, op)
	case SetColor:
		err = setColor(d, op)
	case SetScaffold:
		err = setScaffold(d, op.Strand)
	case ToggleCyclic:
		err = toggleCyclic(d, op.Strand)
	case SetInsertionLength:
		err = setInsertionLength(d, op)
	case RecolorStaples:
		recolorStaples(d, colors)
	case SetScaffoldSequence:
		d.ScaffoldSequence = op.Sequence
		d.ScaffoldShift = op.Shift
	case HelicesToGrid:
		_, err = d.MakeGridFromHelices(op.Helices)
	case SetHelicesPersistence:
		for _, g := range op.Grids {
			d.SetNoPhantom(g, !op.Persistent)
		}
	case SetSmallSpheres:
		for _, g := range op.Grids {
			d.SetSmallSpheres(g, op.Small)
		}
	case SetGroup:
		err = setGroup(d, op)
	case ToggleAnchors:
		for _, n := range op.Nucls {
			d.SetAnchor(n, !d.Anchors.Has(n))
		}
	case SetStrandName:
		s, ok := d.StrandMut(op.Strand)
		if !ok {
			return nil, StrandDoesNotExistError{Strand: op.Strand}
		}
		s.Name = op.Name
	case SetGridShift:
		err = setGridShift(d, op, c.logger)
	case ApplySymmetryToHelices:
		err = applySymmetry(d, op)
	case SnapHelices:
		snapHelices(d, op)
	case SetIsometry2D:
		err = setIsometry2D(d, op)
	case RotateHelices2D:
		rotateHelices2D(d, op)
	case SetGridOrientation:
		err = setGridOrientation(d, op)
	case SetBezierVertex:
		err = setBezierVertex(d, op)
	default:
		err = fmt.Errorf("%w: %s", ErrNotImplemented, op.Kind())
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func setSequence(d *domain.Design, op SetSequence) error {
	s, ok := d.StrandMut(op.Strand)
	if !ok {
		return StrandDoesNotExistError{Strand: op.Strand}
	}
	s.Sequence = op.Sequence
	return nil
}

func setColor(d *domain.Design, op SetColor) error {
	for _, id := range op.Strands {
		s, ok := d.StrandMut(id)
		if !ok {
			return StrandDoesNotExistError{Strand: id}
		}
		s.Color = op.Color
	}
	return nil
}

func setScaffold(d *domain.Design, id *domain.StrandID) error {
	if id == nil {
		d.Scaffold = nil
		return nil
	}
	if _, ok := d.Strand(*id); !ok {
		return StrandDoesNotExistError{Strand: *id}
	}
	s := *id
	d.Scaffold = &s
	return nil
}

func setGroup(d *domain.Design, op SetGroup) error {
	for _, h := range op.Helices {
		if _, ok := d.Helix(h); !ok {
			return HelixDoesNotExistError{Helix: h}
		}
		if op.Flag == nil {
			d.SetGroup(h, false, false)
		} else {
			d.SetGroup(h, *op.Flag, true)
		}
	}
	return nil
}

// commit installs t. A design change goes through the rules first.
func (c *Controller) commit(ctx context.Context, op Operation, t transition) error {
	changed := false
	if t.design != nil && t.design != c.current {
		changes := domain.Diff(c.current, t.design)
		if len(changes) > 0 {
			if err := c.check(ctx, op, t.design, changes); err != nil {
				return err
			}
			changed = true
		}
	}
	if changed {
		switch {
		case !t.replace:
			c.push(c.current)
		case !c.gesture.pushed:
			base := c.gesture.base
			if base == nil {
				base = c.current
			}
			c.push(base)
			c.gesture.pushed = true
		}
		c.current = t.design
	}
	switch {
	case t.gesture != nil:
		c.gesture = *t.gesture
		c.gesture.pushed = changed
	case !t.replace:
		c.gesture = gesture{}
	}
	if t.state != nil {
		c.state = t.state
	}
	if t.setClipboard {
		c.clipboard = t.clipboard
	}
	return nil
}

func (c *Controller) push(d *domain.Design) {
	c.undo = append(c.undo, d)
	c.redo = nil
}

func (c *Controller) check(ctx context.Context, op Operation, d *domain.Design, changes []domain.Change) error {
	if c.engine == nil {
		return nil
	}
	res, err := c.engine.Evaluate(ctx, domain.View(d), changes)
	if err != nil {
		return err
	}
	if res.HasBlocking() {
		return RuleViolationError{Result: res}
	}
	for _, v := range res.Violations {
		c.logger.Warn("rule warning", "operation", string(op.Kind()), "rule", v.Rule, "message", v.Message)
	}
	return nil
}

// applyUndo restores the previous design. While repeating a duplication it
// also forgets the last copy; undoing the first copy goes back to Normal and
// the matching redo resumes the duplication.
func (c *Controller) applyUndo() error {
	if len(c.undo) == 0 {
		return fmt.Errorf("%s: %w", Undo{}.Kind(), ErrNothingToUndo)
	}
	prev := c.undo[len(c.undo)-1]
	c.undo = c.undo[:len(c.undo)-1]
	entry := redoEntry{design: c.current}
	if lastCopy(c.state) {
		entry.resume = c.state
		c.state = StateNormal{}
	} else {
		c.state = undoState(c.state)
	}
	c.redo = append(c.redo, entry)
	c.current = prev
	c.gesture = gesture{}
	return nil
}

func (c *Controller) applyRedo() error {
	if len(c.redo) == 0 {
		return fmt.Errorf("%s: %w", Redo{}.Kind(), ErrNothingToRedo)
	}
	next := c.redo[len(c.redo)-1]
	c.redo = c.redo[:len(c.redo)-1]
	c.undo = append(c.undo, c.current)
	c.current = next.design
	c.gesture = gesture{}
	if next.resume != nil {
		c.state = next.resume
		return nil
	}
	c.state = redoState(c.state, c.current)
	return nil
}

// undoState forgets the last copy of a pending duplication holding several.
func undoState(s ControllerState) ControllerState {
	switch s := s.(type) {
	case StateWithPendingStrandDuplication:
		if len(s.PastingPoints) > 1 {
			s.PastingPoints = s.PastingPoints[:len(s.PastingPoints)-1 : len(s.PastingPoints)-1]
		}
		return s
	case StateWithPendingXoverDuplication:
		if len(s.PastingPoints) > 1 {
			s.PastingPoints = s.PastingPoints[:len(s.PastingPoints)-1 : len(s.PastingPoints)-1]
		}
		return s
	case StateWithPendingHelicesDuplication:
		if len(s.PastingPoints) > 1 {
			s.PastingPoints = s.PastingPoints[:len(s.PastingPoints)-1 : len(s.PastingPoints)-1]
		}
		return s
	}
	return StateNormal{}
}

// lastCopy reports whether s is a pending duplication whose only copy is
// the first one, which undo removes.
func lastCopy(s ControllerState) bool {
	switch s := s.(type) {
	case StateWithPendingStrandDuplication:
		return len(s.PastingPoints) <= 1
	case StateWithPendingXoverDuplication:
		return len(s.PastingPoints) <= 1
	case StateWithPendingHelicesDuplication:
		return len(s.PastingPoints) <= 1
	}
	return false
}

// redoState puts back the pasting point of the copy that redo restored. d
// is the restored design, on which the point is computed.
func redoState(s ControllerState, d *domain.Design) ControllerState {
	switch s := s.(type) {
	case StateWithPendingStrandDuplication:
		next, ok := translateNucl(d, d.GridData(), s.PastingPoints[len(s.PastingPoints)-1], s.DuplicationEdge)
		if !ok {
			return StateNormal{}
		}
		s.PastingPoints = append(s.PastingPoints, next)
		return s
	case StateWithPendingXoverDuplication:
		next, ok := translateNucl(d, d.GridData(), s.PastingPoints[len(s.PastingPoints)-1], s.DuplicationEdge)
		if !ok {
			return StateNormal{}
		}
		s.PastingPoints = append(s.PastingPoints, next)
		return s
	case StateWithPendingHelicesDuplication:
		next, ok := d.GridData().TranslateByEdge(s.PastingPoints[len(s.PastingPoints)-1], s.DuplicationEdge)
		if !ok {
			return StateNormal{}
		}
		s.PastingPoints = append(s.PastingPoints, next.Light())
		return s
	}
	return StateNormal{}
}

// IsIncompatibleState reports whether err was caused by an operation issued
// in the wrong controller state.
func IsIncompatibleState(err error) bool {
	var target IncompatibleStateError
	return errors.As(err, &target)
}
