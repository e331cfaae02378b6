package core

import (
	"encoding/json"
	"fmt"

	"origamicore/pkg/domain"
)

// OperationKind names an operation in scripts and metrics.
type OperationKind string

// Operation is a request addressed to a Controller.
type Operation interface {
	Kind() OperationKind
}

// Topology edits.
type (
	// MakeStrand creates a one nucleotide strand. A zero Color takes the next
	// palette colour.
	MakeStrand struct {
		Nucl  domain.Nucl `json:"nucl"`
		Color uint32      `json:"color,omitempty"`
	}
	// Cut splits Strand after Nucl, or before it when Nucl is the 3' end of
	// a crossover.
	Cut struct {
		Strand domain.StrandID `json:"strand"`
		Nucl   domain.Nucl     `json:"nucl"`
	}
	// Xover links the 3' end of Prime5 to the 5' end of Prime3. Linking a
	// strand to itself makes it cyclic.
	Xover struct {
		Prime5 domain.StrandID `json:"prime5"`
		Prime3 domain.StrandID `json:"prime3"`
	}
	// GeneralXover makes a crossover between two arbitrary nucleotides,
	// cutting the strands that go through them as needed.
	GeneralXover struct {
		Source domain.Nucl `json:"source"`
		Target domain.Nucl `json:"target"`
	}
	// CrossCut cuts Target at Nucl and links Source to the half holding
	// Nucl: Source comes first when Target3Prime is set.
	CrossCut struct {
		Source       domain.StrandID `json:"source"`
		Target       domain.StrandID `json:"target"`
		Nucl         domain.Nucl     `json:"nucl"`
		Target3Prime bool            `json:"target_3prime"`
	}
	RemoveStrands struct {
		Strands []domain.StrandID `json:"strands"`
	}
	AddHelix struct {
		Position    domain.Vec3  `json:"position"`
		Orientation domain.Rotor `json:"orientation"`
	}
	RemoveHelix struct {
		Helix domain.HelixID `json:"helix"`
	}
	AddGrid struct {
		Descriptor domain.GridDescriptor `json:"descriptor"`
	}
	RemoveGrid struct {
		Grid domain.FreeGridID `json:"grid"`
	}
	// AddGridHelix puts a helix on a free grid vertex. A positive Length
	// also creates two complementary strands covering [Start, Start+Length).
	AddGridHelix struct {
		Position domain.GridPosition `json:"position"`
		Start    int                 `json:"start"`
		Length   int                 `json:"length"`
	}
	SetSequence struct {
		Strand   domain.StrandID `json:"strand"`
		Sequence string          `json:"sequence"`
	}
	SetColor struct {
		Strands []domain.StrandID `json:"strands"`
		Color   uint32            `json:"color"`
	}
	// SetScaffold designates the scaffold; nil clears it.
	SetScaffold struct {
		Strand *domain.StrandID `json:"strand"`
	}
	ToggleCyclic struct {
		Strand domain.StrandID `json:"strand"`
	}
	// SetInsertionLength sets the insertion following Nucl, or preceding it
	// when Prime5 is set. A zero Length removes the insertion.
	SetInsertionLength struct {
		Nucl   domain.Nucl `json:"nucl"`
		Prime5 bool        `json:"prime5,omitempty"`
		Length int         `json:"length"`
	}
	// RecolorStaples gives every strand but the scaffold a fresh colour.
	RecolorStaples struct{}
	// SetScaffoldSequence sets the scaffold sequence; Shift is the index of
	// the scaffold nucleotide receiving the first base.
	SetScaffoldSequence struct {
		Sequence string `json:"sequence"`
		Shift    int    `json:"shift"`
	}
	// HelicesToGrid fits a grid on free helices and docks them on it.
	HelicesToGrid struct {
		Helices []domain.HelixID `json:"helices"`
	}
	SetHelicesPersistence struct {
		Grids      []domain.GridID `json:"grids"`
		Persistent bool            `json:"persistent"`
	}
	SetSmallSpheres struct {
		Grids []domain.GridID `json:"grids"`
		Small bool            `json:"small"`
	}
	// SetGroup puts helices in group Flag, or out of any group when Flag
	// is nil.
	SetGroup struct {
		Helices []domain.HelixID `json:"helices"`
		Flag    *bool            `json:"flag"`
	}
	// ToggleAnchors flips the anchor mark of every nucleotide.
	ToggleAnchors struct {
		Nucls []domain.Nucl `json:"nucls"`
	}
	SetStrandName struct {
		Strand domain.StrandID `json:"strand"`
		Name   string          `json:"name"`
	}
	// SetGridShift changes the twist of a hyperboloid grid.
	SetGridShift struct {
		Grid  domain.FreeGridID `json:"grid"`
		Shift float64           `json:"shift"`
	}
)

// IsometryTargetKind says what a Translation or Rotation moves.
type IsometryTargetKind string

const (
	TargetDesign  IsometryTargetKind = "design"
	TargetHelices IsometryTargetKind = "helices"
	TargetGrids   IsometryTargetKind = "grids"
)

// IsometryTarget is the object of a rigid motion. Snap docks moved helices
// back on their grid.
type IsometryTarget struct {
	Kind    IsometryTargetKind  `json:"kind"`
	Helices []domain.HelixID    `json:"helices,omitempty"`
	Grids   []domain.FreeGridID `json:"grids,omitempty"`
	Snap    bool                `json:"snap,omitempty"`
}

// Transforms. Replace marks the continuation of the previous gesture: the
// motion is then applied to the design as it was when the gesture started,
// and the result replaces the current design without growing the history.
type (
	Translation struct {
		Translation domain.Vec3      `json:"translation"`
		Target      IsometryTarget   `json:"target"`
		Group       []domain.HelixID `json:"group,omitempty"`
		Replace     bool             `json:"replace,omitempty"`
	}
	Rotation struct {
		Rotor   domain.Rotor     `json:"rotor"`
		Origin  domain.Vec3      `json:"origin"`
		Target  IsometryTarget   `json:"target"`
		Group   []domain.HelixID `json:"group,omitempty"`
		Replace bool             `json:"replace,omitempty"`
	}
	// ApplySymmetryToHelices mirrors every helix through its centre: each
	// coordinate of Symmetry is 1 to keep the axis or -1 to flip it.
	ApplySymmetryToHelices struct {
		Helices  []domain.HelixID `json:"helices"`
		Centers  []domain.Vec3    `json:"centers"`
		Symmetry domain.Vec3      `json:"symmetry"`
	}
	// SnapHelices moves the layout of the pivots' helices so that each pivot
	// lands on integer coordinates.
	SnapHelices struct {
		Pivots      []domain.Nucl `json:"pivots"`
		Translation domain.Vec2   `json:"translation"`
		Replace     bool          `json:"replace,omitempty"`
	}
	SetIsometry2D struct {
		Helix    domain.HelixID   `json:"helix"`
		Isometry domain.Isometry2 `json:"isometry"`
	}
	// RotateHelices2D turns the layout of helices around Center. The angle
	// is snapped to a multiple of pi/8.
	RotateHelices2D struct {
		Helices []domain.HelixID `json:"helices"`
		Center  domain.Vec2      `json:"center"`
		Angle   float64          `json:"angle"`
		Replace bool             `json:"replace,omitempty"`
	}
	SetGridOrientation struct {
		Grid        domain.FreeGridID `json:"grid"`
		Orientation domain.Rotor      `json:"orientation"`
	}
	SetBezierVertex struct {
		Vertex   domain.BezierVertexID `json:"vertex"`
		Position domain.Vec2           `json:"position"`
		Replace  bool                  `json:"replace,omitempty"`
	}
)

// Strand builder lifecycle.
type (
	RequestStrandBuilders struct {
		Nucls []domain.Nucl `json:"nucls"`
	}
	// MoveBuilders moves every active builder towards Objective.
	MoveBuilders struct {
		Objective int `json:"objective"`
	}
	FinishBuilders struct{}
)

// Clipboard operations.
type (
	CopyStrands struct {
		Strands []domain.StrandID `json:"strands"`
	}
	CopyXovers struct {
		Xovers []domain.XoverID `json:"xovers"`
	}
	CopyGrids struct {
		Grids []domain.FreeGridID `json:"grids"`
	}
	CopyHelices struct {
		Helices []domain.HelixID `json:"helices"`
	}
	InitStrandsDuplication struct {
		Strands []domain.StrandID `json:"strands"`
	}
	InitXoverDuplication struct {
		Xovers []domain.XoverID `json:"xovers"`
	}
	InitHelicesDuplication struct {
		Helices []domain.HelixID `json:"helices"`
	}
	// PositionPastingPoint moves the anchor of the pending paste; an empty
	// target hides the preview.
	PositionPastingPoint struct {
		Target PastingTarget `json:"target"`
	}
	ApplyPaste       struct{}
	ApplyDuplication struct{}
)

// PastingTarget anchors a paste: a nucleotide for strands and crossovers, a
// grid vertex for helices, a point in space for grids.
type PastingTarget struct {
	Nucl  *domain.Nucl         `json:"nucl,omitempty"`
	Grid  *domain.GridPosition `json:"grid,omitempty"`
	Point *domain.Vec3         `json:"point,omitempty"`
}

// IsZero reports whether t designates nothing.
func (t PastingTarget) IsZero() bool {
	return t.Nucl == nil && t.Grid == nil && t.Point == nil
}

// Bookkeeping.
type (
	Undo struct{}
	Redo struct{}
	// SuspendOp ends the current gesture: the next replacing operation
	// starts a new history entry.
	SuspendOp struct{}
)

func (MakeStrand) Kind() OperationKind             { return "make_strand" }
func (Cut) Kind() OperationKind                    { return "cut" }
func (Xover) Kind() OperationKind                  { return "xover" }
func (GeneralXover) Kind() OperationKind           { return "general_xover" }
func (CrossCut) Kind() OperationKind               { return "cross_cut" }
func (RemoveStrands) Kind() OperationKind          { return "remove_strands" }
func (AddHelix) Kind() OperationKind               { return "add_helix" }
func (RemoveHelix) Kind() OperationKind            { return "remove_helix" }
func (AddGrid) Kind() OperationKind                { return "add_grid" }
func (RemoveGrid) Kind() OperationKind             { return "remove_grid" }
func (AddGridHelix) Kind() OperationKind           { return "add_grid_helix" }
func (SetSequence) Kind() OperationKind            { return "set_sequence" }
func (SetColor) Kind() OperationKind               { return "set_color" }
func (SetScaffold) Kind() OperationKind            { return "set_scaffold" }
func (ToggleCyclic) Kind() OperationKind           { return "toggle_cyclic" }
func (SetInsertionLength) Kind() OperationKind     { return "set_insertion_length" }
func (RecolorStaples) Kind() OperationKind         { return "recolor_staples" }
func (SetScaffoldSequence) Kind() OperationKind    { return "set_scaffold_sequence" }
func (HelicesToGrid) Kind() OperationKind          { return "helices_to_grid" }
func (SetHelicesPersistence) Kind() OperationKind  { return "set_helices_persistence" }
func (SetSmallSpheres) Kind() OperationKind        { return "set_small_spheres" }
func (SetGroup) Kind() OperationKind               { return "set_group" }
func (ToggleAnchors) Kind() OperationKind          { return "toggle_anchors" }
func (SetStrandName) Kind() OperationKind          { return "set_strand_name" }
func (SetGridShift) Kind() OperationKind           { return "set_grid_shift" }
func (Translation) Kind() OperationKind            { return "translation" }
func (Rotation) Kind() OperationKind               { return "rotation" }
func (ApplySymmetryToHelices) Kind() OperationKind { return "apply_symmetry_to_helices" }
func (SnapHelices) Kind() OperationKind            { return "snap_helices" }
func (SetIsometry2D) Kind() OperationKind          { return "set_isometry_2d" }
func (RotateHelices2D) Kind() OperationKind        { return "rotate_helices_2d" }
func (SetGridOrientation) Kind() OperationKind     { return "set_grid_orientation" }
func (SetBezierVertex) Kind() OperationKind        { return "set_bezier_vertex" }
func (RequestStrandBuilders) Kind() OperationKind  { return "request_strand_builders" }
func (MoveBuilders) Kind() OperationKind           { return "move_builders" }
func (FinishBuilders) Kind() OperationKind         { return "finish_builders" }
func (CopyStrands) Kind() OperationKind            { return "copy_strands" }
func (CopyXovers) Kind() OperationKind             { return "copy_xovers" }
func (CopyGrids) Kind() OperationKind              { return "copy_grids" }
func (CopyHelices) Kind() OperationKind            { return "copy_helices" }
func (InitStrandsDuplication) Kind() OperationKind { return "init_strands_duplication" }
func (InitXoverDuplication) Kind() OperationKind   { return "init_xover_duplication" }
func (InitHelicesDuplication) Kind() OperationKind { return "init_helices_duplication" }
func (PositionPastingPoint) Kind() OperationKind   { return "position_pasting_point" }
func (ApplyPaste) Kind() OperationKind             { return "apply_paste" }
func (ApplyDuplication) Kind() OperationKind       { return "apply_duplication" }
func (Undo) Kind() OperationKind                   { return "undo" }
func (Redo) Kind() OperationKind                   { return "redo" }
func (SuspendOp) Kind() OperationKind              { return "suspend_op" }

var operationFactories = map[OperationKind]func() Operation{}

func registerOperations(factories ...func() Operation) {
	for _, f := range factories {
		operationFactories[f().Kind()] = f
	}
}

func init() {
	registerOperations(
		func() Operation { return &MakeStrand{} },
		func() Operation { return &Cut{} },
		func() Operation { return &Xover{} },
		func() Operation { return &GeneralXover{} },
		func() Operation { return &CrossCut{} },
		func() Operation { return &RemoveStrands{} },
		func() Operation { return &AddHelix{} },
		func() Operation { return &RemoveHelix{} },
		func() Operation { return &AddGrid{} },
		func() Operation { return &RemoveGrid{} },
		func() Operation { return &AddGridHelix{} },
		func() Operation { return &SetSequence{} },
		func() Operation { return &SetColor{} },
		func() Operation { return &SetScaffold{} },
		func() Operation { return &ToggleCyclic{} },
		func() Operation { return &SetInsertionLength{} },
		func() Operation { return &RecolorStaples{} },
		func() Operation { return &SetScaffoldSequence{} },
		func() Operation { return &HelicesToGrid{} },
		func() Operation { return &SetHelicesPersistence{} },
		func() Operation { return &SetSmallSpheres{} },
		func() Operation { return &SetGroup{} },
		func() Operation { return &ToggleAnchors{} },
		func() Operation { return &SetStrandName{} },
		func() Operation { return &SetGridShift{} },
		func() Operation { return &Translation{} },
		func() Operation { return &Rotation{} },
		func() Operation { return &ApplySymmetryToHelices{} },
		func() Operation { return &SnapHelices{} },
		func() Operation { return &SetIsometry2D{} },
		func() Operation { return &RotateHelices2D{} },
		func() Operation { return &SetGridOrientation{} },
		func() Operation { return &SetBezierVertex{} },
		func() Operation { return &RequestStrandBuilders{} },
		func() Operation { return &MoveBuilders{} },
		func() Operation { return &FinishBuilders{} },
		func() Operation { return &CopyStrands{} },
		func() Operation { return &CopyXovers{} },
		func() Operation { return &CopyGrids{} },
		func() Operation { return &CopyHelices{} },
		func() Operation { return &InitStrandsDuplication{} },
		func() Operation { return &InitXoverDuplication{} },
		func() Operation { return &InitHelicesDuplication{} },
		func() Operation { return &PositionPastingPoint{} },
		func() Operation { return &ApplyPaste{} },
		func() Operation { return &ApplyDuplication{} },
		func() Operation { return &Undo{} },
		func() Operation { return &Redo{} },
		func() Operation { return &SuspendOp{} },
	)
}

// scriptStep is the JSON form of an operation: {"op": kind, "args": {...}}.
type scriptStep struct {
	Op   OperationKind   `json:"op"`
	Args json.RawMessage `json:"args,omitempty"`
}

// DecodeOperation parses one script step.
func DecodeOperation(data []byte) (Operation, error) {
	var step scriptStep
	if err := json.Unmarshal(data, &step); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	return step.operation()
}

// DecodeScript parses a JSON array of script steps.
func DecodeScript(data []byte) ([]Operation, error) {
	var steps []scriptStep
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	ops := make([]Operation, 0, len(steps))
	for i, step := range steps {
		op, err := step.operation()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// EncodeOperation returns the script step for op.
func EncodeOperation(op Operation) ([]byte, error) {
	args, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op.Kind(), err)
	}
	return json.Marshal(scriptStep{Op: op.Kind(), Args: args})
}

func (s scriptStep) operation() (Operation, error) {
	factory, ok := operationFactories[s.Op]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", s.Op)
	}
	op := factory()
	if len(s.Args) > 0 {
		if err := json.Unmarshal(s.Args, op); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.Op, err)
		}
	}
	return deref(op), nil
}

// deref turns the pointer built by a factory back into the value the
// controller dispatches on.
func deref(op Operation) Operation {
	switch o := op.(type) {
	case *MakeStrand:
		return *o
	case *Cut:
		return *o
	case *Xover:
		return *o
	case *GeneralXover:
		return *o
	case *CrossCut:
		return *o
	case *RemoveStrands:
		return *o
	case *AddHelix:
		return *o
	case *RemoveHelix:
		return *o
	case *AddGrid:
		return *o
	case *RemoveGrid:
		return *o
	case *AddGridHelix:
		return *o
	case *SetSequence:
		return *o
	case *SetColor:
		return *o
	case *SetScaffold:
		return *o
	case *ToggleCyclic:
		return *o
	case *SetInsertionLength:
		return *o
	case *RecolorStaples:
		return *o
	case *SetScaffoldSequence:
		return *o
	case *HelicesToGrid:
		return *o
	case *SetHelicesPersistence:
		return *o
	case *SetSmallSpheres:
		return *o
	case *SetGroup:
		return *o
	case *ToggleAnchors:
		return *o
	case *SetStrandName:
		return *o
	case *SetGridShift:
		return *o
	case *Translation:
		return *o
	case *Rotation:
		return *o
	case *ApplySymmetryToHelices:
		return *o
	case *SnapHelices:
		return *o
	case *SetIsometry2D:
		return *o
	case *RotateHelices2D:
		return *o
	case *SetGridOrientation:
		return *o
	case *SetBezierVertex:
		return *o
	case *RequestStrandBuilders:
		return *o
	case *MoveBuilders:
		return *o
	case *FinishBuilders:
		return *o
	case *CopyStrands:
		return *o
	case *CopyXovers:
		return *o
	case *CopyGrids:
		return *o
	case *CopyHelices:
		return *o
	case *InitStrandsDuplication:
		return *o
	case *InitXoverDuplication:
		return *o
	case *InitHelicesDuplication:
		return *o
	case *PositionPastingPoint:
		return *o
	case *ApplyPaste:
		return *o
	case *ApplyDuplication:
		return *o
	case *Undo:
		return *o
	case *Redo:
		return *o
	case *SuspendOp:
		return *o
	}
	return op
}
