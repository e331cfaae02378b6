package core

import "origamicore/pkg/domain"

// ControllerState is the interaction mode of a Controller.
type ControllerState interface {
	StateName() string
}

// StateNormal is the idle state.
type StateNormal struct{}

// StateBuildingStrand holds the builders of a strand building gesture. Every
// move is replayed on InitialDesign, the design right after the builders
// were requested.
type StateBuildingStrand struct {
	Builders      []*StrandBuilder
	InitialDesign *domain.Design
	Ignored       []DomainIdentifier
}

// StatePositioningStrandPastingPoint previews a strand paste anchored at
// PastingPoint.
type StatePositioningStrandPastingPoint struct {
	PastingPoint    *domain.Nucl
	Pasted          []PastedStrand
	DuplicationEdge *DuplicationEdge
	Clipboard       *StrandClipboard
}

// StatePositioningStrandDuplicationPoint previews the first copy of a
// strand duplication.
type StatePositioningStrandDuplicationPoint struct {
	PastingPoint    *domain.Nucl
	Pasted          []PastedStrand
	DuplicationEdge *DuplicationEdge
	Clipboard       *StrandClipboard
}

// StateWithPendingStrandDuplication can paste the next copy by applying
// DuplicationEdge to the last pasting point. PastingPoints lists the anchor
// of every copy made so far.
type StateWithPendingStrandDuplication struct {
	PastingPoints   []domain.Nucl
	DuplicationEdge DuplicationEdge
	Clipboard       *StrandClipboard
}

// StatePastingXovers previews a crossover paste.
type StatePastingXovers struct {
	PastingPoint *domain.Nucl
	Clipboard    *XoverClipboard
}

// StateDoingFirstXoversDuplication previews the first copy of a crossover
// duplication.
type StateDoingFirstXoversDuplication struct {
	PastingPoint *domain.Nucl
	Clipboard    *XoverClipboard
}

// StateWithPendingXoverDuplication repeats a crossover duplication.
type StateWithPendingXoverDuplication struct {
	PastingPoints   []domain.Nucl
	DuplicationEdge DuplicationEdge
	Clipboard       *XoverClipboard
}

// StatePositioningHelicesPastingPoint previews a helix paste. Duplication
// is set when the paste starts a duplication.
type StatePositioningHelicesPastingPoint struct {
	PastingPoint *domain.GridPosition
	Duplication  bool
	Clipboard    *HelixClipboard
}

// StateWithPendingHelicesDuplication repeats a helix duplication.
type StateWithPendingHelicesDuplication struct {
	PastingPoints   []domain.GridPosition
	DuplicationEdge domain.Edge
	Clipboard       *HelixClipboard
}

// StatePositioningGridsPastingPoint waits for the position of the first
// pasted grid.
type StatePositioningGridsPastingPoint struct {
	PastingPoint *domain.Vec3
	Clipboard    *GridClipboard
}

func (StateNormal) StateName() string {
	return "Normal"
}

func (StateBuildingStrand) StateName() string {
	return "BuildingStrand"
}

func (StatePositioningStrandPastingPoint) StateName() string {
	return "PositioningStrandPastingPoint"
}

func (StatePositioningStrandDuplicationPoint) StateName() string {
	return "PositioningStrandDuplicationPoint"
}

func (StateWithPendingStrandDuplication) StateName() string {
	return "WithPendingStrandDuplication"
}

func (StatePastingXovers) StateName() string {
	return "PastingXovers"
}

func (StateDoingFirstXoversDuplication) StateName() string {
	return "DoingFirstXoversDuplication"
}

func (StateWithPendingXoverDuplication) StateName() string {
	return "WithPendingXoverDuplication"
}

func (StatePositioningHelicesPastingPoint) StateName() string {
	return "PositioningHelicesPastingPoint"
}

func (StateWithPendingHelicesDuplication) StateName() string {
	return "WithPendingHelicesDuplication"
}

func (StatePositioningGridsPastingPoint) StateName() string {
	return "PositioningGridsPastingPoint"
}

// pendingDuplication reports whether s repeats a duplication, in which case
// undo and redo step through the copies.
func pendingDuplication(s ControllerState) bool {
	switch s.(type) {
	case StateWithPendingStrandDuplication, StateWithPendingXoverDuplication, StateWithPendingHelicesDuplication:
		return true
	}
	return false
}
