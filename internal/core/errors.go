package core

import (
	"errors"
	"fmt"

	"origamicore/pkg/domain"
)

// Errors reported by the controller. None of them leaves a partially
// modified design behind.
var (
	ErrEmptyClipboard          = errors.New("clipboard is empty")
	ErrWrongClipboard          = errors.New("clipboard content does not match the requested paste")
	ErrCannotPasteHere         = errors.New("cannot paste here")
	ErrCouldNotCreateEdges     = errors.New("could not create edges between the copied strands")
	ErrEmptyOrigin             = errors.New("strand has no domain on a helix")
	ErrNotImplemented          = errors.New("operation not implemented")
	ErrBadSelection            = errors.New("selection cannot be used for this operation")
	ErrCutNonExistingStrand    = errors.New("no strand to cut at this nucleotide")
	ErrGridPositionAlreadyUsed = errors.New("grid position already used")
	ErrNothingToUndo           = errors.New("nothing to undo")
	ErrNothingToRedo           = errors.New("nothing to redo")
)

type (
	GridDoesNotExistError       = domain.GridDoesNotExistError
	HelixDoesNotExistError      = domain.HelixDoesNotExistError
	StrandDoesNotExistError     = domain.StrandDoesNotExistError
	NuclDoesNotExistError       = domain.NuclDoesNotExistError
	HelixHasNoGridPositionError = domain.HelixHasNoGridPositionError
	HelixCollisionError         = domain.HelixCollisionError
	NotEnoughHelicesError       = domain.NotEnoughHelicesError
	GridCopyError               = domain.GridCopyError
)

// IncompatibleStateError is returned when an operation is not meaningful in
// the current controller state.
type IncompatibleStateError struct {
	State string
}

func (e IncompatibleStateError) Error() string {
	return fmt.Sprintf("operation not allowed while %s", e.State)
}

// CouldNotMakeEdgeError reports two grid positions with no edge between them.
type CouldNotMakeEdgeError struct {
	From, To domain.GridPosition
}

func (e CouldNotMakeEdgeError) Error() string {
	return fmt.Sprintf("no edge from %s (%d, %d) to %s (%d, %d)", e.From.Grid, e.From.X, e.From.Y, e.To.Grid, e.To.X, e.To.Y)
}

// CannotBuildOnError is returned when a strand builder cannot start at a
// nucleotide surrounded on both sides.
type CannotBuildOnError struct {
	Nucl domain.Nucl
}

func (e CannotBuildOnError) Error() string {
	return fmt.Sprintf("cannot build a strand on %s", e.Nucl)
}

// HelixNotEmptyError is returned when removing a helix that strands still use.
type HelixNotEmptyError struct {
	Helix domain.HelixID
}

func (e HelixNotEmptyError) Error() string {
	return fmt.Sprintf("helix %d still carries strands", e.Helix)
}

// GridNotEmptyError is returned when removing a grid that helices still use.
type GridNotEmptyError struct {
	Grid domain.GridID
}

func (e GridNotEmptyError) Error() string {
	return fmt.Sprintf("%s still carries helices", e.Grid)
}

// recoverable reports whether err leaves the controller in its current
// state instead of resetting it.
func recoverable(err error) bool {
	var incompatible IncompatibleStateError
	return errors.Is(err, ErrCannotPasteHere) || errors.As(err, &incompatible)
}

// OperationError is the failure of one operation of an applied batch.
type OperationError struct {
	Index int
	Err   error
}

func (e OperationError) Error() string {
	return fmt.Sprintf("operation %d: %v", e.Index, e.Err)
}

func (e OperationError) Unwrap() error { return e.Err }
