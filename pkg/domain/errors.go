package domain

import (
	"errors"
	"fmt"
)

// ErrHelixNotInNewHelixMap is returned by CopyGrid when a copied strand
// references a helix that was not copied with the grid.
var ErrHelixNotInNewHelixMap = errors.New("helix missing from the copied helix map")

// GridDoesNotExistError reports a dangling grid reference.
type GridDoesNotExistError struct {
	Grid GridID
}

func (e GridDoesNotExistError) Error() string {
	return fmt.Sprintf("%s does not exist", e.Grid)
}

// HelixDoesNotExistError reports a dangling helix reference.
type HelixDoesNotExistError struct {
	Helix HelixID
}

func (e HelixDoesNotExistError) Error() string {
	return fmt.Sprintf("helix %d does not exist", e.Helix)
}

// StrandDoesNotExistError reports a dangling strand reference.
type StrandDoesNotExistError struct {
	Strand StrandID
}

func (e StrandDoesNotExistError) Error() string {
	return fmt.Sprintf("strand %d does not exist", e.Strand)
}

// NuclDoesNotExistError reports a nucleotide that no strand goes through.
type NuclDoesNotExistError struct {
	Nucl Nucl
}

func (e NuclDoesNotExistError) Error() string {
	return fmt.Sprintf("no strand goes through %s", e.Nucl)
}

// HelixHasNoGridPositionError reports a helix that should be on a grid.
type HelixHasNoGridPositionError struct {
	Helix HelixID
}

func (e HelixHasNoGridPositionError) Error() string {
	return fmt.Sprintf("helix %d is not on a grid", e.Helix)
}

// HelixCollisionError reports a grid vertex already carrying another helix.
type HelixCollisionError struct {
	Helix HelixID
	Other HelixID
}

func (e HelixCollisionError) Error() string {
	return fmt.Sprintf("helix %d collides with helix %d", e.Helix, e.Other)
}

// NotEnoughHelicesError is returned when too few free helices are given to
// infer a grid.
type NotEnoughHelicesError struct {
	Got      int
	Required int
}

func (e NotEnoughHelicesError) Error() string {
	return fmt.Sprintf("need at least %d helices to make a grid, got %d", e.Required, e.Got)
}

// GridCopyError wraps the reason why a grid could not be copied.
type GridCopyError struct {
	Err error
}

func (e GridCopyError) Error() string {
	return fmt.Sprintf("copy grid: %v", e.Err)
}

func (e GridCopyError) Unwrap() error { return e.Err }
