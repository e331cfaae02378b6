// Package domain defines the design model of a DNA nanostructure: nucleotides,
// helices, grids, strands and the snapshot type Design, together with the rule
// evaluation primitives used when committing edits.
package domain

import "fmt"

// EntityType identifies the kind of design element named in Change records
// and rule violations.
type EntityType string

// Design element kinds.
const (
	// EntityHelix identifies a helix.
	EntityHelix EntityType = "helix"
	// EntityStrand identifies a strand.
	EntityStrand EntityType = "strand"
	// EntityGrid identifies a free grid.
	EntityGrid EntityType = "grid"
	// EntityBezierPlane identifies a Bezier plane.
	EntityBezierPlane EntityType = "bezier_plane"
	// EntityBezierPath identifies a Bezier path.
	EntityBezierPath EntityType = "bezier_path"
	// EntityXover identifies a crossover.
	EntityXover EntityType = "xover"
	// EntityDesign identifies design level attributes (parameters, scaffold,
	// anchors, display sets).
	EntityDesign EntityType = "design"
	// EntityDocument identifies a stored design document.
	EntityDocument EntityType = "document"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks the commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Change describes an element that differs between two snapshots. Before is
// nil for a creation and After is nil for a deletion.
type Change struct {
	Entity   EntityType
	Action   Action
	EntityID string
	Before   any
	After    any
}

// Action indicates the type of modification performed.
type Action string

// Change actions.
const (
	// ActionCreate indicates an element was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an element was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

func (v Violation) String() string {
	if v.EntityID == "" {
		return fmt.Sprintf("%s [%s]: %s", v.Rule, v.Severity, v.Message)
	}
	return fmt.Sprintf("%s [%s] %s %s: %s", v.Rule, v.Severity, v.Entity, v.EntityID, v.Message)
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Blocking returns the blocking violations only.
func (r Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	blocking := e.Result.Blocking()
	if len(blocking) == 0 {
		return "transaction blocked by rules"
	}
	return fmt.Sprintf("transaction blocked by rules: %s", blocking[0])
}
