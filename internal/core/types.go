package core

import "origamicore/pkg/domain"

type (
	Design             = domain.Design
	Strand             = domain.Strand
	Helix              = domain.Helix
	Nucl               = domain.Nucl
	HelixID            = domain.HelixID
	StrandID           = domain.StrandID
	FreeGridID         = domain.FreeGridID
	GridID             = domain.GridID
	GridPosition       = domain.GridPosition
	Edge               = domain.Edge
	Vec2               = domain.Vec2
	Vec3               = domain.Vec3
	Rotor              = domain.Rotor
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Document           = domain.Document
	DocumentStore      = domain.DocumentStore
	Transaction        = domain.Transaction
	DocumentView       = domain.DocumentView
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
