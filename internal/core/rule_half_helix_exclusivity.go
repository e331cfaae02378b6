package core

import (
	"context"
	"fmt"
	"strconv"

	"origamicore/pkg/domain"
)

// NewHalfHelixExclusivityRule returns the rule rejecting designs where a
// nucleotide is covered by two domains.
func NewHalfHelixExclusivityRule() domain.Rule {
	return halfHelixExclusivityRule{}
}

type halfHelixExclusivityRule struct{}

func (halfHelixExclusivityRule) Name() string { return "half_helix_exclusivity" }

func (r halfHelixExclusivityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, domain.EntityStrand) {
		return res, nil
	}
	owner := make(map[domain.Nucl]domain.StrandID)
	reported := make(map[domain.StrandID]bool)
	for _, id := range view.ListStrands() {
		s, _ := view.FindStrand(id)
		for _, d := range s.Domains {
			for _, n := range d.Nucls() {
				other, taken := owner[n]
				if !taken {
					owner[n] = id
					continue
				}
				if reported[id] {
					continue
				}
				reported[id] = true
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     r.Name(),
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("nucleotide %s is used by strands %d and %d", n, other, id),
					Entity:   domain.EntityStrand,
					EntityID: strconv.Itoa(int(id)),
				})
			}
		}
	}
	return res, nil
}
