package core

import (
	"context"
	"fmt"
	"strconv"

	"origamicore/pkg/domain"
)

// NewHelixReferenceRule returns the rule checking that strands only use
// existing helices. A dangling support helix is reported as a warning since
// nucleotides then fall back to their own helix.
func NewHelixReferenceRule() domain.Rule {
	return helixReferenceRule{}
}

type helixReferenceRule struct{}

func (helixReferenceRule) Name() string { return "helix_reference" }

func (r helixReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, domain.EntityStrand, domain.EntityHelix) {
		return res, nil
	}
	for _, id := range view.ListStrands() {
		s, _ := view.FindStrand(id)
		for _, d := range s.Domains {
			if d.IsInsertion() {
				continue
			}
			if _, ok := view.FindHelix(d.Helix); ok {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("domain %s references missing helix %d", d, d.Helix),
				Entity:   domain.EntityStrand,
				EntityID: strconv.Itoa(int(id)),
			})
			break
		}
	}
	for _, id := range view.ListHelices() {
		h, _ := view.FindHelix(id)
		if h.SupportHelix == nil {
			continue
		}
		if _, ok := view.FindHelix(*h.SupportHelix); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("support helix %d is missing", *h.SupportHelix),
				Entity:   domain.EntityHelix,
				EntityID: strconv.Itoa(int(id)),
			})
		}
	}
	return res, nil
}
