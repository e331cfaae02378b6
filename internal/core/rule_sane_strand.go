package core

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"origamicore/pkg/domain"
)

// NewSaneStrandRule returns the rule checking the structural invariants of
// every strand: one junction per domain, sanitised insertions, well-formed
// intervals and at least one nucleotide on a helix.
func NewSaneStrandRule() domain.Rule {
	return saneStrandRule{}
}

type saneStrandRule struct{}

func (saneStrandRule) Name() string { return "sane_strand" }

func (r saneStrandRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, domain.EntityStrand) {
		return res, nil
	}
	for _, id := range view.ListStrands() {
		s, _ := view.FindStrand(id)
		if msg := strandDefect(s); msg != "" {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  msg,
				Entity:   domain.EntityStrand,
				EntityID: strconv.Itoa(int(id)),
			})
		}
	}
	return res, nil
}

func strandDefect(s *domain.Strand) string {
	if len(s.Domains) == 0 {
		return "strand has no domain"
	}
	if _, ok := s.Get5Prime(); !ok {
		return "strand has no nucleotide on a helix"
	}
	if len(s.Junctions) != len(s.Domains) {
		return fmt.Sprintf("strand has %d domains but %d junctions", len(s.Domains), len(s.Junctions))
	}
	for _, d := range s.Domains {
		if d.IsInsertion() {
			if d.NbNucl <= 0 {
				return "empty insertion"
			}
			continue
		}
		if d.Start >= d.End {
			return fmt.Sprintf("domain %s is empty", d)
		}
	}
	if s.Cyclic && len(s.Domains) > 1 && s.Domains[0].IsInsertion() {
		return "cyclic strand starts with an insertion"
	}
	if !slices.Equal(domain.SanitizeDomains(s.Domains, s.Cyclic), s.Domains) {
		return "strand insertions are not sanitised"
	}
	expected := domain.ReadJunctions(s.Domains, s.Cyclic)
	for i, j := range s.Junctions {
		want := expected[i]
		if j.IsXover() && want.IsXover() {
			continue
		}
		if j != want {
			return fmt.Sprintf("junction %d is %s, expected %s", i, j, want)
		}
	}
	return ""
}
