package core

import (
	"context"
	"fmt"
	"strconv"

	"origamicore/pkg/domain"
)

// NewXoverBijectionRule returns the rule checking that crossover ids name
// exactly one crossover each and that no nucleotide starts or ends two of
// them.
func NewXoverBijectionRule() domain.Rule {
	return xoverBijectionRule{}
}

type xoverBijectionRule struct{}

func (xoverBijectionRule) Name() string { return "xover_bijection" }

func (r xoverBijectionRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, domain.EntityStrand) {
		return res, nil
	}
	reg := view.Xovers()
	total := 0
	for _, id := range view.ListStrands() {
		s, _ := view.FindStrand(id)
		total += len(s.Xovers())
	}
	if reg.Len() != total {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%d crossovers registered for %d links", reg.Len(), total),
			Entity:   domain.EntityXover,
		})
	}
	prime5 := make(map[domain.Nucl]domain.XoverID)
	prime3 := make(map[domain.Nucl]domain.XoverID)
	for _, x := range reg.List() {
		if other, dup := prime5[x.Prime5]; dup {
			res.Violations = append(res.Violations, r.shared(x, other, x.Prime5))
		}
		if other, dup := prime3[x.Prime3]; dup {
			res.Violations = append(res.Violations, r.shared(x, other, x.Prime3))
		}
		prime5[x.Prime5] = x.ID
		prime3[x.Prime3] = x.ID
	}
	return res, nil
}

func (r xoverBijectionRule) shared(x domain.XoverWithID, other domain.XoverID, n domain.Nucl) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  fmt.Sprintf("crossovers %d and %d share nucleotide %s", other, x.ID, n),
		Entity:   domain.EntityXover,
		EntityID: strconv.Itoa(int(x.ID)),
	}
}
