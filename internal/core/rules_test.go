package core

import (
	"context"
	"strings"
	"testing"

	"origamicore/pkg/domain"
	"origamicore/testutil"
)

func violationsOf(res domain.Result, rule string) []domain.Violation {
	var out []domain.Violation
	for _, v := range res.Violations {
		if v.Rule == rule {
			out = append(out, v)
		}
	}
	return out
}

func evaluateDefault(t *testing.T, d *domain.Design, changes []domain.Change) domain.Result {
	t.Helper()
	res, err := NewDefaultRulesEngine().Evaluate(context.Background(), domain.View(d), changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return res
}

func TestDefaultRulesAcceptSaneDesign(t *testing.T) {
	res := evaluateDefault(t, testutil.DuplexDesign(2, 16), nil)
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
	if got := len(NewDefaultRulesEngine().Rules()); got != 4 {
		t.Fatalf("expected 4 default rules, got %d", got)
	}
}

func TestHalfHelixExclusivityRule(t *testing.T) {
	d := testutil.DuplexDesign(1, 16)
	d.AddStrand(testutil.Strand(0, domain.HelixDomain(0, 4, 8, true)))

	res := evaluateDefault(t, d, nil)
	got := violationsOf(res, "half_helix_exclusivity")
	if len(got) != 1 || got[0].Severity != domain.SeverityBlock {
		t.Fatalf("expected one blocking overlap, got %+v", got)
	}
	if !strings.Contains(got[0].Message, "used by strands") {
		t.Fatalf("unexpected message %q", got[0].Message)
	}

	t.Run("skipped when strands are untouched", func(t *testing.T) {
		res := evaluateDefault(t, d, []domain.Change{{Entity: domain.EntityGrid, Action: domain.ActionUpdate}})
		if len(res.Violations) != 0 {
			t.Fatalf("expected no evaluation, got %+v", res.Violations)
		}
	})
}

func TestHelixReferenceRule(t *testing.T) {
	t.Run("missing helix blocks", func(t *testing.T) {
		d := testutil.DuplexDesign(1, 8)
		d.AddStrand(testutil.Strand(0, domain.HelixDomain(42, 0, 4, true)))
		got := violationsOf(evaluateDefault(t, d, nil), "helix_reference")
		if len(got) != 1 || got[0].Severity != domain.SeverityBlock || got[0].Entity != domain.EntityStrand {
			t.Fatalf("expected blocking strand violation, got %+v", got)
		}
	})

	t.Run("dangling support helix warns", func(t *testing.T) {
		d := testutil.DuplexDesign(1, 8)
		h, ok := d.HelixMut(0)
		if !ok {
			t.Fatalf("helix 0 missing")
		}
		support := domain.HelixID(7)
		h.SupportHelix = &support
		res := evaluateDefault(t, d, []domain.Change{{Entity: domain.EntityHelix, Action: domain.ActionUpdate}})
		got := violationsOf(res, "helix_reference")
		if len(got) != 1 || got[0].Severity != domain.SeverityWarn || got[0].EntityID != "0" {
			t.Fatalf("expected support warning, got %+v", got)
		}
		if res.HasBlocking() {
			t.Fatalf("warning must not block: %+v", res.Violations)
		}
	})
}

func TestSaneStrandRule(t *testing.T) {
	cases := []struct {
		name   string
		strand *domain.Strand
		want   string
	}{
		{
			name:   "no domain",
			strand: &domain.Strand{},
			want:   "no domain",
		},
		{
			name:   "only an insertion",
			strand: &domain.Strand{Domains: []domain.Domain{domain.NewInsertion(3)}, Junctions: []domain.Junction{{}}},
			want:   "no nucleotide on a helix",
		},
		{
			name:   "missing junctions",
			strand: &domain.Strand{Domains: []domain.Domain{domain.HelixDomain(0, 0, 4, true)}},
			want:   "junctions",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := testutil.DuplexDesign(1, 8)
			d.AddStrand(tc.strand)
			got := violationsOf(evaluateDefault(t, d, nil), "sane_strand")
			if len(got) != 1 || !strings.Contains(got[0].Message, tc.want) {
				t.Fatalf("expected %q violation, got %+v", tc.want, got)
			}
		})
	}
}

func TestXoverBijectionRule(t *testing.T) {
	d, _ := testutil.SquareDesign([2]int{0, 0}, [2]int{0, 1})
	d.AddStrand(testutil.Strand(0, domain.HelixDomain(0, 0, 4, true), domain.HelixDomain(1, 0, 4, false)))
	d.AddStrand(testutil.Strand(0, domain.HelixDomain(0, 0, 4, true), domain.HelixDomain(1, 4, 8, false)))

	engine := NewRulesEngine()
	engine.Register(NewXoverBijectionRule())
	res, err := engine.Evaluate(context.Background(), domain.View(d), nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got := violationsOf(res, "xover_bijection")
	if len(got) != 1 || !strings.Contains(got[0].Message, "share nucleotide") {
		t.Fatalf("expected shared 5' end, got %+v", got)
	}
}
