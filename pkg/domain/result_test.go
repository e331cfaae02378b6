package domain

import (
	"context"
	"fmt"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if err.Error() == "" {
		t.Fatalf("expected error string")
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected violation")
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type emptyView struct{}

func (emptyView) Parameters() Parameters              { return DefaultParameters() }
func (emptyView) ListHelices() []HelixID              { return nil }
func (emptyView) ListStrands() []StrandID             { return nil }
func (emptyView) FindHelix(HelixID) (*Helix, bool)    { return nil, false }
func (emptyView) FindStrand(StrandID) (*Strand, bool) { return nil, false }
func (emptyView) StrandOfNucl(Nucl) (StrandID, bool)  { return 0, false }
func (emptyView) Xovers() *XoverRegistry              { return nil }

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(errorRule{})
	if _, err := engine.Evaluate(context.Background(), emptyView{}, nil); err == nil {
		t.Fatalf("expected evaluation error")
	}
}

type errorRule struct{}

func (errorRule) Name() string { return "error" }

func (errorRule) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	return Result{}, fmt.Errorf("boom")
}

func TestViolationString(t *testing.T) {
	v := Violation{Rule: "sane_strand", Severity: SeverityBlock, Message: "empty strand"}
	if got := v.String(); got != "sane_strand [block]: empty strand" {
		t.Fatalf("unexpected string %q", got)
	}
	v.Entity, v.EntityID = EntityStrand, "3"
	if got := v.String(); got != "sane_strand [block] strand 3: empty strand" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestRulesEngineViewOfDesign(t *testing.T) {
	d := NewDesign()
	h := d.AddHelix(NewHelix(Vec3{}, IdentityRotor()))
	s := d.AddStrand(NewStrand(h, 0, true, 0xFF0000))
	view := View(d)
	if got := view.ListHelices(); len(got) != 1 || got[0] != h {
		t.Fatalf("expected helix %d, got %v", h, got)
	}
	if got, ok := view.StrandOfNucl(Nucl{Helix: h, Position: 0, Forward: true}); !ok || got != s {
		t.Fatalf("expected strand %d, got %d (%v)", s, got, ok)
	}
	if view.Xovers().Len() != 0 {
		t.Fatalf("expected no crossover")
	}
}
