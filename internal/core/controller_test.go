package core

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"origamicore/pkg/domain"
	"origamicore/testutil"
)

func mustApply(t *testing.T, c *Controller, ops ...Operation) {
	t.Helper()
	for _, op := range ops {
		if err := c.Apply(context.Background(), op); err != nil {
			t.Fatalf("apply %s: %v", op.Kind(), err)
		}
	}
}

func designJSON(t *testing.T, d *domain.Design) string {
	t.Helper()
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal design: %v", err)
	}
	return string(data)
}

func twoStrandDesign() (*domain.Design, domain.StrandID, domain.StrandID, []domain.HelixID) {
	d, helices := testutil.SquareDesign([2]int{0, 0}, [2]int{1, 0})
	a := d.AddStrand(testutil.Strand(0xFF0000FF, domain.HelixDomain(helices[0], 0, 10, true)))
	b := d.AddStrand(testutil.Strand(0xFF00FF00, domain.HelixDomain(helices[1], 0, 10, false)))
	return d, a, b, helices
}

func TestXoverThenCutRestoresStrands(t *testing.T) {
	d, a, b, helices := twoStrandDesign()
	sa, _ := d.Strand(a)
	sb, _ := d.Strand(b)
	c := NewController(d)

	mustApply(t, c, Xover{Prime5: a, Prime3: b})
	merged, ok := c.Design().Strand(a)
	if !ok {
		t.Fatalf("expected merged strand under id %d", a)
	}
	if c.Design().Strands.Has(b) {
		t.Fatalf("expected strand %d to be absorbed", b)
	}
	if len(merged.Junctions) != 2 || !merged.Junctions[0].IsXover() || merged.Junctions[1] != domain.Prime3End {
		t.Fatalf("unexpected junctions %v", merged.Junctions)
	}

	mustApply(t, c, Cut{Strand: a, Nucl: testutil.Nucl(helices[0], 9, true)})
	for id, want := range map[domain.StrandID]*domain.Strand{a: sa, b: sb} {
		got, ok := c.Design().Strand(id)
		if !ok {
			t.Fatalf("strand %d missing after cut", id)
		}
		if !slices.Equal(got.Domains, want.Domains) || got.Cyclic {
			t.Fatalf("strand %d: got %v want %v", id, got.Domains, want.Domains)
		}
		if len(got.Junctions) != 1 || got.Junctions[0] != domain.Prime3End {
			t.Fatalf("strand %d junctions %v", id, got.Junctions)
		}
	}
}

func TestXoverWithItselfMakesStrandCyclic(t *testing.T) {
	d, helices := testutil.SquareDesign([2]int{0, 0}, [2]int{1, 0})
	id := d.AddStrand(testutil.Strand(0, domain.HelixDomain(helices[0], 0, 10, true), domain.HelixDomain(helices[1], 0, 10, false)))
	c := NewController(d)
	mustApply(t, c, Xover{Prime5: id, Prime3: id})
	s, _ := c.Design().Strand(id)
	if !s.Cyclic {
		t.Fatalf("expected cyclic strand")
	}
	if err := c.Apply(context.Background(), Xover{Prime5: id, Prime3: id}); !errors.Is(err, ErrBadSelection) {
		t.Fatalf("expected ErrBadSelection on cyclic strand, got %v", err)
	}
}

func TestCutErrors(t *testing.T) {
	d, helices := testutil.SquareDesign([2]int{0, 0})
	id := d.AddStrand(domain.NewStrand(helices[0], 3, true, 0))
	c := NewController(d)
	if err := c.Apply(context.Background(), Cut{Strand: id, Nucl: testutil.Nucl(helices[0], 3, true)}); !errors.Is(err, ErrCutNonExistingStrand) {
		t.Fatalf("expected ErrCutNonExistingStrand for a one nucleotide strand, got %v", err)
	}
	if err := c.Apply(context.Background(), Cut{Nucl: testutil.Nucl(helices[0], 40, true)}); !errors.Is(err, ErrCutNonExistingStrand) {
		t.Fatalf("expected ErrCutNonExistingStrand on empty position, got %v", err)
	}
	if c.Design() != d || c.CanUndo() {
		t.Fatalf("failed cuts must leave the design untouched")
	}
}

func TestUndoRestoresSnapshotPointer(t *testing.T) {
	d := testutil.DuplexDesign(2, 20)
	helix := domain.HelixID(0)
	ops := []Operation{
		Cut{Strand: 0, Nucl: testutil.Nucl(helix, 9, true)},
		RemoveStrands{Strands: []domain.StrandID{1}},
		SetSequence{Strand: 0, Sequence: "ACGT"},
		SetColor{Strands: []domain.StrandID{0, 2}, Color: 0xFF123456},
		ToggleCyclic{Strand: 2},
		SetStrandName{Strand: 0, Name: "staple"},
		SetInsertionLength{Nucl: testutil.Nucl(helix, 4, true), Length: 3},
		ToggleAnchors{Nucls: []domain.Nucl{testutil.Nucl(helix, 0, true)}},
		GeneralXover{Source: testutil.Nucl(0, 5, true), Target: testutil.Nucl(1, 5, false)},
	}
	for _, op := range ops {
		t.Run(string(op.Kind()), func(t *testing.T) {
			c := NewController(d)
			mustApply(t, c, op)
			if c.Design() == d {
				t.Fatalf("expected a new snapshot")
			}
			mustApply(t, c, Undo{})
			if c.Design() != d {
				t.Fatalf("undo must restore the original snapshot")
			}
			mustApply(t, c, Redo{})
			if c.Design() == d {
				t.Fatalf("redo must reinstall the edited snapshot")
			}
		})
	}
}

func TestUndoRedoDeterminism(t *testing.T) {
	d, helices := testutil.SquareDesign([2]int{0, 0}, [2]int{1, 0})
	op1 := MakeStrand{Nucl: testutil.Nucl(helices[0], 0, true), Color: 0xFF111111}
	op2 := MakeStrand{Nucl: testutil.Nucl(helices[0], 5, true), Color: 0xFF222222}
	op3 := MakeStrand{Nucl: testutil.Nucl(helices[1], 0, true), Color: 0xFF333333}

	run := func() *Controller {
		c := NewController(d)
		mustApply(t, c, op1, op2, Undo{}, op3)
		return c
	}
	c := run()
	if c.CanRedo() {
		t.Fatalf("redo stack must be empty after a new operation")
	}
	ref := NewController(d)
	mustApply(t, ref, op1, op3)
	if designJSON(t, c.Design()) != designJSON(t, ref.Design()) {
		t.Fatalf("undo then op3 differs from op1 then op3")
	}
	if designJSON(t, run().Design()) != designJSON(t, c.Design()) {
		t.Fatalf("replaying the sequence must be deterministic")
	}
	if err := NewController(d).Apply(context.Background(), Redo{}); !errors.Is(err, ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
	if err := NewController(d).Apply(context.Background(), Undo{}); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestPaletteColorsAreDeterministic(t *testing.T) {
	d, helices := testutil.SquareDesign([2]int{0, 0})
	c := NewController(d)
	mustApply(t, c,
		MakeStrand{Nucl: testutil.Nucl(helices[0], 0, true)},
		MakeStrand{Nucl: testutil.Nucl(helices[0], 5, true)},
	)
	if c.ColorIndex() != 2 {
		t.Fatalf("expected two allocated colours, got %d", c.ColorIndex())
	}
	s0, _ := c.Design().Strand(0)
	s1, _ := c.Design().Strand(1)
	if s0.Color != 0xFFF3C300 || s1.Color != 0xFF875692 {
		t.Fatalf("unexpected colours %08X %08X", s0.Color, s1.Color)
	}

	var alloc ColorAllocator
	first := alloc.Next()
	for range 18 {
		alloc.Next()
	}
	if alloc.Next() != first {
		t.Fatalf("palette must wrap after 19 colours")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "blocking" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "blocking", Severity: domain.SeverityBlock, Message: "no edits"}}}, nil
}

func TestFailedOperationKeepsColorIndex(t *testing.T) {
	d, helices := testutil.SquareDesign([2]int{0, 0})
	d.AddStrand(testutil.Strand(0, domain.HelixDomain(helices[0], 0, 10, true)))
	c := NewController(d)
	var taken CannotBuildOnError
	if err := c.Apply(context.Background(), MakeStrand{Nucl: testutil.Nucl(helices[0], 3, true)}); !errors.As(err, &taken) {
		t.Fatalf("expected CannotBuildOnError, got %v", err)
	}

	engine := NewRulesEngine()
	engine.Register(blockingRule{})
	c = NewController(d, WithControllerRules(engine))
	var violation RuleViolationError
	err := c.Apply(context.Background(), MakeStrand{Nucl: testutil.Nucl(helices[0], 30, true)})
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if c.ColorIndex() != 0 || c.Design() != d || c.CanUndo() {
		t.Fatalf("rejected operation must leave the controller untouched")
	}
}

func TestReplacingGestureKeepsOneHistoryEntry(t *testing.T) {
	d, helices := testutil.SquareDesign([2]int{0, 0}, [2]int{1, 0})
	c := NewController(d)
	move := func(x float64) Translation {
		return Translation{
			Translation: domain.Vec3{X: x},
			Target:      IsometryTarget{Kind: TargetHelices, Helices: helices[:1]},
			Replace:     true,
		}
	}
	mustApply(t, c, move(1), move(2), move(3))
	h, _ := c.Design().Helix(helices[0])
	orig, _ := d.Helix(helices[0])
	if got := h.Position.X - orig.Position.X; got < 2.999 || got > 3.001 {
		t.Fatalf("continued translation must be relative to the gesture start, moved by %v", got)
	}
	if h.GridPosition != nil {
		t.Fatalf("non snapped translation must detach the helix from its grid")
	}
	mustApply(t, c, Undo{})
	if c.Design() != d || c.CanUndo() {
		t.Fatalf("a gesture must be undone in one step")
	}

	mustApply(t, c, move(1), SuspendOp{}, move(1))
	if len(c.undo) != 2 {
		t.Fatalf("suspend must start a new history entry, got %d entries", len(c.undo))
	}
}

func TestTranslateDesignIsNotImplemented(t *testing.T) {
	d, _ := testutil.SquareDesign([2]int{0, 0})
	c := NewController(d)
	err := c.Apply(context.Background(), Translation{Target: IsometryTarget{Kind: TargetDesign}})
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestStrandBuilderGesture(t *testing.T) {
	d, helices := testutil.SquareDesign([2]int{0, 0})
	c := NewController(d)
	mustApply(t, c, RequestStrandBuilders{Nucls: []domain.Nucl{testutil.Nucl(helices[0], 5, true)}})
	st, ok := c.State().(StateBuildingStrand)
	if !ok || len(st.Builders) != 1 || !st.Builders[0].DeNovo() {
		t.Fatalf("expected a de novo builder, state %s", c.State().StateName())
	}

	mustApply(t, c, MoveBuilders{Objective: 10})
	s, _ := c.Design().Strand(0)
	if s.Domains[0].Start != 5 || s.Domains[0].End != 11 {
		t.Fatalf("expected [5, 11), got %v", s.Domains[0])
	}
	mustApply(t, c, MoveBuilders{Objective: 2})
	s, _ = c.Design().Strand(0)
	if s.Domains[0].Start != 2 || s.Domains[0].End != 6 {
		t.Fatalf("moves must replay from the initial design, got %v", s.Domains[0])
	}

	if err := c.Apply(context.Background(), Cut{Strand: 0, Nucl: testutil.Nucl(helices[0], 3, true)}); !IsIncompatibleState(err) {
		t.Fatalf("expected incompatible state while building, got %v", err)
	}
	if _, ok := c.State().(StateBuildingStrand); !ok {
		t.Fatalf("an incompatible operation keeps the gesture alive, state %s", c.State().StateName())
	}

	mustApply(t, c, Undo{})
	if c.Design() != d {
		t.Fatalf("the whole building gesture must undo in one step")
	}
	if err := c.Apply(context.Background(), FinishBuilders{}); !IsIncompatibleState(err) {
		t.Fatalf("expected incompatible state outside building, got %v", err)
	}
}

func TestStrandBuilderStopsAtNeighbour(t *testing.T) {
	d, helices := testutil.SquareDesign([2]int{0, 0})
	d.AddStrand(testutil.Strand(0, domain.HelixDomain(helices[0], 10, 20, true)))
	c := NewController(d)
	mustApply(t, c,
		RequestStrandBuilders{Nucls: []domain.Nucl{testutil.Nucl(helices[0], 0, true)}},
		MoveBuilders{Objective: 15},
		FinishBuilders{},
	)
	built, _ := c.Design().Strand(1)
	neighbour, _ := c.Design().Strand(0)
	if built.Domains[0].Intersect(neighbour.Domains[0]) {
		t.Fatalf("builder overlapped its neighbour: %v %v", built.Domains[0], neighbour.Domains[0])
	}
	if _, ok := c.State().(StateNormal); !ok {
		t.Fatalf("expected Normal after FinishBuilders")
	}
}

func TestBuilderReattachesDetachedNeighbour(t *testing.T) {
	d, h, a, b := abuttingDesign()
	c := NewController(d)
	mustApply(t, c,
		RequestStrandBuilders{Nucls: []domain.Nucl{testutil.Nucl(h, 4, true)}},
		MoveBuilders{Objective: 2},
		MoveBuilders{Objective: 8},
	)
	if _, ok := c.State().(StateBuildingStrand); !ok {
		t.Fatalf("expected the gesture to go on, state %s", c.State().StateName())
	}
	left, right := domainOf(t, c.Design(), a), domainOf(t, c.Design(), b)
	if left.Intersect(right) {
		t.Fatalf("domains overlap: %v %v", left, right)
	}
	if left.End != 9 || right.Start != 9 {
		t.Fatalf("expected the neighbour dragged to 9, got %v %v", left, right)
	}
}

func TestAddGridHelixCreatesDuplex(t *testing.T) {
	d, _ := testutil.SquareDesign([2]int{0, 0})
	c := NewController(d)
	pos := domain.GridPosition{Grid: domain.FreeGrid(0), X: 1, Y: 0}
	mustApply(t, c, AddGridHelix{Position: pos, Start: 0, Length: 12})
	if c.Design().Strands.Len() != 2 {
		t.Fatalf("expected two strands, got %d", c.Design().Strands.Len())
	}
	if err := c.Apply(context.Background(), AddGridHelix{Position: pos}); !errors.Is(err, ErrGridPositionAlreadyUsed) {
		t.Fatalf("expected ErrGridPositionAlreadyUsed, got %v", err)
	}
	var missing GridDoesNotExistError
	err := c.Apply(context.Background(), AddGridHelix{Position: domain.GridPosition{Grid: domain.FreeGrid(7)}})
	if !errors.As(err, &missing) {
		t.Fatalf("expected GridDoesNotExistError, got %v", err)
	}
}

func TestRemoveHelixAndGridRequireEmptiness(t *testing.T) {
	d := testutil.DuplexDesign(1, 10)
	c := NewController(d)
	var helixErr HelixNotEmptyError
	if err := c.Apply(context.Background(), RemoveHelix{Helix: 0}); !errors.As(err, &helixErr) {
		t.Fatalf("expected HelixNotEmptyError, got %v", err)
	}
	var gridErr GridNotEmptyError
	if err := c.Apply(context.Background(), RemoveGrid{Grid: 0}); !errors.As(err, &gridErr) {
		t.Fatalf("expected GridNotEmptyError, got %v", err)
	}
	mustApply(t, c, RemoveStrands{Strands: []domain.StrandID{0, 1}}, RemoveHelix{Helix: 0}, RemoveGrid{Grid: 0})
	if c.Design().Helices.Len() != 0 || c.Design().Grids.Len() != 0 {
		t.Fatalf("expected empty design")
	}
}

func TestScaffoldOperations(t *testing.T) {
	d := testutil.DuplexDesign(1, 10)
	c := NewController(d)
	scaffold := domain.StrandID(0)
	mustApply(t, c,
		SetScaffold{Strand: &scaffold},
		SetScaffoldSequence{Sequence: "ACGTACGTAC", Shift: 2},
		RecolorStaples{},
	)
	if !c.Design().IsScaffold(0) || c.Design().ScaffoldShift != 2 {
		t.Fatalf("scaffold not recorded")
	}
	s0, _ := c.Design().Strand(0)
	s1, _ := c.Design().Strand(1)
	if s0.Color != 0xFF0000FF {
		t.Fatalf("scaffold must keep its colour")
	}
	if s1.Color == 0xFF00FF00 {
		t.Fatalf("staples must be recoloured")
	}
	mustApply(t, c, RemoveStrands{Strands: []domain.StrandID{0}})
	if c.Design().Scaffold != nil {
		t.Fatalf("removing the scaffold clears the designation")
	}
}

func TestCrossCut(t *testing.T) {
	cases := []struct {
		name         string
		target3Prime bool
		// linked holds the nucleotide n of b at the crossover; rest is the
		// other half of b.
		linked []domain.Domain
		rest   []domain.Domain
	}{
		{
			name:         "source before the cut",
			target3Prime: true,
			linked:       []domain.Domain{domain.HelixDomain(0, 0, 10, true), domain.HelixDomain(1, 0, 6, false)},
			rest:         []domain.Domain{domain.HelixDomain(1, 6, 10, false)},
		},
		{
			name:         "source after the cut",
			target3Prime: false,
			linked:       []domain.Domain{domain.HelixDomain(1, 5, 10, false), domain.HelixDomain(0, 0, 10, true)},
			rest:         []domain.Domain{domain.HelixDomain(1, 0, 5, false)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, a, b, helices := twoStrandDesign()
			n := testutil.Nucl(helices[1], 5, false)
			c := NewController(d)
			mustApply(t, c, CrossCut{Source: a, Target: b, Nucl: n, Target3Prime: tc.target3Prime})

			got := c.Design()
			if got.Strands.Len() != 2 {
				t.Fatalf("expected two strands, got %d", got.Strands.Len())
			}
			linked := strandAt(t, got, n)
			if !slices.Equal(linked.Domains, tc.linked) {
				t.Fatalf("linked strand %v, want %v", linked.Domains, tc.linked)
			}
			if !slices.Contains(linked.Nucls(), testutil.Nucl(helices[0], 0, true)) {
				t.Fatalf("source must be part of the linked strand")
			}
			restNucl := tc.rest[0].Nucls()[0]
			if rest := strandAt(t, got, restNucl); !slices.Equal(rest.Domains, tc.rest) {
				t.Fatalf("other half %v, want %v", rest.Domains, tc.rest)
			}
		})
	}
}

func TestGeneralXover(t *testing.T) {
	h0 := func(pos int) domain.Nucl { return testutil.Nucl(0, pos, true) }
	h1 := func(pos int) domain.Nucl { return testutil.Nucl(1, pos, false) }
	twoStrands := func() *domain.Design {
		d, _, _, _ := twoStrandDesign()
		return d
	}
	oneStrand := func() *domain.Design {
		d, helices := testutil.SquareDesign([2]int{0, 0}, [2]int{1, 0})
		d.AddStrand(testutil.Strand(0, domain.HelixDomain(helices[0], 0, 10, true), domain.HelixDomain(helices[1], 0, 10, false)))
		return d
	}

	cases := []struct {
		name    string
		design  func() *domain.Design
		source  domain.Nucl
		target  domain.Nucl
		err     error
		strands int
		// want maps a nucleotide to the domains of the strand holding it.
		want   map[domain.Nucl][]domain.Domain
		cyclic domain.Nucl
	}{
		{
			name: "3' end to 5' end merges", design: twoStrands,
			source: h0(9), target: h1(9), strands: 1,
			want: map[domain.Nucl][]domain.Domain{
				h0(0): {domain.HelixDomain(0, 0, 10, true), domain.HelixDomain(1, 0, 10, false)},
			},
		},
		{
			name: "two 3' ends", design: twoStrands,
			source: h0(9), target: h1(0), err: ErrBadSelection,
		},
		{
			name: "same helix", design: twoStrands,
			source: h0(9), target: h0(0), err: ErrBadSelection,
		},
		{
			name: "source end cuts the target", design: twoStrands,
			source: h0(9), target: h1(5), strands: 2,
			want: map[domain.Nucl][]domain.Domain{
				h0(0): {domain.HelixDomain(0, 0, 10, true), domain.HelixDomain(1, 0, 6, false)},
				h1(9): {domain.HelixDomain(1, 6, 10, false)},
			},
		},
		{
			name: "target end cuts the source", design: twoStrands,
			source: h0(5), target: h1(9), strands: 2,
			want: map[domain.Nucl][]domain.Domain{
				h0(0): {domain.HelixDomain(0, 0, 6, true), domain.HelixDomain(1, 0, 10, false)},
				h0(9): {domain.HelixDomain(0, 6, 10, true)},
			},
		},
		{
			name: "cut both strands", design: twoStrands,
			source: h0(5), target: h1(5), strands: 3,
			want: map[domain.Nucl][]domain.Domain{
				h0(0): {domain.HelixDomain(0, 0, 6, true), domain.HelixDomain(1, 0, 6, false)},
				h0(9): {domain.HelixDomain(0, 6, 10, true)},
				h1(9): {domain.HelixDomain(1, 6, 10, false)},
			},
		},
		{
			name: "same strand, source first", design: oneStrand,
			source: h0(5), target: h1(5), strands: 2,
			want: map[domain.Nucl][]domain.Domain{
				h0(0): {domain.HelixDomain(0, 0, 6, true), domain.HelixDomain(1, 0, 6, false)},
				h0(9): {domain.HelixDomain(0, 6, 10, true), domain.HelixDomain(1, 6, 10, false)},
			},
		},
		{
			name: "same strand, target first", design: oneStrand,
			source: h1(5), target: h0(5), strands: 3,
			want: map[domain.Nucl][]domain.Domain{
				h0(0): {domain.HelixDomain(0, 0, 5, true)},
				h1(0): {domain.HelixDomain(1, 0, 5, false)},
			},
			cyclic: h0(5),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := tc.design()
			c := NewController(d)
			err := c.Apply(context.Background(), GeneralXover{Source: tc.source, Target: tc.target})
			if tc.err != nil {
				if !errors.Is(err, tc.err) || c.Design() != d {
					t.Fatalf("expected %v and an untouched design, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("general xover: %v", err)
			}
			got := c.Design()
			if got.Strands.Len() != tc.strands {
				t.Fatalf("expected %d strands, got %d", tc.strands, got.Strands.Len())
			}
			for n, want := range tc.want {
				if s := strandAt(t, got, n); !slices.Equal(s.Domains, want) || s.Cyclic {
					t.Fatalf("strand at %v: %v, want %v", n, s.Domains, want)
				}
			}
			if tc.cyclic != (domain.Nucl{}) {
				s := strandAt(t, got, tc.cyclic)
				if !s.Cyclic || s.Length() != 10 || !slices.Contains(s.Nucls(), tc.source) {
					t.Fatalf("expected a cyclic strand of 10 through the crossover, got %v cyclic=%v", s.Domains, s.Cyclic)
				}
			}
		})
	}
}
