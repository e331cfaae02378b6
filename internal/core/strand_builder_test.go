package core

import (
	"testing"

	"origamicore/pkg/domain"
	"origamicore/testutil"
)

func TestNeighbourAt(t *testing.T) {
	d := testutil.DuplexDesign(1, 16)
	d.AddStrand(testutil.Strand(0, domain.HelixDomain(0, 20, 21, true)))

	cases := []struct {
		name  string
		nucl  domain.Nucl
		ok    bool
		end   DomainEnd
		fixed int
	}{
		{"start of a domain", testutil.Nucl(0, 0, true), true, DomainEndStart, 15},
		{"end of a domain", testutil.Nucl(0, 15, false), true, DomainEndEnd, 0},
		{"single nucleotide", testutil.Nucl(0, 20, true), true, DomainEndAny, 20},
		{"middle of a domain", testutil.Nucl(0, 7, true), false, 0, 0},
		{"free position", testutil.Nucl(0, 30, true), false, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			desc, ok := NeighbourAt(d, tc.nucl)
			if ok != tc.ok {
				t.Fatalf("NeighbourAt ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if desc.Identifier.End != tc.end || desc.FixedEnd != tc.fixed || desc.MovingEnd != tc.nucl.Position {
				t.Fatalf("unexpected descriptor %+v", desc)
			}
			if !desc.Identifier.SameDomain(DomainIdentifier{Strand: desc.Identifier.Strand, End: DomainEndAny}) {
				t.Fatalf("domain index should be 0, got %d", desc.Identifier.Domain)
			}
		})
	}
}

// abuttingDesign has strand a on [0, 5) followed by strand b on [5, 15),
// both forward on the first helix.
func abuttingDesign() (d *domain.Design, h domain.HelixID, a, b domain.StrandID) {
	d, helices := testutil.SquareDesign([2]int{0, 0})
	h = helices[0]
	a = d.AddStrand(testutil.Strand(0, domain.HelixDomain(h, 0, 5, true)))
	b = d.AddStrand(testutil.Strand(0, domain.HelixDomain(h, 5, 15, true)))
	return d, h, a, b
}

func domainOf(t *testing.T, d *domain.Design, id domain.StrandID) domain.Domain {
	t.Helper()
	s, ok := d.Strand(id)
	if !ok || len(s.Domains) != 1 {
		t.Fatalf("strand %v missing or split", id)
	}
	return s.Domains[0]
}

func TestBuilderDragsNeighbour(t *testing.T) {
	initial, h, a, b := abuttingDesign()
	builder, err := requestBuilder(initial, testutil.Nucl(h, 4, true), &ColorAllocator{})
	if err != nil {
		t.Fatalf("requestBuilder: %v", err)
	}
	if n, ok := builder.Neighbour(); !ok || n.Identifier.Strand != b {
		t.Fatalf("expected b as neighbour, got %+v", n)
	}
	ignored := []DomainIdentifier{builder.Identifier()}

	// Each step replays from the initial design with the builder left by the
	// previous one, the way a gesture does.
	steps := []struct {
		name      string
		objective int
		a, b      [2]int
		attached  bool
	}{
		{"drag forward", 8, [2]int{0, 9}, [2]int{9, 15}, true},
		{"detach backward", 2, [2]int{0, 3}, [2]int{5, 15}, false},
		{"re-attach forward", 8, [2]int{0, 9}, [2]int{9, 15}, true},
		{"stop before the neighbour vanishes", 30, [2]int{0, 14}, [2]int{14, 15}, true},
		{"stop at the fixed end", -10, [2]int{0, 1}, [2]int{5, 15}, false},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			d := initial.Clone()
			builder = builder.clone()
			builder.MoveTo(step.objective, d, ignored)
			if got := domainOf(t, d, a); got.Start != step.a[0] || got.End != step.a[1] {
				t.Fatalf("a = [%d, %d), want %v", got.Start, got.End, step.a)
			}
			if got := domainOf(t, d, b); got.Start != step.b[0] || got.End != step.b[1] {
				t.Fatalf("b = [%d, %d), want %v", got.Start, got.End, step.b)
			}
			if _, ok := builder.Neighbour(); ok != step.attached {
				t.Fatalf("attached = %v, want %v", ok, step.attached)
			}
		})
	}
}

func TestBuilderTrySteps(t *testing.T) {
	initial, h, _, _ := abuttingDesign()
	cases := []struct {
		name  string
		from  int
		incr  bool
		ok    bool
		final int
	}{
		{"incr inside bounds", 4, true, true, 5},
		{"decr inside bounds", 4, false, true, 3},
		{"incr at the upper bound", 13, true, false, 13},
		{"decr at the fixed end", 0, false, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := initial.Clone()
			builder, err := requestBuilder(d, testutil.Nucl(h, 4, true), &ColorAllocator{})
			if err != nil {
				t.Fatalf("requestBuilder: %v", err)
			}
			ignored := []DomainIdentifier{builder.Identifier()}
			builder.MoveTo(tc.from, initial.Clone(), ignored)
			step := builder.TryDecr
			if tc.incr {
				step = builder.TryIncr
			}
			if ok := step(initial.Clone(), ignored); ok != tc.ok {
				t.Fatalf("step ok = %v, want %v", ok, tc.ok)
			}
			if builder.MovingEnd.Position != tc.final {
				t.Fatalf("moving end at %d, want %d", builder.MovingEnd.Position, tc.final)
			}
		})
	}
}
