package domain

import (
	"slices"
	"testing"
)

func TestNuclNavigation(t *testing.T) {
	fwd := Nucl{Helix: 1, Position: 5, Forward: true}
	bwd := fwd.Compl()

	if got := fwd.Prime3(); got.Position != 6 {
		t.Fatalf("forward prime3: got %v", got)
	}
	if got := bwd.Prime3(); got.Position != 4 {
		t.Fatalf("backward prime3: got %v", got)
	}
	if got := bwd.Prime5().Prime3(); got != bwd {
		t.Fatalf("prime5/prime3 should cancel, got %v", got)
	}
	if !fwd.IsNeighbour(fwd.Left()) || !fwd.IsNeighbour(fwd.Right()) {
		t.Fatalf("left/right should be neighbours")
	}
	if fwd.IsNeighbour(bwd) || fwd.IsNeighbour(fwd) {
		t.Fatalf("complement and self are not neighbours")
	}
	if fwd.Compl().Compl() != fwd {
		t.Fatalf("double complement should be identity")
	}
}

func TestNuclOrdering(t *testing.T) {
	nucls := []Nucl{
		{Helix: 1, Position: 0, Forward: true},
		{Helix: 0, Position: 3, Forward: true},
		{Helix: 0, Position: 1, Forward: false},
		{Helix: 0, Position: 4, Forward: false},
		{Helix: 0, Position: 1, Forward: true},
	}
	slices.SortFunc(nucls, Nucl.Compare)
	want := []Nucl{
		{Helix: 0, Position: 4, Forward: false},
		{Helix: 0, Position: 1, Forward: false},
		{Helix: 0, Position: 1, Forward: true},
		{Helix: 0, Position: 3, Forward: true},
		{Helix: 1, Position: 0, Forward: true},
	}
	if !slices.Equal(nucls, want) {
		t.Fatalf("unexpected order: %v", nucls)
	}
}

func TestVirtualNuclCoalescesOnSupport(t *testing.T) {
	support := HelixID(0)
	missing := HelixID(42)
	helices := NewHelixMap(map[HelixID]*Helix{
		0: NewHelix(Vec3{}, IdentityRotor()),
		1: {Orientation: IdentityRotor(), SupportHelix: &support, InitialNtIndex: 3, Visible: true},
		2: {Orientation: IdentityRotor(), SupportHelix: &missing, InitialNtIndex: -1, Visible: true},
	})

	a := VirtualNuclOf(Nucl{Helix: 0, Position: 8, Forward: true}, helices)
	b := VirtualNuclOf(Nucl{Helix: 1, Position: 5, Forward: true}, helices)
	if a != b {
		t.Fatalf("expected coalesced nucleotides, got %v and %v", a, b)
	}

	c := VirtualNuclOf(Nucl{Helix: 2, Position: 5, Forward: false}, helices)
	if c.Helix != 2 || c.Position != 4 {
		t.Fatalf("missing support should fall back to own helix, got %v", c)
	}
}
