package domain

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func readerFixture(t *testing.T) (*Design, []HelixID) {
	t.Helper()
	d, ids := squareDesign(t, [2]int{0, 0}, [2]int{1, 0})
	scaffold := strandWith(HelixDomain(ids[0], 0, 4, true), HelixDomain(ids[1], 0, 4, false))
	sid := d.AddStrand(scaffold)
	d.Scaffold = &sid
	d.ScaffoldSequence = "ACGTTGCA"
	staple := strandWith(HelixDomain(ids[1], 0, 4, true), NewInsertion(2), HelixDomain(ids[0], 0, 4, false))
	staple.Name = "staple"
	d.AddStrand(staple)
	return d, ids
}

func TestReaderStrandQueries(t *testing.T) {
	d, ids := readerFixture(t)
	r := NewReader(d)
	if got := r.AllStrandIDs(); len(got) != 2 {
		t.Fatalf("strands %v", got)
	}
	if !r.IsScaffold(0) || r.IsScaffold(1) {
		t.Fatalf("scaffold flag")
	}
	if got := r.StrandName(0); got != "Unnamed strand" {
		t.Fatalf("default name %q", got)
	}
	if got := r.StrandName(1); got != "staple" {
		t.Fatalf("name %q", got)
	}
	if l, _ := r.StrandLength(1); l != 10 {
		t.Fatalf("length %d", l)
	}
	if got, _ := r.LengthDecomposition(1); got != "10 = 4 + 2 + 4" {
		t.Fatalf("decomposition %q", got)
	}
	points, _ := r.StrandPoints(1)
	if len(points) != 8 {
		t.Fatalf("expected 8 points, got %d", len(points))
	}
	ins, _ := r.Insertions(1)
	if len(ins) != 1 || ins[0] != nucl(ids[1], 3, true) {
		t.Fatalf("insertions %v", ins)
	}
	if id, ok := r.ScaffoldID(); !ok || id != 0 {
		t.Fatalf("scaffold id %d %v", id, ok)
	}
	if _, ok := r.IdentifierNucl(nucl(ids[0], 2, true)); !ok {
		t.Fatalf("identifier missing")
	}
	if _, ok := r.IdentifierNucl(nucl(ids[0], 20, true)); ok {
		t.Fatalf("identifier for a nucleotide off every strand")
	}
	summary := r.Summary()
	if !strings.Contains(summary, "strand 0 (scaffold): Unnamed strand, 8 = 4 + 4") {
		t.Fatalf("summary:\n%s", summary)
	}
}

func TestReaderBasisMap(t *testing.T) {
	d, ids := readerFixture(t)
	r := NewReader(d)
	basis := r.BasisMap()
	if got := basis[nucl(ids[0], 0, true)]; got != 'A' {
		t.Fatalf("first scaffold base %q", got)
	}
	if got := basis[nucl(ids[1], 3, false)]; got != 'T' {
		t.Fatalf("fifth scaffold base %q", got)
	}
	if got := basis[nucl(ids[0], 0, false)]; got != 'T' {
		t.Fatalf("complement on the staple %q", got)
	}
	if _, ok := basis[nucl(ids[0], 10, false)]; ok {
		t.Fatalf("base outside every strand")
	}

	shifted := d.Clone()
	shifted.ScaffoldShift = 1
	if got := NewReader(shifted).BasisMap()[nucl(ids[0], 0, true)]; got != 'A' {
		t.Fatalf("shifted first base %q", got)
	}
	if got := NewReader(shifted).BasisMap()[nucl(ids[0], 1, true)]; got != 'A' {
		t.Fatalf("shifted second base %q", got)
	}
}

func TestReaderXovers(t *testing.T) {
	d, ids := readerFixture(t)
	r := NewReader(d)
	list := r.XoversListWithID()
	if len(list) != 2 {
		t.Fatalf("expected 2 crossovers, got %v", list)
	}
	for _, x := range list {
		a, b, ok := r.XoverWithID(x.ID)
		if !ok {
			t.Fatalf("crossover %d missing", x.ID)
		}
		if id, _ := r.XoverID(a, b); id != x.ID {
			t.Fatalf("crossover %d maps back to %d", x.ID, id)
		}
		if !r.IsXoverEnd(a) || !r.IsXoverEnd(b) {
			t.Fatalf("crossover %d ends", x.ID)
		}
		l, ok := r.XoverLength(x.ID)
		if !ok || l.Length <= 0 {
			t.Fatalf("length of crossover %d: %v", x.ID, l)
		}
	}
	if got := r.IsStrandEnd(nucl(ids[0], 0, true)); !got.Is5Prime() {
		t.Fatalf("expected the scaffold 5' end, got %v", got)
	}
}

func TestReaderGridQueries(t *testing.T) {
	d, ids := readerFixture(t)
	d.SetNoPhantom(FreeGrid(0), true)
	r := NewReader(d)
	if h, ok := r.PosToHelix(FreeGrid(0), 1, 0); !ok || h != ids[1] {
		t.Fatalf("pos to helix %d %v", h, ok)
	}
	if h, ok := r.GridObjectAt(GridPosition{Grid: FreeGrid(0)}); !ok || h != ids[0] {
		t.Fatalf("grid object %d %v", h, ok)
	}
	e, ok := r.GetEdge(GridPosition{Grid: FreeGrid(0)}, GridPosition{Grid: FreeGrid(0), X: 1})
	if !ok {
		t.Fatalf("no edge")
	}
	if pos, ok := r.TranslateByEdge(GridPosition{Grid: FreeGrid(0), X: 1}, e); !ok || pos.X != 2 {
		t.Fatalf("translated to %v", pos)
	}
	if r.GridHasPersistentPhantom(FreeGrid(0)) {
		t.Fatalf("phantoms should be hidden")
	}
	if _, ok := r.GridNbTurn(FreeGrid(0)); ok {
		t.Fatalf("square grid has no turn count")
	}
	if gp, ok := r.HelixGridPosition(ids[1]); !ok || gp.X != 1 {
		t.Fatalf("grid position %v", gp)
	}
}

func TestReaderReferential(t *testing.T) {
	d, ids := readerFixture(t)
	pose := Pose{Rotation: RotorFromAngleAxis(math.Pi/2, UnitY), Translation: Vec3{X: 5}}
	r := NewReader(d, WithModelPose(pose))
	n := nucl(ids[0], 3, true)
	model, _ := r.PositionOfNuclOnHelix(n, Model, false)
	world, _ := r.PositionOfNuclOnHelix(n, World, false)
	if r3.Norm(r3.Sub(world, pose.apply(model))) > 1e-9 {
		t.Fatalf("world %v, model %v", world, model)
	}
	axis, _ := r.PositionOfNuclOnHelix(n, Model, true)
	if math.Abs(r3.Norm(r3.Sub(model, axis))-d.Parameters.HelixRadius) > 1e-9 {
		t.Fatalf("axis point too far from the nucleotide")
	}
}
