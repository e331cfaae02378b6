package domain

import "testing"

// mustNoError simplifies tests that expect helper methods to succeed.
func mustNoError(t *testing.T, label string, err error) {
	t.Helper()
	if err != nil {
		if label == "" {
			t.Fatalf("unexpected error: %v", err)
		}
		t.Fatalf("%s: %v", label, err)
	}
}

// squareDesign returns a design with one square grid carrying a helix on each
// of the given vertices, in order.
func squareDesign(t *testing.T, vertices ...[2]int) (*Design, []HelixID) {
	t.Helper()
	d := NewDesign()
	gid := d.AddGrid(GridDescriptor{Orientation: IdentityRotor(), Type: GridTypeDescr{Kind: GridSquare}})
	g := NewGrid(Vec3{}, IdentityRotor(), d.Parameters, Square{})
	ids := make([]HelixID, 0, len(vertices))
	for _, v := range vertices {
		ids = append(ids, d.AddHelix(NewOnGrid(g, v[0], v[1], FreeGrid(gid))))
	}
	return d, ids
}

func strandWith(domains ...Domain) *Strand {
	s := &Strand{Domains: domains}
	s.Sanitize()
	return s
}

func nucl(h HelixID, pos int, forward bool) Nucl {
	return Nucl{Helix: h, Position: pos, Forward: forward}
}
