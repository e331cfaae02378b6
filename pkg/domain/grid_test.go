package domain

import (
	"encoding/json"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestEdgeRoundTrip(t *testing.T) {
	hyper := Hyperboloid{Radius: 10, Shift: 0.3, Length: 20, RadiusShift: 0.2}
	cases := []struct {
		name string
		grid GridType
	}{
		{"square", Square{}},
		{"honeycomb", Honeycomb{}},
		{"hyperboloid", hyper},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for x1 := -3; x1 <= 3; x1++ {
				for y1 := -3; y1 <= 3; y1++ {
					for x2 := -3; x2 <= 3; x2++ {
						for y2 := -3; y2 <= 3; y2++ {
							if tc.grid.Kind() == GridHyperboloid && (y1 != 0 || y2 != 0 || x1 < 0 || x2 < 0) {
								continue
							}
							e := tc.grid.TranslationToEdge(x1, y1, x2, y2)
							x, y, ok := tc.grid.TranslateByEdge(x1, y1, e)
							if !ok || x != x2 || y != y2 {
								t.Fatalf("(%d,%d) -> (%d,%d): got (%d,%d) %v", x1, y1, x2, y2, x, y, ok)
							}
						}
					}
				}
			}
		})
	}
}

func TestHoneycombEdgeKeepsShape(t *testing.T) {
	p := DefaultParameters()
	h := Honeycomb{}
	e := h.TranslationToEdge(0, 0, 2, -1)
	he, ok := e.(HoneyEdge)
	if !ok || !he.StartParity {
		t.Fatalf("expected an edge recorded from the upper sub-lattice, got %v", e)
	}
	want := r2.Sub(h.OriginHelix(p, 2, -1), h.OriginHelix(p, 0, 0))

	x, y, ok := h.TranslateByEdge(4, 2, e)
	if !ok {
		t.Fatalf("translate from (4,2) failed")
	}
	if got := r2.Sub(h.OriginHelix(p, x, y), h.OriginHelix(p, 4, 2)); r2.Norm(r2.Sub(got, want)) > 1e-9 {
		t.Fatalf("same parity: displacement %v, want %v", got, want)
	}

	x, y, ok = h.TranslateByEdge(5, 2, e)
	if !ok {
		t.Fatalf("translate from (5,2) failed")
	}
	got := r2.Sub(h.OriginHelix(p, x, y), h.OriginHelix(p, 5, 2))
	if r2.Norm(r2.Add(got, want)) > 1e-9 {
		t.Fatalf("opposite parity: displacement %v, want half turn of %v", got, want)
	}
	if math.Abs(r2.Norm(got)-r2.Norm(want)) > 1e-9 {
		t.Fatalf("opposite parity changes the edge length")
	}
}

func TestTranslateByForeignEdge(t *testing.T) {
	hyper := Hyperboloid{Radius: 8}
	if _, _, ok := hyper.TranslateByEdge(1, 0, SquareEdge{X: 1}); ok {
		t.Fatalf("hyperboloid accepted a square edge")
	}
	if _, _, ok := (Square{}).TranslateByEdge(1, 0, CircleEdge{Shift: 1}); ok {
		t.Fatalf("square accepted a circle edge")
	}
	if _, _, ok := (Honeycomb{}).TranslateByEdge(1, 0, SquareEdge{X: 1}); ok {
		t.Fatalf("honeycomb accepted a square edge")
	}
}

func TestHoneycombInterpolateFindsVertex(t *testing.T) {
	p := DefaultParameters()
	h := Honeycomb{}
	for x := -4; x <= 4; x++ {
		for y := -4; y <= 4; y++ {
			o := h.OriginHelix(p, x, y)
			gx, gy := h.Interpolate(p, o.X+0.1, o.Y-0.1)
			if gx != x || gy != y {
				t.Fatalf("interpolate near (%d,%d) gave (%d,%d)", x, y, gx, gy)
			}
		}
	}
}

func TestSetShiftOnSquareGridWarns(t *testing.T) {
	p := DefaultParameters()
	g := NewGrid(Vec3{}, IdentityRotor(), p, Square{})
	log := &captureLogger{}
	g.SetShift(0.5, log)
	if len(log.warnings) != 1 {
		t.Fatalf("expected one warning, got %v", log.warnings)
	}
	if _, ok := g.Shift(); ok {
		t.Fatalf("square grid reports a shift")
	}

	hg := NewGrid(Vec3{}, IdentityRotor(), p, Hyperboloid{Radius: 10, Length: 20})
	hg.SetShift(0.5, log)
	if shift, ok := hg.Shift(); !ok || math.Abs(shift-0.5) > 1e-9 {
		t.Fatalf("expected shift 0.5, got %v %v", shift, ok)
	}
}

func TestGridTypeDescrJSON(t *testing.T) {
	cases := []struct {
		name string
		desc GridTypeDescr
		want string
	}{
		{"square", GridTypeDescr{Kind: GridSquare}, `"Square"`},
		{"honeycomb", GridTypeDescr{Kind: GridHoneycomb}, `"Honeycomb"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.desc)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(raw) != tc.want {
				t.Fatalf("got %s, want %s", raw, tc.want)
			}
			var back GridTypeDescr
			if err := json.Unmarshal(raw, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if back.Kind != tc.desc.Kind {
				t.Fatalf("got %v", back)
			}
		})
	}
	var bad GridTypeDescr
	if err := json.Unmarshal([]byte(`"Triangle"`), &bad); err == nil {
		t.Fatalf("expected unknown grid type error")
	}
}

func TestGridDataEdges(t *testing.T) {
	d, ids := squareDesign(t, [2]int{0, 0}, [2]int{1, 0}, [2]int{1, 2})
	gd := d.GridData()
	g := FreeGrid(0)
	e, ok := gd.GetEdge(GridPosition{Grid: g, X: 0, Y: 0}, GridPosition{Grid: g, X: 1, Y: 2})
	if !ok || e != (SquareEdge{X: 1, Y: 2}) {
		t.Fatalf("unexpected edge %v %v", e, ok)
	}
	pos, ok := gd.TranslateByEdge(GridPosition{Grid: g}, SquareEdge{X: 1})
	if !ok || pos.X != 1 || pos.Y != 0 {
		t.Fatalf("unexpected translation %v %v", pos, ok)
	}
	if h, ok := gd.PosToHelix(pos.Light()); !ok || h != ids[1] {
		t.Fatalf("expected helix %d at %v", ids[1], pos)
	}
	if _, ok := gd.GetEdge(GridPosition{Grid: g}, GridPosition{Grid: FreeGrid(7)}); ok {
		t.Fatalf("edge towards a missing grid")
	}
}

type captureLogger struct {
	warnings []string
}

func (l *captureLogger) Debug(string, ...any)      {}
func (l *captureLogger) Info(string, ...any)       {}
func (l *captureLogger) Warn(msg string, _ ...any) { l.warnings = append(l.warnings, msg) }
func (l *captureLogger) Error(string, ...any)      {}
