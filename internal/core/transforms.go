package core

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"origamicore/pkg/domain"
)

// movedHelices is the set of helices targeted by a rigid motion, extended
// with the members of the gesture's group.
func movedHelices(target IsometryTarget, group []domain.HelixID) []domain.HelixID {
	out := slices.Clone(target.Helices)
	for _, h := range group {
		if !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	return out
}

// translate applies op to d. The returned design is base itself when snapping
// the moved helices back on their grids fails.
func translate(d *domain.Design, op Translation) (*domain.Design, error) {
	switch op.Target.Kind {
	case TargetHelices:
		return moveHelices(d, movedHelices(op.Target, op.Group), op.Target.Snap, func(h *domain.Helix) {
			h.Translate(op.Translation)
		})
	case TargetGrids:
		return moveGrids(d, op.Target.Grids, func(desc *domain.GridDescriptor) {
			desc.Position = r3.Add(desc.Position, op.Translation)
		})
	default:
		return nil, ErrNotImplemented
	}
}

func rotate(d *domain.Design, op Rotation) (*domain.Design, error) {
	switch op.Target.Kind {
	case TargetHelices:
		return moveHelices(d, movedHelices(op.Target, op.Group), op.Target.Snap, func(h *domain.Helix) {
			h.RotateAround(op.Rotor, op.Origin)
		})
	case TargetGrids:
		return moveGrids(d, op.Target.Grids, func(desc *domain.GridDescriptor) {
			rel := r3.Sub(desc.Position, op.Origin)
			desc.Orientation = op.Rotor.Mul(desc.Orientation).Normalized()
			desc.Position = r3.Add(op.Rotor.Rotate(rel), op.Origin)
		})
	default:
		return nil, ErrNotImplemented
	}
}

func moveHelices(base *domain.Design, helices []domain.HelixID, snap bool, move func(*domain.Helix)) (*domain.Design, error) {
	d := base.Clone()
	for _, id := range helices {
		h, ok := d.HelixMut(id)
		if !ok {
			return nil, HelixDoesNotExistError{Helix: id}
		}
		move(h)
		if !snap {
			h.GridPosition = nil
		}
	}
	if !snap {
		return d, nil
	}
	if err := d.ReattachHelices(helices, true); err != nil {
		return base, nil
	}
	return d, nil
}

func moveGrids(base *domain.Design, grids []domain.FreeGridID, move func(*domain.GridDescriptor)) (*domain.Design, error) {
	d := base.Clone()
	for _, id := range grids {
		desc, ok := d.Grids.Get(id)
		if !ok {
			return nil, GridDoesNotExistError{Grid: domain.FreeGrid(id)}
		}
		move(&desc)
		d.SetGrid(id, desc)
	}
	placeHelicesOn(d, grids...)
	return d, nil
}

// placeHelicesOn recomputes the pose of every helix standing on one of grids.
func placeHelicesOn(d *domain.Design, grids ...domain.FreeGridID) {
	gd := domain.NewGridData(d)
	for _, id := range d.Helices.Keys() {
		h, _ := d.Helix(id)
		if h.GridPosition == nil {
			continue
		}
		g, ok := h.GridPosition.Grid.Free()
		if !ok || !slices.Contains(grids, g) {
			continue
		}
		mut, _ := d.HelixMut(id)
		gd.PlaceHelix(mut)
	}
}

// placeHelicesOnPath does the same for the grids carried by a Bezier path.
func placeHelicesOnPath(d *domain.Design, path domain.BezierPathID) {
	gd := domain.NewGridData(d)
	for _, id := range d.Helices.Keys() {
		h, _ := d.Helix(id)
		if h.GridPosition == nil {
			continue
		}
		v, ok := h.GridPosition.Grid.Vertex()
		if !ok || v.Path != path {
			continue
		}
		mut, _ := d.HelixMut(id)
		gd.PlaceHelix(mut)
	}
}

func applySymmetry(d *domain.Design, op ApplySymmetryToHelices) error {
	if len(op.Centers) != len(op.Helices) {
		return ErrBadSelection
	}
	for i, id := range op.Helices {
		h, ok := d.HelixMut(id)
		if !ok {
			return HelixDoesNotExistError{Helix: id}
		}
		c := op.Centers[i]
		rel := r3.Sub(h.Position, c)
		rel = r3.Vec{X: rel.X * op.Symmetry.X, Y: rel.Y * op.Symmetry.Y, Z: rel.Z * op.Symmetry.Z}
		h.Position = r3.Add(c, rel)
		h.GridPosition = nil
	}
	return nil
}

// nuclPosition2D is where n is drawn in the layout of its helix.
func nuclPosition2D(h *domain.Helix, n domain.Nucl) (domain.Vec2, bool) {
	if h.Isometry2D == nil {
		return domain.Vec2{}, false
	}
	local := domain.Vec2{X: float64(n.Position)}
	if !n.Forward {
		local.Y = 1
	}
	return h.Isometry2D.TransformPoint(local), true
}

func snapHelices(d *domain.Design, op SnapHelices) {
	for _, p := range op.Pivots {
		current, ok := d.Helix(p.Helix)
		if !ok {
			continue
		}
		old, ok := nuclPosition2D(current, p)
		if !ok {
			continue
		}
		moved := r2.Add(old, op.Translation)
		moved = domain.Vec2{X: math.Round(moved.X), Y: math.Round(moved.Y)}
		h, _ := d.HelixMut(p.Helix)
		iso := *h.Isometry2D
		iso.AppendTranslation(r2.Sub(moved, old))
		h.Isometry2D = &iso
	}
}

func setIsometry2D(d *domain.Design, op SetIsometry2D) error {
	h, ok := d.HelixMut(op.Helix)
	if !ok {
		return HelixDoesNotExistError{Helix: op.Helix}
	}
	iso := op.Isometry
	h.Isometry2D = &iso
	return nil
}

func rotateHelices2D(d *domain.Design, op RotateHelices2D) {
	angle := math.Round(op.Angle/(math.Pi/8)) * (math.Pi / 8)
	for _, id := range op.Helices {
		current, ok := d.Helix(id)
		if !ok || current.Isometry2D == nil {
			continue
		}
		h, _ := d.HelixMut(id)
		iso := *h.Isometry2D
		iso.AppendTranslation(r2.Scale(-1, op.Center))
		iso.AppendRotation(angle)
		iso.AppendTranslation(op.Center)
		h.Isometry2D = &iso
	}
}

func setGridOrientation(d *domain.Design, op SetGridOrientation) error {
	desc, ok := d.Grids.Get(op.Grid)
	if !ok {
		return GridDoesNotExistError{Grid: domain.FreeGrid(op.Grid)}
	}
	desc.Orientation = op.Orientation.Normalized()
	d.SetGrid(op.Grid, desc)
	placeHelicesOn(d, op.Grid)
	return nil
}

func setBezierVertex(d *domain.Design, op SetBezierVertex) error {
	p, ok := d.BezierPathMut(op.Vertex.Path)
	if !ok || op.Vertex.Vertex < 0 || op.Vertex.Vertex >= len(p.Vertices) {
		return GridDoesNotExistError{Grid: domain.PathGrid(op.Vertex.Path, op.Vertex.Vertex)}
	}
	p.Vertices[op.Vertex.Vertex].Position = op.Position
	placeHelicesOnPath(d, op.Vertex.Path)
	return nil
}

func setGridShift(d *domain.Design, op SetGridShift, log Logger) error {
	desc, ok := d.Grids.Get(op.Grid)
	if !ok {
		return GridDoesNotExistError{Grid: domain.FreeGrid(op.Grid)}
	}
	g := desc.ToGrid(d.Parameters.OrDefault())
	g.SetShift(op.Shift, log)
	d.SetGrid(op.Grid, g.Descriptor())
	placeHelicesOn(d, op.Grid)
	return nil
}
