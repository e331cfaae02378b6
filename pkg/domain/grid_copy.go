package domain

import "fmt"

// CopyGrid duplicates free grid id at a new pose, together with its helices
// and every strand lying entirely on it. Copied strands get "_copy" appended
// to their name. It returns the id of the new grid.
func (d *Design) CopyGrid(id FreeGridID, position Vec3, orientation Rotor) (FreeGridID, error) {
	source, ok := d.Grids.Get(id)
	if !ok {
		return 0, GridCopyError{Err: GridDoesNotExistError{Grid: FreeGrid(id)}}
	}
	gridID := FreeGrid(id)
	onGrid := func(h HelixID) bool {
		helix, ok := d.Helix(h)
		return ok && helix.GridPosition != nil && helix.GridPosition.Grid == gridID
	}

	helixMap := make(map[HelixID]HelixID)
	next := HelixID(0)
	if top, ok := d.Helices.MaxKey(); ok {
		next = top + 1
	}
	for _, h := range d.Helices.Keys() {
		if onGrid(h) {
			helixMap[h] = next
			next++
		}
	}

	var copies []*Strand
	for _, s := range d.Strands.All() {
		if !allDomainsOn(s, onGrid) {
			continue
		}
		c, err := copyStrandOnHelices(s, helixMap)
		if err != nil {
			return 0, GridCopyError{Err: err}
		}
		copies = append(copies, c)
	}

	newID := d.AddGrid(GridDescriptor{Position: position, Orientation: orientation, Type: source.Type})
	for _, old := range d.Helices.Keys() {
		target, ok := helixMap[old]
		if !ok {
			continue
		}
		src, _ := d.Helix(old)
		gp := *src.GridPosition
		gp.Grid = FreeGrid(newID)
		h := &Helix{
			Orientation:  IdentityRotor(),
			Visible:      true,
			Roll:         src.Roll,
			GridPosition: &gp,
		}
		d.SetHelix(target, h)
	}
	gd := NewGridData(d)
	for _, target := range helixMap {
		h, _ := d.HelixMut(target)
		gd.PlaceHelix(h)
	}
	for _, c := range copies {
		d.AddStrand(c)
	}
	return newID, nil
}

func allDomainsOn(s *Strand, onGrid func(HelixID) bool) bool {
	for _, dom := range s.Domains {
		if !dom.IsInsertion() && !onGrid(dom.Helix) {
			return false
		}
	}
	return true
}

func copyStrandOnHelices(s *Strand, helixMap map[HelixID]HelixID) (*Strand, error) {
	c := s.Clone()
	for i, dom := range c.Domains {
		if dom.IsInsertion() {
			continue
		}
		h, ok := helixMap[dom.Helix]
		if !ok {
			return nil, fmt.Errorf("helix %d: %w", dom.Helix, ErrHelixNotInNewHelixMap)
		}
		c.Domains[i].Helix = h
	}
	for i, j := range c.Junctions {
		if j.Kind == JunctionIdentifiedXover {
			c.Junctions[i] = UnidentifiedXover
		}
	}
	if c.Name != "" {
		c.Name += "_copy"
	}
	return c, nil
}

// MakeGridFromHelices creates a grid fitting the axes of the given free
// helices and docks them on it.
func (d *Design) MakeGridFromHelices(helices []HelixID) (FreeGridID, error) {
	if len(helices) < MinHelicesToMakeGrid {
		return 0, NotEnoughHelicesError{Got: len(helices), Required: MinHelicesToMakeGrid}
	}
	for _, h := range helices {
		helix, ok := d.Helix(h)
		if !ok {
			return 0, HelixDoesNotExistError{Helix: h}
		}
		if helix.GridPosition != nil || helix.Curve != nil {
			return 0, fmt.Errorf("helix %d is not a free straight helix", h)
		}
	}
	desc := d.GridData().FindGridForGroup(d.Helices, helices)
	id := d.AddGrid(desc)
	gd := NewGridData(d)
	taken := make(map[GridPosition]HelixID)
	for _, h := range helices {
		helix, _ := d.Helix(h)
		pos, ok := gd.AttachTo(helix, FreeGrid(id))
		if !ok {
			return 0, HelixHasNoGridPositionError{Helix: h}
		}
		if other, clash := taken[pos.Light()]; clash {
			return 0, HelixCollisionError{Helix: h, Other: other}
		}
		taken[pos.Light()] = h
		mut, _ := d.HelixMut(h)
		mut.GridPosition = &pos
		gd.PlaceHelix(mut)
	}
	return id, nil
}

// ReattachHelices docks each of the given helices, which have just been moved,
// on the grid vertex closest to its axis. Helices of the same batch may swap
// vertices.
func (d *Design) ReattachHelices(helices []HelixID, preserveRoll bool) error {
	gd := NewGridData(d)
	for _, h := range helices {
		current, ok := d.Helix(h)
		if !ok {
			return HelixDoesNotExistError{Helix: h}
		}
		if current.GridPosition == nil {
			continue
		}
		mut, _ := d.HelixMut(h)
		if err := gd.Reattach(h, mut, preserveRoll, helices); err != nil {
			return err
		}
	}
	return nil
}
