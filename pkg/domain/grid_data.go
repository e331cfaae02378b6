package domain

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// MinHelicesToMakeGrid is the smallest group of free helices from which a grid
// can be inferred.
const MinHelicesToMakeGrid = 4

// FreeGridID identifies a grid stored in the design's grid list.
type FreeGridID int

// BezierVertexID addresses a vertex of a Bezier path.
type BezierVertexID struct {
	Path   BezierPathID `json:"path_id"`
	Vertex int          `json:"vertex_id"`
}

// GridID identifies a grid of the design: either a free grid or the grid
// induced by a vertex of a Bezier path.
type GridID struct {
	free   FreeGridID
	vertex BezierVertexID
	onPath bool
}

// FreeGrid returns the id of free grid g.
func FreeGrid(g FreeGridID) GridID { return GridID{free: g} }

// PathGrid returns the id of the grid induced by a Bezier path vertex.
func PathGrid(path BezierPathID, vertex int) GridID {
	return GridID{vertex: BezierVertexID{Path: path, Vertex: vertex}, onPath: true}
}

// Free returns the free grid id, if id denotes a free grid.
func (id GridID) Free() (FreeGridID, bool) { return id.free, !id.onPath }

// Vertex returns the Bezier vertex, if id denotes a path grid.
func (id GridID) Vertex() (BezierVertexID, bool) { return id.vertex, id.onPath }

func (id GridID) String() string {
	if id.onPath {
		return fmt.Sprintf("path(%d, %d)", id.vertex.Path, id.vertex.Vertex)
	}
	return fmt.Sprintf("grid(%d)", id.free)
}

// Compare orders free grids before path grids.
func (id GridID) Compare(o GridID) int {
	if id.onPath != o.onPath {
		if !id.onPath {
			return -1
		}
		return 1
	}
	if !id.onPath {
		return cmp.Compare(id.free, o.free)
	}
	if c := cmp.Compare(id.vertex.Path, o.vertex.Path); c != 0 {
		return c
	}
	return cmp.Compare(id.vertex.Vertex, o.vertex.Vertex)
}

// MarshalJSON writes free grids as a bare integer.
func (id GridID) MarshalJSON() ([]byte, error) {
	if !id.onPath {
		return json.Marshal(int(id.free))
	}
	return json.Marshal(map[string]BezierVertexID{"BezierPathGrid": id.vertex})
}

func (id *GridID) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*id = FreeGrid(FreeGridID(n))
		return nil
	}
	var tagged struct {
		FreeGrid       *int            `json:"FreeGrid"`
		BezierPathGrid *BezierVertexID `json:"BezierPathGrid"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("decode grid id: %w", err)
	}
	switch {
	case tagged.FreeGrid != nil:
		*id = FreeGrid(FreeGridID(*tagged.FreeGrid))
	case tagged.BezierPathGrid != nil:
		*id = PathGrid(tagged.BezierPathGrid.Path, tagged.BezierPathGrid.Vertex)
	default:
		return fmt.Errorf("decode grid id: unknown form %s", string(data))
	}
	return nil
}

// GridPosition is a vertex of a grid.
type GridPosition struct {
	Grid GridID `json:"grid"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// HelixGridPosition attaches a helix to a grid vertex.
type HelixGridPosition struct {
	Grid GridID `json:"grid"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	// Axis index of the helix crossing the grid plane.
	AxisPos int     `json:"axis_pos"`
	Roll    float64 `json:"roll"`
}

// Light drops the axis position and the roll.
func (p HelixGridPosition) Light() GridPosition {
	return GridPosition{Grid: p.Grid, X: p.X, Y: p.Y}
}

// HelixGridPositionAt returns the attachment at (x, y) with zero roll.
func HelixGridPositionAt(g GridID, x, y int) HelixGridPosition {
	return HelixGridPosition{Grid: g, X: x, Y: y}
}

// GridIDSet is an immutable set of grid ids.
type GridIDSet struct {
	m map[GridID]struct{}
}

// NewGridIDSet builds a set from ids.
func NewGridIDSet(ids ...GridID) *GridIDSet {
	s := &GridIDSet{m: make(map[GridID]struct{}, len(ids))}
	for _, id := range ids {
		s.m[id] = struct{}{}
	}
	return s
}

func (s *GridIDSet) Has(id GridID) bool {
	if s == nil {
		return false
	}
	_, ok := s.m[id]
	return ok
}

func (s *GridIDSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Sorted returns the members in GridID order.
func (s *GridIDSet) Sorted() []GridID {
	if s == nil {
		return nil
	}
	return slices.SortedFunc(maps.Keys(s.m), GridID.Compare)
}

// With returns a copy of s with id added or removed.
func (s *GridIDSet) With(id GridID, present bool) *GridIDSet {
	out := &GridIDSet{m: make(map[GridID]struct{}, s.Len()+1)}
	if s != nil {
		maps.Copy(out.m, s.m)
	}
	if present {
		out.m[id] = struct{}{}
	} else {
		delete(out.m, id)
	}
	return out
}

func (s *GridIDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *GridIDSet) UnmarshalJSON(data []byte) error {
	var ids []GridID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = *NewGridIDSet(ids...)
	return nil
}

// GridData is a view of the grids of a design with lookup tables between
// helices and grid vertices. The view cached by Design.GridData is shared and
// read-only; Reattach is only called on a private view built by NewGridData.
type GridData struct {
	Parameters   Parameters
	grids        map[GridID]Grid
	helixToPos   map[HelixID]HelixGridPosition
	posToHelix   map[GridPosition]HelixID
	noPhantoms   *GridIDSet
	smallSpheres *GridIDSet
}

// NewGridData builds the grid view of d.
func NewGridData(d *Design) *GridData {
	p := d.Parameters.OrDefault()
	gd := &GridData{
		Parameters:   p,
		grids:        make(map[GridID]Grid),
		helixToPos:   make(map[HelixID]HelixGridPosition),
		posToHelix:   make(map[GridPosition]HelixID),
		noPhantoms:   d.NoPhantoms,
		smallSpheres: d.SmallSpheres,
	}
	for id, desc := range d.Grids.All() {
		gd.grids[FreeGrid(id)] = desc.ToGrid(p)
	}
	for pathID, path := range d.BezierPaths.All() {
		for i := range path.Vertices {
			if g, ok := path.vertexGrid(i, d.BezierPlanes, p); ok {
				gd.grids[PathGrid(pathID, i)] = g
			}
		}
	}
	for hID, h := range d.Helices.All() {
		if h.GridPosition == nil {
			continue
		}
		gd.helixToPos[hID] = *h.GridPosition
		gd.posToHelix[h.GridPosition.Light()] = hID
	}
	return gd
}

// Grid returns the grid with the given id.
func (gd *GridData) Grid(id GridID) (Grid, bool) {
	g, ok := gd.grids[id]
	return g, ok
}

// GridIDs returns every grid id in order.
func (gd *GridData) GridIDs() []GridID {
	return slices.SortedFunc(maps.Keys(gd.grids), GridID.Compare)
}

// Visible reports whether grid id exists and is visible.
func (gd *GridData) Visible(id GridID) bool {
	g, ok := gd.grids[id]
	return ok && !g.Invisible
}

// HelixPosition returns the grid attachment of helix h.
func (gd *GridData) HelixPosition(h HelixID) (HelixGridPosition, bool) {
	p, ok := gd.helixToPos[h]
	return p, ok
}

// PosToHelix returns the helix standing on pos.
func (gd *GridData) PosToHelix(pos GridPosition) (HelixID, bool) {
	h, ok := gd.posToHelix[pos]
	return h, ok
}

// HelicesOnGrid lists the helices attached to grid id in ascending order.
func (gd *GridData) HelicesOnGrid(id GridID) ([]HelixID, bool) {
	if _, ok := gd.grids[id]; !ok {
		return nil, false
	}
	var out []HelixID
	for pos, h := range gd.posToHelix {
		if pos.Grid == id {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return out, true
}

// EmptyGrids lists the grids carrying no helix.
func (gd *GridData) EmptyGrids() []GridID {
	used := make(map[GridID]bool)
	for pos := range gd.posToHelix {
		used[pos.Grid] = true
	}
	var out []GridID
	for _, id := range gd.GridIDs() {
		if !used[id] {
			out = append(out, id)
		}
	}
	return out
}

// HasPersistentPhantom reports whether phantom helices stay displayed on grid id.
func (gd *GridData) HasPersistentPhantom(id GridID) bool {
	return !gd.noPhantoms.Has(id)
}

// HasSmallSpheres reports whether grid id is rendered with small spheres.
func (gd *GridData) HasSmallSpheres(id GridID) bool {
	return gd.smallSpheres.Has(id)
}

// GetEdge returns the edge between two vertices of the same grid.
func (gd *GridData) GetEdge(from, to GridPosition) (Edge, bool) {
	if from.Grid != to.Grid {
		return nil, false
	}
	g, ok := gd.grids[from.Grid]
	if !ok {
		return nil, false
	}
	return g.Type.TranslationToEdge(from.X, from.Y, to.X, to.Y), true
}

// TranslateByEdge applies e at pos. The result has zero roll and axis position.
func (gd *GridData) TranslateByEdge(pos GridPosition, e Edge) (HelixGridPosition, bool) {
	g, ok := gd.grids[pos.Grid]
	if !ok || e == nil {
		return HelixGridPosition{}, false
	}
	x, y, ok := g.Type.TranslateByEdge(pos.X, pos.Y, e)
	if !ok {
		return HelixGridPosition{}, false
	}
	return HelixGridPositionAt(pos.Grid, x, y), true
}

// PlaceHelix recomputes the pose of h from its grid attachment.
func (gd *GridData) PlaceHelix(h *Helix) {
	if h.GridPosition == nil {
		return
	}
	gp := *h.GridPosition
	g, ok := gd.grids[gp.Grid]
	if !ok {
		return
	}
	h.Position = g.PositionHelix(gp.X, gp.Y)
	orientation := g.OrientationHelix(gp.X, gp.Y)
	r := gd.Parameters.HelixRadius
	normal := r3.Scale(-r, orientation.Rotate(UnitY))
	actual := r3.Sub(
		r3.Scale(-r*math.Cos(gp.Roll), orientation.Rotate(UnitY)),
		r3.Scale(r*math.Sin(gp.Roll), orientation.Rotate(UnitZ)),
	)
	h.Orientation = RotorBetween(normal, actual).Mul(orientation).Normalized()
	if h.Curve == nil {
		dir := h.Axis(gd.Parameters).Direction
		h.Position = r3.Sub(h.Position, r3.Scale(float64(gp.AxisPos), dir))
	}
}

// Reattach moves helix h, which has just been translated or rotated, to the
// grid vertex closest to its new axis. A collision with a helix other than
// those in authorized is an error.
func (gd *GridData) Reattach(h HelixID, helix *Helix, preserveRoll bool, authorized []HelixID) error {
	if helix.GridPosition == nil {
		return nil
	}
	old := *helix.GridPosition
	g, ok := gd.grids[old.Grid]
	if !ok {
		return GridDoesNotExistError{Grid: old.Grid}
	}
	candidate, ok := g.FindHelixPosition(helix, old.Grid)
	if !ok {
		return nil
	}
	if preserveRoll {
		candidate.Roll = old.Roll
	}
	if other, taken := gd.posToHelix[candidate.Light()]; taken && other != h && !slices.Contains(authorized, other) {
		return HelixCollisionError{Helix: h, Other: other}
	}
	delete(gd.posToHelix, old.Light())
	helix.GridPosition = &candidate
	gd.helixToPos[h] = candidate
	gd.posToHelix[candidate.Light()] = h
	axis := helix.Axis(gd.Parameters)
	helix.Position = r3.Sub(g.PositionHelix(candidate.X, candidate.Y), r3.Scale(float64(candidate.AxisPos), axis.Direction))
	return nil
}

// AttachTo returns where helix would dock on grid id.
func (gd *GridData) AttachTo(helix *Helix, id GridID) (HelixGridPosition, bool) {
	g, ok := gd.grids[id]
	if !ok {
		return HelixGridPosition{}, false
	}
	return g.FindHelixPosition(helix, id)
}

// FindGridForGroup searches a square and a honeycomb grid fitting the axes
// of the given helices, and returns the one with the smaller error.
func (gd *GridData) FindGridForGroup(helices *HelixMap, group []HelixID) GridDescriptor {
	p := gd.Parameters
	leader, _ := helices.Get(group[0])
	axis := leader.Axis(p)
	orientation := RotorBetween(UnitX, axis.Direction)

	hex := NewGrid(leader.Position, orientation, p, Honeycomb{})
	bestHex := errorGroup(hex, helices, group)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			position := hex.PositionHelix(dx, dy)
			for i := 0; i < 100; i++ {
				candidate := NewGrid(position, rollAroundX(orientation, float64(i)*math.Pi/2/100), p, Honeycomb{})
				if err := errorGroup(candidate, helices, group); err < bestHex {
					hex, bestHex = candidate, err
				}
			}
		}
	}

	square := NewGrid(leader.Position, leader.Orientation.orIdentity(), p, Square{})
	bestSquare := errorGroup(square, helices, group)
	for i := 0; i < 100; i++ {
		candidate := NewGrid(leader.Position, rollAroundX(orientation, float64(i)*math.Pi/2/100), p, Square{})
		if err := errorGroup(candidate, helices, group); err < bestSquare {
			square, bestSquare = candidate, err
		}
	}
	if bestSquare < bestHex {
		return square.Descriptor()
	}
	return hex.Descriptor()
}

// rollAroundX rotates orientation by angle in its own yz plane.
func rollAroundX(orientation Rotor, angle float64) Rotor {
	return orientation.Mul(RotorFromAngleAxis(angle, UnitX))
}

func errorGroup(g Grid, helices *HelixMap, group []HelixID) float64 {
	total := 0.0
	for _, id := range group {
		h, ok := helices.Get(id)
		if !ok {
			continue
		}
		axis := h.Axis(g.Parameters)
		if axis.Curve != nil {
			continue
		}
		total += errorHelix(g, axis.Origin, axis.Direction)
	}
	return total
}

func errorHelix(g Grid, origin, direction Vec3) float64 {
	real, ok := g.RealIntersection(origin, direction)
	if !ok {
		return math.Inf(1)
	}
	x, y, _ := g.InterpolateHelix(origin, direction)
	return r3.Norm2(r3.Sub(real, g.PositionHelix(x, y)))
}
