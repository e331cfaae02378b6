package domain

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"
)

// Design is a snapshot of a DNA nanostructure. Its collections are shared
// with the snapshots it was cloned from: a published Design is never written,
// and an edit starts with Clone and goes through the *Mut and Set* methods,
// which copy each touched collection once per edit. Two snapshots are the same
// value iff they are the same pointer.
type Design struct {
	Name         string
	Helices      *HelixMap
	Strands      *StrandMap
	Grids        *GridMap
	BezierPlanes *BezierPlaneMap
	BezierPaths  *BezierPathMap
	Parameters   Parameters
	// Scaffold designates the scaffold strand.
	Scaffold         *StrandID
	ScaffoldSequence string
	ScaffoldShift    int
	// Grids on which phantom helices are hidden.
	NoPhantoms *GridIDSet
	// Grids whose helices are drawn with small spheres.
	SmallSpheres *GridIDSet
	Groups       *HelixSet
	Anchors      *NuclSet

	gen   uint64
	edit  *editState
	cache *derived
}

type owned uint8

const (
	ownHelices owned = 1 << iota
	ownStrands
	ownGrids
	ownPlanes
	ownPaths
	ownGroups
)

// editState records what the current edit already copied.
type editState struct {
	owned   owned
	helices map[HelixID]bool
	strands map[StrandID]bool
	paths   map[BezierPathID]bool
}

func newEditState() *editState {
	return &editState{
		helices: make(map[HelixID]bool),
		strands: make(map[StrandID]bool),
		paths:   make(map[BezierPathID]bool),
	}
}

// NewDesign returns an empty design with default parameters.
func NewDesign() *Design {
	return &Design{
		Helices:      NewCollection[HelixID, *Helix](nil),
		Strands:      NewCollection[StrandID, *Strand](nil),
		Grids:        NewCollection[FreeGridID, GridDescriptor](nil),
		BezierPlanes: NewCollection[BezierPlaneID, BezierPlane](nil),
		BezierPaths:  NewCollection[BezierPathID, *BezierPath](nil),
		Parameters:   DefaultParameters(),
		NoPhantoms:   NewGridIDSet(),
		SmallSpheres: NewGridIDSet(),
		Groups:       NewCollection[HelixID, bool](nil),
		Anchors:      NewNuclSet(),
		edit:         newEditState(),
		cache:        &derived{},
	}
}

// Clone starts an edit: the result shares every collection with d until it is
// written through its mutating methods.
func (d *Design) Clone() *Design {
	c := *d
	c.edit = newEditState()
	c.cache = &derived{}
	if d.cache != nil {
		c.cache.seed = d.derivedCache().latestXovers()
	}
	return &c
}

func (d *Design) touch() {
	d.gen++
	if d.edit == nil {
		d.edit = newEditState()
	}
}

func (d *Design) own(what owned) bool {
	d.touch()
	if d.edit.owned&what != 0 {
		return false
	}
	d.edit.owned |= what
	return true
}

func (d *Design) helicesForWrite() *HelixMap {
	if d.own(ownHelices) {
		d.Helices = d.Helices.clone()
	}
	return d.Helices
}

func (d *Design) strandsForWrite() *StrandMap {
	if d.own(ownStrands) {
		d.Strands = d.Strands.clone()
	}
	return d.Strands
}

func (d *Design) gridsForWrite() *GridMap {
	if d.own(ownGrids) {
		d.Grids = d.Grids.clone()
	}
	return d.Grids
}

func (d *Design) planesForWrite() *BezierPlaneMap {
	if d.own(ownPlanes) {
		d.BezierPlanes = d.BezierPlanes.clone()
	}
	return d.BezierPlanes
}

func (d *Design) pathsForWrite() *BezierPathMap {
	if d.own(ownPaths) {
		d.BezierPaths = d.BezierPaths.clone()
	}
	return d.BezierPaths
}

// Helix returns helix id.
func (d *Design) Helix(id HelixID) (*Helix, bool) { return d.Helices.Get(id) }

// Strand returns strand id.
func (d *Design) Strand(id StrandID) (*Strand, bool) { return d.Strands.Get(id) }

// HelixMut returns a private copy of helix id that can be modified in place
// for the rest of the edit.
func (d *Design) HelixMut(id HelixID) (*Helix, bool) {
	h, ok := d.Helices.Get(id)
	if !ok {
		return nil, false
	}
	m := d.helicesForWrite()
	if d.edit.helices[id] {
		return h, true
	}
	h = h.Clone()
	m.set(id, h)
	d.edit.helices[id] = true
	return h, true
}

// SetHelix stores h under id. h must not be shared with another design.
func (d *Design) SetHelix(id HelixID, h *Helix) {
	d.helicesForWrite().set(id, h)
	d.edit.helices[id] = true
}

// AddHelix stores h under the smallest unused id above every existing one.
func (d *Design) AddHelix(h *Helix) HelixID {
	id := HelixID(0)
	if top, ok := d.Helices.MaxKey(); ok {
		id = top + 1
	}
	d.SetHelix(id, h)
	return id
}

// RemoveHelix deletes helix id.
func (d *Design) RemoveHelix(id HelixID) {
	d.helicesForWrite().delete(id)
	delete(d.edit.helices, id)
	if d.Groups.Has(id) {
		d.SetGroup(id, false, false)
	}
}

// StrandMut returns a private copy of strand id.
func (d *Design) StrandMut(id StrandID) (*Strand, bool) {
	s, ok := d.Strands.Get(id)
	if !ok {
		return nil, false
	}
	m := d.strandsForWrite()
	if d.edit.strands[id] {
		return s, true
	}
	s = s.Clone()
	m.set(id, s)
	d.edit.strands[id] = true
	return s, true
}

// SetStrand stores s under id.
func (d *Design) SetStrand(id StrandID, s *Strand) {
	d.strandsForWrite().set(id, s)
	d.edit.strands[id] = true
}

// AddStrand stores s under a fresh id.
func (d *Design) AddStrand(s *Strand) StrandID {
	id := StrandID(0)
	if top, ok := d.Strands.MaxKey(); ok {
		id = top + 1
	}
	d.SetStrand(id, s)
	return id
}

// RemoveStrand deletes strand id; the scaffold designation goes with it.
func (d *Design) RemoveStrand(id StrandID) {
	d.strandsForWrite().delete(id)
	delete(d.edit.strands, id)
	if d.Scaffold != nil && *d.Scaffold == id {
		d.Scaffold = nil
	}
}

// AddGrid appends a free grid. Ids are never reused while greater ids exist.
func (d *Design) AddGrid(desc GridDescriptor) FreeGridID {
	id := FreeGridID(0)
	if top, ok := d.Grids.MaxKey(); ok {
		id = top + 1
	}
	d.gridsForWrite().set(id, desc)
	return id
}

// SetGrid replaces free grid id.
func (d *Design) SetGrid(id FreeGridID, desc GridDescriptor) {
	d.gridsForWrite().set(id, desc)
}

// RemoveGrid deletes free grid id.
func (d *Design) RemoveGrid(id FreeGridID) {
	d.gridsForWrite().delete(id)
	d.NoPhantoms = d.NoPhantoms.With(FreeGrid(id), false)
	d.SmallSpheres = d.SmallSpheres.With(FreeGrid(id), false)
}

// AddBezierPlane stores p under a fresh id.
func (d *Design) AddBezierPlane(p BezierPlane) BezierPlaneID {
	id := BezierPlaneID(0)
	if top, ok := d.BezierPlanes.MaxKey(); ok {
		id = top + 1
	}
	d.planesForWrite().set(id, p)
	return id
}

// SetBezierPlane replaces plane id.
func (d *Design) SetBezierPlane(id BezierPlaneID, p BezierPlane) {
	d.planesForWrite().set(id, p)
}

// BezierPathMut returns a private copy of path id.
func (d *Design) BezierPathMut(id BezierPathID) (*BezierPath, bool) {
	p, ok := d.BezierPaths.Get(id)
	if !ok {
		return nil, false
	}
	m := d.pathsForWrite()
	if d.edit.paths[id] {
		return p, true
	}
	p = p.Clone()
	m.set(id, p)
	d.edit.paths[id] = true
	return p, true
}

// AddBezierPath stores p under a fresh id.
func (d *Design) AddBezierPath(p *BezierPath) BezierPathID {
	id := BezierPathID(0)
	if top, ok := d.BezierPaths.MaxKey(); ok {
		id = top + 1
	}
	d.pathsForWrite().set(id, p)
	d.edit.paths[id] = true
	return id
}

// SetGroup puts helix h in the group flag, or removes it when member is false.
func (d *Design) SetGroup(h HelixID, flag, member bool) {
	if d.own(ownGroups) {
		d.Groups = d.Groups.clone()
	}
	if member {
		d.Groups.set(h, flag)
	} else {
		d.Groups.delete(h)
	}
}

// SetNoPhantom hides or shows the phantom helices of grid g.
func (d *Design) SetNoPhantom(g GridID, hidden bool) {
	d.touch()
	d.NoPhantoms = d.NoPhantoms.With(g, hidden)
}

// SetSmallSpheres toggles small spheres on grid g.
func (d *Design) SetSmallSpheres(g GridID, small bool) {
	d.touch()
	d.SmallSpheres = d.SmallSpheres.With(g, small)
}

// SetAnchor marks or unmarks n as an anchor.
func (d *Design) SetAnchor(n Nucl, anchor bool) {
	d.touch()
	d.Anchors = d.Anchors.With(n, anchor)
}

// IsScaffold reports whether s is the scaffold.
func (d *Design) IsScaffold(s StrandID) bool {
	return d.Scaffold != nil && *d.Scaffold == s
}

// GridData returns the grid view of d.
func (d *Design) GridData() *GridData {
	c := d.derivedCache()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.grids == nil {
		c.grids = NewGridData(d)
	}
	return c.grids
}

// Xovers returns the crossover registry of d.
func (d *Design) Xovers() *XoverRegistry {
	c := d.derivedCache()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.xovers == nil {
		c.xovers = NewXoverRegistry(d.Strands, c.seed)
	}
	return c.xovers
}

// StrandOfNucl returns the strand going through n.
func (d *Design) StrandOfNucl(n Nucl) (StrandID, bool) {
	c := d.indexed()
	s, ok := c.nuclToStrand[n]
	return s, ok
}

// StrandsOnHelix lists the strands with a domain on helix h.
func (d *Design) StrandsOnHelix(h HelixID) []StrandID {
	return slices.Clone(d.indexed().helixToStrands[h])
}

// StrandEnds returns the domain ends of strand s.
func (d *Design) StrandEnds(s StrandID) []Nucl {
	return slices.Clone(d.indexed().strandEnds[s])
}

// derived holds the views of a design that are computed on demand.
type derived struct {
	mu      sync.Mutex
	gen     uint64
	helices *HelixMap
	strands *StrandMap
	grids   *GridData
	xovers  *XoverRegistry
	// ids of the snapshot this one was cloned from
	seed *XoverRegistry

	built          bool
	nuclToStrand   map[Nucl]StrandID
	helixToStrands map[HelixID][]StrandID
	strandEnds     map[StrandID][]Nucl
}

func (c *derived) latestXovers() *XoverRegistry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.xovers != nil {
		return c.xovers
	}
	return c.seed
}

// derivedCache returns the cache of d, dropping it if d was written since it
// was filled.
func (d *Design) derivedCache() *derived {
	if d.cache == nil {
		d.cache = &derived{}
	}
	c := d.cache
	c.mu.Lock()
	if c.gen != d.gen || c.helices != d.Helices || c.strands != d.Strands {
		if c.xovers != nil {
			c.seed = c.xovers
		}
		c.gen, c.helices, c.strands = d.gen, d.Helices, d.Strands
		c.grids, c.xovers, c.built = nil, nil, false
		c.nuclToStrand, c.helixToStrands, c.strandEnds = nil, nil, nil
	}
	c.mu.Unlock()
	return c
}

func (d *Design) indexed() *derived {
	c := d.derivedCache()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return c
	}
	c.nuclToStrand = make(map[Nucl]StrandID)
	c.helixToStrands = make(map[HelixID][]StrandID)
	c.strandEnds = make(map[StrandID][]Nucl)
	for id, s := range d.Strands.All() {
		for _, dom := range s.Domains {
			if dom.IsInsertion() {
				continue
			}
			for _, n := range dom.Nucls() {
				c.nuclToStrand[n] = id
			}
			if on := c.helixToStrands[dom.Helix]; len(on) == 0 || on[len(on)-1] != id {
				c.helixToStrands[dom.Helix] = append(on, id)
			}
		}
		c.strandEnds[id] = s.DomainEnds()
	}
	c.built = true
	return c
}

// NuclSet is an immutable set of nucleotides.
type NuclSet struct {
	m map[Nucl]struct{}
}

// NewNuclSet builds a set from nucls.
func NewNuclSet(nucls ...Nucl) *NuclSet {
	s := &NuclSet{m: make(map[Nucl]struct{}, len(nucls))}
	for _, n := range nucls {
		s.m[n] = struct{}{}
	}
	return s
}

func (s *NuclSet) Has(n Nucl) bool {
	if s == nil {
		return false
	}
	_, ok := s.m[n]
	return ok
}

func (s *NuclSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Sorted returns the members in nucleotide order.
func (s *NuclSet) Sorted() []Nucl {
	if s == nil {
		return nil
	}
	return slices.SortedFunc(maps.Keys(s.m), Nucl.Compare)
}

// With returns a copy of s with n added or removed.
func (s *NuclSet) With(n Nucl, present bool) *NuclSet {
	out := &NuclSet{m: make(map[Nucl]struct{}, s.Len()+1)}
	if s != nil {
		maps.Copy(out.m, s.m)
	}
	if present {
		out.m[n] = struct{}{}
	} else {
		delete(out.m, n)
	}
	return out
}

func (s *NuclSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *NuclSet) UnmarshalJSON(data []byte) error {
	var nucls []Nucl
	if err := json.Unmarshal(data, &nucls); err != nil {
		return err
	}
	*s = *NewNuclSet(nucls...)
	return nil
}

// IsTrueXoverEnd reports whether n ends a crossover whose other end is not a
// neighbour of n on the same half-helix.
func (d *Design) IsTrueXoverEnd(n Nucl) bool {
	reg := d.Xovers()
	if !reg.IsEnd(n) {
		return false
	}
	for _, x := range reg.List() {
		switch n {
		case x.Prime5:
			if !x.Prime3.IsNeighbour(n) {
				return true
			}
		case x.Prime3:
			if !x.Prime5.IsNeighbour(n) {
				return true
			}
		}
	}
	return false
}

// UsedBoundsForHelix returns the smallest half-open interval containing every
// domain on helix h.
func (d *Design) UsedBoundsForHelix(h HelixID) (int, int, bool) {
	lo, hi, found := 0, 0, false
	for _, id := range d.StrandsOnHelix(h) {
		s, _ := d.Strand(id)
		if b, ok := s.Intervals()[h]; ok {
			if !found {
				lo, hi, found = b[0], b[1], true
				continue
			}
			lo, hi = min(lo, b[0]), max(hi, b[1])
		}
	}
	return lo, hi, found
}
