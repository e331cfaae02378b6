package domain

import (
	"encoding/json"
	"fmt"
)

// designJSON is the persisted layout of a design. Grids are listed by id,
// with null entries for removed grids.
type designJSON struct {
	Name             string             `json:"name,omitempty"`
	Helices          *HelixMap          `json:"helices"`
	Strands          map[string]*Strand `json:"strands"`
	Grids            []*GridDescriptor  `json:"grids,omitempty"`
	BezierPlanes     *BezierPlaneMap    `json:"bezier_planes,omitempty"`
	BezierPaths      *BezierPathMap     `json:"bezier_paths,omitempty"`
	Parameters       *Parameters        `json:"parameters,omitempty"`
	Scaffold         *StrandID          `json:"scaffold_id,omitempty"`
	ScaffoldSequence string             `json:"scaffold_sequence,omitempty"`
	ScaffoldShift    int                `json:"scaffold_shift,omitempty"`
	NoPhantoms       *GridIDSet         `json:"no_phantoms,omitempty"`
	SmallSpheres     *GridIDSet         `json:"small_spheres,omitempty"`
	Groups           *HelixSet          `json:"groups,omitempty"`
	Anchors          *NuclSet           `json:"anchors,omitempty"`
}

// MarshalJSON writes d with every crossover junction carrying its registry
// id.
func (d *Design) MarshalJSON() ([]byte, error) {
	reg := d.Xovers()
	out := designJSON{
		Name:             d.Name,
		Helices:          d.Helices,
		Strands:          make(map[string]*Strand, d.Strands.Len()),
		Scaffold:         d.Scaffold,
		ScaffoldSequence: d.ScaffoldSequence,
		ScaffoldShift:    d.ScaffoldShift,
	}
	for id, s := range d.Strands.All() {
		out.Strands[fmt.Sprint(id)] = withRegistryIDs(s, reg)
	}
	if top, ok := d.Grids.MaxKey(); ok {
		out.Grids = make([]*GridDescriptor, top+1)
		for id, g := range d.Grids.All() {
			out.Grids[id] = &g
		}
	}
	if d.BezierPlanes.Len() > 0 {
		out.BezierPlanes = d.BezierPlanes
	}
	if d.BezierPaths.Len() > 0 {
		out.BezierPaths = d.BezierPaths
	}
	if p := d.Parameters.OrDefault(); p != DefaultParameters() {
		out.Parameters = &p
	}
	if d.NoPhantoms.Len() > 0 {
		out.NoPhantoms = d.NoPhantoms
	}
	if d.SmallSpheres.Len() > 0 {
		out.SmallSpheres = d.SmallSpheres
	}
	if d.Groups.Len() > 0 {
		out.Groups = d.Groups
	}
	if d.Anchors.Len() > 0 {
		out.Anchors = d.Anchors
	}
	return json.Marshal(out)
}

func withRegistryIDs(s *Strand, reg *XoverRegistry) *Strand {
	if len(s.Junctions) != len(s.Domains) {
		return s
	}
	var c *Strand
	for i, j := range s.Junctions {
		if !j.IsXover() {
			continue
		}
		pair, ok := s.linkAt(i)
		if !ok {
			continue
		}
		id, ok := reg.ID(pair[0], pair[1])
		if !ok || (j.Kind == JunctionIdentifiedXover && j.Xover == id) {
			continue
		}
		if c == nil {
			c = s.Clone()
		}
		c.Junctions[i] = IdentifiedXover(id)
	}
	if c == nil {
		return s
	}
	return c
}

// UnmarshalJSON reads the layout written by MarshalJSON. Curves are sampled
// again and strands whose junctions do not match their domains are
// sanitised.
func (d *Design) UnmarshalJSON(data []byte) error {
	var in designJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode design: %w", err)
	}
	out := NewDesign()
	out.Name = in.Name
	if in.Parameters != nil {
		out.Parameters = in.Parameters.OrDefault()
	}
	p := out.Parameters
	if in.Helices != nil {
		for _, h := range in.Helices.All() {
			h.ensureCurve(p)
		}
		out.Helices = in.Helices
	}
	strands := make(map[StrandID]*Strand, len(in.Strands))
	for key, s := range in.Strands {
		id, err := parseKey[StrandID](key)
		if err != nil {
			return fmt.Errorf("decode design: strand %w", err)
		}
		if s == nil {
			return fmt.Errorf("decode design: strand %s is null", key)
		}
		if len(s.Junctions) != len(s.Domains) {
			s.Sanitize()
		}
		strands[id] = s
	}
	out.Strands = NewStrandMap(strands)
	grids := make(map[FreeGridID]GridDescriptor, len(in.Grids))
	for i, g := range in.Grids {
		if g != nil {
			grids[FreeGridID(i)] = *g
		}
	}
	out.Grids = NewCollection(grids)
	if in.BezierPlanes != nil {
		out.BezierPlanes = in.BezierPlanes
	}
	if in.BezierPaths != nil {
		out.BezierPaths = in.BezierPaths
	}
	out.Scaffold = in.Scaffold
	out.ScaffoldSequence = in.ScaffoldSequence
	out.ScaffoldShift = in.ScaffoldShift
	if in.NoPhantoms != nil {
		out.NoPhantoms = in.NoPhantoms
	}
	if in.SmallSpheres != nil {
		out.SmallSpheres = in.SmallSpheres
	}
	if in.Groups != nil {
		out.Groups = in.Groups
	}
	if in.Anchors != nil {
		out.Anchors = in.Anchors
	}
	*d = *out
	return nil
}

type helixAlias Helix

// helixJSON omits the visibility of visible helices; an absent flag reads as
// visible.
type helixJSON struct {
	*helixAlias
	Visible *bool `json:"visible,omitempty"`
}

func (h *Helix) MarshalJSON() ([]byte, error) {
	out := helixJSON{helixAlias: (*helixAlias)(h)}
	if !h.Visible {
		hidden := false
		out.Visible = &hidden
	}
	return json.Marshal(out)
}

func (h *Helix) UnmarshalJSON(data []byte) error {
	in := helixJSON{helixAlias: (*helixAlias)(h)}
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode helix: %w", err)
	}
	h.Visible = in.Visible == nil || *in.Visible
	return nil
}
