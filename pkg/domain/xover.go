package domain

import (
	"maps"
	"slices"
)

// XoverID identifies a crossover within a design.
type XoverID int

// XoverWithID is a crossover and its id.
type XoverWithID struct {
	ID     XoverID
	Prime5 Nucl
	Prime3 Nucl
}

// XoverRegistry is a bijection between crossover ids and the (5', 3')
// nucleotide pairs of the crossovers of a strand map. A registry is immutable.
type XoverRegistry struct {
	byID   map[XoverID][2]Nucl
	byPair map[[2]Nucl]XoverID
	ends   map[Nucl]bool
	next   XoverID
}

// NewXoverRegistry numbers the crossovers of strands. Ids recorded in the
// strands' junctions are honoured first, then ids that seed gave to the same
// nucleotide pairs. Remaining crossovers get fresh ids above every id seen so
// far, in strand order.
func NewXoverRegistry(strands *StrandMap, seed *XoverRegistry) *XoverRegistry {
	r := &XoverRegistry{
		byID:   make(map[XoverID][2]Nucl),
		byPair: make(map[[2]Nucl]XoverID),
		ends:   make(map[Nucl]bool),
	}
	if seed != nil {
		r.next = seed.next
	}
	claim := func(pair [2]Nucl, id XoverID) bool {
		if _, used := r.byID[id]; used {
			return false
		}
		if _, known := r.byPair[pair]; known {
			return false
		}
		r.byID[id] = pair
		r.byPair[pair] = id
		r.ends[pair[0]], r.ends[pair[1]] = true, true
		r.next = max(r.next, id+1)
		return true
	}

	var all [][2]Nucl
	for _, s := range strands.All() {
		all = append(all, s.Xovers()...)
		if len(s.Junctions) != len(s.Domains) {
			continue
		}
		for i, j := range s.Junctions {
			if j.Kind != JunctionIdentifiedXover {
				continue
			}
			if pair, ok := s.linkAt(i); ok {
				claim(pair, j.Xover)
			}
		}
	}
	var pending [][2]Nucl
	for _, pair := range all {
		if _, ok := r.byPair[pair]; ok {
			continue
		}
		if id, ok := seed.ID(pair[0], pair[1]); ok && claim(pair, id) {
			continue
		}
		pending = append(pending, pair)
	}
	for _, pair := range pending {
		claim(pair, r.next)
	}
	return r
}

// ID returns the id of crossover (n5, n3).
func (r *XoverRegistry) ID(n5, n3 Nucl) (XoverID, bool) {
	if r == nil {
		return 0, false
	}
	id, ok := r.byPair[[2]Nucl{n5, n3}]
	return id, ok
}

// Xover returns the crossover with the given id.
func (r *XoverRegistry) Xover(id XoverID) (Nucl, Nucl, bool) {
	if r == nil {
		return Nucl{}, Nucl{}, false
	}
	pair, ok := r.byID[id]
	return pair[0], pair[1], ok
}

// List returns every crossover ordered by id.
func (r *XoverRegistry) List() []XoverWithID {
	if r == nil {
		return nil
	}
	ids := slices.Sorted(maps.Keys(r.byID))
	out := make([]XoverWithID, len(ids))
	for i, id := range ids {
		pair := r.byID[id]
		out[i] = XoverWithID{ID: id, Prime5: pair[0], Prime3: pair[1]}
	}
	return out
}

// Len returns the number of crossovers.
func (r *XoverRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byID)
}

// IsEnd reports whether n is one end of a crossover.
func (r *XoverRegistry) IsEnd(n Nucl) bool {
	return r != nil && r.ends[n]
}
