package domain

import (
	"slices"
	"strconv"
	"strings"
)

// Strand is an oriented chain of domains, listed from 5' to 3'. Junctions[i]
// is the link following Domains[i].
type Strand struct {
	Domains   []Domain   `json:"domains"`
	Junctions []Junction `json:"junctions"`
	Sequence  string     `json:"sequence,omitempty"`
	Cyclic    bool       `json:"cyclic,omitempty"`
	Color     uint32     `json:"color"`
	Name      string     `json:"name,omitempty"`
}

// NewStrand returns a one-nucleotide strand on (helix, position, forward).
func NewStrand(helix HelixID, position int, forward bool, color uint32) *Strand {
	s := &Strand{
		Domains: []Domain{HelixDomain(helix, position, position+1, forward)},
		Color:   color,
	}
	s.Junctions = ReadJunctions(s.Domains, false)
	return s
}

// Clone returns a deep copy of s.
func (s *Strand) Clone() *Strand {
	c := *s
	c.Domains = slices.Clone(s.Domains)
	c.Junctions = slices.Clone(s.Junctions)
	return &c
}

// Sanitize normalises the insertions of s and recomputes its junctions.
// Identified crossovers keep their id when the same link survives.
func (s *Strand) Sanitize() {
	known := s.identifiedLinks()
	s.Domains = SanitizeDomains(s.Domains, s.Cyclic)
	s.Junctions = ReadJunctions(s.Domains, s.Cyclic)
	s.restoreXoverIDs(known)
}

// linkAt returns the nucleotides joined by junction i, skipping insertions.
func (s *Strand) linkAt(i int) ([2]Nucl, bool) {
	n := len(s.Domains)
	var pair [2]Nucl
	found := false
	for k := 0; k < n && !found; k++ {
		idx := i - k
		if idx < 0 {
			if !s.Cyclic {
				break
			}
			idx += n
		}
		pair[0], found = s.Domains[idx].Prime3End()
	}
	if !found {
		return pair, false
	}
	found = false
	for k := 1; k <= n && !found; k++ {
		idx := i + k
		if idx >= n {
			if !s.Cyclic {
				break
			}
			idx -= n
		}
		pair[1], found = s.Domains[idx].Prime5End()
	}
	return pair, found
}

// identifiedLinks maps the links of identified crossovers to their ids.
func (s *Strand) identifiedLinks() map[[2]Nucl]XoverID {
	known := make(map[[2]Nucl]XoverID)
	if len(s.Junctions) != len(s.Domains) {
		return known
	}
	for i, j := range s.Junctions {
		if j.Kind != JunctionIdentifiedXover {
			continue
		}
		if pair, ok := s.linkAt(i); ok {
			known[pair] = j.Xover
		}
	}
	return known
}

func (s *Strand) restoreXoverIDs(known map[[2]Nucl]XoverID) {
	if len(known) == 0 {
		return
	}
	for i, j := range s.Junctions {
		if j.Kind != JunctionUnidentifiedXover {
			continue
		}
		if pair, ok := s.linkAt(i); ok {
			if id, ok := known[pair]; ok {
				s.Junctions[i] = IdentifiedXover(id)
			}
		}
	}
}

// SanitizeDomains merges consecutive insertions. On a cyclic strand an
// insertion found at the start is moved to the end, merged with any insertion
// already there.
func SanitizeDomains(domains []Domain, cyclic bool) []Domain {
	out := make([]Domain, 0, len(domains))
	var pending *Domain
	for _, d := range domains {
		if d.IsInsertion() {
			if pending == nil {
				acc := NewInsertion(0)
				acc.AttachedToPrime3 = d.AttachedToPrime3
				pending = &acc
			}
			pending.NbNucl += d.NbNucl
			pending.Sequence += d.Sequence
			continue
		}
		if pending != nil {
			if pending.NbNucl > 0 {
				out = append(out, *pending)
			}
			pending = nil
		}
		out = append(out, d)
	}
	if pending != nil && pending.NbNucl > 0 {
		if cyclic && len(out) > 0 && out[0].IsInsertion() {
			first := out[0]
			out = out[1:]
			pending.NbNucl += first.NbNucl
			pending.Sequence += first.Sequence
			pending.AttachedToPrime3 = false
			out = append(out, *pending)
		} else {
			if !cyclic && pending.AttachedToPrime3 {
				out = append(out, NewPrime5Insertion(pending.NbNucl))
				out[len(out)-1].Sequence = pending.Sequence
			} else {
				ins := NewInsertion(pending.NbNucl)
				ins.Sequence = pending.Sequence
				out = append(out, ins)
			}
		}
		return out
	}
	if cyclic && len(out) > 1 && out[0].IsInsertion() {
		first := out[0]
		out = append(out[1:], first)
	}
	return out
}

// Get5Prime returns the first nucleotide on a helix.
func (s *Strand) Get5Prime() (Nucl, bool) {
	for _, d := range s.Domains {
		if n, ok := d.Prime5End(); ok {
			return n, true
		}
	}
	return Nucl{}, false
}

// Get3Prime returns the last nucleotide on a helix.
func (s *Strand) Get3Prime() (Nucl, bool) {
	for i := len(s.Domains) - 1; i >= 0; i-- {
		if n, ok := s.Domains[i].Prime3End(); ok {
			return n, true
		}
	}
	return Nucl{}, false
}

// Length counts every nucleotide of s, insertions included.
func (s *Strand) Length() int {
	total := 0
	for _, d := range s.Domains {
		total += d.Length()
	}
	return total
}

// MergeConsecutiveDomains fuses neighbouring domains that continue each other.
func (s *Strand) MergeConsecutiveDomains() {
	for n := len(s.Domains) - 2; n >= 0; n-- {
		if !s.Domains[n].CanMerge(s.Domains[n+1]) {
			continue
		}
		s.Domains[n].Merge(s.Domains[n+1])
		s.Domains = slices.Delete(s.Domains, n+1, n+2)
		if n < len(s.Junctions) {
			s.Junctions = slices.Delete(s.Junctions, n, n+1)
		}
	}
}

// Xovers lists the (5', 3') nucleotide pairs of the crossovers of s, in
// junction order. Insertions between the two domains are skipped.
func (s *Strand) Xovers() [][2]Nucl {
	var out [][2]Nucl
	for i, j := range ReadJunctions(s.Domains, s.Cyclic) {
		if !j.IsXover() {
			continue
		}
		if pair, ok := s.linkAt(i); ok {
			out = append(out, pair)
		}
	}
	return out
}

// IntersectDomains reports whether a domain of s shares a nucleotide with one
// of domains.
func (s *Strand) IntersectDomains(domains []Domain) bool {
	for _, d := range s.Domains {
		for _, o := range domains {
			if d.Intersect(o) {
				return true
			}
		}
	}
	return false
}

// HasNucl reports whether s goes through n.
func (s *Strand) HasNucl(n Nucl) bool {
	_, ok := s.FindNucl(n)
	return ok
}

// FindNucl returns the index of n along s, counted from the 5' end.
func (s *Strand) FindNucl(n Nucl) (int, bool) {
	seen := 0
	for _, d := range s.Domains {
		if i, ok := d.HasNucl(n); ok {
			return seen + i, true
		}
		seen += d.Length()
	}
	return 0, false
}

// FindVirtualNucl is FindNucl on coalesced nucleotides.
func (s *Strand) FindVirtualNucl(v VirtualNucl, helices *HelixMap) (int, bool) {
	seen := 0
	for _, d := range s.Domains {
		if i, ok := d.HasVirtualNucl(v, helices); ok {
			return seen + i, true
		}
		seen += d.Length()
	}
	return 0, false
}

// Insertions returns, for every non empty insertion, the nucleotide it hangs
// on: the 3' end of the previous helix domain, or the strand's 5' end.
func (s *Strand) Insertions() []Nucl {
	var out []Nucl
	var last *Nucl
	for _, d := range s.Domains {
		if d.IsInsertion() {
			if d.NbNucl == 0 {
				continue
			}
			if last != nil {
				out = append(out, *last)
			} else if n, ok := s.Get5Prime(); ok {
				out = append(out, n)
			}
			continue
		}
		n, _ := d.Prime3End()
		last = &n
	}
	return out
}

// HasInsertions reports whether s contains an insertion.
func (s *Strand) HasInsertions() bool {
	return slices.ContainsFunc(s.Domains, Domain.IsInsertion)
}

// NthNucl returns the nucleotide at index n from the 5' end. Indices falling
// in an insertion have no nucleotide.
func (s *Strand) NthNucl(n int) (Nucl, bool) {
	seen := 0
	for _, d := range s.Domains {
		if seen+d.Length() > n {
			if d.IsInsertion() {
				return Nucl{}, false
			}
			return d.Nucls()[n-seen], true
		}
		seen += d.Length()
	}
	return Nucl{}, false
}

// InsertionPoint is the pair of nucleotides surrounding an insertion. A missing
// side means the insertion is at an open end of the strand.
type InsertionPoint struct {
	Prime5 *Nucl
	Prime3 *Nucl
}

// InsertionPoints lists, in order, the surroundings of every insertion.
func (s *Strand) InsertionPoints() []InsertionPoint {
	var out []InsertionPoint
	var prev *Nucl
	if s.Cyclic && len(s.Domains) > 0 {
		if n, ok := s.Domains[len(s.Domains)-1].Prime3End(); ok {
			prev = &n
		}
	}
	for i := 0; i+1 < len(s.Domains); i++ {
		d := s.Domains[i]
		if d.IsInsertion() {
			var next *Nucl
			if n, ok := s.Domains[i+1].Prime5End(); ok {
				next = &n
			}
			out = append(out, InsertionPoint{Prime5: prev, Prime3: next})
			continue
		}
		n, _ := d.Prime3End()
		prev = &n
	}
	if len(s.Domains) > 0 && s.Domains[len(s.Domains)-1].IsInsertion() {
		point := InsertionPoint{Prime5: prev}
		if s.Cyclic {
			if n, ok := s.Domains[0].Prime5End(); ok {
				point.Prime3 = &n
			}
		}
		out = append(out, point)
	}
	return out
}

// locateNucl returns the domain containing n and n's index in it.
func (s *Strand) locateNucl(n Nucl) (int, int, bool) {
	for i, d := range s.Domains {
		if k, ok := d.HasNucl(n); ok {
			return i, k, true
		}
	}
	return 0, 0, false
}

// PositionOnStrand locates a nucleotide on a strand.
type PositionOnStrand struct {
	Domain      int
	PosOnDomain int
	PosOnStrand int
}

// LocateVirtualNucl finds v on s. On a cyclic strand whose last domain
// continues the first one, a hit on the last domain is reported on domain 0.
func (s *Strand) LocateVirtualNucl(v VirtualNucl, helices *HelixMap) (PositionOnStrand, bool) {
	seen := 0
	for i, d := range s.Domains {
		k, ok := d.HasVirtualNucl(v, helices)
		if !ok {
			seen += d.Length()
			continue
		}
		if s.Cyclic && i == len(s.Domains)-1 {
			end, _ := d.Prime3End()
			if start, ok := s.Domains[0].Prime5End(); ok && end.Prime3() == start {
				i = 0
			}
		}
		return PositionOnStrand{Domain: i, PosOnDomain: k, PosOnStrand: seen + k}, true
	}
	return PositionOnStrand{}, false
}

// AddInsertionAtNucl inserts size nucleotides right after n. It reports
// whether n was found.
func (s *Strand) AddInsertionAtNucl(n Nucl, size int) bool {
	i, k, ok := s.locateNucl(n)
	if !ok {
		return false
	}
	d := s.Domains[i]
	if k == d.Length()-1 {
		s.Domains = slices.Insert(s.Domains, i+1, NewInsertion(size))
	} else {
		p5, p3, _ := d.Split(k)
		s.Domains = slices.Replace(s.Domains, i, i+1, p5, NewInsertion(size), p3)
	}
	s.Sanitize()
	return true
}

// AddInsertionBeforeNucl inserts size nucleotides right before n. An
// insertion before the strand's 5' end becomes a leading insertion.
func (s *Strand) AddInsertionBeforeNucl(n Nucl, size int) bool {
	i, k, ok := s.locateNucl(n)
	if !ok {
		return false
	}
	if k == 0 {
		ins := NewInsertion(size)
		if i == 0 {
			ins = NewPrime5Insertion(size)
		}
		s.Domains = slices.Insert(s.Domains, i, ins)
	} else {
		p5, p3, _ := s.Domains[i].Split(k - 1)
		s.Domains = slices.Replace(s.Domains, i, i+1, p5, NewInsertion(size), p3)
	}
	s.Sanitize()
	return true
}

// InsertionAt returns the index of the insertion domain touching n: the one
// following n when nuclIsPrime5 is set, the one preceding n otherwise.
func (s *Strand) InsertionAt(n Nucl, nuclIsPrime5 bool) (int, bool) {
	count := len(s.Domains)
	pairs := count - 1
	if s.Cyclic {
		pairs = count
	}
	for i := 0; i < pairs; i++ {
		a, b := i, (i+1)%count
		if nuclIsPrime5 {
			if end, ok := s.Domains[a].Prime3End(); ok && end == n {
				return b, s.Domains[b].IsInsertion()
			}
			continue
		}
		if start, ok := s.Domains[b].Prime5End(); ok && start == n {
			return a, s.Domains[a].IsInsertion()
		}
	}
	return 0, false
}

// SetInsertionLength resizes the insertion touching n. A zero length removes
// it; a missing insertion is created when length is positive. It reports
// whether s changed.
func (s *Strand) SetInsertionLength(n Nucl, nuclIsPrime5 bool, length int) bool {
	if i, ok := s.InsertionAt(n, nuclIsPrime5); ok {
		if length > 0 {
			s.Domains[i].NbNucl = length
			s.Domains[i].Sequence = ""
		} else {
			s.Domains = slices.Delete(s.Domains, i, i+1)
		}
		s.Sanitize()
		return true
	}
	if length <= 0 {
		return false
	}
	if nuclIsPrime5 {
		return s.AddInsertionAtNucl(n, length)
	}
	return s.AddInsertionBeforeNucl(n, length)
}

// DomainEnds lists the 5' and 3' ends of every helix domain.
func (s *Strand) DomainEnds() []Nucl {
	var out []Nucl
	for _, d := range s.Domains {
		p5, ok1 := d.Prime5End()
		p3, ok2 := d.Prime3End()
		if ok1 && ok2 {
			out = append(out, p5, p3)
		}
	}
	return out
}

// DomainLengths returns the lengths of the domains, counting as one the
// domains that wrap around position 0 of a half-helix.
func (s *Strand) DomainLengths() []int {
	var lengths []int
	for i, d := range s.Domains {
		if i > 0 && s.Domains[i-1].IsNeighbour(d) {
			lengths[len(lengths)-1] += d.Length()
			continue
		}
		lengths = append(lengths, d.Length())
	}
	if len(lengths) > 1 && s.Domains[0].IsNeighbour(s.Domains[len(s.Domains)-1]) {
		lengths[0] += lengths[len(lengths)-1]
		lengths = lengths[:len(lengths)-1]
	}
	return lengths
}

// LengthDecomposition renders the length of s as "total = l1 + l2 + ...".
func (s *Strand) LengthDecomposition() string {
	lengths := s.DomainLengths()
	parts := make([]string, len(lengths))
	total := 0
	for i, l := range lengths {
		parts[i] = strconv.Itoa(l)
		total += l
	}
	return strconv.Itoa(total) + " = " + strings.Join(parts, " + ")
}

// Nucls lists the nucleotides of s on helices, from 5' to 3'.
func (s *Strand) Nucls() []Nucl {
	var out []Nucl
	for _, d := range s.Domains {
		out = append(out, d.Nucls()...)
	}
	return out
}

// UsesHelix reports whether a domain of s lies on helix h.
func (s *Strand) UsesHelix(h HelixID) bool {
	for _, d := range s.Domains {
		if !d.IsInsertion() && d.Helix == h {
			return true
		}
	}
	return false
}

// SplitAt cuts s after n. A linear strand yields its 5' and 3' parts; the 3'
// part is nil when nothing but insertions follows n. A cyclic strand is opened
// so that n becomes its 3' end, and the second result is nil.
func (s *Strand) SplitAt(n Nucl) (*Strand, *Strand, bool) {
	i, k, ok := s.locateNucl(n)
	if !ok {
		return nil, nil, false
	}
	known := s.identifiedLinks()
	d := s.Domains[i]
	var head, tail []Domain
	if k == d.Length()-1 {
		head = slices.Clone(s.Domains[:i+1])
		tail = slices.Clone(s.Domains[i+1:])
	} else {
		p5, p3, _ := d.Split(k)
		head = append(slices.Clone(s.Domains[:i]), p5)
		tail = append([]Domain{p3}, s.Domains[i+1:]...)
	}
	if s.Cyclic {
		opened := s.Clone()
		opened.Cyclic = false
		opened.Domains = append(tail, head...)
		opened.MergeConsecutiveDomains()
		opened.rebuild(known)
		return opened, nil, true
	}
	first := s.Clone()
	first.Domains = head
	first.Sequence = ""
	first.rebuild(known)
	if !hasHelixDomain(tail) {
		return first, nil, true
	}
	second := s.Clone()
	second.Domains = tail
	second.Name = ""
	second.Sequence = ""
	second.rebuild(known)
	return first, second, true
}

func (s *Strand) rebuild(known map[[2]Nucl]XoverID) {
	s.Domains = SanitizeDomains(s.Domains, s.Cyclic)
	s.Junctions = ReadJunctions(s.Domains, s.Cyclic)
	s.restoreXoverIDs(known)
}

func hasHelixDomain(domains []Domain) bool {
	return slices.ContainsFunc(domains, func(d Domain) bool { return !d.IsInsertion() })
}

// Join appends other to the 3' end of s. When other is s itself the strand
// becomes cyclic.
func (s *Strand) Join(other *Strand) {
	known := s.identifiedLinks()
	if other == s {
		s.Cyclic = true
		s.MergeConsecutiveDomains()
		if n := len(s.Domains); n > 1 && s.Domains[n-1].CanMerge(s.Domains[0]) {
			s.Domains[0].Merge(s.Domains[n-1])
			s.Domains = s.Domains[:n-1]
		}
		s.rebuild(known)
		return
	}
	for k, v := range other.identifiedLinks() {
		known[k] = v
	}
	s.Domains = append(slices.Clone(s.Domains), other.Domains...)
	s.Junctions = nil
	s.Sequence += other.Sequence
	s.MergeConsecutiveDomains()
	s.rebuild(known)
}

// IsStrandEnd reports whether n is the 5' or 3' end of s. A cyclic strand has
// no end.
func (s *Strand) IsStrandEnd(n Nucl) Extremity {
	if s.Cyclic {
		return NotAnEnd
	}
	if p5, ok := s.Get5Prime(); ok && p5 == n {
		return Prime5Extremity
	}
	if p3, ok := s.Get3Prime(); ok && p3 == n {
		return Prime3Extremity
	}
	return NotAnEnd
}

// IsDomainEnd reports whether n is the 5' or 3' end of a helix domain of s.
func (s *Strand) IsDomainEnd(n Nucl) Extremity {
	for _, d := range s.Domains {
		if p5, ok := d.Prime5End(); ok && p5 == n {
			return Prime5Extremity
		}
		if p3, ok := d.Prime3End(); ok && p3 == n {
			return Prime3Extremity
		}
	}
	return NotAnEnd
}

// Intervals returns, for every helix used by s, the smallest interval
// containing the domains of s on that helix.
func (s *Strand) Intervals() map[HelixID][2]int {
	out := make(map[HelixID][2]int)
	for _, d := range s.Domains {
		if d.IsInsertion() {
			continue
		}
		if cur, ok := out[d.Helix]; ok {
			out[d.Helix] = [2]int{min(cur[0], d.Start), max(cur[1], d.End)}
		} else {
			out[d.Helix] = [2]int{d.Start, d.End}
		}
	}
	return out
}
