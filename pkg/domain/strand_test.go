package domain

import (
	"slices"
	"testing"
)

func TestSanitizeMergesSuccessiveInsertions(t *testing.T) {
	domains := []Domain{
		HelixDomain(0, 0, 10, true),
		NewInsertion(3),
		NewInsertion(5),
		HelixDomain(1, 0, 10, false),
	}
	got := lengths(SanitizeDomains(domains, false))
	if want := []int{10, 8, 10}; !slices.Equal(got, want) {
		t.Fatalf("lengths %v, want %v", got, want)
	}
}

func TestSanitizeCyclicLeadingAndTrailingInsertions(t *testing.T) {
	domains := []Domain{
		NewInsertion(12),
		HelixDomain(0, 0, 4, true),
		HelixDomain(1, 0, 8, false),
		HelixDomain(2, 0, 4, true),
		HelixDomain(3, 0, 5, false),
		HelixDomain(4, 0, 8, true),
		NewInsertion(17),
	}
	got := SanitizeDomains(domains, true)
	if want := []int{4, 8, 4, 5, 8, 29}; !slices.Equal(lengths(got), want) {
		t.Fatalf("lengths %v, want %v", lengths(got), want)
	}
	if got[0].IsInsertion() && got[len(got)-1].IsInsertion() {
		t.Fatalf("cyclic strand starts and ends with an insertion")
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	cases := map[string]struct {
		domains []Domain
		cyclic  bool
	}{
		"linear":          {[]Domain{HelixDomain(0, 0, 4, true), NewInsertion(2), NewInsertion(1), HelixDomain(0, 4, 8, true)}, false},
		"leading":         {[]Domain{NewPrime5Insertion(3), HelixDomain(0, 0, 4, true)}, false},
		"cyclic":          {[]Domain{NewInsertion(2), HelixDomain(0, 0, 4, true), HelixDomain(1, 0, 4, false), NewInsertion(6)}, true},
		"empty insertion": {[]Domain{HelixDomain(0, 0, 4, true), NewInsertion(0), HelixDomain(1, 0, 4, false)}, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			once := SanitizeDomains(tc.domains, tc.cyclic)
			twice := SanitizeDomains(once, tc.cyclic)
			if !slices.Equal(once, twice) {
				t.Fatalf("sanitize not idempotent: %v then %v", once, twice)
			}
			junctions := ReadJunctions(once, tc.cyclic)
			if len(junctions) != len(once) {
				t.Fatalf("%d junctions for %d domains", len(junctions), len(once))
			}
			last := junctions[len(junctions)-1]
			if (last == Prime3End) == tc.cyclic {
				t.Fatalf("last junction %v on cyclic=%v strand", last, tc.cyclic)
			}
		})
	}
}

func TestReadJunctions(t *testing.T) {
	domains := []Domain{
		HelixDomain(0, 0, 4, true),
		HelixDomain(0, 4, 8, true),
		NewInsertion(2),
		HelixDomain(1, 0, 8, false),
	}
	got := ReadJunctions(domains, false)
	want := []Junction{Adjacent, Adjacent, UnidentifiedXover, Prime3End}
	if !slices.Equal(got, want) {
		t.Fatalf("junctions %v, want %v", got, want)
	}
}

func TestStrandQueries(t *testing.T) {
	s := strandWith(
		HelixDomain(0, 0, 10, true),
		NewInsertion(3),
		HelixDomain(1, 2, 10, false),
	)
	if s.Length() != 21 {
		t.Fatalf("length %d", s.Length())
	}
	if p5, _ := s.Get5Prime(); p5 != nucl(0, 0, true) {
		t.Fatalf("5' end %v", p5)
	}
	if p3, _ := s.Get3Prime(); p3 != nucl(1, 2, false) {
		t.Fatalf("3' end %v", p3)
	}
	if got := s.LengthDecomposition(); got != "21 = 10 + 3 + 8" {
		t.Fatalf("decomposition %q", got)
	}
	if got := s.IsStrandEnd(nucl(0, 0, true)); !got.Is5Prime() {
		t.Fatalf("expected a 5' end, got %v", got)
	}
	if got := s.IsDomainEnd(nucl(0, 9, true)); !got.Is3Prime() {
		t.Fatalf("expected a domain 3' end, got %v", got)
	}
	if got := s.IsStrandEnd(nucl(0, 9, true)); got.IsEnd() {
		t.Fatalf("domain end reported as strand end")
	}
	if _, ok := s.NthNucl(11); ok {
		t.Fatalf("an inserted base has no nucleotide")
	}
	if n, ok := s.NthNucl(13); !ok || n != nucl(1, 9, false) {
		t.Fatalf("13th nucleotide %v %v", n, ok)
	}
	iv := s.Intervals()
	if iv[1] != [2]int{2, 10} || len(iv) != 2 {
		t.Fatalf("intervals %v", iv)
	}
	if len(s.Xovers()) != 1 {
		t.Fatalf("expected one crossover, got %v", s.Xovers())
	}
}

func TestSplitAndJoin(t *testing.T) {
	s := strandWith(HelixDomain(0, 0, 10, true))
	head, tail, ok := s.SplitAt(nucl(0, 4, true))
	if !ok || tail == nil {
		t.Fatalf("split failed")
	}
	if head.Length() != 5 || tail.Length() != 5 {
		t.Fatalf("lengths %d and %d", head.Length(), tail.Length())
	}
	head.Join(tail)
	if len(head.Domains) != 1 || head.Length() != 10 {
		t.Fatalf("join did not merge the domains: %v", head.Domains)
	}

	head.Join(head)
	if !head.Cyclic {
		t.Fatalf("self join should make the strand cyclic")
	}
	if got := head.IsStrandEnd(nucl(0, 0, true)); got.IsEnd() {
		t.Fatalf("cyclic strand has an end")
	}
	opened, none, ok := head.SplitAt(nucl(0, 3, true))
	if !ok || none != nil || opened.Cyclic {
		t.Fatalf("opening a cyclic strand: %v %v %v", opened, none, ok)
	}
	if p3, _ := opened.Get3Prime(); p3 != nucl(0, 3, true) {
		t.Fatalf("opened strand ends at %v", p3)
	}
}

func TestInsertionLength(t *testing.T) {
	s := strandWith(HelixDomain(0, 0, 10, true))
	n := nucl(0, 4, true)
	if !s.SetInsertionLength(n, true, 3) {
		t.Fatalf("could not add an insertion")
	}
	if got := s.Insertions(); len(got) != 1 || got[0] != n {
		t.Fatalf("insertions %v", got)
	}
	if s.Length() != 13 {
		t.Fatalf("length %d", s.Length())
	}
	if !s.SetInsertionLength(n, true, 0) {
		t.Fatalf("could not clear the insertion")
	}
	if s.HasInsertions() || s.Length() != 10 {
		t.Fatalf("insertion survived: %v", s.Domains)
	}
}

func lengths(domains []Domain) []int {
	out := make([]int, len(domains))
	for i, d := range domains {
		out[i] = d.Length()
	}
	return out
}

func TestInsertionPoints(t *testing.T) {
	at := func(h HelixID, pos int, forward bool) *Nucl {
		n := nucl(h, pos, forward)
		return &n
	}
	cases := []struct {
		name    string
		domains []Domain
		cyclic  bool
		want    []InsertionPoint
	}{
		{
			name:    "no insertion",
			domains: []Domain{HelixDomain(0, 0, 10, true)},
		},
		{
			name:    "between two domains",
			domains: []Domain{HelixDomain(0, 0, 10, true), NewInsertion(3), HelixDomain(1, 0, 10, false)},
			want:    []InsertionPoint{{Prime5: at(0, 9, true), Prime3: at(1, 9, false)}},
		},
		{
			name:    "at the 5' end",
			domains: []Domain{NewInsertion(2), HelixDomain(0, 0, 10, true)},
			want:    []InsertionPoint{{Prime3: at(0, 0, true)}},
		},
		{
			name:    "at the 3' end",
			domains: []Domain{HelixDomain(0, 0, 10, true), NewInsertion(2)},
			want:    []InsertionPoint{{Prime5: at(0, 9, true)}},
		},
		{
			name:    "several",
			domains: []Domain{HelixDomain(0, 0, 10, true), NewInsertion(1), HelixDomain(1, 0, 10, false), NewInsertion(2)},
			want: []InsertionPoint{
				{Prime5: at(0, 9, true), Prime3: at(1, 9, false)},
				{Prime5: at(1, 0, false)},
			},
		},
		{
			name:    "last domain of a cyclic strand",
			domains: []Domain{HelixDomain(0, 0, 10, true), HelixDomain(1, 0, 10, false), NewInsertion(4)},
			cyclic:  true,
			want:    []InsertionPoint{{Prime5: at(1, 0, false), Prime3: at(0, 0, true)}},
		},
		{
			name:    "first domain of a cyclic strand",
			domains: []Domain{NewInsertion(4), HelixDomain(0, 0, 10, true), HelixDomain(1, 0, 10, false)},
			cyclic:  true,
			want:    []InsertionPoint{{Prime5: at(1, 0, false), Prime3: at(0, 0, true)}},
		},
	}
	same := func(a, b *Nucl) bool {
		return (a == nil) == (b == nil) && (a == nil || *a == *b)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Strand{Domains: tc.domains, Cyclic: tc.cyclic}
			got := s.InsertionPoints()
			if len(got) != len(tc.want) {
				t.Fatalf("got %d points, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if !same(got[i].Prime5, tc.want[i].Prime5) || !same(got[i].Prime3, tc.want[i].Prime3) {
					t.Fatalf("point %d: got %v/%v, want %v/%v", i, got[i].Prime5, got[i].Prime3, tc.want[i].Prime5, tc.want[i].Prime3)
				}
			}
		})
	}
}
