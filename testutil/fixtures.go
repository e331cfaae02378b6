package testutil

import (
	"origamicore/pkg/domain"
)

// SquareDesign returns a design with one square grid carrying a helix on each
// of the given vertices, in order.
func SquareDesign(vertices ...[2]int) (*domain.Design, []domain.HelixID) {
	return gridDesign(domain.Square{}, vertices)
}

// HoneycombDesign is SquareDesign on a honeycomb grid.
func HoneycombDesign(vertices ...[2]int) (*domain.Design, []domain.HelixID) {
	return gridDesign(domain.Honeycomb{}, vertices)
}

func gridDesign(kind domain.GridType, vertices [][2]int) (*domain.Design, []domain.HelixID) {
	d := domain.NewDesign()
	gid := d.AddGrid(domain.GridDescriptor{Orientation: domain.IdentityRotor(), Type: kind.Descriptor()})
	g := domain.NewGrid(domain.Vec3{}, domain.IdentityRotor(), d.Parameters, kind)
	ids := make([]domain.HelixID, 0, len(vertices))
	for _, v := range vertices {
		ids = append(ids, d.AddHelix(domain.NewOnGrid(g, v[0], v[1], domain.FreeGrid(gid))))
	}
	return d, ids
}

// Strand returns a sanitised strand made of domains.
func Strand(color uint32, domains ...domain.Domain) *domain.Strand {
	s := &domain.Strand{Domains: domains, Color: color}
	s.Sanitize()
	return s
}

// DuplexDesign returns a square design with a row of n helices, each paired
// by a forward and a backward strand covering [0, length).
func DuplexDesign(n, length int) *domain.Design {
	vertices := make([][2]int, n)
	for i := range vertices {
		vertices[i] = [2]int{0, i}
	}
	d, ids := SquareDesign(vertices...)
	for _, h := range ids {
		d.AddStrand(Strand(0xFF0000FF, domain.HelixDomain(h, 0, length, true)))
		d.AddStrand(Strand(0xFF00FF00, domain.HelixDomain(h, 0, length, false)))
	}
	return d
}

// Nucl is a shorthand nucleotide constructor.
func Nucl(h domain.HelixID, pos int, forward bool) domain.Nucl {
	return domain.Nucl{Helix: h, Position: pos, Forward: forward}
}
