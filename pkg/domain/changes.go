package domain

import "strconv"

// Diff lists the helices, strands, grids and Bezier elements that differ
// between two snapshots. Elements are compared by pointer when the snapshots
// share a collection, so the cost follows the size of the edit.
func Diff(before, after *Design) []Change {
	if before == nil {
		before = NewDesign()
	}
	var changes []Change
	if before.Helices != after.Helices {
		changes = appendDiff(changes, EntityHelix, before.Helices, after.Helices, func(a, b *Helix) bool { return a == b })
	}
	if before.Strands != after.Strands {
		changes = appendDiff(changes, EntityStrand, before.Strands, after.Strands, func(a, b *Strand) bool { return a == b })
	}
	if before.Grids != after.Grids {
		changes = appendDiff(changes, EntityGrid, before.Grids, after.Grids, func(a, b GridDescriptor) bool {
			return a.Position == b.Position && a.Orientation == b.Orientation && a.Invisible == b.Invisible && sameGridType(a.Type, b.Type)
		})
	}
	if before.BezierPlanes != after.BezierPlanes {
		changes = appendDiff(changes, EntityBezierPlane, before.BezierPlanes, after.BezierPlanes, func(a, b BezierPlane) bool { return a == b })
	}
	if before.BezierPaths != after.BezierPaths {
		changes = appendDiff(changes, EntityBezierPath, before.BezierPaths, after.BezierPaths, func(a, b *BezierPath) bool { return a == b })
	}
	if designAttributesChanged(before, after) {
		changes = append(changes, Change{Entity: EntityDesign, Action: ActionUpdate})
	}
	return changes
}

func sameGridType(a, b GridTypeDescr) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Hyperboloid == nil || b.Hyperboloid == nil {
		return a.Hyperboloid == b.Hyperboloid
	}
	x, y := *a.Hyperboloid, *b.Hyperboloid
	if (x.ForcedRadius == nil) != (y.ForcedRadius == nil) || (x.ForcedRadius != nil && *x.ForcedRadius != *y.ForcedRadius) {
		return false
	}
	x.ForcedRadius, y.ForcedRadius = nil, nil
	return x == y
}

func designAttributesChanged(a, b *Design) bool {
	return a.Name != b.Name ||
		a.Parameters != b.Parameters ||
		!sameStrandRef(a.Scaffold, b.Scaffold) ||
		a.ScaffoldSequence != b.ScaffoldSequence ||
		a.ScaffoldShift != b.ScaffoldShift ||
		a.NoPhantoms != b.NoPhantoms ||
		a.SmallSpheres != b.SmallSpheres ||
		a.Groups != b.Groups ||
		a.Anchors != b.Anchors
}

func sameStrandRef(a, b *StrandID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type integerKey interface {
	~int
}

func appendDiff[K integerKey, V any](changes []Change, entity EntityType, before, after *Collection[K, V], same func(a, b V) bool) []Change {
	for k, old := range before.All() {
		cur, ok := after.Get(k)
		switch {
		case !ok:
			changes = append(changes, Change{Entity: entity, Action: ActionDelete, EntityID: strconv.Itoa(int(k)), Before: old})
		case !same(old, cur):
			changes = append(changes, Change{Entity: entity, Action: ActionUpdate, EntityID: strconv.Itoa(int(k)), Before: old, After: cur})
		}
	}
	for k, cur := range after.All() {
		if !before.Has(k) {
			changes = append(changes, Change{Entity: entity, Action: ActionCreate, EntityID: strconv.Itoa(int(k)), After: cur})
		}
	}
	return changes
}
