package domain

import (
	"cmp"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
)

// Collection is an ordered map shared between design snapshots. A Collection
// is never modified once published: writers obtain a private copy through
// Design's *Mut accessors, so a pointer to a Collection identifies its value.
type Collection[K cmp.Ordered, V any] struct {
	m map[K]V
}

// NewCollection wraps m. The caller must not keep using m afterwards.
func NewCollection[K cmp.Ordered, V any](m map[K]V) *Collection[K, V] {
	if m == nil {
		m = make(map[K]V)
	}
	return &Collection[K, V]{m: m}
}

// Len returns the number of entries; it is safe on a nil collection.
func (c *Collection[K, V]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.m)
}

// Get returns the value stored at k.
func (c *Collection[K, V]) Get(k K) (V, bool) {
	if c == nil {
		var zero V
		return zero, false
	}
	v, ok := c.m[k]
	return v, ok
}

// Has reports whether k is present.
func (c *Collection[K, V]) Has(k K) bool {
	_, ok := c.Get(k)
	return ok
}

// Keys returns the keys in ascending order.
func (c *Collection[K, V]) Keys() []K {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.m))
}

// All iterates entries in key order.
func (c *Collection[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range c.Keys() {
			if !yield(k, c.m[k]) {
				return
			}
		}
	}
}

// MaxKey returns the largest key.
func (c *Collection[K, V]) MaxKey() (K, bool) {
	var top K
	if c.Len() == 0 {
		return top, false
	}
	first := true
	for k := range c.m {
		if first || k > top {
			top = k
			first = false
		}
	}
	return top, true
}

// clone returns a private copy of the outer container; values are shared.
func (c *Collection[K, V]) clone() *Collection[K, V] {
	if c == nil {
		return NewCollection[K, V](nil)
	}
	return &Collection[K, V]{m: maps.Clone(c.m)}
}

func (c *Collection[K, V]) set(k K, v V) { c.m[k] = v }

func (c *Collection[K, V]) delete(k K) { delete(c.m, k) }

// MarshalJSON encodes the collection as a JSON object keyed by the decimal or
// string form of the keys, in key order.
func (c *Collection[K, V]) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	buf := []byte{'{'}
	for i, k := range c.Keys() {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(fmt.Sprint(k))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.m[k])
		if err != nil {
			return nil, fmt.Errorf("encode entry %v: %w", k, err)
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

// UnmarshalJSON decodes the object form written by MarshalJSON.
func (c *Collection[K, V]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m := make(map[K]V, len(raw))
	for key, payload := range raw {
		k, err := parseKey[K](key)
		if err != nil {
			return err
		}
		var v V
		if err := json.Unmarshal(payload, &v); err != nil {
			return fmt.Errorf("decode entry %s: %w", key, err)
		}
		m[k] = v
	}
	c.m = m
	return nil
}

func parseKey[K cmp.Ordered](s string) (K, error) {
	var k K
	switch p := any(&k).(type) {
	case *string:
		*p = s
		return k, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return k, fmt.Errorf("invalid key %q: %w", s, err)
	}
	switch p := any(&k).(type) {
	case *int:
		*p = int(n)
	case *HelixID:
		*p = HelixID(n)
	case *StrandID:
		*p = StrandID(n)
	case *BezierPathID:
		*p = BezierPathID(n)
	case *BezierPlaneID:
		*p = BezierPlaneID(n)
	case *FreeGridID:
		*p = FreeGridID(n)
	case *XoverID:
		*p = XoverID(n)
	default:
		return k, fmt.Errorf("unsupported key type %T", k)
	}
	return k, nil
}

// HelixMap holds the helices of a design.
type HelixMap = Collection[HelixID, *Helix]

// StrandMap holds the strands of a design.
type StrandMap = Collection[StrandID, *Strand]

// GridMap holds the free grids of a design.
type GridMap = Collection[FreeGridID, GridDescriptor]

// BezierPlaneMap holds the Bezier planes of a design.
type BezierPlaneMap = Collection[BezierPlaneID, BezierPlane]

// BezierPathMap holds the Bezier paths of a design.
type BezierPathMap = Collection[BezierPathID, *BezierPath]

// HelixSet is a set of helices shared between snapshots.
type HelixSet = Collection[HelixID, bool]

// NewHelixMap wraps m in a HelixMap.
func NewHelixMap(m map[HelixID]*Helix) *HelixMap { return NewCollection(m) }

// NewStrandMap wraps m in a StrandMap.
func NewStrandMap(m map[StrandID]*Strand) *StrandMap { return NewCollection(m) }
