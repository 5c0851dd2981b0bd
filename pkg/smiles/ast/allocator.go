package ast

import (
	"strconv"

	"github.com/RoaringBitmap/roaring"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// MaxRingNumber is the largest ring label SMILES can spell (%99).
const MaxRingNumber = 99

// FormatRingNumber renders a ring label: a bare digit below 10, %nn otherwise.
func FormatRingNumber(n int) (string, error) {
	switch {
	case n >= 0 && n <= 9:
		return strconv.Itoa(n), nil
	case n >= 10 && n <= MaxRingNumber:
		return "%" + strconv.Itoa(n), nil
	}
	return "", errors.TooManyRings().WithDetail("number=" + strconv.Itoa(n))
}

// RingAllocator hands out the lowest ring number not yet in use.
type RingAllocator struct {
	used *roaring.Bitmap
}

// NewRingAllocator reserves every ring number already used by nodes.
func NewRingAllocator(nodes ...Node) *RingAllocator {
	a := &RingAllocator{used: roaring.New()}
	for _, n := range nodes {
		if n != nil {
			a.used.Or(setOf(n))
		}
	}
	return a
}

// Reserve marks numbers as taken.
func (a *RingAllocator) Reserve(numbers ...int) {
	for _, n := range numbers {
		if n >= 0 {
			a.used.Add(uint32(n))
		}
	}
}

// InUse reports whether n has been handed out or reserved.
func (a *RingAllocator) InUse(n int) bool {
	return n >= 0 && a.used.Contains(uint32(n))
}

// Next reserves and returns the lowest free number in 1..99.
func (a *RingAllocator) Next() (int, error) {
	for n := 1; n <= MaxRingNumber; n++ {
		if !a.used.Contains(uint32(n)) {
			a.used.Add(uint32(n))
			return n, nil
		}
	}
	return 0, errors.TooManyRings()
}

// NextRingNumber returns the lowest ring number unused by all of nodes.
func NextRingNumber(nodes ...Node) (int, error) {
	return NewRingAllocator(nodes...).Next()
}

// collisionMap returns a renumbering for every number of other that is also
// used by taken. Replacement numbers avoid both sets.
func collisionMap(taken, other *roaring.Bitmap) (map[int]int, error) {
	clash := roaring.And(taken, other)
	if clash.IsEmpty() {
		return nil, nil
	}
	alloc := &RingAllocator{used: roaring.Or(taken, other)}
	mapping := make(map[int]int, clash.GetCardinality())
	for _, n := range clash.ToArray() {
		next, err := alloc.Next()
		if err != nil {
			return nil, err
		}
		mapping[int(n)] = next
	}
	return mapping, nil
}

// freshMap renumbers every number in set into numbers unused by alloc.
func freshMap(set *roaring.Bitmap, alloc *RingAllocator) (map[int]int, error) {
	if set.IsEmpty() {
		return nil, nil
	}
	mapping := make(map[int]int, set.GetCardinality())
	for _, n := range set.ToArray() {
		next, err := alloc.Next()
		if err != nil {
			return nil, err
		}
		mapping[int(n)] = next
	}
	return mapping, nil
}

// RenumberRings returns a copy of n whose ring numbers are rewritten through
// mapping. Numbers absent from mapping are kept.
func RenumberRings(n Node, mapping map[int]int) Node {
	if n == nil || len(mapping) == 0 {
		return n
	}
	return n.renumber(mapping)
}

func remap(mapping map[int]int, n int) int {
	if m, ok := mapping[n]; ok {
		return m
	}
	return n
}
