package ast

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// Molecule is an ordered sequence of components written back to back. Each
// component bonds to the last atom of the previous one through its leading bond.
type Molecule struct {
	components []Node
	set        *roaring.Bitmap
}

// NewMolecule builds a molecule from at least one component.
func NewMolecule(components ...Node) (*Molecule, error) {
	if len(components) == 0 {
		return nil, errors.InvalidAST("molecule needs at least one component")
	}
	set := roaring.New()
	for _, c := range components {
		if c == nil {
			return nil, errors.InvalidAST("nil molecule component")
		}
		set.Or(setOf(c))
	}
	return &Molecule{components: append([]Node(nil), components...), set: set}, nil
}

func (m *Molecule) Kind() Kind { return KindMolecule }

// Components returns the components in order.
func (m *Molecule) Components() []Node { return append([]Node(nil), m.components...) }

func (m *Molecule) RingNumbers() []int { return numbersOf(m.set) }

func (m *Molecule) ringSet() *roaring.Bitmap { return m.set }

func (m *Molecule) Clone() Node {
	comps := make([]Node, len(m.components))
	for i, c := range m.components {
		comps[i] = c.Clone()
	}
	out, _ := NewMolecule(comps...)
	return out
}

func (m *Molecule) renumber(mapping map[int]int) Node {
	comps := make([]Node, len(m.components))
	for i, c := range m.components {
		comps[i] = c.renumber(mapping)
	}
	out, _ := NewMolecule(comps...)
	return out
}

// Concat appends other; a Molecule operand contributes its components.
func (m *Molecule) Concat(other Node) (Node, error) {
	return Concat(m, other)
}

// Mirror appends reflected copies of the components before pivot (0 selects
// the last component) in reverse order. Linear components are read backwards;
// every copy receives fresh ring numbers.
func (m *Molecule) Mirror(pivot int) (*Molecule, error) {
	n := len(m.components)
	if pivot == 0 {
		pivot = n
	}
	if pivot < 1 || pivot > n {
		return nil, errors.InvalidPosition(pivot, n)
	}
	out := append([]Node(nil), m.components[:pivot]...)
	alloc := NewRingAllocator(m)
	for k := pivot - 2; k >= 0; k-- {
		lead := LeadingBondOf(m.components[k+1])
		var (
			mirrored Node
			err      error
		)
		if l, ok := m.components[k].(*Linear); ok {
			mirrored, err = l.reversed(lead)
		} else {
			mirrored, err = WithLeadingBond(m.components[k], lead)
		}
		if err != nil {
			return nil, err
		}
		mapping, err := freshMap(setOf(mirrored), alloc)
		if err != nil {
			return nil, err
		}
		out = append(out, RenumberRings(mirrored, mapping))
	}
	return NewMolecule(out...)
}

// Repeat chains n copies; see RepeatNode.
func (m *Molecule) Repeat(n, leftID, rightID int) (Node, error) {
	return RepeatNode(m, n, leftID, rightID)
}
