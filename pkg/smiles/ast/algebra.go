package ast

import (
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// Concat writes b after a. Ring numbers of b that a already uses are moved to
// the lowest numbers free in both. Two Linear chains merge into one unless a
// ends in an inline continuation; everything else becomes a Molecule.
func Concat(a, b Node) (Node, error) {
	if a == nil || b == nil {
		return nil, errors.InvalidAST("concat requires two nodes")
	}
	mapping, err := collisionMap(setOf(a), setOf(b))
	if err != nil {
		return nil, err
	}
	b = RenumberRings(b, mapping)

	if la, ok := a.(*Linear); ok {
		if lb, ok := b.(*Linear); ok && !la.endsInline() {
			return mergeLinear(la, lb)
		}
	}
	var comps []Node
	if m, ok := a.(*Molecule); ok {
		comps = m.Components()
	} else {
		comps = []Node{a}
	}
	if m, ok := b.(*Molecule); ok {
		comps = append(comps, m.components...)
	} else {
		comps = append(comps, b)
	}
	return NewMolecule(comps...)
}

func mergeLinear(a, b *Linear) (*Linear, error) {
	n := len(a.atoms)
	atts := copyAttachments(a.attachments)
	if atts == nil {
		atts = make(map[int][]Attachment, len(b.attachments))
	}
	for pos, list := range b.attachments {
		atts[pos+n] = append([]Attachment(nil), list...)
	}
	bonds := append(append(a.Bonds(), b.leading), b.bonds...)
	return NewLinear(LinearConfig{
		Atoms:       append(a.Atoms(), b.atoms...),
		Bonds:       bonds,
		LeadingBond: a.leading,
		Attachments: atts,
	})
}

// RepeatNode chains n copies of unit. Copy k+1 bonds to copy k at 1-based
// position rightID (0 or the last position continues the chain, any other
// position opens a branch) through its first atom, so leftID must be 0 or 1.
// Ring numbers of copy k are shifted by k times the largest number in unit.
func RepeatNode(unit Node, n, leftID, rightID int) (Node, error) {
	if unit == nil {
		return nil, errors.InvalidAST("repeat requires a node")
	}
	if n < 1 {
		return nil, errors.Newf(errors.CodeInvalidParam, "repeat count %d below 1", n)
	}
	if leftID != 0 && leftID != 1 {
		return nil, errors.InvalidPosition(leftID, 1).WithDetail("copies bond through their first atom")
	}
	size := 0
	switch v := unit.(type) {
	case *Linear:
		size = v.Len()
	case *Ring:
		size = v.Size()
	}
	if rightID < 0 || rightID > size {
		return nil, errors.InvalidPosition(rightID, size)
	}

	numbers := unit.RingNumbers()
	step := 0
	if len(numbers) > 0 {
		step = numbers[len(numbers)-1]
	}
	copies := make([]Node, n)
	for k := 0; k < n; k++ {
		mapping := make(map[int]int, len(numbers))
		for _, num := range numbers {
			shifted := num + k*step
			if shifted > MaxRingNumber {
				return nil, errors.TooManyRings()
			}
			mapping[num] = shifted
		}
		copies[k] = RenumberRings(unit, mapping)
	}

	if rightID == 0 || rightID == size {
		acc := copies[0]
		for _, c := range copies[1:] {
			next, err := Concat(acc, c)
			if err != nil {
				return nil, err
			}
			acc = next
		}
		return acc, nil
	}
	acc := copies[n-1]
	for k := n - 2; k >= 0; k-- {
		var err error
		switch v := copies[k].(type) {
		case *Linear:
			acc, err = v.Attach(rightID, acc)
		case *Ring:
			acc, err = v.Attach(rightID, acc)
		}
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// LeadingBondOf returns the bond written before the first atom of n.
func LeadingBondOf(n Node) Bond {
	switch v := n.(type) {
	case *Linear:
		return v.leading
	case *Ring:
		return v.leading
	case *FusedRing:
		return v.LeadingBond()
	case *Molecule:
		if len(v.components) > 0 {
			return LeadingBondOf(v.components[0])
		}
	}
	return BondImplicit
}

// WithLeadingBond returns a copy of n whose first atom is preceded by b.
func WithLeadingBond(n Node, b Bond) (Node, error) {
	switch v := n.(type) {
	case *Linear:
		return v.WithLeadingBond(b)
	case *Ring:
		cfg := v.Config()
		cfg.LeadingBond = b
		return NewRing(cfg)
	case *FusedRing:
		return v.WithLeadingBond(b)
	case *Molecule:
		comps := v.Components()
		first, err := WithLeadingBond(comps[0], b)
		if err != nil {
			return nil, err
		}
		comps[0] = first
		return NewMolecule(comps...)
	}
	return nil, errors.InvalidAST("nil node")
}
