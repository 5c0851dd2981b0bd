package ast

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// Linear is an unbranched chain of atoms. Bonds[i] joins atom i+1 to atom i+2
// (1-based); LeadingBond precedes the first atom, as in the "=O" of "C(=O)".
type Linear struct {
	atoms       []string
	bonds       []Bond
	leading     Bond
	attachments map[int][]Attachment
	rings       *roaring.Bitmap
}

// LinearConfig carries the constructor arguments of NewLinear.
type LinearConfig struct {
	Atoms       []string
	Bonds       []Bond
	LeadingBond Bond
	Attachments map[int][]Attachment
}

// NewLinear validates cfg and builds a chain.
func NewLinear(cfg LinearConfig) (*Linear, error) {
	n := len(cfg.Atoms)
	if n == 0 {
		return nil, errors.InvalidAST("linear chain needs at least one atom")
	}
	for _, a := range cfg.Atoms {
		if a == "" {
			return nil, errors.InvalidAST("empty atom in linear chain")
		}
	}
	bonds := cfg.Bonds
	switch {
	case len(bonds) == 0:
		bonds = make([]Bond, n-1)
	case len(bonds) != n-1:
		return nil, errors.Newf(errors.ErrCodeInvalidAST, "linear chain of %d atoms needs %d bonds, got %d", n, n-1, len(bonds))
	default:
		bonds = append([]Bond(nil), bonds...)
	}
	if err := checkBonds(bonds...); err != nil {
		return nil, err
	}
	if err := checkBonds(cfg.LeadingBond); err != nil {
		return nil, err
	}
	if err := checkAttachments(cfg.Attachments, n); err != nil {
		return nil, err
	}
	l := &Linear{
		atoms:       append([]string(nil), cfg.Atoms...),
		bonds:       bonds,
		leading:     cfg.LeadingBond,
		attachments: copyAttachments(cfg.Attachments),
	}
	l.rings = attachmentSet(l.attachments)
	return l, nil
}

// MustLinear is NewLinear for literal atoms joined by implicit bonds. It panics
// on invalid input and is meant for tests and package-level values.
func MustLinear(atoms ...string) *Linear {
	l, err := NewLinear(LinearConfig{Atoms: atoms})
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Linear) Kind() Kind { return KindLinear }

// Len returns the number of atoms.
func (l *Linear) Len() int { return len(l.atoms) }

// Atoms returns a copy of the atom texts.
func (l *Linear) Atoms() []string { return append([]string(nil), l.atoms...) }

// AtomAt returns the text of the 1-based atom.
func (l *Linear) AtomAt(pos int) string {
	if pos < 1 || pos > len(l.atoms) {
		return ""
	}
	return l.atoms[pos-1]
}

// Bonds returns a copy of the inter-atom bonds.
func (l *Linear) Bonds() []Bond { return append([]Bond(nil), l.bonds...) }

func (l *Linear) LeadingBond() Bond { return l.leading }

// Attachments returns the children at a 1-based position.
func (l *Linear) Attachments(pos int) []Attachment {
	return append([]Attachment(nil), l.attachments[pos]...)
}

// AttachmentPositions lists the positions carrying children, ascending.
func (l *Linear) AttachmentPositions() []int { return sortedPositions(l.attachments) }

func (l *Linear) RingNumbers() []int { return numbersOf(l.rings) }

func (l *Linear) ringSet() *roaring.Bitmap { return l.rings }

func (l *Linear) Clone() Node {
	out := &Linear{
		atoms:       append([]string(nil), l.atoms...),
		bonds:       append([]Bond(nil), l.bonds...),
		leading:     l.leading,
		attachments: cloneAttachments(l.attachments),
	}
	out.rings = attachmentSet(out.attachments)
	return out
}

func (l *Linear) renumber(mapping map[int]int) Node {
	out := &Linear{
		atoms:       l.atoms,
		bonds:       l.bonds,
		leading:     l.leading,
		attachments: renumberAttachments(l.attachments, mapping),
	}
	out.rings = attachmentSet(out.attachments)
	return out
}

func (l *Linear) config() LinearConfig {
	return LinearConfig{
		Atoms:       l.Atoms(),
		Bonds:       l.Bonds(),
		LeadingBond: l.leading,
		Attachments: copyAttachments(l.attachments),
	}
}

// WithLeadingBond returns a copy whose first atom is preceded by b.
func (l *Linear) WithLeadingBond(b Bond) (*Linear, error) {
	cfg := l.config()
	cfg.LeadingBond = b
	return NewLinear(cfg)
}

// endsInline reports whether the last atom continues through an inline child.
func (l *Linear) endsInline() bool {
	list := l.attachments[len(l.atoms)]
	return len(list) > 0 && list[len(list)-1].Inline
}

// ─────────────────────────────────────────────────────────────────────────────
// transformations
// ─────────────────────────────────────────────────────────────────────────────

// Attach hangs child off the 1-based position.
func (l *Linear) Attach(pos int, child Node, opts ...AttachOptions) (*Linear, error) {
	if pos < 1 || pos > len(l.atoms) {
		return nil, errors.InvalidPosition(pos, len(l.atoms))
	}
	if child == nil {
		return nil, errors.InvalidAST("attach requires a child")
	}
	o := mergeAttachOptions(opts)
	if o.Inline && pos != len(l.atoms) {
		return nil, errors.InvalidPosition(pos, len(l.atoms)).WithDetail("inline attachment needs the last position")
	}
	atts, err := withAttachment(l.attachments, pos, Attachment{Node: child, Inline: o.Inline})
	if err != nil {
		return nil, err
	}
	cfg := l.config()
	cfg.Attachments = atts
	return NewLinear(cfg)
}

// Branch attaches each child, in order, as a sibling branch at pos.
func (l *Linear) Branch(pos int, children ...Node) (*Linear, error) {
	out := l
	for _, c := range children {
		next, err := out.Attach(pos, c)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// BranchAt applies Branch for every position of m, ascending.
func (l *Linear) BranchAt(m map[int][]Node) (*Linear, error) {
	out := l
	for _, pos := range sortedKeys(m) {
		next, err := out.Branch(pos, m[pos]...)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

// Concat joins other after the chain. Two Linear chains merge into one.
func (l *Linear) Concat(other Node) (Node, error) {
	return Concat(l, other)
}

// Mirror builds the palindrome atoms[1..pivot] + atoms[pivot-1..1]. A pivot of
// 0 selects the last atom. Copied attachments receive fresh ring numbers.
func (l *Linear) Mirror(pivot int) (*Linear, error) {
	n := len(l.atoms)
	if pivot == 0 {
		pivot = n
	}
	if pivot < 1 || pivot > n {
		return nil, errors.InvalidPosition(pivot, n)
	}
	size := 2*pivot - 1
	atoms := make([]string, 0, size)
	atoms = append(atoms, l.atoms[:pivot]...)
	for i := pivot - 2; i >= 0; i-- {
		atoms = append(atoms, l.atoms[i])
	}
	bonds := make([]Bond, 0, size-1)
	bonds = append(bonds, l.bonds[:pivot-1]...)
	for i := pivot - 2; i >= 0; i-- {
		bonds = append(bonds, l.bonds[i])
	}

	alloc := NewRingAllocator(l)
	atts := make(map[int][]Attachment)
	for _, pos := range sortedPositions(l.attachments) {
		if pos > pivot {
			continue
		}
		list := l.attachments[pos]
		if pos != size {
			list = demoteInline(list)
		}
		atts[pos] = append([]Attachment(nil), list...)
		if pos == pivot {
			continue
		}
		mirrored, err := freshCopies(demoteInline(list), alloc)
		if err != nil {
			return nil, err
		}
		atts[2*pivot-pos] = mirrored
	}
	return NewLinear(LinearConfig{Atoms: atoms, Bonds: bonds, LeadingBond: l.leading, Attachments: atts})
}

// Repeat chains n copies; see RepeatNode.
func (l *Linear) Repeat(n, leftID, rightID int) (Node, error) {
	return RepeatNode(l, n, leftID, rightID)
}

// reversed returns the chain read from the last atom to the first, led by b.
func (l *Linear) reversed(b Bond) (*Linear, error) {
	n := len(l.atoms)
	atoms := make([]string, n)
	bonds := make([]Bond, n-1)
	for i := range l.atoms {
		atoms[i] = l.atoms[n-1-i]
	}
	for i := range l.bonds {
		bonds[i] = l.bonds[n-2-i]
	}
	atts := make(map[int][]Attachment, len(l.attachments))
	for pos, list := range l.attachments {
		np := n + 1 - pos
		if np == n {
			atts[np] = append([]Attachment(nil), list...)
		} else {
			atts[np] = demoteInline(list)
		}
	}
	return NewLinear(LinearConfig{Atoms: atoms, Bonds: bonds, LeadingBond: b, Attachments: atts})
}

// freshCopies renumbers every child of list into numbers unused by alloc.
func freshCopies(list []Attachment, alloc *RingAllocator) ([]Attachment, error) {
	out := make([]Attachment, len(list))
	for i, a := range list {
		mapping, err := freshMap(setOf(a.Node), alloc)
		if err != nil {
			return nil, err
		}
		out[i] = Attachment{Node: RenumberRings(a.Node, mapping), Inline: a.Inline}
	}
	return out, nil
}
