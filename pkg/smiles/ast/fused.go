package ast

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// FusedRing is a ring system whose rings share atoms.
//
// In array form the system is the ordered ring list: the first ring is written
// out whole and every later ring shares the aggregate atoms at its Offset and
// Offset+1, inserting its remaining atoms between them. In layout form the
// system is an explicit atom layout and Rings only describes it.
type FusedRing struct {
	rings  []*Ring
	layout []LayoutAtom
	set    *roaring.Bitmap
}

// NewFusedRing builds an array-form system.
func NewFusedRing(rings ...*Ring) (*FusedRing, error) {
	if len(rings) == 0 {
		return nil, errors.InvalidAST("fused ring needs at least one ring")
	}
	seen := make(map[int]bool, len(rings))
	for k, r := range rings {
		if r == nil {
			return nil, errors.InvalidAST("nil ring in fused system")
		}
		if r.depths != nil {
			return nil, errors.New(errors.ErrCodeUnsupportedForm, "rings of an array-form system cannot carry branch depths")
		}
		if seen[r.number] {
			return nil, errors.Newf(errors.ErrCodeInvalidRingNumber, "ring number %d used twice in one system", r.number)
		}
		seen[r.number] = true
		if k == 0 && r.offset != 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidPosition, "first ring must sit at offset 0, got %d", r.offset)
		}
		if k > 0 {
			for _, list := range r.attachments {
				for _, a := range list {
					if a.Inline {
						return nil, errors.InvalidAST("only the first ring of a system may continue inline")
					}
				}
			}
		}
	}
	if _, err := lowerArray(rings); err != nil {
		return nil, err
	}
	fr := &FusedRing{rings: append([]*Ring(nil), rings...)}
	fr.set = fr.computeSet()
	return fr, nil
}

// NewFusedRingLayout builds a layout-form system from explicit atoms.
func NewFusedRingLayout(atoms []LayoutAtom) (*FusedRing, error) {
	if err := checkLayout(atoms); err != nil {
		return nil, err
	}
	layout := copyLayout(atoms)
	fr := &FusedRing{layout: layout, rings: deriveRings(layout)}
	fr.set = fr.computeSet()
	return fr, nil
}

func (f *FusedRing) computeSet() *roaring.Bitmap {
	set := roaring.New()
	if f.layout != nil {
		for _, a := range f.layout {
			for _, m := range a.Rings {
				set.Add(uint32(m.Number))
			}
			for _, c := range a.Attachments {
				set.Or(setOf(c.Node))
			}
		}
		return set
	}
	for _, r := range f.rings {
		set.Or(setOf(r))
	}
	return set
}

func (f *FusedRing) Kind() Kind { return KindFusedRing }

// IsLayout reports whether the system is held as an explicit layout.
func (f *FusedRing) IsLayout() bool { return f.layout != nil }

// Rings returns the rings in order. For layout-form systems these are plain
// descriptors without attachments.
func (f *FusedRing) Rings() []*Ring { return append([]*Ring(nil), f.rings...) }

// Layout returns the explicit layout, or nil for an array-form system.
func (f *FusedRing) Layout() []LayoutAtom {
	if f.layout == nil {
		return nil
	}
	return copyLayout(f.layout)
}

// LeadingBond is the bond written before the first atom.
func (f *FusedRing) LeadingBond() Bond {
	if f.layout != nil {
		return f.layout[0].Bond
	}
	if len(f.rings) == 0 {
		return BondImplicit
	}
	return f.rings[0].leading
}

func (f *FusedRing) lower() ([]LayoutAtom, error) {
	if f.layout != nil {
		return copyLayout(f.layout), nil
	}
	atoms, err := lowerArray(f.rings)
	if err != nil {
		return nil, err
	}
	return copyLayout(atoms), nil
}

func (f *FusedRing) RingNumbers() []int { return numbersOf(f.set) }

func (f *FusedRing) ringSet() *roaring.Bitmap { return f.set }

func (f *FusedRing) Clone() Node {
	out := &FusedRing{}
	if f.layout != nil {
		out.layout = cloneLayout(f.layout)
		out.rings = deriveRings(out.layout)
	} else {
		out.rings = make([]*Ring, len(f.rings))
		for i, r := range f.rings {
			out.rings[i] = r.Clone().(*Ring)
		}
	}
	out.set = out.computeSet()
	return out
}

func (f *FusedRing) renumber(mapping map[int]int) Node {
	out := &FusedRing{}
	if f.layout != nil {
		out.layout = renumberLayout(f.layout, mapping)
		out.rings = deriveRings(out.layout)
	} else {
		out.rings = make([]*Ring, len(f.rings))
		for i, r := range f.rings {
			out.rings[i] = r.renumber(mapping).(*Ring)
		}
	}
	out.set = out.computeSet()
	return out
}

// WithLeadingBond returns a copy whose first atom is preceded by b.
func (f *FusedRing) WithLeadingBond(b Bond) (*FusedRing, error) {
	if f.layout != nil {
		atoms := copyLayout(f.layout)
		atoms[0].Bond = b
		return NewFusedRingLayout(atoms)
	}
	cfg := f.rings[0].Config()
	cfg.LeadingBond = b
	first, err := NewRing(cfg)
	if err != nil {
		return nil, err
	}
	rings := append([]*Ring{first}, f.rings[1:]...)
	return NewFusedRing(rings...)
}

// ─────────────────────────────────────────────────────────────────────────────
// transformations
// ─────────────────────────────────────────────────────────────────────────────

// AddRing fuses r at aggregate index offset under the lowest free number.
func (f *FusedRing) AddRing(offset int, r *Ring) (*FusedRing, error) {
	return f.AddRingWith(offset, r)
}

// AddRingWith is AddRing with explicit options.
func (f *FusedRing) AddRingWith(offset int, r *Ring, opts ...FuseOptions) (*FusedRing, error) {
	if f.layout != nil {
		return nil, errors.New(errors.ErrCodeUnsupportedForm, "add_ring needs an array-form system")
	}
	if r == nil {
		return nil, errors.InvalidAST("add_ring requires a ring")
	}
	if r.depths != nil {
		return nil, errors.New(errors.ErrCodeUnsupportedForm, "a fused ring cannot carry branch depths")
	}
	number := 0
	for _, o := range opts {
		if o.RingNumber != 0 {
			number = o.RingNumber
		}
	}
	if number == 0 {
		alloc := NewRingAllocator(f)
		alloc.used.Or(attachmentSet(r.attachments))
		n, err := alloc.Next()
		if err != nil {
			return nil, err
		}
		number = n
	}
	cfg := r.Config()
	cfg.RingNumber = number
	cfg.Offset = offset
	next, err := NewRing(cfg)
	if err != nil {
		return nil, err
	}
	return NewFusedRing(append(f.Rings(), next)...)
}

// SequentialRing continues a system with a ring that starts on an existing
// atom. Ring.Offset names the layout atom it opens on; the atoms from there to
// the end of the layout are its first positions and the rest are appended at
// Depth.
type SequentialRing struct {
	Ring  *Ring
	Depth int
}

// SequentialOptions tune AddSequentialRings.
type SequentialOptions struct {
	// ChainAtoms are appended after the rings.
	ChainAtoms []LayoutAtom
}

// AddSequentialRings appends continuation rings and chain atoms; the result is
// always layout form. Substitutions and attachments a ring declares on its
// shared positions are merged into the existing atoms' attachments only.
func (f *FusedRing) AddSequentialRings(specs []SequentialRing, opts ...SequentialOptions) (*FusedRing, error) {
	atoms, err := f.lower()
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		r := spec.Ring
		if r == nil {
			return nil, errors.InvalidAST("sequential ring is nil")
		}
		if r.depths != nil {
			return nil, errors.New(errors.ErrCodeUnsupportedForm, "a sequential ring cannot carry branch depths")
		}
		o := r.offset
		if o < 0 || o >= len(atoms) {
			return nil, errors.Newf(errors.ErrCodeInvalidPosition, "sequential ring opens at %d outside 0..%d", o, len(atoms)-1)
		}
		shared := len(atoms) - o
		if shared >= r.size {
			return nil, errors.Newf(errors.ErrCodeInvalidAST, "ring %d of size %d has no atoms left after %d shared", r.number, r.size, shared)
		}
		last := atoms[len(atoms)-1].Depth
		if spec.Depth != last && spec.Depth != last+1 {
			return nil, errors.Newf(errors.ErrCodeInvalidAST, "sequential ring depth %d does not follow %d", spec.Depth, last)
		}

		atoms[o].Rings = append(atoms[o].Rings, RingMark{Number: r.number, Bond: r.openBond})
		for p := 1; p <= shared; p++ {
			if atoms[o+p-1].Attachments, err = appendAttachments(atoms[o+p-1].Attachments, r.attachments[p]); err != nil {
				return nil, err
			}
		}
		for p := shared + 1; p <= r.size; p++ {
			atoms = append(atoms, LayoutAtom{
				Value:       r.AtomAt(p),
				Bond:        r.BondBefore(p),
				Depth:       spec.Depth,
				Branch:      p == shared+1 && spec.Depth > last,
				Attachments: append([]Attachment(nil), r.attachments[p]...),
			})
		}
		end := &atoms[len(atoms)-1]
		end.Rings = append(end.Rings, RingMark{Number: r.number, Bond: r.ClosureBond()})
	}
	for _, o := range opts {
		atoms = append(atoms, copyLayout(o.ChainAtoms)...)
	}
	return NewFusedRingLayout(atoms)
}

// Concat joins other after the system.
func (f *FusedRing) Concat(other Node) (Node, error) {
	return Concat(f, other)
}

// Repeat chains n copies; see RepeatNode.
func (f *FusedRing) Repeat(n, leftID, rightID int) (Node, error) {
	return RepeatNode(f, n, leftID, rightID)
}
