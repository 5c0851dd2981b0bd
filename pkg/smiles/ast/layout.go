package ast

import (
	"fmt"
	"sort"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// RingMark is a ring-closure marker written after an atom.
type RingMark struct {
	Number int
	Bond   Bond
}

// LayoutAtom is one atom of a written-out ring system.
//
// Depth is the parenthesis depth relative to the system's first atom. Branch
// marks the first atom of a new parenthesised branch; an atom at a lower depth
// without Branch continues the enclosing chain. Attachments are written in
// parentheses after the ring marks, except a trailing Inline one on the last
// atom.
type LayoutAtom struct {
	Value       string
	Bond        Bond
	Depth       int
	Branch      bool
	Rings       []RingMark
	Attachments []Attachment
}

func copyLayout(atoms []LayoutAtom) []LayoutAtom {
	out := make([]LayoutAtom, len(atoms))
	for i, a := range atoms {
		out[i] = a
		out[i].Rings = append([]RingMark(nil), a.Rings...)
		out[i].Attachments = append([]Attachment(nil), a.Attachments...)
	}
	return out
}

func cloneLayout(atoms []LayoutAtom) []LayoutAtom {
	out := copyLayout(atoms)
	for i := range out {
		out[i].Attachments = cloneAttachmentList(atoms[i].Attachments)
	}
	return out
}

func renumberLayout(atoms []LayoutAtom, mapping map[int]int) []LayoutAtom {
	out := copyLayout(atoms)
	for i := range out {
		for j := range out[i].Rings {
			out[i].Rings[j].Number = remap(mapping, out[i].Rings[j].Number)
		}
		out[i].Attachments = renumberAttachmentList(atoms[i].Attachments, mapping)
	}
	return out
}

// checkLayout enforces the depth discipline and ring pairing of a layout.
func checkLayout(atoms []LayoutAtom) error {
	if len(atoms) == 0 {
		return errors.InvalidAST("layout needs at least one atom")
	}
	open := make(map[int]int)
	prev := 0
	for i, a := range atoms {
		if a.Value == "" {
			return errors.Newf(errors.ErrCodeInvalidAST, "layout atom %d has no value", i+1)
		}
		if err := checkBonds(a.Bond); err != nil {
			return err
		}
		switch {
		case i == 0:
			if a.Depth != 0 || a.Branch {
				return errors.InvalidAST("layout must start at depth 0 outside a branch")
			}
		case a.Branch:
			if a.Depth < 1 || a.Depth > prev+1 {
				return errors.Newf(errors.ErrCodeInvalidAST, "branch at layout atom %d jumps from depth %d to %d", i+1, prev, a.Depth)
			}
		default:
			if a.Depth < 0 || a.Depth > prev {
				return errors.Newf(errors.ErrCodeInvalidAST, "layout atom %d enters depth %d without opening a branch", i+1, a.Depth)
			}
		}
		for _, m := range a.Rings {
			if m.Number < 0 || m.Number > MaxRingNumber {
				return errors.Newf(errors.ErrCodeInvalidRingNumber, "ring number %d outside 0..%d", m.Number, MaxRingNumber)
			}
			if err := checkBonds(m.Bond); err != nil {
				return err
			}
			if at, ok := open[m.Number]; ok {
				if at == i {
					return errors.Newf(errors.ErrCodeInvalidAST, "ring %d closes on the atom that opened it", m.Number)
				}
				delete(open, m.Number)
				continue
			}
			open[m.Number] = i
		}
		if err := checkAttachmentList(a.Attachments, i == len(atoms)-1); err != nil {
			return err
		}
		prev = a.Depth
	}
	for n := range open {
		return errors.Newf(errors.ErrCodeInvalidAST, "ring %d is never closed", n)
	}
	return nil
}

// ringSpan is a paired opening and closing marker in a layout.
type ringSpan struct {
	number    int
	open      int
	close     int
	openBond  Bond
	closeBond Bond
}

// spansOf pairs the markers of a checked layout, in opening order.
func spansOf(atoms []LayoutAtom) []ringSpan {
	var spans []ringSpan
	open := make(map[int]int)
	for i, a := range atoms {
		for _, m := range a.Rings {
			if idx, ok := open[m.Number]; ok {
				spans[idx].close = i
				spans[idx].closeBond = m.Bond
				delete(open, m.Number)
				continue
			}
			open[m.Number] = len(spans)
			spans = append(spans, ringSpan{number: m.Number, open: i, close: -1, openBond: m.Bond})
		}
	}
	return spans
}

// nestedOrder sorts spans by opening index, outer spans first on ties.
func nestedOrder(spans []ringSpan) []ringSpan {
	out := append([]ringSpan(nil), spans...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].open != out[j].open {
			return out[i].open < out[j].open
		}
		return out[i].close > out[j].close
	})
	return out
}

// ringPath lists the layout indices that are positions of spans[k]: the span
// minus the interior atoms of every span nested inside it.
func ringPath(spans []ringSpan, k int) []int {
	s := spans[k]
	var out []int
	for e := s.open; e <= s.close; e++ {
		inside := false
		for j, t := range spans {
			if j == k || (t.open == s.open && t.close == s.close) {
				continue
			}
			if s.open <= t.open && t.close <= s.close && t.open < e && e < t.close {
				inside = true
				break
			}
		}
		if !inside {
			out = append(out, e)
		}
	}
	return out
}

// deriveRings describes the rings of a layout. Spans that do not form a valid
// ring on their own are skipped.
func deriveRings(atoms []LayoutAtom) []*Ring {
	spans := nestedOrder(spansOf(atoms))
	out := make([]*Ring, 0, len(spans))
	for k, s := range spans {
		path := ringPath(spans, k)
		base := atoms[s.open].Value
		subs := make(map[int]string)
		for p, e := range path {
			if atoms[e].Value != base {
				subs[p+1] = atoms[e].Value
			}
		}
		r, err := NewRing(RingConfig{Atom: base, Size: len(path), RingNumber: s.number, Offset: s.open, Substitutions: subs})
		if err != nil || s.number == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// lowering
// ─────────────────────────────────────────────────────────────────────────────

func lowerLinear(l *Linear) ([]LayoutAtom, error) {
	if len(l.atoms) == 0 || len(l.bonds) != len(l.atoms)-1 {
		return nil, errors.InvalidAST("zero-value linear chain")
	}
	out := make([]LayoutAtom, len(l.atoms))
	for i, a := range l.atoms {
		b := l.leading
		if i > 0 {
			b = l.bonds[i-1]
		}
		out[i] = LayoutAtom{Value: a, Bond: b, Attachments: l.attachments[i+1]}
	}
	return out, nil
}

func lowerRing(r *Ring) ([]LayoutAtom, error) {
	if r.size < 3 || r.atom == "" {
		return nil, errors.InvalidAST("zero-value ring")
	}
	out := make([]LayoutAtom, r.size)
	for p := 1; p <= r.size; p++ {
		b := r.leading
		if p > 1 {
			b = r.BondBefore(p)
		}
		d := r.depthAt(p)
		out[p-1] = LayoutAtom{
			Value:       r.AtomAt(p),
			Bond:        b,
			Depth:       d,
			Branch:      p > 1 && d > r.depthAt(p-1),
			Attachments: r.attachments[p],
		}
	}
	out[0].Rings = []RingMark{{Number: r.number, Bond: r.openBond}}
	out[r.size-1].Rings = []RingMark{{Number: r.number, Bond: r.ClosureBond()}}
	return out, nil
}

type slot struct {
	atom        LayoutAtom
	substituted bool
}

// lowerArray writes out an array-form system: every ring after the first
// shares the aggregate atoms at its offset and offset+1 and inserts its other
// atoms between them.
func lowerArray(rings []*Ring) ([]LayoutAtom, error) {
	if len(rings) == 0 {
		return nil, errors.InvalidAST("fused ring without rings")
	}
	first, err := lowerRing(rings[0])
	if err != nil {
		return nil, err
	}
	agg := make([]slot, len(first))
	for i, a := range first {
		_, sub := rings[0].subs[i+1]
		agg[i] = slot{atom: a, substituted: sub}
		agg[i].atom.Attachments = append([]Attachment(nil), a.Attachments...)
	}
	for k := 1; k < len(rings); k++ {
		r := rings[k]
		if r == nil || r.size < 3 {
			return nil, errors.InvalidAST("zero-value ring in fused system")
		}
		o := r.offset
		if o < 0 || o+1 >= len(agg) {
			return nil, errors.Newf(errors.ErrCodeInvalidPosition, "ring %d fuses at offset %d outside 0..%d", r.number, o, len(agg)-2)
		}
		opener, closer := &agg[o], &agg[o+1]
		opener.atom.Rings = append(append([]RingMark(nil), opener.atom.Rings...), RingMark{Number: r.number, Bond: r.openBond})
		shareText(opener, r, 1)
		if opener.atom.Attachments, err = appendAttachments(opener.atom.Attachments, r.attachments[1]); err != nil {
			return nil, err
		}
		closer.atom.Rings = append(append([]RingMark(nil), closer.atom.Rings...), RingMark{Number: r.number, Bond: r.ClosureBond()})
		closer.atom.Bond = r.BondBefore(r.size)
		shareText(closer, r, r.size)
		if closer.atom.Attachments, err = appendAttachments(closer.atom.Attachments, r.attachments[r.size]); err != nil {
			return nil, err
		}

		inserted := make([]slot, 0, r.size-2)
		for p := 2; p < r.size; p++ {
			_, sub := r.subs[p]
			inserted = append(inserted, slot{
				atom: LayoutAtom{
					Value:       r.AtomAt(p),
					Bond:        r.BondBefore(p),
					Attachments: append([]Attachment(nil), r.attachments[p]...),
				},
				substituted: sub,
			})
		}
		next := make([]slot, 0, len(agg)+len(inserted))
		next = append(next, agg[:o+1]...)
		next = append(next, inserted...)
		next = append(next, agg[o+1:]...)
		agg = next
	}
	out := make([]LayoutAtom, len(agg))
	for i, s := range agg {
		out[i] = s.atom
	}
	return out, nil
}

// shareText lets a later ring's substitution show on a shared atom that the
// owning ring leaves at its base element.
func shareText(s *slot, r *Ring, pos int) {
	if s.substituted {
		return
	}
	if sub, ok := r.subs[pos]; ok {
		s.atom.Value = sub
		s.substituted = true
	}
}

// Layout writes any Linear, Ring or FusedRing out atom by atom.
func Layout(n Node) ([]LayoutAtom, error) {
	switch v := n.(type) {
	case *Linear:
		if v == nil {
			break
		}
		atoms, err := lowerLinear(v)
		if err != nil {
			return nil, err
		}
		return copyLayout(atoms), nil
	case *Ring:
		if v == nil {
			break
		}
		atoms, err := lowerRing(v)
		if err != nil {
			return nil, err
		}
		return copyLayout(atoms), nil
	case *FusedRing:
		if v == nil {
			break
		}
		return v.lower()
	case *Molecule:
		return nil, errors.New(errors.ErrCodeUnsupportedForm, "a molecule has no single layout")
	}
	return nil, errors.InvalidAST("nil node")
}

// ─────────────────────────────────────────────────────────────────────────────
// recovering typed nodes from a layout
// ─────────────────────────────────────────────────────────────────────────────

func unsupported(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeUnsupportedForm, fmt.Sprintf(format, args...))
}

// RingFromLayout reads a layout as a single Ring: one ring opened on the first
// atom, optional branch depths along the ring, and an optional inline
// continuation after the closing atom.
func RingFromLayout(atoms []LayoutAtom) (*Ring, error) {
	if err := checkLayout(atoms); err != nil {
		return nil, err
	}
	spans := spansOf(atoms)
	if len(spans) != 1 {
		return nil, unsupported("layout holds %d rings", len(spans))
	}
	s := spans[0]
	if s.open != 0 || s.number == 0 {
		return nil, unsupported("ring does not open on the first atom")
	}
	size := s.close + 1
	if size < 3 {
		return nil, unsupported("ring of %d atoms", size)
	}

	cfg := RingConfig{
		Atom:          atoms[0].Value,
		Size:          size,
		RingNumber:    s.number,
		Substitutions: make(map[int]string),
		Attachments:   make(map[int][]Attachment),
		Bonds:         make([]Bond, size),
		OpenBond:      s.openBond,
		LeadingBond:   atoms[0].Bond,
		BranchDepths:  make([]int, size),
	}
	for i := 0; i < size; i++ {
		a := atoms[i]
		if i > 0 {
			step := a.Depth - atoms[i-1].Depth
			if step < 0 || step > 1 || a.Branch != (step == 1) {
				return nil, unsupported("ring path leaves its branch at atom %d", i+1)
			}
			cfg.Bonds[i-1] = a.Bond
		}
		cfg.BranchDepths[i] = a.Depth
		if a.Value != cfg.Atom {
			cfg.Substitutions[i+1] = a.Value
		}
		if len(a.Attachments) > 0 {
			cfg.Attachments[i+1] = append([]Attachment(nil), a.Attachments...)
		}
	}
	cfg.Bonds[size-1] = s.closeBond

	if trailing := atoms[size:]; len(trailing) > 0 {
		depth := atoms[size-1].Depth
		lc := LinearConfig{LeadingBond: trailing[0].Bond, Attachments: make(map[int][]Attachment)}
		for i, t := range trailing {
			if t.Depth != depth || t.Branch || len(t.Rings) > 0 {
				return nil, unsupported("atoms after the ring closure leave its chain")
			}
			lc.Atoms = append(lc.Atoms, t.Value)
			if i > 0 {
				lc.Bonds = append(lc.Bonds, t.Bond)
			}
			if len(t.Attachments) > 0 {
				lc.Attachments[i+1] = t.Attachments
			}
		}
		tail, err := NewLinear(lc)
		if err != nil {
			return nil, err
		}
		list, err := appendAttachment(cfg.Attachments[size], Attachment{Node: tail, Inline: true})
		if err != nil {
			return nil, err
		}
		cfg.Attachments[size] = list
	}
	return NewRing(cfg)
}

// ArrayFromLayout reads a flat layout as an array-form FusedRing. Rings are
// taken in opening order, outer rings first. Each atom's attachments go to the
// ring that inserted it.
func ArrayFromLayout(atoms []LayoutAtom) (*FusedRing, error) {
	if err := checkLayout(atoms); err != nil {
		return nil, err
	}
	for i, a := range atoms {
		if a.Depth != 0 || a.Branch {
			return nil, unsupported("layout atom %d sits in a branch", i+1)
		}
	}
	spans := nestedOrder(spansOf(atoms))
	if len(spans) == 0 {
		return nil, unsupported("layout has no ring")
	}
	if spans[0].open != 0 || spans[0].close != len(atoms)-1 {
		return nil, unsupported("first ring does not enclose the system")
	}

	paths := make([][]int, len(spans))
	owner := make([]int, len(atoms))
	ownerPos := make([]int, len(atoms))
	for i := range owner {
		owner[i] = -1
	}
	for k, s := range spans {
		if s.number == 0 {
			return nil, unsupported("ring number 0")
		}
		paths[k] = ringPath(spans, k)
		if len(paths[k]) < 3 {
			return nil, unsupported("ring %d has %d atoms", s.number, len(paths[k]))
		}
		for p, e := range paths[k] {
			if k == 0 || (p > 0 && p < len(paths[k])-1) {
				owner[e] = k
				ownerPos[e] = p + 1
			}
		}
	}

	for e, own := range owner {
		if own < 0 {
			return nil, unsupported("layout atom %d belongs to no ring", e+1)
		}
	}

	rings := make([]*Ring, len(spans))
	for k, s := range spans {
		path := paths[k]
		size := len(path)
		cfg := RingConfig{
			Atom:          atoms[s.open].Value,
			Size:          size,
			RingNumber:    s.number,
			Offset:        s.open,
			Substitutions: make(map[int]string),
			Attachments:   make(map[int][]Attachment),
			Bonds:         make([]Bond, size),
			OpenBond:      s.openBond,
		}
		if k == 0 {
			cfg.Offset = 0
			cfg.LeadingBond = atoms[0].Bond
		}
		for p, e := range path {
			if atoms[e].Value != cfg.Atom {
				cfg.Substitutions[p+1] = atoms[e].Value
			}
			if p > 0 && path[p-1] == e-1 {
				cfg.Bonds[p-1] = atoms[e].Bond
			}
		}
		cfg.Bonds[size-1] = s.closeBond
		for e, own := range owner {
			if own == k && len(atoms[e].Attachments) > 0 {
				cfg.Attachments[ownerPos[e]] = append([]Attachment(nil), atoms[e].Attachments...)
			}
		}
		r, err := NewRing(cfg)
		if err != nil {
			return nil, err
		}
		rings[k] = r
	}
	return NewFusedRing(rings...)
}

// FromLayout returns the most specific node that writes exactly like atoms: a
// Ring, an array-form FusedRing, or the layout itself as a layout-form
// FusedRing.
func FromLayout(atoms []LayoutAtom) (Node, error) {
	exact, err := NewFusedRingLayout(atoms)
	if err != nil {
		return nil, err
	}
	want, err := BuildSMILES(exact)
	if err != nil {
		return nil, err
	}
	if r, err := RingFromLayout(atoms); err == nil {
		if got, err := BuildSMILES(r); err == nil && got == want {
			return r, nil
		}
	}
	if fr, err := ArrayFromLayout(atoms); err == nil {
		if got, err := BuildSMILES(fr); err == nil && got == want {
			return fr, nil
		}
	}
	return exact, nil
}
