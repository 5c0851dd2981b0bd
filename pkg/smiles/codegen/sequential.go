package codegen

import (
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
)

// sequentialPlan rebuilds a layout as base.AddSequentialRings(specs, chain).
type sequentialPlan struct {
	base  *ast.Ring
	specs []ast.SequentialRing
	chain []ast.LayoutAtom
}

type markRef struct{ atom, mark int }

// closingMark finds the next atom after from that carries number.
func closingMark(atoms []ast.LayoutAtom, from, number int) (markRef, bool) {
	for i := from + 1; i < len(atoms); i++ {
		for j, m := range atoms[i].Rings {
			if m.Number == number {
				return markRef{i, j}, true
			}
		}
	}
	return markRef{}, false
}

// planSequential reads f as a first ring followed by rings that each open on
// an existing atom and close on the last atom they append. The plan is kept
// only if it renders exactly like f.
func planSequential(f *ast.FusedRing) (*sequentialPlan, bool) {
	atoms := f.Layout()
	if len(atoms) == 0 || len(atoms[0].Rings) == 0 {
		return nil, false
	}
	first := atoms[0].Rings[0]
	close0, ok := closingMark(atoms, 0, first.Number)
	if !ok {
		return nil, false
	}

	prefix := make([]ast.LayoutAtom, close0.atom+1)
	copy(prefix, atoms)
	for i := range prefix {
		prefix[i].Rings = nil
	}
	prefix[0].Rings = []ast.RingMark{first}
	prefix[close0.atom].Rings = []ast.RingMark{atoms[close0.atom].Rings[close0.mark]}
	base, err := ast.RingFromLayout(prefix)
	if err != nil {
		return nil, false
	}

	plan := &sequentialPlan{base: base}
	used := map[markRef]bool{{0, 0}: true, close0: true}
	cur := close0.atom + 1
	for cur < len(atoms) {
		open, ok := nextOpener(atoms, cur, used)
		if !ok {
			break
		}
		m := atoms[open.atom].Rings[open.mark]
		end, ok := closingMark(atoms, open.atom, m.Number)
		if !ok || end.atom < cur || end.mark != 0 {
			return nil, false
		}
		r, depth, ok := continuation(atoms, open.atom, cur, end.atom, m)
		if !ok {
			return nil, false
		}
		plan.specs = append(plan.specs, ast.SequentialRing{Ring: r, Depth: depth})
		used[open] = true
		used[end] = true
		cur = end.atom + 1
	}
	plan.chain = append(plan.chain, atoms[cur:]...)

	var opts []ast.SequentialOptions
	if len(plan.chain) > 0 {
		opts = append(opts, ast.SequentialOptions{ChainAtoms: plan.chain})
	}
	rebuilt, err := base.AddSequentialRings(plan.specs, opts...)
	if err != nil {
		return nil, false
	}
	want, err := ast.BuildSMILES(f)
	if err != nil {
		return nil, false
	}
	got, err := ast.BuildSMILES(rebuilt)
	if err != nil || got != want {
		return nil, false
	}
	return plan, true
}

// nextOpener returns the first unused marker before cur.
func nextOpener(atoms []ast.LayoutAtom, cur int, used map[markRef]bool) (markRef, bool) {
	for i := 0; i < cur; i++ {
		for j := range atoms[i].Rings {
			ref := markRef{i, j}
			if !used[ref] {
				return ref, true
			}
		}
	}
	return markRef{}, false
}

// continuation builds the ring opened at atom open whose new atoms are
// atoms[cur..end], all at one depth.
func continuation(atoms []ast.LayoutAtom, open, cur, end int, m ast.RingMark) (*ast.Ring, int, bool) {
	depth := atoms[cur].Depth
	last := atoms[cur-1].Depth
	if depth != last && depth != last+1 {
		return nil, 0, false
	}
	for i := cur; i <= end; i++ {
		a := atoms[i]
		if a.Depth != depth || a.Branch != (i == cur && depth > last) {
			return nil, 0, false
		}
		if i < end && len(a.Rings) > 0 {
			return nil, 0, false
		}
	}

	size := end - open + 1
	shared := cur - open
	cfg := ast.RingConfig{
		Atom:          atoms[cur].Value,
		Size:          size,
		RingNumber:    m.Number,
		Offset:        open,
		OpenBond:      m.Bond,
		Substitutions: make(map[int]string),
		Attachments:   make(map[int][]ast.Attachment),
		Bonds:         make([]ast.Bond, size),
	}
	for p := shared + 1; p <= size; p++ {
		a := atoms[cur+p-shared-1]
		cfg.Bonds[p-2] = a.Bond
		if a.Value != cfg.Atom {
			cfg.Substitutions[p] = a.Value
		}
		if len(a.Attachments) > 0 {
			cfg.Attachments[p] = append([]ast.Attachment(nil), a.Attachments...)
		}
	}
	cfg.Bonds[size-1] = atoms[end].Rings[0].Bond
	r, err := ast.NewRing(cfg)
	if err != nil {
		return nil, 0, false
	}
	return r, depth, true
}
