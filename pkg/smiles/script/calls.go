package script

import (
	"fmt"
	"sort"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
)

// ─────────────────────────────────────────────────────────────────────────────
// constructors
// ─────────────────────────────────────────────────────────────────────────────

type constructor func(a args) (value, error)

var constructors map[string]constructor

func init() {
	constructors = map[string]constructor{
		"Linear":    newLinear,
		"Ring":      newRing,
		"FusedRing": newFused,
		"Molecule":  newMolecule,
	}
}

// Constructors lists the callable constructor names.
func Constructors() []string {
	out := make([]string, 0, len(constructors))
	for name := range constructors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func construct(name string, vals []value, at int) (value, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, errors.NewAt(errors.ErrCodeScriptCall, at, fmt.Sprintf("unknown constructor %s", name))
	}
	return fn(args{name: name, vals: vals, offset: at})
}

// Linear(atoms[, bonds][, {leading_bond}])
func newLinear(a args) (value, error) {
	if err := a.arity(1, 3); err != nil {
		return nil, err
	}
	l, err := a.list(0)
	if err != nil {
		return nil, err
	}
	atoms, err := stringList("Linear atoms", l, a.offset)
	if err != nil {
		return nil, err
	}
	cfg := ast.LinearConfig{Atoms: atoms}
	rest := a.vals[1:]
	if len(rest) > 0 {
		if bl, ok := rest[0].([]value); ok {
			if cfg.Bonds, err = bonds("Linear bonds", bl, a.offset); err != nil {
				return nil, err
			}
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		opts, ok := rest[0].(*object)
		if !ok || len(rest) > 1 {
			return nil, a.typeErr(len(a.vals)-len(rest), "object")
		}
		f := field{owner: "Linear", obj: opts, at: a.offset}
		if err := f.only("leading_bond"); err != nil {
			return nil, err
		}
		if cfg.LeadingBond, err = f.bond("leading_bond"); err != nil {
			return nil, err
		}
	}
	out, err := ast.NewLinear(cfg)
	if err != nil {
		return nil, callFailed(a.name, a.offset, err)
	}
	return out, nil
}

var ringOptions = []string{
	"atom", "atoms", "size", "ring_number", "offset", "substitutions",
	"bonds", "open_bond", "leading_bond", "branch_depths",
}

// Ring(atom, size[, {options}]) or Ring({atom, size, options...})
func newRing(a args) (value, error) {
	if err := a.arity(1, 3); err != nil {
		return nil, err
	}
	var cfg ast.RingConfig
	var opts *object
	if o, ok := a.vals[0].(*object); ok {
		if len(a.vals) > 1 {
			return nil, errors.NewAt(errors.ErrCodeScriptType, a.offset, "Ring with an option object takes no other arguments")
		}
		f := field{owner: "Ring", obj: o, at: a.offset}
		var err error
		key := "atom"
		if _, ok := o.get("atoms"); ok {
			key = "atoms"
		}
		if cfg.Atom, err = f.str(key, true); err != nil {
			return nil, err
		}
		if cfg.Size, err = f.int("size", true); err != nil {
			return nil, err
		}
		opts = o
	} else {
		if err := a.arity(2, 3); err != nil {
			return nil, err
		}
		var err error
		if cfg.Atom, err = a.str(0); err != nil {
			return nil, err
		}
		if cfg.Size, err = a.int(1); err != nil {
			return nil, err
		}
		if a.has(2) {
			if opts, err = a.obj(2); err != nil {
				return nil, err
			}
			if _, dup := opts.get("atom"); dup {
				return nil, errors.NewAt(errors.ErrCodeScriptType, opts.pos["atom"], "Ring atom given twice")
			}
			if _, dup := opts.get("size"); dup {
				return nil, errors.NewAt(errors.ErrCodeScriptType, opts.pos["size"], "Ring size given twice")
			}
		}
	}
	if opts != nil {
		if err := ringConfig(&cfg, field{owner: "Ring", obj: opts, at: a.offset}); err != nil {
			return nil, err
		}
	}
	r, err := ast.NewRing(cfg)
	if err != nil {
		return nil, callFailed(a.name, a.offset, err)
	}
	return r, nil
}

func ringConfig(cfg *ast.RingConfig, f field) error {
	if err := f.only(ringOptions...); err != nil {
		return err
	}
	var err error
	if cfg.RingNumber, err = f.int("ring_number", false); err != nil {
		return err
	}
	if cfg.Offset, err = f.int("offset", false); err != nil {
		return err
	}
	if cfg.OpenBond, err = f.bond("open_bond"); err != nil {
		return err
	}
	if cfg.LeadingBond, err = f.bond("leading_bond"); err != nil {
		return err
	}
	if l, err := f.list("bonds"); err != nil {
		return err
	} else if l != nil {
		if cfg.Bonds, err = bonds("Ring bonds", l, f.obj.pos["bonds"]); err != nil {
			return err
		}
	}
	if l, err := f.list("branch_depths"); err != nil {
		return err
	} else if l != nil {
		if cfg.BranchDepths, err = ints("Ring branch_depths", l, f.obj.pos["branch_depths"]); err != nil {
			return err
		}
	}
	subs, err := f.object("substitutions")
	if err != nil {
		return err
	}
	if subs != nil {
		if cfg.Substitutions, err = substitutionMap("Ring substitutions", subs); err != nil {
			return err
		}
	}
	return nil
}

func substitutionMap(owner string, o *object) (map[int]string, error) {
	out := make(map[int]string, len(o.keys))
	for _, k := range o.keys {
		pos, err := positionKey(owner, k, o.pos[k])
		if err != nil {
			return nil, err
		}
		s, ok := o.vals[k].(string)
		if !ok {
			return nil, errors.NewAt(errors.ErrCodeScriptType, o.pos[k],
				fmt.Sprintf("%s %s must be a string, got %s", owner, k, typeName(o.vals[k])))
		}
		out[pos] = s
	}
	return out, nil
}

// FusedRing([rings]) or FusedRing({metadata: {atoms: [...]}})
func newFused(a args) (value, error) {
	if err := a.arity(1, 1); err != nil {
		return nil, err
	}
	switch v := a.vals[0].(type) {
	case []value:
		rings := make([]*ast.Ring, len(v))
		for i, el := range v {
			r, ok := el.(*ast.Ring)
			if !ok {
				return nil, errors.NewAt(errors.ErrCodeScriptType, a.offset,
					fmt.Sprintf("FusedRing element %d must be a ring, got %s", i+1, typeName(el)))
			}
			rings[i] = r
		}
		fr, err := ast.NewFusedRing(rings...)
		if err != nil {
			return nil, callFailed(a.name, a.offset, err)
		}
		return fr, nil
	case *object:
		f := field{owner: "FusedRing", obj: v, at: a.offset}
		if err := f.only("metadata"); err != nil {
			return nil, err
		}
		meta, err := f.object("metadata")
		if err != nil {
			return nil, err
		}
		if meta == nil {
			return nil, errors.NewAt(errors.ErrCodeScriptType, a.offset, "FusedRing needs metadata")
		}
		atoms, err := metadataAtoms(field{owner: "metadata", obj: meta, at: v.pos["metadata"]})
		if err != nil {
			return nil, err
		}
		fr, err := ast.NewFusedRingLayout(atoms)
		if err != nil {
			return nil, callFailed(a.name, a.offset, err)
		}
		return fr, nil
	}
	return nil, a.typeErr(0, "list or object")
}

// metadataAtoms reads {atoms: [...]} ordered by position. A rings entry is
// accepted and ignored since the layout determines the rings.
func metadataAtoms(f field) ([]ast.LayoutAtom, error) {
	if err := f.only("atoms", "rings"); err != nil {
		return nil, err
	}
	l, err := f.list("atoms")
	if err != nil {
		return nil, err
	}
	if len(l) == 0 {
		return nil, errors.NewAt(errors.ErrCodeScriptType, f.at, "metadata needs atoms")
	}
	type placed struct {
		pos  int
		atom ast.LayoutAtom
	}
	at := f.obj.pos["atoms"]
	list := make([]placed, len(l))
	for i, el := range l {
		o, ok := el.(*object)
		if !ok {
			return nil, errors.NewAt(errors.ErrCodeScriptType, at,
				fmt.Sprintf("metadata atom %d must be an object, got %s", i+1, typeName(el)))
		}
		pos, atom, err := layoutAtom(o, at, true)
		if err != nil {
			return nil, err
		}
		list[i] = placed{pos: pos, atom: atom}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].pos < list[j].pos })
	atoms := make([]ast.LayoutAtom, len(list))
	for i, p := range list {
		if p.pos != i+1 {
			return nil, errors.NewAt(errors.ErrCodeScriptType, at,
				fmt.Sprintf("metadata positions must run 1..%d, found %d", len(list), p.pos))
		}
		atoms[i] = p.atom
	}
	return atoms, nil
}

// layoutAtom reads {position?, depth, value, bond?, branch?, rings?, attachments?}.
func layoutAtom(o *object, at int, positioned bool) (int, ast.LayoutAtom, error) {
	var out ast.LayoutAtom
	f := field{owner: "layout atom", obj: o, at: at}
	allowed := []string{"depth", "value", "bond", "branch", "rings", "attachments"}
	if positioned {
		allowed = append(allowed, "position")
	}
	if err := f.only(allowed...); err != nil {
		return 0, out, err
	}
	pos := 0
	var err error
	if positioned {
		if pos, err = f.int("position", true); err != nil {
			return 0, out, err
		}
	}
	if out.Value, err = f.str("value", true); err != nil {
		return 0, out, err
	}
	if out.Depth, err = f.int("depth", false); err != nil {
		return 0, out, err
	}
	if out.Bond, err = f.bond("bond"); err != nil {
		return 0, out, err
	}
	if out.Branch, err = f.bool("branch"); err != nil {
		return 0, out, err
	}
	marks, err := f.list("rings")
	if err != nil {
		return 0, out, err
	}
	for _, m := range marks {
		switch mv := m.(type) {
		case int:
			out.Rings = append(out.Rings, ast.RingMark{Number: mv})
		case *object:
			mf := field{owner: "ring mark", obj: mv, at: at}
			if err := mf.only("number", "bond"); err != nil {
				return 0, out, err
			}
			var mark ast.RingMark
			if mark.Number, err = mf.int("number", true); err != nil {
				return 0, out, err
			}
			if mark.Bond, err = mf.bond("bond"); err != nil {
				return 0, out, err
			}
			out.Rings = append(out.Rings, mark)
		default:
			return 0, out, errors.NewAt(errors.ErrCodeScriptType, at,
				fmt.Sprintf("ring mark must be an integer or object, got %s", typeName(m)))
		}
	}
	atts, err := f.list("attachments")
	if err != nil {
		return 0, out, err
	}
	for _, av := range atts {
		att, err := attachment(av, at)
		if err != nil {
			return 0, out, err
		}
		out.Attachments = append(out.Attachments, att)
	}
	return pos, out, nil
}

func attachment(v value, at int) (ast.Attachment, error) {
	switch x := v.(type) {
	case ast.Node:
		return ast.Attachment{Node: x}, nil
	case *object:
		f := field{owner: "attachment", obj: x, at: at}
		if err := f.only("node", "inline"); err != nil {
			return ast.Attachment{}, err
		}
		n, err := f.node("node")
		if err != nil {
			return ast.Attachment{}, err
		}
		inline, err := f.bool("inline")
		if err != nil {
			return ast.Attachment{}, err
		}
		return ast.Attachment{Node: n, Inline: inline}, nil
	}
	return ast.Attachment{}, errors.NewAt(errors.ErrCodeScriptType, at,
		fmt.Sprintf("attachment must be a structure or object, got %s", typeName(v)))
}

// Molecule([nodes])
func newMolecule(a args) (value, error) {
	if err := a.arity(1, 1); err != nil {
		return nil, err
	}
	l, err := a.list(0)
	if err != nil {
		return nil, err
	}
	comps, err := nodes("Molecule", l, a.offset)
	if err != nil {
		return nil, err
	}
	m, err := ast.NewMolecule(comps...)
	if err != nil {
		return nil, callFailed(a.name, a.offset, err)
	}
	return m, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// methods
// ─────────────────────────────────────────────────────────────────────────────

type method func(recv ast.Node, a args) (ast.Node, error)

var methods map[string]method

func init() {
	methods = map[string]method{
		"attach":               mAttach,
		"branch":               mBranch,
		"branch_at":            mBranchAt,
		"substitute":           mSubstitute,
		"substitute_multiple":  mSubstituteMultiple,
		"fuse":                 mFuse,
		"add_ring":             mAddRing,
		"add_sequential_rings": mAddSequential,
		"concat":               mConcat,
		"mirror":               mMirror,
		"repeat":               mRepeat,
		"fused_repeat":         mFusedRepeat,
		"clone":                mClone,
		"with_ring_number":     mWithRingNumber,
		"with_offset":          mWithOffset,
		"with_leading_bond":    mWithLeadingBond,
	}
}

// Methods lists the callable method names.
func Methods() []string {
	out := make([]string, 0, len(methods))
	for name := range methods {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func invoke(recv ast.Node, name string, vals []value, at int) (value, error) {
	fn, ok := methods[name]
	if !ok {
		return nil, errors.NewAt(errors.ErrCodeScriptCall, at, fmt.Sprintf("unknown method %s", name))
	}
	out, err := fn(recv, args{name: name, vals: vals, offset: at})
	if err != nil {
		if code := errors.GetCode(err); code == errors.ErrCodeScriptType || code == errors.ErrCodeScriptCall {
			return nil, err
		}
		return nil, callFailed(name, at, err)
	}
	return out, nil
}

func noMethod(recv ast.Node, a args) error {
	return errors.NewAt(errors.ErrCodeScriptCall, a.offset, fmt.Sprintf("%s has no method %s", recv.Kind(), a.name))
}

// attach(pos, child[, {inline}])
func mAttach(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(2, 3); err != nil {
		return nil, err
	}
	pos, err := a.int(0)
	if err != nil {
		return nil, err
	}
	child, err := a.node(1)
	if err != nil {
		return nil, err
	}
	var opts ast.AttachOptions
	if a.has(2) {
		o, err := a.obj(2)
		if err != nil {
			return nil, err
		}
		f := field{owner: "attach", obj: o, at: a.offset}
		if err := f.only("inline"); err != nil {
			return nil, err
		}
		if opts.Inline, err = f.bool("inline"); err != nil {
			return nil, err
		}
	}
	switch v := recv.(type) {
	case *ast.Linear:
		return v.Attach(pos, child, opts)
	case *ast.Ring:
		return v.Attach(pos, child, opts)
	}
	return nil, noMethod(recv, a)
}

// branch(pos, children...)
func mBranch(recv ast.Node, a args) (ast.Node, error) {
	if len(a.vals) < 2 {
		return nil, a.arity(2, 2)
	}
	pos, err := a.int(0)
	if err != nil {
		return nil, err
	}
	children, err := nodes("branch", a.vals[1:], a.offset)
	if err != nil {
		return nil, err
	}
	l, ok := recv.(*ast.Linear)
	if !ok {
		return nil, noMethod(recv, a)
	}
	return l.Branch(pos, children...)
}

// branch_at({pos: [children]})
func mBranchAt(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(1, 1); err != nil {
		return nil, err
	}
	o, err := a.obj(0)
	if err != nil {
		return nil, err
	}
	m := make(map[int][]ast.Node, len(o.keys))
	for _, k := range o.keys {
		pos, err := positionKey("branch_at", k, o.pos[k])
		if err != nil {
			return nil, err
		}
		l, ok := o.vals[k].([]value)
		if !ok {
			return nil, errors.NewAt(errors.ErrCodeScriptType, o.pos[k], fmt.Sprintf("branch_at %s must be a list", k))
		}
		if m[pos], err = nodes("branch_at", l, o.pos[k]); err != nil {
			return nil, err
		}
	}
	l, ok := recv.(*ast.Linear)
	if !ok {
		return nil, noMethod(recv, a)
	}
	return l.BranchAt(m)
}

// substitute(pos, atom)
func mSubstitute(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(2, 2); err != nil {
		return nil, err
	}
	pos, err := a.int(0)
	if err != nil {
		return nil, err
	}
	atom, err := a.str(1)
	if err != nil {
		return nil, err
	}
	r, ok := recv.(*ast.Ring)
	if !ok {
		return nil, noMethod(recv, a)
	}
	return r.Substitute(pos, atom)
}

// substitute_multiple({pos: atom})
func mSubstituteMultiple(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(1, 1); err != nil {
		return nil, err
	}
	o, err := a.obj(0)
	if err != nil {
		return nil, err
	}
	m, err := substitutionMap("substitute_multiple", o)
	if err != nil {
		return nil, err
	}
	r, ok := recv.(*ast.Ring)
	if !ok {
		return nil, noMethod(recv, a)
	}
	return r.SubstituteMultiple(m)
}

func fuseOptions(a args, i int) ([]ast.FuseOptions, error) {
	if !a.has(i) {
		return nil, nil
	}
	o, err := a.obj(i)
	if err != nil {
		return nil, err
	}
	f := field{owner: a.name, obj: o, at: a.offset}
	if err := f.only("ring_number"); err != nil {
		return nil, err
	}
	n, err := f.int("ring_number", false)
	if err != nil {
		return nil, err
	}
	return []ast.FuseOptions{{RingNumber: n}}, nil
}

// fuse(offset, ring[, {ring_number}])
func mFuse(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(2, 3); err != nil {
		return nil, err
	}
	offset, err := a.int(0)
	if err != nil {
		return nil, err
	}
	other, err := a.ring(1)
	if err != nil {
		return nil, err
	}
	opts, err := fuseOptions(a, 2)
	if err != nil {
		return nil, err
	}
	r, ok := recv.(*ast.Ring)
	if !ok {
		return nil, noMethod(recv, a)
	}
	return r.Fuse(offset, other, opts...)
}

// add_ring(offset, ring[, {ring_number}])
func mAddRing(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(2, 3); err != nil {
		return nil, err
	}
	offset, err := a.int(0)
	if err != nil {
		return nil, err
	}
	other, err := a.ring(1)
	if err != nil {
		return nil, err
	}
	opts, err := fuseOptions(a, 2)
	if err != nil {
		return nil, err
	}
	switch v := recv.(type) {
	case *ast.FusedRing:
		return v.AddRingWith(offset, other, opts...)
	case *ast.Ring:
		return v.Fuse(offset, other, opts...)
	}
	return nil, noMethod(recv, a)
}

// add_sequential_rings([{ring, depth}][, {chain_atoms: [...]}])
func mAddSequential(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(1, 2); err != nil {
		return nil, err
	}
	l, err := a.list(0)
	if err != nil {
		return nil, err
	}
	specs := make([]ast.SequentialRing, len(l))
	for i, el := range l {
		o, ok := el.(*object)
		if !ok {
			return nil, errors.NewAt(errors.ErrCodeScriptType, a.offset,
				fmt.Sprintf("sequential ring %d must be an object, got %s", i+1, typeName(el)))
		}
		f := field{owner: "sequential ring", obj: o, at: a.offset}
		if err := f.only("ring", "depth"); err != nil {
			return nil, err
		}
		n, err := f.node("ring")
		if err != nil {
			return nil, err
		}
		r, ok := n.(*ast.Ring)
		if !ok {
			return nil, f.err("ring", "ring", n)
		}
		depth, err := f.int("depth", false)
		if err != nil {
			return nil, err
		}
		specs[i] = ast.SequentialRing{Ring: r, Depth: depth}
	}
	var opts []ast.SequentialOptions
	if a.has(1) {
		o, err := a.obj(1)
		if err != nil {
			return nil, err
		}
		f := field{owner: a.name, obj: o, at: a.offset}
		if err := f.only("chain_atoms"); err != nil {
			return nil, err
		}
		chain, err := f.list("chain_atoms")
		if err != nil {
			return nil, err
		}
		var atoms []ast.LayoutAtom
		for i, el := range chain {
			co, ok := el.(*object)
			if !ok {
				return nil, errors.NewAt(errors.ErrCodeScriptType, a.offset,
					fmt.Sprintf("chain atom %d must be an object, got %s", i+1, typeName(el)))
			}
			_, atom, err := layoutAtom(co, a.offset, false)
			if err != nil {
				return nil, err
			}
			atoms = append(atoms, atom)
		}
		opts = append(opts, ast.SequentialOptions{ChainAtoms: atoms})
	}
	switch v := recv.(type) {
	case *ast.Ring:
		return v.AddSequentialRings(specs, opts...)
	case *ast.FusedRing:
		return v.AddSequentialRings(specs, opts...)
	}
	return nil, noMethod(recv, a)
}

// concat(other)
func mConcat(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(1, 1); err != nil {
		return nil, err
	}
	other, err := a.node(0)
	if err != nil {
		return nil, err
	}
	return ast.Concat(recv, other)
}

// mirror([pivot])
func mMirror(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(0, 1); err != nil {
		return nil, err
	}
	pivot := 0
	if a.has(0) {
		var err error
		if pivot, err = a.int(0); err != nil {
			return nil, err
		}
	}
	switch v := recv.(type) {
	case *ast.Linear:
		return v.Mirror(pivot)
	case *ast.Ring:
		return v.Mirror(pivot)
	case *ast.Molecule:
		return v.Mirror(pivot)
	}
	return nil, noMethod(recv, a)
}

// repeat(n[, left, right])
func mRepeat(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(1, 3); err != nil {
		return nil, err
	}
	n, err := a.int(0)
	if err != nil {
		return nil, err
	}
	left, right := 0, 0
	if a.has(1) {
		if left, err = a.int(1); err != nil {
			return nil, err
		}
	}
	if a.has(2) {
		if right, err = a.int(2); err != nil {
			return nil, err
		}
	}
	return ast.RepeatNode(recv, n, left, right)
}

// fused_repeat(n, offset)
func mFusedRepeat(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(2, 2); err != nil {
		return nil, err
	}
	n, err := a.int(0)
	if err != nil {
		return nil, err
	}
	offset, err := a.int(1)
	if err != nil {
		return nil, err
	}
	r, ok := recv.(*ast.Ring)
	if !ok {
		return nil, noMethod(recv, a)
	}
	return r.FusedRepeat(n, offset)
}

func mClone(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(0, 0); err != nil {
		return nil, err
	}
	return recv.Clone(), nil
}

func mWithRingNumber(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(1, 1); err != nil {
		return nil, err
	}
	n, err := a.int(0)
	if err != nil {
		return nil, err
	}
	r, ok := recv.(*ast.Ring)
	if !ok {
		return nil, noMethod(recv, a)
	}
	return r.WithRingNumber(n)
}

func mWithOffset(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(1, 1); err != nil {
		return nil, err
	}
	n, err := a.int(0)
	if err != nil {
		return nil, err
	}
	r, ok := recv.(*ast.Ring)
	if !ok {
		return nil, noMethod(recv, a)
	}
	return r.WithOffset(n)
}

func mWithLeadingBond(recv ast.Node, a args) (ast.Node, error) {
	if err := a.arity(1, 1); err != nil {
		return nil, err
	}
	b, err := a.str(0)
	if err != nil {
		return nil, err
	}
	return ast.WithLeadingBond(recv, ast.Bond(b))
}
