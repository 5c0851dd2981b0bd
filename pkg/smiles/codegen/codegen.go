// Package codegen decompiles a structure into the build-script calls that
// rebuild it, and into equivalent Go source against package ast.
package codegen

import (
	"fmt"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
	"github.com/turtacn/smiles-algebra/pkg/smiles/script"
)

// DefaultPrefix names bindings v1, v2, ...
const DefaultPrefix = "v"

// ToCode returns the build script for n, one binding per line. Executing the
// script yields a structure that renders to the same SMILES as n.
func ToCode(n ast.Node, prefix string) (string, error) {
	prog, err := Program(n, prefix)
	if err != nil {
		return "", err
	}
	return script.Format(prog), nil
}

// Program returns the build script for n as a syntax tree. Bindings appear
// bottom-up so every reference names an earlier statement; the last one is n.
func Program(n ast.Node, prefix string) (*script.Program, error) {
	if n == nil {
		return nil, errors.InvalidAST("nothing to decompile")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !validPrefix(prefix) {
		return nil, errors.InvalidParam(fmt.Sprintf("binding prefix %q is not an identifier", prefix))
	}
	g := &gen{prefix: prefix}
	if _, err := g.node(n); err != nil {
		return nil, err
	}
	return &script.Program{Statements: g.stmts}, nil
}

func validPrefix(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		alpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if !alpha && (i == 0 || !digit) {
			return false
		}
	}
	return true
}

type gen struct {
	prefix string
	count  int
	stmts  []script.Assign
}

func (g *gen) bind(e script.Expr) string {
	g.count++
	name := fmt.Sprintf("%s%d", g.prefix, g.count)
	g.stmts = append(g.stmts, script.Assign{Name: name, Value: e})
	return name
}

func (g *gen) node(n ast.Node) (string, error) {
	switch v := n.(type) {
	case *ast.Linear:
		return g.linear(v)
	case *ast.Ring:
		return g.ring(v)
	case *ast.FusedRing:
		if v.IsLayout() {
			return g.layout(v)
		}
		return g.fused(v)
	case *ast.Molecule:
		comps := v.Components()
		if len(comps) == 0 {
			return "", errors.InvalidAST("zero-value molecule")
		}
		refs := make([]script.Expr, len(comps))
		for i, c := range comps {
			name, err := g.node(c)
			if err != nil {
				return "", err
			}
			refs[i] = script.R(name)
		}
		return g.bind(call("Molecule", script.List(refs...))), nil
	}
	return "", errors.InvalidAST(fmt.Sprintf("cannot decompile %T", n))
}

func call(fn string, args ...script.Expr) *script.Call {
	return &script.Call{Func: fn, Args: args}
}

func entry(key string, v script.Expr) script.Entry {
	return script.Entry{Key: key, Value: v}
}

func strList(ss []string) *script.ListExpr {
	out := make([]script.Expr, len(ss))
	for i, s := range ss {
		out[i] = script.Str(s)
	}
	return script.List(out...)
}

func bondList(bonds []ast.Bond) *script.ListExpr {
	out := make([]script.Expr, len(bonds))
	for i, b := range bonds {
		out[i] = script.Str(string(b))
	}
	return script.List(out...)
}

func implicit(bonds []ast.Bond) bool {
	for _, b := range bonds {
		if b != ast.BondImplicit {
			return false
		}
	}
	return true
}

// attachments binds every child and returns the attach calls applied to base.
func (g *gen) attachments(base script.Expr, positions []int, at func(int) []ast.Attachment) (script.Expr, error) {
	type pending struct {
		pos    int
		name   string
		inline bool
	}
	var list []pending
	for _, pos := range positions {
		for _, a := range at(pos) {
			name, err := g.node(a.Node)
			if err != nil {
				return nil, err
			}
			list = append(list, pending{pos: pos, name: name, inline: a.Inline})
		}
	}
	out := base
	for _, p := range list {
		args := []script.Expr{script.Int(p.pos), script.R(p.name)}
		if p.inline {
			args = append(args, script.Obj(entry("inline", script.Bool(true))))
		}
		out = &script.MethodCall{Recv: out, Method: "attach", Args: args}
	}
	return out, nil
}

func (g *gen) linear(l *ast.Linear) (string, error) {
	if l.Len() == 0 {
		return "", errors.InvalidAST("zero-value linear chain")
	}
	args := []script.Expr{strList(l.Atoms())}
	if bonds := l.Bonds(); !implicit(bonds) {
		args = append(args, bondList(bonds))
	}
	if b := l.LeadingBond(); b != ast.BondImplicit {
		args = append(args, script.Obj(entry("leading_bond", script.Str(string(b)))))
	}
	expr, err := g.attachments(call("Linear", args...), l.AttachmentPositions(), l.Attachments)
	if err != nil {
		return "", err
	}
	return g.bind(expr), nil
}

// ringCall writes Ring(atom, size[, {options}]) with the non-default options.
func ringCall(r *ast.Ring) *script.Call {
	args := []script.Expr{script.Str(r.Atom()), script.Int(r.Size())}
	var opts []script.Entry
	if r.RingNumber() != 1 {
		opts = append(opts, entry("ring_number", script.Int(r.RingNumber())))
	}
	if r.Offset() != 0 {
		opts = append(opts, entry("offset", script.Int(r.Offset())))
	}
	if subs := r.Substitutions(); len(subs) > 0 {
		var es []script.Entry
		for pos := 1; pos <= r.Size(); pos++ {
			if s, ok := subs[pos]; ok {
				es = append(es, entry(fmt.Sprint(pos), script.Str(s)))
			}
		}
		opts = append(opts, entry("substitutions", script.Obj(es...)))
	}
	if bonds := r.Bonds(); len(bonds) > 0 {
		opts = append(opts, entry("bonds", bondList(bonds)))
	}
	if b := r.OpenBond(); b != ast.BondImplicit {
		opts = append(opts, entry("open_bond", script.Str(string(b))))
	}
	if b := r.LeadingBond(); b != ast.BondImplicit {
		opts = append(opts, entry("leading_bond", script.Str(string(b))))
	}
	if depths := r.BranchDepths(); len(depths) > 0 {
		es := make([]script.Expr, len(depths))
		for i, d := range depths {
			es[i] = script.Int(d)
		}
		opts = append(opts, entry("branch_depths", script.List(es...)))
	}
	if len(opts) > 0 {
		args = append(args, script.Obj(opts...))
	}
	return call("Ring", args...)
}

func (g *gen) ring(r *ast.Ring) (string, error) {
	if r.Size() == 0 {
		return "", errors.InvalidAST("zero-value ring")
	}
	expr, err := g.attachments(ringCall(r), r.AttachmentPositions(), r.Attachments)
	if err != nil {
		return "", err
	}
	return g.bind(expr), nil
}

func (g *gen) fused(f *ast.FusedRing) (string, error) {
	rings := f.Rings()
	if len(rings) == 0 {
		return "", errors.InvalidAST("zero-value fused ring")
	}
	refs := make([]script.Expr, len(rings))
	for i, r := range rings {
		name, err := g.ring(r)
		if err != nil {
			return "", err
		}
		refs[i] = script.R(name)
	}
	return g.bind(call("FusedRing", script.List(refs...))), nil
}

// layout writes a layout-form system as a sequential build when one rebuilds
// it, and as explicit metadata otherwise.
func (g *gen) layout(f *ast.FusedRing) (string, error) {
	atoms := f.Layout()
	if len(atoms) == 0 {
		return "", errors.InvalidAST("zero-value fused ring")
	}
	if plan, ok := planSequential(f); ok {
		return g.sequential(plan)
	}
	list := make([]script.Expr, len(atoms))
	for i, a := range atoms {
		obj, err := g.layoutAtom(a, i+1)
		if err != nil {
			return "", err
		}
		list[i] = obj
	}
	meta := script.Obj(entry("atoms", script.List(list...)))
	return g.bind(call("FusedRing", script.Obj(entry("metadata", meta)))), nil
}

func (g *gen) sequential(p *sequentialPlan) (string, error) {
	base, err := g.ring(p.base)
	if err != nil {
		return "", err
	}
	specs := make([]script.Expr, len(p.specs))
	for i, s := range p.specs {
		name, err := g.ring(s.Ring)
		if err != nil {
			return "", err
		}
		specs[i] = script.Obj(entry("ring", script.R(name)), entry("depth", script.Int(s.Depth)))
	}
	args := []script.Expr{script.List(specs...)}
	if len(p.chain) > 0 {
		chain := make([]script.Expr, len(p.chain))
		for i, a := range p.chain {
			obj, err := g.layoutAtom(a, 0)
			if err != nil {
				return "", err
			}
			chain[i] = obj
		}
		args = append(args, script.Obj(entry("chain_atoms", script.List(chain...))))
	}
	return g.bind(&script.MethodCall{Recv: script.R(base), Method: "add_sequential_rings", Args: args}), nil
}

// layoutAtom writes {position, depth, value, bond?, branch?, rings?,
// attachments?}; position is left out when zero.
func (g *gen) layoutAtom(a ast.LayoutAtom, position int) (*script.ObjectExpr, error) {
	var es []script.Entry
	if position > 0 {
		es = append(es, entry("position", script.Int(position)))
	}
	es = append(es, entry("depth", script.Int(a.Depth)), entry("value", script.Str(a.Value)))
	if a.Bond != ast.BondImplicit {
		es = append(es, entry("bond", script.Str(string(a.Bond))))
	}
	if a.Branch {
		es = append(es, entry("branch", script.Bool(true)))
	}
	if len(a.Rings) > 0 {
		marks := make([]script.Expr, len(a.Rings))
		for i, m := range a.Rings {
			if m.Bond == ast.BondImplicit {
				marks[i] = script.Int(m.Number)
				continue
			}
			marks[i] = script.Obj(entry("number", script.Int(m.Number)), entry("bond", script.Str(string(m.Bond))))
		}
		es = append(es, entry("rings", script.List(marks...)))
	}
	if len(a.Attachments) > 0 {
		atts := make([]script.Expr, len(a.Attachments))
		for i, att := range a.Attachments {
			name, err := g.node(att.Node)
			if err != nil {
				return nil, err
			}
			if att.Inline {
				atts[i] = script.Obj(entry("node", script.R(name)), entry("inline", script.Bool(true)))
				continue
			}
			atts[i] = script.R(name)
		}
		es = append(es, entry("attachments", script.List(atts...)))
	}
	return script.Obj(es...), nil
}
