package codegen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/gofumpt/format"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
	"github.com/turtacn/smiles-algebra/pkg/smiles/script"
)

const astImport = "github.com/turtacn/smiles-algebra/pkg/smiles/ast"

// GoOptions tune GoSource.
type GoOptions struct {
	// Package is the package clause of the file; "structures" by default.
	Package string
	// Func names the generated constructor; "Build" by default.
	Func string
}

// GoSource returns a gofumpt-formatted Go file whose function rebuilds n
// through package ast, statement for statement with ToCode.
func GoSource(n ast.Node, prefix string, opts ...GoOptions) (string, error) {
	o := GoOptions{Package: "structures", Func: "Build"}
	for _, opt := range opts {
		if opt.Package != "" {
			o.Package = opt.Package
		}
		if opt.Func != "" {
			o.Func = opt.Func
		}
	}
	if !validPrefix(o.Package) || !validPrefix(o.Func) {
		return "", errors.InvalidParam(fmt.Sprintf("invalid Go names %q/%q", o.Package, o.Func))
	}
	smiles, err := ast.BuildSMILES(n)
	if err != nil {
		return "", err
	}
	prog, err := Program(n, prefix)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by smiles code; DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\nimport %q\n\n", o.Package, astImport)
	fmt.Fprintf(&buf, "// %s rebuilds %s.\n", o.Func, smiles)
	fmt.Fprintf(&buf, "func %s() (ast.Node, error) {\n", o.Func)
	for _, st := range prog.Statements {
		if err := writeStatement(&buf, st); err != nil {
			return "", err
		}
	}
	last := prog.Statements[len(prog.Statements)-1].Name
	fmt.Fprintf(&buf, "return %s, nil\n}\n", last)

	out, err := format.Source(buf.Bytes(), format.Options{})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "generated Go does not parse")
	}
	return string(out), nil
}

const checkErr = "if err != nil {\nreturn nil, err\n}\n"

// writeStatement expands one binding into a declaration and one assignment
// per chained method.
func writeStatement(buf *bytes.Buffer, st script.Assign) error {
	var chain []*script.MethodCall
	root := st.Value
	for {
		mc, ok := root.(*script.MethodCall)
		if !ok {
			break
		}
		chain = append([]*script.MethodCall{mc}, chain...)
		root = mc.Recv
	}

	switch r := root.(type) {
	case *script.Call:
		expr, err := goConstructor(r)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s, err := %s\n%s", st.Name, expr, checkErr)
	case *script.Ref:
		if len(chain) == 0 {
			return errors.Internal("binding " + st.Name + " only renames " + r.Name)
		}
		expr, err := goMethod(r.Name, chain[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s, err := %s\n%s", st.Name, expr, checkErr)
		chain = chain[1:]
	default:
		return errors.Internal(fmt.Sprintf("no Go form for %s", script.FormatExpr(root)))
	}
	for _, mc := range chain {
		expr, err := goMethod(st.Name, mc)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s, err = %s\n%s", st.Name, expr, checkErr)
	}
	return nil
}

func goConstructor(c *script.Call) (string, error) {
	switch c.Func {
	case "Linear":
		var fields []string
		for i, arg := range c.Args {
			switch v := arg.(type) {
			case *script.ListExpr:
				if i == 0 {
					fields = append(fields, "Atoms: "+goStrings("[]string", v))
				} else {
					fields = append(fields, "Bonds: "+goStrings("[]ast.Bond", v))
				}
			case *script.ObjectExpr:
				if b, ok := v.Get("leading_bond").(*script.StringLit); ok {
					fields = append(fields, "LeadingBond: "+strconv.Quote(b.Value))
				}
			}
		}
		return "ast.NewLinear(ast.LinearConfig{" + strings.Join(fields, ", ") + "})", nil
	case "Ring":
		return goRing(c)
	case "FusedRing":
		if len(c.Args) != 1 {
			break
		}
		switch v := c.Args[0].(type) {
		case *script.ListExpr:
			return "ast.NewFusedRing(" + goRefs(v) + ")", nil
		case *script.ObjectExpr:
			meta, ok := v.Get("metadata").(*script.ObjectExpr)
			if !ok {
				break
			}
			atoms, ok := meta.Get("atoms").(*script.ListExpr)
			if !ok {
				break
			}
			return "ast.NewFusedRingLayout(" + goLayout(atoms) + ")", nil
		}
	case "Molecule":
		if len(c.Args) != 1 {
			break
		}
		if l, ok := c.Args[0].(*script.ListExpr); ok {
			return "ast.NewMolecule(" + goRefs(l) + ")", nil
		}
	}
	return "", errors.Internal(fmt.Sprintf("no Go form for %s", script.FormatExpr(c)))
}

func goRing(c *script.Call) (string, error) {
	if len(c.Args) < 2 {
		return "", errors.Internal("ring call without atom and size")
	}
	atom, ok1 := c.Args[0].(*script.StringLit)
	size, ok2 := c.Args[1].(*script.IntLit)
	if !ok1 || !ok2 {
		return "", errors.Internal(fmt.Sprintf("no Go form for %s", script.FormatExpr(c)))
	}
	fields := []string{"Atom: " + strconv.Quote(atom.Value), "Size: " + strconv.Itoa(size.Value)}
	if len(c.Args) > 2 {
		opts, ok := c.Args[2].(*script.ObjectExpr)
		if !ok {
			return "", errors.Internal("ring options are not an object")
		}
		for _, e := range opts.Entries {
			switch e.Key {
			case "ring_number":
				fields = append(fields, "RingNumber: "+goLiteral(e.Value))
			case "offset":
				fields = append(fields, "Offset: "+goLiteral(e.Value))
			case "open_bond":
				fields = append(fields, "OpenBond: "+goLiteral(e.Value))
			case "leading_bond":
				fields = append(fields, "LeadingBond: "+goLiteral(e.Value))
			case "bonds":
				fields = append(fields, "Bonds: "+goStrings("[]ast.Bond", e.Value.(*script.ListExpr)))
			case "branch_depths":
				fields = append(fields, "BranchDepths: "+goInts(e.Value.(*script.ListExpr)))
			case "substitutions":
				var subs []string
				for _, s := range e.Value.(*script.ObjectExpr).Entries {
					subs = append(subs, s.Key+": "+goLiteral(s.Value))
				}
				fields = append(fields, "Substitutions: map[int]string{"+strings.Join(subs, ", ")+"}")
			default:
				return "", errors.Internal("no Go form for ring option " + e.Key)
			}
		}
	}
	return "ast.NewRing(ast.RingConfig{" + strings.Join(fields, ", ") + "})", nil
}

func goMethod(recv string, mc *script.MethodCall) (string, error) {
	switch mc.Method {
	case "attach":
		if len(mc.Args) < 2 {
			break
		}
		out := fmt.Sprintf("%s.Attach(%s, %s", recv, goLiteral(mc.Args[0]), goLiteral(mc.Args[1]))
		if len(mc.Args) > 2 {
			if o, ok := mc.Args[2].(*script.ObjectExpr); ok {
				if b, ok := o.Get("inline").(*script.BoolLit); ok && b.Value {
					out += ", ast.AttachOptions{Inline: true}"
				}
			}
		}
		return out + ")", nil
	case "add_sequential_rings":
		if len(mc.Args) == 0 {
			break
		}
		specs, ok := mc.Args[0].(*script.ListExpr)
		if !ok {
			break
		}
		var items []string
		for _, el := range specs.Elems {
			o := el.(*script.ObjectExpr)
			items = append(items, fmt.Sprintf("{Ring: %s, Depth: %s}", goLiteral(o.Get("ring")), goLiteral(o.Get("depth"))))
		}
		out := fmt.Sprintf("%s.AddSequentialRings([]ast.SequentialRing{%s}", recv, strings.Join(items, ", "))
		if len(mc.Args) > 1 {
			if o, ok := mc.Args[1].(*script.ObjectExpr); ok {
				if chain, ok := o.Get("chain_atoms").(*script.ListExpr); ok {
					out += ", ast.SequentialOptions{ChainAtoms: " + goLayout(chain) + "}"
				}
			}
		}
		return out + ")", nil
	}
	return "", errors.Internal(fmt.Sprintf("no Go form for .%s", mc.Method))
}

func goLayout(l *script.ListExpr) string {
	var atoms []string
	for _, el := range l.Elems {
		o := el.(*script.ObjectExpr)
		var fields []string
		for _, e := range o.Entries {
			switch e.Key {
			case "value":
				fields = append(fields, "Value: "+goLiteral(e.Value))
			case "depth":
				if n, ok := e.Value.(*script.IntLit); ok && n.Value == 0 {
					continue
				}
				fields = append(fields, "Depth: "+goLiteral(e.Value))
			case "bond":
				fields = append(fields, "Bond: "+goLiteral(e.Value))
			case "branch":
				fields = append(fields, "Branch: "+goLiteral(e.Value))
			case "rings":
				var marks []string
				for _, m := range e.Value.(*script.ListExpr).Elems {
					if mo, ok := m.(*script.ObjectExpr); ok {
						marks = append(marks, fmt.Sprintf("{Number: %s, Bond: %s}", goLiteral(mo.Get("number")), goLiteral(mo.Get("bond"))))
						continue
					}
					marks = append(marks, "{Number: "+goLiteral(m)+"}")
				}
				fields = append(fields, "Rings: []ast.RingMark{"+strings.Join(marks, ", ")+"}")
			case "attachments":
				var atts []string
				for _, a := range e.Value.(*script.ListExpr).Elems {
					if ao, ok := a.(*script.ObjectExpr); ok {
						atts = append(atts, fmt.Sprintf("{Node: %s, Inline: true}", goLiteral(ao.Get("node"))))
						continue
					}
					atts = append(atts, "{Node: "+goLiteral(a)+"}")
				}
				fields = append(fields, "Attachments: []ast.Attachment{"+strings.Join(atts, ", ")+"}")
			}
		}
		atoms = append(atoms, "{"+strings.Join(fields, ", ")+"}")
	}
	return "[]ast.LayoutAtom{\n" + strings.Join(atoms, ",\n") + ",\n}"
}

func goLiteral(e script.Expr) string {
	switch v := e.(type) {
	case *script.StringLit:
		return strconv.Quote(v.Value)
	case *script.IntLit:
		return strconv.Itoa(v.Value)
	case *script.BoolLit:
		return strconv.FormatBool(v.Value)
	case *script.Ref:
		return v.Name
	}
	return "nil"
}

func goStrings(typ string, l *script.ListExpr) string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = goLiteral(e)
	}
	return typ + "{" + strings.Join(parts, ", ") + "}"
}

func goInts(l *script.ListExpr) string {
	return goStrings("[]int", l)
}

func goRefs(l *script.ListExpr) string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = goLiteral(e)
	}
	return strings.Join(parts, ", ")
}
