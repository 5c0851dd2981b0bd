package script

import (
	"context"
	"fmt"
	"strconv"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
)

// value is the runtime value of an expression: ast.Node, string, int, bool,
// []value or *object.
type value interface{}

type object struct {
	keys []string
	vals map[string]value
	pos  map[string]int
}

func (o *object) get(key string) (value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Env holds the bindings of a running program.
type Env struct {
	vars  map[string]value
	order []string
}

func newEnv() *Env {
	return &Env{vars: make(map[string]value)}
}

// Execute parses and runs src and returns the node bound last.
func Execute(ctx context.Context, src string) (ast.Node, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Run(ctx, prog)
}

// Run evaluates prog. Names are single-assignment and the last binding must
// hold a node.
func Run(ctx context.Context, prog *Program) (ast.Node, error) {
	if prog == nil || len(prog.Statements) == 0 {
		return nil, errors.New(errors.ErrCodeScriptSyntax, "script binds nothing")
	}
	env := newEnv()
	var last value
	for _, st := range prog.Statements {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeTimeout, "script cancelled")
		}
		if _, ok := env.vars[st.Name]; ok {
			return nil, errors.NewAt(errors.ErrCodeScriptRebind, st.Offset, fmt.Sprintf("%s is already bound", st.Name))
		}
		v, err := env.eval(st.Value)
		if err != nil {
			return nil, err
		}
		env.vars[st.Name] = v
		env.order = append(env.order, st.Name)
		last = v
	}
	n, ok := last.(ast.Node)
	if !ok {
		name := env.order[len(env.order)-1]
		return nil, errors.NewAt(errors.ErrCodeScriptType, prog.Statements[len(prog.Statements)-1].Offset,
			fmt.Sprintf("result %s is a %s, not a structure", name, typeName(last)))
	}
	return n, nil
}

func (env *Env) eval(e Expr) (value, error) {
	switch v := e.(type) {
	case *StringLit:
		return v.Value, nil
	case *IntLit:
		return v.Value, nil
	case *BoolLit:
		return v.Value, nil
	case *Ref:
		val, ok := env.vars[v.Name]
		if !ok {
			return nil, errors.NewAt(errors.ErrCodeScriptUnbound, v.Offset, fmt.Sprintf("%s is not bound", v.Name))
		}
		return val, nil
	case *ListExpr:
		out := make([]value, len(v.Elems))
		for i, el := range v.Elems {
			val, err := env.eval(el)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case *ObjectExpr:
		obj := &object{vals: make(map[string]value, len(v.Entries)), pos: make(map[string]int, len(v.Entries))}
		for _, entry := range v.Entries {
			val, err := env.eval(entry.Value)
			if err != nil {
				return nil, err
			}
			obj.keys = append(obj.keys, entry.Key)
			obj.vals[entry.Key] = val
			obj.pos[entry.Key] = entry.Value.Pos()
		}
		return obj, nil
	case *Call:
		args, err := env.evalArgs(v.Args)
		if err != nil {
			return nil, err
		}
		return construct(v.Func, args, v.Offset)
	case *MethodCall:
		recv, err := env.eval(v.Recv)
		if err != nil {
			return nil, err
		}
		args, err := env.evalArgs(v.Args)
		if err != nil {
			return nil, err
		}
		node, ok := recv.(ast.Node)
		if !ok {
			return nil, errors.NewAt(errors.ErrCodeScriptType, v.Offset,
				fmt.Sprintf("%s called on a %s", v.Method, typeName(recv)))
		}
		return invoke(node, v.Method, args, v.Offset)
	}
	return nil, errors.Newf(errors.ErrCodeScriptSyntax, "unknown expression %T", e)
}

func (env *Env) evalArgs(exprs []Expr) ([]value, error) {
	out := make([]value, len(exprs))
	for i, e := range exprs {
		v, err := env.eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func typeName(v value) string {
	switch x := v.(type) {
	case nil:
		return "nothing"
	case string:
		return "string"
	case int:
		return "integer"
	case bool:
		return "boolean"
	case []value:
		return "list"
	case *object:
		return "object"
	case ast.Node:
		return x.Kind().String()
	}
	return fmt.Sprintf("%T", v)
}

// ─────────────────────────────────────────────────────────────────────────────
// argument coercion
// ─────────────────────────────────────────────────────────────────────────────

type args struct {
	name   string
	vals   []value
	offset int
}

func (a args) typeErr(i int, want string) error {
	got := "nothing"
	if i < len(a.vals) {
		got = typeName(a.vals[i])
	}
	return errors.NewAt(errors.ErrCodeScriptType, a.offset,
		fmt.Sprintf("%s argument %d must be a %s, got %s", a.name, i+1, want, got))
}

func (a args) arity(min, max int) error {
	if len(a.vals) < min || len(a.vals) > max {
		want := strconv.Itoa(min)
		if max != min {
			want = fmt.Sprintf("%d to %d", min, max)
		}
		return errors.NewAt(errors.ErrCodeScriptType, a.offset,
			fmt.Sprintf("%s takes %s argument(s), got %d", a.name, want, len(a.vals)))
	}
	return nil
}

func (a args) has(i int) bool { return i < len(a.vals) }

func (a args) int(i int) (int, error) {
	if i < len(a.vals) {
		if n, ok := a.vals[i].(int); ok {
			return n, nil
		}
	}
	return 0, a.typeErr(i, "integer")
}

func (a args) str(i int) (string, error) {
	if i < len(a.vals) {
		if s, ok := a.vals[i].(string); ok {
			return s, nil
		}
	}
	return "", a.typeErr(i, "string")
}

func (a args) node(i int) (ast.Node, error) {
	if i < len(a.vals) {
		if n, ok := a.vals[i].(ast.Node); ok {
			return n, nil
		}
	}
	return nil, a.typeErr(i, "structure")
}

func (a args) ring(i int) (*ast.Ring, error) {
	if i < len(a.vals) {
		if r, ok := a.vals[i].(*ast.Ring); ok {
			return r, nil
		}
	}
	return nil, a.typeErr(i, "ring")
}

func (a args) list(i int) ([]value, error) {
	if i < len(a.vals) {
		if l, ok := a.vals[i].([]value); ok {
			return l, nil
		}
	}
	return nil, a.typeErr(i, "list")
}

func (a args) obj(i int) (*object, error) {
	if i < len(a.vals) {
		if o, ok := a.vals[i].(*object); ok {
			return o, nil
		}
	}
	return nil, a.typeErr(i, "object")
}

// field reads typed values out of an object with offsets for errors.
type field struct {
	owner string
	obj   *object
	at    int
}

func (f field) err(key, want string, got value) error {
	at := f.at
	if p, ok := f.obj.pos[key]; ok {
		at = p
	}
	return errors.NewAt(errors.ErrCodeScriptType, at,
		fmt.Sprintf("%s %s must be a %s, got %s", f.owner, key, want, typeName(got)))
}

func (f field) only(allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		ok[k] = true
	}
	for _, k := range f.obj.keys {
		if !ok[k] {
			return errors.NewAt(errors.ErrCodeScriptType, f.obj.pos[k], fmt.Sprintf("%s has no option %q", f.owner, k))
		}
	}
	return nil
}

func (f field) str(key string, required bool) (string, error) {
	v, ok := f.obj.get(key)
	if !ok {
		if required {
			return "", errors.NewAt(errors.ErrCodeScriptType, f.at, fmt.Sprintf("%s needs %s", f.owner, key))
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", f.err(key, "string", v)
	}
	return s, nil
}

func (f field) int(key string, required bool) (int, error) {
	v, ok := f.obj.get(key)
	if !ok {
		if required {
			return 0, errors.NewAt(errors.ErrCodeScriptType, f.at, fmt.Sprintf("%s needs %s", f.owner, key))
		}
		return 0, nil
	}
	n, ok := v.(int)
	if !ok {
		return 0, f.err(key, "integer", v)
	}
	return n, nil
}

func (f field) bool(key string) (bool, error) {
	v, ok := f.obj.get(key)
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, f.err(key, "boolean", v)
	}
	return b, nil
}

func (f field) bond(key string) (ast.Bond, error) {
	s, err := f.str(key, false)
	if err != nil {
		return ast.BondImplicit, err
	}
	return ast.Bond(s), nil
}

func (f field) list(key string) ([]value, error) {
	v, ok := f.obj.get(key)
	if !ok {
		return nil, nil
	}
	l, ok := v.([]value)
	if !ok {
		return nil, f.err(key, "list", v)
	}
	return l, nil
}

func (f field) object(key string) (*object, error) {
	v, ok := f.obj.get(key)
	if !ok {
		return nil, nil
	}
	o, ok := v.(*object)
	if !ok {
		return nil, f.err(key, "object", v)
	}
	return o, nil
}

func (f field) node(key string) (ast.Node, error) {
	v, ok := f.obj.get(key)
	if !ok {
		return nil, errors.NewAt(errors.ErrCodeScriptType, f.at, fmt.Sprintf("%s needs %s", f.owner, key))
	}
	n, ok := v.(ast.Node)
	if !ok {
		return nil, f.err(key, "structure", v)
	}
	return n, nil
}

func stringList(owner string, l []value, at int) ([]string, error) {
	out := make([]string, len(l))
	for i, v := range l {
		s, ok := v.(string)
		if !ok {
			return nil, errors.NewAt(errors.ErrCodeScriptType, at,
				fmt.Sprintf("%s element %d must be a string, got %s", owner, i+1, typeName(v)))
		}
		out[i] = s
	}
	return out, nil
}

func bonds(owner string, l []value, at int) ([]ast.Bond, error) {
	ss, err := stringList(owner, l, at)
	if err != nil || ss == nil {
		return nil, err
	}
	out := make([]ast.Bond, len(ss))
	for i, s := range ss {
		out[i] = ast.Bond(s)
	}
	return out, nil
}

func ints(owner string, l []value, at int) ([]int, error) {
	out := make([]int, len(l))
	for i, v := range l {
		n, ok := v.(int)
		if !ok {
			return nil, errors.NewAt(errors.ErrCodeScriptType, at,
				fmt.Sprintf("%s element %d must be an integer, got %s", owner, i+1, typeName(v)))
		}
		out[i] = n
	}
	return out, nil
}

func nodes(owner string, l []value, at int) ([]ast.Node, error) {
	out := make([]ast.Node, len(l))
	for i, v := range l {
		n, ok := v.(ast.Node)
		if !ok {
			return nil, errors.NewAt(errors.ErrCodeScriptType, at,
				fmt.Sprintf("%s element %d must be a structure, got %s", owner, i+1, typeName(v)))
		}
		out[i] = n
	}
	return out, nil
}

// positionKey reads an object key as a 1-based position.
func positionKey(owner, key string, at int) (int, error) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, errors.NewAt(errors.ErrCodeScriptType, at, fmt.Sprintf("%s key %q is not a position", owner, key))
	}
	return n, nil
}

func callFailed(name string, at int, err error) error {
	return errors.Wrap(err, errors.ErrCodeScriptCall, name+" failed").WithOffset(at)
}
