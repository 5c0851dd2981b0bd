package script

// Expr is any script expression.
type Expr interface {
	Pos() int
	exprNode()
}

type StringLit struct {
	Value  string
	Offset int
}

type IntLit struct {
	Value  int
	Offset int
}

type BoolLit struct {
	Value  bool
	Offset int
}

type ListExpr struct {
	Elems  []Expr
	Offset int
}

// Entry is one key/value pair of an object. Integer keys are kept as their
// decimal text.
type Entry struct {
	Key   string
	Value Expr
}

type ObjectExpr struct {
	Entries []Entry
	Offset  int
}

// Ref names an earlier binding.
type Ref struct {
	Name   string
	Offset int
}

// Call invokes a constructor such as Ring or Linear.
type Call struct {
	Func   string
	Args   []Expr
	Offset int
}

// MethodCall invokes a transformation on the value of Recv.
type MethodCall struct {
	Recv   Expr
	Method string
	Args   []Expr
	Offset int
}

func (e *StringLit) Pos() int  { return e.Offset }
func (e *IntLit) Pos() int     { return e.Offset }
func (e *BoolLit) Pos() int    { return e.Offset }
func (e *ListExpr) Pos() int   { return e.Offset }
func (e *ObjectExpr) Pos() int { return e.Offset }
func (e *Ref) Pos() int        { return e.Offset }
func (e *Call) Pos() int       { return e.Offset }
func (e *MethodCall) Pos() int { return e.Offset }

func (*StringLit) exprNode()  {}
func (*IntLit) exprNode()     {}
func (*BoolLit) exprNode()    {}
func (*ListExpr) exprNode()   {}
func (*ObjectExpr) exprNode() {}
func (*Ref) exprNode()        {}
func (*Call) exprNode()       {}
func (*MethodCall) exprNode() {}

// Assign binds Name to the value of Value.
type Assign struct {
	Name   string
	Value  Expr
	Offset int
}

// Program is a sequence of bindings; the last one is the result.
type Program struct {
	Statements []Assign
}

// Get returns the value stored under key, or nil.
func (o *ObjectExpr) Get(key string) Expr {
	for _, e := range o.Entries {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Str, Int, List, Obj and R are shorthands for building programs in code.

func Str(s string) *StringLit { return &StringLit{Value: s} }

func Int(n int) *IntLit { return &IntLit{Value: n} }

func Bool(b bool) *BoolLit { return &BoolLit{Value: b} }

func List(elems ...Expr) *ListExpr { return &ListExpr{Elems: elems} }

func Obj(entries ...Entry) *ObjectExpr { return &ObjectExpr{Entries: entries} }

func R(name string) *Ref { return &Ref{Name: name} }
