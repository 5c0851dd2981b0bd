package script

import (
	"strconv"
	"strings"
)

// Format renders a program one binding per line in canonical spacing.
func Format(prog *Program) string {
	var sb strings.Builder
	for _, st := range prog.Statements {
		sb.WriteString(st.Name)
		sb.WriteString(" = ")
		writeExpr(&sb, st.Value)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatExpr renders a single expression.
func FormatExpr(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch v := e.(type) {
	case *StringLit:
		sb.WriteString(strconv.Quote(v.Value))
	case *IntLit:
		sb.WriteString(strconv.Itoa(v.Value))
	case *BoolLit:
		sb.WriteString(strconv.FormatBool(v.Value))
	case *Ref:
		sb.WriteString(v.Name)
	case *ListExpr:
		sb.WriteByte('[')
		writeSeq(sb, v.Elems)
		sb.WriteByte(']')
	case *ObjectExpr:
		sb.WriteByte('{')
		for i, entry := range v.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeKey(sb, entry.Key)
			sb.WriteString(": ")
			writeExpr(sb, entry.Value)
		}
		sb.WriteByte('}')
	case *Call:
		sb.WriteString(v.Func)
		sb.WriteByte('(')
		writeSeq(sb, v.Args)
		sb.WriteByte(')')
	case *MethodCall:
		writeExpr(sb, v.Recv)
		sb.WriteByte('.')
		sb.WriteString(v.Method)
		sb.WriteByte('(')
		writeSeq(sb, v.Args)
		sb.WriteByte(')')
	}
}

func writeSeq(sb *strings.Builder, elems []Expr) {
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeExpr(sb, e)
	}
}

func writeKey(sb *strings.Builder, key string) {
	if isIdent(key) {
		sb.WriteString(key)
		return
	}
	if n, err := strconv.Atoi(key); err == nil && strconv.Itoa(n) == key {
		sb.WriteString(key)
		return
	}
	sb.WriteString(strconv.Quote(key))
}

func isIdent(s string) bool {
	if s == "" || s == "true" || s == "false" || !isAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isAlpha(s[i]) && !isDigit(s[i]) {
			return false
		}
	}
	return true
}
