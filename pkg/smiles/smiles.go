// Package smiles is the entry point of the structural SMILES library: parse a
// string into an immutable tree, rebuild a string from any tree, decompile a
// tree into a build script and run such scripts.
//
//	n, err := smiles.Parse("c1ccc2ccccc2c1")
//	s, err := smiles.BuildSMILES(n)      // "c1ccc2ccccc2c1"
//	code, err := smiles.ToCode(n, "v")   // v1 = Ring("c", 6) ...
package smiles

import (
	"context"

	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
	"github.com/turtacn/smiles-algebra/pkg/smiles/codegen"
	"github.com/turtacn/smiles-algebra/pkg/smiles/parser"
	"github.com/turtacn/smiles-algebra/pkg/smiles/script"
)

// Parse builds the structural tree of s.
func Parse(s string) (ast.Node, error) {
	return parser.Parse(s)
}

// BuildSMILES renders n.
func BuildSMILES(n ast.Node) (string, error) {
	return ast.BuildSMILES(n)
}

// ToCode decompiles n into a build script with bindings prefix1, prefix2, ...
func ToCode(n ast.Node, prefix string) (string, error) {
	return codegen.ToCode(n, prefix)
}

// ToGo decompiles n into a Go source file against package ast.
func ToGo(n ast.Node, prefix string, opts ...codegen.GoOptions) (string, error) {
	return codegen.GoSource(n, prefix, opts...)
}

// Execute runs a build script and returns its last binding.
func Execute(ctx context.Context, code string) (ast.Node, error) {
	return script.Execute(ctx, code)
}

// Validate checks s for syntax errors without building a tree. It succeeds
// exactly when Parse does.
func Validate(s string) error {
	return parser.Validate(s)
}
