package codegen

import (
	"context"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
	smilesparser "github.com/turtacn/smiles-algebra/pkg/smiles/parser"
	"github.com/turtacn/smiles-algebra/pkg/smiles/script"
)

var corpus = []string{
	"C",
	"CCO",
	"CC(=O)O",
	"CC(C)(C)C",
	"N#N",
	"C/C=C/C",
	"=O",
	"c1ccccc1",
	"C1=CC=CC=C1",
	"C=1CCCCC=1",
	"c1(C)ccccc1",
	"[nH]1cccc1",
	"C%10CCCCCCCCCC%10",
	"C1CC(CC1)",
	"C1(CC1)",
	"C1CC(CC1C)",
	"Cc1ccccc1",
	"C1CC1C1CC1",
	"C1CC(C1)C",
	"c1c(c2ccccc2)cccc1",
	"c1ccc2ccccc2c1",
	"c1ccc2cc3ccccc3cc2c1",
	"c1ccc2c[nH]cc2c1",
	"C1CCC2C1CCC2",
	"c1ccccc12ccccc2",
	"c1ccccc12ccccc2C",
	"C0CC0",
	"C(C1)(C1)",
	"COc1ccc2nc(S(=O)Cc3ncc(C)c(OC)c3C)[nH]c2c1",
}

func mustParse(t *testing.T, s string) ast.Node {
	t.Helper()
	n, err := smilesparser.Parse(s)
	require.NoError(t, err)
	return n
}

func TestToCode_DecompileLaw(t *testing.T) {
	for _, s := range corpus {
		t.Run(s, func(t *testing.T) {
			n := mustParse(t, s)
			code, err := ToCode(n, "")
			require.NoError(t, err)

			rebuilt, err := script.Execute(context.Background(), code)
			require.NoError(t, err, code)
			assert.Equal(t, ast.MustBuildSMILES(n), ast.MustBuildSMILES(rebuilt), code)
		})
	}
}

func TestToCode_Shapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CCO", "v1 = Linear([\"C\", \"C\", \"O\"])\n"},
		{"CC(=O)O", "v1 = Linear([\"O\"], {leading_bond: \"=\"})\nv2 = Linear([\"C\", \"C\", \"O\"]).attach(2, v1)\n"},
		{"c1(C)ccccc1", "v1 = Linear([\"C\"])\nv2 = Ring(\"c\", 6).attach(1, v1)\n"},
		{"c1ccc2ccccc2c1", "v1 = Ring(\"c\", 6)\nv2 = Ring(\"c\", 6, {ring_number: 2, offset: 3})\nv3 = FusedRing([v1, v2])\n"},
		{"c1ccccc12ccccc2", "v1 = Ring(\"c\", 6)\nv2 = Ring(\"c\", 6, {ring_number: 2, offset: 5})\nv3 = v1.add_sequential_rings([{ring: v2, depth: 0}])\n"},
		{"C0CC0", "v1 = FusedRing({metadata: {atoms: [{position: 1, depth: 0, value: \"C\", rings: [0]}, {position: 2, depth: 0, value: \"C\"}, {position: 3, depth: 0, value: \"C\", rings: [0]}]}})\n"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			code, err := ToCode(mustParse(t, tt.in), "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestToCode_Prefix(t *testing.T) {
	code, err := ToCode(ast.MustLinear("C"), "frag")
	require.NoError(t, err)
	assert.Equal(t, "frag1 = Linear([\"C\"])\n", code)

	_, err = ToCode(ast.MustLinear("C"), "1x")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = ToCode(nil, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAST))

	_, err = ToCode(&ast.Ring{}, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAST))
}

func TestToCode_BuiltNodes(t *testing.T) {
	pyridine, err := ast.MustRing("c", 6, 1).Substitute(2, "n")
	require.NoError(t, err)
	withTail, err := pyridine.Attach(6, ast.MustLinear("C", "O"), ast.AttachOptions{Inline: true})
	require.NoError(t, err)

	code, err := ToCode(withTail, "")
	require.NoError(t, err)
	assert.Equal(t, "v1 = Linear([\"C\", \"O\"])\nv2 = Ring(\"c\", 6, {substitutions: {2: \"n\"}}).attach(6, v1, {inline: true})\n", code)

	rebuilt, err := script.Execute(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "c1ncccc1CO", ast.MustBuildSMILES(rebuilt))
}

func TestGoSource(t *testing.T) {
	for _, s := range corpus {
		t.Run(s, func(t *testing.T) {
			src, err := GoSource(mustParse(t, s), "")
			require.NoError(t, err)
			_, err = parser.ParseFile(token.NewFileSet(), "structures.go", src, parser.AllErrors)
			require.NoError(t, err, src)
			assert.Contains(t, src, "func Build() (ast.Node, error) {")
			assert.Contains(t, src, "// Code generated by smiles code; DO NOT EDIT.")
		})
	}
}

func TestGoSource_Statements(t *testing.T) {
	src, err := GoSource(mustParse(t, "c1ccc2ccccc2c1"), "", GoOptions{Package: "fixtures", Func: "Naphthalene"})
	require.NoError(t, err)
	assert.Contains(t, src, "package fixtures")
	assert.Contains(t, src, "// Naphthalene rebuilds c1ccc2ccccc2c1.")
	assert.Contains(t, src, `v1, err := ast.NewRing(ast.RingConfig{Atom: "c", Size: 6})`)
	assert.Contains(t, src, `v2, err := ast.NewRing(ast.RingConfig{Atom: "c", Size: 6, RingNumber: 2, Offset: 3})`)
	assert.Contains(t, src, "v3, err := ast.NewFusedRing(v1, v2)")
	assert.Contains(t, src, "return v3, nil")

	src, err = GoSource(mustParse(t, "c1(C)ccccc1"), "")
	require.NoError(t, err)
	assert.Contains(t, src, "v2, err = v2.Attach(1, v1)")

	_, err = GoSource(ast.MustLinear("C"), "", GoOptions{Package: "not a name"})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}
