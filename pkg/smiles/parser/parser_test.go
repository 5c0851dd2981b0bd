package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
)

const omeprazole = "COc1ccc2nc(S(=O)Cc3ncc(C)c(OC)c3C)[nH]c2c1"

func TestParse_PerfectRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		kind ast.Kind
	}{
		{"C", ast.KindLinear},
		{"CCO", ast.KindLinear},
		{"CC(=O)O", ast.KindLinear},
		{"CC(C)(C)C", ast.KindLinear},
		{"N#N", ast.KindLinear},
		{"C/C=C/C", ast.KindLinear},
		{"=O", ast.KindLinear},
		{"c1ccccc1", ast.KindRing},
		{"C1=CC=CC=C1", ast.KindRing},
		{"C=1CCCCC=1", ast.KindRing},
		{"c1(C)ccccc1", ast.KindRing},
		{"[nH]1cccc1", ast.KindRing},
		{"C%10CCCCCCCCCC%10", ast.KindRing},
		{"C1CC(CC1)", ast.KindRing},
		{"C1(CC1)", ast.KindRing},
		{"C1CC(CC1C)", ast.KindRing},
		{"Cc1ccccc1", ast.KindMolecule},
		{"C1CC1C1CC1", ast.KindMolecule},
		{"C1CC(C1)C", ast.KindMolecule},
		{"c1c(c2ccccc2)cccc1", ast.KindRing},
		{"c1ccc2ccccc2c1", ast.KindFusedRing},
		{"c1ccc2cc3ccccc3cc2c1", ast.KindFusedRing},
		{"c1ccc2c[nH]cc2c1", ast.KindFusedRing},
		{"C1CCC2C1CCC2", ast.KindFusedRing},
		{"c1ccccc12ccccc2", ast.KindFusedRing},
		{"C0CC0", ast.KindFusedRing},
		{"C(C1)(C1)", ast.KindFusedRing},
		{omeprazole, ast.KindMolecule},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, n.Kind())
			out, err := ast.BuildSMILES(n)
			require.NoError(t, err)
			assert.Equal(t, tt.in, out)
		})
	}
}

func TestParse_Benzene(t *testing.T) {
	n, err := Parse("c1ccccc1")
	require.NoError(t, err)
	r, ok := n.(*ast.Ring)
	require.True(t, ok)
	assert.Equal(t, "c", r.Atom())
	assert.Equal(t, 6, r.Size())
	assert.Equal(t, 1, r.RingNumber())
	assert.Empty(t, r.Substitutions())
}

func TestParse_NaphthaleneIsArrayForm(t *testing.T) {
	n, err := Parse("c1ccc2ccccc2c1")
	require.NoError(t, err)
	fr, ok := n.(*ast.FusedRing)
	require.True(t, ok)
	assert.False(t, fr.IsLayout())
	rings := fr.Rings()
	require.Len(t, rings, 2)
	assert.Equal(t, 0, rings[0].Offset())
	assert.Equal(t, 3, rings[1].Offset())
	assert.Equal(t, 6, rings[1].Size())
}

func TestParse_Omeprazole(t *testing.T) {
	n, err := Parse(omeprazole)
	require.NoError(t, err)
	m, ok := n.(*ast.Molecule)
	require.True(t, ok)
	comps := m.Components()
	require.Len(t, comps, 2)
	assert.Equal(t, ast.KindLinear, comps[0].Kind())

	fr, ok := comps[1].(*ast.FusedRing)
	require.True(t, ok)
	require.False(t, fr.IsLayout())
	rings := fr.Rings()
	require.Len(t, rings, 2)
	assert.Equal(t, 5, rings[1].Size())
	assert.Equal(t, map[int]string{2: "n", 4: "[nH]"}, rings[1].Substitutions())
	assert.Equal(t, []int{3}, rings[1].AttachmentPositions())
}

func TestParse_StabilisesRingLabels(t *testing.T) {
	n, err := Parse("C%05CC%05")
	require.NoError(t, err)
	first := ast.MustBuildSMILES(n)
	assert.Equal(t, "C5CC5", first)

	again, err := Parse(first)
	require.NoError(t, err)
	assert.Equal(t, first, ast.MustBuildSMILES(again))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		in     string
		code   errors.ErrorCode
		offset int
	}{
		{"", errors.ErrCodeEmptyInput, 0},
		{"C.C", errors.ErrCodeInvalidCharacter, 1},
		{"C[N", errors.ErrCodeUnclosedBracket, 1},
		{"C%1", errors.ErrCodeInvalidRingEscape, 1},
		{"C)", errors.ErrCodeUnbalancedBranches, 1},
		{"C(C", errors.ErrCodeUnbalancedBranches, 3},
		{"C1CC", errors.ErrCodeUnclosedRing, 1},
		{"C1CC(", errors.ErrCodeUnclosedRing, 1},
		{"C1CC(C", errors.ErrCodeUnclosedRing, 1},
		{"1CC", errors.ErrCodeUnexpectedToken, 0},
		{"C11", errors.ErrCodeUnexpectedToken, 2},
		{"C()", errors.ErrCodeUnexpectedToken, 2},
		{"(C)", errors.ErrCodeUnexpectedToken, 0},
		{"C=", errors.ErrCodeUnexpectedToken, 1},
		{"C==C", errors.ErrCodeUnexpectedToken, 2},
		{"C(=)C", errors.ErrCodeUnexpectedToken, 3},
		{"C(C)1CC1", errors.ErrCodeUnexpectedToken, 4},
		{"C(=1)", errors.ErrCodeUnexpectedToken, 3},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), err.Error())
			off, ok := errors.GetOffset(err)
			require.True(t, ok)
			assert.Equal(t, tt.offset, off)

			assert.Equal(t, tt.code, errors.GetCode(Validate(tt.in)))
		})
	}
}

func TestParse_ValidateAgrees(t *testing.T) {
	for _, s := range []string{"C", omeprazole, "C1CCC2C1CCC2", "c1ccccc12ccccc2"} {
		assert.NoError(t, Validate(s), s)
		_, err := Parse(s)
		assert.NoError(t, err, s)
	}
}

func TestParse_ReparsesBuiltNodes(t *testing.T) {
	anthracene, err := ast.MustRing("c", 6, 1).FusedRepeat(3, 3)
	require.NoError(t, err)
	big, err := ast.MustRing("C", 10, 1).Fuse(2, ast.MustRing("C", 6, 2))
	require.NoError(t, err)
	nested, err := ast.MustRing("c", 6, 1).Attach(2, ast.MustRing("c", 6, 1))
	require.NoError(t, err)
	tail, err := ast.MustRing("C", 3, 1).Attach(3, ast.MustLinear("O"), ast.AttachOptions{Inline: true})
	require.NoError(t, err)

	for name, n := range map[string]ast.Node{
		"anthracene": anthracene,
		"fused":      big,
		"nested":     nested,
		"inline":     tail,
	} {
		t.Run(name, func(t *testing.T) {
			want := ast.MustBuildSMILES(n)
			back, err := Parse(want)
			require.NoError(t, err)
			assert.Equal(t, want, ast.MustBuildSMILES(back))
		})
	}
}
