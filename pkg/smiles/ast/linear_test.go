package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

func TestNewLinear(t *testing.T) {
	l, err := NewLinear(LinearConfig{Atoms: []string{"C", "C", "O"}, Bonds: []Bond{BondDouble, ""}})
	require.NoError(t, err)
	assert.Equal(t, KindLinear, l.Kind())
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "C=CO", render(t, l))
	assert.Empty(t, l.RingNumbers())

	_, err = NewLinear(LinearConfig{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAST))

	_, err = NewLinear(LinearConfig{Atoms: []string{"C", "C"}, Bonds: []Bond{"", ""}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAST))

	_, err = NewLinear(LinearConfig{Atoms: []string{"C"}, LeadingBond: "~"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidBond))
}

func TestLinear_AttachLeadingBond(t *testing.T) {
	oxo, err := NewLinear(LinearConfig{Atoms: []string{"O"}, LeadingBond: BondDouble})
	require.NoError(t, err)

	acid, err := MustLinear("C", "C", "O").Attach(2, oxo)
	require.NoError(t, err)
	assert.Equal(t, "CC(=O)O", render(t, acid))
	assert.Equal(t, []int{2}, acid.AttachmentPositions())

	_, err = acid.Attach(0, oxo)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPosition))
}

func TestLinear_Branch(t *testing.T) {
	tBu, err := MustLinear("C", "C").Branch(2, MustLinear("C"), MustLinear("C"))
	require.NoError(t, err)
	assert.Equal(t, "CC(C)(C)", render(t, tBu))

	many, err := MustLinear("C", "C", "C").BranchAt(map[int][]Node{
		3: {MustLinear("F")},
		1: {MustLinear("Cl")},
	})
	require.NoError(t, err)
	assert.Equal(t, "C(Cl)CC(F)", render(t, many))
}

func TestLinear_Concat(t *testing.T) {
	merged, err := MustLinear("C", "C").Concat(MustLinear("O"))
	require.NoError(t, err)
	require.IsType(t, &Linear{}, merged)
	assert.Equal(t, "CCO", render(t, merged))

	withRing, err := MustLinear("C").Concat(benzene())
	require.NoError(t, err)
	assert.Equal(t, KindMolecule, withRing.Kind())
	assert.Equal(t, "Cc1ccccc1", render(t, withRing))
}

func TestLinear_ConcatAfterInline(t *testing.T) {
	head, err := MustLinear("C", "C").Attach(2, benzene(), AttachOptions{Inline: true})
	require.NoError(t, err)
	assert.Equal(t, "CCc1ccccc1", render(t, head))

	out, err := head.Concat(MustLinear("O"))
	require.NoError(t, err)
	assert.Equal(t, KindMolecule, out.Kind())
	assert.Equal(t, "CCc1ccccc1O", render(t, out))
}

func TestLinear_Mirror(t *testing.T) {
	m, err := MustLinear("C", "C", "O").Mirror(0)
	require.NoError(t, err)
	assert.Equal(t, "CCOCC", render(t, m))

	withBranch, err := MustLinear("C", "N", "O").Attach(1, MustRing("C", 3, 1))
	require.NoError(t, err)
	mirrored, err := withBranch.Mirror(3)
	require.NoError(t, err)
	assert.Equal(t, "C(C1CC1)NONC(C2CC2)", render(t, mirrored))

	_, err = MustLinear("C").Mirror(2)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPosition))
}

func TestLinear_Repeat(t *testing.T) {
	out, err := MustLinear("C", "O").Repeat(3, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "COCOCO", render(t, out))

	_, err = MustLinear("C").Repeat(0, 0, 0)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestLinear_Immutable(t *testing.T) {
	base := MustLinear("C", "C")
	_, err := base.Attach(1, MustLinear("O"))
	require.NoError(t, err)
	_, err = base.Concat(MustLinear("N"))
	require.NoError(t, err)
	assert.Equal(t, "CC", render(t, base))
	assert.Empty(t, base.AttachmentPositions())

	atoms := base.Atoms()
	atoms[0] = "N"
	assert.Equal(t, "C", base.AtomAt(1))
}
