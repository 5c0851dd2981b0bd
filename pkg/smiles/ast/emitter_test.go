package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

func TestBuildSMILES_RemapsOnlyLiveNumbers(t *testing.T) {
	nested, err := benzene().Attach(2, benzene())
	require.NoError(t, err)
	assert.Equal(t, "c1c(c2ccccc2)cccc1", render(t, nested))

	// a closed number is reused as written
	seq, err := NewMolecule(benzene(), benzene())
	require.NoError(t, err)
	assert.Equal(t, "c1ccccc1c1ccccc1", render(t, seq))
}

func TestBuildSMILES_RemapAvoidsSubtreeNumbers(t *testing.T) {
	inner, err := MustRing("C", 3, 1).Attach(2, MustRing("C", 3, 2))
	require.NoError(t, err)
	outer, err := benzene().Attach(3, inner)
	require.NoError(t, err)
	assert.Equal(t, "c1cc(C3C(C2CC2)C3)ccc1", render(t, outer))
}

func TestBuildSMILES_ZeroValues(t *testing.T) {
	for name, n := range map[string]Node{
		"nil":      nil,
		"linear":   &Linear{},
		"ring":     &Ring{},
		"molecule": &Molecule{},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := BuildSMILES(n)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAST))
		})
	}
}

func TestBuildSMILES_LayoutDepths(t *testing.T) {
	fr, err := NewFusedRingLayout([]LayoutAtom{
		{Value: "C", Rings: []RingMark{{Number: 1}}},
		{Value: "C"},
		{Value: "C", Depth: 1, Branch: true},
		{Value: "C", Depth: 1, Rings: []RingMark{{Number: 1}}},
		{Value: "O", Depth: 1, Branch: true},
		{Value: "N"},
	})
	require.NoError(t, err)
	assert.Equal(t, "C1C(CC1)(O)N", render(t, fr))
}

func TestMustBuildSMILES_Panics(t *testing.T) {
	assert.Panics(t, func() { MustBuildSMILES(nil) })
	assert.Equal(t, "c1ccccc1", MustBuildSMILES(benzene()))
}
