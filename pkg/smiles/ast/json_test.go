package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

func TestJSON_RoundTrip(t *testing.T) {
	oxo, err := NewLinear(LinearConfig{Atoms: []string{"O"}, LeadingBond: BondDouble})
	require.NoError(t, err)
	acid, err := MustLinear("C", "C", "O").Attach(2, oxo)
	require.NoError(t, err)
	pyridine, err := benzene().Substitute(2, "n")
	require.NoError(t, err)
	withTail, err := pyridine.Attach(6, MustLinear("C"), AttachOptions{Inline: true})
	require.NoError(t, err)
	naphthalene, err := benzene().Fuse(3, benzene())
	require.NoError(t, err)
	layout, err := NewFusedRingLayout([]LayoutAtom{
		{Value: "C", Rings: []RingMark{{Number: 1}}},
		{Value: "C", Bond: BondDouble},
		{Value: "C", Depth: 1, Branch: true, Attachments: []Attachment{{Node: MustLinear("F")}}},
		{Value: "C", Depth: 1, Rings: []RingMark{{Number: 1, Bond: BondSingle}}},
	})
	require.NoError(t, err)
	mol, err := NewMolecule(acid, naphthalene)
	require.NoError(t, err)

	for name, n := range map[string]Node{
		"linear":   acid,
		"ring":     withTail,
		"fused":    naphthalene,
		"layout":   layout,
		"molecule": mol,
	} {
		t.Run(name, func(t *testing.T) {
			data, err := MarshalNode(n)
			require.NoError(t, err)
			back, err := UnmarshalNode(data)
			require.NoError(t, err)
			assert.Equal(t, n.Kind(), back.Kind())
			assert.Equal(t, render(t, n), render(t, back))
		})
	}
}

func TestJSON_Shape(t *testing.T) {
	pyridine, err := benzene().Substitute(2, "n")
	require.NoError(t, err)
	data, err := json.Marshal(pyridine)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ring","atom":"c","size":6,"ring_number":1,"substitutions":{"2":"n"}}`, string(data))
}

func TestJSON_DefaultsAndErrors(t *testing.T) {
	n, err := UnmarshalNode([]byte(`{"type":"ring","atom":"c","size":6}`))
	require.NoError(t, err)
	assert.Equal(t, "c1ccccc1", render(t, n))

	_, err = UnmarshalNode([]byte(`{"type":"helix"}`))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAST))

	_, err = UnmarshalNode([]byte(`{"type":`))
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	_, err = UnmarshalNode([]byte(`{"type":"ring","atom":"c","size":6,"substitutions":{"x":"n"}}`))
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	_, err = UnmarshalNode([]byte(`{"type":"ring","atom":"c","size":2}`))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAST))
}
