package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

func TestFormatRingNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{1, "1"},
		{9, "9"},
		{10, "%10"},
		{99, "%99"},
	}
	for _, tt := range tests {
		got, err := FormatRingNumber(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := FormatRingNumber(100)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTooManyRings))
	_, err = FormatRingNumber(-1)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTooManyRings))
}

func TestRingAllocator(t *testing.T) {
	a := NewRingAllocator(benzene(), nil)
	assert.True(t, a.InUse(1))
	a.Reserve(2, 4)

	n, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = a.Next()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRingAllocator_Exhausted(t *testing.T) {
	a := NewRingAllocator()
	for i := 1; i <= MaxRingNumber; i++ {
		a.Reserve(i)
	}
	_, err := a.Next()
	assert.True(t, errors.IsCode(err, errors.ErrCodeTooManyRings))
}

func TestNextRingNumber(t *testing.T) {
	n, err := NextRingNumber(benzene(), MustRing("C", 3, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRenumberRings(t *testing.T) {
	r := benzene()
	out := RenumberRings(r, map[int]int{1: 8})
	assert.Equal(t, "c8ccccc8", render(t, out))
	assert.Equal(t, "c1ccccc1", render(t, r))
	assert.Same(t, r, RenumberRings(r, nil))
}
