package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

func TestNewRing_Defaults(t *testing.T) {
	r, err := NewRing(RingConfig{Atom: "C", Size: 6})
	require.NoError(t, err)
	assert.Equal(t, 1, r.RingNumber())
	assert.Equal(t, KindRing, r.Kind())
	assert.Nil(t, r.Bonds())
	assert.Nil(t, r.BranchDepths())
	assert.Equal(t, "C1CCCCC1", render(t, r))
}

func TestNewRing_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  RingConfig
		code errors.ErrorCode
	}{
		{"no atom", RingConfig{Size: 6}, errors.ErrCodeInvalidAST},
		{"too small", RingConfig{Atom: "C", Size: 2}, errors.ErrCodeInvalidAST},
		{"ring number", RingConfig{Atom: "C", Size: 6, RingNumber: 100}, errors.ErrCodeInvalidRingNumber},
		{"substitution position", RingConfig{Atom: "C", Size: 6, Substitutions: map[int]string{7: "N"}}, errors.ErrCodeInvalidPosition},
		{"bond count", RingConfig{Atom: "C", Size: 6, Bonds: []Bond{BondDouble}}, errors.ErrCodeInvalidAST},
		{"bond symbol", RingConfig{Atom: "C", Size: 3, Bonds: []Bond{"", "$", ""}}, errors.ErrCodeInvalidBond},
		{"depth jump", RingConfig{Atom: "C", Size: 4, BranchDepths: []int{0, 2, 2, 2}}, errors.ErrCodeInvalidAST},
		{"depth start", RingConfig{Atom: "C", Size: 3, BranchDepths: []int{1, 1, 1}}, errors.ErrCodeInvalidAST},
		{"inline not last", RingConfig{Atom: "C", Size: 3, Attachments: map[int][]Attachment{
			1: {{Node: MustLinear("O"), Inline: true}},
		}}, errors.ErrCodeInvalidAST},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRing(tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), err.Error())
		})
	}
}

func TestRing_SubstituteRoundTrip(t *testing.T) {
	b := benzene()
	pyridine, err := b.Substitute(2, "n")
	require.NoError(t, err)
	assert.Equal(t, "c1ncccc1", render(t, pyridine))

	back, err := pyridine.Substitute(2, "c")
	require.NoError(t, err)
	assert.Equal(t, "c1ccccc1", render(t, back))
	assert.Empty(t, back.Substitutions())

	// receivers are untouched
	assert.Equal(t, "c1ccccc1", render(t, b))
	assert.Equal(t, "c1ncccc1", render(t, pyridine))
}

func TestRing_SubstituteMultiple(t *testing.T) {
	r, err := benzene().SubstituteMultiple(map[int]string{1: "n", 4: "n"})
	require.NoError(t, err)
	assert.Equal(t, "n1ccncc1", render(t, r))

	_, err = benzene().SubstituteMultiple(map[int]string{9: "n"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPosition))
}

func TestRing_Attach(t *testing.T) {
	toluene, err := benzene().Attach(1, MustLinear("C"))
	require.NoError(t, err)
	assert.Equal(t, "c1(C)ccccc1", render(t, toluene))

	_, err = benzene().Attach(7, MustLinear("C"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPosition))

	_, err = benzene().Attach(3, MustLinear("C"), AttachOptions{Inline: true})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPosition))

	tail, err := benzene().Attach(6, MustLinear("C", "O"), AttachOptions{Inline: true})
	require.NoError(t, err)
	assert.Equal(t, "c1ccccc1CO", render(t, tail))

	both, err := tail.Attach(6, MustLinear("F"))
	require.NoError(t, err)
	assert.Equal(t, "c1ccccc1(F)CO", render(t, both))
}

func TestRing_BranchDepths(t *testing.T) {
	r, err := NewRing(RingConfig{Atom: "C", Size: 5, BranchDepths: []int{0, 0, 0, 1, 1}})
	require.NoError(t, err)
	assert.Equal(t, "C1CC(CC1)", render(t, r))
	assert.Equal(t, []int{0, 0, 0, 1, 1}, r.BranchDepths())
}

func TestRing_Bonds(t *testing.T) {
	r, err := NewRing(RingConfig{
		Atom:  "C",
		Size:  6,
		Bonds: []Bond{BondDouble, "", BondDouble, "", BondDouble, ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "C1=CC=CC=C1", render(t, r))
	assert.Equal(t, BondDouble, r.BondBefore(2))
	assert.Equal(t, BondImplicit, r.ClosureBond())

	closed, err := NewRing(RingConfig{Atom: "C", Size: 3, Bonds: []Bond{"", "", BondDouble}})
	require.NoError(t, err)
	assert.Equal(t, "C1CC=1", render(t, closed))
}

func TestRing_Mirror(t *testing.T) {
	pyridine, err := benzene().Substitute(2, "n")
	require.NoError(t, err)

	m, err := pyridine.Mirror(0)
	require.NoError(t, err)
	assert.Equal(t, "c1ncccn1", render(t, m))

	_, err = pyridine.Mirror(9)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPosition))
}

func TestRing_MirrorAttachmentsGetFreshNumbers(t *testing.T) {
	r, err := benzene().Attach(2, MustRing("C", 3, 2))
	require.NoError(t, err)
	m, err := r.Mirror(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, m.RingNumbers())
	assert.Equal(t, "c1c(C2CC2)cccc1(C3CC3)", render(t, m))
}

func TestRing_WithRingNumber(t *testing.T) {
	r, err := benzene().WithRingNumber(12)
	require.NoError(t, err)
	assert.Equal(t, "c%12ccccc%12", render(t, r))

	_, err = benzene().WithRingNumber(0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRingNumber))
}

func TestRing_ConfigIsACopy(t *testing.T) {
	pyridine, err := benzene().Substitute(2, "n")
	require.NoError(t, err)
	cfg := pyridine.Config()
	cfg.Substitutions[3] = "o"
	assert.Equal(t, "c1ncccc1", render(t, pyridine))
}

func TestRing_Repeat(t *testing.T) {
	chain, err := benzene().Repeat(2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "c1ccccc1c2ccccc2", render(t, chain))

	branched, err := benzene().Repeat(2, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, "c1ccc(c2ccccc2)cc1", render(t, branched))

	_, err = benzene().Repeat(2, 3, 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPosition))
}
