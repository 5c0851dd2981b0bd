package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/smiles-algebra/pkg/errors"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

func TestTokenize_Texts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"ethanol", "CCO", []string{"C", "C", "O"}},
		{"chlorine", "CCl", []string{"C", "Cl"}},
		{"bromobenzene", "Brc1ccccc1", []string{"Br", "c", "1", "c", "c", "c", "c", "c", "1"}},
		{"thioanisole keeps S before aromatic c", "CSc1ccccc1", []string{"C", "S", "c", "1", "c", "c", "c", "c", "c", "1"}},
		{"unknown pair degrades to one letter", "Cc", []string{"C", "c"}},
		{"bracket atom is opaque", "[C@@H](N)O", []string{"[C@@H]", "(", "N", ")", "O"}},
		{"bracket with charge", "[nH+]", []string{"[nH+]"}},
		{"bonds", `C=C#N/C\F-C`, []string{"C", "=", "C", "#", "N", "/", "C", `\`, "F", "-", "C"}},
		{"two-digit ring", "C%10CC%10", []string{"C", "%10", "C", "C", "%10"}},
		{"indium pair reads as I then n", "In", []string{"I", "n"}},
		{"dot is rejected", "[Na+].", nil},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if tt.want == nil {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(tokens))
		})
	}
}

func TestTokenize_KindsAndPayloads(t *testing.T) {
	tokens, err := Tokenize("c1(=O)%42")
	require.NoError(t, err)

	assert.Equal(t, []Kind{Atom, RingMarker, BranchOpen, Bond, Atom, BranchClose, RingMarker}, kinds(tokens))
	assert.Equal(t, Aromatic, tokens[0].Class)
	assert.Equal(t, 1, tokens[1].Ring)
	assert.Equal(t, Aliphatic, tokens[4].Class)
	assert.Equal(t, 42, tokens[6].Ring)
	assert.Equal(t, 6, tokens[6].Start)
	assert.Equal(t, 9, tokens[6].End)
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		code   errors.ErrorCode
		offset int
	}{
		{"unclosed bracket", "CC[NH", errors.ErrCodeUnclosedBracket, 2},
		{"bad escape one digit", "C%1", errors.ErrCodeInvalidRingEscape, 1},
		{"bad escape letter", "C%a1", errors.ErrCodeInvalidRingEscape, 1},
		{"whitespace", "C C", errors.ErrCodeInvalidCharacter, 1},
		{"dot", "C.C", errors.ErrCodeInvalidCharacter, 1},
		{"wildcard", "*C", errors.ErrCodeInvalidCharacter, 0},
		{"unbracketed hydrogen", "H", errors.ErrCodeInvalidCharacter, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
			off, ok := errors.GetOffset(err)
			require.True(t, ok)
			assert.Equal(t, tt.offset, off)
		})
	}
}

func TestTokenize_ReturnsTokensBeforeError(t *testing.T) {
	tokens, err := Tokenize("C=C C")
	require.Error(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "C", tokens[2].Text)
	assert.Equal(t, 3, tokens[2].End)

	tokens, err = Tokenize("[NH")
	require.Error(t, err)
	assert.Empty(t, tokens)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ring", RingMarker.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
