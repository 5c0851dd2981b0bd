// Package lexer splits a SMILES string into atoms, bonds, branch delimiters and
// ring-closure markers. It performs no structural validation beyond what each
// token needs on its own.
package lexer

import (
	"fmt"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// Kind identifies the type of a token.
type Kind int

const (
	Atom Kind = iota
	Bond
	BranchOpen
	BranchClose
	RingMarker
)

func (k Kind) String() string {
	switch k {
	case Atom:
		return "atom"
	case Bond:
		return "bond"
	case BranchOpen:
		return "branch-open"
	case BranchClose:
		return "branch-close"
	case RingMarker:
		return "ring"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AtomClass distinguishes the three atom spellings.
type AtomClass int

const (
	NotAtom AtomClass = iota
	Aliphatic
	Aromatic
	Bracket
)

// Token is a single lexical unit. Text is the exact source slice [Start, End).
type Token struct {
	Kind  Kind
	Class AtomClass
	Text  string
	Start int
	End   int
	// Ring is the ring-closure number for RingMarker tokens.
	Ring int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q @%d", t.Kind, t.Text, t.Start)
}

// organic is the unbracketed one-letter aliphatic subset.
var organic = map[byte]bool{
	'B': true, 'C': true, 'N': true, 'O': true, 'P': true, 'S': true, 'F': true, 'I': true,
}

var aromatic = map[byte]bool{
	'b': true, 'c': true, 'n': true, 'o': true, 'p': true, 's': true,
}

// twoLetter lists the element symbols recognised without brackets. Pairs whose
// first letter is an organic atom and whose second letter is an aromatic atom
// (Sc, Sn, Cs, Co, Cn, In, Nb, No, Np, Os, Po, Pb, Sb) are left out so that inputs
// like "CSc1ccccc1" keep reading as S followed by an aromatic carbon.
var twoLetter = map[string]bool{
	"Cl": true, "Br": true,
	"Li": true, "Be": true, "Na": true, "Mg": true, "Al": true, "Si": true,
	"Ca": true, "Ti": true, "Cr": true, "Mn": true, "Fe": true, "Ni": true,
	"Cu": true, "Zn": true, "Ga": true, "Ge": true, "As": true, "Se": true,
	"Kr": true, "Rb": true, "Sr": true, "Zr": true, "Mo": true, "Ru": true,
	"Rh": true, "Pd": true, "Ag": true, "Cd": true, "Te": true,
	"Xe": true, "Ba": true, "Pt": true, "Au": true, "Hg": true, "Tl": true,
	"Bi": true, "He": true, "Ne": true, "Ar": true,
}

var bonds = map[byte]bool{
	'-': true, '=': true, '#': true, '/': true, '\\': true,
}

type scanner struct {
	source string
	pos    int
	tokens []Token
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peekAt(offset int) byte {
	i := s.pos + offset
	if i >= len(s.source) {
		return 0
	}
	return s.source[i]
}

func (s *scanner) emit(kind Kind, class AtomClass, start int, ring int) {
	s.tokens = append(s.tokens, Token{
		Kind:  kind,
		Class: class,
		Text:  s.source[start:s.pos],
		Start: start,
		End:   s.pos,
		Ring:  ring,
	})
}

// Tokenize converts smiles into a token vector. An empty input yields an empty
// vector. The first lexical error stops the scan; the tokens read before it
// are returned alongside the error, which carries its offset.
func Tokenize(smiles string) ([]Token, error) {
	s := &scanner{source: smiles, tokens: make([]Token, 0, len(smiles))}
	for !s.atEnd() {
		if err := s.next(); err != nil {
			return s.tokens, err
		}
	}
	return s.tokens, nil
}

func (s *scanner) next() error {
	start := s.pos
	c := s.peekAt(0)

	switch {
	case c == '[':
		for i := s.pos + 1; i < len(s.source); i++ {
			if s.source[i] == ']' {
				s.pos = i + 1
				s.emit(Atom, Bracket, start, 0)
				return nil
			}
		}
		return errors.NewAt(errors.ErrCodeUnclosedBracket, start, "bracket atom has no closing ']'")

	case c >= 'A' && c <= 'Z':
		if n := s.peekAt(1); n >= 'a' && n <= 'z' && twoLetter[string([]byte{c, n})] {
			s.pos += 2
			s.emit(Atom, Aliphatic, start, 0)
			return nil
		}
		if !organic[c] {
			return errors.NewAt(errors.ErrCodeInvalidCharacter, start,
				fmt.Sprintf("%q is not an unbracketed element", c))
		}
		s.pos++
		s.emit(Atom, Aliphatic, start, 0)
		return nil

	case aromatic[c]:
		s.pos++
		s.emit(Atom, Aromatic, start, 0)
		return nil

	case c >= '0' && c <= '9':
		s.pos++
		s.emit(RingMarker, NotAtom, start, int(c-'0'))
		return nil

	case c == '%':
		d1, d2 := s.peekAt(1), s.peekAt(2)
		if !isDigit(d1) || !isDigit(d2) {
			return errors.NewAt(errors.ErrCodeInvalidRingEscape, start, "'%' must be followed by two digits")
		}
		s.pos += 3
		s.emit(RingMarker, NotAtom, start, int(d1-'0')*10+int(d2-'0'))
		return nil

	case c == '(':
		s.pos++
		s.emit(BranchOpen, NotAtom, start, 0)
		return nil

	case c == ')':
		s.pos++
		s.emit(BranchClose, NotAtom, start, 0)
		return nil

	case bonds[c]:
		s.pos++
		s.emit(Bond, NotAtom, start, 0)
		return nil
	}

	return errors.NewAt(errors.ErrCodeInvalidCharacter, start, fmt.Sprintf("unexpected character %q", c))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
