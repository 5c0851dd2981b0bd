package parser

import (
	"fmt"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles/lexer"
)

// state is the category of the previous token seen by the checker.
type state int

const (
	stStart state = iota
	stAtom
	stRing
	stBond
	stOpen
	stClose
)

func unexpected(t lexer.Token, reason string) error {
	return errors.NewAt(errors.ErrCodeUnexpectedToken, t.Start, reason).WithDetail(fmt.Sprintf("token=%q", t.Text))
}

// CheckSyntax verifies token order, branch balance and ring pairing without
// building a tree. It accepts exactly the token vectors ParseTokens accepts.
func CheckSyntax(tokens []lexer.Token) error {
	if len(tokens) == 0 {
		return errors.NewAt(errors.ErrCodeEmptyInput, 0, "empty SMILES")
	}

	type opener struct {
		atom int
		tok  lexer.Token
	}
	open := make(map[int]opener)
	depth, atoms := 0, 0
	prev, beforeBond := stStart, stStart

	for _, t := range tokens {
		switch t.Kind {
		case lexer.Atom:
			atoms++
			prev = stAtom

		case lexer.Bond:
			if prev == stBond {
				return unexpected(t, "two bonds in a row")
			}
			beforeBond = prev
			prev = stBond

		case lexer.RingMarker:
			switch {
			case prev == stAtom || prev == stRing:
			case prev == stBond && (beforeBond == stAtom || beforeBond == stRing):
			default:
				return unexpected(t, "ring marker must follow an atom")
			}
			if o, ok := open[t.Ring]; ok {
				if o.atom == atoms {
					return unexpected(t, fmt.Sprintf("ring %d closes on the atom that opened it", t.Ring))
				}
				delete(open, t.Ring)
			} else {
				open[t.Ring] = opener{atom: atoms, tok: t}
			}
			prev = stRing

		case lexer.BranchOpen:
			if prev != stAtom && prev != stRing && prev != stClose {
				return unexpected(t, "branch must follow an atom")
			}
			depth++
			prev = stOpen

		case lexer.BranchClose:
			if depth == 0 {
				return errors.NewAt(errors.ErrCodeUnbalancedBranches, t.Start, "')' without matching '('")
			}
			switch prev {
			case stOpen:
				return unexpected(t, "empty branch")
			case stBond:
				return unexpected(t, "bond without a following atom")
			}
			depth--
			prev = stClose
		}
	}

	last := tokens[len(tokens)-1]
	if prev == stBond {
		return unexpected(last, "bond without a following atom")
	}
	if len(open) > 0 {
		first := lexer.Token{Start: -1}
		for _, o := range open {
			if first.Start < 0 || o.tok.Start < first.Start {
				first = o.tok
			}
		}
		return errors.NewAt(errors.ErrCodeUnclosedRing, first.Start, fmt.Sprintf("ring %d is never closed", first.Ring))
	}
	if depth != 0 {
		return errors.NewAt(errors.ErrCodeUnbalancedBranches, last.End, fmt.Sprintf("%d branch(es) left open", depth))
	}
	return nil
}
