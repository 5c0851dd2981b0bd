package ast

import (
	"fmt"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// Bond is the literal bond symbol written before an atom or ring marker.
// The zero value is the implicit bond.
type Bond string

const (
	BondImplicit Bond = ""
	BondSingle   Bond = "-"
	BondDouble   Bond = "="
	BondTriple   Bond = "#"
	BondUp       Bond = "/"
	BondDown     Bond = `\`
)

// Valid reports whether b is one of the recognised symbols.
func (b Bond) Valid() bool {
	switch b {
	case BondImplicit, BondSingle, BondDouble, BondTriple, BondUp, BondDown:
		return true
	}
	return false
}

// ParseBond converts a symbol into a Bond.
func ParseBond(s string) (Bond, error) {
	b := Bond(s)
	if !b.Valid() {
		return BondImplicit, errors.New(errors.ErrCodeInvalidBond, "invalid bond symbol").
			WithDetail(fmt.Sprintf("symbol=%q", s))
	}
	return b, nil
}

func checkBonds(bonds ...Bond) error {
	for _, b := range bonds {
		if !b.Valid() {
			return errors.New(errors.ErrCodeInvalidBond, "invalid bond symbol").
				WithDetail(fmt.Sprintf("symbol=%q", string(b)))
		}
	}
	return nil
}

func allImplicit(bonds []Bond) bool {
	for _, b := range bonds {
		if b != BondImplicit {
			return false
		}
	}
	return true
}
