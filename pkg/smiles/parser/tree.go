package parser

import (
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
	"github.com/turtacn/smiles-algebra/pkg/smiles/lexer"
)

// mark is one ring-closure marker. Both markers of a pair share pair.
type mark struct {
	number int
	bond   ast.Bond
	pair   int
}

type atom struct {
	text     string
	bond     ast.Bond
	marks    []mark
	branches []*chain
	// pairs counts the markers of every pair inside this atom and its branches.
	pairs map[int]int
}

type chain struct {
	atoms []*atom
	pairs map[int]int
}

// builder turns a checked token vector into a tree of chains.
type builder struct {
	tokens []lexer.Token
	pos    int
	open   map[int]int
	pairs  int
}

func buildTree(tokens []lexer.Token) *chain {
	b := &builder{tokens: tokens, open: make(map[int]int)}
	root := b.chain()
	root.count()
	return root
}

func (b *builder) chain() *chain {
	c := &chain{}
	var bond ast.Bond
	for b.pos < len(b.tokens) {
		t := b.tokens[b.pos]
		switch t.Kind {
		case lexer.Bond:
			bond = ast.Bond(t.Text)
		case lexer.Atom:
			c.atoms = append(c.atoms, &atom{text: t.Text, bond: bond})
			bond = ast.BondImplicit
		case lexer.RingMarker:
			a := c.atoms[len(c.atoms)-1]
			pair, ok := b.open[t.Ring]
			if ok {
				delete(b.open, t.Ring)
			} else {
				pair = b.pairs
				b.pairs++
				b.open[t.Ring] = pair
			}
			a.marks = append(a.marks, mark{number: t.Ring, bond: bond, pair: pair})
			bond = ast.BondImplicit
		case lexer.BranchOpen:
			b.pos++
			sub := b.chain()
			a := c.atoms[len(c.atoms)-1]
			a.branches = append(a.branches, sub)
		case lexer.BranchClose:
			return c
		}
		b.pos++
	}
	return c
}

func (c *chain) count() map[int]int {
	c.pairs = make(map[int]int)
	for _, a := range c.atoms {
		a.pairs = make(map[int]int)
		for _, m := range a.marks {
			a.pairs[m.pair]++
		}
		for _, br := range a.branches {
			for p, n := range br.count() {
				a.pairs[p] += n
			}
		}
		for p, n := range a.pairs {
			c.pairs[p] += n
		}
	}
	return c.pairs
}

// crossing reports whether c holds a marker whose partner lies outside it.
func (c *chain) crossing() bool {
	for _, n := range c.pairs {
		if n == 1 {
			return true
		}
	}
	return false
}
