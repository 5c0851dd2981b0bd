// Package parser reads SMILES into the structural tree of package ast.
//
// Parsing runs in three passes: a syntax check over the token vector (shared
// with the validator), a parse tree of chains and branches with paired ring
// markers, and a classification pass that turns ring segments into Ring or
// FusedRing values and the atoms between them into Linear runs.
package parser

import (
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
	"github.com/turtacn/smiles-algebra/pkg/smiles/lexer"
)

// Parse tokenizes and parses smiles.
func Parse(smiles string) (ast.Node, error) {
	tokens, err := lexer.Tokenize(smiles)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

// ParseTokens parses an already tokenized string.
func ParseTokens(tokens []lexer.Token) (ast.Node, error) {
	if err := CheckSyntax(tokens); err != nil {
		return nil, err
	}
	return convert(buildTree(tokens))
}

// Validate checks smiles without building a tree.
func Validate(smiles string) error {
	tokens, err := lexer.Tokenize(smiles)
	if err != nil {
		return err
	}
	return CheckSyntax(tokens)
}
