// Package script implements the build-script language the decompiler emits:
// single-assignment bindings of constructor calls and method chains over the
// structural algebra.
//
//	v1 = Linear(["C"])
//	v2 = Ring("c", 6).attach(1, v1)
package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

// TokenType identifies the type of a script token.
type TokenType int

const (
	TokIdent TokenType = iota
	TokInt
	TokString
	TokTrue
	TokFalse

	TokLParen    // (
	TokRParen    // )
	TokLBracket  // [
	TokRBracket  // ]
	TokLBrace    // {
	TokRBrace    // }
	TokColon     // :
	TokComma     // ,
	TokDot       // .
	TokEquals    // =
	TokSemicolon // ;

	TokEOF
)

// Token is a single script token. Value holds the decoded literal for
// strings and the source text otherwise.
type Token struct {
	Type   TokenType
	Value  string
	Offset int
}

var punctuation = map[byte]TokenType{
	'(': TokLParen,
	')': TokRParen,
	'[': TokLBracket,
	']': TokRBracket,
	'{': TokLBrace,
	'}': TokRBrace,
	':': TokColon,
	',': TokComma,
	'.': TokDot,
	'=': TokEquals,
	';': TokSemicolon,
}

type scanner struct {
	source string
	pos    int
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			s.pos++
		case ch == '#':
			for !s.atEnd() && s.peek() != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// unquote decodes a double- or single-quoted literal with Go escapes.
func unquote(lit string) (string, error) {
	if lit[0] == '\'' {
		inner := strings.ReplaceAll(lit[1:len(lit)-1], `\'`, "'")
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		lit = `"` + inner + `"`
	}
	return strconv.Unquote(lit)
}

func syntaxError(offset int, msg string) error {
	return errors.NewAt(errors.ErrCodeScriptSyntax, offset, msg)
}

// Tokenize splits a build script into tokens, ending with TokEOF.
func Tokenize(source string) ([]Token, error) {
	s := &scanner{source: source}
	var tokens []Token
	for {
		s.skipWhitespaceAndComments()
		if s.atEnd() {
			tokens = append(tokens, Token{Type: TokEOF, Offset: s.pos})
			return tokens, nil
		}
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

func (s *scanner) next() (Token, error) {
	start := s.pos
	ch := s.peek()

	if typ, ok := punctuation[ch]; ok {
		s.pos++
		return Token{Type: typ, Value: string(ch), Offset: start}, nil
	}

	switch {
	case isAlpha(ch):
		for !s.atEnd() && (isAlpha(s.peek()) || isDigit(s.peek())) {
			s.pos++
		}
		word := s.source[start:s.pos]
		switch word {
		case "true":
			return Token{Type: TokTrue, Value: word, Offset: start}, nil
		case "false":
			return Token{Type: TokFalse, Value: word, Offset: start}, nil
		}
		return Token{Type: TokIdent, Value: word, Offset: start}, nil

	case isDigit(ch) || (ch == '-' && isDigit(s.peekAt(1))):
		s.pos++
		for !s.atEnd() && isDigit(s.peek()) {
			s.pos++
		}
		return Token{Type: TokInt, Value: s.source[start:s.pos], Offset: start}, nil

	case ch == '"' || ch == '\'':
		s.pos++
		for !s.atEnd() && s.peek() != ch {
			if s.peek() == '\\' {
				s.pos++
			}
			s.pos++
		}
		if s.atEnd() {
			return Token{}, syntaxError(start, "unterminated string")
		}
		s.pos++
		value, err := unquote(s.source[start:s.pos])
		if err != nil {
			return Token{}, syntaxError(start, "invalid string escape")
		}
		return Token{Type: TokString, Value: value, Offset: start}, nil
	}

	return Token{}, syntaxError(start, fmt.Sprintf("unexpected character %q", ch))
}
