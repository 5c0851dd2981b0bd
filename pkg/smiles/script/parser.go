package script

import (
	"fmt"
	"strconv"
)

type parser struct {
	tokens []Token
	pos    int
}

// Parse tokenizes and parses a build script.
func Parse(source string) (*Program, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseProgram()
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() TokenType {
	return p.current().Type
}

func (p *parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != typ {
		return tok, syntaxError(tok.Offset, fmt.Sprintf("expected %s, got %s", tokenName(typ), describe(tok)))
	}
	return p.advance(), nil
}

func tokenName(t TokenType) string {
	switch t {
	case TokIdent:
		return "identifier"
	case TokInt:
		return "integer"
	case TokString:
		return "string"
	case TokLParen:
		return "'('"
	case TokRParen:
		return "')'"
	case TokLBracket:
		return "'['"
	case TokRBracket:
		return "']'"
	case TokLBrace:
		return "'{'"
	case TokRBrace:
		return "'}'"
	case TokColon:
		return "':'"
	case TokComma:
		return "','"
	case TokEquals:
		return "'='"
	case TokEOF:
		return "end of script"
	default:
		return fmt.Sprintf("token(%d)", t)
	}
}

func describe(tok Token) string {
	if tok.Type == TokEOF {
		return "end of script"
	}
	return fmt.Sprintf("'%s'", tok.Value)
}

// --- Program ---

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for p.peek() != TokEOF {
		name, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokEquals); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, Assign{Name: name.Value, Value: value, Offset: name.Offset})
		if p.peek() == TokSemicolon {
			p.advance()
		}
	}
	return prog, nil
}

// --- Expressions ---

func (p *parser) parseExpr() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek() == TokDot {
		p.advance()
		method, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		expr = &MethodCall{Recv: expr, Method: method.Value, Args: args, Offset: method.Offset}
	}
	return expr, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.current()
	switch tok.Type {
	case TokString:
		p.advance()
		return &StringLit{Value: tok.Value, Offset: tok.Offset}, nil
	case TokInt:
		p.advance()
		n, err := strconv.Atoi(tok.Value)
		if err != nil {
			return nil, syntaxError(tok.Offset, "integer out of range")
		}
		return &IntLit{Value: n, Offset: tok.Offset}, nil
	case TokTrue, TokFalse:
		p.advance()
		return &BoolLit{Value: tok.Type == TokTrue, Offset: tok.Offset}, nil
	case TokLBracket:
		return p.parseList()
	case TokLBrace:
		return p.parseObject()
	case TokIdent:
		p.advance()
		if p.peek() != TokLParen {
			return &Ref{Name: tok.Value, Offset: tok.Offset}, nil
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &Call{Func: tok.Value, Args: args, Offset: tok.Offset}, nil
	}
	return nil, syntaxError(tok.Offset, fmt.Sprintf("unexpected %s", describe(tok)))
}

// parseSeq reads expressions separated by commas up to close. A trailing
// comma is allowed.
func (p *parser) parseSeq(close TokenType) ([]Expr, error) {
	var out []Expr
	for p.peek() != close {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.peek() != TokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(close); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseArgs() ([]Expr, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	return p.parseSeq(TokRParen)
}

func (p *parser) parseList() (*ListExpr, error) {
	start := p.advance()
	elems, err := p.parseSeq(TokRBracket)
	if err != nil {
		return nil, err
	}
	return &ListExpr{Elems: elems, Offset: start.Offset}, nil
}

func (p *parser) parseObject() (*ObjectExpr, error) {
	start := p.advance()
	obj := &ObjectExpr{Offset: start.Offset}
	seen := make(map[string]bool)
	for p.peek() != TokRBrace {
		key := p.current()
		switch key.Type {
		case TokIdent, TokInt, TokString:
			p.advance()
		default:
			return nil, syntaxError(key.Offset, fmt.Sprintf("expected object key, got %s", describe(key)))
		}
		if key.Type == TokInt {
			n, err := strconv.Atoi(key.Value)
			if err != nil {
				return nil, syntaxError(key.Offset, "integer key out of range")
			}
			key.Value = strconv.Itoa(n)
		}
		if seen[key.Value] {
			return nil, syntaxError(key.Offset, fmt.Sprintf("duplicate key %q", key.Value))
		}
		seen[key.Value] = true
		if _, err := p.expect(TokColon); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		obj.Entries = append(obj.Entries, Entry{Key: key.Value, Value: value})
		if p.peek() != TokComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return obj, nil
}
