package script

import (
	"github.com/clawinfra/popgenlab/internal/value"
)

// Parser is a recursive-descent parser over a token stream.
type Parser struct {
	toks []Token
	pos  int
}

// ParseProgram parses a sequence of statements (no script-block wrapper)
// into a single NProgram node — the form used by evaluate(),
// executeLambda() and doCall()'s argument scripts.
func ParseProgram(src string) (*Node, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	var stmts []*Node
	for !p.at(EOF) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	prog := newNode(NProgram, Token{Kind: EOF}, stmts...)
	return Optimize(prog), nil
}

func (p *Parser) cur() Token     { return p.toks[p.pos] }
func (p *Parser) at(k Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k Kind) (Token, error) {
	if !p.at(k) {
		return Token{}, newError(value.KindParse, p.cur().Pos, "expected %s, found %s", k, p.cur().Kind)
	}
	return p.advance(), nil
}

// ---- statements -----------------------------------------------------------

func (p *Parser) parseStatement() (*Node, error) {
	switch p.cur().Kind {
	case LBrace:
		return p.parseCompound()
	case KwIf:
		return p.parseIf()
	case KwDo:
		return p.parseDoWhile()
	case KwWhile:
		return p.parseWhile()
	case KwFor:
		return p.parseForIn()
	case KwNext:
		tok := p.advance()
		if _, err := p.expect(Semi); err != nil {
			return nil, err
		}
		return newNode(NNext, tok), nil
	case KwBreak:
		tok := p.advance()
		if _, err := p.expect(Semi); err != nil {
			return nil, err
		}
		return newNode(NBreak, tok), nil
	case KwReturn:
		tok := p.advance()
		if p.at(Semi) {
			p.advance()
			return newNode(NReturn, tok), nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Semi); err != nil {
			return nil, err
		}
		return newNode(NReturn, tok, e), nil
	default:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Semi); err != nil {
			return nil, err
		}
		return newNode(NExprStmt, e.Tok, e), nil
	}
}

func (p *Parser) parseCompound() (*Node, error) {
	open, err := p.expect(LBrace)
	if err != nil {
		return nil, err
	}
	var stmts []*Node
	for !p.at(RBrace) && !p.at(EOF) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(RBrace); err != nil {
		return nil, err
	}
	return newNode(NCompound, open, stmts...), nil
}

func (p *Parser) parseIf() (*Node, error) {
	tok := p.advance()
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	children := []*Node{cond, then}
	if p.at(KwElse) {
		p.advance()
		els, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		children = append(children, els)
	}
	return newNode(NIf, tok, children...), nil
}

func (p *Parser) parseDoWhile() (*Node, error) {
	tok := p.advance()
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwWhile); err != nil {
		return nil, err
	}
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(Semi); err != nil {
		return nil, err
	}
	return newNode(NDoWhile, tok, body, cond), nil
}

func (p *Parser) parseWhile() (*Node, error) {
	tok := p.advance()
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return newNode(NWhile, tok, cond, body), nil
}

func (p *Parser) parseForIn() (*Node, error) {
	p.advance()
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	idTok, err := p.expect(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KwIn); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	n := newNode(NForIn, idTok, iter, body)
	return n, nil
}

// ---- expressions, lowest to highest precedence -----------------------------

func (p *Parser) parseExpr() (*Node, error) { return p.parseAssign() }

func (p *Parser) parseAssign() (*Node, error) {
	lhs, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.at(Assign) {
		tok := p.advance()
		if !isAssignable(lhs) {
			return nil, newError(value.KindParse, tok.Pos, "left-hand side of assignment must be a variable, subscript, or member access")
		}
		rhs, err := p.parseAssign() // right-associative
		if err != nil {
			return nil, err
		}
		return newNode(NAssign, tok, lhs, rhs), nil
	}
	return lhs, nil
}

func isAssignable(n *Node) bool {
	switch n.Kind {
	case NIdent, NSubscript, NMember:
		return true
	default:
		return false
	}
}

func (p *Parser) parseOr() (*Node, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(Pipe) {
		tok := p.advance()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = newNode(NLogical, tok, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseAnd() (*Node, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(Amp) {
		tok := p.advance()
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = newNode(NLogical, tok, lhs, rhs)
	}
	return lhs, nil
}

var compareKinds = map[Kind]bool{Lt: true, Le: true, Gt: true, Ge: true, EqEq: true, Ne: true}

func (p *Parser) parseEquality() (*Node, error) {
	lhs, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	for compareKinds[p.cur().Kind] {
		tok := p.advance()
		rhs, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		lhs = newNode(NCompare, tok, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseRange() (*Node, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at(Colon) {
		tok := p.advance()
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = newNode(NRange, tok, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseAdditive() (*Node, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(Plus) || p.at(Minus) {
		tok := p.advance()
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = newNode(NBinary, tok, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseMultiplicative() (*Node, error) {
	lhs, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	for p.at(Star) || p.at(Slash) || p.at(Percent) {
		tok := p.advance()
		rhs, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		lhs = newNode(NBinary, tok, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseExponent() (*Node, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.at(Caret) {
		tok := p.advance()
		rhs, err := p.parseExponent() // right-associative
		if err != nil {
			return nil, err
		}
		return newNode(NBinary, tok, lhs, rhs), nil
	}
	return lhs, nil
}

func (p *Parser) parseUnary() (*Node, error) {
	if p.at(Plus) || p.at(Minus) || p.at(Bang) {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return newNode(NUnary, tok, operand), nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (*Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case LParen:
			tok := p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RParen); err != nil {
				return nil, err
			}
			n = newNode(NCall, tok, append([]*Node{n}, args...)...)
		case LBracket:
			tok := p.advance()
			var idx *Node
			if !p.at(RBracket) {
				idx, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			} else {
				idx = newNode(NConstant, Token{Kind: KwNull})
			}
			if _, err := p.expect(RBracket); err != nil {
				return nil, err
			}
			n = newNode(NSubscript, tok, n, idx)
		case Dot:
			p.advance()
			member, err := p.expect(Ident)
			if err != nil {
				return nil, err
			}
			n = newNode(NMember, member, n)
		default:
			return n, nil
		}
	}
}

func (p *Parser) parseArgs() ([]*Node, error) {
	var args []*Node
	if p.at(RParen) {
		return args, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.at(Comma) {
			p.advance()
			continue
		}
		break
	}
	return args, nil
}

func (p *Parser) parsePrimary() (*Node, error) {
	tok := p.cur()
	switch tok.Kind {
	case IntLit:
		p.advance()
		return newNode(NIntLit, tok), nil
	case FloatLit:
		p.advance()
		return newNode(NFloatLit, tok), nil
	case StringLit:
		p.advance()
		return newNode(NStringLit, tok), nil
	case KwT, KwF, KwNull, KwInf, KwNaN, KwE, KwPi:
		p.advance()
		return newNode(NConstant, tok), nil
	case Ident:
		p.advance()
		return newNode(NIdent, tok), nil
	case LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen); err != nil {
			return nil, err
		}
		return e, nil
	case Minus, Plus, Bang:
		return p.parseUnary()
	default:
		return nil, newError(value.KindParse, tok.Pos, "unexpected token %s", tok.Kind)
	}
}
