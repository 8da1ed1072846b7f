package script

import (
	"strings"

	"github.com/clawinfra/popgenlab/internal/value"
)

// Tokenize converts src into a flat token stream terminated by an EOF
// token. Tokenization errors carry the position of the offending
// token's first character.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{src: src}
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			break
		}
	}
	return toks, nil
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() (Token, error) {
	l.skipTrivia()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Pos: Pos(start)}, nil
	}
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		return l.lexIdent(), nil
	case isDigit(c):
		return l.lexNumber()
	case c == '\'' || c == '"':
		return l.lexString(c)
	case c == '<' && l.peekAt(1) == '<':
		return l.lexHeredoc()
	}

	// punctuation / operators, longest match first
	two := l.peek2()
	if k, ok := twoCharOps[two]; ok {
		l.pos += 2
		return Token{Kind: k, Text: two, Pos: Pos(start)}, nil
	}
	if k, ok := oneCharOps[c]; ok {
		l.pos++
		return Token{Kind: k, Text: string(c), Pos: Pos(start)}, nil
	}

	return Token{}, newError(value.KindTokenization, Pos(start), "unrecognized character %q", c)
}

var twoCharOps = map[string]Kind{
	"<=": Le, ">=": Ge, "==": EqEq, "!=": Ne,
}

var oneCharOps = map[byte]Kind{
	'(': LParen, ')': RParen, '{': LBrace, '}': RBrace,
	'[': LBracket, ']': RBracket, ';': Semi, ',': Comma,
	'.': Dot, ':': Colon, '=': Assign, '+': Plus, '-': Minus,
	'*': Star, '/': Slash, '%': Percent, '^': Caret, '!': Bang,
	'&': Amp, '|': Pipe, '<': Lt, '>': Gt,
}

func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekAt(1) == '*':
			l.pos += 2
			for l.pos < len(l.src) && !(l.src[l.pos] == '*' && l.peekAt(1) == '/') {
				l.pos++
			}
			l.pos += 2
		default:
			return
		}
	}
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) peek2() string {
	if l.pos+2 > len(l.src) {
		return ""
	}
	return l.src[l.pos : l.pos+2]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *lexer) lexIdent() Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if k, ok := keywords[text]; ok {
		return Token{Kind: k, Text: text, Pos: Pos(start)}
	}
	return Token{Kind: Ident, Text: text, Pos: Pos(start)}
}

// lexNumber implements the integer/float literal rules: a plain
// decimal run is an int; a decimal point, or an `e` exponent that would
// require a fraction (negative exponent, or a fractional mantissa) yields
// a float; a non-negative integer exponent that still denotes a whole
// number yields an int. Integer literals outside signed 64-bit range are
// rejected at tokenize time.
func (l *lexer) lexNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	isFloat := false
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		negExp := false
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			negExp = l.src[l.pos] == '-'
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
			if negExp {
				isFloat = true
			}
		} else {
			l.pos = save // not actually an exponent
		}
	}
	text := l.src[start:l.pos]
	if isFloat || strings.ContainsAny(text, ".") {
		return Token{Kind: FloatLit, Text: text, Pos: Pos(start)}, nil
	}
	expanded, ok := expandIntExponent(text)
	if !ok {
		return Token{}, newError(value.KindTokenization, Pos(start), "integer literal %q is out of signed 64-bit range", text)
	}
	if _, ok := parseDecimalInt64(expanded); !ok {
		return Token{}, newError(value.KindTokenization, Pos(start), "integer literal %q is out of signed 64-bit range", text)
	}
	return Token{Kind: IntLit, Text: text, Pos: Pos(start)}, nil
}

// expandIntExponent expands a non-negative-exponent integer literal like
// "12e3" into its plain decimal digit form "12000" so parseDecimalInt64
// can range-check it. Plain decimal literals pass through unchanged.
func expandIntExponent(text string) (string, bool) {
	i := strings.IndexAny(text, "eE")
	if i < 0 {
		return text, true
	}
	mantissa := text[:i]
	expDigits := text[i+1:]
	expDigits = strings.TrimPrefix(expDigits, "+")
	exp := 0
	for _, c := range expDigits {
		exp = exp*10 + int(c-'0')
		if exp > 30 {
			return "", false
		}
	}
	return mantissa + strings.Repeat("0", exp), true
}

// parseDecimalInt64 reports whether text is a plain (exponent-free)
// decimal literal that fits in a signed 64-bit integer.
func parseDecimalInt64(text string) (int64, bool) {
	if strings.ContainsAny(text, "eE.") {
		return 0, false
	}
	var n int64
	for i := 0; i < len(text); i++ {
		d := int64(text[i] - '0')
		if n > (1<<63-1-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

func (l *lexer) lexString(quote byte) (Token, error) {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, newError(value.KindTokenization, Pos(start), "unterminated string literal")
		}
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			break
		}
		if c == '\\' {
			l.pos++
			if l.pos >= len(l.src) {
				return Token{}, newError(value.KindTokenization, Pos(start), "unterminated string literal")
			}
			esc := l.src[l.pos]
			switch esc {
			case 't':
				b.WriteByte('\t')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case '\'':
				b.WriteByte('\'')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				return Token{}, newError(value.KindTokenization, Pos(start), "illegal escape sequence \\%c", esc)
			}
			l.pos++
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
	return Token{Kind: StringLit, Text: b.String(), Pos: Pos(start)}, nil
}

// lexHeredoc implements the `<<…>>` here-document string form: the
// raw bytes between the delimiters with no escape processing.
func (l *lexer) lexHeredoc() (Token, error) {
	start := l.pos
	l.pos += 2
	contentStart := l.pos
	for {
		if l.pos >= len(l.src) {
			return Token{}, newError(value.KindTokenization, Pos(start), "unterminated here-document")
		}
		if l.src[l.pos] == '>' && l.peekAt(1) == '>' {
			text := l.src[contentStart:l.pos]
			l.pos += 2
			return Token{Kind: StringLit, Text: text, Pos: Pos(start)}, nil
		}
		l.pos++
	}
}
