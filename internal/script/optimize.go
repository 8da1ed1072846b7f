package script

import (
	"math"

	"github.com/clawinfra/popgenlab/internal/value"
)

// Optimize walks a freshly-parsed tree and performs the post-parse
// passes: literal caching (so the interpreter never re-parses a numeric
// or string literal's text), folding of unary minus applied to an
// integer literal (binary operators over literals are not folded), and
// fast-path propagation for compound
// statements and return statements whose body collapsed to a single
// constant. It returns its argument (mutated in place) for convenience.
func Optimize(n *Node) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		Optimize(c)
	}
	switch n.Kind {
	case NIntLit:
		iv, _ := parseDecimalInt64(expandedOrSelf(n.Tok.Text))
		n.CachedValue = value.NewIntSingleton(iv)
	case NFloatLit:
		n.CachedValue = value.NewFloatSingleton(parseFloatLiteral(n.Tok.Text))
	case NStringLit:
		n.CachedValue = value.NewStringSingleton(n.Tok.Text)
	case NConstant:
		n.CachedValue = constantValue(n.Tok.Kind)
	case NUnary:
		if n.Tok.Kind == Minus && n.Children[0].CachedValue != nil {
			if cv := n.Children[0].CachedValue; cv.Type() == value.Int && cv.Count() == 1 {
				n.CachedValue = value.NewIntSingleton(-cv.IntAt(0))
			}
		}
	case NCompound:
		if len(n.Children) == 1 && n.Children[0].Kind == NExprStmt && n.Children[0].Children[0].CachedValue != nil {
			n.FastPathConst = true
			n.CachedValue = n.Children[0].Children[0].CachedValue
		}
	case NReturn:
		if len(n.Children) == 1 && n.Children[0].CachedValue != nil {
			n.FastPathConst = true
			n.CachedValue = n.Children[0].CachedValue
		}
	}
	return n
}

func expandedOrSelf(text string) string {
	s, ok := expandIntExponent(text)
	if !ok {
		return text
	}
	return s
}

func parseFloatLiteral(text string) float64 {
	var f float64
	var frac float64 = 1
	inFrac := false
	neg := false
	i := 0
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		neg = text[i] == '-'
		i++
	}
	for ; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= '0' && c <= '9':
			if inFrac {
				frac /= 10
				f += float64(c-'0') * frac
			} else {
				f = f*10 + float64(c-'0')
			}
		case c == '.':
			inFrac = true
		case c == 'e' || c == 'E':
			exp := parseExp(text[i+1:])
			f *= pow10(exp)
			i = len(text)
		}
	}
	if neg {
		f = -f
	}
	return f
}

func parseExp(s string) int {
	neg := false
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	n := 0
	for ; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func pow10(n int) float64 {
	r := 1.0
	if n >= 0 {
		for i := 0; i < n; i++ {
			r *= 10
		}
		return r
	}
	for i := 0; i < -n; i++ {
		r /= 10
	}
	return r
}

func constantValue(k Kind) *value.Value {
	switch k {
	case KwT:
		return value.NewLogicalSingleton(true)
	case KwF:
		return value.NewLogicalSingleton(false)
	case KwNull:
		return value.NewNull()
	case KwInf:
		return value.NewFloatSingleton(math.Inf(1))
	case KwNaN:
		return value.NewFloatSingleton(math.NaN())
	case KwE:
		return value.NewFloatSingleton(math.E)
	case KwPi:
		return value.NewFloatSingleton(math.Pi)
	default:
		return value.NewNull()
	}
}
