package value

import (
	"fmt"
	"math"
	"strconv"
)

// ---- concatenation -------------------------------------------------------

// Concat implements c(...): concatenate values by the type-promotion law
// (logical < int < float < string; object never mixes with a base
// type). NULL arguments contribute nothing. A run of only Object values
// concatenates into a vector Object value sharing the first non-nil class.
func Concat(vals ...*Value) (*Value, error) {
	highest := Null
	var class *Class
	sawObject, sawBase := false, false
	for _, v := range vals {
		if v == nil || v.typ == Null {
			continue
		}
		if v.typ == ObjectType {
			sawObject = true
			if class == nil {
				class = v.class
			}
			continue
		}
		sawBase = true
		if highest == Null {
			highest = v.typ
			continue
		}
		h, err := HigherType(highest, v.typ)
		if err != nil {
			return nil, newErr(KindType, "c(): %v", err)
		}
		highest = h
	}
	if sawObject && sawBase {
		return nil, newErr(KindType, "c(): cannot mix object and base-type values")
	}
	if sawObject {
		out := NewObject(class, nil)
		for _, v := range vals {
			if v == nil || v.typ != ObjectType {
				continue
			}
			out.objs = append(out.objs, v.objs...)
		}
		return out, nil
	}
	if highest == Null {
		return NewNull(), nil
	}
	out := &Value{typ: highest, ownership: OwnedTemporary}
	for _, v := range vals {
		if v == nil || v.typ == Null {
			continue
		}
		if err := appendCoerced(out, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func appendCoerced(dst *Value, src *Value) error {
	n := src.Count()
	for i := 0; i < n; i++ {
		switch dst.typ {
		case Logical:
			dst.appendLogical(src.logical[i])
		case Int:
			switch src.typ {
			case Logical:
				dst.appendInt(boolToInt(src.logical[i]))
			case Int:
				dst.appendInt(src.ints[i])
			default:
				return newErr(KindType, "c(): cannot narrow %s to int", src.typ)
			}
		case Float:
			dst.appendFloat(src.AsFloat64At(i))
		case String:
			dst.appendString(src.stringifyAt(i))
		default:
			return newErr(KindType, "c(): unsupported concatenation target %s", dst.typ)
		}
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// AsFloat64At coerces the element at i to float64 regardless of whether v
// is Logical, Int or Float typed.
func (v *Value) AsFloat64At(i int) float64 {
	switch v.typ {
	case Logical:
		if v.logical[i] {
			return 1
		}
		return 0
	case Int:
		return float64(v.ints[i])
	case Float:
		return v.floats[i]
	default:
		panic(fmt.Sprintf("value: AsFloat64At on non-numeric type %s", v.typ))
	}
}

func (v *Value) stringifyAt(i int) string {
	switch v.typ {
	case String:
		return v.strs[i]
	case Logical:
		if v.logical[i] {
			return "T"
		}
		return "F"
	case Int:
		return strconv.FormatInt(v.ints[i], 10)
	case Float:
		return strconv.FormatFloat(v.floats[i], 'g', -1, 64)
	default:
		return ""
	}
}

// ---- binary arithmetic ----------------------------------------------------

type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
)

// BinaryArith implements the `+ - * / % ^` operators. NULL is never
// a valid operand. `+` concatenates strings. Division, modulo and power
// always yield float. Integer +,-,* are checked for int64 overflow.
func BinaryArith(op ArithOp, a, b *Value) (*Value, error) {
	if a.typ == Null || b.typ == Null {
		return nil, newErr(KindType, "operator requires non-NULL operands")
	}
	if a.typ == ObjectType || b.typ == ObjectType {
		return nil, newErr(KindType, "operator does not accept object operands")
	}

	// `+` on strings: stringify the other operand and concatenate.
	if op == OpAdd && (a.typ == String || b.typ == String) {
		return stringConcat(a, b)
	}

	n, err := broadcastLen(a, b)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpDiv, OpMod, OpPow:
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			x, y := elemAt(a, i), elemAt(b, i)
			switch op {
			case OpDiv:
				out[i] = x / y // x/0 -> ±Inf, 0/0 -> NaN, matches IEEE-754 semantics directly
			case OpMod:
				out[i] = math.Mod(x, y)
			case OpPow:
				out[i] = math.Pow(x, y)
			}
		}
		return NewFloat(out), nil
	}

	// + - * : int stays int unless either side is float.
	higher, err := HigherType(a.typ, b.typ)
	if err != nil {
		return nil, err
	}
	if higher == Float {
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			x, y := elemAt(a, i), elemAt(b, i)
			switch op {
			case OpAdd:
				out[i] = x + y
			case OpSub:
				out[i] = x - y
			case OpMul:
				out[i] = x * y
			}
		}
		return NewFloat(out), nil
	}

	out := make([]int64, n)
	for i := 0; i < n; i++ {
		x, y := intElemAt(a, i), intElemAt(b, i)
		var r int64
		var overflow bool
		switch op {
		case OpAdd:
			r, overflow = addOverflows(x, y)
		case OpSub:
			r, overflow = subOverflows(x, y)
		case OpMul:
			r, overflow = mulOverflows(x, y)
		}
		if overflow {
			return nil, newErr(KindNumeric, "integer overflow in %d %s %d", x, arithSymbol(op), y)
		}
		out[i] = r
	}
	return NewInt(out), nil
}

func arithSymbol(op ArithOp) string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	default:
		return "?"
	}
}

func stringConcat(a, b *Value) (*Value, error) {
	n, err := broadcastLen(a, b)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = stringifyOperand(a, i) + stringifyOperand(b, i)
	}
	return NewString(out), nil
}

func stringifyOperand(v *Value, i int) string {
	idx := i
	if v.Count() == 1 {
		idx = 0
	}
	return v.stringifyAt(idx)
}

func broadcastLen(a, b *Value) (int, error) {
	na, nb := a.Count(), b.Count()
	if na == nb {
		return na, nil
	}
	if na == 1 || nb == 1 {
		if na > nb {
			return na, nil
		}
		return nb, nil
	}
	return 0, newErr(KindShape, "operator requires that either both operands have the same count, or one has count 1 (got %d and %d)", na, nb)
}

func elemAt(v *Value, i int) float64 {
	idx := i
	if v.Count() == 1 {
		idx = 0
	}
	return v.AsFloat64At(idx)
}

func intElemAt(v *Value, i int) int64 {
	idx := i
	if v.Count() == 1 {
		idx = 0
	}
	if v.typ == Logical {
		return boolToInt(v.logical[idx])
	}
	return v.ints[idx]
}

func addOverflows(a, b int64) (int64, bool) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, true
	}
	return r, false
}

func subOverflows(a, b int64) (int64, bool) {
	r := a - b
	if (b < 0 && r < a) || (b > 0 && r > a) {
		return 0, true
	}
	return r, false
}

func mulOverflows(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	r := a * b
	if r/b != a {
		return 0, true
	}
	return r, false
}

// NegateInt negates a singleton/vector int value, raising on overflow
// (negating INT64_MIN overflows).
func NegateInt(v *Value) (*Value, error) {
	out := make([]int64, v.Count())
	for i, x := range v.ints {
		if x == math.MinInt64 {
			return nil, newErr(KindNumeric, "integer overflow negating INT64_MIN")
		}
		out[i] = -x
	}
	return NewInt(out), nil
}

// ---- comparisons -----------------------------------------------------------

type CompareOp uint8

const (
	OpLT CompareOp = iota
	OpLE
	OpGT
	OpGE
	OpEQ
	OpNE
)

// Compare implements `< <= > >= == !=`. NaN compares unequal to
// everything including itself. Object-to-non-object comparisons raise.
// Differing base types coerce via the highest type present; string
// comparison is lexicographic.
func Compare(op CompareOp, a, b *Value) (*Value, error) {
	if a.typ == Null || b.typ == Null {
		return nil, newErr(KindType, "comparison of NULL is not permitted (use isNULL to test for NULL)")
	}
	if (a.typ == ObjectType) != (b.typ == ObjectType) {
		return nil, newErr(KindType, "cannot compare an object value to a non-object value")
	}
	n, err := broadcastLen(a, b)
	if err != nil {
		return nil, err
	}
	if a.typ == ObjectType {
		if op != OpEQ && op != OpNE {
			return nil, newErr(KindType, "object values only support == and != (identity comparison)")
		}
		out := make([]bool, n)
		for i := 0; i < n; i++ {
			ia, ib := i, i
			if a.Count() == 1 {
				ia = 0
			}
			if b.Count() == 1 {
				ib = 0
			}
			same := a.objs[ia] == b.objs[ib]
			if op == OpEQ {
				out[i] = same
			} else {
				out[i] = !same
			}
		}
		return NewLogical(out), nil
	}

	higher, err := HigherType(a.typ, b.typ)
	if err != nil {
		return nil, err
	}

	out := make([]bool, n)
	for i := 0; i < n; i++ {
		var cmp int
		nanInvolved := false
		if higher == String {
			sa, sb := stringifyOperand(a, i), stringifyOperand(b, i)
			switch {
			case sa < sb:
				cmp = -1
			case sa > sb:
				cmp = 1
			default:
				cmp = 0
			}
		} else {
			fa, fb := elemAt(a, i), elemAt(b, i)
			if fa != fa || fb != fb {
				nanInvolved = true
			} else {
				switch {
				case fa < fb:
					cmp = -1
				case fa > fb:
					cmp = 1
				default:
					cmp = 0
				}
			}
		}
		if nanInvolved {
			out[i] = op == OpNE
			continue
		}
		switch op {
		case OpLT:
			out[i] = cmp < 0
		case OpLE:
			out[i] = cmp <= 0
		case OpGT:
			out[i] = cmp > 0
		case OpGE:
			out[i] = cmp >= 0
		case OpEQ:
			out[i] = cmp == 0
		case OpNE:
			out[i] = cmp != 0
		}
	}
	return NewLogical(out), nil
}

// ---- logical ----------------------------------------------------------------

type LogicalOp uint8

const (
	OpAnd LogicalOp = iota
	OpOr
)

// BinaryLogical implements `& |`.
func BinaryLogical(op LogicalOp, a, b *Value) (*Value, error) {
	if a.typ == Null || b.typ == Null {
		return nil, newErr(KindType, "logical operator requires non-NULL operands")
	}
	n, err := broadcastLen(a, b)
	if err != nil {
		return nil, err
	}
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		x, err := boolAt(a, i)
		if err != nil {
			return nil, err
		}
		y, err := boolAt(b, i)
		if err != nil {
			return nil, err
		}
		if op == OpAnd {
			out[i] = x && y
		} else {
			out[i] = x || y
		}
	}
	return NewLogical(out), nil
}

func boolAt(v *Value, i int) (bool, error) {
	idx := i
	if v.Count() == 1 {
		idx = 0
	}
	switch v.typ {
	case Logical:
		return v.logical[idx], nil
	case Int:
		return v.ints[idx] != 0, nil
	case Float:
		f := v.floats[idx]
		if f != f {
			return false, newErr(KindType, "NaN cannot be coerced to logical")
		}
		return f != 0, nil
	default:
		return false, newErr(KindType, "value of type %s cannot be coerced to logical", v.typ)
	}
}

// Not implements unary `!`.
func Not(v *Value) (*Value, error) {
	n := v.Count()
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		b, err := boolAt(v, i)
		if err != nil {
			return nil, err
		}
		out[i] = !b
	}
	return NewLogical(out), nil
}

// ---- range -------------------------------------------------------------

// Range implements `a:b`: over ints, an ascending or descending
// contiguous int vector; over floats, a float vector stepping by ±1.0.
// NaN or infinite endpoints raise.
func Range(a, b *Value) (*Value, error) {
	if a.Count() != 1 || b.Count() != 1 {
		return nil, newErr(KindShape, "range operator requires singleton operands")
	}
	if a.typ == Float || b.typ == Float {
		fa, fb := a.AsFloat64At(0), b.AsFloat64At(0)
		if math.IsNaN(fa) || math.IsNaN(fb) || math.IsInf(fa, 0) || math.IsInf(fb, 0) {
			return nil, newErr(KindNumeric, "range endpoints must be finite")
		}
		var out []float64
		if fa <= fb {
			for x := fa; x <= fb+1e-9; x++ {
				out = append(out, x)
			}
		} else {
			for x := fa; x >= fb-1e-9; x-- {
				out = append(out, x)
			}
		}
		return NewFloat(out), nil
	}
	ia, ib := intElemAt(a, 0), intElemAt(b, 0)
	var out []int64
	if ia <= ib {
		for x := ia; x <= ib; x++ {
			out = append(out, x)
		}
	} else {
		for x := ia; x >= ib; x-- {
			out = append(out, x)
		}
	}
	return NewInt(out), nil
}

// ---- subscript -----------------------------------------------------------

// Subscript implements `x[idx]`.
func Subscript(x, idx *Value) (*Value, error) {
	if idx.typ == Null {
		if x.typ == Null {
			return NewNull(), nil
		}
		return nil, newErr(KindType, "NULL index on a non-NULL value is not permitted")
	}
	if idx.Count() == 0 {
		return emptyLike(x), nil
	}
	positions, err := resolveIndices(x, idx)
	if err != nil {
		return nil, err
	}
	out := emptyLike(x)
	for _, p := range positions {
		if p < 0 || p >= x.Count() {
			return nil, newErr(KindShape, "subscript index %d out of range [0,%d)", p, x.Count())
		}
		switch x.typ {
		case Logical:
			out.appendLogical(x.logical[p])
		case Int:
			out.appendInt(x.ints[p])
		case Float:
			out.appendFloat(x.floats[p])
		case String:
			out.appendString(x.strs[p])
		case ObjectType:
			out.appendObject(x.objs[p])
		}
	}
	return out, nil
}

func emptyLike(x *Value) *Value {
	if x.typ == ObjectType {
		return NewObject(x.class, nil)
	}
	return &Value{typ: x.typ, ownership: OwnedTemporary}
}

func resolveIndices(x, idx *Value) ([]int, error) {
	switch idx.typ {
	case Logical:
		if idx.Count() != x.Count() {
			return nil, newErr(KindShape, "logical index must have the same count as the subscripted value (got %d, want %d)", idx.Count(), x.Count())
		}
		var pos []int
		for i, b := range idx.logical {
			if b {
				pos = append(pos, i)
			}
		}
		return pos, nil
	case Int:
		pos := make([]int, len(idx.ints))
		for i, n := range idx.ints {
			pos[i] = int(n)
		}
		return pos, nil
	case Float:
		pos := make([]int, len(idx.floats))
		for i, f := range idx.floats {
			pos[i] = int(f)
		}
		return pos, nil
	default:
		return nil, newErr(KindType, "index must be int, float or logical, got %s", idx.typ)
	}
}

// AssignSubscript implements `x[idx] = v` in place. x must not be
// singleton. v.Count() must be 1 or idx.Count(); int may widen to float;
// NULL never assigns.
func AssignSubscript(x, idx, v *Value) error {
	if err := x.requireMutable(); err != nil {
		return err
	}
	if v.typ == Null {
		return newErr(KindType, "NULL cannot be assigned into a subscript")
	}
	positions, err := resolveIndices(x, idx)
	if err != nil {
		return err
	}
	if v.Count() != 1 && v.Count() != len(positions) {
		return newErr(KindShape, "assigned value count (%d) must be 1 or match the index count (%d)", v.Count(), len(positions))
	}
	for i, p := range positions {
		if p < 0 || p >= x.Count() {
			return newErr(KindShape, "subscript index %d out of range [0,%d)", p, x.Count())
		}
		vi := i
		if v.Count() == 1 {
			vi = 0
		}
		if err := assignOne(x, p, v, vi); err != nil {
			return err
		}
	}
	return nil
}

func assignOne(x *Value, p int, v *Value, vi int) error {
	switch x.typ {
	case Logical:
		if v.typ != Logical {
			return newErr(KindType, "cannot assign %s into a logical vector", v.typ)
		}
		x.logical[p] = v.logical[vi]
	case Int:
		if v.typ != Int {
			return newErr(KindType, "cannot assign %s into an int vector", v.typ)
		}
		x.ints[p] = v.ints[vi]
	case Float:
		switch v.typ {
		case Float:
			x.floats[p] = v.floats[vi]
		case Int:
			x.floats[p] = float64(v.ints[vi]) // int widens to float
		default:
			return newErr(KindType, "cannot assign %s into a float vector", v.typ)
		}
	case String:
		if v.typ != String {
			return newErr(KindType, "cannot assign %s into a string vector", v.typ)
		}
		x.strs[p] = v.strs[vi]
	case ObjectType:
		if v.typ != ObjectType {
			return newErr(KindType, "cannot assign %s into an object vector", v.typ)
		}
		x.objs[p] = v.objs[vi]
	}
	return nil
}
