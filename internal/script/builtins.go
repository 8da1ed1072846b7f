package script

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/clawinfra/popgenlab/internal/value"
)

func sig(name string, ret value.Mask, args ...value.ArgSpec) *value.Signature {
	return &value.Signature{Name: name, ReturnMask: ret, Args: args}
}

func arg(name string, mask value.Mask) value.ArgSpec { return value.ArgSpec{Name: name, Mask: mask} }

func optArg(name string, mask value.Mask) value.ArgSpec {
	return value.ArgSpec{Name: name, Mask: mask, Optional: true}
}

func ellipsisArg(name string, mask value.Mask) value.ArgSpec {
	return value.ArgSpec{Name: name, Mask: mask, Ellipsis: true, Optional: true}
}

func singletonArg(name string, mask value.Mask) value.ArgSpec {
	return value.ArgSpec{Name: name, Mask: mask, Singleton: true}
}

// RegisterBuiltins installs the core builtin function set: vector
// construction, reduction, elementwise math, string
// formatting and predicate/introspection helpers. Domain-specific
// builtins (randomness, population/genome accessors) are registered
// separately by the bridge package against the same Interpreter.
func RegisterBuiltins(it *Interpreter) {
	reg := func(name string, s *value.Signature, f BuiltinFunc) {
		it.Builtins[name] = &Builtin{Sig: s, Impl: f}
	}

	reg("c", sig("c", value.MaskAny, ellipsisArg("x", value.MaskAny)), biConcat)
	reg("rep", sig("rep", value.MaskAny, arg("x", value.MaskAny), singletonArg("count", value.MaskInt)), biRep)
	reg("seq", sig("seq", value.MaskNumeric, singletonArg("from", value.MaskNumeric), singletonArg("to", value.MaskNumeric), optArg("by", value.MaskNumeric)), biSeq)
	reg("length", sig("length", value.MaskInt, arg("x", value.MaskAny)), biLength)
	reg("size", sig("size", value.MaskInt, arg("x", value.MaskAny)), biLength)

	reg("sum", sig("sum", value.MaskNumeric, arg("x", value.MaskNumeric)), biSum)
	reg("product", sig("product", value.MaskNumeric, arg("x", value.MaskNumeric)), biProduct)
	reg("mean", sig("mean", value.MaskFloat, arg("x", value.MaskNumeric)), biMean)
	reg("sd", sig("sd", value.MaskFloat, arg("x", value.MaskNumeric)), biSD)
	reg("min", sig("min", value.MaskNumeric, arg("x", value.MaskNumeric)), biMin)
	reg("max", sig("max", value.MaskNumeric, arg("x", value.MaskNumeric)), biMax)
	reg("range", sig("range", value.MaskNumeric, arg("x", value.MaskNumeric)), biRangeFn)

	reg("abs", sig("abs", value.MaskNumeric, arg("x", value.MaskNumeric)), biAbs)
	reg("sqrt", sig("sqrt", value.MaskFloat, arg("x", value.MaskNumeric)), biMathUnary(math.Sqrt))
	reg("exp", sig("exp", value.MaskFloat, arg("x", value.MaskNumeric)), biMathUnary(math.Exp))
	reg("log", sig("log", value.MaskFloat, arg("x", value.MaskNumeric)), biMathUnary(math.Log))
	reg("log10", sig("log10", value.MaskFloat, arg("x", value.MaskNumeric)), biMathUnary(math.Log10))
	reg("round", sig("round", value.MaskFloat, arg("x", value.MaskNumeric)), biMathUnary(math.Round))
	reg("ceil", sig("ceil", value.MaskFloat, arg("x", value.MaskNumeric)), biMathUnary(math.Ceil))
	reg("floor", sig("floor", value.MaskFloat, arg("x", value.MaskNumeric)), biMathUnary(math.Floor))

	reg("paste", sig("paste", value.MaskString, ellipsisArg("x", value.MaskAny)), biPaste(" "))
	reg("paste0", sig("paste0", value.MaskString, ellipsisArg("x", value.MaskAny)), biPaste(""))
	reg("print", sig("print", value.MaskNull, arg("x", value.MaskAny)), biPrint)
	reg("cat", sig("cat", value.MaskNull, ellipsisArg("x", value.MaskAny)), biCat)

	reg("isNULL", sig("isNULL", value.MaskLogical, arg("x", value.MaskAny)), biIsNull)
	reg("identical", sig("identical", value.MaskLogical, arg("x", value.MaskAny), arg("y", value.MaskAny)), biIdentical)
	reg("which", sig("which", value.MaskInt, arg("x", value.MaskLogical)), biWhich)
	reg("any", sig("any", value.MaskLogical, arg("x", value.MaskLogical)), biAny)
	reg("all", sig("all", value.MaskLogical, arg("x", value.MaskLogical)), biAll)
	reg("rev", sig("rev", value.MaskAny, arg("x", value.MaskAny)), biRev)
	reg("sort", sig("sort", value.MaskNumeric|value.MaskString, arg("x", value.MaskNumeric|value.MaskString), optArg("ascending", value.MaskLogical)), biSort)

	reg("asInteger", sig("asInteger", value.MaskInt, arg("x", value.MaskAny)), biAsInteger)
	reg("asFloat", sig("asFloat", value.MaskFloat, arg("x", value.MaskAny)), biAsFloat)
	reg("asString", sig("asString", value.MaskString, arg("x", value.MaskAny)), biAsString)
	reg("asLogical", sig("asLogical", value.MaskLogical, arg("x", value.MaskAny)), biAsLogical)

	reg("repEach", sig("repEach", value.MaskAny, arg("x", value.MaskAny), arg("count", value.MaskInt)), biRepEach)
	reg("match", sig("match", value.MaskInt, arg("x", value.MaskAnyBase), arg("table", value.MaskAnyBase)), biMatch)

	reg("rm", sig("rm", value.MaskNull, singletonArg("name", value.MaskString), optArg("force", value.MaskLogical)), biRm)
	reg("defineConstant", sig("defineConstant", value.MaskAny, singletonArg("name", value.MaskString), arg("value", value.MaskAny)), biDefineConstant)
	reg("apply", sig("apply", value.MaskAny, arg("x", value.MaskAny), singletonArg("lambda", value.MaskString)), biApply)
	reg("executeLambda", sig("executeLambda", value.MaskAny, singletonArg("lambda", value.MaskString)), biExecuteLambda)
	reg("doCall", sig("doCall", value.MaskAny, singletonArg("name", value.MaskString), ellipsisArg("args", value.MaskAny)), biDoCall)
}

func biConcat(it *Interpreter, args []*value.Value) (*value.Value, error) {
	return value.Concat(args...)
}

func biRep(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x, count := args[0], args[1].IntAt(0)
	if count < 0 {
		return nil, fmt.Errorf("rep(): count must be non-negative")
	}
	var parts []*value.Value
	for i := int64(0); i < count; i++ {
		parts = append(parts, x)
	}
	return value.Concat(parts...)
}

func biSeq(it *Interpreter, args []*value.Value) (*value.Value, error) {
	from, to := args[0].AsFloat64(0), args[1].AsFloat64(0)
	by := 1.0
	if len(args) > 2 {
		by = args[2].AsFloat64(0)
	} else if to < from {
		by = -1.0
	}
	if by == 0 {
		return nil, fmt.Errorf("seq(): step must be non-zero")
	}
	allInt := args[0].Type() == value.Int && args[1].Type() == value.Int && by == math.Trunc(by)
	var floats []float64
	for x := from; (by > 0 && x <= to+1e-9) || (by < 0 && x >= to-1e-9); x += by {
		floats = append(floats, x)
	}
	if allInt {
		ints := make([]int64, len(floats))
		for i, f := range floats {
			ints[i] = int64(math.Round(f))
		}
		return value.NewInt(ints), nil
	}
	return value.NewFloat(floats), nil
}

func biLength(it *Interpreter, args []*value.Value) (*value.Value, error) {
	return value.NewIntSingleton(int64(args[0].Count())), nil
}

func biSum(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	if x.Type() == value.Int {
		var s int64
		for i := 0; i < x.Count(); i++ {
			s += x.IntAt(i)
		}
		return value.NewIntSingleton(s), nil
	}
	var s float64
	for i := 0; i < x.Count(); i++ {
		s += x.AsFloat64(i)
	}
	return value.NewFloatSingleton(s), nil
}

func biProduct(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	if x.Type() == value.Int {
		var p int64 = 1
		for i := 0; i < x.Count(); i++ {
			p *= x.IntAt(i)
		}
		return value.NewIntSingleton(p), nil
	}
	p := 1.0
	for i := 0; i < x.Count(); i++ {
		p *= x.AsFloat64(i)
	}
	return value.NewFloatSingleton(p), nil
}

func biMean(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	if x.Count() == 0 {
		return value.NewFloatSingleton(math.NaN()), nil
	}
	var s float64
	for i := 0; i < x.Count(); i++ {
		s += x.AsFloat64(i)
	}
	return value.NewFloatSingleton(s / float64(x.Count())), nil
}

func biSD(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	n := x.Count()
	if n < 2 {
		return value.NewFloatSingleton(math.NaN()), nil
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += x.AsFloat64(i)
	}
	mean := sum / float64(n)
	var ss float64
	for i := 0; i < n; i++ {
		d := x.AsFloat64(i) - mean
		ss += d * d
	}
	return value.NewFloatSingleton(math.Sqrt(ss / float64(n-1))), nil
}

func biMin(it *Interpreter, args []*value.Value) (*value.Value, error) {
	return reduceExtreme(args[0], false)
}

func biMax(it *Interpreter, args []*value.Value) (*value.Value, error) {
	return reduceExtreme(args[0], true)
}

func reduceExtreme(x *value.Value, wantMax bool) (*value.Value, error) {
	if x.Count() == 0 {
		return nil, fmt.Errorf("min()/max(): empty vector")
	}
	if x.Type() == value.Int {
		best := x.IntAt(0)
		for i := 1; i < x.Count(); i++ {
			v := x.IntAt(i)
			if (wantMax && v > best) || (!wantMax && v < best) {
				best = v
			}
		}
		return value.NewIntSingleton(best), nil
	}
	best := x.AsFloat64(0)
	for i := 1; i < x.Count(); i++ {
		v := x.AsFloat64(i)
		if (wantMax && v > best) || (!wantMax && v < best) {
			best = v
		}
	}
	return value.NewFloatSingleton(best), nil
}

func biRangeFn(it *Interpreter, args []*value.Value) (*value.Value, error) {
	lo, err := reduceExtreme(args[0], false)
	if err != nil {
		return nil, err
	}
	hi, err := reduceExtreme(args[0], true)
	if err != nil {
		return nil, err
	}
	return value.Concat(lo, hi)
}

func biAbs(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	if x.Type() == value.Int {
		out := make([]int64, x.Count())
		for i := range out {
			v := x.IntAt(i)
			if v < 0 {
				v = -v
			}
			out[i] = v
		}
		return value.NewInt(out), nil
	}
	out := make([]float64, x.Count())
	for i := range out {
		out[i] = math.Abs(x.AsFloat64(i))
	}
	return value.NewFloat(out), nil
}

func biMathUnary(f func(float64) float64) BuiltinFunc {
	return func(it *Interpreter, args []*value.Value) (*value.Value, error) {
		x := args[0]
		out := make([]float64, x.Count())
		for i := range out {
			out[i] = f(x.AsFloat64(i))
		}
		return value.NewFloat(out), nil
	}
}

func biPaste(sep string) BuiltinFunc {
	return func(it *Interpreter, args []*value.Value) (*value.Value, error) {
		n := 0
		for _, a := range args {
			if a.Count() > n {
				n = a.Count()
			}
		}
		if n == 0 {
			return value.NewStringSingleton(""), nil
		}
		out := make([]string, n)
		for i := 0; i < n; i++ {
			var parts []string
			for _, a := range args {
				parts = append(parts, stringifyElement(a, i))
			}
			out[i] = strings.Join(parts, sep)
		}
		if n == 1 {
			return value.NewStringSingleton(out[0]), nil
		}
		return value.NewString(out), nil
	}
}

func stringifyElement(v *value.Value, i int) string {
	idx := i
	if v.Count() == 1 {
		idx = 0
	}
	if idx >= v.Count() {
		return ""
	}
	switch v.Type() {
	case value.Logical:
		if v.LogicalAt(idx) {
			return "T"
		}
		return "F"
	case value.Int:
		return strconv.FormatInt(v.IntAt(idx), 10)
	case value.Float:
		return strconv.FormatFloat(v.FloatAt(idx), 'g', -1, 64)
	case value.String:
		return v.StringAt(idx)
	case value.Null:
		return "NULL"
	default:
		return "object"
	}
}

func biPrint(it *Interpreter, args []*value.Value) (*value.Value, error) {
	fmt.Println(formatValue(args[0]))
	return value.NewNull(), nil
}

func biCat(it *Interpreter, args []*value.Value) (*value.Value, error) {
	var parts []string
	for _, a := range args {
		for i := 0; i < a.Count(); i++ {
			parts = append(parts, stringifyElement(a, i))
		}
		if a.Count() == 0 {
			parts = append(parts, "")
		}
	}
	fmt.Print(strings.Join(parts, " "))
	return value.NewNull(), nil
}

func formatValue(v *value.Value) string {
	if v.Type() == value.Null {
		return "NULL"
	}
	var parts []string
	for i := 0; i < v.Count(); i++ {
		parts = append(parts, stringifyElement(v, i))
	}
	return strings.Join(parts, " ")
}

func biIsNull(it *Interpreter, args []*value.Value) (*value.Value, error) {
	return value.NewLogicalSingleton(args[0].Type() == value.Null), nil
}

func biIdentical(it *Interpreter, args []*value.Value) (*value.Value, error) {
	a, b := args[0], args[1]
	if a.Type() != b.Type() || a.Count() != b.Count() {
		return value.NewLogicalSingleton(false), nil
	}
	for i := 0; i < a.Count(); i++ {
		if stringifyElement(a, i) != stringifyElement(b, i) {
			return value.NewLogicalSingleton(false), nil
		}
	}
	return value.NewLogicalSingleton(true), nil
}

func biWhich(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	var out []int64
	for i := 0; i < x.Count(); i++ {
		if x.LogicalAt(i) {
			out = append(out, int64(i))
		}
	}
	return value.NewInt(out), nil
}

func biAny(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	for i := 0; i < x.Count(); i++ {
		if x.LogicalAt(i) {
			return value.NewLogicalSingleton(true), nil
		}
	}
	return value.NewLogicalSingleton(false), nil
}

func biAll(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	for i := 0; i < x.Count(); i++ {
		if !x.LogicalAt(i) {
			return value.NewLogicalSingleton(false), nil
		}
	}
	return value.NewLogicalSingleton(true), nil
}

func biRev(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	n := x.Count()
	idx := make([]int64, n)
	for i := 0; i < n; i++ {
		idx[i] = int64(n - 1 - i)
	}
	return value.Subscript(x, value.NewInt(idx))
}

func biSort(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	ascending := true
	if len(args) > 1 {
		ascending = args[1].LogicalAt(0)
	}
	n := x.Count()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	less := func(i, j int) bool {
		if x.Type() == value.String {
			return x.StringAt(idx[i]) < x.StringAt(idx[j])
		}
		return x.AsFloat64(idx[i]) < x.AsFloat64(idx[j])
	}
	sort.SliceStable(idx, func(i, j int) bool {
		if ascending {
			return less(i, j)
		}
		return less(j, i)
	})
	idx64 := make([]int64, n)
	for i, p := range idx {
		idx64[i] = int64(p)
	}
	return value.Subscript(x, value.NewInt(idx64))
}

func biAsInteger(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	out := make([]int64, x.Count())
	for i := range out {
		switch x.Type() {
		case value.Int:
			out[i] = x.IntAt(i)
		case value.Float:
			out[i] = int64(x.FloatAt(i))
		case value.Logical:
			if x.LogicalAt(i) {
				out[i] = 1
			}
		case value.String:
			n, err := strconv.ParseInt(x.StringAt(i), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("asInteger(): cannot convert %q to integer", x.StringAt(i))
			}
			out[i] = n
		}
	}
	return value.NewInt(out), nil
}

func biAsFloat(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	out := make([]float64, x.Count())
	for i := range out {
		switch x.Type() {
		case value.Int, value.Logical:
			out[i] = x.AsFloat64(i)
		case value.Float:
			out[i] = x.FloatAt(i)
		case value.String:
			f, err := strconv.ParseFloat(x.StringAt(i), 64)
			if err != nil {
				return nil, fmt.Errorf("asFloat(): cannot convert %q to float", x.StringAt(i))
			}
			out[i] = f
		}
	}
	return value.NewFloat(out), nil
}

func biAsString(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	out := make([]string, x.Count())
	for i := range out {
		out[i] = stringifyElement(x, i)
	}
	return value.NewString(out), nil
}

func biAsLogical(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	out := make([]bool, x.Count())
	for i := range out {
		switch x.Type() {
		case value.Logical:
			out[i] = x.LogicalAt(i)
		case value.Int:
			out[i] = x.IntAt(i) != 0
		case value.Float:
			out[i] = x.FloatAt(i) != 0
		case value.String:
			out[i] = x.StringAt(i) == "T" || x.StringAt(i) == "true"
		}
	}
	return value.NewLogical(out), nil
}

// biRepEach implements repEach(x, count): element i of
// x is repeated count[i] times; a singleton count broadcasts to every
// element, matching rep()'s broadcast convention.
func biRepEach(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x, counts := args[0], args[1]
	n := x.Count()
	if counts.Count() != 1 && counts.Count() != n {
		return nil, fmt.Errorf("repEach(): count must have length 1 or %d, got %d", n, counts.Count())
	}
	var parts []*value.Value
	for i := 0; i < n; i++ {
		c := counts.IntAt(0)
		if counts.Count() > 1 {
			c = counts.IntAt(i)
		}
		if c < 0 {
			return nil, fmt.Errorf("repEach(): count must be non-negative")
		}
		elem, err := value.Subscript(x, value.NewIntSingleton(int64(i)))
		if err != nil {
			return nil, err
		}
		for j := int64(0); j < c; j++ {
			parts = append(parts, elem)
		}
	}
	return value.Concat(parts...)
}

// biMatch implements match(x, table): for each
// element of x, the 0-based index of its first equal element in table,
// or -1 if none.
func biMatch(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x, table := args[0], args[1]
	out := make([]int64, x.Count())
	for i := 0; i < x.Count(); i++ {
		out[i] = -1
		xi, err := value.Subscript(x, value.NewIntSingleton(int64(i)))
		if err != nil {
			return nil, err
		}
		for j := 0; j < table.Count(); j++ {
			tj, err := value.Subscript(table, value.NewIntSingleton(int64(j)))
			if err != nil {
				return nil, err
			}
			eq, err := value.Compare(value.OpEQ, xi, tj)
			if err != nil {
				return nil, err
			}
			ok, err := eq.Truthy()
			if err != nil {
				return nil, err
			}
			if ok {
				out[i] = int64(j)
				break
			}
		}
	}
	return value.NewInt(out), nil
}

// biRm implements rm(name[, force]): removes name from the
// variables table. The optional second argument is accepted for
// compatibility with call sites that pass it explicitly, but removal of
// a constant is refused either way — SymbolTable.Remove already enforces
// that regardless of force.
func biRm(it *Interpreter, args []*value.Value) (*value.Value, error) {
	name := args[0].StringAt(0)
	if err := it.Symbols.Remove(name); err != nil {
		return nil, err
	}
	return value.NewNull(), nil
}

// biDefineConstant implements defineConstant(name, value):
// promotes name into the protected constants table. The bound value is
// returned, marked invisible so the definition itself does not
// auto-print.
func biDefineConstant(it *Interpreter, args []*value.Value) (*value.Value, error) {
	name := args[0].StringAt(0)
	// Store a copy so the constant can never alias a variable (or a
	// cached AST literal) that a later in-place mutation would change
	// behind the constants table's back.
	v := args[1].Copy()
	if err := it.Symbols.DefineConstant(name, v); err != nil {
		return nil, err
	}
	v.SetInvisible(true)
	return v, nil
}

// biApply implements apply(x, lambda): lambda is evaluated once
// per element of x with applyValue bound to that element in a fresh
// inner scope, and the per-element results are concatenated by c()'s
// rules.
func biApply(it *Interpreter, args []*value.Value) (*value.Value, error) {
	x := args[0]
	lambda := args[1].StringAt(0)
	prog, err := ParseProgram(lambda)
	if err != nil {
		return nil, err
	}
	var results []*value.Value
	for i := 0; i < x.Count(); i++ {
		elem, err := value.Subscript(x, value.NewIntSingleton(int64(i)))
		if err != nil {
			return nil, err
		}
		it.Symbols.PushScope()
		if err := it.Symbols.Define("applyValue", elem); err != nil {
			it.Symbols.PopScope()
			return nil, err
		}
		v, err := it.Run(prog)
		it.Symbols.PopScope()
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return value.Concat(results...)
}

// biExecuteLambda implements executeLambda(s): parses and
// evaluates s in the current scope, without pushing a new one.
func biExecuteLambda(it *Interpreter, args []*value.Value) (*value.Value, error) {
	return it.ExecuteLambda(args[0].StringAt(0))
}

// biDoCall implements doCall(name, ...): invokes a builtin or
// user-defined function by name with already-evaluated arguments.
func biDoCall(it *Interpreter, args []*value.Value) (*value.Value, error) {
	name := args[0].StringAt(0)
	rest := args[1:]
	return it.CallByName(name, rest)
}
