package script

import (
	"github.com/clawinfra/popgenlab/internal/value"
)

// BuiltinFunc is the signature every builtin in builtins.go implements:
// given already-evaluated, already-signature-checked arguments, produce a
// result Value or an error.
type BuiltinFunc func(it *Interpreter, args []*value.Value) (*value.Value, error)

// Builtin pairs a callable's Signature with its Go implementation.
type Builtin struct {
	Sig  *value.Signature
	Impl BuiltinFunc
}

// UserFunction is a script-defined function or lambda: a parameter
// signature plus a body block. The symbol table active at definition
// time is NOT retained — functions are dynamically scoped over the
// caller's global scope.
type UserFunction struct {
	Sig  *value.Signature
	Body *Node
}

// Interpreter walks a parsed AST against a SymbolTable and a registry of
// builtins/user functions. It carries no goroutines or
// mutexes: a single Interpreter is used from one goroutine at a time,
// matching the single-threaded cooperative evaluation model of the
// simulation core.
type Interpreter struct {
	Symbols  *SymbolTable
	Builtins map[string]*Builtin
	Funcs    map[string]*UserFunction

	// Context is an arbitrary host-supplied value (e.g. the active
	// simulation/subpopulation) that builtins may type-assert out of to
	// reach host state. The script layer never inspects its contents.
	Context interface{}
}

// NewInterpreter returns an Interpreter with a fresh global scope and the
// builtin table installed.
func NewInterpreter() *Interpreter {
	it := &Interpreter{
		Symbols:  NewSymbolTable(),
		Builtins: make(map[string]*Builtin),
		Funcs:    make(map[string]*UserFunction),
	}
	RegisterBuiltins(it)
	return it
}

// signalKind distinguishes the three non-local control transfers
// (next, break, return) from an ordinary completed statement.
type signalKind uint8

const (
	sigNone signalKind = iota
	sigNext
	sigBreak
	sigReturn
)

type signal struct {
	kind signalKind
	val  *value.Value
}

// Run evaluates a top-level program node (as produced by ParseProgram),
// returning the value of the last statement that produced one per
// evaluate()'s "last statement is the result" convention, or NULL if no
// statement produced a value. A top-level return ends the run with its
// value.
func (it *Interpreter) Run(prog *Node) (*value.Value, error) {
	var last *value.Value = value.NewNull()
	for _, stmt := range prog.Children {
		v, sig, err := it.execStmt(stmt)
		if err != nil {
			return nil, err
		}
		if sig.kind == sigReturn {
			return sig.val, nil
		}
		if v != nil {
			last = v
		}
	}
	return last, nil
}

// execStmt evaluates one statement, returning the value it produced (for
// expression statements, so Run can report it), any pending non-local
// control signal, and an error.
func (it *Interpreter) execStmt(n *Node) (*value.Value, signal, error) {
	switch n.Kind {
	case NExprStmt:
		v, err := it.eval(n.Children[0])
		if err != nil {
			return nil, signal{}, err
		}
		return v, signal{}, nil

	case NCompound:
		if n.FastPathConst {
			return n.CachedValue, signal{}, nil
		}
		it.Symbols.PushScope()
		defer it.Symbols.PopScope()
		var last *value.Value
		for _, s := range n.Children {
			v, sig, err := it.execStmt(s)
			if err != nil {
				return nil, signal{}, err
			}
			if sig.kind != sigNone {
				return v, sig, nil
			}
			if v != nil {
				last = v
			}
		}
		return last, signal{}, nil

	case NIf:
		cond, err := it.eval(n.Children[0])
		if err != nil {
			return nil, signal{}, err
		}
		truth, err := cond.Truthy()
		if err != nil {
			return nil, signal{}, wrap(n.Tok.Pos, err)
		}
		if truth {
			return it.execStmt(n.Children[1])
		}
		if len(n.Children) > 2 {
			return it.execStmt(n.Children[2])
		}
		return nil, signal{}, nil

	case NWhile:
		for {
			cond, err := it.eval(n.Children[0])
			if err != nil {
				return nil, signal{}, err
			}
			truth, err := cond.Truthy()
			if err != nil {
				return nil, signal{}, wrap(n.Tok.Pos, err)
			}
			if !truth {
				break
			}
			_, sig, err := it.execStmt(n.Children[1])
			if err != nil {
				return nil, signal{}, err
			}
			if sig.kind == sigBreak {
				break
			}
			if sig.kind == sigReturn {
				return nil, sig, nil
			}
		}
		return nil, signal{}, nil

	case NDoWhile:
		for {
			_, sig, err := it.execStmt(n.Children[0])
			if err != nil {
				return nil, signal{}, err
			}
			if sig.kind == sigBreak {
				break
			}
			if sig.kind == sigReturn {
				return nil, sig, nil
			}
			cond, err := it.eval(n.Children[1])
			if err != nil {
				return nil, signal{}, err
			}
			truth, err := cond.Truthy()
			if err != nil {
				return nil, signal{}, wrap(n.Tok.Pos, err)
			}
			if !truth {
				break
			}
		}
		return nil, signal{}, nil

	case NForIn:
		iter, err := it.eval(n.Children[0])
		if err != nil {
			return nil, signal{}, err
		}
		name := n.Tok.Text
		for i := 0; i < iter.Count(); i++ {
			elem, err := value.Subscript(iter, value.NewIntSingleton(int64(i)))
			if err != nil {
				return nil, signal{}, wrap(n.Tok.Pos, err)
			}
			if err := it.Symbols.Define(name, elem); err != nil {
				return nil, signal{}, wrap(n.Tok.Pos, err)
			}
			_, sig, err := it.execStmt(n.Children[1])
			if err != nil {
				return nil, signal{}, err
			}
			if sig.kind == sigBreak {
				break
			}
			if sig.kind == sigReturn {
				return nil, sig, nil
			}
		}
		return nil, signal{}, nil

	case NNext:
		return nil, signal{kind: sigNext}, nil
	case NBreak:
		return nil, signal{kind: sigBreak}, nil
	case NReturn:
		if n.FastPathConst {
			return nil, signal{kind: sigReturn, val: n.CachedValue}, nil
		}
		if len(n.Children) == 0 {
			return nil, signal{kind: sigReturn, val: value.NewNull()}, nil
		}
		v, err := it.eval(n.Children[0])
		if err != nil {
			return nil, signal{}, err
		}
		return nil, signal{kind: sigReturn, val: v}, nil
	}
	return nil, signal{}, newError(value.KindInternal, n.Tok.Pos, "unhandled statement node kind %d", n.Kind)
}

// eval evaluates an expression node to a Value.
func (it *Interpreter) eval(n *Node) (*value.Value, error) {
	if n.CachedValue != nil {
		return n.CachedValue, nil
	}
	switch n.Kind {
	case NIdent:
		v, ok := it.Symbols.Lookup(n.Tok.Text)
		if !ok {
			return nil, newError(value.KindName, n.Tok.Pos, "undefined identifier %q", n.Tok.Text)
		}
		return v, nil

	case NAssign:
		return it.evalAssign(n)

	case NBinary:
		lhs, err := it.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		rhs, err := it.eval(n.Children[1])
		if err != nil {
			return nil, err
		}
		op, ok := arithOpFor(n.Tok.Kind)
		if !ok {
			return nil, newError(value.KindInternal, n.Tok.Pos, "unhandled binary operator")
		}
		v, err := value.BinaryArith(op, lhs, rhs)
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		return v, nil

	case NCompare:
		lhs, err := it.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		rhs, err := it.eval(n.Children[1])
		if err != nil {
			return nil, err
		}
		v, err := value.Compare(compareOpFor(n.Tok.Kind), lhs, rhs)
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		return v, nil

	case NLogical:
		lhs, err := it.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		rhs, err := it.eval(n.Children[1])
		if err != nil {
			return nil, err
		}
		op := value.OpAnd
		if n.Tok.Kind == Pipe {
			op = value.OpOr
		}
		v, err := value.BinaryLogical(op, lhs, rhs)
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		return v, nil

	case NRange:
		lhs, err := it.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		rhs, err := it.eval(n.Children[1])
		if err != nil {
			return nil, err
		}
		v, err := value.Range(lhs, rhs)
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		return v, nil

	case NUnary:
		operand, err := it.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		switch n.Tok.Kind {
		case Minus:
			v, err := value.NegateInt(operand)
			if err == nil {
				return v, nil
			}
			if operand.Type() == value.Float {
				out := make([]float64, operand.Count())
				for i := range out {
					out[i] = -operand.FloatAt(i)
				}
				return value.NewFloat(out), nil
			}
			return nil, wrap(n.Tok.Pos, err)
		case Plus:
			return operand, nil
		case Bang:
			v, err := value.Not(operand)
			if err != nil {
				return nil, wrap(n.Tok.Pos, err)
			}
			return v, nil
		}
		return nil, newError(value.KindInternal, n.Tok.Pos, "unhandled unary operator")

	case NSubscript:
		base, err := it.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		idx, err := it.eval(n.Children[1])
		if err != nil {
			return nil, err
		}
		v, err := value.Subscript(base, idx)
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		return v, nil

	case NMember:
		base, err := it.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		return it.evalMemberGet(n, base)

	case NCall:
		return it.evalCall(n)

	case NIntLit, NFloatLit, NStringLit, NConstant:
		return n.CachedValue, nil
	}
	return nil, newError(value.KindInternal, n.Tok.Pos, "unhandled expression node kind %d", n.Kind)
}

func arithOpFor(k Kind) (value.ArithOp, bool) {
	switch k {
	case Plus:
		return value.OpAdd, true
	case Minus:
		return value.OpSub, true
	case Star:
		return value.OpMul, true
	case Slash:
		return value.OpDiv, true
	case Percent:
		return value.OpMod, true
	case Caret:
		return value.OpPow, true
	}
	return 0, false
}

func compareOpFor(k Kind) value.CompareOp {
	switch k {
	case Lt:
		return value.OpLT
	case Le:
		return value.OpLE
	case Gt:
		return value.OpGT
	case Ge:
		return value.OpGE
	case EqEq:
		return value.OpEQ
	case Ne:
		return value.OpNE
	}
	return value.OpEQ
}

// evalAssign implements `=` over the three assignable shapes:
// bare identifier, subscript, and member-property.
func (it *Interpreter) evalAssign(n *Node) (*value.Value, error) {
	lhs, rhs := n.Children[0], n.Children[1]
	rv, err := it.eval(rhs)
	if err != nil {
		return nil, err
	}
	rv.SetInvisible(false)

	switch lhs.Kind {
	case NIdent:
		// Bind a copy, not the evaluated pointer: `y = x` must leave y and
		// x with independent backings so a later in-place subscript
		// assignment on one never shows through the other.
		cp := rv.Copy()
		if err := it.Symbols.Assign(lhs.Tok.Text, cp); err != nil {
			return nil, wrap(lhs.Tok.Pos, err)
		}
		return cp, nil

	case NSubscript:
		base, err := it.eval(lhs.Children[0])
		if err != nil {
			return nil, err
		}
		if base.IsSingleton() {
			base = base.MutableCopy()
			if err := it.rebind(lhs.Children[0], base); err != nil {
				return nil, err
			}
		}
		idx, err := it.eval(lhs.Children[1])
		if err != nil {
			return nil, err
		}
		if err := value.AssignSubscript(base, idx, rv); err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		return rv, nil

	case NMember:
		base, err := it.eval(lhs.Children[0])
		if err != nil {
			return nil, err
		}
		if err := it.evalMemberSet(lhs, base, rv); err != nil {
			return nil, err
		}
		return rv, nil
	}
	return nil, newError(value.KindInternal, n.Tok.Pos, "unsupported assignment target")
}

// rebind writes a value back into the identifier an assignment's base
// expression resolved from, used when subscript-assignment had to
// promote a singleton base to a mutable copy first.
func (it *Interpreter) rebind(base *Node, v *value.Value) error {
	if base.Kind != NIdent {
		return nil
	}
	return it.Symbols.Assign(base.Tok.Text, v)
}

func (it *Interpreter) evalMemberGet(n *Node, base *value.Value) (*value.Value, error) {
	if base.Type() != value.ObjectType {
		return nil, newError(value.KindType, n.Tok.Pos, "member access requires an object value, got %s", base.Type())
	}
	class := base.Class()
	if class == nil {
		return nil, newError(value.KindType, n.Tok.Pos, "object value carries no class")
	}
	prop, ok := class.Properties[n.Tok.Text]
	if !ok {
		return nil, newError(value.KindName, n.Tok.Pos, "%s has no property %q", class.Name, n.Tok.Text)
	}
	if base.Count() == 1 {
		v, err := prop.Get(base.ObjectAt(0))
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		return v, nil
	}
	var parts []*value.Value
	for i := 0; i < base.Count(); i++ {
		v, err := prop.Get(base.ObjectAt(i))
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		parts = append(parts, v)
	}
	v, err := value.Concat(parts...)
	if err != nil {
		return nil, wrap(n.Tok.Pos, err)
	}
	return v, nil
}

func (it *Interpreter) evalMemberSet(n *Node, base *value.Value, rv *value.Value) error {
	if base.Type() != value.ObjectType {
		return newError(value.KindType, n.Tok.Pos, "member assignment requires an object value, got %s", base.Type())
	}
	class := base.Class()
	prop, ok := class.Properties[n.Tok.Text]
	if !ok {
		return newError(value.KindName, n.Tok.Pos, "%s has no property %q", class.Name, n.Tok.Text)
	}
	if !prop.Writable {
		return newError(value.KindName, n.Tok.Pos, "%s.%s is a read-only property", class.Name, n.Tok.Text)
	}
	for i := 0; i < base.Count(); i++ {
		vi := rv
		if rv.Count() > 1 {
			var err error
			vi, err = value.Subscript(rv, value.NewIntSingleton(int64(i)))
			if err != nil {
				return wrap(n.Tok.Pos, err)
			}
		}
		if err := prop.Set(base.ObjectAt(i), vi); err != nil {
			return wrap(n.Tok.Pos, err)
		}
	}
	return nil
}

// evalCall dispatches NCall to either a method call on an object base
// (`obj.method(args)`, surfaced to the parser as an NCall whose callee is
// an NMember) or a free function/builtin lookup by identifier.
func (it *Interpreter) evalCall(n *Node) (*value.Value, error) {
	callee := n.Children[0]
	rawArgs := n.Children[1:]

	if callee.Kind == NMember {
		return it.evalMethodCall(n, callee, rawArgs)
	}
	if callee.Kind != NIdent {
		return nil, newError(value.KindType, n.Tok.Pos, "call target is not callable")
	}
	name := callee.Tok.Text

	args := make([]*value.Value, len(rawArgs))
	for i, a := range rawArgs {
		v, err := it.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	b := callee.resolvedBuiltin
	if b == nil {
		if found, ok := it.Builtins[name]; ok {
			b = found
			callee.resolvedBuiltin = found
		}
	}
	if b != nil {
		if err := CheckArgs(b.Sig, args); err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		v, err := b.Impl(it, args)
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		return v, nil
	}
	if fn, ok := it.Funcs[name]; ok {
		return it.callUserFunction(n, fn, args)
	}
	return nil, newError(value.KindName, n.Tok.Pos, "undefined function %q", name)
}

func (it *Interpreter) evalMethodCall(n *Node, member *Node, rawArgs []*Node) (*value.Value, error) {
	base, err := it.eval(member.Children[0])
	if err != nil {
		return nil, err
	}
	if base.Type() != value.ObjectType {
		return nil, newError(value.KindType, n.Tok.Pos, "method call requires an object value, got %s", base.Type())
	}
	class := base.Class()
	method, ok := class.Methods[member.Tok.Text]
	if !ok {
		return nil, newError(value.KindName, n.Tok.Pos, "%s has no method %q", class.Name, member.Tok.Text)
	}
	args := make([]*value.Value, len(rawArgs))
	for i, a := range rawArgs {
		v, err := it.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if err := CheckArgs(method.Signature, args); err != nil {
		return nil, wrap(n.Tok.Pos, err)
	}
	if base.Count() == 1 {
		v, err := method.Call(base.ObjectAt(0), args)
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		return v, nil
	}
	var results []*value.Value
	for i := 0; i < base.Count(); i++ {
		v, err := method.Call(base.ObjectAt(i), args)
		if err != nil {
			return nil, wrap(n.Tok.Pos, err)
		}
		results = append(results, v)
	}
	v, err := value.Concat(results...)
	if err != nil {
		return nil, wrap(n.Tok.Pos, err)
	}
	return v, nil
}

// callUserFunction binds fn's declared parameters to args in a fresh
// scope and executes its body, honoring an early `return`.
func (it *Interpreter) callUserFunction(n *Node, fn *UserFunction, args []*value.Value) (*value.Value, error) {
	if err := CheckArgs(fn.Sig, args); err != nil {
		return nil, wrap(n.Tok.Pos, err)
	}
	it.Symbols.PushScope()
	defer it.Symbols.PopScope()
	for i, spec := range fn.Sig.Args {
		if spec.Ellipsis {
			rest, err := value.Concat(args[i:]...)
			if err != nil {
				return nil, wrap(n.Tok.Pos, err)
			}
			if err := it.Symbols.Define(spec.Name, rest); err != nil {
				return nil, wrap(n.Tok.Pos, err)
			}
			break
		}
		if i < len(args) {
			// Parameters bind copies for the same value semantics as
			// identifier assignment.
			if err := it.Symbols.Define(spec.Name, args[i].Copy()); err != nil {
				return nil, wrap(n.Tok.Pos, err)
			}
		}
	}
	_, sig, err := it.execStmt(fn.Body)
	if err != nil {
		return nil, err
	}
	ret := sig.val
	if ret == nil {
		ret = value.NewNull()
	}
	if err := CheckReturn(fn.Sig, ret); err != nil {
		return nil, wrap(n.Tok.Pos, err)
	}
	return ret, nil
}

// CallByName invokes a builtin or user-defined function by name against
// already-evaluated arguments — the mechanism behind doCall().
func (it *Interpreter) CallByName(name string, args []*value.Value) (*value.Value, error) {
	if b, ok := it.Builtins[name]; ok {
		if err := CheckArgs(b.Sig, args); err != nil {
			return nil, err
		}
		return b.Impl(it, args)
	}
	if fn, ok := it.Funcs[name]; ok {
		if err := CheckArgs(fn.Sig, args); err != nil {
			return nil, err
		}
		it.Symbols.PushScope()
		defer it.Symbols.PopScope()
		for i, spec := range fn.Sig.Args {
			if spec.Ellipsis {
				rest, err := value.Concat(args[i:]...)
				if err != nil {
					return nil, err
				}
				if err := it.Symbols.Define(spec.Name, rest); err != nil {
					return nil, err
				}
				break
			}
			if i < len(args) {
				if err := it.Symbols.Define(spec.Name, args[i].Copy()); err != nil {
					return nil, err
				}
			}
		}
		_, sig, err := it.execStmt(fn.Body)
		if err != nil {
			return nil, err
		}
		ret := sig.val
		if ret == nil {
			ret = value.NewNull()
		}
		if err := CheckReturn(fn.Sig, ret); err != nil {
			return nil, err
		}
		return ret, nil
	}
	return nil, newErr(value.KindName, "doCall: undefined function %q", name)
}

// ExecuteLambda parses and runs a short expression/statement body against
// the interpreter's current symbol table — the mechanism behind the
// executeLambda() builtin and the engine's evaluate().
func (it *Interpreter) ExecuteLambda(src string) (*value.Value, error) {
	prog, err := ParseProgram(src)
	if err != nil {
		return nil, err
	}
	return it.Run(prog)
}
