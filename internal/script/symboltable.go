package script

import (
	"fmt"

	"github.com/clawinfra/popgenlab/internal/value"
)

// SymbolTable is a stack of lexical scopes. Global scope (index 0)
// holds constants defined with defineConstant(); constants cannot be
// reassigned or removed except through rm(), which is itself disallowed
// for names registered as constant.
type SymbolTable struct {
	scopes    []map[string]*value.Value
	constants map[string]bool
}

// NewSymbolTable returns a table with a single global scope.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		scopes:    []map[string]*value.Value{make(map[string]*value.Value)},
		constants: make(map[string]bool),
	}
}

func (t *SymbolTable) PushScope() {
	t.scopes = append(t.scopes, make(map[string]*value.Value))
}

func (t *SymbolTable) PopScope() {
	if len(t.scopes) <= 1 {
		return
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Lookup searches from the innermost scope outward.
func (t *SymbolTable) Lookup(name string) (*value.Value, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if v, ok := t.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Define binds name in the innermost scope, rejecting assignment to a
// name registered as a constant.
func (t *SymbolTable) Define(name string, v *value.Value) error {
	if t.constants[name] {
		return newErr(value.KindName, "identifier %q is a constant and cannot be redefined", name)
	}
	t.scopes[len(t.scopes)-1][name] = v
	return nil
}

// Assign rebinds name in the innermost scope that already holds it,
// searching outward like Lookup, and binds it in the innermost scope
// when no scope does. Assignment to a constant is rejected.
func (t *SymbolTable) Assign(name string, v *value.Value) error {
	if t.constants[name] {
		return newErr(value.KindName, "identifier %q is a constant and cannot be redefined", name)
	}
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if _, ok := t.scopes[i][name]; ok {
			t.scopes[i][name] = v
			return nil
		}
	}
	t.scopes[len(t.scopes)-1][name] = v
	return nil
}

// DefineConstant installs name in the global scope and marks it
// immutable for the lifetime of the interpreter instance.
func (t *SymbolTable) DefineConstant(name string, v *value.Value) error {
	if t.constants[name] {
		return newErr(value.KindName, "identifier %q is already a constant", name)
	}
	t.scopes[0][name] = v
	t.constants[name] = true
	return nil
}

// Remove deletes name from whichever scope currently holds it.
func (t *SymbolTable) Remove(name string) error {
	if t.constants[name] {
		return newErr(value.KindName, "identifier %q is a constant and cannot be removed", name)
	}
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if _, ok := t.scopes[i][name]; ok {
			delete(t.scopes[i], name)
			return nil
		}
	}
	return newErr(value.KindName, "undefined identifier %q", name)
}

func newErr(k value.Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Pos: -1, Msg: fmt.Sprintf(format, args...)}
}
