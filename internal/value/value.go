package value

import (
	"errors"
	"fmt"
)

// ErrSingletonImmutable is returned when in-place mutation is attempted on
// a singleton-specialized Value. Callers must call MutableCopy first.
var ErrSingletonImmutable = errors.New("value: singleton value is immutable, call MutableCopy first")

// Object is the interface a host object element implements so it can be
// carried inside an Object-typed Value and dispatched against by the
// script interpreter. Element classes live in the bridge
// package; Object only needs to report which Class it belongs to.
type Object interface {
	Class() *Class
}

// Value is a tagged vector over {Null, Logical, Int, Float, String,
// Object}. Exactly one of the backing slices is populated, matching typ.
//
// A Value of count 1 may additionally be marked singleton: singleton
// values are immutable in place and exist purely as a performance
// specialization — callers that need to mutate must first call
// MutableCopy, which returns a non-singleton, owned-temporary copy.
type Value struct {
	typ Type

	logical []bool
	ints    []int64
	floats  []float64
	strs    []string
	objs    []Object
	class   *Class // common element class for Object-typed values

	invisible bool
	ownership Ownership
	singleton bool
}

// NewNull returns a new null value. It has count 0 by convention and is
// always treated as singleton-like (immutable) since it carries no data.
func NewNull() *Value {
	return &Value{typ: Null, ownership: ExternalPermanent, singleton: true}
}

func NewLogical(vals []bool) *Value {
	return &Value{typ: Logical, logical: vals, ownership: OwnedTemporary}
}

func NewLogicalSingleton(b bool) *Value {
	return &Value{typ: Logical, logical: []bool{b}, ownership: OwnedTemporary, singleton: true}
}

func NewInt(vals []int64) *Value {
	return &Value{typ: Int, ints: vals, ownership: OwnedTemporary}
}

func NewIntSingleton(i int64) *Value {
	return &Value{typ: Int, ints: []int64{i}, ownership: OwnedTemporary, singleton: true}
}

func NewFloat(vals []float64) *Value {
	return &Value{typ: Float, floats: vals, ownership: OwnedTemporary}
}

func NewFloatSingleton(f float64) *Value {
	return &Value{typ: Float, floats: []float64{f}, ownership: OwnedTemporary, singleton: true}
}

func NewString(vals []string) *Value {
	return &Value{typ: String, strs: vals, ownership: OwnedTemporary}
}

func NewStringSingleton(s string) *Value {
	return &Value{typ: String, strs: []string{s}, ownership: OwnedTemporary, singleton: true}
}

func NewObject(class *Class, elems []Object) *Value {
	return &Value{typ: ObjectType, objs: elems, class: class, ownership: OwnedTemporary}
}

func NewObjectSingleton(class *Class, elem Object) *Value {
	return &Value{typ: ObjectType, objs: []Object{elem}, class: class, ownership: OwnedTemporary, singleton: true}
}

func (v *Value) Type() Type { return v.typ }

// Count returns the number of elements. Null values have count 0 by
// convention.
func (v *Value) Count() int {
	switch v.typ {
	case Null:
		return 0
	case Logical:
		return len(v.logical)
	case Int:
		return len(v.ints)
	case Float:
		return len(v.floats)
	case String:
		return len(v.strs)
	case ObjectType:
		return len(v.objs)
	default:
		return 0
	}
}

func (v *Value) Invisible() bool { return v.invisible }

// SetInvisible sets the auto-print suppression flag in place. Invisibility
// is a presentation-layer flag, not element content, so it may be changed
// regardless of the singleton/immutability discipline.
func (v *Value) SetInvisible(b bool) { v.invisible = b }

func (v *Value) Ownership() Ownership     { return v.ownership }
func (v *Value) SetOwnership(o Ownership) { v.ownership = o }
func (v *Value) IsSingleton() bool        { return v.singleton }
func (v *Value) Class() *Class            { return v.class }

// Copy returns a shallow duplicate of v with fresh backing slices.
// Invisibility is NOT inherited by the copy:
// the copy's invisible flag is always false. Use CopyInvisible to retain
// it explicitly.
func (v *Value) Copy() *Value {
	return v.copy(false)
}

// CopyInvisible duplicates v and explicitly preserves the invisible flag,
// for the rare call site that wants that behavior deliberately.
func (v *Value) CopyInvisible() *Value {
	return v.copy(v.invisible)
}

func (v *Value) copy(invisible bool) *Value {
	n := &Value{typ: v.typ, ownership: v.ownership, singleton: v.singleton, invisible: invisible, class: v.class}
	switch v.typ {
	case Logical:
		n.logical = append([]bool(nil), v.logical...)
	case Int:
		n.ints = append([]int64(nil), v.ints...)
	case Float:
		n.floats = append([]float64(nil), v.floats...)
	case String:
		n.strs = append([]string(nil), v.strs...)
	case ObjectType:
		n.objs = append([]Object(nil), v.objs...)
	}
	return n
}

// MutableCopy returns a non-singleton, owned-temporary copy suitable for
// in-place mutation, per the singleton-promotion discipline.
func (v *Value) MutableCopy() *Value {
	n := v.copy(false)
	n.singleton = false
	n.ownership = OwnedTemporary
	return n
}

// requireMutable returns ErrSingletonImmutable if v is singleton.
func (v *Value) requireMutable() error {
	if v.singleton {
		return ErrSingletonImmutable
	}
	return nil
}

func (v *Value) Logicals() []bool  { return v.logical }
func (v *Value) Ints() []int64     { return v.ints }
func (v *Value) Floats() []float64 { return v.floats }
func (v *Value) Strings() []string { return v.strs }
func (v *Value) Objects() []Object { return v.objs }

// LogicalAt, IntAt, etc. return the element at index i, panicking on an
// out-of-range index (callers are expected to bounds-check via Count;
// script-level subscripting raises a shape error before ever reaching
// here — see Subscript).
func (v *Value) LogicalAt(i int) bool  { return v.logical[i] }
func (v *Value) IntAt(i int) int64     { return v.ints[i] }
func (v *Value) FloatAt(i int) float64 { return v.floats[i] }
func (v *Value) StringAt(i int) string { return v.strs[i] }
func (v *Value) ObjectAt(i int) Object { return v.objs[i] }

// SetLogicalAt, etc. mutate in place; they fail on a singleton Value.
func (v *Value) SetLogicalAt(i int, b bool) error {
	if err := v.requireMutable(); err != nil {
		return err
	}
	v.logical[i] = b
	return nil
}

func (v *Value) SetIntAt(i int, n int64) error {
	if err := v.requireMutable(); err != nil {
		return err
	}
	v.ints[i] = n
	return nil
}

func (v *Value) SetFloatAt(i int, f float64) error {
	if err := v.requireMutable(); err != nil {
		return err
	}
	v.floats[i] = f
	return nil
}

func (v *Value) SetStringAt(i int, s string) error {
	if err := v.requireMutable(); err != nil {
		return err
	}
	v.strs[i] = s
	return nil
}

// Append appends one element to a mutable vector value (used by c()-style
// concatenation builders before the result is published as a Value).
func (v *Value) appendLogical(b bool)  { v.logical = append(v.logical, b) }
func (v *Value) appendInt(n int64)     { v.ints = append(v.ints, n) }
func (v *Value) appendFloat(f float64) { v.floats = append(v.floats, f) }
func (v *Value) appendString(s string) { v.strs = append(v.strs, s) }
func (v *Value) appendObject(o Object) { v.objs = append(v.objs, o) }

// AsFloat64 returns the element at i coerced to float64, valid only for
// Int or Float typed values.
func (v *Value) AsFloat64(i int) float64 {
	switch v.typ {
	case Int:
		return float64(v.ints[i])
	case Float:
		return v.floats[i]
	default:
		panic(fmt.Sprintf("value: AsFloat64 on non-numeric type %s", v.typ))
	}
}

// Truthy interprets a single logical/numeric element as a boolean per the
// loop-condition coercion rule: numeric non-zero/non-NaN is true,
// logical is itself, NaN raises, and any other type/count is an error
// handled by the caller before reaching here.
func (v *Value) Truthy() (bool, error) {
	if v.Count() != 1 {
		return false, fmt.Errorf("value: condition must have count 1, got %d", v.Count())
	}
	switch v.typ {
	case Logical:
		return v.logical[0], nil
	case Int:
		return v.ints[0] != 0, nil
	case Float:
		f := v.floats[0]
		if f != f { // NaN
			return false, fmt.Errorf("value: NaN cannot be coerced to logical")
		}
		return f != 0, nil
	default:
		return false, fmt.Errorf("value: type %s cannot be coerced to logical", v.typ)
	}
}

// Class describes a host element class: a name, read-only and
// read-write properties, and methods with typed signatures.
type Class struct {
	Name       string
	Properties map[string]*Property
	Methods    map[string]*Method
}

// Property is a single named property on an element class.
type Property struct {
	Name     string
	Mask     Mask
	Writable bool
	Get      func(obj Object) (*Value, error)
	Set      func(obj Object, v *Value) error
}

// Method is a single named method on an element class.
type Method struct {
	Signature *Signature
	Call      func(obj Object, args []*Value) (*Value, error)
}

// Signature describes a callable's argument and return type
// constraints: a return mask, and an ordered list of argument specs.
// Once an
// argument is Optional all subsequent ones must be too; Ellipsis, if
// present, must be the final entry and accepts any remaining arguments of
// its base-type mask.
type Signature struct {
	Name       string
	ReturnMask Mask
	Args       []ArgSpec
}

// ArgSpec describes one formal argument of a Signature.
type ArgSpec struct {
	Name      string
	Mask      Mask
	Optional  bool
	Singleton bool
	Ellipsis  bool
}
