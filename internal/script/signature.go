package script

import "github.com/clawinfra/popgenlab/internal/value"

// CheckArgs validates a call's evaluated arguments against sig in the
// order: argument count, then per-argument type mask,
// then per-argument singleton constraint. Ellipsis, if present, must be
// the signature's final entry and absorbs any remaining actual
// arguments under its own mask/singleton rule.
func CheckArgs(sig *value.Signature, args []*value.Value) error {
	minReq := 0
	hasEllipsis := false
	for _, a := range sig.Args {
		if a.Ellipsis {
			hasEllipsis = true
			break
		}
		if !a.Optional {
			minReq++
		}
	}
	if len(args) < minReq {
		return newErr(value.KindName, "%s: requires at least %d argument(s), got %d", sig.Name, minReq, len(args))
	}
	if !hasEllipsis && len(args) > len(sig.Args) {
		return newErr(value.KindName, "%s: accepts at most %d argument(s), got %d", sig.Name, len(sig.Args), len(args))
	}

	for i, a := range args {
		spec, ok := specFor(sig, i)
		if !ok {
			return newErr(value.KindName, "%s: too many arguments", sig.Name)
		}
		if a.Type() != value.Null && !spec.Mask.Has(a.Type()) {
			return newErr(value.KindType, "%s: argument %d (%s) has type %s, not permitted by signature", sig.Name, i+1, spec.Name, a.Type())
		}
		if spec.Singleton && a.Count() != 1 {
			return newErr(value.KindShape, "%s: argument %d (%s) must be singleton, has count %d", sig.Name, i+1, spec.Name, a.Count())
		}
	}
	return nil
}

// specFor returns the ArgSpec governing actual-argument index i, which is
// either the positional spec or, past the end of the fixed list, the
// trailing Ellipsis spec if any.
func specFor(sig *value.Signature, i int) (value.ArgSpec, bool) {
	if i < len(sig.Args) {
		return sig.Args[i], true
	}
	if n := len(sig.Args); n > 0 && sig.Args[n-1].Ellipsis {
		return sig.Args[n-1], true
	}
	return value.ArgSpec{}, false
}

// CheckReturn validates a callable's produced value against the
// signature's return mask, the final step of call validation. A
// violation here is distinguished from an argument-type violation: it
// reflects a bug in the callable's own implementation rather than a
// caller mistake, so it is raised as an internal error.
func CheckReturn(sig *value.Signature, ret *value.Value) error {
	if ret.Type() != value.Null && !sig.ReturnMask.Has(ret.Type()) {
		return newErr(value.KindInternal, "%s: return value has type %s, not permitted by signature", sig.Name, ret.Type())
	}
	return nil
}
