package value

import (
	"errors"
	"fmt"
)

// Kind classifies the error taxonomy: tokenization, parse, type,
// shape, numeric, name, domain, and simulation errors. The value layer
// only ever produces Type, Shape, Numeric and Domain kinds; Tokenization,
// Parse, Name and Simulation are produced by the script and population
// layers respectively.
type Kind uint8

const (
	KindType Kind = iota
	KindShape
	KindNumeric
	KindName
	KindDomain
	KindTokenization
	KindParse
	KindSimulation
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type error"
	case KindShape:
		return "shape error"
	case KindNumeric:
		return "numeric error"
	case KindName:
		return "name error"
	case KindDomain:
		return "domain error"
	case KindTokenization:
		return "tokenization error"
	case KindParse:
		return "parse error"
	case KindSimulation:
		return "simulation error"
	case KindInternal:
		return "internal error"
	default:
		return "error"
	}
}

// KindedError attaches an error-taxonomy Kind to a message. The script
// interpreter adds a source position on top of this when surfacing the
// error to the user.
type KindedError struct {
	Kind Kind
	Msg  string
}

func (e *KindedError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

func newErr(k Kind, format string, args ...interface{}) *KindedError {
	return &KindedError{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *KindedError, defaulting to KindInternal otherwise.
func KindOf(err error) Kind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindInternal
}
