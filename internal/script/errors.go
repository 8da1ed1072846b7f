package script

import (
	"fmt"

	"github.com/clawinfra/popgenlab/internal/value"
)

// Error is the script layer's uniform error type: every error kind
// carries a source position where applicable and a short message. Errors
// raised by the value layer are wrapped here with the token position at
// which the interpreter was evaluating when they occurred.
type Error struct {
	Kind value.Kind
	Pos  Pos
	Msg  string
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(kind value.Kind, pos Pos, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// wrap attaches pos to an arbitrary error from the value layer (or
// elsewhere), preserving its Kind if it has one.
func wrap(pos Pos, err error) *Error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*Error); ok {
		return se
	}
	return &Error{Kind: value.KindOf(err), Pos: pos, Msg: err.Error()}
}
