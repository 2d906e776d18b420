package jsscript

import "fmt"

// ParseError reports a script that could not be parsed: either
// malformed input or syntax outside the supported subset (spec.md
// §4.3: "anything unrecognized fails with ScriptParse; never swallow").
type ParseError struct {
	Line, Col int
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ScriptParse: %d:%d: %s", e.Line, e.Col, e.Msg)
}

// RuntimeError reports a failure during evaluation: an uncaught script
// throw, a call to a non-function, an unresolved identifier, an
// operator applied to the wrong type, or a disallowed API (eval).
type RuntimeError struct {
	Msg   string
	Value Value // the thrown value, when this wraps a script-level throw
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("ScriptRuntime: %s", e.Msg)
}

// newRuntimeError builds an internally raised failure (bad operand
// type, unresolved identifier, call on a non-function, disallowed
// API). It carries a catchable TypeError-shaped Value so `try { ... }
// catch (e) { e.message }` around one of these behaves the way it
// does around a real TypeError, instead of binding e to undefined.
func newRuntimeError(format string, args ...any) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	return &RuntimeError{Msg: msg, Value: newErrorValue("TypeError", msg)}
}

// throwError wraps a thrown Value (from a `throw` statement or an
// internally raised TypeError-equivalent) as the error type callers
// see from Run/callFunction.
func throwError(v Value) *RuntimeError {
	return &RuntimeError{Msg: v.String(), Value: v}
}
