package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNotConfigured  = errors.New("engine has no logic loaded")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStackOverflow  = errors.New("values left on stack")
)

// EvalError reports a failure while evaluating one field.
type EvalError struct {
	Field string
	Index int // token position, or -1 when the whole expression failed
	Token string
	Err   error
}

func (e *EvalError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("evaluate %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("evaluate %q: token %d (%q): %v", e.Field, e.Index, e.Token, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}
