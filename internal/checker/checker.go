// Package checker statically validates postfix field expressions.
//
// Validation simulates a stack of abstract slots: field references and
// constants push one slot, operators pop two and push one, and a function
// call f:<name>:<arity> pops arity and pushes one. A valid expression leaves
// exactly one slot. An empty expression marks a real field and is always
// valid.
package checker

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/vcol/pkg/core"
	"github.com/leapstack-labs/vcol/pkg/token"
)

// Sentinel causes carried by SyntaxError.
var (
	ErrTooManyOperators = errors.New("more operators than points")
	ErrTooManyPoints    = errors.New("more points than operators")
	ErrMalformedToken   = errors.New("malformed token")
)

// SyntaxError describes why one field's expression is invalid.
type SyntaxError struct {
	Field string
	Index int // token position, or -1 when the error concerns the whole expression
	Token string
	Err   error
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	if e.Field != "" {
		fmt.Fprintf(&b, "field %q: ", e.Field)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, "token %d (%q): ", e.Index, e.Token)
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// CheckExpression validates a single postfix expression.
func CheckExpression(tokens []string) error {
	return check("", tokens)
}

// Check validates every entry of logic independently. It never stops at the
// first failure: errs holds one error per invalid field.
func Check(logic *core.Logic) (ok bool, errs map[string]error) {
	errs = make(map[string]error)
	for _, e := range logic.Entries() {
		if err := check(e.Field, e.Tokens); err != nil {
			errs[e.Field] = err
		}
	}
	return len(errs) == 0, errs
}

// Validate runs Check and wraps any failures in a Report.
func Validate(logic *core.Logic) error {
	if ok, errs := Check(logic); !ok {
		return &Report{Errors: errs}
	}
	return nil
}

func check(field string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	slots := 0
	for i, s := range tokens {
		tok, err := token.Parse(s)
		if err != nil {
			return &SyntaxError{Field: field, Index: i, Token: s, Err: fmt.Errorf("%w: %v", ErrMalformedToken, err)}
		}

		pops := tok.Pops()
		if slots < pops {
			return &SyntaxError{Field: field, Index: i, Token: s, Err: ErrTooManyOperators}
		}
		slots = slots - pops + 1
	}

	if slots > 1 {
		return &SyntaxError{Field: field, Index: -1, Err: ErrTooManyPoints}
	}
	return nil
}

// Report aggregates the syntax errors of a logic map.
type Report struct {
	Errors map[string]error
}

// Fields returns the invalid field names, sorted.
func (r *Report) Fields() []string {
	names := make([]string, 0, len(r.Errors))
	for name := range r.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Report) Error() string {
	fields := r.Fields()
	if len(fields) == 1 {
		return r.Errors[fields[0]].Error()
	}
	msgs := make([]string, len(fields))
	for i, name := range fields {
		msgs[i] = r.Errors[name].Error()
	}
	return fmt.Sprintf("%d invalid fields: %s", len(fields), strings.Join(msgs, "; "))
}

// Unwrap exposes the per-field errors to errors.Is and errors.As.
func (r *Report) Unwrap() []error {
	out := make([]error, 0, len(r.Errors))
	for _, name := range r.Fields() {
		out = append(out, r.Errors[name])
	}
	return out
}
