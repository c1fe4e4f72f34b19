// Package token defines the tokens of a postfix field expression.
//
// A logic entry is an ordered list of token strings. Each string is
// classified exactly once by Parse into one of four kinds:
//
//	+ - * / == != > < >= <=   operator (binary)
//	f:<name>:<arity>          function call consuming <arity> values
//	c:<literal>               numeric constant
//	anything else             reference to another field
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Token.
type Kind int

// Token kinds.
const (
	Field Kind = iota
	Operator
	Function
	Constant
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case Field:
		return "field"
	case Operator:
		return "operator"
	case Function:
		return "function"
	case Constant:
		return "constant"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Op is a binary operator from the fixed operator pool.
type Op string

// Operator pool.
const (
	Add Op = "+"
	Sub Op = "-"
	Mul Op = "*"
	Div Op = "/"
	EQ  Op = "=="
	NE  Op = "!="
	GT  Op = ">"
	LT  Op = "<"
	GE  Op = ">="
	LE  Op = "<="
)

// operators is the fixed operator pool. It is not extensible.
var operators = map[string]Op{
	"+":  Add,
	"-":  Sub,
	"*":  Mul,
	"/":  Div,
	"==": EQ,
	"!=": NE,
	">":  GT,
	"<":  LT,
	">=": GE,
	"<=": LE,
}

// Tag prefixes for function and constant tokens.
const (
	FunctionPrefix = "f:"
	ConstantPrefix = "c:"
)

// ErrMalformed is the sentinel wrapped by every parse failure.
var ErrMalformed = errors.New("malformed token")

// Token is a classified expression token.
//
// Only the fields relevant to Kind are set: Name for Field and Function,
// Arity for Function, Op for Operator and Literal for Constant.
type Token struct {
	Kind    Kind
	Text    string
	Name    string
	Arity   int
	Op      Op
	Literal string
}

// String returns the source text of the token.
func (t Token) String() string {
	return t.Text
}

// Value parses the literal of a constant token.
func (t Token) Value() (float64, error) {
	if t.Kind != Constant {
		return 0, fmt.Errorf("%w: %q is not a constant", ErrMalformed, t.Text)
	}
	return strconv.ParseFloat(t.Literal, 64)
}

// Pops returns how many stack values the token consumes.
func (t Token) Pops() int {
	switch t.Kind {
	case Operator:
		return 2
	case Function:
		return t.Arity
	default:
		return 0
	}
}

// IsOperator reports whether s belongs to the operator pool.
func IsOperator(s string) bool {
	_, ok := operators[s]
	return ok
}

// Operators returns the operator pool in a fixed order.
func Operators() []Op {
	return []Op{Add, Sub, Mul, Div, EQ, NE, GT, LT, GE, LE}
}

// Parse classifies a single token string.
func Parse(s string) (Token, error) {
	if s == "" {
		return Token{}, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	if op, ok := operators[s]; ok {
		return Token{Kind: Operator, Text: s, Op: op}, nil
	}

	if strings.HasPrefix(s, FunctionPrefix) {
		parts := strings.Split(s, ":")
		if len(parts) != 3 || parts[1] == "" {
			return Token{}, fmt.Errorf("%w: %q (want f:<name>:<arity>)", ErrMalformed, s)
		}
		arity, err := strconv.Atoi(parts[2])
		if err != nil || arity < 0 {
			return Token{}, fmt.Errorf("%w: %q has invalid arity %q", ErrMalformed, s, parts[2])
		}
		return Token{Kind: Function, Text: s, Name: parts[1], Arity: arity}, nil
	}

	if strings.HasPrefix(s, ConstantPrefix) {
		return Token{Kind: Constant, Text: s, Literal: s[len(ConstantPrefix):]}, nil
	}

	return Token{Kind: Field, Text: s, Name: s}, nil
}

// ParseAll classifies every token of an expression, stopping at the first
// malformed one. The returned error names the failing position.
func ParseAll(tokens []string) ([]Token, error) {
	out := make([]Token, 0, len(tokens))
	for i, s := range tokens {
		tok, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		out = append(out, tok)
	}
	return out, nil
}

// FieldRefs returns the field names referenced by an expression, in order of
// first appearance. Malformed tokens are skipped.
func FieldRefs(tokens []string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, s := range tokens {
		tok, err := Parse(s)
		if err != nil || tok.Kind != Field || seen[tok.Name] {
			continue
		}
		seen[tok.Name] = true
		refs = append(refs, tok.Name)
	}
	return refs
}
