// Package functions provides the named N-ary reductions available to
// function tokens (f:<name>:<arity>).
//
// A Registry ships with NaN-aware built-ins and accepts additional
// functions registered from Go or loaded from Starlark files.
package functions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/vcol/pkg/core"
)

// Func is a registered function. Args are in left-to-right source order.
// The result must be a column when any argument is a column.
type Func func(args []core.Value) (core.Value, error)

// Source values reported by Info.
const (
	SourceBuiltin = "builtin"
	SourceGo      = "go"
)

// Info describes a registered function.
type Info struct {
	Name string
	// Source is SourceBuiltin, SourceGo, or the path of the .star file
	// that defined the function.
	Source string
}

// ErrUndefinedFunction is the sentinel wrapped by UndefinedFunctionError.
var ErrUndefinedFunction = errors.New("undefined function")

// UndefinedFunctionError is returned by Get for unknown names.
type UndefinedFunctionError struct {
	Name string
}

func (e *UndefinedFunctionError) Error() string {
	return fmt.Sprintf("undefined function %q", e.Name)
}

func (e *UndefinedFunctionError) Unwrap() error {
	return ErrUndefinedFunction
}

type entry struct {
	fn     Func
	source string
}

// Registry maps function names to implementations.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]entry
}

// NewRegistry creates a registry holding the built-in functions.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]entry, len(builtins))}
	for name, fn := range builtins {
		r.funcs[name] = entry{fn: fn, source: SourceBuiltin}
	}
	return r
}

// Register adds fn under name, replacing any existing function including
// built-ins.
func (r *Registry) Register(name string, fn Func) error {
	return r.register(name, fn, SourceGo)
}

func (r *Registry) register(name string, fn Func, source string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("function %q: nil implementation", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = entry{fn: fn, source: source}
	return nil
}

// Get returns the function registered under name.
func (r *Registry) Get(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.funcs[name]
	if !ok {
		return nil, &UndefinedFunctionError{Name: name}
	}
	return e.fn, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[name]
	return ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns every registered function with its source, sorted by name.
func (r *Registry) List() []Info {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(names))
	for _, name := range names {
		if e, ok := r.funcs[name]; ok {
			out = append(out, Info{Name: name, Source: e.source})
		}
	}
	return out
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &Registry{funcs: make(map[string]entry, len(r.funcs))}
	for name, e := range r.funcs {
		c.funcs[name] = e
	}
	return c
}

// validateName rejects names that cannot appear in a f:<name>:<arity> token.
func validateName(name string) error {
	if name == "" {
		return errors.New("function name cannot be empty")
	}
	if strings.ContainsAny(name, ": \t\n") {
		return fmt.Errorf("invalid function name %q", name)
	}
	return nil
}
