package functions

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"

	"github.com/leapstack-labs/vcol/pkg/core"
)

// Loader scans a directory for .star files and loads them as Starlark
// modules. Each module's namespace is its file name without extension.
type Loader struct {
	dir string
}

// NewLoader creates a loader for dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Module is a loaded .star file.
type Module struct {
	// Namespace is derived from filename (e.g., "stats" from "stats.star")
	Namespace string

	// Path is the path to the .star file
	Path string

	// Exports contains all exported values (names not starting with _).
	// Globals are frozen after loading.
	Exports starlark.StringDict
}

// Load reads every .star file in the directory, sorted by name.
// A missing directory yields no modules and no error.
func (l *Loader) Load() ([]*Module, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access functions directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("functions path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan functions directory: %w", err)
	}

	var modules []*Module
	for _, file := range files {
		m, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// predeclared is available to every .star file.
var predeclared = starlark.StringDict{
	"math": starlarkmath.Module,
	"nan":  starlark.Float(math.NaN()),
}

func loadFile(path string) (*Module, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a glob within the functions directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	namespace := strings.TrimSuffix(filepath.Base(path), ".star")
	if err := validateNamespace(namespace); err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	thread := &starlark.Thread{
		Name:  "load:" + namespace,
		Print: func(_ *starlark.Thread, _ string) {},
	}

	globals, err := starlark.ExecFile(thread, path, content, predeclared) //nolint:staticcheck // SA1019: ExecFileOptions migration pending
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}
	globals.Freeze()

	exports := make(starlark.StringDict)
	for name, value := range globals {
		if !strings.HasPrefix(name, "_") {
			exports[name] = value
		}
	}

	return &Module{Namespace: namespace, Path: path, Exports: exports}, nil
}

// LoadDir loads every .star file in dir and registers each exported
// callable as <namespace>.<name>. It returns the number of functions
// registered.
func (r *Registry) LoadDir(dir string) (int, error) {
	modules, err := NewLoader(dir).Load()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range modules {
		for _, name := range m.Exports.Keys() {
			callable, ok := m.Exports[name].(starlark.Callable)
			if !ok {
				continue
			}
			full := m.Namespace + "." + name
			if err := r.register(full, Starlark(full, callable), m.Path); err != nil {
				return count, &LoadError{File: m.Path, Message: err.Error()}
			}
			count++
		}
	}
	return count, nil
}

// Starlark adapts a Starlark callable to a Func. The callable is applied
// row by row with float arguments and must return a number, a bool or
// None (NaN).
func Starlark(name string, fn starlark.Callable) Func {
	return func(args []core.Value) (core.Value, error) {
		n, column, err := core.Rows(args...)
		if err != nil {
			return core.Value{}, err
		}

		thread := &starlark.Thread{
			Name:  "call:" + name,
			Print: func(_ *starlark.Thread, _ string) {},
		}

		out := make([]float64, n)
		for i := range out {
			sargs := make(starlark.Tuple, len(args))
			for j, a := range args {
				sargs[j] = starlark.Float(a.At(i))
			}
			res, err := starlark.Call(thread, fn, sargs, nil)
			if err != nil {
				return core.Value{}, fmt.Errorf("%s: %w", name, err)
			}
			if out[i], err = toFloat(res); err != nil {
				return core.Value{}, fmt.Errorf("%s: %w", name, err)
			}
		}

		if !column {
			return core.Scalar(out[0]), nil
		}
		return core.Column(out), nil
	}
}

func toFloat(v starlark.Value) (float64, error) {
	switch v := v.(type) {
	case starlark.Float:
		return float64(v), nil
	case starlark.Int:
		return float64(v.Float()), nil
	case starlark.Bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case starlark.NoneType:
		return math.NaN(), nil
	default:
		return 0, fmt.Errorf("must return a number, got %s", v.Type())
	}
}

// validateNamespace checks that a namespace is a valid identifier.
func validateNamespace(name string) error {
	if name == "" {
		return fmt.Errorf("namespace cannot be empty")
	}
	for i, r := range name {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return fmt.Errorf("namespace must start with letter or underscore: %s", name)
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return fmt.Errorf("namespace contains invalid character: %s", name)
		}
	}
	return nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// LoadError represents an error loading a .star file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("functions/%s: %s", filepath.Base(e.File), e.Message)
}
