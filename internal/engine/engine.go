// Package engine evaluates virtual fields.
//
// An Engine owns a validated logic map, its dependency graph and a function
// registry. Load replaces the configuration atomically; Evaluate runs the
// postfix expressions of derived fields against a caller-owned store in a
// dependency-respecting order.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/vcol/internal/checker"
	"github.com/leapstack-labs/vcol/internal/dag"
	"github.com/leapstack-labs/vcol/internal/functions"
	"github.com/leapstack-labs/vcol/pkg/core"
	"github.com/leapstack-labs/vcol/pkg/token"
)

// Engine evaluates derived fields. Load, Rebuild and Reset must not race
// with each other or with evaluation; Evaluate may run concurrently on
// distinct stores.
type Engine struct {
	logger *slog.Logger
	funcs  *functions.Registry
	state  *state
}

// state is the immutable configuration produced by a successful Load.
type state struct {
	logic    *core.Logic
	graph    *dag.Graph
	programs map[string][]token.Token
}

// Config holds engine configuration.
type Config struct {
	// Functions is copied into the engine. Nil selects the built-ins.
	Functions *functions.Registry
	// FunctionsDir is a directory of .star files to register (optional).
	FunctionsDir string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an unconfigured engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	funcs := functions.NewRegistry()
	if cfg.Functions != nil {
		funcs = cfg.Functions.Clone()
	}

	if cfg.FunctionsDir != "" {
		n, err := funcs.LoadDir(cfg.FunctionsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load functions: %w", err)
		}
		logger.Debug("loaded starlark functions", "dir", cfg.FunctionsDir, "count", n)
	}

	return &Engine{logger: logger, funcs: funcs}, nil
}

// Functions returns the engine's function registry.
func (e *Engine) Functions() *functions.Registry {
	return e.funcs
}

// Register adds or overrides a function.
func (e *Engine) Register(name string, fn functions.Func) error {
	return e.funcs.Register(name, fn)
}

// Load validates logic and makes it the engine's configuration. On failure
// the previous configuration is kept. Syntax errors are returned as a
// *checker.Report; undefined references and cycles come from dag.Build.
func (e *Engine) Load(logic *core.Logic) error {
	if err := checker.Validate(logic); err != nil {
		e.logger.Warn("logic rejected", "error", err)
		return err
	}

	logic = logic.Clone()
	graph, err := dag.Build(logic)
	if err != nil {
		e.logger.Warn("logic rejected", "error", err)
		return err
	}

	programs := make(map[string][]token.Token, logic.Len())
	derived := 0
	for _, entry := range logic.Entries() {
		if entry.Real() {
			continue
		}
		toks, err := token.ParseAll(entry.Tokens)
		if err != nil {
			return fmt.Errorf("field %q: %w", entry.Field, err)
		}
		programs[entry.Field] = toks
		derived++
	}

	e.state = &state{logic: logic, graph: graph, programs: programs}
	e.logger.Debug("logic loaded",
		"fields", logic.Len(),
		"real", logic.Len()-derived,
		"derived", derived,
		"edges", graph.EdgeCount())
	return nil
}

// Reset discards the configuration.
func (e *Engine) Reset() {
	e.state = nil
}

// Rebuild resets the engine and loads logic. Unlike Load, a failure leaves
// the engine unconfigured.
func (e *Engine) Rebuild(logic *core.Logic) error {
	e.Reset()
	return e.Load(logic)
}

// Configured reports whether logic is loaded.
func (e *Engine) Configured() bool {
	return e.state != nil
}

// Logic returns a copy of the loaded logic map, or nil.
func (e *Engine) Logic() *core.Logic {
	if e.state == nil {
		return nil
	}
	return e.state.logic.Clone()
}

// Graph returns the dependency graph, or nil.
func (e *Engine) Graph() *dag.Graph {
	if e.state == nil {
		return nil
	}
	return e.state.graph
}

// TopologicalOrder returns the full evaluation order, or nil.
func (e *Engine) TopologicalOrder() []string {
	if e.state == nil {
		return nil
	}
	return e.state.graph.TopologicalOrder()
}

// Properties returns per-field edges and classification, or nil.
func (e *Engine) Properties() []dag.Property {
	if e.state == nil {
		return nil
	}
	return e.state.graph.Properties()
}

// RequiredFields returns the real fields to fetch and the minimal
// evaluation order for targets.
func (e *Engine) RequiredFields(targets []string) (real, order []string, err error) {
	if e.state == nil {
		return nil, nil, ErrNotConfigured
	}
	return e.state.graph.Dependency(targets)
}

// Evaluate computes every derived field of order and writes it to store.
// Real fields are skipped; they must already be present in store.
func (e *Engine) Evaluate(store core.Store, order []string) error {
	st := e.state
	if st == nil {
		return ErrNotConfigured
	}

	for _, name := range order {
		node, ok := st.graph.Node(name)
		if !ok {
			return &dag.UndefinedFieldError{Ref: name}
		}
		if node.Real {
			continue
		}

		v, err := e.eval(store, name, st.programs[name])
		if err != nil {
			return err
		}
		if err := store.Set(name, v); err != nil {
			return &EvalError{Field: name, Index: -1, Err: err}
		}
		e.logger.Debug("evaluated field", "field", name)
	}
	return nil
}

// EvaluateAll evaluates the full topological order.
func (e *Engine) EvaluateAll(store core.Store) error {
	if e.state == nil {
		return ErrNotConfigured
	}
	return e.Evaluate(store, e.state.graph.TopologicalOrder())
}

// EvaluateTargets evaluates only what targets need.
func (e *Engine) EvaluateTargets(store core.Store, targets []string) error {
	_, order, err := e.RequiredFields(targets)
	if err != nil {
		return err
	}
	return e.Evaluate(store, order)
}

// EvaluateBatch evaluates order against every store, running at most limit
// evaluations at once (no limit when limit <= 0). The first failure cancels
// evaluations that have not started yet.
func (e *Engine) EvaluateBatch(ctx context.Context, stores []core.Store, order []string, limit int) error {
	if e.state == nil {
		return ErrNotConfigured
	}

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, s := range stores {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.Evaluate(s, order); err != nil {
				return fmt.Errorf("store %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// eval runs one postfix program on a call-local stack.
func (e *Engine) eval(store core.Store, field string, prog []token.Token) (core.Value, error) {
	stack := make([]core.Value, 0, len(prog))
	fail := func(i int, err error) (core.Value, error) {
		return core.Value{}, &EvalError{Field: field, Index: i, Token: prog[i].Text, Err: err}
	}

	for i, tok := range prog {
		switch tok.Kind {
		case token.Field:
			v, err := store.Get(tok.Name)
			if err != nil {
				return fail(i, err)
			}
			stack = append(stack, v)

		case token.Constant:
			f, err := tok.Value()
			if err != nil {
				return fail(i, err)
			}
			stack = append(stack, core.Scalar(f))

		case token.Operator:
			if len(stack) < 2 {
				return fail(i, ErrStackUnderflow)
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]

			v, err := core.Apply(tok.Op, left, right)
			if err != nil {
				return fail(i, err)
			}
			stack = append(stack, v)

		case token.Function:
			if len(stack) < tok.Arity {
				return fail(i, ErrStackUnderflow)
			}
			args := make([]core.Value, tok.Arity)
			copy(args, stack[len(stack)-tok.Arity:])
			stack = stack[:len(stack)-tok.Arity]

			fn, err := e.funcs.Get(tok.Name)
			if err != nil {
				return fail(i, err)
			}
			v, err := fn(args)
			if err != nil {
				return fail(i, err)
			}
			if store.Shape() == core.ShapeRecord && v.IsColumn() {
				v = v.First()
			}
			stack = append(stack, v)
		}
	}

	switch {
	case len(stack) == 0:
		return core.Value{}, &EvalError{Field: field, Index: -1, Err: ErrStackUnderflow}
	case len(stack) > 1:
		return core.Value{}, &EvalError{Field: field, Index: -1, Err: ErrStackOverflow}
	}
	return stack[0], nil
}
