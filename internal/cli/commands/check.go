package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/vcol/internal/checker"
	"github.com/leapstack-labs/vcol/internal/cli/output"
	"github.com/leapstack-labs/vcol/internal/dag"
	"github.com/leapstack-labs/vcol/pkg/core"
)

// ErrInvalidLogic is returned by check when the logic file has errors.
var ErrInvalidLogic = errors.New("logic file is invalid")

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 100 * time.Millisecond

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the logic file",
		Long: `Validate every expression in the logic file.

Each field is checked on its own, so one run reports every malformed
expression. When all expressions are well formed, references and cycles
are checked as well.

Exits non-zero when the logic file is invalid. With --watch, the file is
re-checked on every change until interrupted.`,
		Example: `  # Validate logic.yaml
  vcol check

  # Validate another file and re-check on save
  vcol check --logic metrics.yaml --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutEngine(cmd)
			if watch {
				return watchCheck(cmd.Context(), cmdCtx)
			}
			return runCheck(cmdCtx)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-check the logic file whenever it changes")

	return cmd
}

func runCheck(c *CommandContext) error {
	result := output.CheckOutput{File: c.Cfg.LogicFile}

	logic, err := c.LoadLogic()
	if err != nil {
		result.Errors = map[string]string{"": err.Error()}
	} else {
		result.Fields = logic.Len()
		result.Errors = diagnose(logic)
	}
	result.Valid = len(result.Errors) == 0

	c.Logger.Debug("checked logic", "file", result.File, "valid", result.Valid, "errors", len(result.Errors))

	if err := renderCheck(c.Renderer, result); err != nil {
		return err
	}
	if !result.Valid {
		return ErrInvalidLogic
	}
	return nil
}

// diagnose returns one message per invalid field. Graph errors are only
// looked for once every expression is well formed.
func diagnose(logic *core.Logic) map[string]string {
	out := make(map[string]string)

	if ok, errs := checker.Check(logic); !ok {
		for field, err := range errs {
			var se *checker.SyntaxError
			if errors.As(err, &se) {
				se.Field = ""
			}
			out[field] = err.Error()
		}
		return out
	}

	_, err := dag.Build(logic)
	if err == nil {
		return out
	}

	var cycle *dag.CycleError
	if errors.As(err, &cycle) {
		out[cycle.Path[0]] = cycle.Error()
		return out
	}

	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var undef *dag.UndefinedFieldError
		if !errors.As(e, &undef) {
			out[""] = e.Error()
			continue
		}
		msg := fmt.Sprintf("undefined field %q", undef.Ref)
		if prev, ok := out[undef.Field]; ok {
			msg = prev + "; " + msg
		}
		out[undef.Field] = msg
	}
	return out
}

func renderCheck(r *output.Renderer, result output.CheckOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(result)
	}

	name := filepath.Base(result.File)
	if result.Valid {
		r.Success(fmt.Sprintf("%s: %d fields valid", name, result.Fields))
		return nil
	}

	fields := make([]string, 0, len(result.Errors))
	for f := range result.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	r.Header(2, fmt.Sprintf("%s: %d invalid", name, len(fields)))
	for _, f := range fields {
		label := f
		if label == "" {
			label = name
		}
		r.StatusLine(label, "error", result.Errors[f])
	}
	return nil
}

// watchCheck runs check on start and after every change to the logic file.
func watchCheck(ctx context.Context, c *CommandContext) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(c.Cfg.LogicFile)
	if err != nil {
		return err
	}
	// Editors often replace the file on save, so watch its directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	check := func() {
		if err := runCheck(c); err != nil && !errors.Is(err, ErrInvalidLogic) {
			c.Renderer.Error(err.Error())
		}
		c.Renderer.Println(c.Renderer.Muted(strings.Repeat("-", 40)))
	}

	check()
	c.Logger.Info("watching logic file", "path", target)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			check()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watch error", "error", err)
		}
	}
}
