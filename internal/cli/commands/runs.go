package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/vcol/internal/cli/output"
	"github.com/leapstack-labs/vcol/internal/state"
)

// ErrNoState is returned by runs when run history is disabled.
var ErrNoState = errors.New("run history is disabled (state_path is empty)")

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show the history of eval runs",
		Long: `List recorded eval runs, newest first, or show a single run.

Every eval is recorded in the state database (state_path, default
.vcol/state.db) with its source, targets, row count and outcome.`,
		Example: `  # Recent runs
  vcol runs

  # One run, as JSON
  vcol runs 6f1c... --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutEngine(cmd)
			if cmdCtx.Cfg.StatePath == "" {
				return ErrNoState
			}
			if _, err := os.Stat(cmdCtx.Cfg.StatePath); os.IsNotExist(err) {
				return renderRuns(cmdCtx.Renderer, nil)
			}

			store, err := state.Open(cmdCtx.Cfg.StatePath, cmdCtx.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return renderRun(cmdCtx.Renderer, run)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return renderRuns(cmdCtx.Renderer, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 shows all)")

	return cmd
}

// openHistory opens the run history, or returns nil when it is disabled or
// cannot be opened. Failing to record history never fails an eval.
func openHistory(c *CommandContext) *state.SQLiteStore {
	if c.Cfg.StatePath == "" {
		return nil
	}
	store, err := state.Open(c.Cfg.StatePath, c.Logger)
	if err != nil {
		c.Logger.Warn("run history unavailable", "path", c.Cfg.StatePath, "error", err)
		return nil
	}
	return store
}

func renderRuns(r *output.Renderer, runs []*state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*state.Run{}
		}
		return r.JSON(runs)
	}

	if len(runs) == 0 {
		r.Println(r.Muted("No runs recorded yet."))
		return nil
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(run.Status),
			run.Source + ":" + run.Table,
			runsTargets(run.Targets),
			fmt.Sprintf("%d", run.Rows),
			formatDuration(run),
		}
	}
	r.Header(1, "Runs")
	r.Table([]string{"id", "started", "status", "source", "targets", "rows", "duration"}, rows)
	return nil
}

func renderRun(r *output.Renderer, run *state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(run)
	}

	r.Header(1, "Run "+run.ID)
	r.StatusLine("status", statusMarker(run.Status), string(run.Status))
	r.Println(output.FormatKeyValue("Started", run.StartedAt.Local().Format(time.RFC3339)))
	r.Println(output.FormatKeyValue("Duration", formatDuration(run)))
	r.Println(output.FormatKeyValue("Logic file", run.LogicFile))
	r.Println(output.FormatKeyValue("Source", run.Source+":"+run.Table))
	if run.Environment != "" {
		r.Println(output.FormatKeyValue("Environment", run.Environment))
	}
	r.Println(output.FormatKeyValue("Targets", runsTargets(run.Targets)))
	r.Println(output.FormatKeyValue("Workers", fmt.Sprintf("%d", run.Workers)))
	r.Println(output.FormatKeyValue("Rows", fmt.Sprintf("%d", run.Rows)))
	r.Println(output.FormatKeyValue("Fields", fmt.Sprintf("%d", run.Fields)))
	if run.Error != "" {
		r.Error(run.Error)
	}
	return nil
}

func statusMarker(s state.RunStatus) string {
	switch s {
	case state.RunStatusSuccess:
		return "success"
	case state.RunStatusFailed:
		return "error"
	default:
		return "pending"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(run *state.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}

// runsTargets formats run targets for a single cell.
func runsTargets(targets []string) string {
	if len(targets) == 0 {
		return "all"
	}
	return strings.Join(targets, ",")
}
