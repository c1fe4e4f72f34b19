package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/vcol/internal/cli/output"
	"github.com/leapstack-labs/vcol/internal/state"
	"github.com/leapstack-labs/vcol/pkg/adapter"
	"github.com/leapstack-labs/vcol/pkg/core"
	"github.com/leapstack-labs/vcol/pkg/store"
)

type evalOptions struct {
	csv      string
	table    string
	limit    int
	arrowOut string
	perRow   bool
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	var opts evalOptions

	cmd := &cobra.Command{
		Use:   "eval [field]...",
		Short: "Compute fields from the source table",
		Long: `Read the real fields from the configured source and compute derived
fields.

Only the real columns the requested fields depend on are fetched. Without
arguments every field is computed and shown.

With --csv, the file is first loaded into the source table (an in-memory
DuckDB database unless source is configured otherwise). With --workers,
rows are split into partitions evaluated concurrently.

With --per-row, every row is evaluated as its own single-value record, so a
function returning a column contributes only its first value.`,
		Example: `  # Compute every field
  vcol eval

  # Compute l and o from a CSV file
  vcol eval l o --csv readings.csv

  # First 100 rows of a table, as CSV
  vcol eval --table raw.readings --limit 100 --output csv

  # Also write the results as an Arrow IPC stream
  vcol eval l o --arrow-out results.arrow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.csv, "csv", "", "Load this CSV file into the source table first")
	cmd.Flags().StringVar(&opts.table, "table", "", "Source table (default: source.table)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum rows to read (0 reads all)")
	cmd.Flags().StringVar(&opts.arrowOut, "arrow-out", "", "Also write the computed columns to this Arrow IPC stream file")
	cmd.Flags().BoolVar(&opts.perRow, "per-row", false, "Evaluate each row as a separate record")
	cmd.Flags().Int("workers", 0, "Partitions evaluated concurrently (0 evaluates in one pass)")

	return cmd
}

func runEval(cmd *cobra.Command, targets []string, opts evalOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if err := cmdCtx.LoadEngine(); err != nil {
		return err
	}

	ctx := cmd.Context()
	eng := cmdCtx.Engine
	runID := uuid.NewString()
	cmdCtx.Logger = cmdCtx.Logger.With("run_id", runID)
	logger := cmdCtx.Logger

	var real, order []string
	if len(targets) > 0 {
		real, order, err = eng.RequiredFields(targets)
		if err != nil {
			return err
		}
	} else {
		order = eng.TopologicalOrder()
		for _, p := range eng.Properties() {
			if !p.Derived {
				real = append(real, p.Name)
			}
		}
	}

	src := cmdCtx.Cfg.Source
	table := src.Table
	if opts.table != "" {
		table = opts.table
	}
	csvPath := src.CSV
	if opts.csv != "" {
		csvPath = opts.csv
	}
	workers := cmdCtx.Cfg.Workers

	logger.Info("eval started", "source", src.Type, "table", table, "real", real, "fields", len(order))

	history := openHistory(cmdCtx)
	if history != nil {
		defer func() { _ = history.Close() }()
		if _, err := history.CreateRun(ctx, state.RunSpec{
			ID:          runID,
			Environment: cmdCtx.Cfg.Environment,
			LogicFile:   cmdCtx.Cfg.LogicFile,
			Source:      src.Type,
			Table:       table,
			Targets:     targets,
			Workers:     workers,
		}); err != nil {
			logger.Warn("failed to record run", "error", err)
			history = nil
		}
	}

	parts, rows, err := evaluate(cmd, cmdCtx, evalInput{
		table:   table,
		csv:     csvPath,
		limit:   opts.limit,
		workers: workers,
		perRow:  opts.perRow,
		real:    real,
		order:   order,
	})
	if history != nil {
		status, msg := state.RunStatusSuccess, ""
		if err != nil {
			status, msg = state.RunStatusFailed, err.Error()
		}
		if cerr := history.CompleteRun(ctx, runID, status, rows, len(order), msg); cerr != nil {
			logger.Warn("failed to record run", "error", cerr)
		}
	}
	if err != nil {
		return err
	}

	logger.Info("eval finished", "rows", rows, "partitions", len(parts))

	columns := targets
	if len(columns) == 0 {
		columns = eng.Logic().Fields()
	}
	if opts.arrowOut != "" {
		if err := writeArrow(opts.arrowOut, columns, parts); err != nil {
			return err
		}
		logger.Info("arrow stream written", "path", opts.arrowOut)
	}
	return renderEval(cmdCtx.Renderer, runID, columns, parts)
}

type evalInput struct {
	table   string
	csv     string
	limit   int
	workers int
	perRow  bool
	real    []string
	order   []string
}

// evaluate reads the real columns from the source and computes the ordered
// fields over workers partitions.
func evaluate(cmd *cobra.Command, cmdCtx *CommandContext, in evalInput) ([]*store.Table, int, error) {
	ctx := cmd.Context()
	src := cmdCtx.Cfg.Source

	adp, err := adapter.NewAdapter(src.AdapterConfig(), cmdCtx.Logger)
	if err != nil {
		return nil, 0, err
	}
	if err := adp.Connect(ctx, src.AdapterConfig()); err != nil {
		return nil, 0, err
	}
	defer func() { _ = adp.Close() }()

	if in.csv != "" {
		if err := adp.LoadCSV(ctx, in.table, in.csv); err != nil {
			return nil, 0, fmt.Errorf("failed to load %s: %w", in.csv, err)
		}
	}

	if len(in.real) > 0 {
		cols, err := adp.Columns(ctx, in.table)
		if err != nil {
			return nil, 0, err
		}
		if err := missingColumns(in.table, cols, in.real); err != nil {
			return nil, 0, err
		}
	}

	tbl, err := adp.FetchColumns(ctx, in.table, in.real, in.limit)
	if err != nil {
		return nil, 0, err
	}

	if in.perRow {
		out, err := evaluateRows(ctx, cmdCtx, tbl, in)
		if err != nil {
			return nil, tbl.Rows(), err
		}
		return []*store.Table{out}, tbl.Rows(), nil
	}

	parts := tbl.Split(in.workers)
	stores := make([]core.Store, len(parts))
	for i, p := range parts {
		stores[i] = p
	}
	if err := cmdCtx.Engine.EvaluateBatch(ctx, stores, in.order, in.workers); err != nil {
		return nil, tbl.Rows(), err
	}
	return parts, tbl.Rows(), nil
}

// evaluateRows evaluates every row of tbl as a separate record, at most
// workers at a time, and collects the ordered fields back into a table.
func evaluateRows(ctx context.Context, cmdCtx *CommandContext, tbl *store.Table, in evalInput) (*store.Table, error) {
	recs := tbl.Records()
	stores := make([]core.Store, len(recs))
	for i, r := range recs {
		stores[i] = r
	}
	if err := cmdCtx.Engine.EvaluateBatch(ctx, stores, in.order, max(in.workers, 1)); err != nil {
		return nil, err
	}
	return store.TableFromRecords(recs, in.order)
}

// missingColumns reports every real field absent from the source table.
func missingColumns(table string, cols []adapter.Column, real []string) error {
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c.Name] = true
	}
	var errs []error
	for _, name := range real {
		if !have[name] {
			errs = append(errs, fmt.Errorf("source table %s: %w", table, &core.FieldNotFoundError{Field: name}))
		}
	}
	return errors.Join(errs...)
}

func renderEval(r *output.Renderer, runID string, columns []string, parts []*store.Table) error {
	mode := r.EffectiveMode()

	if mode == output.ModeJSON {
		out := output.EvalOutput{RunID: runID, Columns: columns, Data: []map[string]any{}}
		for _, p := range parts {
			for i := 0; i < p.Rows(); i++ {
				row, err := p.Row(i, columns)
				if err != nil {
					return err
				}
				rec := make(map[string]any, len(columns))
				for j, name := range columns {
					rec[name] = output.JSONNumber(row[j])
				}
				out.Data = append(out.Data, rec)
			}
			out.Rows += p.Rows()
		}
		return r.JSON(out)
	}

	var rows [][]string
	for _, p := range parts {
		for i := 0; i < p.Rows(); i++ {
			row, err := p.Row(i, columns)
			if err != nil {
				return err
			}
			cells := make([]string, len(row))
			for j, f := range row {
				cells[j] = output.FormatNumber(f, mode)
			}
			rows = append(rows, cells)
		}
	}

	r.Table(columns, rows)
	if mode != output.ModeCSV {
		r.Println(r.Muted(fmt.Sprintf("(%d rows)", len(rows))))
	}
	return nil
}
