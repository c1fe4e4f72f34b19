package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const runColumns = `id, environment, logic_file, source, source_table, targets, workers,
	status, row_count, field_count, started_at, completed_at, error`

// CreateRun records the start of a run. An empty spec ID gets a new UUID.
func (s *SQLiteStore) CreateRun(ctx context.Context, spec RunSpec) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:          spec.ID,
		Environment: spec.Environment,
		LogicFile:   spec.LogicFile,
		Source:      spec.Source,
		Table:       spec.Table,
		Targets:     spec.Targets,
		Workers:     spec.Workers,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("environment", run.Environment))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, environment, logic_file, source, source_table, targets, workers, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Environment, run.LogicFile, run.Source, run.Table,
		strings.Join(run.Targets, ","), run.Workers, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, status RunStatus, rows, fields int, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, row_count = ?, field_count = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), rows, fields, time.Now().UTC(), errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetLatestRun retrieves the most recent run for an environment. It returns
// nil without error when there is none.
func (s *SQLiteStore) GetLatestRun(ctx context.Context, env string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE environment = ? ORDER BY started_at DESC LIMIT 1`, env)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A limit <= 0
// returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	run := &Run{}
	var status, targets string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := sc.Scan(&run.ID, &run.Environment, &run.LogicFile, &run.Source, &run.Table, &targets,
		&run.Workers, &status, &run.Rows, &run.Fields, &run.StartedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	if targets != "" {
		run.Targets = strings.Split(targets, ",")
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}
