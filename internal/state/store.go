// Package state records the history of eval runs in SQLite.
package state

import (
	"context"
	"errors"
	"time"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunSpec describes a run when it starts.
type RunSpec struct {
	ID          string
	Environment string
	LogicFile   string
	Source      string
	Table       string
	Targets     []string
	Workers     int
}

// Run is one recorded evaluation.
type Run struct {
	ID          string     `json:"id"`
	Environment string     `json:"environment,omitempty"`
	LogicFile   string     `json:"logic_file"`
	Source      string     `json:"source"`
	Table       string     `json:"table"`
	Targets     []string   `json:"targets,omitempty"`
	Workers     int        `json:"workers"`
	Status      RunStatus  `json:"status"`
	Rows        int        `json:"rows"`
	Fields      int        `json:"fields"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Store persists run history.
type Store interface {
	CreateRun(ctx context.Context, spec RunSpec) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, rows, fields int, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	GetLatestRun(ctx context.Context, env string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}
