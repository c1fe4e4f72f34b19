package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/vcol/internal/cli/config"
	"github.com/leapstack-labs/vcol/internal/cli/output"
	"github.com/leapstack-labs/vcol/internal/functions"
	"github.com/leapstack-labs/vcol/internal/state"
	"github.com/leapstack-labs/vcol/internal/testutil"
	"github.com/leapstack-labs/vcol/pkg/adapter"
	"github.com/leapstack-labs/vcol/pkg/core"
	"github.com/leapstack-labs/vcol/pkg/store"
)

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func markdownRenderer(buf *bytes.Buffer) *output.Renderer {
	return output.NewRendererWithTTY(buf, buf, false, output.ModeMarkdown)
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewCheckCommand(), "check", []string{"watch"}},
		{NewOrderCommand(), "order", []string{"levels"}},
		{NewDepsCommand(), "deps <field>...", nil},
		{NewEvalCommand(), "eval [field]...", []string{"csv", "table", "limit", "workers"}},
		{NewFunctionsCommand(), "functions", nil},
		{NewRunsCommand(), "runs [run-id]", []string{"limit"}},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name(), func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			for _, f := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(f), "--%s flag should exist", f)
			}
		})
	}
}

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name  string
		logic *core.Logic
		want  map[string]string
	}{
		{
			name:  "valid",
			logic: testutil.DemoLogic(),
			want:  map[string]string{},
		},
		{
			name:  "syntax errors per field",
			logic: core.NewLogic().Set("a").Set("b", "a", "+").Set("c", "a", "a").Set("d", "a", "f:mean"),
			want: map[string]string{
				"b": "token 1",
				"c": "",
				"d": "token 1",
			},
		},
		{
			name:  "undefined references joined",
			logic: core.NewLogic().Set("a", "x", "y", "+").Set("b", "z"),
			want: map[string]string{
				"a": `undefined field "x"; undefined field "y"`,
				"b": `undefined field "z"`,
			},
		},
		{
			name:  "cycle",
			logic: core.NewLogic().Set("a", "a"),
			want:  map[string]string{"a": "cycle detected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diagnose(tt.logic)
			require.Len(t, got, len(tt.want), "got %v", got)
			for field, msg := range tt.want {
				require.Contains(t, got, field)
				assert.Contains(t, got[field], msg)
				assert.NotContains(t, got[field], "field \""+field+"\":", "field name should not repeat")
			}
		})
	}
}

func TestRenderCheck(t *testing.T) {
	buf := new(bytes.Buffer)
	r := markdownRenderer(buf)

	require.NoError(t, renderCheck(r, output.CheckOutput{File: "/p/logic.yaml", Valid: true, Fields: 4}))
	assert.Contains(t, buf.String(), "logic.yaml: 4 fields valid")

	buf.Reset()
	require.NoError(t, renderCheck(r, output.CheckOutput{
		File:   "/p/logic.yaml",
		Errors: map[string]string{"b": "too many operators", "": "bad yaml"},
	}))
	out := buf.String()
	assert.Contains(t, out, "## logic.yaml: 2 invalid")
	assert.Contains(t, out, "b (too many operators)")
	assert.Contains(t, out, "logic.yaml (bad yaml)")
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logic.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: []\nb: [a, \"+\"]\n"), 0600))

	buf := new(bytes.Buffer)
	c := &CommandContext{
		Cfg:      &config.Config{LogicFile: path},
		Logger:   testutil.NewTestLogger(t),
		Renderer: output.NewRendererWithTTY(buf, buf, false, output.ModeJSON),
	}

	err := runCheck(c)
	require.ErrorIs(t, err, ErrInvalidLogic)

	var result output.CheckOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.False(t, result.Valid)
	assert.Equal(t, 2, result.Fields)
	assert.Contains(t, result.Errors, "b")
}

func TestWatchCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logic.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: []\nb: [a, \"c:1\", \"+\"]\n"), 0600))

	buf := new(syncBuffer)
	c := &CommandContext{
		Cfg:      &config.Config{LogicFile: path},
		Logger:   slog.New(slog.DiscardHandler),
		Renderer: output.NewRendererWithTTY(buf, buf, false, output.ModeMarkdown),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchCheck(ctx, c) }()

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "2 fields valid")
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("a: []\nb: [a, \"+\"]\n"), 0600))

	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "1 invalid")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestRenderFunctions(t *testing.T) {
	reg := functions.NewRegistry()

	buf := new(bytes.Buffer)
	require.NoError(t, renderFunctions(markdownRenderer(buf), reg.List()))
	assert.Contains(t, buf.String(), "| nanmean | builtin |")

	buf.Reset()
	r := output.NewRendererWithTTY(buf, buf, false, output.ModeJSON)
	require.NoError(t, renderFunctions(r, reg.List()))
	var infos []output.FunctionInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &infos))
	assert.Len(t, infos, len(reg.List()))
}

func TestRenderEval(t *testing.T) {
	tbl := store.NewTable()
	require.NoError(t, tbl.Set("x", core.Column([]float64{1, 2, 3})))
	parts := tbl.Split(2)

	buf := new(bytes.Buffer)
	r := output.NewRendererWithTTY(buf, buf, false, output.ModeCSV)
	require.NoError(t, renderEval(r, "run-1", []string{"x"}, parts))
	assert.Equal(t, "x\n1\n2\n3\n", buf.String())

	buf.Reset()
	r = output.NewRendererWithTTY(buf, buf, false, output.ModeJSON)
	require.NoError(t, renderEval(r, "run-1", []string{"x"}, parts))
	var result output.EvalOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 3, result.Rows)
	require.Len(t, result.Data, 3)
	assert.InDelta(t, 3.0, result.Data[2]["x"], 1e-9)
}

func TestWriteArrow(t *testing.T) {
	tbl := store.NewTable()
	require.NoError(t, tbl.Set("x", core.Column([]float64{1, 2, 3})))
	require.NoError(t, tbl.Set("y", core.Column([]float64{4, math.NaN(), 6})))
	path := filepath.Join(t.TempDir(), "out.arrow")

	require.NoError(t, writeArrow(path, []string{"y", "x"}, tbl.Split(2)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rdr, err := ipc.NewReader(f)
	require.NoError(t, err)
	defer rdr.Release()

	assert.Equal(t, "y", rdr.Schema().Field(0).Name)
	assert.Equal(t, "x", rdr.Schema().Field(1).Name)

	var rows int64
	var nulls int
	for rdr.Next() {
		rec := rdr.RecordBatch()
		rows += rec.NumRows()
		nulls += rec.Column(0).NullN()
	}
	require.NoError(t, rdr.Err())
	assert.Equal(t, int64(3), rows)
	assert.Equal(t, 1, nulls)
}

func TestMissingColumns(t *testing.T) {
	cols := []adapter.Column{{Name: "h", Position: 1}, {Name: "i", Position: 2}}

	tests := []struct {
		name    string
		real    []string
		missing []string
	}{
		{name: "all present", real: []string{"i", "h"}},
		{name: "none requested", real: nil},
		{name: "one missing", real: []string{"h", "k"}, missing: []string{"k"}},
		{name: "several missing", real: []string{"j", "i", "k"}, missing: []string{"j", "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := missingColumns("readings", cols, tt.real)
			if len(tt.missing) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrFieldNotFound)
			assert.Contains(t, err.Error(), "source table readings")
			for _, name := range tt.missing {
				assert.Contains(t, err.Error(), `"`+name+`"`)
			}
		})
	}
}

func TestRenderRuns(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	completed := started.Add(1500 * time.Millisecond)
	runs := []*state.Run{
		{ID: "0123456789abcdef", Source: "duckdb", Table: "readings", Status: state.RunStatusSuccess, Rows: 3, StartedAt: started, CompletedAt: &completed},
		{ID: "running", Source: "sqlite", Table: "t", Targets: []string{"l", "o"}, Status: state.RunStatusRunning, StartedAt: started},
	}

	buf := new(bytes.Buffer)
	require.NoError(t, renderRuns(markdownRenderer(buf), runs))
	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "l,o")
	assert.Contains(t, out, "duckdb:readings")

	buf.Reset()
	require.NoError(t, renderRuns(markdownRenderer(buf), nil))
	assert.Contains(t, buf.String(), "No runs recorded yet.")

	buf.Reset()
	require.NoError(t, renderRun(markdownRenderer(buf), runs[1]))
	assert.Contains(t, buf.String(), "# Run running")
	assert.Contains(t, buf.String(), "- **Duration**: -")
}

func TestOpenHistory(t *testing.T) {
	c := &CommandContext{Cfg: &config.Config{}, Logger: slog.New(slog.DiscardHandler)}
	assert.Nil(t, openHistory(c), "empty state path disables history")

	c.Cfg.StatePath = filepath.Join(t.TempDir(), "sub", "state.db")
	h := openHistory(c)
	require.NotNil(t, h)
	require.NoError(t, h.Close())
	assert.FileExists(t, c.Cfg.StatePath)
}
