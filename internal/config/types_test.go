package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/vcol/pkg/adapter"
)

func TestSourceConfig_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   SourceConfig
		want SourceConfig
	}{
		{
			name: "duckdb",
			in:   SourceConfig{Type: "DuckDB"},
			want: SourceConfig{Type: "duckdb", Schema: "main", Table: DefaultTable},
		},
		{
			name: "postgres",
			in:   SourceConfig{Type: "postgres", Table: "metrics"},
			want: SourceConfig{Type: "postgres", Schema: "public", Port: 5432, Table: "metrics"},
		},
		{
			name: "explicit values kept",
			in:   SourceConfig{Type: "postgres", Schema: "raw", Port: 6543},
			want: SourceConfig{Type: "postgres", Schema: "raw", Port: 6543, Table: DefaultTable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.ApplyDefaults()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceConfig_Validate(t *testing.T) {
	adapter.Register("config-test", func(_ *slog.Logger) adapter.Adapter { return nil })

	assert.NoError(t, (&SourceConfig{Type: "config-test"}).Validate())
	assert.ErrorContains(t, (&SourceConfig{}).Validate(), "source type is required")
	assert.ErrorContains(t, (&SourceConfig{Type: "config-test", Port: 70000}).Validate(), "out of range")

	err := (&SourceConfig{Type: "oracle"}).Validate()
	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "oracle", unknown.Type)
}

func TestSourceConfig_AdapterConfig(t *testing.T) {
	file := SourceConfig{Type: "sqlite", Database: "data.db", Schema: "main"}
	assert.Equal(t, "data.db", file.AdapterConfig().Path)

	pg := SourceConfig{Type: "postgres", Database: "metrics", Host: "db", Port: 5432, User: "u", Password: "p"}
	cfg := pg.AdapterConfig()
	assert.Empty(t, cfg.Path)
	assert.Equal(t, "metrics", cfg.Database)
	assert.Equal(t, "u", cfg.Username)
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg, "no config file is not an error")

	content := "logic_file: metrics.yaml\nsource:\n  type: postgres\n  database: metrics\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), []byte(content), 0o600))

	cfg, err = LoadFromDir(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "metrics.yaml", cfg.LogicFile)
	assert.Equal(t, DefaultFunctionsDir, cfg.FunctionsDir)
	require.NotNil(t, cfg.Source)
	assert.Equal(t, 5432, cfg.Source.Port)
	assert.Equal(t, "public", cfg.Source.Schema)
}
