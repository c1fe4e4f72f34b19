package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/vcol/pkg/adapter"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  adapter.Config
		want string
	}{
		{
			name: "defaults",
			cfg:  adapter.Config{Database: "metrics"},
			want: "host=localhost port=5432 dbname=metrics sslmode=disable",
		},
		{
			name: "full",
			cfg: adapter.Config{
				Host:     "db.internal",
				Port:     6432,
				Database: "metrics",
				Username: "reader",
				Password: "s3cret",
				Options:  map[string]string{"sslmode": "require"},
			},
			want: "host=db.internal port=6432 dbname=metrics sslmode=require user=reader password=s3cret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildPostgresDSN(tt.cfg))
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)
	require.NotNil(t, adp.Logger)
	assert.False(t, adp.IsConnected())
	assert.Equal(t, "public", adp.Dialect().DefaultSchema)
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	assert.Error(t, adp.Exec(ctx, "SELECT 1"))
	assert.Error(t, adp.LoadCSV(ctx, "t", "x.csv"))
	_, err := adp.Columns(ctx, "t")
	assert.Error(t, err)
	_, err = adp.FetchColumns(ctx, "t", []string{"a"}, 0)
	assert.Error(t, err)
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("postgres"))

	adp, err := adapter.NewAdapter(adapter.Config{Type: "postgres"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Adapter{}, adp)
}

func TestAdapter_ColumnsUsesNumberedPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adp := New(nil)
	adp.DB = db

	mock.ExpectQuery(`WHERE table_schema = \$1 AND table_name = \$2`).
		WithArgs("public", "readings").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "ordinal_position"}).
			AddRow("i", "text", 1))

	cols, err := adp.Columns(context.Background(), "readings")
	require.NoError(t, err)
	assert.Equal(t, []adapter.Column{{Name: "i", Type: "text", Position: 1}}, cols)

	mock.ExpectQuery(`SELECT "i" FROM "public"."readings"`).
		WillReturnRows(sqlmock.NewRows([]string{"i"}).AddRow("7200").AddRow(""))

	tbl, err := adp.FetchColumns(context.Background(), "readings", []string{"i"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows())

	mock.ExpectClose()
	require.NoError(t, adp.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_LoadCSVMissingFile(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	adp := New(nil)
	adp.DB = db
	assert.ErrorContains(t, adp.LoadCSV(context.Background(), "t", "/nonexistent/file.csv"), "failed to open CSV file")
}
