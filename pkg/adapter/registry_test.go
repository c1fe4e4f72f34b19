package adapter

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{
		Type:      "fake_db",
		Available: []string{"duckdb", "postgres"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "fake_db", "error should mention the unknown type")
	assert.Contains(t, msg, "vcol.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	Register("test_adapter_internal", func(_ *slog.Logger) Adapter { return nil })

	assert.True(t, IsRegistered("test_adapter_internal"))
	assert.Contains(t, ListAdapters(), "test_adapter_internal")

	factory, ok := Get("test_adapter_internal")
	assert.True(t, ok)
	assert.NotNil(t, factory)
}

func TestNewAdapter(t *testing.T) {
	Register("test_adapter_new", func(l *slog.Logger) Adapter {
		return &fakeAdapter{BaseSQLAdapter: BaseSQLAdapter{Logger: l}}
	})

	adp, err := NewAdapter(Config{Type: "test_adapter_new"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &fakeAdapter{}, adp)
}

func TestNewAdapter_EmptyType(t *testing.T) {
	_, err := NewAdapter(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "adapter type not specified", err.Error())
}

func TestNewAdapter_Unknown(t *testing.T) {
	_, err := NewAdapter(Config{Type: "nope"}, nil)

	var unknown *UnknownAdapterError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "nope", unknown.Type)
}
