package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/vcol/pkg/token"
)

func mustCompile(t *testing.T, tokens ...string) []token.Token {
	t.Helper()
	toks, err := token.ParseAll(tokens)
	require.NoError(t, err)
	return toks
}
