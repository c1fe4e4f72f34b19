package checker

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/vcol/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckExpression(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []string
		wantErr error
	}{
		{"real field", nil, nil},
		{"single reference", []string{"i"}, nil},
		{"constant", []string{"c:1"}, nil},
		{"binary", []string{"i", "c:3600", "/"}, nil},
		{"chained", []string{"i", "j", "k", "+", "*"}, nil},
		{"function", []string{"j", "k", "f:nanmean:2"}, nil},
		{"function then operator", []string{"n", "c:1", "j", "k", "f:nanmean:3", "+"}, nil},
		{"zero arity function", []string{"f:now:0"}, nil},
		{"operator short", []string{"x", "+"}, ErrTooManyOperators},
		{"leading operator", []string{"+", "x", "y"}, ErrTooManyOperators},
		{"function short", []string{"x", "f:nanmean:2"}, ErrTooManyOperators},
		{"dangling points", []string{"x", "y"}, ErrTooManyPoints},
		{"dangling after op", []string{"x", "y", "z", "+"}, ErrTooManyPoints},
		{"function missing arity", []string{"x", "f:nanmean"}, ErrMalformedToken},
		{"function bad arity", []string{"x", "f:nanmean:two"}, ErrMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExpression(tt.tokens)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}

func TestCheck_ReportsEveryInvalidField(t *testing.T) {
	logic := core.NewLogic().
		Set("x").
		Set("good", "x", "c:2", "*").
		Set("bad_op", "x", "+").
		Set("bad_points", "x", "x").
		Set("also_good", "x")

	ok, errs := Check(logic)
	assert.False(t, ok)
	require.Len(t, errs, 2)

	var syn *SyntaxError
	require.True(t, errors.As(errs["bad_op"], &syn))
	assert.Equal(t, "bad_op", syn.Field)
	assert.Equal(t, 1, syn.Index)
	assert.Equal(t, "+", syn.Token)
	assert.ErrorIs(t, syn, ErrTooManyOperators)

	assert.ErrorIs(t, errs["bad_points"], ErrTooManyPoints)
	assert.NotContains(t, errs, "good")
	assert.NotContains(t, errs, "also_good")
}

func TestCheck_BalancedMapIsValid(t *testing.T) {
	logic := core.NewLogic().
		Set("b", "i", "c:3600", "/").
		Set("c", "i", "j", "k", "+", "*").
		Set("i").Set("j").Set("k")

	ok, errs := Check(logic)
	assert.True(t, ok)
	assert.Empty(t, errs)
	assert.NoError(t, Validate(logic))
}

func TestValidate_Report(t *testing.T) {
	logic := core.NewLogic().
		Set("x").
		Set("a", "x", "+").
		Set("b", "x", "x")

	err := Validate(logic)
	require.Error(t, err)

	var report *Report
	require.True(t, errors.As(err, &report))
	assert.Equal(t, []string{"a", "b"}, report.Fields())
	assert.ErrorIs(t, err, ErrTooManyOperators)
	assert.ErrorIs(t, err, ErrTooManyPoints)
	assert.Contains(t, err.Error(), "2 invalid fields")
}

func TestSyntaxError_Message(t *testing.T) {
	err := CheckExpression([]string{"x", "+"})
	assert.Equal(t, `token 1 ("+"): more operators than points`, err.Error())

	err = check("f", []string{"x", "y"})
	assert.Equal(t, `field "f": more points than operators`, err.Error())
}
