package parsererror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		expected string
	}{
		{
			name:     "amount",
			err:      &ParseError{Field: "amount", Value: "five", Err: errors.New("can't convert five to decimal")},
			expected: `invalid amount "five": can't convert five to decimal`,
		},
		{
			name:     "empty value",
			err:      &ParseError{Field: "category", Value: "", Err: errors.New("required")},
			expected: `invalid category "": required`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestRowError_Unwraps(t *testing.T) {
	cause := errors.New("bad decimal")
	err := error(&RowError{Row: 3, Err: &ParseError{Field: "amount", Value: "x", Err: cause}})

	assert.Equal(t, `row 3: invalid amount "x": bad decimal`, err.Error())
	assert.ErrorIs(t, err, cause)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "amount", parseErr.Field)

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Row)
}
