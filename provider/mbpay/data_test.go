package mbpay

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in       any
		expected int64
		wantErr  bool
	}{
		{json.Number("42"), 42, false},
		{json.Number("42.9"), 42, false},
		{json.Number("-3"), -3, false},
		{"1500", 1500, false},
		{" 7 ", 7, false},
		{"12.0", 12, false},
		{float64(99), 99, false},
		{int(5), 5, false},
		{int64(math.MaxInt64), math.MaxInt64, false},
		{"abc", 0, true},
		{"", 0, true},
		{true, 0, true},
		{map[string]any{}, 0, true},
		{math.Inf(1), 0, true},
		{json.Number("1e30"), 0, true},
	}

	for _, tt := range tests {
		got, err := parseNumeric(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%#v", tt.in)
			continue
		}
		require.NoError(t, err, "%#v", tt.in)
		assert.Equal(t, tt.expected, got, "%#v", tt.in)
	}
}

func TestNumericOrDefault(t *testing.T) {
	data := map[string]any{"fee": json.Number("3"), "nil": nil, "bad": "x"}

	n, err := numericOrDefault(data, "fee")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = numericOrDefault(data, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = numericOrDefault(data, "nil")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = numericOrDefault(data, "bad")
	assert.ErrorIs(t, err, ErrResponseShape)

	_, err = requiredNumeric(data, "missing")
	assert.ErrorIs(t, err, ErrResponseShape)
}

func TestStringFields(t *testing.T) {
	data := map[string]any{
		"s":     "value",
		"empty": "",
		"ts":    json.Number("1700000000"),
		"obj":   map[string]any{"a": 1},
	}

	s, err := requiredString(data, "s")
	require.NoError(t, err)
	assert.Equal(t, "value", s)

	_, err = requiredString(data, "empty")
	assert.ErrorIs(t, err, ErrResponseShape)
	_, err = requiredString(data, "ts")
	assert.ErrorIs(t, err, ErrResponseShape)

	assert.Equal(t, "value", optionalString(data, "s"))
	assert.Equal(t, "1700000000", optionalString(data, "ts"))
	assert.Equal(t, "", optionalString(data, "obj"))
	assert.Equal(t, "", optionalString(data, "missing"))
}
