package mbpay

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNotNumeric = errors.New("value is not numeric")

// parseNumeric is the one place response numbers are coerced. It accepts
// JSON numbers, Go numerics and numeric strings; fractions are truncated.
func parseNumeric(v any) (int64, error) {
	switch val := v.(type) {
	case json.Number:
		return parseNumericString(val.String())
	case string:
		return parseNumericString(strings.TrimSpace(val))
	case float64:
		return truncate(val)
	case float32:
		return truncate(float64(val))
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	default:
		return 0, errNotNumeric
	}
}

func parseNumericString(s string) (int64, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotNumeric
	}
	return truncate(f)
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, errNotNumeric
	}
	return int64(f), nil
}

// numericOrDefault reads an optional number: absent or null gives 0,
// anything non-numeric is a response-shape error
func numericOrDefault(data map[string]any, key string) (int64, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, err := parseNumeric(v)
	if err != nil {
		return 0, newShapeError(key)
	}
	return n, nil
}

func requiredNumeric(data map[string]any, key string) (int64, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return 0, newShapeError(key)
	}
	n, err := parseNumeric(v)
	if err != nil {
		return 0, newShapeError(key)
	}
	return n, nil
}

func requiredString(data map[string]any, key string) (string, error) {
	s, ok := data[key].(string)
	if !ok || s == "" {
		return "", newShapeError(key)
	}
	return s, nil
}

// optionalString returns "" for absent or null values and renders scalars
// such as unix timestamps as text
func optionalString(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		return ""
	default:
		return FormatValue(v)
	}
}
