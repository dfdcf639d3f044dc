package mbpay

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params is a parameter set to be signed. Values are strings or numerics.
type Params map[string]any

// signKey is never part of the signed string
const signKey = "sign"

// CanonicalString renders params as k=v pairs sorted by byte value and
// joined with '&'. The sign key is skipped and params is not modified.
func CanonicalString(params Params) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if key == signKey {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(FormatValue(params[key]))
	}
	return b.String()
}

// FormatValue renders a single parameter value. Integral numerics come out
// as plain base-10 integers, so 100.0 and json.Number("100.0") both give "100".
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return formatFloat(float64(val), 32)
	case float64:
		return formatFloat(val, 64)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		// integers beyond int64 keep their digits
		if !strings.ContainsAny(val.String(), ".eE") {
			return val.String()
		}
		if f, err := val.Float64(); err == nil {
			return formatFloat(f, 64)
		}
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// formatFloat uses the shortest decimal form, which has no fraction for
// integral values
func formatFloat(f float64, bitSize int) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

// Clone returns a shallow copy
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Form renders every value with FormatValue, ready to be sent as form data
func (p Params) Form() map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = FormatValue(v)
	}
	return out
}
