package mbpay

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
)

// Envelope is the uniform {code, message, data} reply of the gateway
type Envelope struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// ParseEnvelope decodes a reply body. Missing fields default to 0, "" and
// an empty map; a body that is not a JSON object with those field types is
// a parse error. Numbers inside data are kept as json.Number.
func ParseEnvelope(body []byte) (*Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, newParseError("response body is not valid JSON", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, newParseError("response body has trailing data", err)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, newParseError("response body is not a JSON object", nil)
	}

	env := &Envelope{Data: map[string]any{}}

	if v, ok := obj["code"]; ok && v != nil {
		code, err := envelopeCode(v)
		if err != nil {
			return nil, err
		}
		env.Code = code
	}

	if v, ok := obj["message"]; ok && v != nil {
		msg, ok := v.(string)
		if !ok {
			return nil, newParseError("message is not a string", nil)
		}
		env.Message = msg
	}

	switch data := obj["data"].(type) {
	case nil:
	case map[string]any:
		env.Data = data
	case []any:
		// an empty list stands in for an empty object on some gateway replies
		if len(data) > 0 {
			return nil, newParseError("data is not an object", nil)
		}
	default:
		return nil, newParseError("data is not an object", nil)
	}

	return env, nil
}

func envelopeCode(v any) (int, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, newParseError("code is not numeric", nil)
	}
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, newParseError("code is not an integer", err)
	}
	return int(f), nil
}

// IsSuccess reports whether the gateway accepted the call
func (e *Envelope) IsSuccess() bool {
	return e.Code == ErrCodeSuccess
}

// ToError returns the application error carried by a failed envelope, or nil
func (e *Envelope) ToError() error {
	if e.IsSuccess() {
		return nil
	}
	return NewError(e.Code, e.Message)
}
