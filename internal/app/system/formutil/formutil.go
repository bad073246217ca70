// Package formutil decodes JSON request payloads into loosely typed field
// maps and coerces individual fields to the Go types the domain expects.
//
// Payloads are decoded with json.Decoder.UseNumber so numeric fields keep
// their textual form until they are coerced. Clients frequently send numbers
// as strings ("450000"); those are accepted too.
//
// Example usage:
//
//	payload, err := formutil.DecodeJSON(r, 1<<20)
//	if err != nil { ... }
//	if v, ok := payload["price"]; ok {
//		price, err := formutil.Float("price", v)
//		...
//	}
package formutil

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/propertyhub/internal/app/system/apierr"
)

// Payload is a decoded JSON object.
type Payload map[string]any

// Has reports whether key is present in the payload (even when null).
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// DecodeJSON reads a JSON object from the request body, limited to maxBytes.
// An empty body decodes to an empty payload.
func DecodeJSON(r *http.Request, maxBytes int64) (Payload, error) {
	if r.Body == nil {
		return Payload{}, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBytes))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Payload{}, nil
		}
		return nil, apierr.Validation("", "request body must be a JSON object")
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}

// String coerces v to a string. Numbers and booleans are formatted; null
// becomes "".
func String(field string, v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return "", apierr.Validation(field, "must be a string")
}

// Float coerces v to a float64. Accepts JSON numbers and numeric strings.
func Float(field string, v any) (float64, error) {
	var f float64
	var err error
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, apierr.Validation(field, "must be a number")
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apierr.Validation(field, "must be a number")
	}
	return f, nil
}

// Int coerces v to an int. JSON numbers with a fractional part are
// truncated toward zero; strings must hold a whole number.
func Int(field string, v any) (int, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
		f, err := t.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, apierr.Validation(field, "must be an integer")
		}
		return int(f), nil
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, apierr.Validation(field, "must be an integer")
		}
		return n, nil
	}
	return 0, apierr.Validation(field, "must be an integer")
}

// Bool coerces v to a bool. Accepts booleans, "true"/"false"/"1"/"0"
// strings and numbers (non-zero is true). null is false.
func Bool(field string, v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return false, apierr.Validation(field, "must be a boolean")
		}
		return f != 0, nil
	case float64:
		return t != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, apierr.Validation(field, "must be a boolean")
		}
		return b, nil
	}
	return false, apierr.Validation(field, "must be a boolean")
}

// Plain converts json.Number leaves to float64 so that free-form documents
// hold only plain JSON types.
func Plain(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = Plain(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = Plain(c)
		}
		return out
	}
	return v
}
