package silo

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Encode implements the hash-serialization convention shared with the
// coordinator: string, integer, float, and boolean values pass through
// as their Redis scalar encoding; everything else (slices, maps,
// structs, nil) is JSON-encoded. Decode reverses it, inferring scalar
// types as described on Decode.
func Encode(record map[string]any) map[string]string {
	out := make(map[string]string, len(record))
	for k, v := range record {
		out[k] = encodeValue(v)
	}
	return out
}

func encodeValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// Decode is the inverse of Encode. A field that looks like a JSON object
// or array is decoded as JSON; any other field is inferred as its
// narrowest scalar type - bool, then int64, then float64 - and finally
// left as a plain string. Callers
// on the other end already know the shape they expect; the inference
// ladder gets us a faithful round-trip for the whitelisted primitive
// types, at the cost of the same ambiguity
// any untyped scheme has (a string field whose value happens to read
// "true" or "42" decodes as a bool/int, not a string). Callers that must
// avoid that ambiguity should use DecodeInto against a typed struct.
func Decode(fields map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = decodeValue(v)
	}
	return out
}

func decodeValue(v string) any {
	if decoded, ok := tryDecodeJSON(v); ok {
		return decoded
	}

	switch v {
	case "true":
		return true
	case "false":
		return false
	}

	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}

	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}

	return v
}

// tryDecodeJSON decodes v as JSON only if it looks like a JSON composite
// (object or array) - this avoids turning a plain string like "enqueued"
// into something other than itself, since a bare string is also valid
// JSON.
func tryDecodeJSON(v string) (any, bool) {
	if len(v) == 0 {
		return nil, false
	}
	switch v[0] {
	case '{', '[':
	default:
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal([]byte(v), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

// DecodeInto decodes fields (per the convention above) and then
// JSON-round-trips the result into dst, so callers can target a typed
// struct instead of map[string]any.
func DecodeInto(fields map[string]string, dst any) error {
	decoded := Decode(fields)
	b, err := json.Marshal(decoded)
	if err != nil {
		return fmt.Errorf("silo: re-marshal decoded fields: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("silo: decode into destination: %w", err)
	}
	return nil
}
