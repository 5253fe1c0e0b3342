package taskrequest

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Decoder turns a raw model reply into a typed value. A non-nil error rejects the reply
// and triggers another round trip.
type Decoder[T any] func(raw string) (T, error)

// ErrNoJSON is returned when a reply contains no JSON object or array.
var ErrNoJSON = errors.New("no JSON value found in reply")

// JSONDecoder decodes the first JSON value in a reply into T. Markdown code fences and
// surrounding prose are tolerated. Object keys that T does not declare reject the reply.
// validate, when non-nil, can reject a well-formed value.
func JSONDecoder[T any](validate func(T) error) Decoder[T] {
	open := openingDelimiter(reflect.TypeFor[T]())
	return func(raw string) (T, error) {
		var out T
		payload, err := extractJSON(raw, open)
		if err != nil {
			return out, err
		}
		dec := json.NewDecoder(strings.NewReader(payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&out); err != nil {
			return out, fmt.Errorf("invalid JSON: %w", err)
		}
		if validate != nil {
			if err := validate(out); err != nil {
				return out, fmt.Errorf("validation failed: %w", err)
			}
		}
		return out, nil
	}
}

// openingDelimiter returns '{' for object-like types, '[' for list types and 0 otherwise.
func openingDelimiter(t reflect.Type) byte {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return '{'
	case reflect.Slice, reflect.Array:
		return '['
	default:
		return 0
	}
}

// cleanJSONResponse removes markdown code fences from a reply.
func cleanJSONResponse(resp string) string {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	return strings.TrimSpace(resp)
}

// extractJSON returns the first complete JSON value in the reply that starts with open.
// Bracketed prose that is not valid JSON is skipped. A valid value of the other kind is
// stepped over whole, so nested values are never picked out of it, and is returned only
// when nothing of the expected kind follows. open == 0 accepts either kind.
func extractJSON(raw string, open byte) (string, error) {
	cleaned := cleanJSONResponse(raw)
	var fallback string
	lastErr := ErrNoJSON

	for i := 0; i < len(cleaned); {
		j := strings.IndexAny(cleaned[i:], "{[")
		if j < 0 {
			break
		}
		start := i + j

		dec := json.NewDecoder(strings.NewReader(cleaned[start:]))
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			lastErr = fmt.Errorf("invalid JSON: %w", err)
			i = start + 1
			continue
		}
		if open == 0 || cleaned[start] == open {
			return string(value), nil
		}
		if fallback == "" {
			fallback = string(value)
		}
		i = start + int(dec.InputOffset())
	}

	if fallback != "" {
		return fallback, nil
	}
	return "", lastErr
}
