// Package structured turns raw model text into a validated reply value.
package structured

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"compass/internal/util/jsonutil"
)

var ErrSchemaValidation = errors.New("reply does not match schema")

// SchemaValidationError is the single failure outcome of Parse. Reason is a
// short description of the first violation found.
type SchemaValidationError struct {
	Reason string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrSchemaValidation, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrSchemaValidation, e.Reason)
}

func (e *SchemaValidationError) Is(target error) bool { return target == ErrSchemaValidation }

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// Validator is implemented by reply payloads with constraints beyond what
// JSON decoding can express (cardinality, enums, ranges).
type Validator interface {
	Validate() error
}

// Invalid builds a SchemaValidationError from a Validate implementation.
func Invalid(format string, args ...any) error {
	return &SchemaValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Parse decodes raw into T. Leading/trailing whitespace and a surrounding
// Markdown code fence are removed first; nothing else is repaired. Field
// names must match the json tags exactly, including case.
func Parse[T any](raw string) (T, error) {
	var zero T
	text := Clean(raw)
	if text == "" {
		return zero, &SchemaValidationError{Reason: "empty reply"}
	}
	var v T
	if err := jsonutil.DecodeStrict([]byte(text), &v); err != nil {
		return zero, &SchemaValidationError{Reason: "decode", Err: err}
	}
	if err := checkKeys([]byte(text), reflect.TypeOf(v)); err != nil {
		return zero, &SchemaValidationError{Reason: "field names", Err: err}
	}
	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			var se *SchemaValidationError
			if errors.As(err, &se) {
				return zero, se
			}
			return zero, &SchemaValidationError{Reason: "validate", Err: err}
		}
	}
	return v, nil
}

// Clean trims whitespace and strips one surrounding ``` or ```json fence.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Language tag on the opening fence line, e.g. "json".
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
