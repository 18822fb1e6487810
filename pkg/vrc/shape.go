// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import (
	"fmt"

	"github.com/goccy/go-json"
)

// ViolationReason classifies a schema binding failure.
type ViolationReason string

const (
	// ReservedKeyCollision: the payload tried to set a key the shape
	// reserves for internal bookkeeping.
	ReservedKeyCollision ViolationReason = "reserved_key_collision"
	// MissingOrUnexpectedField: a required key is absent, or (in closed
	// mode) an undeclared key is present.
	MissingOrUnexpectedField ViolationReason = "missing_or_unexpected_field"
	// MalformedEncodedField: a JSON-encoded-as-string field failed to decode.
	MalformedEncodedField ViolationReason = "malformed_encoded_field"
)

// SchemaViolation reports that a remote payload does not match the declared
// shape of a domain type. It usually means the server schema drifted ahead
// of this client.
type SchemaViolation struct {
	Object string // domain type name, e.g. "User"
	Reason ViolationReason
	Key    string
	cause  error
}

func (e *SchemaViolation) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s on key %q: %v", e.Object, e.Reason, e.Key, e.cause)
	}
	return fmt.Sprintf("%s: %s on key %q", e.Object, e.Reason, e.Key)
}

func (e *SchemaViolation) Unwrap() error { return e.cause }

// Fields holds the bound key/value pairs of a domain object. Values are
// plain decoded JSON except where the shape mapped a key to a typed binder.
type Fields map[string]any

// Str returns the string value under key, or "" when absent or untyped.
func (f Fields) Str(key string) string {
	s, _ := f[key].(string)
	return s
}

// Bool returns the bool value under key, or false.
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Int returns the numeric value under key as an int, or 0. JSON numbers
// decode as float64, which is what this accessor expects.
func (f Fields) Int(key string) int {
	n, _ := f[key].(float64)
	return int(n)
}

// Strings returns the value under key as a string slice, skipping any
// non-string elements.
func (f Fields) Strings(key string) []string {
	raw, ok := f[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// FieldBinder converts one raw field value into a typed value. The session
// is threaded through so nested objects can issue follow-up calls later;
// it may be nil.
type FieldBinder func(ses *AccountSession, raw any) (any, error)

// Shape declares how raw remote JSON binds to a domain type. A shape is
// immutable and declared once per type.
//
// Two integrity modes exist. When Only is set the key set is closed: the
// payload must carry exactly those keys, which catches breaking schema
// drift early. Otherwise the shape is forward-compatible: only the Required
// keys are checked and unknown keys pass through verbatim.
type Shape struct {
	Object    string
	Required  []string               // keys that must be present (open mode)
	Only      []string               // exact closed key set; overrides Required
	Nested    map[string]FieldBinder // field -> typed sub-binder
	Arrays    map[string]FieldBinder // field -> element sub-binder
	Encoded   []string               // fields that may arrive JSON-encoded as a string
	Forbidden []string               // reserved keys remote data must never set
	Defaults  Fields                 // optional fields filled in when absent
}

// extend derives the shape of a richer type from a base shape: required
// keys and reserved keys append, binder maps and defaults merge. The
// receiver is not modified.
func (sh Shape) extend(object string, with Shape) Shape {
	out := Shape{
		Object:    object,
		Required:  append(append([]string{}, sh.Required...), with.Required...),
		Only:      append(append([]string{}, sh.Only...), with.Only...),
		Encoded:   append(append([]string{}, sh.Encoded...), with.Encoded...),
		Forbidden: append(append([]string{}, sh.Forbidden...), with.Forbidden...),
		Nested:    make(map[string]FieldBinder, len(sh.Nested)+len(with.Nested)),
		Arrays:    make(map[string]FieldBinder, len(sh.Arrays)+len(with.Arrays)),
		Defaults:  make(Fields, len(sh.Defaults)+len(with.Defaults)),
	}
	for k, v := range sh.Nested {
		out.Nested[k] = v
	}
	for k, v := range with.Nested {
		out.Nested[k] = v
	}
	for k, v := range sh.Arrays {
		out.Arrays[k] = v
	}
	for k, v := range with.Arrays {
		out.Arrays[k] = v
	}
	for k, v := range sh.Defaults {
		out.Defaults[k] = v
	}
	for k, v := range with.Defaults {
		out.Defaults[k] = v
	}
	return out
}

// Bind validates raw against the shape and produces the bound field set.
// Binding is all-or-nothing: on any violation no partial result is
// returned. Array elements bind in order and the first failure aborts.
func (sh Shape) Bind(ses *AccountSession, raw map[string]any) (Fields, error) {
	if err := sh.checkIntegrity(raw); err != nil {
		return nil, err
	}

	bound := make(Fields, len(raw)+len(sh.Defaults))
	for key, value := range raw {
		value, err := sh.decodeIfEncoded(key, value)
		if err != nil {
			return nil, err
		}

		switch {
		case sh.Nested[key] != nil:
			typed, err := sh.Nested[key](ses, value)
			if err != nil {
				return nil, err
			}
			bound[key] = typed
		case sh.Arrays[key] != nil:
			elems, ok := value.([]any)
			if !ok {
				return nil, &SchemaViolation{Object: sh.Object, Reason: MissingOrUnexpectedField, Key: key,
					cause: fmt.Errorf("expected array, got %T", value)}
			}
			typed := make([]any, 0, len(elems))
			for _, elem := range elems {
				v, err := sh.Arrays[key](ses, elem)
				if err != nil {
					return nil, err
				}
				typed = append(typed, v)
			}
			bound[key] = typed
		default:
			bound[key] = value
		}
	}

	for key, value := range sh.Defaults {
		if _, ok := bound[key]; !ok {
			bound[key] = value
		}
	}
	return bound, nil
}

// checkIntegrity enforces the forbidden set and the shape's integrity mode.
func (sh Shape) checkIntegrity(raw map[string]any) error {
	for _, key := range sh.Forbidden {
		if _, ok := raw[key]; ok {
			return &SchemaViolation{Object: sh.Object, Reason: ReservedKeyCollision, Key: key}
		}
	}

	if len(sh.Only) > 0 {
		declared := make(map[string]bool, len(sh.Only))
		for _, key := range sh.Only {
			declared[key] = true
			if _, ok := raw[key]; !ok {
				return &SchemaViolation{Object: sh.Object, Reason: MissingOrUnexpectedField, Key: key}
			}
		}
		for key := range raw {
			if !declared[key] {
				return &SchemaViolation{Object: sh.Object, Reason: MissingOrUnexpectedField, Key: key}
			}
		}
		return nil
	}

	for _, key := range sh.Required {
		if _, ok := raw[key]; !ok {
			return &SchemaViolation{Object: sh.Object, Reason: MissingOrUnexpectedField, Key: key}
		}
	}
	return nil
}

// decodeIfEncoded decodes a field the shape marks as JSON-encoded-as-string.
// The service is inconsistent about whether such fields arrive encoded or as
// plain objects, so a non-string value passes through untouched; a string
// that fails to decode is a violation.
func (sh Shape) decodeIfEncoded(key string, value any) (any, error) {
	encoded := false
	for _, k := range sh.Encoded {
		if k == key {
			encoded = true
			break
		}
	}
	s, isString := value.(string)
	if !encoded || !isString {
		return value, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, &SchemaViolation{Object: sh.Object, Reason: MalformedEncodedField, Key: key, cause: err}
	}
	return decoded, nil
}
