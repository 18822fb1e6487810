// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package vrc

import (
	"fmt"
	"strings"
)

// Location is the parsed form of a compact location string:
//
//	[worldId:]code
//	[worldId:]name~type(userId)
//	[worldId:]name~type(userId)~nonce(value)
//
// WorldID is empty exactly when the raw string carries no ":" separator.
// Type defaults to "public" when no "~" segment exists.
type Location struct {
	Raw     string
	WorldID string
	Name    string
	Type    string
	UserID  string
	Nonce   string
}

// ParseError reports a location string that does not match the grammar.
// Malformed input always fails; the parser never guesses.
type ParseError struct {
	Raw   string
	cause error
}

func (e *ParseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("cannot parse location %q: %v", e.Raw, e.cause)
	}
	return fmt.Sprintf("cannot parse location %q", e.Raw)
}

func (e *ParseError) Unwrap() error { return e.cause }

// ParseLocation parses a compact location string.
//
// The single-"~" form (name~type with no parenthesized user id) is
// documented service behavior that has not been confirmed against live
// traffic in every variant; it parses as a plain name/type split.
func ParseLocation(raw string) (*Location, error) {
	loc := &Location{Raw: raw, Type: "public"}

	code := raw
	if i := strings.Index(code, ":"); i >= 0 {
		loc.WorldID = code[:i]
		code = code[i+1:]
	}

	switch strings.Count(code, "~") {
	case 0:
		loc.Name = code
	case 1:
		parts := strings.SplitN(code, "~", 2)
		loc.Name = parts[0]
		loc.Type = parts[1]
	case 2:
		parts := strings.SplitN(code, "~", 3)
		loc.Name = parts[0]

		typ, userID, err := splitCall(parts[1])
		if err != nil {
			return nil, &ParseError{Raw: raw, cause: err}
		}
		loc.Type = typ
		loc.UserID = userID

		_, nonce, err := splitCall(parts[2])
		if err != nil {
			return nil, &ParseError{Raw: raw, cause: err}
		}
		loc.Nonce = nonce
	default:
		return nil, &ParseError{Raw: raw, cause: fmt.Errorf("too many %q separators", "~")}
	}
	return loc, nil
}

// splitCall splits a "key(value)" segment into key and value.
func splitCall(segment string) (string, string, error) {
	if !strings.HasSuffix(segment, ")") {
		return "", "", fmt.Errorf("segment %q is missing a closing parenthesis", segment)
	}
	open := strings.Index(segment, "(")
	if open < 0 {
		return "", "", fmt.Errorf("segment %q is missing an opening parenthesis", segment)
	}
	return segment[:open], segment[open+1 : len(segment)-1], nil
}

// String reproduces the compact form in its canonical spelling. Parsing
// then String is lossless except for an explicit "~public" type suffix,
// which normalizes away because public is the default type.
func (l *Location) String() string {
	var b strings.Builder
	if l.WorldID != "" {
		b.WriteString(l.WorldID)
		b.WriteString(":")
	}
	b.WriteString(l.Name)
	if l.UserID != "" {
		fmt.Fprintf(&b, "~%s(%s)", l.Type, l.UserID)
		if l.Nonce != "" {
			fmt.Fprintf(&b, "~nonce(%s)", l.Nonce)
		}
	} else if l.Type != "public" && l.Type != "" {
		fmt.Fprintf(&b, "~%s", l.Type)
	}
	return b.String()
}
