// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

// Package errutil centralizes how this module's coded errors are logged
// and asserted on. The transport and the presence channel attach their
// diagnostic state as oops context (request paths, event ids, dial
// status); the helpers here surface code and context uniformly.
package errutil

import (
	"log/slog"
	"sort"

	"github.com/samber/oops"
)

// Attrs extracts structured log attributes from err. An oops error yields
// the message, the code when one is set, and each context entry as its own
// attribute in key order, so entries like event_id or url stay directly
// greppable instead of nesting under a single context value. A plain error
// yields just the "error" attribute.
func Attrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err.Error()}
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil {
		attrs = append(attrs, "code", code)
	}

	ctx := oopsErr.Context()
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, ctx[k])
	}
	return attrs
}

// LogError logs err at error level with its flattened attributes.
func LogError(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, Attrs(err)...)
}
