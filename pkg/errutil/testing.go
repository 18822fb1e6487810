// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error carrying code, and
// returns it so callers can make follow-up context assertions.
func AssertErrorCode(t *testing.T, err error, code string) oops.OopsError {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected a coded error, got %T: %v", err, err)
	assert.Equal(t, code, oopsErr.Code(), "wrong error code")
	return oopsErr
}

// AssertErrorContext asserts that err is an oops error whose context
// holds value under key. The session and channel record their diagnostic
// state this way (object names, request paths, event ids).
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected a coded error, got %T: %v", err, err)
	ctx := oopsErr.Context()
	require.Contains(t, ctx, key, "error context is missing %q", key)
	assert.Equal(t, value, ctx[key], "error context %q", key)
}
