// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrcpipe/vrcpipe/pkg/api"
	"github.com/vrcpipe/vrcpipe/pkg/errutil"
	"github.com/vrcpipe/vrcpipe/pkg/pipeline"
)

func TestLogError_FlattensContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code(api.CodeNotFound).
		With("path", "/users/usr_404").
		Errorf("user not found")

	errutil.LogError(logger, "lookup failed", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "lookup failed", entry["msg"])
	assert.Equal(t, api.CodeNotFound, entry["code"])
	assert.Equal(t, "/users/usr_404", entry["path"], "context keys become top-level attributes")
}

func TestLogError_PlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("plain failure"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "plain failure")
}

func TestAttrs_StableOrder(t *testing.T) {
	err := oops.Code(pipeline.CodeDial).
		With("url", "wss://pipeline.vrchat.cloud/").
		With("status", 503).
		Errorf("dial failed")

	attrs := errutil.Attrs(err)
	require.Len(t, attrs, 8)
	assert.Equal(t, "error", attrs[0])
	assert.Equal(t, "code", attrs[2])
	assert.Equal(t, pipeline.CodeDial, attrs[3])
	assert.Equal(t, "status", attrs[4], "context attributes come out in key order")
	assert.Equal(t, 503, attrs[5])
	assert.Equal(t, "url", attrs[6])
}
