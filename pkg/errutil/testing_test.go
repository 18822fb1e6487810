// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/vrcpipe/vrcpipe/pkg/api"
	"github.com/vrcpipe/vrcpipe/pkg/errutil"
	"github.com/vrcpipe/vrcpipe/pkg/vrc"
)

func TestAssertErrorCode(t *testing.T) {
	err := oops.Code(api.CodeRateLimited).
		With("path", "/auth/user/friends").
		Errorf("slow down")

	oopsErr := errutil.AssertErrorCode(t, err, api.CodeRateLimited)
	assert.Equal(t, api.CodeRateLimited, oopsErr.Code())
}

func TestAssertErrorContext(t *testing.T) {
	err := oops.Code(vrc.CodeNoSession).
		With("object", "LimitedUser").
		Errorf("object is not bound to a session")

	errutil.AssertErrorContext(t, err, "object", "LimitedUser")
}
