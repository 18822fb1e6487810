// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

// Package api provides the REST transport for the remote service.
//
// The rest of the library talks to the service exclusively through the
// Transport interface, which keeps the HTTP plumbing (retries, cookies,
// API-key bootstrap) out of the domain and presence layers and lets tests
// substitute a fake.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/samber/oops"
)

// Error codes reported by transports. Lookup failures during presence event
// handling propagate these unchanged.
const (
	CodeNotFound          = "API_NOT_FOUND"
	CodeRateLimited       = "API_RATE_LIMITED"
	CodeUnavailable       = "API_UNAVAILABLE"
	CodeNotAuthenticated  = "API_NOT_AUTHENTICATED"
	CodeTwoFactorRequired = "API_TWO_FACTOR_REQUIRED"
	CodeRequestFailed     = "API_REQUEST_FAILED"
)

// Request describes a single REST call.
type Request struct {
	Method string // defaults to GET when empty
	Path   string // e.g. "/users/usr_123", appended to the base URL
	Params url.Values
	Body   any         // JSON-encoded when non-nil
	Header http.Header // extra headers, e.g. Authorization during login
}

// Response is the decoded result of a successful (2xx) call.
type Response struct {
	Status int
	Data   []byte // raw response body
}

// Transport executes REST calls against the remote service. Implementations
// must return an oops error carrying one of the Code* constants on any
// non-2xx status. Retrying transient failures is the transport's concern;
// callers treat every returned error as terminal for that call.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)

	// AuthToken returns the session token established by a prior login,
	// or "" if unauthenticated. The push channel uses it as its bearer.
	AuthToken() string
}

// errCode extracts the oops code from err, or "".
func errCode(err error) string {
	if o, ok := oops.AsOops(err); ok {
		if code, ok := o.Code().(string); ok {
			return code
		}
	}
	return ""
}

// IsNotFound reports whether err is a missing-resource failure.
func IsNotFound(err error) bool { return errCode(err) == CodeNotFound }

// IsRateLimited reports whether err is a throttling failure.
func IsRateLimited(err error) bool { return errCode(err) == CodeRateLimited }

// IsUnavailable reports whether err is a transient server failure.
func IsUnavailable(err error) bool { return errCode(err) == CodeUnavailable }

// IsNotAuthenticated reports whether err means the session is missing or
// no longer valid.
func IsNotAuthenticated(err error) bool { return errCode(err) == CodeNotAuthenticated }

// ErrNoAuth is wrapped by transports when an authenticated call is made
// before any session has been established.
var ErrNoAuth = errors.New("transport has no session token")
