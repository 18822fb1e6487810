// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultBaseURL is the production REST endpoint.
const DefaultBaseURL = "https://api.vrchat.cloud/api/1"

const (
	defaultUserAgent  = "vrcpipe"
	defaultMaxRetries = 3
	defaultRetrySleep = 10 * time.Second
)

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithBaseURL overrides the REST endpoint, primarily for tests.
func WithBaseURL(base string) HTTPOption {
	return func(t *HTTPTransport) { t.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the underlying http.Client. The transport installs
// its own cookie jar on the client it uses.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) { t.client = c }
}

// WithUserAgent sets the User-Agent header sent on every call.
func WithUserAgent(ua string) HTTPOption {
	return func(t *HTTPTransport) { t.userAgent = ua }
}

// WithRetryPolicy tunes the transient-failure retry loop.
func WithRetryPolicy(maxRetries uint64, sleep time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		t.maxRetries = maxRetries
		t.retrySleep = sleep
	}
}

// WithLogger sets the logger for request-level diagnostics.
func WithLogger(log *slog.Logger) HTTPOption {
	return func(t *HTTPTransport) { t.log = log }
}

// HTTPTransport is the production Transport. It bootstraps the service API
// key from the public config endpoint on first use, keeps the session cookie
// in a jar, and retries transient failures with a fixed sleep.
type HTTPTransport struct {
	baseURL    string
	client     *http.Client
	userAgent  string
	maxRetries uint64
	retrySleep time.Duration
	log        *slog.Logger

	mu     sync.Mutex
	apiKey string
}

// NewHTTPTransport creates a transport against the production endpoint
// unless overridden by options.
func NewHTTPTransport(opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: 60 * time.Second},
		userAgent:  defaultUserAgent,
		maxRetries: defaultMaxRetries,
		retrySleep: defaultRetrySleep,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client.Jar == nil {
		// Ignoring the error: cookiejar.New never fails with nil options.
		jar, _ := cookiejar.New(nil)
		t.client.Jar = jar
	}
	return t
}

// Do executes a single REST call. Transient transport failures (network
// errors, 502/503/504) are retried with a fixed sleep before giving up;
// every other failure maps to a coded error and returns immediately.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (*Response, error) {
	if err := t.ensureAPIKey(ctx); err != nil {
		return nil, err
	}

	var resp *Response
	backoff := retry.WithMaxRetries(t.maxRetries, retry.NewConstant(t.retrySleep))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var doErr error
		resp, doErr = t.doOnce(ctx, req)
		if doErr != nil && IsUnavailable(doErr) {
			t.log.Warn("transient request failure, will retry",
				"method", req.Method,
				"path", req.Path,
				"error", doErr,
			)
			return retry.RetryableError(doErr)
		}
		return doErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// AuthToken returns the value of the session cookie, or "".
func (t *HTTPTransport) AuthToken() string {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return ""
	}
	for _, c := range t.client.Jar.Cookies(u) {
		if c.Name == "auth" {
			return c.Value
		}
	}
	return ""
}

// SetAuthToken installs a previously captured session cookie, letting a
// client resume a session without logging in again.
func (t *HTTPTransport) SetAuthToken(token string) error {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return oops.With("base_url", t.baseURL).Wrap(err)
	}
	t.client.Jar.SetCookies(u, []*http.Cookie{{Name: "auth", Value: token}})
	return nil
}

func (t *HTTPTransport) doOnce(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	params := url.Values{}
	for k, vs := range req.Params {
		for _, v := range vs {
			// The service expects lowercase booleans in query strings.
			params.Add(k, strings.ToLower(v))
		}
	}
	params.Set("apiKey", t.currentAPIKey())

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, oops.Code(CodeRequestFailed).With("path", req.Path).Wrap(err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, t.baseURL+req.Path+"?"+params.Encode(), body)
	if err != nil {
		return nil, oops.Code(CodeRequestFailed).With("path", req.Path).Wrap(err)
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, oops.Code(CodeUnavailable).
			With("method", method).
			With("path", req.Path).
			Wrap(err)
	}
	defer httpResp.Body.Close() //nolint:errcheck // best-effort close on read path

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, oops.Code(CodeUnavailable).With("path", req.Path).Wrap(err)
	}

	if httpResp.StatusCode/100 != 2 {
		return nil, statusError(httpResp.StatusCode, req.Path, data)
	}
	return &Response{Status: httpResp.StatusCode, Data: data}, nil
}

// statusError maps a non-2xx status to a coded error, pulling the service's
// error message out of the body when present.
func statusError(status int, path string, data []byte) error {
	msg := serviceMessage(data)
	base := oops.With("status", status).With("path", path).With("message", msg)

	switch status {
	case http.StatusUnauthorized:
		if strings.Contains(msg, "Two-Factor") || strings.Contains(msg, "requiresTwoFactorAuth") {
			return base.Code(CodeTwoFactorRequired).Errorf("two-factor authentication required")
		}
		return base.Code(CodeNotAuthenticated).Errorf("not authenticated: %s", msg)
	case http.StatusNotFound:
		return base.Code(CodeNotFound).Errorf("resource not found: %s", msg)
	case http.StatusTooManyRequests:
		return base.Code(CodeRateLimited).Errorf("rate limited")
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return base.Code(CodeUnavailable).Errorf("service unavailable (%d)", status)
	default:
		return base.Code(CodeRequestFailed).Errorf("request failed (%d): %s", status, msg)
	}
}

// serviceMessage extracts {"error":{"message":...}} from an error body.
func serviceMessage(data []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}

func (t *HTTPTransport) currentAPIKey() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.apiKey
}

// ensureAPIKey fetches the service API key from the public config endpoint
// the first time it is needed. The key accompanies every subsequent call.
func (t *HTTPTransport) ensureAPIKey(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.apiKey != "" {
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/config", nil)
	if err != nil {
		return oops.Code(CodeRequestFailed).Wrap(err)
	}
	httpReq.Header.Set("User-Agent", t.userAgent)

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return oops.Code(CodeUnavailable).With("path", "/config").Wrap(err)
	}
	defer httpResp.Body.Close() //nolint:errcheck // best-effort close on read path

	if httpResp.StatusCode != http.StatusOK {
		return oops.Code(CodeUnavailable).
			With("status", httpResp.StatusCode).
			Errorf("config endpoint returned %d", httpResp.StatusCode)
	}

	var cfg struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&cfg); err != nil {
		return oops.Code(CodeRequestFailed).With("path", "/config").Wrap(err)
	}
	if cfg.APIKey == "" {
		return oops.Code(CodeRequestFailed).
			Errorf("config endpoint carries no apiKey; this client is likely out of date")
	}

	t.apiKey = cfg.APIKey
	t.log.Debug("api key bootstrapped")
	return nil
}
