// Package http is the fluent, retry-aware client for outgoing calls.
//
//	resp, err := http.Post(baseURL+"/chat/completions").
//	    WithContext(ctx).
//	    Bearer(apiKey).
//	    Body(payload).
//	    Timeout(30 * time.Second).
//	    Retry(2, 500*time.Millisecond).
//	    Send()
//	if err == nil {
//	    err = resp.Throw()
//	}
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// maxResponseBytes caps how much of a response body is buffered.
const maxResponseBytes = 4 << 20

var defaultTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

// DefaultClient is shared by requests that do not set their own client.
var DefaultClient = &gohttp.Client{Transport: defaultTransport}

// ------------------- Request -------------------

type Request struct {
	method    string
	url       string
	headers   map[string]string
	body      interface{}
	timeout   time.Duration
	attempts  int
	retryWait time.Duration
	ctx       context.Context
	client    *gohttp.Client
}

func Get(url string) *Request  { return newRequest(gohttp.MethodGet, url) }
func Post(url string) *Request { return newRequest(gohttp.MethodPost, url) }

func newRequest(method, url string) *Request {
	return &Request{
		method:    method,
		url:       url,
		headers:   map[string]string{"Accept": "application/json"},
		timeout:   30 * time.Second,
		attempts:  1,
		retryWait: 500 * time.Millisecond,
		ctx:       context.Background(),
		client:    DefaultClient,
	}
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Body sets the payload. Strings and byte slices are sent raw; anything else
// is encoded as JSON.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry sets the total number of attempts and the first backoff, which
// doubles after each failure. Only transport errors, 429 and 5xx retry.
func (r *Request) Retry(attempts int, wait time.Duration) *Request {
	if attempts < 1 {
		attempts = 1
	}
	r.attempts = attempts
	r.retryWait = wait
	return r
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// Using sends through c instead of DefaultClient. Tests pass the client of an
// httptest.Server.
func (r *Request) Using(c *gohttp.Client) *Request {
	if c != nil {
		r.client = c
	}
	return r
}

// ------------------- Send -------------------

// Send executes the request. A non-2xx response is returned without error;
// call Response.Throw to turn it into one.
func (r *Request) Send() (*Response, error) {
	payload, contentType, err := r.encodeBody()
	if err != nil {
		return nil, err
	}

	log := logger.WithCtx(r.ctx)
	wait := r.retryWait
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		resp, err := r.do(payload, contentType)
		if err == nil && !retryable(resp.StatusCode) {
			return resp, nil
		}
		if err == nil {
			lastErr = resp.Throw()
			if attempt == r.attempts {
				return resp, nil
			}
		} else {
			lastErr = err
		}
		if attempt == r.attempts {
			break
		}

		log.Warn("http: request failed, retrying",
			"url", r.url, "attempt", attempt, "backoff", wait.String(), "error", lastErr)
		select {
		case <-time.After(wait):
		case <-r.ctx.Done():
			return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, r.ctx.Err())
		}
		wait *= 2
	}

	return nil, fmt.Errorf("http: all %d attempts failed for %s %s: %w", r.attempts, r.method, r.url, lastErr)
}

func retryable(status int) bool {
	return status == gohttp.StatusTooManyRequests || status >= 500
}

func (r *Request) do(payload []byte, contentType string) (*Response, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

func (r *Request) encodeBody() ([]byte, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return []byte(v), "text/plain", nil
	case []byte:
		return v, "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return b, "application/json", nil
	}
}

// ------------------- Response -------------------

type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// StatusError is returned by Throw for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http: request failed with status %d: %s", e.StatusCode, e.Body)
}

// Throw returns a *StatusError unless the status is 2xx. The body excerpt is
// capped at 2 KiB.
func (r *Response) Throw() error {
	if r.OK() {
		return nil
	}
	body := r.Raw
	if len(body) > 2048 {
		body = body[:2048]
	}
	return &StatusError{StatusCode: r.StatusCode, Body: string(body)}
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
