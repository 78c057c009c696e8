// Package ctx provides the request context handed to bazaar controllers.
//
// A controller receives a single *Context instead of the
// (http.ResponseWriter, *http.Request) pair:
//
//	func (lc *ListingController) Show(c *ctx.Context) {
//	    p, err := lc.listings.Get(c.Context(), c.Param("id"))
//	    ...
//	    c.Success(p)
//	}
//
//	r.Get("/listings/{id}", "listings.show", ctx.Wrap(lc.Show))
package ctx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/bazaar/pkg/auth"
	"github.com/shashiranjanraj/bazaar/pkg/bind"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/response"
	"github.com/shashiranjanraj/bazaar/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc into a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// ─── Context ──────────────────────────────────────────────────────────────────

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	mu     sync.RWMutex
	store  map[string]any
	status int // 0 until a response is written
}

var pool = sync.Pool{
	New: func() any { return &Context{store: make(map[string]any)} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	for k := range c.store {
		delete(c.store, k)
	}
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter ("/listings/{id}" → c.Param("id")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a trimmed query-string value, "" when absent.
func (c *Context) Query(key string) string {
	return strings.TrimSpace(c.R.URL.Query().Get(key))
}

// DefaultQuery returns a query-string value, or def if it is empty.
func (c *Context) DefaultQuery(key, def string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return def
}

// QueryFloat parses a numeric query parameter. ok is false when the value is
// absent; err is set when it is present but not a finite number.
func (c *Context) QueryFloat(key string) (v float64, ok bool, err error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, fmt.Errorf("%s: %q is not a finite number", key, raw)
	}
	return v, true, nil
}

// PostForm returns a multipart or urlencoded form field.
func (c *Context) PostForm(key string) string {
	return c.R.FormValue(key)
}

// Header returns a request header.
func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// ClientIP returns the caller's address, preferring X-Forwarded-For.
func (c *Context) ClientIP() string {
	return ClientIP(c.R)
}

// ClientIP is the request-level form of Context.ClientIP, used by middleware.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Identity returns the authenticated caller, or nil for anonymous requests.
func (c *Context) Identity() *auth.Identity {
	id, _ := auth.FromContext(c.R.Context())
	return id
}

// Logger returns the request-scoped logger.
func (c *Context) Logger() *slog.Logger {
	return logger.WithCtx(c.R.Context())
}

// ─── Per-request store ────────────────────────────────────────────────────────

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	c.store[key] = val
	c.mu.Unlock()
}

func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

// GetString returns a string from the store, or "" if absent or not a string.
func (c *Context) GetString(key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// ─── Binding / Validation ─────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation. On failure
// it writes a 400 (malformed body) or 422 (validation) and returns false.
//
//	var in services.SignupInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// BindMultipart parses a multipart body capped at maxBytes, writing a 400 and
// returning false on failure.
func (c *Context) BindMultipart(maxBytes int64) bool {
	if err := bind.Multipart(c.R, maxBytes); err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// Validate runs validation rules on an already-populated struct.
func (c *Context) Validate(v any) map[string]string {
	return validate.Struct(v)
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// Status writes a bare status code.
func (c *Context) Status(code int) {
	c.status = code
	c.W.WriteHeader(code)
}

// JSON writes v as JSON with the given status code. A value that cannot be
// encoded is logged and answered with a 500 envelope instead.
func (c *Context) JSON(code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		c.Logger().Error("encode response", "error", err, "status", code)
		code = http.StatusInternalServerError
		buf.Reset()
		json.NewEncoder(&buf).Encode(response.Envelope{ //nolint:errcheck
			Status:  code,
			Message: "Internal Server Error",
		})
	}
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	c.status = code
	c.W.Write(buf.Bytes()) //nolint:errcheck
}

// Success sends a 200 envelope.
func (c *Context) Success(data any) {
	c.JSON(http.StatusOK, response.Envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 envelope.
func (c *Context) Created(data any) {
	c.JSON(http.StatusCreated, response.Envelope{Status: http.StatusCreated, Data: data})
}

// Error sends an error envelope.
func (c *Context) Error(code int, message string) {
	c.JSON(code, response.Envelope{Status: code, Message: message})
}

// ValidationError sends a 422 with field-level errors.
func (c *Context) ValidationError(errs map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, response.Envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  errs,
	})
}

func (c *Context) Unauthorized(message ...string) {
	c.Error(http.StatusUnauthorized, first(message, "Unauthorized"))
}

func (c *Context) Forbidden(message ...string) {
	c.Error(http.StatusForbidden, first(message, "Forbidden"))
}

func (c *Context) NotFound(message ...string) {
	c.Error(http.StatusNotFound, first(message, "Not found"))
}

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }

func first(s []string, def string) string {
	if len(s) > 0 && s[0] != "" {
		return s[0]
	}
	return def
}
