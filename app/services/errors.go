// Package services holds the marketplace use cases. Controllers call into
// services; services talk to repositories, storage, cache and the AI client
// through the small interfaces declared next to each service.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shashiranjanraj/bazaar/app/repositories"
)

// Error kinds. Controllers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnavailable       = errors.New("service unavailable")
	ErrUpstream          = errors.New("upstream failure")
)

// Error is a user-facing message attached to one of the kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// ValidationError maps json field names to messages.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// notFound turns a repository miss into ErrNotFound with a message naming
// what was missing; other errors pass through.
func notFound(err error, what string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(ErrNotFound, "%s not found", what)
	}
	return err
}
