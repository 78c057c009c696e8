// Package logger provides the structured, levelled logger used across bazaar.
//
// Handlers and services log through WithCtx so every line carries the
// request_id (and user_id once the caller is authenticated):
//
//	log := logger.WithCtx(r.Context())
//	log.Info("listing created", "listing_id", p.ID)
//	// → time=... level=INFO msg="listing created" request_id=a1b2c3d4 user_id=u-1 listing_id=...
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shashiranjanraj/bazaar/config"
)

var L *slog.Logger

func init() {
	L = New(os.Stdout)
	slog.SetDefault(L)
}

// New builds the base logger for the current APP_ENV: JSON in production,
// human-readable text everywhere else.
func New(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level()}
	if config.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func level() slog.Level {
	switch strings.ToLower(config.LogLevel()) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if config.IsProduction() {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// LevelFor maps an HTTP status to the access-log level.
func LevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Replace swaps the base logger, e.g. to fan out to the Mongo archive.
func Replace(l *slog.Logger) {
	L = l
	slog.SetDefault(l)
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the per-request logger stored by the Logger middleware,
// or the base logger when ctx carries none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx for WithCtx to find.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// With returns a copy of ctx whose logger carries the extra attributes.
func With(ctx context.Context, args ...any) context.Context {
	return InjectLogger(ctx, WithCtx(ctx).With(args...))
}

// ─────────────────────────────────────────────
// Short-hand helpers (base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
