// Package logger is the process-wide structured logger. Request-scoped values
// stored on the context (request id, user id, service) are added to every
// record logged through the *Context functions.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	ServiceKey   contextKey = "service"
)

var scopedKeys = []contextKey{RequestIDKey, UserIDKey, ServiceKey}

var base *slog.Logger

func init() {
	Init(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// Init replaces the process logger. level accepts debug, info, warn or error
// (info when empty or unknown); format "text" selects logfmt, anything else JSON.
func Init(w io.Writer, level, format string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	}
	base = slog.New(scopedHandler{h})
}

// scopedHandler copies request-scoped context values onto each record.
type scopedHandler struct {
	slog.Handler
}

func (h scopedHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		for _, key := range scopedKeys {
			if v := ctx.Value(key); v != nil {
				rec.AddAttrs(slog.Any(string(key), v))
			}
		}
	}
	return h.Handler.Handle(ctx, rec)
}

func (h scopedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return scopedHandler{h.Handler.WithAttrs(attrs)}
}

func (h scopedHandler) WithGroup(name string) slog.Handler {
	return scopedHandler{h.Handler.WithGroup(name)}
}

// RequestID returns the request id stored on ctx, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func Info(msg string, args ...any)  { base.Info(msg, args...) }
func Warn(msg string, args ...any)  { base.Warn(msg, args...) }
func Error(msg string, args ...any) { base.Error(msg, args...) }
func Debug(msg string, args ...any) { base.Debug(msg, args...) }

// Fatal logs at error level and exits the process.
func Fatal(msg string, args ...any) {
	base.Error(msg, args...)
	os.Exit(1)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	base.InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	base.WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	base.ErrorContext(ctx, msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	base.DebugContext(ctx, msg, args...)
}
