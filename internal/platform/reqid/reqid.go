// Package reqid threads a per-request correlation ID from the HTTP layer
// into structured log output.
package reqid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/labstack/echo/v4"
)

// HeaderName is the response header exposing the request ID to clients.
const HeaderName = "X-Request-Id"

type contextKey struct{}

func newID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// FromContext extracts the request ID, returning ("", false) if absent.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Middleware stamps every request with a fresh ID, stores it on the request
// context and echoes it back in the response headers.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := newID()
			req := c.Request()
			ctx := context.WithValue(req.Context(), contextKey{}, id)
			c.SetRequest(req.WithContext(ctx))
			c.Response().Header().Set(HeaderName, id)
			return next(c)
		}
	}
}

// LogHandler wraps a slog.Handler and injects a "request_id" attribute when
// the log context carries one.
type LogHandler struct {
	inner slog.Handler
}

func NewLogHandler(inner slog.Handler) *LogHandler {
	return &LogHandler{inner: inner}
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := FromContext(ctx); ok {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{inner: h.inner.WithGroup(name)}
}
