// Package observability provides the structured logging setup used by
// cmd/binjs: an slog.Handler wrapper that pins service/mode metadata to
// every record, the way the teacher's TracingHandler pins service/env/mode
// ahead of its (here dropped) OpenTelemetry trace-context injection.
package observability

import (
	"context"
	"fmt"
	"log/slog"
)

// AppMode distinguishes the CLI's run modes for logging purposes.
type AppMode string

const (
	ModeEncode AppMode = "encode"
	ModeDecode AppMode = "decode"
	ModeInspect AppMode = "inspect"
)

const (
	attrService = "service"
	attrMode    = "mode"
)

// ctxHandler is an slog.Handler that pre-attaches service and mode
// attributes so they appear at the top level of every record regardless
// of subsequent WithGroup calls, without otherwise altering dispatch.
type ctxHandler struct {
	inner slog.Handler
}

// NewHandler wraps inner, attaching service and mode metadata.
func NewHandler(inner slog.Handler, service string, mode AppMode) slog.Handler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(mode)),
	}

	return &ctxHandler{inner: inner.WithAttrs(attrs)}
}

// Enabled delegates to the inner handler.
func (h *ctxHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle delegates to the inner handler, wrapping any error with context
// identifying which handler failed.
func (h *ctxHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.inner.Handle(ctx, record); err != nil {
		return fmt.Errorf("observability: handle log record: %w", err)
	}

	return nil
}

// WithAttrs returns a new ctxHandler with additional attributes on the
// inner handler.
func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup returns a new ctxHandler with a group prefix on the inner
// handler.
func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{inner: h.inner.WithGroup(name)}
}
