// Package logging builds the slog loggers used across authcore. Records
// carry the emitting service, its version and, when the context holds an
// OpenTelemetry span, the trace and span ids.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Options configures Setup.
type Options struct {
	Service string
	Version string

	// Format is "json" or "text". Anything else is json.
	Format string

	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
}

// Setup returns a logger writing to w, or os.Stderr when w is nil.
// service and version are fixed at the root so groups opened later do not
// nest them.
func Setup(opts Options, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text":
		h = slog.NewTextHandler(w, ho)
	default:
		h = slog.NewJSONHandler(w, ho)
	}

	var fixed []slog.Attr
	if opts.Service != "" {
		fixed = append(fixed, slog.String("service", opts.Service))
	}
	if opts.Version != "" {
		fixed = append(fixed, slog.String("version", opts.Version))
	}
	if len(fixed) > 0 {
		h = h.WithAttrs(fixed)
	}

	return slog.New(spanHandler{h})
}

// spanHandler copies span identifiers from the record's context.
type spanHandler struct {
	slog.Handler
}

func (h spanHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return spanHandler{h.Handler.WithAttrs(attrs)}
}

func (h spanHandler) WithGroup(name string) slog.Handler {
	return spanHandler{h.Handler.WithGroup(name)}
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if strings.EqualFold(level, "warning") {
		level = "warn"
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
