// Package logging builds the structured logger used by cmd/gcif for
// non-fatal diagnostics (e.g. "mask layer disabled: no color reached
// the acceptance threshold"). The
// core compression packages (pkg/gcif/bitio through pkg/gcif/palette)
// never import this package directly -- logging is a CLI/driver-level
// concern, not a library one.
//
// Grounded on cmd/ctl/main.go and cmd/ctl/cmd/root.go's call sites
// (logging.Logger(os.Stdout, false, slog.LevelInfo),
// logging.AppendCtx(ctx, slog.Group(...))); the package itself was not
// present in the retrieved slice of the teacher repo, so its body is
// reconstructed to match those calls exactly, using the standard
// context-attrs-on-a-wrapping-Handler idiom for AppendCtx/FromCtx.
package logging

import (
	"context"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger builds a slog.Logger writing to w, either as JSON or as slog's
// default text handler, at the given minimum level.
func Logger(w io.Writer, asJSON bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if asJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(&ctxHandler{Handler: h})
}

// RotatingFile returns an io.Writer suitable for Logger that rotates
// the underlying file by size, for long-running batch encodes over a
// directory tree of sprites.
func RotatingFile(path string, maxSizeMB, maxBackups, maxAgeDays int) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
}

type ctxKey struct{}

// AppendCtx returns a context carrying additional slog attrs that
// ctxHandler will prepend to every record logged through it, in
// addition to whatever attrs were already attached to ctx.
func AppendCtx(ctx context.Context, attrs ...slog.Attr) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	existing, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxKey{}, merged)
}

// FromCtx returns the attrs previously attached to ctx by AppendCtx.
func FromCtx(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(ctxKey{}).([]slog.Attr)
	return attrs
}

// ctxHandler wraps a slog.Handler and injects AppendCtx's attrs into
// every record passing through Handle.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := FromCtx(ctx); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{Handler: h.Handler.WithGroup(name)}
}
