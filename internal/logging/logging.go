// Package logging wires sharedb's component loggers to log/slog.
//
// The library never installs a handler on its own: records go to whatever
// slog.Default() is at the time of the call, so an embedding program keeps
// full control. Init is a convenience for programs and tests that want a
// text or JSON handler at a given level.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

var level = new(slog.LevelVar)

// Init installs a text or JSON handler writing to w as the slog default.
// levelStr is one of "debug", "info", "warn", "error" (default "info").
func Init(w io.Writer, levelStr, format string) {
	level.Set(ParseLevel(levelStr))

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// SetLevel changes the level of the handler installed by Init.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// ParseLevel maps a level name to a slog.Level; unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// For returns a logger tagged with component. Each call resolves
// slog.Default() when the record is emitted, so package-level loggers follow
// later changes of the default (Init, CaptureForTest).
func For(component string) *slog.Logger {
	return slog.New(&dynamicHandler{
		attrs: []slog.Attr{slog.String("component", component)},
	})
}

// dynamicHandler forwards to slog.Default().Handler() at Handle time,
// adding the attributes collected through With.
type dynamicHandler struct {
	attrs []slog.Attr
}

func (h *dynamicHandler) target() slog.Handler {
	return slog.Default().Handler().WithAttrs(h.attrs)
}

func (h *dynamicHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return slog.Default().Handler().Enabled(ctx, l)
}

func (h *dynamicHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.target().Handle(ctx, r)
}

func (h *dynamicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next = append(next, h.attrs...)
	return &dynamicHandler{attrs: append(next, attrs...)}
}

// WithGroup pins the current default; grouped loggers are short-lived.
func (h *dynamicHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &fixedHandler{h: h.target().WithGroup(name)}
}

// fixedHandler pins a resolved handler chain.
type fixedHandler struct {
	h slog.Handler
}

func (f *fixedHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return f.h.Enabled(ctx, l)
}

func (f *fixedHandler) Handle(ctx context.Context, r slog.Record) error {
	return f.h.Handle(ctx, r)
}

func (f *fixedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fixedHandler{h: f.h.WithAttrs(attrs)}
}

func (f *fixedHandler) WithGroup(name string) slog.Handler {
	return &fixedHandler{h: f.h.WithGroup(name)}
}
