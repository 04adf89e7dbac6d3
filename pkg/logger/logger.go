// Package logger provides the structured, levelled application logger built
// on log/slog.
//
// Every request gets a child logger tagged with its request_id (see
// middleware.Logger); handlers and services fetch it with WithCtx:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order created", "order_id", order.ID, "total", order.TotalPrice)
//
// When LOG_FILE is set, output is also written to a size-rotated file.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shashiranjanraj/orderdesk/config"
)

var L *slog.Logger

func init() {
	L = New(Options{
		Production: config.IsProduction(),
		Level:      config.LogLevel(),
		File:       config.LogFile(),
	})
	slog.SetDefault(L)
}

// Options controls how New builds a logger.
type Options struct {
	Production bool   // JSON output when true, text otherwise
	Level      string // debug | info | warn | error; empty picks by environment
	File       string // optional rotating log file
	Writer     io.Writer
}

// New builds a *slog.Logger from opts.
func New(opts Options) *slog.Logger {
	level := parseLevel(opts.Level, opts.Production)

	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err == nil {
			w = io.MultiWriter(w, &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    50, // megabytes
				MaxBackups: 5,
				MaxAge:     14, // days
				Compress:   true,
			})
		}
	}

	hopts := &slog.HandlerOptions{Level: level}
	if opts.Production {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func parseLevel(s string, production bool) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if production {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base
// logger when there is none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx. Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { L.Debug(msg, args...) }

func Info(msg string, args ...any) { L.Info(msg, args...) }

func Warn(msg string, args ...any) { L.Warn(msg, args...) }

func Error(msg string, args ...any) { L.Error(msg, args...) }
