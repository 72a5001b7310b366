// Package cli implements the vardump command-line interface.
//
// Documents are read from JSON, YAML or TOML files (or stdin), optionally
// narrowed with a query expression, and dumped into collapsible trees
// whose containers are built lazily on first expansion.
//
// # Commands
//
// The main commands are:
//   - view: Browse a tree in the terminal, with a transient popup
//   - print: Write a tree as text, HTML, JSON, DOT or SVG
//   - serve: Serve stored snapshots as trees in the browser
//   - snapshot: Save, list, show and delete stored snapshots
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/vardump/config.toml (or --config) and
// VARDUMP_* environment variables, for example VARDUMP_STORE_BACKEND=redis.
// Command-line flags take precedence.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// reports classification and expansion as trees are built. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress starts timing now.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered SVG (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger attaches l to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
