// Package cli implements the demazure command-line interface.
//
// Every query of the service has a command (length, words, product,
// subwords, nonreduced, images), next to commands that explore a whole S_n
// (elements, weakorder, browse) and administer the persistent store (store
// populate, info, rebuild, delete, clear, path). serve exposes the same
// queries over HTTP.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging; otherwise the
// level comes from log.level in the configuration. Loggers are passed
// through context.Context.
//
// # Output
//
// Results print as styled text by default. --output json, yaml or toml
// switches to a machine-readable encoding of the same result.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at the given level, with
// timestamps formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Populated S_6 (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

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
