// Package cli implements the appshell command-line interface.
//
// The CLI inspects the font catalog, resolves the effective layout, records
// visits, manages the cache and runs the HTTP API. It is built with cobra and
// logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - fonts: List, resolve and interactively pick catalog fonts
//   - layout: Show the effective theme and font for a set of preferences
//   - visit: Record a visit and show the current streak
//   - serve: Run the HTTP API
//   - cache: Manage the cache directory
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so long-running commands share one logger.
//
// # Example
//
//	import "github.com/matzehuels/appshell/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger. Info output carries no timestamps so
// normal runs read like plain status lines; at debug level (-v) every line
// is stamped "HH:MM:SS.ms" to make load timing visible.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		TimeFormat: "15:04:05.00",
		Level:      level,
	})
	l.SetReportTimestamp(level <= log.DebugLevel)
	return l
}

// setLevel changes the level of a logger made by newLogger, keeping the
// timestamp rule in step.
func setLevel(l *log.Logger, level log.Level) {
	l.SetLevel(level)
	l.SetReportTimestamp(level <= log.DebugLevel)
}

// progress times one operation for a closing log line.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with the elapsed time as a field, for example
// "INFO Loaded 22 fonts elapsed=1.234s".
func (p *progress) done(msg string) {
	p.logger.Info(msg, "elapsed", time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx. The root command does this before any
// subcommand runs.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger. Code running
// outside a command, such as shell completion, gets a discarding logger so
// it never writes to the terminal.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.New(io.Discard)
}
