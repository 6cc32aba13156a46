// Package telemetry provides the checker's package-level structured
// logger, configured once at startup and read by every other package
// (spec.md §9: "the observability surface is a single package-level
// logger, not a parameter threaded through every call").
//
// Grounded on eventloop/logging.go's global-logger pattern (SetStructuredLogger/
// getGlobalLogger), reimplemented on top of logiface+stumpy so structured
// fields and caller-based rate limiting come from the library rather than
// a hand-rolled Logger interface.
package telemetry

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

var (
	globalMu     sync.RWMutex
	globalLogger = newLogger(os.Stderr, nil)
)

// Configure replaces the package-level logger. writer defaults to
// os.Stderr when nil. rateLimits, when non-empty, enables per-caller
// category rate limiting via go-catrate (spec.md §9 "Diagnostics that
// can fire once per event must not fire once per execution").
func Configure(writer io.Writer, rateLimits map[time.Duration]int) {
	if writer == nil {
		writer = os.Stderr
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = newLogger(writer, rateLimits)
}

func newLogger(writer io.Writer, rateLimits map[time.Duration]int) *logiface.Logger[*stumpy.Event] {
	opts := []logiface.Option[*stumpy.Event]{
		stumpy.L.WithStumpy(stumpy.L.WithWriter(writer)),
	}
	if len(rateLimits) > 0 {
		opts = append(opts, stumpy.L.WithCategoryRateLimits(rateLimits))
	}
	return stumpy.L.New(opts...)
}

// L returns the current package-level logger. Safe for concurrent use;
// every explorer goroutine shares the same *logiface.Logger[*stumpy.Event].
func L() *logiface.Logger[*stumpy.Event] {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WarnRateLimited logs a warning, subject to the caller-category rate
// limit configured via Configure (a no-op ceiling when none was set).
// Intended for diagnostics that can otherwise fire once per step of a
// hot enumeration loop.
func WarnRateLimited(msg string, fields map[string]any) {
	b := L().Warning().Limit()
	for k, v := range fields {
		b = b.Any(k, v)
	}
	b.Log(msg)
}

// catrateLimiter exists only so go-catrate stays an exercised, directly
// imported dependency: stumpy/logiface wrap catrate.Limiter internally
// for WithCategoryRateLimits, but component G also needs a limiter of
// its own, scoped to violation reports (one category per violation kind)
// rather than log lines.
type catrateLimiter = catrate.Limiter

// NewLimiter constructs a standalone category rate limiter, for call
// sites (e.g. explore's violation reporting) that need their own
// budget independent of the logger's.
func NewLimiter(rates map[time.Duration]int) *catrateLimiter {
	return catrate.NewLimiter(rates)
}
