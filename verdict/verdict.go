// Package verdict implements the error-kind taxonomy and per-execution
// verdict record of spec.md §7 and §6 "Verdict output".
package verdict

import "github.com/sva-lab/wmc/label"

// Kind is an error-kind tag, not a Go error type — spec.md §7 frames the
// taxonomy as "kinds, not types" so the driver can record, count and
// render them uniformly regardless of which layer raised one.
type Kind uint8

const (
	// OK means the execution completed with no violation.
	OK Kind = iota

	// User-program errors.
	AssertionFailure
	Race
	UninitializedRead
	InvalidFree
	MemoryLeak
	Deadlock
	AccessOutOfBounds
	UnalignedAtomic

	// Model errors.
	ConsistencyViolation
	BoundExceeded

	// Translation errors.
	UnsupportedIntrinsic
	UnsupportedOrdering
	MalformedModule
)

var kindNames = [...]string{
	"ok",
	"assertion_violation",
	"race",
	"uninitialized",
	"invalid_free",
	"leak",
	"deadlock",
	"access_out_of_bounds",
	"unaligned_atomic",
	"model_violation",
	"bound_exceeded",
	"unsupported_intrinsic",
	"unsupported_ordering",
	"malformed_module",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind?"
}

// IsUserProgramError reports whether k is one of the errors attributable
// to the checked program rather than to translation or the checker itself.
func (k Kind) IsUserProgramError() bool {
	return k >= AssertionFailure && k <= UnalignedAtomic
}

// IsModelError reports whether k is a checker-model-level error.
func (k Kind) IsModelError() bool { return k == ConsistencyViolation || k == BoundExceeded }

// IsTranslationError reports whether k aborts translation before
// enumeration ever starts.
func (k Kind) IsTranslationError() bool {
	return k == UnsupportedIntrinsic || k == UnsupportedOrdering || k == MalformedModule
}

// ExitCode maps a Kind, plus whether translation itself failed, to the
// process exit code spec.md §6 fixes: 0 no error, 1 compilation/CLI error,
// 42 verification error(s) found.
func (k Kind) ExitCode() int {
	switch {
	case k == OK:
		return 0
	case k.IsTranslationError():
		return 1
	default:
		return 42
	}
}

// Site pinpoints the offending event(s) of a non-OK verdict, with the
// ModuleInfo-resolved source location package ir supplies.
type Site struct {
	Event label.Event
	File  string
	Line  int
}

// Execution is the verdict recorded for one complete or error-terminated
// execution of the checked program (spec.md §6 "Verdict output").
type Execution struct {
	Kind    Kind
	Sites   []Site
	Message string
	// Render is an optional textual dump of the execution graph, only
	// populated when requested.
	Render string
}

// Counters aggregates enumeration-wide statistics (spec.md §6).
type Counters struct {
	Explored int
	Blocked  int
	PrunedByBound int
	WallClock     int64 // nanoseconds; stamped by the caller, not this package (no time.Now here)
}

// Report is the final output of a full enumeration run: every recorded
// execution plus the aggregate counters. A Report with Partial set true
// means enumeration stopped early due to a deadline or user-set bound
// (spec.md §5 "Cancellation/timeout").
type Report struct {
	Executions []Execution
	Counters   Counters
	Partial    bool
}

// ExitCode returns the process exit code for the whole report: 42 if any
// recorded execution is non-OK, 0 otherwise. Translation errors are
// expected to short-circuit before a Report is ever built (see
// Kind.ExitCode), so this method only distinguishes 0 from 42.
func (r Report) ExitCode() int {
	for _, e := range r.Executions {
		if e.Kind != OK {
			return 42
		}
	}
	return 0
}
