// Package dberr defines the structured error value used across every
// cppdbc package: a stable tag, a kind, a message, an optional cause, and
// a captured call-site trace.
package dberr

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

// Kind classifies an Error into one of five semantic classes. Kinds are
// not exposed as Go error types on their own; callers switch on
// Error.Kind().
type Kind int

const (
	// Configuration covers invalid URLs, unknown schemes, unsupported
	// isolation levels, and contradictory pool sizing. Fatal at setup.
	Configuration Kind = iota
	// Resource covers pool exhaustion, pool closed, connection closed.
	// Recoverable with retry or reconfiguration.
	Resource
	// Driver wraps a failure surfaced by the underlying client.
	Driver
	// State covers violated preconditions: double commit, bad parameter
	// index, second close of an already-closed resource, and similar
	// programmer errors.
	State
	// Integrity covers partial commit, validation failure, and poisoned
	// connections — failures that carry structured context about which
	// part of a multi-step operation failed.
	Integrity
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Resource:
		return "resource"
	case Driver:
		return "driver"
	case State:
		return "state"
	case Integrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// Error is the immutable error value every cppdbc operation returns on
// failure. It is never mutated after construction.
type Error struct {
	tag     string
	kind    Kind
	message string
	cause   error
	trace   error // carries the pkg/errors stack captured by New or Wrap
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.tag, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.tag, e.message)
}

// Tag returns the stable 12-character identifier for this error's throw
// site.
func (e *Error) Tag() string { return e.tag }

// Kind returns the semantic class of this error.
func (e *Error) Kind() Kind { return e.kind }

// Cause returns the wrapped error, or nil if this error has none.
func (e *Error) Cause() error { return e.cause }

// Unwrap supports errors.Is / errors.As against the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// StackTrace exposes the captured call-site trace via pkg/errors'
// StackTracer interface, when a trace was captured.
func (e *Error) StackTrace() errors.StackTrace {
	type stackTracer interface{ StackTrace() errors.StackTrace }
	if st, ok := e.trace.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

// New constructs a leaf Error for a registered tag, capturing the current
// call site.
func New(tag string, kind Kind, message string) *Error {
	return &Error{
		tag:     mustKnown(tag),
		kind:    kind,
		message: message,
		trace:   errors.New(message),
	}
}

// Wrap constructs an Error around an existing cause, capturing the
// current call site on top of it.
func Wrap(tag string, kind Kind, cause error, message string) *Error {
	return &Error{
		tag:     mustKnown(tag),
		kind:    kind,
		message: message,
		cause:   cause,
		trace:   errors.WithStack(cause),
	}
}

// tagPattern matches the error tag format: 12 characters, each an
// uppercase letter or digit.
var tagPattern = regexp.MustCompile(`^[A-Z0-9]{12}$`)

// registry tracks every tag handed to newCode, so that two throw sites can
// never share one — identifiers must be globally unique across the
// codebase.
var registry = map[string]bool{}

// newCode validates and registers a tag at package-init time. Called only
// from codes.go's package-level var block; panics (rather than returning
// an error) because a malformed or duplicate tag is a build-time defect,
// not a runtime condition a caller can recover from.
func newCode(tag string) string {
	if !tagPattern.MatchString(tag) {
		panic(fmt.Sprintf("dberr: tag %q does not match ^[A-Z0-9]{12}$", tag))
	}
	if countLetters(tag) < 5 {
		panic(fmt.Sprintf("dberr: tag %q has fewer than 5 letters", tag))
	}
	if hasLongRun(tag) {
		panic(fmt.Sprintf("dberr: tag %q has a run of more than 4 identical characters", tag))
	}
	if registry[tag] {
		panic(fmt.Sprintf("dberr: duplicate error tag %q", tag))
	}
	registry[tag] = true
	return tag
}

func countLetters(tag string) int {
	n := 0
	for _, r := range tag {
		if r >= 'A' && r <= 'Z' {
			n++
		}
	}
	return n
}

func hasLongRun(tag string) bool {
	run := 1
	for i := 1; i < len(tag); i++ {
		if tag[i] == tag[i-1] {
			run++
			if run > 4 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// mustKnown panics if tag was never registered via newCode. Every call
// site in this module passes a dberr.Code* constant, so this only fires
// if new code is added without going through codes.go.
func mustKnown(tag string) string {
	if !registry[tag] {
		panic(fmt.Sprintf("dberr: tag %q used without being registered in codes.go", tag))
	}
	return tag
}
