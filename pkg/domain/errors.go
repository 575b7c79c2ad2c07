package domain

import (
	"errors"
	"fmt"
)

// ErrNoTriggers is returned when a parsed configuration yields zero
// recognized triggers.
var ErrNoTriggers = errors.New("configuration defines no recognized triggers")

// ErrSandbox is returned when a shell command references a path outside the
// document store root.
var ErrSandbox = errors.New("command references a path outside the store root")

// ParseError reports a malformed configuration bullet. Unknown action kinds
// are non-fatal (the compiler drops them with a warning); a ParseError is
// raised only for defects that make the configuration unusable.
type ParseError struct {
	Item string // offending bullet text
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Item == "" {
		return "parse: " + e.Msg
	}
	return fmt.Sprintf("parse %q: %s", e.Item, e.Msg)
}

// ActionError reports a failed action. The runtime wraps every action
// failure in one, so error handlers and the trigger boundary see a uniform
// shape. Output preserves partial shell/HTTP output for diagnosis.
type ActionError struct {
	Kind   Kind
	Msg    string
	Status int    // HTTP status for fetch failures, 0 otherwise
	Output string // partial stdout/stderr or response text
	Err    error
}

func (e *ActionError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *ActionError) Unwrap() error { return e.Err }
