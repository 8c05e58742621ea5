package cli

import (
	"errors"
	"fmt"
)

const (
	ExitUsage  = 1
	ExitEngine = 2
)

// exitError carries the process exit status for an error. When reported is
// set, the user-facing message has already been written to stdout. hint asks
// for a pointer to --help, for flag and argument mistakes.
type exitError struct {
	code     int
	err      error
	reported bool
	hint     bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func userError(format string, args ...any) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, args...)}
}

// usageError marks a command-line parsing mistake.
func usageError(err error) error {
	return &exitError{code: ExitUsage, err: err, hint: true}
}

func reportedError(code int, err error) error {
	return &exitError{code: code, err: err, reported: true}
}

// ExitCode maps an execution error to a process exit status. Errors without
// an explicit status come from the engine or the filesystem.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitEngine
}

// Reported reports whether err's message was already printed for the user.
func Reported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}

func needsUsageHint(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.hint
}
