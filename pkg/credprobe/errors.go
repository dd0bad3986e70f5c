package credprobe

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure classes a run can end with.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := loop.Run(ctx, creds, req)
//	if errors.Is(err, credprobe.ErrRetriesExhausted) {
//	    // the credential never became usable
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingCredentialField indicates the secret lacks a username or password.
	// It is a configuration error: the role is misconfigured, retrying cannot help.
	ErrMissingCredentialField = errors.New("missing credential field")

	// ErrSecretsBackend indicates the secrets service could not be read.
	ErrSecretsBackend = errors.New("secrets backend unreachable")

	// ErrFatalDatabase indicates a database failure other than authentication.
	ErrFatalDatabase = errors.New("unexpected database error")

	// ErrRetriesExhausted indicates every attempt failed authentication.
	ErrRetriesExhausted = errors.New("gave up trying to authenticate")

	// ErrUsage indicates the command line was malformed.
	ErrUsage = errors.New("usage error")

	// ErrInterrupted indicates the run was cancelled (signal or --timeout)
	// while waiting between attempts.
	ErrInterrupted = errors.New("interrupted")
)

// DatabaseError is a failure raised by the database layer. Code is the
// driver's own error code rendered as a string ("18", "28P01"); it is empty
// when the driver supplied none (network errors, timeouts).
type DatabaseError struct {
	Op   string
	Code string
	Err  error
}

func (e *DatabaseError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v (code %s)", e.Op, e.Err, e.Code)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError wraps err with the operation name and driver code.
// Returns nil when err is nil.
func NewDatabaseError(op, code string, err error) error {
	if err == nil {
		return nil
	}
	return &DatabaseError{Op: op, Code: code, Err: err}
}

// CodeOf returns the driver error code carried by err, if any.
func CodeOf(err error) (string, bool) {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) && dbErr.Code != "" {
		return dbErr.Code, true
	}
	return "", false
}

// RetryExhaustedError is returned when the attempt limit is reached without a
// successful probe. Last holds the most recent authentication failure.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%v with a database deployment after %d attempts. Last authentication error's detail: %v",
		ErrRetriesExhausted, e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}

// Is reports ErrRetriesExhausted so callers need not type-assert.
func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrMissingCredentialField):
		return ExitConfigError
	case errors.Is(err, ErrSecretsBackend):
		return ExitSecretsBackend
	case errors.Is(err, ErrRetriesExhausted):
		return ExitRetriesExhausted
	case errors.Is(err, ErrFatalDatabase):
		return ExitDatabaseError
	case errors.Is(err, ErrInterrupted):
		return ExitInterrupted
	}

	// cobra reports flag and argument problems as plain errors
	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}

var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}
