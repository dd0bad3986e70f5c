package credprobe

import (
	"errors"
	"fmt"
	"time"
)

// CredentialPair is a database login obtained from the secrets service.
// It is created once per run and never persisted.
type CredentialPair struct {
	Username string
	Password string
}

// Validate checks that both fields are present.
func (c CredentialPair) Validate() error {
	var missing []string
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingCredentialField, missing)
	}
	return nil
}

// String returns the pair with the password masked.
func (c CredentialPair) String() string {
	return fmt.Sprintf("username=%q, password=%q", c.Username, MaskSecret(c.Password))
}

// MaskSecret hides all but the length of s.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	return fmt.Sprintf("<redacted:%d>", len(s))
}

// Document is the marker payload written to, and read back from, the probe collection.
type Document map[string]any

// OutcomeKind classifies a single connect+probe attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetryableAuthFailure
	OutcomeFatalFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryableAuthFailure:
		return "retryable-auth-failure"
	case OutcomeFatalFailure:
		return "fatal-failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// ProbeOutcome is the tagged result of one attempt.
type ProbeOutcome struct {
	Kind OutcomeKind
	Err  error
}

func Success() ProbeOutcome {
	return ProbeOutcome{Kind: OutcomeSuccess}
}

func RetryableAuthFailure(err error) ProbeOutcome {
	return ProbeOutcome{Kind: OutcomeRetryableAuthFailure, Err: err}
}

func FatalFailure(err error) ProbeOutcome {
	return ProbeOutcome{Kind: OutcomeFatalFailure, Err: err}
}

// RetryState tracks progress through the attempt budget.
type RetryState struct {
	AttemptsMade int
	Limit        int
	WaitInterval time.Duration
	LastErr      error
}

// Exhausted reports whether no attempts remain.
func (s RetryState) Exhausted() bool {
	return s.AttemptsMade >= s.Limit
}

// RunStatus is the terminal status of a run.
type RunStatus int

const (
	StatusSucceeded RunStatus = iota
	StatusExhaustedRetries
	StatusAborted
)

func (s RunStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusExhaustedRetries:
		return "exhausted-retries"
	case StatusAborted:
		return "aborted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// RunResult summarizes a probe run. LastErr is the last retryable error, or
// the fatal error when the run was aborted.
type RunResult struct {
	Status   RunStatus
	Attempts int
	Sleeps   int
	LastErr  error
	Document Document
	Elapsed  time.Duration
}

// Request identifies the cluster and collection a run probes.
type Request struct {
	URL          string
	AuthDatabase string
	Database     string
	Collection   string
	Limit        int
	WaitInterval time.Duration
}

// Validate checks if the Request has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (r Request) Validate() error {
	var errs []error

	if r.URL == "" {
		errs = append(errs, fmt.Errorf("URL is required: %w", ErrInvalidConfig))
	}
	if r.Database == "" {
		errs = append(errs, fmt.Errorf("Database is required: %w", ErrInvalidConfig))
	}
	if r.Collection == "" {
		errs = append(errs, fmt.Errorf("Collection is required: %w", ErrInvalidConfig))
	}
	if r.Limit < 1 {
		errs = append(errs, fmt.Errorf("Limit must be at least 1, got %d: %w", r.Limit, ErrInvalidConfig))
	}
	if r.WaitInterval < 0 {
		errs = append(errs, fmt.Errorf("WaitInterval cannot be negative, got %v: %w", r.WaitInterval, ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
