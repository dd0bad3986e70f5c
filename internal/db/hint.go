package db

import (
	"errors"
	"fmt"
	"strings"
)

// hintedError decorates a driver error with a short operator hint while
// keeping the wrapped error reachable through errors.As.
type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string {
	return fmt.Sprintf("%v (hint: %s)", e.err, e.hint)
}

func (e *hintedError) Unwrap() error {
	return e.err
}

var connectionHints = []struct {
	patterns []string
	hint     string
}{
	{[]string{"connection refused", "actively refused"}, "database is not listening on that host and port"},
	{[]string{"no such host", "server misbehaving"}, "check the hostname in --url and DNS resolution"},
	{[]string{"server selection error", "server selection timeout"}, "no reachable server matched the URL; check network access lists and TLS options"},
	{[]string{"x509:", "certificate"}, "TLS certificate verification failed"},
	{[]string{"too many connections"}, "the server's connection limit is reached"},
}

// withHint attaches a hint for well-known network failures. Other errors are
// returned unchanged.
func withHint(err error) error {
	if err == nil {
		return nil
	}
	var already *hintedError
	if errors.As(err, &already) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, h := range connectionHints {
		for _, p := range h.patterns {
			if strings.Contains(msg, p) {
				return &hintedError{err: err, hint: h.hint}
			}
		}
	}
	return err
}
