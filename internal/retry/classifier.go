package retry

import (
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Authentication failure codes. Only these are treated as transient: the
// credential was just provisioned and the server's auth subsystem may not
// have caught up yet.
const (
	// MongoDB AuthenticationFailed, returned by self-managed deployments.
	MongoCodeAuthenticationFailed = "18"

	// MongoDB Atlas reports authentication failures as AtlasError 8000.
	MongoCodeAtlasAuthentication = "8000"

	// PostgreSQL Class 28 - Invalid Authorization Specification
	// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
	PgCodeInvalidAuthorizationSpecification = "28000"
	PgCodeInvalidPassword                   = "28P01"
)

// AuthFailureClassifier implements ErrorClassifier by matching the driver
// error code against a fixed set of authentication-failure codes. Every other
// failure, including network errors and errors without a code, is fatal.
type AuthFailureClassifier struct {
	codes map[string]struct{}
}

// NewAuthFailureClassifier creates a classifier that retries the given codes.
func NewAuthFailureClassifier(codes ...string) *AuthFailureClassifier {
	c := &AuthFailureClassifier{codes: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		if code == "" {
			continue
		}
		c.codes[code] = struct{}{}
	}
	return c
}

// NewMongoAuthClassifier retries MongoDB authentication failures.
func NewMongoAuthClassifier() *AuthFailureClassifier {
	return NewAuthFailureClassifier(MongoCodeAuthenticationFailed, MongoCodeAtlasAuthentication)
}

// NewPostgresAuthClassifier retries PostgreSQL authentication failures.
func NewPostgresAuthClassifier() *AuthFailureClassifier {
	return NewAuthFailureClassifier(PgCodeInvalidPassword, PgCodeInvalidAuthorizationSpecification)
}

// Classify maps an attempt error to a ProbeOutcome.
func (c *AuthFailureClassifier) Classify(err error) credprobe.ProbeOutcome {
	if err == nil {
		return credprobe.Success()
	}
	if c.IsAuthFailure(err) {
		return credprobe.RetryableAuthFailure(err)
	}
	return credprobe.FatalFailure(err)
}

// IsAuthFailure reports whether err carries one of the configured codes.
func (c *AuthFailureClassifier) IsAuthFailure(err error) bool {
	code, ok := credprobe.CodeOf(err)
	if !ok {
		return false
	}
	_, retryable := c.codes[code]
	return retryable
}

// Codes returns the configured codes in no particular order.
func (c *AuthFailureClassifier) Codes() []string {
	out := make([]string, 0, len(c.codes))
	for code := range c.codes {
		out = append(out, code)
	}
	return out
}
