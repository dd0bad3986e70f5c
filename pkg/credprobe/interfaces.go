package credprobe

import (
	"context"
	"time"
)

// Secret is the payload of a single secrets-service read.
type Secret struct {
	Data          map[string]any
	LeaseID       string
	LeaseDuration time.Duration
	Renewable     bool
}

// SecretReader reads a secret at a path. A nil Secret with a nil error means
// nothing exists at the path.
type SecretReader interface {
	ReadSecret(ctx context.Context, path string) (*Secret, error)
}

// Connector opens database sessions with a given credential.
// Implementations must wrap driver failures in *DatabaseError so the
// driver's error code reaches the classifier.
type Connector interface {
	Connect(ctx context.Context, req Request, creds CredentialPair) (Session, error)

	// String returns a human-readable description for logging.
	// Should NOT include secrets.
	String() string
}

// Session is one established database connection, owned by a single attempt.
type Session interface {
	Collection(database, name string) Collection

	// Close releases the connection. Safe to call more than once.
	Close(ctx context.Context) error
}

// Collection is the minimal surface the probe needs from a collection or table.
type Collection interface {
	InsertOne(ctx context.Context, doc Document) error

	// FindOne returns any single document, or nil when the collection is empty.
	FindOne(ctx context.Context) (Document, error)

	// DeleteAll removes every document and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
}

// ErrorClassifier decides whether an attempt's failure is worth retrying.
type ErrorClassifier interface {
	Classify(err error) ProbeOutcome
}

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the duration to wait before the next attempt.
	// attempt is zero-indexed (0 = first retry, 1 = second retry, etc.)
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the total number of attempts allowed.
	MaxAttempts() int
}

// Sleeper blocks between attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}
