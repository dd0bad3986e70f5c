package credprobe

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Probe completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (invalid arguments or flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or malformed secret
	ExitSecretsBackend   = 11 // Secrets backend unreachable or refused the read
	ExitDatabaseError    = 12 // Non-authentication database failure
	ExitRetriesExhausted = 13 // Gave up waiting for the credential to propagate
	ExitInterrupted      = 14 // Cancelled by a signal or --timeout between attempts
)

const (
	// DefaultURL is the cluster URL used when none is configured.
	DefaultURL = "mongodb+srv://mycluster.a123z.mongodb.net/"

	// DefaultRolePath is the Vault dynamic-secret role read when none is configured.
	DefaultRolePath = "database/creds/my-role"

	// DefaultAuthDatabase is the database the credential authenticates against.
	DefaultAuthDatabase = "admin"

	// DefaultDatabase holds the probe collection.
	DefaultDatabase = "testdb"

	// DefaultCollection receives the marker document.
	DefaultCollection = "mycoll"

	// DefaultAttemptLimit is the fixed number of connect+probe attempts.
	DefaultAttemptLimit = 25

	// DefaultWaitInterval is the fixed delay between attempts.
	DefaultWaitInterval = 2 * time.Second

	// DefaultTimeout bounds the whole run so a hung server cannot block forever.
	DefaultTimeout = 5 * time.Minute

	// DefaultVaultAddress matches the Vault CLI default.
	DefaultVaultAddress = "https://127.0.0.1:8200"

	// DateTimeFormat is used for the start banner.
	DateTimeFormat = "2006-01-02 15:04:05"
)
