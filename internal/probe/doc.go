// Package probe implements the authenticated probe loop: connect with a
// freshly issued credential, run a minimal insert/read/cleanup probe, and
// retry only while the database keeps rejecting the credential.
//
// The loop is an explicit state machine:
//
//	Connecting --Connected--------> Probing --ProbeSucceeded--> Succeeded
//	Connecting|Probing --RetryableFailure--> RetryPending
//	Connecting|Probing --FatalFailure------> Aborted
//	RetryPending --WaitElapsed--> Connecting
//	RetryPending --BudgetSpent--> ExhaustedRetries
//
// Transition is pure, so every edge is testable without a database.
package probe
