// Package retry provides the classification and budget pieces of the probe
// retry loop: which failures are worth retrying, how long to wait, and how
// many attempts remain.
//
// Only authentication failures are retried. A freshly issued dynamic
// credential can be rejected for a short while until the database's auth
// subsystem sees the new user; any other failure means retrying will not
// help and the run must stop.
//
// # Example Usage
//
//	classifier := retry.NewMongoAuthClassifier()
//	strategy, err := retry.NewFixedInterval(25, 2*time.Second)
//	if err != nil {
//	    return err
//	}
//	tracker := retry.NewTracker(strategy)
//
//	for {
//	    tracker.Begin()
//	    outcome := classifier.Classify(attempt(ctx))
//	    ...
//	}
//
// # Error Classification
//
// The AuthFailureClassifier reads the driver error code carried by a
// credprobe.DatabaseError. MongoDB codes 18 and 8000 and PostgreSQL SQLSTATEs
// 28P01 and 28000 are authentication failures; everything else is fatal.
//
// # Backoff Strategy
//
// FixedInterval waits the same interval between every attempt, up to a fixed
// attempt ceiling.
package retry
