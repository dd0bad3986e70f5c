package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/credprobe/internal/retry"
	"github.com/vvka-141/credprobe/pkg/credprobe"
)

// Observer is notified of user-visible milestones of a run.
type Observer interface {
	// ProbeSucceeded receives the document read back by the probe.
	ProbeSucceeded(doc credprobe.Document)

	// RetryScheduled is called before waiting delay after a retryable failure.
	RetryScheduled(attempt int, err error, delay time.Duration)
}

// Loop drives the connect/probe/retry state machine for one credential.
//
// Thread Safety: a Loop may be reused across runs but Run is strictly
// sequential; one attempt completes before the next starts.
type Loop struct {
	connector  credprobe.Connector
	classifier credprobe.ErrorClassifier
	logger     credprobe.Logger
	sleeper    credprobe.Sleeper
	observer   Observer
	now        func() time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithSleeper replaces the timer-based sleeper.
func WithSleeper(s credprobe.Sleeper) Option {
	return func(l *Loop) {
		l.sleeper = s
	}
}

// WithObserver sets the milestone observer. By default milestones go to the logger.
func WithObserver(o Observer) Option {
	return func(l *Loop) {
		l.observer = o
	}
}

// WithClock sets the time source used for markers and elapsed time.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

// NewLoop creates a Loop. Panics if connector, classifier or logger is nil.
func NewLoop(connector credprobe.Connector, classifier credprobe.ErrorClassifier, logger credprobe.Logger, opts ...Option) *Loop {
	if connector == nil {
		panic("connector cannot be nil")
	}
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	l := &Loop{
		connector:  connector,
		classifier: classifier,
		logger:     logger,
		sleeper:    retry.TimerSleeper{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.observer == nil {
		l.observer = logObserver{logger: logger}
	}
	return l
}

// Run attempts to connect and probe until success, a fatal failure, or the
// attempt limit. Only authentication failures are retried.
//
// Returns:
//   - StatusSucceeded and a nil error on success
//   - StatusAborted and an error wrapping ErrFatalDatabase on any other failure
//   - StatusExhaustedRetries and a *RetryExhaustedError when every attempt
//     failed authentication
func (l *Loop) Run(ctx context.Context, creds credprobe.CredentialPair, req credprobe.Request) (credprobe.RunResult, error) {
	start := l.now()
	result := credprobe.RunResult{Status: credprobe.StatusAborted}

	if err := creds.Validate(); err != nil {
		return result, err
	}
	if err := req.Validate(); err != nil {
		return result, err
	}
	strategy, err := retry.NewFixedInterval(req.Limit, req.WaitInterval)
	if err != nil {
		return result, err
	}
	tracker := retry.NewTracker(strategy)

	var (
		state   = StateConnecting
		session credprobe.Session
		lastErr error
	)
	tracker.Begin()

	for !state.Terminal() {
		var ev Event

		switch state {
		case StateConnecting:
			attempt := tracker.State().AttemptsMade
			l.logger.Verbose("Attempt %d/%d: connecting via %s", attempt, req.Limit, l.connector)
			session, err = l.connector.Connect(ctx, req, creds)
			ev, lastErr = l.classify(err, EventConnected, tracker)

		case StateProbing:
			var doc credprobe.Document
			doc, err = Exercise(ctx, session.Collection(req.Database, req.Collection), NewMarker(l.now()))
			l.closeSession(session)
			session = nil
			ev, lastErr = l.classify(err, EventProbeSucceeded, tracker)
			if ev == EventProbeSucceeded {
				result.Document = doc
				l.observer.ProbeSucceeded(doc)
			}

		case StateRetryPending:
			if tracker.Exhausted() {
				ev = EventBudgetSpent
				break
			}
			delay := tracker.NextDelay()
			l.observer.RetryScheduled(tracker.State().AttemptsMade, lastErr, delay)
			if err := l.sleeper.Sleep(ctx, delay); err != nil {
				result.Attempts = tracker.State().AttemptsMade
				result.Sleeps = tracker.Sleeps()
				result.LastErr = err
				result.Elapsed = l.now().Sub(start)
				return result, fmt.Errorf("%w while waiting to retry: %w", credprobe.ErrInterrupted, err)
			}
			ev = EventWaitElapsed
		}

		next, err := Transition(state, ev)
		if err != nil {
			// unreachable unless the switch above and the transition table disagree
			panic(err)
		}
		l.logger.Verbose("%s -> %s (%s)", state, next, ev)
		if state == StateRetryPending && next == StateConnecting {
			tracker.Begin()
		}
		state = next
	}

	if session != nil {
		l.closeSession(session)
	}

	result.Attempts = tracker.State().AttemptsMade
	result.Sleeps = tracker.Sleeps()
	result.LastErr = lastErr
	result.Elapsed = l.now().Sub(start)

	switch state {
	case StateSucceeded:
		result.Status = credprobe.StatusSucceeded
		return result, nil
	case StateExhaustedRetries:
		result.Status = credprobe.StatusExhaustedRetries
		return result, &credprobe.RetryExhaustedError{Attempts: result.Attempts, Last: tracker.State().LastErr}
	default:
		result.Status = credprobe.StatusAborted
		return result, fmt.Errorf("%w: %w", credprobe.ErrFatalDatabase, lastErr)
	}
}

// classify turns an attempt step's error into the matching event. success is
// the event to emit when err is nil.
func (l *Loop) classify(err error, success Event, tracker *retry.Tracker) (Event, error) {
	outcome := l.classifier.Classify(err)
	switch outcome.Kind {
	case credprobe.OutcomeSuccess:
		return success, nil
	case credprobe.OutcomeRetryableAuthFailure:
		tracker.RecordRetryable(outcome.Err)
		return EventRetryableFailure, outcome.Err
	default:
		return EventFatalFailure, outcome.Err
	}
}

// closeSession releases the attempt's connection. A failed close never
// changes the outcome of the attempt.
func (l *Loop) closeSession(session credprobe.Session) {
	if session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := session.Close(ctx); err != nil {
		l.logger.Verbose("Failed to close database session: %v", err)
	}
}

type logObserver struct {
	logger credprobe.Logger
}

func (o logObserver) ProbeSucceeded(doc credprobe.Document) {
	o.logger.Info("Result from test collection insert() then find(): %v", doc)
}

func (o logObserver) RetryScheduled(attempt int, err error, delay time.Duration) {
	o.logger.Info("Authentication error on attempt %d, retrying in %v because database service may still be implementing the user change: %v", attempt, delay, err)
}
