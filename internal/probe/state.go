package probe

import "fmt"

// State is a step of the attempt state machine.
type State int

const (
	StateConnecting State = iota
	StateProbing
	StateRetryPending
	StateSucceeded
	StateAborted
	StateExhaustedRetries
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateProbing:
		return "Probing"
	case StateRetryPending:
		return "RetryPending"
	case StateSucceeded:
		return "Succeeded"
	case StateAborted:
		return "Aborted"
	case StateExhaustedRetries:
		return "ExhaustedRetries"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateAborted || s == StateExhaustedRetries
}

// Event drives a transition.
type Event int

const (
	EventConnected Event = iota
	EventProbeSucceeded
	EventRetryableFailure
	EventFatalFailure
	// EventBudgetSpent fires in RetryPending when attempts_made == limit.
	EventBudgetSpent
	// EventWaitElapsed fires in RetryPending after the inter-attempt sleep.
	EventWaitElapsed
)

func (e Event) String() string {
	switch e {
	case EventConnected:
		return "Connected"
	case EventProbeSucceeded:
		return "ProbeSucceeded"
	case EventRetryableFailure:
		return "RetryableFailure"
	case EventFatalFailure:
		return "FatalFailure"
	case EventBudgetSpent:
		return "BudgetSpent"
	case EventWaitElapsed:
		return "WaitElapsed"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Transition returns the state that follows s on ev. It is a pure function:
// the loop decides which event happened, Transition decides where it leads.
func Transition(s State, ev Event) (State, error) {
	switch s {
	case StateConnecting:
		switch ev {
		case EventConnected:
			return StateProbing, nil
		case EventRetryableFailure:
			return StateRetryPending, nil
		case EventFatalFailure:
			return StateAborted, nil
		}
	case StateProbing:
		switch ev {
		case EventProbeSucceeded:
			return StateSucceeded, nil
		case EventRetryableFailure:
			return StateRetryPending, nil
		case EventFatalFailure:
			return StateAborted, nil
		}
	case StateRetryPending:
		switch ev {
		case EventBudgetSpent:
			return StateExhaustedRetries, nil
		case EventWaitElapsed:
			return StateConnecting, nil
		}
	}
	return s, fmt.Errorf("invalid transition: %s on %s", s, ev)
}
