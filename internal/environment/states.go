package environment

import "fmt"

// State is the lifecycle state of an Environment.
type State string

const (
	StateNew       State = "New"
	StatePrepared  State = "Prepared"
	StateDeploying State = "Deploying"
	StateDeployed  State = "Deployed"
	StateConnected State = "Connected"
	StateDeleting  State = "Deleting"
	StateDeleted   State = "Deleted"
	StateFailed    State = "Failed"
)

// allowedTransitions encodes the forward-only lifecycle. Failed is terminal
// and reachable from every state except Deleted. Two special edges exist for
// environment reuse: Connected -> Prepared recycles a released environment,
// and Prepared -> Connected reconnects a recycled one without redeploying.
var allowedTransitions = map[State][]State{
	StateNew:       {StatePrepared, StateDeleting},
	StatePrepared:  {StateDeploying, StateConnected, StateDeleting},
	StateDeploying: {StateDeployed},
	StateDeployed:  {StateConnected, StateDeleting},
	StateConnected: {StatePrepared, StateDeleting},
	StateDeleting:  {StateDeleted},
	StateDeleted:   {},
	StateFailed:    {},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	if to == StateFailed {
		return from != StateDeleted && from != StateFailed
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError reports an attempt to move an environment through
// an illegal lifecycle edge.
type InvalidTransitionError struct {
	EnvironmentID string
	From, To      State
}

// Error implements the error interface for InvalidTransitionError.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("environment %s cannot transition from %s to %s", e.EnvironmentID, e.From, e.To)
}

// IsAlive reports whether the state still allows the environment to be
// matched or run against.
func (s State) IsAlive() bool {
	switch s {
	case StateNew, StatePrepared, StateDeploying, StateDeployed, StateConnected:
		return true
	default:
		return false
	}
}

// StateChangeCallback is invoked after an environment changes state.
type StateChangeCallback func(environmentID string, oldState, newState State, err error)
