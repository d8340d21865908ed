package events

import (
	"fmt"
	"time"
)

// Type classifies an event for display.
type Type string

const (
	// TypeNormal marks routine lifecycle events.
	TypeNormal Type = "Normal"

	// TypeWarning marks events that usually need attention.
	TypeWarning Type = "Warning"
)

// Reason identifies what happened.
type Reason string

const (
	// ReasonEnvironmentStateChanged records an environment moving
	// through its lifecycle.
	ReasonEnvironmentStateChanged Reason = "EnvironmentStateChanged"

	// ReasonEnvironmentFailed records an environment entering the
	// failed state.
	ReasonEnvironmentFailed Reason = "EnvironmentFailed"

	// ReasonTestPassed records a passing case.
	ReasonTestPassed Reason = "TestPassed"

	// ReasonTestFailed records a failing case.
	ReasonTestFailed Reason = "TestFailed"

	// ReasonTestSkipped records a skipped case.
	ReasonTestSkipped Reason = "TestSkipped"
)

// TypeOf maps a reason to its display type.
func TypeOf(reason Reason) Type {
	switch reason {
	case ReasonEnvironmentFailed, ReasonTestFailed:
		return TypeWarning
	default:
		return TypeNormal
	}
}

// Event records one noteworthy moment of a run. EnvironmentID and
// TestID are set when they apply; Detail carries the free-form part of
// the message, a state transition or an error text.
type Event struct {
	Reason        Reason
	Timestamp     time.Time
	EnvironmentID string
	TestID        string
	Detail        string
}

// Describe renders the event as a one-line human message.
func (e Event) Describe() string {
	switch e.Reason {
	case ReasonEnvironmentStateChanged:
		return fmt.Sprintf("environment %s: %s", e.EnvironmentID, e.Detail)
	case ReasonEnvironmentFailed:
		return fmt.Sprintf("environment %s failed: %s", e.EnvironmentID, e.Detail)
	case ReasonTestPassed:
		return fmt.Sprintf("test %s passed", e.TestID)
	case ReasonTestFailed:
		return fmt.Sprintf("test %s failed: %s", e.TestID, e.Detail)
	case ReasonTestSkipped:
		return fmt.Sprintf("test %s skipped: %s", e.TestID, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
	}
}
