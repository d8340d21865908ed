package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// UnsatisfiableRequirementError indicates that no known or requestable
// environment capability can ever satisfy a requirement. It is a
// configuration-time error for the affected test: the scheduler reports the
// test as Skipped and never retries it.
type UnsatisfiableRequirementError struct {
	// TestID identifies the test whose requirement cannot be met, when known.
	TestID string

	// Reasons carries the accumulated mismatch reasons from the capability
	// checks, one per platform or dimension that failed.
	Reasons []string
}

// Error implements the error interface for UnsatisfiableRequirementError.
func (e *UnsatisfiableRequirementError) Error() string {
	msg := "no environment capability satisfies requirement"
	if e.TestID != "" {
		msg = fmt.Sprintf("%s for test %s", msg, e.TestID)
	}
	if len(e.Reasons) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Reasons, "; "))
	}
	return msg
}

// NewUnsatisfiableRequirementError creates a new UnsatisfiableRequirementError.
func NewUnsatisfiableRequirementError(testID string, reasons ...string) *UnsatisfiableRequirementError {
	return &UnsatisfiableRequirementError{TestID: testID, Reasons: reasons}
}

// IsUnsatisfiableRequirement checks if an error is or wraps an
// UnsatisfiableRequirementError.
func IsUnsatisfiableRequirement(err error) bool {
	var target *UnsatisfiableRequirementError
	return errors.As(err, &target)
}

// DeploymentError indicates an environment failed to reach the Deployed
// state. It is transient from the scheduler's perspective: the request is
// retried against a fresh environment while its retry budget lasts.
type DeploymentError struct {
	// Platform names the adapter whose deployment failed.
	Platform string

	// EnvironmentID identifies the environment that failed to deploy.
	EnvironmentID string

	// Permanent marks a capability mismatch the platform signalled as
	// unrecoverable; the scheduler excludes the platform from further
	// attempts for this request.
	Permanent bool

	// Err is the underlying platform error, preserved for diagnostics.
	Err error
}

// Error implements the error interface for DeploymentError.
func (e *DeploymentError) Error() string {
	msg := fmt.Sprintf("deployment of environment %s on platform %s failed", e.EnvironmentID, e.Platform)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying platform error.
func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// NewDeploymentError creates a new DeploymentError wrapping the platform's
// original error.
func NewDeploymentError(platform, environmentID string, err error) *DeploymentError {
	return &DeploymentError{Platform: platform, EnvironmentID: environmentID, Err: err}
}

// IsDeployment checks if an error is or wraps a DeploymentError.
func IsDeployment(err error) bool {
	var target *DeploymentError
	return errors.As(err, &target)
}

// IntersectionConflictError indicates that two requirement layers (for
// example suite-level and case-level) intersect to an empty search space.
// It is fatal at load time and surfaced before scheduling begins, so a
// dimension constraint is never silently dropped.
type IntersectionConflictError struct {
	// TestID identifies the test whose resolved requirement conflicts.
	TestID string

	// Dimension is the resource dimension whose spaces are disjoint.
	Dimension string

	// Requirement and Capability are string renderings of the two operands.
	Requirement string
	Capability  string
}

// Error implements the error interface for IntersectionConflictError.
func (e *IntersectionConflictError) Error() string {
	msg := fmt.Sprintf("requirement layers for dimension %q are disjoint", e.Dimension)
	if e.TestID != "" {
		msg = fmt.Sprintf("test %s: %s", e.TestID, msg)
	}
	if e.Requirement != "" || e.Capability != "" {
		msg = fmt.Sprintf("%s: %s does not overlap %s", msg, e.Requirement, e.Capability)
	}
	return msg
}

// NewIntersectionConflictError creates a new IntersectionConflictError.
func NewIntersectionConflictError(testID, dimension, requirement, capability string) *IntersectionConflictError {
	return &IntersectionConflictError{
		TestID:      testID,
		Dimension:   dimension,
		Requirement: requirement,
		Capability:  capability,
	}
}

// IsIntersectionConflict checks if an error is or wraps an
// IntersectionConflictError.
func IsIntersectionConflict(err error) bool {
	var target *IntersectionConflictError
	return errors.As(err, &target)
}

// TimeoutError indicates a test exceeded its allotted run time. The result
// is recorded as Failed and never retried.
type TimeoutError struct {
	// TestID identifies the test that timed out.
	TestID string

	// Timeout is the budget that was exceeded.
	Timeout time.Duration
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("test %s exceeded timeout of %s", e.TestID, e.Timeout)
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(testID string, timeout time.Duration) *TimeoutError {
	return &TimeoutError{TestID: testID, Timeout: timeout}
}

// IsTimeout checks if an error is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}
