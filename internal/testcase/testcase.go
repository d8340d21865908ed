package testcase

import (
	"context"
	"time"

	"convoke/internal/environment"
	"convoke/internal/require"
)

// Func is a test body. It runs against a connected environment and
// reports failure through its error.
type Func func(ctx context.Context, env *environment.Environment) error

// Case is the declared metadata of one test case.
type Case struct {
	// ID uniquely identifies the case across all suites.
	ID          string
	Suite       string
	Description string

	// Priority orders scheduling, lower first. Cases with equal priority
	// run in declaration order.
	Priority int

	// Timeout bounds one execution attempt including environment
	// acquisition. Zero means the scheduler default.
	Timeout time.Duration

	// Retries is the extra attempts granted on deployment failure. A
	// negative value means the scheduler default.
	Retries int

	// Requirement constrains the environment the case runs on. A zero
	// requirement defaults to a single unconstrained node.
	Requirement require.EnvironmentRequirement

	// DependsOn lists case ids that must pass before this case runs. If
	// any of them fails or is skipped, this case is skipped.
	DependsOn []string

	Run Func
}

// Resolved is a case with its effective requirement after layering, ready
// for scheduling. The requirement is immutable from here on.
type Resolved struct {
	Case        *Case
	Requirement require.EnvironmentRequirement

	// Order is the declaration sequence number, the scheduling tie-break
	// among equal priorities.
	Order int
}
