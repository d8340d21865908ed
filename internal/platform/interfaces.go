package platform

import (
	"context"

	"convoke/internal/require"
)

// Deployment is the platform's view of an environment it has been asked to
// provision or destroy. The environment package implements it; platforms
// never see the scheduler's bookkeeping.
type Deployment interface {
	// ID is the unique identifier of the environment.
	ID() string

	// RequestedCapabilities are the minimum concrete per-node capabilities
	// the platform agreed to provide when its estimate was accepted.
	RequestedCapabilities() []require.NodeCapability
}

// Platform is the adapter a backend implements to serve environments.
//
// EstimateCapability answers "could you satisfy this?" without touching any
// infrastructure. Deploy and Delete do the actual provisioning and are
// expected to block until done or ctx is cancelled; long-running cloud
// operations belong behind them. A platform serializes deployment calls per
// environment but may deploy distinct environments concurrently.
type Platform interface {
	// Name identifies the platform in logs, errors and environment records.
	Name() string

	// EstimateCapability returns one estimated capability per requested
	// node when the platform can satisfy the requirement, or an error
	// explaining the first mismatch when it cannot. The estimate may still
	// contain ranges; deployment narrows it to exact values.
	EstimateCapability(ctx context.Context, requirement require.EnvironmentRequirement) ([]require.NodeCapability, error)

	// Deploy provisions the environment and returns the final, exact
	// per-node capabilities. An error aborts the deployment; the
	// environment transitions to Failed.
	Deploy(ctx context.Context, deployment Deployment) ([]require.NodeCapability, error)

	// Delete tears the environment down. Best effort: the caller logs but
	// does not retry a failed delete.
	Delete(ctx context.Context, deployment Deployment) error

	// SupportedFeatures lists the feature tags nodes on this platform can
	// carry, e.g. "serial_console".
	SupportedFeatures() []string
}
