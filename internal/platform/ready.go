package platform

import (
	"context"

	"convoke/internal/require"
	"convoke/pkg/logging"
)

// ReadyName is the name of the built-in ready platform.
const ReadyName = "ready"

// Ready is the built-in platform for environments that already exist
// outside the tool's control. It accepts any requirement, deploys nothing
// and deletes nothing; deployment just echoes the requested capability
// back as deployed.
type Ready struct {
	// capabilities optionally pins what the pre-provisioned nodes offer.
	// Empty means unconstrained: whatever is asked for is assumed present.
	capabilities []require.NodeCapability
}

// NewReady creates an unconstrained ready platform.
func NewReady() *Ready {
	return &Ready{}
}

// NewReadyWithCapabilities creates a ready platform whose pre-provisioned
// nodes offer exactly the given capabilities.
func NewReadyWithCapabilities(capabilities []require.NodeCapability) *Ready {
	return &Ready{capabilities: capabilities}
}

func (r *Ready) Name() string { return ReadyName }

// EstimateCapability offers the pinned capabilities, or one unconstrained
// node per requirement node when nothing is pinned.
func (r *Ready) EstimateCapability(ctx context.Context, requirement require.EnvironmentRequirement) ([]require.NodeCapability, error) {
	if len(r.capabilities) > 0 {
		out := make([]require.NodeCapability, len(r.capabilities))
		for i, c := range r.capabilities {
			out[i] = c.Clone()
		}
		return out, nil
	}
	// With nothing pinned, offer the requirement's own spaces back: the
	// pre-provisioned nodes are assumed to provide what is asked.
	estimate := make([]require.NodeCapability, len(requirement.Nodes))
	for i, node := range requirement.Nodes {
		capability := require.NodeCapability{}
		for dim, space := range node {
			capability[dim] = space
		}
		estimate[i] = capability
	}
	return estimate, nil
}

// Deploy is a no-op: the nodes already exist. The requested capability is
// reported back as deployed.
func (r *Ready) Deploy(ctx context.Context, deployment Deployment) ([]require.NodeCapability, error) {
	logging.Debug("ReadyPlatform", "adopting pre-provisioned nodes for %s", deployment.ID())
	return deployment.RequestedCapabilities(), nil
}

// Delete is a no-op: pre-provisioned nodes outlive the run.
func (r *Ready) Delete(ctx context.Context, deployment Deployment) error {
	return nil
}

func (r *Ready) SupportedFeatures() []string { return nil }
