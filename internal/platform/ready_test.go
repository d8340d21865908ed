package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	req "convoke/internal/require"
	"convoke/internal/search"
)

type fakeDeployment struct {
	requested []req.NodeCapability
}

func (f *fakeDeployment) ID() string { return "env-1" }

func (f *fakeDeployment) RequestedCapabilities() []req.NodeCapability { return f.requested }

func TestReadyEchoesRequirement(t *testing.T) {
	ready := NewReady()
	requirement := req.SingleNode(req.NodeRequirement{
		req.DimCoreCount: search.AtLeast(4),
	})

	estimate, err := ready.EstimateCapability(context.Background(), requirement)
	require.NoError(t, err)
	require.Len(t, estimate, 1)

	// The echoed estimate satisfies the requirement it came from.
	assert.True(t, requirement.Check(estimate).OK)
}

func TestReadyPinnedCapabilities(t *testing.T) {
	pinned := []req.NodeCapability{{
		req.DimCoreCount: search.Exactly(8),
		req.DimMemoryMB:  search.Exactly(32768),
	}}
	ready := NewReadyWithCapabilities(pinned)

	fits := req.SingleNode(req.NodeRequirement{req.DimCoreCount: search.AtLeast(4)})
	estimate, err := ready.EstimateCapability(context.Background(), fits)
	require.NoError(t, err)
	assert.True(t, fits.Check(estimate).OK)

	tooBig := req.SingleNode(req.NodeRequirement{req.DimCoreCount: search.AtLeast(16)})
	estimate, err = ready.EstimateCapability(context.Background(), tooBig)
	require.NoError(t, err)
	assert.False(t, tooBig.Check(estimate).OK)
}

func TestReadyDeployEchoesRequest(t *testing.T) {
	ready := NewReady()
	requested := []req.NodeCapability{{req.DimCoreCount: search.Exactly(4)}}

	final, err := ready.Deploy(context.Background(), &fakeDeployment{requested: requested})
	require.NoError(t, err)
	assert.Equal(t, requested, final)

	assert.NoError(t, ready.Delete(context.Background(), &fakeDeployment{}))
}
