// Package environment manages the lifecycle of test environments from
// creation through deployment to deletion.
//
// # Lifecycle
//
// An Environment moves through a fixed set of states:
//
//	New -> Prepared -> Deploying -> Deployed -> Connected -> Deleting -> Deleted
//
// Failed is terminal and reachable from every state except Deleted. Two
// extra edges support reuse: Connected -> Prepared recycles a released
// environment back into the pool, and Prepared -> Connected reconnects a
// recycled environment without redeploying it.
//
// # Pool
//
// The Pool owns every environment in a run. Its central operation is
// FindOrRequest: given a test's requirement it either claims free capacity
// on an existing Prepared or Deployed environment, or asks the registered
// platforms (in priority order) for a capability estimate and creates a new
// environment from the first satisfying one. The scan and the claim happen
// under a single lock so concurrent requesters can never be handed the same
// nodes.
//
// Node assignment is positional. Requirement node i maps onto environment
// node i, and a claim takes nodes 0..k-1 only when all of them are free.
//
// # Deployment
//
// Deploy narrows the platform's estimate to the minimum concrete shape the
// requirement accepts (Prepare), hands that shape to the platform adapter,
// verifies the deployed capability still satisfies the requirement, and
// attaches the resulting nodes. Any failure moves the environment to Failed
// and surfaces as an api.DeploymentError; a failed environment is still
// torn down on its platform but keeps the Failed state.
package environment
