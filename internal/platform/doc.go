// Package platform defines the boundary a cloud or hypervisor backend must
// implement to serve environments to the scheduler.
//
// The core never talks to a cloud SDK directly. It asks a Platform three
// things: whether a requirement is achievable (EstimateCapability), to
// provision an environment shaped like an accepted estimate (Deploy), and
// to tear an environment down again (Delete). Concrete adapters — Azure,
// Hyper-V, ready-node — live outside this repository; everything they need
// arrives as explicit parameters, never ambient state.
//
// Platforms register in a Registry with an explicit priority. When several
// platforms can satisfy the same requirement the first match in priority
// order wins; there is no cost function. The Registry is the extension
// point for anything smarter.
package platform
