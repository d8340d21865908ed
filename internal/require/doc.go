// Package require models test requirements and environment capabilities as
// dimension-keyed collections of search spaces.
//
// A NodeRequirement maps resource dimension names (core_count, memory_mb,
// data_disk_count, nic_count, features) to the search.Space a test demands
// for one node. A NodeCapability uses the same keyspace to describe what a
// platform or deployed node offers: an estimated capability may still be a
// range ("4 to 64 cores"), a final capability holds exact values.
//
// An EnvironmentRequirement is an ordered list of NodeRequirements plus
// environment-level constraints. Node order is positional: node i of a
// requirement is always matched against node i of an environment, never
// permuted.
//
// Requirements merge by intersection. Test-case metadata layers
// (global defaults, suite, case) intersect dimension by dimension; a
// disjoint dimension is an api.IntersectionConflictError raised at load
// time, before any scheduling happens. Unknown dimensions default to the
// Any sentinel on the requirement side, while a capability must actually
// provide every dimension a requirement names.
package require
