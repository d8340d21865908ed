// Package search implements the search-space algebra used to express both
// test requirements and environment capabilities.
//
// A Space describes the acceptable set of values for one resource dimension
// (core count, memory, disk count, feature set). The same types serve two
// roles: a requirement declares what a test needs, a capability declares
// what a platform or environment can provide. Three variants exist:
//
//   - IntRange: an inclusive numeric range whose upper bound may be
//     unbounded.
//   - SetSpace: an ordered set of enumerable choices, with an optional
//     allow-superset mode used for feature flags.
//   - CountSpace: a lower-bounded count ("at least 2 NICs").
//
// The Any sentinel accepts every capability and intersects to the other
// operand unchanged; a nil Space in a requirement position is treated as
// Any.
//
// Two operations define the algebra:
//
//   - Check(requirement, capability): true iff every value describable by
//     the capability is acceptable under the requirement. Failures carry
//     accumulated human-readable reasons.
//   - Intersect(a, b): narrows two requirement spaces into one, reporting
//     failure when they are disjoint. Used when combining suite-level and
//     case-level requirements; a disjoint result is a fatal configuration
//     error, not a runtime skip.
//
// GenerateMin narrows a checked capability to the minimum concrete value
// that still meets the requirement, which is what platforms deploy.
package search
