// Package testcase holds the declared metadata of test cases and resolves
// their effective environment requirements.
//
// Cases are registered explicitly in code with an id, suite, priority,
// timeout, retry budget and an environment requirement. Declaration order
// is preserved and used by the scheduler to break priority ties.
//
// Resolve layers three requirement levels, global, suite and case, by
// intersection. Each layer may only narrow the previous one; disjoint
// layers raise an IntersectionConflictError naming the case before any
// scheduling happens. Filters select cases by id or suite; filtered-out
// cases are reported Skipped rather than dropped.
package testcase
