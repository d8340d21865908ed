// Package api defines the shared vocabulary of the convoke core.
//
// It holds the types every subsystem agrees on — test result statuses, the
// per-test result record handed to notifiers, and the error taxonomy used
// by the matching engine and the scheduler — without depending on any other
// internal package. Higher layers (environment pool, scheduler, reporting)
// all import api; api imports nothing but the standard library.
//
// # Error Taxonomy
//
// Four error classes cover every failure mode the core distinguishes:
//
//   - UnsatisfiableRequirementError: no registered platform can ever
//     provide the requested capability. Configuration-time, never retried;
//     the affected test is reported as Skipped.
//   - IntersectionConflictError: suite-level and case-level requirements
//     narrow to an empty search space. Fatal at load time, surfaced before
//     scheduling begins.
//   - DeploymentError: an environment failed to reach the Deployed state.
//     Transient; retried against a fresh environment while the request's
//     retry budget lasts.
//   - TimeoutError: a test exceeded its allotted run time. Recorded as
//     Failed, never retried.
//
// Each class has a constructor and an errors.As-based predicate so callers
// can branch on wrapped errors without type assertions.
package api
