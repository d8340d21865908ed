// Package scheduler assigns test cases to environments and runs them.
//
// A run takes the resolved cases, orders them by ascending priority with
// declaration order breaking ties, and executes them on a bounded worker
// pool in dependency waves: a case starts only after every case it
// depends on has completed, and is skipped when any of them did not
// pass. Each case is driven through the same flow: find or request an
// environment from the pool, deploy and connect it if fresh, run the
// body, release the environment.
//
// Failure handling is per case. An unsatisfiable requirement records
// Skipped immediately and is never retried. A deployment failure is
// retried against a fresh environment while the case's retry budget
// lasts; a platform that signalled a permanent mismatch is excluded from
// the remaining attempts. A case exceeding its timeout records Failed
// with a timeout message and is not retried. One case's outcome never
// affects another's scheduling.
package scheduler
