// Package dependency provides the directed acyclic graph over test case
// dependencies.
//
// A case may declare that it depends on other cases; the scheduler then
// runs it only after those complete, and skips it when any of them did
// not pass. The graph validates the declarations before a run: every
// dependency must name a registered case and no cycles are allowed, so a
// bad declaration fails at resolve time rather than stalling a run.
package dependency
