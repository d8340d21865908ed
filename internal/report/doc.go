// Package report delivers test results to the outside world.
//
// The scheduler hands every completed result to a Notifier; the summary
// follows when the run drains. Console streams a line per result and a
// final table, Multi fans out to several notifiers. The summary table is
// the human-facing end of a run and carries per-case status, attempts and
// timing plus the environment totals.
package report
