package search

import (
	"fmt"
	"strings"
)

// CheckResult reports whether a capability satisfies a requirement, with
// accumulated human-readable reasons when it does not. Reasons survive
// merging across dimensions so a skip message can name every mismatch.
type CheckResult struct {
	OK      bool
	Reasons []string
}

// Pass returns a passing CheckResult.
func Pass() CheckResult {
	return CheckResult{OK: true}
}

// Failf returns a failing CheckResult with a single formatted reason.
func Failf(format string, args ...interface{}) CheckResult {
	return CheckResult{Reasons: []string{fmt.Sprintf(format, args...)}}
}

// AddReason marks the result failed and records a reason, deduplicating
// exact repeats.
func (r *CheckResult) AddReason(reason string) {
	r.OK = false
	for _, existing := range r.Reasons {
		if existing == reason {
			return
		}
	}
	r.Reasons = append(r.Reasons, reason)
}

// Merge folds a sub-result into this one, prefixing its reasons with a
// dimension or node name so the origin of each mismatch stays visible.
func (r *CheckResult) Merge(sub CheckResult, name string) {
	if sub.OK {
		return
	}
	r.OK = false
	for _, reason := range sub.Reasons {
		if name != "" {
			reason = name + ": " + reason
		}
		r.AddReason(reason)
	}
}

// Reason returns all reasons joined into one line.
func (r *CheckResult) Reason() string {
	return strings.Join(r.Reasons, "; ")
}
