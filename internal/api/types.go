package api

import "time"

// TestStatus is the terminal status of a test case request.
// Every request ends in exactly one of Passed, Failed or Skipped.
type TestStatus string

const (
	StatusPassed  TestStatus = "Passed"
	StatusFailed  TestStatus = "Failed"
	StatusSkipped TestStatus = "Skipped"
)

// Skip reasons distinguish why a test never ran. The scheduler always
// includes one of these fragments in a Skipped result message so reports
// can tell an unsatisfiable requirement from a filter exclusion.
const (
	SkipReasonUnsatisfiable = "unsatisfiable requirement"
	SkipReasonDependency    = "upstream dependency failed"
	SkipReasonFiltered      = "explicitly excluded by filter"
)

// TestResult is the record produced for every completed test case request.
// It is the only thing the core hands to reporting backends.
type TestResult struct {
	// TestID identifies the test case this result belongs to.
	TestID string `json:"testId" yaml:"testId"`

	// Suite is the test suite the case was declared in.
	Suite string `json:"suite,omitempty" yaml:"suite,omitempty"`

	// Status is the terminal status of the request.
	Status TestStatus `json:"status" yaml:"status"`

	// Message is a human-readable one-line reason for the status.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// EnvironmentID names the environment the test ran on, if any.
	EnvironmentID string `json:"environmentId,omitempty" yaml:"environmentId,omitempty"`

	// Attempts counts how many deployment attempts were made for this
	// request, including the successful one.
	Attempts int `json:"attempts" yaml:"attempts"`

	// Elapsed is the wall time from dispatch to completion.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// RunSummary aggregates the results of one scheduling run.
type RunSummary struct {
	Results []TestResult `json:"results" yaml:"results"`

	// EnvironmentsCreated counts every environment the pool requested from
	// a platform during the run, including ones that later failed.
	EnvironmentsCreated int `json:"environmentsCreated" yaml:"environmentsCreated"`

	// EnvironmentsFailed counts environments that ended in the Failed state.
	EnvironmentsFailed int `json:"environmentsFailed" yaml:"environmentsFailed"`

	// Elapsed is the wall time of the whole run.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Counts returns the number of passed, failed and skipped results.
func (s *RunSummary) Counts() (passed, failed, skipped int) {
	for _, r := range s.Results {
		switch r.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}
