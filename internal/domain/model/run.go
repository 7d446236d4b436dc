// Package model contains the domain types for the release analysis pipeline.
package model

// RunConclusion is the terminal outcome of a completed workflow run.
type RunConclusion string

const (
	RunConclusionSuccess RunConclusion = "success"
	RunConclusionFailure RunConclusion = "failure"
	// RunConclusionOther covers every non-success, non-failure outcome the CI
	// platform reports (cancelled, skipped, timed_out, ...). The pipeline only
	// cares whether a run succeeded.
	RunConclusionOther RunConclusion = "other"
)

// WorkflowRun represents one completed execution of a CI pipeline.
// Fetched read-only from the CI platform and immutable thereafter.
type WorkflowRun struct {
	ID         int64
	Conclusion RunConclusion
}
