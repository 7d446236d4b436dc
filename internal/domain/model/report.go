package model

import "time"

// Report is the rendered release readiness report returned to the caller.
// ReportID and GeneratedAt are fresh on every synthesis; everything else is a
// pure function of the analysis result. The core does not persist reports.
type Report struct {
	ReportID    string
	GeneratedAt time.Time
	RunID       int64
	Score       int
	Level       RiskLevel
	Summary     string
	Evidence    []string
	Markdown    string
}

// IsFailure reports whether this is a degenerate failure report, i.e. the
// pipeline terminated on an expected-absence condition (no successful run, no
// processable artifacts) and produced one of the canned failure bodies.
func (r Report) IsFailure() bool {
	return r.ReportID == ""
}
