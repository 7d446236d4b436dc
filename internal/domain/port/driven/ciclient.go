// Package driven defines the driven ports (outbound collaborator contracts)
// for the release analysis pipeline.
package driven

import (
	"context"

	"github.com/cfarleigh/releasegate/internal/domain/model"
)

// CIClient defines the driven port for the CI platform that produced the
// build artifacts under analysis.
//
// Both methods treat absence as a non-error outcome: a nil run or nil bundle
// with a nil error means "nothing to analyze", which callers convert into a
// degenerate failure report rather than retrying or failing.
type CIClient interface {
	// FindLatestSuccessfulRun returns the most recent completed run on the
	// branch whose conclusion is success, searching a bounded window of the
	// 20 newest completed runs. Returns nil, nil when no such run exists.
	FindLatestSuccessfulRun(ctx context.Context, owner, repo, branch string) (*model.WorkflowRun, error)

	// FetchArtifact downloads the run's artifact archive whose name exactly
	// matches artifactName. Returns nil, nil when the run has no artifact by
	// that name.
	FetchArtifact(ctx context.Context, owner, repo string, run model.WorkflowRun, artifactName string) (*model.ArtifactBundle, error)
}
