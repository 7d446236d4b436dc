package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfarleigh/releasegate/internal/adapter/driven/prom"
	"github.com/cfarleigh/releasegate/internal/domain/model"
)

// fakeCI implements driven.CIClient for orchestration tests.
type fakeCI struct {
	run      *model.WorkflowRun
	bundle   *model.ArtifactBundle
	findErr  error
	fetchErr error

	gotArtifactName string
}

func (f *fakeCI) FindLatestSuccessfulRun(ctx context.Context, owner, repo, branch string) (*model.WorkflowRun, error) {
	return f.run, f.findErr
}

func (f *fakeCI) FetchArtifact(ctx context.Context, owner, repo string, run model.WorkflowRun, artifactName string) (*model.ArtifactBundle, error) {
	f.gotArtifactName = artifactName
	return f.bundle, f.fetchErr
}

func newService(ci *fakeCI, index *fakeIndex) *AnalysisService {
	scorer := NewRiskScorer(index, KeywordStrategy{}, prom.Nop{})
	return NewAnalysisService(ci, index, scorer, NewReporter(), prom.Nop{}, "build-reports")
}

func TestRun_NoSuccessfulRun(t *testing.T) {
	index := &fakeIndex{}
	service := newService(&fakeCI{run: nil}, index)

	report, err := service.Run(context.Background(), "acme", "widgets", "main")
	require.NoError(t, err, "expected absence is not an error")

	assert.True(t, report.IsFailure())
	assert.Equal(t, "# Analysis Failed\n\nCould not find a successful workflow run.", report.Markdown)
	assert.True(t, index.ensured, "collection is ensured before the run lookup")
	assert.Empty(t, index.upserted)
}

func TestRun_NoArtifact(t *testing.T) {
	ci := &fakeCI{
		run:    &model.WorkflowRun{ID: 42, Conclusion: model.RunConclusionSuccess},
		bundle: nil,
	}
	index := &fakeIndex{}
	service := newService(ci, index)

	report, err := service.Run(context.Background(), "acme", "widgets", "main")
	require.NoError(t, err)

	assert.Equal(t, "build-reports", ci.gotArtifactName)
	assert.True(t, report.IsFailure())
	assert.Equal(t, "# Analysis Failed\n\nCould not process any artifacts from the workflow run.", report.Markdown)
	assert.Empty(t, index.upserted)
}

func TestRun_ArtifactWithoutReports(t *testing.T) {
	archive := buildZip(t, [][2]string{{"readme.txt", "no reports here"}})
	ci := &fakeCI{
		run:    &model.WorkflowRun{ID: 42, Conclusion: model.RunConclusionSuccess},
		bundle: &model.ArtifactBundle{Name: "build-reports", ID: 8, Archive: archive},
	}
	index := &fakeIndex{}
	service := newService(ci, index)

	report, err := service.Run(context.Background(), "acme", "widgets", "main")
	require.NoError(t, err)

	assert.True(t, report.IsFailure())
	assert.Equal(t, "# Analysis Failed\n\nCould not process any artifacts from the workflow run.", report.Markdown)
	assert.Empty(t, index.upserted, "nothing to ingest means no upsert")
}

func TestRun_HappyPath(t *testing.T) {
	archive := buildZip(t, [][2]string{
		{"reports/junit.xml", twoSuitesXML},
		{"scan/security-report.json", securityJSON},
	})
	ci := &fakeCI{
		run:    &model.WorkflowRun{ID: 42, Conclusion: model.RunConclusionSuccess},
		bundle: &model.ArtifactBundle{Name: "build-reports", ID: 8, Archive: archive},
	}
	index := &fakeIndex{}
	service := newService(ci, index)

	report, err := service.Run(context.Background(), "acme", "widgets", "main")
	require.NoError(t, err)
	require.False(t, report.IsFailure())

	// Both report files were ingested under the analyzed run's id.
	require.Len(t, index.upserted, 2)
	for _, doc := range index.upserted {
		assert.Equal(t, int64(42), doc.RunID)
	}

	// The scorer queried the same run the documents were ingested for.
	assert.Equal(t, int64(42), index.gotRunID)

	assert.Equal(t, int64(42), report.RunID)
	assert.NotEmpty(t, report.ReportID)
	assert.Contains(t, report.Markdown, "# Release Readiness Report")
}

func TestRun_ScoresRetrievedEvidence(t *testing.T) {
	archive := buildZip(t, [][2]string{{"reports/junit.xml", twoSuitesXML}})
	ci := &fakeCI{
		run:    &model.WorkflowRun{ID: 42, Conclusion: model.RunConclusionSuccess},
		bundle: &model.ArtifactBundle{Name: "build-reports", ID: 8, Archive: archive},
	}
	index := &fakeIndex{evidence: []string{"FAILED: x", "High severity vuln"}}
	service := newService(ci, index)

	report, err := service.Run(context.Background(), "acme", "widgets", "main")
	require.NoError(t, err)

	assert.Equal(t, 90, report.Score)
	assert.Equal(t, model.RiskLevelCritical, report.Level)
	assert.Equal(t, "Test failures detected. High severity vulnerabilities found.", report.Summary)
}

func TestRun_TransportFailures(t *testing.T) {
	tests := []struct {
		name    string
		ci      *fakeCI
		index   *fakeIndex
		wantErr string
	}{
		{
			name:    "run lookup fails",
			ci:      &fakeCI{findErr: errors.New("api down")},
			index:   &fakeIndex{},
			wantErr: "finding latest successful run",
		},
		{
			name: "artifact fetch fails",
			ci: &fakeCI{
				run:      &model.WorkflowRun{ID: 42},
				fetchErr: errors.New("download failed"),
			},
			index:   &fakeIndex{},
			wantErr: "fetching artifact",
		},
		{
			name: "upsert fails",
			ci: &fakeCI{
				run: &model.WorkflowRun{ID: 42},
				bundle: &model.ArtifactBundle{
					Archive: buildZip(t, [][2]string{{"reports/junit.xml", twoSuitesXML}}),
				},
			},
			index:   &fakeIndex{upsertErr: errors.New("index down")},
			wantErr: "upserting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newService(tt.ci, tt.index)

			_, err := service.Run(context.Background(), "acme", "widgets", "main")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
