package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cfarleigh/releasegate/internal/domain/model"
	"github.com/cfarleigh/releasegate/internal/domain/port/driven"
)

// orchestratorAgent labels the full pipeline run in the metrics sink.
const orchestratorAgent = "intel_orchestrator"

// ingestionSource labels ingested documents in the chunk counter.
const ingestionSource = "github_artifacts"

// The two defined terminal-failure report bodies. Expected absences are
// presented as these degenerate reports, never as errors.
const (
	failureNoRun       = "# Analysis Failed\n\nCould not find a successful workflow run."
	failureNoArtifacts = "# Analysis Failed\n\nCould not process any artifacts from the workflow run."
)

// AnalysisService orchestrates the full pipeline: artifact acquisition,
// normalization, indexing, risk scoring, and report synthesis. Each stage
// runs sequentially; no stage starts before its predecessor completes.
type AnalysisService struct {
	ci           driven.CIClient
	index        driven.EvidenceIndex
	normalizer   Normalizer
	scorer       *RiskScorer
	reporter     *Reporter
	metrics      driven.MetricsSink
	artifactName string
}

// NewAnalysisService creates an AnalysisService with all required
// collaborators. artifactName is the exact name of the CI artifact bundle to
// analyze (the build publishes its reports under a single well-known name).
func NewAnalysisService(
	ci driven.CIClient,
	index driven.EvidenceIndex,
	scorer *RiskScorer,
	reporter *Reporter,
	metrics driven.MetricsSink,
	artifactName string,
) *AnalysisService {
	return &AnalysisService{
		ci:           ci,
		index:        index,
		scorer:       scorer,
		reporter:     reporter,
		metrics:      metrics,
		artifactName: artifactName,
	}
}

// Run executes one full analysis for the repository branch and returns the
// rendered report.
//
// Two outcomes are expected absences, returned as degenerate failure reports
// with nil error: no successful run in the lookback window, and no
// processable artifacts on the run that was found. Collaborator transport
// failures are returned as errors; the service never retries internally.
func (s *AnalysisService) Run(ctx context.Context, owner, repo, branch string) (model.Report, error) {
	s.metrics.IncAgentInvocations(orchestratorAgent)
	stop := s.metrics.AgentTimer(orchestratorAgent)
	defer stop()

	slog.Info("starting analysis", "owner", owner, "repo", repo, "branch", branch)

	if err := s.index.EnsureCollection(ctx); err != nil {
		return model.Report{}, fmt.Errorf("ensuring evidence collection: %w", err)
	}

	run, err := s.ci.FindLatestSuccessfulRun(ctx, owner, repo, branch)
	if err != nil {
		return model.Report{}, fmt.Errorf("finding latest successful run: %w", err)
	}
	if run == nil {
		slog.Error("analysis failed: no successful workflow run found",
			"owner", owner, "repo", repo, "branch", branch)
		return model.Report{Markdown: failureNoRun}, nil
	}
	slog.Info("found latest successful run", "run_id", run.ID)

	docs, err := s.ingest(ctx, owner, repo, *run)
	if err != nil {
		return model.Report{}, err
	}
	if len(docs) == 0 {
		slog.Error("ingestion failed: no artifacts processed", "run_id", run.ID)
		return model.Report{Markdown: failureNoArtifacts}, nil
	}
	slog.Info("ingestion complete", "run_id", run.ID, "documents", len(docs))

	result, err := s.scorer.AnalyzeRisk(ctx, run.ID)
	if err != nil {
		return model.Report{}, err
	}

	s.metrics.IncAgentInvocations(writerAgent)
	stopWriter := s.metrics.AgentTimer(writerAgent)
	report := s.reporter.Synthesize(result, run.ID)
	stopWriter()
	slog.Info("report generated", "report_id", report.ReportID, "run_id", run.ID)

	return report, nil
}

// ingest fetches the run's artifact bundle, normalizes it, and upserts the
// resulting documents. A missing artifact or a bundle with no recognized
// reports yields an empty document slice, which the caller converts into the
// no-artifacts failure report.
func (s *AnalysisService) ingest(ctx context.Context, owner, repo string, run model.WorkflowRun) ([]model.Document, error) {
	bundle, err := s.ci.FetchArtifact(ctx, owner, repo, run, s.artifactName)
	if err != nil {
		return nil, fmt.Errorf("fetching artifact %q: %w", s.artifactName, err)
	}
	if bundle == nil {
		slog.Warn("no artifact with expected name on run",
			"run_id", run.ID, "artifact", s.artifactName)
		return nil, nil
	}

	docs, err := s.normalizer.Normalize(*bundle, run.ID)
	if err != nil {
		return nil, fmt.Errorf("normalizing artifact bundle: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	s.metrics.AddChunksIngested(ingestionSource, len(docs))

	if err := s.index.Upsert(ctx, docs); err != nil {
		return nil, fmt.Errorf("upserting %d documents: %w", len(docs), err)
	}

	return docs, nil
}
