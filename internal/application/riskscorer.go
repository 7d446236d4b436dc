package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cfarleigh/releasegate/internal/domain/model"
	"github.com/cfarleigh/releasegate/internal/domain/port/driven"
)

// riskAgent labels the risk scorer in the metrics sink.
const riskAgent = "risk_agent"

// evidenceProbe is the fixed retrieval query used to pull risk-relevant
// evidence for a run.
const evidenceProbe = "summary of test failures, errors, and critical vulnerabilities"

// evidenceTopK bounds how many evidence snippets are retrieved per analysis.
const evidenceTopK = 10

// RiskStrategy scores a set of retrieved evidence snippets. Implementations
// must be deterministic in everything except the evidence they are given, so
// the keyword heuristic can later be swapped for a learned or LLM-judged
// scorer without touching retrieval or reporting.
type RiskStrategy interface {
	Score(evidence []string) model.RiskAnalysisResult
}

// Keyword weights for the default strategy.
const (
	failedWeight         = 40
	highSeverityWeight   = 50
	mediumSeverityWeight = 20
	maxRiskScore         = 100
)

// KeywordStrategy is the default RiskStrategy: a deliberately simple,
// explainable substring heuristic, not a learned model. Exact scores can be
// asserted from literal evidence sets.
type KeywordStrategy struct{}

// Compile-time interface satisfaction check.
var _ RiskStrategy = KeywordStrategy{}

// Score applies three independent substring checks to every evidence string,
// in fixed order; each check may fire on the same string. The score
// accumulates additively and is clamped to 100. Findings are deduplicated
// preserving first occurrence; their join overrides the tier's baseline
// summary when any fired.
func (KeywordStrategy) Score(evidence []string) model.RiskAnalysisResult {
	score := 0
	var findings []string

	addFinding := func(f string) {
		for _, existing := range findings {
			if existing == f {
				return
			}
		}
		findings = append(findings, f)
	}

	for _, doc := range evidence {
		if doc == "" {
			continue
		}

		if strings.Contains(doc, "FAILED") {
			score += failedWeight
			addFinding("Test failures detected.")
		}
		if strings.Contains(doc, "High severity") {
			score += highSeverityWeight
			addFinding("High severity vulnerabilities found.")
		}
		if strings.Contains(doc, "Medium severity") {
			score += mediumSeverityWeight
			addFinding("Medium severity vulnerabilities found.")
		}
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}

	level := model.RiskLevelLow
	summary := "No significant risks detected."
	switch {
	case score >= 90:
		level = model.RiskLevelCritical
		summary = "Critical risks identified. Deployment is not recommended."
	case score >= 70:
		level = model.RiskLevelHigh
		summary = "High risks identified. Proceed with extreme caution."
	case score >= 40:
		level = model.RiskLevelMedium
		summary = "Medium risks identified. Review required before deployment."
	}

	if len(findings) > 0 {
		summary = strings.Join(findings, " ")
	}

	return model.RiskAnalysisResult{
		RiskScore: score,
		RiskLevel: level,
		Summary:   summary,
		Evidence:  evidence,
	}
}

// RiskScorer retrieves evidence for a run from the index and delegates
// scoring to its strategy.
type RiskScorer struct {
	index    driven.EvidenceIndex
	strategy RiskStrategy
	metrics  driven.MetricsSink
}

// NewRiskScorer creates a RiskScorer with the given strategy. Passing
// KeywordStrategy{} gives the default heuristic.
func NewRiskScorer(index driven.EvidenceIndex, strategy RiskStrategy, metrics driven.MetricsSink) *RiskScorer {
	return &RiskScorer{
		index:    index,
		strategy: strategy,
		metrics:  metrics,
	}
}

// AnalyzeRisk retrieves up to 10 evidence snippets for the run, strictly
// filtered by run id so cross-run evidence never leaks into a report, and
// scores them.
func (s *RiskScorer) AnalyzeRisk(ctx context.Context, runID int64) (model.RiskAnalysisResult, error) {
	s.metrics.IncAgentInvocations(riskAgent)
	stopAgent := s.metrics.AgentTimer(riskAgent)
	defer stopAgent()

	stopRetrieval := s.metrics.RetrievalTimer(riskAgent)
	evidence, err := s.index.Query(ctx, evidenceProbe, runID, evidenceTopK)
	stopRetrieval()
	if err != nil {
		return model.RiskAnalysisResult{}, fmt.Errorf("retrieving evidence for run %d: %w", runID, err)
	}

	slog.Debug("evidence retrieved", "run_id", runID, "count", len(evidence))

	result := s.strategy.Score(evidence)

	slog.Info("risk analysis complete",
		"run_id", runID,
		"score", result.RiskScore,
		"level", string(result.RiskLevel),
	)

	return result, nil
}
