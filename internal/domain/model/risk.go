package model

// RiskLevel is the categorical tier derived from a numeric risk score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelCritical RiskLevel = "Critical"
)

// RiskAnalysisResult is the outcome of scoring retrieved evidence for a run.
// Created once per analysis invocation and consumed by the report
// synthesizer; not persisted.
type RiskAnalysisResult struct {
	RiskScore int       // bounded to [0, 100]
	RiskLevel RiskLevel
	Summary   string
	Evidence  []string // retrieved snippets, relevance-ranked
}
