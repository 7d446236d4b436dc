package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cfarleigh/releasegate/internal/domain/model"
)

// writerAgent labels the report synthesizer in the metrics sink.
const writerAgent = "writer_agent"

// noEvidencePlaceholder is rendered when retrieval returned nothing.
const noEvidencePlaceholder = "No specific evidence chunks were retrieved by the query."

// Reporter renders risk analysis results as markdown reports. Synthesis is
// pure formatting: no I/O, no collaborators, never fails. The report id and
// timestamp are the only non-deterministic fields.
type Reporter struct {
	now   func() time.Time
	newID func() string
}

// NewReporter creates a Reporter using the real clock and uuid generator.
func NewReporter() *Reporter {
	return &Reporter{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// NewReporterWithClock creates a Reporter with injected clock and id
// generator. Intended for tests that need deterministic output.
func NewReporterWithClock(now func() time.Time, newID func() string) *Reporter {
	return &Reporter{
		now:   now,
		newID: newID,
	}
}

// Synthesize renders the fixed-structure markdown report for an analysis
// result. A fresh report id and timestamp are generated on every call.
func (r *Reporter) Synthesize(result model.RiskAnalysisResult, runID int64) model.Report {
	reportID := r.newID()
	generatedAt := r.now().UTC()

	var evidenceSection strings.Builder
	evidenceSection.WriteString("### 🔍 Evidence Found\n")
	if len(result.Evidence) > 0 {
		for n, e := range result.Evidence {
			if n > 0 {
				evidenceSection.WriteString("\n\n")
			}
			fmt.Fprintf(&evidenceSection, "```\n%s\n```", strings.TrimSpace(e))
		}
	} else {
		evidenceSection.WriteString(noEvidencePlaceholder)
	}

	markdown := fmt.Sprintf(`# Release Readiness Report

**Report ID:** `+"`%s`"+`
**Analysis Date:** %s
**Workflow Run ID:** `+"`%d`"+`

---

## 📊 Risk Assessment

| Metric      | Value                             |
|-------------|-----------------------------------|
| **Risk Score** | **%d / 100** |
| **Risk Level** | **%s** |

**Summary:** %s

---

%s`,
		reportID,
		generatedAt.Format(time.RFC1123),
		runID,
		result.RiskScore,
		result.RiskLevel,
		result.Summary,
		evidenceSection.String(),
	)

	return model.Report{
		ReportID:    reportID,
		GeneratedAt: generatedAt,
		RunID:       runID,
		Score:       result.RiskScore,
		Level:       result.RiskLevel,
		Summary:     result.Summary,
		Evidence:    result.Evidence,
		Markdown:    strings.TrimSpace(markdown),
	}
}
