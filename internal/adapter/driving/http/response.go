package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cfarleigh/releasegate/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// RunAnalysisRequest optionally overrides the configured repository
// coordinates for a single analysis run. An empty body means "use defaults".
type RunAnalysisRequest struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
}

// ReportResponse is the JSON representation of a finished analysis report.
// Degenerate failure reports carry only the markdown body and failed=true.
type ReportResponse struct {
	ReportID    string   `json:"report_id,omitempty"`
	GeneratedAt string   `json:"generated_at,omitempty"`
	RunID       int64    `json:"run_id,omitempty"`
	Score       int      `json:"score"`
	Level       string   `json:"level,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Evidence    []string `json:"evidence,omitempty"`
	Markdown    string   `json:"markdown"`
	Failed      bool     `json:"failed"`
}

func toReportResponse(report model.Report) ReportResponse {
	resp := ReportResponse{
		ReportID: report.ReportID,
		RunID:    report.RunID,
		Score:    report.Score,
		Level:    string(report.Level),
		Summary:  report.Summary,
		Evidence: report.Evidence,
		Markdown: report.Markdown,
		Failed:   report.IsFailure(),
	}
	if !report.GeneratedAt.IsZero() {
		resp.GeneratedAt = report.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
