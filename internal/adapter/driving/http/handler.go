package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cfarleigh/releasegate/internal/adapter/driving/web"
	"github.com/cfarleigh/releasegate/internal/domain/model"
)

// AnalysisRunner runs one full release analysis for a repository branch.
// Satisfied by application.AnalysisService.
type AnalysisRunner interface {
	Run(ctx context.Context, owner, repo, branch string) (model.Report, error)
}

// Defaults are the repository coordinates analyzed when a request does not
// override them. They come from configuration at startup.
type Defaults struct {
	Owner  string
	Repo   string
	Branch string
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	runner   AnalysisRunner
	defaults Defaults
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(runner AnalysisRunner, defaults Defaults, logger *slog.Logger) *Handler {
	return &Handler{
		runner:   runner,
		defaults: defaults,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/analysis/run", h.RunAnalysis)
	// GET variant exists for browsers loading the HTML report view.
	mux.HandleFunc("GET /api/v1/analysis/run", h.RunAnalysis)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// RunAnalysis executes one analysis of the configured repository branch and
// returns the rendered report. An optional JSON body may override the
// configured owner, repo, and branch. With ?format=html the report markdown
// is returned rendered as sanitized HTML instead of JSON.
func (h *Handler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	owner, repo, branch := h.defaults.Owner, h.defaults.Repo, h.defaults.Branch

	var req RunAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Owner != "" {
		owner = req.Owner
	}
	if req.Repo != "" {
		repo = req.Repo
	}
	if req.Branch != "" {
		branch = req.Branch
	}
	if owner == "" || repo == "" {
		writeError(w, http.StatusBadRequest, "owner and repo must be configured or provided")
		return
	}

	report, err := h.runner.Run(r.Context(), owner, repo, branch)
	if err != nil {
		h.logger.Error("analysis failed", "owner", owner, "repo", repo, "branch", branch, "error", err)
		writeError(w, http.StatusBadGateway, "analysis failed: upstream dependency error")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(web.RenderMarkdown(report.Markdown)))
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
