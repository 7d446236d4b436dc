// Package github implements the CIClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/cfarleigh/releasegate/internal/domain/model"
	"github.com/cfarleigh/releasegate/internal/domain/port/driven"
)

// runLookbackWindow bounds how many completed runs are inspected when
// searching for the latest success. Runs older than the window are never
// considered, even if one of them succeeded.
const runLookbackWindow = 20

// maxArchiveBytes caps how much of an artifact archive is read into memory.
const maxArchiveBytes = 64 << 20

// Compile-time interface satisfaction check.
var _ driven.CIClient = (*Client)(nil)

// Client implements the driven.CIClient port using the go-github library.
type Client struct {
	gh       *gh.Client
	download *http.Client // follows the signed artifact download URL
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{
		gh:       client,
		download: &http.Client{Timeout: 2 * time.Minute},
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{
		gh:       client,
		download: httpClient,
	}, nil
}

// FindLatestSuccessfulRun returns the newest completed workflow run on the
// branch whose conclusion is success. Only the most recent completed runs
// (newest first, bounded by the lookback window) are inspected. Returns
// nil, nil when none of them succeeded; callers must treat that as a
// terminal "nothing to analyze" outcome, not an error.
func (c *Client) FindLatestSuccessfulRun(ctx context.Context, owner, repo, branch string) (*model.WorkflowRun, error) {
	opts := &gh.ListWorkflowRunsOptions{
		Branch: branch,
		Status: "completed",
		ListOptions: gh.ListOptions{
			PerPage: runLookbackWindow,
		},
	}

	runs, resp, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
	if err != nil {
		return nil, fmt.Errorf("listing workflow runs for %s/%s@%s: %w", owner, repo, branch, err)
	}

	logRateLimit(resp, owner+"/"+repo+"/runs", len(runs.WorkflowRuns))

	for _, run := range runs.WorkflowRuns {
		if run.GetConclusion() == "success" {
			return &model.WorkflowRun{
				ID:         run.GetID(),
				Conclusion: model.RunConclusionSuccess,
			}, nil
		}
	}

	return nil, nil
}

// FetchArtifact downloads the run's artifact archive whose name exactly
// matches artifactName. Returns nil, nil when the run has no artifact by
// that name; absence is an expected, reportable outcome.
func (c *Client) FetchArtifact(ctx context.Context, owner, repo string, run model.WorkflowRun, artifactName string) (*model.ArtifactBundle, error) {
	opts := &gh.ListOptions{PerPage: 100}

	artifacts, resp, err := c.gh.Actions.ListWorkflowRunArtifacts(ctx, owner, repo, run.ID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts for %s/%s run %d: %w", owner, repo, run.ID, err)
	}

	logRateLimit(resp, owner+"/"+repo+"/artifacts", len(artifacts.Artifacts))

	var artifact *gh.Artifact
	for _, a := range artifacts.Artifacts {
		if a.GetName() == artifactName {
			artifact = a
			break
		}
	}
	if artifact == nil {
		return nil, nil
	}

	archive, err := c.downloadArchive(ctx, owner, repo, artifact.GetID())
	if err != nil {
		return nil, err
	}

	return &model.ArtifactBundle{
		Name:    artifact.GetName(),
		ID:      artifact.GetID(),
		Archive: archive,
	}, nil
}

// downloadArchive resolves the artifact's signed zip URL and reads the
// archive into memory.
func (c *Client) downloadArchive(ctx context.Context, owner, repo string, artifactID int64) ([]byte, error) {
	downloadURL, _, err := c.gh.Actions.DownloadArtifact(ctx, owner, repo, artifactID, 1)
	if err != nil {
		return nil, fmt.Errorf("resolving download URL for artifact %d: %w", artifactID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building artifact download request: %w", err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading artifact %d: %w", artifactID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading artifact %d: unexpected status %d", artifactID, resp.StatusCode)
	}

	archive, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes))
	if err != nil {
		return nil, fmt.Errorf("reading artifact %d archive: %w", artifactID, err)
	}

	return archive, nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
