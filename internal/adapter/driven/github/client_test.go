package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/cfarleigh/releasegate/internal/adapter/driven/github"
	"github.com/cfarleigh/releasegate/internal/domain/model"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) (*ghAdapter.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/")
	require.NoError(t, err)

	return client, server
}

// runJSON is a helper struct for building GitHub Actions workflow run responses.
type runJSON struct {
	ID         int64  `json:"id"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
}

type runListJSON struct {
	TotalCount int       `json:"total_count"`
	Runs       []runJSON `json:"workflow_runs"`
}

// artifactJSON is a helper struct for building artifact list responses.
type artifactJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type artifactListJSON struct {
	TotalCount int            `json:"total_count"`
	Artifacts  []artifactJSON `json:"artifacts"`
}

func TestFindLatestSuccessfulRun(t *testing.T) {
	tests := []struct {
		name string
		runs []runJSON
		want *model.WorkflowRun
	}{
		{
			name: "newest success wins",
			runs: []runJSON{
				{ID: 300, Status: "completed", Conclusion: "failure"},
				{ID: 200, Status: "completed", Conclusion: "success"},
				{ID: 100, Status: "completed", Conclusion: "success"},
			},
			want: &model.WorkflowRun{ID: 200, Conclusion: model.RunConclusionSuccess},
		},
		{
			name: "no successful run in window",
			runs: []runJSON{
				{ID: 300, Status: "completed", Conclusion: "failure"},
				{ID: 200, Status: "completed", Conclusion: "cancelled"},
			},
			want: nil,
		},
		{
			name: "empty window",
			runs: []runJSON{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /repos/acme/widgets/actions/runs", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "main", r.URL.Query().Get("branch"))
				assert.Equal(t, "completed", r.URL.Query().Get("status"))
				assert.Equal(t, "20", r.URL.Query().Get("per_page"))

				_ = json.NewEncoder(w).Encode(runListJSON{TotalCount: len(tt.runs), Runs: tt.runs})
			})

			client, _ := newTestClient(t, mux)

			got, err := client.FindLatestSuccessfulRun(context.Background(), "acme", "widgets", "main")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindLatestSuccessfulRun_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/actions/runs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.FindLatestSuccessfulRun(context.Background(), "acme", "widgets", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing workflow runs")
}

func TestFetchArtifact(t *testing.T) {
	archive := []byte("PK\x03\x04 fake zip payload")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/actions/runs/42/artifacts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(artifactListJSON{
			TotalCount: 2,
			Artifacts: []artifactJSON{
				{ID: 7, Name: "coverage"},
				{ID: 8, Name: "build-reports"},
			},
		})
	})
	mux.HandleFunc("GET /repos/acme/widgets/actions/artifacts/8/zip", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://"+r.Host+"/signed/download", http.StatusFound)
	})
	mux.HandleFunc("GET /signed/download", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})

	client, _ := newTestClient(t, mux)

	bundle, err := client.FetchArtifact(context.Background(), "acme", "widgets",
		model.WorkflowRun{ID: 42, Conclusion: model.RunConclusionSuccess}, "build-reports")
	require.NoError(t, err)
	require.NotNil(t, bundle)

	assert.Equal(t, "build-reports", bundle.Name)
	assert.Equal(t, int64(8), bundle.ID)
	assert.Equal(t, archive, bundle.Archive)
}

func TestFetchArtifact_NameNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/actions/runs/42/artifacts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(artifactListJSON{
			TotalCount: 1,
			Artifacts:  []artifactJSON{{ID: 7, Name: "coverage"}},
		})
	})

	client, _ := newTestClient(t, mux)

	bundle, err := client.FetchArtifact(context.Background(), "acme", "widgets",
		model.WorkflowRun{ID: 42}, "build-reports")
	require.NoError(t, err)
	assert.Nil(t, bundle, "missing artifact must be nil, not an error")
}

func TestFetchArtifact_DownloadError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/actions/runs/42/artifacts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(artifactListJSON{
			TotalCount: 1,
			Artifacts:  []artifactJSON{{ID: 8, Name: "build-reports"}},
		})
	})
	mux.HandleFunc("GET /repos/acme/widgets/actions/artifacts/8/zip", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://"+r.Host+"/signed/download", http.StatusFound)
	})
	mux.HandleFunc("GET /signed/download", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.FetchArtifact(context.Background(), "acme", "widgets",
		model.WorkflowRun{ID: 42}, "build-reports")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
}
